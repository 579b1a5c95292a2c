package printer

import (
	"bytes"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func capture(t *testing.T) (*bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	prev := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = prev })

	var out, errOut bytes.Buffer
	t.Cleanup(SetOutput(&out, &errOut))
	return &out, &errOut
}

func TestError(t *testing.T) {
	t.Run("returns error with title", func(t *testing.T) {
		_, errOut := capture(t)
		err := Error("Test Error", "This is a test error", []string{})
		require.Error(t, err)
		require.Equal(t, "Test Error", err.Error())
		assert.Equal(t, "Test Error\n\nThis is a test error\n", errOut.String())
	})

	t.Run("single suggestion is printed as is", func(t *testing.T) {
		_, errOut := capture(t)
		err := Error("Test Error", "Explanation", []string{"Try this fix"})
		require.Equal(t, "Test Error", err.Error())
		assert.Contains(t, errOut.String(), "\nTry this fix\n")
		assert.NotContains(t, errOut.String(), "Either:")
	})

	t.Run("multiple suggestions are numbered", func(t *testing.T) {
		_, errOut := capture(t)
		err := Error("Test Error", "Explanation", []string{
			"First option",
			"Second option",
		})
		require.Equal(t, "Test Error", err.Error())
		assert.Contains(t, errOut.String(), "Either:\n  1. First option\n  2. Second option\n")
	})
}

func TestErrorWithContext(t *testing.T) {
	_, errOut := capture(t)
	context := map[string]string{
		"Library":  "default",
		"Campaign": "Frostfall",
	}
	err := ErrorWithContext("Test Error", "Explanation", context, []string{"Fix it"})
	require.Error(t, err)
	require.Equal(t, "Test Error", err.Error())
	assert.Contains(t, errOut.String(), "  Campaign: Frostfall\n  Library: default\n")
}

func TestMessages(t *testing.T) {
	out, errOut := capture(t)

	Success("saved\n")
	Success("✓ already prefixed\n")
	Warning("careful\n")
	Step("loading\n")
	Info("plain %d\n", 1)
	Notice("success", "NPC \"Gorm\" created")
	Notice("error", "Failed to save campaigns")

	assert.Equal(t, "✓ saved\n✓ already prefixed\n⚠️  careful\n→ loading\nplain 1\n✓ NPC \"Gorm\" created\n", out.String())
	assert.Equal(t, "✗ Failed to save campaigns\n", errOut.String())
}
