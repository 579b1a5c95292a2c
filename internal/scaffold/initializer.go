package scaffold

import (
	"embed"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/dyluth/tome/internal/config"
	"gopkg.in/yaml.v3"
)

//go:embed templates/*
var templatesFS embed.FS

// FileInfo represents a file to be created during initialization
type FileInfo struct {
	Path        string
	Content     []byte
	Permissions os.FileMode
}

// Initialize creates the tome project structure in dir.
// If force is true, an existing tome.yml and .tome/ state directory are removed first.
// Campaign data files are never touched.
func Initialize(dir string, force bool, out io.Writer) error {
	if force {
		if err := handleForce(dir, out); err != nil {
			return err
		}
	}

	files, err := getTemplateFiles()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Join(dir, config.StateDir), 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", config.StateDir, err)
	}

	for _, file := range files {
		path := filepath.Join(dir, file.Path)
		if err := os.WriteFile(path, file.Content, file.Permissions); err != nil {
			return fmt.Errorf("failed to write %s: %w", file.Path, err)
		}
	}

	return validateCreatedFiles(dir)
}

// handleForce removes existing files if --force was specified
func handleForce(dir string, out io.Writer) error {
	configPath := filepath.Join(dir, config.DefaultPath)
	if _, err := os.Stat(configPath); err == nil {
		fmt.Fprintf(out, "⚠️  Removing existing %s...\n", config.DefaultPath)
		if err := os.Remove(configPath); err != nil {
			return fmt.Errorf("failed to remove %s: %w", config.DefaultPath, err)
		}
	}

	stateDir := filepath.Join(dir, config.StateDir)
	if info, err := os.Stat(stateDir); err == nil && info.IsDir() {
		fmt.Fprintf(out, "⚠️  Removing existing %s/ directory...\n", config.StateDir)
		if err := os.RemoveAll(stateDir); err != nil {
			return fmt.Errorf("failed to remove %s/ directory: %w", config.StateDir, err)
		}
	}

	return nil
}

// getTemplateFiles reads all template files
func getTemplateFiles() ([]FileInfo, error) {
	tomeYml, err := templatesFS.ReadFile("templates/tome.yml.tmpl")
	if err != nil {
		return nil, fmt.Errorf("failed to read tome.yml template: %w", err)
	}
	return []FileInfo{{
		Path:        config.DefaultPath,
		Content:     tomeYml,
		Permissions: 0644,
	}}, nil
}

// validateCreatedFiles checks the written tome.yml parses and validates
func validateCreatedFiles(dir string) error {
	content, err := os.ReadFile(filepath.Join(dir, config.DefaultPath))
	if err != nil {
		return fmt.Errorf("failed to read created %s: %w", config.DefaultPath, err)
	}

	var cfg config.TomeConfig
	if err := yaml.Unmarshal(content, &cfg); err != nil {
		return fmt.Errorf("created %s is not valid YAML: %w", config.DefaultPath, err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("created %s is invalid: %w", config.DefaultPath, err)
	}

	return nil
}

// PrintSuccess prints the success message with created files
func PrintSuccess(out io.Writer) {
	fmt.Fprintln(out, "\n✅ Successfully initialized tome project!")
	fmt.Fprintln(out, "\nCreated:")
	fmt.Fprintf(out, "  ✓ %s\n", config.DefaultPath)
	fmt.Fprintf(out, "  ✓ %s/\n", config.StateDir)
	fmt.Fprintln(out, "\nNext steps:")
	fmt.Fprintf(out, "  1. Add '%s/' to your .gitignore file\n", config.StateDir)
	fmt.Fprintln(out, "  2. Run 'tome campaign create \"My Campaign\"' to start a campaign")
	fmt.Fprintln(out, "  3. Run 'tome add npc --set name=Barkeep' to add your first record")
}
