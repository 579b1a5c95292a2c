package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/dyluth/tome/internal/persist/redisstore"
	"github.com/dyluth/tome/internal/printer"
	"github.com/dyluth/tome/internal/watch"
)

var (
	watchOutputFormat string
	watchInterval     time.Duration
	watchTimeout      time.Duration
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Follow changes to the campaign library",
	Long: `Follow saves of the campaign library as they happen, from this session or any
other one sharing the same storage.

With the redis backend every save is pushed over Pub/Sub. The file and badger
backends are polled every --interval.

Output Formats:
  default - Human-readable output with timestamps and emojis
  jsonl   - Line-delimited JSON for programmatic processing

Examples:
  # Follow changes until interrupted
  tome watch

  # Export events as JSON
  tome watch --output=jsonl > events.jsonl`,
	Args: cobra.NoArgs,
	RunE: withSession(runWatch),
}

func init() {
	watchCmd.Flags().StringVarP(&watchOutputFormat, "output", "o", "default", "Output format (default or jsonl)")
	watchCmd.Flags().DurationVar(&watchInterval, "interval", watch.DefaultPollInterval, "Poll interval for file and badger storage")
	watchCmd.Flags().DurationVar(&watchTimeout, "timeout", 0, "Stop after this long (0 = until interrupted)")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(ctx context.Context, s *session, args []string) error {
	var outputFormat watch.OutputFormat
	switch watchOutputFormat {
	case "default":
		outputFormat = watch.OutputFormatDefault
	case "jsonl":
		outputFormat = watch.OutputFormatJSONL
	default:
		return printer.Error(
			"invalid output format",
			fmt.Sprintf("Unknown format: %s", watchOutputFormat),
			[]string{"Valid formats: default, jsonl"},
		)
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	if watchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, watchTimeout)
		defer cancel()
	}

	var src watch.Source
	if rs, ok := s.backend.(*redisstore.Store); ok {
		sub, err := rs.Subscribe(ctx)
		if err != nil {
			return printer.ErrorWithContext(
				"cannot follow campaign events",
				err.Error(),
				map[string]string{"Library": rs.Library()},
				nil,
			)
		}
		defer sub.Close()
		src = sub
	} else {
		p := watch.Poll(ctx, s.backend, watchInterval)
		defer p.Close()
		src = p
	}

	printer.Step("Watching library '%s' (%s storage)\n", s.cfg.Library, s.cfg.Storage.Backend)
	return watch.Follow(ctx, src, printer.Writer(), outputFormat, s.logger)
}
