package commands

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dyluth/tome/internal/campaign"
	"github.com/dyluth/tome/internal/config"
	"github.com/dyluth/tome/internal/persist"
	"github.com/dyluth/tome/internal/persist/badgerstore"
	"github.com/dyluth/tome/internal/persist/filestore"
	"github.com/dyluth/tome/internal/persist/redisstore"
	"github.com/dyluth/tome/internal/printer"
	"github.com/dyluth/tome/internal/resolver"
	"github.com/dyluth/tome/internal/store"
	"github.com/dyluth/tome/pkg/world"
)

// session is one command's view of the project: configuration, the opened backend
// and the loaded library.
type session struct {
	cfg       *config.TomeConfig
	logger    *zap.Logger
	backend   persist.Backend
	closeFn   func() error
	lib       *campaign.Library
	statePath string
}

// withSession opens the project around run and flushes pending saves afterwards.
// A run error wins over a flush error.
func withSession(run func(ctx context.Context, s *session, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		s, err := openSession(ctx)
		if err != nil {
			return err
		}

		runErr := run(ctx, s, args)
		closeErr := s.close(ctx)
		if runErr != nil {
			return runErr
		}
		return closeErr
	}
}

func resolveConfigPath() (string, error) {
	path := configPath
	if path == "" {
		path = filepath.Join(projectDir, config.DefaultPath)
	}
	return filepath.Abs(path)
}

func newLogger() *zap.Logger {
	if !verbose {
		return zap.NewNop()
	}
	logger, err := zap.NewDevelopment()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

func openSession(ctx context.Context) (*session, error) {
	path, err := resolveConfigPath()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve config path: %w", err)
	}

	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil, printer.Error(
			"no tome project found",
			fmt.Sprintf("No %s in %s.", config.DefaultPath, filepath.Dir(path)),
			[]string{"Initialize a project first:\n  tome init"},
		)
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, printer.Error(
			"invalid configuration",
			err.Error(),
			[]string{fmt.Sprintf("Fix %s, or regenerate it:\n  tome init --force", path)},
		)
	}

	logger := newLogger()
	backend, closeFn, err := openBackend(ctx, cfg, logger)
	if err != nil {
		return nil, printer.ErrorWithContext(
			"storage unavailable",
			err.Error(),
			map[string]string{"Backend": cfg.Storage.Backend},
			[]string{fmt.Sprintf("Check the storage section of %s", path)},
		)
	}

	lib := campaign.NewLibrary(backend,
		campaign.WithLogger(logger),
		campaign.WithLibraryNotificationTTL(cfg.NotificationTTL()))
	if err := lib.Load(ctx); err != nil {
		closeFn()
		return nil, printer.ErrorWithContext(
			"failed to load campaigns",
			err.Error(),
			map[string]string{"Backend": cfg.Storage.Backend},
			nil,
		)
	}

	s := &session{
		cfg:       cfg,
		logger:    logger,
		backend:   backend,
		closeFn:   closeFn,
		lib:       lib,
		statePath: config.StatePath(filepath.Dir(path)),
	}
	s.restoreActive()
	return s, nil
}

// openBackend builds the configured persist.Backend and the function releasing it.
func openBackend(ctx context.Context, cfg *config.TomeConfig, logger *zap.Logger) (persist.Backend, func() error, error) {
	switch cfg.Storage.Backend {
	case config.BackendFile:
		return filestore.New(cfg.Storage.File.Path, logger), func() error { return nil }, nil

	case config.BackendBadger:
		bs, err := badgerstore.Open(cfg.Storage.Badger.Dir, logger)
		if err != nil {
			return nil, nil, err
		}
		return bs, bs.Close, nil

	case config.BackendRedis:
		rs, err := redisstore.NewFromURL(cfg.Storage.Redis.URL, cfg.Library, logger)
		if err != nil {
			return nil, nil, err
		}
		if err := rs.Ping(ctx); err != nil {
			rs.Close()
			return nil, nil, fmt.Errorf("could not connect to Redis at %s: %w", cfg.Storage.Redis.URL, err)
		}
		return rs, rs.Close, nil
	}
	return nil, nil, fmt.Errorf("unknown storage backend: %s", cfg.Storage.Backend)
}

func (s *session) restoreActive() {
	state, err := config.LoadState(s.statePath)
	if err != nil {
		s.logger.Warn("ignoring unreadable state file", zap.String("path", s.statePath), zap.Error(err))
		return
	}
	if state.ActiveCampaign == "" {
		return
	}
	if err := s.lib.SetActive(world.CampaignID(state.ActiveCampaign)); err != nil {
		s.logger.Debug("remembered campaign no longer exists", zap.String("campaign_id", state.ActiveCampaign))
	}
}

// close waits for pending saves, remembers the active campaign and releases the backend.
func (s *session) close(ctx context.Context) error {
	defer s.closeFn()

	flushCtx, cancel := context.WithTimeout(ctx, persist.DefaultSaveTimeout)
	defer cancel()
	if err := s.lib.Flush(flushCtx); err != nil {
		return printer.ErrorWithContext(
			"failed to save campaigns",
			"Your changes were not written to storage.",
			map[string]string{"Backend": s.cfg.Storage.Backend, "Error": err.Error()},
			[]string{"Check the storage settings in tome.yml and try again"},
		)
	}

	state := &config.State{}
	if c, ok := s.lib.Active(); ok {
		state.ActiveCampaign = string(c.ID())
	}
	if err := config.SaveState(s.statePath, state); err != nil {
		s.logger.Warn("failed to remember active campaign", zap.Error(err))
	}
	return nil
}

// campaign returns the campaign named by --campaign, or the active one.
func (s *session) campaign() (*campaign.Campaign, error) {
	if campaignRef != "" {
		return s.resolveCampaign(campaignRef)
	}
	c, ok := s.lib.Active()
	if !ok {
		return nil, printer.Error(
			"no active campaign",
			"There are no campaigns in this library yet.",
			[]string{"Create one:\n  tome campaign create \"My Campaign\""},
		)
	}
	return c, nil
}

func (s *session) resolveCampaign(ref string) (*campaign.Campaign, error) {
	c, err := resolver.ResolveCampaign(s.lib.List(), ref)
	if err != nil {
		return nil, resolveError(err, "campaign", ref, []string{"List campaigns:\n  tome campaign list"})
	}
	return c, nil
}

// notice prints the pending notification of st, if any.
func notice(st *store.Store) {
	if n, ok := st.Notification(); ok {
		printer.Notice(string(n.Kind), n.Message)
	}
}

// libraryNotice prints the pending library notification, if any.
func (s *session) libraryNotice() {
	if n, ok := s.lib.Notification(); ok {
		printer.Notice(string(n.Kind), n.Message)
	}
}

// resolveError turns resolver errors into printed errors.
func resolveError(err error, kind, ref string, suggestions []string) error {
	if resolver.IsAmbiguousError(err) {
		fmt.Fprintln(printer.ErrWriter(), resolver.FormatAmbiguousError(err.(*resolver.AmbiguousError)))
		return fmt.Errorf("ambiguous %s", kind)
	}
	if resolver.IsNotFoundError(err) {
		return printer.Error(
			fmt.Sprintf("%s '%s' not found", kind, ref),
			fmt.Sprintf("No %s matches '%s'.", kind, ref),
			suggestions,
		)
	}
	return err
}
