package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap/zapcore"

	"github.com/examwhisperer/whisper/internal/backend"
	"github.com/examwhisperer/whisper/internal/liveness"
	"github.com/examwhisperer/whisper/internal/logger"
	"github.com/examwhisperer/whisper/internal/settings"
	"github.com/examwhisperer/whisper/internal/store"
)

// env is everything a command needs: the local store, the LLM settings and
// a backend client that records its requests.
type env struct {
	cfg      backend.Config
	store    *store.Store
	settings *settings.Store
	client   backend.Client
	log      *logger.Logger
}

// openEnv builds the env. tui sends logs to a file in the data dir so the
// alternate screen stays clean; otherwise warnings go to stderr.
func openEnv(cmd *cobra.Command, tui bool) (*env, error) {
	ctx := cmd.Context()

	log, err := newLogger(tui)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}

	cfg := backend.ConfigFromEnv()
	if u, _ := cmd.Flags().GetString("user"); u != "" {
		cfg.Username = u
	}
	if u, _ := cmd.Flags().GetString("api-url"); u != "" {
		cfg.BaseURL = u
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	dbPath, err := resolveDBPath(cmd)
	if err != nil {
		return nil, fmt.Errorf("resolve DB path: %w", err)
	}
	st, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	prefs, err := settings.Load(ctx, st.Settings())
	if err != nil {
		// Unreadable or stale entries fall back to defaults.
		log.Warn("load settings", "error", err)
	}

	client, err := backend.New(cfg, st.EventRepo(), log)
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("create backend client: %w", err)
	}

	log.Debug("environment ready", "db", dbPath, "api_url", cfg.BaseURL, "username", cfg.Username)
	return &env{cfg: cfg, store: st, settings: prefs, client: client, log: log}, nil
}

// Close flushes logs and closes the store.
func (e *env) Close() {
	e.log.Sync()
	if err := e.store.Close(); err != nil {
		fmt.Fprintln(os.Stderr, "close store:", err)
	}
}

// monitor creates a liveness monitor for the backend.
func (e *env) monitor() *liveness.Monitor {
	return liveness.New(e.client, e.cfg.HealthTimeout, e.cfg.HealthInterval, e.log)
}

// requireOnline probes the backend once and fails with the offline reason.
func (e *env) requireOnline(ctx context.Context) error {
	m := e.monitor()
	if !m.Check(ctx) {
		return fmt.Errorf("%s", m.Reason())
	}
	return nil
}

func newLogger(tui bool) (*logger.Logger, error) {
	mode := os.Getenv("WHISPER_LOG_MODE")
	if !tui {
		return logger.NewWithOptions(logger.Options{Mode: mode, Level: zapcore.WarnLevel, OutputPath: "stderr"})
	}

	dir, err := store.DataDir()
	if err != nil {
		return nil, err
	}
	path := filepath.Join(dir, "whisper.log")
	if err := store.EnsureDir(path); err != nil {
		return nil, err
	}
	return logger.NewWithOptions(logger.Options{Mode: mode, Level: zapcore.DebugLevel, OutputPath: path})
}
