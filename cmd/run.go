package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/examwhisperer/whisper/internal/app"
	"github.com/examwhisperer/whisper/internal/screen"
	"github.com/examwhisperer/whisper/internal/screens/home"
	"github.com/examwhisperer/whisper/internal/screens/welcome"
	"github.com/examwhisperer/whisper/internal/settings"
	"github.com/examwhisperer/whisper/internal/syllabus"
	"github.com/examwhisperer/whisper/internal/topics"
)

// runApp opens the store, builds dependencies, and launches the TUI. When
// initial is set, its screen opens above the home menu.
func runApp(cmd *cobra.Command, initial func(home.Deps) screen.Screen) error {
	e, err := openEnv(cmd, true)
	if err != nil {
		return err
	}
	defer e.Close()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	monitor := e.monitor()
	monitor.Start(ctx)
	defer monitor.Stop()

	cache := topics.New(e.client, e.cfg.Username)
	deps := home.Deps{
		Client:   e.client,
		Username: e.cfg.Username,
		Settings: e.settings,
		Verifier: &settings.Verifier{},
		Monitor:  monitor,
		Topics:   cache,
		Uploader: syllabus.New(e.client, syllabus.Options{
			Username: e.cfg.Username,
			Settings: e.settings,
			Gate:     monitor,
			Topics:   cache,
			Logger:   e.log,
		}),
		Events: e.store.EventRepo(),
		Logger: e.log,
	}

	opts := app.Options{Deps: deps}
	switch {
	case initial != nil:
		opts.Initial = initial(deps)
	case e.settings.Validate() != nil:
		opts.Initial = welcome.New(deps.NewSettings)
	}

	e.log.Info("starting TUI", "username", e.cfg.Username)
	return app.Run(opts)
}
