package cli

import (
	"github.com/spf13/cobra"

	"dayplan-cli/internal/persist"
	"dayplan-cli/internal/tui"
)

func newTUICmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Interactive daily checklist",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd, app)
		},
	}
}

func runTUI(cmd *cobra.Command, app *App) error {
	mgr, err := loadManager(cmd, app)
	if err != nil {
		return writeErr(cmd, err)
	}
	sinks, err := app.sinks(cmd.Context())
	if err != nil {
		return writeErr(cmd, err)
	}
	saver := persist.NewDebouncedSaver(sinks, persist.DebouncedSaverOpts{
		Debounce: app.cfg.Save.Debounce,
		Logger:   app.logger,
	})

	st, err := app.store.LoadTUIState()
	if err != nil {
		app.logger.WithError(err).Warn("tui state unreadable; starting on today")
		st = nil
	}

	next, err := tui.Run(tui.Options{
		Manager: mgr,
		Saver:   saver,
		Logger:  app.logger,
		Now:     app.now,
		State:   st,
	})
	if err != nil {
		return writeErr(cmd, err)
	}
	if err := app.store.SaveTUIState(&next); err != nil {
		app.logger.WithError(err).Warn("save tui state failed")
	}
	return nil
}
