package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"dayplan-cli/internal/model"
	"dayplan-cli/internal/persist"
	"dayplan-cli/internal/web"
)

func newWebCmd(app *App) *cobra.Command {
	var addr string
	var readOnly bool

	cmd := &cobra.Command{
		Use:   "web",
		Short: "Serve the checklist over HTTP (JSON API + read-only day pages)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
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

			srv, err := web.NewServer(web.ServerConfig{
				Manager:  mgr,
				Saver:    saver,
				Logger:   app.logger,
				Now:      app.now,
				ReadOnly: readOnly,
				Backup: func(snap model.Snapshot) (string, error) {
					return app.store.Backup(snap, app.now())
				},
			})
			if err != nil {
				return writeErr(cmd, err)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			serveErr := srv.Start(ctx, addr)

			flushCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := saver.Flush(flushCtx); err != nil {
				app.logger.WithError(err).Error("final save failed")
				if serveErr == nil {
					serveErr = err
				}
			}
			if serveErr != nil {
				return writeErr(cmd, serveErr)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", envOr("DAYPLAN_WEB_ADDR", "127.0.0.1:3336"), "Listen address")
	cmd.Flags().BoolVar(&readOnly, "read-only", false, "Reject every mutating request")
	return cmd
}
