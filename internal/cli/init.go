package cli

import (
	"github.com/spf13/cobra"

	"dayplan-cli/internal/model"
	"dayplan-cli/internal/plan"
)

func newInitCmd(app *App) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create the store and seed the training plan",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.prepare(cmd); err != nil {
				return writeErr(cmd, err)
			}
			if err := app.store.Ensure(); err != nil {
				return writeErr(cmd, err)
			}
			ctx := cmd.Context()

			_, existed, err := app.store.LoadSnapshot(ctx)
			if err != nil {
				return writeErr(cmd, err)
			}
			if existed && force {
				mgr, err := loadManager(cmd, app)
				if err != nil {
					return writeErr(cmd, err)
				}
				backup, err := app.store.Backup(mgr.Snapshot(), app.now())
				if err != nil {
					return writeErr(cmd, err)
				}
				app.logger.WithField("backup", backup).Info("backed up state before re-seed")
				fresh := model.Snapshot{Plans: plan.Generate(plan.DefaultRange())}
				if err := app.store.SaveSnapshot(ctx, fresh); err != nil {
					return writeErr(cmd, err)
				}
			}

			mgr, err := loadManager(cmd, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			configCreated, err := app.store.EnsureConfig()
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{
				"data": map[string]any{
					"dir":      app.store.Dir,
					"created":  !existed,
					"reseeded": existed && force,
					"config":   configCreated,
					"days":     len(mgr.Dates()),
				},
			})
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Discard the current state (after a backup) and seed a fresh plan")
	return cmd
}
