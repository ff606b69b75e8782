package cli

import (
	"github.com/spf13/cobra"
)

func newSyncCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Copy state between the local store and the remote store",
		Long: `Copy the full state between the local SQLite store and the configured remote
store (Azure Table Storage, optionally fronted by redis).

Configure it in <dir>/config.yaml under "remote:" or with DAYPLAN_REMOTE_CONN /
DAYPLAN_USER_ID / DAYPLAN_REDIS_URL.`,
	}
	cmd.AddCommand(newSyncStatusCmd(app))
	cmd.AddCommand(newSyncPushCmd(app))
	cmd.AddCommand(newSyncPullCmd(app))
	return cmd
}

func newSyncStatusCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show local save time and the remote snapshot size",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.prepare(cmd); err != nil {
				return writeErr(cmd, err)
			}
			ctx := cmd.Context()

			out := map[string]any{
				"dir":           app.store.Dir,
				"remoteEnabled": app.backend != nil || app.cfg.Remote.Enabled(),
				"userId":        app.cfg.Remote.UserID,
			}
			deviceID, err := app.store.DeviceID(ctx)
			if err != nil {
				return writeErr(cmd, err)
			}
			out["deviceId"] = deviceID
			if at, ok, err := app.store.SavedAt(ctx); err != nil {
				return writeErr(cmd, err)
			} else if ok {
				out["localSavedAt"] = at
			}

			if out["remoteEnabled"] == true {
				b, err := app.remoteBackend(ctx)
				if err != nil {
					return writeErr(cmd, err)
				}
				snap, ok, err := b.Load(ctx, app.cfg.Remote.UserID)
				if err != nil {
					return writeErr(cmd, err)
				}
				out["remoteExists"] = ok
				if ok {
					out["remoteDays"] = len(snap.Plans)
					out["remoteHistory"] = len(snap.History)
				}
			}
			return writeOut(cmd, app, map[string]any{"data": out})
		},
	}
}

func newSyncPushCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "push",
		Short: "Overwrite the remote snapshot with local state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := loadManager(cmd, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			ctx := cmd.Context()
			b, err := app.remoteBackend(ctx)
			if err != nil {
				return writeErr(cmd, err)
			}
			snap := mgr.Snapshot()
			if err := b.Save(ctx, app.cfg.Remote.UserID, snap); err != nil {
				app.logger.WithError(err).Error("sync push failed")
				return writeErr(cmd, err)
			}
			app.logger.WithField("days", len(snap.Plans)).Info("pushed snapshot")
			return writeOut(cmd, app, map[string]any{
				"data": map[string]any{
					"pushed":  true,
					"days":    len(snap.Plans),
					"history": len(snap.History),
				},
			})
		},
	}
}

func newSyncPullCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "pull",
		Short: "Replace local state with the remote snapshot (local state is backed up first)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := loadManager(cmd, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			ctx := cmd.Context()
			b, err := app.remoteBackend(ctx)
			if err != nil {
				return writeErr(cmd, err)
			}
			snap, ok, err := app.loadRemote(ctx, b)
			if err != nil {
				return writeErr(cmd, err)
			}
			if !ok {
				return writeErr(cmd, errNotFound("remote snapshot", app.cfg.Remote.UserID))
			}

			backup, err := app.store.Backup(mgr.Snapshot(), app.now())
			if err != nil {
				return writeErr(cmd, err)
			}
			mgr.Replace(snap)
			// Local only: pushing back what was just pulled is pointless.
			if err := app.store.SaveSnapshot(ctx, mgr.Snapshot()); err != nil {
				return writeErr(cmd, err)
			}
			app.logger.WithField("backup", backup).Info("pulled snapshot")
			return writeOut(cmd, app, map[string]any{
				"data": map[string]any{
					"pulled":  true,
					"backup":  backup,
					"days":    len(snap.Plans),
					"history": len(snap.History),
				},
			})
		},
	}
}
