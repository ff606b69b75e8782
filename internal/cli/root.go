package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"dayplan-cli/internal/format"
	"dayplan-cli/internal/logging"
	"dayplan-cli/internal/model"
	"dayplan-cli/internal/persist"
	"dayplan-cli/internal/plan"
	"dayplan-cli/internal/planstate"
	"dayplan-cli/internal/remote"
	"dayplan-cli/internal/store"
)

type App struct {
	Dir        string
	PrettyJSON bool
	Format     string
	Remote     bool

	now func() time.Time

	// Resolved lazily by load.
	store     store.Store
	cfg       store.Config
	logger    *log.Logger
	logCloser io.Closer

	// backend overrides remote.Open; tests inject a stub here.
	backend remote.Backend
}

func NewRootCmd() *cobra.Command {
	return newRootCmd(&App{now: time.Now})
}

func newRootCmd(app *App) *cobra.Command {
	if app.now == nil {
		app.now = time.Now
	}

	cmd := &cobra.Command{
		Use:          "dayplan",
		Short:        "Daily training checklist (local-first) CLI + TUI",
		SilenceUsage: true,
		Example: strings.TrimSpace(`
  # Start the interactive TUI
  dayplan

  # Today's checklist
  dayplan days show today --render

  # Date lookup (shortcut for: dayplan days show <date>)
  dayplan 2025-09-20

  # Tick a task
  dayplan days check 2025-09-20 2025-09-20_BIKE_0
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			// No subcommand => interactive TUI.
			if len(args) == 0 {
				return runTUI(cmd, app)
			}
			return cmd.Help()
		},
	}

	cmd.PersistentPostRunE = func(cmd *cobra.Command, args []string) error {
		if app.logCloser != nil {
			_ = app.logCloser.Close()
			app.logCloser = nil
		}
		return nil
	}

	cmd.PersistentFlags().StringVar(&app.Dir, "dir", envOr("DAYPLAN_DIR", ""), "Path to store dir (default: nearest .dayplan, then ~/.dayplan/default)")
	cmd.PersistentFlags().BoolVar(&app.PrettyJSON, "pretty", false, "Pretty-print JSON output")
	cmd.PersistentFlags().StringVar(&app.Format, "format", envOr("DAYPLAN_FORMAT", "json"), "Output format (json|yaml)")
	cmd.PersistentFlags().BoolVar(&app.Remote, "remote", envOr("DAYPLAN_REMOTE", "") == "1", "Also load from / save to the configured remote store")

	cmd.AddCommand(newInitCmd(app))
	cmd.AddCommand(newDaysCmd(app))
	cmd.AddCommand(newHistoryCmd(app))
	cmd.AddCommand(newExportCmd(app))
	cmd.AddCommand(newImportCmd(app))
	cmd.AddCommand(newStatsCmd(app))
	cmd.AddCommand(newSyncCmd(app))
	cmd.AddCommand(newDoctorCmd(app))
	cmd.AddCommand(newPublishCmd(app))
	cmd.AddCommand(newDocsCmd(app))
	cmd.AddCommand(newWebCmd(app))
	cmd.AddCommand(newTUICmd(app))

	return cmd
}

// prepare resolves the store dir, config and logger. Safe to call more than once.
func (app *App) prepare(cmd *cobra.Command) error {
	if app.logger != nil {
		return nil
	}
	dir, err := store.ResolveDir(app.Dir)
	if err != nil {
		return err
	}
	app.Dir = dir
	app.store = store.Store{Dir: dir}

	cfg, err := app.store.LoadConfig()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	app.cfg = cfg

	logger, closer, err := logging.New(logging.Options{Level: cfg.Log.Level, File: cfg.Log.File, Dir: dir})
	if err != nil {
		return err
	}
	if strings.TrimSpace(cfg.Log.File) == "" {
		logger.SetOutput(cmd.ErrOrStderr())
	}
	app.logger = logger
	app.logCloser = closer
	return nil
}

func (app *App) remoteBackend(ctx context.Context) (remote.Backend, error) {
	if app.backend != nil {
		return app.backend, nil
	}
	b, err := remote.Open(ctx, app.cfg.Remote, app.logger)
	if err != nil {
		return nil, err
	}
	app.backend = b
	return b, nil
}

// loadManager loads the persisted snapshot, seeding a fresh plan when none exists.
// With --remote, a missing local snapshot is pulled from the remote store first.
func loadManager(cmd *cobra.Command, app *App) (*planstate.Manager, error) {
	if err := app.prepare(cmd); err != nil {
		return nil, err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	snap, ok, err := app.store.LoadSnapshot(ctx)
	if err != nil {
		return nil, err
	}
	if !ok && app.Remote {
		b, err := app.remoteBackend(ctx)
		if err != nil {
			return nil, err
		}
		snap, ok, err = app.loadRemote(ctx, b)
		var bad *store.MalformedSnapshotError
		if errors.As(err, &bad) {
			return nil, err
		}
		if err != nil {
			app.logger.WithError(err).Warn("remote load failed; seeding locally")
			ok = false
		}
	}
	if !ok {
		snap = model.Snapshot{Plans: plan.Generate(plan.DefaultRange())}
		if err := app.store.SaveSnapshot(ctx, snap); err != nil {
			app.logger.WithError(err).Error("seed save failed")
		}
		app.logger.WithField("days", len(snap.Plans)).Info("seeded new plan")
	}
	return planstate.New(snap, planstate.WithClock(app.now)), nil
}

// loadRemote fetches the user's remote snapshot. A snapshot that would fail import
// validation is returned as a *store.MalformedSnapshotError and never reaches a manager.
func (app *App) loadRemote(ctx context.Context, b remote.Backend) (model.Snapshot, bool, error) {
	snap, ok, err := b.Load(ctx, app.cfg.Remote.UserID)
	if err != nil || !ok {
		return model.Snapshot{}, false, err
	}
	if err := store.ValidateSnapshot(snap); err != nil {
		app.logger.WithError(err).Error("rejected remote snapshot")
		return model.Snapshot{}, false, err
	}
	return snap, true, nil
}

// sinks returns the persistence fan-out for this invocation: always the local store,
// plus the remote store under --remote.
func (app *App) sinks(ctx context.Context) (*persist.Multi, error) {
	m := persist.NewMulti(app.logger).Add("local", persist.SinkFunc(app.store.SaveSnapshot))
	if app.Remote {
		b, err := app.remoteBackend(ctx)
		if err != nil {
			return nil, err
		}
		m.Add("remote", remote.UserSink{Backend: b, UserID: app.cfg.Remote.UserID})
	}
	return m, nil
}

// save persists the manager's state. Failures are logged by the sinks and surface as
// a non-zero exit; the printed result still reflects the in-memory change.
func save(cmd *cobra.Command, app *App, mgr *planstate.Manager) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	m, err := app.sinks(ctx)
	if err != nil {
		return err
	}
	return m.Save(ctx, mgr.Snapshot())
}

func envOr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func writeOut(cmd *cobra.Command, app *App, v any) error {
	return format.Write(cmd.OutOrStdout(), v, app.Format, app.PrettyJSON)
}

func writeErr(cmd *cobra.Command, err error) error {
	fmt.Fprintln(cmd.ErrOrStderr(), err.Error())
	return err
}
