package cli

import (
	"bytes"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"dayplan-cli/internal/model"
	"dayplan-cli/internal/store"
)

func newExportCmd(app *App) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the full state as a {plans, history} JSON document",
		Long: strings.TrimSpace(`
Write every day plan and the history log as one JSON document.

Without --out the raw document is written to stdout (no {"data": ...} envelope) so it
can be piped straight into ` + "`dayplan import -`" + `.
`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := loadManager(cmd, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			snap := mgr.Snapshot()

			if strings.TrimSpace(out) == "" {
				return store.EncodeSnapshot(cmd.OutOrStdout(), snap, app.PrettyJSON)
			}
			var buf bytes.Buffer
			if err := store.EncodeSnapshot(&buf, snap, true); err != nil {
				return writeErr(cmd, err)
			}
			if err := store.WriteFileAtomic(out, buf.Bytes(), 0o644); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{
				"data": map[string]any{
					"path":    out,
					"days":    len(snap.Plans),
					"history": len(snap.History),
				},
			})
		},
	}
	cmd.Flags().StringVar(&out, "out", "", "Write to this file instead of stdout")
	return cmd
}

func newImportCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <file|->",
		Short: "Replace the full state with an exported document (current state is backed up first)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := readSnapshotArg(cmd, args[0])
			if err != nil {
				return writeErr(cmd, err)
			}

			mgr, err := loadManager(cmd, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			backup, err := app.store.Backup(mgr.Snapshot(), app.now())
			if err != nil {
				return writeErr(cmd, err)
			}
			app.logger.WithField("backup", backup).Info("backed up state before import")

			mgr.Replace(snap)

			saveErr := save(cmd, app, mgr)
			if err := writeOut(cmd, app, map[string]any{
				"data": map[string]any{
					"backup":  backup,
					"days":    len(snap.Plans),
					"history": len(snap.History),
				},
			}); err != nil {
				return err
			}
			if saveErr != nil {
				return writeErr(cmd, saveErr)
			}
			return nil
		},
	}
	return cmd
}

func readSnapshotArg(cmd *cobra.Command, path string) (model.Snapshot, error) {
	var r io.Reader
	if strings.TrimSpace(path) == "-" {
		r = cmd.InOrStdin()
	} else {
		f, err := os.Open(path)
		if err != nil {
			return model.Snapshot{}, err
		}
		defer f.Close()
		r = f
	}
	return store.DecodeSnapshot(r)
}
