package cli

import (
	"github.com/spf13/cobra"
)

func newHistoryCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect or clear the action history (newest first)",
	}
	cmd.AddCommand(newHistoryListCmd(app))
	cmd.AddCommand(newHistoryClearCmd(app))
	return cmd
}

func newHistoryListCmd(app *App) *cobra.Command {
	var limit int
	var date string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List history entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit < 0 {
				return writeErr(cmd, errUsage("limit", "must be >= 0"))
			}
			mgr, err := loadManager(cmd, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			want := ""
			if date != "" {
				if want, err = resolveDate(app, mgr, date); err != nil {
					return writeErr(cmd, err)
				}
			}

			all := mgr.History(0)
			total := len(all)
			out := all[:0]
			for _, h := range all {
				if want != "" && h.Date != want {
					continue
				}
				out = append(out, h)
				if limit > 0 && len(out) == limit {
					break
				}
			}
			return writeOut(cmd, app, map[string]any{
				"data": out,
				"meta": map[string]any{"total": total, "returned": len(out)},
			})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 50, "Max entries to return (0 = all)")
	cmd.Flags().StringVar(&date, "date", "", "Only entries for this date")
	return cmd
}

func newHistoryClearCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every history entry (plans are untouched)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := loadManager(cmd, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			n := len(mgr.History(0))
			mgr.ClearHistory()

			saveErr := save(cmd, app, mgr)
			if err := writeOut(cmd, app, map[string]any{"data": map[string]any{"cleared": n}}); err != nil {
				return err
			}
			if saveErr != nil {
				return writeErr(cmd, saveErr)
			}
			return nil
		},
	}
}
