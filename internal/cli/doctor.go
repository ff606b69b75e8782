package cli

import (
	"github.com/spf13/cobra"

	"dayplan-cli/internal/store"
)

func newDoctorCmd(app *App) *cobra.Command {
	var fail bool

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check the stored plan, history and config for problems",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.prepare(cmd); err != nil {
				return writeErr(cmd, err)
			}

			report := app.store.Doctor(cmd.Context())

			if err := writeOut(cmd, app, map[string]any{
				"data": report,
				"meta": map[string]any{
					"dir":       app.store.Dir,
					"issues":    len(report.Issues),
					"hasErrors": report.HasErrors(),
				},
				"_hints": []string{
					"dayplan export --out plan.json",
					"dayplan init --force",
				},
			}); err != nil {
				return err
			}

			if fail && report.HasErrors() {
				return store.ErrDoctorIssuesFound
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&fail, "fail", false, "Exit with non-zero status if errors are found")
	return cmd
}
