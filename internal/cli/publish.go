package cli

import (
	"github.com/spf13/cobra"

	"dayplan-cli/internal/publish"
)

func newPublishCmd(app *App) *cobra.Command {
	var to string
	var week int
	var overwrite bool

	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Write the plan as a markdown journal (index.md + days/<date>.md)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := loadManager(cmd, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			pages := []publish.Page{}
			for _, d := range mgr.Days() {
				if week > 0 && d.Week != week {
					continue
				}
				pages = append(pages, publish.Page{Day: d, Completion: mgr.Completion(d.Date)})
			}
			res, err := publish.WriteJournal(pages, to, publish.WriteOptions{Overwrite: overwrite})
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{
				"data": res,
				"meta": map[string]any{"days": len(pages)},
			})
		},
	}
	cmd.Flags().StringVar(&to, "to", "", "Output directory (required)")
	cmd.Flags().IntVar(&week, "week", 0, "Only days in this plan week")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Replace existing files")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}
