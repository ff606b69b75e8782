package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"dayplan-cli/internal/docs"
	"dayplan-cli/internal/render"
)

func newDocsCmd(app *App) *cobra.Command {
	var raw bool

	cmd := &cobra.Command{
		Use:   "docs [topic]",
		Short: "Show built-in documentation (plan, metrics, sync, tui)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return writeOut(cmd, app, map[string]any{"data": docs.Topics()})
			}
			body, err := docs.Get(args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			if !raw {
				body = render.Markdown(body, terminalWidth())
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), body)
			return err
		},
	}
	cmd.Flags().BoolVar(&raw, "raw", false, "Print the markdown source instead of rendering it")
	return cmd
}
