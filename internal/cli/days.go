package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/x/term"
	"github.com/spf13/cobra"

	"dayplan-cli/internal/model"
	"dayplan-cli/internal/planstate"
	"dayplan-cli/internal/render"
)

type dayView struct {
	model.DayPlan
	Completion int `json:"completion"`
}

func viewOf(mgr *planstate.Manager, date string) dayView {
	d, _ := mgr.Day(date)
	return dayView{DayPlan: d, Completion: mgr.Completion(date)}
}

func newDaysCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "days",
		Short: "Browse and edit daily checklists",
	}

	cmd.AddCommand(newDaysListCmd(app))
	cmd.AddCommand(newDaysShowCmd(app))
	cmd.AddCommand(newDaysToggleCmd(app, "check", true))
	cmd.AddCommand(newDaysToggleCmd(app, "uncheck", false))
	cmd.AddCommand(newDaysBulkCmd(app, "reset", "Mark every task of a day not done", (*planstate.Manager).ResetDay))
	cmd.AddCommand(newDaysBulkCmd(app, "check-all", "Mark every task of a day done", (*planstate.Manager).CheckAll))
	cmd.AddCommand(newDaysDeleteTaskCmd(app))
	cmd.AddCommand(newDaysMoveTaskCmd(app))
	cmd.AddCommand(newDaysMoveCmd(app))
	cmd.AddCommand(newDaysNotesCmd(app))
	cmd.AddCommand(newDaysMetricCmd(app))
	return cmd
}

func newDaysListCmd(app *App) *cobra.Command {
	var week int
	var phase string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List days with completion",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var wantPhase model.Phase
			if strings.TrimSpace(phase) != "" {
				p, err := model.ParsePhase(phase)
				if err != nil {
					return writeErr(cmd, errUsage("phase", err.Error()))
				}
				wantPhase = p
			}
			mgr, err := loadManager(cmd, app)
			if err != nil {
				return writeErr(cmd, err)
			}

			rows := []planstate.DayStatus{}
			for _, d := range mgr.Statuses() {
				if week > 0 && d.Week != week {
					continue
				}
				if wantPhase != "" && d.Phase != wantPhase {
					continue
				}
				rows = append(rows, d)
			}
			return writeOut(cmd, app, map[string]any{"data": rows})
		},
	}
	cmd.Flags().IntVar(&week, "week", 0, "Only days in this plan week")
	cmd.Flags().StringVar(&phase, "phase", "", "Only days in this phase (BASE|BUILD|PEAK|TAPER)")
	return cmd
}

func newDaysShowCmd(app *App) *cobra.Command {
	var renderMD bool
	var width int

	cmd := &cobra.Command{
		Use:     "show <date|today>",
		Aliases: []string{"get"},
		Short:   "Show one day's checklist",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := loadManager(cmd, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			date, err := resolveDate(app, mgr, args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			v := viewOf(mgr, date)
			if renderMD {
				if width <= 0 {
					width = terminalWidth()
				}
				_, err := fmt.Fprintln(cmd.OutOrStdout(), render.Markdown(render.DayMarkdown(v.DayPlan, v.Completion), width))
				return err
			}
			return writeOut(cmd, app, map[string]any{"data": v})
		},
	}
	cmd.Flags().BoolVar(&renderMD, "render", false, "Render as terminal markdown instead of JSON")
	cmd.Flags().IntVar(&width, "width", 0, "Wrap width for --render (default: terminal width)")
	return cmd
}

func terminalWidth() int {
	if w, _, err := term.GetSize(os.Stdout.Fd()); err == nil && w > 0 {
		return w
	}
	return 80
}

func newDaysToggleCmd(app *App, use string, done bool) *cobra.Command {
	short := "Mark a task done"
	if !done {
		short = "Mark a task not done"
	}
	return &cobra.Command{
		Use:   use + " <date> <task-id>",
		Short: short,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return mutateDay(cmd, app, args[0], func(mgr *planstate.Manager, date string) error {
				mgr.ToggleTask(date, args[1], done)
				return nil
			})
		},
	}
}

func newDaysBulkCmd(app *App, use, short string, op func(*planstate.Manager, string)) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <date>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return mutateDay(cmd, app, args[0], func(mgr *planstate.Manager, date string) error {
				op(mgr, date)
				return nil
			})
		},
	}
}

func newDaysDeleteTaskCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "delete-task <date> <task-id>",
		Short: "Remove a task from a day",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return mutateDay(cmd, app, args[0], func(mgr *planstate.Manager, date string) error {
				mgr.DeleteTask(date, args[1])
				return nil
			})
		},
	}
}

func newDaysNotesCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "notes <date> <text>",
		Short: "Replace a day's notes (empty text clears them)",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.Join(args[1:], " ")
			return mutateDay(cmd, app, args[0], func(mgr *planstate.Manager, date string) error {
				mgr.SetNotes(date, text)
				return nil
			})
		},
	}
}

func newDaysMetricCmd(app *App) *cobra.Command {
	names := make([]string, 0, len(model.MetricFields()))
	for _, f := range model.MetricFields() {
		names = append(names, string(f))
	}
	return &cobra.Command{
		Use:   "metric <date> <field> [value]",
		Short: "Record a daily metric (" + strings.Join(names, "|") + "); omit value to clear",
		Args:  cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			field, err := model.ParseMetricField(args[1])
			if err != nil {
				return writeErr(cmd, errUsage("field", err.Error()))
			}
			raw := ""
			if len(args) == 3 {
				raw = args[2]
			}
			return mutateDay(cmd, app, args[0], func(mgr *planstate.Manager, date string) error {
				return mgr.SetMetric(date, field, raw)
			})
		},
	}
}

func newDaysMoveTaskCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "move-task <from-date> <to-date> <task-id>",
		Short: "Move one task to another day (it gets a new id there)",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return mutateMove(cmd, app, args[0], args[1], func(mgr *planstate.Manager, from, to string) {
				mgr.MoveTask(from, to, args[2])
			})
		},
	}
}

func newDaysMoveCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "move <from-date> <to-date>",
		Short: "Move every task of one day onto another",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return mutateMove(cmd, app, args[0], args[1], (*planstate.Manager).MoveWholeDay)
		},
	}
}

// mutateDay applies op to one resolved date, persists, and prints the updated day.
// An op error (e.g. an unparsable metric) is reported before anything is saved.
func mutateDay(cmd *cobra.Command, app *App, dateArg string, op func(*planstate.Manager, string) error) error {
	mgr, err := loadManager(cmd, app)
	if err != nil {
		return writeErr(cmd, err)
	}
	date, err := resolveDate(app, mgr, dateArg)
	if err != nil {
		return writeErr(cmd, err)
	}

	if err := op(mgr, date); err != nil {
		return writeErr(cmd, errUsage("value", err.Error()))
	}

	saveErr := save(cmd, app, mgr)
	if err := writeOut(cmd, app, map[string]any{"data": viewOf(mgr, date)}); err != nil {
		return err
	}
	if saveErr != nil {
		return writeErr(cmd, saveErr)
	}
	return nil
}

func mutateMove(cmd *cobra.Command, app *App, fromArg, toArg string, op func(*planstate.Manager, string, string)) error {
	mgr, err := loadManager(cmd, app)
	if err != nil {
		return writeErr(cmd, err)
	}
	from, err := resolveDate(app, mgr, fromArg)
	if err != nil {
		return writeErr(cmd, err)
	}
	to, err := resolveDate(app, mgr, toArg)
	if err != nil {
		return writeErr(cmd, err)
	}
	if from == to {
		return writeErr(cmd, errUsage("move", "source and destination are the same day"))
	}

	op(mgr, from, to)

	saveErr := save(cmd, app, mgr)
	if err := writeOut(cmd, app, map[string]any{
		"data": map[string]any{
			"from": viewOf(mgr, from),
			"to":   viewOf(mgr, to),
		},
	}); err != nil {
		return err
	}
	if saveErr != nil {
		return writeErr(cmd, saveErr)
	}
	return nil
}
