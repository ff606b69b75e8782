package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"dayplan-cli/internal/store"
)

// Run shows the checklist until the user quits, then flushes pending saves. The
// returned state is what should be restored on the next launch.
func Run(opts Options) (store.TUIState, error) {
	applyThemePreference()

	out, err := tea.NewProgram(newAppModel(opts), tea.WithAltScreen()).Run()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	flushErr := opts.Saver.Flush(ctx)

	if err != nil {
		return store.TUIState{}, err
	}
	var st store.TUIState
	if m, ok := out.(appModel); ok {
		st = m.state()
	}
	return st, flushErr
}
