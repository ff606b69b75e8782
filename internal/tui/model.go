package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	log "github.com/sirupsen/logrus"

	"dayplan-cli/internal/model"
	"dayplan-cli/internal/persist"
	"dayplan-cli/internal/planstate"
	"dayplan-cli/internal/store"
)

type mode int

const (
	modeList mode = iota
	modeConfirmDelete
	modeNotes
	modeMetric
)

type Options struct {
	Manager *planstate.Manager
	// Saver receives a snapshot after every change. Nil keeps changes in memory only.
	Saver  *persist.DebouncedSaver
	Logger *log.Logger
	Now    func() time.Time
	// State restores the last date and cursor. Nil starts on today.
	State *store.TUIState
}

type appModel struct {
	mgr    *planstate.Manager
	saver  *persist.DebouncedSaver
	logger *log.Logger
	now    func() time.Time

	keys  keyMap
	help  help.Model
	notes textarea.Model
	input textinput.Model

	mode        mode
	date        string
	cursor      int
	showHistory bool

	width  int
	height int

	flash    string
	flashErr bool
}

func newAppModel(opts Options) appModel {
	m := appModel{
		mgr:    opts.Manager,
		saver:  opts.Saver,
		logger: opts.Logger,
		now:    opts.Now,
		keys:   defaultKeyMap(),
		help:   help.New(),
	}
	if m.now == nil {
		m.now = time.Now
	}
	if m.logger == nil {
		m.logger = log.StandardLogger()
	}

	m.notes = textarea.New()
	m.notes.Placeholder = "How did today go?"
	m.notes.CharLimit = 0
	m.notes.ShowLineNumbers = false
	m.notes.SetWidth(60)
	m.notes.SetHeight(6)

	m.input = textinput.New()
	m.input.Prompt = "metric> "
	m.input.Placeholder = "sleepHours 7.5"

	m.date = m.mgr.Today(m.now())
	if st := opts.State; st != nil {
		if _, ok := m.mgr.Day(st.Date); ok {
			m.date = st.Date
			m.cursor = st.Cursor
		}
		m.showHistory = st.ShowHistory
	}
	m.clampCursor()
	return m
}

func (m appModel) Init() tea.Cmd { return nil }

// state captures what is restored on the next launch.
func (m appModel) state() store.TUIState {
	return store.TUIState{Version: 1, Date: m.date, Cursor: m.cursor, ShowHistory: m.showHistory}
}

func (m appModel) day() model.DayPlan {
	d, _ := m.mgr.Day(m.date)
	return d
}

func (m *appModel) clampCursor() {
	n := len(m.day().Tasks)
	if m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m *appModel) setFlash(msg string) {
	m.flash = msg
	m.flashErr = false
}

func (m *appModel) setError(msg string) {
	m.flash = msg
	m.flashErr = true
}

// changed hands the new state to the saver after a mutation.
func (m *appModel) changed() {
	m.clampCursor()
	m.saver.Notify(m.mgr.Snapshot())
	m.logger.WithField("date", m.date).Debug("tui: state changed")
}

func (m appModel) selected() (model.Task, bool) {
	d := m.day()
	if m.cursor < 0 || m.cursor >= len(d.Tasks) {
		return model.Task{}, false
	}
	return d.Tasks[m.cursor], true
}

func (m appModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		if w := msg.Width - 4; w > 20 {
			m.notes.SetWidth(w)
			m.input.Width = w - len(m.input.Prompt)
		}
		return m, nil

	case tea.KeyMsg:
		switch m.mode {
		case modeConfirmDelete:
			return m.updateConfirmDelete(msg)
		case modeNotes:
			return m.updateNotes(msg)
		case modeMetric:
			return m.updateMetric(msg)
		}
		return m.updateList(msg)
	}
	return m, nil
}

func (m appModel) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.flash = ""
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.day().Tasks)-1 {
			m.cursor++
		}

	case key.Matches(msg, m.keys.Toggle):
		if t, ok := m.selected(); ok {
			m.mgr.ToggleTask(m.date, t.ID, !t.Done)
			m.changed()
		}
	case key.Matches(msg, m.keys.CheckAll):
		m.mgr.CheckAll(m.date)
		m.changed()
		m.setFlash("all tasks done")
	case key.Matches(msg, m.keys.Reset):
		m.mgr.ResetDay(m.date)
		m.changed()
		m.setFlash("day reset")
	case key.Matches(msg, m.keys.Delete):
		if t, ok := m.selected(); ok {
			m.mode = modeConfirmDelete
			m.setFlash(fmt.Sprintf("delete %q? (y/n)", t.Label))
		}

	case key.Matches(msg, m.keys.PrevDay):
		m.step(-1)
	case key.Matches(msg, m.keys.NextDay):
		m.step(1)
	case key.Matches(msg, m.keys.Today):
		m.date = m.mgr.Today(m.now())
		m.cursor = 0

	case key.Matches(msg, m.keys.MoveNext):
		next, ok := m.mgr.Neighbor(m.date, 1)
		if !ok {
			m.setError("last day of the plan")
			break
		}
		t, ok := m.selected()
		if !ok {
			break
		}
		m.mgr.MoveTask(m.date, next, t.ID)
		m.changed()
		m.setFlash("moved to " + next)

	case key.Matches(msg, m.keys.Notes):
		m.mode = modeNotes
		m.notes.SetValue(m.day().Notes)
		m.notes.Focus()
		return m, textarea.Blink
	case key.Matches(msg, m.keys.Metric):
		m.mode = modeMetric
		m.input.SetValue("")
		m.input.Focus()
		return m, textinput.Blink

	case key.Matches(msg, m.keys.History):
		m.showHistory = !m.showHistory
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	}
	return m, nil
}

func (m *appModel) step(offset int) {
	if d, ok := m.mgr.Neighbor(m.date, offset); ok {
		m.date = d
		m.cursor = 0
		return
	}
	if offset < 0 {
		m.setError("first day of the plan")
	} else {
		m.setError("last day of the plan")
	}
}

func (m appModel) updateConfirmDelete(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.mode = modeList
	if msg.String() != "y" {
		m.setFlash("canceled")
		return m, nil
	}
	if t, ok := m.selected(); ok {
		m.mgr.DeleteTask(m.date, t.ID)
		m.changed()
		m.setFlash("deleted")
	}
	return m, nil
}

func (m appModel) updateNotes(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.mode = modeList
		m.notes.Blur()
		m.setFlash("notes unchanged")
		return m, nil
	case "ctrl+s":
		m.mode = modeList
		m.notes.Blur()
		m.mgr.SetNotes(m.date, m.notes.Value())
		m.changed()
		m.setFlash("notes saved")
		return m, nil
	}
	var cmd tea.Cmd
	m.notes, cmd = m.notes.Update(msg)
	return m, cmd
}

func (m appModel) updateMetric(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.mode = modeList
		m.input.Blur()
		return m, nil
	case "enter":
		m.mode = modeList
		m.input.Blur()
		m.applyMetric(m.input.Value())
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// applyMetric parses "<field> [value]"; a missing value clears the field.
func (m *appModel) applyMetric(line string) {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return
	}
	field, err := model.ParseMetricField(parts[0])
	if err != nil {
		m.setError(err.Error())
		return
	}
	raw := strings.Join(parts[1:], " ")
	if err := m.mgr.SetMetric(m.date, field, raw); err != nil {
		m.setError(err.Error())
		return
	}
	m.changed()
	if raw == "" {
		m.setFlash(string(field) + " cleared")
	} else {
		m.setFlash(string(field) + " = " + raw)
	}
}
