package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/vibesync/internal/models"
	"github.com/desertthunder/vibesync/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	ComparingView ViewState = iota
	ResultView
)

// Tab selects one of the three result lists.
type Tab int

const (
	CommonTab Tab = iota
	OnlyATab
	OnlyBTab
	tabCount
)

// chrome is the number of lines taken by the header, tab bar and help.
const chrome = 8

// Model represents the TUI application state.
type Model struct {
	ctx          context.Context
	view         ViewState
	engine       tasks.Comparer
	a, b         tasks.Side
	width        int
	height       int
	progressChan chan tasks.ProgressUpdate
	outcome      chan Msg
	progress     tasks.ProgressUpdate
	result       *models.ComparisonResult
	err          error
	tab          Tab
	lists        [tabCount]list.Model
	help         help.Model
	keys         keyMap
}

// NewModel creates a model that compares the libraries of a and b with engine.
func NewModel(ctx context.Context, engine tasks.Comparer, a, b tasks.Side) *Model {
	return &Model{
		ctx:    ctx,
		view:   ComparingView,
		engine: engine,
		a:      a,
		b:      b,
		help:   help.New(),
		keys:   newKeyMap(),
	}
}

// Run starts the viewer in the alternate screen and blocks until the user quits.
//
// The comparison result is returned even when the user quits before browsing it.
func Run(ctx context.Context, engine tasks.Comparer, a, b tasks.Side) (*models.ComparisonResult, error) {
	m := NewModel(ctx, engine, a, b)
	final, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	if err != nil {
		return nil, fmt.Errorf("viewer failed: %w", err)
	}

	fm := final.(*Model)
	return fm.result, fm.err
}

// Result returns the comparison result once the comparison has finished.
func (m *Model) Result() (*models.ComparisonResult, error) {
	return m.result, m.err
}

// Init starts the comparison.
func (m *Model) Init() tea.Cmd {
	return m.startCompare()
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		if m.result != nil {
			for i := range m.lists {
				m.lists[i].SetSize(m.listWidth(), m.listHeight())
			}
		}
		return m, nil

	case tea.KeyMsg:
		if m.view == ComparingView {
			if key.Matches(msg, m.keys.quit) {
				return m, tea.Quit
			}
			return m, nil
		}
		return m.handleResultKeys(msg)

	case Msg:
		switch msg.kind {
		case MsgProgressUpdate:
			m.progress = msg.data.(tasks.ProgressUpdate)
			return m, m.waitForProgress()
		case MsgCompareComplete:
			out := msg.data.(compareOutcome)
			m.view = ResultView
			m.result, m.err = out.result, out.err
			if out.result != nil {
				m.setLists(out.result)
			}
			return m, nil
		}
	}

	if m.view == ResultView && m.result != nil {
		var cmd tea.Cmd
		m.lists[m.tab], cmd = m.lists[m.tab].Update(msg)
		return m, cmd
	}
	return m, nil
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	switch m.view {
	case ComparingView:
		return m.renderComparing()
	case ResultView:
		return m.renderResult()
	default:
		return ""
	}
}

func (m *Model) handleResultKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.result == nil {
		if key.Matches(msg, m.keys.quit) {
			return m, tea.Quit
		}
		return m, nil
	}

	// keys belong to the filter input while it is open
	if m.lists[m.tab].FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.lists[m.tab], cmd = m.lists[m.tab].Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.next):
		m.tab = (m.tab + 1) % tabCount
		return m, nil
	case key.Matches(msg, m.keys.prev):
		m.tab = (m.tab + tabCount - 1) % tabCount
		return m, nil
	}

	var cmd tea.Cmd
	m.lists[m.tab], cmd = m.lists[m.tab].Update(msg)
	return m, cmd
}

func (m *Model) listWidth() int  { return max(m.width-4, 0) }
func (m *Model) listHeight() int { return max(m.height-chrome, 0) }

func (m *Model) setLists(r *models.ComparisonResult) {
	w, h := m.listWidth(), m.listHeight()
	m.lists[CommonTab] = newTrackList("In common", r.Common, w, h)
	m.lists[OnlyATab] = newTrackList("Only "+r.UserA.DisplayName, r.OnlyA, w, h)
	m.lists[OnlyBTab] = newTrackList("Only "+r.UserB.DisplayName, r.OnlyB, w, h)
}

func (m *Model) startCompare() tea.Cmd {
	progress := make(chan tasks.ProgressUpdate, 16)
	outcome := make(chan Msg, 1)
	m.progressChan = progress
	m.outcome = outcome

	go func() {
		result, err := m.engine.Run(m.ctx, m.a, m.b, progress)
		close(progress)
		outcome <- compareCompleteMsg(result, err)
	}()

	return m.waitForProgress()
}

// waitForProgress delivers the next progress update, or the outcome once the engine is done.
func (m *Model) waitForProgress() tea.Cmd {
	progress, outcome := m.progressChan, m.outcome
	return func() tea.Msg {
		if update, ok := <-progress; ok {
			return progressUpdateMsg(update)
		}
		return <-outcome
	}
}

func (m *Model) renderComparing() string {
	title := styles.title.Render(fmt.Sprintf("Comparing %s and %s", m.a.Participant.DisplayName, m.b.Participant.DisplayName))

	var phase string
	switch m.progress.Phase {
	case tasks.FetchA, tasks.FetchB:
		phase = "Fetching saved tracks..."
	case tasks.ExactMatch:
		phase = "Matching by track id..."
	case tasks.FuzzyMatch:
		phase = "Matching by title and artist..."
	case tasks.Done:
		phase = "Done"
	}

	helpView := m.help.ShortHelpView([]key.Binding{m.keys.quit})
	return fmt.Sprintf("%s\n\n%s\n%s\n\n%s", title, phase, m.progress.Message, helpView)
}

func (m *Model) renderResult() string {
	if m.err != nil {
		return styles.err.Render(fmt.Sprintf("Comparison failed: %v\n\nPress q to quit", m.err))
	}
	if m.result == nil {
		return styles.err.Render("No result available\n\nPress q to quit")
	}

	r := m.result
	title := styles.title.Render(fmt.Sprintf("%s × %s", r.UserA.DisplayName, r.UserB.DisplayName))
	score := styles.ok.Render(fmt.Sprintf("%.1f%% compatible", r.Stats.CompatibilityScore))
	counts := styles.help.Render(fmt.Sprintf("%d in common • %d of %d only %s • %d of %d only %s",
		r.Stats.CommonCount,
		r.Stats.OnlyACount, r.Stats.TotalA, r.UserA.DisplayName,
		r.Stats.OnlyBCount, r.Stats.TotalB, r.UserB.DisplayName,
	))

	tabs := make([]string, 0, tabCount)
	for i, l := range m.lists {
		style := styles.tab
		if Tab(i) == m.tab {
			style = styles.activeTab
		}
		tabs = append(tabs, style.Render(l.Title))
	}

	return fmt.Sprintf("%s\n%s  %s\n\n%s\n\n%s\n%s",
		title, score, counts,
		strings.Join(tabs, " "),
		m.lists[m.tab].View(),
		m.help.View(m.keys),
	)
}
