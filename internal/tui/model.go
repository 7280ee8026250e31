// Package tui is the local GUI client's bubbletea program (spec.md §1:
// "a local GUI application"). Grounded on the teacher's
// internal/tui/app.go Model/Update/View shape and its chained
// listenWebSocket command, adapted from a WS-server-side session
// browser to a UDS-client-side tab switcher driven by internal/mode.
package tui

import (
	"encoding/json"
	"sort"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/0000mz/lotab/internal/applog"
	"github.com/0000mz/lotab/internal/mode"
	"github.com/0000mz/lotab/internal/wire"
)

type connectedMsg struct{ client *daemonClient }
type connectFailedMsg struct{ err error }
type daemonClosedMsg struct{}
type daemonEventMsg wire.Envelope

// Model is the GUI's bubbletea model.
type Model struct {
	log        *applog.Logger
	socketPath string
	client     *daemonClient
	mode       *mode.Machine

	tabs  []wire.TabSnapshot
	tasks map[int64]wire.TaskSnapshot

	cursor   int
	selected map[uint64]bool
	hidden   bool

	err           error
	width, height int
}

// New returns a Model that will dial socketPath on Init.
func New(socketPath string) Model {
	return Model{
		log:        applog.New("tui"),
		socketPath: socketPath,
		mode:       mode.New(),
		tasks:      make(map[int64]wire.TaskSnapshot),
		selected:   make(map[uint64]bool),
	}
}

func (m Model) Init() tea.Cmd {
	return connectCmd(m.socketPath)
}

func connectCmd(path string) tea.Cmd {
	return func() tea.Msg {
		c, err := dialDaemon(path)
		if err != nil {
			return connectFailedMsg{err: err}
		}
		return connectedMsg{client: c}
	}
}

func listenCmd(c *daemonClient) tea.Cmd {
	return func() tea.Msg {
		env, ok := <-c.msgs
		if !ok {
			return daemonClosedMsg{}
		}
		return daemonEventMsg(env)
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case connectedMsg:
		m.client = msg.client
		return m, listenCmd(m.client)

	case connectFailedMsg:
		m.err = msg.err
		return m, tea.Quit

	case daemonClosedMsg:
		m.log.Warn("daemon.connection_closed")
		return m, tea.Quit

	case daemonEventMsg:
		m.applyDaemonEvent(wire.Envelope(msg))
		return m, listenCmd(m.client)

	case tea.KeyMsg:
		return m.handleKey(msg.String())
	}
	return m, nil
}

func (m Model) handleKey(key string) (tea.Model, tea.Cmd) {
	if key == "ctrl+c" {
		return m, tea.Quit
	}

	var action mode.Action
	switch key {
	case "esc":
		action = m.mode.HandleKey(mode.KeyEsc)
	case "enter":
		action = m.mode.HandleKey(mode.KeyEnter)
	case "backspace":
		action = m.mode.HandleKey(mode.KeyBackspace)
	case "up":
		action = m.mode.HandleKey(mode.KeyUp)
	case "down":
		action = m.mode.HandleKey(mode.KeyDown)
	case "ctrl+a":
		action = m.mode.HandleKey(mode.KeyCmdA)
	default:
		if m.mode.State() == mode.FilterInflight {
			if r := []rune(key); len(r) == 1 {
				action = m.mode.HandleChar(r[0])
			}
		} else {
			switch key {
			case "/":
				action = m.mode.HandleKey(mode.KeySlash)
			case "j":
				action = m.mode.HandleKey(mode.KeyJ)
			case "k":
				action = m.mode.HandleKey(mode.KeyK)
			case "x":
				action = m.mode.HandleKey(mode.KeyX)
			case " ":
				action = m.mode.HandleKey(mode.KeySpace)
			}
		}
	}

	return m.applyAction(action)
}

func (m Model) applyAction(action mode.Action) (tea.Model, tea.Cmd) {
	filtered := m.filteredTabs()

	switch action {
	case mode.ActionNavigateDown:
		if m.cursor < len(filtered)-1 {
			m.cursor++
		}
	case mode.ActionNavigateUp:
		if m.cursor > 0 {
			m.cursor--
		}
	case mode.ActionActivateToTab:
		if tab, ok := m.currentTab(filtered); ok && m.client != nil {
			if err := m.client.send(wire.GUITabSelected, wire.TabSelectedData{TabID: tab.ID}); err != nil {
				m.log.Error("send_failed", err, "intent", wire.GUITabSelected)
			}
		}
	case mode.ActionSelectTab:
		if tab, ok := m.currentTab(filtered); ok {
			m.selected[tab.ID] = !m.selected[tab.ID]
		}
	case mode.ActionSelectAllTabs:
		for _, t := range filtered {
			m.selected[t.ID] = true
		}
	case mode.ActionCloseSelectedTabs:
		ids := m.selectedIDs()
		if len(ids) == 0 {
			if tab, ok := m.currentTab(filtered); ok {
				ids = []uint64{tab.ID}
			}
		}
		if len(ids) > 0 && m.client != nil {
			if err := m.client.send(wire.GUICloseTabsRequest, wire.CloseTabsRequestData{TabIDs: ids}); err != nil {
				m.log.Error("send_failed", err, "intent", wire.GUICloseTabsRequest)
			}
		}
		m.selected = make(map[uint64]bool)
	case mode.ActionAdhereToMode:
		m.selected = make(map[uint64]bool)
	case mode.ActionHideUi:
		m.hidden = true
	case mode.ActionUpdateListFilter, mode.ActionCommitListFilter:
		m.cursor = 0
	}

	if action == mode.ActionSelectTab || action == mode.ActionSelectAllTabs || action == mode.ActionCloseSelectedTabs {
		m.mode.NotifyListLength(len(m.filteredTabs()))
	}

	return m, nil
}

func (m *Model) applyDaemonEvent(env wire.Envelope) {
	switch env.Event {
	case wire.DaemonTabsUpdate:
		var data wire.TabsUpdateData
		if err := json.Unmarshal(env.Data, &data); err != nil {
			return
		}
		m.tabs = data.Tabs
		if n := len(m.filteredTabs()); m.cursor >= n {
			m.cursor = n - 1
		}
		if m.cursor < 0 {
			m.cursor = 0
		}
		m.mode.NotifyListLength(len(m.filteredTabs()))
	case wire.DaemonTasksUpdate:
		var data wire.TasksUpdateData
		if err := json.Unmarshal(env.Data, &data); err != nil {
			return
		}
		tasks := make(map[int64]wire.TaskSnapshot, len(data.Tasks))
		for _, t := range data.Tasks {
			tasks[t.ID] = t
		}
		m.tasks = tasks
	case wire.DaemonToggleGuiRequest:
		m.hidden = !m.hidden
	}
}

func (m Model) filteredTabs() []wire.TabSnapshot {
	filter := strings.ToLower(m.activeFilter())
	if filter == "" {
		return m.tabs
	}
	out := make([]wire.TabSnapshot, 0, len(m.tabs))
	for _, t := range m.tabs {
		if strings.Contains(strings.ToLower(t.Title), filter) {
			out = append(out, t)
		}
	}
	return out
}

func (m Model) activeFilter() string {
	switch m.mode.State() {
	case mode.FilterInflight:
		return m.mode.InflightFilter()
	default:
		return m.mode.ListFilter()
	}
}

func (m Model) currentTab(filtered []wire.TabSnapshot) (wire.TabSnapshot, bool) {
	if m.cursor < 0 || m.cursor >= len(filtered) {
		return wire.TabSnapshot{}, false
	}
	return filtered[m.cursor], true
}

func (m Model) selectedIDs() []uint64 {
	ids := make([]uint64, 0, len(m.selected))
	for id, on := range m.selected {
		if on {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

