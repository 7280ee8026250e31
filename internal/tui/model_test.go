package tui

import (
	"encoding/json"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/0000mz/lotab/internal/wire"
)

func asModel(tm tea.Model) Model {
	return tm.(Model)
}

func press(m Model, key string) Model {
	tm, _ := m.handleKey(key)
	return asModel(tm)
}

func tabsUpdate(t *testing.T, tabs ...wire.TabSnapshot) wire.Envelope {
	t.Helper()
	raw, err := json.Marshal(wire.TabsUpdateData{Tabs: tabs})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return wire.Envelope{Event: wire.DaemonTabsUpdate, Data: raw}
}

func TestApplyDaemonEventPopulatesTabs(t *testing.T) {
	m := New("/tmp/unused.sock")
	m.applyDaemonEvent(tabsUpdate(t,
		wire.TabSnapshot{ID: 1, Title: "Alpha", TaskID: -1},
		wire.TabSnapshot{ID: 2, Title: "Beta", Active: true, TaskID: -1},
	))
	if len(m.tabs) != 2 {
		t.Fatalf("tabs = %d, want 2", len(m.tabs))
	}
}

func TestFilteredTabsMatchesListFilterCaseInsensitively(t *testing.T) {
	m := New("/tmp/unused.sock")
	m.applyDaemonEvent(tabsUpdate(t,
		wire.TabSnapshot{ID: 1, Title: "GitHub Pulls"},
		wire.TabSnapshot{ID: 2, Title: "Mail"},
	))

	m = press(m, "/")
	m = press(m, "g")
	m = press(m, "i")
	m = press(m, "t")

	filtered := m.filteredTabs()
	if len(filtered) != 1 || filtered[0].ID != 1 {
		t.Fatalf("filtered = %+v, want only tab 1", filtered)
	}
}

func TestNewSearchClearsPriorCommittedFilter(t *testing.T) {
	m := New("/tmp/unused.sock")
	m.applyDaemonEvent(tabsUpdate(t, wire.TabSnapshot{ID: 1, Title: "abc"}))

	m = press(m, "/")
	m = press(m, "a")
	m = press(m, "b")
	m = press(m, "c")
	m = press(m, "enter")
	if m.mode.ListFilter() != "abc" {
		t.Fatalf("ListFilter() = %q, want abc", m.mode.ListFilter())
	}

	m = press(m, "/")
	m = press(m, "d")
	if m.mode.InflightFilter() != "d" {
		t.Fatalf("InflightFilter() = %q, want d", m.mode.InflightFilter())
	}
}

func TestSpaceEntersMultiselectAndTogglesSelection(t *testing.T) {
	m := New("/tmp/unused.sock")
	m.applyDaemonEvent(tabsUpdate(t, wire.TabSnapshot{ID: 7, Title: "A"}))

	m = press(m, " ")
	if len(m.selectedIDs()) != 1 || m.selectedIDs()[0] != 7 {
		t.Fatalf("selectedIDs = %v, want [7]", m.selectedIDs())
	}
}

func TestMultiselectAutoReturnsWhenFilterEmptiesList(t *testing.T) {
	m := New("/tmp/unused.sock")
	m.applyDaemonEvent(tabsUpdate(t, wire.TabSnapshot{ID: 1, Title: "abc"}))

	m = press(m, " ")    // enter Multiselect
	m = press(m, "esc")  // back to ListNormal to type a filter
	m = press(m, "/")
	m = press(m, "z")
	m = press(m, "enter") // commits filter "z", which matches nothing

	m = press(m, " ") // re-entering multiselect with an empty filtered list auto-returns
	if m.mode.State().String() == "Multiselect" {
		t.Fatalf("expected auto-return out of Multiselect when filtered list is empty")
	}
}

func TestHideOnEscWithNoFilter(t *testing.T) {
	m := New("/tmp/unused.sock")
	m = press(m, "esc")
	if !m.hidden {
		t.Fatal("expected hidden after Esc with no filter")
	}
}
