// Package mode implements the GUI client's keyboard mode state machine
// (spec.md §4.8): ListNormal / FilterInflight / Multiselect, plus the
// filter-text transfer rules between them. Grounded on the teacher's
// tui package's tagged-union view-state pattern (app.go's view enum)
// generalized to a full transition table with its own package rather
// than inline switch-on-key handling.
package mode

import (
	"unicode"
	"unicode/utf8"
)

// State is one of the machine's tagged states.
type State int

const (
	// Unknown exists only until New assigns ListNormal.
	Unknown State = iota
	ListNormal
	FilterInflight
	Multiselect
)

func (s State) String() string {
	switch s {
	case ListNormal:
		return "ListNormal"
	case FilterInflight:
		return "FilterInflight"
	case Multiselect:
		return "Multiselect"
	default:
		return "Unknown"
	}
}

// Key is an opaque symbolic key code; the GUI's input layer maps its
// platform key events onto these constants.
type Key int

const (
	KeyNone Key = iota
	KeySlash
	KeyEsc
	KeyDown
	KeyJ
	KeyUp
	KeyK
	KeyEnter
	KeySpace
	KeyCmdA
	KeyX
	KeyBackspace
)

// Action is what the machine tells the GUI to do after a keystroke.
type Action int

const (
	ActionNone Action = iota
	ActionUpdateListFilter
	ActionHideUi
	ActionNavigateDown
	ActionNavigateUp
	ActionActivateToTab
	ActionSelectTab
	ActionSelectAllTabs
	ActionCloseSelectedTabs
	ActionCommitListFilter
	ActionAdhereToMode
)

// maxFilterLen bounds each state's filter-text buffer (spec.md §4.8:
// "bounded capacity, e.g. 1024 bytes").
const maxFilterLen = 1024

// Machine is the mode state machine. Zero value is not usable; use New.
type Machine struct {
	state State

	listFilter     string
	inflightFilter string
	multiFilter    string
}

// New returns a Machine in ListNormal with empty filters.
func New() *Machine {
	return &Machine{state: ListNormal}
}

// State returns the current state.
func (m *Machine) State() State { return m.state }

// ListFilter returns ListNormal's current filter text.
func (m *Machine) ListFilter() string { return m.listFilter }

// InflightFilter returns FilterInflight's staging buffer.
func (m *Machine) InflightFilter() string { return m.inflightFilter }

// HandleKey processes a non-character key and returns the resulting
// action. Alphanumeric/space/_/- input while in FilterInflight must go
// through HandleChar instead.
func (m *Machine) HandleKey(k Key) Action {
	switch m.state {
	case ListNormal:
		return m.handleListNormal(k)
	case FilterInflight:
		return m.handleFilterInflight(k)
	case Multiselect:
		return m.handleMultiselect(k)
	default:
		m.state = ListNormal
		return ActionNone
	}
}

// HandleChar processes one filter-text character. It only has an
// effect in FilterInflight; characters outside the allowed class
// (alphanumeric, space, '_', '-') and characters that would overflow
// the bounded buffer are silently ignored.
func (m *Machine) HandleChar(r rune) Action {
	if m.state != FilterInflight {
		return ActionNone
	}
	if !isFilterChar(r) {
		return ActionNone
	}
	if len(m.inflightFilter)+utf8.RuneLen(r) > maxFilterLen {
		return ActionNone
	}
	m.inflightFilter += string(r)
	return ActionUpdateListFilter
}

// NotifyListLength tells the machine how many tabs the current filter
// leaves visible. In Multiselect, a length of zero auto-returns to
// ListNormal (spec.md §4.8).
func (m *Machine) NotifyListLength(n int) Action {
	if m.state == Multiselect && n == 0 {
		m.state = ListNormal
		m.multiFilter = ""
		return ActionAdhereToMode
	}
	return ActionNone
}

func (m *Machine) handleListNormal(k Key) Action {
	switch k {
	case KeySlash:
		m.state = FilterInflight
		m.inflightFilter = "" // cleared, not copied from ListNormal
		return ActionAdhereToMode
	case KeyEsc:
		if m.listFilter != "" {
			m.listFilter = ""
			return ActionUpdateListFilter
		}
		return ActionHideUi
	case KeyDown, KeyJ:
		return ActionNavigateDown
	case KeyUp, KeyK:
		return ActionNavigateUp
	case KeyEnter:
		return ActionActivateToTab
	case KeySpace:
		m.state = Multiselect
		m.multiFilter = m.listFilter
		return ActionSelectTab
	case KeyCmdA:
		m.state = Multiselect
		m.multiFilter = m.listFilter
		return ActionSelectAllTabs
	case KeyX:
		return ActionCloseSelectedTabs
	default:
		return ActionNone
	}
}

func (m *Machine) handleFilterInflight(k Key) Action {
	switch k {
	case KeyEsc:
		// Discards the staged text; ListNormal's own filter, untouched
		// since entry, is left as-is.
		m.inflightFilter = ""
		m.state = ListNormal
		return ActionNone
	case KeyEnter:
		m.listFilter = m.inflightFilter
		m.inflightFilter = ""
		m.state = ListNormal
		return ActionCommitListFilter
	case KeyBackspace:
		if n := len(m.inflightFilter); n > 0 {
			_, size := utf8.DecodeLastRuneInString(m.inflightFilter)
			m.inflightFilter = m.inflightFilter[:n-size]
		}
		return ActionUpdateListFilter
	default:
		return ActionNone
	}
}

func (m *Machine) handleMultiselect(k Key) Action {
	switch k {
	case KeyEsc:
		m.listFilter = m.multiFilter
		m.multiFilter = ""
		m.state = ListNormal
		return ActionAdhereToMode
	case KeyDown, KeyJ:
		return ActionNavigateDown
	case KeyUp, KeyK:
		return ActionNavigateUp
	case KeySpace:
		return ActionSelectTab
	case KeyCmdA:
		return ActionSelectAllTabs
	case KeyX:
		return ActionCloseSelectedTabs
	default:
		return ActionNone
	}
}

func isFilterChar(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == ' ' || r == '_' || r == '-'
}
