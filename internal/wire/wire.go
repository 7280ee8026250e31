// Package wire holds the JSON envelope shapes and the event-name
// translation tables of spec.md §4.4: extension vocabulary <-> internal
// event kinds <-> GUI vocabulary.
package wire

import "encoding/json"

// Kind is the broker's internal representation of an incoming event,
// independent of which transport or wire name it arrived under.
type Kind int

const (
	KindNoOp Kind = iota
	KindTabActivated
	KindTabUpdated
	KindTabCreated
	KindAllTabsSync
	KindTabRemoved
	KindGroupUpsert
	KindGroupRemoved
	KindHotkeyToggle
)

func (k Kind) String() string {
	switch k {
	case KindTabActivated:
		return "TabActivated"
	case KindTabUpdated:
		return "TabUpdated"
	case KindTabCreated:
		return "TabCreated"
	case KindAllTabsSync:
		return "AllTabsSync"
	case KindTabRemoved:
		return "TabRemoved"
	case KindGroupUpsert:
		return "GroupUpsert"
	case KindGroupRemoved:
		return "GroupRemoved"
	case KindHotkeyToggle:
		return "HotkeyToggle"
	default:
		return "NoOp"
	}
}

// Extension wire event names (extension -> daemon), spec.md §4.4 table 1.
const (
	ExtTabActivated        = "Extension::WS::TabActivated"
	ExtTabUpdated          = "Extension::WS::TabUpdated"
	ExtTabCreated          = "Extension::WS::TabCreated"
	ExtTabHighlighted      = "Extension::WS::TabHighlighted"
	ExtTabZoomChanged      = "Extension::WS::TabZoomChanged"
	ExtAllTabsInfoResponse = "Extension::WS::AllTabsInfoResponse"
	ExtTabRemoved          = "Extension::WS::TabRemoved"
	ExtTabGroupCreated     = "Extension::WS::TabGroupCreated"
	ExtTabGroupUpdated     = "Extension::WS::TabGroupUpdated"
	ExtTabGroupRemoved     = "Extension::WS::TabGroupRemoved"
)

var extensionKinds = map[string]Kind{
	ExtTabActivated:        KindTabActivated,
	ExtTabUpdated:          KindTabUpdated,
	ExtTabCreated:          KindTabCreated,
	ExtTabHighlighted:      KindNoOp,
	ExtTabZoomChanged:      KindNoOp,
	ExtAllTabsInfoResponse: KindAllTabsSync,
	ExtTabRemoved:          KindTabRemoved,
	ExtTabGroupCreated:     KindGroupUpsert,
	ExtTabGroupUpdated:     KindGroupUpsert,
	ExtTabGroupRemoved:     KindGroupRemoved,
}

// KindForExtensionEvent translates a wire event name from the extension
// into an internal Kind. ok is false for an unrecognized name (spec.md
// §4.4: "Unknown event names are logged at WARN and dropped").
func KindForExtensionEvent(event string) (kind Kind, ok bool) {
	k, found := extensionKinds[event]
	return k, found
}

// GUI intent event names (GUI -> daemon), spec.md §4.4 table 2.
const (
	GUITabSelected      = "GUI::UDS::TabSelected"
	GUICloseTabsRequest = "GUI::UDS::CloseTabsRequest"
)

// Daemon -> extension request event names.
const (
	DaemonActivateTabRequest = "Daemon::WS::ActivateTabRequest"
	DaemonCloseTabsRequest   = "Daemon::WS::CloseTabsRequest"
	DaemonAllTabsInfoRequest = "Daemon::WS::AllTabsInfoRequest"
)

// Daemon -> GUI event names, spec.md §4.4 table 3.
const (
	DaemonTabsUpdate       = "Daemon::UDS::TabsUpdate"
	DaemonTasksUpdate      = "Daemon::UDS::TasksUpdate"
	DaemonToggleGuiRequest = "Daemon::UDS::ToggleGuiRequest"
)

// Envelope is the common shape of every frame on both transports: an
// event name and an optional data object.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// ExtensionEnvelope is an incoming extension message. ActiveTabIDs is
// top-level per spec.md §4.7 ("top-level activeTabIds[]"), not nested
// under Data.
type ExtensionEnvelope struct {
	Event        string          `json:"event"`
	Data         json.RawMessage `json:"data,omitempty"`
	ActiveTabIDs []uint64        `json:"activeTabIds,omitempty"`
}

// WireTab is one tab entry as the extension encodes it.
type WireTab struct {
	ID      uint64 `json:"id"`
	Title   string `json:"title"`
	GroupID *int64 `json:"groupId,omitempty"`
}

// WireGroup is one tab-group entry as the extension encodes it.
type WireGroup struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
	Color string `json:"color"`
}

// AllTabsSyncData is the payload of an AllTabsInfoResponse message.
type AllTabsSyncData struct {
	Tabs   []WireTab   `json:"tabs"`
	Groups []WireGroup `json:"groups"`
}

// SingleTabData is the payload of TabCreated/TabUpdated/TabActivated.
type SingleTabData struct {
	ID      uint64 `json:"id"`
	Title   string `json:"title"`
	GroupID *int64 `json:"groupId,omitempty"`
}

// TabRemovedData is the payload of a TabRemoved message.
type TabRemovedData struct {
	TabID uint64 `json:"tabId"`
}

// GroupData is the payload of TabGroupCreated/TabGroupUpdated/TabGroupRemoved.
type GroupData struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
	Color string `json:"color"`
}

// TabSelectedData is the payload of a GUI TabSelected intent.
type TabSelectedData struct {
	TabID uint64 `json:"tabId"`
}

// CloseTabsRequestData is the payload shared by the GUI's
// CloseTabsRequest intent and the daemon's outgoing request of the
// same shape.
type CloseTabsRequestData struct {
	TabIDs []uint64 `json:"tabIds"`
}

// ActivateTabRequestData is the payload of the daemon's outgoing
// ActivateTabRequest to the extension.
type ActivateTabRequestData struct {
	TabID uint64 `json:"tabId"`
}

// TabSnapshot is one entry of a TabsUpdate payload.
type TabSnapshot struct {
	ID     uint64 `json:"id"`
	Title  string `json:"title"`
	Active bool   `json:"active"`
	TaskID int64  `json:"task_id"`
}

// TabsUpdateData is the payload of Daemon::UDS::TabsUpdate.
type TabsUpdateData struct {
	Tabs []TabSnapshot `json:"tabs"`
}

// TaskSnapshot is one entry of a TasksUpdate payload.
type TaskSnapshot struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

// TasksUpdateData is the payload of Daemon::UDS::TasksUpdate.
type TasksUpdateData struct {
	Tasks []TaskSnapshot `json:"tasks"`
}

// ToggleGuiRequestData is the payload of Daemon::UDS::ToggleGuiRequest.
type ToggleGuiRequestData struct {
	Data string `json:"data"`
}

// Marshal builds an Envelope with data marshaled from v and encoded as
// its Data field.
func Marshal(event string, v any) ([]byte, error) {
	var raw json.RawMessage
	if v != nil {
		data, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		raw = data
	}
	return json.Marshal(Envelope{Event: event, Data: raw})
}
