// Package broker is the daemon's core (spec.md §2, §4.7): it owns both
// in-memory stores, the single-slot pending-WS mailbox, and the
// fan-out/translation logic connecting the extension-WS and GUI-UDS
// transports. Transports never touch tabstore/taskstore directly — they
// call into Broker and get told what to send.
package broker

import (
	"encoding/json"
	"sync"

	"github.com/0000mz/lotab/internal/applog"
	"github.com/0000mz/lotab/internal/identity"
	"github.com/0000mz/lotab/internal/tabstore"
	"github.com/0000mz/lotab/internal/taskstore"
	"github.com/0000mz/lotab/internal/wire"
)

// GUISender is the subset of the GUI-UDS server the broker depends on.
// Defined here (not imported from udsserver) so broker has no import on
// the transport packages; engine wires the concrete *udsserver.Server in.
type GUISender interface {
	Send(payload []byte) error
	Connected() bool
}

// Broker mediates between the extension-WS and GUI-UDS transports,
// matching spec.md §4.7's component design.
type Broker struct {
	log *applog.Logger

	filter identity.Filter

	mu    sync.Mutex
	tabs  *tabstore.Store
	tasks *taskstore.Store

	pendingMu sync.Mutex
	pending   []byte
	wake      chan struct{}

	guiMu  sync.Mutex
	guiSink GUISender
}

// New returns an empty Broker enforcing filter on every extension
// message.
func New(filter identity.Filter) *Broker {
	return &Broker{
		log:    applog.New("broker"),
		filter: filter,
		tabs:   tabstore.New(),
		tasks:  taskstore.New(),
		wake:   make(chan struct{}, 1),
	}
}

// SetGUISink registers the GUI-UDS server the broker fans snapshots out
// to. Safe to call before the server has an active connection.
func (b *Broker) SetGUISink(s GUISender) {
	b.guiMu.Lock()
	b.guiSink = s
	b.guiMu.Unlock()
}

func (b *Broker) gui() GUISender {
	b.guiMu.Lock()
	defer b.guiMu.Unlock()
	return b.guiSink
}

// WakeExtension returns the channel the extension-WS writer goroutine
// selects on to learn a pending message was armed (spec.md §4.6's
// ServerWritable / WaitCancelled stand-in, per DESIGN.md).
func (b *Broker) WakeExtension() <-chan struct{} {
	return b.wake
}

// DrainPending removes and returns the armed outgoing extension
// message, or nil if none is armed.
func (b *Broker) DrainPending() []byte {
	b.pendingMu.Lock()
	defer b.pendingMu.Unlock()
	p := b.pending
	b.pending = nil
	return p
}

func (b *Broker) setPending(payload []byte) {
	b.pendingMu.Lock()
	b.pending = payload
	b.pendingMu.Unlock()
	select {
	case b.wake <- struct{}{}:
	default:
	}
}

// InitialExtensionRequest returns the AllTabsInfoRequest envelope sent
// once per new extension connection (spec.md §4.6/§4.7).
func (b *Broker) InitialExtensionRequest() []byte {
	payload, _ := wire.Marshal(wire.DaemonAllTabsInfoRequest, nil)
	return payload
}

// HandleExtensionMessage processes one incoming extension frame.
// accepted is false when the identity filter rejected the message's
// browserID — the caller (the WS server) should close that connection.
func (b *Broker) HandleExtensionMessage(raw []byte, browserID string) (accepted bool) {
	if !b.filter.Accepts(browserID) {
		b.log.Warn("identity.rejected")
		return false
	}

	var env wire.ExtensionEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		b.log.Error("extension.malformed_envelope", err)
		return true
	}

	kind, ok := wire.KindForExtensionEvent(env.Event)
	if !ok {
		b.log.Warn("extension.unknown_event", "event", env.Event)
		return true
	}
	if kind == wire.KindNoOp {
		return true
	}

	b.mu.Lock()
	switch kind {
	case wire.KindAllTabsSync:
		b.applyAllTabsSyncLocked(env)
	case wire.KindTabCreated, wire.KindTabUpdated, wire.KindTabActivated:
		b.applySingleTabLocked(env)
	case wire.KindTabRemoved:
		b.applyTabRemovedLocked(env)
	case wire.KindGroupUpsert:
		b.applyGroupUpsertLocked(env)
	case wire.KindGroupRemoved:
		b.applyGroupRemovedLocked(env)
	}
	tabsPayload, tasksPayload := b.snapshotLocked()
	b.mu.Unlock()

	b.fanOut(tabsPayload, tasksPayload)
	return true
}

// HandleGUIIntent processes one incoming GUI-UDS intent, arming the
// extension mailbox with the translated outgoing request.
func (b *Broker) HandleGUIIntent(event string, data json.RawMessage) {
	switch event {
	case wire.GUITabSelected:
		var d wire.TabSelectedData
		if err := json.Unmarshal(data, &d); err != nil {
			b.log.Error("gui.malformed_intent", err, "event", event)
			return
		}
		payload, _ := wire.Marshal(wire.DaemonActivateTabRequest, wire.ActivateTabRequestData{TabID: d.TabID})
		b.setPending(payload)
	case wire.GUICloseTabsRequest:
		var d wire.CloseTabsRequestData
		if err := json.Unmarshal(data, &d); err != nil {
			b.log.Error("gui.malformed_intent", err, "event", event)
			return
		}
		payload, _ := wire.Marshal(wire.DaemonCloseTabsRequest, wire.CloseTabsRequestData{TabIDs: d.TabIDs})
		b.setPending(payload)
	default:
		b.log.Warn("gui.unknown_intent", "event", event)
	}
}

// HandleHotkeyToggle processes a KindHotkeyToggle event raised by the
// GUI-side hotkey source, fanning out current state plus a
// ToggleGuiRequest (spec.md §4.7).
func (b *Broker) HandleHotkeyToggle() {
	b.mu.Lock()
	tabsPayload, tasksPayload := b.snapshotLocked()
	b.mu.Unlock()

	b.fanOut(tabsPayload, tasksPayload)

	if sink := b.gui(); sink != nil && sink.Connected() {
		payload, _ := wire.Marshal(wire.DaemonToggleGuiRequest, wire.ToggleGuiRequestData{Data: "toggle"})
		if err := sink.Send(payload); err != nil {
			b.log.Error("gui.send_failed", err)
		}
	}
}

func (b *Broker) fanOut(tabsPayload, tasksPayload []byte) {
	sink := b.gui()
	if sink == nil || !sink.Connected() {
		return
	}
	if err := sink.Send(tabsPayload); err != nil {
		b.log.Error("gui.send_failed", err)
	}
	if err := sink.Send(tasksPayload); err != nil {
		b.log.Error("gui.send_failed", err)
	}
}

func (b *Broker) resolveTaskExtLocked(groupID *int64) int64 {
	if groupID == nil {
		return tabstore.NoTask
	}
	if b.tasks.FindByExternal(*groupID) != nil {
		return *groupID
	}
	// spec.md §7: an unresolvable group reference falls back to -1
	// rather than being treated as an error.
	return tabstore.NoTask
}

func (b *Broker) applyAllTabsSyncLocked(env wire.ExtensionEnvelope) {
	var data wire.AllTabsSyncData
	if err := json.Unmarshal(env.Data, &data); err != nil {
		b.log.Error("extension.malformed_data", err, "event", env.Event)
		return
	}
	for _, g := range data.Groups {
		b.tasks.Incorporate(g.ID, g.Title, g.Color)
	}
	for _, t := range data.Tabs {
		b.tabs.Upsert(t.ID, t.Title, b.resolveTaskExtLocked(t.GroupID))
	}
	b.tabs.ApplyActive(idSet(env.ActiveTabIDs))
}

func (b *Broker) applySingleTabLocked(env wire.ExtensionEnvelope) {
	var data wire.SingleTabData
	if err := json.Unmarshal(env.Data, &data); err != nil {
		b.log.Error("extension.malformed_data", err, "event", env.Event)
		return
	}
	if data.ID == 0 {
		b.log.Warn("extension.missing_id", "event", env.Event)
		return
	}
	b.tabs.Upsert(data.ID, data.Title, b.resolveTaskExtLocked(data.GroupID))
	if env.ActiveTabIDs != nil {
		b.tabs.ApplyActive(idSet(env.ActiveTabIDs))
	}
}

func (b *Broker) applyTabRemovedLocked(env wire.ExtensionEnvelope) {
	var data wire.TabRemovedData
	if err := json.Unmarshal(env.Data, &data); err != nil {
		b.log.Error("extension.malformed_data", err, "event", env.Event)
		return
	}
	b.tabs.Remove(data.TabID)
	if env.ActiveTabIDs != nil {
		b.tabs.ApplyActive(idSet(env.ActiveTabIDs))
	}
}

func (b *Broker) applyGroupUpsertLocked(env wire.ExtensionEnvelope) {
	var data wire.GroupData
	if err := json.Unmarshal(env.Data, &data); err != nil {
		b.log.Error("extension.malformed_data", err, "event", env.Event)
		return
	}
	b.tasks.Incorporate(data.ID, data.Title, data.Color)
}

func (b *Broker) applyGroupRemovedLocked(env wire.ExtensionEnvelope) {
	var data wire.GroupData
	if err := json.Unmarshal(env.Data, &data); err != nil {
		b.log.Error("extension.malformed_data", err, "event", env.Event)
		return
	}
	b.tasks.Remove(data.ID)
}

func (b *Broker) snapshotLocked() (tabsPayload, tasksPayload []byte) {
	tabRecs := b.tabs.Snapshot()
	tabSnaps := make([]wire.TabSnapshot, len(tabRecs))
	for i, r := range tabRecs {
		tabSnaps[i] = wire.TabSnapshot{ID: r.ID, Title: r.Title, Active: r.Active, TaskID: r.TaskExtID}
	}
	tabsPayload, _ = wire.Marshal(wire.DaemonTabsUpdate, wire.TabsUpdateData{Tabs: tabSnaps})

	taskRecs := b.tasks.Snapshot()
	taskSnaps := make([]wire.TaskSnapshot, len(taskRecs))
	for i, r := range taskRecs {
		taskSnaps[i] = wire.TaskSnapshot{ID: r.ExternalID, Name: r.Name, Color: r.Color}
	}
	tasksPayload, _ = wire.Marshal(wire.DaemonTasksUpdate, wire.TasksUpdateData{Tasks: taskSnaps})
	return tabsPayload, tasksPayload
}

func idSet(ids []uint64) map[uint64]struct{} {
	set := make(map[uint64]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}
