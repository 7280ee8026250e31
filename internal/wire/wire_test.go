package wire

import (
	"encoding/json"
	"testing"
)

func TestKindForExtensionEventTable(t *testing.T) {
	cases := map[string]Kind{
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
	for event, want := range cases {
		got, ok := KindForExtensionEvent(event)
		if !ok {
			t.Errorf("%s: not found", event)
			continue
		}
		if got != want {
			t.Errorf("%s: kind = %v, want %v", event, got, want)
		}
	}
}

func TestKindForUnknownEvent(t *testing.T) {
	_, ok := KindForExtensionEvent("Extension::WS::SomethingNew")
	if ok {
		t.Error("expected unknown event to be rejected")
	}
}

func TestMarshalEnvelope(t *testing.T) {
	data, err := Marshal(DaemonToggleGuiRequest, ToggleGuiRequestData{Data: "toggle"})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if env.Event != DaemonToggleGuiRequest {
		t.Errorf("event = %q, want %q", env.Event, DaemonToggleGuiRequest)
	}
	var payload ToggleGuiRequestData
	if err := json.Unmarshal(env.Data, &payload); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if payload.Data != "toggle" {
		t.Errorf("payload.Data = %q, want toggle", payload.Data)
	}
}

func TestExtensionEnvelopeActiveTabIDsTopLevel(t *testing.T) {
	raw := []byte(`{"event":"Extension::WS::TabActivated","data":{"id":501,"title":"x"},"activeTabIds":[501]}`)
	var env ExtensionEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(env.ActiveTabIDs) != 1 || env.ActiveTabIDs[0] != 501 {
		t.Errorf("activeTabIds = %v", env.ActiveTabIDs)
	}
}
