package identity

import "testing"

func TestDisabledFilterAcceptsAnything(t *testing.T) {
	f := New("")
	if f.Enabled() {
		t.Error("expected disabled filter")
	}
	if !f.Accepts("") || !f.Accepts("anything") {
		t.Error("disabled filter must accept every token")
	}
}

func TestEnabledFilterMatchesExactly(t *testing.T) {
	f := New("AAA")
	if !f.Enabled() {
		t.Error("expected enabled filter")
	}
	if !f.Accepts("AAA") {
		t.Error("expected matching token accepted")
	}
	if f.Accepts("BBB") {
		t.Error("expected mismatched token rejected")
	}
	if f.Accepts("") {
		t.Error("expected empty token rejected when filter enabled")
	}
}
