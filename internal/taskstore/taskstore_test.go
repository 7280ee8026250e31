package taskstore

import "testing"

func TestIncorporateInsertsWithDefaultColor(t *testing.T) {
	s := New()
	s.Incorporate(10, "Work", "")
	rec := s.FindByExternal(10)
	if rec == nil {
		t.Fatal("expected record")
	}
	if rec.Color != "grey" {
		t.Errorf("color = %q, want grey", rec.Color)
	}
	if rec.Name != "Work" {
		t.Errorf("name = %q, want Work", rec.Name)
	}
}

func TestIncorporateUpdatesExisting(t *testing.T) {
	s := New()
	s.Incorporate(10, "Work", "blue")
	s.Incorporate(10, "Work Renamed", "red")

	if s.Len() != 1 {
		t.Fatalf("len = %d, want 1", s.Len())
	}
	rec := s.FindByExternal(10)
	if rec.Name != "Work Renamed" || rec.Color != "red" {
		t.Errorf("unexpected record: %+v", rec)
	}
}

func TestIncorporateNeverStoresSentinel(t *testing.T) {
	s := New()
	s.Incorporate(NoTask, "ignored", "grey")
	if s.Len() != 0 {
		t.Errorf("sentinel -1 should never be stored, len = %d", s.Len())
	}
	if s.FindByExternal(NoTask) != nil {
		t.Error("expected nil for sentinel lookup")
	}
}

func TestRemoveIsIdempotent(t *testing.T) {
	s := New()
	s.Incorporate(10, "Work", "blue")
	s.Remove(10)
	s.Remove(10)
	if s.FindByExternal(10) != nil {
		t.Error("expected record removed")
	}
}

func TestExternalIDUniqueness(t *testing.T) {
	s := New()
	s.Incorporate(1, "a", "")
	s.Incorporate(1, "b", "")
	s.Incorporate(2, "c", "")

	seen := map[int64]bool{}
	for _, rec := range s.Snapshot() {
		if seen[rec.ExternalID] {
			t.Fatalf("duplicate external id %d", rec.ExternalID)
		}
		seen[rec.ExternalID] = true
	}
}

func TestSnapshotIsImmutableCopy(t *testing.T) {
	s := New()
	s.Incorporate(1, "a", "blue")
	snap := s.Snapshot()
	snap[0].Name = "mutated"
	if s.FindByExternal(1).Name != "a" {
		t.Error("mutating snapshot must not affect store")
	}
}
