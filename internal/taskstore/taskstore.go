// Package taskstore holds the daemon's authoritative task model
// (spec.md §3, §4.3). A task is a browser tab-group elevated to an
// application-level concept, identified by the browser's group id.
// Callers (the broker) hold the broker lock around every method.
package taskstore

// Record is one task (tab-group).
type Record struct {
	ExternalID int64
	Name       string
	Color      string
}

// NoTask is the reserved sentinel that is never stored.
const NoTask int64 = -1

const defaultColor = "grey"

// Store is a set of task records keyed by ExternalID.
type Store struct {
	byID map[int64]*Record
	// order preserves insertion order so snapshots are stable across
	// calls within a session, mirroring tabstore's ordering guarantee.
	order []int64
}

// New returns an empty Store.
func New() *Store {
	return &Store{byID: make(map[int64]*Record)}
}

// FindByExternal returns the record for extID, or nil if absent.
func (s *Store) FindByExternal(extID int64) *Record {
	return s.byID[extID]
}

// Incorporate inserts a new task or updates an existing one's name and
// color; color defaults to "grey" when empty (spec.md §4.3). extID ==
// NoTask is never stored.
func (s *Store) Incorporate(extID int64, name, color string) {
	if extID == NoTask {
		return
	}
	if color == "" {
		color = defaultColor
	}
	if rec, ok := s.byID[extID]; ok {
		rec.Name = name
		rec.Color = color
		return
	}
	s.byID[extID] = &Record{ExternalID: extID, Name: name, Color: color}
	s.order = append(s.order, extID)
}

// Remove deletes extID if present; absent ids are ignored.
func (s *Store) Remove(extID int64) {
	if _, ok := s.byID[extID]; !ok {
		return
	}
	delete(s.byID, extID)
	for i, id := range s.order {
		if id == extID {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

// Snapshot returns an immutable copy of every record, in insertion order.
func (s *Store) Snapshot() []Record {
	out := make([]Record, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, *s.byID[id])
	}
	return out
}

// Len reports the number of tracked tasks.
func (s *Store) Len() int {
	return len(s.order)
}
