// Package tabstore holds the daemon's authoritative tab model
// (spec.md §3, §4.2). Callers (the broker) are responsible for holding
// the broker lock around every method — Store does no locking of its
// own.
package tabstore

// Record is one browser tab. TaskExtID is -1 when the tab belongs to
// no task (tab-group).
type Record struct {
	ID        uint64
	Title     string
	Active    bool
	TaskExtID int64
}

// NoTask is the sentinel TaskExtID value meaning "no group".
const NoTask int64 = -1

// Store is an ordered, by-id collection of tab records. Order is
// insertion order and is stable across snapshots within a session
// (spec.md §3); any container meeting that plus unique ids and O(1)-ish
// lookup is acceptable per §9, so this pairs a slice (for order) with an
// id->index map (for lookup) instead of the source's hand-rolled linked
// list.
type Store struct {
	order []*Record
	byID  map[uint64]int
}

// New returns an empty Store.
func New() *Store {
	return &Store{byID: make(map[uint64]int)}
}

// Find returns the record for id, or nil if absent.
func (s *Store) Find(id uint64) *Record {
	if idx, ok := s.byID[id]; ok {
		return s.order[idx]
	}
	return nil
}

// Upsert inserts a new record (active=false, per spec.md §4.2) or
// updates title (only if it differs) and task_ext_id for an existing one.
func (s *Store) Upsert(id uint64, title string, taskExtID int64) {
	if title == "" {
		title = "Unknown"
	}
	if idx, ok := s.byID[id]; ok {
		rec := s.order[idx]
		if rec.Title != title {
			rec.Title = title
		}
		rec.TaskExtID = taskExtID
		return
	}
	s.byID[id] = len(s.order)
	s.order = append(s.order, &Record{
		ID:        id,
		Title:     title,
		Active:    false,
		TaskExtID: taskExtID,
	})
}

// Remove deletes id if present; absent ids are ignored (idempotent, per
// spec.md §4.2).
func (s *Store) Remove(id uint64) {
	idx, ok := s.byID[id]
	if !ok {
		return
	}
	s.order = append(s.order[:idx], s.order[idx+1:]...)
	delete(s.byID, id)
	for i := idx; i < len(s.order); i++ {
		s.byID[s.order[i].ID] = i
	}
}

// ApplyActive sets Active true on every record whose id is in ids and
// false on every other record (spec.md §4.2's apply_active).
func (s *Store) ApplyActive(ids map[uint64]struct{}) {
	for _, rec := range s.order {
		_, active := ids[rec.ID]
		rec.Active = active
	}
}

// Snapshot returns an immutable copy of every record, in stable order.
func (s *Store) Snapshot() []Record {
	out := make([]Record, len(s.order))
	for i, rec := range s.order {
		out[i] = *rec
	}
	return out
}

// Len reports the number of tracked tabs.
func (s *Store) Len() int {
	return len(s.order)
}
