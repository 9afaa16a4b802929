package course

import (
	"context"
	"sync"

	logx "pillbot/pkg/logx"
)

// Backend persists the full record map. internal/storage implements it; a nil
// Backend disables persistence entirely.
type Backend interface {
	LoadAll(ctx context.Context) (map[int64]Record, error)
	SaveAll(ctx context.Context, recs map[int64]Record) error
}

// UserRecord pairs a record with its owner for sweep snapshots.
type UserRecord struct {
	UserID int64
	Record Record
}

// Store owns the userID -> Record map behind a single mutex. Command handling
// and the reminder sweep both go through it; every mutation is written through
// to the backend immediately (low request rate, durability over throughput).
//
// A backend failure never takes the process down: the in-memory state stays
// authoritative and the store keeps serving in a degraded, non-durable mode.
type Store struct {
	log     logx.Logger
	backend Backend

	mu      sync.Mutex
	records map[int64]Record
}

func NewStore(backend Backend, log logx.Logger) *Store {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Store{
		log:     log,
		backend: backend,
		records: map[int64]Record{},
	}
}

// Load hydrates the map from the backend. Called once at startup.
// Unreadable state is logged and the store starts empty.
func (s *Store) Load(ctx context.Context) error {
	if s.backend == nil {
		return nil
	}
	recs, err := s.backend.LoadAll(ctx)
	if err != nil {
		s.log.Warn("state load failed; starting empty", logx.Err(err))
		return err
	}
	if recs == nil {
		recs = map[int64]Record{}
	}
	s.mu.Lock()
	s.records = recs
	s.mu.Unlock()
	s.log.Info("state loaded", logx.Int("users", len(recs)))
	return nil
}

// Get returns a copy of the user's record, or a fresh not-started record if
// none exists. The fresh record is NOT persisted until the first mutation.
func (s *Store) Get(userID int64) Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.records[userID]; ok {
		return r.Clone()
	}
	return Record{}
}

// Mutate runs fn on the user's record (creating it if absent) under the store
// lock and writes through on success. If fn returns an error the record is
// left untouched. A write-through failure is logged, not returned: the
// mutation itself succeeded and the service continues non-durably.
func (s *Store) Mutate(ctx context.Context, userID int64, fn func(r *Record) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec := s.records[userID].Clone()
	if err := fn(&rec); err != nil {
		return err
	}
	s.records[userID] = rec
	s.saveLocked(ctx)
	return nil
}

// AllActive returns a deep-copied snapshot of every active record, taken at
// the instant of the call. The sweep must not observe mid-sweep mutations.
func (s *Store) AllActive() []UserRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]UserRecord, 0, len(s.records))
	for id, r := range s.records {
		if !r.Active {
			continue
		}
		out = append(out, UserRecord{UserID: id, Record: r.Clone()})
	}
	return out
}

// Flush writes the current state through to the backend (used on shutdown).
func (s *Store) Flush(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saveLocked(ctx)
}

func (s *Store) saveLocked(ctx context.Context) {
	if s.backend == nil {
		return
	}
	snap := make(map[int64]Record, len(s.records))
	for id, r := range s.records {
		snap[id] = r.Clone()
	}
	if err := s.backend.SaveAll(ctx, snap); err != nil {
		s.log.Warn("state save failed; continuing non-durably", logx.Err(err))
	}
}
