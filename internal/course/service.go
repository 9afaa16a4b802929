package course

import (
	"context"
	"time"
)

// Progress is the answer to a progress query.
// Completed is true once the regimen ladder is exhausted for the current day;
// Regimen is only meaningful when Completed is false.
type Progress struct {
	Day       int
	Regimen   Regimen
	Taken     int
	Completed bool
}

// Service is the course state machine. All operations are keyed by user and
// go through the Store's single lock, so read-modify-write is atomic.
type Service struct {
	store *Store

	// now is swappable for tests.
	now func() time.Time
}

func NewService(store *Store) *Service {
	return &Service{store: store, now: time.Now}
}

// Touch lazily creates the user's record on first contact (/start). The fresh
// inactive record is intentionally not persisted.
func (s *Service) Touch(userID int64) {
	_ = s.store.Get(userID)
}

// StartDay resets the course unconditionally: fresh start timestamp, empty
// dose log, active. Restarting is an explicit user action and always wins.
func (s *Service) StartDay(ctx context.Context, userID int64) error {
	now := s.now()
	return s.store.Mutate(ctx, userID, func(r *Record) error {
		r.StartedAt = now
		r.Active = true
		r.DoseLog = nil
		return nil
	})
}

// MarkDose appends now to the dose log. Requires an active course; no upper
// bound is enforced, logging past DosesPerDay just makes today over-complete.
func (s *Service) MarkDose(ctx context.Context, userID int64) error {
	now := s.now()
	return s.store.Mutate(ctx, userID, func(r *Record) error {
		if !r.Active {
			return ErrNotActive
		}
		r.DoseLog = append(r.DoseLog, now)
		return nil
	})
}

// SetCount replaces the entire dose log with n timestamps of now. This is a
// destructive overwrite, not additive, and deliberately does not require an
// active course (the record is created if absent).
func (s *Service) SetCount(ctx context.Context, userID int64, n int) error {
	if n < 0 {
		return ErrInvalidCount
	}
	now := s.now()
	return s.store.Mutate(ctx, userID, func(r *Record) error {
		log := make([]time.Time, n)
		for i := range log {
			log[i] = now
		}
		r.DoseLog = log
		return nil
	})
}

// QueryProgress reports the current day number, its regimen and today's dose
// count. Requires an active course.
func (s *Service) QueryProgress(userID int64) (Progress, error) {
	r := s.store.Get(userID)
	if !r.Active {
		return Progress{}, ErrNotActive
	}
	now := s.now()
	day := r.DayNumber(now)
	reg, ok := RegimenFor(day)
	if !ok {
		return Progress{Day: day, Completed: true}, nil
	}
	return Progress{Day: day, Regimen: reg, Taken: r.TakenOn(now)}, nil
}
