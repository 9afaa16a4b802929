package course

import "time"

// Record is one user's course state.
//
// Invariants:
//   - Active implies StartedAt is set.
//   - DoseLog is append-only under MarkDose; StartDay clears it and SetCount
//     replaces it wholesale (a documented destructive overwrite).
//   - DoseLog is never pruned, so it grows for the life of a course.
type Record struct {
	StartedAt time.Time // zero value means the course has never been started
	Active    bool
	DoseLog   []time.Time
}

// Clone returns a deep copy. Snapshot readers (the reminder sweep) must not
// observe mutations made after the snapshot was taken.
func (r Record) Clone() Record {
	cp := r
	if r.DoseLog != nil {
		cp.DoseLog = append([]time.Time(nil), r.DoseLog...)
	}
	return cp
}

// DayNumber is the 1-based count of elapsed 24h periods since the course
// started. StartedAt is always <= now by construction, so the result is >= 1.
func (r Record) DayNumber(now time.Time) int {
	return int(now.Sub(r.StartedAt)/(24*time.Hour)) + 1
}

// TakenOn counts doses logged on the same calendar date as now (local, naive).
// The count is derived, never stored.
func (r Record) TakenOn(now time.Time) int {
	y, m, d := now.Date()
	n := 0
	for _, t := range r.DoseLog {
		ty, tm, td := t.Date()
		if ty == y && tm == m && td == d {
			n++
		}
	}
	return n
}
