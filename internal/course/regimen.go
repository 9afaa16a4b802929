package course

// Regimen is the prescribed dosing for one day of the course.
// IntervalHours is informational (shown to the user); the reminder sweep
// runs on its own fixed cadence.
type Regimen struct {
	DosesPerDay   int
	IntervalHours float64
}

// RegimenFor returns the regimen for the given 1-based day number.
// ok is false once the ladder is exhausted (day > 25): the course is complete.
//
// Callers guarantee day >= 1 by construction of the day-number formula.
func RegimenFor(day int) (Regimen, bool) {
	switch {
	case day <= 3:
		return Regimen{DosesPerDay: 6, IntervalHours: 2}, true
	case day <= 12:
		return Regimen{DosesPerDay: 5, IntervalHours: 2.5}, true
	case day <= 16:
		return Regimen{DosesPerDay: 4, IntervalHours: 3}, true
	case day <= 20:
		return Regimen{DosesPerDay: 3, IntervalHours: 5}, true
	case day <= 25:
		return Regimen{DosesPerDay: 2, IntervalHours: 12}, true
	default:
		return Regimen{}, false
	}
}
