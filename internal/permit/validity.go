// Package permit derives the point-in-time validity of a sanitary permit
// from its issuance date. The result is never persisted; callers must
// re-evaluate on every read.
package permit

import "time"

type Validity string

const (
	ValidityUnknown       Validity = "UNKNOWN"
	ValidityValid         Validity = "VALID"
	ValidityInGracePeriod Validity = "IN_GRACE_PERIOD"
	ValidityExpired       Validity = "EXPIRED"
)

// graceDays is how far into January a previous-year permit stays
// provisionally valid.
const graceDays = 15

// Evaluate returns the validity of a permit issued at issuedAt as seen at
// now. A permit is valid through Dec 31 of its issuance year, in grace
// until Jan 15 of the following year, and expired after that. Both
// windows are anchored to the issuance year, never to now.
func Evaluate(issuedAt *time.Time, now time.Time) Validity {
	if issuedAt == nil {
		return ValidityUnknown
	}

	issuedYear := issuedAt.Year()

	yearEnd := time.Date(issuedYear, time.December, 31, 23, 59, 59, 0, now.Location())
	graceEnd := time.Date(issuedYear+1, time.January, graceDays, 23, 59, 59, 0, now.Location())

	switch {
	case !now.After(yearEnd):
		return ValidityValid
	case now.After(yearEnd) && !now.After(graceEnd):
		return ValidityInGracePeriod
	default:
		return ValidityExpired
	}
}

// YearWindow returns the inclusive bounds of a calendar year in loc. The
// inspection ledger and everything that scopes records to "this year"
// must go through this helper rather than recompute the boundaries.
func YearWindow(year int, loc *time.Location) (time.Time, time.Time) {
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, loc)
	end := time.Date(year, time.December, 31, 23, 59, 59, 999999999, loc)
	return start, end
}
