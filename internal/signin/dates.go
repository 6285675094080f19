// Package signin holds the calendar arithmetic behind the daily check-in:
// which day number to submit, whether it is a backfill, and whether the
// month-completion bonus applies.
package signin

import (
	"fmt"
	"time"
)

// Kind distinguishes a normal check-in from a compensating one
type Kind int

const (
	// KindToday is a check-in for the current day
	KindToday Kind = 1
	// KindBackfill is a compensating check-in for a missed earlier day
	KindBackfill Kind = 2
)

// BonusDecision is the three-way month-bonus branch taken after a
// successful check-in
type BonusDecision int

const (
	// BonusNotYet means the month is not fully checked in
	BonusNotYet BonusDecision = iota
	// BonusClaim means this check-in completes the month
	BonusClaim
	// BonusAlreadyClaimed means the day count ran past the month end,
	// so the bonus was claimable in a prior run
	BonusAlreadyClaimed
)

// Plan is the resolved action for one check-in attempt
type Plan struct {
	// DayNo is serverSignedDays+1, the next actionable day. It may exceed
	// the month length; the bonus decision uses this unclamped value.
	DayNo int
	// SubmitDay is DayNo clamped to the last day of the month. The server's
	// day index is 1-based within the month and rejects anything larger.
	// The clamp mirrors the upstream service's observed behavior near month
	// boundaries with stale counts; it is a workaround, not a rule.
	SubmitDay int
	Kind      Kind
	Bonus     BonusDecision
	// Remaining is lastDay-DayNo when Bonus is BonusNotYet, else 0
	Remaining int
}

// Resolve computes the check-in plan from the server-reported count of
// already-signed days and today's position in the month.
func Resolve(signedDays, today, lastDay int) Plan {
	day := signedDays + 1
	if day < 1 {
		day = 1
	}

	p := Plan{DayNo: day, SubmitDay: day}
	if p.SubmitDay > lastDay {
		p.SubmitDay = lastDay
	}

	if day == today {
		p.Kind = KindToday
	} else {
		p.Kind = KindBackfill
	}

	switch {
	case day == lastDay:
		p.Bonus = BonusClaim
	case day > lastDay:
		p.Bonus = BonusAlreadyClaimed
	default:
		p.Bonus = BonusNotYet
		p.Remaining = lastDay - day
	}

	return p
}

// Today returns the day-of-month for t (1-31)
func Today(t time.Time) int {
	return t.Day()
}

// LastDay returns the number of days in t's month
func LastDay(t time.Time) int {
	firstOfMonth := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	return firstOfMonth.AddDate(0, 1, -1).Day()
}

// MonthKey returns t's month in the YYYYMM form the bonus endpoint expects
func MonthKey(t time.Time) string {
	return fmt.Sprintf("%04d%02d", t.Year(), int(t.Month()))
}
