package license

import (
	"time"
)

// Outcome is the result of evaluating a verification request.
type Outcome int

const (
	OutcomeNotFound Outcome = iota
	OutcomeExpired
	OutcomeValidBypass
	OutcomeMismatch
	OutcomeValidBind
	OutcomeValidPlain
)

// String returns the outcome label used for metrics and logs.
func (o Outcome) String() string {
	switch o {
	case OutcomeNotFound:
		return "not_found"
	case OutcomeExpired:
		return "expired"
	case OutcomeValidBypass:
		return "valid_bypass"
	case OutcomeMismatch:
		return "mismatch"
	case OutcomeValidBind:
		return "valid_bind"
	case OutcomeValidPlain:
		return "valid"
	default:
		return "unknown"
	}
}

// Valid reports whether the outcome grants access.
func (o Outcome) Valid() bool {
	return o == OutcomeValidBypass || o == OutcomeValidBind || o == OutcomeValidPlain
}

// Code returns the error code of a rejecting outcome, or "" when it grants
// access.
func (o Outcome) Code() string {
	switch o {
	case OutcomeNotFound:
		return ErrCodeNotFound
	case OutcomeExpired:
		return ErrCodeExpired
	case OutcomeMismatch:
		return ErrCodeMismatch
	default:
		return ""
	}
}

// Verdict carries the outcome plus the hwid to persist when a bind is required.
type Verdict struct {
	Outcome  Outcome
	BindHwid string
}

// BindRequired reports whether the caller must store BindHwid before
// reporting success.
func (v Verdict) BindRequired() bool {
	return v.Outcome == OutcomeValidBind
}

// MaxMonths bounds the magnitude of months before any date arithmetic runs.
// Every value past it lands outside a four-digit year anyway.
const MaxMonths = 10000 * 366 / DaysPerMonth

// ComputeExpiry returns createdAt plus months fixed 30-day months, counted
// in calendar days so it never overflows a time.Duration. Zero and negative
// months are accepted and yield an expiry at or before createdAt. Callers
// check the range with CheckMonths first.
func ComputeExpiry(createdAt time.Time, months int) time.Time {
	return createdAt.AddDate(0, 0, DaysPerMonth*months)
}

// CheckMonths returns ErrMonthsOutOfRange when a key issued at createdAt
// would expire outside the years 0000 to 9999 that TimestampLayout holds.
func CheckMonths(createdAt time.Time, months int) error {
	if months > MaxMonths || months < -MaxMonths {
		return ErrMonthsOutOfRange
	}
	if y := ComputeExpiry(createdAt.UTC(), months).Year(); y < 0 || y > 9999 {
		return ErrMonthsOutOfRange
	}
	return nil
}

// Evaluate decides the verification outcome for rec against the supplied
// hwid at now. An empty supplied hwid counts as not supplied.
//
// Checks run in a fixed order: existence, expiry, bypass, mismatch, bind.
// Expiry uses a strict comparison, so a record expiring exactly at now is
// still valid here while IsStale already reports it.
func Evaluate(rec *KeyRecord, supplied string, now time.Time) Verdict {
	if rec == nil {
		return Verdict{Outcome: OutcomeNotFound}
	}
	if rec.ExpiresAt.Before(now) {
		return Verdict{Outcome: OutcomeExpired}
	}

	switch rec.HwidState() {
	case HwidBypass:
		return Verdict{Outcome: OutcomeValidBypass}
	case HwidBound:
		if supplied != "" && supplied != *rec.Hwid {
			return Verdict{Outcome: OutcomeMismatch}
		}
	case HwidUnset:
		if supplied != "" {
			return Verdict{Outcome: OutcomeValidBind, BindHwid: supplied}
		}
	}
	return Verdict{Outcome: OutcomeValidPlain}
}

// IsStale reports whether rec is eligible for sweeping at now.
func IsStale(rec *KeyRecord, now time.Time) bool {
	return !rec.ExpiresAt.After(now)
}
