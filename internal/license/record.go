package license

import (
	"time"
)

const (
	// BypassMarker is the hwid value that makes a key valid on any device.
	BypassMarker = "BYPASS"

	// DaysPerMonth is the fixed month length used for expiry arithmetic.
	DaysPerMonth = 30

	// DefaultMonths is applied when a creation request omits months.
	DefaultMonths = 1
)

// KeyRecord is a single issued license key.
type KeyRecord struct {
	ID        int64
	Key       string
	Hwid      *string
	Months    int
	CreatedAt time.Time
	ExpiresAt time.Time
}

// HwidState classifies the hwid column of a record.
type HwidState int

const (
	HwidUnset HwidState = iota
	HwidBypass
	HwidBound
)

// String returns the state name used in logs.
func (s HwidState) String() string {
	switch s {
	case HwidBypass:
		return "bypass"
	case HwidBound:
		return "bound"
	default:
		return "unset"
	}
}

// HwidState reports whether the record is unbound, in bypass mode, or bound
// to a device. NULL and the empty string are both unset.
func (r *KeyRecord) HwidState() HwidState {
	if r.Hwid == nil || *r.Hwid == "" {
		return HwidUnset
	}
	if *r.Hwid == BypassMarker {
		return HwidBypass
	}
	return HwidBound
}

// HwidValue returns the stored hwid or "" when the column is NULL.
func (r *KeyRecord) HwidValue() string {
	if r.Hwid == nil {
		return ""
	}
	return *r.Hwid
}

// NewRecord builds an unsaved record issued at now. Timestamps are truncated
// to microseconds so they survive the text round trip through the store.
func NewRecord(key string, months int, bypass bool, now time.Time) KeyRecord {
	createdAt := now.UTC().Truncate(time.Microsecond)
	rec := KeyRecord{
		Key:       key,
		Months:    months,
		CreatedAt: createdAt,
		ExpiresAt: ComputeExpiry(createdAt, months),
	}
	if bypass {
		marker := BypassMarker
		rec.Hwid = &marker
	}
	return rec
}

// CopyHwid returns an independent copy of an administrative hwid value. nil
// and "" are kept as given; both leave the record unset.
func CopyHwid(hwid *string) *string {
	if hwid == nil {
		return nil
	}
	v := *hwid
	return &v
}

// MaskKey shortens a key for log output.
func MaskKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "****" + key[len(key)-4:]
}
