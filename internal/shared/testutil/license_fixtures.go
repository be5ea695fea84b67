package testutil

import (
	"sync"
	"time"

	"keygate/internal/license"
)

// FixtureNow is the reference instant used by key fixtures.
var FixtureNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

// Clock is a settable clock for tests. Its Now method satisfies
// license.Clock.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

// NewClock returns a clock frozen at now
func NewClock(now time.Time) *Clock {
	return &Clock{now: now}
}

// Now returns the current fake time
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// Set moves the clock to t
func (c *Clock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

// KeyFixtures builds records relative to a reference instant.
type KeyFixtures struct {
	Now time.Time
}

// NewKeyFixtures creates fixtures anchored at FixtureNow
func NewKeyFixtures() *KeyFixtures {
	return &KeyFixtures{Now: FixtureNow}
}

// Unbound returns a live key with no hwid
func (f *KeyFixtures) Unbound(key string) license.KeyRecord {
	return license.NewRecord(key, 1, false, f.Now)
}

// Bypass returns a live key in bypass mode
func (f *KeyFixtures) Bypass(key string) license.KeyRecord {
	return license.NewRecord(key, 1, true, f.Now)
}

// Bound returns a live key bound to hwid
func (f *KeyFixtures) Bound(key, hwid string) license.KeyRecord {
	rec := license.NewRecord(key, 1, false, f.Now)
	rec.Hwid = &hwid
	return rec
}

// Expired returns a key that expired one day before the reference instant
func (f *KeyFixtures) Expired(key string) license.KeyRecord {
	return license.NewRecord(key, 1, false, f.Now.Add(-(license.DaysPerMonth+1)*24*time.Hour))
}

// ExpiringAt returns a key whose expiry is exactly at
func (f *KeyFixtures) ExpiringAt(key string, at time.Time) license.KeyRecord {
	return license.NewRecord(key, 0, false, at)
}
