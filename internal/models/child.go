package models

import "time"

// Child represents a child profile owned by exactly one parent.
//
// The PIN credential lives directly on the row: PinHash is nil until a
// parent configures a PIN, FailedAttempts and LockedUntil track the lockout
// state. Points is the authoritative balance, mutated only by relative
// increments inside the completion transaction and by the explicit parent
// override; it is allowed to go negative so it always matches the sum of
// the audit log.
type Child struct {
	ID             int64
	ParentID       int64
	Name           string
	BirthDate      string // YYYY-MM-DD, empty when unknown
	Gender         string
	AvatarURL      string
	PinHash        *string
	FailedAttempts int
	LockedUntil    *time.Time
	LastLogin      *time.Time
	Points         int
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// HasPin reports whether a PIN credential is configured
func (c *Child) HasPin() bool {
	return c.PinHash != nil && *c.PinHash != ""
}

// IsLocked reports whether the PIN credential is locked at the given time
func (c *Child) IsLocked(now time.Time) bool {
	return c.LockedUntil != nil && c.LockedUntil.After(now)
}

// Age returns the child's age in whole years at the given time, derived
// from BirthDate. Returns 0 when the birth date is missing or malformed.
func (c *Child) Age(now time.Time) int {
	if c.BirthDate == "" {
		return 0
	}
	birth, err := time.Parse("2006-01-02", c.BirthDate)
	if err != nil {
		return 0
	}
	years := now.Year() - birth.Year()
	if now.YearDay() < birth.YearDay() {
		years--
	}
	if years < 0 {
		return 0
	}
	return years
}

// ChildSummary is the public view of a child used by the kid-login picker.
// It deliberately excludes the PIN hash and lock state.
type ChildSummary struct {
	ID        int64
	Name      string
	AvatarURL string
	HasPinSet bool
}
