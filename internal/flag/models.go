// Package flag provides feature flag lifecycle management and evaluation.
package flag

import (
	"time"
)

// Flag represents a boolean feature flag.
type Flag struct {
	// ID is the opaque identifier assigned at creation. Immutable.
	ID string

	// Name is the human-facing lookup key. Uniqueness is not enforced;
	// lookups by name return the first match.
	Name string

	// Value is the raw stored flag state.
	Value bool

	// Desc is an optional free-form description.
	Desc *string

	// ExpirationDate, when set, is the instant after which the flag
	// evaluates to disabled regardless of Value. Nil means never expires.
	ExpirationDate *time.Time

	// DateCreated is set once at creation. Immutable.
	DateCreated time.Time
}

// Expired reports whether the flag is expired at the given instant.
// A flag with no expiration date never expires.
func (f *Flag) Expired(now time.Time) bool {
	return f.ExpirationDate != nil && !now.Before(*f.ExpirationDate)
}

// ExpiredNow reports whether the flag is expired at the current time.
// The result is derived on every call, never cached.
func (f *Flag) ExpiredNow() bool {
	return f.Expired(time.Now().UTC())
}

// clone returns a copy of the flag so callers cannot mutate stored state.
func (f *Flag) clone() *Flag {
	c := *f
	if f.Desc != nil {
		desc := *f.Desc
		c.Desc = &desc
	}
	if f.ExpirationDate != nil {
		exp := *f.ExpirationDate
		c.ExpirationDate = &exp
	}
	return &c
}

// FlagUpdate is a merge-patch record for updating a flag. A nil field means
// "leave unchanged"; only non-nil fields are applied to the existing flag.
type FlagUpdate struct {
	Name  *string
	Value *bool
	Desc  *string
}

// ExpirationUnit is the unit of a relative expiration offset.
type ExpirationUnit string

// Supported expiration units.
const (
	UnitMinute ExpirationUnit = "m"
	UnitHour   ExpirationUnit = "h"
	UnitDay    ExpirationUnit = "d"
	UnitWeek   ExpirationUnit = "w"
)

// ExpirationOffset is a relative offset from the current time used to compute
// a new flag's expiration date.
type ExpirationOffset struct {
	Unit  ExpirationUnit
	Value int
}

// DefaultExpiration is the expiration applied when the caller does not
// specify an offset: four weeks from creation.
var DefaultExpiration = ExpirationOffset{Unit: UnitWeek, Value: 4}

// IsZero reports whether the offset was left unset by the caller.
func (o ExpirationOffset) IsZero() bool {
	return o.Unit == "" && o.Value == 0
}

// Valid reports whether the offset uses a supported unit and a positive value.
func (o ExpirationOffset) Valid() bool {
	switch o.Unit {
	case UnitMinute, UnitHour, UnitDay, UnitWeek:
		return o.Value > 0
	default:
		return false
	}
}

// FromNow returns the absolute expiration instant for this offset.
func (o ExpirationOffset) FromNow(now time.Time) time.Time {
	switch o.Unit {
	case UnitMinute:
		return now.Add(time.Duration(o.Value) * time.Minute)
	case UnitHour:
		return now.Add(time.Duration(o.Value) * time.Hour)
	case UnitDay:
		return now.AddDate(0, 0, o.Value)
	case UnitWeek:
		return now.AddDate(0, 0, 7*o.Value)
	default:
		return now
	}
}
