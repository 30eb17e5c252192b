package sequence

import (
	"context"
	"fmt"
	"strconv"
)

// Key identifies one counter. An empty Scope is the global counter for Type.
type Key struct {
	Type  string
	Scope string
}

// GlobalKey returns the unscoped key for a sequence type.
func GlobalKey(typ string) Key { return Key{Type: typ} }

// ClinicKey returns a key scoped to a single clinic.
func ClinicKey(typ string, clinicID uint) Key {
	return Key{Type: typ, Scope: strconv.FormatUint(uint64(clinicID), 10)}
}

func (k Key) String() string {
	if k.Scope == "" {
		return fmt.Sprintf("%s/global", k.Type)
	}
	return fmt.Sprintf("%s/%s", k.Type, k.Scope)
}

func (k Key) validate() error {
	if k.Type == "" {
		return ErrInvalidKey
	}
	return nil
}

// CounterStore hands out strictly increasing integers per key. Next must be
// a single atomic upsert-and-increment on the backing store; two concurrent
// callers never observe the same value.
type CounterStore interface {
	// Next increments the counter (creating it at zero first if needed) and
	// returns the new value.
	Next(ctx context.Context, key Key) (int64, error)
	// Current returns the last issued value, or 0 if none was issued yet.
	Current(ctx context.Context, key Key) (int64, error)
	// AdvanceTo raises the counter to at least floor. It never lowers it.
	AdvanceTo(ctx context.Context, key Key, floor int64) error
}
