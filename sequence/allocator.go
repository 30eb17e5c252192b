package sequence

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	defaultRetryAttempts = 3
	defaultRetryDelay    = 25 * time.Millisecond
	randomAttempts       = 10
)

var tracer = otel.Tracer("github.com/ariebrainware/clinic-hms/sequence")

// TakenFunc reports whether a candidate number is already used. It is only
// consulted by the random strategy.
type TakenFunc func(ctx context.Context, number string) (bool, error)

// Config configures an Allocator. Zero values fall back to defaults.
type Config struct {
	Policies      Policies
	Logger        *zerolog.Logger
	RetryAttempts int
	RetryDelay    time.Duration
}

// Allocator mints hospital IDs, patient UHIDs and bill numbers from a
// CounterStore according to per-type policies.
type Allocator struct {
	store    CounterStore
	policies Policies
	logger   zerolog.Logger
	attempts int
	delay    time.Duration
	randInt  func(n int64) int64
}

// NewAllocator returns an Allocator over store.
func NewAllocator(store CounterStore, cfg Config) *Allocator {
	if cfg.Policies == nil {
		cfg.Policies = DefaultPolicies()
	}
	logger := zerolog.Nop()
	if cfg.Logger != nil {
		logger = *cfg.Logger
	}
	if cfg.RetryAttempts <= 0 {
		cfg.RetryAttempts = defaultRetryAttempts
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = defaultRetryDelay
	}
	return &Allocator{
		store:    store,
		policies: cfg.Policies,
		logger:   logger.With().Str("component", "sequence").Logger(),
		attempts: cfg.RetryAttempts,
		delay:    cfg.RetryDelay,
		randInt:  rand.Int64N,
	}
}

// Policy returns the numbering policy for typ.
func (a *Allocator) Policy(typ string) (Policy, error) {
	return a.policies.Get(typ)
}

// HospitalIDBase returns the "OC-<INITIALS>" base a clinic name maps to.
func (a *Allocator) HospitalIDBase(clinicName string) (string, error) {
	policy, err := a.policies.Get(TypeHospitalID)
	if err != nil {
		return "", err
	}
	return policy.Prefix + Initials(clinicName), nil
}

// HospitalID allocates "OC-<INITIALS>-<nnn>" for a clinic name. Clinics
// whose names share initials share one counter.
func (a *Allocator) HospitalID(ctx context.Context, clinicName string) (string, error) {
	policy, err := a.policies.Get(TypeHospitalID)
	if err != nil {
		return "", err
	}
	base := policy.Prefix + Initials(clinicName)
	return a.sequential(ctx, policy, Key{Type: TypeHospitalID, Scope: base}, base+"-")
}

// PatientUHID allocates the next "UHID-<nnnnn>".
func (a *Allocator) PatientUHID(ctx context.Context) (string, error) {
	return a.Allocate(ctx, TypePatientUHID, 0, nil)
}

// BillNumber allocates a bill number for clinicID. taken is consulted only
// when the bill policy uses the random strategy.
func (a *Allocator) BillNumber(ctx context.Context, clinicID uint, taken TakenFunc) (string, error) {
	return a.Allocate(ctx, TypeBill, clinicID, taken)
}

// Allocate mints the next identifier of typ. clinicID selects the counter
// for clinic-scoped policies and is ignored otherwise.
func (a *Allocator) Allocate(ctx context.Context, typ string, clinicID uint, taken TakenFunc) (string, error) {
	policy, err := a.policies.Get(typ)
	if err != nil {
		return "", err
	}

	switch policy.Scope {
	case ScopeDerived:
		return "", fmt.Errorf("%w: %s needs a derived scope", ErrInvalidPolicy, typ)
	case ScopeClinic:
		if clinicID == 0 {
			return "", fmt.Errorf("%w: %s is scoped per clinic", ErrInvalidKey, typ)
		}
	}

	if policy.Strategy == StrategyRandom {
		return a.random(ctx, policy, taken)
	}
	return a.sequential(ctx, policy, a.KeyFor(policy, clinicID), policy.Prefix)
}

// KeyFor returns the counter key a non-derived policy increments.
func (a *Allocator) KeyFor(policy Policy, clinicID uint) Key {
	if policy.Scope == ScopeClinic {
		return ClinicKey(policy.Type, clinicID)
	}
	return GlobalKey(policy.Type)
}

// Current returns the last value issued for key.
func (a *Allocator) Current(ctx context.Context, key Key) (int64, error) {
	return a.store.Current(ctx, key)
}

// AdvanceTo raises the counter for key to at least floor.
func (a *Allocator) AdvanceTo(ctx context.Context, key Key, floor int64) error {
	return a.store.AdvanceTo(ctx, key, floor)
}

func (a *Allocator) sequential(ctx context.Context, policy Policy, key Key, prefix string) (string, error) {
	ctx, span := tracer.Start(ctx, "sequence.allocate", trace.WithAttributes(
		attribute.String("sequence.type", policy.Type),
		attribute.String("sequence.scope", key.Scope),
	))
	defer span.End()

	start := time.Now()
	var value int64
	next := func() error {
		var err error
		value, err = a.store.Next(ctx, key)
		return err
	}

	var err error
	if policy.Retry {
		err = retryWithBackoff(ctx, a.attempts, a.delay, next)
	} else {
		err = next()
	}
	observeAllocation(policy.Type, start, err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "allocation failed")
		a.logger.Error().Err(err).Str("type", policy.Type).Str("scope", key.Scope).Msg("sequence allocation failed")
		return "", err
	}

	id := Format(prefix, value, policy.Padding)
	span.SetAttributes(attribute.String("sequence.id", id))
	a.logger.Debug().Str("type", policy.Type).Str("scope", key.Scope).Int64("value", value).Str("id", id).Msg("sequence allocated")
	return id, nil
}

func (a *Allocator) random(ctx context.Context, policy Policy, taken TakenFunc) (string, error) {
	start := time.Now()
	for attempt := 0; attempt < randomAttempts; attempt++ {
		candidate := Format(policy.Prefix, RandomMin+a.randInt(RandomMax-RandomMin+1), policy.Padding)
		if taken == nil {
			observeAllocation(policy.Type, start, nil)
			return candidate, nil
		}
		used, err := taken(ctx, candidate)
		if err != nil {
			observeAllocation(policy.Type, start, err)
			return "", err
		}
		if !used {
			observeAllocation(policy.Type, start, nil)
			return candidate, nil
		}
		a.logger.Warn().Str("type", policy.Type).Str("candidate", candidate).Msg("random number collision")
	}
	observeAllocation(policy.Type, start, ErrNumberSpaceExhausted)
	return "", ErrNumberSpaceExhausted
}
