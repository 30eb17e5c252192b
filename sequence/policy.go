package sequence

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Sequence types known to the application.
const (
	TypeHospitalID  = "hospital_id"
	TypePatientUHID = "patient_uhid"
	TypeBill        = "bill"
)

// Strategy selects how a policy produces numbers.
type Strategy string

const (
	// StrategySequential draws from the counter store.
	StrategySequential Strategy = "sequential"
	// StrategyRandom draws a random number in [RandomMin, RandomMax] and
	// relies on a uniqueness check. It hides document volume.
	StrategyRandom Strategy = "random"
)

// ScopeMode selects which counter a policy increments.
type ScopeMode string

const (
	ScopeGlobal ScopeMode = "global"
	ScopeClinic ScopeMode = "clinic"
	// ScopeDerived keys the counter by a value derived at allocation time,
	// e.g. the "OC-CGH" base of a hospital ID.
	ScopeDerived ScopeMode = "derived"
)

// Random strategy bounds, six digits.
const (
	RandomMin int64 = 100000
	RandomMax int64 = 999999
)

// Policy describes how identifiers of one type are minted.
type Policy struct {
	Type     string    `yaml:"type"`
	Prefix   string    `yaml:"prefix"`
	Padding  int       `yaml:"padding"`
	Strategy Strategy  `yaml:"strategy"`
	Scope    ScopeMode `yaml:"scope"`
	Retry    bool      `yaml:"retry"`
}

// Validate checks the policy for values the formatter or store would reject.
func (p Policy) Validate() error {
	if p.Type == "" {
		return fmt.Errorf("%w: type is required", ErrInvalidPolicy)
	}
	if p.Padding < 0 || p.Padding > maxPadding {
		return fmt.Errorf("%w: %s padding %d out of range", ErrInvalidPolicy, p.Type, p.Padding)
	}
	switch p.Strategy {
	case StrategySequential, StrategyRandom:
	default:
		return fmt.Errorf("%w: %s strategy %q", ErrInvalidPolicy, p.Type, p.Strategy)
	}
	switch p.Scope {
	case ScopeGlobal, ScopeClinic, ScopeDerived:
	default:
		return fmt.Errorf("%w: %s scope %q", ErrInvalidPolicy, p.Type, p.Scope)
	}
	if p.Type == TypeHospitalID && (p.Scope != ScopeDerived || p.Strategy != StrategySequential) {
		return fmt.Errorf("%w: hospital_id must be sequential with derived scope", ErrInvalidPolicy)
	}
	if p.Type == TypePatientUHID && (p.Scope != ScopeGlobal || p.Strategy != StrategySequential) {
		return fmt.Errorf("%w: patient_uhid must be sequential with global scope", ErrInvalidPolicy)
	}
	return nil
}

// Policies maps sequence type to its policy.
type Policies map[string]Policy

// DefaultPolicies returns the built-in numbering rules:
// OC-<INITIALS>-001, UHID-00001 and BILL-000001 (per clinic).
func DefaultPolicies() Policies {
	return Policies{
		TypeHospitalID: {
			Type:     TypeHospitalID,
			Prefix:   "OC-",
			Padding:  3,
			Strategy: StrategySequential,
			Scope:    ScopeDerived,
			Retry:    true,
		},
		TypePatientUHID: {
			Type:     TypePatientUHID,
			Prefix:   "UHID-",
			Padding:  5,
			Strategy: StrategySequential,
			Scope:    ScopeGlobal,
		},
		TypeBill: {
			Type:     TypeBill,
			Prefix:   "BILL-",
			Padding:  6,
			Strategy: StrategySequential,
			Scope:    ScopeClinic,
			Retry:    true,
		},
	}
}

// policyOverride is one entry of the policy file. Nil fields keep the
// default, so retry can be switched off and padding set to zero.
type policyOverride struct {
	Type     string    `yaml:"type"`
	Prefix   *string   `yaml:"prefix"`
	Padding  *int      `yaml:"padding"`
	Strategy Strategy  `yaml:"strategy"`
	Scope    ScopeMode `yaml:"scope"`
	Retry    *bool     `yaml:"retry"`
}

type policyFile struct {
	Policies []policyOverride `yaml:"policies"`
}

// LoadPolicies reads overrides from a YAML file on top of the defaults.
// An empty path returns the defaults. Fields left empty in the file keep
// their default values.
//
//	policies:
//	  - type: bill
//	    strategy: random
//	    prefix: INV-
func LoadPolicies(path string) (Policies, error) {
	policies := DefaultPolicies()
	if path == "" {
		return policies, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read numbering policy file: %w", err)
	}
	return mergePolicies(policies, data)
}

func mergePolicies(policies Policies, data []byte) (Policies, error) {
	var file policyFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse numbering policy file: %w", err)
	}

	for _, override := range file.Policies {
		merged, ok := policies[override.Type]
		if !ok {
			merged = Policy{Type: override.Type, Strategy: StrategySequential, Scope: ScopeGlobal}
		}
		if override.Prefix != nil {
			merged.Prefix = *override.Prefix
		}
		if override.Padding != nil {
			merged.Padding = *override.Padding
		}
		if override.Strategy != "" {
			merged.Strategy = override.Strategy
		}
		if override.Scope != "" {
			merged.Scope = override.Scope
		}
		if override.Retry != nil {
			merged.Retry = *override.Retry
		}
		if err := merged.Validate(); err != nil {
			return nil, err
		}
		policies[merged.Type] = merged
	}
	return policies, nil
}

// Get returns the policy for typ.
func (p Policies) Get(typ string) (Policy, error) {
	policy, ok := p[typ]
	if !ok {
		return Policy{}, fmt.Errorf("%w: %s", ErrUnknownType, typ)
	}
	return policy, nil
}
