// Package coupling classifies a function's architectural role from
// its caller/callee counts (spec §4.7) and derives the dependency
// factor the debt scorer consumes.
package coupling

import "math"

// Class is the nine-way coupling classification.
type Class int

const (
	WellTestedCore Class = iota
	StableFoundation
	StableCore
	UnstableHighCoupling
	ArchitecturalHub
	LeafModule
	Isolated
	UtilityModule
	HighlyCoupled
)

func (c Class) String() string {
	switch c {
	case WellTestedCore:
		return "WellTestedCore"
	case StableFoundation:
		return "StableFoundation"
	case StableCore:
		return "StableCore"
	case UnstableHighCoupling:
		return "UnstableHighCoupling"
	case ArchitecturalHub:
		return "ArchitecturalHub"
	case LeafModule:
		return "LeafModule"
	case Isolated:
		return "Isolated"
	case UtilityModule:
		return "UtilityModule"
	default:
		return "HighlyCoupled"
	}
}

// SnakeCase returns the spec §6 serialization form of the
// classification ("well_tested_core", "utility_module", ...),
// matching the original implementation's
// `#[serde(rename_all = "snake_case")]` on this enum.
func (c Class) SnakeCase() string {
	switch c {
	case WellTestedCore:
		return "well_tested_core"
	case StableFoundation:
		return "stable_foundation"
	case StableCore:
		return "stable_core"
	case UnstableHighCoupling:
		return "unstable_high_coupling"
	case ArchitecturalHub:
		return "architectural_hub"
	case LeafModule:
		return "leaf_module"
	case Isolated:
		return "isolated"
	case UtilityModule:
		return "utility_module"
	default:
		return "highly_coupled"
	}
}

// MarshalText implements encoding.TextMarshaler so a Class embedded
// directly in a JSON/TOON payload serializes in its snake_case form.
func (c Class) MarshalText() ([]byte, error) {
	return []byte(c.SnakeCase()), nil
}

// Multiplier returns the class's fixed score multiplier (spec §4.7).
func (c Class) Multiplier() float64 {
	switch c {
	case WellTestedCore:
		return 0.2
	case StableFoundation:
		return 0.5
	case StableCore:
		return 0.6
	case LeafModule:
		return 0.8
	case Isolated:
		return 0.9
	case UtilityModule:
		return 1.0
	case ArchitecturalHub:
		return 1.0
	case HighlyCoupled:
		return 1.2
	case UnstableHighCoupling:
		return 1.5
	default:
		return 1.0
	}
}

// Inputs are the raw counts the classifier needs.
type Inputs struct {
	ProductionCallers int
	TestCallers       int
	Callees           int
}

// Derived holds the values computed from Inputs before classification.
type Derived struct {
	Incoming    int
	Instability float64
	TestRatio   float64
}

// Derive computes instability and test_ratio, both 0 when their
// denominator is 0.
func Derive(in Inputs) Derived {
	incoming := in.ProductionCallers + in.TestCallers

	var instability float64
	if denom := incoming + in.Callees; denom > 0 {
		instability = float64(in.Callees) / float64(denom)
	}

	var testRatio float64
	if incoming > 0 {
		testRatio = float64(in.TestCallers) / float64(incoming)
	}

	return Derived{Incoming: incoming, Instability: instability, TestRatio: testRatio}
}

// stableThreshold treats instability <=0.35 as "stable", absorbing
// display rounding at 0.30 per spec §4.7.
const stableThreshold = 0.35

// Classify applies the first-match decision tree of spec §4.7.
func Classify(in Inputs) Class {
	d := Derive(in)
	stable := d.Instability <= stableThreshold
	incoming := d.Incoming

	switch {
	case stable && incoming > 5 && d.TestRatio > 0.7:
		return WellTestedCore
	case stable && in.ProductionCallers > 10:
		return StableFoundation
	case stable && incoming > 5:
		return StableCore
	case d.Instability > 0.7 && in.ProductionCallers > 5:
		return UnstableHighCoupling
	case d.Instability > 0.3 && d.Instability < 0.7 && incoming > 10:
		return ArchitecturalHub
	case incoming < 3 && in.Callees > 5:
		return LeafModule
	case incoming < 3 && in.Callees < 3:
		return Isolated
	default:
		return LeafModule
	}
}

// DependencyFactor is the architectural dependency factor of spec
// §4.7: base(prod) × multiplier, where base(prod) = ln(1+prod)/1.5 if
// prod>0 else 0, capped at 10.
func DependencyFactor(in Inputs, class Class) float64 {
	base := 0.0
	if in.ProductionCallers > 0 {
		base = math.Log(1+float64(in.ProductionCallers)) / 1.5
	}
	factor := base * class.Multiplier()
	if factor > 10 {
		return 10
	}
	return factor
}
