// Package pattern classifies a function's complexity shape into one
// of eight tagged patterns (spec §4.4), each carrying the fields that
// discriminate its own refactoring advice.
package pattern

import (
	"fmt"
	"math"

	"github.com/debtmap-go/debtmap/internal/entropy"
	"github.com/debtmap-go/debtmap/internal/model"
)

// Kind tags a ComplexityPattern variant.
type Kind int

const (
	RepetitiveValidation Kind = iota
	StateMachine
	Coordinator
	ChaoticStructure
	HighNesting
	HighBranching
	MixedComplexity
	ModerateComplexity
)

func (k Kind) String() string {
	switch k {
	case RepetitiveValidation:
		return "RepetitiveValidation"
	case StateMachine:
		return "StateMachine"
	case Coordinator:
		return "Coordinator"
	case ChaoticStructure:
		return "ChaoticStructure"
	case HighNesting:
		return "HighNesting"
	case HighBranching:
		return "HighBranching"
	case MixedComplexity:
		return "MixedComplexity"
	default:
		return "ModerateComplexity"
	}
}

// SnakeCase returns the spec §6 serialization form of the pattern
// ("repetitive_validation", "state_machine", ...).
func (k Kind) SnakeCase() string {
	switch k {
	case RepetitiveValidation:
		return "repetitive_validation"
	case StateMachine:
		return "state_machine"
	case Coordinator:
		return "coordinator"
	case ChaoticStructure:
		return "chaotic_structure"
	case HighNesting:
		return "high_nesting"
	case HighBranching:
		return "high_branching"
	case MixedComplexity:
		return "mixed_complexity"
	default:
		return "moderate_complexity"
	}
}

// MarshalText implements encoding.TextMarshaler so Kind serializes as
// its snake_case string rather than a bare integer.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.SnakeCase()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler, the inverse of
// MarshalText, so a FinalScore round-trips through JSON/TOON per spec
// §8.
func (k *Kind) UnmarshalText(text []byte) error {
	switch string(text) {
	case "repetitive_validation":
		*k = RepetitiveValidation
	case "state_machine":
		*k = StateMachine
	case "coordinator":
		*k = Coordinator
	case "chaotic_structure":
		*k = ChaoticStructure
	case "high_nesting":
		*k = HighNesting
	case "high_branching":
		*k = HighBranching
	case "mixed_complexity":
		*k = MixedComplexity
	case "moderate_complexity":
		*k = ModerateComplexity
	default:
		return fmt.Errorf("pattern: unknown kind %q", text)
	}
	return nil
}

// Match is the classifier's output: the discriminant plus the
// adjusted cyclomatic complexity RepetitiveValidation substitutes into
// scoring (the only place cyclomatic is reduced numerically).
type Match struct {
	Kind               Kind
	AdjustedCyclomatic uint32 // meaningful only for RepetitiveValidation
}

// Classify applies the ordered rules of spec §4.4; the first match
// wins. Division by zero (cognitive/cyclomatic ratio) is guarded with
// max(cyclomatic, 1).
func Classify(m model.FunctionMetrics, signals model.PatternSignals, sc entropy.Score) Match {
	cyclo := m.Cyclomatic
	cognitive := m.Cognitive
	denom := cyclo
	if denom == 0 {
		denom = 1
	}
	ratio := float64(cognitive) / float64(denom)

	earlyReturnRatio := signals.EarlyReturnRatio()

	if sc.TokenEntropy < 0.35 && cyclo >= 10 && earlyReturnRatio >= 0.6 && signals.StructuralSimilarity >= 0.7 {
		return Match{Kind: RepetitiveValidation, AdjustedCyclomatic: adjustedCyclomatic(cyclo, sc.TokenEntropy)}
	}
	if signals.StateMachineConfidence >= 0.7 && cyclo >= 6 && cognitive >= 12 {
		return Match{Kind: StateMachine}
	}
	if signals.CoordinatorConfidence >= 0.7 && signals.CoordinatorActions >= 3 && signals.CoordinatorComparisons >= 2 {
		return Match{Kind: Coordinator}
	}
	if sc.TokenEntropy >= 0.45 {
		return Match{Kind: ChaoticStructure}
	}
	if ratio > 3.0 && m.Nesting >= 4 {
		return Match{Kind: HighNesting}
	}
	if cyclo >= 15 && ratio < 2.5 {
		return Match{Kind: HighBranching}
	}
	if cyclo >= 12 && cognitive >= 40 && ratio >= 2.5 && ratio <= 3.5 {
		return Match{Kind: MixedComplexity}
	}
	return Match{Kind: ModerateComplexity}
}

// adjustedCyclomatic = ceil(raw * f(entropy)), f defined piecewise per
// spec §4.4.1.
func adjustedCyclomatic(raw uint32, tokenEntropy float64) uint32 {
	var f float64
	switch {
	case tokenEntropy < 0.25:
		f = 0.4
	case tokenEntropy < 0.30:
		f = 0.5
	default:
		f = 0.6
	}
	return uint32(math.Ceil(float64(raw) * f))
}
