// Package scorer computes a FinalScore for a function from its
// metrics, coverage, dependency factor, pattern, and entropy
// dampening (spec §4.8).
package scorer

import (
	"fmt"
	"math"
	"strconv"

	"github.com/debtmap-go/debtmap/internal/pattern"
)

// Priority is the debt-item priority tier used for ranking ties.
type Priority int

const (
	PriorityLow Priority = iota
	PriorityMedium
	PriorityHigh
	PriorityCritical
)

// SnakeCase returns the spec §6 serialization form of the priority
// tier ("critical", "high", "medium", "low").
func (p Priority) SnakeCase() string {
	switch p {
	case PriorityCritical:
		return "critical"
	case PriorityHigh:
		return "high"
	case PriorityMedium:
		return "medium"
	default:
		return "low"
	}
}

// MarshalText implements encoding.TextMarshaler so Priority
// serializes as its snake_case string rather than a bare integer.
func (p Priority) MarshalText() ([]byte, error) {
	return []byte(p.SnakeCase()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler, the inverse of
// MarshalText, so a FinalScore round-trips through JSON/TOON per spec
// §8.
func (p *Priority) UnmarshalText(text []byte) error {
	switch string(text) {
	case "critical":
		*p = PriorityCritical
	case "high":
		*p = PriorityHigh
	case "medium":
		*p = PriorityMedium
	case "low":
		*p = PriorityLow
	default:
		return fmt.Errorf("scorer: unknown priority %q", text)
	}
	return nil
}

// Factors is the breakdown the spec requires FinalScore to expose.
type Factors struct {
	CoverageMult   float64 `json:"coverage_mult"`
	Complexity     float64 `json:"complexity"`
	Dependency     float64 `json:"dependency"`
	DebtAdjustment float64 `json:"debt_adjustment"`
}

// Inputs bundles everything the scorer needs for one function.
type Inputs struct {
	Cyclomatic          uint32
	Cognitive           uint32
	Coverage            *float64 // nil = unknown
	DependencyFactor    float64  // already in [0,10], from internal/coupling
	Pattern             pattern.Match
	EffectiveComplexity float64 // from internal/entropy; 1.0 disables dampening
	EntropyEnabled      bool
	IsTest              bool
	DebtAdjustment      float64 // nonnegative, from higher-level heuristics
}

// FinalScore is the spec's scored output for one function.
type FinalScore struct {
	Raw            float64      `json:"raw"`
	Normalized     float64      `json:"normalized"`
	Factors        Factors      `json:"factors"`
	Pattern        pattern.Kind `json:"pattern"`
	TestsNeeded    int          `json:"tests_needed"`
	Recommendation string       `json:"recommendation"`
}

// Score computes the spec §4.8 multiplicative debt score for one
// function.
func Score(in Inputs) FinalScore {
	mCov := coverageMultiplier(in.Coverage, in.IsTest)

	cyclo := in.Cyclomatic
	if in.Pattern.Kind == pattern.RepetitiveValidation {
		cyclo = in.Pattern.AdjustedCyclomatic
	}

	fcx := complexityFactor(cyclo, in.Cognitive)
	if in.Pattern.Kind != pattern.RepetitiveValidation && in.EntropyEnabled && in.EffectiveComplexity < 1.0 {
		fcx *= in.EffectiveComplexity
	}

	fdep := in.DependencyFactor

	var base float64
	if in.Coverage != nil {
		base = baseNoCoverage(fcx, fdep) * mCov
	} else {
		base = baseNoCoverage(fcx, fdep)
	}

	raw := base + 10*0.25*in.DebtAdjustment
	normalized := math.Max(raw, 0)

	var coverageFrac float64
	if in.Coverage != nil {
		coverageFrac = *in.Coverage
	}
	testsNeeded, recommendation := testCountRecommendation(in.Cyclomatic, coverageFrac, in.Coverage != nil)

	return FinalScore{
		Raw:        raw,
		Normalized: normalized,
		Factors: Factors{
			CoverageMult:   mCov,
			Complexity:     fcx,
			Dependency:     fdep,
			DebtAdjustment: in.DebtAdjustment,
		},
		Pattern:        in.Pattern.Kind,
		TestsNeeded:    testsNeeded,
		Recommendation: recommendation,
	}
}

// coverageMultiplier: 1-coverage if not test code, else 0 (test code
// is maximally dampened regardless of its own coverage).
func coverageMultiplier(coverage *float64, isTest bool) float64 {
	if isTest {
		return 0
	}
	if coverage == nil {
		return 1
	}
	return 1 - *coverage
}

// complexityFactor maps (cyclomatic+cognitive)/2 through the piecewise
// curve of spec §4.8, result in [0,10].
func complexityFactor(cyclomatic, cognitive uint32) float64 {
	x := (float64(cyclomatic) + float64(cognitive)) / 2

	var f float64
	switch {
	case x <= 5:
		f = x * 0.6
	case x <= 10:
		f = 3 + (x-5)*0.6
	default:
		f = 6 + math.Min((x-10)*0.2, 4)
	}

	if f < 0 {
		return 0
	}
	if f > 10 {
		return 10
	}
	return f
}

// baseNoCoverage = 10*(0.5*f_cx + 0.25*f_dep); the remaining 25% is
// reserved for debt_adjustment, added outside by the caller.
func baseNoCoverage(fcx, fdep float64) float64 {
	return 10 * (0.5*fcx + 0.25*fdep)
}

// testCountRecommendation implements the tiered formula of spec
// §4.8, returning the integer test count and a human-readable ACTION
// string whose embedded integer matches it (spec's consistency check).
func testCountRecommendation(cyclomatic uint32, coverage float64, coverageKnown bool) (int, string) {
	c := float64(cyclomatic)

	if coverageKnown && coverage >= 1 {
		return 0, "No additional tests needed; function is fully covered"
	}

	remaining := 1 - coverage
	if !coverageKnown {
		remaining = 1
	}

	switch {
	case cyclomatic <= 10:
		n := int(math.Max(2, math.Ceil(c*remaining)))
		return n, actionString(n)
	case cyclomatic <= 30:
		ideal := math.Sqrt(c)*1.5 + 2
		n := int(math.Ceil(ideal * remaining))
		return n, actionString(n)
	case cyclomatic <= 50:
		n := int(math.Max(3, math.Ceil(c*remaining)))
		return n, actionString(n)
	default:
		n := int(math.Ceil(math.Sqrt(c)*1.5+2)) + 3
		return n, actionStringPropertyBased(n)
	}
}

func actionString(n int) string {
	return "Add " + strconv.Itoa(n) + " tests to cover remaining branches"
}

func actionStringPropertyBased(n int) string {
	return "Add " + strconv.Itoa(n) + " tests; consider property-based testing given extreme complexity"
}
