package scorer

import (
	"bytes"
	"encoding/json"
	"math"
	"testing"

	"github.com/debtmap-go/debtmap/internal/pattern"
)

func floatsClose(a, b, eps float64) bool {
	return math.Abs(a-b) <= eps
}

// TestScore_S1_SimpleUntestedFunction mirrors spec scenario S1.
func TestScore_S1_SimpleUntestedFunction(t *testing.T) {
	coverage := 0.0
	result := Score(Inputs{
		Cyclomatic:       3,
		Cognitive:        5,
		Coverage:         &coverage,
		DependencyFactor: 0,
		Pattern:          pattern.Match{Kind: pattern.ModerateComplexity},
	})

	if !floatsClose(result.Factors.Complexity, 2.4, 1e-9) {
		t.Errorf("f_cx = %v, want 2.4", result.Factors.Complexity)
	}
	if !floatsClose(result.Raw, 12, 1e-9) {
		t.Errorf("raw = %v, want 12", result.Raw)
	}
	if result.TestsNeeded != 3 {
		t.Errorf("tests_needed = %d, want 3", result.TestsNeeded)
	}
}

// TestScore_S2_RepetitiveValidationUsesAdjustedCyclomatic mirrors S2.
func TestScore_S2_RepetitiveValidationUsesAdjustedCyclomatic(t *testing.T) {
	result := Score(Inputs{
		Cyclomatic: 20,
		Cognitive:  25,
		Pattern:    pattern.Match{Kind: pattern.RepetitiveValidation, AdjustedCyclomatic: 10},
	})

	// f_cx at x=(10+25)/2=17.5 -> 6+min((17.5-10)*0.2,4) = 6+1.5=7.5
	if !floatsClose(result.Factors.Complexity, 7.5, 1e-9) {
		t.Errorf("f_cx = %v, want 7.5 (must use adjusted cyclomatic=10)", result.Factors.Complexity)
	}
}

func TestScore_CoverageDampeningBounds(t *testing.T) {
	full := 1.0
	zero := 0.0

	withFull := Score(Inputs{Cyclomatic: 10, Cognitive: 10, Coverage: &full, DependencyFactor: 2})
	withZero := Score(Inputs{Cyclomatic: 10, Cognitive: 10, Coverage: &zero, DependencyFactor: 2})
	noCoverage := Score(Inputs{Cyclomatic: 10, Cognitive: 10, Coverage: nil, DependencyFactor: 2})

	if !floatsClose(withFull.Raw, 0, 1e-9) {
		t.Errorf("base_with_coverage(m_cov=0 via full coverage) should be 0, got %v", withFull.Raw)
	}
	if !floatsClose(withZero.Raw, noCoverage.Raw, 1e-9) {
		t.Errorf("base_with_coverage(m_cov=1) should equal base_no_cov: %v vs %v", withZero.Raw, noCoverage.Raw)
	}
}

func TestScore_TestCodeExemption(t *testing.T) {
	coverage := 0.9
	result := Score(Inputs{Cyclomatic: 10, Cognitive: 10, Coverage: &coverage, IsTest: true})
	if result.Factors.CoverageMult != 0 {
		t.Errorf("test code must have m_cov=0 regardless of coverage, got %v", result.Factors.CoverageMult)
	}
}

func TestScore_NoUpperClamp(t *testing.T) {
	result := Score(Inputs{Cyclomatic: 1000, Cognitive: 5000, DependencyFactor: 10, DebtAdjustment: 1000})
	if result.Normalized < 1000 {
		t.Errorf("expected a very large normalized score, got %v", result.Normalized)
	}
}

func TestTestCountRecommendation_HighTierIsLinearNotSqrt(t *testing.T) {
	// Spec S4: C=33, coverage=0.661 -> tests_needed=12, not the sqrt
	// formula's erroneous 3.
	n, _ := testCountRecommendation(33, 0.661, true)
	if n != 12 {
		t.Errorf("tests_needed = %d, want 12", n)
	}
}

func TestTestCountRecommendation_ExtremeTierAddsPropertyBasedNote(t *testing.T) {
	_, action := testCountRecommendation(80, 0, true)
	if action == "" {
		t.Error("expected a non-empty recommendation for extreme complexity")
	}
}

func TestTestCountRecommendation_FullyCoveredNeedsZero(t *testing.T) {
	n, _ := testCountRecommendation(20, 1.0, true)
	if n != 0 {
		t.Errorf("tests_needed = %d, want 0 for fully covered function", n)
	}
}

func TestPriority_SnakeCase(t *testing.T) {
	tests := []struct {
		p    Priority
		want string
	}{
		{PriorityCritical, "critical"},
		{PriorityHigh, "high"},
		{PriorityMedium, "medium"},
		{PriorityLow, "low"},
	}
	for _, tt := range tests {
		if got := tt.p.SnakeCase(); got != tt.want {
			t.Errorf("%v.SnakeCase() = %q, want %q", tt.p, got, tt.want)
		}
		text, err := tt.p.MarshalText()
		if err != nil {
			t.Fatalf("MarshalText() error = %v", err)
		}
		if string(text) != tt.want {
			t.Errorf("%v.MarshalText() = %q, want %q", tt.p, text, tt.want)
		}
	}
}

// TestFinalScore_JSONRoundTrip is spec §8's FinalScore round-trip
// property: serializing then parsing yields an equal value, with the
// pattern/priority enums surviving as their snake_case strings.
func TestFinalScore_JSONRoundTrip(t *testing.T) {
	coverage := 0.5
	original := Score(Inputs{
		Cyclomatic:       12,
		Cognitive:        20,
		Coverage:         &coverage,
		DependencyFactor: 3,
		Pattern:          pattern.Match{Kind: pattern.HighBranching},
		DebtAdjustment:   1.5,
	})

	encoded, err := json.Marshal(original)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if !bytes.Contains(encoded, []byte(`"pattern":"high_branching"`)) {
		t.Errorf("encoded FinalScore missing snake_case pattern field: %s", encoded)
	}

	var decoded FinalScore
	if err := json.Unmarshal(encoded, &decoded); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if decoded != original {
		t.Errorf("round-trip mismatch: got %+v, want %+v", decoded, original)
	}
}
