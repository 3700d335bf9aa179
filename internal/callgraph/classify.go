package callgraph

import "strings"

// CallerRole is the spec's two-way caller classification result.
type CallerRole int

const (
	Production CallerRole = iota
	Test
)

// ClassifyCaller is a pure function: classify_caller(name-or-path,
// optional call graph) -> {Test, Production}, per spec §4.6. Passing
// a nil graph applies only the path/name heuristics.
func ClassifyCaller(nameOrPath string, g *Graph) CallerRole {
	if g != nil {
		if file, name, ok := parseCallerString(nameOrPath); ok {
			if id, found := g.LookupByFileAndName(file, name); found {
				if g.IsTest(id) || g.IsTestHelper(id) {
					return Test
				}
			}
		}
		if matches := g.ResolveName(bareName(nameOrPath)); len(matches) > 0 {
			for _, m := range matches {
				if g.IsTest(m) {
					return Test
				}
			}
		}
	}

	if looksLikeTestByHeuristic(nameOrPath) {
		return Test
	}
	return Production
}

// parseCallerString tries double-colon (mod::func), then single-colon
// (file:func); a bare name with no separator has no file component.
func parseCallerString(s string) (file, name string, ok bool) {
	if i := strings.LastIndex(s, "::"); i >= 0 {
		return s[:i], s[i+2:], true
	}
	if i := strings.LastIndex(s, ":"); i >= 0 {
		return s[:i], s[i+1:], true
	}
	return "", "", false
}

func bareName(s string) string {
	if i := strings.LastIndex(s, "::"); i >= 0 {
		return s[i+2:]
	}
	if i := strings.LastIndex(s, ":"); i >= 0 {
		return s[i+1:]
	}
	if i := strings.LastIndex(s, "/"); i >= 0 {
		return s[i+1:]
	}
	return s
}

var testPathMarkers = []string{"/tests/", "/test/", "::test::", "::tests::", ":test:", ":tests:"}

var testFilePatterns = []string{"test_", "_test.", "_tests."}

var testNamePrefixes = []string{
	"test_", "tests_", "should_", "it_", "spec_", "verify_",
	"when_", "given_", "mock_", "stub_", "fake_", "fixture_",
}

var testNameSuffixes = []string{"_test", "_tests", "_spec", "_mock", "_stub", "_fixture"}

var testNameInfixes = []string{"_test_", "_spec_", "_assert_", "_expect_", "_setup_", "_teardown_"}

// looksLikeTestByHeuristic applies the ordered fallback heuristics of
// spec §4.6 step 3 when no call graph is available or it yields no
// match.
func looksLikeTestByHeuristic(nameOrPath string) bool {
	lower := strings.ToLower(nameOrPath)

	for _, marker := range testPathMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	if strings.Contains(lower, "/tests/") || strings.HasPrefix(lower, "tests/") {
		return true
	}
	for _, pat := range testFilePatterns {
		if strings.Contains(lower, pat) {
			return true
		}
	}

	name := bareName(nameOrPath)
	lowerName := strings.ToLower(name)
	for _, prefix := range testNamePrefixes {
		if strings.HasPrefix(lowerName, prefix) {
			return true
		}
	}
	for _, suffix := range testNameSuffixes {
		if strings.HasSuffix(lowerName, suffix) {
			return true
		}
	}
	for _, infix := range testNameInfixes {
		if strings.Contains(lowerName, infix) {
			return true
		}
	}
	return false
}
