package cfg

import "strings"

// staticPurityDB is the exact fully-qualified-name lookup table spec
// §4.3 calls the first resolution step. It covers the stdlib surface
// most likely to appear in a call-classification/taint decision: pure
// string/math helpers versus I/O and mutation sinks.
var staticPurityDB = map[string]CallPurity{
	"strings.ToUpper":     PurityPure,
	"strings.ToLower":     PurityPure,
	"strings.TrimSpace":   PurityPure,
	"strings.Contains":    PurityPure,
	"strings.HasPrefix":   PurityPure,
	"strings.HasSuffix":   PurityPure,
	"strings.Split":       PurityPure,
	"strings.Join":        PurityPure,
	"strings.Replace":     PurityPure,
	"math.Max":            PurityPure,
	"math.Min":            PurityPure,
	"math.Abs":            PurityPure,
	"math.Sqrt":           PurityPure,
	"math.Ceil":           PurityPure,
	"math.Floor":          PurityPure,
	"math.Log":            PurityPure,
	"len":                 PurityPure,
	"cap":                 PurityPure,
	"append":              PurityPure,
	"strconv.Itoa":        PurityPure,
	"strconv.Atoi":        PurityPure,
	"strconv.FormatFloat": PurityPure,
	"fmt.Sprintf":         PurityPure,
	"fmt.Sprint":          PurityPure,
	"fmt.Errorf":          PurityPure,
	"errors.New":          PurityPure,

	"fmt.Println":      PurityImpure,
	"fmt.Printf":       PurityImpure,
	"fmt.Print":        PurityImpure,
	"os.Exit":          PurityImpure,
	"os.Remove":        PurityImpure,
	"os.WriteFile":     PurityImpure,
	"os.ReadFile":      PurityImpure,
	"os.Open":          PurityImpure,
	"os.Create":        PurityImpure,
	"ioutil.WriteFile": PurityImpure,
	"log.Fatal":        PurityImpure,
	"log.Fatalf":       PurityImpure,
	"log.Println":      PurityImpure,
	"panic":            PurityImpure,
}

// impureMethodSuffixes are method-name suffixes that, absent an exact
// database hit, signal a mutating or I/O-performing receiver call
// (spec §4.3 step ii, suffix-based method-name pattern match).
var impureMethodSuffixes = []string{
	"Write", "Save", "Delete", "Set", "Send", "Print", "Close",
	"Remove", "Update", "Insert", "Flush", "Commit", "Exec", "Run",
}

// pureMethodSuffixes are read-only-shaped accessor names.
var pureMethodSuffixes = []string{
	"String", "Len", "Is", "Has", "Get", "Equals", "Compare", "Clone",
}

// LookupPurity resolves a callee name to a CallPurity per spec §4.3:
// (i) exact lookup in the static database, (ii) suffix-based
// method-name pattern match, else Unknown.
func LookupPurity(name string) CallPurity {
	if p, ok := staticPurityDB[name]; ok {
		return p
	}

	bare := name
	if i := strings.LastIndex(bare, "."); i >= 0 {
		bare = bare[i+1:]
	}
	if p, ok := staticPurityDB[bare]; ok {
		return p
	}

	for _, suf := range impureMethodSuffixes {
		if strings.HasSuffix(bare, suf) {
			return PurityImpure
		}
	}
	for _, suf := range pureMethodSuffixes {
		if strings.HasSuffix(bare, suf) {
			return PurityPure
		}
	}
	return PurityUnknown
}
