package pipeline

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/debtmap-go/debtmap/internal/dataflow"
	"github.com/debtmap-go/debtmap/pkg/config"
)

func writeTempGoFile(t *testing.T, dir, name, src string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
	return path
}

func TestRun_RanksByNormalizedScoreDescending(t *testing.T) {
	dir := t.TempDir()
	src := `package sample

func Simple(a int) int {
	return a + 1
}

func Complex(a, b, c int) int {
	if a > 0 {
		if b > 0 {
			if c > 0 {
				if a > b {
					if b > c {
						return a
					}
					return b
				}
				return c
			}
		}
	}
	switch a {
	case 1:
		return 1
	case 2:
		return 2
	case 3:
		return 3
	}
	for i := 0; i < a; i++ {
		if i%2 == 0 {
			continue
		}
	}
	return 0
}
`
	path := writeTempGoFile(t, dir, "sample.go", src)

	files, errs := ParseFiles([]string{path})
	if len(errs) != 0 {
		t.Fatalf("unexpected parse errors: %v", errs)
	}
	if len(files) != 1 {
		t.Fatalf("expected 1 parsed file, got %d", len(files))
	}

	result := Run(files, DefaultConfig(), nil, nil)
	if len(result.Items) != 2 {
		t.Fatalf("expected 2 scored items, got %d", len(result.Items))
	}

	// Complex's cyclomatic/cognitive complexity dwarfs Simple's, and
	// neither has coverage data, so Complex must rank first (spec §8
	// monotone-scoring invariant: higher complexity never scores lower).
	top := result.Items[0]
	if top.ID.Name != "Complex" {
		t.Errorf("expected Complex to rank first, got %s (score %.2f)", top.ID.Name, top.Score.Normalized)
	}
	for i := 1; i < len(result.Items); i++ {
		if result.Items[i-1].Score.Normalized < result.Items[i].Score.Normalized {
			t.Errorf("items not sorted descending by normalized score at index %d", i)
		}
	}

	if _, ok := result.Files[path]; !ok {
		t.Errorf("expected a file rollup for %s, got %d rollups", path, len(result.Files))
	}
}

func TestRun_EmptyFileProducesNoItems(t *testing.T) {
	dir := t.TempDir()
	path := writeTempGoFile(t, dir, "empty.go", "package sample\n")

	files, errs := ParseFiles([]string{path})
	if len(errs) != 0 {
		t.Fatalf("unexpected parse errors: %v", errs)
	}

	result := Run(files, DefaultConfig(), nil, nil)
	if len(result.Items) != 0 {
		t.Errorf("expected no scored items for an empty file, got %d", len(result.Items))
	}
}

func TestParseFiles_SkipsUnsupportedExtensionsAsNonFatalErrors(t *testing.T) {
	dir := t.TempDir()
	path := writeTempGoFile(t, dir, "notes.txt", "just some text")

	files, errs := ParseFiles([]string{path})
	if len(files) != 0 {
		t.Errorf("expected no parsed files for an unsupported extension, got %d", len(files))
	}
	if len(errs) != 1 {
		t.Errorf("expected exactly one non-fatal parse error, got %d", len(errs))
	}
}

func TestConfigFrom_NilFallsBackToDefault(t *testing.T) {
	if got, want := ConfigFrom(nil), DefaultConfig(); got != want {
		t.Errorf("ConfigFrom(nil) = %+v, want %+v", got, want)
	}
}

func TestConfigFrom_TranslatesLoadedSettings(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Entropy.NgramN = 7
	cfg.Entropy.CacheSize = 128
	cfg.TaintPolicy.UnknownCallPolicy = "optimistic"
	cfg.GodObject.MaxFileLines = 42
	cfg.TopNDependents = 3

	got := ConfigFrom(cfg)

	if got.Entropy.NgramN != 7 {
		t.Errorf("Entropy.NgramN = %d, want 7", got.Entropy.NgramN)
	}
	if got.EntropyCacheCap != 128 {
		t.Errorf("EntropyCacheCap = %d, want 128", got.EntropyCacheCap)
	}
	if got.TaintPolicy != dataflow.Optimistic {
		t.Errorf("TaintPolicy = %v, want Optimistic", got.TaintPolicy)
	}
	if got.GodObject.MaxFileLines != 42 {
		t.Errorf("GodObject.MaxFileLines = %d, want 42", got.GodObject.MaxFileLines)
	}
	if got.TopNDependents != 3 {
		t.Errorf("TopNDependents = %d, want 3", got.TopNDependents)
	}
}
