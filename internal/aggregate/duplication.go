package aggregate

import (
	"encoding/binary"

	"github.com/zeebo/blake3"

	"github.com/debtmap-go/debtmap/internal/model"
)

// DuplicationConfig mirrors spec §6: duplication min_lines and
// min_similarity thresholds.
type DuplicationConfig struct {
	MinLines      int
	MinSimilarity float64
	ShingleSize   int
}

// DefaultDuplicationConfig holds pmat-compatible defaults for
// duplicate detection.
func DefaultDuplicationConfig() DuplicationConfig {
	return DuplicationConfig{MinLines: 6, MinSimilarity: 0.8, ShingleSize: 5}
}

// FileTokens is one file's token stream, line-tagged so a matching
// shingle window can be traced back to a contiguous line range.
type FileTokens struct {
	Path  string
	Lines []LineTokens
}

// LineTokens is the token lexemes belonging to a single source line.
type LineTokens struct {
	Line   int
	Tokens []string
}

// DuplicationReport cites every location a contiguous matching
// sequence was found, per spec §4.9.
type DuplicationReport struct {
	Similarity float64
	Locations  []model.Location
}

// DetectDuplication emits one report for every pair of files with a
// contiguous sequence of >= MinLines lines whose token-shingle Jaccard
// similarity is >= MinSimilarity; the report cites every matching window
// in both files and carries the highest window similarity. Grounded on the shingle-hashing
// idiom of the project's clone detector, simplified here to a direct
// line-window comparison rather than MinHash/LSH candidate filtering.
func DetectDuplication(files []FileTokens, cfg DuplicationConfig) []DuplicationReport {
	var reports []DuplicationReport

	windows := make([][]window, len(files))
	for i, f := range files {
		windows[i] = slidingWindows(f, cfg.MinLines, cfg.ShingleSize)
	}

	for i := 0; i < len(files); i++ {
		for j := i + 1; j < len(files); j++ {
			var locs []model.Location
			best := 0.0
			for _, wi := range windows[i] {
				for _, wj := range windows[j] {
					sim := jaccard(wi.shingles, wj.shingles)
					if sim >= cfg.MinSimilarity {
						if sim > best {
							best = sim
						}
						locs = append(locs,
							model.Location{File: files[i].Path, Line: wi.startLine, EndLine: wi.endLine},
							model.Location{File: files[j].Path, Line: wj.startLine, EndLine: wj.endLine},
						)
					}
				}
			}
			if len(locs) > 0 {
				reports = append(reports, DuplicationReport{Similarity: best, Locations: locs})
			}
		}
	}

	return reports
}

type window struct {
	startLine int
	endLine   int
	shingles  map[uint64]bool
}

// slidingWindows builds every minLines-sized contiguous line window
// and its shingleSize-token shingle set (5 when shingleSize < 1).
func slidingWindows(f FileTokens, minLines, shingleSize int) []window {
	if len(f.Lines) < minLines {
		return nil
	}
	if shingleSize < 1 {
		shingleSize = 5
	}
	var out []window
	for i := 0; i+minLines <= len(f.Lines); i++ {
		var allTokens []string
		for _, l := range f.Lines[i : i+minLines] {
			allTokens = append(allTokens, l.Tokens...)
		}
		out = append(out, window{
			startLine: f.Lines[i].Line,
			endLine:   f.Lines[i+minLines-1].Line,
			shingles:  shingleSet(allTokens, shingleSize),
		})
	}
	return out
}

// shingleSet hashes every k-token shingle with blake3, matching the
// content-hashing idiom used for duplicate detection elsewhere in this
// pipeline.
func shingleSet(tokens []string, k int) map[uint64]bool {
	set := make(map[uint64]bool)
	if len(tokens) < k {
		if len(tokens) == 0 {
			return set
		}
		set[hashTokens(tokens)] = true
		return set
	}
	h := blake3.New()
	for i := 0; i+k <= len(tokens); i++ {
		h.Reset()
		for _, t := range tokens[i : i+k] {
			h.Write([]byte(t))
		}
		sum := h.Sum(nil)
		set[binary.LittleEndian.Uint64(sum[:8])] = true
	}
	return set
}

func hashTokens(tokens []string) uint64 {
	h := blake3.New()
	for _, t := range tokens {
		h.Write([]byte(t))
	}
	sum := h.Sum(nil)
	return binary.LittleEndian.Uint64(sum[:8])
}

func jaccard(a, b map[uint64]bool) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1
	}
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	intersection := 0
	for k := range a {
		if b[k] {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}
