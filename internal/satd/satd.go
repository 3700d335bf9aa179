// Package satd scans source text for self-admitted technical debt
// markers (TODO, FIXME, HACK, XXX) and counts them per file; the CLI
// turns those counts into the debt_adjustment scalar the scorer blends
// into its final score.
package satd

import (
	"bufio"
	"os"
	"regexp"
)

var markerPattern = regexp.MustCompile(`(?i)\b(TODO|FIXME|HACK|XXX)\b`)

// CountByFile scans each file for SATD markers and returns a per-file
// marker count. Files that can't be read are skipped rather than failing
// the whole scan, since the caller is looking for a weak debt signal, not
// validating the input set.
func CountByFile(files []string) map[string]int {
	counts := make(map[string]int, len(files))
	for _, path := range files {
		n := countMarkers(path)
		if n > 0 {
			counts[path] = n
		}
	}
	return counts
}

func countMarkers(path string) int {
	f, err := os.Open(path)
	if err != nil {
		return 0
	}
	defer f.Close()

	count := 0
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		count += len(markerPattern.FindAllString(scanner.Text(), -1))
	}
	return count
}
