// Package diffblock parses SEARCH/REPLACE delimited diff blocks out of
// free-form model responses. A response may contain prose before, after,
// and between blocks; parsing is strictly line-oriented.
package diffblock

import (
	"fmt"
	"strings"
)

const (
	markerSearch  = "<<<<<<< SEARCH"
	markerDivider = "======="
	markerReplace = ">>>>>>> REPLACE"
)

// Block is one parsed search/replace pair.
type Block struct {
	Search  string
	Replace string
}

// ParseResult holds the blocks found in a response, in order of
// appearance, plus warnings for blocks that were discarded.
type ParseResult struct {
	Blocks   []Block
	Warnings []string
}

// Parse scans text for SEARCH/REPLACE blocks. A block starts at a line
// that is exactly the SEARCH marker, its search payload runs until the
// divider line, and its replace payload runs until the REPLACE marker.
// Blocks missing a closing delimiter are discarded whole and reported as
// warnings, never partially applied. Marker lines tolerate trailing
// carriage returns and surrounding spaces only.
func Parse(text string) *ParseResult {
	result := &ParseResult{}
	lines := strings.Split(text, "\n")

	i := 0
	for i < len(lines) {
		if !isMarker(lines[i], markerSearch) {
			i++
			continue
		}
		startLine := i + 1 // 1-based, for warnings
		i++

		var searchLines []string
		foundDivider := false
		for i < len(lines) {
			if isMarker(lines[i], markerSearch) {
				break // next block starts; this one is malformed
			}
			if isMarker(lines[i], markerDivider) {
				foundDivider = true
				i++
				break
			}
			searchLines = append(searchLines, lines[i])
			i++
		}
		if !foundDivider {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("diff block at line %d discarded: missing ======= divider", startLine))
			continue
		}

		var replaceLines []string
		foundReplace := false
		for i < len(lines) {
			if isMarker(lines[i], markerSearch) {
				break // next block starts; this one is malformed
			}
			if isMarker(lines[i], markerReplace) {
				foundReplace = true
				i++
				break
			}
			replaceLines = append(replaceLines, lines[i])
			i++
		}
		if !foundReplace {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("diff block at line %d discarded: missing >>>>>>> REPLACE marker", startLine))
			continue
		}

		result.Blocks = append(result.Blocks, Block{
			Search:  joinPayload(searchLines),
			Replace: joinPayload(replaceLines),
		})
	}

	return result
}

// joinPayload joins payload lines with \n, trimming the single leading and
// trailing empty-line artifacts produced by a newline directly after the
// opening delimiter or directly before the closing one. Interior blank
// lines are preserved.
func joinPayload(lines []string) string {
	if len(lines) > 0 && lines[0] == "" {
		lines = lines[1:]
	}
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return strings.Join(lines, "\n")
}

// isMarker checks whether a line is the given marker, allowing trailing
// \r from CRLF input and incidental surrounding spaces.
func isMarker(line, marker string) bool {
	return strings.TrimSpace(line) == marker
}
