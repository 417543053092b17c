// Package patch applies a parsed search/replace operation against a
// document's field values. Model-generated search text frequently diverges
// from stored content in superficial ways, so matching escalates through a
// fixed series of normalization strategies, stopping at the first success.
// The strategy order is load-bearing: changing precedence changes which
// field matches when more than one could.
package patch

import (
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"

	"innerflame/internal/document"
)

// Strategy identifies which matching stage located the search text.
type Strategy string

const (
	StrategyExact       Strategy = "exact"
	StrategyWhitespace  Strategy = "whitespace"
	StrategyNewline     Strategy = "newline"
	StrategyDigitCommas Strategy = "digit_commas"
	StrategyFieldPrefix Strategy = "field_prefix"
	StrategyFuzzyQuotes Strategy = "fuzzy_quotes"
)

// Result is the outcome of one replace attempt. When Applied is false the
// returned Fields are the input untouched; ClosestField names the nearest
// miss for diagnostics.
type Result struct {
	Fields       *document.Fields
	Applied      bool
	MatchedField string
	Strategy     Strategy
	ClosestField string
}

// ApplyReplace locates the first field (in stored field order) whose value
// contains search under some strategy and replaces the first occurrence
// with the replace payload, normalized the same way as the search text.
// All other fields are left untouched. Normalization exists for matching
// only: bytes outside the matched span keep their stored form, so a
// collapsed space or stripped comma elsewhere in the field never leaks
// into the committed content.
func ApplyReplace(fields *document.Fields, search, replace string) Result {
	for _, strat := range strategies {
		for _, name := range fields.Names() {
			value, _ := fields.Get(name)
			newValue, ok := strat.apply(name, value, search, replace)
			if !ok {
				continue
			}
			patched := fields.Clone()
			patched.Set(name, newValue)
			return Result{
				Fields:       patched,
				Applied:      true,
				MatchedField: name,
				Strategy:     strat.id,
			}
		}
	}

	return Result{
		Fields:       fields,
		Applied:      false,
		ClosestField: closestField(fields, search),
	}
}

type strategy struct {
	id    Strategy
	apply func(field, value, search, replace string) (string, bool)
}

var strategies = []strategy{
	{StrategyExact, matchExact},
	{StrategyWhitespace, matchWhitespace},
	{StrategyNewline, matchNewline},
	{StrategyDigitCommas, matchDigitCommas},
	{StrategyFieldPrefix, matchFieldPrefix},
	{StrategyFuzzyQuotes, matchFuzzyQuotes},
}

// matchExact is a plain substring match.
func matchExact(_, value, search, replace string) (string, bool) {
	if search == "" || !strings.Contains(value, search) {
		return "", false
	}
	return strings.Replace(value, search, replace, 1), true
}

// matchWhitespace collapses runs of spaces and tabs to a single space in
// both the field value and the search text for matching, then splices the
// replacement into the original value.
func matchWhitespace(_, value, search, replace string) (string, bool) {
	ns := collapseSpaces(search)
	if ns == "" {
		return "", false
	}
	nv, offsets := collapseSpacesIndexed(value)
	return spliceMatch(value, nv, offsets, ns, collapseSpaces(replace))
}

// matchNewline converts between literal \n two-character sequences and
// actual newline characters in the search text, in both directions. Model
// output is inconsistent about which representation list separators use.
func matchNewline(_, value, search, replace string) (string, bool) {
	// Literal \n in the search, real newlines in the value.
	s := strings.ReplaceAll(search, `\n`, "\n")
	if s != search && s != "" && strings.Contains(value, s) {
		r := strings.ReplaceAll(replace, `\n`, "\n")
		return strings.Replace(value, s, r, 1), true
	}

	// Real newlines in the search, literal \n in the value.
	s = strings.ReplaceAll(search, "\n", `\n`)
	if s != search && s != "" && strings.Contains(value, s) {
		r := strings.ReplaceAll(replace, "\n", `\n`)
		return strings.Replace(value, s, r, 1), true
	}

	return "", false
}

// matchDigitCommas strips thousands-separator commas inside numeric
// substrings (e.g. $1,000 vs $1000) from both sides before matching.
// Numbers outside the matched span keep their commas.
func matchDigitCommas(_, value, search, replace string) (string, bool) {
	ns := stripDigitCommas(search)
	if ns == "" {
		return "", false
	}
	nv, offsets := stripDigitCommasIndexed(value)
	return spliceMatch(value, nv, offsets, ns, stripDigitCommas(replace))
}

// matchFieldPrefix strips a redundant leading "FieldName": prefix that the
// model sometimes echoes even though the engine already knows the field
// from context, then retries an exact match.
func matchFieldPrefix(field, value, search, replace string) (string, bool) {
	s, ok := stripFieldPrefix(search, field)
	if !ok {
		return "", false
	}
	if s == "" || !strings.Contains(value, s) {
		return "", false
	}
	r, stripped := stripFieldPrefix(replace, field)
	if !stripped {
		r = replace
	}
	return strings.Replace(value, s, r, 1), true
}

// matchFuzzyQuotes collapses whitespace and ignores surrounding quotation
// marks on the search text, then requires a case-sensitive substring match.
func matchFuzzyQuotes(_, value, search, replace string) (string, bool) {
	ns := trimQuotes(collapseSpaces(strings.TrimSpace(search)))
	if ns == "" {
		return "", false
	}
	nv, offsets := collapseSpacesIndexed(value)
	nr := trimQuotes(collapseSpaces(strings.TrimSpace(replace)))
	return spliceMatch(value, nv, offsets, ns, nr)
}

// spliceMatch finds the normalized search text in the normalized value and
// splices the replacement into the original value over the span the match
// maps back to. offsets[i] is the original index of normalized byte i; the
// span end extends to the origin of the next normalized byte so bytes the
// normalization dropped inside the match (extra spaces, separator commas)
// are consumed with it, while everything outside stays byte-for-byte.
func spliceMatch(value, normalized string, offsets []int, search, replace string) (string, bool) {
	pos := strings.Index(normalized, search)
	if pos < 0 {
		return "", false
	}
	start := offsets[pos]
	end := len(value)
	if next := pos + len(search); next < len(normalized) {
		end = offsets[next]
	}
	return value[:start] + replace + value[end:], true
}

// collapseSpaces replaces runs of spaces and tabs with a single space.
// Newlines are left alone; they have their own strategy.
func collapseSpaces(s string) string {
	v, _ := collapseSpacesIndexed(s)
	return v
}

// collapseSpacesIndexed is collapseSpaces plus, for each normalized byte,
// the index of the original byte it came from (the first byte of a run).
func collapseSpacesIndexed(s string) (string, []int) {
	var b strings.Builder
	b.Grow(len(s))
	offsets := make([]int, 0, len(s))
	inRun := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == ' ' || c == '\t' {
			if !inRun {
				b.WriteByte(' ')
				offsets = append(offsets, i)
				inRun = true
			}
			continue
		}
		inRun = false
		b.WriteByte(c)
		offsets = append(offsets, i)
	}
	return b.String(), offsets
}

// stripDigitCommas drops commas that sit between two digits.
func stripDigitCommas(s string) string {
	v, _ := stripDigitCommasIndexed(s)
	return v
}

// stripDigitCommasIndexed is stripDigitCommas plus the original index of
// each kept byte.
func stripDigitCommasIndexed(s string) (string, []int) {
	var b strings.Builder
	b.Grow(len(s))
	offsets := make([]int, 0, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == ',' && i > 0 && i+1 < len(s) && isDigit(s[i-1]) && isDigit(s[i+1]) {
			continue
		}
		b.WriteByte(c)
		offsets = append(offsets, i)
	}
	return b.String(), offsets
}

// stripFieldPrefix removes a leading `"Field":` (or unquoted `Field:`)
// echo of the field name. Returns the remainder and whether a prefix was
// actually found.
func stripFieldPrefix(s, field string) (string, bool) {
	trimmed := strings.TrimSpace(s)
	for _, prefix := range []string{`"` + field + `":`, field + `:`} {
		if strings.HasPrefix(trimmed, prefix) {
			return strings.TrimSpace(trimmed[len(prefix):]), true
		}
	}
	return "", false
}

// trimQuotes removes matching or stray quotation marks from both ends.
func trimQuotes(s string) string {
	return strings.Trim(s, `"'`)
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

// closestField reports the field whose value is most similar to the
// search text, for "could not apply edit" diagnostics. Uses Levenshtein
// distance over the diff between the two strings.
func closestField(fields *document.Fields, search string) string {
	if search == "" || fields.Len() == 0 {
		return ""
	}
	dmp := diffmatchpatch.New()
	best := ""
	bestScore := 0.0
	for _, name := range fields.Names() {
		value, _ := fields.Get(name)
		if value == "" {
			continue
		}
		diffs := dmp.DiffMain(value, search, false)
		distance := dmp.DiffLevenshtein(diffs)
		maxLen := len(value)
		if len(search) > maxLen {
			maxLen = len(search)
		}
		score := 1.0 - float64(distance)/float64(maxLen)
		if score > bestScore {
			bestScore = score
			best = name
		}
	}
	return best
}
