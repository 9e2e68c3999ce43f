package guardian

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/naijacyber/cyberguardian/lib/riskcheck"
)

// keywordRule is a compiled keyword or urgency rule
type keywordRule struct {
	pattern  string // normalized pattern, also used for reporting
	weight   float64
	category riskcheck.Category
	word     bool // word-boundary match
	startsW  bool // pattern starts with a word rune, boundary checked before it
	endsW    bool // pattern ends with a word rune, boundary checked after it
	order    int  // position in the table, ties are broken by it
}

// keywordMatch is a matched rule with the position of its first occurrence in the normalized text
type keywordMatch struct {
	rule *keywordRule
	pos  int
}

func compileKeywords(rules []Rule, category riskcheck.Category, offset int) []keywordRule {
	res := make([]keywordRule, 0, len(rules))
	for i, r := range rules {
		p := normalize(r.Pattern)
		first, _ := utf8.DecodeRuneInString(p)
		last, _ := utf8.DecodeLastRuneInString(p)
		res = append(res, keywordRule{
			pattern:  p,
			weight:   r.Weight,
			category: category,
			word:     r.Match != MatchSubstring,
			startsW:  isWordRune(first),
			endsW:    isWordRune(last),
			order:    offset + i,
		})
	}
	return res
}

// find returns the byte position of the first acceptable occurrence of the rule in text, or -1.
func (r *keywordRule) find(text string) int {
	if !r.word {
		return strings.Index(text, r.pattern)
	}
	from := 0
	for from <= len(text)-len(r.pattern) {
		idx := strings.Index(text[from:], r.pattern)
		if idx < 0 {
			return -1
		}
		start := from + idx
		end := start + len(r.pattern)
		if r.boundaryOK(text, start, end) {
			return start
		}
		// advance by one rune to allow overlapping occurrences
		_, size := utf8.DecodeRuneInString(text[start:])
		from = start + size
	}
	return -1
}

func (r *keywordRule) boundaryOK(text string, start, end int) bool {
	if r.startsW && start > 0 {
		prev, _ := utf8.DecodeLastRuneInString(text[:start])
		if isWordRune(prev) {
			return false
		}
	}
	if r.endsW && end < len(text) {
		next, _ := utf8.DecodeRuneInString(text[end:])
		if isWordRune(next) {
			return false
		}
	}
	return true
}

// matchKeywords checks all rules against the normalized text and returns matches
// ordered by first occurrence, ties broken by table order.
func matchKeywords(rules []keywordRule, text string) []keywordMatch {
	if text == "" {
		return nil
	}
	var res []keywordMatch
	for i := range rules {
		if pos := rules[i].find(text); pos >= 0 {
			res = append(res, keywordMatch{rule: &rules[i], pos: pos})
		}
	}
	sort.SliceStable(res, func(i, j int) bool {
		if res[i].pos != res[j].pos {
			return res[i].pos < res[j].pos
		}
		return res[i].rule.order < res[j].rule.order
	})
	return res
}
