package guardian

import (
	"strings"
	"unicode"

	"github.com/forPelevin/gomoji"
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// normalize converts text to the canonical form used for keyword matching:
// invisible characters removed, NFKC-normalized, case-folded, emoji replaced by spaces
// and whitespace collapsed to single spaces.
func normalize(text string) string {
	if text == "" {
		return ""
	}
	res := cleanText(text)
	res = norm.NFKC.String(res)
	res = cases.Fold().String(res)
	if gomoji.ContainsEmoji(res) {
		res = gomoji.ReplaceEmojisWith(res, ' ')
	}
	return strings.Join(strings.Fields(res), " ")
}

// cleanText removes control and format characters from a given text.
// Control whitespace (new lines, tabs) is kept as a plain space to preserve word boundaries.
func cleanText(text string) string {
	var result strings.Builder
	result.Grow(len(text))
	for _, r := range text {
		if unicode.IsSpace(r) {
			result.WriteRune(' ')
			continue
		}
		// skip control and format characters
		if unicode.Is(unicode.Cc, r) || unicode.Is(unicode.Cf, r) {
			continue
		}
		// skip specific ranges of invisible characters
		if (r >= 0x200B && r <= 0x200F) || (r >= 0x2060 && r <= 0x206F) {
			continue
		}
		if r == unicode.ReplacementChar {
			result.WriteRune(' ')
			continue
		}
		result.WriteRune(r)
	}
	return result.String()
}

// isWordRune reports whether r is part of a word for boundary checks.
func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.Is(unicode.Mn, r)
}
