// Package normalizer canonicalizes extracted text before it is segmented and embedded.
package normalizer

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Normalize returns the canonical form of text for the given language hint.
// Arabic text ("ar", "ar-EG", ...) is NFKC-normalized, stripped of diacritics and
// collapsed to single spaces. Everything else only loses NUL and control
// characters, keeping newlines and tabs for the segmenter.
//
// Normalize is idempotent: Normalize(Normalize(s, l), l) == Normalize(s, l).
func Normalize(text, lang string) string {
	if IsArabic(lang) {
		return normalizeArabic(text)
	}
	return stripControl(text)
}

// IsArabic reports whether a language hint selects the Arabic rules.
func IsArabic(lang string) bool {
	lang = strings.ToLower(strings.TrimSpace(lang))
	return lang == "ar" || strings.HasPrefix(lang, "ar-") || strings.HasPrefix(lang, "ar_")
}

func normalizeArabic(text string) string {
	text = norm.NFKC.String(text)
	text = strings.Map(func(r rune) rune {
		if isArabicDiacritic(r) {
			return -1
		}
		return r
	}, text)
	// NFKC may expose new combining sequences once marks are gone; run it once more
	// so a second pass is a no-op.
	text = norm.NFKC.String(text)
	return strings.Join(strings.Fields(text), " ")
}

// isArabicDiacritic matches harakat, tanween, shadda, sukun and related marks
// (U+064B..U+065F) and the superscript alef (U+0670).
func isArabicDiacritic(r rune) bool {
	return (r >= 0x064B && r <= 0x065F) || r == 0x0670
}

func stripControl(text string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r == '\n' || r == '\t':
			return r
		case r == 0 || unicode.IsControl(r):
			return -1
		}
		return r
	}, text)
}
