package domain

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// NormalizeText prepares dictionary text for use as a join key:
//   - trims leading/trailing whitespace
//   - applies Unicode NFC composition
//
// Case, width and script (kanji/kana) are preserved: 日本 and にほん are
// different keys.
//
// NFC maps CJK compatibility ideographs (U+F900..U+FAFF) to their unified
// forms, so two source spellings differing only in that way share one key.
func NormalizeText(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}
	return norm.NFC.String(text)
}
