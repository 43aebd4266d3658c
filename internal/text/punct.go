package text

import (
	"strings"
	"unicode"
)

// TranscriptPunctuation is stripped from recognized transcripts before they
// become subtitle text. It holds full-width marks and the ASCII space.
const TranscriptPunctuation = "！？。＂＃＄％＆＇（）＊＋，－／：；＜＝＞＠［＼］＾＿｀｛｜｝～ "

// StripPunctuation removes every rune of TranscriptPunctuation from s.
func StripPunctuation(s string) string {
	if s == "" {
		return ""
	}
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if strings.ContainsRune(TranscriptPunctuation, r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// IsCJKOnly reports whether every non-whitespace rune of s lies in the CJK
// Unified Ideographs block (U+4E00..U+9FFF). Whitespace is ignored so that
// line breaks between utterances do not disqualify a transcript.
func IsCJKOnly(s string) bool {
	for _, r := range s {
		if unicode.IsSpace(r) {
			continue
		}
		if r < 0x4E00 || r > 0x9FFF {
			return false
		}
	}
	return true
}
