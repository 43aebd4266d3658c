package text

import "strings"

// EscapeXML escapes a string for use inside SSML element content and
// attribute values.
// Uses a single-pass approach instead of multiple ReplaceAll calls.
func EscapeXML(s string) string {
	if s == "" {
		return ""
	}

	var b strings.Builder
	b.Grow(len(s) + 16)

	for _, r := range s {
		switch r {
		case '&':
			b.WriteString("&amp;")
		case '<':
			b.WriteString("&lt;")
		case '>':
			b.WriteString("&gt;")
		case '"':
			b.WriteString("&quot;")
		case '\'':
			b.WriteString("&apos;")
		default:
			b.WriteRune(r)
		}
	}

	return b.String()
}

// EscapeFilterValue escapes a path for use as an ffmpeg filtergraph option
// value (for example subtitles=<value>). Backslash, colon, quote and the
// graph separators are escaped so the value reaches the filter verbatim.
func EscapeFilterValue(s string) string {
	if s == "" {
		return ""
	}

	var b strings.Builder
	b.Grow(len(s) + 8)

	for _, r := range s {
		switch r {
		case '\\', ':', '\'', '[', ']', ',', ';', '=':
			b.WriteByte('\\')
			b.WriteRune(r)
		default:
			b.WriteRune(r)
		}
	}

	return b.String()
}
