package fetch

import "strings"

const maxFilenameRunes = 100

// CleanFilename makes a probed title safe for the filesystem: invalid
// characters are dropped, whitespace runs collapse to one space, and the
// result is capped at 100 runes.
func CleanFilename(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	lastSpace := false
	for _, r := range name {
		switch r {
		case '<', '>', ':', '"', '/', '\\', '|', '?', '*':
			continue
		}
		if r == ' ' || r == '\t' || r == '\n' || r == '\r' {
			if !lastSpace {
				b.WriteByte(' ')
			}
			lastSpace = true
			continue
		}
		lastSpace = false
		b.WriteRune(r)
	}
	cleaned := strings.TrimSpace(b.String())
	runes := []rune(cleaned)
	if len(runes) > maxFilenameRunes {
		cleaned = strings.TrimSpace(string(runes[:maxFilenameRunes]))
	}
	return cleaned
}
