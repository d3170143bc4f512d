package model

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// NormalizeName trims surrounding whitespace and converts a team name to NFC,
// so that visually identical names typed on different keyboards compare equal.
func NormalizeName(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

// ParseTeamNames turns newline-separated input into a list of team names,
// dropping blank lines.
func ParseTeamNames(text string) []string {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	names := make([]string, 0, len(lines))
	for _, line := range lines {
		if name := NormalizeName(line); name != "" {
			names = append(names, name)
		}
	}
	return names
}
