// Package console reads operator and viewer commands from a line-oriented
// input, as typed at the `quizctl watch` prompt.
package console

import (
	"fmt"
	"strings"

	"github.com/go-andiamo/splitter"
)

// Command is one parsed input line.
type Command struct {
	Name string
	Args []string
}

var spaceSplitter = mustSplitter()

func mustSplitter() splitter.Splitter {
	s, err := splitter.NewSplitter(' ', splitter.DoubleQuotes, splitter.LeftRightDoubleDoubleQuotes)
	if err != nil {
		panic(fmt.Sprintf("console: build splitter: %v", err))
	}
	return s
}

// Parse splits a line into a command and its arguments. Quoted arguments
// may contain spaces: names "Faze Clan" "Team Liquid". The command name is
// lower-cased. An empty line parses to the zero Command.
func Parse(line string) (Command, error) {
	parts, err := spaceSplitter.Split(strings.TrimSpace(line))
	if err != nil {
		return Command{}, fmt.Errorf("parse %q: %w", line, err)
	}

	var words []string
	for _, p := range parts {
		p = unquote(strings.TrimSpace(p))
		if p != "" {
			words = append(words, p)
		}
	}
	if len(words) == 0 {
		return Command{}, nil
	}
	return Command{Name: strings.ToLower(words[0]), Args: words[1:]}, nil
}

func unquote(s string) string {
	for _, q := range [][2]string{{`"`, `"`}, {"“", "”"}} {
		if len(s) >= len(q[0])+len(q[1]) && strings.HasPrefix(s, q[0]) && strings.HasSuffix(s, q[1]) {
			return strings.TrimSpace(s[len(q[0]) : len(s)-len(q[1])])
		}
	}
	return s
}
