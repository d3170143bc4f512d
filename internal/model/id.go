package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// ID identifies a team or match.
//
// The backend may serialize ids as JSON strings or integers; both decode to
// the same canonical string so that comparisons between a match's team ids
// and a team's id never depend on the wire type.
type ID string

// UnmarshalJSON accepts a JSON string, an integer, or null.
func (id *ID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return fmt.Errorf("id: %w", err)
		}
		*id = ID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("id: %w", err)
	}
	if strings.ContainsAny(n.String(), ".eE") {
		return fmt.Errorf("id: non-integer number %s", n)
	}
	*id = ID(n.String())
	return nil
}

// String returns the canonical form.
func (id ID) String() string {
	return string(id)
}
