package model

import (
	"encoding/json"
	"fmt"
)

// DecodeGame parses and validates a GameState payload against the default
// schema. Schema violations and invariant failures are reported as
// *ValidationError.
func DecodeGame(data []byte) (*GameState, error) {
	schema, err := DefaultSchema()
	if err != nil {
		return nil, err
	}
	return DecodeGameWith(schema, data)
}

// DecodeGameWith is DecodeGame with an explicit schema. A nil schema skips
// the CUE pass; the Go invariant checks always run.
func DecodeGameWith(schema *Schema, data []byte) (*GameState, error) {
	if schema != nil {
		if err := schema.ValidateGame(data); err != nil {
			return nil, err
		}
	}

	var g GameState
	if err := json.Unmarshal(data, &g); err != nil {
		return nil, &ValidationError{Kind: KindGame, Message: fmt.Sprintf("decode: %v", err)}
	}
	if g.History == nil {
		g.History = []HistoryEvent{}
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	return &g, nil
}

// DecodeBracket parses and validates a BracketState payload against the
// default schema.
func DecodeBracket(data []byte) (*BracketState, error) {
	schema, err := DefaultSchema()
	if err != nil {
		return nil, err
	}
	return DecodeBracketWith(schema, data)
}

// DecodeBracketWith is DecodeBracket with an explicit schema. A nil schema
// skips the CUE pass.
func DecodeBracketWith(schema *Schema, data []byte) (*BracketState, error) {
	if schema != nil {
		if err := schema.ValidateBracket(data); err != nil {
			return nil, err
		}
	}

	var b BracketState
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, &ValidationError{Kind: KindBracket, Message: fmt.Sprintf("decode: %v", err)}
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return &b, nil
}
