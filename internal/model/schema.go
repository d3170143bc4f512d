package model

import (
	_ "embed"
	"fmt"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
)

//go:embed schema.cue
var schemaSource string

// Schema validates raw payloads against the CUE definitions in schema.cue.
//
// Thread-safety: a cue.Context is not safe for concurrent use, so every
// validation holds the schema mutex.
type Schema struct {
	mu      sync.Mutex
	ctx     *cue.Context
	game    cue.Value
	bracket cue.Value
}

var (
	defaultSchemaOnce sync.Once
	defaultSchema     *Schema
	defaultSchemaErr  error
)

// CompileSchema compiles the embedded payload schema.
func CompileSchema() (*Schema, error) {
	ctx := cuecontext.New()
	v := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := v.Err(); err != nil {
		return nil, fmt.Errorf("compile payload schema: %w", err)
	}

	s := &Schema{ctx: ctx}
	for name, dst := range map[string]*cue.Value{
		"#GameState":    &s.game,
		"#BracketState": &s.bracket,
	} {
		def := v.LookupPath(cue.ParsePath(name))
		if !def.Exists() {
			return nil, fmt.Errorf("compile payload schema: missing definition %s", name)
		}
		*dst = def
	}
	return s, nil
}

// DefaultSchema returns the process-wide compiled schema.
func DefaultSchema() (*Schema, error) {
	defaultSchemaOnce.Do(func() {
		defaultSchema, defaultSchemaErr = CompileSchema()
	})
	return defaultSchema, defaultSchemaErr
}

// ValidateGame checks a raw GameState payload.
func (s *Schema) ValidateGame(data []byte) error {
	return s.validate(s.game, KindGame, data)
}

// ValidateBracket checks a raw BracketState payload.
func (s *Schema) ValidateBracket(data []byte) error {
	return s.validate(s.bracket, KindBracket, data)
}

func (s *Schema) validate(def cue.Value, kind string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// JSON is a subset of CUE, so the payload compiles directly.
	doc := s.ctx.CompileBytes(data, cue.Filename(kind+".json"))
	if err := doc.Err(); err != nil {
		return &ValidationError{Kind: kind, Message: "malformed JSON: " + firstCUEError(err)}
	}
	if err := def.Unify(doc).Validate(cue.Concrete(true)); err != nil {
		return &ValidationError{Kind: kind, Message: firstCUEError(err)}
	}
	return nil
}

// firstCUEError extracts a single-line description from a CUE error list.
func firstCUEError(err error) string {
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err.Error()
	}
	return errs[0].Error()
}
