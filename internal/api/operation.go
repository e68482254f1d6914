package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/roach88/appstore/internal/apperror"
	"github.com/roach88/appstore/internal/ir"
)

// Handler runs one operation against a decoded input.
type Handler func(ctx context.Context, caller ir.AgentID, input json.RawMessage) (any, error)

// Operation describes one named entry point.
type Operation struct {
	Name        string      `json:"name"`
	Composition Composition `json:"composition"`
	// Caller is true when the operation needs an identified caller.
	Caller  bool    `json:"requires_caller"`
	Summary string  `json:"summary"`
	Handler Handler `json:"-"`
}

// none is the input of operations that take no arguments.
type none struct{}

// handle adapts a typed function into a Handler that decodes its input
// strictly.
func handle[I any, O any](fn func(ctx context.Context, caller ir.AgentID, in I) (O, error)) Handler {
	return func(ctx context.Context, caller ir.AgentID, raw json.RawMessage) (any, error) {
		var in I
		if err := decodeStrict(raw, &in); err != nil {
			return nil, err
		}
		return fn(ctx, caller, in)
	}
}

// decodeStrict decodes raw into v, rejecting unknown fields and trailing
// data. Empty input and null decode to the zero value.
func decodeStrict(raw json.RawMessage, v any) error {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return apperror.Wrap(apperror.UserError, "malformed input", err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return apperror.New(apperror.UserError, "malformed input: trailing data after JSON value")
	}
	return nil
}

func (o Operation) String() string {
	return fmt.Sprintf("%s (%s)", o.Name, o.Composition)
}
