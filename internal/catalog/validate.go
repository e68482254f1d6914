package catalog

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"

	"github.com/roach88/appstore/internal/apperror"
	"github.com/roach88/appstore/internal/ir"
)

//go:embed schema.cue
var schemaSource []byte

// Validator checks payloads against the embedded CUE schema.
//
// A cue.Context is not safe for concurrent use, so Validate serializes
// on mu.
type Validator struct {
	mu   sync.Mutex
	ctx  *cue.Context
	defs map[ir.Kind]cue.Value
}

// NewValidator compiles the payload schema.
func NewValidator() (*Validator, error) {
	ctx := cuecontext.New()
	schema := ctx.CompileBytes(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("compile payload schema: %w", err)
	}

	defs := make(map[ir.Kind]cue.Value, 2)
	for kind, name := range map[ir.Kind]string{
		ir.KindPublisher: "#Publisher",
		ir.KindApp:       "#App",
	} {
		def := schema.LookupPath(cue.ParsePath(name))
		if !def.Exists() {
			return nil, fmt.Errorf("payload schema has no %s definition", name)
		}
		defs[kind] = def
	}
	return &Validator{ctx: ctx, defs: defs}, nil
}

// Validate returns a ValidationError with one detail per violated field,
// keyed by the field's dotted path.
func (v *Validator) Validate(kind ir.Kind, payload any) error {
	def, ok := v.defs[kind]
	if !ok {
		return apperror.Newf(apperror.AppError, "no schema for kind %q", kind)
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return apperror.Wrap(apperror.AppError, "encode payload", err)
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	val := v.ctx.CompileBytes(data, cue.Filename("payload.json"))
	if err := val.Err(); err != nil {
		return apperror.Wrap(apperror.AppError, "load payload", err)
	}
	err = def.Unify(val).Validate(cue.Concrete(true))
	if err == nil {
		return nil
	}

	out := apperror.Newf(apperror.ValidationError, "invalid %s", kind)
	for _, e := range cueerrors.Errors(err) {
		path := strings.Join(e.Path(), ".")
		if path == "" {
			path = string(kind)
		}
		format, args := e.Msg()
		out = out.With(path, fmt.Sprintf(format, args...))
	}
	return out
}
