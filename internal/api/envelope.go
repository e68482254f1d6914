// Package api is the operation boundary: named operations with structured
// inputs, answered with success or failure envelopes.
//
// Errors from the catalog are converted to failure envelopes here and
// nowhere else.
package api

import (
	"github.com/roach88/appstore/internal/apperror"
)

// Composition describes the shape of a success payload.
type Composition string

const (
	CompositionEntity           Composition = "entity"
	CompositionEntityCollection Composition = "entity_collection"
	CompositionValue            Composition = "value"
)

// Response type tags.
const (
	TypeSuccess = "success"
	TypeFailure = "failure"
)

// Metadata accompanies every response.
type Metadata struct {
	Composition Composition `json:"composition,omitempty"`
	RequestID   string      `json:"request_id,omitempty"`
}

// Response is the envelope returned for every dispatched operation.
type Response struct {
	Type     string   `json:"type"`
	Metadata Metadata `json:"metadata"`
	Payload  any      `json:"payload"`
}

// Failure is the payload of a failure envelope. Kind is the boundary class
// (UserError or AppError); Error is the finer classification.
type Failure struct {
	Kind    string            `json:"kind"`
	Error   apperror.Kind     `json:"error"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

// OK reports whether r is a success envelope.
func (r Response) OK() bool { return r.Type == TypeSuccess }

// Success wraps payload in a success envelope.
func Success(payload any, c Composition) Response {
	return Response{Type: TypeSuccess, Metadata: Metadata{Composition: c}, Payload: payload}
}

// Fail converts err into a failure envelope.
func Fail(err error) Response {
	kind := apperror.KindOf(err)
	f := Failure{
		Kind:    apperror.Class(kind),
		Error:   kind,
		Message: err.Error(),
	}
	if e := apperror.As(err); e != nil {
		f.Details = e.Details
		if kind == apperror.AppError || kind == apperror.StorageFailure {
			// Causes of system faults stay in the logs.
			f.Message = e.Message
		}
	}
	return Response{Type: TypeFailure, Payload: f}
}

// FailureOf returns the failure payload of r, if any.
func (r Response) FailureOf() (Failure, bool) {
	f, ok := r.Payload.(Failure)
	return f, ok
}
