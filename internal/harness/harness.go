package harness

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/appstore/internal/api"
	"github.com/roach88/appstore/internal/catalog"
	"github.com/roach88/appstore/internal/ir"
	"github.com/roach88/appstore/internal/store"
	"github.com/roach88/appstore/internal/testutil"
)

// Harness executes the steps of one scenario.
type Harness struct {
	dispatcher *api.Dispatcher
	clock      *testutil.DeterministicClock
	logger     *slog.Logger
}

// Run executes a scenario against a fresh in-memory store.
func Run(scenario *Scenario) (*Result, error) {
	return RunContext(context.Background(), scenario)
}

// RunContext is Run with a caller-supplied context. Only infrastructure
// failures are returned as errors; broken expectations, assertions and
// variable references are reported in the Result.
func RunContext(ctx context.Context, scenario *Scenario) (*Result, error) {
	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	clock := testutil.NewDeterministicClock()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc, err := catalog.NewService(st, st,
		catalog.WithClock(clock),
		catalog.WithNonceSource(testutil.NewSequentialIDGenerator("nonce")),
		catalog.WithLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create catalog: %w", err)
	}

	h := &Harness{
		dispatcher: api.NewDispatcher(svc,
			api.WithLogger(logger),
			api.WithIDGenerator(testutil.NewSequentialIDGenerator("req")),
		),
		clock:  clock,
		logger: logger,
	}

	result := NewResult()
	for i, step := range scenario.Steps {
		h.executeStep(ctx, i, step, result)
	}
	for _, msg := range h.evaluateAssertions(ctx, scenario.Assertions, result) {
		result.AddError(msg)
	}
	return result, nil
}

// executeStep dispatches one step, records it and checks its expectation.
func (h *Harness) executeStep(ctx context.Context, i int, step Step, result *Result) {
	fail := func(format string, args ...any) {
		result.AddError(fmt.Sprintf("step %d (%s): ", i, step.Op) + fmt.Sprintf(format, args...))
	}

	input, err := substitute(step.Input, result.Vars)
	if err != nil {
		fail("input: %v", err)
		return
	}
	var raw json.RawMessage
	if input != nil {
		raw, err = json.Marshal(input)
		if err != nil {
			fail("encode input: %v", err)
			return
		}
	}
	if step.At != nil {
		h.clock.Set(*step.At)
	}

	resp := h.dispatcher.Dispatch(ctx, step.Op, ir.AgentID(step.As), raw)

	ev, err := traceEvent(i, step, input, resp)
	if err != nil {
		fail("normalize envelope: %v", err)
		return
	}
	result.AddTrace(ev)
	h.logger.Info("step completed", "step", i, "op", step.Op, "type", ev.Type, "error", ev.Error)

	for _, msg := range checkExpect(step.Expect, ev, result.Vars) {
		fail("%s", msg)
	}

	if ev.Type != OutcomeSuccess {
		if len(step.Save) > 0 {
			fail("cannot save from a failure envelope")
		}
		return
	}
	for name, path := range step.Save {
		v, err := lookup(ev.Payload, path)
		if err != nil {
			fail("save %s: %v", name, err)
			continue
		}
		result.Vars[name] = v
	}
}

func traceEvent(i int, step Step, input any, resp api.Response) (TraceEvent, error) {
	in, err := normalize(input)
	if err != nil {
		return TraceEvent{}, err
	}
	payload, err := normalize(resp.Payload)
	if err != nil {
		return TraceEvent{}, err
	}
	ev := TraceEvent{
		Step:        i,
		Operation:   step.Op,
		As:          step.As,
		Input:       in,
		Type:        resp.Type,
		Composition: string(resp.Metadata.Composition),
		RequestID:   resp.Metadata.RequestID,
		Payload:     payload,
	}
	if f, ok := resp.FailureOf(); ok {
		ev.Error = string(f.Error)
	}
	return ev, nil
}

// checkExpect compares an event to its expectation. A nil expectation
// demands success.
func checkExpect(exp *Expect, ev TraceEvent, vars map[string]any) []string {
	want := &Expect{Type: OutcomeSuccess}
	if exp != nil {
		want = exp
	}
	wantType := want.Type
	if wantType == "" {
		wantType = OutcomeSuccess
	}

	if ev.Type != wantType {
		detail := ""
		if ev.Type == OutcomeFailure {
			detail = fmt.Sprintf(" (%s: %v)", ev.Error, messageOf(ev.Payload))
		}
		return []string{fmt.Sprintf("expected %s, got %s%s", wantType, ev.Type, detail)}
	}

	var errs []string
	if want.Error != "" && ev.Error != want.Error {
		errs = append(errs, fmt.Sprintf("expected error %s, got %s", want.Error, ev.Error))
	}
	if want.Composition != "" && ev.Composition != want.Composition {
		errs = append(errs, fmt.Sprintf("expected composition %s, got %s", want.Composition, ev.Composition))
	}
	if want.Count != nil {
		items, ok := ev.Payload.([]any)
		switch {
		case !ok:
			errs = append(errs, fmt.Sprintf("expected a collection, got %T", ev.Payload))
		case len(items) != *want.Count:
			errs = append(errs, fmt.Sprintf("expected %d items, got %d", *want.Count, len(items)))
		}
	}
	if want.Payload != nil {
		expected, err := substitute(want.Payload, vars)
		if err == nil {
			expected, err = normalize(expected)
		}
		if err != nil {
			errs = append(errs, fmt.Sprintf("expected payload: %v", err))
		} else if !matches(ev.Payload, expected) {
			errs = append(errs, fmt.Sprintf("payload mismatch: expected subset %v, got %v", expected, ev.Payload))
		}
	}
	return errs
}

func messageOf(payload any) any {
	if m, ok := payload.(map[string]any); ok {
		return m["message"]
	}
	return payload
}
