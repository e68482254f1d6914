package harness

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/appstore/internal/ir"
)

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string
	Expected string
	Actual   string
	Trace    []TraceEvent
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)
	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for _, ev := range e.Trace {
			outcome := ev.Type
			if ev.Error != "" {
				outcome += " " + ev.Error
			}
			fmt.Fprintf(&buf, "  [%d] %s as=%q -> %s\n", ev.Step, ev.Operation, ev.As, outcome)
		}
	}
	return buf.String()
}

// assertTraceContains checks that op was dispatched, with the given
// outcome if one is named.
func assertTraceContains(trace []TraceEvent, a Assertion) error {
	for _, ev := range trace {
		if ev.Operation == a.Op && (a.Outcome == "" || ev.Type == a.Outcome) {
			return nil
		}
	}
	want := a.Op
	if a.Outcome != "" {
		want += " with outcome " + a.Outcome
	}
	return &AssertionError{
		Type:     AssertTraceContains,
		Expected: want,
		Actual:   "not found in trace",
		Trace:    trace,
	}
}

// assertTraceOrder checks that the first occurrences of ops appear in
// order. Other operations may come in between.
func assertTraceOrder(trace []TraceEvent, a Assertion) error {
	positions := make(map[string]int)
	for i, ev := range trace {
		if _, seen := positions[ev.Operation]; !seen {
			positions[ev.Operation] = i
		}
	}
	for _, op := range a.Ops {
		if _, ok := positions[op]; !ok {
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: fmt.Sprintf("all operations present: %v", a.Ops),
				Actual:   fmt.Sprintf("missing operation: %s", op),
				Trace:    trace,
			}
		}
	}
	for i := 1; i < len(a.Ops); i++ {
		prev, curr := a.Ops[i-1], a.Ops[i]
		if positions[prev] >= positions[curr] {
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: fmt.Sprintf("operations in order: %v", a.Ops),
				Actual: fmt.Sprintf("%s (step %d) should be before %s (step %d)",
					prev, positions[prev], curr, positions[curr]),
				Trace: trace,
			}
		}
	}
	return nil
}

// assertTraceCount checks that op was dispatched exactly Count times.
func assertTraceCount(trace []TraceEvent, a Assertion) error {
	count := 0
	for _, ev := range trace {
		if ev.Operation == a.Op {
			count++
		}
	}
	if count != *a.Count {
		return &AssertionError{
			Type:     AssertTraceCount,
			Expected: fmt.Sprintf("%d occurrences of %s", *a.Count, a.Op),
			Actual:   fmt.Sprintf("%d occurrences", count),
			Trace:    trace,
		}
	}
	return nil
}

// assertCollection runs a collection query against the final state.
func (h *Harness) assertCollection(ctx context.Context, a Assertion, vars map[string]any) error {
	input, err := substitute(a.Input, vars)
	if err != nil {
		return fmt.Errorf("collection %s: input: %w", a.Op, err)
	}
	var raw json.RawMessage
	if input != nil {
		if raw, err = json.Marshal(input); err != nil {
			return fmt.Errorf("collection %s: encode input: %w", a.Op, err)
		}
	}
	contains, err := substituteStrings(a.Contains, vars)
	if err != nil {
		return fmt.Errorf("collection %s: contains: %w", a.Op, err)
	}
	excludes, err := substituteStrings(a.Excludes, vars)
	if err != nil {
		return fmt.Errorf("collection %s: excludes: %w", a.Op, err)
	}

	resp := h.dispatcher.Dispatch(ctx, a.Op, ir.AgentID(a.As), raw)
	if !resp.OK() {
		f, _ := resp.FailureOf()
		return &AssertionError{
			Type:     AssertCollection,
			Expected: fmt.Sprintf("%s to succeed", a.Op),
			Actual:   fmt.Sprintf("%s: %s", f.Error, f.Message),
		}
	}
	payload, err := normalize(resp.Payload)
	if err != nil {
		return fmt.Errorf("collection %s: %w", a.Op, err)
	}
	ids, err := memberIDs(payload)
	if err != nil {
		return fmt.Errorf("collection %s: %w", a.Op, err)
	}

	if a.Count != nil && len(ids) != *a.Count {
		return &AssertionError{
			Type:     AssertCollection,
			Expected: fmt.Sprintf("%d members in %s", *a.Count, a.Op),
			Actual:   fmt.Sprintf("%d members: %v", len(ids), ids),
		}
	}
	for _, id := range contains {
		if !slices.Contains(ids, id) {
			return &AssertionError{
				Type:     AssertCollection,
				Expected: fmt.Sprintf("%s to contain %s", a.Op, id),
				Actual:   fmt.Sprintf("members: %v", ids),
			}
		}
	}
	for _, id := range excludes {
		if slices.Contains(ids, id) {
			return &AssertionError{
				Type:     AssertCollection,
				Expected: fmt.Sprintf("%s not to contain %s", a.Op, id),
				Actual:   fmt.Sprintf("members: %v", ids),
			}
		}
	}
	return nil
}

// evaluateAssertions returns one message per failed assertion.
func (h *Harness) evaluateAssertions(ctx context.Context, assertions []Assertion, result *Result) []string {
	var errs []string
	for i, a := range assertions {
		var err error
		switch a.Type {
		case AssertTraceContains:
			err = assertTraceContains(result.Trace, a)
		case AssertTraceOrder:
			err = assertTraceOrder(result.Trace, a)
		case AssertTraceCount:
			err = assertTraceCount(result.Trace, a)
		case AssertCollection:
			err = h.assertCollection(ctx, a, result.Vars)
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, a.Type)
		}
		if err != nil {
			errs = append(errs, err.Error())
		}
	}
	return errs
}
