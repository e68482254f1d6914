package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/appstore/internal/ir"
)

// TraceSnapshot is the golden form of a run.
type TraceSnapshot struct {
	ScenarioName string       `json:"scenario_name"`
	Trace        []TraceEvent `json:"trace"`
}

// Snapshot renders the trace of result as canonical JSON.
func Snapshot(name string, result *Result) ([]byte, error) {
	return ir.Canonicalize(TraceSnapshot{ScenarioName: name, Trace: result.Trace})
}

// RunWithGolden executes a scenario and compares its trace with the
// golden file testdata/golden/<name>.golden. Regenerate with:
//
//	go test ./internal/harness -update
//
// opts override the goldie defaults, e.g. the fixture directory.
func RunWithGolden(t *testing.T, scenario *Scenario, opts ...goldie.Option) *Result {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		t.Fatalf("run %s: %v", scenario.Name, err)
	}
	data, err := Snapshot(scenario.Name, result)
	if err != nil {
		t.Fatalf("snapshot %s: %v", scenario.Name, err)
	}

	g := goldie.New(t, append([]goldie.Option{
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	}, opts...)...)
	g.Assert(t, scenario.Name, data)
	return result
}
