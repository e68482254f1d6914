package harness

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// SuiteResult summarizes a batch of scenario files.
type SuiteResult struct {
	Total    int               `json:"total"`
	Passed   int               `json:"passed"`
	Failed   int               `json:"failed"`
	Failures []ScenarioFailure `json:"failures,omitempty"`
}

// ScenarioFailure is one scenario that did not pass.
type ScenarioFailure struct {
	Path   string   `json:"path"`
	Name   string   `json:"name,omitempty"`
	Errors []string `json:"errors"`
}

// Pass reports whether every scenario passed.
func (s *SuiteResult) Pass() bool { return s.Failed == 0 }

// FindScenarios expands paths: files are kept, directories contribute
// their *.yaml and *.yml files in name order.
func FindScenarios(paths []string) ([]string, error) {
	var out []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("scenario path %s: %w", p, err)
		}
		if !info.IsDir() {
			out = append(out, p)
			continue
		}
		var found []string
		for _, pattern := range []string{"*.yaml", "*.yml"} {
			matches, err := filepath.Glob(filepath.Join(p, pattern))
			if err != nil {
				return nil, err
			}
			found = append(found, matches...)
		}
		sort.Strings(found)
		out = append(out, found...)
	}
	return out, nil
}

// RunFiles loads and runs every scenario file. A file that fails to load
// counts as a failed scenario; only infrastructure failures abort.
func RunFiles(ctx context.Context, paths []string) (*SuiteResult, error) {
	suite := &SuiteResult{}
	for _, path := range paths {
		suite.Total++
		scenario, err := LoadScenario(path)
		if err != nil {
			suite.Failed++
			suite.Failures = append(suite.Failures, ScenarioFailure{Path: path, Errors: []string{err.Error()}})
			continue
		}
		result, err := RunContext(ctx, scenario)
		if err != nil {
			return nil, fmt.Errorf("run %s: %w", path, err)
		}
		if result.Pass {
			suite.Passed++
			continue
		}
		suite.Failed++
		suite.Failures = append(suite.Failures, ScenarioFailure{Path: path, Name: scenario.Name, Errors: result.Errors})
	}
	return suite, nil
}
