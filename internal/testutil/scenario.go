// Package testutil provides shared test helpers for golox Go tests.
package testutil

import (
	sterrors "errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// ScenariosDir is the relative path from the module root to the scenario files.
const ScenariosDir = "testdata/scenarios"

// ScenarioFile is one YAML file holding a group of scenarios.
type ScenarioFile struct {
	Scenarios []Scenario `yaml:"scenarios"`
}

// Scenario is an end-to-end program with its expected outcome.
type Scenario struct {
	Name   string          `yaml:"name"`
	Cmd    string          `yaml:"cmd"` // run (default) or check
	Source string          `yaml:"source"`
	Config *ScenarioConfig `yaml:"config,omitempty"`
	Tags   []string        `yaml:"tags,omitempty"`
	Expect ExpectedResult  `yaml:"expect"`

	// File is the path the scenario was loaded from.
	File string `yaml:"-"`
}

// ScenarioConfig overrides configuration for a scenario.
type ScenarioConfig struct {
	Deny         []string `yaml:"deny,omitempty"`
	MaxCallDepth int      `yaml:"maxCallDepth,omitempty"`
}

// ExpectedDiag is a diagnostic the scenario must report.
type ExpectedDiag struct {
	Code    string `yaml:"code"`
	Message string `yaml:"message,omitempty"`
	Line    int    `yaml:"line,omitempty"`
}

// ExpectedResult describes the expected outcome of running a scenario.
type ExpectedResult struct {
	ExitCode       int            `yaml:"exitCode"`
	Stdout         *string        `yaml:"stdout,omitempty"`
	StderrContains string         `yaml:"stderrContains,omitempty"`
	Diagnostics    []ExpectedDiag `yaml:"diagnostics,omitempty"`
}

// LoadScenarioFile decodes one scenario file. Unknown keys are rejected so
// typos in expectations fail loudly.
func LoadScenarioFile(path string) ([]Scenario, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var sf ScenarioFile
	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true)
	if err := decoder.Decode(&sf); err != nil {
		if sterrors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("scenarios: parse %s: %w", path, err)
	}

	seen := make(map[string]bool)
	for i := range sf.Scenarios {
		s := &sf.Scenarios[i]
		s.File = path
		if strings.TrimSpace(s.Name) == "" {
			return nil, fmt.Errorf("scenarios: %s: scenario %d has no name", path, i)
		}
		if seen[s.Name] {
			return nil, fmt.Errorf("scenarios: %s: duplicate scenario %q", path, s.Name)
		}
		seen[s.Name] = true
		if s.Cmd == "" {
			s.Cmd = "run"
		}
		if s.Cmd != "run" && s.Cmd != "check" {
			return nil, fmt.Errorf("scenarios: %s: %s: unsupported cmd %q", path, s.Name, s.Cmd)
		}
	}
	return sf.Scenarios, nil
}

// LoadScenarios loads every *.yaml file under root, in file name order.
func LoadScenarios(root string) ([]Scenario, error) {
	paths, err := filepath.Glob(filepath.Join(root, "*.yaml"))
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)

	var all []Scenario
	for _, path := range paths {
		scenarios, err := LoadScenarioFile(path)
		if err != nil {
			return nil, err
		}
		all = append(all, scenarios...)
	}
	return all, nil
}
