// Package loader ties parsing, the standard-library bridge, and the
// executor together: given a source path (or text) and a configuration,
// it produces a ready-to-run Executor.
package loader

import (
	"fmt"
	"os"

	"github.com/objectir/objectir/config"
	"github.com/objectir/objectir/diag"
	"github.com/objectir/objectir/exec"
	"github.com/objectir/objectir/parser"
	"github.com/objectir/objectir/stdlib"
)

// Result bundles everything produced by a successful load: the parsed
// program, the executor ready to run it, and whatever warnings the
// bridge collected while preloading modules.
type Result struct {
	Program  *parser.Program
	Executor *exec.Executor
	Warnings *diag.List
}

// LoadFile reads path and parses it as ObjectIR source, wiring a
// standard-library bridge from cfg.Stdlib.PreloadModules and an
// Executor over the result.
func LoadFile(path string, cfg *config.Config) (*Result, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- caller-provided program path
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return Load(string(data), cfg)
}

// Load parses source text directly, for callers that already have the
// program text in hand (e.g. the HTTP execution service).
func Load(source string, cfg *config.Config) (*Result, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	warnings := &diag.List{}
	program := parser.Parse(source)
	bridge := stdlib.New(cfg.Stdlib.PreloadModules, warnings)
	executor := exec.New(program, bridge, warnings)
	executor.SetMaxSteps(cfg.Execution.MaxSteps)

	return &Result{Program: program, Executor: executor, Warnings: warnings}, nil
}
