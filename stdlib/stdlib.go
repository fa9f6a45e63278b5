// Package stdlib implements the Standard-Library Bridge: resolution of
// dotted ObjectIR call targets (e.g. "System.Console.WriteLine") to
// host-resident Go functions.
//
// The original runtime resolved names by duck-typed attribute traversal
// over dynamically imported modules. A static target has no equivalent
// to Python's importlib, so this bridge replaces that traversal with an
// explicit registry built at construction time: every callable a
// preloaded module offers is registered under its full dotted name up
// front, and Resolve is a map lookup rather than a walk.
package stdlib

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/objectir/objectir/diag"
)

// Callable is the uniform signature every bridged host function has,
// matching the static-target registry shape in the design notes: it
// takes the unwrapped argument payloads and returns a single result (or
// an error, surfaced as a warning by the caller).
type Callable func(args []any) (any, error)

// Module supplies one or more namespaces of callables. Modules register
// themselves with a Bridge at construction time; there is no dynamic
// import step.
type Module interface {
	// Name is the module's own name, used as a namespace if Namespaces
	// returns none.
	Name() string
	// Namespaces lists the namespace names this module exposes. An
	// empty slice means the module's own Name is the sole namespace.
	Namespaces() []string
	// Callables returns every dotted name (rooted at one of this
	// module's namespaces) this module provides, mapped to its
	// implementation.
	Callables() map[string]Callable
}

// Bridge resolves qualified call targets to host callables. It is built
// once from a configured module list and is read-only thereafter.
type Bridge struct {
	registry map[string]Callable
}

// New constructs a Bridge by loading each named module from the
// registry of known modules. A module name that fails to resolve emits
// a warning and is otherwise skipped (spec §4.2, §7: "Parse module
// failure" is a warning, not fatal).
func New(moduleNames []string, sink diag.Sink) *Bridge {
	b := &Bridge{registry: make(map[string]Callable)}
	for _, name := range moduleNames {
		mod, ok := knownModules[name]
		if !ok {
			if sink != nil {
				sink.Warn(diag.Position{Method: "<bridge>", PC: -1}, "could not load standard library module %q", name)
			}
			continue
		}
		b.register(mod)
	}
	return b
}

func (b *Bridge) register(mod Module) {
	for qualified, fn := range mod.Callables() {
		b.registry[qualified] = fn
	}
}

// Resolve looks up a qualified name, returning the callable and whether
// it was found. Segment-by-segment attribute traversal in the original
// design collapses, for a static registry, to a single map lookup on
// the full dotted path.
func (b *Bridge) Resolve(qualifiedName string) (Callable, bool) {
	fn, ok := b.registry[qualifiedName]
	return fn, ok
}

// knownModules is the set of standard library modules the bridge can
// load by name. The default preload list (spec §6.3) contains exactly
// "Generics".
var knownModules = map[string]Module{
	"Generics": newGenericsModule(),
}

// genericsModule provides System.Console.WriteLine and
// System.Console.ReadLine, the only two standard-library functions
// required by name.
type genericsModule struct {
	out *strings.Builder
	in  *bufio.Reader
}

func newGenericsModule() *genericsModule {
	return &genericsModule{out: &strings.Builder{}}
}

func (m *genericsModule) Name() string       { return "Generics" }
func (m *genericsModule) Namespaces() []string { return []string{"System"} }

func (m *genericsModule) Callables() map[string]Callable {
	return map[string]Callable{
		"System.Console.WriteLine": func(args []any) (any, error) {
			if len(args) > 0 {
				fmt.Fprint(m.out, toDisplayString(args[0]))
				m.out.WriteString("\n")
			}
			return nil, nil
		},
		"System.Console.ReadLine": func(args []any) (any, error) {
			if m.in == nil {
				return "", nil
			}
			line, err := m.in.ReadString('\n')
			if err != nil && err != io.EOF {
				return "", err
			}
			return strings.TrimRight(line, "\r\n"), nil
		},
	}
}

// SetInput wires a reader for System.Console.ReadLine, used by an
// embedder that wants interactive input instead of an always-empty
// stream.
func (m *genericsModule) SetInput(r io.Reader) {
	m.in = bufio.NewReader(r)
}

func toDisplayString(v any) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%v", v)
}
