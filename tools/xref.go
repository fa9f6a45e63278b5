package tools

import (
	"sort"
	"strings"

	"github.com/objectir/objectir/parser"
)

// CrossReference builds, for every method in program, the sorted list
// of distinct call targets it invokes (via call or callvirt), the
// source-level counterpart to the executor's runtime dispatch through
// the standard-library bridge. A method that calls nothing has no entry.
func CrossReference(program *parser.Program) map[string][]string {
	refs := make(map[string][]string)

	for methodName, instructions := range program.Methods {
		seen := make(map[string]bool)
		var targets []string

		for _, raw := range instructions {
			line := strings.TrimSpace(raw)
			opcode := firstToken(line)
			if opcode != "call" && opcode != "callvirt" {
				continue
			}
			m := callTargetRe.FindStringSubmatch(line)
			if m == nil {
				continue
			}
			target := m[1]
			if !seen[target] {
				seen[target] = true
				targets = append(targets, target)
			}
		}

		if len(targets) > 0 {
			sort.Strings(targets)
			refs[methodName] = targets
		}
	}

	return refs
}

// Callers inverts CrossReference: for every call target, the sorted
// list of methods that call it.
func Callers(program *parser.Program) map[string][]string {
	forward := CrossReference(program)
	callers := make(map[string][]string)

	for caller, targets := range forward {
		for _, target := range targets {
			callers[target] = append(callers[target], caller)
		}
	}
	for target := range callers {
		sort.Strings(callers[target])
	}
	return callers
}
