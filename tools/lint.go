package tools

import (
	"regexp"
	"strings"

	"github.com/objectir/objectir/diag"
	"github.com/objectir/objectir/parser"
)

// knownOpcodes lists every non-structural opcode the executor
// dispatches (exec/opcodes.go's executeInstruction switch). Anything
// else that isn't a structural keyword is reported as unknown.
var knownOpcodes = map[string]bool{
	"ldstr": true, "ldc.i4": true, "ldc.i8": true, "ldc.r8": true,
	"ldnull": true, "ldc.b.0": true, "ldfalse": true, "ldc.b.1": true, "ldtrue": true,
	"ldloc": true, "ldarg": true, "ldcon": true,
	"stloc": true, "starg": true, "local": true,
	"add": true, "sub": true, "mul": true, "div": true, "rem": true, "neg": true,
	"ceq": true, "cne": true, "cgt": true, "clt": true, "cge": true, "cle": true,
	"dup": true, "pop": true, "nop": true, "throw": true,
	"call": true, "callvirt": true, "ret": true,
}

var structuralPrefixes = []string{"if", "while"}

func isStructural(opcode, line string) bool {
	if opcode == "}" || opcode == "else" || opcode == "break" || opcode == "continue" {
		return true
	}
	for _, p := range structuralPrefixes {
		if strings.HasPrefix(opcode, p) {
			return true
		}
	}
	return strings.HasPrefix(line, "} else")
}

var callTargetRe = regexp.MustCompile(`(?:call|callvirt)\s+([\w.]+)\s*\(`)

// Lint statically analyzes program, flagging unknown opcodes, unbalanced
// structural braces, and calls to unqualified names that resolve to no
// known method, before a single instruction is executed. It surfaces the
// parser's best-effort partial structure as actionable diagnostics
// rather than letting a malformed method fail silently at run time.
func Lint(program *parser.Program) []diag.Warning {
	var warnings []diag.Warning

	for methodName, instructions := range program.Methods {
		depth := 0
		for pc, raw := range instructions {
			line := strings.TrimSpace(raw)
			if line == "" {
				continue
			}
			opcode := firstToken(line)
			pos := diag.Position{Method: methodName, PC: pc}

			depth += strings.Count(line, "{") - strings.Count(line, "}")
			if depth < 0 {
				warnings = append(warnings, diag.Warning{
					Pos:     pos,
					Message: "unbalanced closing brace",
				})
				depth = 0
			}

			if isStructural(opcode, line) {
				continue
			}

			if !knownOpcodes[opcode] {
				warnings = append(warnings, diag.Warning{
					Pos:     pos,
					Message: "unknown opcode " + quote(opcode),
				})
				continue
			}

			if opcode == "call" || opcode == "callvirt" {
				if m := callTargetRe.FindStringSubmatch(line); m != nil {
					target := m[1]
					if !strings.Contains(target, ".") {
						if _, ok := program.Methods[target]; !ok {
							warnings = append(warnings, diag.Warning{
								Pos:     pos,
								Message: "call to unqualified name " + quote(target) + " has no matching method",
							})
						}
					}
				}
			}

			if opcode == "ret" && pc != len(instructions)-1 {
				next := strings.TrimSpace(instructions[pc+1])
				if next != "}" {
					warnings = append(warnings, diag.Warning{
						Pos:     pos,
						Message: "unreachable code after ret",
					})
				}
			}
		}

		if depth != 0 {
			warnings = append(warnings, diag.Warning{
				Pos:     diag.Position{Method: methodName, PC: -1},
				Message: "method body ends with unbalanced braces",
			})
		}
	}

	for className, class := range program.Classes {
		if len(class.Methods) == 0 {
			warnings = append(warnings, diag.Warning{
				Pos:     diag.Position{Method: className, PC: -1},
				Message: "class " + quote(className) + " declares no methods",
			})
		}
	}
	for moduleName, module := range program.Modules {
		if len(module.Classes) == 0 {
			warnings = append(warnings, diag.Warning{
				Pos:     diag.Position{Method: moduleName, PC: -1},
				Message: "module " + quote(moduleName) + " declares no classes",
			})
		}
	}

	return warnings
}

func firstToken(line string) string {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

func quote(s string) string {
	return "\"" + s + "\""
}
