// Package exec implements the instruction dispatcher: opcode execution,
// the structured control-flow driver (if/else/while/break/continue) laid
// over a linear instruction list, call dispatch into the standard
// library bridge, and condition evaluation for if/while headers.
package exec

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/objectir/objectir/diag"
	"github.com/objectir/objectir/frame"
	"github.com/objectir/objectir/parser"
	"github.com/objectir/objectir/stdlib"
	"github.com/objectir/objectir/value"
)

// Executor runs method instruction lists against frames it creates. One
// Executor is bound to one parsed Program and one Bridge; console output
// accumulates across every Execute call made against it, mirroring the
// single captured-output buffer of the reference runtime.
type Executor struct {
	program *parser.Program
	bridge  *stdlib.Bridge
	sink    diag.Sink

	console []string

	maxSteps uint64
	steps    uint64
}

// New builds an Executor over a parsed program, dispatching calls
// through bridge and routing non-fatal diagnostics to sink.
func New(program *parser.Program, bridge *stdlib.Bridge, sink diag.Sink) *Executor {
	return &Executor{program: program, bridge: bridge, sink: sink}
}

// SetMaxSteps caps the total number of instructions this Executor will
// dispatch across every Step call, guarding against a runaway while
// loop the way the configured step budget is meant to (spec's
// [execution] max_steps). Zero means unlimited.
func (e *Executor) SetMaxSteps(n uint64) {
	e.maxSteps = n
}

// Output returns everything written by System.Console.WriteLine so far,
// newline-joined with no trailing separator, mirroring the reference
// runtime's '\n'.join(console_output).
func (e *Executor) Output() string {
	return strings.Join(e.console, "\n")
}

// Execute invokes the named method by unqualified name with the given
// argument bindings, running it to completion and returning its return
// value, if any. An unknown method name is a fatal, unwinding error
// (spec §7: Method-not-found).
func (e *Executor) Execute(methodName string, args map[string]value.Value) (*value.Value, error) {
	instructions, fr, err := e.NewCall(methodName, args)
	if err != nil {
		return nil, err
	}

	for !fr.Done(len(instructions)) {
		if err := e.Step(fr, instructions); err != nil {
			return nil, err
		}
	}

	return fr.ReturnValue, nil
}

// NewCall looks up methodName's instruction list and builds a fresh
// frame for a step-driven run, for callers (the debugger) that need to
// pause between instructions rather than run to completion.
func (e *Executor) NewCall(methodName string, args map[string]value.Value) ([]string, *frame.Frame, error) {
	instructions, ok := e.program.Methods[methodName]
	if !ok {
		return nil, nil, diag.NewError(diag.Position{Method: methodName, PC: -1}, diag.KindMethodNotFound,
			"method not found: "+methodName)
	}
	return instructions, frame.New(methodName, args), nil
}

// Step dispatches exactly one instruction at fr.PC against instructions,
// advancing fr.PC and fr's loop stack as a side effect. Callers should
// stop stepping once frame.Done reports the method has finished or
// fr.ReturnValue is set.
func (e *Executor) Step(fr *frame.Frame, instructions []string) error {
	for fr.PC < len(instructions) {
		if e.maxSteps > 0 && e.steps >= e.maxSteps {
			return diag.NewError(diag.Position{Method: fr.MethodName, PC: fr.PC}, diag.KindThrow,
				fmt.Sprintf("exceeded step budget of %d instructions", e.maxSteps))
		}
		e.steps++

		currentPC := fr.PC
		line := strings.TrimSpace(instructions[currentPC])
		fr.PC++

		if line == "" || strings.HasPrefix(line, "//") {
			continue
		}

		opcode := firstToken(line)

		var err error
		switch {
		case strings.HasPrefix(opcode, "if"):
			err = e.handleIf(fr, instructions, currentPC)
		case strings.HasPrefix(opcode, "while"):
			err = e.handleWhile(fr, instructions, currentPC, &fr.LoopStack)
		case opcode == "break":
			if len(fr.LoopStack) == 0 {
				e.warn(fr, "break outside of loop")
				continue
			}
			top := fr.LoopStack[len(fr.LoopStack)-1]
			fr.PC = top.End + 1
			fr.LoopStack = fr.LoopStack[:len(fr.LoopStack)-1]
		case opcode == "continue":
			if len(fr.LoopStack) == 0 {
				e.warn(fr, "continue outside of loop")
				continue
			}
			fr.PC = fr.LoopStack[len(fr.LoopStack)-1].Start
		case opcode == "else" || strings.HasPrefix(line, "} else"):
			fr.PC = scanMatchingBrace(instructions, currentPC) + 1
		case opcode == "}":
			e.handleCloseBrace(currentPC, &fr.LoopStack, fr)
		default:
			err = e.executeInstruction(fr, line)
		}

		if err != nil {
			return err
		}
		return nil
	}
	return nil
}

func (e *Executor) warn(fr *frame.Frame, format string, args ...any) {
	if e.sink != nil {
		e.sink.Warn(diag.Position{Method: fr.MethodName, PC: fr.PC}, format, args...)
	}
}

func firstToken(line string) string {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// scanMatchingBrace walks forward from instructions[start] (inclusive),
// stripping inline "//" comments, tracking a brace balance that begins
// at 0, and returns the index of the "}" that first brings the balance
// back to 0 after having been raised above it. A "}" seen before any
// "{" (the leading brace of a "} else {" line) is ignored.
func scanMatchingBrace(instructions []string, start int) int {
	balance := 0
	for i := start; i < len(instructions); i++ {
		line := instructions[i]
		if idx := strings.Index(line, "//"); idx >= 0 {
			line = line[:idx]
		}
		for _, ch := range line {
			switch ch {
			case '{':
				balance++
			case '}':
				balance--
				if balance == 0 {
					return i
				}
				if balance < 0 {
					balance = 0
				}
			}
		}
	}
	return len(instructions)
}

var (
	ifHeaderRe    = regexp.MustCompile(`if\s*\(([^)]*)\)`)
	whileHeaderRe = regexp.MustCompile(`while\s*\(([^)]*)\)`)
)

func (e *Executor) handleIf(fr *frame.Frame, instructions []string, currentPC int) error {
	line := instructions[currentPC]
	condTrue := false

	if m := ifHeaderRe.FindStringSubmatch(line); m != nil {
		cond := strings.TrimSpace(m[1])
		var err error
		condTrue, err = e.evaluateCondition(fr, cond)
		if err != nil {
			return err
		}
	}

	if condTrue {
		return nil
	}

	endIndex := scanMatchingBrace(instructions, currentPC)
	if endIndex >= len(instructions) {
		fr.PC = endIndex
		return nil
	}

	endLine := strings.TrimSpace(instructions[endIndex])
	if strings.Contains(endLine, "else") {
		fr.PC = endIndex + 1
		return nil
	}

	fr.PC = endIndex + 1
	if fr.PC < len(instructions) && strings.HasPrefix(strings.TrimSpace(instructions[fr.PC]), "else") {
		fr.PC++
	}
	return nil
}

func (e *Executor) handleWhile(fr *frame.Frame, instructions []string, currentPC int, loopStack *[]frame.LoopRange) error {
	line := instructions[currentPC]
	condTrue := false

	if m := whileHeaderRe.FindStringSubmatch(line); m != nil {
		cond := strings.TrimSpace(m[1])
		var err error
		condTrue, err = e.evaluateCondition(fr, cond)
		if err != nil {
			return err
		}
	}

	endIndex := scanMatchingBrace(instructions, currentPC)
	if condTrue {
		*loopStack = append(*loopStack, frame.LoopRange{Start: currentPC, End: endIndex})
		return nil
	}
	fr.PC = endIndex + 1
	return nil
}

func (e *Executor) handleCloseBrace(currentPC int, loopStack *[]frame.LoopRange, fr *frame.Frame) {
	if len(*loopStack) == 0 {
		return
	}
	top := (*loopStack)[len(*loopStack)-1]
	if currentPC == top.End {
		fr.PC = top.Start
		*loopStack = (*loopStack)[:len(*loopStack)-1]
	}
}

// evaluateCondition implements the if/while condition grammar (spec
// §4.4.4): a bare "stack" pop, the literals true/false, or a binary
// comparison tried in precedence order <=, >=, ==, !=, <, >.
func (e *Executor) evaluateCondition(fr *frame.Frame, cond string) (bool, error) {
	switch cond {
	case "stack":
		v, err := fr.Pop()
		if err != nil {
			return false, err
		}
		return v.IsTruthy(), nil
	case "true":
		return true, nil
	case "false":
		return false, nil
	}

	for _, op := range []string{"<=", ">=", "==", "!=", "<", ">"} {
		idx := strings.Index(cond, op)
		if idx < 0 {
			continue
		}
		left := e.evalOperand(fr, strings.TrimSpace(cond[:idx]))
		right := e.evalOperand(fr, strings.TrimSpace(cond[idx+len(op):]))
		switch op {
		case "<=":
			return left <= right, nil
		case ">=":
			return left >= right, nil
		case "==":
			return left == right, nil
		case "!=":
			return left != right, nil
		case "<":
			return left < right, nil
		case ">":
			return left > right, nil
		}
	}

	return false, nil
}

// evalOperand resolves one side of a condition: integer literal, then
// local, then argument, defaulting to 0 if none match (spec §4.4.4).
func (e *Executor) evalOperand(fr *frame.Frame, operand string) float64 {
	if n, err := strconv.ParseInt(operand, 10, 64); err == nil {
		return float64(n)
	}
	if v, err := fr.GetLocal(operand); err == nil {
		if f, ok := v.AsFloat64(); ok {
			return f
		}
	}
	if v, err := fr.GetArg(operand); err == nil {
		if f, ok := v.AsFloat64(); ok {
			return f
		}
	}
	return 0
}
