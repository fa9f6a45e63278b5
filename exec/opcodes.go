package exec

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/objectir/objectir/diag"
	"github.com/objectir/objectir/frame"
	"github.com/objectir/objectir/value"
)

var (
	ldstrRe = regexp.MustCompile(`ldstr\s+"([^"]*)"`)
	callRe  = regexp.MustCompile(`(?:call|callvirt)\s+([\w.]+)\s*\(([^)]*)\)\s*(?:->\s*([\w.]+))?`)
)

// executeInstruction dispatches a single non-structural instruction
// line (spec §4.4.1). Structural lines (if/while/}/else/break/continue)
// never reach here; Step handles those directly.
func (e *Executor) executeInstruction(fr *frame.Frame, line string) error {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return nil
	}
	opcode := parts[0]

	switch opcode {
	case "ldstr":
		return e.opLdstr(fr, line)
	case "ldc.i4":
		return e.opLdcInt(fr, parts, value.Int32)
	case "ldc.i8":
		return e.opLdcInt(fr, parts, value.Int64)
	case "ldc.r8":
		return e.opLdcFloat(fr, parts)
	case "ldnull":
		fr.Push(value.Null())
	case "ldc.b.0", "ldfalse":
		fr.Push(value.BoolValue(false))
	case "ldc.b.1", "ldtrue":
		fr.Push(value.BoolValue(true))
	case "ldloc":
		return e.opLdloc(fr, parts)
	case "ldarg":
		return e.opLdarg(fr, parts)
	case "ldcon":
		return e.opLdcon(fr, parts)
	case "stloc":
		return e.opStloc(fr, parts)
	case "starg":
		return e.opStarg(fr, parts)
	case "local":
		return e.opLocal(fr, parts)
	case "add":
		return e.binaryArith(fr, func(a, b float64) float64 { return a + b }, func(a, b int64) int64 { return a + b })
	case "sub":
		return e.binaryArith(fr, func(a, b float64) float64 { return a - b }, func(a, b int64) int64 { return a - b })
	case "mul":
		return e.binaryArith(fr, func(a, b float64) float64 { return a * b }, func(a, b int64) int64 { return a * b })
	case "div":
		return e.opDiv(fr)
	case "rem":
		return e.opRem(fr)
	case "neg":
		return e.opNeg(fr)
	case "ceq":
		return e.compare(fr, func(a, b float64) bool { return a == b }, func(a, b string) bool { return a == b }, func(a, b any) bool { return a == b })
	case "cne":
		return e.compare(fr, func(a, b float64) bool { return a != b }, func(a, b string) bool { return a != b }, func(a, b any) bool { return a != b })
	case "cgt":
		return e.compare(fr, func(a, b float64) bool { return a > b }, func(a, b string) bool { return a > b }, nil)
	case "clt":
		return e.compare(fr, func(a, b float64) bool { return a < b }, func(a, b string) bool { return a < b }, nil)
	case "cge":
		return e.compare(fr, func(a, b float64) bool { return a >= b }, func(a, b string) bool { return a >= b }, nil)
	case "cle":
		return e.compare(fr, func(a, b float64) bool { return a <= b }, func(a, b string) bool { return a <= b }, nil)
	case "dup":
		v, err := fr.Peek()
		if err != nil {
			return err
		}
		fr.Push(v)
	case "pop":
		_, err := fr.Pop()
		return err
	case "nop":
		// no effect
	case "throw":
		v, err := fr.Pop()
		if err != nil {
			return err
		}
		return diag.NewError(diag.Position{Method: fr.MethodName, PC: fr.PC}, diag.KindThrow, v.String())
	case "call", "callvirt":
		return e.opCall(fr, line)
	case "ret":
		if fr.StackDepth() > 0 {
			v, err := fr.Pop()
			if err != nil {
				return err
			}
			fr.ReturnValue = &v
		}
	default:
		e.warn(fr, "unknown opcode %q", opcode)
	}
	return nil
}

func (e *Executor) opLdstr(fr *frame.Frame, line string) error {
	m := ldstrRe.FindStringSubmatch(line)
	if m == nil {
		return nil
	}
	fr.Push(value.StringValue(m[1]))
	return nil
}

func (e *Executor) opLdcInt(fr *frame.Frame, parts []string, t value.Type) error {
	n, err := strconv.ParseInt(strings.Join(parts[1:], " "), 10, 64)
	if err != nil {
		return nil
	}
	fr.Push(value.New(n, t))
	return nil
}

func (e *Executor) opLdcFloat(fr *frame.Frame, parts []string) error {
	f, err := strconv.ParseFloat(strings.Join(parts[1:], " "), 64)
	if err != nil {
		return nil
	}
	fr.Push(value.DoubleValue(f))
	return nil
}

func (e *Executor) opLdloc(fr *frame.Frame, parts []string) error {
	if len(parts) < 2 {
		return nil
	}
	v, err := fr.GetLocal(parts[1])
	if err != nil {
		return err
	}
	fr.Push(v)
	return nil
}

func (e *Executor) opLdarg(fr *frame.Frame, parts []string) error {
	if len(parts) < 2 {
		return nil
	}
	v, err := fr.GetArg(parts[1])
	if err != nil {
		return err
	}
	fr.Push(v)
	return nil
}

// opLdcon infers a type from a free-form constant token (spec §4.4.1):
// quoted -> STRING, true/false -> BOOL, contains "." -> DOUBLE,
// integer-parseable -> INT32, else STRING.
func (e *Executor) opLdcon(fr *frame.Frame, parts []string) error {
	raw := strings.Join(parts[1:], " ")
	switch {
	case strings.HasPrefix(raw, `"`) && strings.HasSuffix(raw, `"`) && len(raw) >= 2:
		fr.Push(value.StringValue(raw[1 : len(raw)-1]))
	case strings.EqualFold(raw, "true"):
		fr.Push(value.BoolValue(true))
	case strings.EqualFold(raw, "false"):
		fr.Push(value.BoolValue(false))
	case strings.Contains(raw, "."):
		if f, err := strconv.ParseFloat(raw, 64); err == nil {
			fr.Push(value.DoubleValue(f))
			break
		}
		fr.Push(value.StringValue(raw))
	default:
		if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
			fr.Push(value.Int32Value(n))
			break
		}
		fr.Push(value.StringValue(raw))
	}
	return nil
}

func (e *Executor) opStloc(fr *frame.Frame, parts []string) error {
	if len(parts) < 2 {
		return nil
	}
	v, err := fr.Pop()
	if err != nil {
		return err
	}
	fr.SetLocal(parts[1], v)
	return nil
}

func (e *Executor) opStarg(fr *frame.Frame, parts []string) error {
	if len(parts) < 2 {
		return nil
	}
	v, err := fr.Pop()
	if err != nil {
		return err
	}
	fr.SetArg(parts[1], v)
	return nil
}

// opLocal handles "local name: type", initializing the local to the
// default value for the declared type (spec §4.4.1).
func (e *Executor) opLocal(fr *frame.Frame, parts []string) error {
	rest := strings.Join(parts[1:], " ")
	idx := strings.Index(rest, ":")
	if idx < 0 {
		return nil
	}
	name := strings.TrimSpace(rest[:idx])
	typeName := strings.TrimSpace(rest[idx+1:])
	fr.SetLocal(name, value.DefaultFor(value.ParseType(typeName)))
	return nil
}

// binaryArith implements add/sub/mul: pop b then a, apply the
// appropriate operator depending on whether a's payload is integral or
// floating point, and push the result tagged with a's type (spec §3:
// "the pushed value's tag is the tag of the first-popped-under
// operand").
func (e *Executor) binaryArith(fr *frame.Frame, floatOp func(a, b float64) float64, intOp func(a, b int64) int64) error {
	b, err := fr.Pop()
	if err != nil {
		return err
	}
	a, err := fr.Pop()
	if err != nil {
		return err
	}

	ai, aIsInt := a.Data.(int64)
	bi, bIsInt := b.Data.(int64)
	if aIsInt && bIsInt {
		fr.Push(value.New(intOp(ai, bi), a.Type))
		return nil
	}

	af, _ := a.AsFloat64()
	bf, _ := b.AsFloat64()
	fr.Push(value.New(floatOp(af, bf), a.Type))
	return nil
}

// opDiv implements div: truncation toward zero for integer operands,
// IEEE-754 division for floating point, tagged with a's type.
func (e *Executor) opDiv(fr *frame.Frame) error {
	b, err := fr.Pop()
	if err != nil {
		return err
	}
	a, err := fr.Pop()
	if err != nil {
		return err
	}

	ai, aIsInt := a.Data.(int64)
	bi, bIsInt := b.Data.(int64)
	if aIsInt && bIsInt {
		if bi == 0 {
			return diag.NewError(diag.Position{Method: fr.MethodName, PC: fr.PC}, diag.KindThrow, "integer division by zero")
		}
		fr.Push(value.New(ai/bi, a.Type))
		return nil
	}

	af, _ := a.AsFloat64()
	bf, _ := b.AsFloat64()
	fr.Push(value.New(af/bf, a.Type))
	return nil
}

func (e *Executor) opRem(fr *frame.Frame) error {
	b, err := fr.Pop()
	if err != nil {
		return err
	}
	a, err := fr.Pop()
	if err != nil {
		return err
	}

	ai, aIsInt := a.Data.(int64)
	bi, bIsInt := b.Data.(int64)
	if aIsInt && bIsInt {
		if bi == 0 {
			return diag.NewError(diag.Position{Method: fr.MethodName, PC: fr.PC}, diag.KindThrow, "integer division by zero")
		}
		fr.Push(value.New(ai%bi, a.Type))
		return nil
	}

	af, _ := a.AsFloat64()
	bf, _ := b.AsFloat64()
	fr.Push(value.New(math.Mod(af, bf), a.Type))
	return nil
}

func (e *Executor) opNeg(fr *frame.Frame) error {
	v, err := fr.Pop()
	if err != nil {
		return err
	}
	if n, ok := v.Data.(int64); ok {
		fr.Push(value.New(-n, v.Type))
		return nil
	}
	if f, ok := v.Data.(float64); ok {
		fr.Push(value.New(-f, v.Type))
		return nil
	}
	fr.Push(v)
	return nil
}

// compare implements the six comparison opcodes: numeric payloads use
// numCmp, string payloads use strCmp, results always push BOOL. eqCmp,
// when non-nil (ceq/cne), compares any other payload (bool, nil/Object)
// directly the way the reference runtime's generic == does, rather than
// defaulting to false.
func (e *Executor) compare(fr *frame.Frame, numCmp func(a, b float64) bool, strCmp func(a, b string) bool, eqCmp func(a, b any) bool) error {
	b, err := fr.Pop()
	if err != nil {
		return err
	}
	a, err := fr.Pop()
	if err != nil {
		return err
	}

	if as, ok := a.Data.(string); ok {
		if bs, ok := b.Data.(string); ok {
			fr.Push(value.BoolValue(strCmp(as, bs)))
			return nil
		}
	}

	af, aok := a.AsFloat64()
	bf, bok := b.AsFloat64()
	if aok && bok {
		fr.Push(value.BoolValue(numCmp(af, bf)))
		return nil
	}

	if eqCmp != nil {
		fr.Push(value.BoolValue(eqCmp(a.Data, b.Data)))
		return nil
	}

	fr.Push(value.BoolValue(false))
	return nil
}

// opCall implements call/callvirt dispatch (spec §4.4.3): parse the
// qualified name and parameter type list, pop that many arguments in
// reverse, resolve through the bridge, apply the WriteLine side
// channel, invoke, and wrap the return value.
func (e *Executor) opCall(fr *frame.Frame, line string) error {
	m := callRe.FindStringSubmatch(line)
	if m == nil {
		return nil
	}
	qualifiedName := m[1]
	paramList := m[2]
	returnType := m[3]

	var paramTypes []string
	for _, p := range strings.Split(paramList, ",") {
		if t := strings.TrimSpace(p); t != "" {
			paramTypes = append(paramTypes, t)
		}
	}

	args, err := e.popCallArguments(fr, len(paramTypes))
	if err != nil {
		return err
	}

	target, ok := e.bridge.Resolve(qualifiedName)
	if !ok {
		e.warn(fr, "unable to resolve call target %q", qualifiedName)
		return nil
	}

	rawArgs := make([]any, len(args))
	for i, v := range args {
		rawArgs[i] = v.Data
	}

	if qualifiedName == "System.Console.WriteLine" && len(rawArgs) > 0 {
		e.console = append(e.console, args[0].String())
	}

	result, callErr := target(rawArgs)
	if callErr != nil {
		e.warn(fr, "call to %q failed: %v", qualifiedName, callErr)
		return nil
	}

	e.pushReturnValue(fr, result, returnType)
	return nil
}

func (e *Executor) popCallArguments(fr *frame.Frame, count int) ([]value.Value, error) {
	args := make([]value.Value, count)
	for i := count - 1; i >= 0; i-- {
		v, err := fr.Pop()
		if err != nil {
			return nil, err
		}
		args[i] = v
	}
	return args, nil
}

// pushReturnValue implements the return-wrapping rules of spec §4.4.3.
func (e *Executor) pushReturnValue(fr *frame.Frame, result any, returnType string) {
	if v, ok := result.(value.Value); ok {
		fr.Push(v)
		return
	}

	if returnType == "" {
		if result != nil {
			fr.Push(value.New(result, value.Object))
		}
		return
	}

	normalized := strings.ToLower(strings.TrimSpace(returnType))
	normalized = strings.TrimPrefix(normalized, "system.")
	if normalized == "void" {
		return
	}

	t, ok := map[string]value.Type{
		"int32":  value.Int32,
		"int64":  value.Int64,
		"float":  value.Float,
		"double": value.Double,
		"string": value.String,
		"bool":   value.Bool,
		"object": value.Object,
	}[normalized]
	if !ok {
		t = value.Object
	}
	fr.Push(value.New(result, t))
}
