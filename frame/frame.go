// Package frame implements the per-invocation execution state of an
// ObjectIR method: its operand stack, locals, arguments, program counter,
// and return value.
package frame

import (
	"github.com/objectir/objectir/diag"
	"github.com/objectir/objectir/value"
)

// LoopRange marks a while loop's header and matching closing brace by
// instruction index, so break/continue and the closing brace know where
// to send the program counter.
type LoopRange struct {
	Start int
	End   int
}

// Frame is a pure container, owned by a single method invocation. It has
// no knowledge of the instruction list it is being driven over; the
// executor owns that.
type Frame struct {
	MethodName string

	stack  []value.Value
	locals map[string]value.Value
	args   map[string]value.Value

	ReturnValue *value.Value
	PC          int
	LoopStack   []LoopRange
}

// Done reports whether the frame has run off the end of an instruction
// list of the given length or already produced a return value, i.e.
// whether a step-driven caller (the debugger) should stop stepping.
func (f *Frame) Done(instructionCount int) bool {
	return f.PC >= instructionCount || f.ReturnValue != nil
}

// New creates a frame for a method invocation, with args pre-populated
// from the caller (spec §3: "args: populated by caller").
func New(methodName string, args map[string]value.Value) *Frame {
	if args == nil {
		args = make(map[string]value.Value)
	}
	return &Frame{
		MethodName: methodName,
		locals:     make(map[string]value.Value),
		args:       args,
	}
}

// Push appends a value to the top of the operand stack.
func (f *Frame) Push(v value.Value) {
	f.stack = append(f.stack, v)
}

// Pop removes and returns the top of the operand stack, or a stack
// underflow error carrying the method name (spec §3 invariant).
func (f *Frame) Pop() (value.Value, error) {
	if len(f.stack) == 0 {
		return value.Value{}, diag.NewError(diag.Position{Method: f.MethodName, PC: f.PC}, diag.KindStackUnderflow,
			"pop from empty stack in "+f.MethodName)
	}
	n := len(f.stack) - 1
	v := f.stack[n]
	f.stack = f.stack[:n]
	return v, nil
}

// Peek returns the top of the operand stack without removing it.
func (f *Frame) Peek() (value.Value, error) {
	if len(f.stack) == 0 {
		return value.Value{}, diag.NewError(diag.Position{Method: f.MethodName, PC: f.PC}, diag.KindStackUnderflow,
			"peek on empty stack in "+f.MethodName)
	}
	return f.stack[len(f.stack)-1], nil
}

// StackDepth reports how many values are currently on the operand stack.
func (f *Frame) StackDepth() int { return len(f.stack) }

// StackSnapshot returns a copy of the operand stack, bottom to top, for
// read-only inspection (e.g. by a debugger).
func (f *Frame) StackSnapshot() []value.Value {
	out := make([]value.Value, len(f.stack))
	copy(out, f.stack)
	return out
}

// SetLocal creates or overwrites a local variable. Writes are idempotent
// creates: the key need not already exist.
func (f *Frame) SetLocal(name string, v value.Value) {
	f.locals[name] = v
}

// GetLocal reads a local variable, or an undefined-variable error if the
// name has never been written.
func (f *Frame) GetLocal(name string) (value.Value, error) {
	v, ok := f.locals[name]
	if !ok {
		return value.Value{}, diag.NewError(diag.Position{Method: f.MethodName, PC: f.PC}, diag.KindUndefinedLocal,
			"undefined local variable: "+name)
	}
	return v, nil
}

// SetArg creates or overwrites an argument binding.
func (f *Frame) SetArg(name string, v value.Value) {
	f.args[name] = v
}

// GetArg reads an argument binding, or an undefined-argument error.
func (f *Frame) GetArg(name string) (value.Value, error) {
	v, ok := f.args[name]
	if !ok {
		return value.Value{}, diag.NewError(diag.Position{Method: f.MethodName, PC: f.PC}, diag.KindUndefinedArg,
			"undefined argument: "+name)
	}
	return v, nil
}

// Locals returns a read-only snapshot of the locals map, for a debugger's
// inspection panel.
func (f *Frame) Locals() map[string]value.Value {
	out := make(map[string]value.Value, len(f.locals))
	for k, v := range f.locals {
		out[k] = v
	}
	return out
}

// Args returns a read-only snapshot of the args map.
func (f *Frame) Args() map[string]value.Value {
	out := make(map[string]value.Value, len(f.args))
	for k, v := range f.args {
		out[k] = v
	}
	return out
}
