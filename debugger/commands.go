package debugger

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/objectir/objectir/value"
)

// Command handler implementations.

// cmdRun starts execution of the currently loaded method from its first
// instruction.
func (d *Debugger) cmdRun(args []string) error {
	if d.Frame == nil {
		return fmt.Errorf("no method loaded")
	}
	if err := d.LoadMethod(d.methodName, d.Frame.Args()); err != nil {
		return err
	}
	d.Running = true
	d.StepMode = StepNone
	d.Println("Starting execution of", d.methodName)
	return nil
}

// cmdContinue resumes execution until the next breakpoint, watchpoint,
// or method return.
func (d *Debugger) cmdContinue(args []string) error {
	if d.Frame == nil || d.Frame.Done(len(d.instructions)) {
		return fmt.Errorf("method is not running")
	}
	d.Running = true
	d.StepMode = StepNone
	d.Println("Continuing...")
	return nil
}

// cmdStep executes a single instruction.
func (d *Debugger) cmdStep(args []string) error {
	d.StepMode = StepSingle
	d.Running = true
	return nil
}

// cmdNext steps over call instructions at the current nesting level.
func (d *Debugger) cmdNext(args []string) error {
	d.SetStepOver()
	return nil
}

// cmdFinish runs until the current method returns.
func (d *Debugger) cmdFinish(args []string) error {
	d.SetStepOut()
	return nil
}

// cmdBreak sets a breakpoint at method:pc, optionally with a condition.
func (d *Debugger) cmdBreak(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: break <method>:<pc> [if <condition>]")
	}

	loc, err := d.parseLocation(args[0])
	if err != nil {
		return err
	}

	var condition string
	if len(args) > 1 && strings.ToLower(args[1]) == "if" {
		condition = strings.Join(args[2:], " ")
	}

	bp := d.Breakpoints.AddBreakpoint(loc, false, condition)
	if condition != "" {
		d.Printf("Breakpoint %d at %s (condition: %s)\n", bp.ID, loc, condition)
	} else {
		d.Printf("Breakpoint %d at %s\n", bp.ID, loc)
	}
	return nil
}

// cmdTBreak sets a breakpoint that deletes itself after its first hit.
func (d *Debugger) cmdTBreak(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: tbreak <method>:<pc>")
	}

	loc, err := d.parseLocation(args[0])
	if err != nil {
		return err
	}

	bp := d.Breakpoints.AddBreakpoint(loc, true, "")
	d.Printf("Temporary breakpoint %d at %s\n", bp.ID, loc)
	return nil
}

// parseLocation parses "method:pc", defaulting method to the currently
// loaded one when only a bare pc is given.
func (d *Debugger) parseLocation(spec string) (Location, error) {
	method := d.methodName
	pcStr := spec

	if idx := strings.LastIndex(spec, ":"); idx >= 0 {
		method = spec[:idx]
		pcStr = spec[idx+1:]
	}

	pc, err := strconv.Atoi(pcStr)
	if err != nil {
		return Location{}, fmt.Errorf("invalid location: %s", spec)
	}
	if method == "" {
		return Location{}, fmt.Errorf("no method specified and none loaded")
	}
	return Location{Method: method, PC: pc}, nil
}

// cmdDelete deletes one breakpoint, or all of them if no ID is given.
func (d *Debugger) cmdDelete(args []string) error {
	if len(args) == 0 {
		d.Breakpoints.Clear()
		d.Println("All breakpoints deleted")
		return nil
	}

	id, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid breakpoint ID: %s", args[0])
	}

	if err := d.Breakpoints.DeleteBreakpoint(id); err != nil {
		return err
	}

	d.Printf("Breakpoint %d deleted\n", id)
	return nil
}

func (d *Debugger) cmdEnable(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: enable <breakpoint-id>")
	}
	id, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid breakpoint ID: %s", args[0])
	}
	if err := d.Breakpoints.EnableBreakpoint(id); err != nil {
		return err
	}
	d.Printf("Breakpoint %d enabled\n", id)
	return nil
}

func (d *Debugger) cmdDisable(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: disable <breakpoint-id>")
	}
	id, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid breakpoint ID: %s", args[0])
	}
	if err := d.Breakpoints.DisableBreakpoint(id); err != nil {
		return err
	}
	d.Printf("Breakpoint %d disabled\n", id)
	return nil
}

// cmdWatch sets a watchpoint on a local or argument by name, preferring
// a local binding over an argument when both exist.
func (d *Debugger) cmdWatch(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: watch <name>")
	}
	name := args[0]

	kind := WatchLocal
	if d.Frame != nil {
		if _, err := d.Frame.GetLocal(name); err != nil {
			if _, argErr := d.Frame.GetArg(name); argErr == nil {
				kind = WatchArg
			}
		}
	}

	wp := d.Watchpoints.AddWatchpoint(kind, name)
	if d.Frame != nil {
		if err := d.Watchpoints.InitializeWatchpoint(wp.ID, d.Frame); err != nil {
			d.Watchpoints.DeleteWatchpoint(wp.ID)
			return err
		}
	}

	d.Printf("Watchpoint %d: %s\n", wp.ID, name)
	return nil
}

// cmdPrint evaluates and prints an expression against the current frame.
func (d *Debugger) cmdPrint(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: print <expression>")
	}

	expression := strings.Join(args, " ")
	result, err := d.Evaluator.EvaluateExpression(expression, d.Frame)
	if err != nil {
		return err
	}

	d.Printf("$%d = %s (%s)\n", d.Evaluator.HistorySize(), result, result.Type)
	return nil
}

// cmdInfo shows information about the loaded method's state.
func (d *Debugger) cmdInfo(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: info <locals|args|breakpoints|watchpoints|stack>")
	}

	switch strings.ToLower(args[0]) {
	case "locals", "local":
		return d.showLocals()
	case "args", "arguments":
		return d.showArgs()
	case "breakpoints", "break", "b":
		return d.showBreakpoints()
	case "watchpoints", "watch", "w":
		return d.showWatchpoints()
	case "stack", "s":
		return d.showStack()
	default:
		return fmt.Errorf("unknown info command: %s", args[0])
	}
}

func (d *Debugger) showLocals() error {
	if d.Frame == nil {
		return fmt.Errorf("no method loaded")
	}
	locals := d.Frame.Locals()
	if len(locals) == 0 {
		d.Println("No locals")
		return nil
	}
	d.Println("Locals:")
	for _, name := range sortedKeys(locals) {
		d.Printf("  %s = %s (%s)\n", name, locals[name], locals[name].Type)
	}
	return nil
}

func (d *Debugger) showArgs() error {
	if d.Frame == nil {
		return fmt.Errorf("no method loaded")
	}
	args := d.Frame.Args()
	if len(args) == 0 {
		d.Println("No arguments")
		return nil
	}
	d.Println("Arguments:")
	for _, name := range sortedKeys(args) {
		d.Printf("  %s = %s (%s)\n", name, args[name], args[name].Type)
	}
	return nil
}

func sortedKeys(m map[string]value.Value) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (d *Debugger) showBreakpoints() error {
	breakpoints := d.Breakpoints.GetAllBreakpoints()
	if len(breakpoints) == 0 {
		d.Println("No breakpoints")
		return nil
	}

	d.Println("Breakpoints:")
	for _, bp := range breakpoints {
		status := "enabled"
		if !bp.Enabled {
			status = "disabled"
		}
		temp := ""
		if bp.Temporary {
			temp = " (temporary)"
		}
		condition := ""
		if bp.Condition != "" {
			condition = fmt.Sprintf(" if %s", bp.Condition)
		}
		d.Printf("  %d: %s %s%s%s (hit %d times)\n",
			bp.ID, bp.Location, status, temp, condition, bp.HitCount)
	}
	return nil
}

func (d *Debugger) showWatchpoints() error {
	watchpoints := d.Watchpoints.GetAllWatchpoints()
	if len(watchpoints) == 0 {
		d.Println("No watchpoints")
		return nil
	}

	d.Println("Watchpoints:")
	for _, wp := range watchpoints {
		status := "enabled"
		if !wp.Enabled {
			status = "disabled"
		}
		kind := "local"
		if wp.Kind == WatchArg {
			kind = "arg"
		}
		d.Printf("  %d: %s (%s) %s (hit %d times, last value: %s)\n",
			wp.ID, wp.Name, kind, status, wp.HitCount, wp.LastValue)
	}
	return nil
}

func (d *Debugger) showStack() error {
	if d.Frame == nil {
		return fmt.Errorf("no method loaded")
	}
	stack := d.Frame.StackSnapshot()
	d.Printf("Operand stack (depth %d):\n", len(stack))

	start := 0
	if len(stack) > StackDisplayDepth {
		start = len(stack) - StackDisplayDepth
	}
	for i := len(stack) - 1; i >= start; i-- {
		d.Printf("  [%d] %s (%s)\n", i, stack[i], stack[i].Type)
	}
	return nil
}

// cmdBacktrace shows the current location. ObjectIR has no call stack
// tracking across method invocations, so this reports only the frame
// currently loaded.
func (d *Debugger) cmdBacktrace(args []string) error {
	d.Println("Call stack:")
	d.Printf("  #0  %s\n", d.CurrentLocation())
	return nil
}

// cmdList shows instructions around the current program counter.
func (d *Debugger) cmdList(args []string) error {
	if d.Frame == nil {
		return fmt.Errorf("no method loaded")
	}

	pc := d.Frame.PC
	start := pc - CodeContextLinesBeforeCompact
	if start < 0 {
		start = 0
	}
	end := pc + CodeContextLinesAfterCompact
	if end > len(d.instructions) {
		end = len(d.instructions)
	}

	for i := start; i < end; i++ {
		marker := "  "
		if i == pc {
			marker = "=>"
		}
		d.Printf("%s %4d: %s\n", marker, i, d.instructions[i])
	}
	return nil
}

// cmdSet overwrites a local or argument binding.
func (d *Debugger) cmdSet(args []string) error {
	if len(args) < 3 || args[1] != "=" {
		return fmt.Errorf("usage: set <local|arg> = <value>")
	}
	if d.Frame == nil {
		return fmt.Errorf("no method loaded")
	}

	name := args[0]
	v, err := d.Evaluator.EvaluateExpression(strings.Join(args[2:], " "), d.Frame)
	if err != nil {
		return err
	}

	if _, err := d.Frame.GetLocal(name); err == nil {
		d.Frame.SetLocal(name, v)
	} else {
		d.Frame.SetArg(name, v)
	}

	d.Printf("%s set to %s\n", name, v)
	return nil
}

// cmdReset reloads the currently loaded method from its first
// instruction, discarding in-progress state.
func (d *Debugger) cmdReset(args []string) error {
	if d.methodName == "" {
		return fmt.Errorf("no method loaded")
	}
	if err := d.LoadMethod(d.methodName, nil); err != nil {
		return err
	}
	d.Println("Method reset")
	return nil
}

// cmdHelp displays help information.
func (d *Debugger) cmdHelp(args []string) error {
	if len(args) > 0 {
		return d.showCommandHelp(args[0])
	}

	d.Println("ObjectIR Debugger Commands:")
	d.Println()
	d.Println("Execution Control:")
	d.Println("  run (r)           - (Re)start the loaded method")
	d.Println("  continue (c)      - Continue execution")
	d.Println("  step (s, si)      - Execute single instruction")
	d.Println("  next (n)          - Step over call instructions")
	d.Println("  finish (fin)      - Run until the method returns")
	d.Println()
	d.Println("Breakpoints:")
	d.Println("  break (b) <m:pc>  - Set breakpoint")
	d.Println("  tbreak (tb) <m:pc>- Set temporary breakpoint")
	d.Println("  delete (d) [id]   - Delete breakpoint(s)")
	d.Println("  enable <id>       - Enable breakpoint")
	d.Println("  disable <id>      - Disable breakpoint")
	d.Println()
	d.Println("Watchpoints:")
	d.Println("  watch (w) <name>  - Watch a local or argument for changes")
	d.Println()
	d.Println("Inspection:")
	d.Println("  print (p) <expr>  - Evaluate expression")
	d.Println("  info (i) <what>   - Show locals/args/breakpoints/watchpoints/stack")
	d.Println("  backtrace (bt)    - Show current location")
	d.Println("  list (l)          - List instructions around PC")
	d.Println()
	d.Println("Modification:")
	d.Println("  set <name> = <val> - Modify a local or argument")
	d.Println()
	d.Println("Control:")
	d.Println("  reset             - Reload the current method")
	d.Println("  help (h, ?)       - Show this help")
	d.Println()
	d.Println("Type 'help <command>' for detailed help on a specific command.")

	return nil
}

func (d *Debugger) showCommandHelp(cmd string) error {
	helpText := map[string]string{
		"break": "break <method>:<pc> [if <condition>]\n  Set a breakpoint at the given method and instruction index.\n  Optional condition is evaluated each time the breakpoint is hit.",
		"step":  "step\n  Execute a single instruction.",
		"next":  "next\n  Step over call instructions (execute until the next instruction at the same nesting level).",
		"print": "print <expression>\n  Evaluate and print an expression against the loaded frame's locals and arguments.",
		"watch": "watch <name>\n  Break when the named local or argument changes value.",
		"info":  "info <locals|args|breakpoints|watchpoints|stack>\n  Display information about the loaded method's state.",
	}

	if help, exists := helpText[cmd]; exists {
		d.Println(help)
		return nil
	}
	return fmt.Errorf("no help available for command: %s", cmd)
}
