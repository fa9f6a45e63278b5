package debugger

import (
	"fmt"
	"strings"

	"github.com/objectir/objectir/config"
	"github.com/objectir/objectir/exec"
	"github.com/objectir/objectir/frame"
	"github.com/objectir/objectir/parser"
	"github.com/objectir/objectir/value"
)

// Debugger drives a single method invocation one instruction at a time
// over an Executor, pausing at breakpoints and watchpoints the way the
// reference CLI's stepping debugger does, but re-keyed onto ObjectIR's
// method+PC locations and local/argument watch targets instead of
// memory addresses and registers.
type Debugger struct {
	Executor *exec.Executor
	Program  *parser.Program

	Frame        *frame.Frame
	instructions []string
	methodName   string

	Breakpoints *BreakpointManager
	Watchpoints *WatchpointManager
	History     *CommandHistory
	Evaluator   *ExpressionEvaluator

	Running  bool
	StepMode StepMode

	LastCommand string
	Output      strings.Builder

	ShowLocals bool
	ShowStack  bool
}

// StepMode represents different stepping modes. ObjectIR calls only
// reach the standard-library bridge and never push a nested frame, so
// there is nothing to step "into": StepOver behaves exactly like
// StepSingle, and StepOut simply runs to completion since a method
// invocation has no caller frame to return into.
type StepMode int

const (
	StepNone   StepMode = iota // not stepping
	StepSingle                 // execute one instruction
	StepOver                   // execute one instruction (no nested frames to skip)
	StepOut                    // run until the current method returns
)

// NewDebugger creates a debugger over an already-constructed Executor
// and the parsed program it runs, applying cfg's history size and
// display preferences.
func NewDebugger(ex *exec.Executor, program *parser.Program, cfg *config.Config) *Debugger {
	historySize := 1000
	showLocals, showStack := true, true
	if cfg != nil {
		historySize = cfg.Debugger.HistorySize
		showLocals = cfg.Debugger.ShowLocals
		showStack = cfg.Debugger.ShowStack
	}

	return &Debugger{
		Executor:    ex,
		Program:     program,
		Breakpoints: NewBreakpointManager(),
		Watchpoints: NewWatchpointManager(),
		History:     NewCommandHistoryWithSize(historySize),
		Evaluator:   NewExpressionEvaluator(),
		ShowLocals:  showLocals,
		ShowStack:   showStack,
	}
}

// LoadMethod prepares dbg to run methodName from its first instruction,
// replacing any in-progress invocation.
func (d *Debugger) LoadMethod(methodName string, args map[string]value.Value) error {
	instructions, fr, err := d.Executor.NewCall(methodName, args)
	if err != nil {
		return err
	}
	d.instructions = instructions
	d.Frame = fr
	d.methodName = methodName
	d.Running = false
	d.StepMode = StepNone
	return nil
}

// CurrentLocation reports the debugger's position for breakpoint
// lookups and display.
func (d *Debugger) CurrentLocation() Location {
	if d.Frame == nil {
		return Location{}
	}
	return Location{Method: d.methodName, PC: d.Frame.PC}
}

// ExecuteCommand parses and dispatches a single command line.
func (d *Debugger) ExecuteCommand(cmdLine string) error {
	cmdLine = strings.TrimSpace(cmdLine)

	if cmdLine == "" {
		cmdLine = d.LastCommand
	}

	if cmdLine != "" {
		d.History.Add(cmdLine)
		d.LastCommand = cmdLine
	}

	parts := strings.Fields(cmdLine)
	if len(parts) == 0 {
		return nil
	}

	cmd := strings.ToLower(parts[0])
	args := parts[1:]

	return d.handleCommand(cmd, args)
}

// handleCommand dispatches a command to its handler.
func (d *Debugger) handleCommand(cmd string, args []string) error {
	switch cmd {
	case "run", "r":
		return d.cmdRun(args)
	case "continue", "c":
		return d.cmdContinue(args)
	case "step", "s", "si":
		return d.cmdStep(args)
	case "next", "n":
		return d.cmdNext(args)
	case "finish", "fin":
		return d.cmdFinish(args)

	case "break", "b":
		return d.cmdBreak(args)
	case "tbreak", "tb":
		return d.cmdTBreak(args)
	case "delete", "d":
		return d.cmdDelete(args)
	case "enable":
		return d.cmdEnable(args)
	case "disable":
		return d.cmdDisable(args)

	case "watch", "w":
		return d.cmdWatch(args)

	case "print", "p":
		return d.cmdPrint(args)
	case "info", "i":
		return d.cmdInfo(args)
	case "backtrace", "bt", "where":
		return d.cmdBacktrace(args)
	case "list", "l":
		return d.cmdList(args)

	case "set":
		return d.cmdSet(args)

	case "reset":
		return d.cmdReset(args)

	case "help", "h", "?":
		return d.cmdHelp(args)

	default:
		return fmt.Errorf("unknown command: %s (type 'help' for available commands)", cmd)
	}
}

// ShouldBreak checks whether execution should pause before the next
// instruction at the debugger's current location.
func (d *Debugger) ShouldBreak() (bool, string) {
	switch d.StepMode {
	case StepSingle, StepOver:
		d.StepMode = StepNone
		return true, "single step"
	case StepOut:
		// runs until the frame reports completion; checked by the caller.
	}

	loc := d.CurrentLocation()
	if bp := d.Breakpoints.GetBreakpoint(loc); bp != nil {
		if !bp.Enabled {
			return false, ""
		}

		if bp.Condition != "" {
			result, err := d.Evaluator.Evaluate(bp.Condition, d.Frame)
			if err != nil {
				return true, fmt.Sprintf("breakpoint %d (condition error: %v)", bp.ID, err)
			}
			if !result {
				return false, ""
			}
		}

		bp.HitCount++
		if bp.Temporary {
			_ = d.Breakpoints.DeleteBreakpoint(bp.ID)
		}

		return true, fmt.Sprintf("breakpoint %d", bp.ID)
	}

	if wp, changed := d.Watchpoints.CheckWatchpoints(d.Frame); wp != nil && changed {
		return true, fmt.Sprintf("watchpoint %d: %s", wp.ID, wp.Name)
	}

	return false, ""
}

// Advance executes exactly one step of the loaded method, recording
// return values and leaving d.Running false once the method completes.
func (d *Debugger) Advance() error {
	if d.Frame == nil {
		return fmt.Errorf("no method loaded")
	}
	if d.Frame.Done(len(d.instructions)) {
		d.Running = false
		return nil
	}
	if err := d.Executor.Step(d.Frame, d.instructions); err != nil {
		d.Running = false
		return err
	}
	if d.Frame.Done(len(d.instructions)) {
		d.Running = false
	}
	return nil
}

// GetOutput returns and clears the debugger's own message buffer (not
// the executed program's console output, which lives on the Executor).
func (d *Debugger) GetOutput() string {
	output := d.Output.String()
	d.Output.Reset()
	return output
}

func (d *Debugger) Printf(format string, args ...interface{}) {
	d.Output.WriteString(fmt.Sprintf(format, args...))
}

func (d *Debugger) Println(args ...interface{}) {
	d.Output.WriteString(fmt.Sprintln(args...))
}

// SetStepOver configures the debugger to step past a call instruction
// rather than into it.
func (d *Debugger) SetStepOver() {
	d.StepMode = StepOver
	d.Running = true
}

// SetStepOut configures the debugger to run until the current method
// returns.
func (d *Debugger) SetStepOut() {
	d.StepMode = StepOut
	d.Running = true
}
