// Package service provides a thread-safe wrapper around one method
// invocation's executor and debugger, used by the HTTP/WebSocket API
// layer (one service per session). The CLI and TUI debuggers started
// from main.go drive a debugger.Debugger directly, not this package.
package service

import (
	"fmt"
	"sort"
	"sync"

	"github.com/objectir/objectir/config"
	"github.com/objectir/objectir/debugger"
	"github.com/objectir/objectir/diag"
	"github.com/objectir/objectir/exec"
	"github.com/objectir/objectir/parser"
	"github.com/objectir/objectir/stdlib"
	"github.com/objectir/objectir/value"
)

// DebuggerService owns one parsed program, one executor, and the
// debugger driving it one step at a time. It serializes every access
// behind its own mutex so a WebSocket reader goroutine and an HTTP
// handler goroutine can safely touch the same session concurrently.
type DebuggerService struct {
	mu sync.RWMutex

	cfg      *config.Config
	program  *parser.Program
	executor *exec.Executor
	debugger *debugger.Debugger
	warnings []string

	methodName string
	state      ExecutionState
	lastErr    error
	outputSeen int
	onOutput   func(string)
}

// NewDebuggerService creates a service with no program loaded yet.
// onOutput, if non-nil, is called with each newly produced chunk of
// console output as execution advances.
func NewDebuggerService(cfg *config.Config, onOutput func(string)) *DebuggerService {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return &DebuggerService{
		cfg:      cfg,
		state:    StateIdle,
		onOutput: onOutput,
	}
}

// LoadProgram parses source and prepares methodName to run with args,
// replacing anything previously loaded in this service.
func (s *DebuggerService) LoadProgram(source, methodName string, args map[string]value.Value) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	warnings := &warningSink{}
	program := parser.Parse(source)
	bridge := stdlib.New(s.cfg.Stdlib.PreloadModules, warnings)
	ex := exec.New(program, bridge, warnings)
	ex.SetMaxSteps(s.cfg.Execution.MaxSteps)

	dbg := debugger.NewDebugger(ex, program, s.cfg)
	if err := dbg.LoadMethod(methodName, args); err != nil {
		return err
	}

	s.program = program
	s.executor = ex
	s.debugger = dbg
	s.methodName = methodName
	s.warnings = warnings.messages
	s.state = StateHalted
	s.lastErr = nil
	s.outputSeen = 0
	return nil
}

// Warnings returns standard-library preload warnings collected while
// loading the current program.
func (s *DebuggerService) Warnings() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, len(s.warnings))
	copy(out, s.warnings)
	return out
}

// Continue marks the session as running with no step restriction; the
// caller drives RunUntilPaused to actually advance it.
func (s *DebuggerService) Continue() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.debugger == nil {
		return fmt.Errorf("no program loaded")
	}
	s.debugger.StepMode = debugger.StepNone
	s.debugger.Running = true
	s.state = StateRunning
	return nil
}

// Step single-steps one instruction and reports the state afterward.
func (s *DebuggerService) Step() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.debugger == nil {
		return fmt.Errorf("no program loaded")
	}
	if err := s.debugger.Advance(); err != nil {
		s.state = StateError
		s.lastErr = err
		return err
	}
	s.refreshStateLocked()
	return nil
}

// StepOver behaves identically to Step: ObjectIR calls never push a
// nested frame, so there is nothing to step past.
func (s *DebuggerService) StepOver() error {
	return s.Step()
}

// StepOut runs the loaded method to completion.
func (s *DebuggerService) StepOut() error {
	s.mu.Lock()
	if s.debugger == nil {
		s.mu.Unlock()
		return fmt.Errorf("no program loaded")
	}
	s.debugger.SetStepOut()
	s.state = StateRunning
	s.mu.Unlock()
	return s.RunUntilPaused()
}

// RunUntilPaused advances execution until a breakpoint, watchpoint,
// completion, or error, emitting output chunks through onOutput as
// console writes occur.
func (s *DebuggerService) RunUntilPaused() error {
	for {
		s.mu.Lock()
		if !s.debugger.Running {
			if s.state == StateRunning {
				s.state = StateHalted
			}
			s.mu.Unlock()
			return nil
		}

		if shouldBreak, _ := s.debugger.ShouldBreak(); shouldBreak {
			s.debugger.Running = false
			s.state = StateBreakpoint
			s.mu.Unlock()
			return nil
		}

		if s.debugger.Frame == nil || s.debugger.Frame.Done(s.instructionCountLocked()) {
			s.debugger.Running = false
			s.state = StateHalted
			s.mu.Unlock()
			return nil
		}

		err := s.debugger.Advance()
		s.emitOutputLocked()
		if err != nil {
			s.debugger.Running = false
			s.state = StateError
			s.lastErr = err
			s.mu.Unlock()
			return err
		}
		s.mu.Unlock()
	}
}

func (s *DebuggerService) instructionCountLocked() int {
	instructions, ok := s.program.Methods[s.methodName]
	if !ok {
		return 0
	}
	return len(instructions)
}

func (s *DebuggerService) refreshStateLocked() {
	s.emitOutputLocked()
	if s.debugger.Frame != nil && s.debugger.Frame.Done(s.instructionCountLocked()) {
		s.state = StateHalted
		return
	}
	s.state = StateHalted
}

func (s *DebuggerService) emitOutputLocked() {
	full := s.executor.Output()
	if len(full) <= s.outputSeen || s.onOutput == nil {
		s.outputSeen = len(full)
		return
	}
	chunk := full[s.outputSeen:]
	s.outputSeen = len(full)
	s.onOutput(chunk)
}

// Pause stops a running session at its next check point.
func (s *DebuggerService) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.debugger != nil {
		s.debugger.Running = false
	}
	s.state = StateHalted
}

// Reset reloads the currently configured method from its first
// instruction, clearing the frame but keeping breakpoints/watchpoints.
func (s *DebuggerService) Reset(args map[string]value.Value) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.debugger == nil {
		return fmt.Errorf("no program loaded")
	}
	if err := s.debugger.LoadMethod(s.methodName, args); err != nil {
		return err
	}
	s.state = StateHalted
	s.lastErr = nil
	return nil
}

// State reports the session's current execution state.
func (s *DebuggerService) State() ExecutionState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// LastError returns the most recent runtime error, if any.
func (s *DebuggerService) LastError() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}

// Output returns all console output produced so far.
func (s *DebuggerService) Output() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.executor == nil {
		return ""
	}
	return s.executor.Output()
}

// FrameState snapshots the currently loaded frame for display.
func (s *DebuggerService) FrameState() FrameState {
	s.mu.RLock()
	defer s.mu.RUnlock()

	fs := FrameState{Method: s.methodName}
	if s.debugger == nil || s.debugger.Frame == nil {
		return fs
	}

	fr := s.debugger.Frame
	fs.PC = fr.PC
	fs.Args = toValueInfoList(fr.Args())
	fs.Locals = toValueInfoList(fr.Locals())
	for _, v := range fr.StackSnapshot() {
		fs.Stack = append(fs.Stack, v.String())
	}
	if fr.ReturnValue != nil {
		rv := fr.ReturnValue.String()
		fs.ReturnValue = &rv
	}
	return fs
}

func toValueInfoList(m map[string]value.Value) []ValueInfo {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]ValueInfo, 0, len(names))
	for _, name := range names {
		v := m[name]
		out = append(out, ValueInfo{Name: name, Value: v.String(), Type: v.Type.String()})
	}
	return out
}

// AddBreakpoint adds a breakpoint at method:pc.
func (s *DebuggerService) AddBreakpoint(method string, pc int, condition string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	loc := debugger.Location{Method: method, PC: pc}
	bp := s.debugger.Breakpoints.AddBreakpoint(loc, false, condition)
	return bp.ID
}

// RemoveBreakpoint deletes a breakpoint by ID.
func (s *DebuggerService) RemoveBreakpoint(id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.debugger.Breakpoints.DeleteBreakpoint(id)
}

// Breakpoints returns all breakpoints.
func (s *DebuggerService) Breakpoints() []BreakpointInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	bps := s.debugger.Breakpoints.GetAllBreakpoints()
	out := make([]BreakpointInfo, len(bps))
	for i, bp := range bps {
		out[i] = BreakpointInfo{
			ID:        bp.ID,
			Method:    bp.Location.Method,
			PC:        bp.Location.PC,
			Enabled:   bp.Enabled,
			Condition: bp.Condition,
			HitCount:  bp.HitCount,
		}
	}
	return out
}

// AddWatchpoint watches a local or argument's value for changes.
func (s *DebuggerService) AddWatchpoint(name string, isArg bool) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	kind := debugger.WatchLocal
	if isArg {
		kind = debugger.WatchArg
	}
	wp := s.debugger.Watchpoints.AddWatchpoint(kind, name)
	_ = s.debugger.Watchpoints.InitializeWatchpoint(wp.ID, s.debugger.Frame)
	return wp.ID
}

// RemoveWatchpoint deletes a watchpoint by ID.
func (s *DebuggerService) RemoveWatchpoint(id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.debugger.Watchpoints.DeleteWatchpoint(id)
}

// Watchpoints returns all watchpoints.
func (s *DebuggerService) Watchpoints() []WatchpointInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	wps := s.debugger.Watchpoints.GetAllWatchpoints()
	out := make([]WatchpointInfo, len(wps))
	for i, wp := range wps {
		kind := "local"
		if wp.Kind == debugger.WatchArg {
			kind = "arg"
		}
		out[i] = WatchpointInfo{ID: wp.ID, Name: wp.Name, Kind: kind, LastValue: wp.LastValue.String()}
	}
	return out
}

// ExecuteCommand runs a single debugger command line and returns its
// textual output, for the console-command style API endpoint.
func (s *DebuggerService) ExecuteCommand(command string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.debugger == nil {
		return "", fmt.Errorf("no program loaded")
	}
	err := s.debugger.ExecuteCommand(command)
	output := s.debugger.GetOutput()
	return output, err
}

// EvaluateExpression evaluates expr against the current frame.
func (s *DebuggerService) EvaluateExpression(expr string) (value.Value, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.debugger == nil {
		return value.Value{}, fmt.Errorf("no program loaded")
	}
	return s.debugger.Evaluator.EvaluateExpression(expr, s.debugger.Frame)
}

// warningSink adapts diag.Sink to a slice of strings, for reporting
// standard-library preload warnings back over the API without pulling
// in a full diag.List per session.
type warningSink struct {
	messages []string
}

func (w *warningSink) Warn(pos diag.Position, format string, args ...any) {
	w.messages = append(w.messages, fmt.Sprintf("%s: %s", pos, fmt.Sprintf(format, args...)))
}
