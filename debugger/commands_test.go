package debugger

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/objectir/objectir/config"
	"github.com/objectir/objectir/exec"
	"github.com/objectir/objectir/parser"
	"github.com/objectir/objectir/value"
)

const cmdTestProgram = `method Main(n:Int32) -> Int32 {
ldarg n
ldc.i4 1
add
ret
}`

func newCommandTestDebugger(t *testing.T) *Debugger {
	t.Helper()
	program := parser.Parse(cmdTestProgram)
	ex := exec.New(program, nil, nil)
	dbg := NewDebugger(ex, program, config.DefaultConfig())
	require.NoError(t, dbg.LoadMethod("Main", map[string]value.Value{"n": value.Int32Value(4)}))
	return dbg
}

func TestCmdRun_StartsExecutionFromFirstInstruction(t *testing.T) {
	dbg := newCommandTestDebugger(t)
	require.NoError(t, dbg.ExecuteCommand("run"))
	assert.True(t, dbg.Running)
	assert.Equal(t, StepNone, dbg.StepMode)
	assert.Contains(t, dbg.GetOutput(), "Starting execution of Main")
}

func TestCmdStep_SetsSingleStepMode(t *testing.T) {
	dbg := newCommandTestDebugger(t)
	require.NoError(t, dbg.ExecuteCommand("step"))
	assert.Equal(t, StepSingle, dbg.StepMode)
	assert.True(t, dbg.Running)
}

func TestCmdBreakAndDelete(t *testing.T) {
	dbg := newCommandTestDebugger(t)
	require.NoError(t, dbg.ExecuteCommand("break Main:2"))
	require.Len(t, dbg.Breakpoints.GetAllBreakpoints(), 1)
	bp := dbg.Breakpoints.GetAllBreakpoints()[0]
	assert.Equal(t, 2, bp.Location.PC)

	require.NoError(t, dbg.ExecuteCommand("delete"))
	assert.Empty(t, dbg.Breakpoints.GetAllBreakpoints())
}

func TestCmdBreak_DefaultsMethodToCurrentlyLoaded(t *testing.T) {
	dbg := newCommandTestDebugger(t)
	require.NoError(t, dbg.ExecuteCommand("break 1"))
	bp := dbg.Breakpoints.GetAllBreakpoints()[0]
	assert.Equal(t, "Main", bp.Location.Method)
	assert.Equal(t, 1, bp.Location.PC)
}

func TestCmdBreak_MissingArgumentErrors(t *testing.T) {
	dbg := newCommandTestDebugger(t)
	assert.Error(t, dbg.ExecuteCommand("break"))
}

func TestCmdWatch_PicksArgKindWhenNoLocalExists(t *testing.T) {
	dbg := newCommandTestDebugger(t)
	require.NoError(t, dbg.ExecuteCommand("watch n"))
	wps := dbg.Watchpoints.GetAllWatchpoints()
	require.Len(t, wps, 1)
	assert.Equal(t, WatchArg, wps[0].Kind)
}

func TestCmdPrint_EvaluatesArgument(t *testing.T) {
	dbg := newCommandTestDebugger(t)
	require.NoError(t, dbg.ExecuteCommand("print n"))
	assert.Contains(t, dbg.GetOutput(), "4")
}

func TestCmdPrint_NoExpressionErrors(t *testing.T) {
	dbg := newCommandTestDebugger(t)
	assert.Error(t, dbg.ExecuteCommand("print"))
}

func TestCmdInfoArgs_ListsArguments(t *testing.T) {
	dbg := newCommandTestDebugger(t)
	require.NoError(t, dbg.ExecuteCommand("info args"))
	assert.Contains(t, dbg.GetOutput(), "n = 4")
}

func TestCmdInfoLocals_NoLocalsSaysSo(t *testing.T) {
	dbg := newCommandTestDebugger(t)
	require.NoError(t, dbg.ExecuteCommand("info locals"))
	assert.Contains(t, dbg.GetOutput(), "No locals")
}

func TestCmdInfo_UnknownSubcommandErrors(t *testing.T) {
	dbg := newCommandTestDebugger(t)
	assert.Error(t, dbg.ExecuteCommand("info bogus"))
}

func TestCmdBacktrace_ShowsCurrentLocation(t *testing.T) {
	dbg := newCommandTestDebugger(t)
	require.NoError(t, dbg.ExecuteCommand("backtrace"))
	assert.Contains(t, dbg.GetOutput(), "Main:0")
}

func TestCmdList_ShowsInstructionsAroundPC(t *testing.T) {
	dbg := newCommandTestDebugger(t)
	require.NoError(t, dbg.ExecuteCommand("list"))
	assert.Contains(t, dbg.GetOutput(), "ldarg n")
}

func TestCmdSet_OverwritesArgumentBinding(t *testing.T) {
	dbg := newCommandTestDebugger(t)
	require.NoError(t, dbg.ExecuteCommand("set n = 9"))
	v, err := dbg.Frame.GetArg("n")
	require.NoError(t, err)
	assert.Equal(t, "9", v.String())
}

func TestCmdReset_ReloadsFromFirstInstruction(t *testing.T) {
	dbg := newCommandTestDebugger(t)
	require.NoError(t, dbg.Advance())
	require.NoError(t, dbg.ExecuteCommand("reset"))
	assert.Equal(t, 0, dbg.Frame.PC)
}

func TestCmdHelp_ListsCommandsAndDetail(t *testing.T) {
	dbg := newCommandTestDebugger(t)
	require.NoError(t, dbg.ExecuteCommand("help"))
	assert.Contains(t, dbg.GetOutput(), "ObjectIR Debugger Commands")

	dbg.Output.Reset()
	require.NoError(t, dbg.ExecuteCommand("help break"))
	assert.Contains(t, dbg.GetOutput(), "Set a breakpoint")
}

func TestCmdHelp_UnknownCommandErrors(t *testing.T) {
	dbg := newCommandTestDebugger(t)
	assert.Error(t, dbg.ExecuteCommand("help bogus"))
}

func TestExecuteCommand_EmptyLineRepeatsLastCommand(t *testing.T) {
	dbg := newCommandTestDebugger(t)
	require.NoError(t, dbg.ExecuteCommand("info args"))
	dbg.Output.Reset()
	require.NoError(t, dbg.ExecuteCommand(""))
	assert.Contains(t, dbg.GetOutput(), "n = 4")
}

func TestExecuteCommand_UnknownCommandErrors(t *testing.T) {
	dbg := newCommandTestDebugger(t)
	err := dbg.ExecuteCommand("frobnicate")
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "frobnicate") || strings.Contains(err.Error(), "unknown"))
}
