package exec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/objectir/objectir/parser"
	"github.com/objectir/objectir/stdlib"
	"github.com/objectir/objectir/value"
)

func newExecutor(source string) (*Executor, *parser.Program) {
	prog := parser.Parse(source)
	bridge := stdlib.New([]string{"Generics"}, nil)
	return New(prog, bridge, nil), prog
}

func TestExecute_HelloWorld(t *testing.T) {
	ex, _ := newExecutor(`method Main() -> void {
ldstr "Hello"
call System.Console.WriteLine(string)
ret
}`)

	_, err := ex.Execute("Main", nil)
	require.NoError(t, err)
	assert.Equal(t, "Hello", ex.Output())
}

func TestExecute_Arithmetic(t *testing.T) {
	ex, _ := newExecutor(`method Main() -> Int32 {
ldc.i4 2
ldc.i4 3
add
ret
}`)

	rv, err := ex.Execute("Main", nil)
	require.NoError(t, err)
	require.NotNil(t, rv)
	assert.Equal(t, value.Int32Value(5), *rv)
}

func TestExecute_CeqFalseBranch(t *testing.T) {
	ex, _ := newExecutor(`method Main() -> void {
ldc.i4 1
ldc.i4 2
ceq
if (stack) {
ldstr "True branch executed"
call System.Console.WriteLine(string)
} else {
ldstr "False branch executed (Should happen)"
call System.Console.WriteLine(string)
}
ldstr "Done"
call System.Console.WriteLine(string)
ret
}`)

	_, err := ex.Execute("Main", nil)
	require.NoError(t, err)
	assert.Equal(t, "False branch executed (Should happen)\nDone", ex.Output())
}

func TestExecute_WhileLoop(t *testing.T) {
	ex, _ := newExecutor(`method Main() -> void {
local i:int32
ldc.i4 0
stloc i
while (i<3) {
ldloc i
call System.Console.WriteLine(int32)
ldloc i
ldc.i4 1
add
stloc i
}
ldstr "Done"
call System.Console.WriteLine(string)
ret
}`)

	_, err := ex.Execute("Main", nil)
	require.NoError(t, err)
	assert.Equal(t, "0\n1\n2\nDone", ex.Output())
}

func TestExecute_BreakAndContinue(t *testing.T) {
	ex, _ := newExecutor(`method Main() -> void {
local i:int32
ldc.i4 1
stloc i
while (i<=5) {
ldloc i
ldc.i4 2
ceq
if (stack) {
ldstr "Skipping 2"
call System.Console.WriteLine(string)
ldloc i
ldc.i4 1
add
stloc i
continue
}
ldloc i
ldc.i4 4
ceq
if (stack) {
ldstr "Breaking at 4"
call System.Console.WriteLine(string)
break
}
ldloc i
call System.Console.WriteLine(int32)
ldloc i
ldc.i4 1
add
stloc i
}
ret
}`)

	_, err := ex.Execute("Main", nil)
	require.NoError(t, err)
	assert.Equal(t, "Skipping 2\n1\n3\nBreaking at 4", ex.Output())
}

func TestExecute_ArgNegAndCne(t *testing.T) {
	ex, _ := newExecutor(`method Main(arg1:Int32) -> void {
ldarg arg1
call System.Console.WriteLine(int32)
ldc.i4 5
neg
call System.Console.WriteLine(int32)
ldc.i4 10
ldc.i4 20
cne
if (stack) {
ldstr "PASS: 10 != 20"
call System.Console.WriteLine(string)
}
ret
}`)

	_, err := ex.Execute("Main", map[string]value.Value{"arg1": value.Int32Value(42)})
	require.NoError(t, err)
	assert.Equal(t, "42\n-5\nPASS: 10 != 20", ex.Output())
}

func TestExecute_MethodNotFoundIsFatal(t *testing.T) {
	ex, _ := newExecutor(`method Main() -> void { ret }`)
	_, err := ex.Execute("Missing", nil)
	require.Error(t, err)
}

func TestExecute_StackUnderflowIsFatal(t *testing.T) {
	ex, _ := newExecutor(`method Main() -> Int32 {
add
ret
}`)
	_, err := ex.Execute("Main", nil)
	require.Error(t, err)
}

func TestExecute_IntegerDivideByZeroIsFatal(t *testing.T) {
	ex, _ := newExecutor(`method Main() -> Int32 {
ldc.i4 1
ldc.i4 0
div
ret
}`)
	_, err := ex.Execute("Main", nil)
	require.Error(t, err)
}

func TestExecute_DupIncreasesDepthWithEqualTop(t *testing.T) {
	ex, _ := newExecutor(`method Main() -> Int32 {
ldc.i4 7
dup
add
ret
}`)
	rv, err := ex.Execute("Main", nil)
	require.NoError(t, err)
	assert.Equal(t, value.Int32Value(14), *rv)
}

func TestExecute_StepBudgetStopsARunawayLoop(t *testing.T) {
	ex, _ := newExecutor(`method Main() -> void {
local i:int32
ldc.i4 0
stloc i
while (true) {
ldloc i
ldc.i4 1
add
stloc i
}
ret
}`)
	ex.SetMaxSteps(50)

	_, err := ex.Execute("Main", nil)
	require.Error(t, err)
}

func TestExecute_ZeroMaxStepsIsUnlimited(t *testing.T) {
	ex, _ := newExecutor(`method Main() -> Int32 {
ldc.i4 1
ret
}`)
	ex.SetMaxSteps(0)

	rv, err := ex.Execute("Main", nil)
	require.NoError(t, err)
	assert.Equal(t, value.Int32Value(1), *rv)
}

func TestExecute_CeqOnEqualBoolsIsTrue(t *testing.T) {
	ex, _ := newExecutor(`method Main() -> Bool {
ldtrue
ldtrue
ceq
ret
}`)
	rv, err := ex.Execute("Main", nil)
	require.NoError(t, err)
	require.NotNil(t, rv)
	assert.Equal(t, value.BoolValue(true), *rv)
}

func TestExecute_CneOnDifferentBoolsIsTrue(t *testing.T) {
	ex, _ := newExecutor(`method Main() -> Bool {
ldtrue
ldfalse
cne
ret
}`)
	rv, err := ex.Execute("Main", nil)
	require.NoError(t, err)
	require.NotNil(t, rv)
	assert.Equal(t, value.BoolValue(true), *rv)
}

func TestExecute_CeqOnTwoNullsIsTrue(t *testing.T) {
	ex, _ := newExecutor(`method Main() -> Bool {
ldnull
ldnull
ceq
ret
}`)
	rv, err := ex.Execute("Main", nil)
	require.NoError(t, err)
	require.NotNil(t, rv)
	assert.Equal(t, value.BoolValue(true), *rv)
}

func TestExecute_UnresolvedCallWithNoArgsWarnsAndContinues(t *testing.T) {
	ex, _ := newExecutor(`method Main() -> void {
call System.Math.Sqrt()
ret
}`)
	_, err := ex.Execute("Main", nil)
	require.NoError(t, err, "an unresolvable call target is a warning, not a fatal error")
}
