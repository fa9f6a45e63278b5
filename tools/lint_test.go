package tools

import (
	"strings"
	"testing"

	"github.com/objectir/objectir/parser"
)

func containsMessage(t *testing.T, program *parser.Program, substr string) {
	t.Helper()
	warnings := Lint(program)
	for _, w := range warnings {
		if strings.Contains(w.Message, substr) {
			return
		}
	}
	t.Errorf("expected a warning containing %q, got %v", substr, warnings)
}

func TestLint_UnknownOpcode(t *testing.T) {
	program := parser.Parse(`method Main() -> void {
frobnicate
ret
}`)
	containsMessage(t, program, "unknown opcode")
}

func TestLint_CallToUnqualifiedUnknownMethod(t *testing.T) {
	program := parser.Parse(`method Main() -> void {
call DoesNotExist()
ret
}`)
	containsMessage(t, program, "no matching method")
}

func TestLint_NoWarningForKnownLocalCall(t *testing.T) {
	program := parser.Parse(`method Main() -> void {
call Helper()
ret
}
method Helper() -> void {
ret
}`)
	for _, w := range Lint(program) {
		if strings.Contains(w.Message, "no matching method") {
			t.Errorf("unexpected warning for known local call: %s", w.Message)
		}
	}
}

func TestLint_NoWarningForQualifiedStdlibCall(t *testing.T) {
	program := parser.Parse(`method Main() -> void {
ldstr "hi"
call System.Console.WriteLine(string)
ret
}`)
	for _, w := range Lint(program) {
		if strings.Contains(w.Message, "no matching method") {
			t.Errorf("unexpected warning for qualified call: %s", w.Message)
		}
	}
}

func TestLint_UnreachableCodeAfterRet(t *testing.T) {
	program := parser.Parse(`method Main() -> void {
ret
ldc.i4 1
}`)
	containsMessage(t, program, "unreachable code")
}

func TestLint_EmptyClassFlagged(t *testing.T) {
	program := parser.Parse(`class Empty {
}`)
	containsMessage(t, program, "declares no methods")
}
