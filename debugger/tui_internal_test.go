package debugger

import (
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/objectir/objectir/exec"
	"github.com/objectir/objectir/parser"
	"github.com/objectir/objectir/stdlib"
)

func newTestTUI(t *testing.T) *TUI {
	t.Helper()

	program := parser.Parse("class Program {\n  method Main() -> void {\n    ret\n  }\n}\n")
	bridge := stdlib.New(nil, nil)
	ex := exec.New(program, bridge, nil)

	dbg := NewDebugger(ex, program, nil)
	if err := dbg.LoadMethod("Main", nil); err != nil {
		t.Fatalf("LoadMethod: %v", err)
	}

	tui := NewTUI(dbg)

	screen := tcell.NewSimulationScreen("UTF-8")
	if err := screen.Init(); err != nil {
		t.Fatalf("failed to init simulation screen: %v", err)
	}
	t.Cleanup(screen.Fini)
	tui.App.SetScreen(screen)

	return tui
}

// TestExecuteCommandAsync checks that executeCommand completes promptly
// when run off the main goroutine, the way the TUI's command handler
// drives it.
func TestExecuteCommandAsync(t *testing.T) {
	tui := newTestTUI(t)

	done := make(chan bool, 1)
	go func() {
		tui.executeCommand("help")
		done <- true
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("executeCommand blocked for more than 2 seconds - deadlock detected")
	}
}

// TestHandleCommandAsync checks that handleCommand itself returns
// promptly after dispatching a command.
func TestHandleCommandAsync(t *testing.T) {
	tui := newTestTUI(t)
	tui.CommandInput.SetText("help")

	done := make(chan bool, 1)
	go func() {
		tui.handleCommand(tcell.KeyEnter)
		done <- true
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("handleCommand blocked for more than 2 seconds - deadlock detected")
	}
}
