package debugger

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// RunCLI runs the line-oriented command-line debugger interface.
func RunCLI(dbg *Debugger) error {
	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Print("(objectir-dbg) ")

		if !scanner.Scan() {
			break
		}

		cmdLine := strings.TrimSpace(scanner.Text())

		if cmdLine == "quit" || cmdLine == "q" || cmdLine == "exit" {
			fmt.Println("Exiting debugger...")
			break
		}

		if err := dbg.ExecuteCommand(cmdLine); err != nil {
			fmt.Printf("Error: %v\n", err)
		}

		if output := dbg.GetOutput(); output != "" {
			fmt.Print(output)
		}

		if dbg.Running {
			runUntilPaused(dbg)
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("input error: %w", err)
	}

	return nil
}

// runUntilPaused advances the loaded method until a breakpoint,
// watchpoint, step-mode stop, or method completion.
func runUntilPaused(dbg *Debugger) {
	for dbg.Running {
		if shouldBreak, reason := dbg.ShouldBreak(); shouldBreak {
			dbg.Running = false
			fmt.Printf("Stopped: %s at %s\n", reason, dbg.CurrentLocation())
			break
		}

		if dbg.Frame == nil || dbg.Frame.Done(len(dbg.instructions)) {
			dbg.Running = false
			if dbg.Frame != nil && dbg.Frame.ReturnValue != nil {
				fmt.Printf("Method %s returned %s\n", dbg.methodName, *dbg.Frame.ReturnValue)
			} else {
				fmt.Printf("Method %s completed\n", dbg.methodName)
			}
			break
		}

		if err := dbg.Advance(); err != nil {
			fmt.Printf("Runtime error: %v\n", err)
			dbg.Running = false
			break
		}
	}
}

// RunTUI runs the text user interface debugger.
func RunTUI(dbg *Debugger) error {
	tui := NewTUI(dbg)
	return tui.Run()
}
