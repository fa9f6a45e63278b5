package debugger

import (
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

// TUI is the text user interface for the debugger, laid out with a
// source/instruction panel, locals/args and operand stack panels,
// a breakpoints/watchpoints panel, console output, and a command line.
type TUI struct {
	Debugger *Debugger
	App      *tview.Application
	Pages    *tview.Pages

	MainLayout *tview.Flex
	LeftPanel  *tview.Flex
	RightPanel *tview.Flex

	SourceView      *tview.TextView
	LocalsView      *tview.TextView
	StackView       *tview.TextView
	BreakpointsView *tview.TextView
	OutputView      *tview.TextView
	CommandInput    *tview.InputField
}

// NewTUI creates a new text user interface over dbg.
func NewTUI(dbg *Debugger) *TUI {
	tui := &TUI{
		Debugger: dbg,
		App:      tview.NewApplication(),
	}

	tui.initializeViews()
	tui.buildLayout()
	tui.setupKeyBindings()

	return tui
}

func (t *TUI) initializeViews() {
	t.SourceView = tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true).
		SetWrap(false)
	t.SourceView.SetBorder(true).SetTitle(" Instructions ")

	t.LocalsView = tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true).
		SetWrap(false)
	t.LocalsView.SetBorder(true).SetTitle(" Locals / Arguments ")

	t.StackView = tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true).
		SetWrap(false)
	t.StackView.SetBorder(true).SetTitle(" Operand Stack ")

	t.BreakpointsView = tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true).
		SetWrap(false)
	t.BreakpointsView.SetBorder(true).SetTitle(" Breakpoints/Watchpoints ")

	t.OutputView = tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true).
		SetWrap(true)
	t.OutputView.SetBorder(true).SetTitle(" Console ")

	t.CommandInput = tview.NewInputField().
		SetLabel("> ").
		SetFieldWidth(0)
	t.CommandInput.SetBorder(true).SetTitle(" Command ")
	t.CommandInput.SetDoneFunc(t.handleCommand)
}

func (t *TUI) buildLayout() {
	t.LeftPanel = tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(t.SourceView, 0, 3, false)

	rightTop := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(t.LocalsView, 0, 1, false).
		AddItem(t.StackView, 0, 1, false)

	t.RightPanel = tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(rightTop, 0, 3, false).
		AddItem(t.BreakpointsView, 8, 0, false)

	mainContent := tview.NewFlex().
		SetDirection(tview.FlexColumn).
		AddItem(t.LeftPanel, 0, 2, false).
		AddItem(t.RightPanel, 0, 1, false)

	t.MainLayout = tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(mainContent, 0, 4, false).
		AddItem(t.OutputView, 8, 0, false).
		AddItem(t.CommandInput, 3, 0, true)

	t.Pages = tview.NewPages().
		AddPage("main", t.MainLayout, true, true)
}

func (t *TUI) setupKeyBindings() {
	t.App.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Key() {
		case tcell.KeyF1:
			t.executeCommand("help")
			return nil
		case tcell.KeyF5:
			t.executeCommand("continue")
			return nil
		case tcell.KeyF10:
			t.executeCommand("next")
			return nil
		case tcell.KeyF11:
			t.executeCommand("step")
			return nil
		case tcell.KeyCtrlC:
			t.App.Stop()
			return nil
		case tcell.KeyCtrlL:
			t.RefreshAll()
			return nil
		}
		return event
	})
}

func (t *TUI) handleCommand(key tcell.Key) {
	if key == tcell.KeyEnter {
		cmd := t.CommandInput.GetText()
		if cmd != "" {
			t.executeCommand(cmd)
			t.CommandInput.SetText("")
		}
	}
}

func (t *TUI) executeCommand(cmd string) {
	t.Debugger.Output.Reset()

	err := t.Debugger.ExecuteCommand(cmd)
	output := t.Debugger.GetOutput()

	if err != nil {
		t.WriteOutput(fmt.Sprintf("[red]Error:[white] %v\n", err))
	}
	if output != "" {
		t.WriteOutput(output)
	}

	if t.Debugger.Running {
		runUntilPaused(t.Debugger)
		if out := t.Debugger.GetOutput(); out != "" {
			t.WriteOutput(out)
		}
	}

	t.RefreshAll()
}

func (t *TUI) WriteOutput(text string) {
	_, _ = t.OutputView.Write([]byte(text))
	t.OutputView.ScrollToEnd()
}

func (t *TUI) RefreshAll() {
	t.UpdateSourceView()
	t.UpdateLocalsView()
	t.UpdateStackView()
	t.UpdateBreakpointsView()
	t.App.Draw()
}

// UpdateSourceView shows instructions around the current program
// counter, marking the active line and any breakpoint.
func (t *TUI) UpdateSourceView() {
	t.SourceView.Clear()

	dbg := t.Debugger
	if dbg.Frame == nil {
		t.SourceView.SetText("[yellow]No method loaded[white]")
		return
	}

	pc := dbg.Frame.PC
	start := pc - CodeContextLinesBefore
	if start < 0 {
		start = 0
	}
	end := pc + CodeContextLinesAfter
	if end > len(dbg.instructions) {
		end = len(dbg.instructions)
	}

	var lines []string
	for i := start; i < end; i++ {
		marker := "  "
		color := "white"
		if i == pc {
			marker = "->"
			color = "yellow"
		}
		if dbg.Breakpoints.GetBreakpoint(Location{Method: dbg.methodName, PC: i}) != nil {
			marker = "* "
		}
		lines = append(lines, fmt.Sprintf("[%s]%s %4d: %s[white]", color, marker, i, dbg.instructions[i]))
	}

	t.SourceView.SetText(strings.Join(lines, "\n"))
}

// UpdateLocalsView shows the current frame's locals and arguments.
func (t *TUI) UpdateLocalsView() {
	t.LocalsView.Clear()

	dbg := t.Debugger
	if dbg.Frame == nil {
		t.LocalsView.SetText("[yellow]No method loaded[white]")
		return
	}

	var lines []string
	lines = append(lines, "[yellow]Arguments:[white]")
	for _, name := range sortedKeys(dbg.Frame.Args()) {
		v := dbg.Frame.Args()[name]
		lines = append(lines, fmt.Sprintf("  %s = %s", name, v))
	}
	lines = append(lines, "", "[yellow]Locals:[white]")
	for _, name := range sortedKeys(dbg.Frame.Locals()) {
		v := dbg.Frame.Locals()[name]
		lines = append(lines, fmt.Sprintf("  %s = %s", name, v))
	}

	t.LocalsView.SetText(strings.Join(lines, "\n"))
}

// UpdateStackView shows the top entries of the operand stack.
func (t *TUI) UpdateStackView() {
	t.StackView.Clear()

	dbg := t.Debugger
	if dbg.Frame == nil {
		t.StackView.SetText("[yellow]No method loaded[white]")
		return
	}

	stack := dbg.Frame.StackSnapshot()
	var lines []string
	lines = append(lines, fmt.Sprintf("[yellow]Depth: %d[white]", len(stack)))

	start := 0
	if len(stack) > StackDisplayDepth {
		start = len(stack) - StackDisplayDepth
	}
	for i := len(stack) - 1; i >= start; i-- {
		lines = append(lines, fmt.Sprintf("  [%d] %s", i, stack[i]))
	}

	t.StackView.SetText(strings.Join(lines, "\n"))
}

// UpdateBreakpointsView shows all breakpoints and watchpoints.
func (t *TUI) UpdateBreakpointsView() {
	t.BreakpointsView.Clear()

	var lines []string

	bps := t.Debugger.Breakpoints.GetAllBreakpoints()
	if len(bps) > 0 {
		lines = append(lines, "[yellow]Breakpoints:[white]")
		for _, bp := range bps {
			status, color := "enabled", "green"
			if !bp.Enabled {
				status, color = "disabled", "red"
			}
			line := fmt.Sprintf("  %d: [%s]%s[white] %s", bp.ID, color, status, bp.Location)
			if bp.Condition != "" {
				line += fmt.Sprintf(" if %s", bp.Condition)
			}
			line += fmt.Sprintf(" (hits: %d)", bp.HitCount)
			lines = append(lines, line)
		}
	} else {
		lines = append(lines, "[yellow]No breakpoints set[white]")
	}

	lines = append(lines, "")

	wps := t.Debugger.Watchpoints.GetAllWatchpoints()
	if len(wps) > 0 {
		lines = append(lines, "[yellow]Watchpoints:[white]")
		for _, wp := range wps {
			lines = append(lines, fmt.Sprintf("  %d: %s = %s", wp.ID, wp.Name, wp.LastValue))
		}
	}

	t.BreakpointsView.SetText(strings.Join(lines, "\n"))
}

// Run starts the TUI application.
func (t *TUI) Run() error {
	t.RefreshAll()

	t.WriteOutput("[green]ObjectIR Debugger[white]\n")
	t.WriteOutput("Press F1 for help, F5 to continue, F10 for next, F11 to step\n")
	t.WriteOutput("Type 'help' for command list\n\n")

	return t.App.SetRoot(t.Pages, true).SetFocus(t.CommandInput).Run()
}

func (t *TUI) Stop() {
	t.App.Stop()
}
