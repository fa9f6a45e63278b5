package debugger

// TUI Display Update Constants
const (
	// DisplayUpdateFrequency controls how often the TUI display updates during continuous execution
	// (every N cycles to keep display responsive without overwhelming the terminal)
	DisplayUpdateFrequency = 100
)

// Code View Context Constants
const (
	// CodeContextLinesBefore is the default number of lines to show before PC in the full code view
	CodeContextLinesBefore = 20

	// CodeContextLinesAfter is the default number of lines to show after PC in the full code view
	CodeContextLinesAfter = 80

	// CodeContextLinesBeforeCompact is the number of lines to show before PC in compact views
	CodeContextLinesBeforeCompact = 5

	// CodeContextLinesAfterCompact is the number of lines to show after PC in compact views
	CodeContextLinesAfterCompact = 10
)

// Stack Display Constants
const (
	// StackDisplayDepth is the number of operand stack entries (from the
	// top) to show in the stack inspection panel.
	StackDisplayDepth = 16
)

// Locals/Args Display Constants
const (
	// LocalsDisplayMax is the maximum number of locals/arguments shown
	// per panel before truncating with a "... N more" marker.
	LocalsDisplayMax = 32
)
