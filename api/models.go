package api

import (
	"time"

	"github.com/objectir/objectir/service"
)

// SessionCreateRequest represents a request to create a new session.
// PreloadModules, if empty, falls back to the server's default config.
type SessionCreateRequest struct {
	PreloadModules []string `json:"preloadModules,omitempty"`
}

// SessionCreateResponse represents the response from creating a session.
type SessionCreateResponse struct {
	SessionID string    `json:"sessionId"`
	CreatedAt time.Time `json:"createdAt"`
}

// LoadProgramRequest represents a request to load and prepare a method
// invocation. Args maps argument names to JSON-encodable scalars; each
// is converted to a tagged value.Value of the type named for it in
// ArgTypes (default Int32).
type LoadProgramRequest struct {
	Source   string            `json:"source"`
	Method   string            `json:"method"`
	Args     map[string]any    `json:"args,omitempty"`
	ArgTypes map[string]string `json:"argTypes,omitempty"`
}

// LoadProgramResponse represents the response from loading a program.
type LoadProgramResponse struct {
	Success  bool     `json:"success"`
	Error    string   `json:"error,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

// SessionStatusResponse represents the current status of a session.
type SessionStatusResponse struct {
	SessionID string             `json:"sessionId"`
	State     string             `json:"state"`
	Frame     service.FrameState `json:"frame"`
	Error     string             `json:"error,omitempty"`
}

// BreakpointRequest represents a request to add a breakpoint.
type BreakpointRequest struct {
	Method    string `json:"method"`
	PC        int    `json:"pc"`
	Condition string `json:"condition,omitempty"`
}

// WatchpointRequest represents a request to add a watchpoint.
type WatchpointRequest struct {
	Name  string `json:"name"`
	IsArg bool   `json:"isArg,omitempty"`
}

// EvaluateRequest represents a request to evaluate an expression.
type EvaluateRequest struct {
	Expression string `json:"expression"`
}

// EvaluateResponse represents the result of evaluating an expression.
type EvaluateResponse struct {
	Value string `json:"value"`
	Type  string `json:"type"`
}

// CommandRequest represents a request to run one debugger command line.
type CommandRequest struct {
	Command string `json:"command"`
}

// CommandResponse represents the textual result of a debugger command.
type CommandResponse struct {
	Output string `json:"output"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    int    `json:"code,omitempty"`
}

// SuccessResponse represents a simple success response.
type SuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// OutputResponse represents accumulated console output.
type OutputResponse struct {
	Output string `json:"output"`
}
