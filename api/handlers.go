package api

import (
	"fmt"
	"net/http"

	"github.com/objectir/objectir/value"
)

// handleCreateSession handles POST /api/v1/session (and /api/v1/programs).
func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req SessionCreateRequest
	_ = readJSON(r, &req) // empty body is valid: use server defaults

	session, err := s.sessions.CreateSession(req)
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to create session: %v", err))
		return
	}

	writeJSON(w, http.StatusCreated, SessionCreateResponse{
		SessionID: session.ID,
		CreatedAt: session.CreatedAt,
	})
}

// handleListSessions handles GET /api/v1/session.
func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	ids := s.sessions.ListSessions()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"sessions": ids,
		"count":    len(ids),
	})
}

// handleGetSessionStatus handles GET /api/v1/session/{id}.
func (s *Server) handleGetSessionStatus(w http.ResponseWriter, r *http.Request, sessionID string) {
	session, err := s.sessions.GetSession(sessionID)
	if err != nil {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}

	resp := SessionStatusResponse{
		SessionID: sessionID,
		State:     string(session.Service.State()),
		Frame:     session.Service.FrameState(),
	}
	if lastErr := session.Service.LastError(); lastErr != nil {
		resp.Error = lastErr.Error()
	}

	writeJSON(w, http.StatusOK, resp)
}

// handleDestroySession handles DELETE /api/v1/session/{id}.
func (s *Server) handleDestroySession(w http.ResponseWriter, r *http.Request, sessionID string) {
	if err := s.sessions.DestroySession(sessionID); err != nil {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	writeJSON(w, http.StatusOK, SuccessResponse{Success: true, Message: "session destroyed"})
}

// handleLoadProgram handles POST /api/v1/session/{id}/load (and
// .../execute): parses source and prepares a method invocation, but
// does not start executing it.
func (s *Server) handleLoadProgram(w http.ResponseWriter, r *http.Request, sessionID string) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	session, err := s.sessions.GetSession(sessionID)
	if err != nil {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}

	var req LoadProgramRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Method == "" {
		writeError(w, http.StatusBadRequest, "method is required")
		return
	}

	args := toArgValues(req.Args, req.ArgTypes)
	if loadErr := session.Service.LoadProgram(req.Source, req.Method, args); loadErr != nil {
		writeJSON(w, http.StatusBadRequest, LoadProgramResponse{Success: false, Error: loadErr.Error()})
		return
	}

	writeJSON(w, http.StatusOK, LoadProgramResponse{Success: true, Warnings: session.Service.Warnings()})
}

// toArgValues converts JSON-decoded argument scalars into tagged
// values, defaulting to Int32 for numeric values with no declared type.
func toArgValues(args map[string]any, types map[string]string) map[string]value.Value {
	out := make(map[string]value.Value, len(args))
	for name, raw := range args {
		t := value.Int32
		if typeName, ok := types[name]; ok {
			t = value.ParseType(typeName)
		}
		switch v := raw.(type) {
		case float64:
			switch t {
			case value.Float, value.Double:
				out[name] = value.New(v, t)
			default:
				out[name] = value.New(int64(v), t)
			}
		case string:
			out[name] = value.StringValue(v)
		case bool:
			out[name] = value.BoolValue(v)
		default:
			out[name] = value.Null()
		}
	}
	return out
}

// handleRun handles POST /api/v1/session/{id}/run (and .../continue):
// starts (or resumes) execution asynchronously, returning immediately.
func (s *Server) handleRun(w http.ResponseWriter, r *http.Request, sessionID string) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	session, err := s.sessions.GetSession(sessionID)
	if err != nil {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}

	if err := session.Service.Continue(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	go func() {
		_ = session.Service.RunUntilPaused()
		s.broadcaster.BroadcastExecutionEvent(sessionID, "paused", map[string]interface{}{
			"state": string(session.Service.State()),
		})
	}()

	writeJSON(w, http.StatusOK, SuccessResponse{Success: true, Message: "execution started"})
}

// handleStop handles POST /api/v1/session/{id}/stop (and .../pause).
func (s *Server) handleStop(w http.ResponseWriter, r *http.Request, sessionID string) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	session, err := s.sessions.GetSession(sessionID)
	if err != nil {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}

	session.Service.Pause()
	writeJSON(w, http.StatusOK, SuccessResponse{Success: true, Message: "execution paused"})
}

// handleStep handles POST /api/v1/session/{id}/step.
func (s *Server) handleStep(w http.ResponseWriter, r *http.Request, sessionID string) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	session, err := s.sessions.GetSession(sessionID)
	if err != nil {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}

	if err := session.Service.Step(); err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("step failed: %v", err))
		return
	}

	s.broadcaster.BroadcastState(sessionID, map[string]interface{}{"frame": session.Service.FrameState()})
	writeJSON(w, http.StatusOK, session.Service.FrameState())
}

// handleStepOver handles POST /api/v1/session/{id}/step-over.
func (s *Server) handleStepOver(w http.ResponseWriter, r *http.Request, sessionID string) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	session, err := s.sessions.GetSession(sessionID)
	if err != nil {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	if err := session.Service.StepOver(); err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("step failed: %v", err))
		return
	}
	writeJSON(w, http.StatusOK, session.Service.FrameState())
}

// handleStepOut handles POST /api/v1/session/{id}/step-out.
func (s *Server) handleStepOut(w http.ResponseWriter, r *http.Request, sessionID string) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	session, err := s.sessions.GetSession(sessionID)
	if err != nil {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	if err := session.Service.StepOut(); err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("step-out failed: %v", err))
		return
	}
	writeJSON(w, http.StatusOK, session.Service.FrameState())
}

// handleReset handles POST /api/v1/session/{id}/reset.
func (s *Server) handleReset(w http.ResponseWriter, r *http.Request, sessionID string) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	session, err := s.sessions.GetSession(sessionID)
	if err != nil {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}

	var req LoadProgramRequest
	_ = readJSON(r, &req)
	args := toArgValues(req.Args, req.ArgTypes)

	if err := session.Service.Reset(args); err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("reset failed: %v", err))
		return
	}
	writeJSON(w, http.StatusOK, SuccessResponse{Success: true, Message: "session reset"})
}

// handleGetOutput handles GET /api/v1/session/{id}/output (and .../console).
func (s *Server) handleGetOutput(w http.ResponseWriter, r *http.Request, sessionID string) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	session, err := s.sessions.GetSession(sessionID)
	if err != nil {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	writeJSON(w, http.StatusOK, OutputResponse{Output: session.Service.Output()})
}

// handleGetFrame handles GET /api/v1/session/{id}/frame.
func (s *Server) handleGetFrame(w http.ResponseWriter, r *http.Request, sessionID string) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	session, err := s.sessions.GetSession(sessionID)
	if err != nil {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	writeJSON(w, http.StatusOK, session.Service.FrameState())
}

// handleBreakpoint handles POST /api/v1/session/{id}/breakpoint.
func (s *Server) handleBreakpoint(w http.ResponseWriter, r *http.Request, sessionID string) {
	session, err := s.sessions.GetSession(sessionID)
	if err != nil {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}

	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req BreakpointRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	id := session.Service.AddBreakpoint(req.Method, req.PC, req.Condition)
	writeJSON(w, http.StatusOK, map[string]interface{}{"id": id})
}

// handleDeleteBreakpoint handles DELETE /api/v1/session/{id}/breakpoint/{id}.
func (s *Server) handleDeleteBreakpoint(w http.ResponseWriter, r *http.Request, sessionID, idStr string) {
	session, err := s.sessions.GetSession(sessionID)
	if err != nil {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	id := 0
	if _, scanErr := fmt.Sscanf(idStr, "%d", &id); scanErr != nil {
		writeError(w, http.StatusBadRequest, "invalid breakpoint id")
		return
	}
	if err := session.Service.RemoveBreakpoint(id); err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, SuccessResponse{Success: true, Message: "breakpoint removed"})
}

// handleListBreakpoints handles GET /api/v1/session/{id}/breakpoints.
func (s *Server) handleListBreakpoints(w http.ResponseWriter, r *http.Request, sessionID string) {
	session, err := s.sessions.GetSession(sessionID)
	if err != nil {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"breakpoints": session.Service.Breakpoints()})
}

// handleWatchpoint handles POST /api/v1/session/{id}/watchpoint.
func (s *Server) handleWatchpoint(w http.ResponseWriter, r *http.Request, sessionID string) {
	session, err := s.sessions.GetSession(sessionID)
	if err != nil {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req WatchpointRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	id := session.Service.AddWatchpoint(req.Name, req.IsArg)
	writeJSON(w, http.StatusOK, map[string]interface{}{"id": id})
}

// handleDeleteWatchpoint handles DELETE /api/v1/session/{id}/watchpoint/{id}.
func (s *Server) handleDeleteWatchpoint(w http.ResponseWriter, r *http.Request, sessionID, idStr string) {
	session, err := s.sessions.GetSession(sessionID)
	if err != nil {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	id := 0
	if _, scanErr := fmt.Sscanf(idStr, "%d", &id); scanErr != nil {
		writeError(w, http.StatusBadRequest, "invalid watchpoint id")
		return
	}
	if err := session.Service.RemoveWatchpoint(id); err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, SuccessResponse{Success: true, Message: "watchpoint removed"})
}

// handleListWatchpoints handles GET /api/v1/session/{id}/watchpoints.
func (s *Server) handleListWatchpoints(w http.ResponseWriter, r *http.Request, sessionID string) {
	session, err := s.sessions.GetSession(sessionID)
	if err != nil {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"watchpoints": session.Service.Watchpoints()})
}

// handleEvaluateExpression handles POST /api/v1/session/{id}/evaluate.
func (s *Server) handleEvaluateExpression(w http.ResponseWriter, r *http.Request, sessionID string) {
	session, err := s.sessions.GetSession(sessionID)
	if err != nil {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req EvaluateRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, evalErr := session.Service.EvaluateExpression(req.Expression)
	if evalErr != nil {
		writeError(w, http.StatusBadRequest, evalErr.Error())
		return
	}

	writeJSON(w, http.StatusOK, EvaluateResponse{Value: result.String(), Type: result.Type.String()})
}

// handleExecuteCommand handles POST /api/v1/session/{id}/command: runs
// one line of debugger-command syntax and returns its text output.
func (s *Server) handleExecuteCommand(w http.ResponseWriter, r *http.Request, sessionID string) {
	session, err := s.sessions.GetSession(sessionID)
	if err != nil {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req CommandRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	output, cmdErr := session.Service.ExecuteCommand(req.Command)
	if cmdErr != nil {
		writeJSON(w, http.StatusOK, CommandResponse{Output: output + cmdErr.Error()})
		return
	}
	writeJSON(w, http.StatusOK, CommandResponse{Output: output})
}
