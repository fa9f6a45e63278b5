package api

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"sync"
	"time"

	"github.com/objectir/objectir/config"
	"github.com/objectir/objectir/service"
)

// ErrSessionNotFound is returned when a session is not found.
var ErrSessionNotFound = errors.New("session not found")

// Session pairs one execution service with the bookkeeping the API
// layer needs around it.
type Session struct {
	ID         string
	Service    *service.DebuggerService
	OutputSink *EventWriter
	CreatedAt  time.Time
}

// SessionManager manages every live execution session, the way the
// reference runtime's SessionManager owned one VM-backed session per
// connected front end.
type SessionManager struct {
	sessions    map[string]*Session
	broadcaster *Broadcaster
	cfg         *config.Config
	mu          sync.RWMutex
}

// NewSessionManager creates a new session manager broadcasting session
// output and state through broadcaster.
func NewSessionManager(broadcaster *Broadcaster, cfg *config.Config) *SessionManager {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return &SessionManager{
		sessions:    make(map[string]*Session),
		broadcaster: broadcaster,
		cfg:         cfg,
	}
}

// CreateSession creates a new session with a unique ID, wiring its
// console output to broadcast over WebSocket.
func (sm *SessionManager) CreateSession(req SessionCreateRequest) (*Session, error) {
	sessionID, err := generateSessionID()
	if err != nil {
		return nil, err
	}

	cfg := *sm.cfg
	if len(req.PreloadModules) > 0 {
		cfg.Stdlib.PreloadModules = req.PreloadModules
	}

	sink := NewEventWriter(sm.broadcaster, sessionID, "stdout")
	onOutput := func(chunk string) {
		sink.Write([]byte(chunk))
	}
	debugLog("Session %s: created, preload modules %v", sessionID, cfg.Stdlib.PreloadModules)

	svc := service.NewDebuggerService(&cfg, onOutput)

	session := &Session{
		ID:         sessionID,
		Service:    svc,
		OutputSink: sink,
		CreatedAt:  time.Now(),
	}

	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.sessions[sessionID] = session
	return session, nil
}

// GetSession retrieves a session by ID.
func (sm *SessionManager) GetSession(sessionID string) (*Session, error) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	session, exists := sm.sessions[sessionID]
	if !exists {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

// DestroySession removes a session by ID.
func (sm *SessionManager) DestroySession(sessionID string) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if _, exists := sm.sessions[sessionID]; !exists {
		return ErrSessionNotFound
	}
	delete(sm.sessions, sessionID)
	return nil
}

// ListSessions returns a list of all session IDs.
func (sm *SessionManager) ListSessions() []string {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	ids := make([]string, 0, len(sm.sessions))
	for id := range sm.sessions {
		ids = append(ids, id)
	}
	return ids
}

// Count returns the number of active sessions.
func (sm *SessionManager) Count() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.sessions)
}

// generateSessionID generates a unique session ID.
func generateSessionID() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
