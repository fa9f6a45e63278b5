package debugger

import (
	"fmt"
	"sync"

	"github.com/objectir/objectir/frame"
	"github.com/objectir/objectir/value"
)

// WatchKind distinguishes whether a watchpoint tracks a local or an
// argument binding within a frame.
type WatchKind int

const (
	WatchLocal WatchKind = iota
	WatchArg
)

// Watchpoint monitors a single local or argument for value changes
// across steps, in place of the address/register watching a memory-
// mapped VM would do.
type Watchpoint struct {
	ID        int
	Kind      WatchKind
	Name      string
	Enabled   bool
	LastValue value.Value
	HasValue  bool
	HitCount  int
}

// WatchpointManager manages all watchpoints for one debugging session.
type WatchpointManager struct {
	mu          sync.RWMutex
	watchpoints map[int]*Watchpoint
	nextID      int
}

func NewWatchpointManager() *WatchpointManager {
	return &WatchpointManager{
		watchpoints: make(map[int]*Watchpoint),
		nextID:      1,
	}
}

// AddWatchpoint adds a new watchpoint on a local or argument name.
func (wm *WatchpointManager) AddWatchpoint(kind WatchKind, name string) *Watchpoint {
	wm.mu.Lock()
	defer wm.mu.Unlock()

	wp := &Watchpoint{
		ID:      wm.nextID,
		Kind:    kind,
		Name:    name,
		Enabled: true,
	}

	wm.watchpoints[wp.ID] = wp
	wm.nextID++

	return wp
}

func (wm *WatchpointManager) DeleteWatchpoint(id int) error {
	wm.mu.Lock()
	defer wm.mu.Unlock()

	if _, exists := wm.watchpoints[id]; !exists {
		return fmt.Errorf("watchpoint %d not found", id)
	}

	delete(wm.watchpoints, id)
	return nil
}

func (wm *WatchpointManager) EnableWatchpoint(id int) error {
	wm.mu.Lock()
	defer wm.mu.Unlock()

	wp, exists := wm.watchpoints[id]
	if !exists {
		return fmt.Errorf("watchpoint %d not found", id)
	}

	wp.Enabled = true
	return nil
}

func (wm *WatchpointManager) DisableWatchpoint(id int) error {
	wm.mu.Lock()
	defer wm.mu.Unlock()

	wp, exists := wm.watchpoints[id]
	if !exists {
		return fmt.Errorf("watchpoint %d not found", id)
	}

	wp.Enabled = false
	return nil
}

func (wm *WatchpointManager) GetWatchpoint(id int) *Watchpoint {
	wm.mu.RLock()
	defer wm.mu.RUnlock()

	return wm.watchpoints[id]
}

func (wm *WatchpointManager) GetAllWatchpoints() []*Watchpoint {
	wm.mu.RLock()
	defer wm.mu.RUnlock()

	result := make([]*Watchpoint, 0, len(wm.watchpoints))
	for _, wp := range wm.watchpoints {
		result = append(result, wp)
	}

	return result
}

// CheckWatchpoints reads each enabled watchpoint's current value out of
// fr and returns the first one whose value differs from what was last
// observed.
func (wm *WatchpointManager) CheckWatchpoints(fr *frame.Frame) (*Watchpoint, bool) {
	wm.mu.Lock()
	defer wm.mu.Unlock()

	for _, wp := range wm.watchpoints {
		if !wp.Enabled {
			continue
		}

		current, err := wm.read(fr, wp)
		if err != nil {
			continue
		}

		if !wp.HasValue || current != wp.LastValue {
			wp.HitCount++
			wp.LastValue = current
			wp.HasValue = true
			return wp, true
		}
	}

	return nil, false
}

func (wm *WatchpointManager) read(fr *frame.Frame, wp *Watchpoint) (value.Value, error) {
	if wp.Kind == WatchArg {
		return fr.GetArg(wp.Name)
	}
	return fr.GetLocal(wp.Name)
}

// InitializeWatchpoint records the current value without treating it as
// a change, so the first CheckWatchpoints call after a step doesn't
// spuriously trigger on a binding that existed before the watch started.
func (wm *WatchpointManager) InitializeWatchpoint(id int, fr *frame.Frame) error {
	wm.mu.Lock()
	defer wm.mu.Unlock()

	wp, exists := wm.watchpoints[id]
	if !exists {
		return fmt.Errorf("watchpoint %d not found", id)
	}

	v, err := wm.read(fr, wp)
	if err != nil {
		return fmt.Errorf("failed to initialize watchpoint: %w", err)
	}
	wp.LastValue = v
	wp.HasValue = true

	return nil
}

func (wm *WatchpointManager) Clear() {
	wm.mu.Lock()
	defer wm.mu.Unlock()

	wm.watchpoints = make(map[int]*Watchpoint)
}

func (wm *WatchpointManager) Count() int {
	wm.mu.RLock()
	defer wm.mu.RUnlock()

	return len(wm.watchpoints)
}
