package debugger

import (
	"testing"
)

func loc(method string, pc int) Location { return Location{Method: method, PC: pc} }

func TestBreakpointManager_AddBreakpoint(t *testing.T) {
	bm := NewBreakpointManager()

	bp := bm.AddBreakpoint(loc("Main", 3), false, "")

	if bp == nil {
		t.Fatal("AddBreakpoint returned nil")
	}
	if bp.ID != 1 {
		t.Errorf("Expected ID 1, got %d", bp.ID)
	}
	if bp.Location != loc("Main", 3) {
		t.Errorf("Expected location Main:3, got %s", bp.Location)
	}
	if !bp.Enabled {
		t.Error("Breakpoint should be enabled by default")
	}
	if bp.Temporary {
		t.Error("Breakpoint should not be temporary")
	}
	if bp.HitCount != 0 {
		t.Errorf("Initial hit count should be 0, got %d", bp.HitCount)
	}
}

func TestBreakpointManager_AddMultiple(t *testing.T) {
	bm := NewBreakpointManager()

	bp1 := bm.AddBreakpoint(loc("Main", 1), false, "")
	bp2 := bm.AddBreakpoint(loc("Main", 2), false, "")

	if bp1.ID == bp2.ID {
		t.Error("Breakpoint IDs should be unique")
	}
	if bm.Count() != 2 {
		t.Errorf("Expected 2 breakpoints, got %d", bm.Count())
	}
}

func TestBreakpointManager_AddDuplicate(t *testing.T) {
	bm := NewBreakpointManager()

	bp1 := bm.AddBreakpoint(loc("Main", 1), false, "")
	bp2 := bm.AddBreakpoint(loc("Main", 1), false, "i == 5")

	if bp1.ID != bp2.ID {
		t.Error("Duplicate location should update existing breakpoint")
	}
	if bp2.Condition != "i == 5" {
		t.Error("Condition not updated")
	}
}

func TestBreakpointManager_DeleteBreakpoint(t *testing.T) {
	bm := NewBreakpointManager()

	bp := bm.AddBreakpoint(loc("Main", 1), false, "")

	if err := bm.DeleteBreakpoint(bp.ID); err != nil {
		t.Fatalf("DeleteBreakpoint failed: %v", err)
	}
	if bm.GetBreakpoint(loc("Main", 1)) != nil {
		t.Error("Breakpoint not deleted")
	}
	if err := bm.DeleteBreakpoint(999); err == nil {
		t.Error("Expected error when deleting non-existent breakpoint")
	}
}

func TestBreakpointManager_EnableDisable(t *testing.T) {
	bm := NewBreakpointManager()

	bp := bm.AddBreakpoint(loc("Main", 1), false, "")

	if err := bm.DisableBreakpoint(bp.ID); err != nil {
		t.Fatalf("DisableBreakpoint failed: %v", err)
	}
	if bp.Enabled {
		t.Error("Breakpoint not disabled")
	}

	if err := bm.EnableBreakpoint(bp.ID); err != nil {
		t.Fatalf("EnableBreakpoint failed: %v", err)
	}
	if !bp.Enabled {
		t.Error("Breakpoint not enabled")
	}
}

func TestBreakpointManager_GetBreakpoint(t *testing.T) {
	bm := NewBreakpointManager()

	bm.AddBreakpoint(loc("Main", 1), false, "")
	bm.AddBreakpoint(loc("Helper", 2), false, "")

	bp := bm.GetBreakpoint(loc("Main", 1))
	if bp == nil {
		t.Fatal("GetBreakpoint returned nil")
	}
	if bp.Location != loc("Main", 1) {
		t.Errorf("Wrong breakpoint returned: got %s", bp.Location)
	}

	if bm.GetBreakpoint(loc("Main", 99)) != nil {
		t.Error("GetBreakpoint should return nil for non-existent location")
	}
}

func TestBreakpointManager_GetBreakpointByID(t *testing.T) {
	bm := NewBreakpointManager()

	bp1 := bm.AddBreakpoint(loc("Main", 1), false, "")
	bp2 := bm.AddBreakpoint(loc("Helper", 2), false, "")

	if found := bm.GetBreakpointByID(bp1.ID); found != bp1 {
		t.Error("GetBreakpointByID returned wrong breakpoint")
	}
	if found := bm.GetBreakpointByID(bp2.ID); found != bp2 {
		t.Error("GetBreakpointByID returned wrong breakpoint")
	}
	if found := bm.GetBreakpointByID(999); found != nil {
		t.Error("GetBreakpointByID should return nil for non-existent ID")
	}
}

func TestBreakpointManager_GetAllBreakpoints(t *testing.T) {
	bm := NewBreakpointManager()

	bm.AddBreakpoint(loc("Main", 1), false, "")
	bm.AddBreakpoint(loc("Main", 2), false, "")
	bm.AddBreakpoint(loc("Helper", 1), false, "")

	if all := bm.GetAllBreakpoints(); len(all) != 3 {
		t.Errorf("Expected 3 breakpoints, got %d", len(all))
	}
}

func TestBreakpointManager_Clear(t *testing.T) {
	bm := NewBreakpointManager()

	bm.AddBreakpoint(loc("Main", 1), false, "")
	bm.AddBreakpoint(loc("Main", 2), false, "")

	bm.Clear()

	if bm.Count() != 0 {
		t.Errorf("Expected 0 breakpoints after clear, got %d", bm.Count())
	}
}

func TestBreakpointManager_HasBreakpoint(t *testing.T) {
	bm := NewBreakpointManager()

	bm.AddBreakpoint(loc("Main", 1), false, "")

	if !bm.HasBreakpoint(loc("Main", 1)) {
		t.Error("HasBreakpoint returned false for existing breakpoint")
	}
	if bm.HasBreakpoint(loc("Main", 2)) {
		t.Error("HasBreakpoint returned true for non-existent breakpoint")
	}
}

func TestBreakpoint_Temporary(t *testing.T) {
	bm := NewBreakpointManager()

	bp := bm.AddBreakpoint(loc("Main", 1), true, "")

	if !bp.Temporary {
		t.Error("Breakpoint should be temporary")
	}
}

func TestBreakpoint_Condition(t *testing.T) {
	bm := NewBreakpointManager()

	condition := "i == 42"
	bp := bm.AddBreakpoint(loc("Main", 1), false, condition)

	if bp.Condition != condition {
		t.Errorf("Condition = %s, want %s", bp.Condition, condition)
	}
}

func TestBreakpoint_HitCount(t *testing.T) {
	bm := NewBreakpointManager()

	bp := bm.AddBreakpoint(loc("Main", 1), false, "")

	if bp.HitCount != 0 {
		t.Errorf("Initial hit count = %d, want 0", bp.HitCount)
	}

	bp.HitCount++
	bp.HitCount++

	if bp.HitCount != 2 {
		t.Errorf("Hit count = %d, want 2", bp.HitCount)
	}
}

func TestBreakpointManager_ProcessHit(t *testing.T) {
	bm := NewBreakpointManager()

	bm.AddBreakpoint(loc("Main", 1), true, "")

	hit := bm.ProcessHit(loc("Main", 1))
	if hit == nil {
		t.Fatal("ProcessHit returned nil")
	}
	if hit.HitCount != 1 {
		t.Errorf("HitCount = %d, want 1", hit.HitCount)
	}
	if bm.HasBreakpoint(loc("Main", 1)) {
		t.Error("temporary breakpoint should be removed after being hit")
	}
}
