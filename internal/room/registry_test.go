package room

import (
	"testing"
	"time"
)

func TestRegistryGetCreatesOnce(t *testing.T) {
	g := NewRegistry(testSettings(), 0, 0)

	first := g.Get("ABCD1234")
	second := g.Get("ABCD1234")
	if first != second {
		t.Error("same id returned different rooms")
	}
	t.Cleanup(first.Close)

	other := g.Get("WXYZ5678")
	t.Cleanup(other.Close)
	if other == first {
		t.Error("different ids share a room")
	}

	if g.Len() != 2 {
		t.Errorf("registry holds %d rooms, want 2", g.Len())
	}
}

func TestNewRoomIDShape(t *testing.T) {
	g := NewRegistry(testSettings(), 0, 0)

	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		id := g.NewRoomID()
		if len(id) != 8 {
			t.Fatalf("room id %q has wrong length", id)
		}
		for _, r := range id {
			switch {
			case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			default:
				t.Fatalf("room id %q contains %q", id, r)
			}
		}
		seen[id] = true
	}

	if len(seen) < 45 {
		t.Errorf("only %d distinct ids in 50 draws", len(seen))
	}
}

func TestReaperRemovesIdleRooms(t *testing.T) {
	g := NewRegistry(testSettings(), time.Minute, time.Hour)

	r := g.Get("IDLE0001")
	t.Cleanup(r.Close)

	g.reap(time.Now())
	if g.Len() != 1 {
		t.Fatal("fresh room reaped early")
	}

	g.reap(time.Now().Add(2 * time.Minute))
	if g.Len() != 0 {
		t.Fatal("idle room survived the reaper")
	}

	// A later lookup for the same id creates a fresh room.
	if again := g.Get("IDLE0001"); again == r {
		t.Error("reaped room was resurrected")
	}
}

func TestReaperRemovesFinishedRoomsAfterGrace(t *testing.T) {
	g := NewRegistry(testSettings(), time.Hour, time.Minute)

	r := g.Get("DONE0001")
	t.Cleanup(r.Close)
	r.markTerminal()

	g.reap(time.Now().Add(30 * time.Second))
	if g.Len() != 1 {
		t.Fatal("finished room reaped before the grace period")
	}

	g.reap(time.Now().Add(2 * time.Minute))
	if g.Len() != 0 {
		t.Fatal("finished room survived past the grace period")
	}
}
