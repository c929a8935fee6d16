package room

import (
	"crypto/rand"
	"sync"
	"time"
)

// Registry is the process-wide room table. Rooms are created on first
// lookup and removed by the reaper once their game has been over for the
// grace period, or once they have sat idle past the idle timeout — rooms
// are never allowed to accumulate for the life of the process.
type Registry struct {
	mu    sync.Mutex
	rooms map[string]*Room

	settings    Settings
	idleTimeout time.Duration
	grace       time.Duration
}

func NewRegistry(settings Settings, idleTimeout, grace time.Duration) *Registry {
	registry := &Registry{
		rooms:       make(map[string]*Room),
		settings:    settings,
		idleTimeout: idleTimeout,
		grace:       grace,
	}

	if idleTimeout > 0 {
		go registry.reaperLoop()
	}

	return registry
}

// Get returns the room for the given id, creating and starting it on first
// use.
func (g *Registry) Get(roomID string) *Room {
	g.mu.Lock()
	defer g.mu.Unlock()

	if r, ok := g.rooms[roomID]; ok {
		return r
	}

	r := NewRoom(roomID, g.settings)
	g.rooms[roomID] = r
	go r.Run()

	return r
}

// NewRoomID generates a crypto-random 8-char room id, retrying on the
// (unlikely) collision with a live room.
func (g *Registry) NewRoomID() string {
	const letters = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

	for {
		buf := make([]byte, 8)
		if _, err := rand.Read(buf); err != nil {
			panic("crypto/rand failure: " + err.Error())
		}

		out := make([]byte, 8)
		for i := range out {
			out[i] = letters[int(buf[i])%len(letters)]
		}
		id := string(out)

		g.mu.Lock()
		_, exists := g.rooms[id]
		g.mu.Unlock()

		if !exists {
			return id
		}
	}
}

// Len reports the number of live rooms.
func (g *Registry) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()

	return len(g.rooms)
}

func (g *Registry) reaperLoop() {
	interval := g.idleTimeout / 2
	if g.grace > 0 && g.grace < g.idleTimeout {
		interval = g.grace / 2
	}
	if interval <= 0 {
		interval = time.Second
	}

	ticker := time.NewTicker(interval)
	for range ticker.C {
		g.reap(time.Now())
	}
}

func (g *Registry) reap(now time.Time) {
	g.mu.Lock()
	defer g.mu.Unlock()

	for id, r := range g.rooms {
		lastActive, terminalAt := r.Snapshot()

		expired := now.Sub(lastActive) > g.idleTimeout
		if !terminalAt.IsZero() && g.grace > 0 && now.Sub(terminalAt) > g.grace {
			expired = true
		}

		if expired {
			delete(g.rooms, id)
			r.Close()
		}
	}
}
