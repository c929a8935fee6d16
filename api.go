/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/julienschmidt/httprouter"

	"github.com/Seednode/twokeys/internal/content"
	"github.com/Seednode/twokeys/internal/derive"
)

// expeditionResponse is the solo board for one participant: everyone who
// requests the same word inside the same clock bucket derives the same
// board, with no room or socket involved.
type expeditionResponse struct {
	Seed      derive.Seed              `json:"seed"`
	BucketMs  int64                    `json:"bucketMs"`
	GridSize  int                      `json:"gridSize"`
	Players   int                      `json:"players"`
	Player    int                      `json:"player"`
	Terrain   []string                 `json:"terrain"`
	Passwords map[int]string           `json:"passwords"`
	Spawns    map[int]content.Position `json:"spawns"`
	Hostiles  []content.Position       `json:"hostiles"`
}

func serveExpedition(cfg *Config, rules *content.Rules, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		startTime := time.Now()

		word := ps.ByName("word")
		if word == "" {
			http.Error(w, "Invalid word", http.StatusBadRequest)
			return
		}

		players := 2
		if raw := r.URL.Query().Get("players"); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil || parsed <= 0 {
				http.Error(w, "Invalid number of players", http.StatusBadRequest)
				return
			}
			players = parsed
		}

		player, err := strconv.Atoi(ps.ByName("player"))
		if err != nil || player < 1 || player > players {
			http.Error(w, "Invalid player number", http.StatusBadRequest)
			return
		}

		seed := derive.Bucketed(word, time.Now().UnixMilli(), derive.DefaultBucketMs)

		// Each participant displays only their own credential per cell; the
		// other participants' credentials have to be collected in person.
		own := make(map[int]string, rules.GridSize*rules.GridSize)
		for cell, perRole := range content.PasswordMap(seed, rules.GridSize, players) {
			own[cell] = perRole[player]
		}

		resp := expeditionResponse{
			Seed:      seed,
			BucketMs:  derive.DefaultBucketMs,
			GridSize:  rules.GridSize,
			Players:   players,
			Player:    player,
			Terrain:   content.TerrainMap(seed, rules.GridSize, rules.Terrain),
			Passwords: own,
			Spawns:    content.SpawnPositions(seed, rules.GridSize, players),
			Hostiles:  content.HostileSpawns(seed, rules.GridSize, rules.Hostiles),
		}

		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		securityHeaders(cfg, w)

		if err := json.NewEncoder(w).Encode(resp); err != nil {
			errs <- err

			return
		}

		logf(cfg, "SERVE: Expedition board %q for player %d/%d to %s in %s",
			word,
			player,
			players,
			realIP(r),
			time.Since(startTime).Round(time.Microsecond),
		)
	}
}

// expeditionLedgers holds per-(seed, player) collection state so a
// credential is accepted once per opposing role. Entries for rotated-out
// seed buckets are pruned on access.
type expeditionLedgers struct {
	mu      sync.Mutex
	entries map[string]*ledgerEntry
}

type ledgerEntry struct {
	ledger   *content.PassphraseLedger
	lastSeen time.Time
}

func newExpeditionLedgers() *expeditionLedgers {
	return &expeditionLedgers{entries: make(map[string]*ledgerEntry)}
}

func (e *expeditionLedgers) get(seed derive.Seed, player int) *content.PassphraseLedger {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := time.Now()
	stale := 2 * time.Duration(derive.DefaultBucketMs) * time.Millisecond
	for key, entry := range e.entries {
		if now.Sub(entry.lastSeen) > stale {
			delete(e.entries, key)
		}
	}

	key := fmt.Sprintf("%s/%d", seed, player)
	entry, ok := e.entries[key]
	if !ok {
		entry = &ledgerEntry{ledger: content.NewPassphraseLedger()}
		e.entries[key] = entry
	}
	entry.lastSeen = now

	return entry.ledger
}

type collectRequest struct {
	Cell     int    `json:"cell"`
	From     int    `json:"from"`
	Players  int    `json:"players"`
	Password string `json:"password"`
}

type collectResponse struct {
	Accepted  bool `json:"accepted"`
	Collected int  `json:"collected"`
	Complete  bool `json:"complete"`
}

func serveCollect(cfg *Config, rules *content.Rules, ledgers *expeditionLedgers, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		word := ps.ByName("word")
		if word == "" {
			http.Error(w, "Invalid word", http.StatusBadRequest)
			return
		}

		var req collectRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		players := req.Players
		if players == 0 {
			players = 2
		}
		if players <= 0 {
			http.Error(w, "Invalid number of players", http.StatusBadRequest)
			return
		}

		player, err := strconv.Atoi(ps.ByName("player"))
		if err != nil || player < 1 || player > players {
			http.Error(w, "Invalid player number", http.StatusBadRequest)
			return
		}

		if req.From < 1 || req.From > players || req.From == player {
			http.Error(w, "Invalid source player", http.StatusBadRequest)
			return
		}

		if req.Cell < 0 || req.Cell >= rules.GridSize*rules.GridSize {
			http.Error(w, "Invalid cell", http.StatusBadRequest)
			return
		}

		seed := derive.Bucketed(word, time.Now().UnixMilli(), derive.DefaultBucketMs)
		expected := content.PasswordMap(seed, rules.GridSize, players)[req.Cell][req.From]

		ledger := ledgers.get(seed, player)
		accepted := ledger.Collect(req.From, expected, req.Password)

		resp := collectResponse{
			Accepted:  accepted,
			Collected: ledger.Count(),
			Complete:  ledger.Count() >= players-1,
		}

		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		securityHeaders(cfg, w)

		if err := json.NewEncoder(w).Encode(resp); err != nil {
			errs <- err

			return
		}

		if accepted {
			logf(cfg, "SERVE: Expedition credential from player %d collected by player %d (%q) for %s",
				req.From,
				player,
				word,
				realIP(r),
			)
		}
	}
}

func registerExpeditionAPI(cfg *Config, mux *httprouter.Router, rules *content.Rules, errs chan<- error) {
	ledgers := newExpeditionLedgers()

	mux.GET(cfg.prefix+"/api/expedition/:word/:player", serveExpedition(cfg, rules, errs))
	mux.POST(cfg.prefix+"/api/expedition/:word/:player/collect", serveCollect(cfg, rules, ledgers, errs))
}
