package room

import (
	"sync"
	"time"

	"github.com/Seednode/twokeys/internal/content"
	"github.com/Seednode/twokeys/internal/derive"
)

// State is the room lifecycle position. Finished and TimedOut are terminal;
// the room stays addressable until the registry reaps it.
type State int

const (
	StateWaiting State = iota
	StateReadyCheck
	StateActive
	StateFinished
	StateTimedOut
)

// Settings carries the per-room knobs. Zero values fall back to defaults.
type Settings struct {
	ReadyWindow time.Duration
	RoundTimer  time.Duration
	LevelID     string
	Rules       *content.Rules
	Logf        func(format string, args ...any)
}

type eventKind int

const (
	evAttach eventKind = iota
	evJoin
	evReady
	evSubmit
	evDetach
)

type event struct {
	kind   eventKind
	client *Client
	msg    ClientMessage
}

// Room is a per-room actor: one goroutine owns every field below the inbox
// and processes inbound events strictly sequentially, so no room state is
// ever touched from two goroutines.
type Room struct {
	ID string

	inbox     chan event
	done      chan struct{}
	closeOnce sync.Once

	settings  Settings
	createdAt time.Time

	// Owned by the run loop.
	state         State
	clients       map[*Client]bool
	joined        []*Client
	roleA         *Client
	roleB         *Client
	ready         map[string]bool
	started       bool
	seed          derive.Seed
	level         content.Level
	roundIndex    int
	current       content.PuzzleRound
	submitted     map[string]bool
	roundTimerDur time.Duration
	timer         *time.Timer
	deadline      time.Time

	// Snapshot for the registry reaper.
	mu         sync.Mutex
	lastActive time.Time
	terminalAt time.Time
}

func NewRoom(id string, settings Settings) *Room {
	if settings.ReadyWindow <= 0 {
		settings.ReadyWindow = time.Minute
	}
	if settings.RoundTimer <= 0 {
		settings.RoundTimer = 2 * time.Minute
	}
	if settings.Rules == nil {
		settings.Rules = content.DefaultRules()
	}
	if settings.Logf == nil {
		settings.Logf = func(string, ...any) {}
	}

	now := time.Now()

	return &Room{
		ID:            id,
		inbox:         make(chan event, 64),
		done:          make(chan struct{}),
		settings:      settings,
		createdAt:     now,
		state:         StateWaiting,
		clients:       make(map[*Client]bool),
		ready:         make(map[string]bool),
		submitted:     make(map[string]bool),
		roundTimerDur: settings.RoundTimer,
		level:         settings.Rules.Level(settings.LevelID),
		lastActive:    now,
	}
}

// Run processes events until Close. Must be started exactly once.
func (r *Room) Run() {
	for {
		var timerC <-chan time.Time
		if r.timer != nil {
			timerC = r.timer.C
		}

		select {
		case ev := <-r.inbox:
			r.handle(ev)
		case <-timerC:
			r.timer = nil
			r.handleTimeout()
		case <-r.done:
			r.shutdown()
			return
		}
	}
}

// Close stops the run loop and disconnects everyone. Idempotent.
func (r *Room) Close() {
	r.closeOnce.Do(func() {
		close(r.done)
	})
}

// CreatedAt is fixed at construction and safe to read from anywhere.
func (r *Room) CreatedAt() time.Time {
	return r.createdAt
}

// Snapshot reports the reaper-relevant facts without entering the actor.
func (r *Room) Snapshot() (lastActive, terminalAt time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.lastActive, r.terminalAt
}

func (r *Room) Attach(c *Client)                   { r.post(event{kind: evAttach, client: c}) }
func (r *Room) Join(c *Client, msg ClientMessage)  { r.post(event{kind: evJoin, client: c, msg: msg}) }
func (r *Room) Ready(c *Client)                    { r.post(event{kind: evReady, client: c}) }
func (r *Room) Submit(c *Client, msg ClientMessage) { r.post(event{kind: evSubmit, client: c, msg: msg}) }
func (r *Room) Disconnect(c *Client)               { r.post(event{kind: evDetach, client: c}) }

func (r *Room) post(ev event) {
	select {
	case r.inbox <- ev:
	case <-r.done:
	}
}

func (r *Room) handle(ev event) {
	r.touch()

	switch ev.kind {
	case evAttach:
		r.clients[ev.client] = true
	case evJoin:
		r.handleJoin(ev.client, ev.msg)
	case evReady:
		r.handleReady(ev.client)
	case evSubmit:
		r.handleSubmit(ev.client, ev.msg)
	case evDetach:
		r.handleDetach(ev.client)
	}
}

func (r *Room) handleJoin(c *Client, msg ClientMessage) {
	if !r.clients[c] {
		return
	}

	if msg.DisplayName == "" {
		r.send(c, ErrorMessage{Type: "error", Code: "invalid_join", Message: "a display name is required"})
		return
	}

	if c.Name != "" {
		r.send(c, ErrorMessage{Type: "error", Code: "already_joined", Message: "this connection has already joined"})
		return
	}

	c.Name = msg.DisplayName

	// First come, first served: roleA, then roleB, then observers. Slots
	// are never handed back, even after a disconnect.
	switch {
	case r.roleA == nil:
		c.Role = RoleA
		r.roleA = c
	case r.roleB == nil:
		c.Role = RoleB
		r.roleB = c
	default:
		c.Role = RoleObserver
	}

	if c.Role == RoleA && !r.started && msg.TimeLimitSeconds > 0 {
		r.roundTimerDur = time.Duration(msg.TimeLimitSeconds) * time.Second
	}

	r.joined = append(r.joined, c)

	r.settings.Logf("ROOMS: %q joined %s as %s", c.Name, r.ID, c.Role)

	r.send(c, JoinedMessage{
		Type:          "joined",
		Role:          c.Role,
		RoomCreatedAt: r.createdAt.UnixMilli(),
		LevelID:       r.level.ID,
	})

	r.broadcastMembers()
}

func (r *Room) handleReady(c *Client) {
	if !r.clients[c] || c.Name == "" {
		return
	}

	if time.Since(r.createdAt) > r.settings.ReadyWindow {
		r.send(c, ReadyDeniedMessage{Type: "ready_denied", Reason: "timeout"})
		return
	}

	if r.started {
		return
	}

	r.ready[c.ID] = true
	if r.state == StateWaiting {
		r.state = StateReadyCheck
	}

	r.broadcast(ReadyUpdatedMessage{Type: "ready_updated", Count: len(r.ready)})

	if r.roleA != nil && r.roleB != nil && r.ready[r.roleA.ID] && r.ready[r.roleB.ID] {
		r.startGame()
	}
}

// startGame fixes the seed from the room's creation time and the active
// roles' names, then enters the round loop. The seed never changes again.
func (r *Room) startGame() {
	r.seed = derive.RoomSeed(r.createdAt.UnixMilli(), []string{r.roleA.Name, r.roleB.Name})
	r.started = true
	r.state = StateActive
	r.roundIndex = 0
	r.submitted = make(map[string]bool)

	r.settings.Logf("ROOMS: %s started level %q with seed %s", r.ID, r.level.ID, r.seed)

	r.broadcast(GameStartMessage{
		Type:       "game_start",
		Seed:       r.seed,
		LevelID:    r.level.ID,
		RoundIndex: 0,
	})

	r.dispatchRound()
}

// dispatchRound generates the round, sends each active role its view, and
// only then arms the timer, so nobody sees a deadline before content.
func (r *Room) dispatchRound() {
	gridSize := content.GridSizeForRound(
		r.settings.Rules.BaseGridSize, r.roundIndex, r.settings.Rules.MaxGridSize)

	r.current = content.GeneratePuzzleRound(
		r.seed, r.roundIndex, gridSize, r.settings.Rules.Theme(r.level.Theme))

	if r.roleA != nil {
		r.send(r.roleA, RoundContentMessage{
			Type:       "round_content",
			RoundIndex: r.roundIndex,
			Content:    content.StructuralFor(r.current, r.level.Kind),
		})
	}
	if r.roleB != nil {
		r.send(r.roleB, RoundContentMessage{
			Type:       "round_content",
			RoundIndex: r.roundIndex,
			Content:    content.LabeledFor(r.current, r.level.Kind),
		})
	}

	r.timer = time.NewTimer(r.roundTimerDur)
	r.deadline = time.Now().Add(r.roundTimerDur)

	r.broadcast(RoundTimerMessage{
		Type:            "round_timer",
		DurationSeconds: int(r.roundTimerDur.Seconds()),
		Deadline:        r.deadline.UnixMilli(),
	})
}

func (r *Room) handleSubmit(c *Client, msg ClientMessage) {
	if !r.clients[c] {
		return
	}

	// Observers may type along; their submissions never count.
	if c.Role == RoleObserver {
		return
	}

	if !r.started || r.state != StateActive {
		r.send(c, ErrorMessage{Type: "error", Code: "not_active", Message: "no round is in progress"})
		return
	}

	if msg.RoundIndex != r.roundIndex {
		r.send(c, ErrorMessage{Type: "error", Code: "stale_round", Message: "submission is for a different round"})
		return
	}

	var correct bool
	if msg.Cells != nil {
		correct = content.CheckCells(r.current, msg.Cells)
	} else {
		correct = content.CheckText(r.current.CipherAnswer, msg.Answer)
	}

	r.submitted[c.ID] = correct

	// Acknowledged privately only; wrong answers are never broadcast.
	r.send(c, AnswerResultMessage{Type: "answer_result", RoundIndex: r.roundIndex, Correct: correct})

	if r.jointlySolved() {
		r.advanceRound()
	}
}

func (r *Room) jointlySolved() bool {
	return r.roleA != nil && r.roleB != nil &&
		r.submitted[r.roleA.ID] && r.submitted[r.roleB.ID]
}

func (r *Room) advanceRound() {
	r.stopTimer()

	r.roundIndex++
	r.submitted = make(map[string]bool)

	if r.roundIndex >= r.level.Rounds {
		r.started = false
		r.state = StateFinished
		r.markTerminal()
		r.settings.Logf("ROOMS: %s finished level %q", r.ID, r.level.ID)
		r.broadcast(GameFinishedMessage{Type: "game_finished"})
		return
	}

	r.broadcast(AdvanceMessage{Type: "advance", NextRoundIndex: r.roundIndex})
	r.dispatchRound()
}

func (r *Room) handleTimeout() {
	if r.state != StateActive {
		return
	}

	r.started = false
	r.state = StateTimedOut
	r.markTerminal()

	r.settings.Logf("ROOMS: %s timed out on round %d", r.ID, r.roundIndex)

	r.broadcast(GameOverMessage{Type: "game_over", Reason: "timeout"})
}

// handleDetach removes the connection from membership, ready, and
// submission state. The round timer deliberately keeps running: a missing
// active role just means the round cannot be jointly solved anymore.
func (r *Room) handleDetach(c *Client) {
	if !r.clients[c] {
		return
	}

	delete(r.clients, c)
	delete(r.ready, c.ID)
	delete(r.submitted, c.ID)
	c.closeSend()

	wasMember := false
	for i, m := range r.joined {
		if m == c {
			r.joined = append(r.joined[:i], r.joined[i+1:]...)
			wasMember = true
			break
		}
	}

	if wasMember {
		r.settings.Logf("ROOMS: %q left %s", c.Name, r.ID)
		r.broadcastMembers()
	}
}

func (r *Room) stopTimer() {
	if r.timer != nil {
		r.timer.Stop()
		r.timer = nil
	}
}

func (r *Room) broadcastMembers() {
	members := make([]MemberInfo, 0, len(r.joined))
	for _, c := range r.joined {
		members = append(members, MemberInfo{DisplayName: c.Name, Role: c.Role})
	}

	r.broadcast(MembersUpdatedMessage{Type: "members_updated", Members: members})
}

func (r *Room) broadcast(msg any) {
	for c := range r.clients {
		r.send(c, msg)
	}
}

// send delivers to live members only. The roleA/roleB pointers outlive a
// detach, so a stale pointer must never reach the closed send queue.
func (r *Room) send(c *Client, msg any) {
	if !r.clients[c] {
		return
	}

	if !c.deliver(msg) {
		r.handleDetach(c)
	}
}

func (r *Room) touch() {
	r.mu.Lock()
	r.lastActive = time.Now()
	r.mu.Unlock()
}

func (r *Room) markTerminal() {
	r.mu.Lock()
	r.terminalAt = time.Now()
	r.mu.Unlock()
}

func (r *Room) shutdown() {
	r.stopTimer()

	for c := range r.clients {
		delete(r.clients, c)
		c.closeSend()
		if c.conn != nil {
			_ = c.conn.Close()
		}
	}
}
