package room

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/Seednode/twokeys/internal/content"
	"github.com/Seednode/twokeys/internal/derive"
)

func newTestClient() *Client {
	return &Client{
		ID:   uuid.NewString(),
		Role: RoleObserver,
		send: make(chan any, 256),
	}
}

func testSettings() Settings {
	return Settings{
		ReadyWindow: 5 * time.Second,
		RoundTimer:  5 * time.Second,
		LevelID:     "crossings",
	}
}

func startRoom(t *testing.T, settings Settings) *Room {
	t.Helper()

	r := NewRoom("TESTROOM", settings)
	go r.Run()
	t.Cleanup(r.Close)

	return r
}

// waitFor drains a client's queue until a message of type T arrives.
func waitFor[T any](t *testing.T, c *Client) T {
	t.Helper()

	deadline := time.After(2 * time.Second)
	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				t.Fatalf("queue closed while waiting for %T", *new(T))
			}
			if m, ok := msg.(T); ok {
				return m
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %T", *new(T))
		}
	}
}

// collect drains everything delivered within d.
func collect(c *Client, d time.Duration) []any {
	var msgs []any
	deadline := time.After(d)
	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				return msgs
			}
			msgs = append(msgs, msg)
		case <-deadline:
			return msgs
		}
	}
}

func containsType[T any](msgs []any) bool {
	for _, m := range msgs {
		if _, ok := m.(T); ok {
			return true
		}
	}

	return false
}

func joinPair(t *testing.T, r *Room) (a, b *Client) {
	t.Helper()

	a, b = newTestClient(), newTestClient()
	r.Attach(a)
	r.Attach(b)
	r.Join(a, ClientMessage{Type: "join", DisplayName: "ada"})
	r.Join(b, ClientMessage{Type: "join", DisplayName: "grace"})

	if got := waitFor[JoinedMessage](t, a); got.Role != RoleA {
		t.Fatalf("first joiner got role %s", got.Role)
	}
	if got := waitFor[JoinedMessage](t, b); got.Role != RoleB {
		t.Fatalf("second joiner got role %s", got.Role)
	}

	return a, b
}

func startGame(t *testing.T, r *Room, a, b *Client) derive.Seed {
	t.Helper()

	r.Ready(a)
	r.Ready(b)

	startA := waitFor[GameStartMessage](t, a)
	startB := waitFor[GameStartMessage](t, b)
	if startA.Seed != startB.Seed {
		t.Fatalf("roles saw different seeds: %s vs %s", startA.Seed, startB.Seed)
	}

	return startA.Seed
}

func testRound(seed derive.Seed, index int) content.PuzzleRound {
	rules := content.DefaultRules()
	gridSize := content.GridSizeForRound(rules.BaseGridSize, index, rules.MaxGridSize)

	return content.GeneratePuzzleRound(seed, index, gridSize, rules.Theme("rune"))
}

func solveRound(t *testing.T, r *Room, a, b *Client, seed derive.Seed, index int) {
	t.Helper()

	round := testRound(seed, index)

	r.Submit(a, ClientMessage{
		Type:       "submit_answer",
		RoundIndex: index,
		Cells:      append(make([]int, 0, len(round.FinalExpected)), round.FinalExpected...),
	})
	if res := waitFor[AnswerResultMessage](t, a); !res.Correct {
		t.Fatalf("round %d: structural answer judged incorrect", index)
	}

	r.Submit(b, ClientMessage{Type: "submit_answer", RoundIndex: index, Answer: round.CipherAnswer})
	if res := waitFor[AnswerResultMessage](t, b); !res.Correct {
		t.Fatalf("round %d: passphrase answer judged incorrect", index)
	}
}

func TestJointReadyStartsGame(t *testing.T) {
	r := startRoom(t, testSettings())
	a, b := joinPair(t, r)

	r.Ready(a)
	r.Ready(b)

	startA := waitFor[GameStartMessage](t, a)
	startB := waitFor[GameStartMessage](t, b)

	if startA.Seed == "" || startA.Seed != startB.Seed {
		t.Fatalf("expected one shared seed, got %q and %q", startA.Seed, startB.Seed)
	}
	if startA.RoundIndex != 0 {
		t.Errorf("game started at round %d", startA.RoundIndex)
	}

	contentA := waitFor[RoundContentMessage](t, a)
	contentB := waitFor[RoundContentMessage](t, b)

	if contentA.Content.Kind == contentB.Content.Kind {
		t.Errorf("both roles received %q content", contentA.Content.Kind)
	}
	if contentA.Content.Structural == nil {
		t.Error("roleA did not receive the structural view")
	}
	if contentB.Content.Labeled == nil {
		t.Error("roleB did not receive the labeled view")
	}
}

func TestRoundContentPrecedesTimer(t *testing.T) {
	r := startRoom(t, testSettings())
	a, b := joinPair(t, r)

	r.Ready(a)
	r.Ready(b)
	waitFor[GameStartMessage](t, a)

	sawContent := false
	deadline := time.After(2 * time.Second)
	for {
		select {
		case msg := <-a.send:
			switch msg.(type) {
			case RoundContentMessage:
				sawContent = true
			case RoundTimerMessage:
				if !sawContent {
					t.Fatal("timer announced before round content")
				}
				_ = b
				return
			}
		case <-deadline:
			t.Fatal("never saw the round timer")
		}
	}
}

func TestLoneReadyDeniedAfterWindow(t *testing.T) {
	settings := testSettings()
	settings.ReadyWindow = 100 * time.Millisecond

	r := startRoom(t, settings)
	a, b := joinPair(t, r)

	r.Ready(a)
	if got := waitFor[ReadyUpdatedMessage](t, a); got.Count != 1 {
		t.Fatalf("ready count = %d, want 1", got.Count)
	}

	time.Sleep(150 * time.Millisecond)

	r.Ready(b)
	if got := waitFor[ReadyDeniedMessage](t, b); got.Reason != "timeout" {
		t.Fatalf("denial reason %q, want timeout", got.Reason)
	}

	if containsType[GameStartMessage](collect(a, 100*time.Millisecond)) {
		t.Error("game started without both roles ready")
	}
}

func TestJointSuccessAdvancesAndCancelsTimer(t *testing.T) {
	settings := testSettings()
	settings.RoundTimer = 300 * time.Millisecond

	r := startRoom(t, settings)
	a, b := joinPair(t, r)
	seed := startGame(t, r, a, b)

	// The crossings level runs four rounds; solve them all.
	for index := 0; index < 4; index++ {
		solveRound(t, r, a, b, seed, index)

		if index < 3 {
			adv := waitFor[AdvanceMessage](t, a)
			if adv.NextRoundIndex != index+1 {
				t.Fatalf("advance to round %d, want %d", adv.NextRoundIndex, index+1)
			}
			next := waitFor[RoundContentMessage](t, a)
			if next.RoundIndex != index+1 {
				t.Fatalf("content for round %d, want %d", next.RoundIndex, index+1)
			}
		}
	}

	waitFor[GameFinishedMessage](t, a)
	waitFor[GameFinishedMessage](t, b)

	// Any timer that survived its round would fire during this window.
	leftovers := append(collect(a, 400*time.Millisecond), collect(b, 50*time.Millisecond)...)
	if containsType[GameOverMessage](leftovers) {
		t.Error("a cancelled round timer still fired")
	}
}

func TestSoloCorrectTimesOut(t *testing.T) {
	settings := testSettings()
	settings.RoundTimer = 150 * time.Millisecond

	r := startRoom(t, settings)
	a, b := joinPair(t, r)
	seed := startGame(t, r, a, b)

	round := testRound(seed, 0)
	r.Submit(a, ClientMessage{
		Type:       "submit_answer",
		RoundIndex: 0,
		Cells:      append(make([]int, 0, len(round.FinalExpected)), round.FinalExpected...),
	})
	if res := waitFor[AnswerResultMessage](t, a); !res.Correct {
		t.Fatal("correct answer judged incorrect")
	}

	over := waitFor[GameOverMessage](t, b)
	if over.Reason != "timeout" {
		t.Fatalf("game over reason %q, want timeout", over.Reason)
	}

	if containsType[AdvanceMessage](collect(a, 100*time.Millisecond)) {
		t.Error("round advanced with only one correct role")
	}
}

func TestDisconnectMidRound(t *testing.T) {
	settings := testSettings()
	settings.RoundTimer = 200 * time.Millisecond

	r := startRoom(t, settings)
	a, b := joinPair(t, r)
	seed := startGame(t, r, a, b)

	r.Disconnect(b)

	update := waitFor[MembersUpdatedMessage](t, a)
	for _, m := range update.Members {
		if m.DisplayName == "grace" {
			t.Error("departed member still listed")
		}
	}

	// The survivor answers correctly, but joint success is unreachable and
	// the round still times out on schedule.
	round := testRound(seed, 0)
	r.Submit(a, ClientMessage{
		Type:       "submit_answer",
		RoundIndex: 0,
		Cells:      append(make([]int, 0, len(round.FinalExpected)), round.FinalExpected...),
	})
	if res := waitFor[AnswerResultMessage](t, a); !res.Correct {
		t.Fatal("correct answer judged incorrect")
	}

	over := waitFor[GameOverMessage](t, a)
	if over.Reason != "timeout" {
		t.Fatalf("game over reason %q, want timeout", over.Reason)
	}
}

func TestDebugAnswerAlwaysAccepted(t *testing.T) {
	r := startRoom(t, testSettings())
	a, b := joinPair(t, r)
	startGame(t, r, a, b)

	r.Submit(b, ClientMessage{Type: "submit_answer", RoundIndex: 0, Answer: "test"})
	if res := waitFor[AnswerResultMessage](t, b); !res.Correct {
		t.Error("debug answer rejected")
	}

	r.Submit(a, ClientMessage{Type: "submit_answer", RoundIndex: 0, Answer: "TEST"})
	if res := waitFor[AnswerResultMessage](t, a); !res.Correct {
		t.Error("uppercase debug answer rejected")
	}

	// Both roles used the override, so the round is jointly solved.
	waitFor[AdvanceMessage](t, a)
}

func TestStalledRoleDroppedDuringAdvance(t *testing.T) {
	r := startRoom(t, testSettings())
	a, b := joinPair(t, r)
	seed := startGame(t, r, a, b)

	collect(a, 100*time.Millisecond)
	collect(b, 100*time.Millisecond)

	round := testRound(seed, 0)
	r.Submit(a, ClientMessage{
		Type:       "submit_answer",
		RoundIndex: 0,
		Cells:      append(make([]int, 0, len(round.FinalExpected)), round.FinalExpected...),
	})
	if res := waitFor[AnswerResultMessage](t, a); !res.Correct {
		t.Fatal("correct answer judged incorrect")
	}

	// Stall roleA: fill its queue so the advance broadcast drops it while
	// its role pointer still references it.
	for i := 0; i < cap(a.send); i++ {
		a.send <- struct{}{}
	}

	r.Submit(b, ClientMessage{Type: "submit_answer", RoundIndex: 0, Answer: round.CipherAnswer})
	if res := waitFor[AnswerResultMessage](t, b); !res.Correct {
		t.Fatal("passphrase answer judged incorrect")
	}

	// Dropping the stalled role mid-advance must not take the room down;
	// the survivor still receives the advance and round 1 content.
	adv := waitFor[AdvanceMessage](t, b)
	if adv.NextRoundIndex != 1 {
		t.Fatalf("advance to round %d, want 1", adv.NextRoundIndex)
	}
	next := waitFor[RoundContentMessage](t, b)
	if next.RoundIndex != 1 {
		t.Fatalf("content for round %d, want 1", next.RoundIndex)
	}
}

func TestStaleRoundSubmissionDenied(t *testing.T) {
	r := startRoom(t, testSettings())
	a, b := joinPair(t, r)
	startGame(t, r, a, b)

	r.Submit(a, ClientMessage{Type: "submit_answer", RoundIndex: 7, Answer: "test"})
	if got := waitFor[ErrorMessage](t, a); got.Code != "stale_round" {
		t.Fatalf("error code %q, want stale_round", got.Code)
	}
	_ = b
}

func TestSubmitBeforeStartDenied(t *testing.T) {
	r := startRoom(t, testSettings())
	a, _ := joinPair(t, r)

	r.Submit(a, ClientMessage{Type: "submit_answer", RoundIndex: 0, Answer: "test"})
	if got := waitFor[ErrorMessage](t, a); got.Code != "not_active" {
		t.Fatalf("error code %q, want not_active", got.Code)
	}
}

func TestObserverSubmissionsIgnored(t *testing.T) {
	r := startRoom(t, testSettings())
	a, b := joinPair(t, r)

	observer := newTestClient()
	r.Attach(observer)
	r.Join(observer, ClientMessage{Type: "join", DisplayName: "watcher"})
	if got := waitFor[JoinedMessage](t, observer); got.Role != RoleObserver {
		t.Fatalf("third joiner got role %s", got.Role)
	}

	startGame(t, r, a, b)

	// RoleA and the observer both answer; without roleB that must not be
	// joint success.
	r.Submit(a, ClientMessage{Type: "submit_answer", RoundIndex: 0, Answer: "test"})
	waitFor[AnswerResultMessage](t, a)
	r.Submit(observer, ClientMessage{Type: "submit_answer", RoundIndex: 0, Answer: "test"})

	if containsType[AdvanceMessage](collect(a, 100*time.Millisecond)) {
		t.Error("observer submission counted toward joint success")
	}
}

func TestJoinWithoutNameRejected(t *testing.T) {
	r := startRoom(t, testSettings())

	c := newTestClient()
	r.Attach(c)
	r.Join(c, ClientMessage{Type: "join"})

	if got := waitFor[ErrorMessage](t, c); got.Code != "invalid_join" {
		t.Fatalf("error code %q, want invalid_join", got.Code)
	}
}

func TestRoleNeverReassigned(t *testing.T) {
	r := startRoom(t, testSettings())
	a, b := joinPair(t, r)

	r.Disconnect(b)
	waitFor[MembersUpdatedMessage](t, a)

	// A fresh connection after a role slot empties still observes.
	late := newTestClient()
	r.Attach(late)
	r.Join(late, ClientMessage{Type: "join", DisplayName: "late"})
	if got := waitFor[JoinedMessage](t, late); got.Role != RoleObserver {
		t.Fatalf("late joiner got role %s, want observer", got.Role)
	}
}

func TestFirstJoinerTimeLimitOverride(t *testing.T) {
	r := startRoom(t, testSettings())

	a := newTestClient()
	r.Attach(a)
	r.Join(a, ClientMessage{Type: "join", DisplayName: "ada", TimeLimitSeconds: 45})
	waitFor[JoinedMessage](t, a)

	b := newTestClient()
	r.Attach(b)
	r.Join(b, ClientMessage{Type: "join", DisplayName: "grace"})
	waitFor[JoinedMessage](t, b)

	r.Ready(a)
	r.Ready(b)
	waitFor[GameStartMessage](t, a)

	timer := waitFor[RoundTimerMessage](t, a)
	if timer.DurationSeconds != 45 {
		t.Errorf("round timer %ds, want 45s", timer.DurationSeconds)
	}
}
