package room

import (
	"github.com/Seednode/twokeys/internal/content"
	"github.com/Seednode/twokeys/internal/derive"
)

// Role is one of the room's participant slots. Exactly two active slots
// drive the game; everyone else observes.
type Role string

const (
	RoleA        Role = "roleA"
	RoleB        Role = "roleB"
	RoleObserver Role = "observer"
)

// ClientMessage covers every inbound event type. Type selects which fields
// are meaningful.
type ClientMessage struct {
	Type             string `json:"type"` // "join", "ready", "submit_answer"
	DisplayName      string `json:"display_name,omitempty"`
	TimeLimitSeconds int    `json:"time_limit_seconds,omitempty"`
	RoundIndex       int    `json:"round_index"`
	Answer           string `json:"answer,omitempty"`
	Cells            []int  `json:"cells,omitempty"`
}

type JoinedMessage struct {
	Type          string `json:"type"` // "joined"
	Role          Role   `json:"role"`
	RoomCreatedAt int64  `json:"room_created_at"`
	LevelID       string `json:"level_id"`
}

type MemberInfo struct {
	DisplayName string `json:"display_name"`
	Role        Role   `json:"role"`
}

type MembersUpdatedMessage struct {
	Type    string       `json:"type"` // "members_updated"
	Members []MemberInfo `json:"members"`
}

type ReadyUpdatedMessage struct {
	Type  string `json:"type"` // "ready_updated"
	Count int    `json:"count"`
}

type ReadyDeniedMessage struct {
	Type   string `json:"type"` // "ready_denied"
	Reason string `json:"reason"`
}

type GameStartMessage struct {
	Type       string      `json:"type"` // "game_start"
	Seed       derive.Seed `json:"seed"`
	LevelID    string      `json:"level_id"`
	RoundIndex int         `json:"round_index"`
}

type RoundContentMessage struct {
	Type       string               `json:"type"` // "round_content"
	RoundIndex int                  `json:"round_index"`
	Content    content.RoundPayload `json:"content"`
}

type RoundTimerMessage struct {
	Type            string `json:"type"` // "round_timer"
	DurationSeconds int    `json:"duration_seconds"`
	Deadline        int64  `json:"deadline"`
}

type AnswerResultMessage struct {
	Type       string `json:"type"` // "answer_result"
	RoundIndex int    `json:"round_index"`
	Correct    bool   `json:"correct"`
}

type AdvanceMessage struct {
	Type           string `json:"type"` // "advance"
	NextRoundIndex int    `json:"next_round_index"`
}

type GameFinishedMessage struct {
	Type string `json:"type"` // "game_finished"
}

type GameOverMessage struct {
	Type   string `json:"type"` // "game_over"
	Reason string `json:"reason"`
}

// ErrorMessage reports input-validation and protocol-timing rejections to
// the offending connection only.
type ErrorMessage struct {
	Type    string `json:"type"` // "error"
	Code    string `json:"code"`
	Message string `json:"message"`
}
