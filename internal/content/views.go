package content

import "fmt"

// Answer shapes advertised to clients so they render the right input.
const (
	AnswerCells = "cells"
	AnswerText  = "text"
)

// RoundPayload is the role-specific shape of one round: exactly one of the
// two views is set. Both are built from the same PuzzleRound, never from
// fresh derivation, so the two roles always describe the same round.
type RoundPayload struct {
	Kind       string          `json:"kind"` // "structural" or "labeled"
	Structural *StructuralView `json:"structural,omitempty"`
	Labeled    *LabeledView    `json:"labeled,omitempty"`
}

// StructuralView is roleA's payload: which rows and columns carry which
// color, without any concrete cell assignments.
type StructuralView struct {
	RoundIndex  int      `json:"round_index"`
	GridSize    int      `json:"grid_size"`
	RowColors   []string `json:"row_colors"`
	ColColors   []string `json:"col_colors"`
	Labels      []string `json:"labels"`
	AnswerShape string   `json:"answer_shape"`
}

// LabeledView is roleB's payload: concrete colored cells with (one
// deliberately unreliable) labels, plus a hint for cipher rounds.
type LabeledView struct {
	RoundIndex  int      `json:"round_index"`
	GridSize    int      `json:"grid_size"`
	CellColors  []string `json:"cell_colors"`
	Labels      []string `json:"labels"`
	Hint        string   `json:"hint,omitempty"`
	AnswerShape string   `json:"answer_shape"`
}

// StructuralFor builds roleA's payload from a generated round.
func StructuralFor(round PuzzleRound, kind LevelKind) RoundPayload {
	shape := AnswerCells
	if kind == LevelCipher {
		shape = AnswerText
	}

	return RoundPayload{
		Kind: "structural",
		Structural: &StructuralView{
			RoundIndex:  round.RoundIndex,
			GridSize:    round.GridSize,
			RowColors:   round.RowColors,
			ColColors:   round.ColColors,
			Labels:      round.Labels,
			AnswerShape: shape,
		},
	}
}

// LabeledFor builds roleB's payload from a generated round.
func LabeledFor(round PuzzleRound, kind LevelKind) RoundPayload {
	view := &LabeledView{
		RoundIndex:  round.RoundIndex,
		GridSize:    round.GridSize,
		CellColors:  round.CellColors,
		Labels:      round.LabelsB,
		AnswerShape: AnswerText,
	}

	if kind == LevelCipher {
		view.Hint = cipherHint(round)
	}

	return RoundPayload{
		Kind:    "labeled",
		Labeled: view,
	}
}

// cipherHint describes the expected sequence in terms of the structure the
// other role can see, without revealing the passphrase itself.
func cipherHint(round PuzzleRound) string {
	return fmt.Sprintf(
		"Your partner sees %d cells where their colored rows and columns cross yours; the passphrase appears once they mark all of them.",
		len(round.FinalExpected),
	)
}
