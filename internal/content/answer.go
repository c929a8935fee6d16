package content

import "strings"

// DebugAnswer is always accepted for free-text rounds, regardless of the
// expected passphrase.
const DebugAnswer = "test"

// CheckCells judges a cell-set answer against the round's enforced
// expected set. Order is irrelevant and equality is exact set equality,
// so selecting the unreliable mismatch cell is wrong like any other
// extra. An empty enforced set accepts exactly the empty submission.
func CheckCells(round PuzzleRound, cells []int) bool {
	submitted := make(map[int]bool, len(cells))
	for _, c := range cells {
		submitted[c] = true
	}

	if len(submitted) != len(round.FinalExpected) {
		return false
	}

	for _, idx := range round.FinalExpected {
		if !submitted[idx] {
			return false
		}
	}

	return true
}

// CheckText judges a free-text answer case-insensitively against expected.
// The debug override is accepted unconditionally.
func CheckText(expected, input string) bool {
	value := strings.ToLower(strings.TrimSpace(input))
	if value == "" {
		return false
	}

	if value == DebugAnswer {
		return true
	}

	return expected != "" && value == strings.ToLower(expected)
}

// PassphraseLedger tracks which opposing roles' credentials a participant
// has already turned in on the expedition board. A credential is accepted
// case-insensitively and only once per role.
type PassphraseLedger struct {
	collected map[int]bool
}

func NewPassphraseLedger() *PassphraseLedger {
	return &PassphraseLedger{collected: make(map[int]bool)}
}

// Collect accepts input for the given role when it matches expected and
// that role's credential has not been collected yet.
func (l *PassphraseLedger) Collect(role int, expected, input string) bool {
	if l.collected[role] {
		return false
	}

	if !strings.EqualFold(strings.TrimSpace(input), expected) {
		return false
	}

	l.collected[role] = true

	return true
}

// Count reports how many roles' credentials have been collected.
func (l *PassphraseLedger) Count() int {
	return len(l.collected)
}
