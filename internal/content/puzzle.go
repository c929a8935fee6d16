package content

import (
	"fmt"
	"strconv"

	"github.com/Seednode/twokeys/internal/derive"
)

// The three signal colors shared by both roles. RoleB sees them painted on
// individual cells; roleA sees one column and one row tinted per color.
var puzzleColors = [3]string{"green", "red", "blue"}

// PuzzleRound is one unit of asymmetric puzzle content. Every field is a
// pure function of (seed, round index, grid size, theme), so a client
// holding the seed can rebuild the round and agree with the server on
// FinalExpected without further coordination.
type PuzzleRound struct {
	RoundIndex int
	GridSize   int

	// CellColors is roleB's view: a color for 3*gridSize chosen cells,
	// empty string elsewhere.
	CellColors []string

	// ColColors and RowColors are roleA's view: the color of each cell's
	// column (resp. row) when that column/row was chosen, empty otherwise.
	ColColors []string
	RowColors []string

	// Labels is the themed glyph per cell; LabelsB is roleB's copy with
	// exactly one label corrupted at Mismatch.
	Labels  []string
	LabelsB []string

	// Expected is the raw row/column-color intersection; Mismatch is the
	// one deliberately unreliable member (-1 when Expected is empty);
	// FinalExpected is Expected with Mismatch removed and is the enforced
	// cell-set answer.
	Expected      []int
	Mismatch      int
	FinalExpected []int

	// CipherAnswer is the round's free-text passphrase.
	CipherAnswer string
}

// GridSizeForRound grows the board by one per round up to max.
func GridSizeForRound(base, round, max int) int {
	size := base + round
	if size > max {
		size = max
	}

	return size
}

// GeneratePuzzleRound materializes one round of puzzle content. Degenerate
// inputs (non-positive grid, empty theme) yield a structurally valid,
// label-less round rather than an error.
func GeneratePuzzleRound(seed derive.Seed, roundIndex, gridSize int, theme Theme) PuzzleRound {
	round := PuzzleRound{
		RoundIndex: roundIndex,
		GridSize:   gridSize,
		Mismatch:   -1,
	}

	prng := derive.NewStream(seed, "riddle", roundIndex)

	if gridSize <= 0 {
		round.GridSize = 0
		round.CipherAnswer = cipherAnswer(prng, theme)

		return round
	}

	cellCount := gridSize * gridSize

	round.CellColors = make([]string, cellCount)
	round.ColColors = make([]string, cellCount)
	round.RowColors = make([]string, cellCount)

	// RoleB's concrete map: shuffle the cells and give the first gridSize
	// picks to each color band in turn.
	indices := make([]int, cellCount)
	for i := range indices {
		indices[i] = i
	}
	prng.Shuffle(len(indices), func(i, j int) {
		indices[i], indices[j] = indices[j], indices[i]
	})

	pickCount := 3 * gridSize
	if pickCount > cellCount {
		pickCount = cellCount
	}
	for k := 0; k < pickCount; k++ {
		round.CellColors[indices[k]] = puzzleColors[k/gridSize]
	}

	// RoleA's structural maps: one distinct column and one distinct row per
	// color, each chosen by its own stream.
	colForColor := chooseLines(seed, "riddle-cols", roundIndex, gridSize)
	rowForColor := chooseLines(seed, "riddle-rows", roundIndex, gridSize)

	for i := 0; i < cellCount; i++ {
		col := i % gridSize
		row := i / gridSize
		for c, color := range puzzleColors {
			if col == colForColor[c] {
				round.ColColors[i] = color
			}
			if row == rowForColor[c] {
				round.RowColors[i] = color
			}
		}
	}

	// The expected set: cells where roleB's color matches the roleA row
	// color, or failing that the roleA column color.
	for i := 0; i < cellCount; i++ {
		b := round.CellColors[i]
		if b == "" {
			continue
		}
		if round.RowColors[i] == b || round.ColColors[i] == b {
			round.Expected = append(round.Expected, i)
		}
	}

	round.Labels = cycleLabels(seed, roundIndex, cellCount, theme.Labels)
	round.LabelsB = append([]string(nil), round.Labels...)

	// One member of the expected set is made unreliable: its roleB-visible
	// label is rotated to a different value and it is excluded from the
	// enforced answer.
	if len(round.Expected) > 0 {
		round.Mismatch = round.Expected[prng.Intn(len(round.Expected))]

		if len(theme.Labels) > 0 {
			round.LabelsB[round.Mismatch] = theme.Labels[(round.Mismatch+1)%len(theme.Labels)]
		} else {
			round.LabelsB = make([]string, cellCount)
			round.LabelsB[round.Mismatch] = fmt.Sprintf("#%d*", round.Mismatch+1)
		}

		for _, idx := range round.Expected {
			if idx != round.Mismatch {
				round.FinalExpected = append(round.FinalExpected, idx)
			}
		}
	}

	round.CipherAnswer = cipherAnswer(prng, theme)

	return round
}

// chooseLines shuffles the line indices of the grid with a round-scoped
// stream and hands the first three out, one per color.
func chooseLines(seed derive.Seed, purpose string, roundIndex, gridSize int) [3]int {
	lines := make([]int, gridSize)
	for i := range lines {
		lines[i] = i
	}

	s := derive.NewStream(seed, purpose, roundIndex)
	s.Shuffle(len(lines), func(i, j int) {
		lines[i], lines[j] = lines[j], lines[i]
	})

	var chosen [3]int
	for c := range chosen {
		// Small grids can offer fewer lines than colors; reuse the last.
		chosen[c] = lines[min(c, len(lines)-1)]
	}

	return chosen
}

// cycleLabels shuffles a copy of the theme labels deterministically and
// cycles it over the cells. An empty theme yields nil.
func cycleLabels(seed derive.Seed, roundIndex, cellCount int, themeLabels []string) []string {
	if len(themeLabels) == 0 || cellCount <= 0 {
		return nil
	}

	shuffled := append([]string(nil), themeLabels...)
	s := derive.NewStream(seed, "riddle-labels", roundIndex)
	s.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	labels := make([]string, cellCount)
	for i := range labels {
		labels[i] = shuffled[i%len(shuffled)]
	}

	return labels
}

// cipherAnswer picks the round's free-text passphrase: a themed password
// when the theme carries any, otherwise a deterministic 8-digit number.
func cipherAnswer(prng *derive.Stream, theme Theme) string {
	if len(theme.Passwords) > 0 {
		return theme.Passwords[prng.Intn(len(theme.Passwords))]
	}

	return strconv.Itoa(prng.Intn(90_000_000) + 10_000_000)
}
