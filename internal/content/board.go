package content

import (
	"fmt"

	"github.com/Seednode/twokeys/internal/derive"
)

// PasswordLength is the credential size shown on each board cell.
const PasswordLength = 6

type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// TerrainMap assigns a terrain category name to every cell of a square
// grid. Selection is uniform over weight units: a category with weight w
// occupies w slots of the expanded list, so higher weights are
// proportionally more likely.
func TerrainMap(seed derive.Seed, gridSize int, categories []TerrainCategory) []string {
	if gridSize <= 0 {
		return nil
	}

	var weighted []string
	for _, c := range categories {
		for i := 0; i < c.Weight; i++ {
			weighted = append(weighted, c.Name)
		}
	}

	cells := make([]string, gridSize*gridSize)
	if len(weighted) == 0 {
		return cells
	}

	for i := range cells {
		s := derive.NewStream(seed, "terrain", i)
		cells[i] = weighted[s.Intn(len(weighted))]
	}

	return cells
}

// PasswordMap derives the per-cell, per-role credential table. Credentials
// are fixed-length uppercase hex, fully determined by seed, cell, and role.
func PasswordMap(seed derive.Seed, gridSize, roleCount int) map[int]map[int]string {
	passwords := make(map[int]map[int]string)

	for i := 0; i < gridSize*gridSize; i++ {
		passwords[i] = make(map[int]string, roleCount)
		for p := 1; p <= roleCount; p++ {
			s := derive.NewStream(seed, fmt.Sprintf("password-cell%d-role%d", i, p), 0)
			passwords[i][p] = s.Hex(PasswordLength)
		}
	}

	return passwords
}

// SpawnPositions places each role on the grid with an independent draw.
func SpawnPositions(seed derive.Seed, gridSize, roleCount int) map[int]Position {
	positions := make(map[int]Position, roleCount)

	for p := 1; p <= roleCount; p++ {
		positions[p] = drawPosition(derive.NewStream(seed, "spawn-role", p), gridSize)
	}

	return positions
}

// HostileSpawns places count hostiles, one independent draw each.
func HostileSpawns(seed derive.Seed, gridSize, count int) []Position {
	positions := make([]Position, 0, count)

	for e := 0; e < count; e++ {
		positions = append(positions, drawPosition(derive.NewStream(seed, "hostile", e), gridSize))
	}

	return positions
}

func drawPosition(s *derive.Stream, gridSize int) Position {
	if gridSize <= 0 {
		return Position{}
	}

	return Position{
		X: int(s.Uint32() % uint32(gridSize)),
		Y: int(s.Uint32() % uint32(gridSize)),
	}
}
