package content

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LevelKind selects how answers for a level are judged on the wire: grid
// levels pair a cell-set answer with a revealed passphrase, cipher levels
// take free text from both roles.
type LevelKind string

const (
	LevelGrid   LevelKind = "grid"
	LevelCipher LevelKind = "cipher"
)

type TerrainCategory struct {
	Name   string `yaml:"name" json:"name"`
	Weight int    `yaml:"weight" json:"weight"`
	Color  string `yaml:"color" json:"color"`
}

// Theme supplies the label cycle painted onto puzzle cells and, optionally,
// a pool of human-friendly passphrases. Both lists may be empty; generation
// degrades to numeric placeholders rather than failing.
type Theme struct {
	Labels    []string `yaml:"labels"`
	Passwords []string `yaml:"passwords"`
}

type Level struct {
	ID     string    `yaml:"id"`
	Kind   LevelKind `yaml:"kind"`
	Rounds int       `yaml:"rounds"`
	Theme  string    `yaml:"theme"`
}

// Rules is the full deterministic-content configuration: terrain weights for
// the expedition board, themes for puzzle labels, and the playable levels.
type Rules struct {
	GridSize     int               `yaml:"grid-size"`
	BaseGridSize int               `yaml:"base-grid-size"`
	MaxGridSize  int               `yaml:"max-grid-size"`
	Hostiles     int               `yaml:"hostiles"`
	Terrain      []TerrainCategory `yaml:"terrain"`
	Themes       map[string]Theme  `yaml:"themes"`
	Levels       []Level           `yaml:"levels"`
}

func DefaultRules() *Rules {
	return &Rules{
		GridSize:     16,
		BaseGridSize: 4,
		MaxGridSize:  7,
		Hostiles:     3,
		Terrain: []TerrainCategory{
			{Name: "grass", Weight: 50, Color: "#7ec850"},
			{Name: "forest", Weight: 25, Color: "#2d6a2d"},
			{Name: "water", Weight: 15, Color: "#3a7bd5"},
			{Name: "rock", Weight: 10, Color: "#8d8d8d"},
		},
		Themes: map[string]Theme{
			"rune": {
				Labels: []string{
					"ᚠ", "ᚢ", "ᚦ", "ᚨ", "ᚱ", "ᚲ", "ᚷ", "ᚹ",
					"ᚺ", "ᚾ", "ᛁ", "ᛃ", "ᛇ", "ᛈ", "ᛉ", "ᛊ",
				},
			},
			"fun": {
				Labels: []string{
					"🦊", "🐙", "🦉", "🐸", "🦀", "🐢", "🦜", "🐝",
					"🦎", "🐌", "🦔", "🐞", "🦕", "🐠", "🦩", "🐿️",
				},
				Passwords: []string{
					"banana", "pickle", "walrus", "noodle",
					"bubble", "wombat", "muffin", "gizmo",
				},
			},
		},
		Levels: []Level{
			{ID: "crossings", Kind: LevelGrid, Rounds: 4, Theme: "rune"},
			{ID: "whispers", Kind: LevelCipher, Rounds: 3, Theme: "fun"},
		},
	}
}

// LoadRules reads a YAML rules file over the defaults, so a partial file
// only overrides what it names.
func LoadRules(path string) (*Rules, error) {
	rules := DefaultRules()

	if path == "" {
		return rules, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading rules file: %w", err)
	}

	if err := yaml.Unmarshal(data, rules); err != nil {
		return nil, fmt.Errorf("parsing rules file %q: %w", path, err)
	}

	return rules, nil
}

// Level returns the level with the given id, falling back to the first
// configured level when the id is unknown or empty.
func (r *Rules) Level(id string) Level {
	for _, l := range r.Levels {
		if l.ID == id {
			return l
		}
	}

	if len(r.Levels) > 0 {
		return r.Levels[0]
	}

	return Level{ID: "default", Kind: LevelGrid, Rounds: 1}
}

func (r *Rules) Theme(name string) Theme {
	return r.Themes[name]
}
