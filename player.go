// player.go
// Copyright (C) 2026 Vilhjálmur Þorsteinsson / Miðeind ehf.
// This file implements the players of a game, human or computer,
// and the difficulty levels of computer players.

/*

This program is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with this program.  If not, see <http://www.gnu.org/licenses/>.

*/

package balda

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Difficulty is the playing strength of a computer player
type Difficulty int

const (
	Easy Difficulty = iota
	Medium
	Hard
)

// threshold is one entry of a take probability table: words of
// at least this length are taken with this percent probability
// (unless a greater threshold applies)
type threshold struct {
	length  int
	percent int
}

// The take probability tables, sorted by ascending length.
// Easy settles for short words, Medium prefers words of
// middle length, and Hard rarely settles for less than five letters.
var takeProbabilities = [...][]threshold{
	Easy:   {{2, 70}, {4, 10}},
	Medium: {{2, 30}, {3, 40}, {4, 70}, {5, 70}, {6, 40}, {7, 30}},
	Hard:   {{2, 0}, {4, 10}, {5, 90}},
}

var difficultyNames = [...]string{
	Easy:   "easy",
	Medium: "medium",
	Hard:   "hard",
}

func (d Difficulty) String() string {
	if d < Easy || d > Hard {
		return fmt.Sprintf("Difficulty(%d)", int(d))
	}
	return difficultyNames[d]
}

// ParseDifficulty converts a difficulty name to a Difficulty
func ParseDifficulty(s string) (Difficulty, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for d, n := range difficultyNames {
		if n == name {
			return Difficulty(d), nil
		}
	}
	return Easy, fmt.Errorf("unknown difficulty '%s'", s)
}

// MarshalText encodes a Difficulty by name
func (d Difficulty) MarshalText() ([]byte, error) {
	if !d.Valid() {
		return nil, fmt.Errorf("invalid difficulty %d", int(d))
	}
	return []byte(d.String()), nil
}

// UnmarshalText decodes a Difficulty from its name
func (d *Difficulty) UnmarshalText(text []byte) error {
	parsed, err := ParseDifficulty(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Valid returns true for the three defined difficulties
func (d Difficulty) Valid() bool {
	return d >= Easy && d <= Hard
}

// TakeProbability returns the percent probability of taking a word
// of the given length, from the greatest table entry not exceeding
// the length. If the word is shorter than every entry, ok is false.
func (d Difficulty) TakeProbability(length int) (percent int, ok bool) {
	if !d.Valid() {
		return 0, false
	}
	table := takeProbabilities[d]
	// Find the first entry with a length above the word length;
	// the entry before it is the one that applies
	ix := sort.Search(len(table), func(i int) bool {
		return table[i].length > length
	})
	if ix == 0 {
		return 0, false
	}
	return table[ix-1].percent, true
}

// ShouldTake draws a random percentile and decides whether a
// computer player of this difficulty settles for a word of
// the given length. Words shorter than all table entries are
// always taken.
func (d Difficulty) ShouldTake(length int, rnd Random) bool {
	percent, ok := d.TakeProbability(length)
	if !ok {
		return true
	}
	return rnd.Intn(100) < percent
}

// PlayerKind tells whether a player is a human or a computer
type PlayerKind int

const (
	Human PlayerKind = iota
	Computer
)

func (kind PlayerKind) String() string {
	switch kind {
	case Human:
		return "human"
	case Computer:
		return "computer"
	}
	return fmt.Sprintf("PlayerKind(%d)", int(kind))
}

// ParsePlayerKind converts "human" or "computer" to a PlayerKind
func ParsePlayerKind(s string) (PlayerKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "human":
		return Human, nil
	case "computer":
		return Computer, nil
	}
	return Human, fmt.Errorf("unknown player kind '%s'", s)
}

// MarshalText encodes a PlayerKind by name
func (kind PlayerKind) MarshalText() ([]byte, error) {
	if kind != Human && kind != Computer {
		return nil, fmt.Errorf("invalid player kind %d", int(kind))
	}
	return []byte(kind.String()), nil
}

// UnmarshalText decodes a PlayerKind from its name
func (kind *PlayerKind) UnmarshalText(text []byte) error {
	parsed, err := ParsePlayerKind(string(text))
	if err != nil {
		return err
	}
	*kind = parsed
	return nil
}

// PlayerConfig describes a player when a game is set up.
// Difficulty and Delay only apply to computer players.
// Delay is a whole number of milliseconds, the unit it is saved in.
type PlayerConfig struct {
	Name       string
	Kind       PlayerKind
	Difficulty Difficulty
	Delay      time.Duration
}

// HumanPlayer returns the configuration of a human player
func HumanPlayer(name string) PlayerConfig {
	return PlayerConfig{Name: name, Kind: Human}
}

// ComputerPlayer returns the configuration of a computer player
func ComputerPlayer(name string, difficulty Difficulty, delay time.Duration) PlayerConfig {
	return PlayerConfig{Name: name, Kind: Computer, Difficulty: difficulty, Delay: delay}
}

// validatePlayers checks names and settings of the players
// of a new game, returning an *InitError if anything is amiss
func validatePlayers(configs []PlayerConfig) error {
	if len(configs) != NumPlayers {
		return &InitError{BadPlayerCount, fmt.Sprintf("%d players", len(configs))}
	}
	seen := make(map[string]bool)
	for i, pc := range configs {
		name := strings.TrimSpace(pc.Name)
		if n := RuneCount(name); n < 1 || n > MaxNameLength {
			return &InitError{BadPlayerName, fmt.Sprintf("player %d: name must have 1..%d letters", i+1, MaxNameLength)}
		}
		if seen[name] {
			return &InitError{DuplicatePlayerNames, name}
		}
		seen[name] = true
		switch pc.Kind {
		case Human:
		case Computer:
			if !pc.Difficulty.Valid() || pc.Delay < 0 || pc.Delay%time.Millisecond != 0 {
				return &InitError{BadPlayerSettings, name}
			}
		default:
			return &InitError{BadPlayerSettings, name}
		}
	}
	return nil
}

// Player is a participant in a Game
type Player struct {
	config PlayerConfig
	score  int
	// Sequence numbers of the moves made by this player
	moves []int
}

func newPlayer(pc PlayerConfig) *Player {
	pc.Name = strings.TrimSpace(pc.Name)
	if pc.Kind == Human {
		pc.Difficulty, pc.Delay = Easy, 0
	}
	return &Player{config: pc}
}

// Name returns the player's name
func (p *Player) Name() string { return p.config.Name }

// Kind returns Human or Computer
func (p *Player) Kind() PlayerKind { return p.config.Kind }

// IsComputer returns true for computer players
func (p *Player) IsComputer() bool { return p.config.Kind == Computer }

// Difficulty returns the difficulty of a computer player
func (p *Player) Difficulty() Difficulty { return p.config.Difficulty }

// Delay returns the thinking delay of a computer player
func (p *Player) Delay() time.Duration { return p.config.Delay }

// Config returns the configuration the player was created from
func (p *Player) Config() PlayerConfig { return p.config }

// Score returns the player's current score
func (p *Player) Score() int { return p.score }

// MoveSeqs returns the sequence numbers of the player's moves
func (p *Player) MoveSeqs() []int {
	seqs := make([]int, len(p.moves))
	copy(seqs, p.moves)
	return seqs
}

func (p *Player) String() string {
	if p.IsComputer() {
		return fmt.Sprintf("%s (%v, %v) %d", p.config.Name, p.config.Difficulty, p.config.Delay, p.score)
	}
	return fmt.Sprintf("%s %d", p.config.Name, p.score)
}
