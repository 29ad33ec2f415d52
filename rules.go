// rules.go
// Copyright (C) 2026 Vilhjálmur Þorsteinsson / Miðeind ehf.

// This file contains the adjustable rules of a game.

package balda

import "fmt"

const (
	// MinStartWordLength is the minimum length of the start word
	MinStartWordLength = 3
	// MaxNameLength is the maximum length of a player name, in runes
	MaxNameLength = 12
	// NumPlayers is the number of players in a game
	NumPlayers = 2
)

// Rules holds the settings that govern a game. They are
// stored with saved games so that a game is always continued
// under the rules it was started with.
type Rules struct {
	BoardSize     int       `json:"board_size"`
	Adjacency     Adjacency `json:"adjacency"`
	MinWordLength int       `json:"min_word_length"`
	// MaxRejections ends the game when the player to move has had
	// this many consecutive moves rejected. Zero means no limit.
	MaxRejections int `json:"max_rejections"`
	// DetectStalemate ends the game when the player to move
	// has no legal move at all
	DetectStalemate bool `json:"detect_stalemate"`
	// Bounds on the computer player's search
	MaxPathLength int `json:"max_path_length"`
	MaxCandidates int `json:"max_candidates"`
}

// DefaultRules returns the standard rules: a 5x5 board,
// four-way adjacency and two-letter minimum words
func DefaultRules() Rules {
	return Rules{
		BoardSize:       DefaultBoardSize,
		Adjacency:       FourWay,
		MinWordLength:   2,
		MaxRejections:   0,
		DetectStalemate: true,
		MaxPathLength:   10,
		MaxCandidates:   2000,
	}
}

// Validate checks that the rules are consistent
func (rules *Rules) Validate() error {
	if rules.BoardSize < MinBoardSize || rules.BoardSize > MaxBoardSize || rules.BoardSize%2 == 0 {
		return fmt.Errorf("board size must be an odd number between %d and %d", MinBoardSize, MaxBoardSize)
	}
	if rules.Adjacency != FourWay && rules.Adjacency != EightWay {
		return fmt.Errorf("invalid adjacency %d", rules.Adjacency)
	}
	if rules.MinWordLength < 1 {
		return fmt.Errorf("minimum word length must be positive")
	}
	if rules.MaxRejections < 0 {
		return fmt.Errorf("maximum rejections cannot be negative")
	}
	if rules.MaxPathLength < rules.MinWordLength || rules.MaxCandidates < 1 {
		return fmt.Errorf("search bounds too small")
	}
	return nil
}
