// move.go
// Copyright (C) 2026 Vilhjálmur Þorsteinsson / Miðeind ehf.
// This file implements the Move, the record of one
// accepted turn in a game

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
	"strings"
)

// Move represents one accepted turn: the letter that was placed,
// where, the path that spelled the word, and the score.
// Moves are only created by the Game after successful validation
// (or when replaying a saved history), and never change afterwards.
type Move struct {
	seq    int
	player int
	letter rune
	at     Coordinate
	path   []Coordinate
	word   string
	score  int
}

func newMove(seq, player int, p Placement, word string, score int) Move {
	path := make([]Coordinate, len(p.Path))
	copy(path, p.Path)
	return Move{
		seq:    seq,
		player: player,
		letter: p.Letter,
		at:     p.At,
		path:   path,
		word:   word,
		score:  score,
	}
}

// Seq returns the 1-based sequence number of the move
func (move Move) Seq() int { return move.seq }

// Player returns the index of the player who made the move
func (move Move) Player() int { return move.player }

// Letter returns the letter that was placed
func (move Move) Letter() rune { return move.letter }

// At returns the coordinate of the placed letter
func (move Move) At() Coordinate { return move.at }

// Word returns the word formed by the move
func (move Move) Word() string { return move.word }

// Score returns the number of points awarded for the move
func (move Move) Score() int { return move.score }

// Path returns a copy of the path that spelled the word
func (move Move) Path() []Coordinate {
	path := make([]Coordinate, len(move.path))
	copy(path, move.path)
	return path
}

// Placement returns the Placement that produced the move
func (move Move) Placement() Placement {
	return Placement{Letter: move.letter, At: move.at, Path: move.Path()}
}

// String return a string description of a Move
func (move Move) String() string {
	var sb strings.Builder
	for i, c := range move.path {
		if i > 0 {
			sb.WriteString("-")
		}
		sb.WriteString(c.String())
	}
	return fmt.Sprintf("%d. %c@%v %s [%s] %d", move.seq, move.letter, move.at, move.word, sb.String(), move.score)
}
