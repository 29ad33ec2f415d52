// movegen.go
// Copyright (C) 2026 Vilhjálmur Þorsteinsson / Miðeind ehf.
// This file contains code to find candidate moves on the
// board, for the computer player and for stalemate detection.

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

/*

The search works as follows:

1) Every empty square that touches a letter is an anchor square.
2) For each anchor and each letter of the alphabet, the letter is
	tentatively put on the anchor.
3) Starting from every filled square (and from the anchor itself),
	a depth-first walk extends a path through adjacent filled squares,
	never visiting a square twice.
4) The walk is cut short as soon as the letters collected so far
	are not a prefix of any word in the vocabulary, or the path
	reaches its length bound.
5) A path that passes through the anchor, spells a word of at least
	Rules.MinWordLength letters, and is not yet used in the game,
	is a candidate. Only the first path found for each
	(anchor, letter, word) combination is kept.

The computer player's search is bounded by Rules.MaxPathLength and
Rules.MaxCandidates. The candidate budget is shared out between the
anchor squares, so that every part of the board is represented in
the list even when the budget runs out.

Legality is decided by a separate search that stops at the first
candidate. Its paths are bounded only by the number of letters on
the board, so a long word is never missed because of the tuning
bounds of the computer player.

Results of both searches are cached per vocabulary, keyed by the
board contents, the used words and the search bounds.

*/

package balda

import (
	"fmt"
	"sort"
	"strings"
)

// Candidate is a legal move that has been found on the board
type Candidate struct {
	Placement
	Word string
}

// Length returns the length of the candidate's word in letters
func (c Candidate) Length() int {
	return len(c.Path)
}

func (c Candidate) String() string {
	return fmt.Sprintf("%c@%v %s", c.Letter, c.At, c.Word)
}

// Position contains the bare minimum of information
// that is needed for a robot player to decide on a move
type Position struct {
	Vocab *Vocabulary
	Board *Board
	Used  WordSet
	Rules *Rules
}

// GenerateMoves returns the candidate moves in the Position.
// The returned slice is shared and must not be modified.
func (pos *Position) GenerateMoves() []Candidate {
	return GenerateCandidates(pos.Board, pos.Vocab, pos.Used, pos.Rules)
}

// GenerateCandidates finds legal moves on the board, within the search
// bounds of the rules. The order of the result is deterministic. The
// slice may be shared with other callers through the cache and must
// not be modified.
func GenerateCandidates(board *Board, vocab *Vocabulary, used WordSet, rules *Rules) []Candidate {
	key := positionKey(board, used, rules.MinWordLength, rules.MaxPathLength, rules.MaxCandidates)
	return vocab.candidates.Lookup(key, func() []Candidate {
		return searchCandidates(board, vocab, used, rules)
	})
}

// HasLegalMove returns true if at least one legal move exists,
// however long its word. The computer player's search bounds
// do not apply.
func HasLegalMove(board *Board, vocab *Vocabulary, used WordSet, rules *Rules) bool {
	// A path holds at most every letter on the board plus the new one
	maxPath := board.NumTiles + 1
	key := positionKey(board, used, rules.MinWordLength, maxPath, 1)
	found := vocab.candidates.Lookup(key, func() []Candidate {
		ps := newPathSearch(board, vocab, used, rules.MinWordLength, maxPath)
		for _, anchor := range ps.anchors() {
			if ps.searchAnchor(anchor, 1); len(ps.results) > 0 {
				break
			}
		}
		return ps.results
	})
	return len(found) > 0
}

func positionKey(board *Board, used WordSet, minLength, maxPath, maxResults int) string {
	words := make([]string, 0, len(used))
	for w := range used {
		words = append(words, w)
	}
	sort.Strings(words)
	return fmt.Sprintf("%s|%s|%d,%d,%d,%d",
		strings.Join(board.Snapshot(), "/"),
		strings.Join(words, ","),
		board.Adjacency, minLength, maxPath, maxResults,
	)
}

// pathSearch holds the state of the depth-first walk
// for one anchor square and letter
type pathSearch struct {
	board     *Board
	vocab     *Vocabulary
	used      WordSet
	minLength int
	maxPath   int
	// The search stops when this many results have been found
	limit   int
	anchor  Coordinate
	letter  rune
	path    []Coordinate
	runes   []rune
	visited [][]bool
	seen    map[string]bool
	results []Candidate
}

func newPathSearch(board *Board, vocab *Vocabulary, used WordSet, minLength, maxPath int) *pathSearch {
	ps := &pathSearch{
		board:     board,
		vocab:     vocab,
		used:      used,
		minLength: minLength,
		maxPath:   maxPath,
		visited:   make([][]bool, board.Size),
		results:   make([]Candidate, 0, 64),
	}
	for i := range ps.visited {
		ps.visited[i] = make([]bool, board.Size)
	}
	return ps
}

func searchCandidates(board *Board, vocab *Vocabulary, used WordSet, rules *Rules) []Candidate {
	ps := newPathSearch(board, vocab, used, rules.MinWordLength, rules.MaxPathLength)
	anchors := ps.anchors()
	for i, anchor := range anchors {
		remaining := rules.MaxCandidates - len(ps.results)
		if remaining <= 0 {
			break
		}
		// Share what is left of the budget evenly between the
		// anchors not yet searched, rounding up
		left := len(anchors) - i
		quota := (remaining + left - 1) / left
		ps.searchAnchor(anchor, len(ps.results)+quota)
	}
	return ps.results
}

// anchors returns the empty squares that touch a letter,
// in row-major order
func (ps *pathSearch) anchors() []Coordinate {
	var result []Coordinate
	for row := 0; row < ps.board.Size; row++ {
		for col := 0; col < ps.board.Size; col++ {
			if ps.board.Sq(row, col).IsEmpty() && ps.board.NumAdjacentTiles(row, col) > 0 {
				result = append(result, Coordinate{row, col})
			}
		}
	}
	return result
}

// searchAnchor tries every letter of the alphabet on the anchor
// square, until the number of results reaches limit
func (ps *pathSearch) searchAnchor(anchor Coordinate, limit int) {
	ps.anchor = anchor
	ps.limit = limit
	for _, letter := range ps.vocab.Alphabet().Runes() {
		ps.letter = letter
		ps.seen = make(map[string]bool)
		ps.fromAnchor()
		if ps.full() {
			return
		}
	}
}

func (ps *pathSearch) full() bool {
	return len(ps.results) >= ps.limit
}

// letterAt returns the letter at c, as if the tentative
// letter were already placed on the anchor square
func (ps *pathSearch) letterAt(c Coordinate) rune {
	if c == ps.anchor {
		return ps.letter
	}
	return ps.board.LetterAt(c)
}

// fromAnchor starts walks from every square that is filled
// or is the anchor itself
func (ps *pathSearch) fromAnchor() {
	for row := 0; row < ps.board.Size; row++ {
		for col := 0; col < ps.board.Size; col++ {
			c := Coordinate{row, col}
			if ps.letterAt(c) == 0 {
				continue
			}
			ps.extend(c)
			if ps.full() {
				return
			}
		}
	}
}

func (ps *pathSearch) extend(c Coordinate) {
	ps.path = append(ps.path, c)
	ps.runes = append(ps.runes, ps.letterAt(c))
	ps.visited[c.Row][c.Col] = true
	defer func() {
		ps.path = ps.path[:len(ps.path)-1]
		ps.runes = ps.runes[:len(ps.runes)-1]
		ps.visited[c.Row][c.Col] = false
	}()
	prefix := string(ps.runes)
	if !ps.vocab.HasPrefix(prefix) {
		return
	}
	anchored := ps.visited[ps.anchor.Row][ps.anchor.Col]
	if anchored && len(ps.runes) >= ps.minLength &&
		!ps.seen[prefix] && ps.vocab.contains(prefix) && !ps.used.Has(prefix) {
		ps.seen[prefix] = true
		path := make([]Coordinate, len(ps.path))
		copy(path, ps.path)
		ps.results = append(ps.results, Candidate{
			Placement: Placement{Letter: ps.letter, At: ps.anchor, Path: path},
			Word:      prefix,
		})
		if ps.full() {
			return
		}
	}
	if len(ps.path) >= ps.maxPath {
		return
	}
	for _, sq := range ps.board.Neighbours(c.Row, c.Col) {
		next := sq.Coord()
		if ps.visited[next.Row][next.Col] || ps.letterAt(next) == 0 {
			continue
		}
		ps.extend(next)
		if ps.full() {
			return
		}
	}
}
