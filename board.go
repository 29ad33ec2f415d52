// board.go
// Copyright (C) 2026 Vilhjálmur Þorsteinsson / Miðeind ehf.
// This file implements the Board and its Squares, together
// with the validation of a letter placement and the word path
// traced through it

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
	"strconv"
	"strings"
	"unicode/utf8"
)

// Board sizes
const (
	DefaultBoardSize = 5
	MinBoardSize     = 3
	MaxBoardSize     = 9
)

// Adjacency selects which squares count as neighbours
type Adjacency int

const (
	// FourWay: squares sharing an edge
	FourWay Adjacency = iota
	// EightWay: squares sharing an edge or a corner
	EightWay
)

func (a Adjacency) String() string {
	if a == EightWay {
		return "eight"
	}
	return "four"
}

// ParseAdjacency converts "four"/"4" or "eight"/"8" to an Adjacency
func ParseAdjacency(s string) (Adjacency, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "four", "4":
		return FourWay, nil
	case "eight", "8":
		return EightWay, nil
	}
	return FourWay, fmt.Errorf("unknown adjacency '%s'", s)
}

// MarshalText encodes an Adjacency as "four" or "eight"
func (a Adjacency) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText decodes an Adjacency
func (a *Adjacency) UnmarshalText(text []byte) error {
	parsed, err := ParseAdjacency(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// Indices into AdjSquares. The first four are the orthogonal
// neighbours, used with FourWay adjacency; EightWay adds the
// diagonals.
const (
	ABOVE = iota
	LEFT
	RIGHT
	BELOW
	ABOVE_LEFT
	ABOVE_RIGHT
	BELOW_LEFT
	BELOW_RIGHT
)

var directionOffsets = [8][2]int{
	{-1, 0}, {0, -1}, {0, 1}, {1, 0},
	{-1, -1}, {-1, 1}, {1, -1}, {1, 1},
}

// AdjSquares is a list of eight Square pointers,
// with a nil if the corresponding adjacent Square does not exist
type AdjSquares [8]*Square

// Square is a Board square that can hold a letter
type Square struct {
	Letter rune // 0 if the square is empty
	Seq    int  // Sequence number of the move that placed the letter; 0 for the start word
	Row    int
	Col    int
}

// IsEmpty returns true if no letter has been placed in the Square
func (square *Square) IsEmpty() bool {
	return square.Letter == 0
}

// Coord returns the Coordinate of the Square
func (square *Square) Coord() Coordinate {
	return Coordinate{square.Row, square.Col}
}

// String represents a Square as a string. An empty
// Square is indicated by a dot ('.').
func (square *Square) String() string {
	if square.IsEmpty() {
		return "."
	}
	return string(square.Letter)
}

// Coordinate stores a Board co-ordinate as as row, col tuple
type Coordinate struct {
	Row, Col int
}

// String returns the coordinate in the usual notation, i.e. a column
// letter followed by a 1-based row number, such as "c3"
func (c Coordinate) String() string {
	if c.Col < 0 || c.Col >= 26 || c.Row < 0 {
		return fmt.Sprintf("(%d,%d)", c.Row, c.Col)
	}
	return string(rune('a'+c.Col)) + strconv.Itoa(c.Row+1)
}

// ParseCoordinate is the inverse of Coordinate.String()
func ParseCoordinate(s string) (Coordinate, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if len(s) < 2 || s[0] < 'a' || s[0] > 'z' {
		return Coordinate{}, fmt.Errorf("invalid coordinate '%s'", s)
	}
	row, err := strconv.Atoi(s[1:])
	if err != nil || row < 1 {
		return Coordinate{}, fmt.Errorf("invalid coordinate '%s'", s)
	}
	return Coordinate{Row: row - 1, Col: int(s[0] - 'a')}, nil
}

// MarshalText encodes a Coordinate in the "c3" notation
func (c Coordinate) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText decodes a Coordinate from the "c3" notation
func (c *Coordinate) UnmarshalText(text []byte) error {
	parsed, err := ParseCoordinate(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// Placement is a candidate move: a letter placed on an empty
// square, and the path of squares that spells out a word.
// The path must pass through the placed letter exactly once.
type Placement struct {
	Letter rune
	At     Coordinate
	Path   []Coordinate
}

// WordSet is a set of words that have been used in a game
type WordSet map[string]struct{}

// Has returns true if the word is in the set
func (ws WordSet) Has(word string) bool {
	_, ok := ws[word]
	return ok
}

// Add adds a word to the set
func (ws WordSet) Add(word string) {
	ws[word] = struct{}{}
}

// Board represents the board as a matrix of Squares,
// and caches an adjacency matrix for each Square,
// consisting of pointers to adjacent Squares
type Board struct {
	Size      int
	Adjacency Adjacency
	Squares   [][]Square
	Adjacents [][]AdjSquares
	// The number of letters on the board
	NumTiles int
}

// NewBoard returns a fresh, empty Board
func NewBoard(size int, adjacency Adjacency) *Board {
	board := &Board{}
	board.Init(size, adjacency)
	return board
}

// Init initializes an empty board
func (board *Board) Init(size int, adjacency Adjacency) {
	board.Size = size
	board.Adjacency = adjacency
	board.NumTiles = 0
	board.Squares = make([][]Square, size)
	for i := 0; i < size; i++ {
		board.Squares[i] = make([]Square, size)
		for j := 0; j < size; j++ {
			sq := &board.Squares[i][j]
			sq.Row = i
			sq.Col = j
		}
	}
	// Initialize the cached matrix of adjacent square lists
	board.Adjacents = make([][]AdjSquares, size)
	for row := 0; row < size; row++ {
		board.Adjacents[row] = make([]AdjSquares, size)
		for col := 0; col < size; col++ {
			adj := &board.Adjacents[row][col]
			for dir, offset := range directionOffsets {
				adj[dir] = board.Sq(row+offset[0], col+offset[1])
			}
		}
	}
}

// Sq returns a pointer to a Board square, or nil if the
// coordinate is off the board
func (board *Board) Sq(row, col int) *Square {
	if row < 0 || row >= board.Size || col < 0 || col >= board.Size {
		return nil
	}
	return &board.Squares[row][col]
}

// Contains returns true if the coordinate is on the board
func (board *Board) Contains(c Coordinate) bool {
	return board.Sq(c.Row, c.Col) != nil
}

// LetterAt returns the letter at the given coordinate, or 0
// if the square is empty or off the board
func (board *Board) LetterAt(c Coordinate) rune {
	sq := board.Sq(c.Row, c.Col)
	if sq == nil {
		return 0
	}
	return sq.Letter
}

// numDirections returns how many entries of AdjSquares are in use
func (board *Board) numDirections() int {
	if board.Adjacency == EightWay {
		return 8
	}
	return 4
}

// Neighbours returns the squares adjacent to the given coordinate
func (board *Board) Neighbours(row, col int) []*Square {
	adj := &board.Adjacents[row][col]
	result := make([]*Square, 0, 8)
	for _, sq := range adj[:board.numDirections()] {
		if sq != nil {
			result = append(result, sq)
		}
	}
	return result
}

// IsAdjacent returns true if two coordinates are neighbours
// under the board's adjacency rule
func (board *Board) IsAdjacent(a, b Coordinate) bool {
	dr, dc := b.Row-a.Row, b.Col-a.Col
	if dr < 0 {
		dr = -dr
	}
	if dc < 0 {
		dc = -dc
	}
	if board.Adjacency == EightWay {
		return dr <= 1 && dc <= 1 && dr+dc > 0
	}
	return dr+dc == 1
}

// NumAdjacentTiles returns the number of letters on the
// Board that are adjacent to the given coordinate
func (board *Board) NumAdjacentTiles(row, col int) int {
	var count = 0
	for _, sq := range board.Neighbours(row, col) {
		if !sq.IsEmpty() {
			count++
		}
	}
	return count
}

// IsFull returns true if there are no empty squares left
func (board *Board) IsFull() bool {
	return board.NumTiles == board.Size*board.Size
}

// EmptyCount returns the number of empty squares
func (board *Board) EmptyCount() int {
	return board.Size*board.Size - board.NumTiles
}

// PlaceStartWord puts the start word centered in the middle row
// of an empty board. The word must be normalized already.
func (board *Board) PlaceStartWord(word string) error {
	runes := []rune(word)
	if len(runes) == 0 || len(runes) > board.Size {
		return fmt.Errorf("start word '%s' does not fit a board of size %d", word, board.Size)
	}
	if board.NumTiles != 0 {
		return fmt.Errorf("start word must be placed on an empty board")
	}
	row := board.Size / 2
	col := (board.Size - len(runes)) / 2
	for i, r := range runes {
		board.Commit(r, Coordinate{row, col + i}, 0)
	}
	return nil
}

// Commit puts a letter on an empty square, without any validation.
// This is used when replaying trusted history, and by
// PlaceAndValidate once a placement has been checked.
func (board *Board) Commit(letter rune, at Coordinate, seq int) {
	sq := board.Sq(at.Row, at.Col)
	sq.Letter = letter
	sq.Seq = seq
	board.NumTiles++
}

// Check validates a Placement without modifying the Board.
// On success it returns the word spelled by the path. On failure,
// the returned error is a *MoveError telling what is wrong.
func (board *Board) Check(p Placement, vocab *Vocabulary, used WordSet, minLength int) (string, error) {
	at := p.At
	sq := board.Sq(at.Row, at.Col)
	if sq == nil {
		return "", reject(CellOutOfBounds, &at, "")
	}
	if !vocab.Alphabet().Contains(p.Letter) {
		return "", reject(InvalidLetter, &at, "")
	}
	if !sq.IsEmpty() {
		return "", reject(CellOccupied, &at, "")
	}
	if board.NumAdjacentTiles(at.Row, at.Col) == 0 {
		// The new letter must touch a letter already on the board
		return "", reject(CellNotAdjacent, &at, "")
	}
	// Walk the path, collecting letters
	var sb strings.Builder
	visited := make(map[Coordinate]bool, len(p.Path))
	placed := false
	for i, c := range p.Path {
		psq := board.Sq(c.Row, c.Col)
		if psq == nil {
			return "", reject(CellOutOfBounds, &c, "")
		}
		if visited[c] {
			return "", reject(PathRevisitsCell, &c, "")
		}
		visited[c] = true
		if i > 0 && !board.IsAdjacent(p.Path[i-1], c) {
			return "", reject(CellNotAdjacent, &c, "")
		}
		if c == at {
			placed = true
			sb.WriteRune(p.Letter)
		} else if psq.IsEmpty() {
			return "", reject(PathCellEmpty, &c, "")
		} else {
			sb.WriteRune(psq.Letter)
		}
	}
	if !placed {
		return "", reject(PathMissesCell, &at, "")
	}
	word := sb.String()
	if utf8.RuneCountInString(word) < minLength {
		return "", reject(WordTooShort, nil, word)
	}
	if !vocab.contains(word) {
		return "", reject(WordNotInDictionary, nil, word)
	}
	if used.Has(word) {
		return "", reject(WordAlreadyUsed, nil, word)
	}
	return word, nil
}

// PlaceAndValidate checks a Placement and, only if it is valid,
// commits the letter to the board under the given move sequence
// number. The returned score is the length of the word.
// On rejection the board is left untouched.
func (board *Board) PlaceAndValidate(p Placement, vocab *Vocabulary, used WordSet, minLength int, seq int) (string, int, error) {
	word, err := board.Check(p, vocab, used, minLength)
	if err != nil {
		return "", 0, err
	}
	board.Commit(p.Letter, p.At, seq)
	return word, utf8.RuneCountInString(word), nil
}

// Clone returns a deep copy of the Board
func (board *Board) Clone() *Board {
	clone := NewBoard(board.Size, board.Adjacency)
	for i := range board.Squares {
		for j := range board.Squares[i] {
			clone.Squares[i][j].Letter = board.Squares[i][j].Letter
			clone.Squares[i][j].Seq = board.Squares[i][j].Seq
		}
	}
	clone.NumTiles = board.NumTiles
	return clone
}

// Snapshot returns the board as a list of row strings, with
// a '.' for each empty square
func (board *Board) Snapshot() []string {
	rows := make([]string, board.Size)
	for i := 0; i < board.Size; i++ {
		var sb strings.Builder
		for j := 0; j < board.Size; j++ {
			sb.WriteString(board.Sq(i, j).String())
		}
		rows[i] = sb.String()
	}
	return rows
}

// String represents a Board as a string
func (board *Board) String() string {
	var sb strings.Builder
	sb.WriteString("   ")
	for i := 0; i < board.Size; i++ {
		sb.WriteString(string(rune('a'+i)) + " ")
	}
	sb.WriteString("\n")
	for i := 0; i < board.Size; i++ {
		sb.WriteString(fmt.Sprintf("%2d ", i+1))
		for j := 0; j < board.Size; j++ {
			sb.WriteString(fmt.Sprintf("%v ", board.Sq(i, j)))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
