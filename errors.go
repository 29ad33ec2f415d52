// errors.go
// Copyright (C) 2026 Vilhjálmur Þorsteinsson / Miðeind ehf.

// This file declares the errors that the game engine reports:
// move rejections, initialization failures, vocabulary and
// persistence errors.

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
	"errors"
	"fmt"
)

// RejectKind identifies why a move was rejected
type RejectKind int

// The rejection kinds. The first six are produced by path
// validation on the Board; the rest by the Game itself.
const (
	CellOccupied RejectKind = iota + 1
	CellNotAdjacent
	WordTooShort
	WordNotInDictionary
	WordAlreadyUsed
	PathRevisitsCell
	PathMissesCell
	PathCellEmpty
	CellOutOfBounds
	InvalidLetter
	GameAlreadyFinished
	NotPlayersTurn
	ReplayMode
)

var rejectKindNames = map[RejectKind]string{
	CellOccupied:        "CellOccupied",
	CellNotAdjacent:     "CellNotAdjacent",
	WordTooShort:        "WordTooShort",
	WordNotInDictionary: "WordNotInDictionary",
	WordAlreadyUsed:     "WordAlreadyUsed",
	PathRevisitsCell:    "PathRevisitsCell",
	PathMissesCell:      "PathMissesCell",
	PathCellEmpty:       "PathCellEmpty",
	CellOutOfBounds:     "CellOutOfBounds",
	InvalidLetter:       "InvalidLetter",
	GameAlreadyFinished: "GameAlreadyFinished",
	NotPlayersTurn:      "NotPlayersTurn",
	ReplayMode:          "ReplayMode",
}

// String returns the name of a RejectKind
func (kind RejectKind) String() string {
	if name, ok := rejectKindNames[kind]; ok {
		return name
	}
	return fmt.Sprintf("RejectKind(%d)", int(kind))
}

// MoveError is returned when a move is rejected. The Kind is always
// set; Coord and Word are filled in when they are known.
type MoveError struct {
	Kind  RejectKind
	Coord *Coordinate
	Word  string
}

func (e *MoveError) Error() string {
	msg := "move rejected: " + e.Kind.String()
	if e.Coord != nil {
		msg += " at " + e.Coord.String()
	}
	if e.Word != "" {
		msg += fmt.Sprintf(" (word '%s')", e.Word)
	}
	return msg
}

// Is makes errors.Is() match any MoveError of the same kind,
// so that callers can compare against the Err* sentinels below
func (e *MoveError) Is(target error) bool {
	var other *MoveError
	if errors.As(target, &other) {
		return other.Kind == e.Kind
	}
	return false
}

func reject(kind RejectKind, coord *Coordinate, word string) *MoveError {
	if coord != nil {
		c := *coord
		coord = &c
	}
	return &MoveError{Kind: kind, Coord: coord, Word: word}
}

// Sentinels for errors.Is() comparisons
var (
	ErrCellOccupied        = &MoveError{Kind: CellOccupied}
	ErrCellNotAdjacent     = &MoveError{Kind: CellNotAdjacent}
	ErrWordTooShort        = &MoveError{Kind: WordTooShort}
	ErrWordNotInDictionary = &MoveError{Kind: WordNotInDictionary}
	ErrWordAlreadyUsed     = &MoveError{Kind: WordAlreadyUsed}
	ErrPathRevisitsCell    = &MoveError{Kind: PathRevisitsCell}
	ErrPathMissesCell      = &MoveError{Kind: PathMissesCell}
	ErrPathCellEmpty       = &MoveError{Kind: PathCellEmpty}
	ErrCellOutOfBounds     = &MoveError{Kind: CellOutOfBounds}
	ErrInvalidLetter       = &MoveError{Kind: InvalidLetter}
	ErrGameAlreadyFinished = &MoveError{Kind: GameAlreadyFinished}
	ErrNotPlayersTurn      = &MoveError{Kind: NotPlayersTurn}
	ErrReplayMode          = &MoveError{Kind: ReplayMode}
)

// RejectKindOf returns the RejectKind carried by err, if any
func RejectKindOf(err error) (RejectKind, bool) {
	var me *MoveError
	if errors.As(err, &me) {
		return me.Kind, true
	}
	return 0, false
}

// InitReason tells why a game could not be created
type InitReason int

const (
	StartWordTooShort InitReason = iota + 1
	StartWordTooLong
	StartWordUnknown
	StartWordInvalidLetters
	BadPlayerCount
	BadPlayerName
	DuplicatePlayerNames
	BadPlayerSettings
	BadRules
	VocabularyNotReady
)

var initReasonNames = map[InitReason]string{
	StartWordTooShort:       "start word too short",
	StartWordTooLong:        "start word too long",
	StartWordUnknown:        "start word not in dictionary",
	StartWordInvalidLetters: "start word has invalid letters",
	BadPlayerCount:          "invalid number of players",
	BadPlayerName:           "invalid player name",
	DuplicatePlayerNames:    "duplicate player names",
	BadPlayerSettings:       "invalid player settings",
	BadRules:                "invalid rules",
	VocabularyNotReady:      "vocabulary unavailable",
}

func (reason InitReason) String() string {
	if name, ok := initReasonNames[reason]; ok {
		return name
	}
	return fmt.Sprintf("InitReason(%d)", int(reason))
}

// InitError is returned by NewGame when the game cannot be set up.
// No Game is created in that case.
type InitError struct {
	Reason InitReason
	Detail string
}

func (e *InitError) Error() string {
	if e.Detail == "" {
		return "cannot start game: " + e.Reason.String()
	}
	return fmt.Sprintf("cannot start game: %v: %s", e.Reason, e.Detail)
}

// Is matches InitErrors with the same Reason
func (e *InitError) Is(target error) bool {
	var other *InitError
	if errors.As(target, &other) {
		return other.Reason == e.Reason
	}
	return false
}

// ErrVocabularyUnavailable is wrapped by every vocabulary load failure
var ErrVocabularyUnavailable = errors.New("vocabulary unavailable")

// Persistence errors
var (
	ErrCorruptSave     = errors.New("corrupt save file")
	ErrVersionMismatch = errors.New("unsupported save file version")
	// Replay stepping errors
	ErrNotReplay       = errors.New("game is not a replay")
	ErrReplayExhausted = errors.New("no more moves to replay")
)

// IntegrityError signals that a recorded history cannot be replayed
// against the board it claims to have been played on. This means
// the save data is corrupted; it is never a user error.
type IntegrityError struct {
	Seq    int
	Reason string
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("integrity error at move %d: %s", e.Seq, e.Reason)
}

// Unwrap lets errors.Is(err, ErrCorruptSave) hold for integrity errors
func (e *IntegrityError) Unwrap() error {
	return ErrCorruptSave
}
