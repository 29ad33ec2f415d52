// persist.go
// Copyright (C) 2026 Vilhjálmur Þorsteinsson / Miðeind ehf.
// This file implements saving and loading of games,
// and the replay of saved games

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
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"time"
	"unicode/utf8"
)

// SaveVersion is the version of the save format written by Save()
const SaveVersion = 1

// SaveRecord is the persisted form of a game
type SaveRecord struct {
	Version   int            `json:"version"`
	ID        string         `json:"id"`
	Language  Language       `json:"language"`
	StartWord string         `json:"start_word"`
	Rules     Rules          `json:"rules"`
	Players   []PlayerRecord `json:"players"`
	Moves     []MoveRecord   `json:"moves"`
	Board     []string       `json:"board"`
	Finished  bool           `json:"finished"`
	Reason    EndReason      `json:"reason,omitempty"`
	Replay    bool           `json:"replay"`
}

// PlayerRecord is a persisted player. Difficulty and delay
// are only present for computer players.
type PlayerRecord struct {
	Name       string      `json:"name"`
	Kind       PlayerKind  `json:"kind"`
	Score      int         `json:"score"`
	Difficulty *Difficulty `json:"difficulty,omitempty"`
	DelayMs    int64       `json:"delay_ms,omitempty"`
}

// MoveRecord is a persisted move
type MoveRecord struct {
	Seq    int          `json:"seq"`
	Player int          `json:"player"`
	Letter string       `json:"letter"`
	At     Coordinate   `json:"at"`
	Path   []Coordinate `json:"path"`
	Word   string       `json:"word"`
	Score  int          `json:"score"`
}

func recordMove(move Move) MoveRecord {
	return MoveRecord{
		Seq:    move.seq,
		Player: move.player,
		Letter: string(move.letter),
		At:     move.at,
		Path:   move.Path(),
		Word:   move.word,
		Score:  move.score,
	}
}

// MarshalJSON encodes a Move in the same form as it is saved
func (move Move) MarshalJSON() ([]byte, error) {
	return json.Marshal(recordMove(move))
}

func (pr *PlayerRecord) config() PlayerConfig {
	pc := PlayerConfig{Name: pr.Name, Kind: pr.Kind}
	if pr.Kind == Computer {
		if pr.Difficulty != nil {
			pc.Difficulty = *pr.Difficulty
		}
		pc.Delay = time.Duration(pr.DelayMs) * time.Millisecond
	}
	return pc
}

// Record returns the persisted form of the game. A replay yields
// the record it was loaded from, whatever the replay position.
func (game *Game) Record() SaveRecord {
	game.mux.Lock()
	defer game.mux.Unlock()
	if game.record != nil {
		rec := *game.record
		rec.Replay = true
		return rec
	}
	rec := SaveRecord{
		Version:   SaveVersion,
		ID:        game.id,
		Language:  game.vocab.Language(),
		StartWord: game.startWord,
		Rules:     game.rules,
		Players:   make([]PlayerRecord, NumPlayers),
		Moves:     make([]MoveRecord, len(game.moveList)),
		Board:     game.board.Snapshot(),
		Finished:  game.finished,
		Reason:    game.reason,
		Replay:    game.replay,
	}
	for i, p := range game.players {
		pr := PlayerRecord{Name: p.Name(), Kind: p.Kind(), Score: p.score}
		if p.IsComputer() {
			d := p.Difficulty()
			pr.Difficulty = &d
			pr.DelayMs = p.Delay().Milliseconds()
		}
		rec.Players[i] = pr
	}
	for i, m := range game.moveList {
		rec.Moves[i] = recordMove(m)
	}
	return rec
}

// Save writes the game to w as indented JSON
func (game *Game) Save(w io.Writer) error {
	rec := game.Record()
	data, err := json.MarshalIndent(&rec, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding game %s: %w", game.id, err)
	}
	data = append(data, '\n')
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("writing game %s: %w", game.id, err)
	}
	return nil
}

// Load reads a saved game from r. If replay is true, the game starts
// at the initial position and its moves are stepped through with
// Step(); otherwise the game continues where it was saved.
func Load(r io.Reader, vocab *Vocabulary, replay bool, opts ...Option) (*Game, error) {
	var rec SaveRecord
	if err := json.NewDecoder(r).Decode(&rec); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptSave, err)
	}
	return LoadRecord(rec, vocab, replay, opts...)
}

// LoadRecord reconstructs a game from its persisted form. The
// recorded moves are trusted: words are not looked up in the
// vocabulary again. Inconsistent history is reported as an
// *IntegrityError and no game is returned.
func LoadRecord(rec SaveRecord, vocab *Vocabulary, replay bool, opts ...Option) (*Game, error) {
	if rec.Version != SaveVersion {
		return nil, fmt.Errorf("%w: %d", ErrVersionMismatch, rec.Version)
	}
	if vocab == nil {
		return nil, fmt.Errorf("%w: no vocabulary for '%s'", ErrVocabularyUnavailable, rec.Language)
	}
	if vocab.Language() != rec.Language {
		return nil, fmt.Errorf("%w: game is in '%s', vocabulary is '%s'",
			ErrVocabularyUnavailable, rec.Language, vocab.Language())
	}
	if err := rec.Rules.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptSave, err)
	}
	if len(rec.Players) != NumPlayers {
		return nil, fmt.Errorf("%w: %d players", ErrCorruptSave, len(rec.Players))
	}
	configs := make([]PlayerConfig, NumPlayers)
	for i := range rec.Players {
		configs[i] = rec.Players[i].config()
	}
	if err := validatePlayers(configs); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptSave, err)
	}
	length := utf8.RuneCountInString(rec.StartWord)
	if length == 0 || length > rec.Rules.BoardSize {
		return nil, fmt.Errorf("%w: start word '%s'", ErrCorruptSave, rec.StartWord)
	}
	s := newSettings(append([]Option{WithID(rec.ID)}, opts...))
	s.rules = rec.Rules
	game := newSession(vocab, rec.StartWord, configs, s)

	moves, err := verifyHistory(game.board.Clone(), rec)
	if err != nil {
		game.logger.Error().Err(err).Msg("Saved game failed integrity check")
		return nil, err
	}

	game.mux.Lock()
	if replay {
		game.replay = true
		game.script = moves
		game.scriptReason = rec.Reason
		if rec.Finished && rec.Reason == NotOver {
			game.scriptReason = BoardFull
		}
		saved := rec
		saved.Players = slices.Clone(rec.Players)
		saved.Moves = slices.Clone(rec.Moves)
		saved.Board = slices.Clone(rec.Board)
		game.record = &saved
	} else {
		for _, m := range moves {
			game.board.Commit(m.letter, m.at, m.seq)
			game.applyLocked(m)
		}
		if rec.Finished {
			reason := rec.Reason
			if reason == NotOver {
				reason = BoardFull
			}
			game.finished = true
			game.reason = reason
			close(game.over)
		} else {
			game.checkOverLocked()
			game.scheduleLocked()
		}
	}
	game.logger.Info().
		Int("moves", len(moves)).
		Bool("replay", replay).
		Msg("Game loaded")
	game.mux.Unlock()
	game.dispatch()
	return game, nil
}

// verifyHistory converts the recorded moves and checks that they can
// be replayed on the board: every letter goes on an empty square on
// the board, every path spells the recorded word through filled
// squares, and the scores and final board match the record
func verifyHistory(board *Board, rec SaveRecord) ([]Move, error) {
	moves := make([]Move, 0, len(rec.Moves))
	var scores [NumPlayers]int
	for i, mr := range rec.Moves {
		seq := i + 1
		fail := func(format string, args ...interface{}) error {
			return &IntegrityError{Seq: seq, Reason: fmt.Sprintf(format, args...)}
		}
		if mr.Seq != seq {
			return nil, fail("sequence number %d out of order", mr.Seq)
		}
		if mr.Player != i%NumPlayers {
			return nil, fail("move by player %d out of turn", mr.Player)
		}
		letter := []rune(mr.Letter)
		if len(letter) != 1 {
			return nil, fail("invalid letter '%s'", mr.Letter)
		}
		sq := board.Sq(mr.At.Row, mr.At.Col)
		if sq == nil {
			return nil, fail("square %v is off the board", mr.At)
		}
		if !sq.IsEmpty() {
			return nil, fail("square %v is already occupied", mr.At)
		}
		word := make([]rune, 0, len(mr.Path))
		placed := false
		for j, c := range mr.Path {
			if !board.Contains(c) {
				return nil, fail("path square %v is off the board", c)
			}
			if slices.Contains(mr.Path[:j], c) {
				return nil, fail("path revisits %v", c)
			}
			if j > 0 && !board.IsAdjacent(mr.Path[j-1], c) {
				return nil, fail("path squares %v and %v are not adjacent", mr.Path[j-1], c)
			}
			if c == mr.At {
				placed = true
				word = append(word, letter[0])
			} else if l := board.LetterAt(c); l != 0 {
				word = append(word, l)
			} else {
				return nil, fail("path square %v is empty", c)
			}
		}
		if !placed {
			return nil, fail("path does not include %v", mr.At)
		}
		if string(word) != mr.Word {
			return nil, fail("path spells '%s', not '%s'", string(word), mr.Word)
		}
		if mr.Score != len(word) {
			return nil, fail("score %d for '%s'", mr.Score, mr.Word)
		}
		board.Commit(letter[0], mr.At, seq)
		scores[mr.Player] += mr.Score
		moves = append(moves, newMove(seq, mr.Player, Placement{
			Letter: letter[0],
			At:     mr.At,
			Path:   mr.Path,
		}, mr.Word, mr.Score))
	}
	for i, pr := range rec.Players {
		if pr.Score != scores[i] {
			return nil, &IntegrityError{
				Seq:    len(rec.Moves),
				Reason: fmt.Sprintf("player %s has score %d, moves add up to %d", pr.Name, pr.Score, scores[i]),
			}
		}
	}
	if rec.Board != nil && !slices.Equal(rec.Board, board.Snapshot()) {
		return nil, &IntegrityError{Seq: len(rec.Moves), Reason: "board does not match the moves"}
	}
	return moves, nil
}
