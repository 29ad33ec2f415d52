// game_test.go
// Copyright (C) 2026 Vilhjálmur Þorsteinsson / Miðeind ehf.
// This file contains tests for game sessions

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
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

const waitTimeout = 5 * time.Second

func quiet() Option {
	return WithLogger(zerolog.Nop())
}

func humans() []PlayerConfig {
	return []PlayerConfig{HumanPlayer("Anna"), HumanPlayer("Bob")}
}

func newHouseGame(t *testing.T, players []PlayerConfig, opts ...Option) *Game {
	t.Helper()
	game, err := NewGame(newTestVocab(t), "house", players, append([]Option{quiet()}, opts...)...)
	if err != nil {
		t.Fatalf("Unable to create game: %v", err)
	}
	t.Cleanup(game.Close)
	return game
}

func mustCoord(s string) Coordinate {
	c, err := ParseCoordinate(s)
	if err != nil {
		panic(err)
	}
	return c
}

func expectReject(t *testing.T, err error, kind RejectKind) {
	t.Helper()
	if got, ok := RejectKindOf(err); !ok || got != kind {
		t.Errorf("Expected rejection %v, got %v", kind, err)
	}
}

func waitFor(t *testing.T, ch <-chan struct{}, what string) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(waitTimeout):
		t.Fatalf("Timed out waiting for %v", what)
	}
}

func TestNewGameErrors(t *testing.T) {
	vocab := newTestVocab(t)
	badRules := DefaultRules()
	badRules.BoardSize = 4
	cases := []struct {
		name    string
		vocab   *Vocabulary
		word    string
		players []PlayerConfig
		opts    []Option
		reason  InitReason
	}{
		{"no vocabulary", nil, "house", humans(), nil, VocabularyNotReady},
		{"even board", vocab, "house", humans(), []Option{WithRules(badRules)}, BadRules},
		{"one player", vocab, "house", humans()[:1], nil, BadPlayerCount},
		{"too short", vocab, "ho", humans(), nil, StartWordTooShort},
		{"too long", vocab, "houses", humans(), nil, StartWordTooLong},
		{"digits", vocab, "h0use", humans(), nil, StartWordInvalidLetters},
		{"unknown", vocab, "xyz", humans(), nil, StartWordUnknown},
	}
	for _, c := range cases {
		game, err := NewGame(c.vocab, c.word, c.players, append(c.opts, quiet())...)
		var initErr *InitError
		if game != nil || !errors.As(err, &initErr) || initErr.Reason != c.reason {
			t.Errorf("%v: expected %v, got %v", c.name, c.reason, err)
		}
		if !errors.Is(err, &InitError{Reason: c.reason}) {
			t.Errorf("%v: errors.Is does not match the reason", c.name)
		}
	}
}

func TestNewGame(t *testing.T) {
	game := newHouseGame(t, humans(), WithID("test-game"))
	state := game.State()
	if state.ID != "test-game" || state.StartWord != "house" || state.Language != English {
		t.Errorf("Unexpected game identity: %+v", state)
	}
	if !slices.Equal(state.Board, []string{".....", ".....", "house", ".....", "....."}) {
		t.Errorf("Unexpected board %v", state.Board)
	}
	if state.Current != 0 || state.Finished || state.Winner != -1 || len(state.Moves) != 0 {
		t.Errorf("Unexpected initial state: %+v", state)
	}
	// The start word is normalized and counts as used
	game2, err := NewGame(newTestVocab(t), " HOUSE ", humans(), quiet())
	if err != nil {
		t.Fatalf("Upper case start word rejected: %v", err)
	}
	defer game2.Close()
	_, err = game2.SubmitMove('e', mustCoord("d2"), trace("a3", "b3", "c3", "d3", "d2"))
	expectReject(t, err, WordAlreadyUsed)
}

func TestNewRandomGame(t *testing.T) {
	vocab := newTestVocab(t)
	game, err := NewRandomGame(vocab, humans(), quiet(), WithRandom(NewSeededRandom(9)))
	if err != nil {
		t.Fatalf("Unable to create random game: %v", err)
	}
	defer game.Close()
	word := game.StartWord()
	if n := RuneCount(word); n < MinStartWordLength || n > DefaultBoardSize || !vocab.Contains(word) {
		t.Errorf("Bad random start word '%v'", word)
	}
}

func TestPlayMoves(t *testing.T) {
	game := newHouseGame(t, humans())
	move, err := game.SubmitMove('S', mustCoord("e2"), trace("a3", "b3", "c3", "d3", "e3", "e2"))
	if err != nil {
		t.Fatalf("Move rejected: %v", err)
	}
	if move.Word() != "houses" || move.Score() != 6 || move.Seq() != 1 || move.Player() != 0 || move.Letter() != 's' {
		t.Errorf("Unexpected move %v", move)
	}
	if game.CurrentPlayer() != 1 {
		t.Errorf("Turn did not pass to the second player")
	}
	// A rejected move leaves everything as it was
	before := game.State()
	_, err = game.SubmitMove('x', mustCoord("a1"), trace("a1"))
	expectReject(t, err, CellNotAdjacent)
	after := game.State()
	if after.Current != 1 || len(after.Moves) != 1 || !slices.Equal(before.Board, after.Board) {
		t.Errorf("Rejected move changed the game")
	}
	move, err = game.SubmitMove('m', mustCoord("a2"), trace("b3", "a3", "a2"))
	if err != nil {
		t.Fatalf("Move rejected: %v", err)
	}
	if move.Player() != 1 || move.Seq() != 2 {
		t.Errorf("Unexpected move %v", move)
	}
	state := game.State()
	if state.Players[0].Score != 6 || state.Players[1].Score != 3 || state.Current != 0 {
		t.Errorf("Unexpected scores or turn: %+v", state.Players)
	}
	if last, ok := state.LastMove(); !ok || last.Word() != "ohm" {
		t.Errorf("Unexpected last move %v", last)
	}
	// Words can only be used once
	_, err = game.SubmitMove('s', mustCoord("e4"), trace("a3", "b3", "c3", "d3", "e3", "e4"))
	expectReject(t, err, WordAlreadyUsed)
	if game.board.Sq(3, 4).Seq != 0 || game.board.Sq(1, 4).Seq != 1 || game.board.Sq(1, 0).Seq != 2 {
		t.Errorf("Squares do not carry the right move numbers")
	}
}

func TestConcurrentSubmit(t *testing.T) {
	game := newHouseGame(t, humans())
	var wg sync.WaitGroup
	var mux sync.Mutex
	accepted := 0
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := game.SubmitMove('s', mustCoord("e2"), trace("a3", "b3", "c3", "d3", "e3", "e2"))
			if err == nil {
				mux.Lock()
				accepted++
				mux.Unlock()
			}
		}()
	}
	wg.Wait()
	if accepted != 1 {
		t.Errorf("Expected exactly one accepted move, got %v", accepted)
	}
	if state := game.State(); len(state.Moves) != 1 || state.Players[0].Score != 6 {
		t.Errorf("Unexpected state after concurrent moves: %+v", state)
	}
}

func TestMaxRejections(t *testing.T) {
	rules := DefaultRules()
	rules.MaxRejections = 2
	game := newHouseGame(t, humans(), WithRules(rules))
	_, err := game.SubmitMove('x', mustCoord("e2"), trace("e3", "e2"))
	expectReject(t, err, WordNotInDictionary)
	// A valid move resets the count
	if _, err := game.SubmitMove('s', mustCoord("e2"), trace("a3", "b3", "c3", "d3", "e3", "e2")); err != nil {
		t.Fatalf("Move rejected: %v", err)
	}
	for i := 0; i < 2; i++ {
		if game.IsOver() {
			t.Fatalf("Game ended after %v rejections", i)
		}
		_, err := game.SubmitMove('x', mustCoord("a1"), trace("a1"))
		expectReject(t, err, CellNotAdjacent)
	}
	if !game.IsOver() || game.State().Reason != Stuck {
		t.Fatalf("Game should be over as stuck: %v", game.State().Reason)
	}
	waitFor(t, game.Over(), "game over")
	if winner, ok := game.Winner(); !ok || winner != 0 {
		t.Errorf("Expected the first player to win, got %v", winner)
	}
	_, err = game.SubmitMove('m', mustCoord("a2"), trace("b3", "a3", "a2"))
	expectReject(t, err, GameAlreadyFinished)
}

func TestStalemate(t *testing.T) {
	vocab := newTestVocab(t, "cat", "cats")
	game, err := NewGame(vocab, "cat", humans(), quiet())
	if err != nil {
		t.Fatalf("Unable to create game: %v", err)
	}
	defer game.Close()
	if _, err := game.SubmitMove('s', mustCoord("e3"), trace("b3", "c3", "d3", "e3")); err != nil {
		t.Fatalf("Move rejected: %v", err)
	}
	state := game.State()
	if !state.Finished || state.Reason != Stalemate || state.Winner != 0 {
		t.Errorf("Expected stalemate won by the first player: %+v", state)
	}
	// A game that cannot even begin ends right away
	game, err = NewGame(newTestVocab(t, "cat", "dog"), "cat", humans(), quiet())
	if err != nil {
		t.Fatalf("Unable to create game: %v", err)
	}
	defer game.Close()
	if !game.IsOver() || game.State().Reason != Stalemate {
		t.Errorf("Game without moves should be a stalemate")
	}
	if _, ok := game.Winner(); ok {
		t.Errorf("Game without moves should be a draw")
	}
	// Without stalemate detection the game goes on
	rules := DefaultRules()
	rules.DetectStalemate = false
	game, err = NewGame(newTestVocab(t, "cat", "dog"), "cat", humans(), quiet(), WithRules(rules))
	if err != nil {
		t.Fatalf("Unable to create game: %v", err)
	}
	defer game.Close()
	if game.IsOver() {
		t.Errorf("Game ended without stalemate detection")
	}
}

func TestLongWordIsNotStalemate(t *testing.T) {
	vocab := newTestVocab(t, "abcdefghi", "ij", "abcdefghijk")
	rules := DefaultRules()
	rules.BoardSize = 9
	game, err := NewGame(vocab, "abcdefghi", humans(), quiet(), WithRules(rules))
	if err != nil {
		t.Fatalf("Unable to create game: %v", err)
	}
	defer game.Close()
	if _, err := game.SubmitMove('j', mustCoord("i6"), trace("i5", "i6")); err != nil {
		t.Fatalf("Move rejected: %v", err)
	}
	// The only word left is longer than the computer's path limit
	if game.IsOver() {
		t.Fatalf("Game ended with a legal move left: %+v", game.State())
	}
	long := trace("a5", "b5", "c5", "d5", "e5", "f5", "g5", "h5", "i5", "i6", "i7")
	if len(long) <= rules.MaxPathLength {
		t.Fatalf("Path of %v letters is within the path limit", len(long))
	}
	move, err := game.SubmitMove('k', mustCoord("i7"), long)
	if err != nil {
		t.Fatalf("Move rejected: %v", err)
	}
	if move.Word() != "abcdefghijk" || move.Score() != 11 {
		t.Errorf("Unexpected move %v", move)
	}
	if state := game.State(); !state.Finished || state.Reason != Stalemate || state.Winner != 1 {
		t.Errorf("Expected stalemate won by the second player: %+v", state)
	}
}

func TestBoardFullDraw(t *testing.T) {
	vocab := newTestVocab(t, "cat", "ac", "ba", "at", "ca", "ab", "ta")
	rules := DefaultRules()
	rules.BoardSize = 3
	game, err := NewGame(vocab, "cat", humans(), quiet(), WithRules(rules))
	if err != nil {
		t.Fatalf("Unable to create game: %v", err)
	}
	defer game.Close()
	moves := []struct {
		letter rune
		at     string
		path   []Coordinate
	}{
		{'a', "a1", trace("a1", "a2")},
		{'b', "b1", trace("b1", "b2")},
		{'a', "c1", trace("c1", "c2")},
		{'a', "a3", trace("a2", "a3")},
		{'b', "b3", trace("b2", "b3")},
		{'a', "c3", trace("c2", "c3")},
	}
	for _, m := range moves {
		if game.IsOver() {
			t.Fatalf("Game ended early")
		}
		if _, err := game.SubmitMove(m.letter, mustCoord(m.at), m.path); err != nil {
			t.Fatalf("Move at %v rejected: %v", m.at, err)
		}
	}
	state := game.State()
	if !state.Finished || state.Reason != BoardFull {
		t.Fatalf("Expected a full board: %+v", state)
	}
	if state.Players[0].Score != 6 || state.Players[1].Score != 6 || state.Winner != -1 {
		t.Errorf("Expected a draw at 6:6: %+v", state.Players)
	}
	if _, ok := game.Winner(); ok {
		t.Errorf("A draw has no winner")
	}
}

func TestListenerOrder(t *testing.T) {
	vocab := newTestVocab(t, "cat", "cats")
	var events []string
	var game *Game
	listener := ListenerFuncs{
		Move: func(state State) {
			// Calling back into the game does not deadlock
			if !game.State().Finished {
				t.Errorf("Move was not followed by the end of the game")
			}
			if state.Finished {
				t.Errorf("Move notification carries a later state")
			}
			events = append(events, "move")
		},
		InvalidMove: func(state State, err error) {
			expectReject(t, err, WordNotInDictionary)
			events = append(events, "invalid")
		},
		Finish: func(state State) {
			if !state.Finished || state.Reason != Stalemate {
				t.Errorf("Finish notification without a result")
			}
			events = append(events, "finish")
		},
	}
	var err error
	game, err = NewGame(vocab, "cat", humans(), quiet())
	if err != nil {
		t.Fatalf("Unable to create game: %v", err)
	}
	defer game.Close()
	game.Subscribe(listener)
	_, _ = game.SubmitMove('x', mustCoord("e3"), trace("b3", "c3", "d3", "e3"))
	_, _ = game.SubmitMove('s', mustCoord("e3"), trace("b3", "c3", "d3", "e3"))
	if !slices.Equal(events, []string{"invalid", "move", "finish"}) {
		t.Errorf("Unexpected events %v", events)
	}
}

func TestListenerReentry(t *testing.T) {
	// A listener that plays the reply itself
	replied := make(chan struct{})
	var game *Game
	listener := ListenerFuncs{
		Move: func(state State) {
			if len(state.Moves) == 1 {
				if _, err := game.SubmitMove('m', mustCoord("a2"), trace("b3", "a3", "a2")); err != nil {
					t.Errorf("Reply rejected: %v", err)
				}
			}
			if len(state.Moves) == 2 {
				close(replied)
			}
		},
	}
	game = newHouseGame(t, humans(), WithListener(listener))
	if _, err := game.SubmitMove('s', mustCoord("e2"), trace("a3", "b3", "c3", "d3", "e3", "e2")); err != nil {
		t.Fatalf("Move rejected: %v", err)
	}
	waitFor(t, replied, "reply")
	if game.CurrentPlayer() != 0 {
		t.Errorf("Reply was not played")
	}
}

func TestComputerMoves(t *testing.T) {
	moved := make(chan struct{}, 4)
	listener := ListenerFuncs{Move: func(state State) { moved <- struct{}{} }}
	players := []PlayerConfig{HumanPlayer("Anna"), ComputerPlayer("Robot", Hard, 0)}
	game := newHouseGame(t, players, WithListener(listener), WithRobot(1, NewHighScoreRobot()))
	if _, err := game.SubmitMove('m', mustCoord("a2"), trace("b3", "a3", "a2")); err != nil {
		t.Fatalf("Move rejected: %v", err)
	}
	<-moved
	select {
	case <-moved:
	case <-time.After(waitTimeout):
		t.Fatalf("Computer did not move")
	}
	state := game.State()
	if len(state.Moves) != 2 || state.Moves[1].Word() != "houses" || state.Current != 0 {
		t.Errorf("Unexpected computer move: %v", state.Moves)
	}
}

// occupiedRobot always plays on a square that is already taken
type occupiedRobot struct{}

func (occupiedRobot) PickMove(pos *Position, candidates []Candidate, rnd Random) (Candidate, bool) {
	return Candidate{Placement: Placement{Letter: 'x', At: mustCoord("a3"), Path: trace("a3")}, Word: "x"}, true
}

// passingRobot never finds a move it likes
type passingRobot struct{}

func (passingRobot) PickMove(pos *Position, candidates []Candidate, rnd Random) (Candidate, bool) {
	return Candidate{}, false
}

func TestComputerWithoutMove(t *testing.T) {
	cases := []struct {
		name  string
		robot Robot
	}{
		{"illegal move", occupiedRobot{}},
		{"no move", passingRobot{}},
	}
	for _, c := range cases {
		players := []PlayerConfig{HumanPlayer("Anna"), ComputerPlayer("Robot", Easy, 0)}
		game := newHouseGame(t, players, WithRobot(1, &RobotWrapper{c.robot}))
		if _, err := game.SubmitMove('m', mustCoord("a2"), trace("b3", "a3", "a2")); err != nil {
			t.Fatalf("%v: move rejected: %v", c.name, err)
		}
		waitFor(t, game.Over(), c.name+": game over")
		state := game.State()
		if state.Reason != Stuck || state.Winner != 0 || len(state.Moves) != 1 {
			t.Errorf("%v: expected the computer to be stuck: %+v", c.name, state)
		}
	}
}

func TestNotPlayersTurn(t *testing.T) {
	players := []PlayerConfig{HumanPlayer("Anna"), ComputerPlayer("Robot", Easy, time.Hour)}
	game := newHouseGame(t, players)
	// The computer cannot be forced while the human is to move
	_, err := game.GenerateMove()
	expectReject(t, err, NotPlayersTurn)
	if _, err := game.SubmitMove('m', mustCoord("a2"), trace("b3", "a3", "a2")); err != nil {
		t.Fatalf("Move rejected: %v", err)
	}
	_, err = game.SubmitMove('s', mustCoord("e2"), trace("a3", "b3", "c3", "d3", "e3", "e2"))
	expectReject(t, err, NotPlayersTurn)
	move, err := game.GenerateMove()
	if err != nil || move.Player() != 1 {
		t.Fatalf("Computer move failed: %v", err)
	}
	if game.CurrentPlayer() != 0 {
		t.Errorf("Turn did not pass back to the human")
	}
}

func TestHurry(t *testing.T) {
	moved := make(chan struct{})
	listener := ListenerFuncs{Move: func(state State) { close(moved) }}
	players := []PlayerConfig{ComputerPlayer("Robot", Medium, time.Hour), HumanPlayer("Anna")}
	game := newHouseGame(t, players, WithListener(listener))
	select {
	case <-moved:
		t.Fatalf("Computer did not wait")
	case <-time.After(50 * time.Millisecond):
	}
	game.Hurry()
	// Hurrying twice is harmless
	game.Hurry()
	waitFor(t, moved, "computer move")
	if game.CurrentPlayer() != 1 {
		t.Errorf("Computer move was not applied")
	}
}

func TestCloseAbandonsPendingMove(t *testing.T) {
	players := []PlayerConfig{ComputerPlayer("Robot", Medium, 20*time.Millisecond), HumanPlayer("Anna")}
	game := newHouseGame(t, players)
	game.Close()
	time.Sleep(100 * time.Millisecond)
	if n := len(game.State().Moves); n != 0 {
		t.Errorf("Closed game made %v moves", n)
	}
	_, err := game.SubmitMove('m', mustCoord("a2"), trace("b3", "a3", "a2"))
	expectReject(t, err, GameAlreadyFinished)
	// Closing twice is harmless
	game.Close()
}

func TestStaleComputerTurn(t *testing.T) {
	players := []PlayerConfig{ComputerPlayer("Robot", Medium, time.Hour), HumanPlayer("Anna")}
	game := newHouseGame(t, players, WithRobot(0, NewHighScoreRobot()))
	game.generateMove(3)
	if n := len(game.State().Moves); n != 0 {
		t.Fatalf("Stale turn made a move")
	}
	game.generateMove(0)
	state := game.State()
	if len(state.Moves) != 1 || state.Moves[0].Word() != "houses" {
		t.Fatalf("Expected 'houses', got %v", state.Moves)
	}
	// The same turn cannot be played twice
	game.generateMove(0)
	if n := len(game.State().Moves); n != 1 {
		t.Errorf("Turn played twice")
	}
}

func TestGameString(t *testing.T) {
	game := newHouseGame(t, humans())
	_, _ = game.SubmitMove('s', mustCoord("e2"), trace("a3", "b3", "c3", "d3", "e3", "e2"))
	s := game.String()
	if len(s) == 0 {
		t.Errorf("Empty game string")
	}
}
