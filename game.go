// game.go
// Copyright (C) 2026 Vilhjálmur Þorsteinsson / Miðeind ehf.
// This file implements the Game class, i.e. the turn state
// machine of a single game session

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
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// EndReason tells why a game is over
type EndReason int

const (
	NotOver EndReason = iota
	// No empty squares are left
	BoardFull
	// The player to move has no legal move
	Stalemate
	// A player reached the maximum number of consecutive rejections
	Stuck
)

var endReasonNames = [...]string{
	NotOver:   "",
	BoardFull: "board_full",
	Stalemate: "stalemate",
	Stuck:     "stuck",
}

func (reason EndReason) String() string {
	if reason < NotOver || reason > Stuck {
		return fmt.Sprintf("EndReason(%d)", int(reason))
	}
	return endReasonNames[reason]
}

// MarshalText encodes an EndReason by name
func (reason EndReason) MarshalText() ([]byte, error) {
	return []byte(reason.String()), nil
}

// UnmarshalText decodes an EndReason from its name
func (reason *EndReason) UnmarshalText(text []byte) error {
	for r, name := range endReasonNames {
		if name == string(text) {
			*reason = EndReason(r)
			return nil
		}
	}
	return fmt.Errorf("unknown end reason '%s'", text)
}

// PlayerState is a player as seen in a State snapshot
type PlayerState struct {
	Name       string        `json:"name"`
	Kind       PlayerKind    `json:"kind"`
	Difficulty Difficulty    `json:"difficulty"`
	Delay      time.Duration `json:"delay"`
	Score      int           `json:"score"`
}

// State is a snapshot of a Game, taken under the game's lock.
// It does not share memory with the Game and can be used freely
// by listeners, renderers and other goroutines.
type State struct {
	ID        string        `json:"id"`
	Language  Language      `json:"language"`
	StartWord string        `json:"start_word"`
	Board     []string      `json:"board"`
	Players   []PlayerState `json:"players"`
	Current   int           `json:"current"`
	Moves     []Move        `json:"moves"`
	Replay    bool          `json:"replay"`
	// Number of recorded moves not yet stepped through in a replay
	ReplayRemaining int       `json:"replay_remaining"`
	Finished        bool      `json:"finished"`
	Reason          EndReason `json:"reason,omitempty"`
	// Index of the winning player, or -1 if the game is not over
	// or ended in a draw
	Winner int `json:"winner"`
}

// LastMove returns the most recent move, if any
func (state *State) LastMove() (Move, bool) {
	if len(state.Moves) == 0 {
		return Move{}, false
	}
	return state.Moves[len(state.Moves)-1], true
}

// Listener receives notifications about Game transitions. The
// callbacks are invoked in commit order, never while the game's
// lock is held, so they may call back into the Game.
type Listener interface {
	OnMove(state State)
	OnInvalidMove(state State, err error)
	OnFinish(state State)
}

// ListenerFuncs adapts plain functions to the Listener interface.
// Nil functions are ignored.
type ListenerFuncs struct {
	Move        func(state State)
	InvalidMove func(state State, err error)
	Finish      func(state State)
}

func (lf ListenerFuncs) OnMove(state State) {
	if lf.Move != nil {
		lf.Move(state)
	}
}

func (lf ListenerFuncs) OnInvalidMove(state State, err error) {
	if lf.InvalidMove != nil {
		lf.InvalidMove(state, err)
	}
}

func (lf ListenerFuncs) OnFinish(state State) {
	if lf.Finish != nil {
		lf.Finish(state)
	}
}

type eventKind int

const (
	moveEvent eventKind = iota
	invalidMoveEvent
	finishEvent
)

type event struct {
	kind  eventKind
	state State
	err   error
}

// settings collects the optional parameters of a new Game
type settings struct {
	id        string
	rules     Rules
	logger    *zerolog.Logger
	rnd       Random
	listeners []Listener
	robots    [NumPlayers]*RobotWrapper
}

// Option configures a Game
type Option func(*settings)

// WithRules sets the rules of the game
func WithRules(rules Rules) Option {
	return func(s *settings) {
		s.rules = rules
	}
}

// WithLogger sets the logger that the game logs to
func WithLogger(logger zerolog.Logger) Option {
	return func(s *settings) {
		s.logger = &logger
	}
}

// WithRandom sets the random source used by computer players
func WithRandom(rnd Random) Option {
	return func(s *settings) {
		s.rnd = rnd
	}
}

// WithListener registers a listener from the very start of the game
func WithListener(listener Listener) Option {
	return func(s *settings) {
		s.listeners = append(s.listeners, listener)
	}
}

// WithID sets the game id; by default a random UUID is used
func WithID(id string) Option {
	return func(s *settings) {
		s.id = id
	}
}

// WithRobot replaces the playing strategy of a computer player,
// which by default is a DifficultyRobot at the player's difficulty
func WithRobot(player int, robot *RobotWrapper) Option {
	return func(s *settings) {
		if player >= 0 && player < NumPlayers {
			s.robots[player] = robot
		}
	}
}

func newSettings(opts []Option) *settings {
	s := &settings{rules: DefaultRules()}
	for _, opt := range opts {
		opt(s)
	}
	if s.id == "" {
		s.id = uuid.NewString()
	}
	if s.rnd == nil {
		s.rnd = NewRandom()
	}
	return s
}

// pendingTurn is a scheduled computer move
type pendingTurn struct {
	hurry   chan struct{}
	hurried bool
}

// Game is a container for a game session between two players,
// having a Board, the Vocabulary it is played with, and the
// list of Moves made so far. All methods are safe for concurrent
// use; moves are applied one at a time under the game's lock.
type Game struct {
	mux       sync.Mutex
	id        string
	vocab     *Vocabulary
	rules     Rules
	startWord string
	board     *Board
	players   [NumPlayers]*Player
	robots    [NumPlayers]*RobotWrapper
	moveList  []Move
	used      WordSet
	// Consecutive rejections per player
	rejections [NumPlayers]int
	// The recorded moves of a replay, and how many have been stepped
	script []Move
	cursor int
	// How the recorded game ended, applied when the replay
	// reaches its end
	scriptReason EndReason
	// The record a replay was loaded from
	record    *SaveRecord
	replay    bool
	finished  bool
	reason    EndReason
	closed    bool
	pending   *pendingTurn
	rnd       Random
	logger    zerolog.Logger
	listeners []Listener
	// Notification queue, drained by one goroutine at a time
	queue       []event
	dispatching bool
	// done is closed when the session is torn down, over when
	// the game ends
	done chan struct{}
	over chan struct{}
}

// NewGame creates a game between two players, starting with the given
// word in the middle row of the board. Setup problems are reported
// as an *InitError and no game is created.
func NewGame(vocab *Vocabulary, startWord string, players []PlayerConfig, opts ...Option) (*Game, error) {
	if vocab == nil {
		return nil, &InitError{Reason: VocabularyNotReady}
	}
	s := newSettings(opts)
	if err := s.rules.Validate(); err != nil {
		return nil, &InitError{Reason: BadRules, Detail: err.Error()}
	}
	if err := validatePlayers(players); err != nil {
		return nil, err
	}
	word, err := checkStartWord(vocab, startWord, s.rules.BoardSize)
	if err != nil {
		return nil, err
	}
	game := newSession(vocab, word, players, s)
	game.mux.Lock()
	game.logger.Info().
		Str("start", word).
		Str("player0", game.players[0].Name()).
		Str("player1", game.players[1].Name()).
		Msg("New game")
	game.checkOverLocked()
	game.scheduleLocked()
	game.mux.Unlock()
	game.dispatch()
	return game, nil
}

// NewRandomGame creates a game with a start word drawn at random
// from the vocabulary, as long as the board is wide
func NewRandomGame(vocab *Vocabulary, players []PlayerConfig, opts ...Option) (*Game, error) {
	if vocab == nil {
		return nil, &InitError{Reason: VocabularyNotReady}
	}
	s := newSettings(opts)
	word, err := vocab.RandomWord(s.rnd, s.rules.BoardSize)
	if err != nil {
		return nil, &InitError{Reason: StartWordUnknown, Detail: err.Error()}
	}
	return NewGame(vocab, word, players, append(opts, WithID(s.id), WithRandom(s.rnd))...)
}

// checkStartWord normalizes a start word and checks that it fits
// the board and is in the vocabulary
func checkStartWord(vocab *Vocabulary, startWord string, boardSize int) (string, error) {
	word := vocab.Normalize(startWord)
	length := RuneCount(word)
	if length < MinStartWordLength {
		return "", &InitError{Reason: StartWordTooShort, Detail: word}
	}
	if length > boardSize {
		return "", &InitError{Reason: StartWordTooLong, Detail: word}
	}
	for _, r := range word {
		if !vocab.Alphabet().Contains(r) {
			return "", &InitError{Reason: StartWordInvalidLetters, Detail: word}
		}
	}
	if !vocab.contains(word) {
		return "", &InitError{Reason: StartWordUnknown, Detail: word}
	}
	return word, nil
}

// newSession sets up the initial position. The arguments
// have already been validated.
func newSession(vocab *Vocabulary, word string, configs []PlayerConfig, s *settings) *Game {
	game := &Game{
		id:        s.id,
		vocab:     vocab,
		rules:     s.rules,
		startWord: word,
		board:     NewBoard(s.rules.BoardSize, s.rules.Adjacency),
		moveList:  make([]Move, 0, s.rules.BoardSize*s.rules.BoardSize),
		used:      make(WordSet),
		rnd:       s.rnd,
		listeners: s.listeners,
		done:      make(chan struct{}),
		over:      make(chan struct{}),
	}
	logger := log.Logger
	if s.logger != nil {
		logger = *s.logger
	}
	game.logger = logger.With().Str("game", game.id).Logger()
	for i, pc := range configs {
		game.players[i] = newPlayer(pc)
		game.robots[i] = s.robots[i]
		if game.robots[i] == nil {
			game.robots[i] = NewDifficultyRobot(pc.Difficulty)
		}
	}
	// The start word fits by construction
	_ = game.board.PlaceStartWord(word)
	game.used.Add(word)
	return game
}

// ID returns the game id
func (game *Game) ID() string {
	return game.id
}

// Vocabulary returns the vocabulary the game is played with
func (game *Game) Vocabulary() *Vocabulary {
	return game.vocab
}

// Rules returns the rules of the game
func (game *Game) Rules() Rules {
	return game.rules
}

// StartWord returns the word the game started with
func (game *Game) StartWord() string {
	return game.startWord
}

// Subscribe registers a listener for subsequent notifications
func (game *Game) Subscribe(listener Listener) {
	game.mux.Lock()
	defer game.mux.Unlock()
	game.listeners = append(game.listeners, listener)
}

// playerToMove returns 0 or 1 depending on which player's move it is
func (game *Game) playerToMove() int {
	return len(game.moveList) % NumPlayers
}

// CurrentPlayer returns the index of the player whose turn it is
func (game *Game) CurrentPlayer() int {
	game.mux.Lock()
	defer game.mux.Unlock()
	return game.playerToMove()
}

// IsReplay returns true if the game is a replay of a recorded game
func (game *Game) IsReplay() bool {
	game.mux.Lock()
	defer game.mux.Unlock()
	return game.replay
}

// IsOver returns true if the game has ended
func (game *Game) IsOver() bool {
	game.mux.Lock()
	defer game.mux.Unlock()
	return game.finished
}

// Over returns a channel that is closed when the game ends
func (game *Game) Over() <-chan struct{} {
	return game.over
}

// Done returns a channel that is closed when the game is closed
func (game *Game) Done() <-chan struct{} {
	return game.done
}

// Winner returns the index of the winning player. The second
// return value is false while the game is in progress and
// when it ended in a draw.
func (game *Game) Winner() (int, bool) {
	game.mux.Lock()
	defer game.mux.Unlock()
	winner := game.winnerLocked()
	return winner, winner >= 0
}

func (game *Game) winnerLocked() int {
	if !game.finished {
		return -1
	}
	s0, s1 := game.players[0].score, game.players[1].score
	switch {
	case s0 > s1:
		return 0
	case s1 > s0:
		return 1
	}
	return -1
}

// State returns a snapshot of the game
func (game *Game) State() State {
	game.mux.Lock()
	defer game.mux.Unlock()
	return game.stateLocked()
}

func (game *Game) stateLocked() State {
	state := State{
		ID:              game.id,
		Language:        game.vocab.Language(),
		StartWord:       game.startWord,
		Board:           game.board.Snapshot(),
		Players:         make([]PlayerState, NumPlayers),
		Current:         game.playerToMove(),
		Moves:           make([]Move, len(game.moveList)),
		Replay:          game.replay,
		ReplayRemaining: len(game.script) - game.cursor,
		Finished:        game.finished,
		Reason:          game.reason,
		Winner:          game.winnerLocked(),
	}
	copy(state.Moves, game.moveList)
	for i, p := range game.players {
		state.Players[i] = PlayerState{
			Name:       p.Name(),
			Kind:       p.Kind(),
			Difficulty: p.Difficulty(),
			Delay:      p.Delay(),
			Score:      p.score,
		}
	}
	return state
}

// SubmitMove plays a letter for the human player whose turn it is,
// with the path of squares that spells out the word. A rejected
// move leaves the game unchanged and the same player to move.
// The returned error is a *MoveError.
func (game *Game) SubmitMove(letter rune, at Coordinate, path []Coordinate) (Move, error) {
	p := Placement{Letter: letter, At: at, Path: make([]Coordinate, len(path))}
	copy(p.Path, path)
	game.mux.Lock()
	move, err := game.submitLocked(p, false)
	game.mux.Unlock()
	game.dispatch()
	return move, err
}

// GenerateMove makes the computer player whose turn it is move
// right away, without waiting for its thinking delay to end
func (game *Game) GenerateMove() (Move, error) {
	game.mux.Lock()
	move, err := game.playComputerLocked()
	game.mux.Unlock()
	game.dispatch()
	return move, err
}

// generateMove is called when a computer player's delay ends.
// It does nothing if the turn has passed in the meantime, or the
// game has ended or been torn down.
func (game *Game) generateMove(expected int) {
	game.mux.Lock()
	if game.closed || game.finished || game.replay || len(game.moveList) != expected {
		game.mux.Unlock()
		return
	}
	if _, err := game.playComputerLocked(); err != nil {
		game.logger.Error().Err(err).Msg("Computer move failed")
	}
	game.mux.Unlock()
	game.dispatch()
}

// Hurry cuts a pending computer delay short.
// The computer player still makes its move.
func (game *Game) Hurry() {
	game.mux.Lock()
	defer game.mux.Unlock()
	if game.pending != nil && !game.pending.hurried {
		game.pending.hurried = true
		close(game.pending.hurry)
	}
}

// Close tears the session down. A pending computer move is
// abandoned, and later moves are rejected.
func (game *Game) Close() {
	game.mux.Lock()
	defer game.mux.Unlock()
	if game.closed {
		return
	}
	game.closed = true
	game.pending = nil
	close(game.done)
	game.logger.Debug().Msg("Game closed")
}

// checkTurnLocked returns a rejection if no live move can be made
func (game *Game) checkTurnLocked() error {
	if game.closed || game.finished {
		return reject(GameAlreadyFinished, nil, "")
	}
	if game.replay {
		return reject(ReplayMode, nil, "")
	}
	return nil
}

func (game *Game) submitLocked(p Placement, byComputer bool) (Move, error) {
	if err := game.checkTurnLocked(); err != nil {
		return Move{}, err
	}
	playerToMove := game.playerToMove()
	player := game.players[playerToMove]
	if player.IsComputer() != byComputer {
		return Move{}, reject(NotPlayersTurn, nil, "")
	}
	if norm := []rune(game.vocab.Normalize(string(p.Letter))); len(norm) == 1 {
		p.Letter = norm[0]
	}
	seq := len(game.moveList) + 1
	word, score, err := game.board.PlaceAndValidate(
		p, game.vocab, game.used, game.rules.MinWordLength, seq,
	)
	if err != nil {
		game.rejections[playerToMove]++
		game.logger.Info().
			Str("player", player.Name()).
			Int("rejections", game.rejections[playerToMove]).
			Err(err).
			Msg("Move rejected")
		game.emit(invalidMoveEvent, err)
		if game.rules.MaxRejections > 0 && game.rejections[playerToMove] >= game.rules.MaxRejections {
			game.finishLocked(Stuck)
		}
		return Move{}, err
	}
	move := newMove(seq, playerToMove, p, word, score)
	game.applyLocked(move)
	game.rejections[playerToMove] = 0
	game.logger.Debug().
		Str("player", player.Name()).
		Stringer("move", move).
		Msg("Move committed")
	game.emit(moveEvent, nil)
	game.checkOverLocked()
	game.scheduleLocked()
	return move, nil
}

// applyLocked appends a move, already on the board, to the move list
// and credits its score to the player
func (game *Game) applyLocked(move Move) {
	player := game.players[move.Player()]
	game.moveList = append(game.moveList, move)
	game.used.Add(move.Word())
	player.score += move.Score()
	player.moves = append(player.moves, move.Seq())
}

func (game *Game) position() *Position {
	return &Position{
		Vocab: game.vocab,
		Board: game.board,
		Used:  game.used,
		Rules: &game.rules,
	}
}

// playComputerLocked lets the robot of the player to move pick
// a candidate and plays it. The computer player cannot be asked
// again, so a turn without a playable candidate ends the game:
// as a stalemate if no legal move exists, otherwise as stuck.
func (game *Game) playComputerLocked() (Move, error) {
	if err := game.checkTurnLocked(); err != nil {
		return Move{}, err
	}
	playerToMove := game.playerToMove()
	if !game.players[playerToMove].IsComputer() {
		return Move{}, reject(NotPlayersTurn, nil, "")
	}
	game.pending = nil
	candidate, ok := game.robots[playerToMove].GenerateMove(game.position(), game.rnd)
	if !ok {
		reason := Stalemate
		if HasLegalMove(game.board, game.vocab, game.used, &game.rules) {
			reason = Stuck
		}
		game.finishLocked(reason)
		return Move{}, reject(GameAlreadyFinished, nil, "")
	}
	move, err := game.submitLocked(candidate.Placement, true)
	if err != nil {
		game.finishLocked(Stuck)
	}
	return move, err
}

// checkOverLocked ends the game if the board is full, or the
// player to move has nowhere to go
func (game *Game) checkOverLocked() {
	if game.finished {
		return
	}
	if game.board.IsFull() {
		game.finishLocked(BoardFull)
	} else if game.rules.DetectStalemate && !HasLegalMove(game.board, game.vocab, game.used, &game.rules) {
		game.finishLocked(Stalemate)
	}
}

func (game *Game) finishLocked(reason EndReason) {
	if game.finished {
		return
	}
	game.finished = true
	game.reason = reason
	game.pending = nil
	close(game.over)
	game.logger.Info().
		Stringer("reason", reason).
		Int("score0", game.players[0].score).
		Int("score1", game.players[1].score).
		Int("winner", game.winnerLocked()).
		Msg("Game over")
	game.emit(finishEvent, nil)
}

// scheduleLocked starts the thinking delay of a computer player
// whose turn it is. When the delay ends, or is cut short by Hurry(),
// the move is generated, unless the turn has passed in the meantime.
func (game *Game) scheduleLocked() {
	if game.closed || game.finished || game.replay {
		return
	}
	player := game.players[game.playerToMove()]
	if !player.IsComputer() {
		return
	}
	pending := &pendingTurn{hurry: make(chan struct{})}
	game.pending = pending
	expected := len(game.moveList)
	delay := player.Delay()
	go func() {
		if delay > 0 {
			timer := time.NewTimer(delay)
			defer timer.Stop()
			select {
			case <-timer.C:
			case <-pending.hurry:
			case <-game.done:
				return
			}
		}
		game.generateMove(expected)
	}()
}

// emit queues a notification carrying the current state
func (game *Game) emit(kind eventKind, err error) {
	if len(game.listeners) == 0 {
		return
	}
	game.queue = append(game.queue, event{kind: kind, state: game.stateLocked(), err: err})
}

// dispatch delivers queued notifications outside the lock. Only one
// goroutine delivers at a time, so listeners see events in commit
// order; events queued by a listener calling back into the game are
// delivered by the same loop once the callback returns.
func (game *Game) dispatch() {
	game.mux.Lock()
	if game.dispatching {
		game.mux.Unlock()
		return
	}
	game.dispatching = true
	for len(game.queue) > 0 {
		ev := game.queue[0]
		game.queue = game.queue[1:]
		listeners := make([]Listener, len(game.listeners))
		copy(listeners, game.listeners)
		game.mux.Unlock()
		for _, listener := range listeners {
			switch ev.kind {
			case moveEvent:
				listener.OnMove(ev.state)
			case invalidMoveEvent:
				listener.OnInvalidMove(ev.state, ev.err)
			case finishEvent:
				listener.OnFinish(ev.state)
			}
		}
		game.mux.Lock()
	}
	game.dispatching = false
	game.mux.Unlock()
}

// Step applies the next recorded move of a replay, without
// validating it. When the last move has been stepped, a replay
// of a finished game ends as the original did.
func (game *Game) Step() (Move, error) {
	game.mux.Lock()
	move, err := game.stepLocked()
	game.mux.Unlock()
	game.dispatch()
	return move, err
}

func (game *Game) stepLocked() (Move, error) {
	if !game.replay {
		return Move{}, ErrNotReplay
	}
	if game.closed {
		return Move{}, reject(GameAlreadyFinished, nil, "")
	}
	if game.cursor >= len(game.script) {
		return Move{}, ErrReplayExhausted
	}
	move := game.script[game.cursor]
	game.cursor++
	game.board.Commit(move.Letter(), move.At(), move.Seq())
	game.applyLocked(move)
	game.emit(moveEvent, nil)
	if game.cursor == len(game.script) && game.scriptReason != NotOver {
		game.finishLocked(game.scriptReason)
	}
	return move, nil
}

// ReplayRemaining returns the number of recorded moves not yet
// stepped through
func (game *Game) ReplayRemaining() int {
	game.mux.Lock()
	defer game.mux.Unlock()
	return len(game.script) - game.cursor
}

// String returns a string representation of a Game
func (game *Game) String() string {
	game.mux.Lock()
	defer game.mux.Unlock()
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%v (%v : %v) %v\n",
		game.players[0].Name(),
		game.players[0].score,
		game.players[1].score,
		game.players[1].Name(),
	))
	sb.WriteString(fmt.Sprintf("%v\n", game.board))
	// Show the move list, if present
	if len(game.moveList) > 0 {
		sb.WriteString("Moves:\n")
		for i, m := range game.moveList {
			if i%2 == 0 {
				// Left side player
				sb.WriteString(fmt.Sprintf("  %2d: (%v) %v", (i/2)+1, m.Score(), m))
			} else {
				// Right side player
				sb.WriteString(fmt.Sprintf(" / %v (%v)\n", m, m.Score()))
			}
		}
		if len(game.moveList)%2 == 1 {
			sb.WriteString("\n")
		}
	}
	if game.finished {
		sb.WriteString(fmt.Sprintf("Game over: %v\n", game.reason))
	}
	return sb.String()
}
