// tournament.go
//
// Copyright (C) 2026 Vilhjálmur Þorsteinsson / Miðeind ehf.
//
// This file implements robot tournaments: many games between two
// computer players, played concurrently, with statistics on the outcome.

package balda

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// TournamentParams holds the parameters of a tournament.
type TournamentParams struct {
	Vocab     *Vocabulary
	Rules     Rules
	Players   [NumPlayers]PlayerConfig
	Robots    [NumPlayers]*RobotWrapper // Optional: overrides the difficulty robots
	StartWord string                    // Empty for a random start word in each game
	NumGames  int
	// Number of games played concurrently
	NumWorkers int
	TimeLimit  time.Duration
	Seed       int64 // Zero for unseeded games
}

// GameResult is the outcome of one tournament game.
type GameResult struct {
	ID        string
	StartWord string
	Scores    [NumPlayers]int
	Winner    int // -1 for a draw
	Reason    EndReason
	NumMoves  int
	Longest   string // The longest word played
}

// TournamentStats summarizes a tournament.
type TournamentStats struct {
	Games       int
	Wins        [NumPlayers]int
	Draws       int
	Points      [NumPlayers]int
	Moves       int
	ByReason    map[EndReason]int
	LongestWord string
	Aborted     int // Games cut off by the time limit
	Results     []GameResult
}

func (stats *TournamentStats) add(result GameResult) {
	stats.Games++
	if result.Winner < 0 {
		stats.Draws++
	} else {
		stats.Wins[result.Winner]++
	}
	for i, score := range result.Scores {
		stats.Points[i] += score
	}
	stats.Moves += result.NumMoves
	stats.ByReason[result.Reason]++
	if RuneCount(result.Longest) > RuneCount(stats.LongestWord) {
		stats.LongestWord = result.Longest
	}
	stats.Results = append(stats.Results, result)
}

// String returns a printable summary of the tournament
func (stats *TournamentStats) String() string {
	avg := 0.0
	if stats.Games > 0 {
		avg = float64(stats.Moves) / float64(stats.Games)
	}
	return fmt.Sprintf(
		"%d games: %d - %d, %d draws; points %d : %d; %.1f moves per game; longest word '%s'; %d aborted",
		stats.Games, stats.Wins[0], stats.Wins[1], stats.Draws,
		stats.Points[0], stats.Points[1], avg, stats.LongestWord, stats.Aborted,
	)
}

// playGame plays a single tournament game to its end. The computer
// players have no thinking delay, so the game plays itself out as
// soon as it is created.
func playGame(ctx context.Context, params *TournamentParams, index int) (GameResult, error) {
	players := make([]PlayerConfig, NumPlayers)
	opts := []Option{WithRules(params.Rules)}
	for i, pc := range params.Players {
		pc.Kind = Computer
		pc.Delay = 0
		players[i] = pc
		if params.Robots[i] != nil {
			opts = append(opts, WithRobot(i, params.Robots[i]))
		}
	}
	if params.Seed != 0 {
		opts = append(opts, WithRandom(NewSeededRandom(params.Seed+int64(index))))
	}
	var game *Game
	var err error
	if params.StartWord == "" {
		game, err = NewRandomGame(params.Vocab, players, opts...)
	} else {
		game, err = NewGame(params.Vocab, params.StartWord, players, opts...)
	}
	if err != nil {
		return GameResult{}, err
	}
	defer game.Close()
	select {
	case <-game.Over():
	case <-ctx.Done():
		return GameResult{}, ctx.Err()
	}
	state := game.State()
	result := GameResult{
		ID:        state.ID,
		StartWord: state.StartWord,
		Winner:    state.Winner,
		Reason:    state.Reason,
		NumMoves:  len(state.Moves),
	}
	for i, p := range state.Players {
		result.Scores[i] = p.Score
	}
	for _, m := range state.Moves {
		if RuneCount(m.Word()) > RuneCount(result.Longest) {
			result.Longest = m.Word()
		}
	}
	return result, nil
}

// RunTournament plays params.NumGames games on a pool of workers,
// stopping when the time limit expires or the context is cancelled.
func RunTournament(ctx context.Context, params TournamentParams) (*TournamentStats, error) {
	if params.Vocab == nil {
		return nil, &InitError{Reason: VocabularyNotReady}
	}
	if params.TimeLimit > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, params.TimeLimit)
		defer cancel()
	}

	var wg sync.WaitGroup
	resultChan := make(chan GameResult, 100)
	var next int64
	var aborted int64
	var firstErr error
	var errOnce sync.Once

	// Spawn a configurable number of workers.
	numWorkers := params.NumWorkers
	if numWorkers < 1 {
		numWorkers = 1
	}
	wg.Add(numWorkers)

	for i := 0; i < numWorkers; i++ {
		go func() {
			defer wg.Done()
			for {
				index := int(atomic.AddInt64(&next, 1) - 1)
				if index >= params.NumGames {
					return
				}
				select {
				case <-ctx.Done():
					atomic.AddInt64(&aborted, 1)
					continue
				default:
				}
				result, err := playGame(ctx, &params, index)
				if err != nil {
					if ctx.Err() != nil {
						atomic.AddInt64(&aborted, 1)
						continue
					}
					errOnce.Do(func() { firstErr = err })
					return
				}
				resultChan <- result
			}
		}()
	}

	// This goroutine will wait for all workers to finish and then close the channel.
	go func() {
		wg.Wait()
		close(resultChan)
	}()

	stats := &TournamentStats{ByReason: make(map[EndReason]int)}
	for result := range resultChan {
		stats.add(result)
	}
	stats.Aborted = int(atomic.LoadInt64(&aborted))
	if firstErr != nil {
		return stats, firstErr
	}
	if stats.Games == 0 && params.NumGames > 0 {
		return stats, fmt.Errorf("no game finished in the allotted time")
	}
	return stats, nil
}
