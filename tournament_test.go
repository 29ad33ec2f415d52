// tournament_test.go
//
// Copyright (C) 2026 Vilhjálmur Þorsteinsson / Miðeind ehf.

package balda

import (
	"context"
	"errors"
	"testing"
)

func TestTournament(t *testing.T) {
	params := TournamentParams{
		Vocab: newTestVocab(t),
		Rules: DefaultRules(),
		Players: [NumPlayers]PlayerConfig{
			ComputerPlayer("High", Hard, 0),
			ComputerPlayer("Easy", Easy, 0),
		},
		Robots:     [NumPlayers]*RobotWrapper{NewHighScoreRobot(), nil},
		StartWord:  "house",
		NumGames:   6,
		NumWorkers: 3,
		Seed:       1,
	}
	stats, err := RunTournament(context.Background(), params)
	if err != nil {
		t.Fatalf("Tournament failed: %v", err)
	}
	if stats.Games != 6 || len(stats.Results) != 6 || stats.Aborted != 0 {
		t.Fatalf("Unexpected number of games: %v", stats)
	}
	if stats.Wins[0]+stats.Wins[1]+stats.Draws != 6 {
		t.Errorf("Wins and draws do not add up: %v", stats)
	}
	points := [NumPlayers]int{}
	reasons := 0
	for _, result := range stats.Results {
		if result.Reason == NotOver || result.StartWord != "house" || result.NumMoves == 0 {
			t.Errorf("Unexpected game result %+v", result)
		}
		points[0] += result.Scores[0]
		points[1] += result.Scores[1]
	}
	for _, n := range stats.ByReason {
		reasons += n
	}
	if points != stats.Points || reasons != 6 {
		t.Errorf("Statistics do not match the results: %v", stats)
	}
	// The high score robot opens with the longest word there is
	if RuneCount(stats.LongestWord) < 6 {
		t.Errorf("Unexpected longest word '%v'", stats.LongestWord)
	}
	if stats.String() == "" {
		t.Errorf("Empty tournament summary")
	}
}

func TestTournamentErrors(t *testing.T) {
	_, err := RunTournament(context.Background(), TournamentParams{NumGames: 1})
	var initErr *InitError
	if !errors.As(err, &initErr) || initErr.Reason != VocabularyNotReady {
		t.Errorf("Expected VocabularyNotReady, got %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	params := TournamentParams{
		Vocab:    newTestVocab(t),
		Rules:    DefaultRules(),
		Players:  [NumPlayers]PlayerConfig{ComputerPlayer("A", Easy, 0), ComputerPlayer("B", Easy, 0)},
		NumGames: 4,
	}
	stats, err := RunTournament(ctx, params)
	if err == nil || stats.Games != 0 || stats.Aborted != 4 {
		t.Errorf("Cancelled tournament played games: %v, %v", stats, err)
	}
}
