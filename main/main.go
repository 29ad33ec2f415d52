// main.go
// Copyright (C) 2026 Vilhjálmur Þorsteinsson / Miðeind ehf.

// Example main program for exercising the balda module:
// simulates games between computer players

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	balda "github.com/vthorsteinsson/GoBalda"
)

// robotFor returns a robot for a strategy name: a difficulty,
// or "high" for the high score robot. A nil robot means that
// the player's difficulty robot is used.
func robotFor(name string) (balda.Difficulty, *balda.RobotWrapper, error) {
	if name == "high" {
		return balda.Hard, balda.NewHighScoreRobot(), nil
	}
	d, err := balda.ParseDifficulty(name)
	return d, nil, err
}

// Play one game and print each move as it is made
func simulateGame(params *balda.TournamentParams) error {
	players := make([]balda.PlayerConfig, balda.NumPlayers)
	for i, pc := range params.Players {
		players[i] = pc
	}
	opts := []balda.Option{
		balda.WithRules(params.Rules),
		balda.WithListener(balda.ListenerFuncs{
			Move: func(state balda.State) {
				if m, ok := state.LastMove(); ok {
					fmt.Printf("%-8s %v\n", state.Players[m.Player()].Name, m)
				}
			},
		}),
	}
	for i, robot := range params.Robots {
		if robot != nil {
			opts = append(opts, balda.WithRobot(i, robot))
		}
	}
	if params.Seed != 0 {
		opts = append(opts, balda.WithRandom(balda.NewSeededRandom(params.Seed)))
	}
	var game *balda.Game
	var err error
	if params.StartWord == "" {
		game, err = balda.NewRandomGame(params.Vocab, players, opts...)
	} else {
		game, err = balda.NewGame(params.Vocab, params.StartWord, players, opts...)
	}
	if err != nil {
		return err
	}
	defer game.Close()
	<-game.Over()
	fmt.Printf("%v\n", game)
	return nil
}

func main() {
	lang := flag.String("l", "en", "Language to use (en, ru)")
	num := flag.Int("n", 10, "Number of games to simulate")
	quiet := flag.Bool("q", false, "Suppress output of game state and moves")
	stratA := flag.String("a", "medium", "Strategy of robot A (easy, medium, hard, high)")
	stratB := flag.String("b", "medium", "Strategy of robot B (easy, medium, hard, high)")
	size := flag.Int("size", balda.DefaultBoardSize, "Board size (odd, 3-9)")
	adjacency := flag.String("adj", "four", "Adjacency (four, eight)")
	start := flag.String("start", "", "Start word (random if empty)")
	workers := flag.Int("w", 4, "Number of games played in parallel")
	limit := flag.Duration("t", time.Minute, "Time limit for the simulation")
	seed := flag.Int64("s", 0, "Random seed (0 for unseeded games)")
	flag.Parse()

	zerolog.SetGlobalLevel(zerolog.WarnLevel)

	language, err := balda.ParseLanguage(*lang)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	rules := balda.DefaultRules()
	rules.BoardSize = *size
	if rules.Adjacency, err = balda.ParseAdjacency(*adjacency); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	ctx, cancel := context.WithTimeout(context.Background(), *limit)
	defer cancel()
	vocab, err := balda.DefaultRegistry.Get(ctx, language)
	if err != nil {
		fmt.Printf("Unable to load the '%v' vocabulary: %v\n", language, err)
		os.Exit(1)
	}

	params := balda.TournamentParams{
		Vocab:      vocab,
		Rules:      rules,
		StartWord:  *start,
		NumGames:   *num,
		NumWorkers: *workers,
		TimeLimit:  *limit,
		Seed:       *seed,
	}
	for i, name := range []string{*stratA, *stratB} {
		d, robot, err := robotFor(name)
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		params.Players[i] = balda.ComputerPlayer(fmt.Sprintf("Robot %c", 'A'+i), d, 0)
		params.Robots[i] = robot
	}

	if !*quiet {
		// Show the first game move by move
		if err := simulateGame(&params); err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
	}
	stats, err := balda.RunTournament(ctx, params)
	if err != nil {
		fmt.Println(err)
		if stats == nil {
			os.Exit(1)
		}
	}
	fmt.Printf("%v games were played using the '%v' vocabulary.\n"+
		"Robot A won %v games, and Robot B won %v games; %v games were draws.\n",
		stats.Games, language,
		stats.Wins[0], stats.Wins[1], stats.Draws)
	fmt.Printf("%v\n", stats)
}
