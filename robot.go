// robot.go
// Copyright (C) 2026 Vilhjálmur Þorsteinsson / Miðeind ehf.
// This file implements the computer players of the game

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

import "sort"

// Robot is an interface for automatic players that implement
// a playing strategy to pick a move given a list of candidate
// moves. The candidate list is shared and must not be modified.
type Robot interface {
	PickMove(pos *Position, candidates []Candidate, rnd Random) (Candidate, bool)
}

// RobotWrapper wraps a Robot implementation
type RobotWrapper struct {
	Robot
}

// GenerateMove generates a list of candidate moves, then
// asks the wrapped robot to pick one of them to play.
// It returns false if there is no candidate move at all.
func (rw *RobotWrapper) GenerateMove(pos *Position, rnd Random) (Candidate, bool) {
	candidates := pos.GenerateMoves()
	if len(candidates) == 0 {
		return Candidate{}, false
	}
	return rw.PickMove(pos, candidates, rnd)
}

// HighScoreRobot implements a simple strategy: it always picks
// the longest word available. Among equally long words, the first
// one in candidate order wins.
type HighScoreRobot struct {
}

// Implement a strategy for sorting candidate lists by score

type byScore []Candidate

func (list byScore) Len() int {
	return len(list)
}

func (list byScore) Swap(i, j int) {
	list[i], list[j] = list[j], list[i]
}

func (list byScore) Less(i, j int) bool {
	// We want descending order, so we reverse the comparison
	return list[i].Length() > list[j].Length()
}

// PickMove for a HighScoreRobot picks the longest word available
func (robot *HighScoreRobot) PickMove(pos *Position, candidates []Candidate, rnd Random) (Candidate, bool) {
	if len(candidates) == 0 {
		return Candidate{}, false
	}
	sorted := make([]Candidate, len(candidates))
	copy(sorted, candidates)
	sort.Stable(byScore(sorted))
	return sorted[0], true
}

// DifficultyRobot plays like a person of the given skill level.
// It considers the candidates in random order and takes each one
// with a probability that depends on the word length, so that
// weaker levels tend to settle for short words.
type DifficultyRobot struct {
	Difficulty Difficulty
}

// PickMove for a DifficultyRobot. If no candidate is taken,
// the last one considered is played anyway, so a robot with
// at least one candidate always moves.
func (robot *DifficultyRobot) PickMove(pos *Position, candidates []Candidate, rnd Random) (Candidate, bool) {
	if len(candidates) == 0 {
		return Candidate{}, false
	}
	shuffled := make([]Candidate, len(candidates))
	copy(shuffled, candidates)
	rnd.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	for _, c := range shuffled {
		if robot.Difficulty.ShouldTake(c.Length(), rnd) {
			return c, true
		}
	}
	return shuffled[len(shuffled)-1], true
}

// NewHighScoreRobot returns a fresh instance of a HighScoreRobot
func NewHighScoreRobot() *RobotWrapper {
	return &RobotWrapper{&HighScoreRobot{}}
}

// NewDifficultyRobot returns a robot playing at the given difficulty
func NewDifficultyRobot(difficulty Difficulty) *RobotWrapper {
	return &RobotWrapper{&DifficultyRobot{Difficulty: difficulty}}
}
