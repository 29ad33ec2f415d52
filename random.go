// random.go
// Copyright (C) 2026 Vilhjálmur Þorsteinsson / Miðeind ehf.
// This file contains the source of randomness used by the
// game: random start words and the computer player's choices

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
	"encoding/binary"
	"sync"

	"lukechampine.com/frand"
)

// Random is the minimal interface that the game needs from
// a random number generator
type Random interface {
	// Intn returns a uniform random number in [0, n)
	Intn(n int) int
	// Shuffle pseudo-randomizes the order of n elements
	Shuffle(n int, swap func(i, j int))
}

// lockedRandom wraps a frand generator, which is not safe
// for concurrent use by itself
type lockedRandom struct {
	mux sync.Mutex
	rng *frand.RNG
}

func (lr *lockedRandom) Intn(n int) int {
	lr.mux.Lock()
	defer lr.mux.Unlock()
	return lr.rng.Intn(n)
}

func (lr *lockedRandom) Shuffle(n int, swap func(i, j int)) {
	lr.mux.Lock()
	defer lr.mux.Unlock()
	lr.rng.Shuffle(n, swap)
}

// NewRandom returns a Random seeded from the operating system's
// entropy source
func NewRandom() Random {
	return &lockedRandom{rng: frand.New()}
}

// NewSeededRandom returns a deterministic Random: two instances
// created with the same seed produce the same sequence
func NewSeededRandom(seed int64) Random {
	// frand wants a 32-byte ChaCha key
	key := make([]byte, 32)
	binary.LittleEndian.PutUint64(key, uint64(seed))
	return &lockedRandom{rng: frand.NewCustom(key, 1024, 12)}
}
