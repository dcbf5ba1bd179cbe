// Starter placement: picks well-separated land cells for the initial
// languages so they do not all begin in the same corner.
package world

import (
	"math/rand"
)

// PlaceStarters chooses up to n distinct land cells from t, preferring cells
// at least minDist apart. The spacing requirement is halved and retried
// until n cells are found or the island is exhausted.
func PlaceStarters(t *Terrain, n int, rng *rand.Rand) []Coord {
	var candidates []Coord
	for y := 0; y < t.Height; y++ {
		for x := 0; x < t.Width; x++ {
			if t.IsLand(Coord{X: x, Y: y}) {
				candidates = append(candidates, Coord{X: x, Y: y})
			}
		}
	}
	rng.Shuffle(len(candidates), func(i, j int) {
		candidates[i], candidates[j] = candidates[j], candidates[i]
	})
	if n > len(candidates) {
		n = len(candidates)
	}

	minDist := (t.Width + t.Height) / (2 * max(n, 1))
	var picked []Coord
	taken := make(map[Coord]bool)
	for len(picked) < n {
		for _, c := range candidates {
			if len(picked) >= n {
				break
			}
			if taken[c] || tooClose(c, picked, minDist) {
				continue
			}
			taken[c] = true
			picked = append(picked, c)
		}
		if minDist == 0 {
			break
		}
		minDist /= 2
	}
	return picked
}

func tooClose(c Coord, picked []Coord, minDist int) bool {
	for _, p := range picked {
		if Distance(c, p) < minDist {
			return true
		}
	}
	return false
}
