// Terrain generation: island-biased random seeding followed by
// cellular-automaton smoothing, with optional simplex-noise roughness.
package world

import (
	"math"
	"math/rand"

	opensimplex "github.com/ojrac/opensimplex-go"
)

// GenConfig holds terrain generation parameters.
type GenConfig struct {
	Width           int
	Height          int
	LandProbability float64 // Base chance a cell starts as land
	IslandBias      float64 // Extra land chance at the center, fading to 0 at the corners
	SmoothingPasses int

	// Smoothing thresholds over the 8-neighbourhood.
	SurviveThreshold int  // Land stays land with at least this many land neighbours
	BirthThreshold   int  // Water becomes land with at least this many
	EdgeIsLand       bool // Count off-grid neighbours as land

	NoiseRoughness float64 // Amplitude of simplex perturbation (0 = none)
	NoiseScale     float64 // Simplex frequency in cells⁻¹
}

// DefaultGenConfig returns a reasonable starting configuration.
func DefaultGenConfig() GenConfig {
	return GenConfig{
		Width:            120,
		Height:           80,
		LandProbability:  0.25,
		IslandBias:       0.45,
		SmoothingPasses:  3,
		SurviveThreshold: 4,
		BirthThreshold:   5,
		NoiseScale:       0.08,
	}
}

// Terrain is the raw land/water grid, row-major.
type Terrain struct {
	Width  int
	Height int
	Land   []bool
}

// IsLand reports whether the cell at c is land. Off-grid cells are water.
func (t *Terrain) IsLand(c Coord) bool {
	if c.X < 0 || c.Y < 0 || c.X >= t.Width || c.Y >= t.Height {
		return false
	}
	return t.Land[c.Y*t.Width+c.X]
}

// LandCount returns the number of land cells.
func (t *Terrain) LandCount() int {
	n := 0
	for _, l := range t.Land {
		if l {
			n++
		}
	}
	return n
}

// Generate draws each cell as land with probability
// LandProbability + (1 - normalizedDistance) * IslandBias, then smooths.
func Generate(cfg GenConfig, rng *rand.Rand) *Terrain {
	t := &Terrain{
		Width:  cfg.Width,
		Height: cfg.Height,
		Land:   make([]bool, cfg.Width*cfg.Height),
	}

	var noise opensimplex.Noise
	if cfg.NoiseRoughness > 0 {
		noise = opensimplex.NewNormalized(rng.Int63())
	}

	cx := float64(cfg.Width-1) / 2
	cy := float64(cfg.Height-1) / 2
	maxDist := math.Hypot(cx, cy)

	for y := 0; y < cfg.Height; y++ {
		for x := 0; x < cfg.Width; x++ {
			dist := 0.0
			if maxDist > 0 {
				dist = math.Hypot(float64(x)-cx, float64(y)-cy) / maxDist
			}
			p := cfg.LandProbability + (1-dist)*cfg.IslandBias
			if noise != nil {
				n := noise.Eval2(float64(x)*cfg.NoiseScale, float64(y)*cfg.NoiseScale)
				p += (n - 0.5) * 2 * cfg.NoiseRoughness
			}
			t.Land[y*cfg.Width+x] = rng.Float64() < p
		}
	}

	for pass := 0; pass < cfg.SmoothingPasses; pass++ {
		t.Land = Smooth(t.Land, cfg.Width, cfg.Height, cfg)
	}
	return t
}

// Smooth runs one cellular-automaton pass. Every cell reads the previous
// grid; the result is written to a fresh slice.
func Smooth(land []bool, width, height int, cfg GenConfig) []bool {
	next := make([]bool, len(land))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			n := landNeighbors(land, width, height, x, y, cfg.EdgeIsLand)
			idx := y*width + x
			if land[idx] {
				next[idx] = n >= cfg.SurviveThreshold
			} else {
				next[idx] = n >= cfg.BirthThreshold
			}
		}
	}
	return next
}

func landNeighbors(land []bool, width, height, x, y int, edgeIsLand bool) int {
	count := 0
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			if dx == 0 && dy == 0 {
				continue
			}
			nx, ny := x+dx, y+dy
			if nx < 0 || ny < 0 || nx >= width || ny >= height {
				if edgeIsLand {
					count++
				}
				continue
			}
			if land[ny*width+nx] {
				count++
			}
		}
	}
	return count
}
