// Package entropy provides the simulation's random source. A fixed seed
// reproduces a run exactly; seed 0 draws a fresh seed from crypto/rand.
package entropy

import (
	"crypto/rand"
	"encoding/binary"
	mrand "math/rand"
)

// SourceFunc builds a random source from a seed. Tests substitute their own.
type SourceFunc func(seed int64) mrand.Source

// DefaultSource is math/rand's seeded source.
func DefaultSource(seed int64) mrand.Source {
	return mrand.NewSource(seed)
}

// ResolveSeed returns seed, or a crypto-random non-zero seed when seed is 0.
func ResolveSeed(seed int64) int64 {
	for seed == 0 {
		seed = cryptoSeed()
	}
	return seed
}

// New returns a generator over src(seed).
func New(seed int64, src SourceFunc) *mrand.Rand {
	if src == nil {
		src = DefaultSource
	}
	return mrand.New(src(seed))
}

// Chance reports true with probability p. It draws nothing when p is 0 or 1.
func Chance(rng *mrand.Rand, p float64) bool {
	if p <= 0 {
		return false
	}
	if p >= 1 {
		return true
	}
	return rng.Float64() < p
}

// cryptoSeed reads 63 bits from crypto/rand.
func cryptoSeed() int64 {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		// This should never happen but return a fixed seed as a safe default.
		return 1
	}
	return int64(binary.LittleEndian.Uint64(buf[:]) >> 1)
}
