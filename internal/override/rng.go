package override

import (
	cryptoRand "crypto/rand"
	"encoding/binary"
	"math/rand/v2"
)

// RandomSource picks candidate indexes.
type RandomSource interface {
	IntN(n int) int // [0, n)
}

// crypto random: default, fresh entropy on every call
type cryptoRNG struct{}

func (cryptoRNG) IntN(n int) int {
	if n <= 1 {
		return 0
	}
	var buf [8]byte
	if _, err := cryptoRand.Read(buf[:]); err != nil {
		// back to math/rand/v2
		return rand.IntN(n)
	}
	u := binary.BigEndian.Uint64(buf[:]) >> 11 // 53 bits
	return int(float64(u) / (1 << 53) * float64(n))
}

func DefaultRandom() RandomSource { return cryptoRNG{} }

// Replicable RNG (tests, harness replays)
type seededRNG struct{ r *rand.Rand }

func NewSeededRandom(seed uint64) RandomSource {
	return &seededRNG{r: rand.New(rand.NewPCG(seed, 0))}
}

func (s *seededRNG) IntN(n int) int {
	if n <= 1 {
		return 0
	}
	return s.r.IntN(n)
}
