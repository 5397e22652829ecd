package workload

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/hupe1980/olctree/internal/hash"
)

var (
	// ErrInvalidTheta is returned for a skew outside [0, 1).
	ErrInvalidTheta = errors.New("workload: zipf theta must be in [0, 1)")
	// ErrEmptyKeySpace is returned for a key space of size zero.
	ErrEmptyKeySpace = errors.New("workload: key space is empty")
)

// KeyGenerator draws keys from a fixed key space.
type KeyGenerator interface {
	// Next returns a key in [0, N()).
	Next(r *rand.Rand) uint64
	// N returns the size of the key space.
	N() uint64
}

// NewKeyGenerator returns a uniform generator for theta 0 and a scrambled
// Zipfian generator otherwise.
func NewKeyGenerator(n uint64, theta float64) (KeyGenerator, error) {
	if theta == 0 {
		return NewUniform(n)
	}
	return NewScrambledZipfian(n, theta)
}

// Uniform draws every key with the same probability.
type Uniform struct {
	n uint64
}

// NewUniform creates a uniform generator over [0, n).
func NewUniform(n uint64) (*Uniform, error) {
	if n == 0 {
		return nil, ErrEmptyKeySpace
	}
	return &Uniform{n: n}, nil
}

// Next implements KeyGenerator.
func (u *Uniform) Next(r *rand.Rand) uint64 {
	return r.Uint64N(u.n)
}

// N implements KeyGenerator.
func (u *Uniform) N() uint64 {
	return u.n
}

// Zipfian draws rank i with probability proportional to 1/(i+1)^theta.
// Rank 0 is the most popular.
type Zipfian struct {
	n     uint64
	theta float64
	alpha float64
	zetan float64
	eta   float64
	half  float64 // 1 + 0.5^theta
}

// NewZipfian creates a Zipfian generator over [0, n).
// Construction is O(n); keep one generator per key space.
func NewZipfian(n uint64, theta float64) (*Zipfian, error) {
	if n == 0 {
		return nil, ErrEmptyKeySpace
	}
	if theta < 0 || theta >= 1 || math.IsNaN(theta) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTheta, theta)
	}

	zeta2 := zeta(2, theta)
	zetan := zeta(n, theta)

	z := &Zipfian{
		n:     n,
		theta: theta,
		alpha: 1 / (1 - theta),
		zetan: zetan,
		half:  1 + math.Pow(0.5, theta),
	}
	if n > 2 {
		z.eta = (1 - math.Pow(2/float64(n), 1-theta)) / (1 - zeta2/zetan)
	}
	return z, nil
}

func zeta(n uint64, theta float64) float64 {
	var sum float64
	for i := uint64(1); i <= n; i++ {
		sum += 1 / math.Pow(float64(i), theta)
	}
	return sum
}

// Next implements KeyGenerator.
func (z *Zipfian) Next(r *rand.Rand) uint64 {
	u := r.Float64()
	uz := u * z.zetan

	if uz < 1 || z.n == 1 {
		return 0
	}
	if uz < z.half || z.n == 2 {
		return 1
	}

	v := uint64(float64(z.n) * math.Pow(z.eta*u-z.eta+1, z.alpha))
	return min(v, z.n-1)
}

// N implements KeyGenerator.
func (z *Zipfian) N() uint64 {
	return z.n
}

// ScrambledZipfian draws Zipfian ranks and maps them to keys through a hash,
// so popular keys are scattered across the key space.
type ScrambledZipfian struct {
	z *Zipfian
}

// NewScrambledZipfian creates a scrambled Zipfian generator over [0, n).
func NewScrambledZipfian(n uint64, theta float64) (*ScrambledZipfian, error) {
	z, err := NewZipfian(n, theta)
	if err != nil {
		return nil, err
	}
	return &ScrambledZipfian{z: z}, nil
}

// Next implements KeyGenerator.
func (s *ScrambledZipfian) Next(r *rand.Rand) uint64 {
	return hash.Scramble(s.z.Next(r)) % s.z.n
}

// N implements KeyGenerator.
func (s *ScrambledZipfian) N() uint64 {
	return s.z.n
}
