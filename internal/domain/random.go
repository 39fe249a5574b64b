package domain

import (
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"
)

// RandomSource supplies every stochastic draw in the pipeline. It wraps a
// seeded PCG generator; distributions are gonum distuv values bound to the
// same underlying source, so the draw sequence depends only on the seed and
// call order.
//
// A RandomSource is not safe for concurrent use. Use Derive to hand
// independent streams to concurrent workers.
type RandomSource struct {
	seed uint64
	src  *rand.PCG
	rnd  *rand.Rand
}

// NewRandomSource returns a source seeded with seed.
func NewRandomSource(seed uint64) *RandomSource {
	src := rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)
	return &RandomSource{seed: seed, src: src, rnd: rand.New(src)}
}

// Seed returns the seed the source was created with.
func (r *RandomSource) Seed() uint64 { return r.seed }

// Source exposes the underlying generator for gonum distributions.
func (r *RandomSource) Source() rand.Source { return r.src }

// IntN returns a uniform integer in [0, n).
func (r *RandomSource) IntN(n int) int { return r.rnd.IntN(n) }

// Float64 returns a uniform float in [0, 1).
func (r *RandomSource) Float64() float64 { return r.rnd.Float64() }

// Perm returns a random permutation of [0, n).
func (r *RandomSource) Perm(n int) []int { return r.rnd.Perm(n) }

// Normal draws from N(mu, sigma²).
func (r *RandomSource) Normal(mu, sigma float64) float64 {
	return distuv.Normal{Mu: mu, Sigma: sigma, Src: r.src}.Rand()
}

// Poisson draws a count with mean lambda.
func (r *RandomSource) Poisson(lambda float64) int {
	return int(distuv.Poisson{Lambda: lambda, Src: r.src}.Rand())
}

// Bernoulli returns true with probability p.
func (r *RandomSource) Bernoulli(p float64) bool {
	return distuv.Bernoulli{P: p, Src: r.src}.Rand() == 1
}

// Categorical returns a sampler over indices weighted by w.
func (r *RandomSource) Categorical(w []float64) func() int {
	c := distuv.NewCategorical(w, r.src)
	return func() int { return int(c.Rand()) }
}

// Derive returns a new source for stream. The result depends only on the
// parent seed and stream, never on draws already taken from r.
func (r *RandomSource) Derive(stream uint64) *RandomSource {
	return NewRandomSource(splitMix64(r.seed ^ splitMix64(stream)))
}

func splitMix64(x uint64) uint64 {
	x += 0x9e3779b97f4a7c15
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	return x ^ (x >> 31)
}
