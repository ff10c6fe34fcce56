// Package exploration provides action-noise generators for off-policy
// continuous-control training. Noise is added to deterministic policy
// outputs during training rollouts only; evaluation runs noise-free.
package exploration

import (
	"math"
	"math/rand"
	"time"

	domainExploration "github.com/colbyziyuwang/tianshou/internal/domain/exploration"
)

// Noise generates one perturbation per action dimension.
type Noise interface {
	// Sample returns dim perturbations.
	Sample(dim int) []float64

	// Reset clears any internal state between episodes.
	Reset()
}

// GaussianNoise draws independent zero-mean Gaussian perturbations.
type GaussianNoise struct {
	config domainExploration.GaussianConfig
	rng    *rand.Rand
}

// NewGaussianNoise creates a Gaussian noise generator.
func NewGaussianNoise(config domainExploration.GaussianConfig) (*GaussianNoise, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &GaussianNoise{
		config: config,
		rng:    rand.New(rand.NewSource(seedOrNow(config.Seed))),
	}, nil
}

// Sample returns dim independent draws from N(0, sigma^2).
func (g *GaussianNoise) Sample(dim int) []float64 {
	noise := make([]float64, dim)
	for i := range noise {
		noise[i] = g.rng.NormFloat64() * g.config.Sigma
	}
	return noise
}

// Reset is a no-op: Gaussian noise carries no state across steps.
func (g *GaussianNoise) Reset() {}

// OrnsteinUhlenbeck integrates a mean-reverting process, producing
// temporally correlated noise: x += theta*(mu-x)*dt + sigma*sqrt(dt)*W.
type OrnsteinUhlenbeck struct {
	config domainExploration.OUConfig
	rng    *rand.Rand
	state  []float64
}

// NewOrnsteinUhlenbeck creates an Ornstein-Uhlenbeck noise generator.
func NewOrnsteinUhlenbeck(config domainExploration.OUConfig) (*OrnsteinUhlenbeck, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &OrnsteinUhlenbeck{
		config: config,
		rng:    rand.New(rand.NewSource(seedOrNow(config.Seed))),
	}, nil
}

// Sample advances the process by one step and returns its state. A dim
// change mid-episode restarts the process at zero.
func (o *OrnsteinUhlenbeck) Sample(dim int) []float64 {
	if len(o.state) != dim {
		o.state = make([]float64, dim)
	}

	scale := o.config.Sigma * math.Sqrt(o.config.Dt)
	for i := range o.state {
		o.state[i] += o.config.Theta*(o.config.Mu-o.state[i])*o.config.Dt + scale*o.rng.NormFloat64()
	}

	noise := make([]float64, dim)
	copy(noise, o.state)
	return noise
}

// Reset restarts the process at zero, typically between episodes.
func (o *OrnsteinUhlenbeck) Reset() {
	o.state = nil
}

// seedOrNow falls back to a wall-clock seed when none is configured.
func seedOrNow(seed int64) int64 {
	if seed == 0 {
		return time.Now().UnixNano()
	}
	return seed
}
