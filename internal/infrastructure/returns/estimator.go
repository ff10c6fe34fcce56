// Package returns provides infrastructure for turning stored transitions
// into training targets: n-step bootstrapped TD targets, full Monte-Carlo
// returns, and generalized advantage estimates. All three share one
// boundary contract: a terminated step ends accumulation with no bootstrap,
// while a truncated step and the buffer's write frontier end accumulation
// but keep a bootstrapped value estimate.
package returns

import (
	"github.com/rs/zerolog"

	domainReplay "github.com/colbyziyuwang/tianshou/internal/domain/replay"
	domainReturns "github.com/colbyziyuwang/tianshou/internal/domain/returns"
	"github.com/colbyziyuwang/tianshou/internal/infrastructure/replay"
)

// Estimator computes training targets from a replay buffer. It carries
// configuration only; trajectory state lives in the buffer and
// normalization state in an explicitly passed Normalizer, so every call is
// a pure function of its arguments.
type Estimator struct {
	config domainReturns.Config
	logger zerolog.Logger
}

// NewEstimator validates the configuration and creates an estimator. Pass
// zerolog.Nop() to disable logging.
func NewEstimator(config domainReturns.Config, logger zerolog.Logger) (*Estimator, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	estimator := &Estimator{
		config: config,
		logger: logger.With().Str("component", "return_estimator").Logger(),
	}
	estimator.logger.Info().
		Float64("gamma", config.Gamma).
		Float64("lambda", config.Lambda).
		Int("n_step", config.NStep).
		Msg("return estimator initialized")
	return estimator, nil
}

// Config returns the estimator's configuration.
func (e *Estimator) Config() domainReturns.Config {
	return e.config
}

// Private methods

// endFlags marks every batch position where the backward advantage
// recursion must reset instead of propagating: episode boundaries,
// unfinished frontier tails, and positions whose buffer successor is not
// the following batch element. The last case covers ring wraparound and
// accidental cross-episode batches; truncating a return there is safer
// than folding in a neighboring episode's advantage.
func endFlags(buffer *replay.Buffer, indices []int, batch domainReplay.Batch, unfinished map[int]bool) []bool {
	flags := make([]bool, len(indices))
	for t, i := range indices {
		if batch.Terminated[t] || batch.Truncated[t] || unfinished[i] {
			flags[t] = true
			continue
		}
		if t == len(indices)-1 || buffer.Next(i) != indices[t+1] {
			flags[t] = true
		}
	}
	return flags
}

// gaeReturn runs the backward advantage recursion shared by the episodic
// estimators. vSNext must already be masked to zero at terminated
// positions.
func gaeReturn(vS, vSNext, rew []float64, endFlag []bool, gamma, lambda float64) []float64 {
	advantages := make([]float64, len(rew))
	gae := 0.0
	for t := len(rew) - 1; t >= 0; t-- {
		delta := rew[t] + gamma*vSNext[t] - vS[t]
		if endFlag[t] {
			gae = delta
		} else {
			gae = delta + gamma*lambda*gae
		}
		advantages[t] = gae
	}
	return advantages
}
