package algorithm

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"gonum.org/v1/gonum/floats"

	domainAlgorithm "github.com/colbyziyuwang/tianshou/internal/domain/algorithm"
	infraReplay "github.com/colbyziyuwang/tianshou/internal/infrastructure/replay"
)

// QNetwork scores every action for each observation, one row of
// action-values per observation.
type QNetwork interface {
	QValues(obs [][]float32) ([][]float64, error)
}

// StochasticActor samples one action per observation from the current
// policy and reports its log-probability.
type StochasticActor interface {
	SampleAction(obs [][]float32) (actions [][]float32, logProbs []float64, err error)
}

// ActionValue scores one observation-action pair per row.
type ActionValue interface {
	ActionValue(obs, act [][]float32) ([]float64, error)
}

// DoubleQ is the decoupled target: the online network chooses the best
// next action, the lagged network prices it. Selecting and pricing with
// different networks damps the overestimation a single maximizing network
// feeds back into itself.
type DoubleQ struct {
	online QNetwork
	lagged QNetwork
}

// NewDoubleQ creates a double-Q target strategy.
func NewDoubleQ(online, lagged QNetwork) (*DoubleQ, error) {
	if online == nil {
		return nil, fmt.Errorf("%w: online network", domainAlgorithm.ErrNilDependency)
	}
	if lagged == nil {
		return nil, fmt.Errorf("%w: lagged network", domainAlgorithm.ErrNilDependency)
	}
	return &DoubleQ{online: online, lagged: lagged}, nil
}

// Evaluate returns, per index, the lagged network's value of the action
// the online network prefers in the following observation.
func (d *DoubleQ) Evaluate(buffer *infraReplay.Buffer, indices []int) ([]float64, error) {
	if len(indices) == 0 {
		return []float64{}, nil
	}
	batch, err := buffer.Get(indices)
	if err != nil {
		return nil, err
	}

	qOnline, err := d.online.QValues(batch.ObsNext)
	if err != nil {
		return nil, fmt.Errorf("online q-values: %w", err)
	}
	qLagged, err := d.lagged.QValues(batch.ObsNext)
	if err != nil {
		return nil, fmt.Errorf("lagged q-values: %w", err)
	}
	if len(qOnline) != len(indices) || len(qLagged) != len(indices) {
		return nil, fmt.Errorf("%w: %d online and %d lagged rows for %d observations",
			domainAlgorithm.ErrMismatchedNetworks, len(qOnline), len(qLagged), len(indices))
	}

	values := make([]float64, len(indices))
	for i := range values {
		if len(qOnline[i]) == 0 || len(qLagged[i]) != len(qOnline[i]) {
			return nil, fmt.Errorf("%w: row %d has %d online and %d lagged action-values",
				domainAlgorithm.ErrMismatchedNetworks, i, len(qOnline[i]), len(qLagged[i]))
		}
		values[i] = qLagged[i][floats.MaxIdx(qOnline[i])]
	}
	return values, nil
}

// MinEnsemble is the randomized-ensemble target: each evaluation draws a
// fresh subset of the critic ensemble and takes the per-row minimum of the
// subset's values. The minimum over an independent subset is a lower,
// lower-variance stand-in for the true value.
type MinEnsemble struct {
	ensemble   []Critic
	subsetSize int
	rng        *rand.Rand
}

// NewMinEnsemble creates a min-of-subset target strategy over the given
// critic ensemble. Seed zero derives a seed from the clock.
func NewMinEnsemble(ensemble []Critic, subsetSize int, seed int64) (*MinEnsemble, error) {
	if len(ensemble) == 0 {
		return nil, fmt.Errorf("%w: critic ensemble", domainAlgorithm.ErrNilDependency)
	}
	for i, member := range ensemble {
		if member == nil {
			return nil, fmt.Errorf("%w: ensemble member %d", domainAlgorithm.ErrNilDependency, i)
		}
	}
	if subsetSize < 1 || subsetSize > len(ensemble) {
		return nil, fmt.Errorf("%w: subset %d of ensemble %d",
			domainAlgorithm.ErrInvalidSubsetSize, subsetSize, len(ensemble))
	}

	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &MinEnsemble{
		ensemble:   append([]Critic(nil), ensemble...),
		subsetSize: subsetSize,
		rng:        rand.New(rand.NewSource(seed)),
	}, nil
}

// Evaluate returns, per index, the minimum value a freshly drawn critic
// subset assigns to the following observation.
func (m *MinEnsemble) Evaluate(buffer *infraReplay.Buffer, indices []int) ([]float64, error) {
	if len(indices) == 0 {
		return []float64{}, nil
	}
	batch, err := buffer.Get(indices)
	if err != nil {
		return nil, err
	}

	subset := m.rng.Perm(len(m.ensemble))[:m.subsetSize]
	var values []float64
	for _, k := range subset {
		vals, err := m.ensemble[k].Value(batch.ObsNext)
		if err != nil {
			return nil, fmt.Errorf("ensemble member %d: %w", k, err)
		}
		if len(vals) != len(indices) {
			return nil, fmt.Errorf("%w: member %d returned %d values for %d observations",
				domainAlgorithm.ErrMismatchedNetworks, k, len(vals), len(indices))
		}
		if values == nil {
			values = append([]float64(nil), vals...)
			continue
		}
		for i := range values {
			values[i] = math.Min(values[i], vals[i])
		}
	}
	return values, nil
}

// EntropyAdjusted is the maximum-entropy target: the actor samples a next
// action from the current policy, the critic prices it, and the price is
// discounted by the action's log-probability scaled by the entropy
// coefficient.
type EntropyAdjusted struct {
	actor  StochasticActor
	critic ActionValue
	alpha  float64
}

// NewEntropyAdjusted creates an entropy-adjusted target strategy. Alpha is
// the entropy coefficient; zero recovers the plain sampled-action value.
func NewEntropyAdjusted(actor StochasticActor, critic ActionValue, alpha float64) (*EntropyAdjusted, error) {
	if actor == nil {
		return nil, fmt.Errorf("%w: actor", domainAlgorithm.ErrNilDependency)
	}
	if critic == nil {
		return nil, fmt.Errorf("%w: critic", domainAlgorithm.ErrNilDependency)
	}
	if alpha < 0 {
		return nil, fmt.Errorf("%w: alpha %v", domainAlgorithm.ErrInvalidEntropyCoeff, alpha)
	}
	return &EntropyAdjusted{actor: actor, critic: critic, alpha: alpha}, nil
}

// Evaluate returns, per index, Q(s', a') - alpha*log pi(a'|s') for an
// action a' sampled from the policy at the following observation.
func (e *EntropyAdjusted) Evaluate(buffer *infraReplay.Buffer, indices []int) ([]float64, error) {
	if len(indices) == 0 {
		return []float64{}, nil
	}
	batch, err := buffer.Get(indices)
	if err != nil {
		return nil, err
	}

	actions, logProbs, err := e.actor.SampleAction(batch.ObsNext)
	if err != nil {
		return nil, fmt.Errorf("sample action: %w", err)
	}
	if len(actions) != len(indices) || len(logProbs) != len(indices) {
		return nil, fmt.Errorf("%w: %d actions and %d log-probs for %d observations",
			domainAlgorithm.ErrMismatchedNetworks, len(actions), len(logProbs), len(indices))
	}

	q, err := e.critic.ActionValue(batch.ObsNext, actions)
	if err != nil {
		return nil, fmt.Errorf("action value: %w", err)
	}
	if len(q) != len(indices) {
		return nil, fmt.Errorf("%w: %d action-values for %d observations",
			domainAlgorithm.ErrMismatchedNetworks, len(q), len(indices))
	}

	values := make([]float64, len(indices))
	for i := range values {
		values[i] = q[i] - e.alpha*logProbs[i]
	}
	return values, nil
}
