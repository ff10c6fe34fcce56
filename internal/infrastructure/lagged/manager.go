// Package lagged provides infrastructure for maintaining delayed copies of
// trainable models. A manager registers (source, shadow) pairs and applies
// one of two synchronization disciplines on demand: a periodic full copy,
// or a continuous Polyak (exponential moving average) blend. Shadows exist
// to produce stable bootstrap targets; no gradient ever flows into them.
package lagged

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/floats"

	domainLagged "github.com/colbyziyuwang/tianshou/internal/domain/lagged"
	"github.com/colbyziyuwang/tianshou/internal/shared"
)

// Parameterized exposes a model's parameters as one float slice per layer.
// Sources must return slices aliasing their live storage on every call, so
// synchronization always reads the current weights.
type Parameterized interface {
	// Parameters returns the model's parameters, one slice per layer.
	Parameters() [][]float64
}

// Shadow is the lagged copy of one tracked source. The manager owns its
// parameter storage and mutates it only through synchronization calls.
type Shadow struct {
	params [][]float64
}

// Parameters returns the shadow's parameter storage, one slice per layer.
// The slices alias manager-owned memory and reflect every later
// synchronization; callers must treat them as read-only and never hand
// them to an optimizer.
func (s *Shadow) Parameters() [][]float64 {
	return s.params
}

// Manager registers (source, shadow) model pairs and synchronizes every
// pair in a single call, so paired shadows (an actor's and a critic's,
// say) never drift out of step with each other.
type Manager struct {
	mu      sync.RWMutex
	config  domainLagged.Config
	sources []Parameterized
	shadows []*Shadow
	logger  zerolog.Logger
}

// NewManager creates a lagged network manager. Pass zerolog.Nop() to
// disable logging.
func NewManager(config domainLagged.Config, logger zerolog.Logger) (*Manager, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Manager{
		config: config,
		logger: logger.With().Str("component", "lagged_manager").Logger(),
	}, nil
}

// Track deep-copies the source's current parameters into a fresh shadow,
// registers the pair, and returns the shadow. The shadow starts
// value-identical to the source.
func (m *Manager) Track(source Parameterized) (*Shadow, error) {
	params := source.Parameters()
	if len(params) == 0 {
		return nil, fmt.Errorf("%w: source exposes no parameters", domainLagged.ErrArchitectureMismatch)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	shadow := &Shadow{params: shared.CloneMatrix(params)}
	m.sources = append(m.sources, source)
	m.shadows = append(m.shadows, shadow)
	m.logger.Debug().
		Int("pair", len(m.shadows)-1).
		Int("layers", len(params)).
		Msg("tracking new source")
	return shadow, nil
}

// Pairs returns how many pairs are registered.
func (m *Manager) Pairs() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.shadows)
}

// FullUpdate overwrites every shadow's parameters with its source's,
// value for value.
func (m *Manager) FullUpdate() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for pair, source := range m.sources {
		params := source.Parameters()
		if err := checkShapes(pair, params, m.shadows[pair].params); err != nil {
			return err
		}
		for layer := range params {
			copy(m.shadows[pair].params[layer], params[layer])
		}
	}
	return nil
}

// PolyakUpdate blends every shadow toward its source:
// shadow = tau*source + (1-tau)*shadow. Applied once per optimizer step by
// continuous-discipline algorithms.
func (m *Manager) PolyakUpdate() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	tau := m.config.Tau
	for pair, source := range m.sources {
		params := source.Parameters()
		if err := checkShapes(pair, params, m.shadows[pair].params); err != nil {
			return err
		}
		for layer := range params {
			floats.Scale(1-tau, m.shadows[pair].params[layer])
			floats.AddScaled(m.shadows[pair].params[layer], tau, params[layer])
		}
	}
	return nil
}

// ShadowParameters returns a deep copy of every shadow's parameters, in
// registration order.
func (m *Manager) ShadowParameters() [][][]float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()

	copies := make([][][]float64, len(m.shadows))
	for pair, shadow := range m.shadows {
		copies[pair] = shared.CloneMatrix(shadow.params)
	}
	return copies
}

// Snapshot captures every shadow's parameters for persistence.
func (m *Manager) Snapshot() domainLagged.Snapshot {
	return domainLagged.Snapshot{Shadows: m.ShadowParameters()}
}

// Restore overwrites every shadow's parameters from a snapshot taken from
// a manager with identically shaped pairs.
func (m *Manager) Restore(snapshot domainLagged.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(snapshot.Shadows) != len(m.shadows) {
		return fmt.Errorf("%w: snapshot has %d pairs, manager has %d",
			domainLagged.ErrArchitectureMismatch, len(snapshot.Shadows), len(m.shadows))
	}
	for pair, params := range snapshot.Shadows {
		if err := checkShapes(pair, params, m.shadows[pair].params); err != nil {
			return err
		}
	}
	for pair, params := range snapshot.Shadows {
		for layer := range params {
			copy(m.shadows[pair].params[layer], params[layer])
		}
	}
	m.logger.Debug().Int("pairs", len(m.shadows)).Msg("shadow parameters restored")
	return nil
}

// Private methods

// checkShapes verifies that two parameter matrices line up layer by layer.
// Shapes can drift when a source swaps its architecture after Track.
func checkShapes(pair int, src, dst [][]float64) error {
	if len(src) != len(dst) {
		return fmt.Errorf("%w: pair %d has %d source layers, %d shadow layers",
			domainLagged.ErrArchitectureMismatch, pair, len(src), len(dst))
	}
	for layer := range src {
		if len(src[layer]) != len(dst[layer]) {
			return fmt.Errorf("%w: pair %d layer %d has %d source values, %d shadow values",
				domainLagged.ErrArchitectureMismatch, pair, layer, len(src[layer]), len(dst[layer]))
		}
	}
	return nil
}
