package stats

import (
	"fmt"
	"math"
	"sync"

	"github.com/gammazero/deque"

	domainStats "github.com/colbyziyuwang/tianshou/internal/domain/stats"
)

// MovingAverage is a fixed-window mean over recent scalars, used to smooth
// per-episode statistics for display. Non-finite samples are ignored so
// sentinel values never poison the window.
type MovingAverage struct {
	mu     sync.Mutex
	config domainStats.MovAvgConfig
	window *deque.Deque[float64]
	sum    float64
}

// NewMovingAverage creates a moving average with the given configuration.
func NewMovingAverage(config domainStats.MovAvgConfig) (*MovingAverage, error) {
	if config.WindowSize <= 0 {
		return nil, fmt.Errorf("%w: window size %d", domainStats.ErrInvalidWindowSize, config.WindowSize)
	}
	return &MovingAverage{
		config: config,
		window: deque.New[float64](),
	}, nil
}

// Add absorbs a sample and returns the updated window mean. NaN and
// infinite samples leave the window unchanged.
func (m *MovingAverage) Add(x float64) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return m.Mean()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.window.PushBack(x)
	m.sum += x
	if m.window.Len() > m.config.WindowSize {
		m.sum -= m.window.PopFront()
	}
	return m.sum / float64(m.window.Len())
}

// Mean returns the current window mean, zero while the window is empty.
func (m *MovingAverage) Mean() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.window.Len() == 0 {
		return 0
	}
	return m.sum / float64(m.window.Len())
}

// Len returns the number of samples currently in the window.
func (m *MovingAverage) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.window.Len()
}

// Reset clears the window.
func (m *MovingAverage) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.window.Clear()
	m.sum = 0
}
