package stats

import (
	"errors"
	"math"
	"testing"

	domainStats "github.com/colbyziyuwang/tianshou/internal/domain/stats"
)

func TestNewMovingAverageRejectsInvalidWindow(t *testing.T) {
	_, err := NewMovingAverage(domainStats.MovAvgConfig{WindowSize: 0})
	if !errors.Is(err, domainStats.ErrInvalidWindowSize) {
		t.Fatalf("expected ErrInvalidWindowSize, got %v", err)
	}
}

func TestMovingAverageWindowEviction(t *testing.T) {
	ma, err := NewMovingAverage(domainStats.MovAvgConfig{WindowSize: 3})
	if err != nil {
		t.Fatalf("NewMovingAverage failed: %v", err)
	}

	ma.Add(1)
	ma.Add(2)
	got := ma.Add(3)
	almostEqual(t, got, 2, statTolerance, "mean of full window")

	// A fourth sample evicts the first.
	got = ma.Add(10)
	almostEqual(t, got, 5, statTolerance, "mean after eviction")
	if ma.Len() != 3 {
		t.Fatalf("Len = %d, expected 3", ma.Len())
	}
}

func TestMovingAverageIgnoresNonFinite(t *testing.T) {
	ma, err := NewMovingAverage(domainStats.DefaultMovAvgConfig())
	if err != nil {
		t.Fatalf("NewMovingAverage failed: %v", err)
	}

	ma.Add(4)
	ma.Add(math.NaN())
	ma.Add(math.Inf(1))
	ma.Add(math.Inf(-1))

	if ma.Len() != 1 {
		t.Fatalf("Len = %d, expected 1 after non-finite samples", ma.Len())
	}
	almostEqual(t, ma.Mean(), 4, statTolerance, "mean")
}

func TestMovingAverageEmptyAndReset(t *testing.T) {
	ma, err := NewMovingAverage(domainStats.MovAvgConfig{WindowSize: 2})
	if err != nil {
		t.Fatalf("NewMovingAverage failed: %v", err)
	}

	if ma.Mean() != 0 {
		t.Fatalf("empty Mean = %v, expected 0", ma.Mean())
	}

	ma.Add(8)
	ma.Reset()

	if ma.Len() != 0 || ma.Mean() != 0 {
		t.Fatalf("Reset left state: len=%d mean=%v", ma.Len(), ma.Mean())
	}
}
