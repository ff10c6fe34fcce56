package returns

import (
	"fmt"

	domainReturns "github.com/colbyziyuwang/tianshou/internal/domain/returns"
	"github.com/colbyziyuwang/tianshou/internal/infrastructure/replay"
	"github.com/colbyziyuwang/tianshou/internal/shared"
)

// Valuer supplies bootstrap value estimates for stored transitions.
// Algorithms implement it as a closure over their own, possibly lagged,
// network.
type Valuer interface {
	// Evaluate returns one value per index: the caller's estimate of the
	// value of the observation that follows the indexed transition.
	Evaluate(buffer *replay.Buffer, indices []int) ([]float64, error)
}

// ValuerFunc adapts a plain function to the Valuer interface.
type ValuerFunc func(buffer *replay.Buffer, indices []int) ([]float64, error)

// Evaluate calls f.
func (f ValuerFunc) Evaluate(buffer *replay.Buffer, indices []int) ([]float64, error) {
	return f(buffer, indices)
}

// EvaluateChunked calls valuer on slices of at most maxBatchSize indices
// and concatenates the results, bounding the memory any single evaluation
// touches.
func EvaluateChunked(valuer Valuer, buffer *replay.Buffer, indices []int, maxBatchSize int) ([]float64, error) {
	values := make([]float64, 0, len(indices))
	for _, chunk := range shared.ChunkRanges(len(indices), maxBatchSize) {
		part, err := valuer.Evaluate(buffer, indices[chunk[0]:chunk[1]])
		if err != nil {
			return nil, fmt.Errorf("evaluate indices [%d,%d): %w", chunk[0], chunk[1], err)
		}
		if len(part) != chunk[1]-chunk[0] {
			return nil, fmt.Errorf("%w: valuer returned %d values for %d indices",
				domainReturns.ErrMalformedBatch, len(part), chunk[1]-chunk[0])
		}
		values = append(values, part...)
	}
	return values, nil
}
