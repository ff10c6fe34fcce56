// Package shared provides shared types used across all modules in tianshou.
package shared

// Mode distinguishes training behavior from evaluation behavior. It is
// passed explicitly to every call whose outcome depends on it; no component
// keeps an ambient train/eval flag.
type Mode string

const (
	// ModeTrain enables stochastic training behavior (exploration noise,
	// priority updates).
	ModeTrain Mode = "train"

	// ModeEval requests deterministic evaluation behavior.
	ModeEval Mode = "eval"
)

// Valid reports whether the mode is one of the known values.
func (m Mode) Valid() bool {
	return m == ModeTrain || m == ModeEval
}
