package pricing

import "math"

// Engine computes action costs from an object's base value and the
// per-action multiplier table. Pure arithmetic, no state, safe to call
// from any goroutine.
type Engine struct {
	multipliers map[string]float64
}

func NewEngine(multipliers map[string]float64) *Engine {
	m := make(map[string]float64, len(multipliers))
	for k, v := range multipliers {
		m[k] = v
	}
	return &Engine{multipliers: m}
}

// Cost returns the price of performing action on an object with the given
// base value. Unknown actions price at zero; the validator rejects them
// before pricing is consulted. Rounding is half-up so the client quote and
// the ledger deduction always agree.
func (e *Engine) Cost(action string, baseValue int64) int64 {
	m, ok := e.multipliers[action]
	if !ok || m <= 0 || baseValue <= 0 {
		return 0
	}
	return int64(math.Floor(float64(baseValue)*m + 0.5))
}

// Multiplier reports the configured factor for an action, used by the
// examine text hook to show rates.
func (e *Engine) Multiplier(action string) float64 {
	return e.multipliers[action]
}
