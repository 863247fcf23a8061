package engine

// Lunar cycle constants carried over from production: the reference new moon
// of 2021-01-13T05:00:00Z and the synodic month in milliseconds.
const (
	NewMoonReferenceMs = 1610514000000
	LunarCycleMs       = 2551442877 // 2551442876.8992 ms rounded
)

// Phase returns the position within a repeating cycle as a value in [0,1).
// Deterministic and total for cycleMs > 0; a non-positive cycle length yields
// *InvalidArgumentError.
func Phase(nowMs, referenceEpochMs, cycleMs int64) (float64, error) {
	if cycleMs <= 0 {
		return 0, &InvalidArgumentError{Op: "cycle phase", Reason: "cycle duration must be positive"}
	}
	diff := (nowMs - referenceEpochMs) % cycleMs
	if diff < 0 {
		diff += cycleMs
	}
	return float64(diff) / float64(cycleMs), nil
}
