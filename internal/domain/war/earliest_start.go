package war

import "torn_tools/internal/app"

// EarliestWarStart returns the earliest start time among the ranked, raid and
// territory wars that have already begun at now. Wars with a zero start time
// or a start in the future are ignored. The second return value is false when
// no war qualifies.
//
// Pure function: No I/O operations, fully testable with direct inputs.
func EarliestWarStart(wars *app.WarResponse, now int64) (int64, bool) {
	if wars == nil {
		return 0, false
	}

	var earliest int64
	found := false

	consider := func(w *app.War) {
		if !HasStarted(w, now) {
			return
		}
		if !found || w.Start < earliest {
			earliest = w.Start
			found = true
		}
	}

	consider(wars.Wars.Ranked)
	for _, w := range wars.Wars.Raids {
		consider(w)
	}
	for _, w := range wars.Wars.Territory {
		consider(w)
	}

	return earliest, found
}

// HasStarted reports whether w has a start time that is not after now
func HasStarted(w *app.War, now int64) bool {
	return w != nil && w.Start != 0 && w.Start <= now
}
