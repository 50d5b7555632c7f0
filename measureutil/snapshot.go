package measureutil

import "github.com/geraldpeng6/ObliviousMessageRetrieval/internal/measure"

// SnapshotAndReset returns the global measurement map and clears it.
func SnapshotAndReset() map[string]int {
	return measure.Global.SnapshotAndReset()
}
