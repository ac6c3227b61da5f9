package lowering

import (
	"fmt"
	"slices"

	"github.com/roach88/pulsekit/internal/ir"
)

// validateMeasMap checks that every must-acquire-together set touched by an
// acquire group is acquired whole. Only acquires sharing the group's exact
// (t0, duration) key are considered together.
func validateMeasMap(g *acquireGroup, measMap [][]int) error {
	acquired := make([]int, 0, len(g.insts))
	for _, in := range g.insts {
		acquired = append(acquired, in.Channel.Index)
	}
	slices.Sort(acquired)
	acquired = slices.Compact(acquired)

	for _, set := range measMap {
		hit := 0
		for _, q := range set {
			if _, found := slices.BinarySearch(acquired, q); found {
				hit++
			}
		}
		if hit > 0 && hit != len(set) {
			return ir.ValidationErrorf("qubits to be acquired %v do not satisfy required qubits in measurement map %v", acquired, set).
				WithDetail("t0", fmt.Sprint(g.key.t0)).
				WithDetail("duration", fmt.Sprint(g.key.duration))
		}
	}
	return nil
}
