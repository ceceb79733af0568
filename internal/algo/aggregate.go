package algo

import (
	"golang.org/x/exp/constraints"

	"github.com/elektrokombinacija/mapf-grid/internal/core"
)

// aggregate folds per-agent values: sum for sum-of-costs, max for makespan.
func aggregate[T constraints.Integer](obj core.Objective, values []T) T {
	var total T
	for _, v := range values {
		if obj == core.Makespan {
			total = max(total, v)
			continue
		}
		total += v
	}
	return total
}
