// Package gridsearch selects the best model configuration per ID from
// pre-computed grid search results and summarizes the winning model families.
package gridsearch

import (
	"math"
	"strconv"
)

// SelectBest returns, for every distinct ID, the row with the lowest value of
// metric. IDs are emitted in order of first occurrence and ties keep the
// earliest row. Empty input yields an empty result.
func SelectBest(rows []Row, metric Metric) ([]Row, error) {
	best := make([]Row, 0)
	position := make(map[string]int)

	for _, row := range rows {
		v, err := row.Metric(metric)
		if err != nil {
			return nil, err
		}
		if math.IsNaN(v) || v < 0 {
			return nil, &InvalidValueError{
				ID:    row.ID,
				Field: string(metric),
				Value: strconv.FormatFloat(v, 'g', -1, 64),
			}
		}

		idx, seen := position[row.ID]
		if !seen {
			position[row.ID] = len(best)
			best = append(best, row)
			continue
		}
		// strictly lower so the first of equal minima is kept
		if v < best[idx].Metrics[metric] {
			best[idx] = row
		}
	}
	return best, nil
}
