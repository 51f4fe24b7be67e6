package gridsearch

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// FamilyStats describes the metric values of the best rows won by one family.
type FamilyStats struct {
	Family Family  `json:"family"`
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"stddev"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
}

// SummarizeFamilies computes per-family statistics of metric over the best
// rows, one entry per known family in the order of Families. Families without
// rows report zeros.
func SummarizeFamilies(best []Row, metric Metric) ([]FamilyStats, error) {
	values := make(map[Family][]float64, len(Families))
	for _, row := range best {
		f, ok := KnownFamily(row.Family())
		if !ok {
			continue
		}
		v, err := row.Metric(metric)
		if err != nil {
			return nil, err
		}
		values[f] = append(values[f], v)
	}

	summary := make([]FamilyStats, 0, len(Families))
	for _, f := range Families {
		fs := FamilyStats{Family: f, Count: len(values[f])}
		switch len(values[f]) {
		case 0:
		case 1:
			fs.Mean = values[f][0]
			fs.Min = values[f][0]
			fs.Max = values[f][0]
		default:
			fs.Mean, fs.StdDev = stat.MeanStdDev(values[f], nil)
			fs.Min = floats.Min(values[f])
			fs.Max = floats.Max(values[f])
		}
		summary = append(summary, fs)
	}
	return summary, nil
}
