package gridsearch

import (
	"strings"

	"github.com/iwvelando/forecast-dashboard/pkg/constants"
	"github.com/iwvelando/forecast-dashboard/pkg/mathutil"
)

// Family is a model class independent of its parameter configuration.
type Family string

const (
	SES         Family = "SES"
	Holt        Family = "Holt"
	HoltWinters Family = "Holt-Winters"
)

// Families is the fixed vocabulary reported by Tally, in display order.
var Families = []Family{SES, Holt, HoltWinters}

// FamilySeparator splits the family from the parameters in a model name.
const FamilySeparator = "_"

// FamilyOf returns the part of a model name before the first separator, or the
// whole name when there is none.
func FamilyOf(model string) string {
	if idx := strings.Index(model, FamilySeparator); idx >= 0 {
		return model[:idx]
	}
	return model
}

// KnownFamily maps a family name onto the fixed vocabulary.
func KnownFamily(name string) (Family, bool) {
	for _, f := range Families {
		if string(f) == name {
			return f, true
		}
	}
	return "", false
}

// Share is the portion of best rows won by one family.
type Share struct {
	Family  Family  `json:"family"`
	Count   int     `json:"count"`
	Percent float64 `json:"percent"`
}

// ModelPercentage holds one Share per known family in the order of Families.
type ModelPercentage []Share

// Percent returns the share of f, zero when absent.
func (p ModelPercentage) Percent(f Family) float64 {
	for _, s := range p {
		if s.Family == f {
			return s.Percent
		}
	}
	return 0
}

// Total returns the number of rows counted across the known families.
func (p ModelPercentage) Total() int {
	total := 0
	for _, s := range p {
		total += s.Count
	}
	return total
}

// Balanced reports whether the percentages of a non-empty tally add up to 100
// within rounding. Two decimal rounding of the shares moves their sum by at
// most one hundredth.
func (p ModelPercentage) Balanced() bool {
	if p.Total() == 0 {
		return true
	}
	sum := 0.0
	for _, s := range p {
		sum += s.Percent
	}
	return mathutil.WithinTolerance(sum, constants.PercentageMultiplier, constants.PercentageTolerance+1e-9)
}

// Tally counts the best rows per known family and converts the counts to
// percentages rounded to two decimals. Rows of unknown families are left out
// of both the counts and the total. With nothing counted every percentage is 0.
func Tally(rows []Row) ModelPercentage {
	counts := make(map[Family]int, len(Families))
	for _, row := range rows {
		f, ok := KnownFamily(row.Family())
		if !ok {
			continue
		}
		counts[f]++
	}

	total := 0
	for _, f := range Families {
		total += counts[f]
	}

	shares := make(ModelPercentage, 0, len(Families))
	for _, f := range Families {
		shares = append(shares, Share{
			Family:  f,
			Count:   counts[f],
			Percent: mathutil.Percentage(counts[f], total),
		})
	}
	return shares
}
