package gridsearch

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// MaxConfigurationsPerID is the size of the largest grid variant
// (5 SES + 9 Holt + 27 Holt-Winters).
const MaxConfigurationsPerID = 41

// FamilyGrid lists the parameter values searched for one family. Every
// combination of the parameter values is one model configuration.
type FamilyGrid struct {
	Family      Family      `json:"family"`
	Description string      `json:"description"`
	Parameters  []string    `json:"parameters"`
	Values      [][]float64 `json:"values"`
}

// Size returns the number of configurations in the grid.
func (g FamilyGrid) Size() int {
	if len(g.Values) == 0 {
		return 0
	}
	n := 1
	for _, vals := range g.Values {
		n *= len(vals)
	}
	return n
}

// ModelNames renders every configuration as <Family>_<p1>_<p2>...
func (g FamilyGrid) ModelNames() []string {
	if g.Size() == 0 {
		return nil
	}
	names := []string{string(g.Family)}
	for _, vals := range g.Values {
		next := make([]string, 0, len(names)*len(vals))
		for _, prefix := range names {
			for _, v := range vals {
				next = append(next, prefix+FamilySeparator+strconv.FormatFloat(v, 'f', -1, 64))
			}
		}
		names = next
	}
	return names
}

// Catalog describes the grid searched upstream for each known family.
type Catalog struct {
	Grids []FamilyGrid `json:"grids"`
}

// DefaultCatalog returns the grid of the lubricant sales experiment.
func DefaultCatalog() Catalog {
	coarse := []float64{0.1, 0.5, 0.9}
	return Catalog{
		Grids: []FamilyGrid{
			{
				Family:      SES,
				Description: "Simple Exponential Smoothing",
				Parameters:  []string{"alpha"},
				Values:      [][]float64{{0.1, 0.3, 0.5, 0.7, 0.9}},
			},
			{
				Family:      Holt,
				Description: "Holt's Linear Trend",
				Parameters:  []string{"alpha", "beta"},
				Values:      [][]float64{coarse, coarse},
			},
			{
				Family:      HoltWinters,
				Description: "Holt-Winters",
				Parameters:  []string{"alpha", "beta", "gamma"},
				Values:      [][]float64{coarse, coarse, coarse},
			},
		},
	}
}

// Size returns the number of configurations per ID across all families.
func (c Catalog) Size() int {
	n := 0
	for _, g := range c.Grids {
		n += g.Size()
	}
	return n
}

// ModelNames lists every configuration name in family order.
func (c Catalog) ModelNames() []string {
	var names []string
	for _, g := range c.Grids {
		names = append(names, g.ModelNames()...)
	}
	return names
}

// CheckCoverage returns warnings for IDs evaluated more often than the largest
// grid variant allows and for model names outside the known families.
func CheckCoverage(rows []Row) []string {
	counts := make(map[string]int)
	var order []string
	unknown := make(map[string]struct{})
	for _, row := range rows {
		if _, seen := counts[row.ID]; !seen {
			order = append(order, row.ID)
		}
		counts[row.ID]++
		if _, ok := KnownFamily(row.Family()); !ok {
			unknown[row.Family()] = struct{}{}
		}
	}

	var warnings []string
	for _, id := range order {
		if counts[id] > MaxConfigurationsPerID {
			warnings = append(warnings,
				fmt.Sprintf("ID %s has %d configurations, expected at most %d", id, counts[id], MaxConfigurationsPerID))
		}
	}
	if len(unknown) > 0 {
		names := make([]string, 0, len(unknown))
		for name := range unknown {
			names = append(names, strconv.Quote(name))
		}
		sort.Strings(names)
		warnings = append(warnings,
			fmt.Sprintf("unknown model families excluded from percentages: %s", strings.Join(names, ", ")))
	}
	return warnings
}
