package gridsearch

import (
	"strconv"
	"strings"

	"github.com/iwvelando/forecast-dashboard/internal/table"
	"github.com/iwvelando/forecast-dashboard/pkg/constants"
)

// Row is one evaluation of one model configuration against one ID.
type Row struct {
	ID      string             `json:"id"`
	Model   string             `json:"model"`
	Metrics map[Metric]float64 `json:"metrics"`

	// Index is the position of the row in its source table so passthrough
	// columns can be shown unchanged.
	Index int `json:"index"`
}

// Family returns the model family encoded in the Model name.
func (r Row) Family() string {
	return FamilyOf(r.Model)
}

// Metric returns the value of m or a MissingFieldError when the row lacks it.
func (r Row) Metric(m Metric) (float64, error) {
	v, ok := r.Metrics[m]
	if !ok {
		return 0, &MissingFieldError{Field: string(m), ID: r.ID}
	}
	return v, nil
}

// RowsFromTable converts a grid search table into rows carrying the requested
// metrics. The ID, Model and metric columns must be present verbatim. Empty
// metric cells leave the metric absent for that row.
func RowsFromTable(t *table.Table, metrics ...Metric) ([]Row, error) {
	idCol, ok := t.Column(constants.ColumnID)
	if !ok {
		return nil, &MissingFieldError{Field: constants.ColumnID}
	}
	modelCol, ok := t.Column(constants.ColumnModel)
	if !ok {
		return nil, &MissingFieldError{Field: constants.ColumnModel}
	}
	metricCols := make(map[Metric]int, len(metrics))
	for _, m := range metrics {
		col, ok := t.Column(string(m))
		if !ok {
			return nil, &MissingFieldError{Field: string(m)}
		}
		metricCols[m] = col
	}

	rows := make([]Row, 0, t.Len())
	for i, record := range t.Rows {
		row := Row{
			ID:      strings.TrimSpace(record[idCol]),
			Model:   strings.TrimSpace(record[modelCol]),
			Metrics: make(map[Metric]float64, len(metricCols)),
			Index:   i,
		}
		for m, col := range metricCols {
			cell := strings.TrimSpace(record[col])
			if cell == "" {
				continue
			}
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return nil, &InvalidValueError{ID: row.ID, Field: string(m), Value: cell}
			}
			row.Metrics[m] = v
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// Indices returns the source table positions of rows.
func Indices(rows []Row) []int {
	indices := make([]int, len(rows))
	for i, row := range rows {
		indices[i] = row.Index
	}
	return indices
}
