// Package output provides utilities for formatting and displaying best model reports.
package output

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/iwvelando/forecast-dashboard/internal/gridsearch"
	"github.com/iwvelando/forecast-dashboard/internal/table"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Report is the outcome of one best model selection.
type Report struct {
	Metric gridsearch.Metric
	Best   []gridsearch.Row
	Source *table.Table
	Shares gridsearch.ModelPercentage
	Stats  []gridsearch.FamilyStats
}

// BestTable returns the source records of the best rows with every column.
func (r Report) BestTable() *table.Table {
	return r.Source.Subset(gridsearch.Indices(r.Best))
}

// PrettyFormat writes a human-readable rather than machine-readable report.
func PrettyFormat(w io.Writer, r Report) error {
	p := message.NewPrinter(language.English)

	if _, err := fmt.Fprintf(w, "--- Best model per ID by %s ---\n", r.Metric); err != nil {
		return err
	}
	fmt.Fprintf(w, "ID | Model | %s\n", r.Metric)
	fmt.Fprintf(w, "__ | _____ | %s\n", strings.Repeat("_", len(r.Metric)))
	for _, row := range r.Best {
		_, _ = p.Fprintf(w, "%s | %s | %.4f\n", row.ID, row.Model, row.Metrics[r.Metric])
	}

	fmt.Fprintf(w, "\n--- Model share (%d IDs) ---\n", r.Shares.Total())
	fmt.Fprintf(w, "Family | Count | Percent\n")
	fmt.Fprintf(w, "______ | _____ | _______\n")
	for _, s := range r.Shares {
		_, _ = p.Fprintf(w, "%s | %d | %.2f%%\n", s.Family, s.Count, s.Percent)
	}

	if len(r.Stats) > 0 {
		fmt.Fprintf(w, "\n--- %s of best models per family ---\n", r.Metric)
		fmt.Fprintf(w, "Family | Mean | StdDev | Min | Max\n")
		fmt.Fprintf(w, "______ | ____ | ______ | ___ | ___\n")
		for _, s := range r.Stats {
			_, err := p.Fprintf(w, "%s | %.4f | %.4f | %.4f | %.4f\n", s.Family, s.Mean, s.StdDev, s.Min, s.Max)
			if err != nil {
				return err
			}
		}
	}
	return nil
}

// CsvFormat writes the best rows with all their columns followed by the
// model share table, in comma-separated value format.
func CsvFormat(w io.Writer, r Report) error {
	cw := csv.NewWriter(w)

	best := r.BestTable()
	if err := cw.Write(best.Columns); err != nil {
		return err
	}
	if err := cw.WriteAll(best.Rows); err != nil {
		return err
	}

	// a single empty field is written as an empty line between the two tables
	if err := cw.Write([]string{""}); err != nil {
		return err
	}
	if err := cw.Write([]string{"family", "count", "percent"}); err != nil {
		return err
	}
	for _, s := range r.Shares {
		record := []string{
			string(s.Family),
			strconv.Itoa(s.Count),
			strconv.FormatFloat(s.Percent, 'f', 2, 64),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
