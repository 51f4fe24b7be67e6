// Package charts renders dashboard charts as standalone Apache ECharts pages.
package charts

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/iwvelando/forecast-dashboard/internal/gridsearch"
	"github.com/iwvelando/forecast-dashboard/internal/table"
	"github.com/iwvelando/forecast-dashboard/pkg/constants"
)

var (
	ErrNoPeriods = errors.New("no matching Actual/Forecast period columns")
	ErrNoRows    = errors.New("no rows to plot")
)

const (
	chartWidth  = "900px"
	chartHeight = "500px"
)

// ModelShare generates a pie chart of the share of best models won by each
// family.
func ModelShare(metric gridsearch.Metric, shares gridsearch.ModelPercentage) *charts.Pie {
	pie := charts.NewPie()
	pie.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			Width:  chartWidth,
			Height: chartHeight,
		}),
		charts.WithTitleOpts(opts.Title{
			Title: fmt.Sprintf("Persentase Model Terbaik berdasarkan %s", metric),
		}),
	)

	data := make([]opts.PieData, 0, len(shares))
	for _, s := range shares {
		data = append(data, opts.PieData{Name: string(s.Family), Value: s.Percent})
	}
	pie.AddSeries("Model", data,
		charts.WithLabelOpts(opts.Label{
			Show:      opts.Bool(true),
			Formatter: "{b}: {c}%",
		}),
	)
	return pie
}

// Series holds the actual and forecast values of one ID over labelled periods.
// NaN marks a missing value.
type Series struct {
	ID       string
	Periods  []string
	Actual   []float64
	Forecast []float64
}

// ComparisonSeries extracts the Actual/Forecast period columns of the rows of
// t. Periods are taken from "Actual <P>" columns that have a matching
// "Forecast <P>" column. When t holds several rows their values are
// concatenated and the period labels numbered.
func ComparisonSeries(id string, t *table.Table) (*Series, error) {
	if t.Len() == 0 {
		return nil, fmt.Errorf("ID %s, %w", id, ErrNoRows)
	}

	var periods []string
	for _, col := range t.ColumnsWithPrefix(constants.ActualPrefix) {
		period := strings.TrimPrefix(col, constants.ActualPrefix)
		if t.HasColumn(constants.ForecastPrefix + period) {
			periods = append(periods, period)
		}
	}
	if len(periods) == 0 {
		return nil, ErrNoPeriods
	}

	s := &Series{ID: id}
	for i := 0; i < t.Len(); i++ {
		for _, period := range periods {
			label := period
			if t.Len() > 1 {
				label = fmt.Sprintf("%s #%d", period, i+1)
			}
			actual, err := t.Value(i, constants.ActualPrefix+period)
			if err != nil {
				return nil, err
			}
			forecast, err := t.Value(i, constants.ForecastPrefix+period)
			if err != nil {
				return nil, err
			}
			a, err := parseCell(id, constants.ActualPrefix+period, actual)
			if err != nil {
				return nil, err
			}
			f, err := parseCell(id, constants.ForecastPrefix+period, forecast)
			if err != nil {
				return nil, err
			}
			s.Periods = append(s.Periods, label)
			s.Actual = append(s.Actual, a)
			s.Forecast = append(s.Forecast, f)
		}
	}
	return s, nil
}

func parseCell(id, field, cell string) (float64, error) {
	cell = strings.TrimSpace(cell)
	if cell == "" {
		return math.NaN(), nil
	}
	v, err := strconv.ParseFloat(cell, 64)
	if err != nil {
		return 0, &gridsearch.InvalidValueError{ID: id, Field: field, Value: cell}
	}
	return v, nil
}

// ActualVsForecast generates a line chart comparing the actual and forecast
// values of one ID.
func ActualVsForecast(s *Series) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			Width:  chartWidth,
			Height: chartHeight,
		}),
		charts.WithTitleOpts(opts.Title{
			Title: fmt.Sprintf("Forecast vs Actual untuk ID: %s", s.ID),
		}),
	)

	markers := charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(true)})
	line.SetXAxis(s.Periods).
		AddSeries("Actual", lineData(s.Actual), markers).
		AddSeries("Forecast", lineData(s.Forecast), markers)
	return line
}

func lineData(values []float64) []opts.LineData {
	data := make([]opts.LineData, 0, len(values))
	for _, v := range values {
		if math.IsNaN(v) {
			// echarts draws "-" as a gap
			data = append(data, opts.LineData{Value: "-"})
			continue
		}
		data = append(data, opts.LineData{Value: v})
	}
	return data
}

// Render writes the charts as a single HTML page.
func Render(w io.Writer, title string, c ...components.Charter) error {
	page := components.NewPage()
	page.PageTitle = title
	page.AddCharts(c...)
	return page.Render(w)
}
