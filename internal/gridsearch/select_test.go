package gridsearch

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func row(id, model string, index int, metrics map[Metric]float64) Row {
	return Row{ID: id, Model: model, Metrics: metrics, Index: index}
}

func TestSelectBestScenario(t *testing.T) {
	rows := []Row{
		row("1", "SES_0.1", 0, map[Metric]float64{MAE: 5}),
		row("1", "Holt_0.1_0.1", 1, map[Metric]float64{MAE: 3}),
		row("2", "SES_0.1", 2, map[Metric]float64{MAE: 2}),
	}

	best, err := SelectBest(rows, MAE)
	require.NoError(t, err)
	require.Len(t, best, 2)
	assert.Equal(t, rows[1], best[0])
	assert.Equal(t, rows[2], best[1])

	shares := Tally(best)
	assert.Equal(t, ModelPercentage{
		{Family: SES, Count: 1, Percent: 50},
		{Family: Holt, Count: 1, Percent: 50},
		{Family: HoltWinters, Count: 0, Percent: 0},
	}, shares)
}

func TestSelectBest(t *testing.T) {
	testData := map[string]struct {
		rows          []Row
		metric        Metric
		expectedIndex []int
		expectedErr   error
	}{
		"empty input": {
			metric:        RMSE,
			expectedIndex: []int{},
		},
		"first occurrence order of IDs": {
			rows: []Row{
				row("b", "SES_0.1", 0, map[Metric]float64{RMSE: 4}),
				row("a", "SES_0.1", 1, map[Metric]float64{RMSE: 9}),
				row("b", "Holt_0.1_0.1", 2, map[Metric]float64{RMSE: 1}),
				row("a", "Holt-Winters_0.1_0.1_0.1", 3, map[Metric]float64{RMSE: 8}),
			},
			metric:        RMSE,
			expectedIndex: []int{2, 3},
		},
		"ties keep earliest row": {
			rows: []Row{
				row("1", "SES_0.3", 0, map[Metric]float64{MAE: 7}),
				row("1", "Holt_0.5_0.5", 1, map[Metric]float64{MAE: 2}),
				row("1", "Holt-Winters_0.1_0.1_0.1", 2, map[Metric]float64{MAE: 2}),
			},
			metric:        MAE,
			expectedIndex: []int{1},
		},
		"zero is a valid minimum": {
			rows: []Row{
				row("1", "SES_0.1", 0, map[Metric]float64{MAPE: 0.2}),
				row("1", "SES_0.3", 1, map[Metric]float64{MAPE: 0}),
			},
			metric:        MAPE,
			expectedIndex: []int{1},
		},
		"metric missing on a row": {
			rows: []Row{
				row("1", "SES_0.1", 0, map[Metric]float64{MAE: 1}),
				row("2", "SES_0.1", 1, map[Metric]float64{RMSE: 1}),
			},
			metric:      MAE,
			expectedErr: ErrMissingField,
		},
		"NaN metric": {
			rows: []Row{
				row("1", "SES_0.1", 0, map[Metric]float64{MAE: math.NaN()}),
			},
			metric:      MAE,
			expectedErr: ErrInvalidValue,
		},
		"negative metric": {
			rows: []Row{
				row("1", "SES_0.1", 0, map[Metric]float64{MAE: -1}),
			},
			metric:      MAE,
			expectedErr: ErrInvalidValue,
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			best, err := SelectBest(td.rows, td.metric)
			if td.expectedErr != nil {
				assert.ErrorIs(t, err, td.expectedErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, td.expectedIndex, Indices(best))
		})
	}
}

func TestSelectBestErrorIdentifiesID(t *testing.T) {
	rows := []Row{
		row("1", "SES_0.1", 0, map[Metric]float64{MAE: 1}),
		row("P-77", "SES_0.1", 1, map[Metric]float64{}),
	}
	_, err := SelectBest(rows, MAE)

	var missing *MissingFieldError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, "P-77", missing.ID)
	assert.Equal(t, "MAE", missing.Field)
}

func randomRows(r *rand.Rand, ids, perID int) []Row {
	models := []string{"SES_0.1", "Holt_0.1_0.5", "Holt-Winters_0.9_0.1_0.5"}
	rows := make([]Row, 0, ids*perID)
	for i := 0; i < ids*perID; i++ {
		id := fmt.Sprintf("id-%d", r.Intn(ids))
		// few distinct values so ties are common
		v := float64(r.Intn(5))
		rows = append(rows, row(id, models[r.Intn(len(models))], i, map[Metric]float64{MAE: v}))
	}
	return rows
}

func TestSelectBestProperties(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	for trial := 0; trial < 50; trial++ {
		rows := randomRows(r, 1+r.Intn(10), 1+r.Intn(23))

		best, err := SelectBest(rows, MAE)
		require.NoError(t, err)

		byID := make(map[string]Row, len(best))
		for _, b := range best {
			_, dup := byID[b.ID]
			require.False(t, dup, "ID %s selected twice", b.ID)
			byID[b.ID] = b
		}

		inputIDs := make(map[string]struct{})
		for _, in := range rows {
			inputIDs[in.ID] = struct{}{}
			b := byID[in.ID]
			// selection correctness
			assert.LessOrEqual(t, b.Metrics[MAE], in.Metrics[MAE])
			// ties resolve to the earliest row
			if in.Metrics[MAE] == b.Metrics[MAE] {
				assert.LessOrEqual(t, b.Index, in.Index)
			}
		}
		// coverage
		assert.Len(t, best, len(inputIDs))

		// determinism across runs
		again, err := SelectBest(rows, MAE)
		require.NoError(t, err)
		assert.Equal(t, best, again)
	}
}
