package gridsearch

import (
	"fmt"
	"strings"
)

// Metric names an error column used to rank model configurations.
type Metric string

const (
	MAE  Metric = "MAE"  // mean absolute error
	RMSE Metric = "RMSE" // root mean squared error
	MAPE Metric = "MAPE" // mean absolute percentage error
)

// Metrics lists every supported metric.
var Metrics = []Metric{MAE, RMSE, MAPE}

// ParseMetric matches a metric name case-insensitively.
func ParseMetric(s string) (Metric, error) {
	name := strings.ToUpper(strings.TrimSpace(s))
	for _, m := range Metrics {
		if string(m) == name {
			return m, nil
		}
	}
	return "", fmt.Errorf("%q, expected one of MAE, RMSE, MAPE, %w", s, ErrUnknownMetric)
}

func (m Metric) String() string {
	return string(m)
}
