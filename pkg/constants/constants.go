// Package constants provides shared constants for the forecast-dashboard application.
package constants

// DatasetKind identifies one of the spreadsheets an analyst can upload.
type DatasetKind string

// Upload kinds, one per sidebar uploader of the dashboard.
const (
	// KindGridSearch holds every evaluated model configuration per ID
	KindGridSearch DatasetKind = "gridsearch"

	// KindComparison holds the best model per ID with forecast and actual values
	KindComparison DatasetKind = "comparison"

	// KindDetailed holds the detailed model comparison table
	KindDetailed DatasetKind = "detailed"

	// KindForecast holds the forward forecast (January to March 2025)
	KindForecast DatasetKind = "forecast"
)

// DatasetKinds lists every upload kind in sidebar order.
var DatasetKinds = []DatasetKind{KindGridSearch, KindComparison, KindDetailed, KindForecast}

// Column names expected verbatim in uploaded tables.
const (
	ColumnID        = "ID"
	ColumnModel     = "Model"
	ColumnBestModel = "Best Model"

	// ActualPrefix and ForecastPrefix mark per-period value columns such as "Actual Oct".
	ActualPrefix   = "Actual "
	ForecastPrefix = "Forecast "
	DiffPrefix     = "Diff "
)

// ComparisonPeriods are the evaluation months of the comparison dataset.
var ComparisonPeriods = []string{"Oct", "Nov", "Dec"}

// Output format constants
const (
	// OutputFormatPretty is the human-readable output format
	OutputFormatPretty = "pretty"

	// OutputFormatCSV is the CSV output format
	OutputFormatCSV = "csv"
)

// Configuration file constants
const (
	// DefaultConfigFile is the default configuration file name
	DefaultConfigFile = "dashboard.yaml"

	// EnvPrefix namespaces environment overrides, e.g. FORECAST_DASHBOARD_SERVER_ADDRESS
	EnvPrefix = "FORECAST_DASHBOARD"
)

// Server configuration defaults
const (
	// DefaultServerAddress is the default HTTP listen address for the web UI
	DefaultServerAddress = ":8080"

	// DefaultMaxUploadSizeBytes is the default maximum upload size for spreadsheets (10 MB)
	DefaultMaxUploadSizeBytes int64 = 10 * 1024 * 1024

	// DefaultSessionTTL is how long uploaded datasets survive without activity
	DefaultSessionTTL = "2h"

	// DefaultShutdownTimeout bounds graceful shutdown
	DefaultShutdownTimeout = "10s"

	// SessionCookieName carries the per-user session ID
	SessionCookieName = "fd_session"
)

// Dashboard defaults
const (
	DefaultTitle  = "Perbandingan Model Forecast dalam Prediksi Penjualan Pelumas Wilayah Surabaya"
	DefaultMetric = "MAE"
)

// DefaultMetrics are the metrics offered by the grid search selector.
var DefaultMetrics = []string{"MAE", "RMSE"}

// Numeric constants
const (
	// PercentageMultiplier is used for percentage conversions
	PercentageMultiplier = 100.0

	// DecimalPrecision is the precision for percentage rounding (2 decimal places)
	DecimalPrecision = 100

	// PercentageTolerance is the rounding tolerance when percentages are summed
	PercentageTolerance = 0.01
)
