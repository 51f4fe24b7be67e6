package server

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/goccy/go-json"
	"github.com/iwvelando/forecast-dashboard/internal/charts"
	"github.com/iwvelando/forecast-dashboard/internal/config"
	"github.com/iwvelando/forecast-dashboard/internal/gridsearch"
	"github.com/iwvelando/forecast-dashboard/internal/metrics"
	"github.com/iwvelando/forecast-dashboard/internal/session"
	"github.com/iwvelando/forecast-dashboard/internal/table"
	"github.com/iwvelando/forecast-dashboard/pkg/constants"
	"github.com/iwvelando/forecast-dashboard/pkg/validation"
	"go.uber.org/zap"
)

//go:embed static/*
var staticFiles embed.FS

const (
	msgIDNotFound     = "ID tidak ditemukan."
	msgSeriesNotFound = "Data untuk ID tersebut tidak ditemukan."
	msgUploadForChart = "Silakan unggah file perbandingan model untuk melihat visualisasi."
)

// uploadPrompts is shown when a tab needs a dataset the session has not uploaded.
var uploadPrompts = map[constants.DatasetKind]string{
	constants.KindGridSearch: "Silakan unggah file hasil grid search untuk melanjutkan.",
	constants.KindComparison: "Silakan unggah file hasil perbandingan model untuk melanjutkan.",
	constants.KindDetailed:   "Silakan unggah file dataset model_comparison_detailed untuk melihat detail.",
	constants.KindForecast:   "Silakan unggah file dataset forecast untuk melanjutkan.",
}

type handler struct {
	logger        *zap.Logger
	conf          *config.Configuration
	store         *session.Store
	metrics       *metrics.Collector
	maxUploadSize int64
	version       string
}

// NewHandler constructs the HTTP handler that serves the web UI and dashboard API.
// A nil collector disables the /metrics endpoint and request instrumentation.
func NewHandler(logger *zap.Logger, conf *config.Configuration, store *session.Store, collector *metrics.Collector, version string) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if conf == nil {
		defaults, err := config.LoadConfiguration("")
		if err != nil {
			panic(fmt.Sprintf("failed to build default configuration: %v", err))
		}
		conf = defaults
	}
	if store == nil {
		store = session.NewStore(logger, conf.Server.SessionTTL)
	}

	trimmedVersion := strings.TrimSpace(version)
	if trimmedVersion == "" {
		trimmedVersion = "dev"
	}

	h := &handler{
		logger:        logger,
		conf:          conf,
		store:         store,
		metrics:       collector,
		maxUploadSize: conf.Server.UploadSizeBytes(),
		version:       trimmedVersion,
	}

	mux := http.NewServeMux()
	var routes []string
	handle := func(pattern string, fn http.HandlerFunc) {
		routes = append(routes, pattern)
		mux.HandleFunc(pattern, fn)
	}

	// Uploads and raw datasets
	handle("/api/upload", h.handleUpload)
	handle("/api/dataset", h.handleDataset)

	// Grid Search tab
	handle("/api/gridsearch/best", h.handleBest)
	handle("/api/gridsearch/chart", h.handleBestChart)

	// Perbandingan Model and Forecast 2025 tabs
	handle("/api/search", h.handleSearch)

	// Visualisasi Data tab
	handle("/api/visualize/ids", h.handleVisualizeIDs)
	handle("/api/visualize/chart", h.handleVisualizeChart)

	// Metadata
	handle("/api/catalog", h.handleCatalog)
	handle("/api/settings", h.handleSettings)
	handle("/api/config", h.handleConfig)
	handle("/api/version", h.handleVersion)
	handle("/healthz", h.handleHealth)

	if collector != nil {
		routes = append(routes, "/metrics")
		mux.Handle("/metrics", collector.Handler())
	}

	// Static assets (web UI)
	sub, err := fs.Sub(staticFiles, "static")
	if err != nil {
		panic(fmt.Sprintf("failed to prepare embedded static files: %v", err))
	}
	mux.Handle("/", http.FileServer(http.FS(sub)))

	if collector != nil {
		return collector.InstrumentHandler(mux, routes, staticAssets(sub))
	}
	return mux
}

// staticAssets lists the request paths served from the embedded web UI.
func staticAssets(fsys fs.FS) []string {
	assets := []string{"/"}
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return assets
	}
	for _, e := range entries {
		if !e.IsDir() {
			assets = append(assets, "/"+e.Name())
		}
	}
	return assets
}

type uploadResponse struct {
	Kind     constants.DatasetKind `json:"kind"`
	Filename string                `json:"filename"`
	Columns  []string              `json:"columns"`
	Rows     int                   `json:"rows"`
	IDs      int                   `json:"ids"`
}

type bestResponse struct {
	Metric   gridsearch.Metric          `json:"metric"`
	Columns  []string                   `json:"columns"`
	Rows     [][]string                 `json:"rows"`
	Shares   gridsearch.ModelPercentage `json:"shares"`
	Stats    []gridsearch.FamilyStats   `json:"stats"`
	Warnings []string                   `json:"warnings,omitempty"`
	Duration string                     `json:"duration"`
}

type searchResponse struct {
	Kind    constants.DatasetKind `json:"kind"`
	ID      string                `json:"id"`
	Columns []string              `json:"columns"`
	Rows    [][]string            `json:"rows"`
}

type settingsResponse struct {
	Title         string                  `json:"title"`
	Metrics       []string                `json:"metrics"`
	DefaultMetric string                  `json:"defaultMetric"`
	Uploaded      []constants.DatasetKind `json:"uploaded"`
}

type catalogResponse struct {
	gridsearch.Catalog
	Size                   int      `json:"size"`
	MaxConfigurationsPerID int      `json:"maxConfigurationsPerID"`
	Models                 []string `json:"models"`
}

func (h *handler) handleUpload(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleUpload"
	if r.Method != http.MethodPost {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	kind, err := session.ParseKind(r.URL.Query().Get("kind"))
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, err.Error(), op)
		return
	}

	if h.maxUploadSize > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	}
	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		h.countUpload(kind, false)
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.respondErrorWithOp(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("upload exceeds limit of %d bytes", h.maxUploadSize), op)
			return
		}
		h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("failed to parse upload: %v", err), op)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		h.countUpload(kind, false)
		h.respondErrorWithOp(w, http.StatusBadRequest, "missing spreadsheet file", op)
		return
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			h.logger.Warn("failed to close uploaded file",
				zap.String("op", op),
				zap.Error(closeErr),
			)
		}
	}()

	t, err := table.Read(header.Filename, file)
	if err != nil {
		h.countUpload(kind, false)
		status := http.StatusBadRequest
		if errors.Is(err, table.ErrUnsupportedFormat) {
			status = http.StatusUnsupportedMediaType
		}
		h.respondErrorWithOp(w, status, fmt.Sprintf("failed to read %s: %v", header.Filename, err), op)
		return
	}

	id := h.sessionID(w, r)
	ds := &session.Dataset{Kind: kind, Filename: header.Filename, Table: t}
	if err := h.store.Put(id, ds); err != nil {
		h.countUpload(kind, false)
		h.respondErrorWithOp(w, http.StatusInternalServerError, err.Error(), op)
		return
	}
	h.countUpload(kind, true)

	resp := uploadResponse{
		Kind:     kind,
		Filename: header.Filename,
		Columns:  t.Columns,
		Rows:     t.Len(),
	}
	if ids, err := t.Unique(constants.ColumnID); err == nil {
		resp.IDs = len(ids)
	}

	h.logger.Info("dataset uploaded",
		zap.String("op", op),
		zap.String("kind", string(kind)),
		zap.String("filename", header.Filename),
		zap.Int("rows", t.Len()),
	)
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *handler) handleDataset(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleDataset"
	if r.Method != http.MethodGet {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	kind, err := session.ParseKind(r.URL.Query().Get("kind"))
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, err.Error(), op)
		return
	}
	ds, ok := h.dataset(w, r, kind, uploadPrompts[kind], op)
	if !ok {
		return
	}
	h.writeJSON(w, http.StatusOK, ds)
}

// bestModels runs the selection for the metric requested in r over the
// session's grid search upload.
func (h *handler) bestModels(w http.ResponseWriter, r *http.Request, op string) (bestResponse, bool) {
	start := time.Now()

	requested := r.URL.Query().Get("metric")
	if strings.TrimSpace(requested) == "" {
		requested = h.conf.Dashboard.DefaultMetric
	}
	if err := validation.ValidateMetricChoice(requested, h.conf.Dashboard.Metrics); err != nil {
		h.respondErrorWithOp(w, http.StatusUnprocessableEntity, err.Error(), op)
		return bestResponse{}, false
	}
	metric, err := gridsearch.ParseMetric(requested)
	if err != nil {
		h.respondErrorWithOp(w, http.StatusUnprocessableEntity, err.Error(), op)
		return bestResponse{}, false
	}

	ds, ok := h.dataset(w, r, constants.KindGridSearch, uploadPrompts[constants.KindGridSearch], op)
	if !ok {
		return bestResponse{}, false
	}

	rows, err := gridsearch.RowsFromTable(ds.Table, metric)
	if err != nil {
		h.respondErrorWithOp(w, statusFor(err), err.Error(), op)
		return bestResponse{}, false
	}
	best, err := gridsearch.SelectBest(rows, metric)
	if err != nil {
		h.respondErrorWithOp(w, statusFor(err), err.Error(), op)
		return bestResponse{}, false
	}
	stats, err := gridsearch.SummarizeFamilies(best, metric)
	if err != nil {
		h.respondErrorWithOp(w, statusFor(err), err.Error(), op)
		return bestResponse{}, false
	}
	if h.metrics != nil {
		h.metrics.Selection(metric.String())
	}

	selected := ds.Table.Subset(gridsearch.Indices(best))
	warnings := gridsearch.CheckCoverage(rows)
	for _, warning := range warnings {
		h.logger.Warn("grid search warning: "+warning,
			zap.String("op", op),
		)
	}
	shares := gridsearch.Tally(best)
	if !shares.Balanced() {
		h.logger.Warn("model percentages do not add up to 100",
			zap.String("op", op),
			zap.Any("shares", shares),
		)
	}

	return bestResponse{
		Metric:   metric,
		Columns:  selected.Columns,
		Rows:     selected.Rows,
		Shares:   shares,
		Stats:    stats,
		Warnings: warnings,
		Duration: time.Since(start).String(),
	}, true
}

func (h *handler) handleBest(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleBest"
	if r.Method != http.MethodGet {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	resp, ok := h.bestModels(w, r, op)
	if !ok {
		return
	}
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *handler) handleBestChart(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleBestChart"
	if r.Method != http.MethodGet {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	resp, ok := h.bestModels(w, r, op)
	if !ok {
		return
	}
	pie := charts.ModelShare(resp.Metric, resp.Shares)
	h.writeChart(w, "Persentase Hasil Pemilihan Metode Forecast", pie, op)
}

func (h *handler) handleSearch(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleSearch"
	if r.Method != http.MethodGet {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	query := r.URL.Query()
	kind, err := session.ParseKind(query.Get("kind"))
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, err.Error(), op)
		return
	}
	if kind != constants.KindComparison && kind != constants.KindForecast {
		h.respondErrorWithOp(w, http.StatusBadRequest,
			fmt.Sprintf("search supports %s and %s datasets, got %s", constants.KindComparison, constants.KindForecast, kind), op)
		return
	}
	id := strings.TrimSpace(query.Get("id"))
	if id == "" {
		h.respondErrorWithOp(w, http.StatusBadRequest, "missing id", op)
		return
	}

	ds, ok := h.dataset(w, r, kind, uploadPrompts[kind], op)
	if !ok {
		return
	}

	matched, err := ds.Table.Filter(constants.ColumnID, id)
	if err != nil {
		h.respondErrorWithOp(w, statusFor(err), err.Error(), op)
		return
	}
	if matched.Len() == 0 {
		h.respondErrorWithOp(w, http.StatusNotFound, msgIDNotFound, op)
		return
	}

	if kind == constants.KindComparison {
		matched, err = matched.Select(comparisonColumns()...)
		if err != nil {
			h.respondErrorWithOp(w, statusFor(err), err.Error(), op)
			return
		}
	}

	h.writeJSON(w, http.StatusOK, searchResponse{
		Kind:    kind,
		ID:      id,
		Columns: matched.Columns,
		Rows:    matched.Rows,
	})
}

// comparisonColumns lists the detail columns shown for a comparison search.
func comparisonColumns() []string {
	cols := []string{constants.ColumnID, constants.ColumnBestModel}
	for _, prefix := range []string{constants.ForecastPrefix, constants.ActualPrefix, constants.DiffPrefix} {
		for _, period := range constants.ComparisonPeriods {
			cols = append(cols, prefix+period)
		}
	}
	return cols
}

func (h *handler) handleVisualizeIDs(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleVisualizeIDs"
	if r.Method != http.MethodGet {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	ds, ok := h.dataset(w, r, constants.KindComparison, msgUploadForChart, op)
	if !ok {
		return
	}
	ids, err := ds.Table.Unique(constants.ColumnID)
	if err != nil {
		h.respondErrorWithOp(w, statusFor(err), err.Error(), op)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string][]string{"ids": ids})
}

func (h *handler) handleVisualizeChart(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleVisualizeChart"
	if r.Method != http.MethodGet {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	id := strings.TrimSpace(r.URL.Query().Get("id"))
	if id == "" {
		h.respondErrorWithOp(w, http.StatusBadRequest, "missing id", op)
		return
	}
	ds, ok := h.dataset(w, r, constants.KindComparison, msgUploadForChart, op)
	if !ok {
		return
	}

	matched, err := ds.Table.Filter(constants.ColumnID, id)
	if err != nil {
		h.respondErrorWithOp(w, statusFor(err), err.Error(), op)
		return
	}
	if matched.Len() == 0 {
		h.respondErrorWithOp(w, http.StatusNotFound, msgSeriesNotFound, op)
		return
	}
	series, err := charts.ComparisonSeries(id, matched)
	if err != nil {
		h.respondErrorWithOp(w, statusFor(err), err.Error(), op)
		return
	}
	h.writeChart(w, "Visualisasi Data", charts.ActualVsForecast(series), op)
}

func (h *handler) handleCatalog(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	catalog := gridsearch.DefaultCatalog()
	h.writeJSON(w, http.StatusOK, catalogResponse{
		Catalog:                catalog,
		Size:                   catalog.Size(),
		MaxConfigurationsPerID: gridsearch.MaxConfigurationsPerID,
		Models:                 catalog.ModelNames(),
	})
}

func (h *handler) handleSettings(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	h.writeJSON(w, http.StatusOK, settingsResponse{
		Title:         h.conf.Dashboard.Title,
		Metrics:       h.conf.Dashboard.Metrics,
		DefaultMetric: h.conf.Dashboard.DefaultMetric,
		Uploaded:      h.store.Kinds(h.sessionID(w, r)),
	})
}

func (h *handler) handleConfig(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	data, err := h.conf.YAML()
	if err != nil {
		h.respondErrorWithOp(w, http.StatusInternalServerError, fmt.Sprintf("failed to encode configuration: %v", err), "server.handleConfig")
		return
	}
	w.Header().Set("Content-Type", "application/yaml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (h *handler) handleVersion(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{
		"version": h.version,
	})
}

func (h *handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// sessionID returns the session of the request, issuing a new cookie when the
// request carries none or an invalid one.
func (h *handler) sessionID(w http.ResponseWriter, r *http.Request) string {
	if cookie, err := r.Cookie(constants.SessionCookieName); err == nil && session.ValidID(cookie.Value) {
		return cookie.Value
	}

	id := session.NewID()
	http.SetCookie(w, &http.Cookie{
		Name:     constants.SessionCookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}

// dataset looks up the session's upload of kind and answers 404 with prompt
// when there is none.
func (h *handler) dataset(w http.ResponseWriter, r *http.Request, kind constants.DatasetKind, prompt, op string) (*session.Dataset, bool) {
	ds, err := h.store.Dataset(h.sessionID(w, r), kind)
	if err != nil {
		if errors.Is(err, session.ErrNoDataset) {
			h.respondErrorWithOp(w, http.StatusNotFound, prompt, op)
			return nil, false
		}
		h.respondErrorWithOp(w, http.StatusInternalServerError, err.Error(), op)
		return nil, false
	}
	return ds, true
}

func (h *handler) countUpload(kind constants.DatasetKind, ok bool) {
	if h.metrics != nil {
		h.metrics.Upload(string(kind), ok)
	}
}

// statusFor maps errors raised by user data onto response codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, gridsearch.ErrMissingField),
		errors.Is(err, gridsearch.ErrInvalidValue),
		errors.Is(err, gridsearch.ErrUnknownMetric),
		errors.Is(err, table.ErrUnknownColumn),
		errors.Is(err, charts.ErrNoPeriods):
		return http.StatusUnprocessableEntity
	case errors.Is(err, charts.ErrNoRows):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func (h *handler) writeChart(w http.ResponseWriter, title string, chart components.Charter, op string) {
	var buf bytes.Buffer
	if err := charts.Render(&buf, title, chart); err != nil {
		h.respondErrorWithOp(w, http.StatusInternalServerError, fmt.Sprintf("failed to render chart: %v", err), op)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (h *handler) respondErrorWithOp(w http.ResponseWriter, status int, msg string, op string) {
	fields := []zap.Field{
		zap.String("op", op),
		zap.Int("status", status),
		zap.String("error", msg),
	}
	if status >= http.StatusInternalServerError {
		h.logger.Error("dashboard request failed", fields...)
	} else {
		h.logger.Warn("dashboard request rejected", fields...)
	}

	h.writeJSON(w, status, map[string]string{"error": msg})
}

func (h *handler) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to write JSON response", zap.Error(err))
	}
}
