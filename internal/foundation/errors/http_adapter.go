package errors

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

var statusByCategory = map[ErrorCategory]int{
	CategoryValidation: http.StatusBadRequest,
	CategoryConfig:     http.StatusBadRequest,
	CategoryCatalog:    http.StatusBadRequest,
	CategoryNotFound:   http.StatusNotFound,
	CategoryInProgress: http.StatusConflict,
	CategoryBaseline:   http.StatusUnprocessableEntity,
	CategoryMemory:     http.StatusBadGateway,
	CategoryTransport:  http.StatusBadGateway,
	CategoryRuntime:    http.StatusServiceUnavailable,
	CategoryDaemon:     http.StatusServiceUnavailable,
}

// HTTPErrorAdapter writes classified errors as JSON responses on the control API.
type HTTPErrorAdapter struct {
	logger *slog.Logger
}

// NewHTTPErrorAdapter falls back to slog.Default when logger is nil.
func NewHTTPErrorAdapter(logger *slog.Logger) *HTTPErrorAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &HTTPErrorAdapter{logger: logger}
}

// HTTPErrorResponse is the JSON error body.
type HTTPErrorResponse struct {
	Error     string         `json:"error"`
	Code      string         `json:"code,omitempty"`
	Details   map[string]any `json:"details,omitempty"`
	Retryable bool           `json:"retryable,omitempty"`
}

// StatusCodeFor maps an error onto a status. Unclassified errors are 500.
func (a *HTTPErrorAdapter) StatusCodeFor(err error) int {
	if err == nil {
		return http.StatusOK
	}
	if status, ok := statusByCategory[GetCategory(err)]; ok && IsClassified(err) {
		return status
	}
	return http.StatusInternalServerError
}

// WriteErrorResponse writes the JSON body and logs the error at its severity.
func (a *HTTPErrorAdapter) WriteErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	if err == nil {
		w.WriteHeader(http.StatusOK)
		return
	}
	status := a.StatusCodeFor(err)
	body := HTTPErrorResponse{Error: err.Error()}
	c, classified := AsClassified(err)
	if classified {
		body = HTTPErrorResponse{Error: c.message, Code: string(c.category), Retryable: c.retryable}
		if len(c.context) > 0 {
			body.Details = c.context
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)

	attrs := []slog.Attr{slog.String("path", r.URL.Path), slog.Int("status", status)}
	if !classified {
		a.logger.LogAttrs(r.Context(), slog.LevelError, err.Error(), attrs...)
		return
	}
	a.logger.LogAttrs(r.Context(), slogLevel(c.severity), c.message, append(attrs, c.Attrs()...)...)
}
