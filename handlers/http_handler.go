// Package handlers provides the HTTP request handlers of the govdata API.
// This file implements the HTTPHandler interface with dependency injection.
package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"runtime"
	"strings"
	"time"

	"github.com/giygas/govdata-api/apperr"
	"github.com/giygas/govdata-api/interfaces"
	"github.com/giygas/govdata-api/logging"
)

// Compile-time check to ensure HTTPHandlerImpl implements interfaces.HTTPHandler
var _ interfaces.HTTPHandler = (*HTTPHandlerImpl)(nil)

// HTTPHandlerImpl implements the interfaces.HTTPHandler interface
type HTTPHandlerImpl struct {
	metastore  interfaces.MetastoreService
	mortality  interfaces.MortalityService
	orangebook interfaces.OrangeBookService
	health     interfaces.HealthChecker
	store      interfaces.RefreshStore
	validator  interfaces.Validator
}

// NewHTTPHandler creates a new HTTP handler with injected dependencies
func NewHTTPHandler(
	metastore interfaces.MetastoreService,
	mortality interfaces.MortalityService,
	orangebook interfaces.OrangeBookService,
	health interfaces.HealthChecker,
	store interfaces.RefreshStore,
	validator interfaces.Validator,
) *HTTPHandlerImpl {
	return &HTTPHandlerImpl{
		metastore:  metastore,
		mortality:  mortality,
		orangebook: orangebook,
		health:     health,
		store:      store,
		validator:  validator,
	}
}

// HealthResponse defines the structure for consistent JSON ordering
type HealthResponse struct {
	Status        string         `json:"status"`
	Uptime        string         `json:"uptime"`
	UptimeSeconds float64        `json:"uptime_seconds"`
	Data          map[string]any `json:"data"`
	System        map[string]any `json:"system"`
}

// RespondWithJSON writes a JSON response
func (h *HTTPHandlerImpl) RespondWithJSON(w http.ResponseWriter, code int, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		logging.Error("Failed to marshal JSON response", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Last-Modified", time.Now().UTC().Format(http.TimeFormat))
	w.WriteHeader(code)
	w.Write(data)
}

// RespondWithError writes a JSON error response
func (h *HTTPHandlerImpl) RespondWithError(w http.ResponseWriter, code int, message string) {
	errorResponse := map[string]any{
		"error":   http.StatusText(code),
		"message": message,
		"code":    code,
	}
	h.RespondWithJSON(w, code, errorResponse)
}

// respondWithAppError maps an upstream client error to a status code. The
// cause is logged, callers only see the category.
func (h *HTTPHandlerImpl) respondWithAppError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		code    int
		message string
	)

	switch apperr.KindOf(err) {
	case apperr.KindNotFound:
		code, message = http.StatusNotFound, "No matching record found"
	case apperr.KindInvalid:
		code, message = http.StatusBadRequest, "The request could not be answered unambiguously"
	case apperr.KindNetwork:
		code, message = http.StatusBadGateway, "Upstream data source unavailable"
	case apperr.KindParse:
		code, message = http.StatusBadGateway, "Upstream data source returned malformed data"
	default:
		code, message = http.StatusInternalServerError, "Internal server error"
	}

	if code >= http.StatusInternalServerError {
		logging.Error("Request failed", "path", r.URL.Path, "status", code, "error", err)
	} else {
		logging.Warn("Request failed", "path", r.URL.Path, "status", code, "error", err)
	}

	h.RespondWithError(w, code, message)
}

// badRequest logs unusual user input and answers 400
func (h *HTTPHandlerImpl) badRequest(w http.ResponseWriter, param, value string, err error) {
	logging.Warn("Unusual user input", param, value, "error", err)
	h.RespondWithError(w, http.StatusBadRequest, fmt.Sprintf("Invalid %s: %v", param, err))
}

// formatUptimeHuman formats duration into a human-readable string
func (h *HTTPHandlerImpl) formatUptimeHuman(d time.Duration) string {
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	var parts []string

	if days > 0 {
		parts = append(parts, fmt.Sprintf("%dd", days))
	}
	if hours > 0 || days > 0 {
		parts = append(parts, fmt.Sprintf("%dh", hours))
	}
	if minutes > 0 || hours > 0 || days > 0 {
		parts = append(parts, fmt.Sprintf("%dm", minutes))
	}
	parts = append(parts, fmt.Sprintf("%ds", seconds))

	return strings.Join(parts, " ")
}

// HealthCheck returns server health information
func (h *HTTPHandlerImpl) HealthCheck(w http.ResponseWriter, r *http.Request) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	var uptime time.Duration
	if start := h.store.GetServerStartTime(); !start.IsZero() {
		uptime = time.Since(start)
	}

	status, details, httpStatus := h.health.HealthCheck(r.Context())
	if details == nil {
		details = map[string]any{}
	}
	details["api_version"] = "1.0"

	response := HealthResponse{
		Status:        status,
		Uptime:        h.formatUptimeHuman(uptime),
		UptimeSeconds: uptime.Seconds(),
		Data:          details,
		System: map[string]any{
			"goroutines": runtime.NumGoroutine(),
			"memory": map[string]any{
				"alloc_mb":       int(m.Alloc / 1024 / 1024),
				"total_alloc_mb": int(m.TotalAlloc / 1024 / 1024),
				"sys_mb":         int(m.Sys / 1024 / 1024),
				"num_gc":         m.NumGC,
			},
		},
	}

	h.RespondWithJSON(w, httpStatus, response)
}
