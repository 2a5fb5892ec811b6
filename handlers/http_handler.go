// Package handlers provides HTTP request handlers for the rxmindr API
// endpoints: fuzzy medication search, catalog status, prescription tracking,
// refill prediction, alerts, and health checks.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/aroovee/rxmindr-sub000/entities"
	"github.com/aroovee/rxmindr-sub000/interfaces"
	"github.com/aroovee/rxmindr-sub000/logging"
	"github.com/aroovee/rxmindr-sub000/refill"
	"github.com/aroovee/rxmindr-sub000/search"
	"github.com/aroovee/rxmindr-sub000/store"
)

// Usage analysis window defaults, overridable with the ?days query param.
const (
	defaultUsageWindowDays = 30
	maxUsageWindowDays     = 365
)

// HTTPHandler holds the injected collaborators for every endpoint.
type HTTPHandler struct {
	catalog       interfaces.CatalogStore
	searcher      *search.Service
	prescriptions interfaces.PrescriptionStore
	analyzer      *refill.Analyzer
	predictor     *refill.Predictor
	alerts        *refill.AlertManager
	validator     interfaces.InputValidator
	health        interfaces.HealthChecker
}

// NewHTTPHandler creates a new HTTP handler with injected dependencies
func NewHTTPHandler(
	catalog interfaces.CatalogStore,
	searcher *search.Service,
	prescriptions interfaces.PrescriptionStore,
	analyzer *refill.Analyzer,
	predictor *refill.Predictor,
	alerts *refill.AlertManager,
	validator interfaces.InputValidator,
	health interfaces.HealthChecker,
) *HTTPHandler {
	return &HTTPHandler{
		catalog:       catalog,
		searcher:      searcher,
		prescriptions: prescriptions,
		analyzer:      analyzer,
		predictor:     predictor,
		alerts:        alerts,
		validator:     validator,
		health:        health,
	}
}

// RespondWithJSON writes a JSON response
func RespondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		logging.Error("Failed to marshal JSON response", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	w.Write(data)
}

// RespondWithError writes a JSON error response
func RespondWithError(w http.ResponseWriter, code int, message string) {
	errorResponse := map[string]interface{}{
		"error":   http.StatusText(code),
		"message": message,
		"code":    code,
	}
	RespondWithJSON(w, code, errorResponse)
}

// SearchMedications handles GET /search/{query}: fuzzy catalog lookup.
func (h *HTTPHandler) SearchMedications(w http.ResponseWriter, r *http.Request) {
	query := chi.URLParam(r, "query")

	if err := h.validator.ValidateQuery(query); err != nil {
		logging.Warn("Unusual user input", "query", query, "error", err)
		RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	results := h.searcher.Search(query)

	RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"query":   query,
		"count":   len(results),
		"results": results,
	})
}

// CatalogStatus handles GET /catalog/status: load progress and snapshot info.
func (h *HTTPHandler) CatalogStatus(w http.ResponseWriter, r *http.Request) {
	snapshot := h.catalog.GetSnapshot()
	nameCount := 0
	version := uint64(0)
	if snapshot != nil {
		nameCount = len(snapshot.Names)
		version = snapshot.Version
	}

	RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"loaded":         h.catalog.IsLoaded(),
		"updating":       h.catalog.IsUpdating(),
		"names":          nameCount,
		"version":        version,
		"rows_processed": h.catalog.GetRowsProcessed(),
		"last_update":    h.catalog.GetLastUpdated().Format(time.RFC3339),
	})
}

// createPrescriptionRequest is the POST /prescriptions body.
type createPrescriptionRequest struct {
	MedicationName string `json:"medicationName"`
	DailyFrequency int    `json:"dailyFrequency"`
	TotalPills     *int   `json:"totalPills,omitempty"`
	PillsRemaining *int   `json:"pillsRemaining,omitempty"`
}

// CreatePrescription handles POST /prescriptions.
func (h *HTTPHandler) CreatePrescription(w http.ResponseWriter, r *http.Request) {
	var req createPrescriptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondWithError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	// A pill count without an explicit remaining count starts full
	pillsRemaining := req.PillsRemaining
	if pillsRemaining == nil && req.TotalPills != nil {
		remaining := *req.TotalPills
		pillsRemaining = &remaining
	}

	p := &entities.Prescription{
		ID:             uuid.NewString(),
		MedicationName: req.MedicationName,
		DailyFrequency: req.DailyFrequency,
		TotalPills:     req.TotalPills,
		PillsRemaining: pillsRemaining,
	}

	if err := h.validator.ValidatePrescription(p); err != nil {
		RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.prescriptions.SavePrescription(p); err != nil {
		logging.Error("Failed to save prescription", "error", err)
		RespondWithError(w, http.StatusInternalServerError, "failed to save prescription")
		return
	}

	logging.Info("Prescription created", "id", p.ID, "medication", p.MedicationName)
	RespondWithJSON(w, http.StatusCreated, p)
}

// GetPrescription handles GET /prescriptions/{id}.
func (h *HTTPHandler) GetPrescription(w http.ResponseWriter, r *http.Request) {
	p, ok := h.loadPrescription(w, r)
	if !ok {
		return
	}
	RespondWithJSON(w, http.StatusOK, p)
}

// ListPrescriptions handles GET /prescriptions.
func (h *HTTPHandler) ListPrescriptions(w http.ResponseWriter, r *http.Request) {
	prescriptions, err := h.prescriptions.ListPrescriptions()
	if err != nil {
		logging.Error("Failed to list prescriptions", "error", err)
		RespondWithError(w, http.StatusInternalServerError, "failed to list prescriptions")
		return
	}
	RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"count":         len(prescriptions),
		"prescriptions": prescriptions,
	})
}

// RecordDose handles POST /prescriptions/{id}/doses: registers one dose
// taken now and returns the updated prescription.
func (h *HTTPHandler) RecordDose(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	p, err := h.prescriptions.RecordDose(id, time.Now())
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			RespondWithError(w, http.StatusNotFound, "prescription not found")
			return
		}
		logging.Error("Failed to record dose", "prescription_id", id, "error", err)
		RespondWithError(w, http.StatusInternalServerError, "failed to record dose")
		return
	}

	RespondWithJSON(w, http.StatusOK, p)
}

// GetUsagePattern handles GET /prescriptions/{id}/usage.
func (h *HTTPHandler) GetUsagePattern(w http.ResponseWriter, r *http.Request) {
	p, ok := h.loadPrescription(w, r)
	if !ok {
		return
	}

	records, err := h.prescriptions.ListRecords(p.ID)
	if err != nil {
		logging.Error("Failed to list records", "prescription_id", p.ID, "error", err)
		RespondWithError(w, http.StatusInternalServerError, "failed to load dose history")
		return
	}

	windowDays := usageWindowDays(r)
	pattern := h.analyzer.Analyze(records, p.DailyFrequency, windowDays)

	RespondWithJSON(w, http.StatusOK, pattern)
}

// GetRefillPrediction handles GET /prescriptions/{id}/refill.
func (h *HTTPHandler) GetRefillPrediction(w http.ResponseWriter, r *http.Request) {
	p, ok := h.loadPrescription(w, r)
	if !ok {
		return
	}

	records, err := h.prescriptions.ListRecords(p.ID)
	if err != nil {
		logging.Error("Failed to list records", "prescription_id", p.ID, "error", err)
		RespondWithError(w, http.StatusInternalServerError, "failed to load dose history")
		return
	}

	pattern := h.analyzer.Analyze(records, p.DailyFrequency, usageWindowDays(r))
	prediction := h.predictor.Predict(p.TotalPills, p.PillsRemaining, pattern)
	if prediction == nil {
		RespondWithError(w, http.StatusUnprocessableEntity,
			"refill prediction requires pill counts on the prescription")
		return
	}

	h.alerts.EvaluatePrediction(*p, prediction)

	RespondWithJSON(w, http.StatusOK, prediction)
}

// ListAlerts handles GET /alerts: pending refill alerts, oldest first.
func (h *HTTPHandler) ListAlerts(w http.ResponseWriter, r *http.Request) {
	alerts := h.alerts.Pending()
	RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"count":  len(alerts),
		"alerts": alerts,
	})
}

// AcknowledgeAlert handles POST /alerts/{prescriptionId}/ack.
func (h *HTTPHandler) AcknowledgeAlert(w http.ResponseWriter, r *http.Request) {
	prescriptionID := chi.URLParam(r, "prescriptionId")
	if !h.alerts.Acknowledge(prescriptionID) {
		RespondWithError(w, http.StatusNotFound, "no pending alert for prescription")
		return
	}
	RespondWithJSON(w, http.StatusOK, map[string]string{"status": "acknowledged"})
}

// HealthCheck handles GET /health.
func (h *HTTPHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	status, details, httpStatus := h.health.HealthCheck()

	response := map[string]interface{}{
		"status":      status,
		"next_update": h.health.CalculateNextUpdate().Format(time.RFC3339),
		"data":        details,
	}

	RespondWithJSON(w, httpStatus, response)
}

// loadPrescription resolves the {id} URL param, writing the error response
// itself when the prescription cannot be served.
func (h *HTTPHandler) loadPrescription(w http.ResponseWriter, r *http.Request) (*entities.Prescription, bool) {
	id := chi.URLParam(r, "id")
	if _, err := uuid.Parse(id); err != nil {
		RespondWithError(w, http.StatusBadRequest, "invalid prescription ID")
		return nil, false
	}

	p, err := h.prescriptions.GetPrescription(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			RespondWithError(w, http.StatusNotFound, "prescription not found")
			return nil, false
		}
		logging.Error("Failed to load prescription", "prescription_id", id, "error", err)
		RespondWithError(w, http.StatusInternalServerError, "failed to load prescription")
		return nil, false
	}

	return p, true
}

// usageWindowDays parses the optional ?days query param.
func usageWindowDays(r *http.Request) int {
	raw := r.URL.Query().Get("days")
	if raw == "" {
		return defaultUsageWindowDays
	}

	days, err := strconv.Atoi(raw)
	if err != nil || days < 1 {
		return defaultUsageWindowDays
	}
	if days > maxUsageWindowDays {
		return maxUsageWindowDays
	}
	return days
}
