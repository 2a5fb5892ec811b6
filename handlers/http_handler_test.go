package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/aroovee/rxmindr-sub000/catalog"
	"github.com/aroovee/rxmindr-sub000/data"
	"github.com/aroovee/rxmindr-sub000/entities"
	"github.com/aroovee/rxmindr-sub000/health"
	"github.com/aroovee/rxmindr-sub000/refill"
	"github.com/aroovee/rxmindr-sub000/search"
	"github.com/aroovee/rxmindr-sub000/store"
	"github.com/aroovee/rxmindr-sub000/validation"
)

// newTestRouter wires real collaborators against a temporary database,
// mirroring the production route table.
func newTestRouter(t *testing.T) *chi.Mux {
	t.Helper()

	container := data.NewCatalogContainer()
	container.PublishSeed(catalog.SeedNameSet())
	container.MarkLoaded()

	searcher, err := search.NewService(container, 100, 50)
	if err != nil {
		t.Fatalf("failed to create search service: %v", err)
	}

	alerts := refill.NewAlertManager(time.Hour)

	prescriptions, err := store.NewBoltStore(filepath.Join(t.TempDir(), "test.db"), alerts)
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { prescriptions.Close() })

	handler := NewHTTPHandler(
		container,
		searcher,
		prescriptions,
		refill.NewAnalyzer(),
		refill.NewPredictor(),
		alerts,
		validation.NewInputValidator(),
		health.NewHealthChecker(container),
	)

	r := chi.NewRouter()
	r.Get("/search/{query}", handler.SearchMedications)
	r.Get("/catalog/status", handler.CatalogStatus)
	r.Post("/prescriptions", handler.CreatePrescription)
	r.Get("/prescriptions", handler.ListPrescriptions)
	r.Get("/prescriptions/{id}", handler.GetPrescription)
	r.Post("/prescriptions/{id}/doses", handler.RecordDose)
	r.Get("/prescriptions/{id}/usage", handler.GetUsagePattern)
	r.Get("/prescriptions/{id}/refill", handler.GetRefillPrediction)
	r.Get("/alerts", handler.ListAlerts)
	r.Post("/alerts/{prescriptionId}/ack", handler.AcknowledgeAlert)
	r.Get("/health", handler.HealthCheck)
	return r
}

func doRequest(t *testing.T, router *chi.Mux, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal request body: %v", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), out); err != nil {
		t.Fatalf("failed to decode response %q: %v", rec.Body.String(), err)
	}
}

func createPrescription(t *testing.T, router *chi.Mux, body map[string]any) entities.Prescription {
	t.Helper()

	rec := doRequest(t, router, http.MethodPost, "/prescriptions", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create prescription returned %d: %s", rec.Code, rec.Body.String())
	}

	var p entities.Prescription
	decodeBody(t, rec, &p)
	return p
}

func TestSearchEndpoint(t *testing.T) {
	router := newTestRouter(t)

	rec := doRequest(t, router, http.MethodGet, "/search/amoxicillin", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("search returned %d: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		t.Errorf("Content-Type = %q, expected application/json", ct)
	}

	var response struct {
		Query   string                  `json:"query"`
		Count   int                     `json:"count"`
		Results []entities.SearchResult `json:"results"`
	}
	decodeBody(t, rec, &response)

	if response.Query != "amoxicillin" {
		t.Errorf("query = %q, expected amoxicillin", response.Query)
	}
	if response.Count == 0 || len(response.Results) == 0 {
		t.Fatal("search for a seeded name should return results")
	}
	if response.Results[0].Name != "Amoxicillin" {
		t.Errorf("top result = %q, expected Amoxicillin", response.Results[0].Name)
	}
}

func TestSearchEndpointRejectsSuspiciousQuery(t *testing.T) {
	router := newTestRouter(t)

	rec := doRequest(t, router, http.MethodGet, "/search/"+strings.Repeat("a", 30), nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("suspicious query returned %d, expected 400", rec.Code)
	}
}

func TestCatalogStatusEndpoint(t *testing.T) {
	router := newTestRouter(t)

	rec := doRequest(t, router, http.MethodGet, "/catalog/status", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("catalog status returned %d", rec.Code)
	}

	var response struct {
		Loaded bool `json:"loaded"`
		Names  int  `json:"names"`
	}
	decodeBody(t, rec, &response)

	if !response.Loaded {
		t.Error("catalog should report loaded")
	}
	if response.Names == 0 {
		t.Error("catalog should report seeded names")
	}
}

func TestCreateAndGetPrescription(t *testing.T) {
	router := newTestRouter(t)

	created := createPrescription(t, router, map[string]any{
		"medicationName": "Amoxicillin",
		"dailyFrequency": 2,
		"totalPills":     30,
	})

	if created.ID == "" {
		t.Fatal("created prescription should have an ID")
	}
	if created.PillsRemaining == nil || *created.PillsRemaining != 30 {
		t.Error("pills remaining should default to the total pill count")
	}

	rec := doRequest(t, router, http.MethodGet, "/prescriptions/"+created.ID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get prescription returned %d: %s", rec.Code, rec.Body.String())
	}

	var fetched entities.Prescription
	decodeBody(t, rec, &fetched)
	if fetched.ID != created.ID || fetched.MedicationName != "Amoxicillin" {
		t.Errorf("fetched prescription %+v does not match created %+v", fetched, created)
	}
}

func TestCreatePrescriptionRejectsInvalid(t *testing.T) {
	router := newTestRouter(t)

	testCases := []struct {
		name string
		body map[string]any
	}{
		{"Missing medication name", map[string]any{"dailyFrequency": 2}},
		{"Zero daily frequency", map[string]any{"medicationName": "Amoxicillin", "dailyFrequency": 0}},
		{"Negative pill count", map[string]any{"medicationName": "Amoxicillin", "dailyFrequency": 1, "totalPills": -5}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rec := doRequest(t, router, http.MethodPost, "/prescriptions", tc.body)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("returned %d, expected 400: %s", rec.Code, rec.Body.String())
			}
		})
	}
}

func TestCreatePrescriptionRejectsMalformedJSON(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/prescriptions", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("malformed JSON returned %d, expected 400", rec.Code)
	}
}

func TestGetPrescriptionErrors(t *testing.T) {
	router := newTestRouter(t)

	rec := doRequest(t, router, http.MethodGet, "/prescriptions/not-a-uuid", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("malformed ID returned %d, expected 400", rec.Code)
	}

	rec = doRequest(t, router, http.MethodGet, "/prescriptions/0e7fa463-91a0-4b75-9521-64c95e81cdd1", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown ID returned %d, expected 404", rec.Code)
	}
}

func TestListPrescriptionsEndpoint(t *testing.T) {
	router := newTestRouter(t)
	createPrescription(t, router, map[string]any{"medicationName": "Lisinopril", "dailyFrequency": 1})
	createPrescription(t, router, map[string]any{"medicationName": "Amoxicillin", "dailyFrequency": 2})

	rec := doRequest(t, router, http.MethodGet, "/prescriptions", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list returned %d", rec.Code)
	}

	var response struct {
		Count         int                     `json:"count"`
		Prescriptions []entities.Prescription `json:"prescriptions"`
	}
	decodeBody(t, rec, &response)

	if response.Count != 2 || len(response.Prescriptions) != 2 {
		t.Fatalf("count = %d with %d prescriptions, expected 2", response.Count, len(response.Prescriptions))
	}
	if response.Prescriptions[0].MedicationName != "Amoxicillin" {
		t.Errorf("prescriptions should be sorted by medication name, got %q first",
			response.Prescriptions[0].MedicationName)
	}
}

func TestRecordDoseEndpoint(t *testing.T) {
	router := newTestRouter(t)
	created := createPrescription(t, router, map[string]any{
		"medicationName": "Amoxicillin",
		"dailyFrequency": 2,
		"totalPills":     10,
	})

	rec := doRequest(t, router, http.MethodPost, "/prescriptions/"+created.ID+"/doses", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("record dose returned %d: %s", rec.Code, rec.Body.String())
	}

	var updated entities.Prescription
	decodeBody(t, rec, &updated)
	if updated.PillsRemaining == nil || *updated.PillsRemaining != 9 {
		t.Errorf("pills remaining = %v, expected 9", updated.PillsRemaining)
	}

	rec = doRequest(t, router, http.MethodPost, "/prescriptions/0e7fa463-91a0-4b75-9521-64c95e81cdd1/doses", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("dose for unknown prescription returned %d, expected 404", rec.Code)
	}
}

func TestUsagePatternEndpoint(t *testing.T) {
	router := newTestRouter(t)
	created := createPrescription(t, router, map[string]any{
		"medicationName": "Amoxicillin",
		"dailyFrequency": 1,
		"totalPills":     30,
	})

	doRequest(t, router, http.MethodPost, "/prescriptions/"+created.ID+"/doses", nil)

	rec := doRequest(t, router, http.MethodGet, "/prescriptions/"+created.ID+"/usage?days=7", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("usage returned %d: %s", rec.Code, rec.Body.String())
	}

	var pattern entities.UsagePattern
	decodeBody(t, rec, &pattern)
	if pattern.PeriodDays != 7 {
		t.Errorf("period = %d, expected 7 from the days param", pattern.PeriodDays)
	}
	if pattern.DataPoints != 1 {
		t.Errorf("data points = %d, expected 1", pattern.DataPoints)
	}
	if pattern.AverageDailyUsage != 1.0 {
		t.Errorf("average daily usage = %v, expected 1.0", pattern.AverageDailyUsage)
	}
}

func TestRefillPredictionEndpoint(t *testing.T) {
	router := newTestRouter(t)
	created := createPrescription(t, router, map[string]any{
		"medicationName": "Amoxicillin",
		"dailyFrequency": 1,
		"totalPills":     30,
	})

	doRequest(t, router, http.MethodPost, "/prescriptions/"+created.ID+"/doses", nil)

	rec := doRequest(t, router, http.MethodGet, "/prescriptions/"+created.ID+"/refill", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("refill returned %d: %s", rec.Code, rec.Body.String())
	}

	var prediction entities.RefillPrediction
	decodeBody(t, rec, &prediction)

	// 29 pills left at one per day
	if prediction.DaysRemaining != 29 {
		t.Errorf("days remaining = %d, expected 29", prediction.DaysRemaining)
	}
	if !prediction.RecommendedRefillDate.Before(prediction.PredictedRefillDate) {
		t.Error("recommended refill date should precede the predicted run-out date")
	}
}

func TestRefillPredictionRequiresPillCounts(t *testing.T) {
	router := newTestRouter(t)
	created := createPrescription(t, router, map[string]any{
		"medicationName": "Amoxicillin",
		"dailyFrequency": 1,
	})

	rec := doRequest(t, router, http.MethodGet, "/prescriptions/"+created.ID+"/refill", nil)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("refill without pill counts returned %d, expected 422", rec.Code)
	}
}

func TestAlertLifecycle(t *testing.T) {
	router := newTestRouter(t)
	created := createPrescription(t, router, map[string]any{
		"medicationName": "Amoxicillin",
		"dailyFrequency": 1,
		"totalPills":     4,
	})

	// Dropping to three pills fires the critical alert
	rec := doRequest(t, router, http.MethodPost, "/prescriptions/"+created.ID+"/doses", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("record dose returned %d", rec.Code)
	}

	rec = doRequest(t, router, http.MethodGet, "/alerts", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list alerts returned %d", rec.Code)
	}

	var response struct {
		Count  int                    `json:"count"`
		Alerts []entities.RefillAlert `json:"alerts"`
	}
	decodeBody(t, rec, &response)
	if response.Count != 1 {
		t.Fatalf("alert count = %d, expected 1: %s", response.Count, rec.Body.String())
	}

	alert := response.Alerts[0]
	if alert.PrescriptionID != created.ID {
		t.Errorf("alert prescription = %q, expected %q", alert.PrescriptionID, created.ID)
	}
	if alert.Severity != entities.SeverityCritical {
		t.Errorf("severity = %q, expected critical", alert.Severity)
	}

	ackPath := fmt.Sprintf("/alerts/%s/ack", created.ID)
	rec = doRequest(t, router, http.MethodPost, ackPath, nil)
	if rec.Code != http.StatusOK {
		t.Errorf("acknowledge returned %d, expected 200", rec.Code)
	}

	rec = doRequest(t, router, http.MethodPost, ackPath, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("second acknowledge returned %d, expected 404", rec.Code)
	}
}

func TestHealthEndpoint(t *testing.T) {
	router := newTestRouter(t)

	rec := doRequest(t, router, http.MethodGet, "/health", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("health returned %d: %s", rec.Code, rec.Body.String())
	}

	var response struct {
		Status     string         `json:"status"`
		NextUpdate string         `json:"next_update"`
		Data       map[string]any `json:"data"`
	}
	decodeBody(t, rec, &response)

	if response.Status != "healthy" {
		t.Errorf("status = %q, expected healthy", response.Status)
	}
	if response.NextUpdate == "" {
		t.Error("next_update should be set")
	}
	if response.Data["is_loaded"] != true {
		t.Errorf("data.is_loaded = %v, expected true", response.Data["is_loaded"])
	}
}

func TestUsageWindowDaysParsing(t *testing.T) {
	testCases := []struct {
		query    string
		expected int
	}{
		{"", defaultUsageWindowDays},
		{"days=14", 14},
		{"days=0", defaultUsageWindowDays},
		{"days=-3", defaultUsageWindowDays},
		{"days=abc", defaultUsageWindowDays},
		{"days=9999", maxUsageWindowDays},
	}

	for _, tc := range testCases {
		url := "/prescriptions/x/usage"
		if tc.query != "" {
			url += "?" + tc.query
		}
		req := httptest.NewRequest(http.MethodGet, url, nil)
		if got := usageWindowDays(req); got != tc.expected {
			t.Errorf("usageWindowDays(%q) = %d, expected %d", tc.query, got, tc.expected)
		}
	}
}
