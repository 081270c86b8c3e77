package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"scholarship/internal/host"
	"scholarship/internal/ledger"
	"scholarship/internal/models"
)

const maxInvokeBodyBytes = 64 << 10

// handleIndex returns basic service information
// GET / - Returns service info and available endpoints
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	info := map[string]interface{}{
		"service":     "Scholarship Ledger",
		"version":     "1.0.0",
		"description": ledger.Description,
		"contract_id": s.client.Host().ContractID(),
		"endpoints": map[string]string{
			"GET /":                          "This page - Service information",
			"GET /health":                    "Health check endpoint",
			"GET /metrics":                   "Prometheus metrics for monitoring",
			"GET /contract":                  "Initialization state and admin",
			"GET /stats":                     "Aggregate contract statistics",
			"GET /stats/total-disbursed":     "Sum of all released amounts",
			"GET /students/{address}":        "Student profile",
			"GET /students/{address}/amount": "Total received by a student",
			"GET /students/{address}/scholarship-count": "Scholarships received by a student",
			"GET /scholarships/{id}":                    "Scholarship record",
			"GET /scholarships/recent":                  "Latest scholarship records (supports ?count=)",
			"GET /last-activity":                        "Timestamp of the latest release, while retained",
			"POST /invoke":                              "Submit a signed init, release_scholarship or update_admin call",
		},
	}

	writeJSON(w, http.StatusOK, info)
}

// handleHealth returns health status
// GET /health - Pings the storage backend
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := "healthy"
	code := http.StatusOK
	if err := s.client.Host().Ping(r.Context()); err != nil {
		slog.Warn("Health check failed", "error", err)
		status = "unhealthy"
		code = http.StatusServiceUnavailable
	}

	writeJSON(w, code, map[string]interface{}{
		"status":    status,
		"timestamp": time.Now().UTC(),
		"service":   "scholarship-ledger",
	})
}

// handleMetrics returns Prometheus metrics
// GET /metrics - Prometheus scraping endpoint
func (s *Server) handleMetrics() http.Handler {
	return promhttp.Handler()
}

// =============================================================================
// CONTRACT QUERIES
// =============================================================================

// GET /contract
func (s *Server) handleContract(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	initialized, err := s.client.IsInitialized(ctx)
	if err != nil {
		s.sendCallError(w, r, err)
		return
	}

	resp := models.ContractResponse{
		ContractID:  s.client.Host().ContractID(),
		Description: ledger.Description,
		Initialized: initialized,
	}

	admin, ok, err := s.client.Admin(ctx)
	if err != nil {
		s.sendCallError(w, r, err)
		return
	}
	if ok {
		resp.Admin = &admin
	}

	writeJSON(w, http.StatusOK, resp)
}

// GET /stats
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.client.ContractStats(r.Context())
	if err != nil {
		s.sendCallError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, models.ToContractStatsResponse(stats))
}

// GET /stats/total-disbursed
func (s *Server) handleTotalDisbursed(w http.ResponseWriter, r *http.Request) {
	total, err := s.client.TotalDisbursed(r.Context())
	if err != nil {
		s.sendCallError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, models.AmountResponse{Amount: total.String()})
}

// GET /students/{address}
func (s *Server) handleStudentProfile(w http.ResponseWriter, r *http.Request) {
	address := r.PathValue("address")

	profile, ok, err := s.client.StudentProfile(r.Context(), address)
	if err != nil {
		s.sendCallError(w, r, err)
		return
	}
	if !ok {
		s.sendError(w, r, "Student not found", http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, models.ToStudentProfileResponse(profile))
}

// GET /students/{address}/amount
func (s *Server) handleStudentAmount(w http.ResponseWriter, r *http.Request) {
	address := r.PathValue("address")

	amount, err := s.client.StudentAmount(r.Context(), address)
	if err != nil {
		s.sendCallError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, models.AmountResponse{Address: address, Amount: amount.String()})
}

// GET /students/{address}/scholarship-count
func (s *Server) handleStudentScholarshipCount(w http.ResponseWriter, r *http.Request) {
	address := r.PathValue("address")

	count, err := s.client.StudentScholarshipCount(r.Context(), address)
	if err != nil {
		s.sendCallError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, models.CountResponse{Address: address, Count: count})
}

// GET /scholarships/{id}
func (s *Server) handleScholarshipRecord(w http.ResponseWriter, r *http.Request) {
	id, err := parseScholarshipID(r.PathValue("id"))
	if err != nil {
		s.sendError(w, r, err.Error(), http.StatusBadRequest)
		return
	}

	record, ok, err := s.client.ScholarshipRecord(r.Context(), id)
	if err != nil {
		s.sendCallError(w, r, err)
		return
	}
	if !ok {
		s.sendError(w, r, "Scholarship not found", http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, models.ToScholarshipRecordResponse(record))
}

// GET /scholarships/recent?count=10
func (s *Server) handleRecentScholarships(w http.ResponseWriter, r *http.Request) {
	count, err := parseRecentCount(r.URL.Query().Get("count"))
	if err != nil {
		s.sendError(w, r, err.Error(), http.StatusBadRequest)
		return
	}

	records, err := s.client.RecentScholarships(r.Context(), count)
	if err != nil {
		s.sendCallError(w, r, err)
		return
	}

	resp := make([]models.ScholarshipRecordResponse, 0, len(records))
	for _, record := range records {
		resp = append(resp, models.ToScholarshipRecordResponse(record))
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"count":        count,
		"scholarships": resp,
	})
}

// GET /last-activity
func (s *Server) handleLastActivity(w http.ResponseWriter, r *http.Request) {
	ts, ok, err := s.client.LastActivity(r.Context())
	if err != nil {
		s.sendCallError(w, r, err)
		return
	}
	if !ok {
		s.sendError(w, r, "No recent activity", http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, models.ToLastActivityResponse(ts))
}

// =============================================================================
// SIGNED INVOCATIONS
// =============================================================================

// POST /invoke
func (s *Server) handleInvoke(w http.ResponseWriter, r *http.Request) {
	var req models.InvokeRequest
	body := http.MaxBytesReader(w, r.Body, maxInvokeBodyBytes)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		s.sendError(w, r, fmt.Sprintf("Invalid request body: %v", err), http.StatusBadRequest)
		return
	}

	if err := s.validate.Struct(req); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			s.sendError(w, r, fmt.Sprintf("Invalid request: %v", validationErrors), http.StatusBadRequest)
			return
		}
		s.sendError(w, r, err.Error(), http.StatusBadRequest)
		return
	}

	inv, err := req.Invocation()
	if err != nil {
		s.sendError(w, r, err.Error(), http.StatusBadRequest)
		return
	}

	result, err := s.client.Dispatch(r.Context(), host.Signed{
		Invocation: inv,
		Signatures: req.Signatures,
	})
	if err != nil {
		s.sendCallError(w, r, err)
		return
	}

	resp := models.InvokeResponse{Function: result.Function}
	if result.Function == ledger.FnReleaseScholarship {
		resp.ScholarshipID = &result.ScholarshipID
	}

	slog.Info("Invocation applied",
		"request_id", requestIDFromContext(r.Context()),
		"function", result.Function,
	)
	writeJSON(w, http.StatusOK, resp)
}
