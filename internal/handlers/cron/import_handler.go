package cron

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kevin07696/payflow-reconciler/internal/domain"
	"github.com/kevin07696/payflow-reconciler/internal/services/ports"
	pkgerrors "github.com/kevin07696/payflow-reconciler/pkg/errors"
	"github.com/kevin07696/payflow-reconciler/pkg/resilience"
)

const maxBodyBytes = 64 << 10

// ImportHandler handles cron job endpoints for recurring payment import
type ImportHandler struct {
	reconciler ports.ReconciliationService
	logger     *zap.Logger
	cronSecret string // Secret token for authenticating cron requests
	timeouts   *resilience.TimeoutConfig
}

// NewImportHandler creates a new import cron handler
func NewImportHandler(
	reconciler ports.ReconciliationService,
	logger *zap.Logger,
	cronSecret string,
	timeouts *resilience.TimeoutConfig,
) *ImportHandler {
	if timeouts == nil {
		timeouts = resilience.DefaultTimeoutConfig()
	}
	return &ImportHandler{
		reconciler: reconciler,
		logger:     logger,
		cronSecret: cronSecret,
		timeouts:   timeouts,
	}
}

// ImportRequest is the optional body of an import run
type ImportRequest struct {
	ProfileIDs  []string `json:"profile_ids"`  // gateway PROFILEIDs; empty = all
	HistoryType string   `json:"history_type"` // Y, N or O; defaults to Y
}

// ImportResponse reports an import run
type ImportResponse struct {
	Success    bool                            `json:"success"`
	Profiles   int                             `json:"profiles"`
	Created    int                             `json:"created"`
	Outcomes   []*domain.ReconciliationOutcome `json:"outcomes"`
	StartedAt  string                          `json:"started_at"`
	FinishedAt string                          `json:"finished_at"`
}

// ImportRecurPayments handles POST /cron/import-recur-payments.
// Responds 200 when every profile reconciled cleanly, 206 otherwise.
func (h *ImportHandler) ImportRecurPayments(w http.ResponseWriter, r *http.Request) {
	h.logger.Info("Recurring payment import triggered",
		zap.String("method", r.Method),
		zap.String("remote_addr", r.RemoteAddr),
		zap.String("user_agent", r.UserAgent()),
	)

	if r.Method != http.MethodPost {
		h.respondError(w, http.StatusMethodNotAllowed, "only POST method is allowed")
		return
	}

	if !h.authenticateRequest(r) {
		h.logger.Warn("Unauthorized cron request", zap.String("remote_addr", r.RemoteAddr))
		h.respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req ImportRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	// An empty scope leaves the choice to the reconciler's configured default.
	scope := domain.HistoryScope(strings.ToUpper(req.HistoryType))
	if scope != "" && !scope.Valid() {
		h.respondError(w, http.StatusBadRequest, "history_type must be one of Y, N, O")
		return
	}

	ctx, cancel := h.timeouts.CronContext(r.Context())
	defer cancel()

	summary, err := h.reconciler.ImportLatestRecurPayments(ctx, req.ProfileIDs, scope)
	if err != nil {
		h.logger.Error("Recurring payment import failed", zap.Error(err))
		h.respondError(w, http.StatusInternalServerError, pkgerrors.Kind(err))
		return
	}

	resp := ImportResponse{
		Success:    summary.Clean(),
		Profiles:   len(summary.Outcomes),
		Created:    summary.CreatedCount(),
		Outcomes:   summary.Outcomes,
		StartedAt:  summary.StartedAt.Format(time.RFC3339),
		FinishedAt: summary.FinishedAt.Format(time.RFC3339),
	}

	h.logger.Info("Recurring payment import completed",
		zap.Int("profiles", resp.Profiles),
		zap.Int("created", resp.Created),
		zap.Bool("clean", resp.Success),
	)

	status := http.StatusOK
	if !resp.Success {
		status = http.StatusPartialContent
	}
	h.respondJSON(w, status, resp)
}

// RecurPaymentHistory handles GET /cron/recur-payment-history?processor_id=...
func (h *ImportHandler) RecurPaymentHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.respondError(w, http.StatusMethodNotAllowed, "only GET method is allowed")
		return
	}
	if !h.authenticateRequest(r) {
		h.respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	processorID := r.URL.Query().Get("processor_id")
	if processorID == "" {
		h.respondError(w, http.StatusBadRequest, "processor_id is required")
		return
	}
	scope := domain.HistoryScope(strings.ToUpper(r.URL.Query().Get("history_type")))
	if scope != "" && !scope.Valid() {
		h.respondError(w, http.StatusBadRequest, "history_type must be one of Y, N, O")
		return
	}

	ctx, cancel := h.timeouts.GatewayContext(r.Context())
	defer cancel()

	history, err := h.reconciler.GetRecurPaymentHistory(ctx, processorID, scope)
	if err != nil {
		h.logger.Error("Failed to fetch payment history",
			zap.String("processor_id", processorID),
			zap.Error(err),
		)
		h.respondError(w, http.StatusBadGateway, pkgerrors.Kind(err))
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"success":    true,
		"profile_id": history.ProfileID,
		"records":    history.Records,
		"anomalies":  history.Anomalies,
	})
}

// authenticateRequest accepts X-Cron-Secret or a Bearer token
func (h *ImportHandler) authenticateRequest(r *http.Request) bool {
	if h.cronSecret == "" {
		return false
	}
	if secret := r.Header.Get("X-Cron-Secret"); secret != "" {
		return secretsEqual(secret, h.cronSecret)
	}
	if token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
		return secretsEqual(token, h.cronSecret)
	}
	return false
}

func secretsEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func (h *ImportHandler) respondJSON(w http.ResponseWriter, statusCode int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Error("Failed to encode response", zap.Error(err))
	}
}

func (h *ImportHandler) respondError(w http.ResponseWriter, statusCode int, message string) {
	h.respondJSON(w, statusCode, map[string]interface{}{
		"success": false,
		"error":   message,
	})
}

// HealthCheck handles GET /cron/health for monitoring
func (h *ImportHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status": "healthy",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// Register mounts the cron routes on mux
func (h *ImportHandler) Register(mux *http.ServeMux, wrap func(http.HandlerFunc) http.HandlerFunc) {
	if wrap == nil {
		wrap = func(f http.HandlerFunc) http.HandlerFunc { return f }
	}
	mux.HandleFunc("/cron/import-recur-payments", wrap(h.ImportRecurPayments))
	mux.HandleFunc("/cron/recur-payment-history", wrap(h.RecurPaymentHistory))
	mux.HandleFunc("/cron/health", h.HealthCheck)
}
