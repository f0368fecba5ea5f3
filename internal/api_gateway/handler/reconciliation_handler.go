package handler

import (
	"errors"
	"log/slog"
	"time"

	"github.com/amazon-ynab-reconciler/internal/api_gateway/middleware"
	"github.com/amazon-ynab-reconciler/internal/api_gateway/service"
	"github.com/amazon-ynab-reconciler/internal/domain/run"
	"github.com/amazon-ynab-reconciler/internal/domain/shared"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ReconciliationHandler handles HTTP requests for reconciliation runs
type ReconciliationHandler struct {
	reconciliationService service.ReconciliationService
	reportService         service.ReportService
	logger                *slog.Logger
}

// NewReconciliationHandler creates a new reconciliation handler
func NewReconciliationHandler(logger *slog.Logger, reconciliationService service.ReconciliationService, reportService service.ReportService) *ReconciliationHandler {
	return &ReconciliationHandler{
		reconciliationService: reconciliationService,
		reportService:         reportService,
		logger:                logger,
	}
}

// Create submits a reconciliation run with idempotency support
func (h *ReconciliationHandler) Create(c *gin.Context) {
	var req CreateReconciliationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	request := &shared.ReconciliationRequest{
		RunID:          uuid.New(),
		Fragments:      req.Fragments,
		Invoices:       req.Invoices,
		IdempotencyKey: req.IdempotencyKey,
		CorrelationID:  middleware.GetCorrelationID(c),
		Timestamp:      time.Now(),
	}

	runID, existing, err := h.reconciliationService.SubmitReconciliation(c.Request.Context(), request)
	if err != nil {
		h.logger.Error("Failed to submit reconciliation", "error", err)
		RespondInternalError(c)
		return
	}
	if existing != nil {
		RespondOK(c, mapRunToResponse(existing))
		return
	}

	RespondAccepted(c, gin.H{
		"run_id": runID,
		"status": string(shared.RunStatusPending),
	})
}

// GetByID retrieves a run summary by its ID, returns 404 if not found
func (h *ReconciliationHandler) GetByID(c *gin.Context) {
	id, ok := h.parseRunID(c)
	if !ok {
		return
	}

	rn, err := h.reconciliationService.GetRunByID(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("Failed to get run", "run_id", id.String(), "error", err)
		RespondInternalError(c)
		return
	}

	if rn == nil {
		RespondNotFound(c, "Run not found")
		return
	}

	RespondOK(c, mapRunToResponse(rn))
}

// Report streams the run's XLSX report
func (h *ReconciliationHandler) Report(c *gin.Context) {
	id, ok := h.parseRunID(c)
	if !ok {
		return
	}

	data, err := h.reportService.RunReportXLSX(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, run.ErrRunNotFound{}) {
			RespondNotFound(c, "Run not found")
			return
		}
		h.logger.Error("Failed to build run report", "run_id", id.String(), "error", err)
		RespondInternalError(c)
		return
	}

	RespondAttachment(c, xlsxContentType, "reconciliation-"+id.String()+".xlsx", data)
}

func (h *ReconciliationHandler) parseRunID(c *gin.Context) (uuid.UUID, bool) {
	idParam := c.Param("id")
	id, err := uuid.Parse(idParam)
	if err != nil {
		h.logger.Error("Invalid run ID", "id", idParam, "error", err)
		RespondBadRequest(c, "Invalid run ID")
		return uuid.Nil, false
	}
	return id, true
}

// mapRunToResponse maps a run to a run response DTO
func mapRunToResponse(rn *run.Run) RunResponse {
	response := RunResponse{
		RunID:          rn.ID.String(),
		Status:         string(rn.Status),
		BudgetID:       rn.BudgetID,
		FragmentCount:  rn.FragmentCount,
		OrderCount:     rn.OrderCount,
		InvoiceCount:   rn.InvoiceCount,
		MatchCount:     rn.MatchCount,
		AmbiguousCount: rn.AmbiguousCount,
		TipCount:       rn.TipCount,
		Matches:        make([]MatchResponse, 0, len(rn.Matches)),
		FailedOrders:   rn.FailedOrders,
		FailureReason:  string(rn.FailureReason),
		CreatedAt:      rn.CreatedAt.Format(time.RFC3339),
	}
	if response.FailedOrders == nil {
		response.FailedOrders = []string{}
	}
	for _, pair := range rn.Matches {
		response.Matches = append(response.Matches, MatchResponse{
			OrderID:       pair.InvoiceOrderID,
			LedgerEntryID: pair.LedgerEntryID,
		})
	}
	if rn.CompletedAt != nil {
		response.CompletedAt = rn.CompletedAt.Format(time.RFC3339)
	}
	return response
}
