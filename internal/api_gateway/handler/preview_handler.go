package handler

import (
	"log/slog"
	"time"

	"github.com/amazon-ynab-reconciler/internal/api_gateway/service"
	"github.com/amazon-ynab-reconciler/internal/domain/ledger"
	"github.com/amazon-ynab-reconciler/internal/reconcile"
	"github.com/gin-gonic/gin"
)

// PreviewHandler runs reconciliations without storing or patching anything
type PreviewHandler struct {
	previewService service.PreviewService
	logger         *slog.Logger
}

// NewPreviewHandler creates a new preview handler
func NewPreviewHandler(logger *slog.Logger, previewService service.PreviewService) *PreviewHandler {
	return &PreviewHandler{
		previewService: previewService,
		logger:         logger,
	}
}

// Preview reconciles the supplied fragments, invoices and ledger entries
func (h *PreviewHandler) Preview(c *gin.Context) {
	var req PreviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	entries := make([]*ledger.Entry, 0, len(req.Entries))
	for _, e := range req.Entries {
		entry := &ledger.Entry{
			ID:     e.ID,
			Amount: e.Amount,
			Payee:  e.PayeeName,
			Memo:   e.Memo,
		}
		if e.Date != "" {
			d, err := time.Parse("2006-01-02", e.Date)
			if err != nil {
				RespondBadRequest(c, "Invalid entry date: "+e.Date)
				return
			}
			entry.Date = &d
		}
		entries = append(entries, entry)
	}

	result, err := h.previewService.Preview(c.Request.Context(), req.Fragments, req.Invoices, entries)
	if err != nil {
		h.logger.Error("Failed to run preview", "error", err)
		RespondInternalError(c)
		return
	}

	RespondOK(c, mapResultToResponse(result))
}

func mapResultToResponse(result *reconcile.Result) PreviewResponse {
	response := PreviewResponse{
		OrderCount:         len(result.Settlements),
		InvoiceCount:       len(result.Invoices),
		MalformedFragments: make([]string, 0, len(result.MalformedFragments)),
		FailedOrders:       make(map[string]string, len(result.FailedOrders)),
		MissingDocuments:   result.MissingDocuments,
		Resolutions:        make([]ResolutionResponse, 0, len(result.Resolutions)),
		ContestedEntries:   result.ContestedEntries,
		MatchPatches:       mapPatches(result.MatchPatches),
		TipPatches:         mapPatches(result.TipPatches),
	}
	for _, err := range result.MalformedFragments {
		response.MalformedFragments = append(response.MalformedFragments, err.Error())
	}
	for orderID, err := range result.FailedOrders {
		response.FailedOrders[orderID] = err.Error()
	}
	if response.MissingDocuments == nil {
		response.MissingDocuments = []string{}
	}
	if response.ContestedEntries == nil {
		response.ContestedEntries = map[string][]string{}
	}
	for _, res := range result.Resolutions {
		response.Resolutions = append(response.Resolutions, ResolutionResponse{
			OrderID:        res.OrderID,
			Kind:           string(res.Kind),
			LedgerEntryIDs: res.LedgerEntryIDs,
		})
	}
	return response
}

func mapPatches(patches []ledger.PatchPayload) []PatchResponse {
	out := make([]PatchResponse, 0, len(patches))
	for _, p := range patches {
		out = append(out, PatchResponse{
			ID:        p.ID,
			Memo:      p.Memo,
			PayeeID:   p.PayeeID,
			PayeeName: p.PayeeName,
		})
	}
	return out
}
