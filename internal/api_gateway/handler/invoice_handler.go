package handler

import (
	"log/slog"
	"time"

	"github.com/amazon-ynab-reconciler/internal/api_gateway/service"
	"github.com/amazon-ynab-reconciler/internal/domain/invoice"
	"github.com/gin-gonic/gin"
)

// InvoiceHandler handles HTTP requests for archived invoices
type InvoiceHandler struct {
	invoiceService service.InvoiceService
	logger         *slog.Logger
}

// NewInvoiceHandler creates a new invoice handler
func NewInvoiceHandler(logger *slog.Logger, invoiceService service.InvoiceService) *InvoiceHandler {
	return &InvoiceHandler{
		invoiceService: invoiceService,
		logger:         logger,
	}
}

// GetByOrderID retrieves the latest archived invoice of an order, returns 404 if not found
func (h *InvoiceHandler) GetByOrderID(c *gin.Context) {
	orderID := c.Param("order_id")

	rec, err := h.invoiceService.GetLatestInvoice(c.Request.Context(), orderID)
	if err != nil {
		h.logger.Error("Failed to get invoice", "order_id", orderID, "error", err)
		RespondInternalError(c)
		return
	}

	if rec == nil {
		RespondNotFound(c, "Invoice not found")
		return
	}

	RespondOK(c, mapRecordToResponse(rec))
}

func mapRecordToResponse(rec *invoice.Record) InvoiceResponse {
	response := InvoiceResponse{
		OrderID:       rec.OrderID,
		RunID:         rec.RunID.String(),
		Items:         make([]LineItemResponse, 0, len(rec.Items)),
		ItemNames:     rec.ItemNames,
		PreTaxTotal:   rec.PreTaxTotal,
		TaxTotal:      rec.TaxTotal,
		TaxRate:       rec.TaxRate,
		ChargedAmount: rec.ChargedAmount,
		LedgerEntryID: rec.LedgerEntryID,
		ArchivedAt:    rec.ArchivedAt.Format(time.RFC3339),
	}
	if response.ItemNames == nil {
		response.ItemNames = []string{}
	}
	for _, item := range rec.Items {
		response.Items = append(response.Items, LineItemResponse{
			Name:      item.Name,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			Amount:    item.Amount,
		})
	}
	if rec.SettlementDate != nil {
		response.SettlementDate = rec.SettlementDate.Format("2006-01-02")
	}
	return response
}
