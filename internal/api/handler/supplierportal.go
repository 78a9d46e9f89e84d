package handler

import (
	"log/slog"
	"net/http"

	"github.com/quotelink/quotelink/internal/api/middleware"
	"github.com/quotelink/quotelink/internal/api/response"
	"github.com/quotelink/quotelink/internal/quote"
)

// SupplierPortalHandler serves the authenticated supplier-side routes. The
// RequireSupplier guard has already resolved the supplier record and proven
// it holds at least one invitation.
type SupplierPortalHandler struct {
	quotes quote.Repository
}

// NewSupplierPortalHandler creates a new SupplierPortalHandler.
func NewSupplierPortalHandler(quotes quote.Repository) *SupplierPortalHandler {
	return &SupplierPortalHandler{quotes: quotes}
}

// ListQuoteRequests handles GET /api/supplier/quote-requests.
func (h *SupplierPortalHandler) ListQuoteRequests(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	sup := middleware.GetSupplier(r.Context())
	if sup == nil {
		response.Err(w, http.StatusForbidden, "FORBIDDEN", "Supplier access required", requestID)
		return
	}

	requests, err := h.quotes.ListRequestsForSupplier(r.Context(), sup.ID)
	if err != nil {
		slog.Error("failed to list supplier quote requests", "error", err)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list quote requests", requestID)
		return
	}

	out := make([]quoteRequestResponse, 0, len(requests))
	for i := range requests {
		out = append(out, toQuoteRequestResponse(&requests[i]))
	}

	response.SuccessList(w, http.StatusOK, out, len(out), 1, len(out), requestID)
}
