package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/quotelink/quotelink/internal/api/middleware"
	"github.com/quotelink/quotelink/internal/api/response"
	"github.com/quotelink/quotelink/internal/api/validation"
	"github.com/quotelink/quotelink/internal/quote"
	"github.com/quotelink/quotelink/internal/supplier"
)

type publicRequestResponse struct {
	Request  quoteRequestResponse `json:"request"`
	Supplier supplierSummary      `json:"supplier"`
}

type submitQuoteRequest struct {
	UnitPrice    float64 `json:"unitPrice"`
	Currency     string  `json:"currency"`
	LeadTimeDays int     `json:"leadTimeDays"`
	ValidUntil   string  `json:"validUntil"`
	Notes        string  `json:"notes"`
}

// PublicHandler serves the token-gated quote request endpoints reached via
// capability URLs, without any session.
type PublicHandler struct {
	quotes    quote.Repository
	suppliers supplier.Repository
}

// NewPublicHandler creates a new PublicHandler.
func NewPublicHandler(quotes quote.Repository, suppliers supplier.Repository) *PublicHandler {
	return &PublicHandler{quotes: quotes, suppliers: suppliers}
}

// GetQuoteRequest handles GET /api/public/quote-requests/{id}?token=.
func (h *PublicHandler) GetQuoteRequest(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	access := middleware.GetSupplierAccess(r.Context())
	if access == nil {
		response.Err(w, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid access token", requestID)
		return
	}

	req, err := h.quotes.GetRequest(r.Context(), access.RequestID)
	if err != nil {
		slog.Error("failed to load quote request", "error", err)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load quote request", requestID)
		return
	}

	sup, err := h.suppliers.GetByID(r.Context(), access.SupplierID)
	if err != nil {
		slog.Error("failed to load supplier", "error", err)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load quote request", requestID)
		return
	}

	response.Success(w, http.StatusOK, publicRequestResponse{
		Request: toQuoteRequestResponse(req),
		Supplier: supplierSummary{
			ID:            sup.ID.String(),
			SupplierName:  sup.SupplierName,
			Email:         sup.Email,
			ContactPerson: sup.ContactPerson,
		},
	}, requestID)
}

// SubmitQuote handles POST /api/public/quote-requests/{id}/submit-quote?token=.
// The quote is always attached to the invitation the token resolved to;
// identifiers in the body are ignored.
func (h *PublicHandler) SubmitQuote(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	access := middleware.GetSupplierAccess(r.Context())
	if access == nil {
		response.Err(w, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid access token", requestID)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req submitQuoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_JSON", "Request body must be valid JSON", requestID)
		return
	}

	fieldErrors := validation.ValidateSubmitQuote(validation.SubmitQuoteRequest{
		UnitPrice:    req.UnitPrice,
		Currency:     req.Currency,
		LeadTimeDays: req.LeadTimeDays,
	})
	var validUntil *time.Time
	if req.ValidUntil != "" {
		parsed, err := time.Parse(time.RFC3339, req.ValidUntil)
		if err != nil {
			fieldErrors = append(fieldErrors, validation.FieldError{Field: "validUntil", Message: "validUntil must be an RFC 3339 timestamp"})
		} else {
			validUntil = &parsed
		}
	}
	if len(fieldErrors) > 0 {
		response.ErrWithDetails(w, http.StatusBadRequest, "VALIDATION_ERROR", "Input validation failed", fieldErrors, requestID)
		return
	}

	q := &quote.Quote{
		RequestSupplier: access.InvitationID,
		UnitPrice:       req.UnitPrice,
		Currency:        req.Currency,
		LeadTimeDays:    req.LeadTimeDays,
		ValidUntil:      validUntil,
		Notes:           req.Notes,
		Status:          quote.QuoteSubmitted,
	}
	if err := h.quotes.CreateQuote(r.Context(), q); err != nil {
		slog.Error("failed to create quote", "error", err)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to submit quote", requestID)
		return
	}

	slog.Info("quote submitted", "requestId", access.RequestID, "supplierId", access.SupplierID, "quoteId", q.ID)
	response.Success(w, http.StatusCreated, toQuoteResponse(q), requestID)
}
