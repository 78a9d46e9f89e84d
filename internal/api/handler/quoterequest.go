package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/quotelink/quotelink/internal/api/middleware"
	"github.com/quotelink/quotelink/internal/api/response"
	"github.com/quotelink/quotelink/internal/api/validation"
	"github.com/quotelink/quotelink/internal/mail"
	"github.com/quotelink/quotelink/internal/quote"
	"github.com/quotelink/quotelink/internal/supplier"
	"github.com/quotelink/quotelink/internal/token"
)

type createQuoteRequestRequest struct {
	Title    string  `json:"title"`
	Material string  `json:"material"`
	Quantity float64 `json:"quantity"`
	Unit     string  `json:"unit"`
	Notes    string  `json:"notes"`
	DueDate  string  `json:"dueDate"`
}

type inviteSupplierRequest struct {
	SupplierID string `json:"supplierId"`
}

type quoteRequestResponse struct {
	ID        string  `json:"id"`
	Title     string  `json:"title"`
	Material  string  `json:"material"`
	Quantity  float64 `json:"quantity"`
	Unit      string  `json:"unit"`
	Notes     string  `json:"notes,omitempty"`
	Status    string  `json:"status"`
	DueDate   *string `json:"dueDate,omitempty"`
	CreatedAt string  `json:"createdAt"`
}

type invitationResponse struct {
	ID             string `json:"id"`
	RequestID      string `json:"requestId"`
	SupplierID     string `json:"supplierId"`
	TokenExpiresAt string `json:"tokenExpiresAt"`
	InvitedAt      string `json:"invitedAt"`
	EmailSent      bool   `json:"emailSent"`
}

type quoteResponse struct {
	ID           string  `json:"id"`
	InvitationID string  `json:"invitationId"`
	UnitPrice    float64 `json:"unitPrice"`
	Currency     string  `json:"currency"`
	LeadTimeDays int     `json:"leadTimeDays"`
	ValidUntil   *string `json:"validUntil,omitempty"`
	Notes        string  `json:"notes,omitempty"`
	Status       string  `json:"status"`
	CreatedAt    string  `json:"createdAt"`
}

func toQuoteRequestResponse(r *quote.Request) quoteRequestResponse {
	resp := quoteRequestResponse{
		ID:        r.ID.String(),
		Title:     r.Title,
		Material:  r.Material,
		Quantity:  r.Quantity,
		Unit:      r.Unit,
		Notes:     r.Notes,
		Status:    r.Status,
		CreatedAt: r.CreatedAt.UTC().Format(time.RFC3339),
	}
	if r.DueDate != nil {
		due := r.DueDate.UTC().Format(time.RFC3339)
		resp.DueDate = &due
	}
	return resp
}

func toQuoteResponse(q *quote.Quote) quoteResponse {
	resp := quoteResponse{
		ID:           q.ID.String(),
		InvitationID: q.RequestSupplier.String(),
		UnitPrice:    q.UnitPrice,
		Currency:     q.Currency,
		LeadTimeDays: q.LeadTimeDays,
		Notes:        q.Notes,
		Status:       q.Status,
		CreatedAt:    q.CreatedAt.UTC().Format(time.RFC3339),
	}
	if q.ValidUntil != nil {
		v := q.ValidUntil.UTC().Format(time.RFC3339)
		resp.ValidUntil = &v
	}
	return resp
}

// QuoteRequestHandler handles the procurement-side quote request endpoints.
type QuoteRequestHandler struct {
	quotes    quote.Repository
	suppliers supplier.Repository
	mailer    mail.Mailer
	baseURL   string
}

// NewQuoteRequestHandler creates a new QuoteRequestHandler.
func NewQuoteRequestHandler(quotes quote.Repository, suppliers supplier.Repository, mailer mail.Mailer, baseURL string) *QuoteRequestHandler {
	return &QuoteRequestHandler{quotes: quotes, suppliers: suppliers, mailer: mailer, baseURL: baseURL}
}

// Create handles POST /api/quote-requests.
func (h *QuoteRequestHandler) Create(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	identity := middleware.GetIdentity(r.Context())
	if identity == nil {
		response.Err(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required", requestID)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req createQuoteRequestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_JSON", "Request body must be valid JSON", requestID)
		return
	}

	fieldErrors := validation.ValidateCreateQuoteRequest(validation.CreateQuoteRequestRequest{
		Title:    req.Title,
		Material: req.Material,
		Quantity: req.Quantity,
		Unit:     req.Unit,
	})
	var dueDate *time.Time
	if req.DueDate != "" {
		parsed, err := time.Parse(time.RFC3339, req.DueDate)
		if err != nil {
			fieldErrors = append(fieldErrors, validation.FieldError{Field: "dueDate", Message: "dueDate must be an RFC 3339 timestamp"})
		} else {
			dueDate = &parsed
		}
	}
	if len(fieldErrors) > 0 {
		response.ErrWithDetails(w, http.StatusBadRequest, "VALIDATION_ERROR", "Input validation failed", fieldErrors, requestID)
		return
	}

	qr := &quote.Request{
		Title:     req.Title,
		Material:  req.Material,
		Quantity:  req.Quantity,
		Unit:      req.Unit,
		Notes:     req.Notes,
		Status:    quote.RequestOpen,
		DueDate:   dueDate,
		CreatedBy: identity.UserID,
	}
	if err := h.quotes.CreateRequest(r.Context(), qr); err != nil {
		slog.Error("failed to create quote request", "error", err)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create quote request", requestID)
		return
	}

	response.Success(w, http.StatusCreated, toQuoteRequestResponse(qr), requestID)
}

// List handles GET /api/quote-requests.
func (h *QuoteRequestHandler) List(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	requests, err := h.quotes.ListRequests(r.Context())
	if err != nil {
		slog.Error("failed to list quote requests", "error", err)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list quote requests", requestID)
		return
	}

	out := make([]quoteRequestResponse, 0, len(requests))
	for i := range requests {
		out = append(out, toQuoteRequestResponse(&requests[i]))
	}

	response.SuccessList(w, http.StatusOK, out, len(out), 1, len(out), requestID)
}

// GetByID handles GET /api/quote-requests/{id}.
func (h *QuoteRequestHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_ID", "Quote request ID must be a valid UUID", requestID)
		return
	}

	qr, err := h.quotes.GetRequest(r.Context(), id)
	if err != nil {
		if errors.Is(err, quote.ErrRequestNotFound) {
			response.Err(w, http.StatusNotFound, "NOT_FOUND", "Quote request not found", requestID)
			return
		}
		slog.Error("failed to get quote request", "error", err)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to get quote request", requestID)
		return
	}

	response.Success(w, http.StatusOK, toQuoteRequestResponse(qr), requestID)
}

// Invite handles POST /api/quote-requests/{id}/invite. It issues the scoped
// access token for the (request, supplier) pair, overwriting any previous
// one, and mails the capability URL to the supplier.
func (h *QuoteRequestHandler) Invite(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_ID", "Quote request ID must be a valid UUID", requestID)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req inviteSupplierRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_JSON", "Request body must be valid JSON", requestID)
		return
	}

	supplierID, err := uuid.Parse(req.SupplierID)
	if err != nil {
		response.ErrWithDetails(w, http.StatusBadRequest, "VALIDATION_ERROR", "Input validation failed",
			[]validation.FieldError{{Field: "supplierId", Message: "supplierId must be a valid UUID"}}, requestID)
		return
	}

	qr, err := h.quotes.GetRequest(r.Context(), id)
	if err != nil {
		if errors.Is(err, quote.ErrRequestNotFound) {
			response.Err(w, http.StatusNotFound, "NOT_FOUND", "Quote request not found", requestID)
			return
		}
		slog.Error("failed to get quote request", "error", err)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to invite supplier", requestID)
		return
	}

	sup, err := h.suppliers.GetByID(r.Context(), supplierID)
	if err != nil {
		if errors.Is(err, supplier.ErrSupplierNotFound) {
			response.Err(w, http.StatusNotFound, "NOT_FOUND", "Supplier not found", requestID)
			return
		}
		slog.Error("failed to get supplier", "error", err)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to invite supplier", requestID)
		return
	}

	// The access token is a capability embedded in the URL; the secret
	// itself is stored, not a hash.
	secret, _, err := token.Generate()
	if err != nil {
		slog.Error("failed to generate access token", "error", err)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to invite supplier", requestID)
		return
	}

	inv := &quote.Invitation{
		RequestID:      qr.ID,
		SupplierID:     sup.ID,
		AccessToken:    secret,
		TokenExpiresAt: time.Now().Add(quote.AccessTokenExpiry),
	}
	if err := h.quotes.Invite(r.Context(), inv); err != nil {
		slog.Error("failed to store invitation", "error", err)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to invite supplier", requestID)
		return
	}

	accessURL := h.baseURL + "/api/public/quote-requests/" + qr.ID.String() + "?token=" + secret
	emailSent := true
	if err := h.mailer.SendInvitation(r.Context(), sup.Email, qr.Title, accessURL); err != nil {
		// The invitation row is already live; report the delivery failure
		// instead of rolling back so the admin can resend.
		slog.Error("failed to send invitation mail", "supplierId", sup.ID, "error", err)
		emailSent = false
	}

	response.Success(w, http.StatusCreated, invitationResponse{
		ID:             inv.ID.String(),
		RequestID:      inv.RequestID.String(),
		SupplierID:     inv.SupplierID.String(),
		TokenExpiresAt: inv.TokenExpiresAt.UTC().Format(time.RFC3339),
		InvitedAt:      inv.InvitedAt.UTC().Format(time.RFC3339),
		EmailSent:      emailSent,
	}, requestID)
}

// ListQuotes handles GET /api/quote-requests/{id}/quotes.
func (h *QuoteRequestHandler) ListQuotes(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_ID", "Quote request ID must be a valid UUID", requestID)
		return
	}

	quotes, err := h.quotes.ListQuotesByRequest(r.Context(), id)
	if err != nil {
		slog.Error("failed to list quotes", "error", err)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list quotes", requestID)
		return
	}

	out := make([]quoteResponse, 0, len(quotes))
	for i := range quotes {
		out = append(out, toQuoteResponse(&quotes[i]))
	}

	response.SuccessList(w, http.StatusOK, out, len(out), 1, len(out), requestID)
}

// ApproveQuote handles POST /api/quotes/{id}/approve.
func (h *QuoteRequestHandler) ApproveQuote(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_ID", "Quote ID must be a valid UUID", requestID)
		return
	}

	q, err := h.quotes.SetQuoteStatus(r.Context(), id, quote.QuoteApproved)
	if err != nil {
		if errors.Is(err, quote.ErrQuoteNotFound) {
			response.Err(w, http.StatusNotFound, "NOT_FOUND", "Quote not found", requestID)
			return
		}
		slog.Error("failed to approve quote", "error", err)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to approve quote", requestID)
		return
	}

	slog.Info("quote approved", "quoteId", q.ID)
	response.Success(w, http.StatusOK, toQuoteResponse(q), requestID)
}
