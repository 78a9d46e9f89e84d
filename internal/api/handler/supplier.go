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
	"github.com/quotelink/quotelink/internal/supplier"
)

type supplierPayload struct {
	Email         string `json:"email"`
	SupplierName  string `json:"supplierName"`
	ContactPerson string `json:"contactPerson"`
	Active        *bool  `json:"active"`
}

type supplierResponse struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	SupplierName  string `json:"supplierName"`
	ContactPerson string `json:"contactPerson"`
	Active        bool   `json:"active"`
	CreatedAt     string `json:"createdAt"`
}

func toSupplierResponse(s *supplier.Supplier) supplierResponse {
	return supplierResponse{
		ID:            s.ID.String(),
		Email:         s.Email,
		SupplierName:  s.SupplierName,
		ContactPerson: s.ContactPerson,
		Active:        s.Active,
		CreatedAt:     s.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// SupplierHandler handles supplier CRUD endpoints.
type SupplierHandler struct {
	suppliers supplier.Repository
}

// NewSupplierHandler creates a new SupplierHandler.
func NewSupplierHandler(suppliers supplier.Repository) *SupplierHandler {
	return &SupplierHandler{suppliers: suppliers}
}

// Create handles POST /api/suppliers.
func (h *SupplierHandler) Create(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req supplierPayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_JSON", "Request body must be valid JSON", requestID)
		return
	}

	fieldErrors := validation.ValidateSupplierRequest(validation.SupplierRequest{
		Email:         req.Email,
		SupplierName:  req.SupplierName,
		ContactPerson: req.ContactPerson,
	})
	if len(fieldErrors) > 0 {
		response.ErrWithDetails(w, http.StatusBadRequest, "VALIDATION_ERROR", "Input validation failed", fieldErrors, requestID)
		return
	}

	s := &supplier.Supplier{
		Email:         req.Email,
		SupplierName:  req.SupplierName,
		ContactPerson: req.ContactPerson,
		Active:        true,
	}
	if err := h.suppliers.Create(r.Context(), s); err != nil {
		if errors.Is(err, supplier.ErrEmailTaken) {
			response.Err(w, http.StatusConflict, "CONFLICT", "Supplier email already registered", requestID)
			return
		}
		slog.Error("failed to create supplier", "error", err)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create supplier", requestID)
		return
	}

	response.Success(w, http.StatusCreated, toSupplierResponse(s), requestID)
}

// List handles GET /api/suppliers.
func (h *SupplierHandler) List(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	suppliers, err := h.suppliers.List(r.Context())
	if err != nil {
		slog.Error("failed to list suppliers", "error", err)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list suppliers", requestID)
		return
	}

	out := make([]supplierResponse, 0, len(suppliers))
	for i := range suppliers {
		out = append(out, toSupplierResponse(&suppliers[i]))
	}

	response.SuccessList(w, http.StatusOK, out, len(out), 1, len(out), requestID)
}

// GetByID handles GET /api/suppliers/{id}.
func (h *SupplierHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_ID", "Supplier ID must be a valid UUID", requestID)
		return
	}

	s, err := h.suppliers.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, supplier.ErrSupplierNotFound) {
			response.Err(w, http.StatusNotFound, "NOT_FOUND", "Supplier not found", requestID)
			return
		}
		slog.Error("failed to get supplier", "error", err)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to get supplier", requestID)
		return
	}

	response.Success(w, http.StatusOK, toSupplierResponse(s), requestID)
}

// Update handles PATCH /api/suppliers/{id}.
func (h *SupplierHandler) Update(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_ID", "Supplier ID must be a valid UUID", requestID)
		return
	}

	s, err := h.suppliers.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, supplier.ErrSupplierNotFound) {
			response.Err(w, http.StatusNotFound, "NOT_FOUND", "Supplier not found", requestID)
			return
		}
		slog.Error("failed to get supplier", "error", err)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to update supplier", requestID)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req supplierPayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_JSON", "Request body must be valid JSON", requestID)
		return
	}

	if req.SupplierName != "" {
		s.SupplierName = req.SupplierName
	}
	if req.ContactPerson != "" {
		s.ContactPerson = req.ContactPerson
	}
	if req.Active != nil {
		s.Active = *req.Active
	}

	if err := h.suppliers.Update(r.Context(), s); err != nil {
		slog.Error("failed to update supplier", "error", err)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to update supplier", requestID)
		return
	}

	response.Success(w, http.StatusOK, toSupplierResponse(s), requestID)
}
