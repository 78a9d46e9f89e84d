package handler_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quotelink/quotelink/internal/api/handler"
	"github.com/quotelink/quotelink/internal/api/middleware"
	"github.com/quotelink/quotelink/internal/auth"
	"github.com/quotelink/quotelink/internal/quote"
	"github.com/quotelink/quotelink/internal/supplier"
)

type publicFixture struct {
	request    *quote.Request
	supplier   *supplier.Supplier
	invitation quote.Invitation
	quotes     *mockQuoteRepo
	created    *quote.Quote
}

func newPublicFixture(t *testing.T) *publicFixture {
	t.Helper()

	sup := activeSupplier("parts@acme.test")
	req := &quote.Request{
		ID:        uuid.New(),
		Title:     "Steel plate 10mm",
		Material:  "S355",
		Quantity:  500,
		Unit:      "kg",
		Status:    quote.RequestOpen,
		CreatedBy: uuid.New(),
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	inv := quote.Invitation{
		ID:             uuid.New(),
		RequestID:      req.ID,
		SupplierID:     sup.ID,
		AccessToken:    "tok-alpha",
		TokenExpiresAt: time.Now().Add(time.Hour),
		InvitedAt:      time.Now().UTC(),
	}

	fx := &publicFixture{request: req, supplier: sup, invitation: inv}
	fx.quotes = &mockQuoteRepo{
		getRequestFn: func(_ context.Context, id uuid.UUID) (*quote.Request, error) {
			if id == req.ID {
				return req, nil
			}
			return nil, quote.ErrRequestNotFound
		},
		listInvitationsFn: func(_ context.Context, requestID uuid.UUID) ([]quote.Invitation, error) {
			if requestID == req.ID {
				return []quote.Invitation{inv}, nil
			}
			return nil, nil
		},
		createQuoteFn: func(_ context.Context, q *quote.Quote) error {
			q.ID = uuid.New()
			q.CreatedAt = time.Now().UTC()
			fx.created = q
			return nil
		},
	}
	return fx
}

// serve runs the request through ScopedToken exactly like the public route
// group does.
func (fx *publicFixture) serve(t *testing.T, method, path string, body []byte, handlerFn http.HandlerFunc) *httptest.ResponseRecorder {
	t.Helper()

	req, w := makeChiRequest(method, path, body, map[string]string{"id": fx.request.ID.String()})
	chain := middleware.ScopedToken(auth.NewScopedAuthenticator(fx.quotes))(handlerFn)
	chain.ServeHTTP(w, req)
	return w
}

func newPublicHandler(fx *publicFixture) *handler.PublicHandler {
	suppliers := &mockSupplierRepo{
		getByIDFn: func(_ context.Context, id uuid.UUID) (*supplier.Supplier, error) {
			if id == fx.supplier.ID {
				return fx.supplier, nil
			}
			return nil, supplier.ErrSupplierNotFound
		},
	}
	return handler.NewPublicHandler(fx.quotes, suppliers)
}

func TestPublicGetQuoteRequest_Success(t *testing.T) {
	fx := newPublicFixture(t)
	h := newPublicHandler(fx)

	path := "/api/public/quote-requests/" + fx.request.ID.String() + "?token=" + fx.invitation.AccessToken
	w := fx.serve(t, http.MethodGet, path, nil, h.GetQuoteRequest)

	assert.Equal(t, http.StatusOK, w.Code)
	data := dataObj(t, w)
	reqData := data["request"].(map[string]interface{})
	assert.Equal(t, fx.request.ID.String(), reqData["id"])
	assert.Equal(t, fx.request.Title, reqData["title"])
	supData := data["supplier"].(map[string]interface{})
	assert.Equal(t, fx.supplier.ID.String(), supData["id"])
}

func TestPublicGetQuoteRequest_WrongToken(t *testing.T) {
	fx := newPublicFixture(t)
	h := newPublicHandler(fx)

	path := "/api/public/quote-requests/" + fx.request.ID.String() + "?token=tok-wrong"
	w := fx.serve(t, http.MethodGet, path, nil, h.GetQuoteRequest)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestPublicSubmitQuote_Success(t *testing.T) {
	fx := newPublicFixture(t)
	h := newPublicHandler(fx)

	body := jsonBody(t, map[string]interface{}{
		"unitPrice":    12.5,
		"currency":     "EUR",
		"leadTimeDays": 14,
		"notes":        "FCA our works",
	})
	path := "/api/public/quote-requests/" + fx.request.ID.String() + "/submit-quote?token=" + fx.invitation.AccessToken
	w := fx.serve(t, http.MethodPost, path, body, h.SubmitQuote)

	assert.Equal(t, http.StatusCreated, w.Code)
	data := dataObj(t, w)
	assert.Equal(t, fx.invitation.ID.String(), data["invitationId"])
	assert.Equal(t, quote.QuoteSubmitted, data["status"])

	require.NotNil(t, fx.created)
	assert.Equal(t, fx.invitation.ID, fx.created.RequestSupplier)
	assert.Equal(t, 12.5, fx.created.UnitPrice)
}

func TestPublicSubmitQuote_BodyIdentifiersIgnored(t *testing.T) {
	fx := newPublicFixture(t)
	h := newPublicHandler(fx)

	// A forged invitation ID in the body must not override the one the
	// token resolved to.
	body := jsonBody(t, map[string]interface{}{
		"unitPrice":    9.0,
		"currency":     "EUR",
		"leadTimeDays": 7,
		"invitationId": uuid.NewString(),
		"requestId":    uuid.NewString(),
	})
	path := "/api/public/quote-requests/" + fx.request.ID.String() + "/submit-quote?token=" + fx.invitation.AccessToken
	w := fx.serve(t, http.MethodPost, path, body, h.SubmitQuote)

	assert.Equal(t, http.StatusCreated, w.Code)
	require.NotNil(t, fx.created)
	assert.Equal(t, fx.invitation.ID, fx.created.RequestSupplier)
}

func TestPublicSubmitQuote_ValidationErrors(t *testing.T) {
	fx := newPublicFixture(t)
	h := newPublicHandler(fx)

	body := jsonBody(t, map[string]interface{}{
		"unitPrice":    0,
		"currency":     "",
		"leadTimeDays": -1,
	})
	path := "/api/public/quote-requests/" + fx.request.ID.String() + "/submit-quote?token=" + fx.invitation.AccessToken
	w := fx.serve(t, http.MethodPost, path, body, h.SubmitQuote)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", errorObj(t, w)["code"])
	assert.Nil(t, fx.created)
}

func TestPublicSubmitQuote_BadValidUntil(t *testing.T) {
	fx := newPublicFixture(t)
	h := newPublicHandler(fx)

	body := jsonBody(t, map[string]interface{}{
		"unitPrice":    12.5,
		"currency":     "EUR",
		"leadTimeDays": 14,
		"validUntil":   "next tuesday",
	})
	path := "/api/public/quote-requests/" + fx.request.ID.String() + "/submit-quote?token=" + fx.invitation.AccessToken
	w := fx.serve(t, http.MethodPost, path, body, h.SubmitQuote)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", errorObj(t, w)["code"])
}

func TestPublicSubmitQuote_ExpiredToken(t *testing.T) {
	fx := newPublicFixture(t)
	fx.invitation.TokenExpiresAt = time.Now().Add(-time.Minute)
	expired := fx.invitation
	fx.quotes.listInvitationsFn = func(_ context.Context, _ uuid.UUID) ([]quote.Invitation, error) {
		return []quote.Invitation{expired}, nil
	}
	h := newPublicHandler(fx)

	body := jsonBody(t, map[string]interface{}{"unitPrice": 12.5, "currency": "EUR", "leadTimeDays": 14})
	path := "/api/public/quote-requests/" + fx.request.ID.String() + "/submit-quote?token=" + fx.invitation.AccessToken
	w := fx.serve(t, http.MethodPost, path, body, h.SubmitQuote)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Nil(t, fx.created)
}
