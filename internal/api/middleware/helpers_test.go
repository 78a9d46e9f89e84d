package middleware_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/quotelink/quotelink/internal/quote"
	"github.com/quotelink/quotelink/internal/supplier"
	"github.com/quotelink/quotelink/internal/user"
)

const testSessionSecret = "middleware-test-secret"

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func parseEnvelope(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var env map[string]interface{}
	err := json.Unmarshal(w.Body.Bytes(), &env)
	require.NoError(t, err, "failed to parse response body")
	return env
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	env := parseEnvelope(t, w)
	errObj, ok := env["error"].(map[string]interface{})
	require.True(t, ok, "response should carry an error object")
	code, _ := errObj["code"].(string)
	return code
}

// --- Mock User Repository ---

type mockUserRepo struct {
	getByIDFn func(ctx context.Context, id uuid.UUID) (*user.User, error)
}

func (m *mockUserRepo) Create(_ context.Context, u *user.User) error {
	u.ID = uuid.New()
	return nil
}

func (m *mockUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, user.ErrUserNotFound
}

func (m *mockUserRepo) GetByEmail(_ context.Context, _ string) (*user.User, error) {
	return nil, user.ErrUserNotFound
}

func (m *mockUserRepo) List(_ context.Context) ([]user.User, error) {
	return []user.User{}, nil
}

func (m *mockUserRepo) SetPasswordHash(_ context.Context, _ uuid.UUID, _ string) error {
	return nil
}

func (m *mockUserRepo) Update(_ context.Context, _ uuid.UUID, _ *string, _ *bool) (*user.User, error) {
	return nil, user.ErrUserNotFound
}

// --- Mock Supplier Repository ---

type mockSupplierRepo struct {
	getByEmailFn func(ctx context.Context, email string) (*supplier.Supplier, error)
}

func (m *mockSupplierRepo) Create(_ context.Context, s *supplier.Supplier) error {
	s.ID = uuid.New()
	return nil
}

func (m *mockSupplierRepo) GetByID(_ context.Context, _ uuid.UUID) (*supplier.Supplier, error) {
	return nil, supplier.ErrSupplierNotFound
}

func (m *mockSupplierRepo) GetByEmail(ctx context.Context, email string) (*supplier.Supplier, error) {
	if m.getByEmailFn != nil {
		return m.getByEmailFn(ctx, email)
	}
	return nil, supplier.ErrSupplierNotFound
}

func (m *mockSupplierRepo) List(_ context.Context) ([]supplier.Supplier, error) {
	return []supplier.Supplier{}, nil
}

func (m *mockSupplierRepo) Update(_ context.Context, _ *supplier.Supplier) error {
	return nil
}

// --- Mock Quote Repository ---

type mockQuoteRepo struct {
	listInvitationsFn             func(ctx context.Context, requestID uuid.UUID) ([]quote.Invitation, error)
	countInvitationsForSupplierFn func(ctx context.Context, supplierID uuid.UUID) (int, error)
}

func (m *mockQuoteRepo) CreateRequest(_ context.Context, r *quote.Request) error {
	r.ID = uuid.New()
	return nil
}

func (m *mockQuoteRepo) GetRequest(_ context.Context, _ uuid.UUID) (*quote.Request, error) {
	return nil, quote.ErrRequestNotFound
}

func (m *mockQuoteRepo) ListRequests(_ context.Context) ([]quote.Request, error) {
	return []quote.Request{}, nil
}

func (m *mockQuoteRepo) Invite(_ context.Context, inv *quote.Invitation) error {
	inv.ID = uuid.New()
	return nil
}

func (m *mockQuoteRepo) ListInvitations(ctx context.Context, requestID uuid.UUID) ([]quote.Invitation, error) {
	if m.listInvitationsFn != nil {
		return m.listInvitationsFn(ctx, requestID)
	}
	return []quote.Invitation{}, nil
}

func (m *mockQuoteRepo) CountInvitationsForSupplier(ctx context.Context, supplierID uuid.UUID) (int, error) {
	if m.countInvitationsForSupplierFn != nil {
		return m.countInvitationsForSupplierFn(ctx, supplierID)
	}
	return 0, nil
}

func (m *mockQuoteRepo) ListRequestsForSupplier(_ context.Context, _ uuid.UUID) ([]quote.Request, error) {
	return []quote.Request{}, nil
}

func (m *mockQuoteRepo) CreateQuote(_ context.Context, q *quote.Quote) error {
	q.ID = uuid.New()
	return nil
}

func (m *mockQuoteRepo) ListQuotesByRequest(_ context.Context, _ uuid.UUID) ([]quote.Quote, error) {
	return []quote.Quote{}, nil
}

func (m *mockQuoteRepo) SetQuoteStatus(_ context.Context, _ uuid.UUID, _ string) (*quote.Quote, error) {
	return nil, quote.ErrQuoteNotFound
}

func activeInvitation(requestID uuid.UUID, token string) quote.Invitation {
	return quote.Invitation{
		ID:             uuid.New(),
		RequestID:      requestID,
		SupplierID:     uuid.New(),
		AccessToken:    token,
		TokenExpiresAt: time.Now().Add(time.Hour),
	}
}
