package auth_test

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/quotelink/quotelink/internal/linktoken"
	"github.com/quotelink/quotelink/internal/quote"
	"github.com/quotelink/quotelink/internal/supplier"
	"github.com/quotelink/quotelink/internal/user"
)

const testBcryptCost = 4 // low cost for fast tests

// --- Mock User Repository ---

type mockUserRepo struct {
	createFn          func(ctx context.Context, u *user.User) error
	getByIDFn         func(ctx context.Context, id uuid.UUID) (*user.User, error)
	getByEmailFn      func(ctx context.Context, email string) (*user.User, error)
	listFn            func(ctx context.Context) ([]user.User, error)
	setPasswordHashFn func(ctx context.Context, id uuid.UUID, hash string) error
	updateFn          func(ctx context.Context, id uuid.UUID, role *string, active *bool) (*user.User, error)
}

func (m *mockUserRepo) Create(ctx context.Context, u *user.User) error {
	if m.createFn != nil {
		return m.createFn(ctx, u)
	}
	u.ID = uuid.New()
	u.CreatedAt = time.Now().UTC()
	u.UpdatedAt = u.CreatedAt
	return nil
}

func (m *mockUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, user.ErrUserNotFound
}

func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	if m.getByEmailFn != nil {
		return m.getByEmailFn(ctx, email)
	}
	return nil, user.ErrUserNotFound
}

func (m *mockUserRepo) List(ctx context.Context) ([]user.User, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return []user.User{}, nil
}

func (m *mockUserRepo) SetPasswordHash(ctx context.Context, id uuid.UUID, hash string) error {
	if m.setPasswordHashFn != nil {
		return m.setPasswordHashFn(ctx, id, hash)
	}
	return nil
}

func (m *mockUserRepo) Update(ctx context.Context, id uuid.UUID, role *string, active *bool) (*user.User, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, id, role, active)
	}
	return nil, user.ErrUserNotFound
}

// --- Mock Supplier Repository ---

type mockSupplierRepo struct {
	createFn     func(ctx context.Context, s *supplier.Supplier) error
	getByIDFn    func(ctx context.Context, id uuid.UUID) (*supplier.Supplier, error)
	getByEmailFn func(ctx context.Context, email string) (*supplier.Supplier, error)
	listFn       func(ctx context.Context) ([]supplier.Supplier, error)
	updateFn     func(ctx context.Context, s *supplier.Supplier) error
}

func (m *mockSupplierRepo) Create(ctx context.Context, s *supplier.Supplier) error {
	if m.createFn != nil {
		return m.createFn(ctx, s)
	}
	s.ID = uuid.New()
	s.CreatedAt = time.Now().UTC()
	s.UpdatedAt = s.CreatedAt
	return nil
}

func (m *mockSupplierRepo) GetByID(ctx context.Context, id uuid.UUID) (*supplier.Supplier, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, supplier.ErrSupplierNotFound
}

func (m *mockSupplierRepo) GetByEmail(ctx context.Context, email string) (*supplier.Supplier, error) {
	if m.getByEmailFn != nil {
		return m.getByEmailFn(ctx, email)
	}
	return nil, supplier.ErrSupplierNotFound
}

func (m *mockSupplierRepo) List(ctx context.Context) ([]supplier.Supplier, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return []supplier.Supplier{}, nil
}

func (m *mockSupplierRepo) Update(ctx context.Context, s *supplier.Supplier) error {
	if m.updateFn != nil {
		return m.updateFn(ctx, s)
	}
	return nil
}

// --- Mock Link Token Repository ---

type mockTokenRepo struct {
	createFn               func(ctx context.Context, t *linktoken.Token) error
	getByHashFn            func(ctx context.Context, hash string) (*linktoken.Token, error)
	claimFn                func(ctx context.Context, id uuid.UUID) error
	consumePasswordSetupFn func(ctx context.Context, tokenID, userID uuid.UUID, passwordHash string) error
	purgeExpiredFn         func(ctx context.Context) (int64, error)
}

func (m *mockTokenRepo) Create(ctx context.Context, t *linktoken.Token) error {
	if m.createFn != nil {
		return m.createFn(ctx, t)
	}
	t.ID = uuid.New()
	t.CreatedAt = time.Now().UTC()
	return nil
}

func (m *mockTokenRepo) GetByHash(ctx context.Context, hash string) (*linktoken.Token, error) {
	if m.getByHashFn != nil {
		return m.getByHashFn(ctx, hash)
	}
	return nil, linktoken.ErrTokenNotFound
}

func (m *mockTokenRepo) Claim(ctx context.Context, id uuid.UUID) error {
	if m.claimFn != nil {
		return m.claimFn(ctx, id)
	}
	return nil
}

func (m *mockTokenRepo) ConsumePasswordSetup(ctx context.Context, tokenID, userID uuid.UUID, passwordHash string) error {
	if m.consumePasswordSetupFn != nil {
		return m.consumePasswordSetupFn(ctx, tokenID, userID, passwordHash)
	}
	return nil
}

func (m *mockTokenRepo) PurgeExpired(ctx context.Context) (int64, error) {
	if m.purgeExpiredFn != nil {
		return m.purgeExpiredFn(ctx)
	}
	return 0, nil
}

// --- Mock Quote Repository ---

type mockQuoteRepo struct {
	createRequestFn               func(ctx context.Context, r *quote.Request) error
	getRequestFn                  func(ctx context.Context, id uuid.UUID) (*quote.Request, error)
	listRequestsFn                func(ctx context.Context) ([]quote.Request, error)
	inviteFn                      func(ctx context.Context, inv *quote.Invitation) error
	listInvitationsFn             func(ctx context.Context, requestID uuid.UUID) ([]quote.Invitation, error)
	countInvitationsForSupplierFn func(ctx context.Context, supplierID uuid.UUID) (int, error)
	listRequestsForSupplierFn     func(ctx context.Context, supplierID uuid.UUID) ([]quote.Request, error)
	createQuoteFn                 func(ctx context.Context, q *quote.Quote) error
	listQuotesByRequestFn         func(ctx context.Context, requestID uuid.UUID) ([]quote.Quote, error)
	setQuoteStatusFn              func(ctx context.Context, id uuid.UUID, status string) (*quote.Quote, error)
}

func (m *mockQuoteRepo) CreateRequest(ctx context.Context, r *quote.Request) error {
	if m.createRequestFn != nil {
		return m.createRequestFn(ctx, r)
	}
	r.ID = uuid.New()
	r.CreatedAt = time.Now().UTC()
	r.UpdatedAt = r.CreatedAt
	return nil
}

func (m *mockQuoteRepo) GetRequest(ctx context.Context, id uuid.UUID) (*quote.Request, error) {
	if m.getRequestFn != nil {
		return m.getRequestFn(ctx, id)
	}
	return nil, quote.ErrRequestNotFound
}

func (m *mockQuoteRepo) ListRequests(ctx context.Context) ([]quote.Request, error) {
	if m.listRequestsFn != nil {
		return m.listRequestsFn(ctx)
	}
	return []quote.Request{}, nil
}

func (m *mockQuoteRepo) Invite(ctx context.Context, inv *quote.Invitation) error {
	if m.inviteFn != nil {
		return m.inviteFn(ctx, inv)
	}
	inv.ID = uuid.New()
	inv.InvitedAt = time.Now().UTC()
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

func (m *mockQuoteRepo) ListRequestsForSupplier(ctx context.Context, supplierID uuid.UUID) ([]quote.Request, error) {
	if m.listRequestsForSupplierFn != nil {
		return m.listRequestsForSupplierFn(ctx, supplierID)
	}
	return []quote.Request{}, nil
}

func (m *mockQuoteRepo) CreateQuote(ctx context.Context, q *quote.Quote) error {
	if m.createQuoteFn != nil {
		return m.createQuoteFn(ctx, q)
	}
	q.ID = uuid.New()
	q.CreatedAt = time.Now().UTC()
	return nil
}

func (m *mockQuoteRepo) ListQuotesByRequest(ctx context.Context, requestID uuid.UUID) ([]quote.Quote, error) {
	if m.listQuotesByRequestFn != nil {
		return m.listQuotesByRequestFn(ctx, requestID)
	}
	return []quote.Quote{}, nil
}

func (m *mockQuoteRepo) SetQuoteStatus(ctx context.Context, id uuid.UUID, status string) (*quote.Quote, error) {
	if m.setQuoteStatusFn != nil {
		return m.setQuoteStatusFn(ctx, id, status)
	}
	return nil, quote.ErrQuoteNotFound
}

// --- Mock Mailer ---

type sentMail struct {
	kind string
	to   string
	url  string
}

type mockMailer struct {
	sent   []sentMail
	failFn func(kind string) error
}

func (m *mockMailer) SendMagicLink(_ context.Context, to, loginURL string) error {
	if m.failFn != nil {
		if err := m.failFn("magic"); err != nil {
			return err
		}
	}
	m.sent = append(m.sent, sentMail{kind: "magic", to: to, url: loginURL})
	return nil
}

func (m *mockMailer) SendPasswordSetup(_ context.Context, to, setupURL string) error {
	if m.failFn != nil {
		if err := m.failFn("setup"); err != nil {
			return err
		}
	}
	m.sent = append(m.sent, sentMail{kind: "setup", to: to, url: setupURL})
	return nil
}

func (m *mockMailer) SendInvitation(_ context.Context, to, requestTitle, accessURL string) error {
	if m.failFn != nil {
		if err := m.failFn("invitation"); err != nil {
			return err
		}
	}
	m.sent = append(m.sent, sentMail{kind: "invitation", to: to, url: accessURL})
	return nil
}
