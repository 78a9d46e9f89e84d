package auth

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/quotelink/quotelink/internal/user"
)

// SessionCookie is the name of the session cookie.
const SessionCookie = "ql_session"

// SessionLifetime bounds how long a session cookie stays valid.
const SessionLifetime = 7 * 24 * time.Hour

// ErrNoSession is returned when the request carries no usable session.
var ErrNoSession = errors.New("no valid session")

// SessionClaims is what a parsed session cookie carries.
type SessionClaims struct {
	UserID uuid.UUID
	Email  string
	Type   AuthType
}

// SessionManager issues and reads stateless HS256-signed session cookies.
// Sessions being stateless is what lets magic-link verification claim the
// token before "creating" the session: signing cannot fail halfway.
type SessionManager struct {
	secret []byte
	secure bool
	now    func() time.Time
}

// NewSessionManager creates a SessionManager with the given signing secret.
// secure marks the cookie Secure so it is never sent over plaintext HTTP;
// it should be true whenever the portal is served over HTTPS.
func NewSessionManager(secret string, secure bool) *SessionManager {
	return &SessionManager{secret: []byte(secret), secure: secure, now: time.Now}
}

// Issue signs a session for the user and sets the cookie.
func (m *SessionManager) Issue(w http.ResponseWriter, u *user.User, at AuthType) error {
	now := m.now()
	claims := jwt.MapClaims{
		"sub":   u.ID.String(),
		"email": u.Email,
		"atype": string(at),
		"iat":   now.Unix(),
		"exp":   now.Add(SessionLifetime).Unix(),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return fmt.Errorf("signing session: %w", err)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    signed,
		Path:     "/",
		MaxAge:   int(SessionLifetime.Seconds()),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Clear expires the session cookie.
func (m *SessionManager) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Read parses and verifies the session cookie from a request.
func (m *SessionManager) Read(r *http.Request) (*SessionClaims, error) {
	cookie, err := r.Cookie(SessionCookie)
	if err != nil || cookie.Value == "" {
		return nil, ErrNoSession
	}

	parsed, err := jwt.Parse(cookie.Value, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return m.secret, nil
	}, jwt.WithTimeFunc(m.now))
	if err != nil || !parsed.Valid {
		return nil, ErrNoSession
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrNoSession
	}

	sub, _ := claims["sub"].(string)
	userID, err := uuid.Parse(sub)
	if err != nil {
		return nil, ErrNoSession
	}

	email, _ := claims["email"].(string)
	atype, _ := claims["atype"].(string)
	switch AuthType(atype) {
	case AuthClaims, AuthLocal, AuthSupplier:
	default:
		return nil, ErrNoSession
	}

	return &SessionClaims{UserID: userID, Email: email, Type: AuthType(atype)}, nil
}
