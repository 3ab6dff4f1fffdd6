// Package auth resolves caller identity on the record-keeping routes. JWT
// mode verifies HMAC-signed bearer tokens; dev mode trusts an X-User-ID
// header for local development.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/medreconcile/medreconcile-api/interfaces"
)

var (
	ErrNoCredentials   = errors.New("missing credentials")
	ErrInvalidToken    = errors.New("invalid token")
	ErrMissingIdentity = errors.New("token carries no user identity")
)

type contextKey struct{}

// PrincipalFromContext returns the authenticated principal stored by
// RequireAuth, or nil outside protected routes.
func PrincipalFromContext(ctx context.Context) *interfaces.Principal {
	p, _ := ctx.Value(contextKey{}).(*interfaces.Principal)
	return p
}

var _ interfaces.Authenticator = (*JWTAuthenticator)(nil)

// JWTAuthenticator verifies HMAC-signed bearer tokens.
type JWTAuthenticator struct {
	secret []byte
}

func NewJWTAuthenticator(secret string) *JWTAuthenticator {
	return &JWTAuthenticator{secret: []byte(secret)}
}

type claims struct {
	UserID string `json:"uid,omitempty"`
	Scopes string `json:"scope,omitempty"`
	jwt.RegisteredClaims
}

func (a *JWTAuthenticator) Authenticate(r *http.Request) (*interfaces.Principal, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return nil, ErrNoCredentials
	}
	raw, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return nil, fmt.Errorf("%w: authorization header is not a bearer token", ErrInvalidToken)
	}

	var parsed claims
	_, err := jwt.ParseWithClaims(raw, &parsed, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return a.secret, nil
	}, jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"}))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	userID := parsed.UserID
	if userID == "" {
		userID = parsed.Subject
	}
	if userID == "" {
		return nil, ErrMissingIdentity
	}

	return &interfaces.Principal{
		UserID:  userID,
		Subject: parsed.Subject,
		Scopes:  strings.Fields(parsed.Scopes),
	}, nil
}

var _ interfaces.Authenticator = (*DevAuthenticator)(nil)

// DevAuthenticator trusts the X-User-ID header. Never enable outside local
// development.
type DevAuthenticator struct{}

func NewDevAuthenticator() *DevAuthenticator {
	return &DevAuthenticator{}
}

func (a *DevAuthenticator) Authenticate(r *http.Request) (*interfaces.Principal, error) {
	userID := strings.TrimSpace(r.Header.Get("X-User-ID"))
	if userID == "" {
		return nil, ErrNoCredentials
	}
	return &interfaces.Principal{UserID: userID, Subject: userID}, nil
}

// RequireAuth rejects unauthenticated requests with 401 and stores the
// principal in the request context for downstream handlers.
func RequireAuth(authenticator interfaces.Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, err := authenticator.Authenticate(r)
			if err != nil {
				w.Header().Set("WWW-Authenticate", "Bearer")
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			ctx := context.WithValue(r.Context(), contextKey{}, principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
