package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/warp/vacation-engine/generic"
	"github.com/warp/vacation-engine/logger"
	"github.com/warp/vacation-engine/timeoff"
)

// Claims are the JWT claims the API reads. Tokens are issued by the identity
// provider in front of this service.
type Claims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// Identity is the authenticated caller.
type Identity struct {
	Email string
	Role  timeoff.Role
}

type identityKey struct{}

// IdentityFrom returns the caller stored by the auth middleware.
func IdentityFrom(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok
}

func withIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// Authenticator validates HS256 bearer tokens.
type Authenticator struct {
	secret []byte
	issuer string
}

// NewAuthenticator creates an authenticator. An empty issuer skips the iss check.
func NewAuthenticator(secret, issuer string) *Authenticator {
	return &Authenticator{secret: []byte(secret), issuer: issuer}
}

// Sign issues a token for email and role valid for ttl.
func (a *Authenticator) Sign(email string, role timeoff.Role, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Email: timeoff.NormalizeEmail(email),
		Role:  string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    a.issuer,
			Subject:   timeoff.NormalizeEmail(email),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

// Parse validates a raw token and returns the caller identity.
func (a *Authenticator) Parse(tokenString string) (Identity, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if a.issuer != "" {
		opts = append(opts, jwt.WithIssuer(a.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return a.secret, nil
	}, opts...)
	if err != nil {
		return Identity{}, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return Identity{}, errors.New("invalid token claims")
	}
	email := timeoff.NormalizeEmail(claims.Email)
	if email == "" {
		return Identity{}, errors.New("token has no email claim")
	}
	role := timeoff.Role(claims.Role)
	if role == "" {
		role = timeoff.RoleEmployee
	}
	return Identity{Email: email, Role: role}, nil
}

// Middleware rejects requests without a valid bearer token and stores the
// caller identity in the request context.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			writeError(w, http.StatusUnauthorized, "Authorization header required", nil)
			return
		}
		if !strings.HasPrefix(authHeader, "Bearer ") {
			writeError(w, http.StatusUnauthorized, "Invalid authorization header format", nil)
			return
		}

		id, err := a.Parse(strings.TrimPrefix(authHeader, "Bearer "))
		if err != nil {
			writeError(w, http.StatusUnauthorized, "Invalid token", err)
			return
		}

		ctx := withIdentity(r.Context(), id)
		ctx = logger.With(ctx, "actor", id.Email)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAdmin allows only admin and admin2 callers.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := IdentityFrom(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "User not authenticated", nil)
			return
		}
		if !id.Role.IsAdmin() {
			writeError(w, http.StatusForbidden, "Insufficient permissions", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// =============================================================================
// DEPARTMENT SCOPE
// =============================================================================

// adminScope returns the department an admin may manage. admin2 gets "" (all
// departments); an admin without a configured department gets ErrForbidden.
func (h *Handler) adminScope(id Identity) (string, error) {
	if id.Role == timeoff.RoleGlobalAdmin {
		return "", nil
	}
	if dept, ok := h.departments[id.Email]; ok && dept != "" {
		return dept, nil
	}
	return "", fmt.Errorf("%w: no department configured for %s", generic.ErrForbidden, id.Email)
}

// authorizeEmployee checks that the admin may act on the employee.
func (h *Handler) authorizeEmployee(ctx context.Context, id Identity, email string) (*timeoff.Employee, error) {
	dept, err := h.adminScope(id)
	if err != nil {
		return nil, err
	}
	emp, err := h.Service.GetEmployee(ctx, email)
	if err != nil {
		return nil, err
	}
	if dept != "" && !strings.EqualFold(emp.Department, dept) {
		return nil, fmt.Errorf("%w: %s is outside department %s", generic.ErrForbidden, emp.Email, dept)
	}
	return emp, nil
}
