package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Role is a coarse permission label attached to a caller.
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

func parseRole(s string) (Role, error) {
	switch r := Role(strings.TrimPrefix(strings.ToUpper(strings.TrimSpace(s)), "ROLE_")); r {
	case RoleUser, RoleAdmin:
		return r, nil
	default:
		return "", fmt.Errorf("unknown role %q", s)
	}
}

// Operation names one of the five resource operations.
type Operation string

const (
	OpList   Operation = "list"
	OpGet    Operation = "get"
	OpCreate Operation = "create"
	OpUpdate Operation = "update"
	OpDelete Operation = "delete"
)

var operations = []Operation{OpList, OpGet, OpCreate, OpUpdate, OpDelete}

// Policy maps each operation to the role a caller needs to perform it.
type Policy map[Operation]Role

// DefaultPolicy lets users read and admins write.
func DefaultPolicy() Policy {
	return Policy{
		OpList:   RoleUser,
		OpGet:    RoleUser,
		OpCreate: RoleAdmin,
		OpUpdate: RoleAdmin,
		OpDelete: RoleAdmin,
	}
}

// With returns a copy of the policy with op requiring role.
func (p Policy) With(op Operation, role Role) Policy {
	out := make(Policy, len(p)+1)
	for k, v := range p {
		out[k] = v
	}
	out[op] = role
	return out
}

// Required returns the role needed for op. Operations missing from the
// policy require admin.
func (p Policy) Required(op Operation) Role {
	if role, ok := p[op]; ok {
		return role
	}
	return RoleAdmin
}

// parseRoleOverrides parses "Resource.operation=ROLE" pairs separated by commas.
func parseRoleOverrides(s string) (map[string]Policy, error) {
	overrides := make(map[string]Policy)
	for _, entry := range strings.Split(s, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		target, roleName, ok := strings.Cut(entry, "=")
		if !ok {
			return nil, fmt.Errorf("role override %q: expected Resource.operation=ROLE", entry)
		}
		resource, opName, ok := strings.Cut(strings.TrimSpace(target), ".")
		if !ok || resource == "" {
			return nil, fmt.Errorf("role override %q: expected Resource.operation=ROLE", entry)
		}
		op := Operation(strings.ToLower(opName))
		if !validOperation(op) {
			return nil, fmt.Errorf("role override %q: unknown operation %q", entry, opName)
		}
		role, err := parseRole(roleName)
		if err != nil {
			return nil, fmt.Errorf("role override %q: %w", entry, err)
		}
		if overrides[resource] == nil {
			overrides[resource] = Policy{}
		}
		overrides[resource][op] = role
	}
	return overrides, nil
}

func validOperation(op Operation) bool {
	for _, o := range operations {
		if o == op {
			return true
		}
	}
	return false
}

// Principal is an authenticated caller.
type Principal struct {
	Subject string
	Roles   []Role
}

// HasRole returns true if the principal carries the role. A nil principal has no roles.
func (p *Principal) HasRole(role Role) bool {
	if p == nil {
		return false
	}
	for _, r := range p.Roles {
		if r == role {
			return true
		}
	}
	return false
}

type contextKey string

const contextKeyPrincipal contextKey = "_principal_"

// ContextWithPrincipal returns a new context carrying the principal.
func ContextWithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, contextKeyPrincipal, p)
}

// PrincipalFromContext returns the caller, or nil for anonymous requests.
func PrincipalFromContext(ctx context.Context) *Principal {
	p, _ := ctx.Value(contextKeyPrincipal).(*Principal)
	return p
}

// requireRole rejects callers without role before next runs.
func requireRole(role Role, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !PrincipalFromContext(r.Context()).HasRole(role) {
			FromContext(r.Context()).WithField("required", role).Info("access denied")
			writeError(w, r, ErrAccessDenied)
			return
		}
		next(w, r)
	}
}

var (
	ErrMissingToken = errors.New("missing authentication token")
	ErrInvalidToken = errors.New("invalid token")
)

// Claims are the JWT claims accepted by TokenAuthenticator.
type Claims struct {
	Roles []string `json:"roles"`
	jwt.RegisteredClaims
}

// TokenAuthenticator validates HS256 bearer tokens.
type TokenAuthenticator struct {
	secret []byte
	issuer string
}

// NewTokenAuthenticator creates an authenticator for tokens signed with secret.
func NewTokenAuthenticator(secret, issuer string) (*TokenAuthenticator, error) {
	if secret == "" {
		return nil, errors.New("secret key required for HS256")
	}
	return &TokenAuthenticator{secret: []byte(secret), issuer: issuer}, nil
}

// Authenticate turns an Authorization header value into a principal.
func (a *TokenAuthenticator) Authenticate(header string) (*Principal, error) {
	tokenString := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	if tokenString == "" {
		return nil, ErrMissingToken
	}

	var opts []jwt.ParserOption
	opts = append(opts, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if a.issuer != "" {
		opts = append(opts, jwt.WithIssuer(a.issuer))
	}
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return a.secret, nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}

	p := &Principal{Subject: claims.Subject}
	for _, name := range claims.Roles {
		role, err := parseRole(name)
		if err != nil {
			// roles unknown to this service are ignored
			continue
		}
		p.Roles = append(p.Roles, role)
	}
	return p, nil
}

// Issue signs a token for subject with the given roles.
func (a *TokenAuthenticator) Issue(subject string, ttl time.Duration, roles ...Role) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    a.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	for _, r := range roles {
		claims.Roles = append(claims.Roles, string(r))
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}
