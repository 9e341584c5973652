package access

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"notes-backend/internal/shared/auth"
)

// Role is the caller's privilege level.
type Role string

const (
	RoleStudent Role = "student"
	RoleTeacher Role = "teacher"
)

var (
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")
	ErrInvalidRole     = errors.New("invalid role")
)

// ParseRole accepts "student" or "teacher" in any case.
func ParseRole(raw string) (Role, error) {
	switch Role(strings.ToLower(strings.TrimSpace(raw))) {
	case RoleStudent:
		return RoleStudent, nil
	case RoleTeacher:
		return RoleTeacher, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidRole, raw)
	}
}

// Identity is a verified caller.
type Identity struct {
	UserID string
	Role   Role
}

// IdentityStore materialises the subject of a valid token. Implementations
// return ErrUnauthenticated when the subject no longer exists.
type IdentityStore interface {
	FindIdentity(ctx context.Context, userID string) (Identity, error)
}

// Gate verifies bearer credentials and issues new ones.
type Gate struct {
	signer *auth.Signer
	store  IdentityStore
}

// NewGate returns a Gate. A nil store trusts the role carried in the token.
func NewGate(signer *auth.Signer, store IdentityStore) *Gate {
	return &Gate{signer: signer, store: store}
}

// Verify resolves a raw bearer token to an Identity. Bad, expired or orphaned
// tokens yield ErrUnauthenticated; store failures are returned wrapped.
func (g *Gate) Verify(ctx context.Context, token string) (Identity, error) {
	if g == nil || g.signer == nil {
		return Identity{}, ErrUnauthenticated
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return Identity{}, ErrUnauthenticated
	}
	claims, err := g.signer.Verify(token)
	if err != nil {
		return Identity{}, ErrUnauthenticated
	}
	role, err := ParseRole(claims.Role)
	if err != nil {
		return Identity{}, ErrUnauthenticated
	}
	if g.store == nil {
		return Identity{UserID: claims.Sub, Role: role}, nil
	}

	id, err := g.store.FindIdentity(ctx, claims.Sub)
	if err != nil {
		if errors.Is(err, ErrUnauthenticated) {
			return Identity{}, ErrUnauthenticated
		}
		return Identity{}, fmt.Errorf("find identity: %w", err)
	}
	return id, nil
}

// Issue signs a token for id.
func (g *Gate) Issue(id Identity) (string, error) {
	if g == nil || g.signer == nil {
		return "", errors.New("gate not configured")
	}
	return g.signer.Sign(auth.Claims{Sub: id.UserID, Role: string(id.Role)})
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) (string, bool) {
	header = strings.TrimSpace(header)
	const prefix = "bearer "
	if len(header) < len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(prefix):])
	return token, token != ""
}

// RequireRole reports whether id holds role.
func RequireRole(id Identity, role Role) bool {
	return id.UserID != "" && id.Role == role
}

// CanMutate reports whether id may delete a document owned by ownerID.
func CanMutate(id Identity, ownerID string) bool {
	return RequireRole(id, RoleTeacher) && ownerID != "" && id.UserID == ownerID
}
