package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"shopfront/internal/domain"
)

// UserLookup resolves the email claim of a token to a stored user.
type UserLookup interface {
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}

// Authenticator turns an Authorization header into the acting identity.
type Authenticator struct {
	tokens *Tokens
	users  UserLookup
}

func NewAuthenticator(tokens *Tokens, users UserLookup) *Authenticator {
	return &Authenticator{tokens: tokens, users: users}
}

// Authenticate fails with domain.ErrUnauthenticated for a missing or malformed
// header, a token that does not verify, or an email with no matching user.
// Store failures are returned as-is.
func (a *Authenticator) Authenticate(ctx context.Context, header string) (domain.Identity, error) {
	token, ok := BearerToken(header)
	if !ok {
		return domain.Identity{}, domain.ErrUnauthenticated
	}
	claims, err := a.tokens.Verify(token)
	if err != nil {
		return domain.Identity{}, domain.ErrUnauthenticated
	}

	user, err := a.users.GetByEmail(ctx, claims.Email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Identity{}, domain.ErrUnauthenticated
		}
		return domain.Identity{}, fmt.Errorf("resolve identity: %w", err)
	}
	return domain.Identity{ID: user.ID, Email: user.Email, Role: user.Role}, nil
}

// BearerToken extracts the token of a "Bearer <token>" header. Anything other
// than exactly two whitespace separated parts is rejected.
func BearerToken(header string) (string, bool) {
	parts := strings.Fields(header)
	if len(parts) != 2 {
		return "", false
	}
	if !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	return parts[1], true
}
