package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"shopfront/internal/auth"
	"shopfront/internal/domain"
	"shopfront/internal/repository"
)

var (
	// ErrInvalidCredentials indicates that provided login credentials are incorrect.
	ErrInvalidCredentials = domain.Errorf(domain.ErrUnauthenticated, "Invalid credentials")
	// ErrUserAlreadyExists is returned when attempting to register with an existing email.
	ErrUserAlreadyExists = domain.Errorf(domain.ErrConflict, "User with this email already exists")
)

// Session is the result of a successful login.
type Session struct {
	User      *domain.User
	Token     string
	ExpiresAt time.Time
}

// UserService describes user lifecycle operations.
type UserService interface {
	Register(ctx context.Context, in domain.RegisterInput) (*domain.User, error)
	Login(ctx context.Context, in domain.LoginInput) (*Session, error)
	IssueToken(ctx context.Context, email string) (*Session, error)
}

type userService struct {
	users  repository.UserRepository
	tokens *auth.Tokens
}

func NewUserService(users repository.UserRepository, tokens *auth.Tokens) UserService {
	return &userService{
		users:  users,
		tokens: tokens,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *userService) Register(ctx context.Context, in domain.RegisterInput) (*domain.User, error) {
	in.Email = normalizeEmail(in.Email)
	in.Role = strings.ToLower(strings.TrimSpace(in.Role))
	if err := domain.Validate(in); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		Email:        in.Email,
		PasswordHash: string(hash),
		Role:         domain.Role(in.Role),
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return nil, ErrUserAlreadyExists
		}
		return nil, err
	}
	return sanitizeUser(user), nil
}

func (s *userService) Login(ctx context.Context, in domain.LoginInput) (*Session, error) {
	in.Email = normalizeEmail(in.Email)
	if err := domain.Validate(in); err != nil {
		return nil, ErrInvalidCredentials
	}

	user, err := s.users.GetByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return s.session(user)
}

// IssueToken mints a token for an existing user without a password check.
// It backs the admin CLI and must not be exposed over HTTP.
func (s *userService) IssueToken(ctx context.Context, email string) (*Session, error) {
	user, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return nil, err
	}
	return s.session(user)
}

func (s *userService) session(user *domain.User) (*Session, error) {
	token, expires, err := s.tokens.Issue(*user)
	if err != nil {
		return nil, err
	}
	return &Session{User: sanitizeUser(user), Token: token, ExpiresAt: expires}, nil
}

func sanitizeUser(user *domain.User) *domain.User {
	if user == nil {
		return nil
	}
	return &domain.User{
		ID:        user.ID,
		Email:     user.Email,
		Role:      user.Role,
		CreatedAt: user.CreatedAt,
	}
}
