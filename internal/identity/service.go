// Package identity provides shop accounts, password login and access tokens.
package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/bissquit/shop-subscriptions/internal/domain"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// TokenIssuer signs access tokens for authenticated users.
type TokenIssuer interface {
	IssueToken(user *domain.User) (*AccessToken, error)
}

// Service provides identity business logic.
type Service struct {
	repo   Repository
	tokens TokenIssuer
}

// NewService creates a new identity service.
func NewService(repo Repository, tokens TokenIssuer) *Service {
	return &Service{
		repo:   repo,
		tokens: tokens,
	}
}

// RegisterInput contains data for user registration.
type RegisterInput struct {
	Email     string
	Password  string
	FirstName string
}

// LoginInput contains data for user login.
type LoginInput struct {
	Email    string
	Password string
}

// Register creates a customer account.
func (s *Service) Register(ctx context.Context, input RegisterInput) (*domain.User, error) {
	return s.createUser(ctx, input, domain.RoleUser)
}

// EnsureAdmin creates the shop owner account unless the email is taken.
func (s *Service) EnsureAdmin(ctx context.Context, email, password string) error {
	_, err := s.createUser(ctx, RegisterInput{Email: email, Password: password, FirstName: "Admin"}, domain.RoleAdmin)
	if errors.Is(err, ErrEmailExists) {
		return nil
	}
	return err
}

func (s *Service) createUser(ctx context.Context, input RegisterInput, role domain.Role) (*domain.User, error) {
	email := normalizeEmail(input.Email)

	_, err := s.repo.GetUserByEmail(ctx, email)
	if err == nil {
		return nil, ErrEmailExists
	}
	if !errors.Is(err, ErrUserNotFound) {
		return nil, fmt.Errorf("check email: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: string(hash),
		FirstName:    strings.TrimSpace(input.FirstName),
		Role:         role,
	}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	slog.Info("user registered", "user_id", user.ID, "role", role)
	return user, nil
}

// Login checks the password and issues an access token.
func (s *Service) Login(ctx context.Context, input LoginInput) (*domain.User, *AccessToken, error) {
	user, err := s.repo.GetUserByEmail(ctx, normalizeEmail(input.Email))
	if errors.Is(err, ErrUserNotFound) {
		return nil, nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, nil, fmt.Errorf("get user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return nil, nil, ErrInvalidCredentials
	}

	token, err := s.tokens.IssueToken(user)
	if err != nil {
		return nil, nil, fmt.Errorf("issue token: %w", err)
	}

	return user, token, nil
}

// GetUser returns a user by ID.
func (s *Service) GetUser(ctx context.Context, id string) (*domain.User, error) {
	return s.repo.GetUserByID(ctx, id)
}

// normalizeEmail returns the lookup form of an address: NFC, lower case.
// A Caser must not be shared between goroutines, so one is built per call.
func normalizeEmail(email string) string {
	return cases.Lower(language.Und).String(norm.NFC.String(strings.TrimSpace(email)))
}
