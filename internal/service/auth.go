package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Swastik007sharma/sweet-shop-manager/internal/events"
	"github.com/Swastik007sharma/sweet-shop-manager/internal/hash"
	"github.com/Swastik007sharma/sweet-shop-manager/internal/logging"
	"github.com/Swastik007sharma/sweet-shop-manager/internal/models"
	"github.com/Swastik007sharma/sweet-shop-manager/internal/repo"
	"github.com/Swastik007sharma/sweet-shop-manager/internal/tokens"
	"github.com/Swastik007sharma/sweet-shop-manager/internal/transport"
)

const MinPasswordBytes = 6

type AuthService struct {
	Repo             *repo.GormRepo
	Hasher           *hash.Hasher
	Tokens           *tokens.Service
	Events           events.Publisher
	AllowAdminSignup bool
	Timeout          time.Duration

	dummyOnce sync.Once
	dummy     string
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateEmail(email string) error {
	if email == "" {
		return fmt.Errorf("%w: email is required", ErrValidation)
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return fmt.Errorf("%w: email is not valid", ErrValidation)
	}
	return nil
}

func validatePassword(password string) error {
	switch {
	case len(password) < MinPasswordBytes:
		return fmt.Errorf("%w: password must be at least %d characters", ErrValidation, MinPasswordBytes)
	case len(password) > hash.MaxPasswordBytes:
		return fmt.Errorf("%w: password must be at most %d bytes", ErrValidation, hash.MaxPasswordBytes)
	}
	return nil
}

func (s *AuthService) Register(ctx context.Context, req transport.RegisterRequest) (*models.Account, error) {
	l := logging.FromContext(ctx).With("svc", "auth.register")

	email := NormalizeEmail(req.Email)
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if err := validatePassword(req.Password); err != nil {
		return nil, err
	}
	role, ok := models.ParseRole(strings.ToLower(strings.TrimSpace(req.Role)))
	if !ok {
		return nil, fmt.Errorf("%w: unknown role %q", ErrValidation, req.Role)
	}
	if role == models.RoleAdmin && !s.AllowAdminSignup {
		return nil, fmt.Errorf("%w: admin self-registration is disabled", ErrForbidden)
	}

	pwHash, err := s.Hasher.HashPassword(req.Password)
	if err != nil {
		if errors.Is(err, hash.ErrPasswordTooLong) {
			return nil, fmt.Errorf("%w: %v", ErrValidation, err)
		}
		l.Error("register_error", "status", 500, "reason", "cannot hash the password", "error", err)
		return nil, fmt.Errorf("hash password: %w", err)
	}

	account := &models.Account{
		Email:        email,
		PasswordHash: pwHash,
		Role:         role,
	}

	dbCtx, cancel := bounded(ctx, s.Timeout)
	defer cancel()
	if err := s.Repo.CreateAccount(dbCtx, account); err != nil {
		if errors.Is(err, repo.ErrDuplicateEmail) {
			return nil, fmt.Errorf("%w: email already registered", ErrConflict)
		}
		return nil, fmt.Errorf("create account: %w", err)
	}

	s.publish(ctx, account.ID, map[string]any{
		"type":      "account_registered",
		"accountID": account.ID,
		"email":     account.Email,
		"role":      account.Role,
	})

	l.Info("register_success", "account_id", account.ID, "role", account.Role)
	return account, nil
}

func (s *AuthService) Login(ctx context.Context, req transport.LoginRequest) (*transport.LoginResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.login")

	email := NormalizeEmail(req.Email)
	if email == "" || req.Password == "" {
		return nil, fmt.Errorf("%w: email and password are required", ErrValidation)
	}

	dbCtx, cancel := bounded(ctx, s.Timeout)
	defer cancel()

	account, err := s.Repo.FindAccountByEmail(dbCtx, email)
	if err != nil {
		if !errors.Is(err, repo.ErrNotFound) {
			return nil, fmt.Errorf("find account: %w", err)
		}
		// same bcrypt work as a real account
		s.Hasher.CheckPassword(s.dummyHash(), req.Password)
		l.Warn("login_failed", "status", 401, "reason", "unknown email")
		return nil, ErrInvalidCredentials
	}

	if !s.Hasher.CheckPassword(account.PasswordHash, req.Password) {
		l.Warn("login_failed", "status", 401, "reason", "wrong password", "account_id", account.ID)
		return nil, ErrInvalidCredentials
	}

	if s.Hasher.NeedsRehash(account.PasswordHash) {
		if fresh, err := s.Hasher.HashPassword(req.Password); err == nil {
			if err := s.Repo.UpdatePasswordHash(dbCtx, account.ID, fresh); err != nil {
				l.Warn("rehash_failed", "account_id", account.ID, "error", err)
			}
		}
	}

	token, exp, err := s.Tokens.Issue(account.ID, string(account.Role))
	if err != nil {
		l.Error("login_failed", "status", 500, "reason", "cannot issue token", "error", err)
		return nil, fmt.Errorf("issue token: %w", err)
	}

	l.Info("login_success", "account_id", account.ID)
	return &transport.LoginResult{
		Token:     token,
		ExpiresAt: exp,
		ExpiresIn: int64(s.Tokens.TTL() / time.Second),
		User:      transport.NewAccountResponse(account),
	}, nil
}

func (s *AuthService) Me(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	dbCtx, cancel := bounded(ctx, s.Timeout)
	defer cancel()

	account, err := s.Repo.FindAccountByID(dbCtx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, fmt.Errorf("%w: account no longer exists", ErrUnauthenticated)
		}
		return nil, fmt.Errorf("find account: %w", err)
	}
	return account, nil
}

func (s *AuthService) dummyHash() string {
	s.dummyOnce.Do(func() {
		h, err := s.Hasher.HashPassword(uuid.NewString())
		if err == nil {
			s.dummy = h
		}
	})
	return s.dummy
}

func (s *AuthService) publish(ctx context.Context, id uuid.UUID, event map[string]any) {
	if s.Events == nil {
		return
	}
	pubCtx, cancel := detached(ctx)
	defer cancel()
	if err := s.Events.PublishEvent(pubCtx, events.TopicAccounts, id.String(), event); err != nil {
		logging.FromContext(ctx).Error("kafka_publish_failed", "topic", events.TopicAccounts, "error", err)
	}
}
