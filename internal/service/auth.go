package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"time"

	"github.com/AnkitSingh-ai/raasta-sathi-sub001/internal/cache"
	"github.com/AnkitSingh-ai/raasta-sathi-sub001/internal/database"
	"github.com/AnkitSingh-ai/raasta-sathi-sub001/internal/model"
	"github.com/AnkitSingh-ai/raasta-sathi-sub001/pkg/jwt"
	"golang.org/x/crypto/bcrypt"
)

const (
	// bcrypt cost factor (10-14 recommended for production)
	bcryptCost = 12

	// Password constraints
	minPasswordLength = 8
	maxPasswordLength = 128

	// Registration codes
	codeLength             = 6
	DefaultCodeTTL         = 15 * time.Minute
	DefaultMaxCodeAttempts = 5
)

// AccountStore defines the user storage needed for authentication
type AccountStore interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
}

// PendingRegistrations holds registrations awaiting their emailed code
type PendingRegistrations = cache.Expiring[string, *model.PendingRegistration]

// AuthService handles registration and login
type AuthService struct {
	users       AccountStore
	jwt         *jwt.Service
	mailer      Mailer
	pending     *PendingRegistrations
	codeTTL     time.Duration
	maxAttempts int
	cost        int
	now         func() time.Time
}

// AuthServiceConfig holds configuration for the auth service
type AuthServiceConfig struct {
	Users       AccountStore
	JWT         *jwt.Service
	Mailer      Mailer
	Pending     *PendingRegistrations
	CodeTTL     time.Duration
	MaxAttempts int
	BcryptCost  int // Default: 12
}

// NewAuthService creates a new auth service
func NewAuthService(cfg AuthServiceConfig) *AuthService {
	if cfg.CodeTTL <= 0 {
		cfg.CodeTTL = DefaultCodeTTL
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxCodeAttempts
	}
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = bcryptCost
	}
	if cfg.Mailer == nil {
		cfg.Mailer = NewLogMailer(nil)
	}
	if cfg.Pending == nil {
		cfg.Pending = cache.NewExpiring[string, *model.PendingRegistration](cache.Config{TTL: cfg.CodeTTL})
	}
	return &AuthService{
		users:       cfg.Users,
		jwt:         cfg.JWT,
		mailer:      cfg.Mailer,
		pending:     cfg.Pending,
		codeTTL:     cfg.CodeTTL,
		maxAttempts: cfg.MaxAttempts,
		cost:        cfg.BcryptCost,
		now:         time.Now,
	}
}

// Register stores a pending registration and emails a one-time code. Calling
// it again for the same email replaces the earlier code.
func (s *AuthService) Register(ctx context.Context, req *model.RegisterRequest) error {
	if errs := model.Validate(req); len(errs) > 0 {
		return model.NewValidationError(errs)
	}
	email := normalizeEmail(req.Email)
	if err := validatePassword(req.Password); err != nil {
		return err
	}

	existing, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if existing != nil {
		return ErrEmailAlreadyExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.cost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	code, err := generateCode()
	if err != nil {
		return err
	}
	codeHash, err := bcrypt.GenerateFromPassword([]byte(code), s.cost)
	if err != nil {
		return fmt.Errorf("hash code: %w", err)
	}

	role := model.UserRole(req.Role)
	if role == "" {
		role = model.UserRoleCitizen
	}

	s.pending.SetWithTTL(email, &model.PendingRegistration{
		Email:     email,
		Name:      strings.TrimSpace(req.Name),
		Phone:     req.Phone,
		Role:      role,
		Hash:      string(hash),
		CodeHash:  string(codeHash),
		ExpiresAt: s.now().Add(s.codeTTL),
	}, s.codeTTL)

	if err := s.mailer.SendVerificationCode(ctx, email, req.Name, code, s.codeTTL); err != nil {
		s.pending.Delete(email)
		return fmt.Errorf("send verification code: %w", err)
	}
	return nil
}

// VerifyRegistration checks the emailed code and creates the account. Each
// wrong code uses up an attempt; the pending registration is dropped once
// the attempts run out.
func (s *AuthService) VerifyRegistration(ctx context.Context, req *model.VerifyRegistrationRequest) (*model.AuthResult, error) {
	if errs := model.Validate(req); len(errs) > 0 {
		return nil, model.NewValidationError(errs)
	}
	email := normalizeEmail(req.Email)

	pending, ok := s.pending.Get(email)
	if !ok {
		return nil, ErrRegistrationNotFound
	}
	if pending.Attempts >= s.maxAttempts {
		s.pending.Delete(email)
		return nil, ErrTooManyAttempts
	}

	if bcrypt.CompareHashAndPassword([]byte(pending.CodeHash), []byte(req.Code)) != nil {
		exhausted := false
		s.pending.Update(email, func(p *model.PendingRegistration) (*model.PendingRegistration, bool) {
			next := *p
			next.Attempts++
			exhausted = next.Attempts >= s.maxAttempts
			return &next, !exhausted
		})
		if exhausted {
			return nil, ErrTooManyAttempts
		}
		return nil, ErrInvalidCode
	}

	// Take makes the code single-use under concurrent verification
	pending, ok = s.pending.Take(email)
	if !ok {
		return nil, ErrRegistrationNotFound
	}

	user := &model.User{
		Email: pending.Email,
		Name:  pending.Name,
		Phone: pending.Phone,
		Hash:  &pending.Hash,
		Role:  pending.Role,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return nil, ErrEmailAlreadyExists
		}
		return nil, err
	}

	slog.Info("user registered",
		slog.String("user_id", user.ID),
		slog.String("role", string(user.Role)),
	)
	return s.issue(user)
}

// Login authenticates with email and password
func (s *AuthService) Login(ctx context.Context, req *model.LoginRequest) (*model.AuthResult, error) {
	if errs := model.Validate(req); len(errs) > 0 {
		return nil, model.NewValidationError(errs)
	}

	user, err := s.users.GetByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		return nil, err
	}
	if user == nil || user.Hash == nil {
		return nil, ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(*user.Hash), []byte(req.Password)) != nil {
		return nil, ErrInvalidCredentials
	}

	return s.issue(user)
}

// IssueToken signs an access token for an existing user
func (s *AuthService) IssueToken(ctx context.Context, userID string) (*model.AuthResult, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return s.issue(user)
}

func (s *AuthService) issue(user *model.User) (*model.AuthResult, error) {
	token, err := s.jwt.Sign(jwt.Claims{
		UserID: user.ID,
		Email:  user.Email,
		Name:   user.Name,
		Role:   string(user.Role),
	})
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}

	public := *user
	public.Hash = nil
	return &model.AuthResult{
		User:        &public,
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int(s.jwt.GetExpiration().Seconds()),
	}, nil
}

// Helper functions

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validatePassword(password string) error {
	if len(password) < minPasswordLength {
		return ErrPasswordTooShort
	}
	if len(password) > maxPasswordLength {
		return ErrPasswordTooLong
	}
	return nil
}

func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}
	return fmt.Sprintf("%0*d", codeLength, n.Int64()), nil
}
