package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/loomline/backoffice/internal/auth"
	"github.com/loomline/backoffice/internal/database"
	"github.com/loomline/backoffice/internal/metrics"
	"github.com/loomline/backoffice/internal/sanitize"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const (
	otpDigits      = 6
	maxOTPAttempts = 5
)

// Errors returned by the OTP service.
var (
	ErrInvalidCode     = errors.New("invalid or expired code")
	ErrCodeExpired     = errors.New("code expired")
	ErrTooManyAttempts = errors.New("too many attempts")
	ErrUserInactive    = errors.New("user inactive")
)

// OTPStore defines the DB methods needed for one-time-code login.
// Satisfied by *database.Queries; narrow interface for testability.
type OTPStore interface {
	GetUserByEmail(ctx context.Context, email string) (database.User, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (database.User, error)
	CreateOtpCode(ctx context.Context, arg database.CreateOtpCodeParams) (database.OtpCode, error)
	GetActiveOtpCode(ctx context.Context, userID uuid.UUID) (database.OtpCode, error)
	ClaimOtpAttempt(ctx context.Context, arg database.ClaimOtpAttemptParams) (int32, error)
	ConsumeOtpCode(ctx context.Context, id uuid.UUID) (uuid.UUID, error)
}

// Sender delivers a login code to an employee.
type Sender interface {
	SendOTP(ctx context.Context, email, code string) error
}

// LogSender writes codes to the log. For development setups without a mail
// transport.
type LogSender struct {
	Logger *zap.Logger
}

func (s LogSender) SendOTP(_ context.Context, email, code string) error {
	s.Logger.Info("login code issued", zap.String("email", email), zap.String("code", code))
	return nil
}

// TokenPair is the result of a successful login or refresh.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	User         database.User
}

// OTPService handles passwordless employee login.
type OTPService struct {
	store     OTPStore
	sender    Sender
	jwtSecret string
	ttl       time.Duration
	metrics   *metrics.Registry
	logger    *zap.Logger

	now     func() time.Time
	newCode func() (string, error)
}

// NewOTPService creates a new OTPService. m may be nil.
func NewOTPService(store OTPStore, sender Sender, jwtSecret string, ttl time.Duration, m *metrics.Registry, logger *zap.Logger) *OTPService {
	return &OTPService{
		store:     store,
		sender:    sender,
		jwtSecret: jwtSecret,
		ttl:       ttl,
		metrics:   m,
		logger:    logger,
		now:       time.Now,
		newCode:   generateCode,
	}
}

// RequestCode issues a code for an active employee. Unknown or inactive
// addresses succeed silently so callers cannot enumerate accounts.
func (s *OTPService) RequestCode(ctx context.Context, email string) error {
	email, err := sanitize.Email(email)
	if err != nil {
		return err
	}

	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			s.count("unknown")
			return nil
		}
		return fmt.Errorf("get user: %w", err)
	}
	if !user.IsActive {
		s.count("inactive")
		return nil
	}

	code, err := s.newCode()
	if err != nil {
		return fmt.Errorf("generate code: %w", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash code: %w", err)
	}
	if _, err := s.store.CreateOtpCode(ctx, database.CreateOtpCodeParams{
		UserID:    user.ID,
		CodeHash:  string(hash),
		ExpiresAt: s.now().Add(s.ttl),
	}); err != nil {
		return fmt.Errorf("store code: %w", err)
	}
	if err := s.sender.SendOTP(ctx, user.Email, code); err != nil {
		s.count("send_failed")
		return fmt.Errorf("send code: %w", err)
	}
	s.count("sent")
	return nil
}

// VerifyCode checks the latest unconsumed code and returns signed tokens.
func (s *OTPService) VerifyCode(ctx context.Context, email, code string) (*TokenPair, error) {
	email, err := sanitize.Email(email)
	if err != nil {
		return nil, ErrInvalidCode
	}

	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvalidCode
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	if !user.IsActive {
		return nil, ErrInvalidCode
	}

	otp, err := s.store.GetActiveOtpCode(ctx, user.ID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvalidCode
		}
		return nil, fmt.Errorf("get code: %w", err)
	}
	if s.now().After(otp.ExpiresAt) {
		return nil, ErrCodeExpired
	}

	// The attempt is claimed before comparing so concurrent guesses cannot
	// all pass a stale count.
	attempts, err := s.store.ClaimOtpAttempt(ctx, database.ClaimOtpAttemptParams{
		ID:          otp.ID,
		MaxAttempts: maxOTPAttempts,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTooManyAttempts
		}
		return nil, fmt.Errorf("claim attempt: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(otp.CodeHash), []byte(code)); err != nil {
		if attempts >= maxOTPAttempts {
			return nil, ErrTooManyAttempts
		}
		return nil, ErrInvalidCode
	}

	if _, err := s.store.ConsumeOtpCode(ctx, otp.ID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvalidCode
		}
		return nil, fmt.Errorf("consume code: %w", err)
	}
	return s.issue(user)
}

// Refresh exchanges a valid refresh token for a new token pair.
func (s *OTPService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	userID, err := auth.ValidateRefreshToken(s.jwtSecret, refreshToken)
	if err != nil {
		return nil, err
	}
	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, auth.ErrInvalidToken
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	if !user.IsActive {
		return nil, ErrUserInactive
	}
	return s.issue(user)
}

func (s *OTPService) issue(user database.User) (*TokenPair, error) {
	access, err := auth.GenerateToken(s.jwtSecret, user.ID, user.Email, user.Role)
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}
	refresh, err := auth.GenerateRefreshToken(s.jwtSecret, user.ID)
	if err != nil {
		return nil, fmt.Errorf("sign refresh token: %w", err)
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh, User: user}, nil
}

func (s *OTPService) count(result string) {
	if s.metrics != nil {
		s.metrics.OTPRequests.WithLabelValues(result).Inc()
	}
}

// generateCode returns a uniformly random zero-padded 6-digit code.
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", otpDigits, n.Int64()), nil
}
