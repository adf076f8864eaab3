package application

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/example/shift-roster/internal/persistence"
)

// PasswordVerifier compares a stored hash with a candidate password.
type PasswordVerifier func(hashedPassword, password string) error

// AuthService coordinates login, logout, and session validation.
type AuthService struct {
	users          persistence.UserRepository
	sessions       persistence.SessionRepository
	verifyPassword PasswordVerifier
	tokenGenerator func() string
	idGenerator    func() string
	now            func() time.Time
	sessionTTL     time.Duration
	logger         *slog.Logger
}

// AuthenticateResult carries the issued session and the account state the UI
// needs, including whether a forced password reset is pending.
type AuthenticateResult struct {
	User               persistence.User
	Token              string
	ExpiresAt          time.Time
	MustChangePassword bool
}

// NewAuthService constructs an AuthService with the provided dependencies.
func NewAuthService(
	users persistence.UserRepository,
	sessions persistence.SessionRepository,
	verify PasswordVerifier,
	tokenGenerator func() string,
	idGenerator func() string,
	now func() time.Time,
	sessionTTL time.Duration,
	logger *slog.Logger,
) *AuthService {
	if verify == nil {
		verify = VerifyPassword
	}
	if tokenGenerator == nil {
		tokenGenerator = func() string { return "" }
	}
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	if sessionTTL <= 0 {
		sessionTTL = 24 * time.Hour
	}
	return &AuthService{
		users:          users,
		sessions:       sessions,
		verifyPassword: verify,
		tokenGenerator: tokenGenerator,
		idGenerator:    idGenerator,
		now:            now,
		sessionTTL:     sessionTTL,
		logger:         defaultLogger(logger),
	}
}

func (s *AuthService) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "AuthService", operation, attrs...)
}

// Authenticate validates credentials and issues a new session token.
func (s *AuthService) Authenticate(ctx context.Context, username, password string) (AuthenticateResult, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	logger := s.log(ctx, "Authenticate", "username", username)

	if username == "" || password == "" {
		return AuthenticateResult{}, ErrInvalidCredentials
	}

	user, err := s.users.GetUser(ctx, username)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return AuthenticateResult{}, ErrInvalidCredentials
		}
		return AuthenticateResult{}, err
	}

	if err := s.verifyPassword(user.PasswordHash, password); err != nil {
		logger.WarnContext(ctx, "password verification failed", "error_kind", ErrorKind(ErrInvalidCredentials))
		return AuthenticateResult{}, ErrInvalidCredentials
	}

	now := s.now()
	session := persistence.Session{
		ID:        s.idGenerator(),
		Username:  user.Username,
		Token:     s.tokenGenerator(),
		ExpiresAt: now.Add(s.sessionTTL),
	}

	stored, err := s.sessions.CreateSession(ctx, session)
	if err != nil {
		return AuthenticateResult{}, err
	}

	// Expired sessions are pruned opportunistically on successful login.
	if err := s.sessions.DeleteExpiredSessions(ctx, now); err != nil {
		logger.WarnContext(ctx, "failed to prune expired sessions", "error", err)
	}

	logger.With("session_id", stored.ID).InfoContext(ctx, "authentication succeeded")
	return AuthenticateResult{
		User:               user,
		Token:              stored.Token,
		ExpiresAt:          stored.ExpiresAt,
		MustChangePassword: user.MustChangePassword,
	}, nil
}

// ValidateSession resolves a token into the acting principal.
func (s *AuthService) ValidateSession(ctx context.Context, token string) (Principal, error) {
	if strings.TrimSpace(token) == "" {
		return Principal{}, ErrUnauthorized
	}

	session, err := s.sessions.GetSession(ctx, token)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return Principal{}, ErrUnauthorized
		}
		return Principal{}, err
	}

	if session.RevokedAt != nil {
		return Principal{}, ErrSessionRevoked
	}
	if !session.ExpiresAt.After(s.now()) {
		return Principal{}, ErrSessionExpired
	}

	user, err := s.users.GetUser(ctx, session.Username)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return Principal{}, ErrUnauthorized
		}
		return Principal{}, err
	}

	return Principal{
		Username:           user.Username,
		Role:               user.Role,
		EmployeeID:         user.EmployeeID,
		MustChangePassword: user.MustChangePassword,
	}, nil
}

// Logout revokes the presented session token.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	if strings.TrimSpace(token) == "" {
		return ErrUnauthorized
	}

	if _, err := s.sessions.RevokeSession(ctx, token, s.now()); err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}

	s.log(ctx, "Logout").InfoContext(ctx, "session revoked")
	return nil
}
