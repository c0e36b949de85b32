package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/harborbank/tellerauth/internal/auth/domain"
	"github.com/harborbank/tellerauth/internal/auth/store"
	"github.com/harborbank/tellerauth/pkg/cryptox"
	"github.com/harborbank/tellerauth/pkg/idx"
	"github.com/harborbank/tellerauth/pkg/jwtx"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("email already registered")
	ErrUserNotFound       = errors.New("user not found")
)

// TwoFactorRequiredError is returned by Login when the password checked out
// but the account has a second factor enabled. No token is issued; the caller
// must complete VerifyTwoFactor first.
type TwoFactorRequiredError struct {
	Methods []string
}

func (e *TwoFactorRequiredError) Error() string {
	return "two-factor verification required"
}

type AuthService struct {
	Store  store.Store
	Signer jwtx.Signer
	Issuer string
}

// Register creates a new user with an argon2id password hash and issues a
// session so the client is logged in immediately. Emails are stored
// lowercase so lookups are case-insensitive.
func (s *AuthService) Register(ctx context.Context, email, password, firstName, lastName string) (domain.Session, error) {
	hash, err := cryptox.HashPassword(password)
	if err != nil {
		return domain.Session{}, fmt.Errorf("failed to hash password: %w", err)
	}

	user := domain.User{
		ID:           idx.New().String(),
		Email:        normalizeEmail(email),
		PasswordHash: hash,
		FirstName:    firstName,
		LastName:     lastName,
	}

	if err := s.Store.Users().CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return domain.Session{}, ErrEmailTaken
		}
		return domain.Session{}, fmt.Errorf("failed to create user: %w", err)
	}

	created, err := s.Store.Users().GetUserByEmail(ctx, user.Email)
	if err != nil {
		return domain.Session{}, fmt.Errorf("failed to load created user: %w", err)
	}

	return s.issueSession(created, jwtx.SessionTTL)
}

// Login checks the password for the given email. On success it either issues
// a session directly, or, when the account has 2FA enabled, returns a
// TwoFactorRequiredError listing the available second-factor methods.
//
// Unknown email and wrong password both return ErrInvalidCredentials so the
// endpoint cannot be used to probe which emails exist.
func (s *AuthService) Login(ctx context.Context, email, password string) (domain.Session, error) {
	user, err := s.Store.Users().GetUserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Burn a hash comparison anyway so the timing matches a real
			// lookup with a wrong password.
			_ = cryptox.VerifyPassword(password, decoyHash)
			return domain.Session{}, ErrInvalidCredentials
		}
		return domain.Session{}, fmt.Errorf("failed to look up user: %w", err)
	}

	if err := cryptox.VerifyPassword(password, user.PasswordHash); err != nil {
		return domain.Session{}, ErrInvalidCredentials
	}

	if user.HasTwoFactor() {
		return domain.Session{}, &TwoFactorRequiredError{Methods: []string{"totp", "backup_code"}}
	}

	return s.issueSession(user, jwtx.SessionTTL)
}

// issueSession signs a session token for the user.
func (s *AuthService) issueSession(user domain.User, ttl time.Duration) (domain.Session, error) {
	claims := jwtx.NewSessionClaims(
		user.ID, user.Email, user.FirstName, user.LastName,
		ttl, s.Issuer, time.Now().UTC(),
	)

	token, err := s.Signer.Sign(claims)
	if err != nil {
		return domain.Session{}, fmt.Errorf("failed to sign session token: %w", err)
	}

	return domain.Session{
		Token:     token,
		ExpiresIn: ttl,
		User:      user,
	}, nil
}

// VerifyTwoFactor completes a login that stopped at the second factor. The
// proof is either a live TOTP code or a single-use backup code. A session
// earned through the second factor gets the longer TTL.
func (s *AuthService) VerifyTwoFactor(ctx context.Context, email, code string, isBackupCode bool) (domain.Session, error) {
	user, err := s.Store.Users().GetUserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Session{}, ErrInvalidCredentials
		}
		return domain.Session{}, fmt.Errorf("failed to look up user: %w", err)
	}

	if !user.HasTwoFactor() || user.TwoFactorSecret == nil || *user.TwoFactorSecret == "" {
		return domain.Session{}, ErrTwoFactorNotEnabled
	}

	if isBackupCode {
		if err := consumeBackupCode(ctx, s.Store, user.ID, code); err != nil {
			return domain.Session{}, err
		}
	} else if !validTOTPCode(code, *user.TwoFactorSecret) {
		return domain.Session{}, ErrInvalidTOTPCode
	}

	return s.issueSession(user, jwtx.TwoFactorSessionTTL)
}

// ChangePassword verifies the current password before replacing the hash.
func (s *AuthService) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	user, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to look up user: %w", err)
	}

	if err := cryptox.VerifyPassword(currentPassword, user.PasswordHash); err != nil {
		return ErrInvalidCredentials
	}

	hash, err := cryptox.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	return s.Store.Users().UpdatePasswordHash(ctx, userID, hash)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// decoyHash is a throwaway argon2id digest used to equalize login timing when
// the email does not exist. Any well-formed digest works; it never matches.
const decoyHash = "$argon2id$v=19$m=19456,t=2,p=1$AAAAAAAAAAAAAAAAAAAAAA$AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"
