package store

import (
	"context"
	"errors"
	"time"

	"github.com/harborbank/tellerauth/internal/auth/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers (sqlite,
// postgres) implement this. It exposes sub-repositories to keep concerns
// tidy and testable.
type Store interface {
	Users() Users
	BackupCodes() BackupCodes

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes a function within a transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn returns nil, the transaction is committed.
	// Every mutating auth flow goes through this so racing requests cannot
	// observe or produce a half-applied identity record.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Users interface {
	// GetUserByID returns a user by id.
	GetUserByID(ctx context.Context, id string) (domain.User, error)

	// GetUserByEmail is used during login and the OTP flows.
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)

	// CreateUser inserts a new user (id is provided by app via ULID).
	// A duplicate email maps to ErrAlreadyExists.
	CreateUser(ctx context.Context, u domain.User) error

	// UpdatePasswordHash sets the password_hash (argon2) and bumps updated_at.
	UpdatePasswordHash(ctx context.Context, userID string, newHash string) error

	// UpdateTwoFactorSecret stages the TOTP secret for a user without
	// enabling 2FA.
	UpdateTwoFactorSecret(ctx context.Context, userID string, secret string) error

	// EnableTwoFactor marks 2FA as enabled (sets the two_factor_enabled timestamp).
	EnableTwoFactor(ctx context.Context, userID string) error

	// DisableTwoFactor clears both two_factor_enabled and two_factor_secret.
	DisableTwoFactor(ctx context.Context, userID string) error

	// SetOTPChallenge stores an email OTP code and its expiry on the user
	// row, overwriting any prior unconsumed challenge.
	SetOTPChallenge(ctx context.Context, userID string, code string, expiresAt time.Time) error

	// ClearOTPChallenge nulls both otp_code and otp_expires_at.
	ClearOTPChallenge(ctx context.Context, userID string) error

	// ConsumeOTPChallenge clears the challenge only while the stored code
	// still matches. ErrNotFound means another request already consumed or
	// replaced it.
	ConsumeOTPChallenge(ctx context.Context, userID string, code string) error

	// ClearExpiredOTPChallenges nulls every challenge past its expiry and
	// reports how many rows were touched (housekeeping).
	ClearExpiredOTPChallenges(ctx context.Context, now time.Time) (int64, error)
}

type BackupCodes interface {
	// CreateBackupCode stores one salted backup code hash for a user.
	CreateBackupCode(ctx context.Context, userID string, codeHash string) error

	// ListBackupCodeHashes returns every stored hash for a user. Hashes are
	// salted, so consumption must compare candidates against each one rather
	// than look up by value.
	ListBackupCodeHashes(ctx context.Context, userID string) ([]string, error)

	// DeleteBackupCode removes a specific backup code hash after use.
	// Returns ErrNotFound if the hash is already gone, so two racing
	// redemptions of the same code cannot both succeed.
	DeleteBackupCode(ctx context.Context, userID string, codeHash string) error

	// DeleteAllBackupCodes removes all backup codes for a user.
	DeleteAllBackupCodes(ctx context.Context, userID string) error

	// CountUserBackupCodes returns the number of backup codes for a user.
	CountUserBackupCodes(ctx context.Context, userID string) (int, error)
}
