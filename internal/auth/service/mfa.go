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
	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

const backupCodeCount = 8 // Number of backup codes issued per enrolment

var (
	ErrInvalidTOTPCode         = errors.New("invalid TOTP code")
	ErrInvalidBackupCode       = errors.New("invalid backup code")
	ErrTwoFactorNotEnabled     = errors.New("two-factor authentication not enabled")
	ErrTwoFactorNotEnrolled    = errors.New("two-factor authentication not enrolled")
	ErrTwoFactorAlreadyEnabled = errors.New("two-factor authentication already enabled")
)

type MFAService struct {
	Store  store.Store
	Issuer string // Issuer name shown in authenticator apps
}

// EnrollTOTP generates a TOTP secret for the user and stages it. 2FA is NOT
// enabled yet; the user must verify a generated code first.
func (s *MFAService) EnrollTOTP(ctx context.Context, userID string) (domain.TOTPEnrollment, error) {
	user, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		return domain.TOTPEnrollment{}, fmt.Errorf("failed to get user: %w", err)
	}
	if user.HasTwoFactor() {
		return domain.TOTPEnrollment{}, ErrTwoFactorAlreadyEnabled
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      s.Issuer,
		AccountName: user.Email,
		Period:      30,
		Digits:      otp.DigitsSix,
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		return domain.TOTPEnrollment{}, fmt.Errorf("failed to generate TOTP key: %w", err)
	}

	// Store the secret but keep 2FA off until verification. Re-enrolling
	// before verification simply replaces the staged secret.
	if err := s.Store.Users().UpdateTwoFactorSecret(ctx, userID, key.Secret()); err != nil {
		return domain.TOTPEnrollment{}, fmt.Errorf("failed to store TOTP secret: %w", err)
	}

	return domain.TOTPEnrollment{
		Secret:     key.Secret(),
		OTPAuthURL: key.URL(),
		Issuer:     s.Issuer,
		Account:    user.Email,
	}, nil
}

// VerifyTOTP checks a code against the staged secret and, if valid, enables
// 2FA and issues a fresh set of backup codes. The codes are returned in plain
// text exactly once; only salted hashes are stored.
func (s *MFAService) VerifyTOTP(ctx context.Context, userID string, code string) ([]string, error) {
	user, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if user.TwoFactorSecret == nil || *user.TwoFactorSecret == "" {
		return nil, ErrTwoFactorNotEnrolled
	}
	if user.HasTwoFactor() {
		return nil, ErrTwoFactorAlreadyEnabled
	}

	if !validTOTPCode(code, *user.TwoFactorSecret) {
		return nil, ErrInvalidTOTPCode
	}

	backupCodes, err := cryptox.GenerateBackupCodes(backupCodeCount)
	if err != nil {
		return nil, fmt.Errorf("failed to generate backup codes: %w", err)
	}

	// Enable 2FA and store the codes atomically so a crash cannot leave the
	// account enabled without recovery codes.
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := storeBackupCodes(ctx, tx, userID, backupCodes); err != nil {
			return err
		}
		if err := tx.Users().EnableTwoFactor(ctx, userID); err != nil {
			return fmt.Errorf("failed to enable two-factor: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return backupCodes, nil
}

// RegenerateBackupCodes replaces every stored backup code after the caller
// proves possession of the authenticator with a fresh TOTP code.
func (s *MFAService) RegenerateBackupCodes(ctx context.Context, userID string, totpCode string) ([]string, error) {
	if err := s.requireTOTP(ctx, userID, totpCode); err != nil {
		return nil, err
	}

	backupCodes, err := cryptox.GenerateBackupCodes(backupCodeCount)
	if err != nil {
		return nil, fmt.Errorf("failed to generate backup codes: %w", err)
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.BackupCodes().DeleteAllBackupCodes(ctx, userID); err != nil {
			return fmt.Errorf("failed to delete old backup codes: %w", err)
		}
		return storeBackupCodes(ctx, tx, userID, backupCodes)
	})
	if err != nil {
		return nil, err
	}

	return backupCodes, nil
}

// RemoveTwoFactor disables 2FA and deletes the backup codes after verifying a
// TOTP code.
func (s *MFAService) RemoveTwoFactor(ctx context.Context, userID string, totpCode string) error {
	if err := s.requireTOTP(ctx, userID, totpCode); err != nil {
		return err
	}

	return s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.BackupCodes().DeleteAllBackupCodes(ctx, userID); err != nil {
			return fmt.Errorf("failed to delete backup codes: %w", err)
		}
		if err := tx.Users().DisableTwoFactor(ctx, userID); err != nil {
			return fmt.Errorf("failed to disable two-factor: %w", err)
		}
		return nil
	})
}

// requireTOTP checks a live TOTP code for a user with 2FA enabled.
func (s *MFAService) requireTOTP(ctx context.Context, userID string, code string) error {
	user, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to get user: %w", err)
	}

	if !user.HasTwoFactor() || user.TwoFactorSecret == nil || *user.TwoFactorSecret == "" {
		return ErrTwoFactorNotEnabled
	}

	if !validTOTPCode(code, *user.TwoFactorSecret) {
		return ErrInvalidTOTPCode
	}

	return nil
}

// validTOTPCode accepts the current 30 second step plus one step either side
// to absorb clock drift between the server and the authenticator.
func validTOTPCode(code, secret string) bool {
	ok, err := totp.ValidateCustom(code, secret, time.Now().UTC(), totp.ValidateOpts{
		Period:    30,
		Skew:      1,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	return err == nil && ok
}

// storeBackupCodes hashes each code with argon2id and persists the hashes.
func storeBackupCodes(ctx context.Context, tx store.Tx, userID string, codes []string) error {
	for _, code := range codes {
		hash, err := cryptox.HashPassword(code)
		if err != nil {
			return fmt.Errorf("failed to hash backup code: %w", err)
		}
		if err := tx.BackupCodes().CreateBackupCode(ctx, userID, hash); err != nil {
			return fmt.Errorf("failed to store backup code: %w", err)
		}
	}
	return nil
}

// consumeBackupCode matches the candidate against every stored hash and
// deletes the match in the same transaction. Hashes are salted, so there is
// no direct lookup; each stored hash must be checked in turn. A code whose
// row was deleted by a racing request counts as invalid.
func consumeBackupCode(ctx context.Context, st store.Store, userID string, code string) error {
	candidate := strings.ToUpper(strings.TrimSpace(code))

	return st.WithTx(ctx, func(tx store.Tx) error {
		hashes, err := tx.BackupCodes().ListBackupCodeHashes(ctx, userID)
		if err != nil {
			return fmt.Errorf("failed to list backup codes: %w", err)
		}

		for _, hash := range hashes {
			if cryptox.VerifyPassword(candidate, hash) != nil {
				continue
			}
			if err := tx.BackupCodes().DeleteBackupCode(ctx, userID, hash); err != nil {
				if errors.Is(err, store.ErrNotFound) {
					return ErrInvalidBackupCode
				}
				return fmt.Errorf("failed to consume backup code: %w", err)
			}
			return nil
		}

		return ErrInvalidBackupCode
	})
}
