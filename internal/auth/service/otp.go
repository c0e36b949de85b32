package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/harborbank/tellerauth/internal/auth/domain"
	"github.com/harborbank/tellerauth/internal/auth/mail"
	"github.com/harborbank/tellerauth/internal/auth/store"
	"github.com/harborbank/tellerauth/pkg/cryptox"
	"github.com/harborbank/tellerauth/pkg/jwtx"
)

// OTPChallengeTTL is how long an emailed code stays redeemable.
const OTPChallengeTTL = 10 * time.Minute

var (
	ErrNoChallenge      = errors.New("no active verification code")
	ErrChallengeExpired = errors.New("verification code expired")
	ErrInvalidOTPCode   = errors.New("invalid verification code")
)

// OTPService implements email one-time-code login. A user holds at most one
// active challenge; issuing a new code replaces any prior one.
type OTPService struct {
	Store  store.Store
	Mailer mail.Mailer
	Signer jwtx.Signer
	Issuer string
}

// Issue generates a six digit code, stores it on the user row with its
// expiry, and emails it. Callers should report success to the client even on
// ErrUserNotFound so the endpoint cannot confirm which emails are registered.
func (s *OTPService) Issue(ctx context.Context, email string) error {
	user, err := s.Store.Users().GetUserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to look up user: %w", err)
	}

	code, err := cryptox.GenerateOTPCode()
	if err != nil {
		return fmt.Errorf("failed to generate code: %w", err)
	}

	expiresAt := time.Now().UTC().Add(OTPChallengeTTL)
	if err := s.Store.Users().SetOTPChallenge(ctx, user.ID, code, expiresAt); err != nil {
		return fmt.Errorf("failed to store challenge: %w", err)
	}

	if err := mail.SendOTPEmail(ctx, s.Mailer, user.Email, code, OTPChallengeTTL); err != nil {
		return fmt.Errorf("failed to send code: %w", err)
	}

	return nil
}

// Verify redeems an emailed code and issues a session. An expired challenge
// is cleared on sight; a wrong code leaves the challenge intact so the user
// can retype it. The whole check runs in one transaction and the clear is
// conditional on the stored code, so a challenge is consumed exactly once
// even when two verifications interleave.
func (s *OTPService) Verify(ctx context.Context, email, code string) (domain.Session, error) {
	var (
		user    domain.User
		outcome error
	)

	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		u, err := tx.Users().GetUserByEmail(ctx, normalizeEmail(email))
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				outcome = ErrNoChallenge
				return nil
			}
			return fmt.Errorf("failed to look up user: %w", err)
		}

		if u.OTPCode == nil || u.OTPExpiresAt == nil {
			outcome = ErrNoChallenge
			return nil
		}

		if time.Now().UTC().After(*u.OTPExpiresAt) {
			// Return nil so the wipe commits despite the failed request.
			if err := tx.Users().ClearOTPChallenge(ctx, u.ID); err != nil {
				return fmt.Errorf("failed to clear expired challenge: %w", err)
			}
			outcome = ErrChallengeExpired
			return nil
		}

		if subtle.ConstantTimeCompare([]byte(code), []byte(*u.OTPCode)) != 1 {
			outcome = ErrInvalidOTPCode
			return nil
		}

		// A racing verification that already nulled the row surfaces here
		// as ErrNotFound; that request keeps its session, this one fails.
		if err := tx.Users().ConsumeOTPChallenge(ctx, u.ID, *u.OTPCode); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				outcome = ErrNoChallenge
				return nil
			}
			return fmt.Errorf("failed to consume challenge: %w", err)
		}

		user = u
		return nil
	})
	if err != nil {
		return domain.Session{}, err
	}
	if outcome != nil {
		return domain.Session{}, outcome
	}

	claims := jwtx.NewSessionClaims(
		user.ID, user.Email, user.FirstName, user.LastName,
		jwtx.SessionTTL, s.Issuer, time.Now().UTC(),
	)
	token, err := s.Signer.Sign(claims)
	if err != nil {
		return domain.Session{}, fmt.Errorf("failed to sign session token: %w", err)
	}

	return domain.Session{
		Token:     token,
		ExpiresIn: jwtx.SessionTTL,
		User:      user,
	}, nil
}
