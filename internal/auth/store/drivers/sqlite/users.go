package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/harborbank/tellerauth/internal/auth/domain"
	"github.com/harborbank/tellerauth/internal/auth/store"
)

type usersRepo struct {
	q querier
}

const userColumns = `id, email, password_hash, first_name, last_name,
	two_factor_enabled, two_factor_secret, otp_code, otp_expires_at,
	created_at, updated_at`

func scanUser(row *sql.Row) (domain.User, error) {
	var (
		u                domain.User
		twoFactorEnabled sql.NullTime
		twoFactorSecret  sql.NullString
		otpCode          sql.NullString
		otpExpiresAt     sql.NullTime
	)
	err := row.Scan(
		&u.ID, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName,
		&twoFactorEnabled, &twoFactorSecret, &otpCode, &otpExpiresAt,
		&u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}

	u.TwoFactorEnabled = mapNullTimePtr(twoFactorEnabled)
	u.TwoFactorSecret = mapNullStringPtr(twoFactorSecret)
	u.OTPCode = mapNullStringPtr(otpCode)
	u.OTPExpiresAt = mapNullTimePtr(otpExpiresAt)
	return u, nil
}

func (r *usersRepo) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	row := r.q.QueryRowContext(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE id = ?`, id)
	return scanUser(row)
}

func (r *usersRepo) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	row := r.q.QueryRowContext(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE email = ?`, email)
	return scanUser(row)
}

func (r *usersRepo) CreateUser(ctx context.Context, u domain.User) error {
	now := time.Now().UTC()
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO users (id, email, password_hash, first_name, last_name, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.Email, u.PasswordHash, u.FirstName, u.LastName, now, now)
	return mapConstraint(err)
}

func (r *usersRepo) UpdatePasswordHash(ctx context.Context, userID string, newHash string) error {
	res, err := r.q.ExecContext(ctx, `
		UPDATE users
		SET password_hash = ?, updated_at = ?
		WHERE id = ?`, newHash, time.Now().UTC(), userID)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (r *usersRepo) UpdateTwoFactorSecret(ctx context.Context, userID string, secret string) error {
	res, err := r.q.ExecContext(ctx, `
		UPDATE users
		SET two_factor_secret = ?, updated_at = ?
		WHERE id = ?`, secret, time.Now().UTC(), userID)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (r *usersRepo) EnableTwoFactor(ctx context.Context, userID string) error {
	now := time.Now().UTC()
	res, err := r.q.ExecContext(ctx, `
		UPDATE users
		SET two_factor_enabled = ?, updated_at = ?
		WHERE id = ?`, now, now, userID)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

// DisableTwoFactor drops the enabled flag along with the stored secret so a
// later re-enrolment always starts from a fresh secret.
func (r *usersRepo) DisableTwoFactor(ctx context.Context, userID string) error {
	res, err := r.q.ExecContext(ctx, `
		UPDATE users
		SET two_factor_enabled = NULL, two_factor_secret = NULL, updated_at = ?
		WHERE id = ?`, time.Now().UTC(), userID)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (r *usersRepo) SetOTPChallenge(ctx context.Context, userID string, code string, expiresAt time.Time) error {
	res, err := r.q.ExecContext(ctx, `
		UPDATE users
		SET otp_code = ?, otp_expires_at = ?, updated_at = ?
		WHERE id = ?`, code, expiresAt.UTC(), time.Now().UTC(), userID)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (r *usersRepo) ClearOTPChallenge(ctx context.Context, userID string) error {
	res, err := r.q.ExecContext(ctx, `
		UPDATE users
		SET otp_code = NULL, otp_expires_at = NULL, updated_at = ?
		WHERE id = ?`, time.Now().UTC(), userID)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (r *usersRepo) ConsumeOTPChallenge(ctx context.Context, userID string, code string) error {
	res, err := r.q.ExecContext(ctx, `
		UPDATE users
		SET otp_code = NULL, otp_expires_at = NULL, updated_at = ?
		WHERE id = ? AND otp_code = ?`, time.Now().UTC(), userID, code)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (r *usersRepo) ClearExpiredOTPChallenges(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.q.ExecContext(ctx, `
		UPDATE users
		SET otp_code = NULL, otp_expires_at = NULL
		WHERE otp_expires_at IS NOT NULL AND otp_expires_at < ?`, now.UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}
