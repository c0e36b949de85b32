package domain

import "time"

type User struct {
	ID               string
	Email            string
	PasswordHash     string     // argon2 encoded
	FirstName        string
	LastName         string
	TwoFactorEnabled *time.Time // Timestamp when 2FA was enabled (nullable)
	TwoFactorSecret  *string    // TOTP secret (nullable, base32 encoded)
	OTPCode          *string    // Live email OTP challenge (nullable)
	OTPExpiresAt     *time.Time // Expiry of the live challenge (nullable, paired with OTPCode)
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// HasTwoFactor reports whether 2FA is fully enabled (secret staged via
// enrollment alone does not count).
func (u User) HasTwoFactor() bool {
	return u.TwoFactorEnabled != nil
}
