package cryptox

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"
)

// BackupCodeLength is the hex-character length of a recovery code.
const BackupCodeLength = 8

// GenerateBackupCode creates a single cryptographically random recovery code:
// 8 uppercase hex characters (32 bits of entropy). Codes are shown to the
// user exactly once and stored only as salted hashes.
func GenerateBackupCode() (string, error) {
	buf := make([]byte, BackupCodeLength/2)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("cryptox: failed to generate backup code: %w", err)
	}
	return strings.ToUpper(hex.EncodeToString(buf)), nil
}

// GenerateBackupCodes creates count independent recovery codes.
func GenerateBackupCodes(count int) ([]string, error) {
	if count <= 0 {
		return nil, fmt.Errorf("cryptox: backup code count must be positive, got %d", count)
	}
	codes := make([]string, count)
	for i := range codes {
		code, err := GenerateBackupCode()
		if err != nil {
			return nil, err
		}
		codes[i] = code
	}
	return codes, nil
}

// GenerateOTPCode returns a uniformly random 6-digit numeric code in the
// range 100000-999999, suitable for out-of-band delivery over email.
func GenerateOTPCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", fmt.Errorf("cryptox: failed to generate OTP code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}
