package domain

// TOTPEnrollment is returned when a user stages an authenticator secret.
// 2FA is NOT enabled until the user verifies a generated code.
type TOTPEnrollment struct {
	Secret     string // Base32 encoded secret for TOTP
	OTPAuthURL string // otpauth:// URL for QR code generation
	Issuer     string // Issuer name (the service name)
	Account    string // Account name (the user email)
}
