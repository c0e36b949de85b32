/*
Package authsdk provides a client SDK for the tellerauth service.

The types defined here are the wire contract: HTTP handlers on the server
side encode them, and the Client decodes them, so the two cannot drift apart.

Create a Client and authenticate through any of the supported flows:

	client := authsdk.NewClient("https://auth.example.com")

	// Password login
	auth, err := client.Login(ctx, "alice@example.com", "secret")

	// A *TwoFactorRequiredError means the account is 2FA-gated:
	var challenge *authsdk.TwoFactorRequiredError
	if errors.As(err, &challenge) {
		auth, err = client.VerifyTwoFactor(ctx, authsdk.VerifyTwoFactorRequest{
			Email: "alice@example.com",
			Code:  "123456",
		})
	}

	// Or the password-free email OTP path:
	err = client.SendOTP(ctx, "alice@example.com")
	auth, err = client.VerifyOTP(ctx, "alice@example.com", "482913")

Once authenticated the client carries the session token automatically:

	me, err := client.Me(ctx)
	enroll, err := client.EnrollTOTP(ctx)
	codes, err := client.VerifyTOTP(ctx, "123456")

Errors returned by the service are *APIError values carrying the HTTP status
and the caller-facing message from the standard response envelope.
*/
package authsdk
