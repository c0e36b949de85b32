package domain

import "time"

// Session is the result of a completed authentication flow: a signed bearer
// token plus the user it belongs to. Nothing here is persisted server-side;
// token validity is purely cryptographic.
type Session struct {
	Token     string
	ExpiresIn time.Duration
	User      User
}
