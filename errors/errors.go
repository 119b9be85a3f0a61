package errors

import "fmt"

// Authentication failures. Handlers map these to 401, the websocket
// handshake refuses the connection before any event exchange.
var (
	ErrMissingToken = fmt.Errorf("missing auth token")
	ErrInvalidToken = fmt.Errorf("invalid auth token")
)

// Validation failures. No store mutation happens when one is returned.
var (
	ErrEmptyText          = fmt.Errorf("message text is empty")
	ErrMissingRecipient   = fmt.Errorf("recipient is required")
	ErrTextTooLong        = fmt.Errorf("message text exceeds maximum length")
	ErrInvalidPassword    = fmt.Errorf("password does not meet complexity rules")
	ErrUserAlreadyExists  = fmt.Errorf("user already exists")
	ErrInvalidCredentials = fmt.Errorf("invalid credentials")
	ErrUserNotFound       = fmt.Errorf("user not found")
)

// Infrastructure failures.
var (
	ErrStoreFailure    = fmt.Errorf("durable store failure")
	ErrTokenGeneration = fmt.Errorf("token generation failed")
	ErrEmptyWords      = fmt.Errorf("no words have been found")
)
