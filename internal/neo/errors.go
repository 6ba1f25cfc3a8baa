package neo

import (
	"errors"
	"fmt"
)

var (
	// ErrClaimMissing is returned when a claim cannot be obtained from a token,
	// whether because the token is malformed or the claim is absent.
	ErrClaimMissing = errors.New("claim missing from token")

	// ErrUnsupportedCommand is returned when a motor cannot execute the
	// requested command (second favorite or percentage position).
	ErrUnsupportedCommand = errors.New("command not supported by motor")
)

// AuthError marks failures that require the user to re-authenticate:
// rejected credentials, token responses missing tokens, or a failed
// post-refresh retry. Transport failures are never wrapped in AuthError.
type AuthError struct {
	Reason string
	Err    error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("authentication failed: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("authentication failed: %s", e.Reason)
}

func (e *AuthError) Unwrap() error { return e.Err }

// HTTPError is a non-2xx response from the cloud API that is not an
// expiry condition handled by the refresh path.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("unexpected status code %d: %s", e.StatusCode, e.Body)
}

// IsAuthError reports whether err is an authentication failure.
func IsAuthError(err error) bool {
	var authErr *AuthError
	return errors.As(err, &authErr)
}
