package neo

import (
	"fmt"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

// The cloud delivers access tokens over a server-authenticated channel, so
// claims are read without signature verification. Signing keys are not
// published by the vendor.

// Claim extracts a single claim from a compact token. Malformed tokens,
// invalid payload encoding and absent keys all collapse to ErrClaimMissing;
// the caller decides whether that is fatal.
func Claim(token, key string) (any, error) {
	parsed, _, err := jwtlib.NewParser().ParseUnverified(token, jwtlib.MapClaims{})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrClaimMissing, err)
	}
	claims, ok := parsed.Claims.(jwtlib.MapClaims)
	if !ok {
		return nil, fmt.Errorf("%w: unexpected claims type", ErrClaimMissing)
	}
	value, ok := claims[key]
	if !ok || value == nil {
		return nil, fmt.Errorf("%w: %q", ErrClaimMissing, key)
	}
	return value, nil
}

// ClaimString extracts a claim that must be a non-empty string.
func ClaimString(token, key string) (string, error) {
	value, err := Claim(token, key)
	if err != nil {
		return "", err
	}
	s, ok := value.(string)
	if !ok || s == "" {
		return "", fmt.Errorf("%w: %q is not a string", ErrClaimMissing, key)
	}
	return s, nil
}

// ClaimStrings extracts a claim that must be a non-empty list of strings.
func ClaimStrings(token, key string) ([]string, error) {
	value, err := Claim(token, key)
	if err != nil {
		return nil, err
	}
	raw, ok := value.([]any)
	if !ok || len(raw) == 0 {
		return nil, fmt.Errorf("%w: %q is not a list", ErrClaimMissing, key)
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("%w: %q holds a non-string entry", ErrClaimMissing, key)
		}
		out = append(out, s)
	}
	return out, nil
}
