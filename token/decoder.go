package token

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrMalformed is returned when the token cannot be parsed at all
	ErrMalformed = errors.New("malformed token")

	// ErrUnknownKey is returned when a key set holds no entry for the
	// token's declared key identifier
	ErrUnknownKey = errors.New("unknown token key")

	// ErrVerification is returned for any signature, audience, expiry or
	// required-claims failure. Callers get this single bucket; the wrapped
	// detail is for internal logs only.
	ErrVerification = errors.New("token verification failed")
)

// Decode verifies a raw token string against the shared secret. The token's
// key identifier, if any, is ignored: a single secret leaves nothing to
// select.
func (s *SharedSecret) Decode(tokenString string) (*Claims, error) {
	return s.decoder.decode(tokenString)
}

// Decode verifies a raw token string against the key set. The token header
// must declare a key identifier matching an entry; a missing or unknown kid
// fails closed with ErrUnknownKey rather than trying every key.
func (ks *KeySet) Decode(tokenString string) (*Claims, error) {
	kid, err := unverifiedKid(tokenString)
	if err != nil {
		return nil, err
	}
	if kid == "" {
		return nil, fmt.Errorf("%w: token header carries no kid", ErrUnknownKey)
	}
	d, ok := ks.decoders[kid]
	if !ok {
		return nil, fmt.Errorf("%w: kid %q not in key set", ErrUnknownKey, kid)
	}
	return d.decode(tokenString)
}

// unverifiedKid extracts the declared key identifier from the token header
// without verifying anything else
func unverifiedKid(tokenString string) (string, error) {
	tok, _, err := jwt.NewParser().ParseUnverified(tokenString, jwt.MapClaims{})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	kid, _ := tok.Header["kid"].(string)
	return kid, nil
}

// decode runs full verification for one key: signing method, signature,
// audience, expiry and required-claims presence, then extracts the typed
// claim set.
func (d decoder) decode(tokenString string) (*Claims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{d.rules.Method.Alg()}),
		jwt.WithAudience(d.rules.Audience),
		jwt.WithExpirationRequired(),
	)

	payload := jwt.MapClaims{}
	_, err := parser.ParseWithClaims(tokenString, payload, func(t *jwt.Token) (any, error) {
		return d.key, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenMalformed) {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrVerification, err)
	}

	for _, name := range d.rules.RequiredClaims {
		if _, ok := payload[name]; !ok {
			return nil, fmt.Errorf("%w: missing required claim %q", ErrVerification, name)
		}
	}

	return claimsFromPayload(payload)
}
