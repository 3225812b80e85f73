// Package token verifies bearer tokens against process-wide key material
// and evaluates the permissions their claims assert.
package token

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

// DefaultAudience is the audience expected when AUTH_JWT_AUD is not set.
const DefaultAudience = "outerspace.silenlocatelli.com"

// platformAppsClaim must be present in every accepted token.
const platformAppsClaim = "tax_platform_apps"

// ErrNoKeyMaterial is returned when neither key source yields usable keys
var ErrNoKeyMaterial = errors.New("no usable jwt key material")

// ValidationRules fixes how a single verification key is applied: the
// signing method it expects, the audience it accepts, and the claim names
// that must be present in the payload.
type ValidationRules struct {
	Method         jwt.SigningMethod
	Audience       string
	RequiredClaims []string
}

// DefaultRules builds the validation rules for a key. An empty audience
// falls back to DefaultAudience.
func DefaultRules(method jwt.SigningMethod, audience string) ValidationRules {
	if audience == "" {
		audience = DefaultAudience
	}
	return ValidationRules{
		Method:         method,
		Audience:       audience,
		RequiredClaims: []string{"exp", platformAppsClaim},
	}
}

// decoder pairs one verification key with its validation rules
type decoder struct {
	key   any
	rules ValidationRules
}

// KeyMaterial is the frozen verification state shared by all requests.
// It is resolved once at startup and never mutated afterwards.
type KeyMaterial interface {
	// Decode verifies a raw token string and returns its claims.
	// Failures are one of ErrMalformed, ErrUnknownKey or ErrVerification.
	Decode(tokenString string) (*Claims, error)

	// Mode names the key-distribution mode for logging
	Mode() string
}

// SharedSecret is key material backed by a single HS256 secret. Any key
// identifier embedded in a token header is ignored.
type SharedSecret struct {
	decoder decoder
}

// NewSharedSecret creates key material from a static shared secret
func NewSharedSecret(secret []byte, rules ValidationRules) *SharedSecret {
	return &SharedSecret{decoder: decoder{key: secret, rules: rules}}
}

// Mode names the key-distribution mode for logging
func (s *SharedSecret) Mode() string {
	return "shared-secret"
}

// KeySet is key material backed by a remote key set, indexed by key
// identifier. Tokens must declare a kid that matches an entry; there is no
// fallback to trying every key.
type KeySet struct {
	decoders map[string]decoder
}

// NewKeySet creates key material from kid-indexed RSA public keys
func NewKeySet(keys map[string]*rsa.PublicKey, rules ValidationRules) *KeySet {
	decoders := make(map[string]decoder, len(keys))
	for kid, key := range keys {
		decoders[kid] = decoder{key: key, rules: rules}
	}
	return &KeySet{decoders: decoders}
}

// Mode names the key-distribution mode for logging
func (ks *KeySet) Mode() string {
	return "jwks"
}

// Len returns the number of usable keys in the set
func (ks *KeySet) Len() int {
	return len(ks.decoders)
}

// Config holds configuration for key material resolution
type Config struct {
	JWKSURL     string
	HS256Secret string
	Audience    string
	HTTPTimeout time.Duration
}

// LoadKeyMaterial resolves verification key material at process startup.
// It first attempts to fetch the remote key set from cfg.JWKSURL; on any
// failure it falls back to the static HS256 secret, logged as a degraded
// mode. When neither source is usable the process must not start, so an
// error is returned for the caller to treat as fatal.
func LoadKeyMaterial(ctx context.Context, cfg Config, logger *zap.Logger) (KeyMaterial, error) {
	keySet, jwksErr := fetchKeySet(ctx, cfg, logger)
	if jwksErr == nil {
		logger.Info("jwt key set loaded",
			zap.String("mode", keySet.Mode()),
			zap.Int("keys", keySet.Len()))
		if keySet.Len() == 0 {
			logger.Warn("jwt key set contains no usable keys, all tokens will be rejected")
		}
		return keySet, nil
	}

	if cfg.HS256Secret != "" {
		logger.Warn("using single jwt key secret", zap.Error(jwksErr))
		return NewSharedSecret([]byte(cfg.HS256Secret), DefaultRules(jwt.SigningMethodHS256, cfg.Audience)), nil
	}

	logger.Error("failed to fetch jwk key set", zap.Error(jwksErr))
	logger.Error("failed to load jwk secret: AUTH_HS256_SECRET not set")
	return nil, fmt.Errorf("%w: %v", ErrNoKeyMaterial, jwksErr)
}

// jwks represents the JSON Web Key Set response
type jwks struct {
	Keys []jwk `json:"keys"`
}

// jwk represents a single JSON Web Key
type jwk struct {
	Kid string `json:"kid"`
	Kty string `json:"kty"`
	Alg string `json:"alg"`
	Use string `json:"use"`
	N   string `json:"n"`
	E   string `json:"e"`
}

// fetchKeySet retrieves the remote key set and builds a KeySet from every
// entry that carries both a key identifier and a convertible RSA key.
// Entries missing either are dropped, not fatal.
func fetchKeySet(ctx context.Context, cfg Config, logger *zap.Logger) (*KeySet, error) {
	if cfg.JWKSURL == "" {
		return nil, errors.New("AUTH_JWKS_URL not set")
	}

	timeout := cfg.HTTPTimeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	client := &http.Client{Timeout: timeout}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, cfg.JWKSURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch jwks: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch jwks: status code %d", resp.StatusCode)
	}

	var set jwks
	if err := json.NewDecoder(resp.Body).Decode(&set); err != nil {
		return nil, fmt.Errorf("failed to decode jwks: %w", err)
	}

	keys := make(map[string]*rsa.PublicKey)
	for i := range set.Keys {
		entry := &set.Keys[i]
		if entry.Kid == "" || entry.Kty != "RSA" {
			logger.Debug("skipping jwks entry",
				zap.String("kid", entry.Kid),
				zap.String("kty", entry.Kty))
			continue
		}
		key, err := jwkToRSAPublicKey(entry)
		if err != nil {
			logger.Debug("skipping unusable jwks entry",
				zap.String("kid", entry.Kid),
				zap.Error(err))
			continue
		}
		keys[entry.Kid] = key
	}

	return NewKeySet(keys, DefaultRules(jwt.SigningMethodRS256, cfg.Audience)), nil
}

// jwkToRSAPublicKey converts a JWK entry to an RSA public key
func jwkToRSAPublicKey(entry *jwk) (*rsa.PublicKey, error) {
	nBytes, err := base64.RawURLEncoding.DecodeString(entry.N)
	if err != nil {
		return nil, fmt.Errorf("failed to decode modulus: %w", err)
	}

	eBytes, err := base64.RawURLEncoding.DecodeString(entry.E)
	if err != nil {
		return nil, fmt.Errorf("failed to decode exponent: %w", err)
	}

	n := new(big.Int).SetBytes(nBytes)

	var e int
	for _, b := range eBytes {
		e = e*256 + int(b)
	}

	return &rsa.PublicKey{N: n, E: e}, nil
}
