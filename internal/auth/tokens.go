package auth

import (
	"errors"
	"fmt"
	"time"

	"aidanwoods.dev/go-paseto"
)

const (
	tokenIssuer   = "locallibrary"
	tokenAudience = "locallibrary-web"

	claimSessionID = "sid"
)

// ErrInvalidToken is returned for cookies that fail decryption or validation.
var ErrInvalidToken = errors.New("invalid session token")

// SessionClaims is what a verified session cookie tells us.
type SessionClaims struct {
	SessionID string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// TokenService seals session IDs into PASETO v4.local cookie values.
// The payload is encrypted, so the session ID is not readable client side.
type TokenService struct {
	symmetricKey paseto.V4SymmetricKey
	duration     time.Duration
	now          func() time.Time
}

// NewTokenService creates a token service from a 32-byte key.
func NewTokenService(key []byte, duration time.Duration) (*TokenService, error) {
	if len(key) != keyLength {
		return nil, fmt.Errorf("PASETO v4 key must be exactly %d bytes, got %d", keyLength, len(key))
	}

	symmetricKey, err := paseto.V4SymmetricKeyFromBytes(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create PASETO symmetric key: %w", err)
	}

	return &TokenService{symmetricKey: symmetricKey, duration: duration, now: time.Now}, nil
}

// Duration returns the configured session lifetime.
func (s *TokenService) Duration() time.Duration {
	return s.duration
}

// Seal encrypts sessionID into a cookie value valid for the configured duration.
func (s *TokenService) Seal(sessionID string) string {
	now := s.now()

	token := paseto.NewToken()
	token.SetIssuer(tokenIssuer)
	token.SetAudience(tokenAudience)
	token.SetIssuedAt(now)
	token.SetNotBefore(now)
	token.SetExpiration(now.Add(s.duration))
	token.SetString(claimSessionID, sessionID)

	return token.V4Encrypt(s.symmetricKey, nil)
}

// Open decrypts a cookie value and returns its claims.
func (s *TokenService) Open(value string) (*SessionClaims, error) {
	now := s.now()

	parser := paseto.NewParserWithoutExpiryCheck()
	parser.AddRule(paseto.ForAudience(tokenAudience))
	parser.AddRule(paseto.IssuedBy(tokenIssuer))
	parser.AddRule(paseto.ValidAt(now))

	token, err := parser.ParseV4Local(s.symmetricKey, value, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	sid, err := token.GetString(claimSessionID)
	if err != nil || sid == "" {
		return nil, fmt.Errorf("%w: missing session id", ErrInvalidToken)
	}

	claims := &SessionClaims{SessionID: sid}
	claims.IssuedAt, _ = token.GetIssuedAt()
	claims.ExpiresAt, _ = token.GetExpiration()
	return claims, nil
}
