package security

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	uuid "github.com/google/uuid"
)

// ErrTokenExpired indicates an otherwise valid access token past its expiry.
var ErrTokenExpired = errors.New("jwt: token expired")

// ErrTokenInvalid indicates a malformed, unsigned or tampered access token.
var ErrTokenInvalid = errors.New("jwt: token invalid")

// AccessTokenClaims carries the authenticated user identity inside the JWT.
type AccessTokenClaims struct {
	UserID string `json:"uid"`
	Email  string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// AccessTokenOptions configures creation of access token claims.
type AccessTokenOptions struct {
	UserID   string
	Email    string
	Issuer   string
	TTL      time.Duration
	IssuedAt time.Time
}

const defaultAccessTokenTTL = 15 * time.Minute

// NewAccessTokenClaims constructs standardized access token claims.
func NewAccessTokenClaims(opts AccessTokenOptions) (*AccessTokenClaims, error) {
	userID := strings.TrimSpace(opts.UserID)
	if userID == "" {
		return nil, fmt.Errorf("jwt: user id is required")
	}
	issuer := strings.TrimSpace(opts.Issuer)
	if issuer == "" {
		return nil, fmt.Errorf("jwt: issuer is required")
	}

	now := opts.IssuedAt
	if now.IsZero() {
		now = time.Now().UTC()
	} else {
		now = now.UTC()
	}

	ttl := opts.TTL
	if ttl <= 0 {
		ttl = defaultAccessTokenTTL
	}

	return &AccessTokenClaims{
		UserID: userID,
		Email:  strings.TrimSpace(opts.Email),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
	}, nil
}

// JWTManager signs and verifies RS256 access tokens using a KeyProvider.
type JWTManager struct {
	provider KeyProvider
	issuer   string
}

// NewJWTManager constructs a JWTManager for the supplied key provider.
func NewJWTManager(provider KeyProvider, issuer string) *JWTManager {
	return &JWTManager{provider: provider, issuer: issuer}
}

// Issuer returns the configured token issuer.
func (m *JWTManager) Issuer() string {
	return m.issuer
}

// SignAccessToken signs the claims with the active signing key, embedding the
// kid so verifiers can select the matching public key.
func (m *JWTManager) SignAccessToken(claims *AccessTokenClaims) (string, error) {
	if claims == nil {
		return "", fmt.Errorf("jwt: access token claims required")
	}

	signingKey, err := m.provider.GetSigningKey()
	if err != nil {
		return "", fmt.Errorf("jwt: get signing key: %w", err)
	}

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = m.provider.SigningKID()

	signed, err := token.SignedString(signingKey)
	if err != nil {
		return "", fmt.Errorf("jwt: sign token: %w", err)
	}

	return signed, nil
}

// ParseAccessToken verifies the signature, algorithm, issuer and expiry of the
// supplied token. Expired tokens return ErrTokenExpired; any other defect
// returns ErrTokenInvalid.
func (m *JWTManager) ParseAccessToken(tokenString string) (*AccessTokenClaims, error) {
	claims := &AccessTokenClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		kid, _ := token.Header["kid"].(string)
		if kid == "" {
			return nil, ErrKeyNotFound
		}
		return m.provider.GetVerificationKey(kid)
	}, jwt.WithIssuer(m.issuer), jwt.WithValidMethods([]string{"RS256"}))

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	if !token.Valid {
		return nil, ErrTokenInvalid
	}

	return claims, nil
}
