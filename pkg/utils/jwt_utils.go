package utils

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned by every TokenVerifier when the credential cannot be trusted.
var ErrInvalidToken = errors.New("invalid or expired token")

// VerifiedToken is what the rest of the backend learns from a bearer credential.
type VerifiedToken struct {
	Subject string
	Email   string
}

// TokenVerifier checks a bearer credential and extracts the caller's email.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*VerifiedToken, error)
}

const (
	LocalTokenIssuer      = "clinic-backend"
	DefaultAccessTokenTTL = time.Hour
)

// Claims carried by tokens issued from /login.
type Claims struct {
	UserID int64  `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// LocalTokenVerifier signs and verifies HS256 tokens with a shared secret.
type LocalTokenVerifier struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewLocalTokenVerifier(secret string, ttl time.Duration) *LocalTokenVerifier {
	if ttl <= 0 {
		ttl = DefaultAccessTokenTTL
	}
	return &LocalTokenVerifier{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// GenerateAccessToken creates a signed token for the given account.
func (v *LocalTokenVerifier) GenerateAccessToken(userID int64, email string) (string, time.Time, error) {
	issuedAt := v.now()
	expiresAt := issuedAt.Add(v.ttl)
	claims := &Claims{
		UserID: userID,
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   Int64ToStr(userID),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			Issuer:    LocalTokenIssuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(v.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign access token: %w", err)
	}
	return signed, expiresAt, nil
}

func (v *LocalTokenVerifier) Verify(_ context.Context, tokenString string) (*VerifiedToken, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.secret, nil
	}, jwt.WithIssuer(LocalTokenIssuer), jwt.WithTimeFunc(v.now))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	return &VerifiedToken{Subject: claims.Subject, Email: strings.TrimSpace(claims.Email)}, nil
}

// BearerToken extracts the credential from an "Authorization: Bearer <token>" header value.
func BearerToken(header string) (string, bool) {
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", false
	}
	return parts[1], true
}
