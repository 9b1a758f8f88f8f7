package utils

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalTokenRoundTrip(t *testing.T) {
	v := NewLocalTokenVerifier("test-secret", time.Hour)

	token, expiresAt, err := v.GenerateAccessToken(42, "doc@clinic.test")
	require.NoError(t, err)
	assert.True(t, expiresAt.After(time.Now()))

	verified, err := v.Verify(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "doc@clinic.test", verified.Email)
	assert.Equal(t, "42", verified.Subject)
}

func TestLocalTokenRejectsOtherSecret(t *testing.T) {
	issuer := NewLocalTokenVerifier("secret-a", time.Hour)
	token, _, err := issuer.GenerateAccessToken(1, "a@clinic.test")
	require.NoError(t, err)

	_, err = NewLocalTokenVerifier("secret-b", time.Hour).Verify(context.Background(), token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestLocalTokenRejectsExpired(t *testing.T) {
	v := NewLocalTokenVerifier("secret", time.Minute)
	v.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	token, _, err := v.GenerateAccessToken(1, "a@clinic.test")
	require.NoError(t, err)

	v.now = time.Now
	_, err = v.Verify(context.Background(), token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestBearerToken(t *testing.T) {
	tok, ok := BearerToken("Bearer abc.def")
	assert.True(t, ok)
	assert.Equal(t, "abc.def", tok)

	_, ok = BearerToken("Basic abc")
	assert.False(t, ok)
	_, ok = BearerToken("Bearer")
	assert.False(t, ok)
}

func jwksServer(t *testing.T, kid string, pub *rsa.PublicKey) *httptest.Server {
	t.Helper()
	body := map[string]interface{}{
		"keys": []map[string]string{{
			"kty": "RSA",
			"kid": kid,
			"use": "sig",
			"alg": "RS256",
			"n":   base64.RawURLEncoding.EncodeToString(pub.N.Bytes()),
			"e":   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(pub.E)).Bytes()),
		}},
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func signRS256(t *testing.T, key *rsa.PrivateKey, kid string, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = kid
	signed, err := token.SignedString(key)
	require.NoError(t, err)
	return signed
}

func TestJWKSVerifierAcceptsProviderToken(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	srv := jwksServer(t, "kid-1", &key.PublicKey)

	v := NewJWKSVerifier(JWKSConfig{JWKSURL: srv.URL, Issuer: "https://idp.test", Audience: "clinic"}, srv.Client())
	token := signRS256(t, key, "kid-1", jwt.MapClaims{
		"sub":   "uid-1",
		"email": "doc@clinic.test",
		"iss":   "https://idp.test",
		"aud":   "clinic",
		"exp":   time.Now().Add(time.Hour).Unix(),
	})

	verified, err := v.Verify(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "doc@clinic.test", verified.Email)
	assert.Equal(t, "uid-1", verified.Subject)
}

func TestJWKSVerifierRejectsWrongAudience(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	srv := jwksServer(t, "kid-1", &key.PublicKey)

	v := NewJWKSVerifier(JWKSConfig{JWKSURL: srv.URL, Audience: "clinic"}, srv.Client())
	token := signRS256(t, key, "kid-1", jwt.MapClaims{
		"email": "doc@clinic.test",
		"aud":   "someone-else",
		"exp":   time.Now().Add(time.Hour).Unix(),
	})

	_, err = v.Verify(context.Background(), token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWKSVerifierUnknownKid(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	srv := jwksServer(t, "kid-1", &key.PublicKey)

	v := NewJWKSVerifier(JWKSConfig{JWKSURL: srv.URL}, srv.Client())
	token := signRS256(t, key, "kid-2", jwt.MapClaims{
		"email": "doc@clinic.test",
		"exp":   time.Now().Add(time.Hour).Unix(),
	})

	_, err = v.Verify(context.Background(), token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
