package auth

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Issuer is set on every token this service signs.
const Issuer = "tewans-kitchen-pos"

// DefaultTTL is the lifetime of a delivery token.
const DefaultTTL = 5 * time.Minute

// ErrDigestMismatch is returned when a body does not match the token's digest.
var ErrDigestMismatch = errors.New("body digest mismatch")

// Claims identifies one exported transaction and pins the exact body that
// was sent with it.
type Claims struct {
	TransactionID string `json:"transaction_id"`
	TableID       int    `json:"table_id"`
	Digest        string `json:"digest"`
	jwt.RegisteredClaims
}

// GenerateToken signs a delivery token. A non-positive ttl uses DefaultTTL.
func GenerateToken(secret, transactionID string, tableID int, digest string, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	now := time.Now()
	claims := Claims{
		TransactionID: transactionID,
		TableID:       tableID,
		Digest:        digest,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    Issuer,
			Subject:   transactionID,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

func ValidateToken(secret, tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	}, jwt.WithIssuer(Issuer))
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}

// Digest is the hex SHA-256 of body.
func Digest(body []byte) string {
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:])
}

// VerifyBody checks that body is the one the token was issued for.
func (c *Claims) VerifyBody(body []byte) error {
	if c.Digest != Digest(body) {
		return ErrDigestMismatch
	}
	return nil
}
