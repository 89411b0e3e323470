package auth

import (
	"fmt"
	"strconv"
	"time"

	"pontifex-go/internal/config"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the payload of a session token. UserID is carried as its own
// claim so handlers never have to parse it back out of the Subject string.
type Claims struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// GenerateToken signs an HS256 session token valid for cfg.JWTTTL.
func GenerateToken(userID int64, username string, cfg config.Config) (string, error) {
	if cfg.JWTSecret == "" {
		return "", fmt.Errorf("JWT_SECRET is required")
	}

	now := time.Now().UTC()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		UserID:   userID,
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    cfg.JWTIssuer,
			Subject:   strconv.FormatInt(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(cfg.JWTTTL)),
		},
	})
	return tok.SignedString([]byte(cfg.JWTSecret))
}

// ParseAndValidateToken checks the signature, issuer, and time claims of a
// raw token and returns its claims. Clock skew up to 30s is tolerated.
func ParseAndValidateToken(raw string, cfg config.Config) (*Claims, error) {
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	keyFor := func(t *jwt.Token) (any, error) {
		// Pinning the method rejects alg-substitution tokens ("none", RS256).
		if t.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(cfg.JWTSecret), nil
	}

	tok, err := jwt.ParseWithClaims(raw, &Claims{}, keyFor,
		jwt.WithIssuer(cfg.JWTIssuer),
		jwt.WithLeeway(30*time.Second),
	)
	if err != nil {
		return nil, err
	}
	claims, ok := tok.Claims.(*Claims)
	if !ok || !tok.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}
