package utils

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type JWTClaims struct {
	UserID primitive.ObjectID `json:"user_id"`
	Name   string             `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// GenerateAccessToken signs an HS256 token for userID. The identity provider
// issues tokens in production; this exists for local tooling and tests.
func GenerateAccessToken(userID primitive.ObjectID, name, secretKey string, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = JWTAccessTokenTTL
	}
	now := time.Now()
	claims := &JWTClaims{
		UserID: userID,
		Name:   name,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    AppName,
			Subject:   userID.Hex(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secretKey))
}

func ValidateToken(tokenString, secretKey string) (*JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secretKey), nil
	})

	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*JWTClaims)
	if !ok || !token.Valid {
		return nil, errors.New(ErrInvalidToken)
	}

	// Tokens minted elsewhere may only carry the subject.
	if claims.UserID.IsZero() && claims.Subject != "" {
		id, err := primitive.ObjectIDFromHex(claims.Subject)
		if err != nil {
			return nil, errors.New(ErrInvalidToken)
		}
		claims.UserID = id
	}
	if claims.UserID.IsZero() {
		return nil, errors.New(ErrInvalidToken)
	}

	return claims, nil
}
