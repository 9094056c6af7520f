package service

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"github.com/noah-isme/tutorpay-api/internal/models"
	appErrors "github.com/noah-isme/tutorpay-api/pkg/errors"
)

// AuthConfig holds token verification settings. Tokens are issued by the
// identity service; this API only verifies them.
type AuthConfig struct {
	AccessTokenSecret string
	Issuer            string
}

// AuthService validates access tokens minted by the identity service.
type AuthService struct {
	config AuthConfig
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(config AuthConfig) *AuthService {
	return &AuthService{config: config}
}

// ValidateToken parses and validates an access token returning the claims.
func (s *AuthService) ValidateToken(tokenString string) (*models.JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.AccessTokenSecret), nil
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid token")
	}

	claims, ok := token.Claims.(*models.JWTClaims)
	if !ok || !token.Valid {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token claims")
	}
	if s.config.Issuer != "" {
		if issuer, err := claims.GetIssuer(); err != nil || issuer != s.config.Issuer {
			return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token issuer")
		}
	}
	return claims, nil
}
