package jwt

import (
	"time"

	libjwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/calhub/calendar-service-go/internal/dependency"
	"github.com/calhub/calendar-service-go/internal/dto"
)

const (
	UserTokenType        = "USER"
	GoogleOAuthStateType = "GoogleOAuthState"
)

func generateRegisteredClaims(expiration int) libjwt.RegisteredClaims {
	return libjwt.RegisteredClaims{
		ExpiresAt: libjwt.NewNumericDate(time.Now().Add(time.Duration(expiration) * time.Second)),
		IssuedAt:  libjwt.NewNumericDate(time.Now()),
		ID:        uuid.New().String(),
	}
}

func sign(dep *dependency.Dependency, claims libjwt.Claims) (string, error) {
	token := libjwt.NewWithClaims(libjwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString([]byte(dep.Cfg.JwtSecret))
	if err != nil {
		return "", err
	}

	return signedToken, nil
}

func SignUserToken(dep *dependency.Dependency, userID string, email string) (string, error) {
	return sign(dep, dto.UserJwtPayload{
		UserID:           userID,
		Email:            email,
		Type:             UserTokenType,
		RegisteredClaims: generateRegisteredClaims(dep.Cfg.UserTokenExpiry),
	})
}

func SignOauthStateToken(dep *dependency.Dependency) (string, error) {
	return sign(dep, dto.OauthStateJwtPayload{
		Type:             GoogleOAuthStateType,
		RegisteredClaims: generateRegisteredClaims(dep.Cfg.OauthStateTokenExpiry),
	})
}

func validateToken[T libjwt.Claims](dep *dependency.Dependency, signedToken string, claims T) (T, error) {
	token, err := libjwt.ParseWithClaims(
		signedToken,
		claims,
		func(token *libjwt.Token) (any, error) {
			return []byte(dep.Cfg.JwtSecret), nil
		},
		libjwt.WithValidMethods([]string{libjwt.SigningMethodHS256.Alg()}),
	)
	if err != nil {
		return claims, err
	}

	if !token.Valid {
		return claims, libjwt.ErrTokenInvalidClaims
	}

	return claims, nil
}

func ValidateUserTokenGeneric(dep *dependency.Dependency, signedToken string) (*dto.UserJwtPayload, error) {
	claims := &dto.UserJwtPayload{}
	parsedClaims, err := validateToken(dep, signedToken, claims)
	if err != nil {
		return nil, err
	}

	if parsedClaims.Type != UserTokenType || parsedClaims.UserID == "" {
		return nil, libjwt.ErrTokenInvalidClaims
	}

	return parsedClaims, nil
}

func ValidateOauthStateToken(dep *dependency.Dependency, signedToken string) (*dto.OauthStateJwtPayload, error) {
	claims := &dto.OauthStateJwtPayload{}
	parsedClaims, err := validateToken(dep, signedToken, claims)
	if err != nil {
		return nil, err
	}

	if parsedClaims.Type != GoogleOAuthStateType {
		return nil, libjwt.ErrTokenInvalidClaims
	}

	return parsedClaims, nil
}
