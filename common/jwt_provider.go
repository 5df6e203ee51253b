package common

import (
	"bill-tracker/domain"
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
)

type JwtProviderConfig interface {
	AccessTokenExpiresIn() time.Duration
	AccessTokenSecret() string
	RefreshTokenExpiresIn() time.Duration
	TokenIssuer() string
}

// JWTProvider issues HS256 access tokens and opaque refresh tokens. Refresh
// tokens are random strings checked against the stored session, not JWTs.
type JWTProvider struct {
	cfg JwtProviderConfig
	now func() time.Time
}

func NewJWTProvider(cfg JwtProviderConfig) *JWTProvider {
	return &JWTProvider{cfg: cfg, now: time.Now}
}

func (j *JWTProvider) Generate(tokenType domain.TokenType, userID, sessionID string) (string, error) {
	switch tokenType {
	case domain.TokenTypeAccess:
		return j.generateAccessToken(userID, sessionID)
	case domain.TokenTypeRefresh:
		return generateOpaqueToken(32)
	default:
		return "", errors.Errorf("unknown token type %d", tokenType)
	}
}

func (j *JWTProvider) AccessTokenTTL() time.Duration {
	return j.cfg.AccessTokenExpiresIn()
}

func (j *JWTProvider) RefreshTokenTTL() time.Duration {
	return j.cfg.RefreshTokenExpiresIn()
}

func (j *JWTProvider) generateAccessToken(userID, sessionID string) (string, error) {
	now := j.now()
	claims := domain.JwtClaims{
		Sub: userID,
		Sid: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    j.cfg.TokenIssuer(),
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(j.cfg.AccessTokenExpiresIn())),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(j.cfg.AccessTokenSecret()))
}

func (j *JWTProvider) Verify(tokenType domain.TokenType, tokenStr string) (*domain.JwtClaims, error) {
	if tokenType != domain.TokenTypeAccess {
		return nil, errors.New("only access tokens are verifiable")
	}

	token, err := jwt.ParseWithClaims(tokenStr, &domain.JwtClaims{},
		func(token *jwt.Token) (interface{}, error) {
			return []byte(j.cfg.AccessTokenSecret()), nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(j.cfg.TokenIssuer()),
		jwt.WithTimeFunc(j.now),
	)
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*domain.JwtClaims)
	if !ok || !token.Valid || claims.Sub == "" || claims.Sid == "" {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}

func generateOpaqueToken(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
