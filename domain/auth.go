package domain

import (
	"context"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

/****************************
*        Auth errors        *
****************************/
var (
	ErrInvalidCredentials = &DetailedError{
		IDField:         "INVALID_CREDENTIALS",
		StatusDescField: http.StatusText(http.StatusUnauthorized),
		ErrorField:      "Invalid email or password",
		StatusCodeField: http.StatusUnauthorized,
	}
	ErrInvalidToken = &DetailedError{
		IDField:         "INVALID_TOKEN",
		StatusDescField: http.StatusText(http.StatusUnauthorized),
		ErrorField:      "Invalid or expired token",
		StatusCodeField: http.StatusUnauthorized,
	}
	ErrSessionExpired = &DetailedError{
		IDField:         "SESSION_EXPIRED",
		StatusDescField: http.StatusText(http.StatusUnauthorized),
		ErrorField:      "Session has expired",
		StatusCodeField: http.StatusUnauthorized,
	}
	ErrCannotCreateSession = &DetailedError{
		IDField:         "CANNOT_CREATE_SESSION",
		StatusDescField: http.StatusText(http.StatusInternalServerError),
		ErrorField:      "Failed to create session",
		StatusCodeField: http.StatusInternalServerError,
	}
)

/***************************************
*       Auth entities and types       *
***************************************/

type TokenType int

const (
	TokenTypeAccess TokenType = iota
	TokenTypeRefresh
)

type JwtClaims struct {
	Sub string `json:"sub"` // user id
	Sid string `json:"sid"` // session id
	jwt.RegisteredClaims
}

// UserSession lives in the cache with a TTL equal to the refresh token
// lifetime, so expiry is enforced by the store as well as ExpiresAt.
type UserSession struct {
	ID             string `json:"id"`
	UserID         string `json:"user_id"`
	RefreshToken   string `json:"refresh_token"`
	IPAddress      string `json:"ip_address"`
	UserAgent      string `json:"user_agent"`
	CreatedAt      int64  `json:"created_at"`
	ExpiresAt      int64  `json:"expires_at"`
	LastActivityAt int64  `json:"last_activity_at"`
}

func (s *UserSession) IsActive() bool {
	return s.ExpiresAt == 0 || s.ExpiresAt > time.Now().UnixMilli()
}

/*************************************
*  Auth usecase interfaces and types *
**************************************/
type AuthUsecase interface {
	Register(ctx context.Context, req *RegisterRequest) (*AuthResponse, error)
	Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error)
	Logout(ctx context.Context, sessionID string) error
	RefreshToken(ctx context.Context, req *RefreshTokenRequest) (*AuthResponse, error)
	Me(ctx context.Context, userID string) (*UserProfile, error)

	// Authenticate turns a bearer access token into its live session and user.
	Authenticate(ctx context.Context, accessToken string) (*UserSession, *UserProfile, error)
}

type RegisterRequest struct {
	Email     string `json:"email" binding:"required,email,max=100"`
	Password  string `json:"password" binding:"required,min=8,max=72"`
	FullName  string `json:"full_name" binding:"required,not_empty,max=100"`
	IPAddress string `json:"-"`
	UserAgent string `json:"-"`
}

type LoginRequest struct {
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required"`
	IPAddress string `json:"-"`
	UserAgent string `json:"-"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
	IPAddress    string `json:"-"`
	UserAgent    string `json:"-"`
}

type AuthResponse struct {
	User         *UserProfileResponse `json:"user"`
	AccessToken  string               `json:"access_token"`
	RefreshToken string               `json:"refresh_token"`
	ExpiresAt    int64                `json:"expires_at"`
}
