package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"bill-tracker/domain"
	"bill-tracker/pkg/log"
	"bill-tracker/pkg/utils"
)

type Hasher interface {
	Hash(password string) (string, error)
	Compare(hashed, password string) bool
}

type JWTProvider interface {
	Generate(tokenType domain.TokenType, userID string, sessionID string) (string, error)
	Verify(tokenType domain.TokenType, tokenStr string) (*domain.JwtClaims, error)
	AccessTokenTTL() time.Duration
	RefreshTokenTTL() time.Duration
}

type UserRepository interface {
	Create(ctx context.Context, user *domain.UserProfile) error
	FindByID(ctx context.Context, userID string) (*domain.UserProfile, error)
	FindByEmail(ctx context.Context, email string) (*domain.UserProfile, error)
	UpdateLastLogin(ctx context.Context, userID string, at int64) error
}

type SessionRepository interface {
	Save(ctx context.Context, session *domain.UserSession, ttl time.Duration) error
	FindByID(ctx context.Context, id string) (*domain.UserSession, error)
	FindByRefreshToken(ctx context.Context, tokenHash string) (*domain.UserSession, error)
	Delete(ctx context.Context, session *domain.UserSession) error
	DeleteRefreshToken(ctx context.Context, tokenHash string) error
}

type AuditLogger interface {
	LogEvent(ctx context.Context, userID, userEmail string, action domain.AuditAction, metadata map[string]any)
}

type Validator interface {
	Validate(obj any) error
}

type authUsecase struct {
	users     UserRepository
	sessions  SessionRepository
	jwt       JWTProvider
	hasher    Hasher
	audit     AuditLogger
	validator Validator
	logger    log.Logger
}

func NewAuthUsecase(
	users UserRepository,
	sessions SessionRepository,
	jwtProvider JWTProvider,
	hasher Hasher,
	audit AuditLogger,
	validator Validator,
	logger log.Logger,
) domain.AuthUsecase {
	return &authUsecase{
		users:     users,
		sessions:  sessions,
		jwt:       jwtProvider,
		hasher:    hasher,
		audit:     audit,
		validator: validator,
		logger:    logger,
	}
}

// hashToken keeps raw refresh tokens out of the session store.
func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (a *authUsecase) Register(ctx context.Context, req *domain.RegisterRequest) (*domain.AuthResponse, error) {
	req.Email = normalizeEmail(req.Email)
	if err := a.validator.Validate(req); err != nil {
		return nil, err
	}
	email := req.Email

	_, err := a.users.FindByEmail(ctx, email)
	if err == nil {
		return nil, domain.ErrEmailAlreadyExists
	}
	if !errors.Is(err, domain.ErrRecordNotFound) {
		return nil, domain.BackendError(err, nil)
	}

	hashed, err := a.hasher.Hash(req.Password)
	if err != nil {
		return nil, domain.ErrPasswordHashFailed.WithWrap(err)
	}
	user := &domain.UserProfile{
		Email:        email,
		PasswordHash: hashed,
		FullName:     strings.TrimSpace(req.FullName),
		Role:         domain.RoleFreeUser,
		IsActive:     true,
	}
	if err := a.users.Create(ctx, user); err != nil {
		return nil, domain.BackendError(err, nil)
	}

	resp, err := a.issueSession(ctx, user, req.IPAddress, req.UserAgent)
	if err != nil {
		return nil, err
	}
	a.audit.LogEvent(ctx, user.ID, user.Email, domain.AuditActionRegister, map[string]any{
		domain.AuditMetaIPAddress: req.IPAddress,
	})
	return resp, nil
}

// Login answers INVALID_CREDENTIALS for an unknown email and a wrong
// password alike.
func (a *authUsecase) Login(ctx context.Context, req *domain.LoginRequest) (*domain.AuthResponse, error) {
	req.Email = normalizeEmail(req.Email)
	if err := a.validator.Validate(req); err != nil {
		return nil, err
	}
	email := req.Email

	user, err := a.users.FindByEmail(ctx, email)
	if err != nil && !errors.Is(err, domain.ErrRecordNotFound) {
		return nil, domain.BackendError(err, nil)
	}
	if user == nil || !a.hasher.Compare(user.PasswordHash, req.Password) {
		a.loginFailed(ctx, user, email, req.IPAddress, "invalid_credentials")
		return nil, domain.ErrInvalidCredentials
	}
	if user.IsBanned() {
		a.loginFailed(ctx, user, email, req.IPAddress, "banned")
		return nil, domain.ErrUserBanned
	}

	resp, err := a.issueSession(ctx, user, req.IPAddress, req.UserAgent)
	if err != nil {
		return nil, err
	}
	now := utils.NowUnixMillis()
	if err := a.users.UpdateLastLogin(ctx, user.ID, now); err != nil {
		a.logger.WarnContext(ctx, "last login not recorded", log.UserID(user.ID), log.Error(err))
	} else {
		resp.User.LastLogin = &now
	}
	a.audit.LogEvent(ctx, user.ID, user.Email, domain.AuditActionLogin, map[string]any{
		domain.AuditMetaIPAddress: req.IPAddress,
	})
	return resp, nil
}

func (a *authUsecase) loginFailed(ctx context.Context, user *domain.UserProfile, email, ip, reason string) {
	userID := ""
	if user != nil {
		userID = user.ID
	}
	a.audit.LogEvent(ctx, userID, email, domain.AuditActionLoginFailed, map[string]any{
		domain.AuditMetaIPAddress: ip,
		"reason":                  reason,
	})
}

func (a *authUsecase) Logout(ctx context.Context, sessionID string) error {
	session, err := a.sessions.FindByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return nil
		}
		return domain.BackendError(err, nil)
	}
	if err := a.sessions.Delete(ctx, session); err != nil {
		return domain.BackendError(err, nil)
	}
	actor, _ := domain.ActorFromContext(ctx)
	a.audit.LogEvent(ctx, session.UserID, actor.Email, domain.AuditActionLogout, map[string]any{
		"session_id": session.ID,
	})
	return nil
}

// RefreshToken rotates the refresh token; the presented one stops working.
func (a *authUsecase) RefreshToken(ctx context.Context, req *domain.RefreshTokenRequest) (*domain.AuthResponse, error) {
	if err := a.validator.Validate(req); err != nil {
		return nil, err
	}
	oldHash := hashToken(req.RefreshToken)
	session, err := a.sessions.FindByRefreshToken(ctx, oldHash)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return nil, domain.ErrInvalidToken
		}
		return nil, domain.BackendError(err, nil)
	}
	if !session.IsActive() {
		return nil, domain.ErrSessionExpired
	}

	user, err := a.users.FindByID(ctx, session.UserID)
	if err != nil {
		return nil, domain.BackendError(err, domain.ErrInvalidToken)
	}
	if user.IsBanned() {
		_ = a.sessions.Delete(ctx, session)
		return nil, domain.ErrUserBanned
	}

	refresh, err := a.jwt.Generate(domain.TokenTypeRefresh, "", "")
	if err != nil {
		return nil, domain.ErrInternalServerError.WithWrap(err)
	}
	now := utils.NowUnixMillis()
	session.RefreshToken = hashToken(refresh)
	session.LastActivityAt = now
	session.ExpiresAt = now + a.jwt.RefreshTokenTTL().Milliseconds()
	if req.IPAddress != "" {
		session.IPAddress = req.IPAddress
	}
	if req.UserAgent != "" {
		session.UserAgent = req.UserAgent
	}
	if err := a.sessions.Save(ctx, session, a.jwt.RefreshTokenTTL()); err != nil {
		return nil, domain.ErrCannotCreateSession.WithWrap(err)
	}
	if err := a.sessions.DeleteRefreshToken(ctx, oldHash); err != nil {
		a.logger.WarnContext(ctx, "stale refresh token not removed", log.SessionID(session.ID), log.Error(err))
	}

	access, err := a.jwt.Generate(domain.TokenTypeAccess, user.ID, session.ID)
	if err != nil {
		return nil, domain.ErrInternalServerError.WithWrap(err)
	}
	return &domain.AuthResponse{
		User:         user.ToResponse(),
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresAt:    now + a.jwt.AccessTokenTTL().Milliseconds(),
	}, nil
}

func (a *authUsecase) Me(ctx context.Context, userID string) (*domain.UserProfile, error) {
	user, err := a.users.FindByID(ctx, userID)
	if err != nil {
		return nil, domain.BackendError(err, domain.ErrUserNotFound)
	}
	return user, nil
}

// Authenticate requires a valid signature, a live session that belongs to
// the token's subject, and an account that is not banned.
func (a *authUsecase) Authenticate(ctx context.Context, accessToken string) (*domain.UserSession, *domain.UserProfile, error) {
	claims, err := a.jwt.Verify(domain.TokenTypeAccess, accessToken)
	if err != nil {
		return nil, nil, domain.ErrInvalidToken.WithWrap(err)
	}
	session, err := a.sessions.FindByID(ctx, claims.Sid)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return nil, nil, domain.ErrSessionExpired
		}
		return nil, nil, domain.BackendError(err, nil)
	}
	if session.UserID != claims.Sub || !session.IsActive() {
		return nil, nil, domain.ErrSessionExpired
	}
	user, err := a.users.FindByID(ctx, session.UserID)
	if err != nil {
		return nil, nil, domain.BackendError(err, domain.ErrInvalidToken)
	}
	if user.IsBanned() {
		return nil, nil, domain.ErrUserBanned
	}
	return session, user, nil
}

func (a *authUsecase) issueSession(ctx context.Context, user *domain.UserProfile, ip, userAgent string) (*domain.AuthResponse, error) {
	refresh, err := a.jwt.Generate(domain.TokenTypeRefresh, "", "")
	if err != nil {
		return nil, domain.ErrInternalServerError.WithWrap(err)
	}
	now := utils.NowUnixMillis()
	session := &domain.UserSession{
		ID:             domain.NewID(),
		UserID:         user.ID,
		RefreshToken:   hashToken(refresh),
		IPAddress:      ip,
		UserAgent:      userAgent,
		CreatedAt:      now,
		ExpiresAt:      now + a.jwt.RefreshTokenTTL().Milliseconds(),
		LastActivityAt: now,
	}
	if err := a.sessions.Save(ctx, session, a.jwt.RefreshTokenTTL()); err != nil {
		return nil, domain.ErrCannotCreateSession.WithWrap(err)
	}

	access, err := a.jwt.Generate(domain.TokenTypeAccess, user.ID, session.ID)
	if err != nil {
		return nil, domain.ErrInternalServerError.WithWrap(err)
	}
	return &domain.AuthResponse{
		User:         user.ToResponse(),
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresAt:    now + a.jwt.AccessTokenTTL().Milliseconds(),
	}, nil
}
