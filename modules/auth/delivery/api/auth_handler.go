package api

import (
	"time"

	"bill-tracker/common"
	"bill-tracker/domain"
	"bill-tracker/middleware"
	"bill-tracker/validator"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	usecase     domain.AuthUsecase
	middlewares middleware.Middlewares
}

func NewAuthHandler(
	usecase domain.AuthUsecase,
	middlewares middleware.Middlewares,
) *AuthHandler {
	return &AuthHandler{
		usecase:     usecase,
		middlewares: middlewares,
	}
}

func (h *AuthHandler) RegisterRoutes(rg *gin.RouterGroup) {
	auth := rg.Group("/auth")

	// Public routes
	auth.POST("/register", h.middlewares.AuthRateLimits(), h.Register)
	auth.POST("/login", h.middlewares.AuthRateLimits(), h.Login)
	auth.POST("/refresh-token", h.refreshTokenRateLimit(), h.RefreshToken)

	// Protected routes (authentication required)
	auth.POST("/logout", h.middlewares.Authenticator(), h.Logout)
	rg.GET("/me", h.middlewares.Authenticator(), h.Me)
}

// refreshTokenRateLimit limits refresh attempts per client IP.
func (h *AuthHandler) refreshTokenRateLimit() gin.HandlerFunc {
	return h.middlewares.RateLimit(middleware.RateLimitConfig{
		WindowSize:   time.Minute,
		MaxRequests:  10,
		KeyPrefix:    "refresh_token:",
		KeyGenerator: middleware.IPKeyGenerator,
	})
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req domain.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ResponseBindError(c, err, validator.DefaultValidator().Translate)
		return
	}
	client := common.ExtractClientInfo(c)
	req.IPAddress, req.UserAgent = client.IPAddress, client.UserAgent

	resp, err := h.usecase.Register(c.Request.Context(), &req)
	if err != nil {
		common.ResponseError(c, err)
		return
	}
	common.ResponseCreated(c, resp, "Register successful")
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req domain.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ResponseBindError(c, err, validator.DefaultValidator().Translate)
		return
	}
	client := common.ExtractClientInfo(c)
	req.IPAddress, req.UserAgent = client.IPAddress, client.UserAgent

	resp, err := h.usecase.Login(c.Request.Context(), &req)
	if err != nil {
		common.ResponseError(c, err)
		return
	}
	common.ResponseOK(c, resp, "Login successful")
}

func (h *AuthHandler) Logout(c *gin.Context) {
	sessionID := common.GetSessionIDFromCtx(c)
	if sessionID == "" {
		common.ResponseError(c, domain.ErrUnauthenticated)
		return
	}

	if err := h.usecase.Logout(c.Request.Context(), sessionID); err != nil {
		common.ResponseError(c, err)
		return
	}
	common.ResponseOK(c, true, "Logout successful")
}

func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var req domain.RefreshTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ResponseBindError(c, err, validator.DefaultValidator().Translate)
		return
	}
	client := common.ExtractClientInfo(c)
	req.IPAddress, req.UserAgent = client.IPAddress, client.UserAgent

	resp, err := h.usecase.RefreshToken(c.Request.Context(), &req)
	if err != nil {
		common.ResponseError(c, err)
		return
	}
	common.ResponseOK(c, resp, "Token refreshed")
}

func (h *AuthHandler) Me(c *gin.Context) {
	user, err := h.usecase.Me(c.Request.Context(), common.GetUserFromCtx(c).ID)
	if err != nil {
		common.ResponseError(c, err)
		return
	}
	common.ResponseOK(c, user.ToResponse(), "Current user")
}
