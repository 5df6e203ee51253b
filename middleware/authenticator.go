package middleware

import (
	"strconv"
	"strings"

	"bill-tracker/common"
	"bill-tracker/domain"
	"bill-tracker/pkg/log"

	"github.com/gin-gonic/gin"
)

func bearerToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if token, ok := strings.CutPrefix(authHeader, "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return ""
}

// Authenticator resolves the bearer token to a live session and user, and
// attaches both to the gin context and the actor to the request context.
func (m *middlewares) Authenticator() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			common.ResponseError(c, domain.ErrUnauthenticated.WithDetail("redirect", m.guard.LoginPath))
			return
		}

		session, user, err := m.auth.Authenticate(c.Request.Context(), token)
		if err != nil {
			common.ResponseError(c, err)
			return
		}

		ctx := domain.ContextWithActor(c.Request.Context(), domain.Actor{
			UserID:    user.ID,
			Email:     user.Email,
			IPAddress: common.GetClientIP(c),
			SessionID: session.ID,
		})
		ctx = log.ContextWithUserID(ctx, user.ID)
		c.Request = c.Request.WithContext(ctx)

		c.Set(common.UserContextKey, user)
		c.Set(common.SessionIDContextKey, session.ID)
		c.Next()
	}
}

// permissions resolves the session permissions once per request.
func (m *middlewares) permissions(c *gin.Context, user *domain.UserProfile) *domain.SessionPermissions {
	if perms := common.GetPermissionsFromCtx(c); perms != nil {
		return perms
	}
	perms := m.authz.Resolve(c.Request.Context(), common.GetSessionIDFromCtx(c), user)
	c.Set(common.PermissionsContextKey, perms)
	return perms
}

// RequirePermissions guards a route on every listed code. It must run after
// Authenticator.
func (m *middlewares) RequirePermissions(codes ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var (
			subject *domain.Subject
			state   = domain.PermissionStateUnresolved
		)
		if user := common.GetUserFromCtx(c); user != nil {
			perms := m.permissions(c, user)
			subject = perms.Subject()
			state = perms.State()
		}

		decision := domain.EvaluateGuard(subject, state, codes...)
		m.metrics.IncrementAuthzDecision(decision.String())

		switch decision {
		case domain.GuardAllow:
			c.Next()
		case domain.GuardRedirectLogin:
			common.ResponseError(c, domain.ErrUnauthenticated.WithDetail("redirect", m.guard.LoginPath))
		case domain.GuardLoading:
			if secs := int(m.guard.RetryAfter.Seconds()); secs > 0 {
				c.Header("Retry-After", strconv.Itoa(secs))
			}
			common.ResponseError(c, domain.ErrPermissionsUnresolved)
		default:
			m.logger.Info("permission denied",
				log.UserID(subject.UserID),
				log.String("role", string(subject.Role)),
				log.Strings("required", codes),
				log.String("path", c.FullPath()),
			)
			common.ResponseError(c, domain.ErrPermissionDenied.
				WithDetail("redirect", m.guard.HomePath).
				WithDetail("required", codes))
		}
	}
}
