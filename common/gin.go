package common

import (
	"bill-tracker/domain"
	"net"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	UserContextKey        = "auth_user"
	SessionIDContextKey   = "auth_session_id"
	PermissionsContextKey = "auth_permissions"
	RequestIDContextKey   = "request_id"
)

type ClientInfo struct {
	UserAgent string
	IPAddress string
}

func ExtractClientInfo(c *gin.Context) *ClientInfo {
	return &ClientInfo{
		UserAgent: c.GetHeader("User-Agent"),
		IPAddress: GetClientIP(c),
	}
}

// GetClientIP prefers the first X-Forwarded-For hop, then X-Real-IP, then
// the socket address.
func GetClientIP(c *gin.Context) string {
	if xff := c.GetHeader("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); net.ParseIP(ip) != nil {
			return ip
		}
	}
	if xri := c.GetHeader("X-Real-IP"); net.ParseIP(xri) != nil {
		return xri
	}
	remoteIP, _, err := net.SplitHostPort(c.Request.RemoteAddr)
	if err != nil {
		return c.Request.RemoteAddr
	}
	return remoteIP
}

func GetUserFromCtx(c *gin.Context) *domain.UserProfile {
	if v, ok := c.Get(UserContextKey); ok {
		if user, ok := v.(*domain.UserProfile); ok {
			return user
		}
	}
	return nil
}

func GetSessionIDFromCtx(c *gin.Context) string {
	return c.GetString(SessionIDContextKey)
}

func GetPermissionsFromCtx(c *gin.Context) *domain.SessionPermissions {
	if v, ok := c.Get(PermissionsContextKey); ok {
		if perms, ok := v.(*domain.SessionPermissions); ok {
			return perms
		}
	}
	return nil
}

func GetRequestIDFromCtx(c *gin.Context) string {
	return c.GetString(RequestIDContextKey)
}
