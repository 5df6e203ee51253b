package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"
	"time"

	"bill-tracker/common"
	"bill-tracker/domain"
	"bill-tracker/pkg/log"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/samber/lo"
)

const RequestIDHeader = "X-Request-ID"

type LoggerConfig struct {
	// SkipPaths is an url path array which logs are not written.
	SkipPaths []string
}

// RequestID reuses a well formed incoming X-Request-ID or mints one, and
// threads it through the gin context, the request context and the response.
func (m *middlewares) RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDHeader)
		if _, err := uuid.Parse(requestID); err != nil {
			requestID = uuid.NewString()
		}

		c.Set(common.RequestIDContextKey, requestID)
		c.Request = c.Request.WithContext(log.ContextWithRequestID(c.Request.Context(), requestID))
		c.Header(RequestIDHeader, requestID)
		c.Next()
	}
}

// Recovery turns a panic into the standard 500 envelope.
func (m *middlewares) Recovery() gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(nil, func(c *gin.Context, recovered any) {
		m.logger.ErrorContext(c.Request.Context(), "panic recovered",
			log.Any("panic", recovered),
			log.String("path", c.Request.URL.Path),
			log.String("stack", string(debug.Stack())),
		)
		common.ResponseError(c, domain.ErrInternalServerError.WithWrap(fmt.Errorf("panic: %v", recovered)))
	})
}

// LoggingMiddleware writes one structured line per request, at a level
// picked by status.
func (m *middlewares) LoggingMiddleware(config ...LoggerConfig) gin.HandlerFunc {
	var conf LoggerConfig
	if len(config) > 0 {
		conf = config[0]
	}
	skipPaths := lo.SliceToMap(conf.SkipPaths, func(p string) (string, struct{}) {
		return p, struct{}{}
	})

	return func(c *gin.Context) {
		if _, skip := skipPaths[c.Request.URL.Path]; skip {
			c.Next()
			return
		}

		start := time.Now()
		path := c.Request.URL.Path
		if raw := c.Request.URL.RawQuery; raw != "" {
			path = path + "?" + raw
		}

		c.Next()

		latency := time.Since(start)
		if latency > time.Minute {
			latency = latency.Truncate(time.Second)
		}

		fields := []log.Field{
			log.Method(c.Request.Method),
			log.String("path", path),
			log.StatusCode(c.Writer.Status()),
			log.ResponseTime(latency),
			log.String("client_ip", common.GetClientIP(c)),
			log.String("user_agent", c.Request.UserAgent()),
			log.Int("response_size", c.Writer.Size()),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, log.Strings("errors", c.Errors.Errors()))
		}

		ctx := c.Request.Context()
		status := c.Writer.Status()
		switch {
		case status >= http.StatusInternalServerError:
			m.logger.ErrorContext(ctx, "HTTP Request Completed", fields...)
		case status >= http.StatusBadRequest:
			m.logger.WarnContext(ctx, "HTTP Request Completed", fields...)
		default:
			m.logger.InfoContext(ctx, "HTTP Request Completed", fields...)
		}
	}
}
