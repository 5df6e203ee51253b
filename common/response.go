package common

import (
	"bill-tracker/domain"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type ResponseT[T any] struct {
	Status      int    `json:"status"`
	Code        string `json:"code"`
	Data        T      `json:"data"`
	Description string `json:"description"`
}

var logger Logger

// SetLogger sets the logger used for non-2xx responses.
func SetLogger(l Logger) {
	logger = l
}

func Response[T any](c *gin.Context, status int, code string, data T, desc string) {
	if status >= 400 && logger != nil {
		logger.Error("API Error",
			"status", status,
			"code", code,
			"description", desc,
			"path", c.Request.URL.Path,
			"method", c.Request.Method,
			"request_id", GetRequestIDFromCtx(c),
		)
	}

	c.AbortWithStatusJSON(status, ResponseT[T]{
		Status:      status,
		Code:        code,
		Data:        data,
		Description: desc,
	})
}

func ResponseOK[T any](c *gin.Context, data T, desc string) {
	Response(c, http.StatusOK, "SUCCESS", data, desc)
}

func ResponseCreated[T any](c *gin.Context, data T, desc string) {
	Response(c, http.StatusCreated, "SUCCESS", data, desc)
}

func ResponseNoContent(c *gin.Context) {
	c.AbortWithStatus(http.StatusNoContent)
}

func ResponseBadRequest(c *gin.Context, desc string) {
	ResponseError(c, domain.ErrBadRequest.WithError(desc))
}

func ResponseNotFound(c *gin.Context, desc string) {
	ResponseError(c, domain.ErrNotFound.WithError(desc))
}

// ResponseError renders any error in the envelope. Details of a
// DetailedError become data; anything else is a 500.
func ResponseError(c *gin.Context, err error) {
	dErr, ok := IsDetailError(err)
	if !ok {
		dErr = domain.ErrInternalServerError.WithWrap(err)
	}
	if logger != nil && dErr.StatusCode() >= http.StatusInternalServerError {
		logger.Error("request failed", "id", dErr.ID(), "cause", fmt.Sprintf("%+v", dErr.Unwrap()))
	}
	Response[any](c, dErr.StatusCode(), dErr.IDField, dErr.DetailsField, dErr.ErrorField)
}

// ResponseBindError renders a gin binding failure as VALIDATION_FAILED with
// translated field messages when the validator produced them.
func ResponseBindError(c *gin.Context, err error, translate func(error) map[string]string) {
	de := domain.ErrValidation.WithWrap(err)
	if translate != nil {
		if fields := translate(err); len(fields) > 0 {
			de = de.WithDetail("fields", fields)
		} else {
			de = de.WithDetail("reason", err.Error())
		}
	}
	ResponseError(c, de)
}

func ResponseRateLimitExceeded(c *gin.Context, desc string, retryAt time.Time) {
	retryAfterSeconds := int64(0)
	retryAtISO := ""

	if !retryAt.IsZero() {
		retryAfterSeconds = int64(time.Until(retryAt).Seconds())
		if retryAfterSeconds > 0 {
			c.Header("Retry-After", fmt.Sprintf("%d", retryAfterSeconds))
		}
		retryAtISO = retryAt.Format(time.RFC3339)
	}

	Response(c, http.StatusTooManyRequests, domain.ErrTooManyRequests.IDField, map[string]interface{}{
		"retry_at":            retryAtISO,
		"retry_after_seconds": retryAfterSeconds,
	}, desc)
}
