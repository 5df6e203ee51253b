package api

import (
	"bill-tracker/common"
	"bill-tracker/domain"
	"bill-tracker/middleware"

	"github.com/gin-gonic/gin"
)

type AuthzHandler struct {
	usecase     domain.AuthzUsecase
	middlewares middleware.Middlewares
}

func NewAuthzHandler(usecase domain.AuthzUsecase, middlewares middleware.Middlewares) *AuthzHandler {
	return &AuthzHandler{
		usecase:     usecase,
		middlewares: middlewares,
	}
}

func (h *AuthzHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/me/permissions", h.middlewares.Authenticator(), h.MyPermissions)
}

// MyPermissions is the client's hydration endpoint. An unresolved state is
// returned as data, not as an error, so the client can render a loading
// view.
func (h *AuthzHandler) MyPermissions(c *gin.Context) {
	snapshot := h.usecase.Snapshot(c.Request.Context(), common.GetSessionIDFromCtx(c), common.GetUserFromCtx(c))
	common.ResponseOK(c, snapshot, "Permissions resolved")
}
