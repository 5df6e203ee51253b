package api

import (
	"bill-tracker/common"
	"bill-tracker/domain"
	"bill-tracker/middleware"
	"bill-tracker/validator"

	"github.com/gin-gonic/gin"
)

type PermissionHandler struct {
	usecase     domain.PermissionUsecase
	middlewares middleware.Middlewares
}

func NewPermissionHandler(usecase domain.PermissionUsecase, middlewares middleware.Middlewares) *PermissionHandler {
	return &PermissionHandler{
		usecase:     usecase,
		middlewares: middlewares,
	}
}

func (h *PermissionHandler) RegisterRoutes(rg *gin.RouterGroup) {
	permissions := rg.Group("/permissions")
	permissions.Use(
		h.middlewares.Authenticator(),
		h.middlewares.RequirePermissions(domain.PermissionAdminAccess, domain.PermissionPermissionsManage),
	)

	permissions.GET("", h.GetAll)
	permissions.POST("", h.Create)
	permissions.PUT("/:id", h.Update)
	permissions.DELETE("/:id", h.Delete)
}

func (h *PermissionHandler) GetAll(c *gin.Context) {
	permissions, err := h.usecase.GetAll(c.Request.Context())
	if err != nil {
		common.ResponseError(c, err)
		return
	}
	common.ResponseOK(c, permissions, "Permissions retrieved")
}

func (h *PermissionHandler) Create(c *gin.Context) {
	var req domain.CreatePermissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ResponseBindError(c, err, validator.DefaultValidator().Translate)
		return
	}
	permission, err := h.usecase.Create(c.Request.Context(), &req)
	if err != nil {
		common.ResponseError(c, err)
		return
	}
	common.ResponseCreated(c, permission, "Permission created")
}

func (h *PermissionHandler) Update(c *gin.Context) {
	var req domain.UpdatePermissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ResponseBindError(c, err, validator.DefaultValidator().Translate)
		return
	}
	permission, err := h.usecase.Update(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		common.ResponseError(c, err)
		return
	}
	common.ResponseOK(c, permission, "Permission updated")
}

func (h *PermissionHandler) Delete(c *gin.Context) {
	if err := h.usecase.Delete(c.Request.Context(), c.Param("id")); err != nil {
		common.ResponseError(c, err)
		return
	}
	common.ResponseNoContent(c)
}
