package api

import (
	"bill-tracker/common"
	"bill-tracker/domain"
	"bill-tracker/middleware"
	"bill-tracker/validator"

	"github.com/gin-gonic/gin"
)

type DefinitionHandler struct {
	usecase     domain.DefinitionUsecase
	middlewares middleware.Middlewares
}

func NewDefinitionHandler(usecase domain.DefinitionUsecase, middlewares middleware.Middlewares) *DefinitionHandler {
	return &DefinitionHandler{
		usecase:     usecase,
		middlewares: middlewares,
	}
}

func (h *DefinitionHandler) RegisterRoutes(rg *gin.RouterGroup) {
	defs := rg.Group("/definitions")
	defs.Use(
		h.middlewares.Authenticator(),
		h.middlewares.RequirePermissions(domain.PermissionServicesManage),
	)
	defs.GET("", h.List)
	defs.GET("/:id", h.Get)
	defs.POST("", h.Create)
	defs.PUT("/:id", h.Update)
	defs.DELETE("/:id", h.Delete)
}

func (h *DefinitionHandler) List(c *gin.Context) {
	var category *domain.DefinitionCategory
	if raw := c.Query("category"); raw != "" {
		v := domain.DefinitionCategory(raw)
		category = &v
	}
	defs, err := h.usecase.List(c.Request.Context(), common.GetUserFromCtx(c).ID, category)
	if err != nil {
		common.ResponseError(c, err)
		return
	}
	common.ResponseOK(c, defs, "Service definitions retrieved")
}

func (h *DefinitionHandler) Get(c *gin.Context) {
	def, err := h.usecase.Get(c.Request.Context(), common.GetUserFromCtx(c).ID, c.Param("id"))
	if err != nil {
		common.ResponseError(c, err)
		return
	}
	common.ResponseOK(c, def, "Service definition found")
}

func (h *DefinitionHandler) Create(c *gin.Context) {
	var req domain.CreateDefinitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ResponseBindError(c, err, validator.DefaultValidator().Translate)
		return
	}
	def, err := h.usecase.Create(c.Request.Context(), common.GetUserFromCtx(c).ID, &req)
	if err != nil {
		common.ResponseError(c, err)
		return
	}
	common.ResponseCreated(c, def, "Service definition created")
}

func (h *DefinitionHandler) Update(c *gin.Context) {
	var req domain.UpdateDefinitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ResponseBindError(c, err, validator.DefaultValidator().Translate)
		return
	}
	def, err := h.usecase.Update(c.Request.Context(), common.GetUserFromCtx(c).ID, c.Param("id"), &req)
	if err != nil {
		common.ResponseError(c, err)
		return
	}
	common.ResponseOK(c, def, "Service definition updated")
}

func (h *DefinitionHandler) Delete(c *gin.Context) {
	if err := h.usecase.Delete(c.Request.Context(), common.GetUserFromCtx(c).ID, c.Param("id")); err != nil {
		common.ResponseError(c, err)
		return
	}
	common.ResponseNoContent(c)
}
