package api

import (
	"bill-tracker/common"
	"bill-tracker/domain"
	"bill-tracker/middleware"
	"bill-tracker/validator"

	"github.com/gin-gonic/gin"
)

type InstanceHandler struct {
	usecase     domain.InstanceUsecase
	middlewares middleware.Middlewares
}

func NewInstanceHandler(usecase domain.InstanceUsecase, middlewares middleware.Middlewares) *InstanceHandler {
	return &InstanceHandler{
		usecase:     usecase,
		middlewares: middlewares,
	}
}

func (h *InstanceHandler) RegisterRoutes(rg *gin.RouterGroup) {
	instances := rg.Group("/instances")
	instances.Use(
		h.middlewares.Authenticator(),
		h.middlewares.RequirePermissions(domain.PermissionServicesManage),
	)
	instances.GET("", h.List)
	instances.GET("/summary", h.Summary)
	instances.GET("/:id", h.Get)
	instances.POST("", h.Create)
	instances.PUT("/:id", h.Update)
	instances.POST("/:id/pay", h.MarkPaid)
	instances.DELETE("/:id", h.Delete)
}

func (h *InstanceHandler) List(c *gin.Context) {
	var query domain.InstanceQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		common.ResponseBindError(c, err, validator.DefaultValidator().Translate)
		return
	}
	items, pagination, err := h.usecase.List(c.Request.Context(), common.GetUserFromCtx(c).ID, &query)
	if err != nil {
		common.ResponseError(c, err)
		return
	}
	common.ResponseOK(c, &domain.PageResult[*domain.ServiceInstance]{Items: items, Pagination: pagination}, "Service instances retrieved")
}

func (h *InstanceHandler) Summary(c *gin.Context) {
	summary, err := h.usecase.Summary(c.Request.Context(), common.GetUserFromCtx(c).ID)
	if err != nil {
		common.ResponseError(c, err)
		return
	}
	common.ResponseOK(c, summary, "Summary computed")
}

func (h *InstanceHandler) Get(c *gin.Context) {
	instance, err := h.usecase.Get(c.Request.Context(), common.GetUserFromCtx(c).ID, c.Param("id"))
	if err != nil {
		common.ResponseError(c, err)
		return
	}
	common.ResponseOK(c, instance, "Service instance found")
}

func (h *InstanceHandler) Create(c *gin.Context) {
	var req domain.CreateInstanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ResponseBindError(c, err, validator.DefaultValidator().Translate)
		return
	}
	instance, err := h.usecase.Create(c.Request.Context(), common.GetUserFromCtx(c).ID, &req)
	if err != nil {
		common.ResponseError(c, err)
		return
	}
	common.ResponseCreated(c, instance, "Service instance created")
}

func (h *InstanceHandler) Update(c *gin.Context) {
	var req domain.UpdateInstanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ResponseBindError(c, err, validator.DefaultValidator().Translate)
		return
	}
	instance, err := h.usecase.Update(c.Request.Context(), common.GetUserFromCtx(c).ID, c.Param("id"), &req)
	if err != nil {
		common.ResponseError(c, err)
		return
	}
	common.ResponseOK(c, instance, "Service instance updated")
}

func (h *InstanceHandler) MarkPaid(c *gin.Context) {
	var req domain.MarkPaidRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			common.ResponseBindError(c, err, validator.DefaultValidator().Translate)
			return
		}
	}
	instance, err := h.usecase.MarkPaid(c.Request.Context(), common.GetUserFromCtx(c).ID, c.Param("id"), &req)
	if err != nil {
		common.ResponseError(c, err)
		return
	}
	common.ResponseOK(c, instance, "Service instance paid")
}

func (h *InstanceHandler) Delete(c *gin.Context) {
	if err := h.usecase.Delete(c.Request.Context(), common.GetUserFromCtx(c).ID, c.Param("id")); err != nil {
		common.ResponseError(c, err)
		return
	}
	common.ResponseNoContent(c)
}
