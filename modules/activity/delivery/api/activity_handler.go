package api

import (
	"bill-tracker/common"
	"bill-tracker/domain"
	"bill-tracker/middleware"
	"bill-tracker/validator"

	"github.com/gin-gonic/gin"
)

type ActivityHandler struct {
	usecase     domain.ActivityUsecase
	middlewares middleware.Middlewares
}

func NewActivityHandler(usecase domain.ActivityUsecase, middlewares middleware.Middlewares) *ActivityHandler {
	return &ActivityHandler{
		usecase:     usecase,
		middlewares: middlewares,
	}
}

func (h *ActivityHandler) RegisterRoutes(rg *gin.RouterGroup) {
	activities := rg.Group("/activities")
	activities.Use(
		h.middlewares.Authenticator(),
		h.middlewares.RequirePermissions(domain.PermissionServicesManage),
	)
	activities.GET("", h.List)
	activities.DELETE("/:id", h.Delete)
}

func (h *ActivityHandler) List(c *gin.Context) {
	var page domain.FindPageOption
	if err := c.ShouldBindQuery(&page); err != nil {
		common.ResponseBindError(c, err, validator.DefaultValidator().Translate)
		return
	}
	items, pagination, err := h.usecase.List(c.Request.Context(), common.GetUserFromCtx(c).ID, &page)
	if err != nil {
		common.ResponseError(c, err)
		return
	}
	common.ResponseOK(c, &domain.PageResult[*domain.Activity]{Items: items, Pagination: pagination}, "Activities retrieved")
}

func (h *ActivityHandler) Delete(c *gin.Context) {
	if err := h.usecase.Delete(c.Request.Context(), common.GetUserFromCtx(c).ID, c.Param("id")); err != nil {
		common.ResponseError(c, err)
		return
	}
	common.ResponseNoContent(c)
}
