package api

import (
	"bill-tracker/common"
	"bill-tracker/domain"
	"bill-tracker/middleware"
	"bill-tracker/pkg/utils"
	"bill-tracker/validator"

	"github.com/gin-gonic/gin"
)

type AuditHandler struct {
	usecase     domain.AuditUsecase
	middlewares middleware.Middlewares
}

func NewAuditHandler(usecase domain.AuditUsecase, middlewares middleware.Middlewares) *AuditHandler {
	return &AuditHandler{
		usecase:     usecase,
		middlewares: middlewares,
	}
}

func (h *AuditHandler) RegisterRoutes(rg *gin.RouterGroup) {
	logs := rg.Group("/audit-logs")
	logs.Use(h.middlewares.Authenticator())

	logs.GET("", h.middlewares.RequirePermissions(domain.PermissionAuditView), h.List)
	logs.DELETE("/:id", h.middlewares.RequirePermissions(domain.PermissionAuditDelete), h.Delete)
	logs.POST("/bulk-delete", h.middlewares.RequirePermissions(domain.PermissionAuditDelete), h.BulkDelete)
}

func (h *AuditHandler) List(c *gin.Context) {
	var query domain.AuditLogQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		common.ResponseBindError(c, err, validator.DefaultValidator().Translate)
		return
	}
	filter, err := toAuditFilter(&query)
	if err != nil {
		common.ResponseError(c, err)
		return
	}

	items, pagination, err := h.usecase.List(c.Request.Context(), filter, &domain.FindPageOption{
		Page:    query.Page,
		PerPage: query.PerPage,
	})
	if err != nil {
		common.ResponseError(c, err)
		return
	}
	common.ResponseOK(c, &domain.PageResult[*domain.AuditLog]{Items: items, Pagination: pagination}, "Audit logs retrieved")
}

// toAuditFilter accepts YYYY-MM-DD or RFC3339 bounds; a date-only "to"
// covers the whole day.
func toAuditFilter(query *domain.AuditLogQuery) (*domain.AuditLogFilter, error) {
	filter := &domain.AuditLogFilter{}
	if query.UserID != "" {
		filter.UserID = &query.UserID
	}
	if query.Action != "" {
		action := domain.AuditAction(query.Action)
		filter.Action = &action
	}
	from, err := utils.ParseRangeStart(query.From)
	if err != nil {
		return nil, domain.ErrInvalidDateRange.WithWrap(err).WithDetail("from", query.From)
	}
	to, err := utils.ParseRangeEnd(query.To)
	if err != nil {
		return nil, domain.ErrInvalidDateRange.WithWrap(err).WithDetail("to", query.To)
	}
	filter.From, filter.To = from, to
	return filter, nil
}

func (h *AuditHandler) Delete(c *gin.Context) {
	if err := h.usecase.Delete(c.Request.Context(), c.Param("id")); err != nil {
		common.ResponseError(c, err)
		return
	}
	common.ResponseNoContent(c)
}

func (h *AuditHandler) BulkDelete(c *gin.Context) {
	var req domain.BulkDeleteAuditLogsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ResponseBindError(c, err, validator.DefaultValidator().Translate)
		return
	}
	deleted, err := h.usecase.DeleteMany(c.Request.Context(), &req)
	if err != nil {
		common.ResponseError(c, err)
		return
	}
	common.ResponseOK(c, &domain.BulkDeleteResponse{Deleted: deleted}, "Audit logs deleted")
}
