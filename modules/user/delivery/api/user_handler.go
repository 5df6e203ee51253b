package api

import (
	"bill-tracker/common"
	"bill-tracker/domain"
	"bill-tracker/middleware"
	"bill-tracker/validator"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
)

const avatarFormField = "avatar"

type UserHandler struct {
	usecase     domain.UserUsecase
	middlewares middleware.Middlewares
}

func NewUserHandler(usecase domain.UserUsecase, middlewares middleware.Middlewares) *UserHandler {
	return &UserHandler{
		usecase:     usecase,
		middlewares: middlewares,
	}
}

func (h *UserHandler) RegisterRoutes(rg *gin.RouterGroup) {
	users := rg.Group("/users")
	users.Use(
		h.middlewares.Authenticator(),
		h.middlewares.RequirePermissions(domain.PermissionAdminAccess, domain.PermissionUsersManage),
	)
	users.GET("", h.List)
	users.GET("/:id", h.GetByID)
	users.PUT("/:id/role", h.UpdateRole)
	users.PUT("/:id/status", h.SetStatus)

	me := rg.Group("/me")
	me.Use(h.middlewares.Authenticator())
	me.PUT("", h.UpdateProfile)
	me.POST("/avatar", h.UploadAvatar)
}

func toResponses(users []*domain.UserProfile) []*domain.UserProfileResponse {
	return lo.Map(users, func(u *domain.UserProfile, _ int) *domain.UserProfileResponse { return u.ToResponse() })
}

func (h *UserHandler) List(c *gin.Context) {
	var filter domain.UserFilter
	var page domain.FindPageOption
	if err := c.ShouldBindQuery(&filter); err != nil {
		common.ResponseBindError(c, err, validator.DefaultValidator().Translate)
		return
	}
	if err := c.ShouldBindQuery(&page); err != nil {
		common.ResponseBindError(c, err, validator.DefaultValidator().Translate)
		return
	}
	users, pagination, err := h.usecase.List(c.Request.Context(), &filter, &page)
	if err != nil {
		common.ResponseError(c, err)
		return
	}
	common.ResponseOK(c, &domain.PageResult[*domain.UserProfileResponse]{
		Items:      toResponses(users),
		Pagination: pagination,
	}, "Users retrieved")
}

func (h *UserHandler) GetByID(c *gin.Context) {
	user, err := h.usecase.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		common.ResponseError(c, err)
		return
	}
	common.ResponseOK(c, user.ToResponse(), "User found")
}

func (h *UserHandler) UpdateRole(c *gin.Context) {
	var req domain.UpdateUserRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ResponseBindError(c, err, validator.DefaultValidator().Translate)
		return
	}
	user, err := h.usecase.UpdateRole(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		common.ResponseError(c, err)
		return
	}
	common.ResponseOK(c, user.ToResponse(), "User role updated")
}

func (h *UserHandler) SetStatus(c *gin.Context) {
	var req domain.SetUserStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ResponseBindError(c, err, validator.DefaultValidator().Translate)
		return
	}
	user, err := h.usecase.SetBanned(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		common.ResponseError(c, err)
		return
	}
	common.ResponseOK(c, user.ToResponse(), "User status updated")
}

func (h *UserHandler) UpdateProfile(c *gin.Context) {
	var req domain.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ResponseBindError(c, err, validator.DefaultValidator().Translate)
		return
	}
	user, err := h.usecase.UpdateProfile(c.Request.Context(), common.GetUserFromCtx(c).ID, &req)
	if err != nil {
		common.ResponseError(c, err)
		return
	}
	common.ResponseOK(c, user.ToResponse(), "Profile updated")
}

func (h *UserHandler) UploadAvatar(c *gin.Context) {
	fileHeader, err := c.FormFile(avatarFormField)
	if err != nil {
		common.ResponseError(c, domain.ErrValidation.WithWrap(err).WithDetail("reason", "multipart field \"avatar\" is required"))
		return
	}
	user, err := h.usecase.UploadAvatar(c.Request.Context(), common.GetUserFromCtx(c).ID, fileHeader)
	if err != nil {
		common.ResponseError(c, err)
		return
	}
	common.ResponseOK(c, user.ToResponse(), "Avatar updated")
}
