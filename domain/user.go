package domain

import (
	"context"
	"mime/multipart"
	"net/http"
)

/****************************
*        User errors        *
****************************/
var (
	ErrUserNotFound = &DetailedError{
		IDField:         "USER_NOT_FOUND",
		StatusDescField: http.StatusText(http.StatusNotFound),
		ErrorField:      "User not found",
		StatusCodeField: http.StatusNotFound,
	}
	ErrEmailAlreadyExists = &DetailedError{
		IDField:         "EMAIL_ALREADY_EXISTS",
		StatusDescField: http.StatusText(http.StatusConflict),
		ErrorField:      "User with this email already exists",
		StatusCodeField: http.StatusConflict,
	}
	ErrUserBanned = &DetailedError{
		IDField:         "USER_BANNED",
		StatusDescField: http.StatusText(http.StatusForbidden),
		ErrorField:      "User account is banned",
		StatusCodeField: http.StatusForbidden,
	}
	ErrPasswordHashFailed = &DetailedError{
		IDField:         "PASSWORD_HASH_FAILED",
		StatusDescField: http.StatusText(http.StatusInternalServerError),
		ErrorField:      "Failed to hash password",
		StatusCodeField: http.StatusInternalServerError,
	}
	ErrAvatarUploadFailed = &DetailedError{
		IDField:         "AVATAR_UPLOAD_FAILED",
		StatusDescField: http.StatusText(http.StatusBadGateway),
		ErrorField:      "Failed to store the avatar",
		StatusCodeField: http.StatusBadGateway,
	}
)

/***************************************
*       User entities and types       *
***************************************/

// UserProfile is the account record. The ban flag is stored inverted as
// IsActive; IsBanned reads it.
type UserProfile struct {
	SQLModel
	Email              string   `json:"email" gorm:"type:varchar(100);uniqueIndex;not null"`
	PasswordHash       string   `json:"-" gorm:"type:varchar(60);not null"`
	FullName           string   `json:"full_name" gorm:"type:varchar(100)"`
	AvatarURL          string   `json:"avatar_url" gorm:"type:text"`
	Role               RoleName `json:"role" gorm:"type:varchar(50);index;not null"`
	IsActive           bool     `json:"-" gorm:"not null"`
	IsProtectedAccount bool     `json:"is_protected_account" gorm:"not null;default:false"`
	LastLogin          *int64   `json:"last_login"`
}

func (UserProfile) TableName() string {
	return "user_profiles"
}

func (u *UserProfile) IsBanned() bool {
	return !u.IsActive
}

// PolicyKey is the key the protection table knows this account by.
func (u *UserProfile) PolicyKey() string {
	if u.IsProtectedAccount {
		return ProtectedAccountKey
	}
	return u.ID
}

func (u *UserProfile) ToResponse() *UserProfileResponse {
	if u == nil {
		return nil
	}
	return &UserProfileResponse{
		ID:                 u.ID,
		Email:              u.Email,
		FullName:           u.FullName,
		AvatarURL:          u.AvatarURL,
		Role:               u.Role,
		IsBanned:           u.IsBanned(),
		IsProtectedAccount: u.IsProtectedAccount,
		CreatedAt:          u.CreatedAt,
		LastLogin:          u.LastLogin,
	}
}

type UserProfileResponse struct {
	ID                 string   `json:"id"`
	Email              string   `json:"email"`
	FullName           string   `json:"full_name"`
	AvatarURL          string   `json:"avatar_url"`
	Role               RoleName `json:"role"`
	IsBanned           bool     `json:"is_banned"`
	IsProtectedAccount bool     `json:"is_protected_account"`
	CreatedAt          int64    `json:"created_at"`
	LastLogin          *int64   `json:"last_login"`
}

type UserFilter struct {
	ID       *string   `json:"id" form:"id"`
	IDIn     []string  `json:"id_in" form:"id_in"`
	Email    *string   `json:"email" form:"email"`
	Role     *RoleName `json:"role" form:"role"`
	IsBanned *bool     `json:"is_banned" form:"is_banned"`
	Search   *string   `json:"search" form:"search"`
}

/**********************************************
*       User usecase interfaces and types      *
**********************************************/
type UserUsecase interface {
	List(ctx context.Context, filter *UserFilter, option *FindPageOption) ([]*UserProfile, *Pagination, error)
	GetByID(ctx context.Context, userID string) (*UserProfile, error)
	UpdateRole(ctx context.Context, userID string, req *UpdateUserRoleRequest) (*UserProfile, error)
	SetBanned(ctx context.Context, userID string, req *SetUserStatusRequest) (*UserProfile, error)
	UpdateProfile(ctx context.Context, userID string, req *UpdateProfileRequest) (*UserProfile, error)
	UploadAvatar(ctx context.Context, userID string, file *multipart.FileHeader) (*UserProfile, error)
}

type UpdateUserRoleRequest struct {
	Role RoleName `json:"role" binding:"required,role_name"`
}

type SetUserStatusRequest struct {
	IsBanned *bool `json:"is_banned" binding:"required"`
}

type UpdateProfileRequest struct {
	FullName *string `json:"full_name" binding:"omitempty,not_empty,max=100"`
}
