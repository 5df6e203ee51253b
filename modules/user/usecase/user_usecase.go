package usecase

import (
	"context"
	"errors"
	"mime/multipart"
	"strings"

	"bill-tracker/domain"
	"bill-tracker/pkg/log"
	"bill-tracker/pkg/upload"
)

type UserRepository interface {
	FindByID(ctx context.Context, userID string) (*domain.UserProfile, error)
	List(ctx context.Context, filter *domain.UserFilter, option *domain.FindPageOption) ([]*domain.UserProfile, *domain.Pagination, error)
	Update(ctx context.Context, user *domain.UserProfile) error
}

type RoleReader interface {
	FindByName(ctx context.Context, name domain.RoleName) (*domain.Role, error)
}

type AuditLogger interface {
	LogEvent(ctx context.Context, userID, userEmail string, action domain.AuditAction, metadata map[string]any)
}

type Validator interface {
	Validate(obj any) error
}

type userUsecase struct {
	repo          UserRepository
	roles         RoleReader
	uploader      upload.Client
	maxAvatarSize int64
	audit         AuditLogger
	validator     Validator
	logger        log.Logger
}

func NewUserUsecase(
	repo UserRepository,
	roles RoleReader,
	uploader upload.Client,
	maxAvatarSize int64,
	audit AuditLogger,
	validator Validator,
	logger log.Logger,
) domain.UserUsecase {
	return &userUsecase{
		repo:          repo,
		roles:         roles,
		uploader:      uploader,
		maxAvatarSize: maxAvatarSize,
		audit:         audit,
		validator:     validator,
		logger:        logger,
	}
}

func (u *userUsecase) List(ctx context.Context, filter *domain.UserFilter, option *domain.FindPageOption) ([]*domain.UserProfile, *domain.Pagination, error) {
	users, pagination, err := u.repo.List(ctx, filter, option)
	if err != nil {
		return nil, nil, domain.BackendError(err, nil)
	}
	return users, pagination, nil
}

func (u *userUsecase) GetByID(ctx context.Context, userID string) (*domain.UserProfile, error) {
	user, err := u.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, domain.BackendError(err, domain.ErrUserNotFound)
	}
	return user, nil
}

// UpdateRole moves the user to another existing role. Cached permission
// snapshots are keyed by role, so the user's next request resolves the new
// set without an explicit invalidation.
func (u *userUsecase) UpdateRole(ctx context.Context, userID string, req *domain.UpdateUserRoleRequest) (*domain.UserProfile, error) {
	if err := u.validator.Validate(req); err != nil {
		return nil, err
	}
	user, err := u.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.Role == req.Role {
		return user, nil
	}
	if err := domain.DefaultProtectionPolicy.CheckEdit(domain.ProtectedKindUser, user.PolicyKey(), domain.FieldRole); err != nil {
		return nil, err
	}
	if _, err := u.roles.FindByName(ctx, req.Role); err != nil {
		return nil, domain.BackendError(err, domain.ErrRoleNotFound)
	}

	previous := user.Role
	user.Role = req.Role
	if err := u.repo.Update(ctx, user); err != nil {
		return nil, domain.BackendError(err, domain.ErrUserNotFound)
	}
	u.logEvent(ctx, domain.AuditActionUserRoleChanged, user, map[string]any{
		"from": string(previous),
		"to":   string(user.Role),
	})
	return user, nil
}

func (u *userUsecase) SetBanned(ctx context.Context, userID string, req *domain.SetUserStatusRequest) (*domain.UserProfile, error) {
	if err := u.validator.Validate(req); err != nil {
		return nil, err
	}
	user, err := u.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	banned := *req.IsBanned
	if user.IsBanned() == banned {
		return user, nil
	}
	if err := domain.DefaultProtectionPolicy.CheckEdit(domain.ProtectedKindUser, user.PolicyKey(), domain.FieldStatus); err != nil {
		return nil, err
	}

	user.IsActive = !banned
	if err := u.repo.Update(ctx, user); err != nil {
		return nil, domain.BackendError(err, domain.ErrUserNotFound)
	}
	action := domain.AuditActionUserUnbanned
	if banned {
		action = domain.AuditActionUserBanned
	}
	u.logEvent(ctx, action, user, nil)
	return user, nil
}

func (u *userUsecase) UpdateProfile(ctx context.Context, userID string, req *domain.UpdateProfileRequest) (*domain.UserProfile, error) {
	if err := u.validator.Validate(req); err != nil {
		return nil, err
	}
	user, err := u.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if req.FullName == nil || strings.TrimSpace(*req.FullName) == user.FullName {
		return user, nil
	}
	if err := domain.DefaultProtectionPolicy.CheckEdit(domain.ProtectedKindUser, user.PolicyKey(), domain.FieldFullName); err != nil {
		return nil, err
	}
	user.FullName = strings.TrimSpace(*req.FullName)
	if err := u.repo.Update(ctx, user); err != nil {
		return nil, domain.BackendError(err, domain.ErrUserNotFound)
	}
	return user, nil
}

// UploadAvatar stores the image with a thumbnail and points avatar_url at
// the thumbnail. The previous file is left in storage.
func (u *userUsecase) UploadAvatar(ctx context.Context, userID string, fileHeader *multipart.FileHeader) (*domain.UserProfile, error) {
	if fileHeader == nil {
		return nil, domain.ErrValidation.WithDetail("reason", "avatar file is required")
	}
	user, err := u.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := domain.DefaultProtectionPolicy.CheckEdit(domain.ProtectedKindUser, user.PolicyKey(), domain.FieldAvatarURL); err != nil {
		return nil, err
	}

	file, err := upload.ParseFileHeader(fileHeader, u.maxAvatarSize)
	if err != nil {
		return nil, uploadError(err)
	}
	if !file.IsImage() {
		return nil, domain.ErrValidation.WithDetail("reason", "avatar must be an image")
	}
	info, err := u.uploader.Upload(ctx, file, "avatars/"+user.ID)
	if err != nil {
		return nil, uploadError(err)
	}

	user.AvatarURL = info.ThumbnailURL
	if user.AvatarURL == "" {
		user.AvatarURL = info.URL
	}
	if err := u.repo.Update(ctx, user); err != nil {
		if rmErr := u.uploader.Remove(ctx, info); rmErr != nil {
			u.logger.WarnContext(ctx, "orphaned avatar upload", log.String("path", info.StoragePath), log.Error(rmErr))
		}
		return nil, domain.BackendError(err, domain.ErrUserNotFound)
	}
	return user, nil
}

func uploadError(err error) error {
	switch {
	case errors.Is(err, upload.ErrEmptyFile),
		errors.Is(err, upload.ErrFileTooLarge),
		errors.Is(err, upload.ErrUnsupportedImage):
		return domain.ErrValidation.WithWrap(err).WithDetail("reason", err.Error())
	}
	return domain.ErrAvatarUploadFailed.WithWrap(err)
}

func (u *userUsecase) logEvent(ctx context.Context, action domain.AuditAction, target *domain.UserProfile, metadata map[string]any) {
	actor, _ := domain.ActorFromContext(ctx)
	if metadata == nil {
		metadata = map[string]any{}
	}
	metadata[domain.AuditMetaTargetID] = target.ID
	metadata["target_email"] = target.Email
	u.audit.LogEvent(ctx, actor.UserID, actor.Email, action, metadata)
}
