package domain

import (
	"context"
	"net/http"
)

/****************************
*       Audit errors        *
****************************/
var (
	ErrAuditLogNotFound = &DetailedError{
		IDField:         "AUDIT_LOG_NOT_FOUND",
		StatusDescField: http.StatusText(http.StatusNotFound),
		ErrorField:      "Audit log entry not found",
		StatusCodeField: http.StatusNotFound,
	}
	ErrInvalidDateRange = &DetailedError{
		IDField:         "INVALID_DATE_RANGE",
		StatusDescField: http.StatusText(http.StatusBadRequest),
		ErrorField:      "Dates must be YYYY-MM-DD or RFC3339 and from must not be after to",
		StatusCodeField: http.StatusBadRequest,
	}
)

/***************************************
*       Audit entities and types       *
***************************************/

type AuditAction string

const (
	AuditActionLogin             AuditAction = "LOGIN"
	AuditActionLoginFailed       AuditAction = "LOGIN_FAILED"
	AuditActionLogout            AuditAction = "LOGOUT"
	AuditActionRegister          AuditAction = "REGISTER"
	AuditActionRoleCreated       AuditAction = "ROLE_CREATED"
	AuditActionRoleUpdated       AuditAction = "ROLE_UPDATED"
	AuditActionRoleDeleted       AuditAction = "ROLE_DELETED"
	AuditActionPermissionCreated AuditAction = "PERMISSION_CREATED"
	AuditActionPermissionUpdated AuditAction = "PERMISSION_UPDATED"
	AuditActionPermissionDeleted AuditAction = "PERMISSION_DELETED"
	AuditActionUserRoleChanged   AuditAction = "USER_ROLE_CHANGED"
	AuditActionUserBanned        AuditAction = "USER_BANNED"
	AuditActionUserUnbanned      AuditAction = "USER_UNBANNED"
	AuditActionAuditLogsDeleted  AuditAction = "AUDIT_LOGS_DELETED"
)

// Metadata keys LogEvent lifts out of the details map.
const (
	AuditMetaTargetID  = "target_id"
	AuditMetaIPAddress = "ip_address"
	AuditMetaUserEmail = "user_email"
)

// AuditLog is append-only: rows are created and deleted, never updated.
type AuditLog struct {
	ID        string      `json:"id" gorm:"type:varchar(36);primaryKey"`
	UserID    string      `json:"user_id" gorm:"type:varchar(36);index"`
	Action    AuditAction `json:"action" gorm:"type:varchar(50);index;not null"`
	TargetID  *string     `json:"target_id,omitempty" gorm:"type:varchar(36)"`
	Details   JSONB       `json:"details" gorm:"type:jsonb"`
	IPAddress *string     `json:"ip_address,omitempty" gorm:"type:varchar(64)"`
	CreatedAt int64       `json:"created_at" gorm:"index;not null"`
}

func (AuditLog) TableName() string {
	return "audit_logs"
}

func (a *AuditLog) GetID() string { return a.ID }

func (a *AuditLog) SetID(id string) { a.ID = id }

func (a *AuditLog) Touch(nowMillis int64) {
	if a.CreatedAt == 0 {
		a.CreatedAt = nowMillis
	}
}

// AuditLogFilter bounds are inclusive unix millis.
type AuditLogFilter struct {
	IDIn   []string     `json:"id_in,omitempty"`
	UserID *string      `json:"user_id,omitempty"`
	Action *AuditAction `json:"action,omitempty"`
	From   *int64       `json:"from,omitempty"`
	To     *int64       `json:"to,omitempty"`
}

// Actor is the authenticated caller attached to a request context.
type Actor struct {
	UserID    string
	Email     string
	IPAddress string
	SessionID string
}

type actorCtxKey struct{}

func ContextWithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, actorCtxKey{}, actor)
}

func ActorFromContext(ctx context.Context) (Actor, bool) {
	actor, ok := ctx.Value(actorCtxKey{}).(Actor)
	return actor, ok
}

/**************************************
*  Audit usecase interfaces and types *
**************************************/
type AuditUsecase interface {
	// LogEvent never blocks on the write and never reports its failure.
	LogEvent(ctx context.Context, userID, userEmail string, action AuditAction, metadata map[string]any)
	Flush()

	List(ctx context.Context, filter *AuditLogFilter, option *FindPageOption) ([]*AuditLog, *Pagination, error)
	Delete(ctx context.Context, id string) error
	DeleteMany(ctx context.Context, req *BulkDeleteAuditLogsRequest) (int64, error)
}

type AuditLogQuery struct {
	UserID  string `form:"user_id" binding:"omitempty,max=36"`
	Action  string `form:"action" binding:"omitempty,max=50"`
	From    string `form:"from"`
	To      string `form:"to"`
	Page    int    `form:"page" binding:"omitempty,min=1"`
	PerPage int    `form:"per_page" binding:"omitempty,min=1,max=100"`
}

type BulkDeleteAuditLogsRequest struct {
	IDs []string `json:"ids" binding:"required,min=1,max=500,dive,required"`
}

type BulkDeleteResponse struct {
	Deleted int64 `json:"deleted"`
}
