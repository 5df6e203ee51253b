package domain

import (
	"context"
	"net/http"
)

var ErrActivityNotFound = &DetailedError{
	IDField:         "ACTIVITY_NOT_FOUND",
	StatusDescField: http.StatusText(http.StatusNotFound),
	ErrorField:      "Activity not found",
	StatusCodeField: http.StatusNotFound,
}

type ActivityType string

const (
	ActivityCreated ActivityType = "CREATED"
	ActivityUpdated ActivityType = "UPDATED"
	ActivityDeleted ActivityType = "DELETED"
	ActivityPaid    ActivityType = "PAID"
)

const (
	EntityTypeDefinition = "service_definition"
	EntityTypeInstance   = "service_instance"
)

// Activity is the user-facing feed. Unlike audit logs it is owned by and
// visible to the user it describes.
type Activity struct {
	ID          string       `json:"id" gorm:"type:varchar(36);primaryKey"`
	UserID      string       `json:"user_id" gorm:"type:varchar(36);index;not null"`
	Type        ActivityType `json:"type" gorm:"type:varchar(20);not null"`
	EntityType  string       `json:"entity_type" gorm:"type:varchar(50)"`
	EntityID    string       `json:"entity_id" gorm:"type:varchar(36)"`
	Description string       `json:"description" gorm:"type:text"`
	CreatedAt   int64        `json:"created_at" gorm:"index;not null;autoCreateTime:milli"`
}

func (Activity) TableName() string {
	return "activities"
}

func (a *Activity) GetID() string { return a.ID }

func (a *Activity) SetID(id string) { a.ID = id }

func (a *Activity) Touch(nowMillis int64) {
	if a.CreatedAt == 0 {
		a.CreatedAt = nowMillis
	}
}

type ActivityFilter struct {
	UserID     *string `json:"user_id,omitempty"`
	EntityType *string `json:"entity_type,omitempty"`
}

type ActivityUsecase interface {
	// Record logs and swallows failures; the feed is best effort.
	Record(ctx context.Context, userID string, typ ActivityType, entityType, entityID, description string)
	List(ctx context.Context, userID string, option *FindPageOption) ([]*Activity, *Pagination, error)
	Delete(ctx context.Context, userID, id string) error
}
