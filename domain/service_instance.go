package domain

import (
	"context"
	"net/http"
)

/****************************
*      Instance errors      *
****************************/
var (
	ErrInstanceNotFound = &DetailedError{
		IDField:         "INSTANCE_NOT_FOUND",
		StatusDescField: http.StatusText(http.StatusNotFound),
		ErrorField:      "Service instance not found",
		StatusCodeField: http.StatusNotFound,
	}
	ErrInstanceNotPayable = &DetailedError{
		IDField:         "INSTANCE_NOT_PAYABLE",
		StatusDescField: http.StatusText(http.StatusConflict),
		ErrorField:      "Only pending or overdue instances can be marked paid",
		StatusCodeField: http.StatusConflict,
	}
)

/*****************************************
*      Instance entities and types       *
*****************************************/

type InstanceStatus string

const (
	InstanceStatusPending   InstanceStatus = "PENDING"
	InstanceStatusPaid      InstanceStatus = "PAID"
	InstanceStatusOverdue   InstanceStatus = "OVERDUE"
	InstanceStatusCancelled InstanceStatus = "CANCELLED"
)

func (s InstanceStatus) IsValid() bool {
	switch s {
	case InstanceStatusPending, InstanceStatusPaid, InstanceStatusOverdue, InstanceStatusCancelled:
		return true
	}
	return false
}

// ServiceInstance is one bill of a definition. Amount is in minor units of
// Currency.
type ServiceInstance struct {
	SQLModel
	UserID           string         `json:"user_id" gorm:"type:varchar(36);index;not null"`
	DefinitionID     string         `json:"definition_id" gorm:"type:varchar(36);index;not null"`
	Amount           int64          `json:"amount" gorm:"not null"`
	Currency         string         `json:"currency" gorm:"type:varchar(3);not null"`
	DueDate          int64          `json:"due_date" gorm:"index;not null"`
	Status           InstanceStatus `json:"status" gorm:"type:varchar(20);index;not null"`
	PaidAt           *int64         `json:"paid_at,omitempty"`
	PaymentReference *string        `json:"payment_reference,omitempty" gorm:"type:varchar(255)"`
	Notes            string         `json:"notes" gorm:"type:text"`
}

func (ServiceInstance) TableName() string {
	return "service_instances"
}

// EffectiveStatus reports OVERDUE for a pending instance past its due date.
func (i *ServiceInstance) EffectiveStatus(nowMillis int64) InstanceStatus {
	if i.Status == InstanceStatusPending && i.DueDate < nowMillis {
		return InstanceStatusOverdue
	}
	return i.Status
}

// WithEffectiveStatus returns a copy whose Status is the effective one.
func (i *ServiceInstance) WithEffectiveStatus(nowMillis int64) *ServiceInstance {
	out := *i
	out.Status = i.EffectiveStatus(nowMillis)
	return &out
}

type InstanceFilter struct {
	UserID       *string          `json:"user_id,omitempty"`
	DefinitionID *string          `json:"definition_id,omitempty"`
	StatusIn     []InstanceStatus `json:"status_in,omitempty"`
	DueFrom      *int64           `json:"due_from,omitempty"`
	DueTo        *int64           `json:"due_to,omitempty"`
}

type CurrencySummary struct {
	Currency      string `json:"currency"`
	PendingAmount int64  `json:"pending_amount"`
	PendingCount  int    `json:"pending_count"`
	OverdueAmount int64  `json:"overdue_amount"`
	OverdueCount  int    `json:"overdue_count"`
	PaidAmount    int64  `json:"paid_amount"`
	PaidCount     int    `json:"paid_count"`
}

type InstanceSummary struct {
	Currencies []*CurrencySummary `json:"currencies"`
	Total      int                `json:"total"`
}

/*********************************************
*   Instance usecase interfaces and types    *
*********************************************/
type InstanceUsecase interface {
	List(ctx context.Context, userID string, query *InstanceQuery) ([]*ServiceInstance, *Pagination, error)
	Get(ctx context.Context, userID, id string) (*ServiceInstance, error)
	Create(ctx context.Context, userID string, req *CreateInstanceRequest) (*ServiceInstance, error)
	Update(ctx context.Context, userID, id string, req *UpdateInstanceRequest) (*ServiceInstance, error)
	Delete(ctx context.Context, userID, id string) error
	MarkPaid(ctx context.Context, userID, id string, req *MarkPaidRequest) (*ServiceInstance, error)
	Summary(ctx context.Context, userID string) (*InstanceSummary, error)
}

// InstanceQuery filters on the effective status, so OVERDUE matches pending
// instances past due.
type InstanceQuery struct {
	DefinitionID string         `form:"definition_id" binding:"omitempty,max=36"`
	Status       InstanceStatus `form:"status" binding:"omitempty,instance_status"`
	DueFrom      string         `form:"due_from"`
	DueTo        string         `form:"due_to"`
	Page         int            `form:"page" binding:"omitempty,min=1"`
	PerPage      int            `form:"per_page" binding:"omitempty,min=1,max=100"`
}

type CreateInstanceRequest struct {
	DefinitionID string `json:"definition_id" binding:"required,max=36"`
	Amount       int64  `json:"amount" binding:"gte=0"`
	Currency     string `json:"currency" binding:"required,currency"`
	DueDate      int64  `json:"due_date" binding:"required,gt=0"`
	Notes        string `json:"notes" binding:"max=1000"`
}

// UpdateInstanceRequest cannot set PAID; that goes through MarkPaid.
type UpdateInstanceRequest struct {
	Amount   *int64          `json:"amount" binding:"omitempty,gte=0"`
	Currency *string         `json:"currency" binding:"omitempty,currency"`
	DueDate  *int64          `json:"due_date" binding:"omitempty,gt=0"`
	Status   *InstanceStatus `json:"status" binding:"omitempty,instance_status,ne=PAID,ne=OVERDUE"`
	Notes    *string         `json:"notes" binding:"omitempty,max=1000"`
}

type MarkPaidRequest struct {
	PaymentReference string `json:"payment_reference" binding:"max=255"`
	PaidAt           *int64 `json:"paid_at" binding:"omitempty,gt=0"`
}
