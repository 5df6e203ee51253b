package domain

import (
	"context"
	"net/http"
)

/****************************
*     Definition errors     *
****************************/
var (
	ErrDefinitionNotFound = &DetailedError{
		IDField:         "DEFINITION_NOT_FOUND",
		StatusDescField: http.StatusText(http.StatusNotFound),
		ErrorField:      "Service definition not found",
		StatusCodeField: http.StatusNotFound,
	}
	ErrDefinitionInUse = &DetailedError{
		IDField:         "DEFINITION_IN_USE",
		StatusDescField: http.StatusText(http.StatusConflict),
		ErrorField:      "Service definition still has instances",
		StatusCodeField: http.StatusConflict,
	}
)

/*****************************************
*     Definition entities and types      *
*****************************************/

type DefinitionCategory string

const (
	CategoryUtilities    DefinitionCategory = "UTILITIES"
	CategorySubscription DefinitionCategory = "SUBSCRIPTION"
	CategoryInsurance    DefinitionCategory = "INSURANCE"
	CategoryLoan         DefinitionCategory = "LOAN"
	CategoryRent         DefinitionCategory = "RENT"
	CategoryOther        DefinitionCategory = "OTHER"
)

func (c DefinitionCategory) IsValid() bool {
	switch c {
	case CategoryUtilities, CategorySubscription, CategoryInsurance, CategoryLoan, CategoryRent, CategoryOther:
		return true
	}
	return false
}

// ServiceDefinition is a kind of recurring bill. System definitions have
// no owner and are shared by everyone.
type ServiceDefinition struct {
	SQLModel
	UserID   *string            `json:"user_id" gorm:"type:varchar(36);index"`
	Name     string             `json:"name" gorm:"type:varchar(100);not null"`
	Icon     string             `json:"icon" gorm:"type:varchar(50)"`
	Color    string             `json:"color" gorm:"type:varchar(20)"`
	Category DefinitionCategory `json:"category" gorm:"type:varchar(20);not null"`
	IsSystem bool               `json:"is_system" gorm:"not null;default:false"`
}

func (ServiceDefinition) TableName() string {
	return "service_definitions"
}

// VisibleTo reports whether userID may read the definition.
func (d *ServiceDefinition) VisibleTo(userID string) bool {
	return d.IsSystem || (d.UserID != nil && *d.UserID == userID)
}

func (d *ServiceDefinition) PolicyKey() string {
	if d.IsSystem {
		return SystemDefinitionKey
	}
	return d.ID
}

// SystemDefinitions is the shared catalogue seeded on first start.
func SystemDefinitions() []*ServiceDefinition {
	return []*ServiceDefinition{
		{Name: "Electricity", Icon: "bolt", Color: "#F5A623", Category: CategoryUtilities, IsSystem: true},
		{Name: "Water", Icon: "droplet", Color: "#4A90E2", Category: CategoryUtilities, IsSystem: true},
		{Name: "Internet", Icon: "wifi", Color: "#7B61FF", Category: CategoryUtilities, IsSystem: true},
		{Name: "Mobile phone", Icon: "phone", Color: "#50E3C2", Category: CategorySubscription, IsSystem: true},
		{Name: "Streaming", Icon: "tv", Color: "#D0021B", Category: CategorySubscription, IsSystem: true},
		{Name: "Health insurance", Icon: "shield", Color: "#417505", Category: CategoryInsurance, IsSystem: true},
		{Name: "Rent", Icon: "home", Color: "#8B572A", Category: CategoryRent, IsSystem: true},
	}
}

// DefinitionFilter with OwnerOrSystem set matches the user's own
// definitions plus every system one.
type DefinitionFilter struct {
	OwnerOrSystem *string             `json:"owner_or_system,omitempty"`
	UserID        *string             `json:"user_id,omitempty"`
	Category      *DefinitionCategory `json:"category,omitempty"`
	IsSystem      *bool               `json:"is_system,omitempty"`
}

/**********************************************
*  Definition usecase interfaces and types    *
**********************************************/
type DefinitionUsecase interface {
	List(ctx context.Context, userID string, category *DefinitionCategory) ([]*ServiceDefinition, error)
	Get(ctx context.Context, userID, id string) (*ServiceDefinition, error)
	Create(ctx context.Context, userID string, req *CreateDefinitionRequest) (*ServiceDefinition, error)
	Update(ctx context.Context, userID, id string, req *UpdateDefinitionRequest) (*ServiceDefinition, error)
	Delete(ctx context.Context, userID, id string) error
}

type CreateDefinitionRequest struct {
	Name     string             `json:"name" binding:"required,not_empty,max=100"`
	Icon     string             `json:"icon" binding:"max=50"`
	Color    string             `json:"color" binding:"omitempty,hexcolor"`
	Category DefinitionCategory `json:"category" binding:"required,definition_category"`
}

type UpdateDefinitionRequest struct {
	Name     *string             `json:"name" binding:"omitempty,not_empty,max=100"`
	Icon     *string             `json:"icon" binding:"omitempty,max=50"`
	Color    *string             `json:"color" binding:"omitempty,hexcolor"`
	Category *DefinitionCategory `json:"category" binding:"omitempty,definition_category"`
}
