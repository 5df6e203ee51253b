package domain

import (
	"database/sql/driver"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// SQLModel is embedded by every mutable entity. Timestamps are unix millis.
type SQLModel struct {
	ID        string `json:"id" gorm:"type:varchar(36);primaryKey"`
	CreatedAt int64  `json:"created_at" gorm:"autoCreateTime:milli"`
	UpdatedAt int64  `json:"updated_at" gorm:"autoUpdateTime:milli"`
}

func (m *SQLModel) GetID() string { return m.ID }

func (m *SQLModel) SetID(id string) { m.ID = id }

// Touch stamps the model for backends without column defaults.
func (m *SQLModel) Touch(nowMillis int64) {
	if m.CreatedAt == 0 {
		m.CreatedAt = nowMillis
	}
	m.UpdatedAt = nowMillis
}

// Record is what the generic data handlers need from an entity.
type Record interface {
	GetID() string
	SetID(id string)
	Touch(nowMillis int64)
}

func NewID() string {
	return uuid.NewString()
}

type FindManyOption struct {
	Sort   []string `json:"sort" form:"sort"`
	Limit  *int     `json:"limit" form:"limit"`
	Offset *int     `json:"offset" form:"offset"`
}

type FindPageOption struct {
	Sort    []string `json:"sort" form:"sort"`
	Page    int      `json:"page" form:"page" default:"1"`
	PerPage int      `json:"per_page" form:"per_page" default:"10"`
}

const MaxPerPage = 100

// Normalize clamps paging values and returns page, perPage and offset.
func (o *FindPageOption) Normalize() (page, perPage, offset int) {
	page, perPage = 1, 10
	if o != nil {
		if o.Page > 0 {
			page = o.Page
		}
		if o.PerPage > 0 {
			perPage = o.PerPage
		}
	}
	if perPage > MaxPerPage {
		perPage = MaxPerPage
	}
	return page, perPage, (page - 1) * perPage
}

type Pagination struct {
	Page       int   `json:"page"`
	PerPage    int   `json:"per_page"`
	TotalPages int   `json:"total_pages"`
	TotalItems int64 `json:"total_items"`
}

func NewPagination(page, perPage int, totalItems int64) *Pagination {
	totalPages := 0
	if perPage > 0 {
		totalPages = int((totalItems + int64(perPage) - 1) / int64(perPage))
	}
	return &Pagination{
		Page:       page,
		PerPage:    perPage,
		TotalPages: totalPages,
		TotalItems: totalItems,
	}
}

// PageResult is the data payload for every paginated listing.
type PageResult[T any] struct {
	Items      []T         `json:"items"`
	Pagination *Pagination `json:"pagination"`
}

// JSONB maps to a postgres jsonb column.
type JSONB map[string]any

func (j JSONB) Value() (driver.Value, error) {
	if j == nil {
		return "{}", nil
	}
	val, err := json.Marshal(j)
	if err != nil {
		return nil, err
	}
	return string(val), nil
}

func (j *JSONB) Scan(input interface{}) error {
	switch v := input.(type) {
	case nil:
		*j = JSONB{}
		return nil
	case []byte:
		return json.Unmarshal(v, j)
	case string:
		return json.Unmarshal([]byte(v), j)
	default:
		return errors.Errorf("unsupported jsonb source %T", input)
	}
}
