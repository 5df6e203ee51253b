package database

import (
	"bill-tracker/domain"
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// SQLHandler is the gorm data access shared by the postgres repositories.
// applyFilter translates the filter struct V into WHERE clauses.
type SQLHandler[T any, V any] struct {
	db          *gorm.DB
	applyFilter func(*gorm.DB, *V) *gorm.DB
}

func NewSQLHandler[T any, V any](
	db *gorm.DB,
	applyFilter func(*gorm.DB, *V) *gorm.DB,
) *SQLHandler[T, V] {
	return &SQLHandler[T, V]{applyFilter: applyFilter, db: db}
}

type DBOption func(*gorm.DB) *gorm.DB

func WithOmit(fields ...string) DBOption {
	return func(db *gorm.DB) *gorm.DB {
		return db.Omit(fields...)
	}
}

func WithTx(tx *gorm.DB) DBOption {
	return func(db *gorm.DB) *gorm.DB {
		if tx != nil {
			return tx
		}
		return db
	}
}

func (h *SQLHandler[T, V]) DB() *gorm.DB {
	return h.db
}

// Transaction runs fn in a gorm transaction. Pass tx to handler methods
// with WithTx.
func (h *SQLHandler[T, V]) Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return h.db.WithContext(ctx).Transaction(fn)
}

func (h *SQLHandler[T, V]) applyDBOptions(opts ...DBOption) *gorm.DB {
	qb := h.db
	for _, opt := range opts {
		qb = opt(qb)
	}
	return qb
}

func (h *SQLHandler[T, V]) filtered(filter *V, opts ...DBOption) *gorm.DB {
	execDB := h.applyDBOptions(opts...)
	if filter != nil && h.applyFilter != nil {
		execDB = h.applyFilter(execDB, filter)
	}
	return execDB
}

func assignID(entity any) {
	if r, ok := entity.(domain.Record); ok && r.GetID() == "" {
		r.SetID(domain.NewID())
	}
}

func translateError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.ErrRecordNotFound
	}
	return err
}

func (h *SQLHandler[T, V]) Create(ctx context.Context, entity *T, opts ...DBOption) error {
	assignID(entity)
	return h.applyDBOptions(opts...).WithContext(ctx).Create(entity).Error
}

func (h *SQLHandler[T, V]) CreateMany(ctx context.Context, entities []*T, opts ...DBOption) error {
	if len(entities) == 0 {
		return nil
	}
	for _, entity := range entities {
		assignID(entity)
	}
	return h.applyDBOptions(opts...).WithContext(ctx).Create(&entities).Error
}

func (h *SQLHandler[T, V]) FindByID(ctx context.Context, id string, opts ...DBOption) (*T, error) {
	var entity T
	err := h.applyDBOptions(opts...).WithContext(ctx).Where("id = ?", id).First(&entity).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &entity, nil
}

func (h *SQLHandler[T, V]) FindOne(ctx context.Context, filter *V, opts ...DBOption) (*T, error) {
	var entity T
	err := h.filtered(filter, opts...).WithContext(ctx).First(&entity).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &entity, nil
}

func (h *SQLHandler[T, V]) applyFindManyOption(db *gorm.DB, option *domain.FindManyOption) *gorm.DB {
	if option == nil {
		return db
	}
	for _, sortField := range option.Sort {
		db = db.Order(sortField)
	}
	if option.Limit != nil {
		db = db.Limit(*option.Limit)
	}
	if option.Offset != nil {
		db = db.Offset(*option.Offset)
	}
	return db
}

func (h *SQLHandler[T, V]) FindMany(ctx context.Context, filter *V, option *domain.FindManyOption, opts ...DBOption) ([]*T, error) {
	execDB := h.applyFindManyOption(h.filtered(filter, opts...), option)

	var entities []*T
	if err := execDB.WithContext(ctx).Find(&entities).Error; err != nil {
		return nil, err
	}
	return entities, nil
}

func (h *SQLHandler[T, V]) FindPage(ctx context.Context, filter *V, option *domain.FindPageOption, opts ...DBOption) ([]*T, *domain.Pagination, error) {
	execDB := h.filtered(filter, opts...)

	var totalItems int64
	countDB := execDB.Session(&gorm.Session{})
	if err := countDB.WithContext(ctx).Model(new(T)).Count(&totalItems).Error; err != nil {
		return nil, nil, err
	}

	page, perPage, offset := option.Normalize()
	if option != nil {
		for _, sortField := range option.Sort {
			execDB = execDB.Order(sortField)
		}
	}

	var entities []*T
	if err := execDB.WithContext(ctx).Offset(offset).Limit(perPage).Find(&entities).Error; err != nil {
		return nil, nil, err
	}
	return entities, domain.NewPagination(page, perPage, totalItems), nil
}

// Update saves every column of entity.
func (h *SQLHandler[T, V]) Update(ctx context.Context, entity *T, opts ...DBOption) error {
	return h.applyDBOptions(opts...).WithContext(ctx).Save(entity).Error
}

func (h *SQLHandler[T, V]) UpdateFields(ctx context.Context, id string, fields map[string]any, opts ...DBOption) error {
	res := h.applyDBOptions(opts...).WithContext(ctx).Model(new(T)).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrRecordNotFound
	}
	return nil
}

// DeleteByID removes the row. There is no soft delete.
func (h *SQLHandler[T, V]) DeleteByID(ctx context.Context, id string, opts ...DBOption) error {
	res := h.applyDBOptions(opts...).WithContext(ctx).Where("id = ?", id).Delete(new(T))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrRecordNotFound
	}
	return nil
}

func (h *SQLHandler[T, V]) DeleteByIDs(ctx context.Context, ids []string, opts ...DBOption) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := h.applyDBOptions(opts...).WithContext(ctx).Where("id IN ?", ids).Delete(new(T))
	return res.RowsAffected, res.Error
}

func (h *SQLHandler[T, V]) DeleteMany(ctx context.Context, filter *V, opts ...DBOption) (int64, error) {
	res := h.filtered(filter, opts...).WithContext(ctx).Delete(new(T))
	return res.RowsAffected, res.Error
}

func (h *SQLHandler[T, V]) Count(ctx context.Context, filter *V, opts ...DBOption) (int64, error) {
	var count int64
	err := h.filtered(filter, opts...).WithContext(ctx).Model(new(T)).Count(&count).Error
	return count, err
}

// ApplySearch adds an ILIKE match of searchTerm against any of fields.
// Field names are trusted column identifiers, never user input.
func ApplySearch(db *gorm.DB, searchTerm string, fields ...string) *gorm.DB {
	searchTerm = strings.TrimSpace(searchTerm)
	if searchTerm == "" || len(fields) == 0 {
		return db
	}

	conditions := make([]string, len(fields))
	args := make([]any, len(fields))
	pattern := "%" + escapeLike(searchTerm) + "%"
	for i, field := range fields {
		conditions[i] = fmt.Sprintf("%s ILIKE ?", field)
		args[i] = pattern
	}
	return db.Where("("+strings.Join(conditions, " OR ")+")", args...)
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
