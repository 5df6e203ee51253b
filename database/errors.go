package database

import "errors"

var (
	errNotRecord = errors.New("entity does not implement domain.Record")
	errNoScore   = errors.New("store has no score function")
)
