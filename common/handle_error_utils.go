package common

import (
	"bill-tracker/domain"
	"errors"
)

func IsRecordNotFound(err error) bool {
	return errors.Is(err, domain.ErrRecordNotFound)
}

// IsDetailError unwraps err down to the first DetailedError in its chain.
func IsDetailError(err error) (*domain.DetailedError, bool) {
	if err == nil {
		return nil, false
	}
	var de *domain.DetailedError
	if errors.As(err, &de) {
		return de, true
	}
	var val domain.DetailedError
	if errors.As(err, &val) {
		return &val, true
	}
	return nil, false
}
