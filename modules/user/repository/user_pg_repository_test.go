//go:build integration

package repository

import (
	"testing"

	"bill-tracker/database/dbtest"

	"github.com/stretchr/testify/suite"
)

func TestUserRepository_Postgres(t *testing.T) {
	db := dbtest.StartPostgres(t)
	suite.Run(t, &UserRepositorySuite{
		newRepo: func(t *testing.T) userRepo {
			dbtest.Truncate(t, db, "user_profiles")
			return NewUserPgRepository(db)
		},
	})
}
