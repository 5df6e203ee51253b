//go:build integration

package repository

import (
	"testing"

	"bill-tracker/database/dbtest"

	"github.com/stretchr/testify/suite"
)

func TestDefinitionRepository_Postgres(t *testing.T) {
	db := dbtest.StartPostgres(t)
	suite.Run(t, &DefinitionRepositorySuite{
		newRepo: func(t *testing.T) definitionRepo {
			dbtest.Truncate(t, db, "service_definitions")
			return NewDefinitionPgRepository(db)
		},
	})
}
