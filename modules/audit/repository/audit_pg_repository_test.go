//go:build integration

package repository

import (
	"testing"

	"bill-tracker/database/dbtest"

	"github.com/stretchr/testify/suite"
)

func TestAuditRepository_Postgres(t *testing.T) {
	db := dbtest.StartPostgres(t)
	suite.Run(t, &AuditRepositorySuite{
		newRepo: func(t *testing.T) auditRepo {
			dbtest.Truncate(t, db, "audit_logs")
			return NewAuditPgRepository(db)
		},
	})
}
