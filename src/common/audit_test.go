package common

import (
	"bytes"
	"log"
	"os"
	"regexp"
	"testing"

	"pms/src/db"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newAuditMock(t *testing.T) sqlmock.Sqlmock {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	db.NewDB(gdb)
	return mock
}

func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	log.SetOutput(&buf)
	t.Cleanup(func() { log.SetOutput(os.Stderr) })
	return &buf
}

func TestOccupancyAuditReportsAgreement(t *testing.T) {
	mock := newAuditMock(t)
	buf := captureLog(t)

	empty := sqlmock.NewRows([]string{"id", "slot_number", "available"})
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "parking_slots"`)).WillReturnRows(empty)
	empty2 := sqlmock.NewRows([]string{"id", "slot_number", "available"})
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "parking_slots"`)).WillReturnRows(empty2)

	OccupancyAudit()

	assert.Contains(t, buf.String(), "agree")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOccupancyAuditFlagsConflictingSlot(t *testing.T) {
	mock := newAuditMock(t)
	buf := captureLog(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "parking_slots"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "slot_number", "available"}))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "parking_slots"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "slot_number", "available"}).
			AddRow(4, "F1-S4", true))

	OccupancyAudit()

	assert.Contains(t, buf.String(), "marked available but an active ticket references it")
	assert.NoError(t, mock.ExpectationsWereMet())
}
