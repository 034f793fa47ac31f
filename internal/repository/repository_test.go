package repository

import (
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"clinical-records-service/internal/domain/exam"
	"clinical-records-service/internal/domain/patient"
)

var testDBSeq atomic.Int64

// openTestDB opens an isolated in-memory store with the production schema.
// MaxOpenConns is pinned to 1 because a shared-cache sqlite database does not
// tolerate overlapping writers the way postgres does.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:repotest%d?mode=memory&cache=shared", testDBSeq.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(&patient.Patient{}, &exam.Exam{}))
	return db
}

func strPtr(s string) *string { return &s }
