package service

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"clinical-records-service/internal/domain/exam"
	"clinical-records-service/internal/domain/patient"
)

var testDBSeq atomic.Int64

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:svctest%d?mode=memory&cache=shared", testDBSeq.Add(1))
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

// Compile-time checks that the mocks satisfy the repository contracts.
var (
	_ patient.Repository = (*mockPatientRepository)(nil)
	_ exam.Repository    = (*mockExamRepository)(nil)
)

// mockPatientRepository overrides individual repository calls; nil funcs fall
// through to a delegate when one is set.
type mockPatientRepository struct {
	delegate patient.Repository

	CreateFunc           func(ctx context.Context, tx *gorm.DB, p *patient.Patient) error
	GetByIDFunc          func(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*patient.Patient, error)
	GetByDocumentFunc    func(ctx context.Context, tx *gorm.DB, document string) (*patient.Patient, error)
	ExistsByDocumentFunc func(ctx context.Context, tx *gorm.DB, document string, excludeID *uuid.UUID) (bool, error)
	SaveFunc             func(ctx context.Context, tx *gorm.DB, p *patient.Patient) error
	ListFunc             func(ctx context.Context, tx *gorm.DB, q *patient.ListPatientsQuery) (*patient.PagedPatients, error)
}

func (m *mockPatientRepository) Create(ctx context.Context, tx *gorm.DB, p *patient.Patient) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, p)
	}
	return m.delegate.Create(ctx, tx, p)
}

func (m *mockPatientRepository) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*patient.Patient, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, tx, id)
	}
	return m.delegate.GetByID(ctx, tx, id)
}

func (m *mockPatientRepository) GetByDocument(ctx context.Context, tx *gorm.DB, document string) (*patient.Patient, error) {
	if m.GetByDocumentFunc != nil {
		return m.GetByDocumentFunc(ctx, tx, document)
	}
	return m.delegate.GetByDocument(ctx, tx, document)
}

func (m *mockPatientRepository) ExistsByDocument(ctx context.Context, tx *gorm.DB, document string, excludeID *uuid.UUID) (bool, error) {
	if m.ExistsByDocumentFunc != nil {
		return m.ExistsByDocumentFunc(ctx, tx, document, excludeID)
	}
	return m.delegate.ExistsByDocument(ctx, tx, document, excludeID)
}

func (m *mockPatientRepository) Save(ctx context.Context, tx *gorm.DB, p *patient.Patient) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, tx, p)
	}
	return m.delegate.Save(ctx, tx, p)
}

func (m *mockPatientRepository) List(ctx context.Context, tx *gorm.DB, q *patient.ListPatientsQuery) (*patient.PagedPatients, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, tx, q)
	}
	return m.delegate.List(ctx, tx, q)
}

type mockExamRepository struct {
	delegate exam.Repository

	CreateFunc              func(ctx context.Context, tx *gorm.DB, e *exam.Exam) error
	GetByIDFunc             func(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*exam.Exam, error)
	GetByIdempotencyKeyFunc func(ctx context.Context, tx *gorm.DB, patientID uuid.UUID, key string) (*exam.Exam, error)
	ListFunc                func(ctx context.Context, tx *gorm.DB, q *exam.ListExamsQuery) (*exam.PagedExams, error)
}

func (m *mockExamRepository) Create(ctx context.Context, tx *gorm.DB, e *exam.Exam) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, e)
	}
	return m.delegate.Create(ctx, tx, e)
}

func (m *mockExamRepository) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*exam.Exam, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, tx, id)
	}
	return m.delegate.GetByID(ctx, tx, id)
}

func (m *mockExamRepository) GetByIdempotencyKey(ctx context.Context, tx *gorm.DB, patientID uuid.UUID, key string) (*exam.Exam, error) {
	if m.GetByIdempotencyKeyFunc != nil {
		return m.GetByIdempotencyKeyFunc(ctx, tx, patientID, key)
	}
	return m.delegate.GetByIdempotencyKey(ctx, tx, patientID, key)
}

func (m *mockExamRepository) List(ctx context.Context, tx *gorm.DB, q *exam.ListExamsQuery) (*exam.PagedExams, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, tx, q)
	}
	return m.delegate.List(ctx, tx, q)
}
