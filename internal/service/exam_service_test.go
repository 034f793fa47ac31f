package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"clinical-records-service/internal/domain/exam"
	"clinical-records-service/internal/domain/patient"
	"clinical-records-service/internal/repository"
)

type examFixture struct {
	svc     *ExamService
	db      *gorm.DB
	patient *patient.Patient
}

func newExamFixture(t *testing.T) *examFixture {
	t.Helper()
	db := openTestDB(t)
	patientRepo := repository.NewPatientRepository(db)
	examRepo := repository.NewExamRepository(db)

	p := &patient.Patient{Name: "Léo", Document: "cpf-1"}
	require.NoError(t, patientRepo.Create(context.Background(), nil, p))

	return &examFixture{
		svc:     NewExamService(db, examRepo, patientRepo, zap.NewNop()),
		db:      db,
		patient: p,
	}
}

func (f *examFixture) examCount(t *testing.T) int64 {
	t.Helper()
	var count int64
	require.NoError(t, f.db.Model(&exam.Exam{}).Count(&count).Error)
	return count
}

func TestExamService_CreateExam(t *testing.T) {
	f := newExamFixture(t)

	e, created, err := f.svc.CreateExam(context.Background(), &exam.CreateExamCommand{
		PatientID:      f.patient.ID,
		Modality:       "CT",
		IdempotencyKey: "key-123",
	})
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotEqual(t, uuid.Nil, e.ID)
	assert.Equal(t, f.patient.ID, e.PatientID)
	require.NotNil(t, e.Patient)
	assert.Equal(t, "Léo", e.Patient.Name)
}

// A second create with the same key returns the first exam unchanged: same
// id, no new row.
func TestExamService_CreateExam_IdempotentReplay(t *testing.T) {
	f := newExamFixture(t)
	ctx := context.Background()
	cmd := &exam.CreateExamCommand{PatientID: f.patient.ID, Modality: "CT", IdempotencyKey: "key-123"}

	first, created, err := f.svc.CreateExam(ctx, cmd)
	require.NoError(t, err)
	require.True(t, created)

	replay, created, err := f.svc.CreateExam(ctx, cmd)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, replay.ID)
	assert.Equal(t, int64(1), f.examCount(t))
}

// The same caller key reused for a different patient creates a distinct exam.
func TestExamService_CreateExam_KeyIsScopedPerPatient(t *testing.T) {
	f := newExamFixture(t)
	ctx := context.Background()

	other := &patient.Patient{Name: "Outra", Document: "cpf-2"}
	require.NoError(t, repository.NewPatientRepository(f.db).Create(ctx, nil, other))

	first, created, err := f.svc.CreateExam(ctx, &exam.CreateExamCommand{
		PatientID: f.patient.ID, Modality: "CT", IdempotencyKey: "shared-key",
	})
	require.NoError(t, err)
	require.True(t, created)

	second, created, err := f.svc.CreateExam(ctx, &exam.CreateExamCommand{
		PatientID: other.ID, Modality: "CT", IdempotencyKey: "shared-key",
	})
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, int64(2), f.examCount(t))
}

func TestExamService_CreateExam_PatientNotFound(t *testing.T) {
	f := newExamFixture(t)

	_, _, err := f.svc.CreateExam(context.Background(), &exam.CreateExamCommand{
		PatientID:      uuid.MustParse("00000000-0000-0000-0000-000000000000"),
		Modality:       "CT",
		IdempotencyKey: "k",
	})
	assert.ErrorIs(t, err, patient.ErrPatientNotFound)
	assert.Equal(t, int64(0), f.examCount(t), "nothing is persisted when the patient does not resolve")
}

func TestExamService_CreateExam_Validation(t *testing.T) {
	f := newExamFixture(t)

	_, _, err := f.svc.CreateExam(context.Background(), &exam.CreateExamCommand{
		PatientID: f.patient.ID,
	})
	require.Error(t, err)

	var validErr *ValidationError
	require.ErrorAs(t, err, &validErr)
	assert.Contains(t, validErr.Fields, "modalidade is required")
	assert.Contains(t, validErr.Fields, "idempotencyKey is required")
}

// The loser of a concurrent create observes the same idempotent outcome as
// the winner: the committed exam is re-fetched after the aborted transaction
// and returned with created=false.
func TestExamService_CreateExam_LostRaceReturnsWinningExam(t *testing.T) {
	f := newExamFixture(t)
	winner := &exam.Exam{
		ID:             uuid.New(),
		PatientID:      f.patient.ID,
		Modality:       "CT",
		IdempotencyKey: "key-concurrent",
	}

	repo := &mockExamRepository{
		delegate: repository.NewExamRepository(f.db),
		GetByIdempotencyKeyFunc: func(_ context.Context, tx *gorm.DB, _ uuid.UUID, _ string) (*exam.Exam, error) {
			if tx != nil {
				// In-transaction lookup: the winner has not committed yet.
				return nil, nil
			}
			// Reconciling lookup after the lost race.
			return winner, nil
		},
		CreateFunc: func(context.Context, *gorm.DB, *exam.Exam) error {
			return gorm.ErrDuplicatedKey
		},
	}
	svc := NewExamService(f.db, repo, repository.NewPatientRepository(f.db), zap.NewNop())

	e, created, err := svc.CreateExam(context.Background(), &exam.CreateExamCommand{
		PatientID:      f.patient.ID,
		Modality:       "CT",
		IdempotencyKey: "key-concurrent",
	})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, winner.ID, e.ID)
}

func TestExamService_CreateExam_StoreErrorPropagates(t *testing.T) {
	f := newExamFixture(t)
	errStore := errors.New("store unavailable")

	repo := &mockExamRepository{
		delegate: repository.NewExamRepository(f.db),
		GetByIdempotencyKeyFunc: func(context.Context, *gorm.DB, uuid.UUID, string) (*exam.Exam, error) {
			return nil, errStore
		},
	}
	svc := NewExamService(f.db, repo, repository.NewPatientRepository(f.db), zap.NewNop())

	_, _, err := svc.CreateExam(context.Background(), &exam.CreateExamCommand{
		PatientID:      f.patient.ID,
		Modality:       "CT",
		IdempotencyKey: "k",
	})
	assert.ErrorIs(t, err, errStore)
}

func TestExamService_GetExam(t *testing.T) {
	f := newExamFixture(t)
	ctx := context.Background()

	created, _, err := f.svc.CreateExam(ctx, &exam.CreateExamCommand{
		PatientID: f.patient.ID, Modality: "MRI", IdempotencyKey: "key-get",
	})
	require.NoError(t, err)

	got, err := f.svc.GetExam(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, "MRI", got.Modality)

	_, err = f.svc.GetExam(ctx, uuid.New())
	assert.ErrorIs(t, err, exam.ErrExamNotFound)
}

func TestExamService_ListExams_ClampsPagination(t *testing.T) {
	f := newExamFixture(t)
	var captured *exam.ListExamsQuery
	repo := &mockExamRepository{
		delegate: repository.NewExamRepository(f.db),
		ListFunc: func(_ context.Context, _ *gorm.DB, q *exam.ListExamsQuery) (*exam.PagedExams, error) {
			captured = q
			return &exam.PagedExams{Page: q.Page, PageSize: q.PageSize}, nil
		},
	}
	svc := NewExamService(f.db, repo, repository.NewPatientRepository(f.db), zap.NewNop())

	_, err := svc.ListExams(context.Background(), &exam.ListExamsQuery{Page: -1, PageSize: 0})
	require.NoError(t, err)
	assert.Equal(t, 1, captured.Page)
	assert.Equal(t, 10, captured.PageSize)
}
