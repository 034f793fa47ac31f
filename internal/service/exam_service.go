package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"clinical-records-service/internal/domain/exam"
	"clinical-records-service/internal/domain/patient"
	"clinical-records-service/pkg/database"
)

// ExamService enforces referential existence of the owning patient and
// idempotent creation keyed by (patient, idempotency key), inside one
// transaction per request.
type ExamService struct {
	db       *gorm.DB
	repo     exam.Repository
	patients patient.Repository
	log      *zap.Logger
}

func NewExamService(db *gorm.DB, repo exam.Repository, patients patient.Repository, log *zap.Logger) *ExamService {
	return &ExamService{db: db, repo: repo, patients: patients, log: log}
}

// CreateExam returns the exam and whether a new row was persisted. A replay
// with a key already recorded for the patient returns the existing exam
// unchanged, with created=false.
func (s *ExamService) CreateExam(ctx context.Context, cmd *exam.CreateExamCommand) (*exam.Exam, bool, error) {
	if err := validateExamCommand(cmd); err != nil {
		return nil, false, err
	}

	key := strings.TrimSpace(cmd.IdempotencyKey)

	var result *exam.Exam
	created := false

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		p, err := s.patients.GetByID(ctx, tx, cmd.PatientID)
		if err != nil {
			return err
		}

		existing, err := s.repo.GetByIdempotencyKey(ctx, tx, cmd.PatientID, key)
		if err != nil {
			return err
		}
		if existing != nil {
			result = existing
			return nil
		}

		e := &exam.Exam{
			PatientID:      p.ID,
			Modality:       strings.TrimSpace(cmd.Modality),
			IdempotencyKey: key,
			Patient:        p,
		}
		if err := s.repo.Create(ctx, tx, e); err != nil {
			return fmt.Errorf("creating exam: %w", err)
		}

		result = e
		created = true
		return nil
	})
	if err != nil {
		// Lost a concurrent race on the idempotency key: the winning row is
		// committed, but our transaction is aborted, so the reconciling read
		// has to run on a fresh unit of work.
		if database.IsUniqueViolation(err) {
			existing, lookupErr := s.repo.GetByIdempotencyKey(ctx, nil, cmd.PatientID, key)
			if lookupErr != nil {
				return nil, false, lookupErr
			}
			if existing != nil {
				return existing, false, nil
			}
		}
		if !errors.Is(err, patient.ErrPatientNotFound) {
			s.log.Error("failed to create exam", zap.Error(err))
		}
		return nil, false, err
	}

	if created {
		s.log.Info("exam created",
			zap.String("exam_id", result.ID.String()),
			zap.String("patient_id", result.PatientID.String()),
			zap.String("modality", result.Modality),
		)
	}

	return result, created, nil
}

func (s *ExamService) GetExam(ctx context.Context, id uuid.UUID) (*exam.Exam, error) {
	return s.repo.GetByID(ctx, nil, id)
}

func (s *ExamService) ListExams(ctx context.Context, q *exam.ListExamsQuery) (*exam.PagedExams, error) {
	if q.Page <= 0 {
		q.Page = 1
	}
	if q.PageSize <= 0 || q.PageSize > 100 {
		q.PageSize = 10
	}

	return s.repo.List(ctx, nil, q)
}

func validateExamCommand(cmd *exam.CreateExamCommand) error {
	var errs []string

	if strings.TrimSpace(cmd.Modality) == "" {
		errs = append(errs, "modalidade is required")
	}
	if strings.TrimSpace(cmd.IdempotencyKey) == "" {
		errs = append(errs, "idempotencyKey is required")
	}

	if len(errs) > 0 {
		return &ValidationError{Fields: errs}
	}
	return nil
}
