package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"clinical-records-service/internal/domain/exam"
)

type examRepository struct {
	db *gorm.DB
}

func NewExamRepository(db *gorm.DB) exam.Repository {
	return &examRepository{db: db}
}

func (r *examRepository) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *examRepository) Create(ctx context.Context, tx *gorm.DB, e *exam.Exam) error {
	// Omit the association: the owning patient is looked up, never upserted.
	return r.conn(tx).WithContext(ctx).Omit("Patient").Create(e).Error
}

func (r *examRepository) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*exam.Exam, error) {
	var e exam.Exam
	err := r.conn(tx).WithContext(ctx).
		Preload("Patient").
		First(&e, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, exam.ErrExamNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("fetching exam by id: %w", err)
	}
	return &e, nil
}

func (r *examRepository) GetByIdempotencyKey(ctx context.Context, tx *gorm.DB, patientID uuid.UUID, key string) (*exam.Exam, error) {
	var e exam.Exam
	err := r.conn(tx).WithContext(ctx).
		Preload("Patient").
		Where(&exam.Exam{PatientID: patientID, IdempotencyKey: key}).
		First(&e).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("fetching exam by idempotency key: %w", err)
	}
	return &e, nil
}

func (r *examRepository) List(ctx context.Context, tx *gorm.DB, q *exam.ListExamsQuery) (*exam.PagedExams, error) {
	base := r.conn(tx).WithContext(ctx)

	scoped := func() *gorm.DB {
		db := base.Model(&exam.Exam{})
		if q.PatientID != nil {
			db = db.Where(&exam.Exam{PatientID: *q.PatientID})
		}
		return db
	}

	var total int64
	if err := scoped().Count(&total).Error; err != nil {
		return nil, fmt.Errorf("counting exams: %w", err)
	}

	exams := make([]*exam.Exam, 0, q.PageSize)
	err := scoped().
		Preload("Patient").
		Order(clause.OrderByColumn{Column: clause.Column{Name: "createdAt"}, Desc: true}).
		Offset((q.Page - 1) * q.PageSize).
		Limit(q.PageSize).
		Find(&exams).Error
	if err != nil {
		return nil, fmt.Errorf("listing exams: %w", err)
	}

	return &exam.PagedExams{
		Exams:      exams,
		TotalCount: total,
		Page:       q.Page,
		PageSize:   q.PageSize,
	}, nil
}
