package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"clinical-records-service/internal/domain/patient"
)

type patientRepository struct {
	db *gorm.DB
}

func NewPatientRepository(db *gorm.DB) patient.Repository {
	return &patientRepository{db: db}
}

func (r *patientRepository) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *patientRepository) Create(ctx context.Context, tx *gorm.DB, p *patient.Patient) error {
	return r.conn(tx).WithContext(ctx).Create(p).Error
}

func (r *patientRepository) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*patient.Patient, error) {
	var p patient.Patient
	err := r.conn(tx).WithContext(ctx).First(&p, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, patient.ErrPatientNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("fetching patient by id: %w", err)
	}
	return &p, nil
}

func (r *patientRepository) GetByDocument(ctx context.Context, tx *gorm.DB, document string) (*patient.Patient, error) {
	var p patient.Patient
	err := r.conn(tx).WithContext(ctx).
		Where(&patient.Patient{Document: document}).
		First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("fetching patient by document: %w", err)
	}
	return &p, nil
}

func (r *patientRepository) ExistsByDocument(ctx context.Context, tx *gorm.DB, document string, excludeID *uuid.UUID) (bool, error) {
	q := r.conn(tx).WithContext(ctx).
		Model(&patient.Patient{}).
		Where(&patient.Patient{Document: document})
	if excludeID != nil {
		q = q.Where("id <> ?", *excludeID)
	}

	var count int64
	if err := q.Count(&count).Error; err != nil {
		return false, fmt.Errorf("counting patients by document: %w", err)
	}
	return count > 0, nil
}

func (r *patientRepository) Save(ctx context.Context, tx *gorm.DB, p *patient.Patient) error {
	return r.conn(tx).WithContext(ctx).Save(p).Error
}

func (r *patientRepository) List(ctx context.Context, tx *gorm.DB, q *patient.ListPatientsQuery) (*patient.PagedPatients, error) {
	base := r.conn(tx).WithContext(ctx)

	var total int64
	if err := base.Model(&patient.Patient{}).Count(&total).Error; err != nil {
		return nil, fmt.Errorf("counting patients: %w", err)
	}

	patients := make([]*patient.Patient, 0, q.PageSize)
	err := base.Model(&patient.Patient{}).
		Order(clause.OrderByColumn{Column: clause.Column{Name: "createdAt"}, Desc: true}).
		Offset((q.Page - 1) * q.PageSize).
		Limit(q.PageSize).
		Find(&patients).Error
	if err != nil {
		return nil, fmt.Errorf("listing patients: %w", err)
	}

	return &patient.PagedPatients{
		Patients:   patients,
		TotalCount: total,
		Page:       q.Page,
		PageSize:   q.PageSize,
	}, nil
}
