package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"clinical-records-service/internal/domain/patient"
	"clinical-records-service/pkg/database"
)

// PatientService enforces document uniqueness at creation and update time.
// The in-transaction existence check only short-circuits the common case;
// the unique index on documento is what actually guarantees the invariant,
// so a write rejected by the store is normalized to the same outcome as the
// pre-check.
type PatientService struct {
	db   *gorm.DB
	repo patient.Repository
	log  *zap.Logger
}

func NewPatientService(db *gorm.DB, repo patient.Repository, log *zap.Logger) *PatientService {
	return &PatientService{db: db, repo: repo, log: log}
}

func (s *PatientService) CreatePatient(ctx context.Context, cmd *patient.CreatePatientCommand) (*patient.Patient, error) {
	if err := validatePatientFields(cmd.Name, cmd.Document); err != nil {
		return nil, err
	}

	p := &patient.Patient{
		Name:     strings.TrimSpace(cmd.Name),
		Document: strings.TrimSpace(cmd.Document),
		Email:    normalizeEmail(cmd.Email),
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		exists, err := s.repo.ExistsByDocument(ctx, tx, p.Document, nil)
		if err != nil {
			return fmt.Errorf("checking document uniqueness: %w", err)
		}
		if exists {
			return patient.ErrDocumentAlreadyExists
		}

		if err := s.repo.Create(ctx, tx, p); err != nil {
			return fmt.Errorf("creating patient: %w", err)
		}
		return nil
	})
	if err != nil {
		// Two concurrent creates can both pass the pre-check; the loser is
		// rejected by the unique index and must observe the same conflict.
		if database.IsUniqueViolation(err) {
			return nil, patient.ErrDocumentAlreadyExists
		}
		if !errors.Is(err, patient.ErrDocumentAlreadyExists) {
			s.log.Error("failed to create patient", zap.Error(err))
		}
		return nil, err
	}

	s.log.Info("patient created",
		zap.String("patient_id", p.ID.String()),
		zap.String("document", p.Document),
	)

	return p, nil
}

func (s *PatientService) GetPatient(ctx context.Context, id uuid.UUID) (*patient.Patient, error) {
	return s.repo.GetByID(ctx, nil, id)
}

// UpdatePatient runs the lookup, the duplicate check and the write in one
// transaction. The duplicate check excludes the patient itself so resubmitting
// an unchanged document is not a conflict.
func (s *PatientService) UpdatePatient(ctx context.Context, id uuid.UUID, cmd *patient.UpdatePatientCommand) (*patient.Patient, error) {
	if err := validatePatientFields(cmd.Name, cmd.Document); err != nil {
		return nil, err
	}

	var updated *patient.Patient
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		p, err := s.repo.GetByID(ctx, tx, id)
		if err != nil {
			return err
		}

		document := strings.TrimSpace(cmd.Document)
		exists, err := s.repo.ExistsByDocument(ctx, tx, document, &id)
		if err != nil {
			return fmt.Errorf("checking document uniqueness: %w", err)
		}
		if exists {
			return patient.ErrDocumentAlreadyExists
		}

		p.Name = strings.TrimSpace(cmd.Name)
		p.Document = document
		p.Email = normalizeEmail(cmd.Email)

		if err := s.repo.Save(ctx, tx, p); err != nil {
			return fmt.Errorf("updating patient: %w", err)
		}
		updated = p
		return nil
	})
	if err != nil {
		if database.IsUniqueViolation(err) {
			return nil, patient.ErrDocumentAlreadyExists
		}
		return nil, err
	}

	return updated, nil
}

func (s *PatientService) ListPatients(ctx context.Context, q *patient.ListPatientsQuery) (*patient.PagedPatients, error) {
	if q.Page <= 0 {
		q.Page = 1
	}
	if q.PageSize <= 0 || q.PageSize > 100 {
		q.PageSize = 10
	}

	return s.repo.List(ctx, nil, q)
}

func validatePatientFields(name, document string) error {
	var errs []string

	if strings.TrimSpace(name) == "" {
		errs = append(errs, "nome is required")
	}
	if strings.TrimSpace(document) == "" {
		errs = append(errs, "documento is required")
	}

	if len(errs) > 0 {
		return &ValidationError{Fields: errs}
	}
	return nil
}

func normalizeEmail(email *string) *string {
	if email == nil {
		return nil
	}
	e := strings.ToLower(strings.TrimSpace(*email))
	if e == "" {
		return nil
	}
	return &e
}
