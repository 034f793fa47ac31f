package patient

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository methods accept an optional transaction handle. Passing nil runs
// the operation on the repository's base connection; passing a *gorm.DB
// obtained from Transaction scopes the operation to that unit of work.
type Repository interface {
	// Create persists a new patient. A duplicate documento surfaces as the
	// store's unique-violation error, untranslated.
	Create(ctx context.Context, tx *gorm.DB, p *Patient) error

	// GetByID retrieves a patient by primary key. Returns ErrPatientNotFound if absent.
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*Patient, error)

	// GetByDocument retrieves a patient by documento. Returns (nil, nil) if absent.
	GetByDocument(ctx context.Context, tx *gorm.DB, document string) (*Patient, error)

	// ExistsByDocument checks documento uniqueness without fetching the row.
	// excludeID, when non-nil, ignores that patient (self-update case).
	ExistsByDocument(ctx context.Context, tx *gorm.DB, document string, excludeID *uuid.UUID) (bool, error)

	// Save writes back all mutable fields of an existing patient.
	Save(ctx context.Context, tx *gorm.DB, p *Patient) error

	// List returns a page of patients ordered by creation time descending.
	List(ctx context.Context, tx *gorm.DB, q *ListPatientsQuery) (*PagedPatients, error)
}
