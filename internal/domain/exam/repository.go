package exam

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository methods accept an optional transaction handle; nil falls back to
// the repository's base connection.
type Repository interface {
	// Create persists a new exam. A duplicate (pacienteId, idempotencyKey)
	// surfaces as the store's unique-violation error, untranslated.
	Create(ctx context.Context, tx *gorm.DB, e *Exam) error

	// GetByID retrieves an exam (with its patient) by primary key.
	// Returns ErrExamNotFound if absent.
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*Exam, error)

	// GetByIdempotencyKey retrieves the exam recorded for the given patient
	// and caller-supplied key. Returns (nil, nil) if absent.
	GetByIdempotencyKey(ctx context.Context, tx *gorm.DB, patientID uuid.UUID, key string) (*Exam, error)

	// List returns a page of exams ordered by creation time descending,
	// optionally restricted to one patient.
	List(ctx context.Context, tx *gorm.DB, q *ListExamsQuery) (*PagedExams, error)
}
