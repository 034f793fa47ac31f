package exam

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"clinical-records-service/internal/domain/patient"
)

// Exam maps to the fixed "exames" schema.
//
// The idempotency key is unique per patient, not globally: the same caller
// token reused for a different patient must create a distinct exam. The
// composite index enforces that while still letting the store arbitrate
// concurrent creates for the same (patient, key) pair.
type Exam struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time `gorm:"column:createdAt;autoCreateTime;index" json:"createdAt"`
	UpdatedAt time.Time `gorm:"column:updatedAt;autoUpdateTime" json:"updatedAt"`

	PatientID      uuid.UUID `gorm:"column:pacienteId;type:uuid;not null;uniqueIndex:ux_exames_paciente_idempotency,priority:1" json:"pacienteId"`
	Modality       string    `gorm:"column:modalidade;type:varchar(64);not null" json:"modalidade"`
	IdempotencyKey string    `gorm:"column:idempotencyKey;type:varchar(255);not null;uniqueIndex:ux_exames_paciente_idempotency,priority:2" json:"idempotencyKey"`

	Patient *patient.Patient `gorm:"foreignKey:PatientID;references:ID;constraint:OnDelete:CASCADE" json:"paciente,omitempty"`
}

func (Exam) TableName() string {
	return "exames"
}

func (e *Exam) BeforeCreate(*gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}

type CreateExamCommand struct {
	PatientID      uuid.UUID
	Modality       string
	IdempotencyKey string
}

// ListExamsQuery defines pagination and the optional owning-patient filter.
type ListExamsQuery struct {
	PatientID *uuid.UUID
	Page      int
	PageSize  int
}

type PagedExams struct {
	Exams      []*Exam
	TotalCount int64
	Page       int
	PageSize   int
}
