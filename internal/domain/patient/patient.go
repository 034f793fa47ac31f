package patient

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Patient maps to the fixed "pacientes" schema. Column names are camelCase
// because the table predates this service and is shared with other consumers.
type Patient struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time `gorm:"column:createdAt;autoCreateTime;index" json:"createdAt"`
	UpdatedAt time.Time `gorm:"column:updatedAt;autoUpdateTime" json:"updatedAt"`

	Name     string  `gorm:"column:nome;type:varchar(255);not null" json:"nome"`
	Document string  `gorm:"column:documento;type:varchar(64);not null;uniqueIndex:ux_pacientes_documento" json:"documento"`
	Email    *string `gorm:"column:email;type:varchar(255)" json:"email,omitempty"`
}

func (Patient) TableName() string {
	return "pacientes"
}

// BeforeCreate assigns the primary key client-side so the entity works on
// every supported driver, not only ones with a uuid default expression.
func (p *Patient) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

type CreatePatientCommand struct {
	Name     string
	Document string
	Email    *string
}

type UpdatePatientCommand struct {
	Name     string
	Document string
	Email    *string
}

// ListPatientsQuery defines pagination for patient list queries.
type ListPatientsQuery struct {
	Page     int
	PageSize int
}

type PagedPatients struct {
	Patients   []*Patient
	TotalCount int64
	Page       int
	PageSize   int
}
