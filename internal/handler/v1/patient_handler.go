package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"clinical-records-service/internal/domain/patient"
	"clinical-records-service/internal/service"
	"clinical-records-service/pkg/metrics"
)

type PatientHandler struct {
	svc     *service.PatientService
	metrics *metrics.Collector
}

func NewPatientHandler(svc *service.PatientService, m *metrics.Collector) *PatientHandler {
	return &PatientHandler{svc: svc, metrics: m}
}

type upsertPatientRequest struct {
	Name     string  `json:"nome" binding:"required"`
	Document string  `json:"documento" binding:"required"`
	Email    *string `json:"email" binding:"omitempty,email"`
}

// Create handles POST /pacientes.
func (h *PatientHandler) Create(c *gin.Context) {
	var req upsertPatientRequest
	if !bindJSON(c, &req) {
		return
	}

	p, err := h.svc.CreatePatient(c.Request.Context(), &patient.CreatePatientCommand{
		Name:     req.Name,
		Document: req.Document,
		Email:    req.Email,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	h.metrics.PatientsCreatedTotal.Inc()
	c.JSON(http.StatusCreated, p)
}

// List handles GET /pacientes.
func (h *PatientHandler) List(c *gin.Context) {
	q := &patient.ListPatientsQuery{
		Page:     parseQueryInt(c, "page", 1),
		PageSize: parseQueryInt(c, "pageSize", 10),
	}

	page, err := h.svc.ListPatients(c.Request.Context(), q)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, PageResponse[*patient.Patient]{
		Data:     page.Patients,
		Total:    page.TotalCount,
		Page:     page.Page,
		PageSize: page.PageSize,
	})
}

// Get handles GET /pacientes/:id.
func (h *PatientHandler) Get(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	p, err := h.svc.GetPatient(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, p)
}

// Update handles PUT /pacientes/:id.
func (h *PatientHandler) Update(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	var req upsertPatientRequest
	if !bindJSON(c, &req) {
		return
	}

	p, err := h.svc.UpdatePatient(c.Request.Context(), id, &patient.UpdatePatientCommand{
		Name:     req.Name,
		Document: req.Document,
		Email:    req.Email,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, p)
}
