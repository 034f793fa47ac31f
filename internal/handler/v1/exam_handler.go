package v1

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"clinical-records-service/internal/domain/exam"
	"clinical-records-service/internal/domain/patient"
	"clinical-records-service/internal/service"
	"clinical-records-service/pkg/metrics"
)

type ExamHandler struct {
	svc     *service.ExamService
	metrics *metrics.Collector
}

func NewExamHandler(svc *service.ExamService, m *metrics.Collector) *ExamHandler {
	return &ExamHandler{svc: svc, metrics: m}
}

type createExamRequest struct {
	PatientID      string `json:"pacienteId" binding:"required,uuid"`
	Modality       string `json:"modalidade" binding:"required"`
	IdempotencyKey string `json:"idempotencyKey" binding:"required"`
}

// Create handles POST /exames. A replay of an already-recorded idempotency
// key answers 200 with the existing exam; a fresh create answers 201.
func (h *ExamHandler) Create(c *gin.Context) {
	var req createExamRequest
	if !bindJSON(c, &req) {
		return
	}

	patientID, err := uuid.Parse(req.PatientID)
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid pacienteId: must be a valid UUID")
		return
	}

	e, created, err := h.svc.CreateExam(c.Request.Context(), &exam.CreateExamCommand{
		PatientID:      patientID,
		Modality:       req.Modality,
		IdempotencyKey: req.IdempotencyKey,
	})
	if err != nil {
		// At this boundary a missing patient is a bad request, not a 404:
		// the id came from the body, not from the path.
		if errors.Is(err, patient.ErrPatientNotFound) {
			respondError(c, http.StatusBadRequest, err.Error())
			return
		}
		respondServiceError(c, err)
		return
	}

	if created {
		h.metrics.ExamsCreatedTotal.Inc()
		c.JSON(http.StatusCreated, e)
		return
	}

	h.metrics.ExamReplaysTotal.Inc()
	c.JSON(http.StatusOK, e)
}

// List handles GET /exames with an optional pacienteId filter.
func (h *ExamHandler) List(c *gin.Context) {
	q := &exam.ListExamsQuery{
		Page:     parseQueryInt(c, "page", 1),
		PageSize: parseQueryInt(c, "pageSize", 10),
	}

	if raw := c.Query("pacienteId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			respondError(c, http.StatusBadRequest, "invalid pacienteId: must be a valid UUID")
			return
		}
		q.PatientID = &id
	}

	page, err := h.svc.ListExams(c.Request.Context(), q)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, PageResponse[*exam.Exam]{
		Data:     page.Exams,
		Total:    page.TotalCount,
		Page:     page.Page,
		PageSize: page.PageSize,
	})
}

// Get handles GET /exames/:id.
func (h *ExamHandler) Get(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	e, err := h.svc.GetExam(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, e)
}
