package v1

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/carelane/carelane/internal/domain/patient"
	"github.com/carelane/carelane/internal/service"
	"github.com/carelane/carelane/pkg/auth"
)

type PatientHandler struct {
	patients *service.PatientService
	timeline *service.Timeline
}

func NewPatientHandler(patients *service.PatientService, timeline *service.Timeline) *PatientHandler {
	return &PatientHandler{patients: patients, timeline: timeline}
}

type registerPatientRequest struct {
	FirstName    string    `json:"first_name" binding:"required"`
	LastName     string    `json:"last_name" binding:"required"`
	DateOfBirth  time.Time `json:"date_of_birth" binding:"required"`
	Gender       string    `json:"gender" binding:"required"`
	NationalID   string    `json:"national_id" binding:"required"`
	RecordNumber string    `json:"record_number"`
}

func (h *PatientHandler) Register(c *gin.Context) {
	actor, ok := auth.ActorFrom(c)
	if !ok {
		respondServiceError(c, service.ErrForbidden)
		return
	}

	var req registerPatientRequest
	if !bindJSON(c, &req) {
		return
	}

	p, err := h.patients.Register(c.Request.Context(), &patient.CreatePatientCommand{
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		DateOfBirth:  req.DateOfBirth,
		Gender:       patient.Gender(req.Gender),
		NationalID:   req.NationalID,
		RecordNumber: req.RecordNumber,
		CreatedBy:    actor.ID,
	}, actor)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondCreated(c, p)
}

func (h *PatientHandler) Get(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	p, err := h.patients.GetPatient(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, p)
}

func (h *PatientHandler) Summary(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	s, err := h.patients.GetSummary(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, s)
}

func (h *PatientHandler) Timeline(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	var since *time.Time
	if raw := c.Query("since"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid since: must be RFC 3339"})
			return
		}
		since = &t
	}

	events, err := h.timeline.Query(c.Request.Context(), id, since)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, events)
}
