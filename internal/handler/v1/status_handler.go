package v1

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/carelane/carelane/internal/domain/admission"
	"github.com/carelane/carelane/internal/domain/patient"
	"github.com/carelane/carelane/internal/service"
	"github.com/carelane/carelane/pkg/auth"
)

type StatusHandler struct {
	machine *service.StatusMachine
}

func NewStatusHandler(machine *service.StatusMachine) *StatusHandler {
	return &StatusHandler{machine: machine}
}

type transitionRequest struct {
	Target string `json:"target" binding:"required"`
	Reason string `json:"reason"`
	Force  bool   `json:"force"`

	AdmittedAt    time.Time `json:"admitted_at"`
	AdmissionType string    `json:"admission_type"`
	Ward          string    `json:"ward"`
	Bed           string    `json:"bed"`
	Diagnosis     string    `json:"diagnosis"`

	DischargedAt  time.Time `json:"discharged_at"`
	DischargeType string    `json:"discharge_type"`
	FinalWard     string    `json:"final_ward"`
	FinalBed      string    `json:"final_bed"`

	DeclaredAt time.Time `json:"declared_at"`
}

func (h *StatusHandler) Transition(c *gin.Context) {
	actor, ok := auth.ActorFrom(c)
	if !ok {
		respondServiceError(c, service.ErrForbidden)
		return
	}
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	var req transitionRequest
	if !bindJSON(c, &req) {
		return
	}

	cmd := service.TransitionCommand{
		Target:        patient.Status(req.Target),
		Reason:        req.Reason,
		Force:         req.Force,
		AdmittedAt:    req.AdmittedAt,
		AdmissionType: admission.AdmissionType(req.AdmissionType),
		Location:      admission.Location{Ward: req.Ward, Bed: req.Bed},
		Diagnosis:     req.Diagnosis,
		DischargedAt:  req.DischargedAt,
		DischargeType: admission.DischargeType(req.DischargeType),
		DeclaredAt:    req.DeclaredAt,
	}
	if req.FinalWard != "" || req.FinalBed != "" {
		cmd.FinalLocation = &admission.Location{Ward: req.FinalWard, Bed: req.FinalBed}
	}

	p, err := h.machine.Transition(c.Request.Context(), id, cmd, actor)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, p)
}
