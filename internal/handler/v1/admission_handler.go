package v1

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/carelane/carelane/internal/domain/admission"
	"github.com/carelane/carelane/internal/service"
	"github.com/carelane/carelane/pkg/auth"
)

type AdmissionHandler struct {
	admissions *service.AdmissionLedger
}

func NewAdmissionHandler(admissions *service.AdmissionLedger) *AdmissionHandler {
	return &AdmissionHandler{admissions: admissions}
}

type admitRequest struct {
	AdmittedAt time.Time `json:"admitted_at"`
	Type       string    `json:"type" binding:"required"`
	Ward       string    `json:"ward" binding:"required"`
	Bed        string    `json:"bed"`
	Diagnosis  string    `json:"diagnosis"`
	Reason     string    `json:"reason"`
}

func (h *AdmissionHandler) Admit(c *gin.Context) {
	actor, ok := auth.ActorFrom(c)
	if !ok {
		respondServiceError(c, service.ErrForbidden)
		return
	}
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	var req admitRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.AdmittedAt.IsZero() {
		req.AdmittedAt = time.Now().UTC()
	}

	a, err := h.admissions.Admit(c.Request.Context(), id, admission.AdmitCommand{
		AdmittedAt: req.AdmittedAt,
		Type:       admission.AdmissionType(req.Type),
		Location:   admission.Location{Ward: req.Ward, Bed: req.Bed},
		Diagnosis:  req.Diagnosis,
	}, actor, req.Reason)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondCreated(c, a)
}

type dischargeRequest struct {
	DischargedAt time.Time `json:"discharged_at"`
	Type         string    `json:"type" binding:"required"`
	Diagnosis    string    `json:"diagnosis"`
	FinalWard    string    `json:"final_ward"`
	FinalBed     string    `json:"final_bed"`
	Reason       string    `json:"reason"`
	// TransferOut closes the episode as an inter-facility transfer instead
	// of a regular discharge.
	TransferOut bool `json:"transfer_out"`
}

func (h *AdmissionHandler) Discharge(c *gin.Context) {
	actor, ok := auth.ActorFrom(c)
	if !ok {
		respondServiceError(c, service.ErrForbidden)
		return
	}
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	var req dischargeRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.DischargedAt.IsZero() {
		req.DischargedAt = time.Now().UTC()
	}

	cmd := admission.DischargeCommand{
		DischargedAt: req.DischargedAt,
		Type:         admission.DischargeType(req.Type),
		Diagnosis:    req.Diagnosis,
	}
	if req.FinalWard != "" || req.FinalBed != "" {
		cmd.FinalLocation = &admission.Location{Ward: req.FinalWard, Bed: req.FinalBed}
	}

	var (
		a   *admission.Admission
		err error
	)
	if req.TransferOut {
		a, err = h.admissions.TransferOut(c.Request.Context(), id, cmd, actor, req.Reason)
	} else {
		a, err = h.admissions.Discharge(c.Request.Context(), id, cmd, actor, req.Reason)
	}
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, a)
}

type relocateRequest struct {
	Ward string `json:"ward" binding:"required"`
	Bed  string `json:"bed"`
}

func (h *AdmissionHandler) Relocate(c *gin.Context) {
	actor, ok := auth.ActorFrom(c)
	if !ok {
		respondServiceError(c, service.ErrForbidden)
		return
	}
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	var req relocateRequest
	if !bindJSON(c, &req) {
		return
	}

	a, err := h.admissions.Relocate(c.Request.Context(), id, admission.Location{Ward: req.Ward, Bed: req.Bed}, actor)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, a)
}

func (h *AdmissionHandler) List(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	list, err := h.admissions.History(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, list)
}

type activeAdmissionResponse struct {
	Admission    *admission.Admission `json:"admission"`
	CurrentHours int                  `json:"current_hours"`
	CurrentDays  int                  `json:"current_days"`
}

func (h *AdmissionHandler) Active(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	a, err := h.admissions.Active(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	hours, days := a.CurrentDuration(time.Now().UTC())
	respondOK(c, activeAdmissionResponse{Admission: a, CurrentHours: hours, CurrentDays: days})
}

func (h *AdmissionHandler) Occupancy(c *gin.Context) {
	ward := c.Param("ward")

	occ, err := h.admissions.Occupancy(c.Request.Context(), ward)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, occ)
}
