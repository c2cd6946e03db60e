package v1

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/carelane/carelane/internal/domain/record"
	"github.com/carelane/carelane/internal/service"
	"github.com/carelane/carelane/pkg/auth"
)

type RecordHandler struct {
	records *service.RecordLedger
}

func NewRecordHandler(records *service.RecordLedger) *RecordHandler {
	return &RecordHandler{records: records}
}

type assignRecordRequest struct {
	Value       string    `json:"value" binding:"required"`
	Reason      string    `json:"reason"`
	EffectiveAt time.Time `json:"effective_at"`
}

func (h *RecordHandler) Assign(c *gin.Context) {
	actor, ok := auth.ActorFrom(c)
	if !ok {
		respondServiceError(c, service.ErrForbidden)
		return
	}
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	var req assignRecordRequest
	if !bindJSON(c, &req) {
		return
	}

	e, err := h.records.AssignRecordNumber(c.Request.Context(), id, record.AssignCommand{
		Value:       req.Value,
		Reason:      req.Reason,
		EffectiveAt: req.EffectiveAt,
	}, actor)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondCreated(c, e)
}

func (h *RecordHandler) History(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	entries, err := h.records.History(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, entries)
}

func (h *RecordHandler) Current(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	value, err := h.records.CurrentRecordNumber(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, gin.H{"value": value})
}
