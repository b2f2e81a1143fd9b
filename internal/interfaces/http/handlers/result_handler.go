package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/openbaseline/compliance/internal/application/dto"
	"github.com/openbaseline/compliance/internal/application/service"
	"github.com/openbaseline/compliance/pkg/logger"
)

// ResultHandler exposes test result ingestion and deletion.
type ResultHandler struct {
	resultService *service.ResultAppService
	logger        logger.Logger
}

// NewResultHandler creates a ResultHandler.
func NewResultHandler(resultService *service.ResultAppService, log logger.Logger) *ResultHandler {
	return &ResultHandler{
		resultService: resultService,
		logger:        log.WithComponent("ResultHandler"),
	}
}

// IngestResult handles POST /api/v1/test_results. A result violating the
// (profile, host, end_time) natural key yields 409.
func (h *ResultHandler) IngestResult(c *gin.Context) {
	var req dto.IngestResultRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn(c.Request.Context(), "Invalid ingest request",
			logger.Fields{"error": err.Error()})
		c.JSON(http.StatusBadRequest, errorBody{Error: "invalid_request", Message: err.Error()})
		return
	}

	result, err := h.resultService.IngestResult(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

// DeleteResult handles DELETE /api/v1/test_results/:result_id.
func (h *ResultHandler) DeleteResult(c *gin.Context) {
	resultID, ok := pathUUID(c, "result_id")
	if !ok {
		return
	}

	if err := h.resultService.DeleteResult(c.Request.Context(), resultID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// RecomputePolicy handles POST /api/v1/policies/:policy_id/recompute.
func (h *ResultHandler) RecomputePolicy(c *gin.Context) {
	policyID, ok := pathUUID(c, "policy_id")
	if !ok {
		return
	}

	if err := h.resultService.RecomputePolicy(c.Request.Context(), policyID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
