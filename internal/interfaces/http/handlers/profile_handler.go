package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/openbaseline/compliance/internal/application/dto"
	"github.com/openbaseline/compliance/internal/application/service"
	"github.com/openbaseline/compliance/pkg/logger"
)

// ProfileHandler exposes profile lifecycle and tailoring endpoints.
type ProfileHandler struct {
	profileService *service.ProfileAppService
	logger         logger.Logger
}

// NewProfileHandler creates a ProfileHandler.
func NewProfileHandler(profileService *service.ProfileAppService, log logger.Logger) *ProfileHandler {
	return &ProfileHandler{
		profileService: profileService,
		logger:         log.WithComponent("ProfileHandler"),
	}
}

// CreateProfile handles POST /api/v1/profiles.
func (h *ProfileHandler) CreateProfile(c *gin.Context) {
	var req dto.CreateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn(c.Request.Context(), "Invalid create profile request",
			logger.Fields{"error": err.Error()})
		c.JSON(http.StatusBadRequest, errorBody{Error: "invalid_request", Message: err.Error()})
		return
	}

	profile, err := h.profileService.CreateProfile(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, profile)
}

// UpdateRules handles PATCH /api/v1/profiles/:profile_id/rules.
func (h *ProfileHandler) UpdateRules(c *gin.Context) {
	profileID, ok := pathUUID(c, "profile_id")
	if !ok {
		return
	}

	var req dto.UpdateRulesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody{Error: "invalid_request", Message: err.Error()})
		return
	}

	summary, err := h.profileService.UpdateProfileRules(c.Request.Context(), profileID, req.RuleRefIDs)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// GetTailoringDelta handles GET /api/v1/profiles/:profile_id/tailoring.
func (h *ProfileHandler) GetTailoringDelta(c *gin.Context) {
	profileID, ok := pathUUID(c, "profile_id")
	if !ok {
		return
	}

	delta, err := h.profileService.TailoringDelta(c.Request.Context(), profileID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, delta)
}

// GetTailoringFile handles GET /api/v1/profiles/:profile_id/tailoring_file.
// Untailored profiles yield 204 with no body.
func (h *ProfileHandler) GetTailoringFile(c *gin.Context) {
	profileID, ok := pathUUID(c, "profile_id")
	if !ok {
		return
	}

	content, err := h.profileService.GetTailoringFile(c.Request.Context(), profileID)
	if err != nil {
		respondError(c, err)
		return
	}
	if content == nil {
		c.Status(http.StatusNoContent)
		return
	}
	c.Data(http.StatusOK, "application/xml", content)
}

// SetOSMinorVersion handles PUT /api/v1/profiles/:profile_id/os_minor_version.
func (h *ProfileHandler) SetOSMinorVersion(c *gin.Context) {
	profileID, ok := pathUUID(c, "profile_id")
	if !ok {
		return
	}

	var req struct {
		OSMinorVersion string `json:"os_minor_version" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody{Error: "invalid_request", Message: err.Error()})
		return
	}

	if err := h.profileService.SetOSMinorVersion(c.Request.Context(), profileID, req.OSMinorVersion); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// SetBusinessObjective handles PUT /api/v1/policies/:policy_id/business_objective.
// An empty title clears the association.
func (h *ProfileHandler) SetBusinessObjective(c *gin.Context) {
	policyID, ok := pathUUID(c, "policy_id")
	if !ok {
		return
	}

	var req struct {
		Title string `json:"title"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody{Error: "invalid_request", Message: err.Error()})
		return
	}

	if err := h.profileService.SetBusinessObjective(c.Request.Context(), policyID, req.Title); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
