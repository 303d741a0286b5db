package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"focusd/internal/service"
)

type ModeHandler struct {
	modeService *service.ModeService
}

type modeRequest struct {
	Name                 string   `json:"name"`
	WorkDurationSeconds  int      `json:"workDurationSeconds"`
	BreakDurationSeconds int      `json:"breakDurationSeconds"`
	Description          *string  `json:"description"`
	BlockedApps          []string `json:"blockedApps"`
}

func NewModeHandler(modeService *service.ModeService) *ModeHandler {
	return &ModeHandler{modeService: modeService}
}

func (h *ModeHandler) Create(c *gin.Context) {
	var req modeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": gin.H{"code": "invalid_json", "message": "invalid request body"},
		})
		return
	}

	mode, apiErr := h.modeService.Create(c.Request.Context(), toModeInput(req))
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"mode": mode})
}

func (h *ModeHandler) Update(c *gin.Context) {
	var req modeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": gin.H{"code": "invalid_json", "message": "invalid request body"},
		})
		return
	}

	mode, apiErr := h.modeService.Update(c.Request.Context(), c.Param("id"), toModeInput(req))
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"mode": mode})
}

func (h *ModeHandler) Get(c *gin.Context) {
	mode, apiErr := h.modeService.Get(c.Request.Context(), c.Param("id"))
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"mode": mode})
}

func (h *ModeHandler) List(c *gin.Context) {
	modes, apiErr := h.modeService.List(c.Request.Context())
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"modes": modes})
}

func (h *ModeHandler) Activate(c *gin.Context) {
	if apiErr := h.modeService.Activate(c.Request.Context(), c.Param("id")); apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "activated"})
}

func (h *ModeHandler) Deactivate(c *gin.Context) {
	if apiErr := h.modeService.Deactivate(c.Request.Context()); apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deactivated"})
}

func (h *ModeHandler) GetActive(c *gin.Context) {
	state, err := h.modeService.ActiveState(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": gin.H{"code": "internal_error", "message": "failed to read active mode"},
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"active": state})
}

func toModeInput(req modeRequest) service.ModeInput {
	return service.ModeInput{
		Name:                 req.Name,
		WorkDurationSeconds:  req.WorkDurationSeconds,
		BreakDurationSeconds: req.BreakDurationSeconds,
		Description:          req.Description,
		BlockedApps:          req.BlockedApps,
	}
}
