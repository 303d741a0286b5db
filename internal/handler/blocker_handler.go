package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"focusd/internal/blocker"
)

type BlockerHandler struct {
	detector *blocker.Detector
}

type foregroundEventRequest struct {
	AppID string `json:"appId"`
}

func NewBlockerHandler(detector *blocker.Detector) *BlockerHandler {
	return &BlockerHandler{detector: detector}
}

// ForegroundEvent accepts pushed foreground-app changes from platform
// collaborators that deliver events instead of being polled.
func (h *BlockerHandler) ForegroundEvent(c *gin.Context) {
	var req foregroundEventRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.AppID == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": gin.H{"code": "invalid_event", "message": "appId is required"},
		})
		return
	}

	event := blocker.Event{AppID: req.AppID, At: time.Now()}
	select {
	case h.detector.Events() <- event:
		c.JSON(http.StatusAccepted, gin.H{"status": "accepted"})
	case <-c.Request.Context().Done():
	}
}

func (h *BlockerHandler) GetState(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"blocker": h.detector.Snapshot()})
}

func (h *BlockerHandler) Dismiss(c *gin.Context) {
	h.detector.Dismiss()
	c.JSON(http.StatusOK, gin.H{"blocker": h.detector.Snapshot()})
}
