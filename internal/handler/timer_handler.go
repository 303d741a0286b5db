package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "focusd/internal/errors"
	"focusd/internal/service"
	"focusd/internal/timer"
)

type TimerHandler struct {
	engine      *timer.Engine
	modeService *service.ModeService
}

type startTimerRequest struct {
	WorkSeconds  int     `json:"workSeconds"`
	BreakSeconds int     `json:"breakSeconds"`
	ModeID       *string `json:"modeId"`
}

type timerStateView struct {
	TotalSeconds     int  `json:"totalSeconds"`
	RemainingSeconds int  `json:"remainingSeconds"`
	IsRunning        bool `json:"isRunning"`
	IsPaused         bool `json:"isPaused"`
	IsWorking        bool `json:"isWorking"`
	IsFinished       bool `json:"isFinished"`
}

func NewTimerHandler(engine *timer.Engine, modeService *service.ModeService) *TimerHandler {
	return &TimerHandler{engine: engine, modeService: modeService}
}

func (h *TimerHandler) GetState(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"timer": toTimerStateView(h.engine.Snapshot())})
}

func (h *TimerHandler) Start(c *gin.Context) {
	var req startTimerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": gin.H{"code": "invalid_json", "message": "invalid request body"},
		})
		return
	}

	params, apiErr := h.startParams(c, req)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}

	if err := h.engine.Start(c.Request.Context(), params); err != nil {
		writeError(c, apperrors.BadRequest("invalid_duration", err.Error()))
		return
	}
	c.JSON(http.StatusOK, gin.H{"timer": toTimerStateView(h.engine.Snapshot())})
}

func (h *TimerHandler) PauseResume(c *gin.Context) {
	h.engine.PauseResume(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"timer": toTimerStateView(h.engine.Snapshot())})
}

func (h *TimerHandler) Stop(c *gin.Context) {
	h.engine.Stop(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"timer": toTimerStateView(h.engine.Snapshot())})
}

func (h *TimerHandler) Reset(c *gin.Context) {
	if err := h.engine.Reset(c.Request.Context()); err != nil {
		writeError(c, apperrors.BadRequest("invalid_duration", err.Error()))
		return
	}
	c.JSON(http.StatusOK, gin.H{"timer": toTimerStateView(h.engine.Snapshot())})
}

// startParams resolves a mode reference into durations, or validates the
// explicit ones.
func (h *TimerHandler) startParams(c *gin.Context, req startTimerRequest) (timer.StartParams, *apperrors.APIError) {
	if req.ModeID != nil {
		mode, apiErr := h.modeService.Get(c.Request.Context(), *req.ModeID)
		if apiErr != nil {
			return timer.StartParams{}, apiErr
		}
		return timer.StartParams{
			Work:     secondsToDuration(mode.WorkDurationSeconds),
			Break:    secondsToDuration(mode.BreakDurationSeconds),
			ModeID:   &mode.ID,
			ModeName: &mode.Name,
		}, nil
	}

	if req.WorkSeconds <= 0 || req.BreakSeconds <= 0 {
		return timer.StartParams{}, apperrors.BadRequest(
			"invalid_duration", "workSeconds and breakSeconds must be positive",
		)
	}
	return timer.StartParams{
		Work:  secondsToDuration(req.WorkSeconds),
		Break: secondsToDuration(req.BreakSeconds),
	}, nil
}

func secondsToDuration(seconds int) time.Duration {
	return time.Duration(seconds) * time.Second
}

func toTimerStateView(snap timer.Snapshot) timerStateView {
	return timerStateView{
		TotalSeconds:     int(snap.Total.Seconds()),
		RemainingSeconds: int(snap.Remaining.Seconds()),
		IsRunning:        snap.Running,
		IsPaused:         snap.Paused,
		IsWorking:        snap.Working,
		IsFinished:       snap.Finished,
	}
}
