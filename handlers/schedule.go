package handlers

import (
	"errors"
	"net/http"

	roomRepo "tutorroute/database/repository/room"
	"tutorroute/models"
	"tutorroute/services/room"
	"tutorroute/services/schedule"
	"tutorroute/services/tasks"
	"tutorroute/utils"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// Enqueuer is the part of asynq.Client the handler needs.
type Enqueuer interface {
	Enqueue(task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// ScheduleHandler exposes the schedule engine over HTTP.
type ScheduleHandler struct {
	Service room.ScheduleService
	Queue   Enqueuer
	Logger  *zap.Logger
}

func NewScheduleHandler(svc room.ScheduleService, queue Enqueuer, logger *zap.Logger) *ScheduleHandler {
	return &ScheduleHandler{Service: svc, Queue: queue, Logger: logger}
}

type modeInput struct {
	Mode models.TravelMode `json:"mode"`
}

// requestMode reads the travel mode from ?mode= or a JSON body. An empty
// mode means the room's stored one.
func requestMode(c *gin.Context) (models.TravelMode, error) {
	if q := c.Query("mode"); q != "" {
		return models.TravelMode(q), nil
	}
	if c.Request.ContentLength <= 0 {
		return "", nil
	}
	var input modeInput
	if err := c.ShouldBindJSON(&input); err != nil {
		return "", err
	}
	return input.Mode, nil
}

// Recalculate rebuilds the room's schedule synchronously.
func (h *ScheduleHandler) Recalculate(c *gin.Context) {
	logger := getLogger(c, h.Logger)
	mode, err := requestMode(c)
	if err != nil {
		utils.JSONError(c, logger, http.StatusBadRequest, "invalid_input", err.Error())
		return
	}

	res, err := h.Service.Recalculate(c.Request.Context(), c.Param("roomID"), mode)
	if err != nil {
		h.fail(c, logger, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// RecalculateAsync queues a recalculation and answers with its job ID.
func (h *ScheduleHandler) RecalculateAsync(c *gin.Context) {
	logger := getLogger(c, h.Logger)
	mode, err := requestMode(c)
	if err != nil {
		utils.JSONError(c, logger, http.StatusBadRequest, "invalid_input", err.Error())
		return
	}
	if mode != "" && !mode.Valid() {
		utils.JSONError(c, logger, http.StatusUnprocessableEntity, "precondition_failed", "unknown travel mode: "+string(mode))
		return
	}

	payload := models.RecalculatePayload{RoomID: c.Param("roomID"), Mode: mode}
	task, opts, err := tasks.NewRecalculateTask(payload)
	if err != nil {
		utils.JSONError(c, logger, http.StatusInternalServerError, "internal_error", "failed to build recalculation job")
		return
	}
	info, err := h.Queue.Enqueue(task, opts...)
	if err != nil {
		logger.Error("Failed to enqueue recalculation", zap.String("roomId", payload.RoomID), zap.Error(err))
		utils.JSONError(c, logger, http.StatusServiceUnavailable, "queue_unavailable", "recalculation could not be queued")
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"jobId": info.ID, "roomId": payload.RoomID})
}

// Validate reports whether the mode passes the travel time gate.
func (h *ScheduleHandler) Validate(c *gin.Context) {
	logger := getLogger(c, h.Logger)
	mode, err := requestMode(c)
	if err != nil {
		utils.JSONError(c, logger, http.StatusBadRequest, "invalid_input", err.Error())
		return
	}
	res, err := h.Service.Validate(c.Request.Context(), c.Param("roomID"), mode)
	if err != nil {
		h.fail(c, logger, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *ScheduleHandler) Simulate(c *gin.Context) {
	logger := getLogger(c, h.Logger)
	var req models.SimulationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, logger, http.StatusBadRequest, "invalid_input", err.Error())
		return
	}
	res, err := h.Service.Simulate(c.Request.Context(), c.Param("roomID"), req)
	if err != nil {
		h.fail(c, logger, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *ScheduleHandler) Relocate(c *gin.Context) {
	logger := getLogger(c, h.Logger)
	var req models.RelocateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, logger, http.StatusBadRequest, "invalid_input", err.Error())
		return
	}
	res, err := h.Service.Relocate(c.Request.Context(), c.Param("roomID"), req)
	if err != nil {
		h.fail(c, logger, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// fail maps service errors onto HTTP statuses.
func (h *ScheduleHandler) fail(c *gin.Context, logger *zap.Logger, err error) {
	var rejected *schedule.ModeRejectedError
	switch {
	case errors.Is(err, roomRepo.ErrRoomNotFound):
		utils.JSONError(c, logger, http.StatusNotFound, "room_not_found", err.Error())
	case errors.Is(err, roomRepo.ErrVersionConflict):
		utils.JSONError(c, logger, http.StatusConflict, "version_conflict", "room changed while recalculating; try again")
	case errors.As(err, &rejected):
		utils.JSONError(c, logger, http.StatusUnprocessableEntity, "mode_rejected", rejected.Message)
	case schedule.IsPrecondition(err), errors.Is(err, room.ErrNoOwner):
		utils.JSONError(c, logger, http.StatusUnprocessableEntity, "precondition_failed", err.Error())
	default:
		logger.Error("Schedule request failed", zap.Error(err))
		utils.JSONError(c, logger, http.StatusInternalServerError, "internal_error", "An unexpected error occurred. Please try again later.")
	}
}
