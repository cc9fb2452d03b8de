package tasks

import (
	"encoding/json"
	"time"

	"tutorroute/models"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

const TypeRecalculateSchedule = "schedule:recalculate"

// NewRecalculateTask queues a background recalculation for one room. The
// job ID doubles as the asynq task ID so a job is only enqueued once.
func NewRecalculateTask(payload models.RecalculatePayload) (*asynq.Task, []asynq.Option, error) {
	if payload.JobID == "" {
		payload.JobID = uuid.NewString()
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, nil, err
	}
	task := asynq.NewTask(TypeRecalculateSchedule, b)
	opts := []asynq.Option{
		asynq.TaskID(payload.JobID),
		asynq.MaxRetry(3),
		asynq.Timeout(2 * time.Minute),
	}

	return task, opts, nil
}
