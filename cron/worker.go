package cron

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"tutorroute/config"
	roomRepo "tutorroute/database/repository/room"
	"tutorroute/models"
	"tutorroute/services/room"
	"tutorroute/services/schedule"
	"tutorroute/services/tasks"

	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// RedisOpt is the asynq connection for the schedule queue.
func RedisOpt() asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisQueueDB,
	}
}

// InitScheduleWorker runs the recalculation worker in background. The
// returned server is used to shut it down.
func InitScheduleWorker(ctx context.Context, svc room.ScheduleService, logger *zap.Logger) *asynq.Server {
	srv := asynq.NewServer(
		RedisOpt(),
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"default": 1,
			},
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(tasks.TypeRecalculateSchedule, handleRecalculateTask(svc, logger))

	go monitorRedisConnection(ctx, logger)

	go func() {
		logger.Info("[ScheduleWorker] Starting async worker...")
		const maxAttempts = 5

		for attempts := 1; attempts <= maxAttempts; attempts++ {
			err := srv.Run(mux)
			if err == nil {
				return
			}
			logger.Error("[ScheduleWorker] Failed to start worker",
				zap.Int("attempt", attempts), zap.Int("maxAttempts", maxAttempts), zap.Error(err))
			if attempts == maxAttempts {
				logger.Fatal("[ScheduleWorker] Max retry attempts reached. Exiting.")
			}
			time.Sleep(time.Duration(attempts*2) * time.Second)
		}
	}()
	return srv
}

func handleRecalculateTask(svc room.ScheduleService, logger *zap.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		var p models.RecalculatePayload
		if err := json.Unmarshal(task.Payload(), &p); err != nil {
			logger.Error("[ScheduleHandler] Invalid payload", zap.Error(err))
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		}

		log := logger.With(zap.String("jobId", p.JobID), zap.String("roomId", p.RoomID))
		res, err := svc.Recalculate(ctx, p.RoomID, p.Mode)
		if err != nil {
			// Retrying will not change the outcome of a bad request.
			if schedule.IsPrecondition(err) || errors.Is(err, roomRepo.ErrRoomNotFound) || errors.Is(err, room.ErrNoOwner) {
				log.Warn("[ScheduleHandler] Recalculation rejected", zap.Error(err))
				return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
			}
			log.Error("[ScheduleHandler] Recalculation failed", zap.Error(err))
			return err
		}

		log.Info("[ScheduleHandler] Recalculation finished",
			zap.String("mode", string(res.Mode)),
			zap.Int("activitySlots", len(res.ActivitySlots)),
			zap.Int("travelSlots", len(res.TravelSlots)),
			zap.Int("dropped", len(res.Dropped())))
		return nil
	}
}

// monitorRedisConnection pings the queue database periodically to detect
// failures at runtime.
func monitorRedisConnection(ctx context.Context, logger *zap.Logger) {
	client := redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisQueueDB,
	})
	defer client.Close()

	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := client.Ping(ctx).Err(); err != nil {
				logger.Warn("[ScheduleWorker] Redis connection lost", zap.Error(err))
			}
		}
	}
}
