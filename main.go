package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tutorroute/config"
	"tutorroute/cron"
	"tutorroute/database"
	roomRepo "tutorroute/database/repository/room"
	"tutorroute/handlers"
	"tutorroute/middleware"
	"tutorroute/routes"
	"tutorroute/services/room"
	"tutorroute/services/schedule"
	"tutorroute/services/travel"
	"tutorroute/utils"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()
	cfg := config.AppConfig

	database.InitDB()
	utils.InitCache()
	utils.InitQueueCache()

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	// Travel legs: Google Distance Matrix behind the Redis cache.
	google := travel.NewGoogleProvider(cfg.GoogleAPIKey, cfg.TravelRequestsPerSec, cfg.TravelTimeout(), logger)
	provider := travel.NewCachedProvider(google, utils.GetCacheClient(), cfg.TravelCacheTTL(), logger)

	metrics, err := schedule.NewPromMetrics(prometheus.DefaultRegisterer)
	if err != nil {
		logger.Sugar().Fatalf("main: failed to register metrics: %v", err)
	}
	engineCfg := schedule.DefaultConfig()
	engineCfg.Location = cfg.Location()
	engineCfg.HorizonWeekdays = cfg.HorizonWeekdays
	engineCfg.SlotUnitMinutes = cfg.SlotUnitMinutes
	engineCfg.MinSegmentMinutes = cfg.SlotUnitMinutes
	engineCfg.MaxLegMinutes = cfg.MaxWalkingLegMinutes
	if start, err := schedule.ParseClock(cfg.DefaultWindowStart); err == nil {
		engineCfg.DefaultWindow.Start = start
	}
	if end, err := schedule.ParseClock(cfg.DefaultWindowEnd); err == nil {
		engineCfg.DefaultWindow.End = end
	}
	engine := schedule.NewEngine(provider, engineCfg, logger, schedule.WithMetrics(metrics))

	// repositories.
	rooms := roomRepo.NewMongoRoomRepo()
	if err := rooms.EnsureIndexes(); err != nil {
		logger.Sugar().Warnf("main: failed to ensure room indexes: %v", err)
	}

	// services.
	scheduleService, err := room.NewDefaultScheduleService(rooms, engine, logger)
	if err != nil {
		logger.Sugar().Fatalf("main: %v", err)
	}

	queue := asynq.NewClient(cron.RedisOpt())
	defer queue.Close()
	worker := cron.InitScheduleWorker(ctx, scheduleService, logger)

	go utils.StartHealthMonitor(ctx, []*redis.Client{utils.GetCacheClient(), utils.GetQueueClient()}, database.MongoClient)

	// Create the Gin router.
	if config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	if err := middleware.TrustProxies(router, cfg.TrustedProxies); err != nil {
		logger.Sugar().Fatalf("main: invalid TRUSTED_PROXIES: %v", err)
	}
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(middleware.RequestLogger(logger))
	router.Use(middleware.RateLimitMiddleware(cfg.MaxRequestsPerMin))

	routes.RegisterRoutes(router, handlers.NewScheduleHandler(scheduleService, queue, logger))

	// Start the HTTP server.
	port := cfg.AppPort
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:         "0.0.0.0:" + port,
		Handler:      router,
		ReadTimeout:  utils.RequestTimeout,
		WriteTimeout: utils.RequestTimeout,
	}

	logger.Sugar().Infof("Starting server on %s...", srv.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Sugar().Fatalf("main: server failed to start: %v", err)
		}
	}()

	// Wait for an OS signal to gracefully shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Sugar().Info("main: server is shutting down...")
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Sugar().Errorf("main: server forced to shutdown: %v", err)
	}
	worker.Shutdown()
	if err := database.Disconnect(shutdownCtx); err != nil {
		logger.Sugar().Warnf("main: failed to disconnect from MongoDB: %v", err)
	}

	logger.Sugar().Info("main: server stopped gracefully")
}
