package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"WellnessMonitorAPI/internal/auth"
	"WellnessMonitorAPI/internal/config"
	"WellnessMonitorAPI/internal/database"
	"WellnessMonitorAPI/internal/handler"
	"WellnessMonitorAPI/internal/logger"
	"WellnessMonitorAPI/internal/mqtt"
	"WellnessMonitorAPI/internal/notifier"
	"WellnessMonitorAPI/internal/repository"
	"WellnessMonitorAPI/internal/server"
	"WellnessMonitorAPI/internal/service"
	"WellnessMonitorAPI/internal/websocket"
)

func main() {
	// 1. Load Config
	cfg, err := config.Load()
	if err != nil {
		// Fallback since the main logger isn't ready yet
		panic("Failed to load configuration: " + err.Error())
	}

	// 2. Initialize Logger
	log, err := logger.New(logger.Config{
		Level:       cfg.Logging.Level,
		Mode:        cfg.Logging.Mode,
		LogFilePath: cfg.Logging.FilePath,
		UseColors:   cfg.Logging.UseColors,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer log.Close()

	if err := cfg.Validate(); err != nil {
		log.Fatal("Configuration validation failed: %v", err)
	}

	cfg.Print()
	log.Info("Starting Wellness Monitor API Server")

	// 3. Database Connection
	db, err := database.New(&cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database: %v", err)
	}
	defer db.Close()

	log.Info("Database connected successfully")

	ctx := context.Background()
	if err := db.Health(ctx); err != nil {
		log.Fatal("Database health check failed: %v", err)
	}

	// 4. Initialize Repositories
	profileRepo := repository.NewProfileRepository(db.DB)
	ruleRepo := repository.NewRuleRepository(db.DB)
	alertRepo := repository.NewAlertRepository(db.DB)
	metricsRepo := repository.NewMetricsRepository(db.DB)

	// 5. Connection Registry
	// The hub is owned here and passed explicitly to everything that emits
	// events; nothing reaches it through ambient access.
	hub := websocket.NewHub(log)

	// 6. MQTT Push Channel (optional)
	var mqttClient *mqtt.Client
	var push notifier.PushPublisher
	var pushCheck handler.PushChecker
	if cfg.MQTT.Enabled {
		mqttClient, err = mqtt.NewClient(mqtt.ClientConfig{
			MQTT:   &cfg.MQTT,
			Logger: log,
		})
		if err != nil {
			log.Fatal("Failed to create MQTT client: %v", err)
		}
		if err := mqttClient.Connect(); err != nil {
			// Push is a best-effort channel; start without it.
			log.Warn("MQTT broker unavailable, push notifications disabled: %v", err)
		}
		push = mqttClient
		pushCheck = mqttClient
		defer mqttClient.Disconnect()
	}

	// 7. Initialize Services
	alertNotifier := notifier.New(hub, push, nil, log)
	wellnessService := service.NewWellnessService(metricsRepo, profileRepo, hub, log)
	ruleService := service.NewRuleService(ruleRepo, log)
	alertService := service.NewAlertService(alertRepo, hub, log)
	ruleEngine := service.NewRuleEngine(ruleRepo, alertRepo, metricsRepo, alertNotifier, log)
	monitor := service.NewMonitorService(ruleEngine, cfg.Monitor.EvaluationInterval, cfg.Monitor.EvaluateOnStart, log)

	authMgr := auth.NewManager(cfg.Security.JWTSecret, time.Duration(cfg.Security.JWTExpirationHours)*time.Hour)

	// 8. Initialize Handlers
	profileHandler := handler.NewProfileHandler(wellnessService, log)
	ruleHandler := handler.NewRuleHandler(ruleService, log)
	alertHandler := handler.NewAlertHandler(alertService, log)
	evaluationHandler := handler.NewEvaluationHandler(monitor, log)
	wsHandler := handler.NewWSHandler(hub, authMgr, log)
	healthHandler := handler.NewHealthHandler(db, pushCheck, hub, log)

	// 9. Start Monitor + HTTP Server
	if err := monitor.Start(); err != nil {
		log.Fatal("Failed to start monitor: %v", err)
	}

	srv := server.New(cfg, log)
	srv.RegisterHandlers(profileHandler, ruleHandler, alertHandler, evaluationHandler, wsHandler, healthHandler)

	go func() {
		if err := srv.Start(); err != nil {
			log.Fatal("Server failed: %v", err)
		}
	}()

	log.Info("API server ready on http://%s:%d", cfg.Server.Host, cfg.Server.Port)

	// 10. Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Warn("Shutdown signal received")

	monitor.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server shutdown error: %v", err)
	}

	hub.Shutdown()

	log.Info("Shutdown complete")
}
