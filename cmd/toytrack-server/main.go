package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"toytrack/internal/config"
	"toytrack/internal/database"
	"toytrack/internal/logger"
	mqttclient "toytrack/internal/mqtt"
	redisclient "toytrack/internal/redis"
	"toytrack/internal/repository"
	"toytrack/internal/server"
	"toytrack/internal/service"

	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()

	zapLogger, err := logger.NewLogger(cfg.Log.Level, cfg.Log.Format, "toytrack-server")
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zapLogger.Sync()

	zapLogger.Info("Starting toytrack-server",
		zap.String("addr", cfg.Server.Addr),
		zap.String("orders_topic", cfg.Server.OrdersTopic),
	)

	// 初始化数据库
	db, err := database.NewPostgresDB(&cfg.Database)
	if err != nil {
		zapLogger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer database.Close(db)

	// 初始化Redis
	rdb := redisclient.NewRedisClient(&cfg.Redis)
	if err := redisclient.Ping(context.Background(), rdb); err != nil {
		zapLogger.Fatal("Failed to connect to redis", zap.Error(err))
	}
	defer redisclient.Close(rdb)

	// 初始化MQTT（订单流出站）
	mqttCli, err := mqttclient.NewClient(&cfg.MQTT, zapLogger)
	if err != nil {
		zapLogger.Fatal("Failed to connect to MQTT broker", zap.Error(err))
	}
	defer mqttCli.Disconnect()

	orderRepo := repository.NewOrderRepository(db, zapLogger)
	processor := service.NewOrderProcessor(
		orderRepo,
		rdb,
		mqttCli,
		cfg.Server.OrdersTopic,
		cfg.MQTT.QoS,
		cfg.Server.ScanDebounceTTL,
		zapLogger,
	)

	authStore := server.NewAuthStore()
	// 开发引导账号（生产部署通过 /api/signup 建号）
	if account := os.Getenv("SEED_ACCOUNT"); account != "" {
		password := os.Getenv("SEED_PASSWORD")
		if password == "" {
			password = "ChangeMe123!"
		}
		authStore.Register(account, password)
		zapLogger.Info("Seeded bootstrap account", zap.String("account", account))
	}

	tokenStore := server.NewTokenStore(rdb, cfg.Server.TokenTTL, zapLogger)
	handler := server.NewHandler(processor, authStore, tokenStore, zapLogger)
	router := server.NewRouter(zapLogger)
	router.RegisterRoutes(handler)

	httpServer := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: router,
	}

	go func() {
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()
	zapLogger.Info("toytrack-server started")

	// 等待中断信号
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigChan
	zapLogger.Info("Received signal, shutting down", zap.String("signal", sig.String()))

	// 优雅关闭
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("Error during shutdown", zap.Error(err))
	}

	zapLogger.Info("Service stopped")
}
