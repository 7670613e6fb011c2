package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"toytrack/internal/client"
	"toytrack/internal/config"
	"toytrack/internal/consumer"
	"toytrack/internal/logger"
	"toytrack/internal/models"
	mqttclient "toytrack/internal/mqtt"
	"toytrack/internal/store"

	"go.uber.org/zap"
)

// logObserver 把状态转换通知落到日志（无界面部署时的 "UI 回调"）
type logObserver struct {
	logger *zap.Logger
}

func (o *logObserver) OnStatusChange(order models.Order, previousStatus string) {
	o.logger.Info("Order transition",
		zap.String("order_id", order.ID),
		zap.String("toy", order.ToyName),
		zap.String("from", previousStatus),
		zap.String("to", order.Status),
	)
}

func (o *logObserver) OnDelivered(order models.Order) {
	o.logger.Info("Order delivered",
		zap.String("order_id", order.ID),
		zap.String("toy", order.ToyName),
		zap.String("person", order.AssignedPerson),
	)
}

func main() {
	cfg := config.Load()

	zapLogger, err := logger.NewLogger(cfg.Log.Level, cfg.Log.Format, "toytrack-sync")
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zapLogger.Sync()

	zapLogger.Info("Starting toytrack-sync",
		zap.String("server", cfg.Sync.ServerBaseURL),
		zap.String("orders_topic", cfg.Server.OrdersTopic),
	)

	// 初始化MQTT（订单流入站 + 本地创建的出站广播）
	mqttCli, err := mqttclient.NewClient(&cfg.MQTT, zapLogger)
	if err != nil {
		zapLogger.Fatal("Failed to connect to MQTT broker", zap.Error(err))
	}
	defer mqttCli.Disconnect()

	orderStore := store.NewOrderStore(zapLogger)
	notifier := store.NewNotifier(zapLogger)
	obsID := notifier.Subscribe(&logObserver{logger: zapLogger})
	defer notifier.Unsubscribe(obsID)

	publisher := &client.MQTTPublisher{
		Topic: cfg.Server.OrdersTopic,
		QoS:   cfg.MQTT.QoS,
		Pub:   mqttCli,
	}
	restClient := client.NewClient(cfg.Sync.ServerBaseURL, cfg.Sync.TokenFile, orderStore, publisher, zapLogger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 会话引导：先尝试持久化 Token，失败再用配置的凭证登录
	if !restClient.RestoreSession(ctx) {
		if cfg.Sync.Account == "" {
			zapLogger.Fatal("No persisted session and no SYNC_ACCOUNT configured")
		}
		if err := restClient.Login(ctx, cfg.Sync.Account, cfg.Sync.Password); err != nil {
			zapLogger.Fatal("Login failed", zap.Error(err))
		}
	}

	// 先全量拉取，再订阅流
	if _, err := restClient.FetchOrders(ctx); err != nil {
		zapLogger.Warn("Initial order fetch failed, continuing with empty store", zap.Error(err))
	}

	streamConsumer := consumer.NewStreamConsumer(
		cfg.Server.OrdersTopic,
		cfg.MQTT.QoS,
		mqttCli,
		orderStore,
		notifier,
		zapLogger,
	)
	if err := streamConsumer.Start(); err != nil {
		zapLogger.Fatal("Failed to start stream consumer", zap.Error(err))
	}

	zapLogger.Info("toytrack-sync started", zap.Int("orders", orderStore.Len()))

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigChan
	zapLogger.Info("Received signal, shutting down", zap.String("signal", sig.String()))

	// 登出：停流、吊销 Token、清空本地集合
	if err := streamConsumer.Stop(); err != nil {
		zapLogger.Warn("Failed to stop stream consumer", zap.Error(err))
	}
	restClient.Logout(context.Background())
	cancel()

	metrics := streamConsumer.Metrics()
	zapLogger.Info("Service stopped",
		zap.Int64("messages_processed", metrics.MessagesProcessed),
		zap.Int64("messages_failed", metrics.MessagesFailed),
	)
}
