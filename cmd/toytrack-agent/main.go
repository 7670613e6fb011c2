package main

import (
	"bufio"
	"context"
	"encoding/hex"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"toytrack/internal/action"
	"toytrack/internal/config"
	"toytrack/internal/feedback"
	"toytrack/internal/identity"
	"toytrack/internal/logger"
	"toytrack/internal/scanner"

	"go.uber.org/zap"
)

// healthConnectivity 用服务端健康检查充当连通性探测
// 真实设备上这里是 WiFi 状态 + 重连；台架上可达性等价于已连接
type healthConnectivity struct {
	requester *action.Requester
	logger    *zap.Logger
}

func (c *healthConnectivity) IsConnected() bool {
	return c.requester.Healthy(context.Background())
}

func (c *healthConnectivity) Reconnect() error {
	// HTTP 无连接可重建；下一次健康检查决定是否恢复
	c.logger.Debug("Reconnect requested")
	return nil
}

func main() {
	cfg := config.Load()

	zapLogger, err := logger.NewLogger(cfg.Log.Level, cfg.Log.Format, "toytrack-agent")
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zapLogger.Sync()

	if len(cfg.Agent.Badges) == 0 {
		zapLogger.Warn("Badge map is empty, every scan will be unknown (set AGENT_BADGE_MAP)")
	}

	zapLogger.Info("Starting toytrack-agent",
		zap.String("server", cfg.Agent.ServerBaseURL),
		zap.Int("badges", len(cfg.Agent.Badges)),
	)

	resolver := identity.NewResolver(cfg.Agent.Badges, zapLogger)
	requester := action.NewRequester(cfg.Agent.ServerBaseURL, cfg.Agent.RequestTimeout, zapLogger)

	outputs := feedback.NewOutputController(scanner.NewLogOutputPort(zapLogger), zapLogger)
	display := scanner.NewLogDisplay(zapLogger)
	dispatcher := feedback.NewDispatcher(outputs, display, cfg.Agent.BlinkCount, cfg.Agent.BlinkInterval, zapLogger)

	reader := scanner.NewSimulatedReader(zapLogger)
	conn := &healthConnectivity{requester: requester, logger: zapLogger}

	controller := scanner.NewController(
		scanner.Options{
			PollInterval: cfg.Agent.PollInterval,
			SettleDelay:  cfg.Agent.SettleDelay,
			IdleWindow:   cfg.Agent.IdleWindow,
		},
		reader, conn, resolver, requester, dispatcher, display, zapLogger,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 台架输入：stdin 每行一个十六进制 UID（如 "A96C6A05" 或 "A9 6C 6A 05"）
	go func() {
		sc := bufio.NewScanner(os.Stdin)
		for sc.Scan() {
			line := strings.ReplaceAll(strings.TrimSpace(sc.Text()), " ", "")
			if line == "" {
				continue
			}
			raw, err := hex.DecodeString(line)
			if err != nil {
				zapLogger.Warn("Invalid UID input", zap.String("line", line))
				continue
			}
			reader.QueueScan(raw)
		}
	}()

	go controller.Run(ctx)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigChan
	zapLogger.Info("Received signal, shutting down", zap.String("signal", sig.String()))
	cancel()
	outputs.SetAll(false)
	zapLogger.Info("Agent stopped")
}
