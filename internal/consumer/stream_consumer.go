package consumer

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"toytrack/internal/models"
	mqttclient "toytrack/internal/mqtt"
	"toytrack/internal/store"

	"go.uber.org/zap"
)

// Metrics 监控指标
type Metrics struct {
	mu sync.RWMutex

	MessagesProcessed int64 // 收到的消息总数
	MessagesSucceeded int64 // 成功应用的消息数
	MessagesFailed    int64 // 处理失败的消息数

	ErrorsParse   int64 // 解析错误
	ErrorsInvalid int64 // 缺少订单 id 等非法记录

	LastProcessTime time.Time
	StartTime       time.Time
}

// GetSnapshot 获取指标快照（线程安全）
func (m *Metrics) GetSnapshot() Metrics {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return Metrics{
		MessagesProcessed: m.MessagesProcessed,
		MessagesSucceeded: m.MessagesSucceeded,
		MessagesFailed:    m.MessagesFailed,
		ErrorsParse:       m.ErrorsParse,
		ErrorsInvalid:     m.ErrorsInvalid,
		LastProcessTime:   m.LastProcessTime,
		StartTime:         m.StartTime,
	}
}

func (m *Metrics) incrementProcessed() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.MessagesProcessed++
}

func (m *Metrics) incrementSucceeded() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.MessagesSucceeded++
	m.LastProcessTime = time.Now()
}

func (m *Metrics) incrementFailed(errorType string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.MessagesFailed++
	switch errorType {
	case "parse":
		m.ErrorsParse++
	case "invalid":
		m.ErrorsInvalid++
	}
}

// StreamConsumer 订单流消费者
// 订阅 MQTT 订单主题，把入站记录经 OrderStore 落地并驱动 Notifier。
// 投递顺序假定与服务端事件顺序一致，不做重排或合并；
// 断线重连交给传输层，重连后也不做回放对账
type StreamConsumer struct {
	topic      string
	qos        byte
	mqttClient *mqttclient.Client
	orderStore *store.OrderStore
	notifier   *store.Notifier
	logger     *zap.Logger
	metrics    *Metrics
}

// NewStreamConsumer 创建订单流消费者
func NewStreamConsumer(
	topic string,
	qos byte,
	mqttClient *mqttclient.Client,
	orderStore *store.OrderStore,
	notifier *store.Notifier,
	logger *zap.Logger,
) *StreamConsumer {
	return &StreamConsumer{
		topic:      topic,
		qos:        qos,
		mqttClient: mqttClient,
		orderStore: orderStore,
		notifier:   notifier,
		logger:     logger,
		metrics:    &Metrics{StartTime: time.Now()},
	}
}

// Start 订阅订单主题
func (c *StreamConsumer) Start() error {
	if err := c.mqttClient.Subscribe(c.topic, c.qos, c.HandleMessage); err != nil {
		return fmt.Errorf("failed to subscribe to order stream: %w", err)
	}
	c.logger.Info("Order stream consumer started", zap.String("topic", c.topic))
	return nil
}

// Stop 取消订阅（登出路径先于 store.Clear 执行）
func (c *StreamConsumer) Stop() error {
	if err := c.mqttClient.Unsubscribe(c.topic); err != nil {
		return fmt.Errorf("failed to unsubscribe from order stream: %w", err)
	}
	c.logger.Info("Order stream consumer stopped")
	return nil
}

// Metrics 返回指标快照
func (c *StreamConsumer) Metrics() Metrics {
	return c.metrics.GetSnapshot()
}

// HandleMessage 处理一条流消息
// 单条消息的失败只计数和记日志，不影响后续消息
func (c *StreamConsumer) HandleMessage(topic string, payload []byte) error {
	c.metrics.incrementProcessed()

	var order models.Order
	if err := json.Unmarshal(payload, &order); err != nil {
		c.metrics.incrementFailed("parse")
		return fmt.Errorf("failed to parse order event: %w", err)
	}

	if order.ID == "" {
		c.metrics.incrementFailed("invalid")
		return fmt.Errorf("order event missing id")
	}

	previousStatus, existed := c.orderStore.ApplyStreamEvent(order)
	c.notifier.Notify(previousStatus, existed, order)

	c.metrics.incrementSucceeded()
	c.logger.Debug("Order event applied",
		zap.String("order_id", order.ID),
		zap.String("status", order.Status),
		zap.Bool("existed", existed),
	)
	return nil
}
