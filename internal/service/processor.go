package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"toytrack/internal/models"
	"toytrack/internal/repository"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// StreamPublisher 订单流出站发布（由 mqtt.Client 实现）
type StreamPublisher interface {
	Publish(topic string, qos byte, retained bool, payload []byte) error
}

// OrderProcessor 订单处理服务
// 设备端扫描与客户端 REST 的共同后端：取下一个待处理订单、
// 落库状态变更、把完整订单记录广播到在线流
type OrderProcessor struct {
	repo        *repository.OrderRepository
	redisClient *redis.Client
	publisher   StreamPublisher
	topic       string
	qos         byte
	debounceTTL time.Duration
	logger      *zap.Logger
}

// NewOrderProcessor 创建订单处理服务
func NewOrderProcessor(
	repo *repository.OrderRepository,
	redisClient *redis.Client,
	publisher StreamPublisher,
	topic string,
	qos byte,
	debounceTTL time.Duration,
	logger *zap.Logger,
) *OrderProcessor {
	return &OrderProcessor{
		repo:        repo,
		redisClient: redisClient,
		publisher:   publisher,
		topic:       topic,
		qos:         qos,
		debounceTTL: debounceTTL,
		logger:      logger,
	}
}

// ProcessNext 处理一次扫描：取该人员最早的待处理订单并标记送达
// 抑制窗口内的重复刷卡返回 no_pending_orders，不消耗订单
func (p *OrderProcessor) ProcessNext(ctx context.Context, personName string) (models.ActionResponse, error) {
	if personName == "" {
		return models.ActionResponse{}, fmt.Errorf("person_name is required")
	}

	fresh, err := p.acquireScanSlot(ctx, personName)
	if err != nil {
		// Redis 不可用时放行而不是拒绝扫描
		p.logger.Warn("Scan debounce check failed, proceeding", zap.Error(err))
	} else if !fresh {
		p.logger.Info("Duplicate scan suppressed", zap.String("person", personName))
		return models.ActionResponse{Action: models.ActionNoPendingOrders}, nil
	}

	order, err := p.repo.NextPending(personName)
	if err != nil {
		return models.ActionResponse{}, fmt.Errorf("failed to look up pending order: %w", err)
	}
	if order == nil {
		p.logger.Info("No pending orders", zap.String("person", personName))
		return models.ActionResponse{Action: models.ActionNoPendingOrders}, nil
	}

	if err := p.repo.MarkDelivered(order.ID); err != nil {
		return models.ActionResponse{}, fmt.Errorf("failed to update order status: %w", err)
	}
	order.Status = models.StatusDelivered

	// 广播失败不影响扫描响应；客户端等下次全量刷新
	p.publishOrder(*order)

	p.logger.Info("Order processed",
		zap.String("order_id", order.ID),
		zap.String("person", personName),
		zap.String("category", order.Category),
	)
	return models.ActionResponse{
		Action:   models.ActionProcessingSuccess,
		Category: order.Category,
	}, nil
}

// ListOrders 全部订单（REST 全量刷新）
func (p *OrderProcessor) ListOrders(ctx context.Context) ([]models.Order, error) {
	return p.repo.ListOrders()
}

// CreateOrder 创建订单（在线流广播由发起方客户端完成）
func (p *OrderProcessor) CreateOrder(ctx context.Context, order models.Order) (models.Order, error) {
	if order.ToyName == "" || order.AssignedPerson == "" {
		return models.Order{}, fmt.Errorf("toy_name and assigned_person are required")
	}

	order.ID = uuid.NewString()
	order.Status = models.StatusPending
	order.CreatedAt = time.Now().UTC()

	if err := p.repo.InsertOrder(&order); err != nil {
		return models.Order{}, fmt.Errorf("failed to create order: %w", err)
	}

	// 创建事件由发起方客户端广播；服务端只广播自己变更的状态（process-next）
	p.logger.Info("Order created",
		zap.String("order_id", order.ID),
		zap.String("person", order.AssignedPerson),
	)
	return order, nil
}

// acquireScanSlot 重复刷卡抑制
// SETNX 带 TTL：窗口内第二次刷同一人返回 false
func (p *OrderProcessor) acquireScanSlot(ctx context.Context, personName string) (bool, error) {
	if p.redisClient == nil || p.debounceTTL <= 0 {
		return true, nil
	}
	key := "toytrack:scan:" + personName
	ok, err := p.redisClient.SetNX(ctx, key, time.Now().Unix(), p.debounceTTL).Result()
	if err != nil {
		return true, fmt.Errorf("failed to set scan debounce key: %w", err)
	}
	return ok, nil
}

func (p *OrderProcessor) publishOrder(order models.Order) {
	if p.publisher == nil {
		return
	}
	payload, err := json.Marshal(order)
	if err != nil {
		p.logger.Error("Failed to marshal order for stream", zap.Error(err))
		return
	}
	if err := p.publisher.Publish(p.topic, p.qos, false, payload); err != nil {
		p.logger.Warn("Failed to publish order to stream",
			zap.String("order_id", order.ID),
			zap.Error(err),
		)
	}
}
