package store

import (
	"sync"

	"toytrack/internal/models"

	"go.uber.org/zap"
)

// OrderStore 客户端订单集合
// 按 id 唯一；"最近活动在前" 的顺序只由插入位置维护，更新不重排。
// 所有变更路径（全量刷新 / 流事件 / 本地创建）都经过本结构，
// 互斥锁使其成为唯一的串行化点
type OrderStore struct {
	mu     sync.RWMutex
	orders []models.Order
	logger *zap.Logger
}

// NewOrderStore 创建订单集合
func NewOrderStore(logger *zap.Logger) *OrderStore {
	return &OrderStore{logger: logger}
}

// ReplaceAll 全量替换（REST 拉取语义：整体刷新，不做合并）
func (s *OrderStore) ReplaceAll(orders []models.Order) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders = make([]models.Order, len(orders))
	copy(s.orders, orders)
	s.logger.Debug("Order store replaced", zap.Int("count", len(orders)))
}

// ApplyStreamEvent 应用一条流事件
// 已存在同 id 的记录：原位替换（位置不变），返回其先前状态与 existed=true；
// 不存在：插到最前（最新在前），existed=false。
// 首次拉取前到达的未知 id 事件同样无条件插入（见 DESIGN.md 的取舍说明）
func (s *OrderStore) ApplyStreamEvent(order models.Order) (previousStatus string, existed bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.orders {
		if s.orders[i].ID == order.ID {
			previousStatus = s.orders[i].Status
			s.orders[i] = order
			return previousStatus, true
		}
	}
	s.orders = append([]models.Order{order}, s.orders...)
	return "", false
}

// Prepend 本地创建成功后把新订单插到最前
func (s *OrderStore) Prepend(order models.Order) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.orders {
		if s.orders[i].ID == order.ID {
			// 流回包可能先于本地插入到达；保持 id 唯一
			s.orders[i] = order
			return
		}
	}
	s.orders = append([]models.Order{order}, s.orders...)
}

// Get 按 id 查找
func (s *OrderStore) Get(id string) (models.Order, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := range s.orders {
		if s.orders[i].ID == id {
			return s.orders[i], true
		}
	}
	return models.Order{}, false
}

// Snapshot 返回当前集合的副本
func (s *OrderStore) Snapshot() []models.Order {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Order, len(s.orders))
	copy(out, s.orders)
	return out
}

// Len 当前记录数
func (s *OrderStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.orders)
}

// Clear 清空（登出路径：与流断开一起构成原子清理）
func (s *OrderStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders = nil
}
