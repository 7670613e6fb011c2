package store

import (
	"sync"

	"toytrack/internal/models"

	"go.uber.org/zap"
)

// OrderObserver 订单变更观察者（UI 回调挂在这里）
type OrderObserver interface {
	// OnStatusChange 任意状态变化时触发一次
	OnStatusChange(order models.Order, previousStatus string)
	// OnDelivered 状态首次变为 DELIVERED 时额外触发一次
	OnDelivered(order models.Order)
}

// Notifier 状态转换通知器
// 订阅式注册（支持多个订阅者与干净的注销），回调即发即弃：
// 订阅者不在场时不排队、不重试
type Notifier struct {
	mu        sync.RWMutex
	observers map[int]OrderObserver
	nextID    int
	logger    *zap.Logger
}

// NewNotifier 创建通知器
func NewNotifier(logger *zap.Logger) *Notifier {
	return &Notifier{
		observers: make(map[int]OrderObserver),
		logger:    logger,
	}
}

// Subscribe 注册观察者，返回用于注销的句柄
func (n *Notifier) Subscribe(obs OrderObserver) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.nextID++
	n.observers[n.nextID] = obs
	return n.nextID
}

// Unsubscribe 注销观察者
func (n *Notifier) Unsubscribe(id int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	delete(n.observers, id)
}

// Notify 根据一次 ApplyStreamEvent 的结果派发通知
// 规则：首次插入（existed=false）不通知；状态未变不通知；
// 状态变化触发一次通用通知；此外新状态为 DELIVERED 且先前不是时，
// 再触发一次独立的送达通知。每次合格转换恰好通知一次
func (n *Notifier) Notify(previousStatus string, existed bool, order models.Order) {
	if !existed {
		return
	}
	if previousStatus == order.Status {
		return
	}

	n.mu.RLock()
	observers := make([]OrderObserver, 0, len(n.observers))
	for _, obs := range n.observers {
		observers = append(observers, obs)
	}
	n.mu.RUnlock()

	n.logger.Info("Order status changed",
		zap.String("order_id", order.ID),
		zap.String("from", previousStatus),
		zap.String("to", order.Status),
	)

	delivered := order.Status == models.StatusDelivered && previousStatus != models.StatusDelivered
	for _, obs := range observers {
		obs.OnStatusChange(order, previousStatus)
		if delivered {
			obs.OnDelivered(order)
		}
	}
}
