package scanner

import (
	"context"
	"time"

	"toytrack/internal/feedback"
	"toytrack/internal/identity"
	"toytrack/internal/models"

	"go.uber.org/zap"
)

// State 扫描循环状态
type State int

const (
	StateIdle State = iota
	StateScanning
	StateDispatching
	StateFaultRecovery
)

// String 状态名称（用于日志）
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateScanning:
		return "scanning"
	case StateDispatching:
		return "dispatching"
	case StateFaultRecovery:
		return "fault_recovery"
	default:
		return "unknown"
	}
}

// CardReader 读卡器硬件协作者（固定契约）
type CardReader interface {
	// Present 检测是否有新卡在场
	Present() bool
	// ReadUID 读取卡序列号原始字节
	ReadUID() ([]byte, error)
	// Halt 结束本次硬件会话（halt + 停止加密会话）
	Halt()
	// Reinit 防御性重置（处理读卡器静默卡死）
	Reinit() error
}

// Connectivity 连通性协作者
type Connectivity interface {
	IsConnected() bool
	Reconnect() error
}

// ActionRequester 动作请求协作者（由 action.Requester 实现）
type ActionRequester interface {
	ProcessNext(ctx context.Context, personName string) (models.ActionResponse, error)
}

// Options 扫描循环时序参数
type Options struct {
	PollInterval time.Duration // 轮询间隔
	SettleDelay  time.Duration // 派发完成后的消抖等待
	IdleWindow   time.Duration // 无成功扫描的读卡器重置窗口
}

// Controller 扫描循环控制器
// 单线程协作式轮询状态机：每个 tick 至多处理一次扫描到反馈的完整周期。
// tick 内的阻塞网络调用会阻塞整个循环（目标硬件无并发工作，可接受），
// 因此动作请求必须带有限超时。Tick 以显式 now 驱动，便于无真实延时测试
type Controller struct {
	opts       Options
	reader     CardReader
	conn       Connectivity
	resolver   *identity.Resolver
	requester  ActionRequester
	dispatcher *feedback.Dispatcher
	display    feedback.Display
	logger     *zap.Logger

	state       State
	lastScan    time.Time // 上次成功扫描（或重置）时刻，驱动空闲窗口
	settleUntil time.Time // 消抖截止时刻，之前的轮询不被响应
	started     bool
}

// NewController 创建扫描循环控制器
func NewController(
	opts Options,
	reader CardReader,
	conn Connectivity,
	resolver *identity.Resolver,
	requester ActionRequester,
	dispatcher *feedback.Dispatcher,
	display feedback.Display,
	logger *zap.Logger,
) *Controller {
	return &Controller{
		opts:       opts,
		reader:     reader,
		conn:       conn,
		resolver:   resolver,
		requester:  requester,
		dispatcher: dispatcher,
		display:    display,
		logger:     logger,
		state:      StateIdle,
	}
}

// State 返回当前状态
func (c *Controller) State() State {
	return c.state
}

// Tick 执行一个轮询周期，返回周期结束时的状态
// 无终止状态：循环运行到外部停止为止，任何错误类都不会让它退出
func (c *Controller) Tick(ctx context.Context, now time.Time) State {
	if !c.started {
		c.lastScan = now
		c.started = true
	}

	// 消抖：上一次派发后的固定安定期内不响应轮询
	if now.Before(c.settleUntil) {
		c.state = StateIdle
		return c.state
	}

	// 每个 tick 顶部先查连通性；断网时发错误反馈并尝试重连，
	// 重连期间出现的卡不缓冲，恢复轮询后才可见
	if !c.conn.IsConnected() {
		c.enterFaultRecovery(now)
		return c.state
	}
	if c.state == StateFaultRecovery {
		c.logger.Info("Connectivity restored, resuming polling")
		c.showReady()
		c.state = StateIdle
	}

	// 空闲窗口内无成功扫描则防御性重置读卡器（静默卡死恢复），无用户可见效果
	if c.opts.IdleWindow > 0 && now.Sub(c.lastScan) >= c.opts.IdleWindow {
		if err := c.reader.Reinit(); err != nil {
			c.logger.Warn("Reader reinit failed", zap.Error(err))
		} else {
			c.logger.Debug("Reader reinitialized after idle window")
		}
		c.lastScan = now
		c.state = StateIdle
		return c.state
	}

	if !c.reader.Present() {
		c.state = StateIdle
		return c.state
	}

	c.state = StateScanning
	raw, err := c.reader.ReadUID()
	if err != nil {
		// 瞬态读卡故障：本地容忍，不向用户暴露，下个 tick 重新开始
		c.logger.Warn("Card read failed", zap.Error(err))
		c.reader.Halt()
		c.state = StateIdle
		return c.state
	}

	c.state = StateDispatching
	c.dispatch(ctx, raw)

	// 显式关闭硬件会话后进入消抖期
	c.reader.Halt()
	c.lastScan = now
	c.settleUntil = now.Add(c.opts.SettleDelay)
	c.state = StateIdle
	return c.state
}

// Run 以真实时钟驱动循环，直到 ctx 取消
func (c *Controller) Run(ctx context.Context) {
	c.showReady()
	ticker := time.NewTicker(c.opts.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("Scan loop stopped")
			return
		case <-ticker.C:
			c.Tick(ctx, time.Now())
		}
	}
}

// dispatch 解析身份并派发反馈
func (c *Controller) dispatch(ctx context.Context, raw []byte) {
	uid, person, ok := c.resolver.ResolveRaw(raw)
	if !ok {
		// 未登记卡：正常分支，不发网络请求
		c.logger.Info("Badge not registered", zap.String("uid", uid))
		c.dispatcher.Dispatch(feedback.OutcomeUnknownBadge, "")
		return
	}

	c.logger.Info("Badge resolved",
		zap.String("uid", uid),
		zap.String("person", person),
	)

	resp, err := c.requester.ProcessNext(ctx, person)
	outcome := feedback.ClassifyResponse(resp, err)
	c.dispatcher.Dispatch(outcome, resp.Category)
}

// enterFaultRecovery 连通性故障处理
// 断网期间每个 tick 都重发错误反馈并尝试重连（日志只在进入时记一次）
func (c *Controller) enterFaultRecovery(now time.Time) {
	if c.state != StateFaultRecovery {
		c.logger.Warn("Connectivity lost, entering fault recovery")
	}
	c.state = StateFaultRecovery
	c.dispatcher.Dispatch(feedback.OutcomeRequestFailed, "")
	if err := c.conn.Reconnect(); err != nil {
		c.logger.Warn("Reconnect attempt failed", zap.Error(err))
	}
}

func (c *Controller) showReady() {
	if c.display == nil {
		return
	}
	c.display.Clear()
	c.display.WriteLine(0, "System ready")
	c.display.WriteLine(1, "Scan badge")
}
