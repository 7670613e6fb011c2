package feedback

import (
	"sync"
	"time"

	"toytrack/internal/models"

	"go.uber.org/zap"
)

// Output 设备端物理输出通道
type Output int

const (
	// OutputNone 哨兵值：未识别分类解析到这里，对其的任何操作都是安全空操作
	OutputNone Output = iota
	OutputToyGuns
	OutputDolls
	OutputPuzzles
	OutputRCCars
)

// String 输出通道名称（用于日志）
func (o Output) String() string {
	switch o {
	case OutputToyGuns:
		return "toy_guns"
	case OutputDolls:
		return "dolls"
	case OutputPuzzles:
		return "puzzles"
	case OutputRCCars:
		return "rc_cars"
	default:
		return "none"
	}
}

// OutputForCategory 分类到输出通道的固定映射
func OutputForCategory(category string) Output {
	switch category {
	case models.CategoryToyGuns:
		return OutputToyGuns
	case models.CategoryDolls:
		return OutputDolls
	case models.CategoryPuzzles:
		return OutputPuzzles
	case models.CategoryRCCars:
		return OutputRCCars
	default:
		return OutputNone
	}
}

// AllOutputs 全部实际输出通道（不含哨兵）
func AllOutputs() []Output {
	return []Output{OutputToyGuns, OutputDolls, OutputPuzzles, OutputRCCars}
}

// OutputPort 硬件输出原语（固定契约的外部协作者）
type OutputPort interface {
	Set(output Output, on bool)
}

// Display 显示原语（固定契约的外部协作者）
type Display interface {
	Clear()
	WriteLine(row int, text string)
}

// 反馈模式名称
const (
	PatternReady = "ready"
	PatternError = "error"
)

// OutputController 输出状态控制器
// 持有当前各通道电平，是唯一允许写硬件输出的地方
type OutputController struct {
	mu     sync.Mutex
	port   OutputPort
	state  map[Output]bool
	logger *zap.Logger
}

// NewOutputController 创建输出控制器
func NewOutputController(port OutputPort, logger *zap.Logger) *OutputController {
	return &OutputController{
		port:   port,
		state:  make(map[Output]bool),
		logger: logger,
	}
}

// SetAll 设置所有通道电平
func (c *OutputController) SetAll(on bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, out := range AllOutputs() {
		c.set(out, on)
	}
}

// Pulse 在指定通道产生 count 次定时脉冲
// OutputNone 上的脉冲是空操作
func (c *OutputController) Pulse(output Output, count int, interval time.Duration) {
	if output == OutputNone {
		c.logger.Warn("Pulse requested on unmapped output, skipping")
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := 0; i < count; i++ {
		c.set(output, true)
		time.Sleep(interval)
		c.set(output, false)
		if i < count-1 {
			time.Sleep(interval)
		}
	}
}

// PlayPattern 播放固定反馈模式
// ready: 所有通道依次短亮一轮（系统就绪）
// error: 所有通道同时快闪两次
func (c *OutputController) PlayPattern(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch name {
	case PatternReady:
		for _, out := range AllOutputs() {
			c.set(out, true)
			time.Sleep(80 * time.Millisecond)
			c.set(out, false)
		}
	case PatternError:
		for i := 0; i < 2; i++ {
			for _, out := range AllOutputs() {
				c.set(out, true)
			}
			time.Sleep(120 * time.Millisecond)
			for _, out := range AllOutputs() {
				c.set(out, false)
			}
			time.Sleep(120 * time.Millisecond)
		}
	default:
		c.logger.Warn("Unknown feedback pattern", zap.String("pattern", name))
	}
}

// Current 返回通道当前电平（测试与诊断用）
func (c *OutputController) Current(output Output) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state[output]
}

// set 写硬件并记录状态（调用方必须持锁）
func (c *OutputController) set(output Output, on bool) {
	c.state[output] = on
	c.port.Set(output, on)
}
