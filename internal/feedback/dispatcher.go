package feedback

import (
	"time"

	"toytrack/internal/models"

	"go.uber.org/zap"
)

// Outcome 一次扫描处理的分类结果
type Outcome int

const (
	OutcomeSuccess       Outcome = iota // 服务端确认出单
	OutcomeNoPending                    // 无待处理订单
	OutcomeUnknownAction                // 服务端返回了未识别的动作
	OutcomeRequestFailed                // 网络失败 / 非 2xx / 响应解析失败
	OutcomeUnknownBadge                 // 徽章未登记
)

// ClassifyResponse 将动作请求的结果归类
// 传输错误与解析失败统一按请求失败处理（区别只体现在日志里）
func ClassifyResponse(resp models.ActionResponse, err error) Outcome {
	if err != nil {
		return OutcomeRequestFailed
	}
	switch resp.Action {
	case models.ActionProcessingSuccess:
		return OutcomeSuccess
	case models.ActionNoPendingOrders:
		return OutcomeNoPending
	default:
		return OutcomeUnknownAction
	}
}

// Dispatcher 反馈派发器
// 纯映射：分类结果 -> 三种物理反馈之一（见 SetAll/Pulse/PlayPattern）
type Dispatcher struct {
	outputs       *OutputController
	display       Display
	blinkCount    int
	blinkInterval time.Duration
	logger        *zap.Logger
}

// NewDispatcher 创建反馈派发器
// blinkCount/blinkInterval 为配置常量（成功反馈的脉冲参数）
func NewDispatcher(outputs *OutputController, display Display, blinkCount int, blinkInterval time.Duration, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		outputs:       outputs,
		display:       display,
		blinkCount:    blinkCount,
		blinkInterval: blinkInterval,
		logger:        logger,
	}
}

// Dispatch 执行反馈动作
// category 仅在 OutcomeSuccess 时有意义；成功但分类未识别时走错误模式
// （订单在服务端已出，工人必须得到可见反馈）
func (d *Dispatcher) Dispatch(outcome Outcome, category string) {
	switch outcome {
	case OutcomeSuccess:
		output := OutputForCategory(category)
		if output == OutputNone {
			d.logger.Warn("Success with unrecognized category, playing error pattern",
				zap.String("category", category),
			)
			d.showLines("Order ready", "unknown category")
			d.outputs.PlayPattern(PatternError)
			return
		}
		d.logger.Info("Dispatching success feedback",
			zap.String("category", category),
			zap.String("output", output.String()),
		)
		d.showLines("Order ready", category)
		d.outputs.Pulse(output, d.blinkCount, d.blinkInterval)
	case OutcomeNoPending:
		d.showLines("No pending", "orders")
		d.outputs.PlayPattern(PatternReady)
	case OutcomeUnknownBadge:
		// 与其他错误共用同一物理模式，但显示内容不同
		d.showLines("Unknown badge", "see supervisor")
		d.outputs.PlayPattern(PatternError)
	default:
		d.showLines("Request failed", "try again")
		d.outputs.PlayPattern(PatternError)
	}
}

func (d *Dispatcher) showLines(line1, line2 string) {
	if d.display == nil {
		return
	}
	d.display.Clear()
	d.display.WriteLine(0, line1)
	d.display.WriteLine(1, line2)
}
