package scanner

import (
	"sync"

	"toytrack/internal/feedback"

	"go.uber.org/zap"
)

// SimulatedReader 台架用模拟读卡器
// 真实 GPIO/SPI 读卡器在固定契约之外，本实现把排队的 UID 当作在场卡
type SimulatedReader struct {
	mu      sync.Mutex
	pending [][]byte
	current []byte
	logger  *zap.Logger
}

// NewSimulatedReader 创建模拟读卡器
func NewSimulatedReader(logger *zap.Logger) *SimulatedReader {
	return &SimulatedReader{logger: logger}
}

// QueueScan 注入一次模拟刷卡
func (r *SimulatedReader) QueueScan(uid []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pending = append(r.pending, uid)
}

// Present 检测是否有新卡在场
func (r *SimulatedReader) Present() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.current == nil && len(r.pending) > 0 {
		r.current = r.pending[0]
		r.pending = r.pending[1:]
	}
	return r.current != nil
}

// ReadUID 读取在场卡的序列号
func (r *SimulatedReader) ReadUID() ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current, nil
}

// Halt 结束本次硬件会话
func (r *SimulatedReader) Halt() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.current = nil
}

// Reinit 防御性重置
func (r *SimulatedReader) Reinit() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.current = nil
	r.logger.Debug("Simulated reader reinitialized")
	return nil
}

// LogOutputPort 以日志代替 GPIO 的输出端口
type LogOutputPort struct {
	logger *zap.Logger
}

// NewLogOutputPort 创建日志输出端口
func NewLogOutputPort(logger *zap.Logger) *LogOutputPort {
	return &LogOutputPort{logger: logger}
}

// Set 设置通道电平
func (p *LogOutputPort) Set(output feedback.Output, on bool) {
	p.logger.Debug("Output level changed",
		zap.String("output", output.String()),
		zap.Bool("on", on),
	)
}

// LogDisplay 以日志代替 LCD 的显示器
type LogDisplay struct {
	logger *zap.Logger
}

// NewLogDisplay 创建日志显示器
func NewLogDisplay(logger *zap.Logger) *LogDisplay {
	return &LogDisplay{logger: logger}
}

// Clear 清屏
func (d *LogDisplay) Clear() {}

// WriteLine 写一行
func (d *LogDisplay) WriteLine(row int, text string) {
	d.logger.Info("Display line", zap.Int("row", row), zap.String("text", text))
}
