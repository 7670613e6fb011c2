package models

import "time"

// 服务端返回的动作类型
const (
	ActionProcessingSuccess = "processing_success"
	ActionNoPendingOrders   = "no_pending_orders"
)

// ActionResponse /api/process-next 的响应
// led 字段携带分类名称，设备端据此选择闪烁哪一路输出
type ActionResponse struct {
	Action   string `json:"action"`
	Category string `json:"led"`
}

// ActionRequest /api/process-next 的请求体
type ActionRequest struct {
	PersonName string `json:"person_name"`
}

// ScanEvent 一次成功的硬件读卡事件（瞬态，产生后立即被扫描循环消费）
type ScanEvent struct {
	UID       string
	Timestamp time.Time
}

// BadgeMapping 物理卡号到人员的静态映射（配置期加载，运行期只读）
type BadgeMapping struct {
	UID        string
	PersonName string
}
