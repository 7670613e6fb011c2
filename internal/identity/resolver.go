package identity

import (
	"fmt"
	"strings"

	"toytrack/internal/models"

	"go.uber.org/zap"
)

// CanonicalUID 将读卡器返回的原始字节格式化为规范 UID 字符串
// 每字节两位大写十六进制、零填充、空格分隔，如 [0xA9,0x6C,0x6A,0x05] -> "A9 6C 6A 05"
func CanonicalUID(raw []byte) string {
	parts := make([]string, len(raw))
	for i, b := range raw {
		parts[i] = fmt.Sprintf("%02X", b)
	}
	return strings.Join(parts, " ")
}

// Resolver 徽章解析器（规范 UID -> 人员）
// 映射表在启动时加载一次，运行期只读；表很小，按配置顺序线性查找即可
type Resolver struct {
	mappings []models.BadgeMapping
	logger   *zap.Logger
}

// NewResolver 创建徽章解析器
func NewResolver(mappings []models.BadgeMapping, logger *zap.Logger) *Resolver {
	return &Resolver{
		mappings: mappings,
		logger:   logger,
	}
}

// Resolve 查找规范 UID 对应的人员
// 未登记的卡是正常分支而不是错误：返回 ("", false)，由调用方走各自的反馈路径
func (r *Resolver) Resolve(uid string) (string, bool) {
	for _, m := range r.mappings {
		if m.UID == uid {
			return m.PersonName, true
		}
	}
	return "", false
}

// ResolveRaw 从原始字节直接解析，返回规范 UID 供日志与显示使用
func (r *Resolver) ResolveRaw(raw []byte) (uid string, person string, ok bool) {
	uid = CanonicalUID(raw)
	person, ok = r.Resolve(uid)
	return uid, person, ok
}
