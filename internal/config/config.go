package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"toytrack/internal/models"
)

// Config 全局配置（按二进制关注点分段，均可由环境变量覆盖）
type Config struct {
	Database DatabaseConfig
	Redis    RedisConfig
	MQTT     MQTTConfig

	// 服务端配置
	Server struct {
		Addr            string        // 监听地址，如 ":8080"
		OrdersTopic     string        // 订单流主题
		TokenTTL        time.Duration // 会话 Token 有效期
		ScanDebounceTTL time.Duration // 同一人重复刷卡的抑制窗口
	}

	// 设备端扫描代理配置
	Agent struct {
		ServerBaseURL  string
		RequestTimeout time.Duration // 单次动作请求的超时上限
		PollInterval   time.Duration // 轮询间隔
		SettleDelay    time.Duration // 一次派发完成后的消抖等待
		IdleWindow     time.Duration // 超过该时长无成功扫描则防御性重置读卡器
		BlinkCount     int           // 成功反馈的闪烁次数
		BlinkInterval  time.Duration // 成功反馈的闪烁间隔
		Badges         []models.BadgeMapping
	}

	// 客户端镜像配置
	Sync struct {
		ServerBaseURL string
		TokenFile     string // 持久化会话 Token 的路径
		Account       string
		Password      string
	}

	Log struct {
		Level  string
		Format string
	}
}

// Load 加载配置
func Load() *Config {
	cfg := &Config{}

	cfg.Database.Host = getEnv("DB_HOST", "localhost")
	cfg.Database.Port = 5432
	cfg.Database.User = getEnv("DB_USER", "postgres")
	cfg.Database.Password = getEnv("DB_PASSWORD", "postgres")
	cfg.Database.Database = getEnv("DB_NAME", "toytrack")
	cfg.Database.SSLMode = getEnv("DB_SSLMODE", "disable")
	cfg.Database.LoadFromEnv("DB")

	cfg.Redis.Addr = getEnv("REDIS_ADDR", "localhost:6379")
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", "")
	cfg.Redis.DB = 0

	cfg.MQTT.Broker = getEnv("MQTT_BROKER", "tcp://localhost:1883")
	cfg.MQTT.ClientID = getEnv("MQTT_CLIENT_ID", "toytrack")
	cfg.MQTT.Username = getEnv("MQTT_USERNAME", "")
	cfg.MQTT.Password = getEnv("MQTT_PASSWORD", "")
	cfg.MQTT.QoS = 1

	cfg.Server.Addr = getEnv("SERVER_ADDR", ":8080")
	cfg.Server.OrdersTopic = getEnv("ORDERS_TOPIC", "toytrack/orders")
	cfg.Server.TokenTTL = getDuration("TOKEN_TTL", 24*time.Hour)
	cfg.Server.ScanDebounceTTL = getDuration("SCAN_DEBOUNCE_TTL", 3*time.Second)

	cfg.Agent.ServerBaseURL = getEnv("AGENT_SERVER_URL", "http://localhost:8080")
	cfg.Agent.RequestTimeout = getDuration("AGENT_REQUEST_TIMEOUT", 5*time.Second)
	cfg.Agent.PollInterval = getDuration("AGENT_POLL_INTERVAL", 200*time.Millisecond)
	cfg.Agent.SettleDelay = getDuration("AGENT_SETTLE_DELAY", 2*time.Second)
	cfg.Agent.IdleWindow = getDuration("AGENT_IDLE_WINDOW", 60*time.Second)
	cfg.Agent.BlinkCount = getInt("AGENT_BLINK_COUNT", 3)
	cfg.Agent.BlinkInterval = getDuration("AGENT_BLINK_INTERVAL", 300*time.Millisecond)
	cfg.Agent.Badges = ParseBadgeMap(getEnv("AGENT_BADGE_MAP", ""))

	cfg.Sync.ServerBaseURL = getEnv("SYNC_SERVER_URL", "http://localhost:8080")
	cfg.Sync.TokenFile = getEnv("SYNC_TOKEN_FILE", ".toytrack-session")
	cfg.Sync.Account = getEnv("SYNC_ACCOUNT", "")
	cfg.Sync.Password = getEnv("SYNC_PASSWORD", "")

	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "json")

	return cfg
}

// ParseBadgeMap 解析徽章映射表
// 格式: "A9 6C 6A 05=John Marwin;12 34 56 78=Jane Roe"
// 条目顺序保留（解析表按配置顺序做线性查找）
func ParseBadgeMap(raw string) []models.BadgeMapping {
	var mappings []models.BadgeMapping
	for _, entry := range strings.Split(raw, ";") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		parts := strings.SplitN(entry, "=", 2)
		if len(parts) != 2 {
			continue
		}
		uid := strings.ToUpper(strings.TrimSpace(parts[0]))
		person := strings.TrimSpace(parts[1])
		if uid == "" || person == "" {
			continue
		}
		mappings = append(mappings, models.BadgeMapping{UID: uid, PersonName: person})
	}
	return mappings
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
