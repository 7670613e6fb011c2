package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultValues(t *testing.T) {
	// 清除环境变量
	os.Clearenv()

	cfg := Load()
	require.NotNil(t, cfg)

	// 验证默认值
	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "toytrack", cfg.Database.Database)
	assert.Equal(t, "disable", cfg.Database.SSLMode)

	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, 0, cfg.Redis.DB)

	assert.Equal(t, "tcp://localhost:1883", cfg.MQTT.Broker)
	assert.Equal(t, byte(1), cfg.MQTT.QoS)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "toytrack/orders", cfg.Server.OrdersTopic)
	assert.Equal(t, 3*time.Second, cfg.Server.ScanDebounceTTL)

	assert.Equal(t, 3, cfg.Agent.BlinkCount)
	assert.Equal(t, 300*time.Millisecond, cfg.Agent.BlinkInterval)
	assert.Equal(t, 60*time.Second, cfg.Agent.IdleWindow)
	assert.Empty(t, cfg.Agent.Badges)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoad_EnvironmentVariables(t *testing.T) {
	os.Clearenv()
	os.Setenv("DB_HOST", "test-host")
	os.Setenv("SERVER_ADDR", ":9090")
	os.Setenv("SCAN_DEBOUNCE_TTL", "5s")
	os.Setenv("AGENT_BLINK_COUNT", "5")
	os.Setenv("AGENT_BADGE_MAP", "A9 6C 6A 05=John Marwin")
	os.Setenv("LOG_LEVEL", "debug")
	defer os.Clearenv()

	cfg := Load()

	assert.Equal(t, "test-host", cfg.Database.Host)
	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, 5*time.Second, cfg.Server.ScanDebounceTTL)
	assert.Equal(t, 5, cfg.Agent.BlinkCount)
	assert.Equal(t, "debug", cfg.Log.Level)
	require.Len(t, cfg.Agent.Badges, 1)
	assert.Equal(t, "A9 6C 6A 05", cfg.Agent.Badges[0].UID)
	assert.Equal(t, "John Marwin", cfg.Agent.Badges[0].PersonName)
}

func TestParseBadgeMap(t *testing.T) {
	mappings := ParseBadgeMap("A9 6C 6A 05=John Marwin; 12 34 56 78 = Jane Roe ;;bad-entry")

	require.Len(t, mappings, 2)
	assert.Equal(t, "A9 6C 6A 05", mappings[0].UID)
	assert.Equal(t, "John Marwin", mappings[0].PersonName)
	assert.Equal(t, "12 34 56 78", mappings[1].UID)
	assert.Equal(t, "Jane Roe", mappings[1].PersonName)
}

func TestParseBadgeMap_LowercaseUID(t *testing.T) {
	mappings := ParseBadgeMap("a9 6c 6a 05=John Marwin")

	require.Len(t, mappings, 1)
	// UID 统一为大写规范形式
	assert.Equal(t, "A9 6C 6A 05", mappings[0].UID)
}

func TestParseBadgeMap_Empty(t *testing.T) {
	assert.Empty(t, ParseBadgeMap(""))
}
