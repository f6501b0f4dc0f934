package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/dep2p/go-nearlink/pkg/types"
)

// TestNewConfig 测试创建默认配置
func TestNewConfig(t *testing.T) {
	cfg := NewConfig()
	require.NotNil(t, cfg)
	assert.NoError(t, cfg.Validate())

	assert.Equal(t, 10, cfg.Connection.MaxConnections)
	assert.Equal(t, 15*time.Second, cfg.Connection.ConnectionTimeout.Duration())
	assert.Equal(t, 0.6, cfg.Connection.SwitchThreshold)
	assert.True(t, cfg.Connection.EnableAutoSwitch)
	assert.Equal(t, 3, cfg.Reconnect.ReconnectAttempts)
	assert.Equal(t, time.Second, cfg.Reconnect.BaseDelay.Duration())
	assert.Equal(t, 30*time.Second, cfg.Reconnect.MaxDelay.Duration())
	assert.Equal(t, 5*time.Second, cfg.Quality.MonitorInterval.Duration())
	assert.True(t, cfg.Discovery.WiFiEnabled)
	assert.True(t, cfg.Discovery.BLEEnabled)
	assert.Equal(t, 20, cfg.Discovery.MaxDevices)
	assert.Equal(t, 30*time.Second, cfg.Discovery.DiscoveryTimeout.Duration())
}

// TestDiscoveryConfig 测试发现配置
func TestDiscoveryConfig(t *testing.T) {
	t.Run("PrimaryTransport", func(t *testing.T) {
		cfg := DefaultDiscoveryConfig()
		assert.Equal(t, types.TransportLAN, cfg.PrimaryTransport())

		cfg.Primary = "ble"
		assert.Equal(t, types.TransportRadio, cfg.PrimaryTransport())
	})

	t.Run("InvalidPrimary", func(t *testing.T) {
		cfg := DefaultDiscoveryConfig()
		cfg.Primary = "carrier-pigeon"
		assert.Error(t, cfg.Validate())
	})

	t.Run("InvalidMaxDevices", func(t *testing.T) {
		cfg := DefaultDiscoveryConfig()
		cfg.MaxDevices = 0
		assert.Error(t, cfg.Validate())
	})
}

// TestConnectionConfig 测试连接配置
func TestConnectionConfig(t *testing.T) {
	cfg := DefaultConnectionConfig()
	require.NoError(t, cfg.Validate())

	cfg.SwitchThreshold = 1.5
	assert.Error(t, cfg.Validate())
}

// TestReconnectConfig 测试重连配置
func TestReconnectConfig(t *testing.T) {
	cfg := DefaultReconnectConfig()
	require.NoError(t, cfg.Validate())

	cfg.MaxDelay = Duration(100 * time.Millisecond)
	assert.Error(t, cfg.Validate())
}

// TestFromJSON 测试从 JSON 加载
func TestFromJSON(t *testing.T) {
	data := []byte(`{
		"discovery": {"ble_enabled": false, "max_devices": 5},
		"connection": {"connection_timeout": "10s", "switch_threshold": 0.5}
	}`)

	cfg, err := FromJSON(data)
	require.NoError(t, err)

	assert.False(t, cfg.Discovery.BLEEnabled)
	assert.True(t, cfg.Discovery.WiFiEnabled)
	assert.Equal(t, 5, cfg.Discovery.MaxDevices)
	assert.Equal(t, 10*time.Second, cfg.Connection.ConnectionTimeout.Duration())
	assert.Equal(t, 0.5, cfg.Connection.SwitchThreshold)
	assert.Equal(t, 10, cfg.Connection.MaxConnections)
}

// TestFromYAML 测试从 YAML 加载并展开环境变量
func TestFromYAML(t *testing.T) {
	t.Setenv("NEARLINK_TEST_NAME", "workstation")

	data := []byte(`
lan:
  advertise: true
  device_name: ${NEARLINK_TEST_NAME}
reconnect:
  reconnect_attempts: 5
  base_delay: 500ms
quality:
  monitor_interval: 2s
`)
	cfg, err := FromYAML(data)
	require.NoError(t, err)

	assert.True(t, cfg.LAN.Advertise)
	assert.Equal(t, "workstation", cfg.LAN.DeviceName)
	assert.Equal(t, 5, cfg.Reconnect.ReconnectAttempts)
	assert.Equal(t, 500*time.Millisecond, cfg.Reconnect.BaseDelay.Duration())
	assert.Equal(t, 2*time.Second, cfg.Quality.MonitorInterval.Duration())
	assert.Equal(t, "_nearlink._tcp", cfg.LAN.ServiceTag)
}

// TestLoadFile 测试按扩展名加载
func TestLoadFile(t *testing.T) {
	dir := t.TempDir()

	jsonPath := filepath.Join(dir, "nearlink.json")
	require.NoError(t, os.WriteFile(jsonPath, []byte(`{"connection":{"max_connections":3}}`), 0o600))
	cfg, err := LoadFile(jsonPath)
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Connection.MaxConnections)

	yamlPath := filepath.Join(dir, "nearlink.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte("connection:\n  max_connections: 0\n"), 0o600))
	_, err = LoadFile(yamlPath)
	assert.Error(t, err)

	_, err = LoadFile(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

// TestPresetConfigs 测试预设配置
func TestPresetConfigs(t *testing.T) {
	t.Run("MobileConfig", func(t *testing.T) {
		cfg := NewMobileConfig()
		assert.Equal(t, 5, cfg.Connection.MaxConnections)
		assert.NoError(t, cfg.Validate())
	})

	t.Run("ServerConfig", func(t *testing.T) {
		cfg := NewServerConfig()
		assert.False(t, cfg.Discovery.BLEEnabled)
		assert.True(t, cfg.LAN.Advertise)
		assert.NoError(t, cfg.Validate())
	})

	t.Run("MinimalConfig", func(t *testing.T) {
		cfg := NewMinimalConfig()
		assert.False(t, cfg.Connection.EnableAutoSwitch)
		assert.False(t, cfg.Reconnect.Enabled)
		assert.NoError(t, cfg.Validate())
	})
}

// TestApplyPreset_Invalid 测试应用无效预设
func TestApplyPreset_Invalid(t *testing.T) {
	assert.Error(t, ApplyPreset(NewConfig(), "invalid"))
	assert.Error(t, ApplyPreset(nil, "mobile"))
	assert.NoError(t, ApplyPreset(NewConfig(), ""))
}

// TestValidateAndFix 测试修复配置
func TestValidateAndFix(t *testing.T) {
	cfg := NewConfig()
	cfg.Connection.MaxConnections = 0
	cfg.Connection.SwitchThreshold = 2
	cfg.Reconnect.BaseDelay = Duration(time.Minute)
	cfg.Reconnect.MaxDelay = Duration(time.Second)

	fixed, err := ValidateAndFix(cfg)
	require.NoError(t, err)
	assert.Equal(t, 10, fixed.Connection.MaxConnections)
	assert.Equal(t, 1.0, fixed.Connection.SwitchThreshold)
	assert.Equal(t, time.Second, fixed.Reconnect.BaseDelay.Duration())
	assert.Equal(t, time.Minute, fixed.Reconnect.MaxDelay.Duration())

	def, err := ValidateAndFix(nil)
	require.NoError(t, err)
	assert.NotNil(t, def)
}

// TestCloneConfig 测试克隆
func TestCloneConfig(t *testing.T) {
	cfg := NewConfig()
	cloned := CloneConfig(cfg)
	cloned.Connection.MaxConnections = 99
	assert.Equal(t, 10, cfg.Connection.MaxConnections)
	assert.Nil(t, CloneConfig(nil))
}

// TestDurations 测试时长编解码
func TestDurations(t *testing.T) {
	var d Duration
	require.NoError(t, json.Unmarshal([]byte(`"1m30s"`), &d))
	assert.Equal(t, 90*time.Second, d.Duration())

	require.NoError(t, json.Unmarshal([]byte(`1000000`), &d))
	assert.Equal(t, time.Millisecond, d.Duration())

	assert.Error(t, json.Unmarshal([]byte(`"soon"`), &d))

	out, err := json.Marshal(Duration(5 * time.Second))
	require.NoError(t, err)
	assert.Equal(t, `"5s"`, string(out))

	var holder struct {
		D Duration `yaml:"d"`
	}
	require.NoError(t, yaml.Unmarshal([]byte("d: 250ms"), &holder))
	assert.Equal(t, 250*time.Millisecond, holder.D.Duration())

	y, err := yaml.Marshal(holder)
	require.NoError(t, err)
	assert.Contains(t, string(y), "250ms")
}
