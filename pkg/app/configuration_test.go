package app

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blaubaer/remote-ptt/pkg/indicator"
)

func writeFile(t *testing.T, content string) string {
	fn := filepath.Join(t.TempDir(), "configuration.yml")
	require.NoError(t, os.WriteFile(fn, []byte(content), 0600))
	return fn
}

func TestConfiguration_loadFromFile_absent(t *testing.T) {
	actual := NewConfiguration()
	exists, err := actual.loadFromFile(filepath.Join(t.TempDir(), "absent.yml"))
	require.NoError(t, err)
	assert.False(t, exists)
	assert.Equal(t, NewConfiguration(), actual)
}

func TestConfiguration_loadFromFile_yaml(t *testing.T) {
	fn := writeFile(t, `
signal_name: f13
control_port: 9001
content_port: 9002
shutdown_timeout: 5s
indicator:
  type: homeassistant
`)
	actual := NewConfiguration()
	exists, err := actual.loadFromFile(fn)
	require.NoError(t, err)
	assert.True(t, exists)
	assert.Equal(t, "f13", actual.SignalName)
	assert.Equal(t, uint16(9001), actual.ControlPort)
	assert.Equal(t, uint16(9002), actual.ContentPort)
	assert.Equal(t, 5*time.Second, actual.ShutdownTimeout)
	assert.Equal(t, indicator.TypeHomeAssistant, actual.Indicator.Type)
	assert.Equal(t, DefaultBindAddress, actual.BindAddress)
}

func TestConfiguration_loadFromFile_legacyJson(t *testing.T) {
	fn := writeFile(t, `{"ptt_key": "scroll_lock", "http_port": 8081, "ws_port": 8766}`)
	actual := NewConfiguration()
	_, err := actual.loadFromFile(fn)
	require.NoError(t, err)
	assert.Equal(t, "scroll_lock", actual.SignalName)
	assert.Equal(t, uint16(8766), actual.ControlPort)
	assert.Equal(t, uint16(8081), actual.ContentPort)
	assert.Empty(t, actual.LegacyPttKey)
}

func TestConfiguration_loadFromFile_json(t *testing.T) {
	fn := writeFile(t, `{"signal_name": "a", "control_port": 2000, "content_port": 2001}`)
	actual := NewConfiguration()
	_, err := actual.loadFromFile(fn)
	require.NoError(t, err)
	assert.Equal(t, "a", actual.SignalName)
}

func TestConfiguration_loadFromFile_illegal(t *testing.T) {
	cases := map[string]string{
		"syntax":       `{"signal_name": `,
		"unknown key":  `foo: bar`,
		"port range":   `control_port: 80`,
		"port type":    `control_port: 99999`,
		"equal ports":  `{"control_port": 9000, "content_port": 9000}`,
		"empty signal": `signal_name: ""`,
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			fn := writeFile(t, content)
			actual := NewConfiguration()
			exists, err := actual.loadFromFile(fn)
			assert.True(t, exists)
			var ce *ConfigError
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, fn, ce.File)
		})
	}
}

func TestConfiguration_saveTo(t *testing.T) {
	conf := NewConfiguration()
	conf.AssetRoot = "web"
	var buf strings.Builder
	require.NoError(t, conf.saveTo(&buf))

	assert.Contains(t, buf.String(), "signal_name: caps_lock\n")
	assert.Contains(t, buf.String(), "control_port: 8765\n")
	assert.Contains(t, buf.String(), "content_port: 8080\n")
	assert.Contains(t, buf.String(), "shutdown_timeout: 3s\n")
	assert.NotContains(t, buf.String(), "ptt_key")

	reloaded := NewConfiguration()
	require.NoError(t, reloaded.loadFrom(strings.NewReader(buf.String())))
	assert.Equal(t, conf.SignalName, reloaded.SignalName)
	assert.Equal(t, conf.ShutdownTimeout, reloaded.ShutdownTimeout)
}

func TestConfiguration_addresses(t *testing.T) {
	conf := NewConfiguration()
	assert.Equal(t, "0.0.0.0:8765", conf.ControlAddress())
	assert.Equal(t, "0.0.0.0:8080", conf.ContentAddress())
}

func TestApp_Initialize_fallsBackToDefaults(t *testing.T) {
	fn := writeFile(t, `control_port: 1`)
	instance := NewApp()
	instance.ConfigurationFile = fn

	require.NoError(t, instance.Initialize())
	assert.Equal(t, DefaultControlPort, instance.Configuration().ControlPort)

	written, err := os.ReadFile(fn)
	require.NoError(t, err)
	assert.Equal(t, "control_port: 1", string(written))
}

func TestApp_Initialize_savesAbsent(t *testing.T) {
	fn := filepath.Join(t.TempDir(), "sub", "configuration.yml")
	instance := NewApp()
	instance.ConfigurationFile = fn

	require.NoError(t, instance.Initialize())

	written, err := os.ReadFile(fn)
	require.NoError(t, err)
	assert.Contains(t, string(written), "signal_name: caps_lock")
}

func TestApp_Initialize_flagsOverride(t *testing.T) {
	fn := writeFile(t, `{"signal_name": "f13", "control_port": 9001, "content_port": 9002}`)
	instance := NewApp()
	instance.ConfigurationFile = fn
	instance.configFromFlags.ControlPort = 9003

	require.NoError(t, instance.Initialize())
	actual := instance.Configuration()
	assert.Equal(t, "f13", actual.SignalName)
	assert.Equal(t, uint16(9003), actual.ControlPort)
	assert.Equal(t, uint16(9002), actual.ContentPort)
}

func TestApp_Initialize_illegalFlags(t *testing.T) {
	instance := NewApp()
	instance.ConfigurationFile = filepath.Join(t.TempDir(), "configuration.yml")
	instance.configFromFlags.ContentPort = DefaultControlPort

	var ce *ConfigError
	assert.ErrorAs(t, instance.Initialize(), &ce)
}

func TestApp_Initialize_keepsRegexpWithoutFlag(t *testing.T) {
	instance := NewApp()
	instance.ConfigurationFile = filepath.Join(t.TempDir(), "configuration.yml")

	require.NoError(t, instance.Initialize())
	assert.Equal(t, "^OnAir", instance.Configuration().Indicator.Hue.Name.String())
}
