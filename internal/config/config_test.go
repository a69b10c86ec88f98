package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Raikerian/vitacare-voice/internal/config"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv(config.EnvAPIKey, "")
	path := writeConfig(t, `
transport:
  url: ws://localhost:9000/live
`)

	cfg, err := config.LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, config.BackendWebSocket, cfg.Transport.Backend)
	assert.Equal(t, "Kore", cfg.Assistant.VoiceName)
	assert.Contains(t, cfg.Assistant.SystemInstruction, "searchProducts tool")
	assert.NotEmpty(t, cfg.Assistant.Model)
	assert.Equal(t, 4096, cfg.Audio.FrameSize)
	assert.Equal(t, 15*time.Second, cfg.HandshakeTimeout())
	assert.Equal(t, 100*time.Millisecond, cfg.SpeakerBuffer())
	assert.Equal(t, 64, cfg.Transport.OutboundQueueSize)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Empty(t, cfg.Transport.APIKey)
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Setenv(config.EnvAPIKey, "")
	path := writeConfig(t, `
assistant:
  model: custom-model
  voice_name: alloy
transport:
  backend: openai
  api_key: sk-file
  handshake_timeout_seconds: 5
audio:
  frame_size: 2048
debug:
  record_dir: /tmp/vitacare
log_level: debug
`)

	cfg, err := config.LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "custom-model", cfg.Assistant.Model)
	assert.Equal(t, "alloy", cfg.Assistant.VoiceName)
	assert.Equal(t, "sk-file", cfg.Transport.APIKey)
	assert.Equal(t, 5*time.Second, cfg.HandshakeTimeout())
	assert.Equal(t, 2048, cfg.Audio.FrameSize)
	assert.Equal(t, "/tmp/vitacare", cfg.Debug.RecordDir)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadConfig_APIKeyFromEnv(t *testing.T) {
	tests := map[string]struct {
		backend  string
		env      map[string]string
		wantKey  string
		wantFail bool
	}{
		"vitacare_key": {
			backend: config.BackendWebSocket,
			env:     map[string]string{config.EnvAPIKey: "vk", config.EnvOpenAIAPIKey: "ok"},
			wantKey: "vk",
		},
		"openai_key_for_openai_backend": {
			backend: config.BackendOpenAI,
			env:     map[string]string{config.EnvAPIKey: "", config.EnvOpenAIAPIKey: "ok"},
			wantKey: "ok",
		},
		"openai_key_ignored_for_websocket": {
			backend: config.BackendWebSocket,
			env:     map[string]string{config.EnvAPIKey: "", config.EnvOpenAIAPIKey: "ok"},
			wantKey: "",
		},
		"gemini_key_for_gemini_backend": {
			backend: config.BackendGemini,
			env:     map[string]string{config.EnvAPIKey: "", config.EnvGeminiAPIKey: "gk"},
			wantKey: "gk",
		},
		"gemini_backend_without_key": {
			backend:  config.BackendGemini,
			env:      map[string]string{config.EnvAPIKey: "", config.EnvGeminiAPIKey: ""},
			wantFail: true,
		},
		"openai_backend_without_key": {
			backend:  config.BackendOpenAI,
			env:      map[string]string{config.EnvAPIKey: "", config.EnvOpenAIAPIKey: ""},
			wantFail: true,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			path := writeConfig(t, "transport:\n  backend: "+tt.backend+"\n  url: ws://localhost/live\n")

			cfg, err := config.LoadConfig(path)
			if tt.wantFail {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantKey, cfg.Transport.APIKey)
		})
	}
}

func TestLoadConfig_Invalid(t *testing.T) {
	t.Setenv(config.EnvAPIKey, "")

	tests := map[string]string{
		"missing_url":      "transport:\n  backend: websocket\n",
		"unknown_backend":  "transport:\n  backend: grpc\n  url: x\n",
		"bad_frame_size":   "transport:\n  url: x\naudio:\n  frame_size: 1000\n",
		"negative_timeout": "transport:\n  url: x\n  handshake_timeout_seconds: -1\n",
		"malformed_yaml":   "transport: [\n",
		"negative_buffer":  "transport:\n  url: x\naudio:\n  speaker_buffer_ms: -5\n",
	}

	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := config.LoadConfig(writeConfig(t, body))
			require.Error(t, err)
		})
	}

	_, err := config.LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
