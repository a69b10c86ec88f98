package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Transport backends.
const (
	BackendWebSocket = "websocket"
	BackendOpenAI    = "openai"
	BackendGemini    = "gemini"
)

const (
	defaultModel             = "gemini-2.5-flash-native-audio-preview-09-2025"
	defaultVoiceName         = "Kore"
	defaultHandshakeTimeout  = 15
	defaultOutboundQueueSize = 64
	defaultFrameSize         = 4096
	defaultSpeakerBufferMs   = 100
	defaultLogLevel          = "info"

	defaultSystemInstruction = "You are a helpful, empathetic health assistant for VitaCare Marketplace. " +
		"Help users find vitamins, supplements, and doctors. " +
		"If the user asks to find or search for a product, use the searchProducts tool. " +
		"Keep responses concise and friendly. " +
		"If asked about medical advice, provide general wellness info but always recommend seeing a doctor."
)

// Environment variables that override the API key.
const (
	EnvAPIKey       = "VITACARE_API_KEY"
	EnvOpenAIAPIKey = "OPENAI_API_KEY"
	EnvGeminiAPIKey = "GEMINI_API_KEY"
)

// AssistantConfig describes the remote assistant persona.
type AssistantConfig struct {
	Model             string `yaml:"model"`
	SystemInstruction string `yaml:"system_instruction"`
	VoiceName         string `yaml:"voice_name"`
}

// TransportConfig stores live endpoint settings.
type TransportConfig struct {
	Backend                 string `yaml:"backend"`
	URL                     string `yaml:"url"`
	APIKey                  string `yaml:"api_key"`
	HandshakeTimeoutSeconds int    `yaml:"handshake_timeout_seconds"`
	OutboundQueueSize       int    `yaml:"outbound_queue_size"`
}

// AudioConfig stores local device settings.
type AudioConfig struct {
	FrameSize       int `yaml:"frame_size"`
	SpeakerBufferMs int `yaml:"speaker_buffer_ms"`
}

// CatalogConfig stores host-side catalog settings.
type CatalogConfig struct {
	CacheSize int `yaml:"cache_size"`
}

// DebugConfig stores diagnostics settings.
type DebugConfig struct {
	// RecordDir, when set, receives WAV dumps of captured and played audio.
	RecordDir string `yaml:"record_dir"`
}

// Config stores the application configuration.
type Config struct {
	Assistant AssistantConfig `yaml:"assistant"`
	Transport TransportConfig `yaml:"transport"`
	Audio     AudioConfig     `yaml:"audio"`
	Catalog   CatalogConfig   `yaml:"catalog"`
	Debug     DebugConfig     `yaml:"debug"`
	LogLevel  string          `yaml:"log_level"`
}

// LoadConfig loads the configuration from the given file path. A .env file
// in the working directory is loaded first so the API key may come from the
// environment.
func LoadConfig(filePath string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	var cfg Config
	err = yaml.Unmarshal(data, &cfg)
	if err != nil {
		return nil, err
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) applyEnv() {
	if c.Transport.APIKey != "" {
		return
	}
	if key := os.Getenv(EnvAPIKey); key != "" {
		c.Transport.APIKey = key
		return
	}
	switch c.Transport.Backend {
	case BackendOpenAI:
		c.Transport.APIKey = os.Getenv(EnvOpenAIAPIKey)
	case BackendGemini:
		c.Transport.APIKey = os.Getenv(EnvGeminiAPIKey)
	}
}

func (c *Config) applyDefaults() {
	if c.Assistant.Model == "" {
		c.Assistant.Model = defaultModel
	}
	if c.Assistant.SystemInstruction == "" {
		c.Assistant.SystemInstruction = defaultSystemInstruction
	}
	if c.Assistant.VoiceName == "" {
		c.Assistant.VoiceName = defaultVoiceName
	}
	if c.Transport.Backend == "" {
		c.Transport.Backend = BackendWebSocket
	}
	if c.Transport.HandshakeTimeoutSeconds == 0 {
		c.Transport.HandshakeTimeoutSeconds = defaultHandshakeTimeout
	}
	if c.Transport.OutboundQueueSize == 0 {
		c.Transport.OutboundQueueSize = defaultOutboundQueueSize
	}
	if c.Audio.FrameSize == 0 {
		c.Audio.FrameSize = defaultFrameSize
	}
	if c.Audio.SpeakerBufferMs == 0 {
		c.Audio.SpeakerBufferMs = defaultSpeakerBufferMs
	}
	if c.LogLevel == "" {
		c.LogLevel = defaultLogLevel
	}
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch c.Transport.Backend {
	case BackendWebSocket:
		if c.Transport.URL == "" {
			return errors.New("transport.url is required for the websocket backend")
		}
	case BackendOpenAI:
		if c.Transport.APIKey == "" {
			return fmt.Errorf("transport.api_key (or %s) is required for the openai backend", EnvOpenAIAPIKey)
		}
	case BackendGemini:
		if c.Transport.APIKey == "" {
			return fmt.Errorf("transport.api_key (or %s) is required for the gemini backend", EnvGeminiAPIKey)
		}
	default:
		return fmt.Errorf("unknown transport backend %q", c.Transport.Backend)
	}

	if c.Transport.HandshakeTimeoutSeconds < 0 {
		return errors.New("transport.handshake_timeout_seconds must not be negative")
	}
	if c.Transport.OutboundQueueSize < 0 {
		return errors.New("transport.outbound_queue_size must not be negative")
	}
	if n := c.Audio.FrameSize; n <= 0 || n&(n-1) != 0 {
		return fmt.Errorf("audio.frame_size %d must be a power of two", n)
	}
	if c.Audio.SpeakerBufferMs < 0 {
		return errors.New("audio.speaker_buffer_ms must not be negative")
	}

	return nil
}

// HandshakeTimeout returns how long to wait for the setup acknowledgement.
func (c *Config) HandshakeTimeout() time.Duration {
	return time.Duration(c.Transport.HandshakeTimeoutSeconds) * time.Second
}

// SpeakerBuffer returns the playback device buffer length.
func (c *Config) SpeakerBuffer() time.Duration {
	return time.Duration(c.Audio.SpeakerBufferMs) * time.Millisecond
}
