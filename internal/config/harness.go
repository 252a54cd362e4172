package config

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides, e.g. MRAID_HARNESS_SCREEN_WIDTH.
const EnvPrefix = "MRAID_HARNESS"

// HarnessConfig configures a harness run.
type HarnessConfig struct {
	CreativePaths []string           `mapstructure:"creative_paths"`
	LogLevel      string             `mapstructure:"log_level"`
	Transport     string             `mapstructure:"transport"`
	ActionsQueue  ActionsQueueConfig `mapstructure:"actions_queue"`
	Screen        ScreenConfig       `mapstructure:"screen"`
	Location      LocationConfig     `mapstructure:"location"`
	VAST          VASTConfig         `mapstructure:"vast"`
	Trace         TraceConfig        `mapstructure:"trace"`
	Run           RunConfig          `mapstructure:"run"`
	Wasm          WasmConfig         `mapstructure:"wasm"`
}

// ActionsQueueConfig controls native-to-page delivery through the polled queue.
type ActionsQueueConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	PollInterval time.Duration `mapstructure:"poll_interval"`
}

// ScreenConfig is the simulated device screen in density-independent pixels.
type ScreenConfig struct {
	Width  float64 `mapstructure:"width"`
	Height float64 `mapstructure:"height"`
}

// LocationConfig is what the simulated device reports for location requests.
type LocationConfig struct {
	Latitude  float64 `mapstructure:"latitude"`
	Longitude float64 `mapstructure:"longitude"`
}

// VASTConfig plays a simulated VAST video behind the creative.
type VASTConfig struct {
	Enabled bool `mapstructure:"enabled"`
	// Video duration (seconds).
	Duration float64 `mapstructure:"duration"`
}

// TraceConfig enables the dispatch trace.
type TraceConfig struct {
	// Trace file path. Empty disables tracing.
	Path string `mapstructure:"path"`
}

// RunConfig bounds a run.
type RunConfig struct {
	// How long a creative runs before the harness stops it. Zero runs until interrupted.
	Duration time.Duration `mapstructure:"duration"`
}

// WasmConfig holds Wasm runtime configuration.
type WasmConfig struct {
	// Memory limit per creative (in pages, 64KB each).
	MemoryPages uint32 `mapstructure:"memory_pages"`
	// Keep debug info for guest stack traces.
	Debug bool `mapstructure:"debug"`
	// Compilation cache directory.
	CacheDir string `mapstructure:"cache_dir"`
	// Maximum concurrent instances.
	MaxInstances int `mapstructure:"max_instances"`
	// Creative execution timeout (seconds).
	ExecutionTimeout int `mapstructure:"execution_timeout"`
}

// ConfigError reports an invalid configuration value.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid config (field: %s): %s", e.Field, e.Message)
}

var (
	transports = []string{"auto", "injected", "scheme"}
	logLevels  = []string{"debug", "info", "warn", "error"}
)

// LoadHarnessConfig reads configPath, when given, over the defaults and
// applies MRAID_HARNESS_* environment overrides.
func LoadHarnessConfig(configPath string) (*HarnessConfig, error) {
	v := viper.New()

	v.SetDefault("creative_paths", []string{"./creatives"})
	v.SetDefault("log_level", "info")
	v.SetDefault("transport", "auto")

	v.SetDefault("actions_queue.enabled", false)
	v.SetDefault("actions_queue.poll_interval", 100*time.Millisecond)

	v.SetDefault("screen.width", 360)
	v.SetDefault("screen.height", 640)

	v.SetDefault("location.latitude", 0.0)
	v.SetDefault("location.longitude", 0.0)

	v.SetDefault("vast.enabled", false)
	v.SetDefault("vast.duration", 30.0)

	v.SetDefault("trace.path", "")
	v.SetDefault("run.duration", 0)

	// Wasm defaults
	v.SetDefault("wasm.memory_pages", 256) // 16MB
	v.SetDefault("wasm.debug", false)
	v.SetDefault("wasm.cache_dir", "")
	v.SetDefault("wasm.max_instances", 16)
	v.SetDefault("wasm.execution_timeout", 30)

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", configPath, err)
		}
	}

	var cfg HarnessConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values viper cannot check by type.
func (c *HarnessConfig) Validate() error {
	if !slices.Contains(transports, c.Transport) {
		return &ConfigError{Field: "transport", Message: fmt.Sprintf("must be one of %v, got %q", transports, c.Transport)}
	}
	if !slices.Contains(logLevels, c.LogLevel) {
		return &ConfigError{Field: "log_level", Message: fmt.Sprintf("must be one of %v, got %q", logLevels, c.LogLevel)}
	}
	if c.Screen.Width <= 0 || c.Screen.Height <= 0 {
		return &ConfigError{Field: "screen", Message: "width and height must be positive"}
	}
	if c.ActionsQueue.Enabled && c.ActionsQueue.PollInterval <= 0 {
		return &ConfigError{Field: "actions_queue.poll_interval", Message: "must be positive"}
	}
	if c.ActionsQueue.Enabled && c.Transport == "scheme" {
		return &ConfigError{Field: "actions_queue.enabled", Message: "the actions queue needs injected handlers"}
	}
	if c.VAST.Enabled && c.VAST.Duration <= 0 {
		return &ConfigError{Field: "vast.duration", Message: "must be positive"}
	}
	if c.Run.Duration < 0 {
		return &ConfigError{Field: "run.duration", Message: "must not be negative"}
	}
	return nil
}
