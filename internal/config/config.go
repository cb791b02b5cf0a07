package config

import (
	env "github.com/caarlos0/env/v11"
)

// Config holds runtime parameters for the service.
// Zero values mean "unspecified" and will be replaced by defaults via Default
// or overridden by flags in main.
type Config struct {
	// Path to the model artifacts directory. Required; the process refuses to
	// start when it does not exist.
	ModelPath string `json:"model_path" yaml:"model_path" toml:"model_path" env:"VLMD_MODEL_PATH"`
	// Optional base model path for delta/LoRA checkpoints.
	ModelBase string `json:"model_base" yaml:"model_base" toml:"model_base" env:"VLMD_MODEL_BASE"`
	// Conversation template identifier.
	ConvMode string `json:"conv_mode" yaml:"conv_mode" toml:"conv_mode" env:"VLMD_CONV_MODE"`
	// HTTP bind host.
	Host string `json:"host" yaml:"host" toml:"host" env:"VLMD_HOST"`
	// HTTP bind port.
	Port int `json:"port" yaml:"port" toml:"port" env:"VLMD_PORT"`
	// Debug enables verbose logging and pretty console output.
	Debug bool `json:"debug" yaml:"debug" toml:"debug" env:"VLMD_DEBUG"`
	// Log level: debug|info|warn|error.
	LogLevel string `json:"log_level" yaml:"log_level" toml:"log_level" env:"VLMD_LOG_LEVEL"`
	// Directory holding the inference engine's shared libraries.
	LibPath string `json:"lib_path" yaml:"lib_path" toml:"lib_path" env:"VLMD_LIB_PATH"`
	// Worker threads for the engine; 0 lets the engine decide.
	Threads int `json:"threads" yaml:"threads" toml:"threads" env:"VLMD_THREADS"`
	// Context window override; 0 uses the model's own limit.
	ContextWindow int `json:"context_window" yaml:"context_window" toml:"context_window" env:"VLMD_CONTEXT_WINDOW"`
	// Maximum accepted request body size in bytes.
	MaxBodyBytes int64 `json:"max_body_bytes" yaml:"max_body_bytes" toml:"max_body_bytes" env:"VLMD_MAX_BODY_BYTES"`
	// CORS allowed origins. Empty means allow all, matching the permissive
	// posture the embedded game-engine client expects.
	CORSAllowedOrigins []string `json:"cors_allowed_origins" yaml:"cors_allowed_origins" toml:"cors_allowed_origins" env:"VLMD_CORS_ALLOWED_ORIGINS" envSeparator:","`
}

// Defaults applied when the corresponding fields are unset.
const (
	DefaultConvMode     = "qwen_2"
	DefaultHost         = "localhost"
	DefaultPort         = 8000
	DefaultLogLevel     = "info"
	DefaultMaxBodyBytes = 8 << 20 // image payloads, not just text prompts
)

// Default returns a Config populated with package defaults.
func Default() Config {
	return Config{
		ConvMode:     DefaultConvMode,
		Host:         DefaultHost,
		Port:         DefaultPort,
		LogLevel:     DefaultLogLevel,
		MaxBodyBytes: DefaultMaxBodyBytes,
	}
}

// ApplyEnv overlays VLMD_* environment variables onto cfg. Variables that are
// unset leave the existing values untouched.
func ApplyEnv(cfg *Config) error {
	return env.Parse(cfg)
}

// FillDefaults replaces unset fields with package defaults.
func FillDefaults(cfg *Config) {
	if cfg.ConvMode == "" {
		cfg.ConvMode = DefaultConvMode
	}
	if cfg.Host == "" {
		cfg.Host = DefaultHost
	}
	if cfg.Port == 0 {
		cfg.Port = DefaultPort
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = DefaultLogLevel
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = DefaultMaxBodyBytes
	}
}
