package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

type Config struct {
	Decks     DecksConfig     `mapstructure:"decks"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Glyph     GlyphConfig     `mapstructure:"glyph"`
	Session   SessionConfig   `mapstructure:"session"`
	Server    ServerConfig    `mapstructure:"server"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Templates TemplatesConfig `mapstructure:"templates"`
	Outputs   OutputsConfig   `mapstructure:"outputs"`
}

type DecksConfig struct {
	Directories    []string `mapstructure:"directories"`
	RemoteURL      string   `mapstructure:"remote_url" validate:"omitempty,url"`
	IncludeStarter bool     `mapstructure:"include_starter"`
	// CacheDirectory keeps the decks of RemoteURL for offline use
	CacheDirectory string `mapstructure:"cache_directory"`
}

type StorageConfig struct {
	Local     LocalStorageConfig  `mapstructure:"local"`
	Remote    RemoteStorageConfig `mapstructure:"remote"`
	SaveDelay time.Duration       `mapstructure:"save_delay" validate:"gte=0"`
}

type LocalStorageConfig struct {
	Driver string `mapstructure:"driver" validate:"oneof=sqlite yaml"`
	Path   string `mapstructure:"path" validate:"required"`
}

type RemoteStorageConfig struct {
	Driver        string            `mapstructure:"driver" validate:"omitempty,oneof=mysql postgres http"`
	Database      DatabaseConfig    `mapstructure:"database"`
	HTTP          HTTPStorageConfig `mapstructure:"http"`
	RetryAttempts uint              `mapstructure:"retry_attempts"`
}

type DatabaseConfig struct {
	Host            string            `mapstructure:"host"`
	Port            int               `mapstructure:"port"`
	Database        string            `mapstructure:"database"`
	Username        string            `mapstructure:"username"`
	Password        string            `mapstructure:"password"`
	TLS             bool              `mapstructure:"tls"`
	Params          map[string]string `mapstructure:"params"`
	MaxOpenConns    int               `mapstructure:"max_open_conns"`
	MaxIdleConns    int               `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int               `mapstructure:"conn_max_lifetime_seconds"`
}

type HTTPStorageConfig struct {
	BaseURL string `mapstructure:"base_url" validate:"omitempty,url"`
	APIKey  string `mapstructure:"api_key"`
}

type GlyphConfig struct {
	FontPath   string  `mapstructure:"font_path" validate:"omitempty,file"`
	Resolution int     `mapstructure:"resolution" validate:"min=8,max=256"`
	Threshold  float64 `mapstructure:"threshold" validate:"gt=0,lte=1"`
	CanvasSize int     `mapstructure:"canvas_size" validate:"min=64"`
	BrushWidth float64 `mapstructure:"brush_width" validate:"gt=0"`
}

type SessionConfig struct {
	RecentHistorySize int      `mapstructure:"recent_history_size" validate:"min=1"`
	Categories        []string `mapstructure:"categories" validate:"min=1,dive,oneof=kanji words"`
}

type ServerConfig struct {
	Port int        `mapstructure:"port" validate:"min=1,max=65535"`
	CORS CORSConfig `mapstructure:"cors"`
	// SessionIdleTimeout ends practice sessions unused for longer. 0 disables it.
	SessionIdleTimeout time.Duration `mapstructure:"session_idle_timeout" validate:"gte=0"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret"`
	UserID    string `mapstructure:"user_id"`
}

type TemplatesConfig struct {
	ProgressReportTemplate string `mapstructure:"progress_report_template" validate:"omitempty,file"`
}

type OutputsConfig struct {
	ReportDirectory string `mapstructure:"report_directory"`
}

type ConfigLoader struct {
	viper      *viper.Viper
	validator  *validator.Validate
	translator ut.Translator
}

func NewConfigLoader(configFile string) (*ConfigLoader, error) {
	validate, trans, err := newValidator()
	if err != nil {
		return nil, fmt.Errorf("failed to create new validator: %w", err)
	}

	v := viper.New()
	v.SetConfigType("yaml")
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/jmemory")
	}

	return &ConfigLoader{
		viper:      v,
		validator:  validate,
		translator: trans,
	}, nil
}

func (loader *ConfigLoader) Load() (*Config, error) {
	v := loader.viper

	v.SetDefault("decks.include_starter", true)
	v.SetDefault("decks.cache_directory", filepath.Join(".jmemory", "cache"))
	v.SetDefault("storage.local.driver", "sqlite")
	v.SetDefault("storage.local.path", filepath.Join(".jmemory", "mastery.db"))
	v.SetDefault("storage.save_delay", 1200*time.Millisecond)
	v.SetDefault("storage.remote.retry_attempts", 3)
	v.SetDefault("storage.remote.database.host", "localhost")
	v.SetDefault("storage.remote.database.port", 3306)
	v.SetDefault("storage.remote.database.database", "jmemory")
	v.SetDefault("storage.remote.database.username", "user")
	v.SetDefault("glyph.resolution", 64)
	v.SetDefault("glyph.threshold", 0.48)
	v.SetDefault("glyph.canvas_size", 600)
	v.SetDefault("glyph.brush_width", 14)
	v.SetDefault("session.recent_history_size", 10)
	v.SetDefault("session.categories", []string{"kanji", "words"})
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.session_idle_timeout", 30*time.Minute)
	v.SetDefault("server.cors.allowed_origins", []string{"http://localhost:3000"})
	// Template is optional - if not specified, will use embedded fallback template
	v.SetDefault("templates.progress_report_template", "")
	v.SetDefault("outputs.report_directory", "outputs")

	// Secrets are bound to environment variables only
	if err := v.BindEnv("storage.remote.database.password", "JMEMORY_DB_PASSWORD"); err != nil {
		return nil, fmt.Errorf("failed to bind JMEMORY_DB_PASSWORD environment variable: %w", err)
	}
	if err := v.BindEnv("storage.remote.http.api_key", "JMEMORY_REMOTE_API_KEY"); err != nil {
		return nil, fmt.Errorf("failed to bind JMEMORY_REMOTE_API_KEY environment variable: %w", err)
	}
	if err := v.BindEnv("auth.jwt_secret", "JMEMORY_JWT_SECRET"); err != nil {
		return nil, fmt.Errorf("failed to bind JMEMORY_JWT_SECRET environment variable: %w", err)
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("configuration file found but could not be read: %w. Please check the file format and permissions", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration format: %w", err)
	}

	if err := loader.validator.Struct(cfg); err != nil {
		validationErrors := err.(validator.ValidationErrors)
		var errorMsgs []string
		for _, e := range validationErrors {
			errorMsgs = append(errorMsgs, e.Translate(loader.translator))
		}
		return nil, fmt.Errorf("invalid configuration: %s", strings.Join(errorMsgs, ", "))
	}

	return &cfg, nil
}
