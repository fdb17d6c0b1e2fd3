// Package config loads and persists the translator configuration.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"pdf-translator/internal/logger"
	"pdf-translator/internal/types"
)

const (
	DefaultConfigFileName = "pdf-translator-config.json"

	EnvOpenAIAPIKey  = "OPENAI_API_KEY"
	EnvOpenAIBaseURL = "OPENAI_BASE_URL"
	EnvOpenAIModel   = "OPENAI_MODEL"
	EnvConcurrency   = "TRANSLATOR_CONCURRENCY"

	DefaultBaseURL        = "https://api.openai.com/v1"
	DefaultModel          = "gpt-4"
	DefaultTemperature    = 0.3
	DefaultTargetLanguage = "Korean"
	DefaultRequestTimeout = 120
	DefaultMaxAttempts    = 1
	DefaultRecentLimit    = 5

	DefaultMinTextChars     = 20
	DefaultOCRMinConfidence = 30
	DefaultOCRMinChars      = 50
	DefaultOCRMaxPages      = 10
	DefaultOCRLongEdge      = 2000

	DefaultChunkBudget        = 3000
	DefaultMinLineLength      = 2
	DefaultMinNormalizedChars = 10

	DefaultFontPath            = "public/fonts/NanumGothic.ttf"
	DefaultFontURL             = "https://fonts.gstatic.com/s/nanumgothic/v21/PN_3Rfi-oW3hYwmKDpxS7F_z_tLfxno73g.ttf"
	DefaultFontDownloadTimeout = 30
)

// DefaultOCRLanguages are the tesseract language packs used for recognition
var DefaultOCRLanguages = []string{"kor", "eng"}

// ConfigManager manages application configuration
type ConfigManager struct {
	configPath string
	config     *types.Config
}

// NewConfigManager creates a ConfigManager for configPath. An empty path
// resolves to ~/.config/pdf-translator/pdf-translator-config.json.
func NewConfigManager(configPath string) (*ConfigManager, error) {
	if configPath == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			logger.Error("failed to get user home directory", err)
			return nil, types.NewAppError(types.ErrConfig, "failed to get user home directory", err)
		}
		configPath = filepath.Join(homeDir, ".config", "pdf-translator", DefaultConfigFileName)
	}

	logger.Debug("ConfigManager initialized", logger.String("configPath", configPath))
	return &ConfigManager{
		configPath: configPath,
		config:     DefaultConfig(),
	}, nil
}

// DefaultConfig returns a Config with every field set to its default
func DefaultConfig() *types.Config {
	cfg := &types.Config{}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *types.Config) {
	if cfg.OpenAIBaseURL == "" {
		cfg.OpenAIBaseURL = DefaultBaseURL
	}
	if cfg.OpenAIModel == "" {
		cfg.OpenAIModel = DefaultModel
	}
	// an explicit 0 is a valid temperature, only a missing field is defaulted
	if cfg.Temperature == nil {
		t := float32(DefaultTemperature)
		cfg.Temperature = &t
	}
	if cfg.TargetLanguage == "" {
		cfg.TargetLanguage = DefaultTargetLanguage
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = DefaultRequestTimeout
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.RecentLimit <= 0 {
		cfg.RecentLimit = DefaultRecentLimit
	}

	ex := &cfg.Extraction
	if ex.MinTextChars <= 0 {
		ex.MinTextChars = DefaultMinTextChars
	}
	if ex.OCRMinConfidence <= 0 {
		ex.OCRMinConfidence = DefaultOCRMinConfidence
	}
	if ex.OCRMinChars <= 0 {
		ex.OCRMinChars = DefaultOCRMinChars
	}
	if ex.OCRMaxPages <= 0 {
		ex.OCRMaxPages = DefaultOCRMaxPages
	}
	if ex.OCRLongEdge <= 0 {
		ex.OCRLongEdge = DefaultOCRLongEdge
	}
	if len(ex.OCRLanguages) == 0 {
		ex.OCRLanguages = append([]string(nil), DefaultOCRLanguages...)
	}

	tx := &cfg.Text
	if tx.ChunkBudget <= 0 {
		tx.ChunkBudget = DefaultChunkBudget
	}
	if tx.MinLineLength <= 0 {
		tx.MinLineLength = DefaultMinLineLength
	}
	if tx.MinNormalizedChars <= 0 {
		tx.MinNormalizedChars = DefaultMinNormalizedChars
	}

	r := &cfg.Render
	if r.FontPath == "" {
		r.FontPath = DefaultFontPath
	}
	if r.FontURL == "" {
		r.FontURL = DefaultFontURL
	}
	if r.FontDownloadTimeout <= 0 {
		r.FontDownloadTimeout = DefaultFontDownloadTimeout
	}
}

// LoadDotEnv loads variables from the given .env files (default ".env")
// without overriding variables that are already set. Missing files are ignored.
func LoadDotEnv(files ...string) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !os.IsNotExist(err) {
			logger.Warn("failed to load env file", logger.String("file", f), logger.Err(err))
		}
	}
}

// Load reads the config file. A missing file or invalid JSON falls back to
// defaults; zero-valued fields are filled with defaults afterwards.
func (m *ConfigManager) Load() error {
	logger.Debug("loading configuration", logger.String("path", m.configPath))

	data, err := os.ReadFile(m.configPath)
	switch {
	case os.IsNotExist(err):
		logger.Info("config file not found, using defaults", logger.String("path", m.configPath))
		m.config = &types.Config{}
	case err != nil:
		logger.Error("failed to read config file", err, logger.String("path", m.configPath))
		return types.NewAppError(types.ErrConfig, "failed to read config file", err)
	default:
		cfg := &types.Config{}
		if err := json.Unmarshal(data, cfg); err != nil {
			logger.Warn("invalid config file format, using defaults",
				logger.String("path", m.configPath), logger.Err(err))
			cfg = &types.Config{}
		} else {
			logger.Info("configuration loaded",
				logger.String("path", m.configPath),
				logger.Int("apiKeyLength", len(cfg.OpenAIAPIKey)),
				logger.String("model", cfg.OpenAIModel))
		}
		m.config = cfg
	}

	applyDefaults(m.config)
	return nil
}

// Save writes the configuration as indented JSON with owner-only permissions
func (m *ConfigManager) Save() error {
	dir := filepath.Dir(m.configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		logger.Error("failed to create config directory", err, logger.String("dir", dir))
		return types.NewAppError(types.ErrConfig, "failed to create config directory", err)
	}

	data, err := json.MarshalIndent(m.config, "", "  ")
	if err != nil {
		return types.NewAppError(types.ErrConfig, "failed to marshal config", err)
	}

	if err := os.WriteFile(m.configPath, data, 0600); err != nil {
		logger.Error("failed to write config file", err, logger.String("path", m.configPath))
		return types.NewAppError(types.ErrConfig, "failed to write config file", err)
	}

	logger.Info("configuration saved", logger.String("path", m.configPath))
	return nil
}

// GetAPIKey returns the configured key, falling back to OPENAI_API_KEY.
// An empty result puts the translator into mock mode.
func (m *ConfigManager) GetAPIKey() string {
	if m.config != nil && m.config.OpenAIAPIKey != "" {
		return m.config.OpenAIAPIKey
	}
	return os.Getenv(EnvOpenAIAPIKey)
}

func (m *ConfigManager) SetAPIKey(key string) error {
	m.GetConfig().OpenAIAPIKey = key
	return m.Save()
}

// GetBaseURL prefers an explicit non-default config value, then
// OPENAI_BASE_URL, then the public endpoint.
func (m *ConfigManager) GetBaseURL() string {
	if m.config != nil && m.config.OpenAIBaseURL != "" && m.config.OpenAIBaseURL != DefaultBaseURL {
		return m.config.OpenAIBaseURL
	}
	if env := os.Getenv(EnvOpenAIBaseURL); env != "" {
		return env
	}
	return DefaultBaseURL
}

func (m *ConfigManager) GetModel() string {
	if m.config != nil && m.config.OpenAIModel != "" && m.config.OpenAIModel != DefaultModel {
		return m.config.OpenAIModel
	}
	if env := os.Getenv(EnvOpenAIModel); env != "" {
		return env
	}
	return DefaultModel
}

// GetConcurrency returns the in-flight request cap; 0 means unbounded
func (m *ConfigManager) GetConcurrency() int {
	if m.config != nil && m.config.Concurrency > 0 {
		return m.config.Concurrency
	}
	if env := os.Getenv(EnvConcurrency); env != "" {
		if n, err := strconv.Atoi(env); err == nil && n > 0 {
			return n
		}
		logger.Warn("ignoring invalid concurrency", logger.String("value", env))
	}
	return 0
}

func (m *ConfigManager) GetRequestTimeout() time.Duration {
	return time.Duration(m.GetConfig().RequestTimeout) * time.Second
}

// GetConfig returns the current configuration, never nil
func (m *ConfigManager) GetConfig() *types.Config {
	if m.config == nil {
		m.config = DefaultConfig()
	}
	return m.config
}

// SetConfig replaces the configuration, filling zero fields with defaults
func (m *ConfigManager) SetConfig(cfg *types.Config) {
	applyDefaults(cfg)
	m.config = cfg
}

func (m *ConfigManager) GetConfigPath() string {
	return m.configPath
}

func (m *ConfigManager) GetWorkDirectory() string {
	if m.config != nil && m.config.WorkDirectory != "" {
		return m.config.WorkDirectory
	}
	return "uploads"
}
