package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"pdf-translator/internal/config"
	"pdf-translator/internal/logger"
	"pdf-translator/internal/pipeline"
	"pdf-translator/internal/results"
	"pdf-translator/internal/types"
)

// App ties configuration, the translation pipeline and the result store
// together for the command line.
type App struct {
	ctx     context.Context
	config  *config.ConfigManager
	service *pipeline.Service
	results *results.ResultManager
	workDir string

	// Cancellation support
	mu         sync.Mutex
	cancelFunc context.CancelFunc
}

// NewApp creates an App using the default config location
func NewApp() *App {
	return &App{}
}

// NewAppWithConfig creates an App with a custom config path.
// This is useful for testing or when a specific configuration location is needed.
func NewAppWithConfig(configPath string) (*App, error) {
	configMgr, err := config.NewConfigManager(configPath)
	if err != nil {
		return nil, err
	}
	return &App{config: configMgr}, nil
}

// startup loads configuration and builds the pipeline. Options override the
// default stages, which tests use to avoid OCR and font downloads.
func (a *App) startup(ctx context.Context, opts ...pipeline.Option) error {
	a.ctx = ctx
	logger.Info("application starting up")

	if a.config == nil {
		configMgr, err := config.NewConfigManager("")
		if err != nil {
			return err
		}
		a.config = configMgr
	}

	if err := a.config.Load(); err != nil {
		// Continue with defaults if config load fails
		logger.Warn("failed to load config, using defaults", logger.Err(err))
	}

	if err := a.initWorkDir(); err != nil {
		return types.NewAppError(types.ErrStorage, "failed to initialize work directory", err)
	}

	store, err := results.NewResultManager(a.workDir)
	if err != nil {
		return err
	}
	a.results = store

	cfg := a.effectiveConfig()
	logger.Info("pipeline configuration",
		logger.String("baseURL", cfg.OpenAIBaseURL),
		logger.String("model", cfg.OpenAIModel),
		logger.Int("apiKeyLength", len(cfg.OpenAIAPIKey)),
		logger.Int("concurrency", cfg.Concurrency),
		logger.String("workDir", a.workDir))

	svc, err := pipeline.New(ctx, cfg, append([]pipeline.Option{pipeline.WithStore(store)}, opts...)...)
	if err != nil {
		return err
	}
	a.service = svc

	if svc.Degraded() {
		logger.Warn("no API key configured, translations will be mocked")
	}
	return nil
}

// effectiveConfig returns a copy of the loaded config with environment
// fallbacks resolved
func (a *App) effectiveConfig() *types.Config {
	cfg := *a.config.GetConfig()
	cfg.OpenAIAPIKey = a.config.GetAPIKey()
	cfg.OpenAIBaseURL = a.config.GetBaseURL()
	cfg.OpenAIModel = a.config.GetModel()
	cfg.Concurrency = a.config.GetConcurrency()
	if cfg.CacheFile != "" && !filepath.IsAbs(cfg.CacheFile) {
		cfg.CacheFile = filepath.Join(a.workDir, cfg.CacheFile)
	}
	return &cfg
}

func (a *App) shutdown() {
	logger.Info("application shutdown complete")
}

// initWorkDir uses the configured work directory, "uploads" by default
func (a *App) initWorkDir() error {
	a.workDir = a.config.GetWorkDirectory()
	return os.MkdirAll(a.workDir, 0755)
}

func (a *App) GetConfig() *config.ConfigManager {
	return a.config
}

func (a *App) GetWorkDir() string {
	return a.workDir
}

// TranslatePDF reads a PDF file and runs it through the pipeline. A failed
// outcome is returned as its AppError.
func (a *App) TranslatePDF(path string) (*pipeline.Outcome, error) {
	if a.service == nil {
		return nil, types.NewAppError(types.ErrInternal, "application not started", nil)
	}
	if strings.ToLower(filepath.Ext(path)) != ".pdf" {
		return nil, types.NewAppError(types.ErrInvalidInput, "not a PDF file: "+filepath.Base(path), nil)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, types.NewAppError(types.ErrFileNotFound, "file not found: "+path, err)
		}
		return nil, types.NewAppError(types.ErrInvalidInput, "failed to read file", err)
	}

	ctx, cancel := context.WithCancel(a.context())
	a.mu.Lock()
	a.cancelFunc = cancel
	a.mu.Unlock()
	defer func() {
		a.mu.Lock()
		a.cancelFunc = nil
		a.mu.Unlock()
		cancel()
	}()

	out := a.service.Process(ctx, filepath.Base(path), data)
	if !out.Success {
		return out, out.Error
	}
	return out, nil
}

// CancelProcess aborts the running translation, if any
func (a *App) CancelProcess() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.cancelFunc == nil {
		return types.NewAppError(types.ErrInvalidInput, "no translation in progress", nil)
	}
	a.cancelFunc()
	return nil
}

// ExportTranslated copies the translated PDF of id into dir and returns the
// written path
func (a *App) ExportTranslated(id, fileName, dir string) (string, error) {
	data, err := a.results.ReadTranslated(id)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", types.NewAppError(types.ErrStorage, "failed to create output directory", err)
	}

	base := strings.TrimSuffix(filepath.Base(fileName), filepath.Ext(fileName))
	if base == "" {
		base = id
	}
	dest := filepath.Join(dir, base+"-translated.pdf")
	if err := os.WriteFile(dest, data, 0644); err != nil {
		return "", types.NewAppError(types.ErrStorage, "failed to write translated PDF", err)
	}
	logger.Info("translated PDF exported", logger.String("path", dest))
	return dest, nil
}

// ListRecent returns the most recently stored documents; limit <= 0 uses
// the configured RecentLimit
func (a *App) ListRecent(limit int) ([]*results.DocumentInfo, error) {
	if a.results == nil {
		return nil, types.NewAppError(types.ErrInternal, "application not started", nil)
	}
	if limit <= 0 {
		limit = a.config.GetConfig().RecentLimit
	}
	return a.results.ListDocuments(limit)
}

func (a *App) context() context.Context {
	if a.ctx == nil {
		return context.Background()
	}
	return a.ctx
}

// describeOutcome formats an outcome for the terminal
func describeOutcome(out *pipeline.Outcome) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "ID: %s\n", out.ID)
	if out.Reused {
		sb.WriteString("Reused an earlier translation of the same file\n")
	}
	if out.Unextractable {
		sb.WriteString("No text could be extracted; the output explains why\n")
	}
	fmt.Fprintf(&sb, "Pages: %d (method: %s)\n", out.PageCount, out.Method)
	fmt.Fprintf(&sb, "Chunks: %d, failed: %d\n", out.Chunks, out.FailedChunks)
	if out.Degraded {
		sb.WriteString("Mock translation (no API key configured)\n")
	}
	fmt.Fprintf(&sb, "Output pages: %d\n", out.OutputPages)
	fmt.Fprintf(&sb, "Original: %s\n", out.OriginalRef)
	fmt.Fprintf(&sb, "Translated: %s\n", out.TranslatedRef)
	return sb.String()
}
