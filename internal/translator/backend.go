// Package translator sends text chunks to a chat-completion backend and
// collects the translations in order, isolating per-chunk failures.
package translator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"pdf-translator/internal/logger"
	"pdf-translator/internal/types"
)

const (
	DefaultModel          = "gpt-4"
	DefaultTemperature    = float32(0.3)
	DefaultTargetLanguage = "Korean"
	DefaultTimeout        = 120 * time.Second
)

// Backend translates one piece of text
type Backend interface {
	Translate(ctx context.Context, text string) (string, error)
}

// BackendConfig configures the chat-completion backend
type BackendConfig struct {
	APIKey         string
	BaseURL        string
	Model          string
	Temperature    float32
	TargetLanguage string
	Timeout        time.Duration
}

// ChatBackend translates through an OpenAI-compatible chat model
type ChatBackend struct {
	chat         model.BaseChatModel
	modelName    string
	systemPrompt string
}

// NewChatBackend creates the eino OpenAI chat model. An empty API key is
// rejected: callers without a credential run the translator in mock mode.
func NewChatBackend(ctx context.Context, cfg BackendConfig) (*ChatBackend, error) {
	if cfg.APIKey == "" {
		return nil, types.NewAppError(types.ErrConfig, "API key is not set", nil)
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.TargetLanguage == "" {
		cfg.TargetLanguage = DefaultTargetLanguage
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	temperature := cfg.Temperature

	chatCfg := &openai.ChatModelConfig{
		APIKey:      cfg.APIKey,
		Model:       cfg.Model,
		Temperature: &temperature,
		Timeout:     cfg.Timeout,
	}
	if cfg.BaseURL != "" {
		chatCfg.BaseURL = strings.TrimSuffix(strings.TrimSuffix(cfg.BaseURL, "/"), "/chat/completions")
	}

	chat, err := openai.NewChatModel(ctx, chatCfg)
	if err != nil {
		return nil, types.NewAppError(types.ErrConfig, "failed to create chat model", err)
	}

	logger.Info("chat backend ready",
		logger.String("model", cfg.Model),
		logger.String("baseURL", chatCfg.BaseURL),
		logger.String("targetLanguage", cfg.TargetLanguage))

	return &ChatBackend{
		chat:         chat,
		modelName:    cfg.Model,
		systemPrompt: SystemPrompt(cfg.TargetLanguage),
	}, nil
}

// SystemPrompt is the instruction that fixes the target language
func SystemPrompt(language string) string {
	return fmt.Sprintf("You are a professional translator. Translate the following text to %[1]s while "+
		"maintaining the original formatting and structure. Keep any technical terms or proper nouns "+
		"in their original form if necessary. The target language is %[1]s.", language)
}

func (b *ChatBackend) Translate(ctx context.Context, text string) (string, error) {
	resp, err := b.chat.Generate(ctx, []*schema.Message{
		schema.SystemMessage(b.systemPrompt),
		schema.UserMessage(text),
	})
	if err != nil {
		return "", classifyError(err)
	}
	if resp == nil || strings.TrimSpace(resp.Content) == "" {
		return "", types.NewAppError(types.ErrTranslation, "API returned an empty translation", nil)
	}
	return resp.Content, nil
}

// classifyError maps a chat model error onto an AppError code. The model
// client reports HTTP failures only through the error text.
func classifyError(err error) *types.AppError {
	var appErr *types.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return types.NewAppError(types.ErrTranslation, "translation cancelled", err)
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "429") || strings.Contains(msg, "rate limit"):
		return types.NewAppError(types.ErrAPIRateLimit, "API rate limit exceeded", err)
	case strings.Contains(msg, "401") || strings.Contains(msg, "unauthorized") || strings.Contains(msg, "invalid api key"):
		return types.NewAppErrorWithDetails(types.ErrAPICall, "API authentication failed", "invalid API key or unauthorized access", err)
	case strings.Contains(msg, "status code: 5") || strings.Contains(msg, "bad gateway") ||
		strings.Contains(msg, "service unavailable") || strings.Contains(msg, "internal server error"):
		return types.NewAppError(types.ErrAPICall, "API server error", err)
	case strings.Contains(msg, "connection") || strings.Contains(msg, "timeout") ||
		strings.Contains(msg, "eof") || strings.Contains(msg, "reset by peer") || strings.Contains(msg, "no such host"):
		return types.NewAppError(types.ErrNetwork, "network error calling API", err)
	default:
		return types.NewAppError(types.ErrAPICall, "API request failed", err)
	}
}

// isRetryable reports whether another attempt may succeed: rate limits,
// server errors and network failures
func isRetryable(err error) bool {
	var appErr *types.AppError
	if !errors.As(err, &appErr) {
		return false
	}
	switch appErr.Code {
	case types.ErrAPIRateLimit, types.ErrNetwork:
		return true
	case types.ErrAPICall:
		return appErr.Message == "API server error"
	}
	return false
}

// backoffDelay doubles base with each attempt, capped at limit
func backoffDelay(base, limit time.Duration, attempt int) time.Duration {
	if attempt > 16 {
		return limit
	}
	delay := base * time.Duration(1<<uint(attempt-1))
	if delay > limit || delay <= 0 {
		delay = limit
	}
	return delay
}

func (b *ChatBackend) Model() string {
	return b.modelName
}
