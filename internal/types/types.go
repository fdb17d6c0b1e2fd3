// Package types defines the configuration and error types shared by the PDF
// translator packages.
package types

// Config is the persisted application configuration
type Config struct {
	OpenAIAPIKey   string   `json:"openai_api_key"`
	OpenAIBaseURL  string   `json:"openai_base_url"` // OpenAI-compatible endpoint
	OpenAIModel    string   `json:"openai_model"`
	Temperature    *float32 `json:"temperature,omitempty"`
	TargetLanguage string   `json:"target_language"`
	// Concurrency caps in-flight translation requests; 0 sends every chunk at once
	Concurrency    int `json:"concurrency"`
	RequestTimeout int `json:"request_timeout_seconds"`
	MaxAttempts    int `json:"max_attempts"`
	// CacheFile persists chunk translations between runs when set
	CacheFile     string `json:"cache_file"`
	WorkDirectory string `json:"work_directory"`
	LogLevel      string `json:"log_level"`
	RecentLimit   int    `json:"recent_limit"`

	Extraction ExtractionConfig `json:"extraction"`
	Text       TextConfig       `json:"text"`
	Render     RenderConfig     `json:"render"`
}

// ExtractionConfig tunes the native/OCR fallback chain
type ExtractionConfig struct {
	MinTextChars     int      `json:"min_text_chars"`
	OCRMinConfidence float64  `json:"ocr_min_confidence"`
	OCRMinChars      int      `json:"ocr_min_chars"`
	OCRMaxPages      int      `json:"ocr_max_pages"`
	OCRLongEdge      int      `json:"ocr_long_edge_px"`
	OCRLanguages     []string `json:"ocr_languages"`
}

// TextConfig tunes normalization and chunking
type TextConfig struct {
	ChunkBudget        int  `json:"chunk_budget"`
	MinLineLength      int  `json:"min_line_length"`
	MinNormalizedChars int  `json:"min_normalized_chars"`
	PreserveParagraphs bool `json:"preserve_paragraphs"`
	// ExtraRepairs are applied after the built-in mojibake table
	ExtraRepairs []Replacement `json:"extra_repairs,omitempty"`
}

// Replacement is one find/replace pair of the repair table
type Replacement struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// RenderConfig controls font resolution for generated documents
type RenderConfig struct {
	FontPath string `json:"font_path"`
	FontURL  string `json:"font_url"`
	// FontDownloadTimeout is in seconds
	FontDownloadTimeout int `json:"font_download_timeout_seconds"`
}

// ErrorCode identifies a class of user-visible failure
type ErrorCode string

const (
	ErrNetwork      ErrorCode = "NETWORK_ERROR"
	ErrFileNotFound ErrorCode = "FILE_NOT_FOUND"
	ErrInvalidInput ErrorCode = "INVALID_INPUT"
	ErrExtract      ErrorCode = "EXTRACT_ERROR"
	ErrAPICall      ErrorCode = "API_CALL_ERROR"
	ErrAPIRateLimit ErrorCode = "API_RATE_LIMIT"
	ErrTranslation  ErrorCode = "TRANSLATION_ERROR"
	ErrRender       ErrorCode = "RENDER_ERROR"
	ErrStorage      ErrorCode = "STORAGE_ERROR"
	ErrConfig       ErrorCode = "CONFIG_ERROR"
	ErrInternal     ErrorCode = "INTERNAL_ERROR"
)

// AppError is the structured {code, message} payload returned to callers
type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Details string    `json:"details,omitempty"`
	Cause   error     `json:"-"`
}

func (e *AppError) Error() string {
	if e.Details != "" {
		return e.Message + ": " + e.Details
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// NewAppError creates an AppError with an optional cause
func NewAppError(code ErrorCode, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

func NewAppErrorWithDetails(code ErrorCode, message, details string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Details: details,
		Cause:   cause,
	}
}
