package common

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration
type Config struct {
	Server  ServerConfig
	LLM     LLMConfig
	Extract ExtractConfig
	Report  ReportConfig
}

// ServerConfig holds HTTP host configuration
type ServerConfig struct {
	Addr        string `envconfig:"HTTP_ADDR" default:":8080"`
	MaxUploadMB int64  `envconfig:"MAX_UPLOAD_MB" default:"50"`
}

// LLMConfig holds extraction-adapter configuration
type LLMConfig struct {
	APIKey      string        `envconfig:"OPENAI_API_KEY"`
	BaseURL     string        `envconfig:"OPENAI_BASE_URL" default:"https://api.openai.com/v1"`
	Model       string        `envconfig:"OPENAI_MODEL" default:"gpt-4o"`
	Temperature float32       `envconfig:"OPENAI_TEMPERATURE" default:"0.1"`
	Timeout     time.Duration `envconfig:"OPENAI_TIMEOUT" default:"45s"`
}

// ExtractConfig holds review-machine tunables.
type ExtractConfig struct {
	// PageWindow is how many leading pages of each paper feed the extraction
	// call. The observed workflow used a fixed 3; kept configurable.
	PageWindow int `envconfig:"EXTRACT_PAGE_WINDOW" default:"3"`
	// CallDelay is the fixed inter-call pause between batch extractions,
	// the only rate limiting toward the extraction adapter.
	CallDelay time.Duration `envconfig:"EXTRACT_CALL_DELAY" default:"1s"`
}

// ReportConfig holds report-assembly settings.
type ReportConfig struct {
	Title         string `envconfig:"REPORT_TITLE" default:"SPE Literature Deep-Analysis Report"`
	FigureWidthPx int    `envconfig:"REPORT_FIGURE_WIDTH_PX" default:"360"`
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	var c Config
	if err := envconfig.Process("", &c); err != nil {
		return nil, WrapError(err, "load config")
	}
	return &c, nil
}
