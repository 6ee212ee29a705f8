package model

import "time"

// Config is the complete FCYF configuration.
// Hierarchy: flags > env (FCYF_*) > ~/.fcyf/config.yaml > DefaultConfig.
type Config struct {
	Server    ServerConfig    `mapstructure:"server" yaml:"server"`
	Search    SearchConfig    `mapstructure:"search" yaml:"search"`
	Fallback  FallbackConfig  `mapstructure:"fallback" yaml:"fallback"`
	LLM       LLMConfig       `mapstructure:"llm" yaml:"llm"`
	HTTP      HTTPConfig      `mapstructure:"http" yaml:"http"`
	Authority AuthorityConfig `mapstructure:"authority" yaml:"authority"`
	Logging   LoggingConfig   `mapstructure:"logging" yaml:"logging"`
	Batch     BatchConfig     `mapstructure:"batch" yaml:"batch"`
}

// ServerConfig configures the HTTP API
type ServerConfig struct {
	Addr            string        `mapstructure:"addr" yaml:"addr"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout" yaml:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	MaxBodyBytes    int64         `mapstructure:"max_body_bytes" yaml:"max_body_bytes"`
	RateLimit       float64       `mapstructure:"rate_limit" yaml:"rate_limit"` // requests/sec per client, 0 = off
	RateBurst       int           `mapstructure:"rate_burst" yaml:"rate_burst"`
	CORSOrigins     []string      `mapstructure:"cors_origins" yaml:"cors_origins"`

	// TrustedProxies are the CIDRs or IPs allowed to set X-Forwarded-For.
	// Empty means the client IP is always the peer address.
	TrustedProxies []string `mapstructure:"trusted_proxies" yaml:"trusted_proxies,omitempty"`
}

// SearchConfig configures the primary evidence provider
type SearchConfig struct {
	Provider    string        `mapstructure:"provider" yaml:"provider"` // tavily, searxng
	APIKey      string        `mapstructure:"api_key" yaml:"api_key,omitempty"`
	BaseURL     string        `mapstructure:"base_url" yaml:"base_url"`
	SearchDepth string        `mapstructure:"search_depth" yaml:"search_depth"`
	MaxResults  int           `mapstructure:"max_results" yaml:"max_results"`
	Timeout     time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// FallbackConfig configures the reference-summary fallback
type FallbackConfig struct {
	Enabled bool          `mapstructure:"enabled" yaml:"enabled"`
	BaseURL string        `mapstructure:"base_url" yaml:"base_url"`
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// LLMConfig configures the summarization backend
type LLMConfig struct {
	Provider    string        `mapstructure:"provider" yaml:"provider"` // openai, anthropic, ollama, gemini
	Model       string        `mapstructure:"model" yaml:"model"`
	APIKey      string        `mapstructure:"api_key" yaml:"api_key,omitempty"`
	BaseURL     string        `mapstructure:"base_url" yaml:"base_url,omitempty"`
	Timeout     time.Duration `mapstructure:"timeout" yaml:"timeout"`
	MaxTokens   int           `mapstructure:"max_tokens" yaml:"max_tokens"`
	Temperature float32       `mapstructure:"temperature" yaml:"temperature"`

	// StrictEvidence drops cited sources whose URL is not in the evidence list
	StrictEvidence bool `mapstructure:"strict_evidence" yaml:"strict_evidence"`
}

// HTTPConfig holds settings shared by every outbound client
type HTTPConfig struct {
	UserAgent  string `mapstructure:"user_agent" yaml:"user_agent"`
	MaxBytes   int64  `mapstructure:"max_bytes" yaml:"max_bytes"`
	HTTPProxy  string `mapstructure:"http_proxy" yaml:"http_proxy,omitempty"`
	HTTPSProxy string `mapstructure:"https_proxy" yaml:"https_proxy,omitempty"`
	NoProxy    string `mapstructure:"no_proxy" yaml:"no_proxy,omitempty"`
}

// AuthorityConfig drives evidence tier labels
type AuthorityConfig struct {
	PrimaryDomains   []string         `mapstructure:"primary_domains" yaml:"primary_domains"`
	SecondaryDomains []string         `mapstructure:"secondary_domains" yaml:"secondary_domains"`
	Overrides        []DomainOverride `mapstructure:"overrides" yaml:"overrides,omitempty"`
}

// DomainOverride pins an exact host to a tier (primary, secondary, tertiary).
// It is a list rather than a map because config keys cannot contain dots.
type DomainOverride struct {
	Domain string `mapstructure:"domain" yaml:"domain"`
	Tier   string `mapstructure:"tier" yaml:"tier"`
}

// LoggingConfig configures zap
type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`   // debug, info, warn, error
	Format string `mapstructure:"format" yaml:"format"` // json, console
}

// BatchConfig configures `fcyf batch`
type BatchConfig struct {
	Concurrency int           `mapstructure:"concurrency" yaml:"concurrency"`
	Timeout     time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":3030",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    90 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			MaxBodyBytes:    1 << 20,
			RateBurst:       5,
			CORSOrigins:     []string{"*"},
		},
		Search: SearchConfig{
			Provider:    "tavily",
			BaseURL:     "https://api.tavily.com",
			SearchDepth: "basic",
			MaxResults:  6,
			Timeout:     15 * time.Second,
		},
		Fallback: FallbackConfig{
			Enabled: true,
			BaseURL: "https://en.wikipedia.org",
			Timeout: 10 * time.Second,
		},
		LLM: LLMConfig{
			Provider:    "openai",
			Model:       "gpt-4.1-mini",
			Timeout:     30 * time.Second,
			MaxTokens:   800,
			Temperature: 0.1,
		},
		HTTP: HTTPConfig{
			UserAgent: "FCYF/0.1 (+https://github.com/ppiankov/fcyf)",
			MaxBytes:  2_000_000,
		},
		Authority: AuthorityConfig{
			PrimaryDomains: []string{
				"gov", "edu", "ac.uk", "gov.uk", "europa.eu", "who.int",
				"nih.gov", "doi.org", "arxiv.org", "nature.com", "science.org",
			},
			SecondaryDomains: []string{
				"wikipedia.org", "britannica.com", "reuters.com", "apnews.com",
				"bbc.co.uk", "bbc.com", "nytimes.com", "theguardian.com",
				"npr.org", "snopes.com", "factcheck.org", "politifact.com",
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Batch: BatchConfig{
			Concurrency: 4,
			Timeout:     10 * time.Minute,
		},
	}
}
