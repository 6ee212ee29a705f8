package cli

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/ppiankov/fcyf/internal/model"
)

// clearEnv unsets variables that would leak from the developer's shell
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"OPENAI_API_KEY", "ANTHROPIC_API_KEY", "GEMINI_API_KEY", "TAVILY_API_KEY",
		"OLLAMA_BASE_URL", "PORT", "HTTP_PROXY", "HTTPS_PROXY", "NO_PROXY",
		"FCYF_SERVER_ADDR", "FCYF_LLM_PROVIDER", "FCYF_LLM_MODEL", "FCYF_LLM_API_KEY",
		"FCYF_SEARCH_API_KEY", "FCYF_SEARCH_TIMEOUT", "FCYF_LLM_BASE_URL",
	} {
		t.Setenv(key, "")
	}
}

func newViper() *viper.Viper {
	v := viper.New()
	prepareViper(v)
	return v
}

func TestLoadConfig_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := loadConfig(newViper())
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}

	if !reflect.DeepEqual(model.DefaultConfig(), cfg) {
		t.Errorf("Expected defaults, got %+v", cfg)
	}
}

func TestLoadConfig_Env(t *testing.T) {
	clearEnv(t)
	t.Setenv("FCYF_SEARCH_TIMEOUT", "3s")
	t.Setenv("TAVILY_API_KEY", "tvly-123")
	t.Setenv("OPENAI_API_KEY", "sk-openai")
	t.Setenv("PORT", "8080")

	cfg, err := loadConfig(newViper())
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}

	if cfg.Search.Timeout != 3*time.Second {
		t.Errorf("Expected search timeout 3s, got %v", cfg.Search.Timeout)
	}
	if cfg.Search.APIKey != "tvly-123" {
		t.Errorf("Expected Tavily key from env, got %q", cfg.Search.APIKey)
	}
	if cfg.LLM.APIKey != "sk-openai" {
		t.Errorf("Expected OpenAI key from env, got %q", cfg.LLM.APIKey)
	}
	if cfg.Server.Addr != ":8080" {
		t.Errorf("Expected addr from PORT, got %q", cfg.Server.Addr)
	}
}

func TestLoadConfig_ProviderKey(t *testing.T) {
	clearEnv(t)
	t.Setenv("FCYF_LLM_PROVIDER", "anthropic")
	t.Setenv("OPENAI_API_KEY", "sk-openai")
	t.Setenv("ANTHROPIC_API_KEY", "sk-ant")

	cfg, err := loadConfig(newViper())
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}

	if cfg.LLM.APIKey != "sk-ant" {
		t.Errorf("Expected Anthropic key, got %q", cfg.LLM.APIKey)
	}
	if cfg.LLM.Model != "" {
		t.Errorf("OpenAI default model leaked to anthropic: %q", cfg.LLM.Model)
	}
}

func TestLoadConfig_ExplicitKeyWins(t *testing.T) {
	clearEnv(t)
	t.Setenv("FCYF_LLM_API_KEY", "explicit")
	t.Setenv("OPENAI_API_KEY", "sk-openai")

	cfg, err := loadConfig(newViper())
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.LLM.APIKey != "explicit" {
		t.Errorf("Expected explicit key, got %q", cfg.LLM.APIKey)
	}
}

func TestLoadConfig_File(t *testing.T) {
	clearEnv(t)
	t.Setenv("FCYF_LLM_MODEL", "gpt-4.1")

	path := filepath.Join(t.TempDir(), "config.yaml")
	err := os.WriteFile(path, []byte(`
server:
  addr: ":9000"
  rate_limit: 2.5
  trusted_proxies: ["10.0.0.0/8"]
search:
  provider: searxng
  base_url: http://searx.local
llm:
  model: gpt-4o-mini
  strict_evidence: true
authority:
  overrides:
    - domain: example.org
      tier: primary
`), 0o600)
	if err != nil {
		t.Fatalf("write config: %v", err)
	}

	v := newViper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		t.Fatalf("ReadInConfig: %v", err)
	}

	cfg, err := loadConfig(v)
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}

	if cfg.Server.Addr != ":9000" || cfg.Server.RateLimit != 2.5 {
		t.Errorf("Unexpected server config: %+v", cfg.Server)
	}
	if !reflect.DeepEqual(cfg.Server.TrustedProxies, []string{"10.0.0.0/8"}) {
		t.Errorf("Unexpected trusted proxies: %v", cfg.Server.TrustedProxies)
	}
	if cfg.Search.Provider != "searxng" || cfg.Search.BaseURL != "http://searx.local" {
		t.Errorf("Unexpected search config: %+v", cfg.Search)
	}
	if cfg.LLM.Model != "gpt-4.1" {
		t.Errorf("Env must beat the config file, got model %q", cfg.LLM.Model)
	}
	if !cfg.LLM.StrictEvidence {
		t.Error("Expected strict evidence from file")
	}
	want := []model.DomainOverride{{Domain: "example.org", Tier: "primary"}}
	if !reflect.DeepEqual(cfg.Authority.Overrides, want) {
		t.Errorf("Expected overrides %+v, got %+v", want, cfg.Authority.Overrides)
	}

	// Untouched sections keep their defaults
	if cfg.Search.Timeout != 15*time.Second || !cfg.Fallback.Enabled {
		t.Errorf("Expected defaults for untouched keys, got timeout=%v fallback=%v", cfg.Search.Timeout, cfg.Fallback.Enabled)
	}
}

func TestWriteDefaultConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	if err := writeDefaultConfig(path); err != nil {
		t.Fatalf("writeDefaultConfig: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read config: %v", err)
	}
	if !strings.HasPrefix(string(data), "# FCYF configuration") {
		t.Errorf("Expected header comment, got %q", strings.SplitN(string(data), "\n", 2)[0])
	}

	var cfg model.Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		t.Fatalf("yaml.Unmarshal: %v", err)
	}
	if !reflect.DeepEqual(*model.DefaultConfig(), cfg) {
		t.Errorf("Written config does not round-trip: %+v", cfg)
	}

	err = writeDefaultConfig(path)
	if err == nil || !strings.Contains(err.Error(), "already exists") {
		t.Errorf("Expected refusal to overwrite, got %v", err)
	}
}

func TestRedact(t *testing.T) {
	cfg := model.DefaultConfig()
	cfg.LLM.APIKey = "sk-abcdefghijklmnop"
	cfg.Search.APIKey = "short"

	out := redact(cfg)
	if out.LLM.APIKey != "sk-a****op" {
		t.Errorf("Unexpected masked LLM key %q", out.LLM.APIKey)
	}
	if out.Search.APIKey != "****" {
		t.Errorf("Unexpected masked search key %q", out.Search.APIKey)
	}
	if cfg.LLM.APIKey != "sk-abcdefghijklmnop" {
		t.Error("Input must not be modified")
	}
}

func TestFlattenConfig(t *testing.T) {
	keys, err := flattenConfig(model.DefaultConfig())
	if err != nil {
		t.Fatalf("flattenConfig: %v", err)
	}

	if keys["server.addr"] != ":3030" || keys["search.provider"] != "tavily" {
		t.Errorf("Unexpected flattened values: addr=%v provider=%v", keys["server.addr"], keys["search.provider"])
	}
	if _, ok := keys["authority.primary_domains"]; !ok {
		t.Error("Expected authority.primary_domains key")
	}
	if _, ok := keys["llm.api_key"]; ok {
		t.Error("Empty api_key must not be flattened")
	}
}
