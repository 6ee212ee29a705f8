package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/ppiankov/fcyf/internal/llm"
	"github.com/ppiankov/fcyf/internal/model"
	"github.com/ppiankov/fcyf/internal/search"
)

// providerKeyEnv maps an LLM provider to the conventional API key variable
var providerKeyEnv = map[string]string{
	"openai":    "OPENAI_API_KEY",
	"anthropic": "ANTHROPIC_API_KEY",
	"claude":    "ANTHROPIC_API_KEY",
	"gemini":    "GEMINI_API_KEY",
	"google":    "GEMINI_API_KEY",
}

// prepareViper registers defaults and environment bindings.
// Every key of DefaultConfig becomes reachable as FCYF_<SECTION>_<KEY>.
func prepareViper(v *viper.Viper) {
	v.SetEnvPrefix("FCYF")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults, err := flattenConfig(model.DefaultConfig())
	if err == nil {
		for key, value := range defaults {
			v.SetDefault(key, value)
		}
	}

	// Keys with no default and conventional third-party variable names
	_ = v.BindEnv("search.api_key", "FCYF_SEARCH_API_KEY", "TAVILY_API_KEY")
	_ = v.BindEnv("llm.api_key", "FCYF_LLM_API_KEY")
	_ = v.BindEnv("llm.base_url", "FCYF_LLM_BASE_URL", "OLLAMA_BASE_URL")
	_ = v.BindEnv("http.http_proxy", "FCYF_HTTP_HTTP_PROXY", "HTTP_PROXY")
	_ = v.BindEnv("http.https_proxy", "FCYF_HTTP_HTTPS_PROXY", "HTTPS_PROXY")
	_ = v.BindEnv("http.no_proxy", "FCYF_HTTP_NO_PROXY", "NO_PROXY")
}

// loadConfig resolves flags > env > config file > defaults into a model.Config
func loadConfig(v *viper.Viper) (*model.Config, error) {
	cfg := model.DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if cfg.LLM.APIKey == "" {
		if env, ok := providerKeyEnv[strings.ToLower(cfg.LLM.Provider)]; ok {
			cfg.LLM.APIKey = os.Getenv(env)
		}
	}

	// PORT only replaces the default address
	if port := os.Getenv("PORT"); port != "" && cfg.Server.Addr == model.DefaultConfig().Server.Addr {
		cfg.Server.Addr = ":" + port
	}

	// A model name left over from another provider's default is dropped
	if cfg.LLM.Model == model.DefaultConfig().LLM.Model && !isOpenAI(cfg.LLM.Provider) {
		cfg.LLM.Model = ""
	}

	return cfg, nil
}

func isOpenAI(provider string) bool {
	p := strings.ToLower(provider)
	return p == "" || p == "openai"
}

// flattenConfig renders cfg as dotted viper keys
func flattenConfig(cfg *model.Config) (map[string]interface{}, error) {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, err
	}

	var tree map[string]interface{}
	if err := yaml.Unmarshal(data, &tree); err != nil {
		return nil, err
	}

	out := make(map[string]interface{})
	flatten("", tree, out)
	return out, nil
}

func flatten(prefix string, tree map[string]interface{}, out map[string]interface{}) {
	for key, value := range tree {
		full := key
		if prefix != "" {
			full = prefix + "." + key
		}
		if child, ok := value.(map[string]interface{}); ok && len(child) > 0 {
			flatten(full, child, out)
			continue
		}
		out[full] = value
	}
}

// redact hides secrets before the config is printed
func redact(cfg *model.Config) *model.Config {
	out := *cfg
	out.Search.APIKey = mask(cfg.Search.APIKey)
	out.LLM.APIKey = mask(cfg.LLM.APIKey)
	return &out
}

func mask(secret string) string {
	if secret == "" {
		return ""
	}
	if len(secret) <= 8 {
		return "****"
	}
	return secret[:4] + "****" + secret[len(secret)-2:]
}

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage FCYF configuration",
	Long: `Manage FCYF configuration files and settings.

Configuration hierarchy (highest to lowest priority):
1. CLI flags
2. Environment variables (FCYF_*, plus OPENAI_API_KEY, ANTHROPIC_API_KEY,
   GEMINI_API_KEY, TAVILY_API_KEY, PORT)
3. Config file (~/.fcyf/config.yaml)
4. Defaults`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Long:  `Display the configuration after merging defaults, config file, env vars and flags. API keys are masked.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(viper.GetViper())
		if err != nil {
			return err
		}

		if configFile := viper.ConfigFileUsed(); configFile != "" {
			fmt.Fprintf(os.Stderr, "Configuration file: %s\n\n", configFile)
		} else {
			fmt.Fprintf(os.Stderr, "No configuration file found (using defaults)\n\n")
		}

		yamlData, err := yaml.Marshal(redact(cfg))
		if err != nil {
			return fmt.Errorf("error marshaling config: %w", err)
		}

		_, err = cmd.OutOrStdout().Write(yamlData)
		return err
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default configuration file",
	Long:  `Create a default configuration file at ~/.fcyf/config.yaml (or --config) with every option.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath := cfgFile
		if configPath == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return fmt.Errorf("error finding home directory: %w", err)
			}
			configPath = filepath.Join(home, ".fcyf", "config.yaml")
		}

		if err := writeDefaultConfig(configPath); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "✓ Created default configuration: %s\n", configPath)
		fmt.Fprintf(cmd.OutOrStdout(), "\nTo view the effective configuration:\n  fcyf config show\n")
		return nil
	},
}

// writeDefaultConfig writes DefaultConfig as commented YAML; it never overwrites
func writeDefaultConfig(configPath string) (err error) {
	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("config file already exists: %s\nUse 'fcyf config show' to view it, or delete it first to recreate", configPath)
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	yamlData, err := yaml.Marshal(model.DefaultConfig())
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	var b strings.Builder
	b.WriteString("# FCYF configuration\n")
	b.WriteString("#\n")
	b.WriteString("# Configuration hierarchy (highest to lowest priority):\n")
	b.WriteString("#   1. CLI flags\n")
	b.WriteString("#   2. Environment variables (FCYF_*)\n")
	b.WriteString("#   3. This config file\n")
	b.WriteString("#   4. Built-in defaults\n\n")
	b.Write(yamlData)
	b.WriteString("\n# API keys are best kept in the environment or a .env file:\n")
	b.WriteString("#   TAVILY_API_KEY=tvly-...\n")
	b.WriteString("#   OPENAI_API_KEY=sk-...\n")
	b.WriteString("#   ANTHROPIC_API_KEY=sk-ant-...\n")
	b.WriteString("#   GEMINI_API_KEY=...\n")
	b.WriteString("#   OLLAMA_BASE_URL=http://localhost:11434\n")

	if err := os.WriteFile(configPath, []byte(b.String()), 0o600); err != nil {
		return fmt.Errorf("error writing config: %w", err)
	}
	return nil
}

var configCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Check that the configured providers are reachable",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadRuntime()
		if err != nil {
			return err
		}
		defer func() { _ = logger.Sync() }()

		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		defer cancel()

		out := cmd.OutOrStdout()
		failed := false

		provider, err := search.NewProvider(search.ConfigFromModel(cfg))
		switch {
		case err != nil:
			failed = true
			fmt.Fprintf(out, "✗ search: %v\n", err)
		default:
			if tavily, ok := provider.(*search.TavilyProvider); ok && tavily.Configured() != nil {
				fmt.Fprintf(out, "! search: %s has no API key, every claim will use the fallback\n", provider.Name())
			} else {
				fmt.Fprintf(out, "✓ search: %s\n", provider.Name())
			}
		}

		summarizer, err := llm.NewSummarizer(llm.ConfigFromModel(cfg), logger)
		if err != nil {
			failed = true
			fmt.Fprintf(out, "✗ llm: %v\n", err)
		} else if err := summarizer.Ping(ctx); err != nil {
			failed = true
			fmt.Fprintf(out, "✗ llm: %s unreachable: %v\n", summarizer.ProviderName(), err)
		} else {
			fmt.Fprintf(out, "✓ llm: %s\n", summarizer.ProviderName())
		}

		if failed {
			return fmt.Errorf("configuration check failed")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configCheckCmd)
}
