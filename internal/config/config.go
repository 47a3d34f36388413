package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	LLM     LLMConfig     `mapstructure:"llm"`
	Search  SearchConfig  `mapstructure:"search"`
	Logging LoggingConfig `mapstructure:"logging"`
	Storage StorageConfig `mapstructure:"storage"`
}

// LLMConfig represents the Responses API endpoint configuration
type LLMConfig struct {
	BaseURL string `mapstructure:"base_url"`
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
	Timeout int    `mapstructure:"timeout"`
}

// SearchConfig represents web search configuration
type SearchConfig struct {
	Default    string                    `mapstructure:"default"` // Default provider name
	Region     string                    `mapstructure:"region"`
	MaxResults int                       `mapstructure:"max_results"`
	ToolPolicy string                    `mapstructure:"tool_policy"` // "forced" or "auto"
	Providers  map[string]ProviderConfig `mapstructure:"providers"`
}

// ProviderConfig represents a generic search provider configuration
type ProviderConfig struct {
	Type       string `mapstructure:"type"` // "duckduckgo", "firecrawl", "mcp"
	BaseURL    string `mapstructure:"base_url"`
	APIKey     string `mapstructure:"api_key"`
	ToolName   string `mapstructure:"tool_name"`   // MCP: tool name to call
	QueryParam string `mapstructure:"query_param"` // MCP: query parameter name
	Timeout    int    `mapstructure:"timeout"`
}

type StorageConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"` // Database path, default ./data/transcripts.db
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

func Load(cfgFile string) *Config {
	// Load .env file if exists (ignore error if not found)
	godotenv.Load()
	godotenv.Load(".env.local")

	v := viper.New()

	setDefaults(v)

	// Configure environment variable handling
	// Replace . with _ for nested config keys
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetEnvPrefix("GROUNDER")
	v.AutomaticEnv()

	// Read config file
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("../configs")
	}

	if err := v.ReadInConfig(); err != nil {
		// Config file not found is ok, use defaults
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			panic("Error reading config file: " + err.Error())
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		panic("Error unmarshaling config: " + err.Error())
	}

	// The OpenAI variables from the original workflow take precedence over
	// file defaults but not over explicit GROUNDER_ settings
	if cfg.LLM.APIKey == "" {
		cfg.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if cfg.LLM.Model == "" {
		cfg.LLM.Model = os.Getenv("OPENAI_MODEL_NAME")
	}
	if cfg.LLM.Model == "" {
		cfg.LLM.Model = "gpt-4o"
	}

	return &cfg
}

// Validate checks fatal startup preconditions
func (c *Config) Validate() error {
	if c.LLM.APIKey == "" {
		return fmt.Errorf("missing API key: set OPENAI_API_KEY or llm.api_key")
	}
	if c.Search.ToolPolicy != "forced" && c.Search.ToolPolicy != "auto" {
		return fmt.Errorf("invalid search.tool_policy %q: must be \"forced\" or \"auto\"", c.Search.ToolPolicy)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	// LLM defaults
	v.SetDefault("llm.base_url", "https://api.openai.com/v1")
	v.SetDefault("llm.timeout", 120)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")

	// Storage defaults
	v.SetDefault("storage.enabled", true)
	v.SetDefault("storage.path", "./data/transcripts.db")

	// Web search defaults
	v.SetDefault("search.default", "duckduckgo")
	v.SetDefault("search.region", "kr-kr")
	v.SetDefault("search.max_results", 5)
	v.SetDefault("search.tool_policy", "forced")
	v.SetDefault("search.providers.duckduckgo.type", "duckduckgo")
	v.SetDefault("search.providers.duckduckgo.base_url", "https://html.duckduckgo.com/html/")
	v.SetDefault("search.providers.duckduckgo.timeout", 30)
	v.SetDefault("search.providers.firecrawl.type", "firecrawl")
	v.SetDefault("search.providers.firecrawl.base_url", "https://api.firecrawl.dev/v2")
	v.SetDefault("search.providers.firecrawl.timeout", 30)
	v.SetDefault("search.providers.zhipu.type", "mcp")
	v.SetDefault("search.providers.zhipu.base_url", "https://open.bigmodel.cn/api/mcp/web_search_prime/mcp")
	v.SetDefault("search.providers.zhipu.tool_name", "webSearchPrime")
	v.SetDefault("search.providers.zhipu.query_param", "search_query")
	v.SetDefault("search.providers.zhipu.timeout", 30)
}
