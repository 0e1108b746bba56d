package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App    App    `mapstructure:"app"`
	AI     AI     `mapstructure:"ai"`
	Search Search `mapstructure:"search"`
	Index  Index  `mapstructure:"index"`
	Email  Email  `mapstructure:"email"`
}

// App holds general application configuration
type App struct {
	LogLevel string `mapstructure:"log_level"`
	DataDir  string `mapstructure:"data_dir"`
}

// AI holds AI/LLM configuration
type AI struct {
	Gemini GeminiConfig `mapstructure:"gemini"`
}

// GeminiConfig holds Google Gemini configuration
type GeminiConfig struct {
	APIKey         string `mapstructure:"api_key"`
	Model          string `mapstructure:"model"`
	EmbeddingModel string `mapstructure:"embedding_model"`
}

// Search holds search provider configuration
type Search struct {
	Provider       string   `mapstructure:"provider"`
	APIKey         string   `mapstructure:"api_key"`
	MaxResults     int      `mapstructure:"max_results"`
	IncludeDomains []string `mapstructure:"include_domains"`
	Timeout        string   `mapstructure:"timeout"`
}

// Index holds similarity index configuration
type Index struct {
	Directory string `mapstructure:"directory"`
}

// Email holds SMTP delivery configuration
type Email struct {
	SMTPServer string `mapstructure:"smtp_server"`
	SMTPPort   int    `mapstructure:"smtp_port"`
	Username   string `mapstructure:"username"`
	Password   string `mapstructure:"password"`
	From       string `mapstructure:"from"`
}

// SetDefaults registers default configuration values with viper.
func SetDefaults() {
	viper.SetDefault("app.log_level", "info")
	viper.SetDefault("app.data_dir", ".newsbrief")
	viper.SetDefault("ai.gemini.model", "gemini-1.5-flash")
	viper.SetDefault("ai.gemini.embedding_model", "text-embedding-004")
	viper.SetDefault("search.provider", "tavily")
	viper.SetDefault("search.max_results", 20)
	viper.SetDefault("search.include_domains", []string{
		"techcrunch.com", "wired.com", "arstechnica.com", "theverge.com",
	})
	viper.SetDefault("search.timeout", "30s")
	viper.SetDefault("index.directory", ".newsbrief")
	viper.SetDefault("email.smtp_server", "smtp.gmail.com")
	viper.SetDefault("email.smtp_port", 587)
}

// Load reads configuration from .env, the config file, and the environment.
func Load(cfgFile string) (*Config, error) {
	// Load .env file if it exists (for local development)
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			return nil, fmt.Errorf("failed to load .env file: %w", err)
		}
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			viper.AddConfigPath(home)
		}
		viper.SetConfigType("yaml")
		viper.SetConfigName(".newsbrief")
	}

	viper.SetEnvPrefix("NEWSBRIEF")
	viper.AutomaticEnv()
	SetDefaults()

	// A missing config file is fine; defaults and env cover everything.
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// API keys commonly arrive via bare environment variables.
	if cfg.AI.Gemini.APIKey == "" {
		cfg.AI.Gemini.APIKey = os.Getenv("GEMINI_API_KEY")
	}
	if cfg.Search.APIKey == "" {
		cfg.Search.APIKey = os.Getenv("TAVILY_API_KEY")
	}
	if cfg.Email.Username == "" {
		cfg.Email.Username = os.Getenv("SMTP_USERNAME")
	}
	if cfg.Email.Password == "" {
		cfg.Email.Password = os.Getenv("SMTP_PASSWORD")
	}

	return &cfg, nil
}
