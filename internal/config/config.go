package config

import (
	"errors"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	Server   Server   `mapstructure:"server"`
	Storage  Storage  `mapstructure:"storage"`
	Logger   Logger   `mapstructure:"logger"`
	Market   Market   `mapstructure:"market"`
	Insights Insights `mapstructure:"insights"`
	GitHub   GitHub   `mapstructure:"github"`
	Auth     Auth     `mapstructure:"auth"`
}

// Server holds the configuration for the web server.
type Server struct {
	Port int `mapstructure:"port"`
}

// Storage holds the configuration for the trade and settings stores.
// Backend is "sqlite" or "csv" and is explicit configuration state, not a
// sidecar file read at startup.
type Storage struct {
	Backend      string `mapstructure:"backend"`
	DSN          string `mapstructure:"dsn"`
	CSVPath      string `mapstructure:"csv_path"`
	SettingsPath string `mapstructure:"settings_path"`
}

// Logger holds the configuration for the logger.
type Logger struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Market holds the configuration for the market price lookup client.
type Market struct {
	BaseURL        string  `mapstructure:"base_url"`
	RateLimit      float64 `mapstructure:"rate_limit"`
	RateLimitBurst int     `mapstructure:"rate_limit_burst"`
	CacheTTL       int     `mapstructure:"cache_ttl"` // seconds
}

// Insights holds the configuration for the trade suggestion service. An
// empty APIKey disables the LLM backend and the heuristic fallback is used.
type Insights struct {
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
	BaseURL string `mapstructure:"base_url"`
}

// GitHub holds the configuration for the optional CSV repository sync.
// Sync is disabled unless both Token and Repo are set.
type GitHub struct {
	Token  string `mapstructure:"token"`
	Repo   string `mapstructure:"repo"`
	Branch string `mapstructure:"branch"`
	Path   string `mapstructure:"path"`
}

// Auth holds the single-operator login credentials.
type Auth struct {
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

// LoadConfig reads configuration from file or environment variables.
func LoadConfig(path string) (config Config, err error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config") // name of config file (without extension)
	viper.SetConfigType("yml")    // or yaml, json

	// Allow environment variables to override config file
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Set default values
	viper.SetDefault("server.port", 8090)
	viper.SetDefault("storage.backend", "sqlite")
	viper.SetDefault("storage.dsn", "data/trades.db")
	viper.SetDefault("storage.csv_path", "data/trades.csv")
	viper.SetDefault("storage.settings_path", "data/settings.json")
	viper.SetDefault("logger.level", "info")
	viper.SetDefault("logger.format", "console")
	viper.SetDefault("market.base_url", "https://query2.finance.yahoo.com")
	viper.SetDefault("market.rate_limit", 5) // requests per second
	viper.SetDefault("market.rate_limit_burst", 2)
	viper.SetDefault("market.cache_ttl", 60)
	viper.SetDefault("insights.model", "gpt-4o-mini")
	viper.SetDefault("insights.base_url", "https://api.openai.com")
	viper.SetDefault("github.branch", "main")
	viper.SetDefault("github.path", "data/trades.csv")
	viper.SetDefault("auth.username", "demo")
	viper.SetDefault("auth.password", "demo")

	err = viper.ReadInConfig()
	if err != nil {
		// A missing config file is fine; defaults and env still apply.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return
		}
		err = nil
	}

	err = viper.Unmarshal(&config)
	return
}
