package config

import (
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration for the client.
type Config struct {
	API     API     `mapstructure:"api"`
	Polling Polling `mapstructure:"polling"`
	Logger  Logger  `mapstructure:"logger"`
	UI      UI      `mapstructure:"ui"`
	Storage Storage `mapstructure:"storage"`
}

// API holds the configuration for the backend HTTP client.
type API struct {
	BaseURL        string  `mapstructure:"base_url"`
	RateLimit      float64 `mapstructure:"rate_limit"`
	RateLimitBurst int     `mapstructure:"rate_limit_burst"`
}

// Polling holds the refresh intervals for the background pollers, in seconds.
type Polling struct {
	PriceInterval  int `mapstructure:"price_interval"`
	SignalInterval int `mapstructure:"signal_interval"`
}

// UI holds the configuration for the local web UI server.
type UI struct {
	Port int `mapstructure:"port"`
}

// Storage holds the configuration for durable client-side storage.
type Storage struct {
	DSN string `mapstructure:"dsn"`
}

// Logger holds the configuration for the logger.
type Logger struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// LoadConfig reads configuration from file or environment variables.
func LoadConfig(path string) (config Config, err error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config")
	viper.SetConfigType("yml")

	// Allow environment variables to override config file
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	viper.SetDefault("api.base_url", "http://localhost:5000/api")
	viper.SetDefault("api.rate_limit", 10) // requests per second
	viper.SetDefault("api.rate_limit_burst", 5)
	viper.SetDefault("polling.price_interval", 30)
	viper.SetDefault("polling.signal_interval", 120)
	viper.SetDefault("ui.port", 5173)
	viper.SetDefault("storage.dsn", "tradesense.db")
	viper.SetDefault("logger.level", "info")
	viper.SetDefault("logger.format", "console")

	err = viper.ReadInConfig()
	if err != nil {
		return
	}

	err = viper.Unmarshal(&config)
	return
}
