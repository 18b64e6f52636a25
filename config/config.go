package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

//go:embed config.yml
var embeddedConfig []byte

type Config struct {
	Mode     string `mapstructure:"mode"`
	Dotenv   string `mapstructure:"dotenv"`
	Handlers struct {
		ExternalAPI struct {
			Port string `mapstructure:"port"`
		} `mapstructure:"externalAPI"`
		Prometheus struct {
			Port string `mapstructure:"port"`
		} `mapstructure:"prometheus"`
	} `mapstructure:"handlers"`
	Repositories struct {
		Postgres struct {
			Host     string `mapstructure:"host"`
			Password string `mapstructure:"password"`
			Port     string `mapstructure:"port"`
			Username string `mapstructure:"username"`
			DB       string `mapstructure:"db"`
			SSLMode  string `mapstructure:"sslmode"`
			MaxConns int32  `mapstructure:"maxConns"`
		} `mapstructure:"postgres"`
		Redis struct {
			URL string `mapstructure:"url"`
		} `mapstructure:"redis"`
	} `mapstructure:"repositories"`
	Providers struct {
		Places struct {
			Enabled           bool          `mapstructure:"enabled"`
			APIKey            string        `mapstructure:"apiKey"`
			BaseURL           string        `mapstructure:"baseURL"`
			Timeout           time.Duration `mapstructure:"timeout"`
			RequestsPerSecond float64       `mapstructure:"requestsPerSecond"`
			Burst             int           `mapstructure:"burst"`
		} `mapstructure:"places"`
		LLM struct {
			Enabled bool          `mapstructure:"enabled"`
			APIKey  string        `mapstructure:"apiKey"`
			Model   string        `mapstructure:"model"`
			Timeout time.Duration `mapstructure:"timeout"`
		} `mapstructure:"llm"`
	} `mapstructure:"providers"`
	Recommendation struct {
		RecommendationsTTL time.Duration `mapstructure:"recommendationsTTL"`
		ChatHistoryTTL     time.Duration `mapstructure:"chatHistoryTTL"`
		ChatHistoryCap     int           `mapstructure:"chatHistoryCap"`
		StrategyTimeout    time.Duration `mapstructure:"strategyTimeout"`
	} `mapstructure:"recommendation"`
	RateLimit struct {
		RequestsPerMinute int `mapstructure:"requestsPerMinute"`
	} `mapstructure:"ratelimit"`
	CORS struct {
		AllowedOrigins []string `mapstructure:"allowedOrigins"`
	} `mapstructure:"cors"`
	Server struct {
		HTTPPort string        `mapstructure:"HTTPPort"`
		Timeout  time.Duration `mapstructure:"HTTPTimeout"`
	} `mapstructure:"server"`
}

// secrets maps config keys to the environment variables that carry them.
var secrets = map[string]string{
	"providers.places.apiKey":        "GOOGLE_PLACES_API_KEY",
	"providers.llm.apiKey":           "GOOGLE_GEMINI_API_KEY",
	"repositories.redis.url":         "REDIS_URL",
	"repositories.postgres.password": "POSTGRES_PASSWORD",
}

func InitConfig() (Config, error) {
	var config Config
	v := viper.New()

	v.AddConfigPath(".")
	v.AddConfigPath("config")
	v.AddConfigPath("/app/config")
	v.AddConfigPath("/usr/local/bin")

	v.SetConfigName("config")
	v.SetConfigType("yml")

	err := v.ReadInConfig()
	if err != nil {
		fmt.Printf("Warning: Failed to find file-based config: %s. Falling back to embedded config.\n", err)
		if err = v.ReadConfig(bytes.NewReader(embeddedConfig)); err != nil {
			return Config{}, fmt.Errorf("failed to read embedded config: %s", err)
		}
	}

	// Anything in config.yml can be overridden as e.g. PROVIDERS_PLACES_ENABLED.
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, env := range secrets {
		if err = v.BindEnv(key, env); err != nil {
			return Config{}, fmt.Errorf("failed to bind %s: %s", env, err)
		}
	}

	if err = v.Unmarshal(&config); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %s", err)
	}
	fmt.Println("Successfully loaded app configs...")
	return config, nil
}
