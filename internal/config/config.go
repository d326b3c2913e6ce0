package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	DB        DBConfig
	Redis     RedisConfig
	Logger    LoggerConfig
	Adapter   AdapterConfig
	Models    ModelsConfig
	CacheTTLs CacheTTLConfig
	UseMocks  bool
}

type ServerConfig struct {
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type DBConfig struct {
	Path string `yaml:"path"`
}

type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type LoggerConfig struct {
	Level string `yaml:"level"`
	Env   string `yaml:"env"`
}

// AdapterConfig tunes the shared network behavior of chat adapters.
// Per-provider backoff caps stay constants next to each adapter.
type AdapterConfig struct {
	RequestTimeout time.Duration
	MaxAttempts    int
}

type ModelsConfig struct {
	CatalogPath string `yaml:"catalog_path"`
}

type CacheTTLConfig struct {
	ChatResponse string `yaml:"chat_response"`
}

func LoadConfig() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	if os.Getenv("ENV") == "test" {
		viper.AddConfigPath("../../configs")
		viper.AddConfigPath("../../")
	} else {
		viper.AddConfigPath(".")
		viper.AddConfigPath("./configs")
	}

	viper.AutomaticEnv()

	viper.SetDefault("server.port", 8090)
	viper.SetDefault("server.read_timeout", 15)
	viper.SetDefault("server.write_timeout", 15)
	viper.SetDefault("db.path", "runtime-data/db/quizbench.sqlite3")
	viper.SetDefault("models.catalog_path", "configs/models.yaml")
	viper.SetDefault("adapter.request_timeout", 30)
	viper.SetDefault("adapter.max_attempts", 3)
	viper.SetDefault("cache_ttls.chat_response", "24h")

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := &Config{
		Server: ServerConfig{
			Port:         viper.GetInt("server.port"),
			ReadTimeout:  viper.GetDuration("server.read_timeout") * time.Second,
			WriteTimeout: viper.GetDuration("server.write_timeout") * time.Second,
		},
		DB: DBConfig{
			Path: viper.GetString("db.path"),
		},
		Redis: RedisConfig{
			Address:  viper.GetString("redis.address"),
			Password: viper.GetString("redis.password"),
			DB:       viper.GetInt("redis.db"),
		},
		Logger: LoggerConfig{
			Level: viper.GetString("logger.level"),
			Env:   viper.GetString("logger.env"),
		},
		Adapter: AdapterConfig{
			RequestTimeout: viper.GetDuration("adapter.request_timeout") * time.Second,
			MaxAttempts:    viper.GetInt("adapter.max_attempts"),
		},
		Models: ModelsConfig{
			CatalogPath: viper.GetString("models.catalog_path"),
		},
		CacheTTLs: CacheTTLConfig{
			ChatResponse: viper.GetString("cache_ttls.chat_response"),
		},
		UseMocks: viper.GetString("env") == "mock",
	}

	// Override with environment variables if set
	if path := os.Getenv("QUIZBENCH_DB_PATH"); path != "" {
		config.DB.Path = path
	}
	if port := os.Getenv("SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if catalog := os.Getenv("QUIZBENCH_MODELS"); catalog != "" {
		config.Models.CatalogPath = catalog
	}
	if redisAddress := os.Getenv("REDIS_ADDRESS"); redisAddress != "" {
		config.Redis.Address = redisAddress
	}
	if redisPassword := os.Getenv("REDIS_PASSWORD"); redisPassword != "" {
		config.Redis.Password = redisPassword
	}
	if env := os.Getenv("QUIZBENCH_ENV"); env == "mock" {
		config.UseMocks = true
	}

	return config, nil
}

// ParseTTLStringOrDefault parses a duration string, falling back to the
// given default when the string is empty or malformed.
func (c *Config) ParseTTLStringOrDefault(ttl string, fallback time.Duration) time.Duration {
	if ttl == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(ttl)
	if err != nil {
		return fallback
	}
	return parsed
}

// CacheEnabled reports whether a response cache is configured.
func (c *Config) CacheEnabled() bool {
	return c.Redis.Address != ""
}
