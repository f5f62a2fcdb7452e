package config

import (
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
// The values are read by Viper from a config file or environment variables.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	S3         S3Config         `mapstructure:"s3"`
	JWT        JWTConfig        `mapstructure:"jwt"`
	Cache      CacheConfig      `mapstructure:"cache"`
	Generation GenerationConfig `mapstructure:"generation"`
	Planning   PlanningConfig   `mapstructure:"planning"`
}

type ServerConfig struct {
	Address string `mapstructure:"address"`
}

// DatabaseConfig selects the hierarchy store. Driver is "mongo" or "memory".
type DatabaseConfig struct {
	Driver string `mapstructure:"driver"`
	URI    string `mapstructure:"uri"`
	Name   string `mapstructure:"name"`
}

// S3Config points at the bucket holding tactical sketches. An empty bucket
// name disables sketch URLs.
type S3Config struct {
	Endpoint        string        `mapstructure:"endpoint"`
	Region          string        `mapstructure:"region"`
	AccessKeyID     string        `mapstructure:"access_key_id"`
	SecretAccessKey string        `mapstructure:"secret_access_key"`
	BucketName      string        `mapstructure:"bucket_name"`
	UseSSL          bool          `mapstructure:"use_ssl"`
	URLExpiry       time.Duration `mapstructure:"url_expiry"`
}

// JWTConfig defines JWT specific configuration
type JWTConfig struct {
	Secret     string        `mapstructure:"secret"`
	Expiration time.Duration `mapstructure:"expiration"`
}

// CacheConfig locates the Redis instance used for generation run status.
// An empty address keeps statuses in process memory.
type CacheConfig struct {
	Address   string        `mapstructure:"address"`
	Password  string        `mapstructure:"password"`
	DB        int           `mapstructure:"db"`
	StatusTTL time.Duration `mapstructure:"status_ttl"`
}

// GenerationConfig controls dispatch to the external generator and the
// readiness poll that follows.
type GenerationConfig struct {
	WebhookURL   string        `mapstructure:"webhook_url"`
	PollInterval time.Duration `mapstructure:"poll_interval"`
	MaxAttempts  int           `mapstructure:"max_attempts"`
}

// PlanningConfig holds hierarchy rules that are not per user.
type PlanningConfig struct {
	// Month plans a coach may hold when their profile sets no allowance.
	DefaultMonthQuota int `mapstructure:"default_month_quota"`
}

// LoadConfig reads configuration from file or environment variables.
// A .env file in the working directory is loaded first, if present.
func LoadConfig(path string) (config Config, err error) {
	if envErr := godotenv.Load(); envErr != nil {
		log.Println("INFO: No .env file loaded, relying on environment and config file.")
	}

	viper.AddConfigPath(path)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	// server.address -> SERVER_ADDRESS, generation.webhook_url -> GENERATION_WEBHOOK_URL
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(`.`, `_`))

	viper.SetDefault("server.address", ":8080")
	viper.SetDefault("database.driver", "mongo")
	viper.SetDefault("database.uri", "mongodb://localhost:27017")
	viper.SetDefault("database.name", "training_planner")
	viper.SetDefault("s3.use_ssl", true)
	viper.SetDefault("s3.url_expiry", "15m")
	viper.SetDefault("jwt.expiration", "1h")
	viper.SetDefault("cache.address", "")
	viper.SetDefault("cache.db", 0)
	viper.SetDefault("cache.status_ttl", "24h")
	viper.SetDefault("generation.webhook_url", "")
	viper.SetDefault("generation.poll_interval", "6s")
	viper.SetDefault("generation.max_attempts", 30)
	viper.SetDefault("planning.default_month_quota", 2)

	err = viper.ReadInConfig()
	// Missing config file is fine, env vars and defaults still apply.
	if _, ok := err.(viper.ConfigFileNotFoundError); ok {
		err = nil
	} else if err != nil {
		return
	}

	// Duration strings ("6s", "1h") decode straight into time.Duration fields.
	err = viper.Unmarshal(&config)
	if err != nil {
		return
	}

	return config, nil
}
