package config

import (
	"errors"
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Database struct {
		Host     string `mapstructure:"host"`
		Port     string `mapstructure:"port"`
		User     string `mapstructure:"user"`
		Password string `mapstructure:"password"`
		Name     string `mapstructure:"name"`
		SSLMode  string `mapstructure:"sslmode"`
	} `mapstructure:"database"`
	Server struct {
		Port string `mapstructure:"port"`
	} `mapstructure:"server"`
	JWT struct {
		SecretKey string        `mapstructure:"secret_key"`
		ExpiresIn time.Duration `mapstructure:"expires_in"`
	} `mapstructure:"jwt"`
	Redis struct {
		Host     string `mapstructure:"host"`
		Port     string `mapstructure:"port"`
		Password string `mapstructure:"password"`
		DB       int    `mapstructure:"db"`
		Enabled  bool   `mapstructure:"enabled"`
	} `mapstructure:"redis"`
	Cache struct {
		AccountTTL time.Duration `mapstructure:"account_ttl"`
	} `mapstructure:"cache"`
	SMTP struct {
		Host     string `mapstructure:"host"`
		Port     string `mapstructure:"port"`
		Username string `mapstructure:"username"`
		Password string `mapstructure:"password"`
		From     string `mapstructure:"from"`
	} `mapstructure:"smtp"`
	Security struct {
		BcryptCost int `mapstructure:"bcrypt_cost"`
	} `mapstructure:"security"`
	Ledger struct {
		AccountNumberRetries uint64 `mapstructure:"account_number_retries"`
	} `mapstructure:"ledger"`
	RateLimit struct {
		RequestsPerSecond float64       `mapstructure:"requests_per_second"`
		Burst             int           `mapstructure:"burst"`
		TTL               time.Duration `mapstructure:"ttl"`
	} `mapstructure:"rate_limit"`
	Migrations struct {
		Path       string `mapstructure:"path"`
		RunOnStart bool   `mapstructure:"run_on_start"`
	} `mapstructure:"migrations"`
	Log struct {
		Level string `mapstructure:"level"`
	} `mapstructure:"log"`
}

var AppConfig Config

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.name", "ben_bank")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("jwt.secret_key", "")
	v.SetDefault("jwt.expires_in", time.Hour)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", "6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.enabled", true)
	v.SetDefault("cache.account_ttl", 10*time.Minute)
	v.SetDefault("smtp.host", "")
	v.SetDefault("smtp.port", "465")
	v.SetDefault("smtp.username", "")
	v.SetDefault("smtp.password", "")
	v.SetDefault("smtp.from", `"Ben Bank" <no-reply@benbank.local>`)
	v.SetDefault("security.bcrypt_cost", 12)
	v.SetDefault("ledger.account_number_retries", 5)
	v.SetDefault("rate_limit.requests_per_second", 5.0)
	v.SetDefault("rate_limit.burst", 10)
	v.SetDefault("rate_limit.ttl", time.Hour)
	v.SetDefault("migrations.path", "file://db/migrations")
	v.SetDefault("migrations.run_on_start", true)
	v.SetDefault("log.level", "info")
}

// Load reads config.yml from path, overlays environment variables
// (DATABASE_HOST, JWT_SECRET_KEY, ...) and returns the result.
// A missing config file is not an error; defaults and env still apply.
func Load(path string) (Config, error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yml")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	var cfg Config
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return cfg, err
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func LoadConfig(path string) {
	cfg, err := Load(path)
	if err != nil {
		log.Fatalf("Error reading config file, %s", err)
	}
	AppConfig = cfg
}
