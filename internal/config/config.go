package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

var (
	ErrDatabaseDSNNotSet   = errors.New("database DSN is not set")
	ErrJWTSecretNotSet     = errors.New("JWT secret is not set")
	ErrWebhookSecretNotSet = errors.New("payment webhook secret is not set")
)

type Config struct {
	RunAddress    string `env:"RUN_ADDRESS"`
	DatabaseDSN   string `env:"DATABASE_URI"`
	MigrationsDir string `env:"MIGRATIONS_DIR"`

	JWTSecret string `env:"JWT_SECRET"`

	PaymentAPIURL        string `env:"PAYMENT_API_URL" envDefault:"https://api.stripe.com"`
	PaymentAPIKey        string `env:"PAYMENT_API_KEY"`
	PaymentWebhookSecret string `env:"PAYMENT_WEBHOOK_SECRET"`
	PaymentCurrency      string `env:"PAYMENT_CURRENCY" envDefault:"usd"`
	PaymentProvider      string `env:"PAYMENT_PROVIDER" envDefault:"stripe"`

	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:","`

	// SweepInterval 0 отключает сверку зависших покупок.
	SweepInterval   time.Duration `env:"SWEEP_INTERVAL" envDefault:"1m"`
	SweepStaleAfter time.Duration `env:"SWEEP_STALE_AFTER" envDefault:"15m"`
	SweepWorkers    uint          `env:"SWEEP_WORKERS" envDefault:"5"`

	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// LoadConfig читает .env (если есть), переменные окружения и флаги командной строки.
// Переменные окружения приоритетнее флагов.
func LoadConfig() (*Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}
	return parse(os.Args[1:])
}

func MustLoadConfig() *Config {
	config, err := LoadConfig()
	if err != nil {
		panic(err)
	}
	return config
}

func loadDotEnv(path string) error {
	// уже выставленные переменные окружения godotenv не перезаписывает.
	if err := godotenv.Load(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("load %s: %s", path, err.Error())
	}
	return nil
}

func parse(args []string) (*Config, error) {
	var envConfig Config
	if envParseErr := env.Parse(&envConfig); envParseErr != nil {
		return nil, fmt.Errorf("parse env config: %s", envParseErr.Error())
	}

	var flagsConfig Config
	if err := loadFlags(&flagsConfig, args); err != nil {
		return nil, fmt.Errorf("parse flags: %s", err.Error())
	}

	conf := mergeConfig(&envConfig, &flagsConfig)
	if err := conf.validate(); err != nil {
		return nil, err
	}
	return conf, nil
}

func (c *Config) validate() error {
	switch {
	case c.DatabaseDSN == "":
		return ErrDatabaseDSNNotSet
	case c.JWTSecret == "":
		return ErrJWTSecretNotSet
	case c.PaymentWebhookSecret == "":
		return ErrWebhookSecretNotSet
	}
	return nil
}

func loadFlags(flagConfig *Config, args []string) error {
	fs := flag.NewFlagSet("credits", flag.ContinueOnError)
	fs.StringVar(&flagConfig.RunAddress, "a", "localhost:8080", "Run address in format host:port")
	fs.StringVar(&flagConfig.DatabaseDSN, "d", "", "Database DSN")
	fs.StringVar(&flagConfig.MigrationsDir, "m", "", "Database migrations directory, embedded migrations if empty")

	return fs.Parse(args) //nolint:wrapcheck
}

// mergeConfig дополняет конфиг окружения значениями флагов. Остальные поля задаются только окружением.
func mergeConfig(envConfig, flagsConfig *Config) *Config {
	merged := *envConfig
	merged.RunAddress = defaultIfBlank(envConfig.RunAddress, flagsConfig.RunAddress)
	merged.DatabaseDSN = defaultIfBlank(envConfig.DatabaseDSN, flagsConfig.DatabaseDSN)
	merged.MigrationsDir = defaultIfBlank(envConfig.MigrationsDir, flagsConfig.MigrationsDir)
	return &merged
}

func defaultIfBlank(value string, defaultValue string) string {
	if value == "" {
		return defaultValue
	}
	return value
}

// String скрывает секреты, чтобы конфиг можно было писать в лог.
func (c Config) String() string {
	masked := c
	masked.DatabaseDSN = mask(c.DatabaseDSN)
	masked.JWTSecret = mask(c.JWTSecret)
	masked.PaymentAPIKey = mask(c.PaymentAPIKey)
	masked.PaymentWebhookSecret = mask(c.PaymentWebhookSecret)
	type plain Config
	return fmt.Sprintf("%+v", plain(masked))
}

func mask(s string) string {
	if s == "" {
		return ""
	}
	return "***"
}
