package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DriverMongo  = "mongo"
	DriverMemory = "memory"

	MailSMTP = "smtp"
	MailHTTP = "http"
	MailLog  = "log"
)

type Config struct {
	AppEnv   string `yaml:"app_env"`
	Port     string `yaml:"port"`
	LogLevel string `yaml:"log_level"`

	StoreDriver string        `yaml:"store_driver"`
	MongoURI    string        `yaml:"mongodb_uri"`
	MongoDB     string        `yaml:"mongodb_database"`
	DBTimeout   time.Duration `yaml:"db_timeout"`

	JWTSecret    string        `yaml:"jwt_secret"`
	JWTTTL       time.Duration `yaml:"jwt_ttl"`
	CookieSecure bool          `yaml:"cookie_secure"`
	CORSOrigins  []string      `yaml:"cors_origins"`

	Mail  MailConfig  `yaml:"mail"`
	Sweep SweepConfig `yaml:"sweep"`
}

type MailConfig struct {
	Driver       string `yaml:"driver"`
	From         string `yaml:"from"`
	SMTPAddress  string `yaml:"smtp_address"`
	SMTPHost     string `yaml:"smtp_host"`
	SMTPUsername string `yaml:"smtp_username"`
	SMTPPassword string `yaml:"smtp_password"`
	APIURL       string `yaml:"api_url"`
	APIKey       string `yaml:"api_key"`
}

type SweepConfig struct {
	Interval      time.Duration `yaml:"interval"`
	Batch         int64         `yaml:"batch"`
	PromoInterval time.Duration `yaml:"promo_interval"`
}

func Default() Config {
	return Config{
		AppEnv:      "production",
		Port:        "3000",
		LogLevel:    "info",
		StoreDriver: DriverMongo,
		MongoURI:    "mongodb://localhost:27017",
		MongoDB:     "shopfront",
		DBTimeout:   10 * time.Second,
		JWTTTL:      72 * time.Hour,
		CORSOrigins: []string{"*"},
		Mail: MailConfig{
			Driver: MailLog,
			From:   "no-reply@shopfront.local",
		},
		Sweep: SweepConfig{
			Interval:      time.Second,
			Batch:         50,
			PromoInterval: 7 * 24 * time.Hour,
		},
	}
}

// LoadEnv loads environment variables from a .env file
func LoadEnv() {
	err := godotenv.Load(".env")
	if err != nil {
		log.Println("No .env file loaded")
	}
}

// GetEnv retrieves environment variables with a fallback
func GetEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// Load builds the configuration from defaults, then the optional YAML file at
// path, then environment variables.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config: %w", err)
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	c.AppEnv = GetEnv("APP_ENV", c.AppEnv)
	c.Port = GetEnv("PORT", c.Port)
	c.LogLevel = GetEnv("LOG_LEVEL", c.LogLevel)
	c.StoreDriver = GetEnv("STORE_DRIVER", c.StoreDriver)
	c.MongoURI = GetEnv("MONGODB_URI", c.MongoURI)
	c.MongoDB = GetEnv("MONGODB_DATABASE", c.MongoDB)
	c.JWTSecret = GetEnv("JWT_SECRET", c.JWTSecret)

	c.Mail.Driver = GetEnv("MAIL_DRIVER", c.Mail.Driver)
	c.Mail.From = GetEnv("MAIL_FROM", c.Mail.From)
	c.Mail.SMTPAddress = GetEnv("SMTP_ADDRESS", c.Mail.SMTPAddress)
	c.Mail.SMTPHost = GetEnv("SMTP_HOST", c.Mail.SMTPHost)
	c.Mail.SMTPUsername = GetEnv("SMTP_USERNAME", c.Mail.SMTPUsername)
	c.Mail.SMTPPassword = GetEnv("SMTP_PASSWORD", c.Mail.SMTPPassword)
	c.Mail.APIURL = GetEnv("MAIL_API_URL", c.Mail.APIURL)
	c.Mail.APIKey = GetEnv("MAIL_API_KEY", c.Mail.APIKey)

	if v, ok := os.LookupEnv("CORS_ORIGINS"); ok {
		c.CORSOrigins = splitList(v)
	}
	if v, ok := os.LookupEnv("COOKIE_SECURE"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("COOKIE_SECURE: %w", err)
		}
		c.CookieSecure = b
	}
	if v, ok := os.LookupEnv("EMAIL_SWEEP_BATCH"); ok {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("EMAIL_SWEEP_BATCH: %w", err)
		}
		c.Sweep.Batch = n
	}

	durations := []struct {
		key string
		dst *time.Duration
	}{
		{"DB_TIMEOUT", &c.DBTimeout},
		{"JWT_TTL", &c.JWTTTL},
		{"EMAIL_SWEEP_INTERVAL", &c.Sweep.Interval},
		{"PROMO_EMAIL_INTERVAL", &c.Sweep.PromoInterval},
	}
	for _, d := range durations {
		v, ok := os.LookupEnv(d.key)
		if !ok {
			continue
		}
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", d.key, err)
		}
		*d.dst = parsed
	}
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func (c Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

func (c Config) Validate() error {
	var errs []error
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	switch c.StoreDriver {
	case DriverMongo, DriverMemory:
	default:
		errs = append(errs, fmt.Errorf("unknown store driver %q", c.StoreDriver))
	}
	switch c.Mail.Driver {
	case MailSMTP:
		if c.Mail.SMTPAddress == "" {
			errs = append(errs, errors.New("SMTP_ADDRESS is required for the smtp mail driver"))
		}
	case MailHTTP:
		if c.Mail.APIURL == "" {
			errs = append(errs, errors.New("MAIL_API_URL is required for the http mail driver"))
		}
	case MailLog:
	default:
		errs = append(errs, fmt.Errorf("unknown mail driver %q", c.Mail.Driver))
	}
	if c.Sweep.Interval <= 0 {
		errs = append(errs, errors.New("EMAIL_SWEEP_INTERVAL must be positive"))
	}
	if c.Sweep.Batch <= 0 {
		errs = append(errs, errors.New("EMAIL_SWEEP_BATCH must be positive"))
	}
	return errors.Join(errs...)
}
