package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Port          string
	Environment   string
	StorageDriver string
	Database      DatabaseConfig
	Razorpay      RazorpayConfig
	SMTP          SMTPConfig
	Kafka         KafkaConfig
	Returns       ReturnsConfig
	LogLevel      string
	LogFile       string
	CORSOrigins   []string

	// DemoOperatorKey seeds an admin operator when running on the memory driver
	DemoOperatorKey string
}

type DatabaseConfig struct {
	Host           string
	Port           string
	User           string
	Password       string
	DBName         string
	SSLMode        string
	MigrationsPath string
}

// DSN returns the lib/pq connection string
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

// URL returns the connection string in the form golang-migrate expects
func (c DatabaseConfig) URL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode)
}

type RazorpayConfig struct {
	BaseURL   string
	KeyID     string
	KeySecret string
}

type SMTPConfig struct {
	Host       string
	Port       int
	Username   string
	Password   string
	SenderName string
	SenderAddr string
}

// Enabled reports whether real mail delivery is configured
func (c SMTPConfig) Enabled() bool {
	return c.Host != ""
}

type KafkaConfig struct {
	Brokers []string
	Topic   string
}

type ReturnsConfig struct {
	WindowDays   int
	StoreName    string
	SupportEmail string
}

func Load() (*Config, error) {
	viper.SetConfigType("env")
	viper.SetConfigName(".env")
	viper.AddConfigPath(".")
	viper.AddConfigPath("..")
	viper.AddConfigPath("../..")

	// Set defaults
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("ENVIRONMENT", "development")
	viper.SetDefault("STORAGE_DRIVER", "postgres")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_SSLMODE", "disable")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("SMTP_PORT", 587)
	viper.SetDefault("RETURN_WINDOW_DAYS", 7)

	// Read from environment variables
	viper.AutomaticEnv()

	// Try to read .env file (optional)
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg := &Config{
		Port:          getEnvOrViper("PORT", "8080"),
		Environment:   getEnvOrViper("ENVIRONMENT", "development"),
		StorageDriver: getEnvOrViper("STORAGE_DRIVER", "postgres"),
		Database: DatabaseConfig{
			Host:           getEnvOrViper("DB_HOST", "localhost"),
			Port:           getEnvOrViper("DB_PORT", "5432"),
			User:           getEnvOrViper("DB_USER", "postgres"),
			Password:       getEnvOrViper("DB_PASSWORD", "postgres"),
			DBName:         getEnvOrViper("DB_NAME", "returns"),
			SSLMode:        getEnvOrViper("DB_SSLMODE", "disable"),
			MigrationsPath: getEnvOrViper("MIGRATIONS_PATH", "file://migrations"),
		},
		Razorpay: RazorpayConfig{
			BaseURL:   getEnvOrViper("RAZORPAY_BASE_URL", "https://api.razorpay.com"),
			KeyID:     getEnvOrViper("RAZORPAY_KEY_ID", ""),
			KeySecret: getEnvOrViper("RAZORPAY_KEY_SECRET", ""),
		},
		SMTP: SMTPConfig{
			Host:       getEnvOrViper("SMTP_HOST", ""),
			Port:       viper.GetInt("SMTP_PORT"),
			Username:   getEnvOrViper("SMTP_USERNAME", ""),
			Password:   getEnvOrViper("SMTP_PASSWORD", ""),
			SenderName: getEnvOrViper("SMTP_SENDER_NAME", "Returns Desk"),
			SenderAddr: getEnvOrViper("SMTP_SENDER_ADDRESS", "returns@example.com"),
		},
		Kafka: KafkaConfig{
			Brokers: splitList(getEnvOrViper("KAFKA_BROKERS", "")),
			Topic:   getEnvOrViper("KAFKA_RETURNS_TOPIC", "returns.events"),
		},
		Returns: ReturnsConfig{
			WindowDays:   viper.GetInt("RETURN_WINDOW_DAYS"),
			StoreName:    getEnvOrViper("STORE_NAME", "Our Store"),
			SupportEmail: getEnvOrViper("SUPPORT_EMAIL", "support@example.com"),
		},
		LogLevel:    getEnvOrViper("LOG_LEVEL", "info"),
		LogFile:     getEnvOrViper("LOG_FILE", ""),
		CORSOrigins: splitList(getEnvOrViper("CORS_ALLOWED_ORIGINS", "")),

		DemoOperatorKey: getEnvOrViper("DEMO_OPERATOR_KEY", ""),
	}

	// Validate required fields
	if cfg.StorageDriver != "postgres" && cfg.StorageDriver != "memory" {
		return nil, fmt.Errorf("STORAGE_DRIVER must be postgres or memory, got %q", cfg.StorageDriver)
	}
	if cfg.Returns.WindowDays <= 0 {
		return nil, fmt.Errorf("RETURN_WINDOW_DAYS must be positive")
	}
	if cfg.IsProduction() {
		if cfg.Razorpay.KeyID == "" || cfg.Razorpay.KeySecret == "" {
			return nil, fmt.Errorf("RAZORPAY_KEY_ID and RAZORPAY_KEY_SECRET are required")
		}
		if !cfg.SMTP.Enabled() {
			return nil, fmt.Errorf("SMTP_HOST is required")
		}
		if cfg.StorageDriver == "memory" {
			return nil, fmt.Errorf("memory storage is not allowed in production")
		}
	}

	return cfg, nil
}

// IsProduction reports whether the service runs in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func getEnvOrViper(key, defaultValue string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	if viper.IsSet(key) {
		return viper.GetString(key)
	}
	return defaultValue
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
