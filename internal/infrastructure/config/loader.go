package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Environment constants
const (
	Development = "development"
	Production  = "production"
	Test        = "test"
)

// ConfigPaths defines the paths to look for config files
var ConfigPaths = []string{
	"./configs",
	"../configs",
	"../../configs",
}

// DotEnvPaths defines the paths to look for .env files
var DotEnvPaths = []string{
	".env",
	"./.env",
	"../.env",
	"../../.env",
	"./configs/.env",
}

// LoadConfig loads configuration from file based on the environment
func LoadConfig() (*Config, error) {
	if err := loadDotEnvFile(); err != nil {
		fmt.Println("Warning: Could not load .env file:", err)
	}

	env := getEnvironment()

	v := viper.New()
	v.SetConfigName(env)
	v.SetConfigType("yaml")
	for _, path := range ConfigPaths {
		v.AddConfigPath(path)
	}

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	v.SetEnvPrefix("VND")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	processEnvOverrides(v)

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}

	config.Environment = env
	processDurations(&config)

	return &config, nil
}

// loadDotEnvFile attempts to load environment variables from .env files
func loadDotEnvFile() error {
	var lastError error

	for _, path := range DotEnvPaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return nil
			} else {
				lastError = err
			}
		}
	}

	if lastError != nil {
		return fmt.Errorf("could not load any .env file: %w", lastError)
	}
	return fmt.Errorf("no .env file found in search paths")
}

// setDefaults sets default values for non-critical configuration
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.readTimeout", 15)       // seconds
	v.SetDefault("server.writeTimeout", 15)      // seconds
	v.SetDefault("server.idleTimeout", 60)       // seconds
	v.SetDefault("server.readHeaderTimeout", 10) // seconds
	v.SetDefault("server.shutdownTimeout", 10)   // seconds
	v.SetDefault("server.allowOrigins", []string{"*"})

	v.SetDefault("database.port", 5432)
	v.SetDefault("database.sslMode", "disable")
	v.SetDefault("database.maxOpenConns", 50)
	v.SetDefault("database.maxIdleConns", 25)
	v.SetDefault("database.connMaxLifetime", 30) // minutes
	v.SetDefault("database.connMaxIdleTime", 15) // minutes
	v.SetDefault("database.retryAttempts", 3)
	v.SetDefault("database.retryDelay", 2) // seconds

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "json")
	v.SetDefault("logger.output", "stdout")

	v.SetDefault("transaction.queueSize", 64)
	v.SetDefault("transaction.processingTTL", 15) // minutes
	v.SetDefault("transaction.sweepInterval", 5)  // minutes
	v.SetDefault("transaction.timezone", "Asia/Tashkent")

	v.SetDefault("commission.rate", 0.10)
	v.SetDefault("commission.vatRate", 0.12)

	v.SetDefault("outbox.pollInterval", 5) // seconds
	v.SetDefault("outbox.batchSize", 100)
}

// getEnvironment determines the environment based on VND_ENV
func getEnvironment() string {
	env := os.Getenv("VND_ENV")
	if env == "" {
		env = Development
	}
	return strings.ToLower(env)
}

// processEnvOverrides ensures environment variables override config values
// for sensitive settings that should never live in a config file
func processEnvOverrides(v *viper.Viper) {
	if dbHost := os.Getenv("VND_DB_HOST"); dbHost != "" {
		v.Set("database.host", dbHost)
	}
	if dbUser := os.Getenv("VND_DB_USERNAME"); dbUser != "" {
		v.Set("database.username", dbUser)
	}
	if dbPass := os.Getenv("VND_DB_PASSWORD"); dbPass != "" {
		v.Set("database.password", dbPass)
	}
	if dbName := os.Getenv("VND_DB_NAME"); dbName != "" {
		v.Set("database.database", dbName)
	}

	if merchantID := os.Getenv("VND_PAYME_MERCHANT_ID"); merchantID != "" {
		v.Set("payments.payme.merchantId", merchantID)
	}
	if secret := os.Getenv("VND_PAYME_SECRET_KEY"); secret != "" {
		v.Set("payments.payme.secretKey", secret)
	}
	if serviceID := os.Getenv("VND_CLICK_SERVICE_ID"); serviceID != "" {
		v.Set("payments.click.serviceId", serviceID)
	}
	if secret := os.Getenv("VND_CLICK_SECRET_KEY"); secret != "" {
		v.Set("payments.click.secretKey", secret)
	}
	if secret := os.Getenv("VND_UZUM_SECRET_KEY"); secret != "" {
		v.Set("payments.uzum.secretKey", secret)
	}

	if jwtSecret := os.Getenv("VND_AUTH_JWT_SECRET"); jwtSecret != "" {
		v.Set("auth.jwtSecret", jwtSecret)
	}

	if logLevel := os.Getenv("VND_LOGGER_LEVEL"); logLevel != "" {
		v.Set("logger.level", logLevel)
	}
}

// processDurations converts numeric config values to time.Duration
func processDurations(config *Config) {
	config.Server.ReadTimeout = time.Duration(config.Server.ReadTimeout) * time.Second
	config.Server.WriteTimeout = time.Duration(config.Server.WriteTimeout) * time.Second
	config.Server.IdleTimeout = time.Duration(config.Server.IdleTimeout) * time.Second
	config.Server.ReadHeaderTimeout = time.Duration(config.Server.ReadHeaderTimeout) * time.Second
	config.Server.ShutdownTimeout = time.Duration(config.Server.ShutdownTimeout) * time.Second

	config.Database.ConnMaxLifetime = time.Duration(config.Database.ConnMaxLifetime) * time.Minute
	config.Database.ConnMaxIdleTime = time.Duration(config.Database.ConnMaxIdleTime) * time.Minute
	config.Database.RetryDelay = time.Duration(config.Database.RetryDelay) * time.Second

	config.Transaction.ProcessingTTL = time.Duration(config.Transaction.ProcessingTTL) * time.Minute
	config.Transaction.SweepInterval = time.Duration(config.Transaction.SweepInterval) * time.Minute

	config.Outbox.PollInterval = time.Duration(config.Outbox.PollInterval) * time.Second
}
