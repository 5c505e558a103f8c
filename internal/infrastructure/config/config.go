package config

import "time"

// Config holds all configuration for the application
type Config struct {
	Environment string            `mapstructure:"environment"`
	Server      ServerConfig      `mapstructure:"server"`
	Database    DatabaseConfig    `mapstructure:"database"`
	Logger      LoggerConfig      `mapstructure:"logger"`
	Transaction TransactionConfig `mapstructure:"transaction"`
	Payments    PaymentsConfig    `mapstructure:"payments"`
	Commission  CommissionConfig  `mapstructure:"commission"`
	Outbox      OutboxConfig      `mapstructure:"outbox"`
	Auth        AuthConfig        `mapstructure:"auth"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Host              string        `mapstructure:"host"`
	Port              int           `mapstructure:"port"`
	ReadTimeout       time.Duration `mapstructure:"readTimeout"`       // seconds
	WriteTimeout      time.Duration `mapstructure:"writeTimeout"`      // seconds
	IdleTimeout       time.Duration `mapstructure:"idleTimeout"`       // seconds
	ReadHeaderTimeout time.Duration `mapstructure:"readHeaderTimeout"` // seconds
	ShutdownTimeout   time.Duration `mapstructure:"shutdownTimeout"`   // seconds
	AllowOrigins      []string      `mapstructure:"allowOrigins"`
}

// DatabaseConfig contains database connection settings
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Username        string        `mapstructure:"username"`
	Password        string        `mapstructure:"password"`
	Database        string        `mapstructure:"database"`
	SSLMode         string        `mapstructure:"sslMode"`
	MaxOpenConns    int           `mapstructure:"maxOpenConns"`
	MaxIdleConns    int           `mapstructure:"maxIdleConns"`
	ConnMaxLifetime time.Duration `mapstructure:"connMaxLifetime"` // minutes
	ConnMaxIdleTime time.Duration `mapstructure:"connMaxIdleTime"` // minutes
	RetryAttempts   int           `mapstructure:"retryAttempts"`
	RetryDelay      time.Duration `mapstructure:"retryDelay"` // seconds
}

// LoggerConfig contains logger settings
type LoggerConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// TransactionConfig contains transaction lifecycle settings
type TransactionConfig struct {
	QueueSize     int           `mapstructure:"queueSize"`
	ProcessingTTL time.Duration `mapstructure:"processingTTL"` // minutes
	SweepInterval time.Duration `mapstructure:"sweepInterval"` // minutes
	Timezone      string        `mapstructure:"timezone"`
}

// PaymentsConfig contains credentials for the payment gateways
type PaymentsConfig struct {
	Payme PaymeConfig `mapstructure:"payme"`
	Click ClickConfig `mapstructure:"click"`
	Uzum  UzumConfig  `mapstructure:"uzum"`
}

// PaymeConfig holds merchant credentials for the payme gateway
type PaymeConfig struct {
	MerchantID string `mapstructure:"merchantId"`
	SecretKey  string `mapstructure:"secretKey"`
}

// ClickConfig holds merchant credentials for the click gateway
type ClickConfig struct {
	ServiceID int64  `mapstructure:"serviceId"`
	SecretKey string `mapstructure:"secretKey"`
}

// UzumConfig holds merchant credentials for the uzum gateway
type UzumConfig struct {
	SecretKey string `mapstructure:"secretKey"`
}

// CommissionConfig contains partner commission rates
type CommissionConfig struct {
	Rate    float64 `mapstructure:"rate"`
	VATRate float64 `mapstructure:"vatRate"`
}

// OutboxConfig contains outbox dispatcher settings
type OutboxConfig struct {
	PollInterval time.Duration `mapstructure:"pollInterval"` // seconds
	BatchSize    int           `mapstructure:"batchSize"`
}

// AuthConfig contains API authentication settings
type AuthConfig struct {
	JWTSecret string `mapstructure:"jwtSecret"`
}

// IsProduction reports whether the application runs in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == Production
}
