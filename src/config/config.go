package config

import (
	"fmt"
	"strings"
	"time"

	aws_handler "portfolio/src/utils/aws"

	"github.com/spf13/viper"
)

type Config struct {
	Service         ServiceConfig        `mapstructure:"service"`
	Databases       DatabasesConfig      `mapstructure:"databases"`
	ExternalClients ExternalClientConfig `mapstructure:"externalClients"`
	Ledger          LedgerConfig         `mapstructure:"ledger"`
	Cache           CacheConfig          `mapstructure:"cache"`
	Scheduler       SchedulerConfig      `mapstructure:"scheduler"`
	Auth            AuthConfig           `mapstructure:"auth"`
	Logging         LoggingConfig        `mapstructure:"logging"`
	Secrets         SecretsConfig        `mapstructure:"secrets"`
}

type ServiceType string

const (
	API    ServiceType = "API"
	WORKER ServiceType = "WORKER"
)

type ServiceConfig struct {
	Type           ServiceType `mapstructure:"type"`
	Port           string      `mapstructure:"port"`
	AllowedOrigins []string    `mapstructure:"allowedOrigins"`
}

type DatabasesConfig struct {
	SQL   SQLConfig   `mapstructure:"sql"`
	Redis RedisConfig `mapstructure:"redis"`
}

type SQLConfig struct {
	Host             string `mapstructure:"host"`
	Port             string `mapstructure:"port"`
	Username         string `mapstructure:"username"`
	Password         string `mapstructure:"password"`
	Driver           string `mapstructure:"driver"`
	Database         string `mapstructure:"database"`
	ConnectionString string `mapstructure:"connection_string"`
	MigrationsDir    string `mapstructure:"migrationsDir"`
	MaxConns         int32  `mapstructure:"maxConns"`
}

// DSN returns the connection string, building one from the discrete fields when none is configured.
func (c SQLConfig) DSN() string {
	if c.ConnectionString != "" {
		return c.ConnectionString
	}
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		c.Host,
		c.Username,
		c.Password,
		c.Database,
		c.Port)
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	Database int    `mapstructure:"database"`
	TLS      bool   `mapstructure:"tls"`
}

type ExternalClientConfig struct {
	MarketData MarketDataConfig `mapstructure:"marketData"`
}

type MarketDataConfig struct {
	BaseURL    string        `mapstructure:"baseUrl"`
	Timeout    time.Duration `mapstructure:"timeout"`
	RateLimit  int           `mapstructure:"rateLimit"`
	MaxRetries uint64        `mapstructure:"maxRetries"`
}

type LedgerConfig struct {
	PriceFetchTimeout time.Duration `mapstructure:"priceFetchTimeout"`
}

type CacheBackend string

const (
	CacheBackendPostgres CacheBackend = "postgres"
	CacheBackendRedis    CacheBackend = "redis"
)

type CacheConfig struct {
	Backend CacheBackend `mapstructure:"backend"`
}

type SchedulerConfig struct {
	PriceRefreshCron string `mapstructure:"priceRefreshCron"`
	SnapshotCron     string `mapstructure:"snapshotCron"`
	RefreshWorkers   int    `mapstructure:"refreshWorkers"`
}

type AuthConfig struct {
	JWTSecret string `mapstructure:"jwtSecret"`
}

type LoggingConfig struct {
	Level    string `mapstructure:"level"`
	ToFile   bool   `mapstructure:"toFile"`
	FilePath string `mapstructure:"filePath"`
}

type SecretsConfig struct {
	AWSRegion          string `mapstructure:"awsRegion"`
	DBPasswordSecretID string `mapstructure:"dbPasswordSecretId"`
	JWTSecretSecretID  string `mapstructure:"jwtSecretSecretId"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("service.type", string(API))
	v.SetDefault("service.port", "8000")
	v.SetDefault("service.allowedOrigins", []string{"*"})

	v.SetDefault("databases.sql.host", "localhost")
	v.SetDefault("databases.sql.port", "5432")
	v.SetDefault("databases.sql.username", "postgres")
	v.SetDefault("databases.sql.password", "")
	v.SetDefault("databases.sql.driver", "postgres")
	v.SetDefault("databases.sql.database", "portfolio")
	v.SetDefault("databases.sql.connection_string", "")
	v.SetDefault("databases.sql.migrationsDir", "./migrations")
	v.SetDefault("databases.sql.maxConns", 10)

	v.SetDefault("databases.redis.enabled", false)
	v.SetDefault("databases.redis.host", "localhost")
	v.SetDefault("databases.redis.port", "6379")
	v.SetDefault("databases.redis.username", "")
	v.SetDefault("databases.redis.password", "")
	v.SetDefault("databases.redis.database", 0)
	v.SetDefault("databases.redis.tls", false)

	v.SetDefault("externalClients.marketData.baseUrl", "https://query2.finance.yahoo.com")
	v.SetDefault("externalClients.marketData.timeout", "8s")
	v.SetDefault("externalClients.marketData.rateLimit", 5)
	v.SetDefault("externalClients.marketData.maxRetries", 2)

	v.SetDefault("ledger.priceFetchTimeout", "5s")
	v.SetDefault("cache.backend", string(CacheBackendPostgres))

	v.SetDefault("scheduler.priceRefreshCron", "*/15 * * * *")
	v.SetDefault("scheduler.snapshotCron", "55 23 * * *")
	v.SetDefault("scheduler.refreshWorkers", 4)

	v.SetDefault("auth.jwtSecret", "")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.toFile", false)
	v.SetDefault("logging.filePath", "./logs/portfolio.log")

	v.SetDefault("secrets.awsRegion", "")
	v.SetDefault("secrets.dbPasswordSecretId", "")
	v.SetDefault("secrets.jwtSecretSecretId", "")
}

// LoadConfig reads appsettings.yaml from path and, when env is set, merges appsettings.<env>.yaml over it.
// Environment variables override any key, e.g. DATABASES_SQL_HOST.
func LoadConfig(path string, env ...string) (*Config, error) {
	var cfg Config

	v := viper.New()
	setDefaults(v)

	v.AddConfigPath(path)
	v.SetConfigName("appsettings")
	v.SetConfigType("yaml")

	err := v.ReadInConfig()
	if err != nil {
		return nil, err
	}

	if len(env) > 0 && env[0] != "" {
		v.SetConfigName("appsettings." + env[0])
		if err := v.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("failed to merge %s settings: %w", env[0], err)
		}
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	err = v.Unmarshal(&cfg)
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

type secretGetter interface {
	GetSecretValue(secretID string) (string, error)
}

// ResolveSecrets replaces secret values with the ones stored in AWS Secrets Manager.
func ResolveSecrets(cfg *Config) error {
	if cfg.Secrets.AWSRegion == "" {
		return nil
	}
	handler, err := aws_handler.NewAWSHandler(cfg.Secrets.AWSRegion)
	if err != nil {
		return err
	}
	return resolveSecrets(cfg, handler.SecretManager)
}

func resolveSecrets(cfg *Config, secrets secretGetter) error {
	if id := cfg.Secrets.DBPasswordSecretID; id != "" {
		password, err := secrets.GetSecretValue(id)
		if err != nil {
			return fmt.Errorf("failed to resolve database password: %w", err)
		}
		cfg.Databases.SQL.Password = password
	}
	if id := cfg.Secrets.JWTSecretSecretID; id != "" {
		secret, err := secrets.GetSecretValue(id)
		if err != nil {
			return fmt.Errorf("failed to resolve jwt secret: %w", err)
		}
		cfg.Auth.JWTSecret = secret
	}
	return nil
}
