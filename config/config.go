package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/spf13/viper"
	"go.mongodb.org/mongo-driver/mongo/options"
	"gopkg.in/yaml.v3"
)

const (
	CONFIG_PATH = "./res/config.yaml"
	// CONFIG_PATH_ENV overrides CONFIG_PATH when set.
	CONFIG_PATH_ENV = "CLINICA_CONFIG"

	DatabaseTypeMongo    = "mongo"
	DatabaseTypePostgres = "postgres"
	DatabaseTypeMemory   = "memory"

	mongoSRVScheme = "mongodb+srv"
	mongoURIQuery  = "retryWrites=true&w=majority"
)

// ErrNoConnectionInfo is returned when neither a full connection string nor
// the parts needed to assemble one are present.
var ErrNoConnectionInfo = errors.New("no database connection info: define MONGO_URI or MONGO_HOST and MONGO_DB")

// ServiceConfig holds the configuration for the service.
type ServiceConfig struct {
	ServiceName     string          `yaml:"service_name" validate:"required"`
	LogLevel        string          `yaml:"loglevel" validate:"required"`
	Host            string          `yaml:"host" validate:"required"`
	Port            string          `yaml:"port" validate:"required"`
	ShutdownTimeout time.Duration   `yaml:"shutdown_timeout"`
	RateLimit       RateLimitConfig `yaml:"rate_limit"`
	Database        Database        `yaml:"database" validate:"required"`
}

type RateLimitConfig struct {
	// RPS of zero disables rate limiting.
	RPS   float64 `yaml:"rps" validate:"gte=0"`
	Burst int     `yaml:"burst" validate:"gte=0"`
}

type Database struct {
	Type string `yaml:"type" validate:"required,oneof=mongo postgres memory"`
	// For MongoDB
	MongoDB MongoDBConfig `yaml:"mongodb_config" validate:"omitempty"`
	// For PostgreSQL
	Postgres PostgresConfig `yaml:"postgres_config" validate:"omitempty"`
}

// MongoDBConfig holds the MongoDB client tuning. The connection string
// itself comes from the environment, see ConnectionEnv.
type MongoDBConfig struct {
	Timeout time.Duration      `yaml:"timeout"`
	Options MongoServerOptions `yaml:"mongo_server_options"`
}

type PostgresConfig struct {
	Options PostgresServerOptions `yaml:"postgres_server_options"`
}

type MongoServerOptions struct {
	APIVersion           string `yaml:"api_version"`
	SetStrict            bool   `yaml:"set_strict"`
	SetDeprecationErrors bool   `yaml:"set_deprecation_errors"`
}

type PostgresServerOptions struct {
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
}

// ConnectionEnv holds the connection settings read from the environment.
type ConnectionEnv struct {
	URI          string `mapstructure:"MONGO_URI"`
	User         string `mapstructure:"MONGO_USER"`
	Password     string `mapstructure:"MONGO_PASS"`
	Host         string `mapstructure:"MONGO_HOST"`
	DatabaseName string `mapstructure:"MONGO_DB"`
	PostgresDSN  string `mapstructure:"POSTGRES_DSN"`
}

// ReadLocalConfig reads the service configuration from a YAML file at the specified path.
// It unmarshals the YAML content into a ServiceConfig struct and returns it.
// If there is an error reading the file or unmarshaling the content, it returns an error.
func ReadLocalConfig(configPath string) (*ServiceConfig, error) {
	config := &ServiceConfig{}

	yamlFile, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	err = yaml.Unmarshal(yamlFile, config)
	if err != nil {
		return nil, err
	}

	return config, nil
}

// Path returns the config file location, honoring CONFIG_PATH_ENV.
func Path() string {
	if p := os.Getenv(CONFIG_PATH_ENV); p != "" {
		return p
	}
	return CONFIG_PATH
}

// LoadConnectionEnv reads the connection settings from the environment and,
// when present, a .env file in the working directory.
func LoadConnectionEnv() (*ConnectionEnv, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()

	for _, key := range []string{"MONGO_URI", "MONGO_USER", "MONGO_PASS", "MONGO_HOST", "MONGO_DB", "POSTGRES_DSN"} {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("bind %s: %w", key, err)
		}
	}

	// A missing .env file is not an error.
	_ = v.ReadInConfig()

	env := &ConnectionEnv{}
	if err := v.Unmarshal(env); err != nil {
		return nil, fmt.Errorf("unmarshal connection env: %w", err)
	}
	return env, nil
}

// MongoURI returns MONGO_URI when set, otherwise the URI assembled from the parts.
func (e *ConnectionEnv) MongoURI() (string, error) {
	if e.URI != "" {
		return e.URI, nil
	}
	uri := BuildMongoURI(e.User, e.Password, e.Host, e.DatabaseName)
	if uri == "" {
		return "", ErrNoConnectionInfo
	}
	return uri, nil
}

// DSN returns the data source name for the configured database type.
// The memory backend needs none.
func (e *ConnectionEnv) DSN(databaseType string) (string, error) {
	switch databaseType {
	case DatabaseTypeMongo:
		return e.MongoURI()
	case DatabaseTypePostgres:
		if e.PostgresDSN == "" {
			return "", fmt.Errorf("%w: POSTGRES_DSN is empty", ErrNoConnectionInfo)
		}
		return e.PostgresDSN, nil
	case DatabaseTypeMemory:
		return "", nil
	default:
		return "", fmt.Errorf("unsupported database type: %s", databaseType)
	}
}

// BuildMongoURI assembles an SRV connection string from discrete parts.
// Credentials are only included when both user and password are set.
// Returns "" when host or database name is missing.
func BuildMongoURI(user, password, host, databaseName string) string {
	if host == "" || databaseName == "" {
		return ""
	}
	u := url.URL{
		Scheme:   mongoSRVScheme,
		Host:     host,
		Path:     "/" + databaseName,
		RawQuery: mongoURIQuery,
	}
	if user != "" && password != "" {
		u.User = url.UserPassword(user, password)
	}
	return u.String()
}

func BuildServerAPIOptions(cfg MongoServerOptions) *options.ServerAPIOptions {
	if cfg.APIVersion == "" {
		return nil
	}
	opts := options.ServerAPI(options.ServerAPIVersion(cfg.APIVersion))
	opts.SetStrict(cfg.SetStrict)
	opts.SetDeprecationErrors(cfg.SetDeprecationErrors)

	return opts
}

func ListToMap(list []string) map[string]bool {
	result := make(map[string]bool)
	for _, item := range list {
		result[item] = true
	}
	return result
}
