package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	Database     DatabaseConfig     `mapstructure:"database"`
	Security     SecurityConfig     `mapstructure:"security"`
	Logging      LoggingConfig      `mapstructure:"logging"`
	Certificates CertificatesConfig `mapstructure:"certificates"`
	Storage      StorageConfig      `mapstructure:"storage"`
	Worker       WorkerConfig       `mapstructure:"worker"`
}

// ServerConfig represents server configuration
type ServerConfig struct {
	Host           string        `mapstructure:"host"`
	Port           int           `mapstructure:"port"`
	Mode           string        `mapstructure:"mode"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	IdleTimeout    time.Duration `mapstructure:"idle_timeout"`
	AllowedOrigins []string      `mapstructure:"allowed_origins"`
}

// DatabaseConfig represents database configuration
type DatabaseConfig struct {
	Driver         string        `mapstructure:"driver"` // postgres or sqlite
	Host           string        `mapstructure:"host"`
	Port           int           `mapstructure:"port"`
	User           string        `mapstructure:"user"`
	Password       string        `mapstructure:"password"`
	DBName         string        `mapstructure:"db_name"`
	SSLMode        string        `mapstructure:"ssl_mode"`
	SQLitePath     string        `mapstructure:"sqlite_path"`
	MaxConnections int           `mapstructure:"max_connections"`
	MaxIdleConns   int           `mapstructure:"max_idle_conns"`
	MaxLifetime    time.Duration `mapstructure:"max_lifetime"`
	ConnectRetries int           `mapstructure:"connect_retries"`
	Debug          bool          `mapstructure:"debug"`
}

// SecurityConfig
type SecurityConfig struct {
	JWTSecret         string        `mapstructure:"jwt_secret"`
	TokenTTL          time.Duration `mapstructure:"token_ttl"`
	LoginFailureLimit int           `mapstructure:"login_failure_limit"`
	LockoutDuration   time.Duration `mapstructure:"lockout_duration"`
	AdminUsername     string        `mapstructure:"admin_username"`
	AdminPassword     string        `mapstructure:"admin_password"`
	AdminEmail        string        `mapstructure:"admin_email"`
}

// LoggingConfig
type LoggingConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

// CertificatesConfig drives the certificate lifecycle and rendering.
type CertificatesConfig struct {
	FrontendURL      string `mapstructure:"frontend_url"`
	PublicBaseURL    string `mapstructure:"public_base_url"`
	ExpiringSoonDays int    `mapstructure:"expiring_soon_days"`
	Timezone         string `mapstructure:"timezone"`
	AssetsDir        string `mapstructure:"assets_dir"`
	Language         string `mapstructure:"pdf_language"`
}

// StorageConfig selects where QR images live.
type StorageConfig struct {
	Backend     string        `mapstructure:"backend"` // local or s3
	MediaRoot   string        `mapstructure:"media_root"`
	MediaURL    string        `mapstructure:"media_url"`
	S3Bucket    string        `mapstructure:"s3_bucket"`
	S3Region    string        `mapstructure:"s3_region"`
	S3Prefix    string        `mapstructure:"s3_prefix"`
	S3Endpoint  string        `mapstructure:"s3_endpoint"`
	S3PathStyle bool          `mapstructure:"s3_path_style"`
	AccessKey   string        `mapstructure:"access_key"`
	SecretKey   string        `mapstructure:"secret_key"`
	PresignTTL  time.Duration `mapstructure:"presign_ttl"`
}

// WorkerConfig configures the scheduled status refresh.
type WorkerConfig struct {
	StatusRefreshCron string `mapstructure:"status_refresh_cron"`
	RunOnStart        bool   `mapstructure:"run_on_start"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.idle_timeout", 60*time.Second)
	v.SetDefault("server.allowed_origins", []string{"*"})

	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.db_name", "msc_certifications")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.sqlite_path", "msc_certifications.db")
	v.SetDefault("database.max_connections", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.max_lifetime", 5*time.Minute)
	v.SetDefault("database.connect_retries", 10)
	v.SetDefault("database.debug", false)

	v.SetDefault("security.jwt_secret", "")
	v.SetDefault("security.token_ttl", 24*time.Hour)
	v.SetDefault("security.login_failure_limit", 5)
	v.SetDefault("security.lockout_duration", 30*time.Minute)
	v.SetDefault("security.admin_username", "")
	v.SetDefault("security.admin_password", "")
	v.SetDefault("security.admin_email", "")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.development", false)

	v.SetDefault("certificates.frontend_url", "https://msc-cert.com")
	v.SetDefault("certificates.public_base_url", "")
	v.SetDefault("certificates.expiring_soon_days", 90)
	v.SetDefault("certificates.timezone", "Europe/Tirane")
	v.SetDefault("certificates.assets_dir", "assets")
	v.SetDefault("certificates.pdf_language", "sq")

	v.SetDefault("storage.backend", "local")
	v.SetDefault("storage.media_root", "media")
	v.SetDefault("storage.media_url", "/media")
	v.SetDefault("storage.s3_bucket", "")
	v.SetDefault("storage.s3_region", "eu-central-1")
	v.SetDefault("storage.s3_prefix", "")
	v.SetDefault("storage.s3_endpoint", "")
	v.SetDefault("storage.s3_path_style", false)
	v.SetDefault("storage.access_key", "")
	v.SetDefault("storage.secret_key", "")
	v.SetDefault("storage.presign_ttl", 15*time.Minute)

	v.SetDefault("worker.status_refresh_cron", "0 5 0 * * *")
	v.SetDefault("worker.run_on_start", true)
}

// LoadConfig loads configuration from defaults, an optional file (JSON,
// YAML or TOML by extension) and environment variables. A key such as
// database.host is overridden by DATABASE_HOST.
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
		}
	}

	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate checks settings that would otherwise fail late at runtime.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	switch c.Storage.Backend {
	case "local":
	case "s3":
		if c.Storage.S3Bucket == "" {
			return errors.New("storage.s3_bucket is required for the s3 backend")
		}
	default:
		return fmt.Errorf("unsupported storage backend %q", c.Storage.Backend)
	}
	if c.Certificates.ExpiringSoonDays < 0 {
		return errors.New("certificates.expiring_soon_days must not be negative")
	}
	if _, err := time.LoadLocation(c.Certificates.Timezone); err != nil {
		return fmt.Errorf("invalid certificates.timezone: %w", err)
	}
	return nil
}

// Location returns the zone used to decide what "today" is.
func (c *CertificatesConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// GetDatabaseURL returns the database connection string
func (c *DatabaseConfig) GetDatabaseURL() string {
	if c.Driver == "sqlite" {
		return c.SQLitePath
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode)
}

// GetServerAddr returns the server address
func (c *ServerConfig) GetServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
