package infrastructure

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	mysqldriver "github.com/go-sql-driver/mysql"
	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

const (
	defaultMaxFileSize     = 100 << 20
	defaultMultipartMemory = 32 << 20
	multipartOverhead      = 1 << 20
)

// Duration is a time.Duration written as "30s" or "5m" in config files
// and environment variables.
type Duration time.Duration

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

type ServerConfig struct {
	Addr            string   `mapstructure:"addr"`
	MaxRequestBytes int64    `mapstructure:"max_request_bytes"`
	MultipartMemory int64    `mapstructure:"multipart_memory"`
	ReadTimeout     Duration `mapstructure:"read_timeout"`
	WriteTimeout    Duration `mapstructure:"write_timeout"`
}

type UploadConfig struct {
	Dir               string   `mapstructure:"dir"`
	AllowedExtensions []string `mapstructure:"allowed_extensions"`
	MaxFileSize       int64    `mapstructure:"max_file_size"`
}

type DatabaseConfig struct {
	DSN             string   `mapstructure:"dsn"`
	Host            string   `mapstructure:"host"`
	Port            int      `mapstructure:"port"`
	User            string   `mapstructure:"user"`
	Password        string   `mapstructure:"password"`
	Name            string   `mapstructure:"name"`
	Charset         string   `mapstructure:"charset"`
	Collation       string   `mapstructure:"collation"`
	MaxOpenConns    int      `mapstructure:"max_open_conns"`
	MaxIdleConns    int      `mapstructure:"max_idle_conns"`
	ConnMaxLifetime Duration `mapstructure:"conn_max_lifetime"`
	AutoMigrate     bool     `mapstructure:"auto_migrate"`
}

type RabbitMQConfig struct {
	URL   string `mapstructure:"url"`
	Queue string `mapstructure:"queue"`
}

type AdminConfig struct {
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	File   string `mapstructure:"file"`
}

// Config is everything the service needs at startup. It is built once and
// passed to constructors.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Upload   UploadConfig   `mapstructure:"upload"`
	Database DatabaseConfig `mapstructure:"database"`
	RabbitMQ RabbitMQConfig `mapstructure:"rabbitmq"`
	Admin    AdminConfig    `mapstructure:"admin"`
	Log      LogConfig      `mapstructure:"log"`
}

func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8080",
			MultipartMemory: defaultMultipartMemory,
			ReadTimeout:     Duration(5 * time.Minute),
			WriteTimeout:    Duration(5 * time.Minute),
		},
		Upload: UploadConfig{
			Dir:               "uploads/videos",
			AllowedExtensions: []string{"webm", "mp4", "mov", "avi"},
			MaxFileSize:       defaultMaxFileSize,
		},
		Database: DatabaseConfig{
			Host:            "localhost",
			Port:            3306,
			Charset:         "utf8mb4",
			Collation:       "utf8mb4_unicode_ci",
			MaxOpenConns:    10,
			MaxIdleConns:    5,
			ConnMaxLifetime: Duration(30 * time.Minute),
			AutoMigrate:     true,
		},
		RabbitMQ: RabbitMQConfig{
			Queue: "application_submitted",
		},
		Admin: AdminConfig{
			Username: "admin",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// envBindings keeps the environment variable names the service has always
// used. Anything set there overrides the config file.
var envBindings = map[string]string{
	"server.addr":              "SERVER_ADDR",
	"server.max_request_bytes": "MAX_REQUEST_BYTES",
	"server.multipart_memory":  "MULTIPART_MEMORY",
	"server.read_timeout":      "SERVER_READ_TIMEOUT",
	"server.write_timeout":     "SERVER_WRITE_TIMEOUT",

	"upload.dir":                "UPLOAD_DIR",
	"upload.allowed_extensions": "ALLOWED_VIDEO_EXTENSIONS",
	"upload.max_file_size":      "MAX_FILE_SIZE",

	"database.dsn":               "DB_DSN",
	"database.host":              "DB_HOST",
	"database.port":              "DB_PORT",
	"database.user":              "DB_USER",
	"database.password":          "DB_PASS",
	"database.name":              "DB_NAME",
	"database.charset":           "DB_CHARSET",
	"database.collation":         "DB_COLLATION",
	"database.max_open_conns":    "DB_MAX_OPEN_CONNS",
	"database.max_idle_conns":    "DB_MAX_IDLE_CONNS",
	"database.conn_max_lifetime": "DB_CONN_MAX_LIFETIME",
	"database.auto_migrate":      "DB_AUTO_MIGRATE",

	"rabbitmq.url":   "RABBITMQ_URL",
	"rabbitmq.queue": "RABBITMQ_QUEUE",

	"admin.username": "ADMIN_USERNAME",
	"admin.password": "ADMIN_PASSWORD",

	"log.level":  "LOG_LEVEL",
	"log.format": "LOG_FORMAT",
	"log.file":   "LOG_FILE",
}

func setDefaults(v *viper.Viper) {
	d := DefaultConfig()

	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("server.max_request_bytes", d.Server.MaxRequestBytes)
	v.SetDefault("server.multipart_memory", d.Server.MultipartMemory)
	v.SetDefault("server.read_timeout", d.Server.ReadTimeout)
	v.SetDefault("server.write_timeout", d.Server.WriteTimeout)

	v.SetDefault("upload.dir", d.Upload.Dir)
	v.SetDefault("upload.allowed_extensions", d.Upload.AllowedExtensions)
	v.SetDefault("upload.max_file_size", d.Upload.MaxFileSize)

	v.SetDefault("database.dsn", d.Database.DSN)
	v.SetDefault("database.host", d.Database.Host)
	v.SetDefault("database.port", d.Database.Port)
	v.SetDefault("database.user", d.Database.User)
	v.SetDefault("database.password", d.Database.Password)
	v.SetDefault("database.name", d.Database.Name)
	v.SetDefault("database.charset", d.Database.Charset)
	v.SetDefault("database.collation", d.Database.Collation)
	v.SetDefault("database.max_open_conns", d.Database.MaxOpenConns)
	v.SetDefault("database.max_idle_conns", d.Database.MaxIdleConns)
	v.SetDefault("database.conn_max_lifetime", d.Database.ConnMaxLifetime)
	v.SetDefault("database.auto_migrate", d.Database.AutoMigrate)

	v.SetDefault("rabbitmq.url", d.RabbitMQ.URL)
	v.SetDefault("rabbitmq.queue", d.RabbitMQ.Queue)

	v.SetDefault("admin.username", d.Admin.Username)
	v.SetDefault("admin.password", d.Admin.Password)

	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("log.file", d.Log.File)
}

// LoadConfig reads the TOML file at path when it exists, then applies
// environment overrides. An empty path skips the file.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("bind %s: %w", env, err)
		}
	}

	if path != "" {
		_, err := os.Stat(path)
		switch {
		case err == nil:
			v.SetConfigFile(path)
			v.SetConfigType("toml")
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("error reading config file %s: %w", path, err)
			}
		case errors.Is(err, os.ErrNotExist):
		default:
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.TextUnmarshallerHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))); err != nil {
		return nil, fmt.Errorf("error decoding config: %w", err)
	}

	cfg.Upload.AllowedExtensions = normalizeExtensions(cfg.Upload.AllowedExtensions)
	if cfg.Server.MaxRequestBytes == 0 {
		cfg.Server.MaxRequestBytes = cfg.Upload.MaxFileSize + multipartOverhead
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// normalizeExtensions lowercases entries, drops a leading dot and skips
// blanks, so " .MP4, webm" and ["mp4", "webm"] mean the same thing.
func normalizeExtensions(exts []string) []string {
	var out []string
	for _, ext := range exts {
		ext = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
		if ext != "" {
			out = append(out, ext)
		}
	}
	return out
}

// Validate rejects configurations the service cannot run with.
func (c *Config) Validate() error {
	if c.Upload.Dir == "" {
		return errors.New("upload directory is not specified")
	}
	if len(c.Upload.AllowedExtensions) == 0 {
		return errors.New("at least one allowed video extension is required")
	}
	if c.Upload.MaxFileSize <= 0 {
		return fmt.Errorf("max file size must be positive, got %d", c.Upload.MaxFileSize)
	}
	if c.Server.MaxRequestBytes <= 0 {
		return fmt.Errorf("max request bytes must be positive, got %d", c.Server.MaxRequestBytes)
	}
	if c.Database.DSN == "" && c.Database.Name == "" {
		return errors.New("database name is not specified, set DB_NAME or DB_DSN")
	}
	return nil
}

// DataSourceName returns the MySQL DSN. An explicit DSN wins over the
// individual fields.
func (d DatabaseConfig) DataSourceName() string {
	if d.DSN != "" {
		return d.DSN
	}

	mc := mysqldriver.NewConfig()
	mc.User = d.User
	mc.Passwd = d.Password
	mc.Net = "tcp"
	mc.Addr = fmt.Sprintf("%s:%d", d.Host, d.Port)
	mc.DBName = d.Name
	mc.ParseTime = true
	mc.Loc = time.Local
	mc.Collation = d.Collation
	if d.Charset != "" {
		mc.Params = map[string]string{"charset": d.Charset}
	}
	return mc.FormatDSN()
}

