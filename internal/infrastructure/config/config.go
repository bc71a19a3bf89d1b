package config

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Store drivers understood by the document store factory.
const (
	DriverGist     = "gist"
	DriverFile     = "file"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config holds all configuration for our application
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Log      LogConfig      `mapstructure:"log"`
	Store    StoreConfig    `mapstructure:"store"`
	Gist     GistConfig     `mapstructure:"gist"`
	File     FileConfig     `mapstructure:"file"`
	Database DatabaseConfig `mapstructure:"database"`
	Audio    AudioConfig    `mapstructure:"audio"`
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host        string   `mapstructure:"host"`
	Port        int      `mapstructure:"port"`
	CORSOrigins []string `mapstructure:"cors_origins"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// StoreConfig selects the document store backend.
type StoreConfig struct {
	Driver  string        `mapstructure:"driver"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// GistConfig locates the remote document.
type GistConfig struct {
	ID       string `mapstructure:"id"`
	Token    string `mapstructure:"token"`
	Filename string `mapstructure:"filename"`
	BaseURL  string `mapstructure:"base_url"`
}

// FileConfig holds the local JSON document path.
type FileConfig struct {
	Path string `mapstructure:"path"`
}

// DatabaseConfig holds database configuration for the sqlite and postgres drivers.
type DatabaseConfig struct {
	Path     string `mapstructure:"path"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Name     string `mapstructure:"name"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	SSLMode  string `mapstructure:"sslmode"`
	Document string `mapstructure:"document"`
	LogSQL   bool   `mapstructure:"log_sql"`
}

// AudioConfig holds the audio storage credentials and upload rules.
type AudioConfig struct {
	CloudName    string `mapstructure:"cloud_name"`
	APIKey       string `mapstructure:"api_key"`
	APISecret    string `mapstructure:"api_secret"`
	Folder       string `mapstructure:"folder"`
	Format       string `mapstructure:"format"`
	ResourceType string `mapstructure:"resource_type"`
	MaxBytes     int64  `mapstructure:"max_bytes"`
}

// Load reads configuration from file and environment variables
func Load() (*Config, error) {
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	// Set default values
	setDefaults()

	// Enable reading from environment variables
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	if err := bindLegacyEnv(); err != nil {
		return nil, err
	}

	// Read configuration file
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	config.Store.Driver = strings.ToLower(strings.TrimSpace(config.Store.Driver))

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults() {
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 3000)
	viper.SetDefault("server.cors_origins", []string{"*"})

	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.format", "json")

	viper.SetDefault("store.driver", DriverGist)
	viper.SetDefault("store.timeout", 15*time.Second)

	viper.SetDefault("gist.id", "")
	viper.SetDefault("gist.token", "")
	viper.SetDefault("gist.filename", "words.json")
	viper.SetDefault("gist.base_url", "https://api.github.com")

	viper.SetDefault("file.path", "data/words.json")

	viper.SetDefault("database.path", "data/untranslatable.db")
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.name", "untranslatable")
	viper.SetDefault("database.user", "postgres")
	viper.SetDefault("database.password", "postgres")
	viper.SetDefault("database.sslmode", "disable")
	viper.SetDefault("database.document", "words")
	viper.SetDefault("database.log_sql", false)

	viper.SetDefault("audio.cloud_name", "")
	viper.SetDefault("audio.api_key", "")
	viper.SetDefault("audio.api_secret", "")
	viper.SetDefault("audio.folder", "untranslatable")
	viper.SetDefault("audio.format", "mp3")
	viper.SetDefault("audio.resource_type", "video")
	viper.SetDefault("audio.max_bytes", 1<<20)
}

// bindLegacyEnv keeps the bare variable names deployments already use.
func bindLegacyEnv() error {
	bindings := map[string][]string{
		"server.port":      {"SERVER_PORT", "PORT"},
		"audio.cloud_name": {"AUDIO_CLOUD_NAME", "CLOUDINARY_CLOUD_NAME"},
		"audio.api_key":    {"AUDIO_API_KEY", "CLOUDINARY_API_KEY"},
		"audio.api_secret": {"AUDIO_API_SECRET", "CLOUDINARY_API_SECRET"},
	}
	for key, envs := range bindings {
		if err := viper.BindEnv(append([]string{key}, envs...)...); err != nil {
			return fmt.Errorf("bind env %s: %w", key, err)
		}
	}
	return nil
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// DatabaseURL returns the PostgreSQL connection string
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// SQLiteDSN returns the go-sqlite3 data source for the configured path.
func (c *Config) SQLiteDSN() string {
	return "file:" + c.Database.Path + "?_busy_timeout=5000&_journal_mode=WAL"
}
