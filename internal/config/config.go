package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/tmcoach/board/internal/timeline"
	"github.com/tmcoach/board/pkg/core"
)

// FileName is the name of the JSON config file looked up in the config dir
const FileName = "tmc.cfg.json"

// FileConfig holds file storage backend settings
type FileConfig struct {
	Dir      string `json:"dir" mapstructure:"dir"`
	Compress bool   `json:"compress" mapstructure:"compress"`
}

// MemoryConfig holds in-memory storage backend settings. When OutputDir is
// set every project is exported there on shutdown.
type MemoryConfig struct {
	OutputDir      string `json:"outputDir" mapstructure:"outputDir"`
	CompressOutput bool   `json:"compressOutput" mapstructure:"compressOutput"`
}

// SQLiteConfig holds SQLite backend settings. An empty Path keeps the
// database in memory and dumps it to DumpPath every DumpInterval.
type SQLiteConfig struct {
	Path         string        `json:"path" mapstructure:"path"`
	DumpPath     string        `json:"dumpPath" mapstructure:"dumpPath"`
	DumpInterval time.Duration `json:"dumpInterval" mapstructure:"dumpInterval"`
}

// PostgresConfig holds PostgreSQL connection settings
type PostgresConfig struct {
	Host     string `json:"host" mapstructure:"host"`
	Port     string `json:"port" mapstructure:"port"`
	Username string `json:"username" mapstructure:"username"`
	Password string `json:"password" mapstructure:"password"`
	Database string `json:"database" mapstructure:"database"`
	SSLMode  string `json:"sslMode" mapstructure:"sslMode"`
}

// RedisConfig holds Redis backend settings
type RedisConfig struct {
	Addr      string `json:"addr" mapstructure:"addr"`
	Password  string `json:"password" mapstructure:"password"`
	DB        int    `json:"db" mapstructure:"db"`
	KeyPrefix string `json:"keyPrefix" mapstructure:"keyPrefix"`
}

// WebSocketConfig holds remote websocket store settings
type WebSocketConfig struct {
	URL    string `json:"url" mapstructure:"url"`
	Secret string `json:"secret" mapstructure:"secret"`
}

// StorageConfig selects and configures the project store
type StorageConfig struct {
	Type      string          `json:"type" mapstructure:"type"`
	File      FileConfig      `json:"file" mapstructure:"file"`
	Memory    MemoryConfig    `json:"memory" mapstructure:"memory"`
	SQLite    SQLiteConfig    `json:"sqlite" mapstructure:"sqlite"`
	Postgres  PostgresConfig  `json:"postgres" mapstructure:"postgres"`
	Redis     RedisConfig     `json:"redis" mapstructure:"redis"`
	WebSocket WebSocketConfig `json:"websocket" mapstructure:"websocket"`
}

// ServerConfig holds HTTP API settings
type ServerConfig struct {
	Addr         string        `json:"addr" mapstructure:"addr"`
	APIKey       string        `json:"apiKey" mapstructure:"apiKey"`
	ReadTimeout  time.Duration `json:"readTimeout" mapstructure:"readTimeout"`
	WriteTimeout time.Duration `json:"writeTimeout" mapstructure:"writeTimeout"`
}

// APIConfig points the CLI at a running server
type APIConfig struct {
	ServerURL string `json:"serverUrl" mapstructure:"serverUrl"`
	APIKey    string `json:"apiKey" mapstructure:"apiKey"`
}

// OTelConfig holds OpenTelemetry export settings. Log and metric files are
// written next to the regular log file.
type OTelConfig struct {
	Enabled      bool          `json:"enabled" mapstructure:"enabled"`
	ServiceName  string        `json:"serviceName" mapstructure:"serviceName"`
	BatchTimeout time.Duration `json:"batchTimeout" mapstructure:"batchTimeout"`
	Endpoint     string        `json:"endpoint" mapstructure:"endpoint"`
	Insecure     bool          `json:"insecure" mapstructure:"insecure"`
	Metrics      bool          `json:"metrics" mapstructure:"metrics"`
}

// SetDefaults registers every default value. Load calls it; tests and
// callers without a config file can call it directly.
func SetDefaults() {
	viper.SetDefault("logLevel", "info")
	viper.SetDefault("logsDir", "./tmclogs")

	viper.SetDefault("pitch.width", 1050)
	viper.SetDefault("pitch.height", 680)
	viper.SetDefault("pitch.padding", 40)
	viper.SetDefault("pitch.gridSize", 10)
	viper.SetDefault("pitch.orientation", string(core.Landscape))

	viper.SetDefault("teams.home.name", "Home")
	viper.SetDefault("teams.home.primaryColor", "#e53935")
	viper.SetDefault("teams.home.secondaryColor", "#ffffff")
	viper.SetDefault("teams.away.name", "Away")
	viper.SetDefault("teams.away.primaryColor", "#1e88e5")
	viper.SetDefault("teams.away.secondaryColor", "#ffffff")

	viper.SetDefault("timeline.defaultDuration", 2000)
	viper.SetDefault("timeline.defaultName", "Step")

	viper.SetDefault("storage.type", "file")
	viper.SetDefault("storage.file.dir", "./projects")
	viper.SetDefault("storage.file.compress", false)
	viper.SetDefault("storage.memory.outputDir", "")
	viper.SetDefault("storage.memory.compressOutput", true)
	viper.SetDefault("storage.sqlite.path", "./projects.db")
	viper.SetDefault("storage.sqlite.dumpPath", "")
	viper.SetDefault("storage.sqlite.dumpInterval", "3m")
	viper.SetDefault("storage.postgres.host", "localhost")
	viper.SetDefault("storage.postgres.port", "5432")
	viper.SetDefault("storage.postgres.username", "postgres")
	viper.SetDefault("storage.postgres.password", "postgres")
	viper.SetDefault("storage.postgres.database", "tmc")
	viper.SetDefault("storage.postgres.sslMode", "disable")
	viper.SetDefault("storage.redis.addr", "localhost:6379")
	viper.SetDefault("storage.redis.db", 0)
	viper.SetDefault("storage.redis.keyPrefix", "tmc")
	viper.SetDefault("storage.websocket.url", "ws://localhost:3000/ws")

	viper.SetDefault("server.addr", ":3000")
	viper.SetDefault("server.apiKey", "")
	viper.SetDefault("server.readTimeout", "15s")
	viper.SetDefault("server.writeTimeout", "15s")

	viper.SetDefault("api.serverUrl", "http://localhost:3000")
	viper.SetDefault("api.apiKey", "")

	viper.SetDefault("otel.enabled", false)
	viper.SetDefault("otel.serviceName", "tmc")
	viper.SetDefault("otel.batchTimeout", "5s")
	viper.SetDefault("otel.endpoint", "")
	viper.SetDefault("otel.insecure", false)
	viper.SetDefault("otel.metrics", false)
}

// Load reads configuration from the JSON file in configDir and sets default
// values. A missing file is not an error; the defaults apply.
func Load(configDir string) error {
	SetDefaults()

	viper.SetConfigName(FileName)
	viper.SetConfigType("json")
	viper.AddConfigPath(configDir)
	viper.SetEnvPrefix("TMC")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("error reading config file: %w", err)
	}
	return nil
}

// Used returns the config file in use, empty when running on defaults
func Used() string {
	return viper.ConfigFileUsed()
}

// GetString returns a string config value.
func GetString(key string) string {
	return viper.GetString(key)
}

// GetInt returns an int config value.
func GetInt(key string) int {
	return viper.GetInt(key)
}

// GetBool returns a bool config value.
func GetBool(key string) bool {
	return viper.GetBool(key)
}

// GetPitchConfig returns the default playing surface for new projects
func GetPitchConfig() core.PitchConfig {
	return core.PitchConfig{
		Width:       viper.GetFloat64("pitch.width"),
		Height:      viper.GetFloat64("pitch.height"),
		Padding:     viper.GetFloat64("pitch.padding"),
		GridSize:    viper.GetFloat64("pitch.gridSize"),
		Orientation: core.Orientation(viper.GetString("pitch.orientation")),
	}
}

// GetTeamSettings returns the default team colours
func GetTeamSettings() core.TeamSettings {
	style := func(side string) core.TeamStyle {
		return core.TeamStyle{
			Name:           viper.GetString("teams." + side + ".name"),
			PrimaryColor:   viper.GetString("teams." + side + ".primaryColor"),
			SecondaryColor: viper.GetString("teams." + side + ".secondaryColor"),
		}
	}
	return core.TeamSettings{Home: style("home"), Away: style("away")}
}

// GetTimelineConfig returns the defaults for new steps
func GetTimelineConfig() timeline.Config {
	return timeline.Config{
		DefaultDuration: core.Millis(viper.GetInt64("timeline.defaultDuration")),
		DefaultName:     viper.GetString("timeline.defaultName"),
	}
}

// GetStorageConfig returns the project store settings
func GetStorageConfig() StorageConfig {
	return StorageConfig{
		Type: viper.GetString("storage.type"),
		File: FileConfig{
			Dir:      viper.GetString("storage.file.dir"),
			Compress: viper.GetBool("storage.file.compress"),
		},
		Memory: MemoryConfig{
			OutputDir:      viper.GetString("storage.memory.outputDir"),
			CompressOutput: viper.GetBool("storage.memory.compressOutput"),
		},
		SQLite: SQLiteConfig{
			Path:         viper.GetString("storage.sqlite.path"),
			DumpPath:     viper.GetString("storage.sqlite.dumpPath"),
			DumpInterval: viper.GetDuration("storage.sqlite.dumpInterval"),
		},
		Postgres: PostgresConfig{
			Host:     viper.GetString("storage.postgres.host"),
			Port:     viper.GetString("storage.postgres.port"),
			Username: viper.GetString("storage.postgres.username"),
			Password: viper.GetString("storage.postgres.password"),
			Database: viper.GetString("storage.postgres.database"),
			SSLMode:  viper.GetString("storage.postgres.sslMode"),
		},
		Redis: RedisConfig{
			Addr:      viper.GetString("storage.redis.addr"),
			Password:  viper.GetString("storage.redis.password"),
			DB:        viper.GetInt("storage.redis.db"),
			KeyPrefix: viper.GetString("storage.redis.keyPrefix"),
		},
		WebSocket: WebSocketConfig{
			URL:    viper.GetString("storage.websocket.url"),
			Secret: viper.GetString("storage.websocket.secret"),
		},
	}
}

// GetServerConfig returns the HTTP API settings
func GetServerConfig() ServerConfig {
	return ServerConfig{
		Addr:         viper.GetString("server.addr"),
		APIKey:       viper.GetString("server.apiKey"),
		ReadTimeout:  viper.GetDuration("server.readTimeout"),
		WriteTimeout: viper.GetDuration("server.writeTimeout"),
	}
}

// GetAPIConfig returns the client settings used by push and pull
func GetAPIConfig() APIConfig {
	return APIConfig{
		ServerURL: viper.GetString("api.serverUrl"),
		APIKey:    viper.GetString("api.apiKey"),
	}
}

// GetOTelConfig returns the OpenTelemetry settings
func GetOTelConfig() OTelConfig {
	return OTelConfig{
		Enabled:      viper.GetBool("otel.enabled"),
		ServiceName:  viper.GetString("otel.serviceName"),
		BatchTimeout: viper.GetDuration("otel.batchTimeout"),
		Endpoint:     viper.GetString("otel.endpoint"),
		Insecure:     viper.GetBool("otel.insecure"),
		Metrics:      viper.GetBool("otel.metrics"),
	}
}
