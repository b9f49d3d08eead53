package config

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/IqraJilani-aai/open-simulation-interface/pkg/osi"
)

// FileName is the name of the configuration file looked up in the config dir.
const FileName = "osi_trafficcmd.cfg.json"

// MemoryConfig holds in-memory audit storage settings
type MemoryConfig struct {
	OutputDir      string `json:"outputDir" mapstructure:"outputDir"`
	CompressOutput bool   `json:"compressOutput" mapstructure:"compressOutput"`
}

// SQLiteConfig holds sqlite storage settings. An empty Path keeps the
// database in memory; DumpPath then receives periodic snapshots.
type SQLiteConfig struct {
	Path         string        `json:"path" mapstructure:"path"`
	DumpPath     string        `json:"dumpPath" mapstructure:"dumpPath"`
	DumpInterval time.Duration `json:"dumpInterval" mapstructure:"dumpInterval"`
}

// WebSocketConfig holds settings for forwarding commands to a consumer.
type WebSocketConfig struct {
	URL    string `json:"url" mapstructure:"url"`
	Secret string `json:"secret" mapstructure:"secret"`
}

// StorageConfig selects and configures the storage backend.
type StorageConfig struct {
	Type      string          `json:"type" mapstructure:"type"`
	Memory    MemoryConfig    `json:"memory" mapstructure:"memory"`
	SQLite    SQLiteConfig    `json:"sqlite" mapstructure:"sqlite"`
	WebSocket WebSocketConfig `json:"websocket" mapstructure:"websocket"`
}

// DBConfig holds Postgres connection settings.
type DBConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	Database string
}

// ValidationConfig controls validator strictness.
type ValidationConfig struct {
	Uniqueness osi.UniquenessScope
	Versions   osi.VersionRange
}

// OTelConfig holds OpenTelemetry settings.
type OTelConfig struct {
	Enabled      bool
	ServiceName  string
	BatchTimeout time.Duration
	Endpoint     string
	Insecure     bool
}

// InfluxConfig holds InfluxDB metrics settings.
type InfluxConfig struct {
	Enabled    bool
	URL        string
	Token      string
	Org        string
	Bucket     string
	BackupPath string
}

// GeoreferenceConfig anchors the local simulation frame on the globe.
type GeoreferenceConfig struct {
	Enabled   bool
	Latitude  float64
	Longitude float64
}

// MonitorConfig controls the periodic status report of the serve command.
type MonitorConfig struct {
	Interval   time.Duration
	StatusFile string
	BufferSize int
}

// UploadConfig points at the collector that receives session exports.
type UploadConfig struct {
	Enabled bool
	URL     string
	APIKey  string
}

// Load reads configuration from JSON file and sets default values.
// configDir is the directory containing the config file.
func Load(configDir string) error {
	SetDefaults()

	viper.SetConfigName(FileName)
	viper.AddConfigPath(configDir)
	viper.SetConfigType("json")

	err := viper.ReadInConfig()
	if err != nil {
		return fmt.Errorf("error reading config file: %w", err)
	}

	return nil
}

// SetDefaults registers every default value. Load calls it; tools running
// without a config file call it directly.
func SetDefaults() {
	viper.SetDefault("logLevel", "info")
	viper.SetDefault("logsDir", "./osilogs")

	viper.SetDefault("codec", "protobuf")

	viper.SetDefault("version.min", osi.DefaultVersionRange.Min.String())
	viper.SetDefault("version.max", osi.DefaultVersionRange.Max.String())

	viper.SetDefault("validation.uniqueness", "message")

	viper.SetDefault("storage.type", "memory")
	viper.SetDefault("storage.memory.outputDir", "./commands")
	viper.SetDefault("storage.memory.compressOutput", true)
	viper.SetDefault("storage.sqlite.path", "")
	viper.SetDefault("storage.sqlite.dumpPath", "")
	viper.SetDefault("storage.sqlite.dumpInterval", "1m")
	viper.SetDefault("storage.websocket.url", "ws://localhost:5000/ws/commands")
	viper.SetDefault("storage.websocket.secret", "")

	viper.SetDefault("db.host", "localhost")
	viper.SetDefault("db.port", "5432")
	viper.SetDefault("db.username", "postgres")
	viper.SetDefault("db.password", "postgres")
	viper.SetDefault("db.database", "osi")

	viper.SetDefault("influx.enabled", false)
	viper.SetDefault("influx.host", "localhost")
	viper.SetDefault("influx.port", "8086")
	viper.SetDefault("influx.protocol", "http")
	viper.SetDefault("influx.token", "supersecrettoken")
	viper.SetDefault("influx.org", "osi-metrics")
	viper.SetDefault("influx.bucket", "traffic_commands")
	viper.SetDefault("influx.backupPath", "")

	viper.SetDefault("monitor.interval", "5s")
	viper.SetDefault("monitor.statusFile", "")
	viper.SetDefault("dispatcher.bufferSize", 1000)

	viper.SetDefault("upload.enabled", false)
	viper.SetDefault("upload.url", "http://localhost:5000")
	viper.SetDefault("upload.apiKey", "")

	viper.SetDefault("graylog.enabled", false)
	viper.SetDefault("graylog.address", "localhost:12201")

	viper.SetDefault("otel.enabled", false)
	viper.SetDefault("otel.serviceName", "osi-trafficcmd")
	viper.SetDefault("otel.batchTimeout", "5s")
	viper.SetDefault("otel.endpoint", "")
	viper.SetDefault("otel.insecure", true)

	viper.SetDefault("georeference.enabled", false)
	viper.SetDefault("georeference.latitude", 0.0)
	viper.SetDefault("georeference.longitude", 0.0)
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

// GetStorageConfig returns the storage backend configuration.
func GetStorageConfig() StorageConfig {
	return StorageConfig{
		Type: viper.GetString("storage.type"),
		Memory: MemoryConfig{
			OutputDir:      viper.GetString("storage.memory.outputDir"),
			CompressOutput: viper.GetBool("storage.memory.compressOutput"),
		},
		SQLite: SQLiteConfig{
			Path:         viper.GetString("storage.sqlite.path"),
			DumpPath:     viper.GetString("storage.sqlite.dumpPath"),
			DumpInterval: viper.GetDuration("storage.sqlite.dumpInterval"),
		},
		WebSocket: WebSocketConfig{
			URL:    viper.GetString("storage.websocket.url"),
			Secret: viper.GetString("storage.websocket.secret"),
		},
	}
}

// GetDBConfig returns Postgres connection settings.
func GetDBConfig() DBConfig {
	return DBConfig{
		Host:     viper.GetString("db.host"),
		Port:     viper.GetString("db.port"),
		Username: viper.GetString("db.username"),
		Password: viper.GetString("db.password"),
		Database: viper.GetString("db.database"),
	}
}

// GetVersionRange parses the supported interface version range.
func GetVersionRange() (osi.VersionRange, error) {
	lo, err := ParseVersion(viper.GetString("version.min"))
	if err != nil {
		return osi.VersionRange{}, fmt.Errorf("version.min: %w", err)
	}
	hi, err := ParseVersion(viper.GetString("version.max"))
	if err != nil {
		return osi.VersionRange{}, fmt.Errorf("version.max: %w", err)
	}
	if lo.Compare(hi) > 0 {
		return osi.VersionRange{}, fmt.Errorf("version.min %s is newer than version.max %s", lo, hi)
	}
	return osi.VersionRange{Min: lo, Max: hi}, nil
}

// GetValidationConfig returns validator settings.
func GetValidationConfig() (ValidationConfig, error) {
	scope, err := osi.ParseUniquenessScope(viper.GetString("validation.uniqueness"))
	if err != nil {
		return ValidationConfig{}, fmt.Errorf("validation.uniqueness: %w", err)
	}
	versions, err := GetVersionRange()
	if err != nil {
		return ValidationConfig{}, err
	}
	return ValidationConfig{Uniqueness: scope, Versions: versions}, nil
}

// GetOTelConfig returns OpenTelemetry settings.
func GetOTelConfig() OTelConfig {
	return OTelConfig{
		Enabled:      viper.GetBool("otel.enabled"),
		ServiceName:  viper.GetString("otel.serviceName"),
		BatchTimeout: viper.GetDuration("otel.batchTimeout"),
		Endpoint:     viper.GetString("otel.endpoint"),
		Insecure:     viper.GetBool("otel.insecure"),
	}
}

// GetInfluxConfig returns InfluxDB settings. An empty backupPath places the
// line protocol backup next to the logs.
func GetInfluxConfig() InfluxConfig {
	backup := viper.GetString("influx.backupPath")
	if backup == "" {
		backup = filepath.Join(viper.GetString("logsDir"), "influx_backup.lp.gz")
	}
	return InfluxConfig{
		Enabled: viper.GetBool("influx.enabled"),
		URL: fmt.Sprintf("%s://%s:%s",
			viper.GetString("influx.protocol"),
			viper.GetString("influx.host"),
			viper.GetString("influx.port"),
		),
		Token:      viper.GetString("influx.token"),
		Org:        viper.GetString("influx.org"),
		Bucket:     viper.GetString("influx.bucket"),
		BackupPath: backup,
	}
}

// GetMonitorConfig returns status report and queue settings.
func GetMonitorConfig() MonitorConfig {
	return MonitorConfig{
		Interval:   viper.GetDuration("monitor.interval"),
		StatusFile: viper.GetString("monitor.statusFile"),
		BufferSize: viper.GetInt("dispatcher.bufferSize"),
	}
}

// GetUploadConfig returns the export collector settings.
func GetUploadConfig() UploadConfig {
	return UploadConfig{
		Enabled: viper.GetBool("upload.enabled"),
		URL:     viper.GetString("upload.url"),
		APIKey:  viper.GetString("upload.apiKey"),
	}
}

// GetGeoreferenceConfig returns the frame anchor.
func GetGeoreferenceConfig() GeoreferenceConfig {
	return GeoreferenceConfig{
		Enabled:   viper.GetBool("georeference.enabled"),
		Latitude:  viper.GetFloat64("georeference.latitude"),
		Longitude: viper.GetFloat64("georeference.longitude"),
	}
}

// ParseVersion parses "major.minor.patch". All three components are
// required.
func ParseVersion(s string) (osi.InterfaceVersion, error) {
	parts := strings.Split(s, ".")
	if len(parts) != 3 {
		return osi.InterfaceVersion{}, fmt.Errorf("invalid version %q: want major.minor.patch", s)
	}
	var nums [3]uint32
	for i, p := range parts {
		n, err := strconv.ParseUint(p, 10, 32)
		if err != nil {
			return osi.InterfaceVersion{}, fmt.Errorf("invalid version %q: %w", s, err)
		}
		nums[i] = uint32(n)
	}
	return osi.InterfaceVersion{Major: nums[0], Minor: nums[1], Patch: nums[2]}, nil
}
