package config

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/jkoski/spotcost-go/logging"
	"github.com/spf13/viper"
)

type AppConfigApi struct {
	Address string
	Port    int16
	// If not assigned, the server serves embedded files. Assigning a
	// directory with a "static" subdirectory is useful for development.
	WwwDir *string `mapstructure:"www_dir"`
}

type AppConfigDatabase struct {
	Path string
	// How many days combined data is kept in the database mirror
	DataRetentionDays *int `mapstructure:"data_retention_days"`
	// How many days daily backup files are kept before deletion
	BackupRetentionDays *int `mapstructure:"backup_retention_days"`
}

func (d AppConfigDatabase) GetDataRetentionDays() int {
	if d.DataRetentionDays == nil {
		return 0 // keep everything, a year of hours is small
	}
	return *d.DataRetentionDays
}

func (d AppConfigDatabase) GetBackupRetentionDays() int {
	if d.BackupRetentionDays == nil {
		return 90
	}
	return *d.BackupRetentionDays
}

type AppConfigElenia struct {
	Username string
	Password string
}

type AppConfigVattenfall struct {
	// VAT rate applied to spot prices, default 25.5%
	VatRate *float64 `mapstructure:"vat_rate"`
}

func (v AppConfigVattenfall) GetVatRate() float64 {
	if v.VatRate == nil {
		return 0.255
	}
	return *v.VatRate
}

type AppConfigCombine struct {
	// Which year of data to fetch and combine, default: current year
	Year *int
	// Supplier markup in cents/kWh, applied to cost only
	SpotMargin float64 `mapstructure:"spot_margin"`
	// Fixed IANA zone for canonical timestamps, default: Europe/Helsinki
	Timezone *string
	// Literal UTC-offset suffix on canonical timestamps, default: +0200
	OffsetSuffix *string `mapstructure:"offset_suffix"`
	// Where fetched feeds are stored, default: downloads
	DownloadsDir *string `mapstructure:"downloads_dir"`
	// The combined CSV artifact, default: processed/combined_data.csv
	OutputPath *string `mapstructure:"output_path"`
}

func (c AppConfigCombine) GetYear() int {
	if c.Year == nil {
		return time.Now().Year()
	}
	return *c.Year
}

func (c AppConfigCombine) GetTimezone() string {
	if c.Timezone == nil {
		return "Europe/Helsinki"
	}
	return *c.Timezone
}

func (c AppConfigCombine) GetOffsetSuffix() string {
	if c.OffsetSuffix == nil {
		return "+0200"
	}
	return *c.OffsetSuffix
}

func (c AppConfigCombine) GetDownloadsDir() string {
	if c.DownloadsDir == nil {
		return "downloads"
	}
	return *c.DownloadsDir
}

func (c AppConfigCombine) GetOutputPath() string {
	if c.OutputPath == nil {
		return filepath.Join("processed", "combined_data.csv")
	}
	return *c.OutputPath
}

func (c AppConfigCombine) ConsumptionFile() string {
	return filepath.Join(c.GetDownloadsDir(), "consumption_data.json")
}

func (c AppConfigCombine) PriceFile() string {
	return filepath.Join(c.GetDownloadsDir(), fmt.Sprintf("spot_prices_%d.csv", c.GetYear()))
}

type AppConfigRefresh struct {
	// Cron spec for the daily refresh, default: 02:00
	RunAt *string `mapstructure:"run_at"`
}

func (r AppConfigRefresh) GetRunAt() string {
	if r.RunAt == nil {
		return "0 2 * * *"
	}
	return *r.RunAt
}

type AppConfigLogging struct {
	// Min log level for database: "DEBUG", "INFO", "WARN", "ERROR", default: "INFO"
	DbLevel *string `mapstructure:"db_level"`
	// Log attributes format: "TEXT", "JSON", default: "JSON"
	DbAttrsFormat *string `mapstructure:"db_attrs_format"`
	// Maximum number of log entries in the database, default: 10000
	DbMaxEntries *int `mapstructure:"db_max_entries"`
	// Min log level for the console: "DEBUG", "INFO", "WARN", "ERROR", default: "INFO"
	ConsoleLevel *string `mapstructure:"console_level"`
}

func (l AppConfigLogging) GetDbLevel() slog.Level {
	return logging.LevelFromString(l.DbLevel)
}

func (l AppConfigLogging) GetDbAttrsFormat() logging.LogAttrFormat {
	if l.DbAttrsFormat == nil {
		return logging.LogAttrFormatJSON
	}
	if strings.EqualFold(*l.DbAttrsFormat, "text") {
		return logging.LogAttrFormatText
	}
	return logging.LogAttrFormatJSON
}

func (l AppConfigLogging) GetDbMaxEntries() int {
	if l.DbMaxEntries == nil {
		return 10000
	}
	return *l.DbMaxEntries
}

func (l AppConfigLogging) GetConsoleLevel() slog.Level {
	return logging.LevelFromString(l.ConsoleLevel)
}

type AppConfig struct {
	Api        AppConfigApi
	Database   AppConfigDatabase
	Elenia     AppConfigElenia
	Vattenfall AppConfigVattenfall
	Combine    AppConfigCombine
	Refresh    AppConfigRefresh
	Logging    AppConfigLogging
}

func Load(path string) (*AppConfig, error) {
	if path != "" {
		viper.SetConfigFile(path)
	} else {
		viper.AddConfigPath("config")
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	var c AppConfig

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("unable to read config file: %w", err)
	}

	if err := viper.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unable to unmarshal config file: %w", err)
	}

	return &c, nil
}

// Watch logs a notice when the config file changes on disk. Settings are
// read once at startup, a restart is needed to apply them.
func Watch(logger *slog.Logger) {
	viper.OnConfigChange(func(e fsnotify.Event) {
		logger.Info("config file changed, restart to apply", slog.String("file", e.Name))
	})
	viper.WatchConfig()
}
