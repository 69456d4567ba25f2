package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
	"github.com/strrl/distcurve/internal/signals"
)

// FileName is looked up in the config directories passed to Load.
const FileName = "distcurve.cfg.json"

type StorageConfig struct {
	Type     string         `json:"type" mapstructure:"type"`
	SQLite   SQLiteConfig   `json:"sqlite" mapstructure:"sqlite"`
	Postgres PostgresConfig `json:"postgres" mapstructure:"postgres"`
}

type SQLiteConfig struct {
	Path string `json:"path" mapstructure:"path"`
}

type PostgresConfig struct {
	Host     string `json:"host" mapstructure:"host"`
	Port     string `json:"port" mapstructure:"port"`
	Username string `json:"username" mapstructure:"username"`
	Password string `json:"password" mapstructure:"password"`
	Database string `json:"database" mapstructure:"database"`
}

type OutputConfig struct {
	Dir       string `json:"dir" mapstructure:"dir"`
	WriteBack bool   `json:"writeBack" mapstructure:"writeBack"`
	Report    bool   `json:"report" mapstructure:"report"`
}

type InfluxConfig struct {
	Enabled bool          `json:"enabled" mapstructure:"enabled"`
	URL     string        `json:"url" mapstructure:"url"`
	Token   string        `json:"token" mapstructure:"token"`
	Org     string        `json:"org" mapstructure:"org"`
	Bucket  string        `json:"bucket" mapstructure:"bucket"`
	Timeout time.Duration `json:"timeout" mapstructure:"timeout"`
}

func SetDefaults() {
	viper.SetDefault("logLevel", "info")
	viper.SetDefault("logFormat", "console")
	viper.SetDefault("jobs", 0)

	defaults := signals.DefaultSettings()
	viper.SetDefault("bake.boneName", defaults.BoneName)
	viper.SetDefault("bake.sampleRate", defaults.SampleRate)
	viper.SetDefault("bake.curveName", defaults.CurveName)
	viper.SetDefault("bake.stopSpeedThreshold", defaults.StopSpeedThreshold)
	viper.SetDefault("bake.axis", defaults.Axis.String())
	viper.SetDefault("bake.stopAtEnd", defaults.StopAtEnd)

	viper.SetDefault("output.dir", "./curves")
	viper.SetDefault("output.writeBack", false)
	viper.SetDefault("output.report", true)

	viper.SetDefault("storage.type", "none")
	viper.SetDefault("storage.sqlite.path", "./distcurve.db")
	viper.SetDefault("storage.postgres.host", "localhost")
	viper.SetDefault("storage.postgres.port", "5432")
	viper.SetDefault("storage.postgres.username", "postgres")
	viper.SetDefault("storage.postgres.password", "postgres")
	viper.SetDefault("storage.postgres.database", "distcurve")

	viper.SetDefault("influx.enabled", false)
	viper.SetDefault("influx.url", "http://localhost:8086")
	viper.SetDefault("influx.token", "")
	viper.SetDefault("influx.org", "distcurve")
	viper.SetDefault("influx.bucket", "curves")
	viper.SetDefault("influx.timeout", "10s")
}

// Load sets defaults and reads the JSON config file from the first of
// configDirs that has one. Defaults stay in effect when the file is missing,
// but the error is still returned so the caller can report it.
func Load(configDirs ...string) error {
	SetDefaults()

	viper.SetConfigName(FileName)
	viper.SetConfigType("json")
	for _, dir := range configDirs {
		viper.AddConfigPath(dir)
	}

	if err := viper.ReadInConfig(); err != nil {
		return fmt.Errorf("error reading config file: %w", err)
	}

	return nil
}

// GetSettings assembles bake settings from the current configuration.
func GetSettings() (signals.Settings, error) {
	axis, err := signals.ParseAxis(viper.GetString("bake.axis"))
	if err != nil {
		return signals.Settings{}, err
	}

	s := signals.Settings{
		BoneName:           viper.GetString("bake.boneName"),
		SampleRate:         viper.GetInt("bake.sampleRate"),
		CurveName:          viper.GetString("bake.curveName"),
		StopSpeedThreshold: viper.GetFloat64("bake.stopSpeedThreshold"),
		Axis:               axis,
		StopAtEnd:          viper.GetBool("bake.stopAtEnd"),
	}
	if err := s.Validate(); err != nil {
		return signals.Settings{}, fmt.Errorf("invalid bake settings: %w", err)
	}
	return s, nil
}

func GetStorageConfig() StorageConfig {
	return StorageConfig{
		Type: viper.GetString("storage.type"),
		SQLite: SQLiteConfig{
			Path: viper.GetString("storage.sqlite.path"),
		},
		Postgres: PostgresConfig{
			Host:     viper.GetString("storage.postgres.host"),
			Port:     viper.GetString("storage.postgres.port"),
			Username: viper.GetString("storage.postgres.username"),
			Password: viper.GetString("storage.postgres.password"),
			Database: viper.GetString("storage.postgres.database"),
		},
	}
}

func GetOutputConfig() OutputConfig {
	return OutputConfig{
		Dir:       viper.GetString("output.dir"),
		WriteBack: viper.GetBool("output.writeBack"),
		Report:    viper.GetBool("output.report"),
	}
}

func GetInfluxConfig() InfluxConfig {
	return InfluxConfig{
		Enabled: viper.GetBool("influx.enabled"),
		URL:     viper.GetString("influx.url"),
		Token:   viper.GetString("influx.token"),
		Org:     viper.GetString("influx.org"),
		Bucket:  viper.GetString("influx.bucket"),
		Timeout: viper.GetDuration("influx.timeout"),
	}
}

// GetString returns a string config value.
func GetString(key string) string {
	return viper.GetString(key)
}

// GetInt returns an int config value.
func GetInt(key string) int {
	return viper.GetInt(key)
}
