// Package config loads oprema settings from defaults, an optional YAML file
// and OPREMA_* environment variables, in increasing priority.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config is the resolved configuration.
type Config struct {
	EmployeesDB string
	EquipmentDB string
	HTTP        HTTPConfig
	Metrics     MetricsConfig
	Log         LogConfig
	Backup      BackupConfig
}

// HTTPConfig configures the API server.
type HTTPConfig struct {
	Addr string
}

// MetricsConfig toggles the /metrics endpoint.
type MetricsConfig struct {
	Enabled bool
}

// LogConfig configures the optional log file.
type LogConfig struct {
	File string
}

// BackupConfig points at an S3-compatible bucket. Empty credentials fall back
// to the default AWS credential chain.
type BackupConfig struct {
	Bucket          string
	Prefix          string
	Region          string
	Endpoint        string
	PathStyle       bool
	AccessKeyID     string
	SecretAccessKey string
}

// Enabled reports whether a bucket is configured.
func (b BackupConfig) Enabled() bool {
	return b.Bucket != ""
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("employees_db", "employees.sqlite3")
	v.SetDefault("equipment_db", "equipment.sqlite3")
	v.SetDefault("http.addr", ":5000")
	v.SetDefault("metrics.enabled", false)
	v.SetDefault("log.file", "")
	v.SetDefault("backup.bucket", "")
	v.SetDefault("backup.prefix", "oprema")
	v.SetDefault("backup.region", "us-east-1")
	v.SetDefault("backup.endpoint", "")
	v.SetDefault("backup.path_style", false)
	v.SetDefault("backup.access_key_id", "")
	v.SetDefault("backup.secret_access_key", "")
}

// Load reads the configuration. If path is empty, oprema.yaml is looked up in
// the working directory and silently skipped when missing; an explicit path
// must exist.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("oprema")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	v.SetEnvPrefix("OPREMA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return &Config{
		EmployeesDB: v.GetString("employees_db"),
		EquipmentDB: v.GetString("equipment_db"),
		HTTP: HTTPConfig{
			Addr: v.GetString("http.addr"),
		},
		Metrics: MetricsConfig{
			Enabled: v.GetBool("metrics.enabled"),
		},
		Log: LogConfig{
			File: v.GetString("log.file"),
		},
		Backup: BackupConfig{
			Bucket:          v.GetString("backup.bucket"),
			Prefix:          v.GetString("backup.prefix"),
			Region:          v.GetString("backup.region"),
			Endpoint:        v.GetString("backup.endpoint"),
			PathStyle:       v.GetBool("backup.path_style"),
			AccessKeyID:     v.GetString("backup.access_key_id"),
			SecretAccessKey: v.GetString("backup.secret_access_key"),
		},
	}, nil
}

// Validate checks the settings every command needs.
func (c *Config) Validate() error {
	if c.EmployeesDB == "" {
		return errors.New("employees_db must not be empty")
	}
	if c.EquipmentDB == "" {
		return errors.New("equipment_db must not be empty")
	}
	if filepath.Clean(c.EmployeesDB) == filepath.Clean(c.EquipmentDB) {
		return errors.New("employees_db and equipment_db must be different files")
	}
	if c.HTTP.Addr == "" {
		return errors.New("http.addr must not be empty")
	}
	if c.Backup.AccessKeyID != "" && c.Backup.SecretAccessKey == "" {
		return errors.New("backup.secret_access_key is required with backup.access_key_id")
	}
	return nil
}
