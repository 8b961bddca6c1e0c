// Package config holds runtime configuration for the screening service.
package config

import "time"

// Config is the full runtime configuration.
type Config struct {
	Addr                 string `koanf:"addr"`
	LogLevel             string `koanf:"log_level"`
	DBPath               string `koanf:"db_path"`
	MemStore             bool   `koanf:"mem_store"`
	MigrationsDir        string `koanf:"migrations_dir"`
	ResultLogPath        string `koanf:"result_log_path"`
	ModelDir             string `koanf:"model_dir"`
	JWTSecret            string `koanf:"jwt_secret"`
	ExportMinIntervalSec int    `koanf:"export_min_interval_sec"`
}

// New returns the default configuration.
func New() *Config {
	return &Config{
		Addr:                 ":8080",
		LogLevel:             "info",
		DBPath:               "mindscreen.db",
		ResultLogPath:        "prediction_log.csv",
		ExportMinIntervalSec: 60,
	}
}

// ExportMinInterval returns the export throttle window as a duration.
func (c *Config) ExportMinInterval() time.Duration {
	if c.ExportMinIntervalSec <= 0 {
		return 0
	}
	return time.Duration(c.ExportMinIntervalSec) * time.Second
}
