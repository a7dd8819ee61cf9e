package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/projectgate/internal/flagx"
	"github.com/dmitrijs2005/projectgate/internal/timex"
	"gopkg.in/yaml.v3"
)

// FileConfig is the on-disk shape of the configuration. Durations accept
// either "30m" style strings or integer nanoseconds.
type FileConfig struct {
	HTTPAddr                    string         `json:"http_addr" yaml:"http_addr"`
	DatabaseDSN                 string         `json:"database_dsn" yaml:"database_dsn"`
	SecretKey                   string         `json:"secret_key" yaml:"secret_key"`
	Algorithm                   string         `json:"algorithm" yaml:"algorithm"`
	AccessTokenValidityDuration timex.Duration `json:"access_token_validity_duration" yaml:"access_token_validity_duration"`
	PasswordHashScheme          string         `json:"password_hash_scheme" yaml:"password_hash_scheme"`
	BcryptCost                  int            `json:"bcrypt_cost" yaml:"bcrypt_cost"`
	RedisURL                    string         `json:"redis_url" yaml:"redis_url"`
	BootstrapAdminUsername      string         `json:"bootstrap_admin_username" yaml:"bootstrap_admin_username"`
	BootstrapAdminPassword      string         `json:"bootstrap_admin_password" yaml:"bootstrap_admin_password"`
	LogLevel                    string         `json:"log_level" yaml:"log_level"`
	ShutdownTimeout             timex.Duration `json:"shutdown_timeout" yaml:"shutdown_timeout"`
}

// parseFile overlays values from the file named by -c/-config. Files ending
// in .yaml or .yml are decoded as YAML, anything else as JSON. Fields absent
// from the file keep their current value.
func parseFile(config *Config, args []string) error {
	path := flagx.ConfigFileFlag(args)
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}

	fc := &FileConfig{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, fc)
	default:
		err = json.Unmarshal(data, fc)
	}
	if err != nil {
		return fmt.Errorf("config: decode %s: %w", path, err)
	}

	fc.apply(config)
	return nil
}

func (fc *FileConfig) apply(config *Config) {
	setString(&config.HTTPAddr, fc.HTTPAddr)
	setString(&config.DatabaseDSN, fc.DatabaseDSN)
	setString(&config.SecretKey, fc.SecretKey)
	setString(&config.Algorithm, fc.Algorithm)
	setString(&config.PasswordHashScheme, fc.PasswordHashScheme)
	setString(&config.RedisURL, fc.RedisURL)
	setString(&config.BootstrapAdminUsername, fc.BootstrapAdminUsername)
	setString(&config.BootstrapAdminPassword, fc.BootstrapAdminPassword)
	setString(&config.LogLevel, fc.LogLevel)

	if fc.AccessTokenValidityDuration.Duration != 0 {
		config.AccessTokenValidityDuration = fc.AccessTokenValidityDuration.Duration
	}
	if fc.ShutdownTimeout.Duration != 0 {
		config.ShutdownTimeout = fc.ShutdownTimeout.Duration
	}
	if fc.BcryptCost != 0 {
		config.BcryptCost = fc.BcryptCost
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
