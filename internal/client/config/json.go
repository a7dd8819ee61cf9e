package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/projectgate/internal/flagx"
	"github.com/dmitrijs2005/projectgate/internal/timex"
)

// JSONConfig is a DTO used exclusively for JSON unmarshalling. Absent
// fields leave the corresponding Config values alone.
type JSONConfig struct {
	ServerURL      string          `json:"server_url"`
	RequestTimeout *timex.Duration `json:"request_timeout"`
}

func parseJSON(cfg *Config, args []string) error {
	path := flagx.ConfigFileFlag(args)
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	var jc JSONConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}

	if jc.ServerURL != "" {
		cfg.ServerURL = jc.ServerURL
	}
	if jc.RequestTimeout != nil {
		cfg.RequestTimeout = jc.RequestTimeout.Duration
	}
	return nil
}
