package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/flagx"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. Intervals
// are whole seconds.
type JsonConfig struct {
	ServerURL           *string `json:"server_url"`
	OnlineCheckInterval *int    `json:"online_check_interval_seconds"`
	RequestTimeout      *int    `json:"request_timeout_seconds"`
}

// parseJson overlays Config with values loaded from the JSON file named by
// -c/-config. Keys absent from the file leave the current values alone.
func parseJson(cfg *Config, args []string) error {
	path := flagx.ConfigFile(args)
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	if jc.ServerURL != nil {
		cfg.ServerURL = *jc.ServerURL
	}
	if jc.OnlineCheckInterval != nil {
		cfg.OnlineCheckInterval = time.Duration(*jc.OnlineCheckInterval) * time.Second
	}
	if jc.RequestTimeout != nil {
		cfg.RequestTimeout = time.Duration(*jc.RequestTimeout) * time.Second
	}
	return nil
}
