package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Config represents runtime configuration for the service.
type Config struct {
	BasicConfig BasicConfig               `json:"basic_config"`
	Databases   map[string]DatabaseConfig `json:"databases"`
	Redis       RedisConfig               `json:"redis"`
	Video       VideoConfig               `json:"video"`
}

type BasicConfig struct {
	ServerAddress string `json:"server_address"`
	APIKey        string `json:"api_key"`
	StorageDriver string `json:"storage_driver"` // sqlite3, mysql or redis
}

type DatabaseConfig struct {
	DSN      string `json:"dsn"`
	Username string `json:"username"`
	Password string `json:"password"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	DBName   string `json:"db_name"`
	Params   string `json:"params"`
}

type RedisConfig struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Username string `json:"username"`
	Password string `json:"password"`
	DB       int    `json:"db"`
}

type VideoConfig struct {
	PollIntervalSeconds int `json:"poll_interval_seconds"`
	MaxPolls            int `json:"max_polls"`
}

// Load reads configuration from the provided path (defaults to config.json).
// The generation API key may also arrive through GEMINI_API_KEY.
func Load(path string) (*Config, error) {
	if path == "" {
		path = "config.json"
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve config path: %w", err)
	}

	file, err := os.Open(absPath)
	if err != nil {
		return nil, fmt.Errorf("open config %s: %w", absPath, err)
	}
	defer file.Close()

	var cfg Config
	if err := json.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		cfg.BasicConfig.APIKey = key
	}
	if cfg.BasicConfig.StorageDriver == "" {
		cfg.BasicConfig.StorageDriver = "sqlite3"
	}

	// Relative sqlite paths resolve against the config file's directory.
	for name, db := range cfg.Databases {
		if name == "mysql" || db.DSN == "" || db.DSN == ":memory:" || filepath.IsAbs(db.DSN) {
			continue
		}
		db.DSN = filepath.Join(filepath.Dir(absPath), db.DSN)
		cfg.Databases[name] = db
	}

	return &cfg, nil
}
