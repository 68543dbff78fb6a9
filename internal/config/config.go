package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Server   ServerConfig   `toml:"server"`
	Database DatabaseConfig `toml:"database"`
	Account  AccountConfig  `toml:"account"`
	Logging  LoggingConfig  `toml:"logging"`
}

type ServerConfig struct {
	Name            string `toml:"name"`
	ProtocolVersion int32  `toml:"protocol_version"`
	StartTime       int64  // set at boot, not from config
}

// DatabaseConfig selects the backend and carries its connection settings.
// Host/Port/Username/Password/Name apply to postgres and mongo; Path is the
// sqlite database file.
type DatabaseConfig struct {
	Backend         string        `toml:"backend"` // "postgres", "sqlite", or "mongo"
	Host            string        `toml:"host"`
	Port            int           `toml:"port"`
	Username        string        `toml:"username"`
	Password        string        `toml:"password"`
	Name            string        `toml:"name"`
	Path            string        `toml:"path"`
	MaxOpenConns    int           `toml:"max_open_conns"`
	MaxIdleConns    int           `toml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `toml:"conn_max_lifetime"`
}

func (d DatabaseConfig) PostgresDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		d.Host, d.Port, d.Username, d.Password, d.Name)
}

func (d DatabaseConfig) MongoURI() string {
	if d.Username != "" {
		return fmt.Sprintf("mongodb://%s:%s@%s:%d", d.Username, d.Password, d.Host, d.Port)
	}
	return fmt.Sprintf("mongodb://%s:%d", d.Host, d.Port)
}

type AccountConfig struct {
	AutoCreate   bool `toml:"auto_create"`
	BcryptCost   int  `toml:"bcrypt_cost"`
	DefaultLevel int  `toml:"default_level"`
}

type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "json" or "console"
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg := defaults()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.Server.StartTime = time.Now().Unix()
	return cfg, nil
}

func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Name:            "FusionGo",
			ProtocolVersion: 104,
		},
		Database: DatabaseConfig{
			Backend:         "postgres",
			Host:            "localhost",
			Port:            5432,
			Username:        "fusiongo",
			Password:        "fusiongo",
			Name:            "fusiongo",
			Path:            "database.db",
			MaxOpenConns:    20,
			MaxIdleConns:    5,
			ConnMaxLifetime: 30 * time.Minute,
		},
		Account: AccountConfig{
			AutoCreate:   true,
			BcryptCost:   10,
			DefaultLevel: 99,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}
