package config

import (
	"fmt"
	"os"
	"time"
	_ "time/tzdata"

	"gopkg.in/yaml.v3"
)

// Profile sources.
const (
	SourceDatabase = "database"
	SourceFile     = "file"
)

// EnvPath names the environment variable that overrides the config path.
const EnvPath = "SPAWNDIRECTOR_CONFIG"

// Director holds all configuration for the spawn director.
type Director struct {
	LogLevel string `yaml:"log_level"`

	// Profile source
	ProfileSource string         `yaml:"profile_source"` // database | file
	ProfilesFile  string         `yaml:"profiles_file"`
	Database      DatabaseConfig `yaml:"database"`

	// Циклы
	TickInterval   time.Duration `yaml:"tick_interval"`
	ReloadInterval time.Duration `yaml:"reload_interval"` // 0 disables periodic reload

	// Воркеры
	SubmitTimeout     time.Duration `yaml:"submit_timeout"`
	WorkerInboxSize   int           `yaml:"worker_inbox_size"`
	MaxWorkerRestarts int           `yaml:"max_worker_restarts"`
	Seed              uint64        `yaml:"seed"` // 0 = random

	CapPolicy string    `yaml:"cap_policy"` // reject | truncate
	Mutations Mutations `yaml:"mutations"`
	World     World     `yaml:"world"`
}

// Mutations tunes mutation resolution.
type Mutations struct {
	PrefixOnEmptyHit bool `yaml:"prefix_on_empty_hit"`
}

// World holds the in-process world context settings.
type World struct {
	Timezone   string `yaml:"timezone"`
	Population int    `yaml:"population"`
	BandLow    int    `yaml:"band_low"`
	BandMedium int    `yaml:"band_medium"`
	BandHigh   int    `yaml:"band_high"`
}

// Location resolves Timezone, UTC when empty.
func (w World) Location() (*time.Location, error) {
	if w.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(w.Timezone)
	if err != nil {
		return nil, fmt.Errorf("loading timezone %q: %w", w.Timezone, err)
	}
	return loc, nil
}

// DatabaseConfig holds PostgreSQL connection parameters.
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`
}

// DSN возвращает строку подключения к PostgreSQL.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

// DefaultDirector возвращает конфиг с дефолтными значениями.
func DefaultDirector() Director {
	return Director{
		LogLevel:          "info",
		ProfileSource:     SourceDatabase,
		ProfilesFile:      "config/spawns.yaml",
		TickInterval:      5 * time.Second,
		ReloadInterval:    5 * time.Minute,
		SubmitTimeout:     5 * time.Second,
		WorkerInboxSize:   64,
		MaxWorkerRestarts: 3,
		CapPolicy:         "reject",
		Mutations: Mutations{
			PrefixOnEmptyHit: true,
		},
		World: World{
			BandLow:    1,
			BandMedium: 20,
			BandHigh:   50,
		},
		Database: DatabaseConfig{
			Host:     "127.0.0.1",
			Port:     5432,
			User:     "spawndirector",
			Password: "spawndirector",
			DBName:   "spawndirector",
			SSLMode:  "disable",
		},
	}
}

// Validate checks values the director cannot run with.
func (c Director) Validate() error {
	switch c.ProfileSource {
	case SourceDatabase, SourceFile:
	default:
		return fmt.Errorf("profile_source: unknown source %q", c.ProfileSource)
	}
	if c.ProfileSource == SourceFile && c.ProfilesFile == "" {
		return fmt.Errorf("profiles_file: required for file source")
	}
	if c.TickInterval <= 0 {
		return fmt.Errorf("tick_interval: must be positive, got %s", c.TickInterval)
	}
	if c.ReloadInterval < 0 {
		return fmt.Errorf("reload_interval: must not be negative, got %s", c.ReloadInterval)
	}
	if c.SubmitTimeout <= 0 {
		return fmt.Errorf("submit_timeout: must be positive, got %s", c.SubmitTimeout)
	}
	if c.WorkerInboxSize < 1 {
		return fmt.Errorf("worker_inbox_size: must be at least 1, got %d", c.WorkerInboxSize)
	}
	if c.MaxWorkerRestarts < 0 {
		return fmt.Errorf("max_worker_restarts: must not be negative, got %d", c.MaxWorkerRestarts)
	}
	switch c.CapPolicy {
	case "reject", "truncate":
	default:
		return fmt.Errorf("cap_policy: unknown policy %q", c.CapPolicy)
	}
	w := c.World
	if w.BandLow < 1 || w.BandMedium < w.BandLow || w.BandHigh < w.BandMedium {
		return fmt.Errorf("world: band thresholds must satisfy 1 <= low <= medium <= high, got %d/%d/%d",
			w.BandLow, w.BandMedium, w.BandHigh)
	}
	if _, err := w.Location(); err != nil {
		return fmt.Errorf("world: %w", err)
	}
	return nil
}

// LoadDirector загружает конфиг директора из YAML файла.
// Если файл не существует, возвращает дефолты.
func LoadDirector(path string) (Director, error) {
	cfg := DefaultDirector()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("validating config %s: %w", path, err)
	}

	return cfg, nil
}

// Path returns the config path from EnvPath, or def when unset.
func Path(def string) string {
	if p := os.Getenv(EnvPath); p != "" {
		return p
	}
	return def
}
