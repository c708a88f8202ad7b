package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

// Config is the service configuration read from config.yaml and HEARTRISK_* overrides.
type Config struct {
	Http struct {
		Port           int           `yaml:"port"`
		Timeout        time.Duration `yaml:"timeout"`
		AllowedOrigins []string      `yaml:"allowed_origins"`
	} `yaml:"http"`
	Log struct {
		Level       string `yaml:"level"`
		Development bool   `yaml:"development"`
		File        string `yaml:"file"`
		MaxSizeMB   int    `yaml:"max_size_mb"`
		MaxBackups  int    `yaml:"max_backups"`
		MaxAgeDays  int    `yaml:"max_age_days"`
	} `yaml:"log"`
	Artifacts struct {
		Dir      string            `yaml:"dir"`
		Files    map[string]string `yaml:"files"`
		Watch    bool              `yaml:"watch"`
		Debounce time.Duration     `yaml:"debounce"`
	} `yaml:"artifacts"`
	Encoding struct {
		StrictOneHotArity bool `yaml:"strict_one_hot_arity"`
	} `yaml:"encoding"`
	Cache struct {
		Size int `yaml:"size"`
	} `yaml:"cache"`
	Database struct {
		Path string `yaml:"path"`
	} `yaml:"database"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	var c Config
	c.Http.Port = 8080
	c.Http.Timeout = 30 * time.Second
	c.Http.AllowedOrigins = []string{"*"}
	c.Log.Level = "info"
	c.Log.MaxSizeMB = 100
	c.Log.MaxBackups = 3
	c.Log.MaxAgeDays = 28
	c.Artifacts.Dir = "models"
	c.Artifacts.Debounce = 500 * time.Millisecond
	c.Cache.Size = 1024
	c.Database.Path = "data/heartrisk.db"
	return &c
}

// Load reads path (if non-empty) over the defaults, then applies .env and
// HEARTRISK_* environment overrides.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	config := Default()
	if path != "" {
		file, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer file.Close()
		if err := yaml.NewDecoder(file).Decode(config); err != nil {
			return nil, fmt.Errorf("decode %s: %w", path, err)
		}
	}

	if err := applyEnv(config); err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate rejects an unusable port, timeout, artifacts dir or cache size.
func (c *Config) Validate() error {
	if c.Http.Port <= 0 || c.Http.Port > 65535 {
		return fmt.Errorf("invalid http port %d", c.Http.Port)
	}
	if c.Http.Timeout <= 0 {
		return errors.New("http timeout must be positive")
	}
	if c.Artifacts.Dir == "" {
		return errors.New("artifacts dir is required")
	}
	if c.Cache.Size < 0 {
		return errors.New("cache size must not be negative")
	}
	return nil
}

func applyEnv(c *Config) error {
	var err error
	if c.Http.Port, err = getEnvInt("HEARTRISK_HTTP_PORT", c.Http.Port); err != nil {
		return err
	}
	c.Log.Level = getEnv("HEARTRISK_LOG_LEVEL", c.Log.Level)
	c.Log.File = getEnv("HEARTRISK_LOG_FILE", c.Log.File)
	c.Artifacts.Dir = getEnv("HEARTRISK_ARTIFACTS_DIR", c.Artifacts.Dir)
	if c.Artifacts.Watch, err = getEnvBool("HEARTRISK_ARTIFACTS_WATCH", c.Artifacts.Watch); err != nil {
		return err
	}
	if c.Encoding.StrictOneHotArity, err = getEnvBool("HEARTRISK_STRICT_ONE_HOT_ARITY", c.Encoding.StrictOneHotArity); err != nil {
		return err
	}
	if c.Cache.Size, err = getEnvInt("HEARTRISK_CACHE_SIZE", c.Cache.Size); err != nil {
		return err
	}
	c.Database.Path = getEnv("HEARTRISK_DATABASE_PATH", c.Database.Path)
	return nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func getEnvBool(key string, defaultVal bool) (bool, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return false, fmt.Errorf("%s: %w", key, err)
	}
	return b, nil
}
