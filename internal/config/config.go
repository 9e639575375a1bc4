package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"github.com/weather-bot/meow/internal/layout"
)

var ErrNotFound = errors.New("config not found")

var validate = validator.New()

type Fonts struct {
	Medium string `json:"medium,omitempty" toml:"medium"`
	Light  string `json:"light,omitempty" toml:"light"`
}

type Icons struct {
	WaterDrop   string `json:"water_drop,omitempty" toml:"water_drop"`
	Thermometer string `json:"thermometer,omitempty" toml:"thermometer"`
}

type Fetch struct {
	Timeout string `json:"timeout,omitempty" toml:"timeout"`
	Retries int    `json:"retries" toml:"retries" validate:"gte=0,lte=10"`
}

type Log struct {
	Level     string `json:"level,omitempty" toml:"level" validate:"omitempty,oneof=trace debug info warn warning error fatal panic"`
	File      string `json:"file,omitempty" toml:"file"`
	MaxSizeMB int    `json:"max_size_mb,omitempty" toml:"max_size_mb" validate:"gte=0"`
}

type Server struct {
	Addr        string `json:"addr,omitempty" toml:"addr"`
	MaxUploadMB int    `json:"max_upload_mb,omitempty" toml:"max_upload_mb" validate:"gte=1,lte=512"`
}

type Config struct {
	Fonts       Fonts    `json:"fonts" toml:"fonts"`
	Icons       Icons    `json:"icons" toml:"icons"`
	Output      string   `json:"output,omitempty" toml:"output"`
	JPEGQuality int      `json:"jpeg_quality" toml:"jpeg_quality" validate:"gte=1,lte=100"`
	Template    string   `json:"template,omitempty" toml:"template"`
	TitleSplit  string   `json:"title_split,omitempty" toml:"title_split" validate:"omitempty,oneof=rune byte visual midpoint"`
	Greetings   []string `json:"greetings,omitempty" toml:"greetings" validate:"dive,required"`
	Fetch       Fetch    `json:"fetch" toml:"fetch"`
	Log         Log      `json:"log" toml:"log"`
	Server      Server   `json:"server" toml:"server"`
}

func Default() *Config {
	return &Config{
		Output:      "out.jpg",
		JPEGQuality: 90,
		Template:    layout.Corner.Mode(),
		TitleSplit:  "rune",
		Fetch:       Fetch{Timeout: "10s", Retries: 3},
		Log:         Log{Level: "info", MaxSizeMB: 10},
		Server:      Server{Addr: ":8080", MaxUploadMB: 20},
	}
}

// Load reads a .json or .toml file over the defaults, applies MEOW_*
// environment overrides and validates the result. An empty path yields the
// defaults with overrides.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		if err := decodeFile(path, cfg); err != nil {
			return nil, err
		}
	}
	cfg.ApplyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decodeFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		err = toml.Unmarshal(data, cfg)
	case ".json", "":
		err = json.Unmarshal(data, cfg)
	default:
		return fmt.Errorf("config %s: unsupported format", path)
	}
	if err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// LoadDotEnv loads .env files into the environment. Missing files are not
// an error.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func (c *Config) ApplyEnv() {
	c.Fonts.Medium = getenvDefault("MEOW_FONT_MEDIUM", c.Fonts.Medium)
	c.Fonts.Light = getenvDefault("MEOW_FONT_LIGHT", c.Fonts.Light)
	c.Icons.WaterDrop = getenvDefault("MEOW_ICON_WATER_DROP", c.Icons.WaterDrop)
	c.Icons.Thermometer = getenvDefault("MEOW_ICON_THERMOMETER", c.Icons.Thermometer)
	c.Output = getenvDefault("MEOW_OUTPUT", c.Output)
	c.JPEGQuality = getenvInt("MEOW_JPEG_QUALITY", c.JPEGQuality)
	c.Template = getenvDefault("MEOW_TEMPLATE", c.Template)
	c.TitleSplit = getenvDefault("MEOW_TITLE_SPLIT", c.TitleSplit)
	c.Fetch.Timeout = getenvDefault("MEOW_FETCH_TIMEOUT", c.Fetch.Timeout)
	c.Fetch.Retries = getenvInt("MEOW_FETCH_RETRIES", c.Fetch.Retries)
	c.Log.Level = getenvDefault("MEOW_LOG_LEVEL", c.Log.Level)
	c.Log.File = getenvDefault("MEOW_LOG_FILE", c.Log.File)
	c.Log.MaxSizeMB = getenvInt("MEOW_LOG_MAX_SIZE_MB", c.Log.MaxSizeMB)
	c.Server.Addr = getenvDefault("MEOW_SERVER_ADDR", c.Server.Addr)
	c.Server.MaxUploadMB = getenvInt("MEOW_SERVER_MAX_UPLOAD_MB", c.Server.MaxUploadMB)
}

func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if _, err := layout.ParseTemplate(c.Template); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if c.Fetch.Timeout != "" {
		if _, err := time.ParseDuration(c.Fetch.Timeout); err != nil {
			return fmt.Errorf("invalid config: fetch timeout: %w", err)
		}
	}
	return nil
}

func (c *Config) GetTemplate() layout.Template {
	t, err := layout.ParseTemplate(c.Template)
	if err != nil {
		return layout.Corner
	}
	return t
}

func (c *Config) GetFetchTimeout() time.Duration {
	if d, err := time.ParseDuration(c.Fetch.Timeout); err == nil && d > 0 {
		return d
	}
	return 10 * time.Second
}

func (c *Config) GetJPEGQuality() int {
	if c.JPEGQuality > 0 && c.JPEGQuality <= 100 {
		return c.JPEGQuality
	}
	return 90
}

func (c *Config) GetMaxUploadBytes() int64 {
	mb := c.Server.MaxUploadMB
	if mb <= 0 {
		mb = 20
	}
	return int64(mb) << 20
}

// Manager loads named configs from one directory and caches them.
type Manager struct {
	dir     string
	mu      sync.Mutex
	configs map[string]*Config
}

func NewManager(dir string) *Manager {
	return &Manager{
		dir:     dir,
		configs: make(map[string]*Config),
	}
}

var extensions = []string{".json", ".toml"}

// Load finds <dir>/<name>.json or <dir>/<name>.toml.
func (m *Manager) Load(name string) (*Config, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if cfg, ok := m.configs[name]; ok {
		return cfg, nil
	}

	for _, ext := range extensions {
		path := filepath.Join(m.dir, name+ext)
		if _, err := os.Stat(path); err != nil {
			continue
		}
		cfg, err := Load(path)
		if err != nil {
			return nil, err
		}
		m.configs[name] = cfg
		return cfg, nil
	}
	return nil, fmt.Errorf("%w: %s in %s", ErrNotFound, name, m.dir)
}

// Forget drops a cached config so the next Load rereads it.
func (m *Manager) Forget(name string) {
	m.mu.Lock()
	delete(m.configs, name)
	m.mu.Unlock()
}

func (m *Manager) List() ([]string, error) {
	files, err := os.ReadDir(m.dir)
	if err != nil {
		return nil, fmt.Errorf("read config directory: %w", err)
	}

	seen := make(map[string]bool)
	var names []string
	for _, file := range files {
		if file.IsDir() {
			continue
		}
		ext := filepath.Ext(file.Name())
		if ext != ".json" && ext != ".toml" {
			continue
		}
		name := strings.TrimSuffix(file.Name(), ext)
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}
