package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

const (
	DefaultAPIURL      = "http://127.0.0.1:8000"
	DefaultDBFileName  = ".vboard.db"
	DefaultUploadDir   = "uploads"
	DefaultLogLevel    = "debug"
	DefaultDiscoverURL = "https://api.unsplash.com"

	DefaultMaxUploadBytes int64 = 10 * 1024 * 1024

	DefaultCheckInterval    = 6 * time.Hour
	DefaultCooldown         = 24 * time.Hour
	DefaultBatchSize        = 50
	DefaultProbeTimeout     = 5 * time.Second
	DefaultProbeConcurrency = 8

	DefaultDiscoverCacheSize = 32
	DefaultDiscoverCacheTTL  = time.Minute

	configFileName           = ".vboard.toml"
	configDirEnvKey          = "VBOARD_CONFIG_DIR"
	trustProjectConfigEnvKey = "VBOARD_TRUST_PROJECT_CONFIG"
)

// DefaultAllowedExtensions are the image types accepted by the upload endpoint.
var DefaultAllowedExtensions = []string{".jpg", ".jpeg", ".png", ".gif", ".webp", ".svg"}

// Duration is a time.Duration written as a Go duration string in TOML.
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(strings.TrimSpace(string(text)))
	if err != nil {
		return err
	}
	d.Duration = parsed
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// UploadConfig configures the local image upload store.
type UploadConfig struct {
	Dir               string   `toml:"dir"`
	MaxUploadBytes    int64    `toml:"max_upload_bytes"`
	AllowedExtensions []string `toml:"allowed_extensions"`
}

// ImageHealthConfig configures image verification.
type ImageHealthConfig struct {
	CheckInterval           Duration `toml:"check_interval"`
	Cooldown                Duration `toml:"cooldown"`
	BatchSize               int      `toml:"batch_size"`
	ProbeTimeout            Duration `toml:"probe_timeout"`
	ProbeConcurrency        int      `toml:"probe_concurrency"`
	RequireImageContentType bool     `toml:"require_image_content_type"`
	RunOnStart              bool     `toml:"run_on_start"`
}

// DiscoverConfig configures the Unsplash discover feed.
type DiscoverConfig struct {
	BaseURL   string   `toml:"base_url"`
	AccessKey string   `toml:"access_key"`
	CacheSize int      `toml:"cache_size"`
	CacheTTL  Duration `toml:"cache_ttl"`
}

// Config defines runtime configuration for vboard.
type Config struct {
	APIURL                   string            `toml:"api_url"`
	PublicURL                string            `toml:"public_url"`
	DBPath                   string            `toml:"db_path"`
	LogLevel                 string            `toml:"log_level"`
	AllowedOrigins           []string          `toml:"allowed_origins"`
	Uploads                  UploadConfig      `toml:"uploads"`
	ImageHealth              ImageHealthConfig `toml:"image_health"`
	Discover                 DiscoverConfig    `toml:"discover"`
	TrustedProjectConfigPath string            `toml:"-"`
}

// Default returns default configuration values.
func Default() Config {
	return Config{
		APIURL:         DefaultAPIURL,
		DBPath:         "",
		LogLevel:       DefaultLogLevel,
		AllowedOrigins: []string{"http://localhost:5173", "http://localhost:5174", "http://localhost:3000"},
		Uploads: UploadConfig{
			Dir:               DefaultUploadDir,
			MaxUploadBytes:    DefaultMaxUploadBytes,
			AllowedExtensions: append([]string(nil), DefaultAllowedExtensions...),
		},
		ImageHealth: ImageHealthConfig{
			CheckInterval:           Duration{DefaultCheckInterval},
			Cooldown:                Duration{DefaultCooldown},
			BatchSize:               DefaultBatchSize,
			ProbeTimeout:            Duration{DefaultProbeTimeout},
			ProbeConcurrency:        DefaultProbeConcurrency,
			RequireImageContentType: true,
			RunOnStart:              true,
		},
		Discover: DiscoverConfig{
			BaseURL:   DefaultDiscoverURL,
			CacheSize: DefaultDiscoverCacheSize,
			CacheTTL:  Duration{DefaultDiscoverCacheTTL},
		},
	}
}

// EffectivePublicURL is the base URL clients use to reach this server.
func (c *Config) EffectivePublicURL() string {
	if strings.TrimSpace(c.PublicURL) != "" {
		return strings.TrimRight(strings.TrimSpace(c.PublicURL), "/")
	}
	return strings.TrimRight(strings.TrimSpace(c.APIURL), "/")
}

func loadFile(path string, cfg *Config) error {
	_, err := loadFileIfExists(path, cfg)
	return err
}

func loadFileIfExists(path string, cfg *Config) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	if info.IsDir() {
		return false, nil
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return false, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return true, nil
}

func overrideConfigPath() (string, bool) {
	dir := strings.TrimSpace(os.Getenv(configDirEnvKey))
	if dir == "" {
		return "", false
	}
	return filepath.Join(dir, configFileName), true
}

func trustProjectConfig() bool {
	raw := strings.TrimSpace(os.Getenv(trustProjectConfigEnvKey))
	if raw == "" {
		return false
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return false
	}
	return value
}

var allowedKeys = []string{
	"api_url",
	"public_url",
	"db_path",
	"log_level",
	"allowed_origins",
	"uploads.dir",
	"uploads.max_upload_bytes",
	"uploads.allowed_extensions",
	"image_health.check_interval",
	"image_health.cooldown",
	"image_health.batch_size",
	"image_health.probe_timeout",
	"image_health.probe_concurrency",
	"image_health.require_image_content_type",
	"image_health.run_on_start",
	"discover.base_url",
	"discover.access_key",
	"discover.cache_size",
	"discover.cache_ttl",
}

// AllowedKeys returns the set of valid config keys.
func AllowedKeys() []string {
	return allowedKeys
}

// IsAllowedKey checks if a key is a valid config key.
func IsAllowedKey(key string) bool {
	for _, k := range allowedKeys {
		if k == key {
			return true
		}
	}
	return false
}

// Get returns the value of a config key.
func (c *Config) Get(key string) (string, error) {
	switch key {
	case "api_url":
		return c.APIURL, nil
	case "public_url":
		return c.PublicURL, nil
	case "db_path":
		return c.DBPath, nil
	case "log_level":
		return c.LogLevel, nil
	case "allowed_origins":
		return strings.Join(c.AllowedOrigins, ","), nil
	case "uploads.dir":
		return c.Uploads.Dir, nil
	case "uploads.max_upload_bytes":
		return strconv.FormatInt(c.Uploads.MaxUploadBytes, 10), nil
	case "uploads.allowed_extensions":
		return strings.Join(c.Uploads.AllowedExtensions, ","), nil
	case "image_health.check_interval":
		return c.ImageHealth.CheckInterval.String(), nil
	case "image_health.cooldown":
		return c.ImageHealth.Cooldown.String(), nil
	case "image_health.batch_size":
		return strconv.Itoa(c.ImageHealth.BatchSize), nil
	case "image_health.probe_timeout":
		return c.ImageHealth.ProbeTimeout.String(), nil
	case "image_health.probe_concurrency":
		return strconv.Itoa(c.ImageHealth.ProbeConcurrency), nil
	case "image_health.require_image_content_type":
		return strconv.FormatBool(c.ImageHealth.RequireImageContentType), nil
	case "image_health.run_on_start":
		return strconv.FormatBool(c.ImageHealth.RunOnStart), nil
	case "discover.base_url":
		return c.Discover.BaseURL, nil
	case "discover.access_key":
		return c.Discover.AccessKey, nil
	case "discover.cache_size":
		return strconv.Itoa(c.Discover.CacheSize), nil
	case "discover.cache_ttl":
		return c.Discover.CacheTTL.String(), nil
	default:
		return "", fmt.Errorf("unknown key: %s", key)
	}
}

// GlobalPath returns the path to the global config file.
func GlobalPath() (string, error) {
	if path, ok := overrideConfigPath(); ok {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, configFileName), nil
}

// ProjectPath returns the path to the project config file.
func ProjectPath() (string, error) {
	if path, ok := overrideConfigPath(); ok {
		return path, nil
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(cwd, configFileName), nil
}

// SetKey reads the TOML file at path, sets key=value, and writes it back.
func SetKey(path, key, value string) error {
	if !IsAllowedKey(key) {
		return fmt.Errorf("unknown key: %s", key)
	}

	data := make(map[string]any)
	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, &data); err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
	}

	parsedValue, err := parseSetValue(key, value)
	if err != nil {
		return err
	}
	if err := setNestedKey(data, strings.Split(key, "."), parsedValue); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(data)
}

// Load reads config from trusted files and applies env overrides.
func Load() (*Config, error) {
	cfg := Default()

	if overridePath, ok := overrideConfigPath(); ok {
		if err := loadFile(overridePath, &cfg); err != nil {
			return nil, err
		}
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			if err := loadFile(filepath.Join(home, configFileName), &cfg); err != nil {
				return nil, err
			}
		}

		if trustProjectConfig() {
			if cwd, err := os.Getwd(); err == nil {
				projectPath := filepath.Join(cwd, configFileName)
				info, statErr := os.Stat(projectPath)
				switch {
				case statErr == nil && !info.IsDir():
					if err := loadFile(projectPath, &cfg); err != nil {
						return nil, err
					}
					cfg.TrustedProjectConfigPath = projectPath
				case statErr != nil && !os.IsNotExist(statErr):
					return nil, statErr
				}
			}
		}
	}

	if cfg.DBPath == "" {
		if cwd, err := os.Getwd(); err == nil {
			cfg.DBPath = filepath.Join(cwd, DefaultDBFileName)
		}
	}

	if apiURL := os.Getenv("VBOARD_API_URL"); apiURL != "" {
		cfg.APIURL = apiURL
	}
	if publicURL := os.Getenv("VBOARD_PUBLIC_URL"); publicURL != "" {
		cfg.PublicURL = publicURL
	}
	if dbPath := os.Getenv("VBOARD_DB"); dbPath != "" {
		cfg.DBPath = dbPath
	}
	if uploadDir := os.Getenv("VBOARD_UPLOAD_DIR"); uploadDir != "" {
		cfg.Uploads.Dir = uploadDir
	}
	if key := os.Getenv("VBOARD_UNSPLASH_ACCESS_KEY"); key != "" {
		cfg.Discover.AccessKey = key
	}
	if raw := strings.TrimSpace(os.Getenv("VBOARD_CHECK_INTERVAL")); raw != "" {
		if parsed, err := time.ParseDuration(raw); err == nil {
			cfg.ImageHealth.CheckInterval = Duration{parsed}
		}
	}

	cfg.normalizeDefaults()

	return &cfg, nil
}

func parseSetValue(key, value string) (any, error) {
	value = strings.TrimSpace(value)
	switch key {
	case "uploads.max_upload_bytes":
		parsed, err := strconv.ParseInt(value, 10, 64)
		if err != nil || parsed <= 0 {
			return nil, fmt.Errorf("%s must be a positive integer", key)
		}
		return parsed, nil
	case "image_health.batch_size":
		parsed, err := strconv.Atoi(value)
		if err != nil || parsed <= 0 || parsed > DefaultBatchSize {
			return nil, fmt.Errorf("%s must be an integer between 1 and %d", key, DefaultBatchSize)
		}
		return parsed, nil
	case "image_health.cooldown":
		parsed, err := time.ParseDuration(value)
		if err != nil || parsed < DefaultCooldown {
			return nil, fmt.Errorf("%s must be a duration of at least %s", key, DefaultCooldown)
		}
		return parsed.String(), nil
	case "image_health.probe_concurrency", "discover.cache_size":
		parsed, err := strconv.Atoi(value)
		if err != nil || parsed <= 0 {
			return nil, fmt.Errorf("%s must be a positive integer", key)
		}
		return parsed, nil
	case "image_health.check_interval", "image_health.probe_timeout", "discover.cache_ttl":
		parsed, err := time.ParseDuration(value)
		if err != nil || parsed < 0 {
			return nil, fmt.Errorf("%s must be a duration like 30s or 6h", key)
		}
		return parsed.String(), nil
	case "image_health.require_image_content_type", "image_health.run_on_start":
		parsed, err := strconv.ParseBool(value)
		if err != nil {
			return nil, fmt.Errorf("%s must be true or false", key)
		}
		return parsed, nil
	case "allowed_origins", "uploads.allowed_extensions":
		return splitCSV(value), nil
	default:
		return value, nil
	}
}

func setNestedKey(data map[string]any, parts []string, value any) error {
	if len(parts) == 0 {
		return fmt.Errorf("invalid config key")
	}
	if len(parts) == 1 {
		data[parts[0]] = value
		return nil
	}
	childRaw, ok := data[parts[0]]
	if !ok {
		child := map[string]any{}
		data[parts[0]] = child
		return setNestedKey(child, parts[1:], value)
	}
	child, ok := childRaw.(map[string]any)
	if !ok {
		return fmt.Errorf("cannot set nested key %q", strings.Join(parts, "."))
	}
	return setNestedKey(child, parts[1:], value)
}

func splitCSV(value string) []string {
	value = strings.TrimSpace(value)
	if value == "" {
		return []string{}
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		out = append(out, part)
	}
	return out
}

func (c *Config) normalizeDefaults() {
	if strings.TrimSpace(c.LogLevel) == "" {
		c.LogLevel = DefaultLogLevel
	}
	if strings.TrimSpace(c.Uploads.Dir) == "" {
		c.Uploads.Dir = DefaultUploadDir
	}
	if c.Uploads.MaxUploadBytes <= 0 {
		c.Uploads.MaxUploadBytes = DefaultMaxUploadBytes
	}
	c.Uploads.AllowedExtensions = normalizeExtensions(c.Uploads.AllowedExtensions)
	if len(c.Uploads.AllowedExtensions) == 0 {
		c.Uploads.AllowedExtensions = append([]string(nil), DefaultAllowedExtensions...)
	}
	// Batch size is capped and cooldown floored at their defaults.
	if c.ImageHealth.Cooldown.Duration < DefaultCooldown {
		c.ImageHealth.Cooldown = Duration{DefaultCooldown}
	}
	if c.ImageHealth.BatchSize <= 0 || c.ImageHealth.BatchSize > DefaultBatchSize {
		c.ImageHealth.BatchSize = DefaultBatchSize
	}
	if c.ImageHealth.ProbeTimeout.Duration <= 0 {
		c.ImageHealth.ProbeTimeout = Duration{DefaultProbeTimeout}
	}
	if c.ImageHealth.ProbeConcurrency <= 0 {
		c.ImageHealth.ProbeConcurrency = DefaultProbeConcurrency
	}
	if c.ImageHealth.CheckInterval.Duration < 0 {
		c.ImageHealth.CheckInterval = Duration{DefaultCheckInterval}
	}
	if strings.TrimSpace(c.Discover.BaseURL) == "" {
		c.Discover.BaseURL = DefaultDiscoverURL
	}
	if c.Discover.CacheSize <= 0 {
		c.Discover.CacheSize = DefaultDiscoverCacheSize
	}
	if c.Discover.CacheTTL.Duration <= 0 {
		c.Discover.CacheTTL = Duration{DefaultDiscoverCacheTTL}
	}
}

func normalizeExtensions(raw []string) []string {
	out := make([]string, 0, len(raw))
	seen := map[string]struct{}{}
	for _, ext := range raw {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		if _, ok := seen[ext]; ok {
			continue
		}
		seen[ext] = struct{}{}
		out = append(out, ext)
	}
	return out
}
