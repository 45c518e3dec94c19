package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Load reads the YAML config at configPath, applies environment overrides and
// validates the result. A missing file is tolerated so that a deployment can be
// configured purely through CLOUDINARY_URL.
func Load(configPath string) (*AppConfig, error) {
	path := strings.TrimSpace(configPath)
	if path == "" {
		path = DefaultConfigPath
	}

	cfg := defaultAppConfig()

	content, err := os.ReadFile(path)
	switch {
	case err == nil:
		decoder := yaml.NewDecoder(bytes.NewReader(content))
		decoder.KnownFields(true)
		raw := rawAppConfig{}
		if err := decoder.Decode(&raw); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("parse config file %q: %w", path, err)
		}
		if err := applyRawAppConfig(&cfg, raw); err != nil {
			return nil, fmt.Errorf("config file %q: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist):
	default:
		return nil, fmt.Errorf("read config file %q: %w", path, err)
	}

	if err := applyEnvOverrides(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

func defaultAppConfig() AppConfig {
	return AppConfig{
		Port:        defaultPort,
		Env:         defaultEnv,
		RoutePrefix: DefaultRoutePrefix,
		Redis: RedisRuntimeConfig{
			Port: defaultRedisPort,
			DB:   defaultRedisDB,
		},
		Cloudinary: CloudinaryConfig{
			APIBase:    defaultCloudinaryAPIBase,
			UploadBase: defaultCloudinaryAPIBase,
			Timeout:    defaultCloudinaryTimeout,
		},
		RateLimit: RateLimitConfig{
			Enable:       true,
			MaxPerSecond: defaultRateLimitMax,
			ExemptAuthed: true,
		},
	}
}

func applyRawAppConfig(cfg *AppConfig, raw rawAppConfig) error {
	if raw.Port != 0 {
		cfg.Port = raw.Port
	}
	if v := strings.TrimSpace(raw.Env); v != "" {
		cfg.Env = v
	}
	if v := strings.TrimSpace(raw.NodeEnv); v != "" {
		cfg.Env = v
	}
	switch {
	case raw.AllowedOrigins != nil:
		cfg.AllowedOrigins = normalizeOrigins(raw.AllowedOrigins)
	case raw.CORSAllowedOrigins != nil:
		cfg.AllowedOrigins = normalizeOrigins(raw.CORSAllowedOrigins)
	}
	if v := strings.TrimSpace(raw.JWTSecret); v != "" {
		cfg.JWTSecret = v
	}
	if raw.RoutePrefix != nil {
		cfg.RoutePrefix = *raw.RoutePrefix
	}
	if v := strings.TrimSpace(raw.Paths.Logs); v != "" {
		cfg.Paths.Logs = v
	}
	if v := strings.TrimSpace(raw.LogDir); v != "" {
		cfg.Paths.Logs = v
	}

	cfg.Redis = applyRawRedisConfig(cfg.Redis, raw)

	cld, err := applyRawCloudinaryConfig(cfg.Cloudinary, raw)
	if err != nil {
		return err
	}
	cfg.Cloudinary = cld

	if raw.RateLimit.Enable != nil {
		cfg.RateLimit.Enable = *raw.RateLimit.Enable
	}
	if raw.RateLimit.MaxPerSecond != 0 {
		cfg.RateLimit.MaxPerSecond = raw.RateLimit.MaxPerSecond
	}
	if raw.RateLimit.ExemptAuthenticated != nil {
		cfg.RateLimit.ExemptAuthed = *raw.RateLimit.ExemptAuthenticated
	}

	cfg.Env = normalizeEnv(cfg.Env)
	cfg.RoutePrefix = normalizeRoutePrefix(cfg.RoutePrefix)
	return nil
}

func applyRawRedisConfig(current RedisRuntimeConfig, raw rawAppConfig) RedisRuntimeConfig {
	cfg := current

	if v := strings.TrimSpace(raw.Redis.URL); v != "" {
		cfg.URL = v
	}
	if v := strings.TrimSpace(raw.RedisURL); v != "" {
		cfg.URL = v
	}
	if v := strings.TrimSpace(raw.Redis.Host); v != "" {
		cfg.Host = v
	}
	if raw.Redis.Port != 0 {
		cfg.Port = raw.Redis.Port
	}
	if v := strings.TrimSpace(raw.Redis.Username); v != "" {
		cfg.Username = v
	}
	if v := strings.TrimSpace(raw.Redis.Password); v != "" {
		cfg.Password = v
	}
	if raw.Redis.DB != nil {
		cfg.DB = *raw.Redis.DB
	}
	if raw.Redis.TLS != nil {
		cfg.TLS = *raw.Redis.TLS
	}
	if v := strings.TrimSpace(raw.Redis.Scheme); v != "" {
		cfg.Scheme = v
	}
	if raw.Redis.Params != nil {
		cfg.Params = copyStringMap(raw.Redis.Params)
	}

	return normalizeRedisConfig(cfg)
}

func applyRawCloudinaryConfig(current CloudinaryConfig, raw rawAppConfig) (CloudinaryConfig, error) {
	cfg := current

	for _, rawURL := range []string{raw.CloudinaryURL, raw.Cloudinary.URL} {
		if strings.TrimSpace(rawURL) == "" {
			continue
		}
		parsed, err := ParseCloudinaryURL(rawURL)
		if err != nil {
			return cfg, err
		}
		cfg = mergeCloudinaryCredentials(cfg, parsed)
	}
	if v := strings.TrimSpace(raw.Cloudinary.CloudName); v != "" {
		cfg.CloudName = v
	}
	if v := strings.TrimSpace(raw.Cloudinary.APIKey); v != "" {
		cfg.APIKey = v
	}
	if v := strings.TrimSpace(raw.Cloudinary.APISecret); v != "" {
		cfg.APISecret = v
	}
	if v := strings.TrimSpace(raw.Cloudinary.APIBase); v != "" {
		cfg.APIBase = v
	}
	if v := strings.TrimSpace(raw.Cloudinary.UploadBase); v != "" {
		cfg.UploadBase = v
	}
	if raw.Cloudinary.TimeoutSeconds > 0 {
		cfg.Timeout = time.Duration(raw.Cloudinary.TimeoutSeconds) * time.Second
	}
	return normalizeCloudinaryConfig(cfg), nil
}

// applyEnvOverrides lets the environment win over the file, CLOUDINARY_URL first
// and the discrete variables after it.
func applyEnvOverrides(cfg *AppConfig) error {
	if raw := strings.TrimSpace(os.Getenv(EnvCloudinaryURL)); raw != "" {
		parsed, err := ParseCloudinaryURL(raw)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvCloudinaryURL, err)
		}
		cfg.Cloudinary = mergeCloudinaryCredentials(cfg.Cloudinary, parsed)
	}
	if v := strings.TrimSpace(os.Getenv(EnvCloudinaryCloudName)); v != "" {
		cfg.Cloudinary.CloudName = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvCloudinaryAPIKey)); v != "" {
		cfg.Cloudinary.APIKey = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvCloudinaryAPISecret)); v != "" {
		cfg.Cloudinary.APISecret = v
	}
	cfg.Cloudinary = normalizeCloudinaryConfig(cfg.Cloudinary)
	return nil
}

func (c *AppConfig) validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port %d out of range, expected 1-65535", c.Port)
	}
	if c.Redis.Enabled() {
		if c.Redis.Port < 1 || c.Redis.Port > 65535 {
			return fmt.Errorf("redis.port %d out of range, expected 1-65535", c.Redis.Port)
		}
		if c.Redis.DB < 0 {
			return fmt.Errorf("redis.db %d must be >= 0", c.Redis.DB)
		}
	}
	if c.RateLimit.MaxPerSecond < 1 {
		return fmt.Errorf("rate_limit.max_per_second %d must be >= 1", c.RateLimit.MaxPerSecond)
	}

	var missing []string
	if c.Cloudinary.CloudName == "" {
		missing = append(missing, "cloud_name")
	}
	if c.Cloudinary.APIKey == "" {
		missing = append(missing, "api_key")
	}
	if c.Cloudinary.APISecret == "" {
		missing = append(missing, "api_secret")
	}
	if len(missing) > 0 {
		return fmt.Errorf("cloudinary credentials incomplete, missing %s (set cloudinary.* or %s)",
			strings.Join(missing, "/"), EnvCloudinaryURL)
	}
	return nil
}

func (c *AppConfig) IsDev() bool {
	return strings.EqualFold(c.Env, defaultEnv)
}

// Addr returns the listen address.
func (c *AppConfig) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

func (c *AppConfig) LogDir() string {
	if c == nil {
		return ResolveRuntimePath("", "logs")
	}
	return ResolveRuntimePath(c.Paths.Logs, "logs")
}

// AuthEnabled reports whether the deletion routes require a bearer token.
func (c *AppConfig) AuthEnabled() bool {
	return strings.TrimSpace(c.JWTSecret) != ""
}
