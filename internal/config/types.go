package config

import "time"

// AppConfig holds runtime startup configuration loaded from YAML and the environment.
type AppConfig struct {
	Port           int                `yaml:"port"`
	Env            string             `yaml:"env"` // "development" | "production"
	AllowedOrigins []string           `yaml:"allowed_origins"`
	JWTSecret      string             `yaml:"jwt_secret"`
	RoutePrefix    string             `yaml:"route_prefix"`
	Paths          RuntimePathsConfig `yaml:"paths"`
	Redis          RedisRuntimeConfig `yaml:"redis"`
	Cloudinary     CloudinaryConfig   `yaml:"cloudinary"`
	RateLimit      RateLimitConfig    `yaml:"rate_limit"`
}

type RuntimePathsConfig struct {
	Logs string `yaml:"logs"`
}

// RedisRuntimeConfig is optional. Redis is only used when URL or Host is set.
type RedisRuntimeConfig struct {
	URL      string            `yaml:"url"`
	Host     string            `yaml:"host"`
	Port     int               `yaml:"port"`
	Username string            `yaml:"username"`
	Password string            `yaml:"password"`
	DB       int               `yaml:"db"`
	TLS      bool              `yaml:"tls"`
	Scheme   string            `yaml:"scheme"`
	Params   map[string]string `yaml:"params"`
}

// CloudinaryConfig carries the credentials for the Cloudinary REST API.
type CloudinaryConfig struct {
	CloudName  string        `yaml:"cloud_name"`
	APIKey     string        `yaml:"api_key"`
	APISecret  string        `yaml:"api_secret"`
	APIBase    string        `yaml:"api_base"`
	UploadBase string        `yaml:"upload_base"`
	Timeout    time.Duration `yaml:"-"`
}

type RateLimitConfig struct {
	Enable       bool `yaml:"enable"`
	MaxPerSecond int  `yaml:"max_per_second"`
	ExemptAuthed bool `yaml:"exempt_authenticated"`
}

type rawAppConfig struct {
	Port               int                 `yaml:"port"`
	Env                string              `yaml:"env"`
	NodeEnv            string              `yaml:"node_env"`
	AllowedOrigins     []string            `yaml:"allowed_origins"`
	CORSAllowedOrigins []string            `yaml:"cors_allowed_origins"`
	JWTSecret          string              `yaml:"jwt_secret"`
	RoutePrefix        *string             `yaml:"route_prefix"`
	Paths              rawPathsConfig      `yaml:"paths"`
	LogDir             string              `yaml:"log_dir"`
	RedisURL           string              `yaml:"redis_url"`
	Redis              rawRedisConfig      `yaml:"redis"`
	CloudinaryURL      string              `yaml:"cloudinary_url"`
	Cloudinary         rawCloudinaryConfig `yaml:"cloudinary"`
	RateLimit          rawRateLimitConfig  `yaml:"rate_limit"`
}

type rawPathsConfig struct {
	Logs string `yaml:"logs"`
}

type rawRedisConfig struct {
	URL      string            `yaml:"url"`
	Host     string            `yaml:"host"`
	Port     int               `yaml:"port"`
	Username string            `yaml:"username"`
	Password string            `yaml:"password"`
	DB       *int              `yaml:"db"`
	TLS      *bool             `yaml:"tls"`
	Scheme   string            `yaml:"scheme"`
	Params   map[string]string `yaml:"params"`
}

type rawCloudinaryConfig struct {
	URL            string `yaml:"url"`
	CloudName      string `yaml:"cloud_name"`
	APIKey         string `yaml:"api_key"`
	APISecret      string `yaml:"api_secret"`
	APIBase        string `yaml:"api_base"`
	UploadBase     string `yaml:"upload_base"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

type rawRateLimitConfig struct {
	Enable              *bool `yaml:"enable"`
	MaxPerSecond        int   `yaml:"max_per_second"`
	ExemptAuthenticated *bool `yaml:"exempt_authenticated"`
}
