package config

import "time"

const (
	// DefaultConfigPath is used when --config is not provided.
	DefaultConfigPath = "config.yml"
	// DefaultRoutePrefix is the group the deletion routes are mirrored under.
	DefaultRoutePrefix = "/api/v1/cloudinary"

	defaultPort              = 2333
	defaultEnv               = "development"
	defaultRedisPort         = 6379
	defaultRedisDB           = 0
	defaultCloudinaryAPIBase = "https://api.cloudinary.com"
	defaultCloudinaryTimeout = 60 * time.Second
	defaultRateLimitMax      = 50
)

// Environment variables consulted after the YAML file. They follow the names the
// Cloudinary SDKs read.
const (
	EnvCloudinaryURL       = "CLOUDINARY_URL"
	EnvCloudinaryCloudName = "CLOUDINARY_CLOUD_NAME"
	EnvCloudinaryAPIKey    = "CLOUDINARY_API_KEY"
	EnvCloudinaryAPISecret = "CLOUDINARY_API_SECRET"
)
