package config

import (
	"fmt"
	"net"
	neturl "net/url"
	"strconv"
	"strings"
)

// Enabled reports whether a Redis endpoint was configured at all.
func (c RedisRuntimeConfig) Enabled() bool {
	return c.URL != "" || c.Host != ""
}

// URLValue renders the connection settings as a redis:// URL for go-redis.
func (c RedisRuntimeConfig) URLValue() string {
	if u := normalizeRedisRawURL(c.URL); u != "" {
		return u
	}
	if strings.TrimSpace(c.Host) == "" {
		return ""
	}

	port := c.Port
	if port == 0 {
		port = defaultRedisPort
	}
	db := c.DB
	if db < 0 {
		db = defaultRedisDB
	}
	scheme := c.Scheme
	if scheme != "redis" && scheme != "rediss" {
		scheme = "redis"
	}

	u := &neturl.URL{
		Scheme: scheme,
		Host:   net.JoinHostPort(strings.TrimSpace(c.Host), strconv.Itoa(port)),
		Path:   "/" + strconv.Itoa(db),
	}
	username := strings.TrimSpace(c.Username)
	password := strings.TrimSpace(c.Password)
	switch {
	case username != "" && password != "":
		u.User = neturl.UserPassword(username, password)
	case username != "":
		u.User = neturl.User(username)
	case password != "":
		u.User = neturl.UserPassword("", password)
	}

	if len(c.Params) > 0 {
		query := neturl.Values{}
		for key, value := range c.Params {
			query.Set(key, value)
		}
		u.RawQuery = query.Encode()
	}
	return u.String()
}

// ParseCloudinaryURL reads credentials from the SDK-style
// cloudinary://<api_key>:<api_secret>@<cloud_name> form. Query parameters are ignored.
func ParseCloudinaryURL(raw string) (CloudinaryConfig, error) {
	u, err := neturl.Parse(strings.TrimSpace(raw))
	if err != nil {
		return CloudinaryConfig{}, fmt.Errorf("invalid cloudinary url: %w", err)
	}
	if u.Scheme != "cloudinary" {
		return CloudinaryConfig{}, fmt.Errorf("invalid cloudinary url: scheme must be cloudinary://, got %q", u.Scheme)
	}
	if u.Host == "" {
		return CloudinaryConfig{}, fmt.Errorf("invalid cloudinary url: cloud name is missing")
	}

	cfg := CloudinaryConfig{CloudName: u.Host}
	if u.User != nil {
		cfg.APIKey = u.User.Username()
		cfg.APISecret, _ = u.User.Password()
	}
	return cfg, nil
}

func mergeCloudinaryCredentials(dst, src CloudinaryConfig) CloudinaryConfig {
	if src.CloudName != "" {
		dst.CloudName = src.CloudName
	}
	if src.APIKey != "" {
		dst.APIKey = src.APIKey
	}
	if src.APISecret != "" {
		dst.APISecret = src.APISecret
	}
	return dst
}
