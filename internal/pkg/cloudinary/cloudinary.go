package cloudinary

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/mx-space/asset-gateway/internal/pkg/metrics"
)

const (
	defaultBaseURL = "https://api.cloudinary.com"
	defaultTimeout = 60 * time.Second
	maxBodyBytes   = 8 << 20
	userAgent      = "mx-asset-gateway/1.0"
)

// Options configures a Client. CloudName, APIKey and APISecret are required.
type Options struct {
	CloudName  string
	APIKey     string
	APISecret  string
	APIBase    string // Admin API host, e.g. https://api.cloudinary.com
	UploadBase string // Upload API host, defaults to APIBase
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Client talks to the Cloudinary Admin and Upload REST APIs. It is safe for
// concurrent use.
type Client struct {
	cloudName  string
	apiKey     string
	apiSecret  string
	apiBase    string
	uploadBase string
	http       *http.Client
}

// APIError is returned when Cloudinary answers with a non-2xx status.
type APIError struct {
	StatusCode int
	Message    string
	Body       []byte
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("cloudinary returned status %d", e.StatusCode)
}

func New(opts Options) (*Client, error) {
	cloudName := strings.TrimSpace(opts.CloudName)
	apiKey := strings.TrimSpace(opts.APIKey)
	apiSecret := strings.TrimSpace(opts.APISecret)
	if cloudName == "" || apiKey == "" || apiSecret == "" {
		return nil, fmt.Errorf("incomplete cloudinary config: cloud_name/api_key/api_secret are required")
	}

	apiBase, err := normalizeBase(opts.APIBase, defaultBaseURL)
	if err != nil {
		return nil, err
	}
	uploadBase, err := normalizeBase(opts.UploadBase, apiBase)
	if err != nil {
		return nil, err
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	return &Client{
		cloudName:  cloudName,
		apiKey:     apiKey,
		apiSecret:  apiSecret,
		apiBase:    apiBase,
		uploadBase: uploadBase,
		http:       httpClient,
	}, nil
}

// CloudName returns the account the client is bound to.
func (c *Client) CloudName() string { return c.cloudName }

// DeleteByToken removes the asset a delete token was issued for. The call is
// unsigned; the token itself is the credential.
func (c *Client) DeleteByToken(ctx context.Context, token string) (json.RawMessage, error) {
	endpoint := c.uploadBase + "/v1_1/" + url.PathEscape(c.cloudName) + "/delete_by_token"
	form := url.Values{"token": {token}}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.do(req, "delete_by_token")
}

// DeleteResources removes publicIDs of the given resource and delivery type in a
// single Admin API call. invalidate asks the CDN to purge cached copies.
func (c *Client) DeleteResources(ctx context.Context, publicIDs []string, deliveryType, resourceType string, invalidate bool) (json.RawMessage, error) {
	if len(publicIDs) == 0 {
		return nil, errors.New("cloudinary: no public ids given")
	}

	endpoint := fmt.Sprintf("%s/v1_1/%s/resources/%s/%s",
		c.apiBase, url.PathEscape(c.cloudName), url.PathEscape(resourceType), url.PathEscape(deliveryType))
	query := url.Values{"public_ids[]": publicIDs}
	if invalidate {
		query.Set("invalidate", strconv.FormatBool(invalidate))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, endpoint+"?"+query.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth(c.apiKey, c.apiSecret)
	return c.do(req, "delete_resources")
}

func (c *Client) do(req *http.Request, name string) (_ json.RawMessage, err error) {
	start := time.Now()
	defer func() { metrics.ObserveCloudinary(name, start, err) }()

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read cloudinary response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Message:    errorMessage(body),
			Body:       body,
		}
	}
	if !json.Valid(body) {
		return nil, fmt.Errorf("cloudinary returned a non-JSON body (status %d)", resp.StatusCode)
	}
	return json.RawMessage(body), nil
}

// errorMessage extracts {"error":{"message":...}} from a failure body.
func errorMessage(body []byte) string {
	var payload struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	return strings.TrimSpace(payload.Error.Message)
}

func normalizeBase(raw, fallback string) (string, error) {
	base := strings.TrimRight(strings.TrimSpace(raw), "/")
	if base == "" {
		return fallback, nil
	}
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "https://" + base
	}
	parsed, err := url.Parse(base)
	if err != nil || parsed.Host == "" {
		return "", fmt.Errorf("invalid cloudinary endpoint: %s", raw)
	}
	return base, nil
}
