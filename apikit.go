// Package apikit is a convenience layer over the resty HTTP client: default
// headers, credential handling, JSON or form body encoding, cancellation,
// global success/error notification hooks, URL-keyed singleGet dedup, and
// lifecycle-bound request scopes.
//
// Example usage:
//
//	client := apikit.New(
//	    apikit.WithBaseURL("https://api.example.com"),
//	    apikit.WithAuthToken(token),
//	)
//	res, err := client.Get(ctx, "/v1/items", map[string]string{"page": "1"})
//	if err != nil {
//	    log.Fatal().Err(err).Msg("request failed")
//	}
//	var items []Item
//	if err := res.Into(&items); err != nil {
//	    log.Fatal().Err(err).Msg("bad payload")
//	}
package apikit

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"

	"apikit/config"
)

var (
	defaultOnce   sync.Once
	defaultClient *Client
)

// Default returns the shared client configured from the environment
// (API_BASE_URL, API_AUTH_TOKEN, API_TIMEOUT_MS, API_ENCODING).
func Default() *Client {
	defaultOnce.Do(func() {
		cfg, err := config.Load()
		if err != nil {
			log.Warn().Err(err).Msg("Invalid environment configuration, using defaults")
			cfg = &config.Config{}
		}
		defaultClient = New(optionsFromConfig(cfg)...)
	})
	return defaultClient
}

// optionsFromConfig translates environment configuration into client options.
func optionsFromConfig(cfg *config.Config) []Option {
	var opts []Option
	if cfg.BaseURL != "" {
		opts = append(opts, WithBaseURL(cfg.BaseURL))
	}
	if cfg.AuthToken != "" {
		opts = append(opts, WithAuthToken(cfg.AuthToken))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, WithTimeout(cfg.Timeout))
	}
	if cfg.Encoding == config.EncodingForm {
		opts = append(opts, WithFormEncoding())
	}
	return opts
}

// Get is a convenience for Default().Get.
func Get(ctx context.Context, path string, params map[string]string) (*Response, error) {
	return Default().Get(ctx, path, params)
}

// Post is a convenience for Default().Post.
func Post(ctx context.Context, path string, body interface{}) (*Response, error) {
	return Default().Post(ctx, path, body)
}

// Put is a convenience for Default().Put.
func Put(ctx context.Context, path string, body interface{}) (*Response, error) {
	return Default().Put(ctx, path, body)
}

// Patch is a convenience for Default().Patch.
func Patch(ctx context.Context, path string, body interface{}) (*Response, error) {
	return Default().Patch(ctx, path, body)
}

// Delete is a convenience for Default().Delete.
func Delete(ctx context.Context, path string, params map[string]string) (*Response, error) {
	return Default().Delete(ctx, path, params)
}

// SingleGet is a convenience for Default().SingleGet.
func SingleGet(ctx context.Context, path string, params map[string]string) (*Response, error) {
	return Default().SingleGet(ctx, path, params)
}
