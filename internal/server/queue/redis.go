// Package queue stores legacy users waiting for batch import as three
// parallel Redis lists (email, password, id).
package queue

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const upstashPort = "6379"

// Options resolves the connection options for rawURL. An http(s) URL is an
// Upstash REST endpoint and is mapped to the TLS Redis endpoint of the same
// database, authenticated with token. redis:// and rediss:// URLs are used
// as they are, with token as password when the URL carries none.
func Options(rawURL, token string) (*redis.Options, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		if u.Hostname() == "" {
			return nil, fmt.Errorf("redis url %q has no host", rawURL)
		}
		rewritten := &url.URL{
			Scheme: "rediss",
			User:   url.UserPassword("default", token),
			Host:   u.Hostname() + ":" + upstashPort,
		}
		return redis.ParseURL(rewritten.String())
	case "redis", "rediss":
		opts, err := redis.ParseURL(rawURL)
		if err != nil {
			return nil, err
		}
		if opts.Password == "" && token != "" {
			opts.Password = token
		}
		return opts, nil
	default:
		return nil, fmt.Errorf("unsupported redis url scheme %q", u.Scheme)
	}
}

// NewClient connects to Redis and verifies the connection with a PING.
func NewClient(ctx context.Context, rawURL, token string) (*redis.Client, error) {
	opts, err := Options(rawURL, token)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return client, nil
}
