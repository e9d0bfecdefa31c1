package config

import (
	"net/url"
	"os"
	"strings"
	"time"
)

// Config carries everything the kit needs to reach the backend.
// Defaults live in code; the environment overrides them.
type Config struct {
	APIBase string // e.g. http://localhost:8080
	WSBase  string // e.g. ws://localhost:8080; derived from APIBase when empty
	Token   string // bearer credential from the session provider

	HTTPTimeout time.Duration // per request/response call
	DialTimeout time.Duration // live channel handshake
}

func Default() Config {
	return Config{
		APIBase:     "http://localhost:8080",
		HTTPTimeout: 10 * time.Second,
		DialTimeout: 10 * time.Second,
	}
}

// FromEnv applies MATCHA_API_URL, MATCHA_WS_URL and MATCHA_TOKEN on top
// of the defaults.
func FromEnv() Config {
	c := Default()
	if v := os.Getenv("MATCHA_API_URL"); v != "" {
		c.APIBase = v
	}
	if v := os.Getenv("MATCHA_WS_URL"); v != "" {
		c.WSBase = v
	}
	if v := os.Getenv("MATCHA_TOKEN"); v != "" {
		c.Token = v
	}
	return c
}

func (c Config) wsBase() string {
	if c.WSBase != "" {
		return c.WSBase
	}
	base := c.APIBase
	switch {
	case strings.HasPrefix(base, "https://"):
		return "wss://" + strings.TrimPrefix(base, "https://")
	case strings.HasPrefix(base, "http://"):
		return "ws://" + strings.TrimPrefix(base, "http://")
	}
	return base
}

// ChatWSURL builds the live channel endpoint. The credential rides in
// the handshake query because the browser transport the gateway was
// built for cannot set custom headers.
func (c Config) ChatWSURL() string {
	return strings.TrimRight(c.wsBase(), "/") + "/api/v1/ws/chat?token=" + url.QueryEscape(c.Token)
}
