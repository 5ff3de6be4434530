package commands

import (
	"time"

	"pandassist/internal/scrapers/panda"
	configlibsql "pandassist/pkg/configutil/libsql"
)

// Config is read from config.json5 (merged with config.local.json5).
type Config struct {
	BaseUrl           string  `json:"base_url" validate:"omitempty,url"`
	Username          string  `json:"username" validate:"required"`
	Password          string  `json:"password" validate:"required"`
	TimeoutSeconds    int     `json:"timeout_seconds" validate:"gte=0"`
	RequestsPerSecond float64 `json:"requests_per_second"`
	CloudflareBypass  bool    `json:"cloudflare_bypass"`
	// CacheMinutes is how long a snapshot is served before asking the portal again.
	CacheMinutes int                 `json:"cache_minutes" validate:"gte=0"`
	Db           configlibsql.Struct `json:"db"`
}

func (c Config) clientOptions() panda.ClientOptions {
	return panda.ClientOptions{
		BaseUrl: c.BaseUrl,
		Session: panda.SessionOptions{
			Timeout:           time.Duration(c.TimeoutSeconds) * time.Second,
			RequestsPerSecond: c.RequestsPerSecond,
			CloudflareBypass:  c.CloudflareBypass,
		},
	}
}
