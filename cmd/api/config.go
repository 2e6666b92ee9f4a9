package main

import (
	"time"

	"github.com/dmitrymomot/tilestore/pkg/email"
	"github.com/dmitrymomot/tilestore/pkg/httpserver"
	mongodb "github.com/dmitrymomot/tilestore/pkg/mongo"
	"github.com/dmitrymomot/tilestore/pkg/ratelimiter"
	"github.com/dmitrymomot/tilestore/pkg/redis"
	"github.com/dmitrymomot/tilestore/svc/auth"
)

type appConfig struct {
	Env         string   `env:"APP_ENV" envDefault:"development"`
	Name        string   `env:"APP_NAME" envDefault:"Tilestore"`
	URL         string   `env:"APP_URL" envDefault:"http://localhost:8000"`
	CORSOrigins []string `env:"CORS_ORIGIN" envDefault:"http://localhost:5173" envSeparator:","`
	// TrustedProxies lists proxy addresses or CIDR ranges whose forwarding
	// headers are believed. Empty means the socket peer is the client.
	TrustedProxies []string `env:"TRUSTED_PROXIES" envSeparator:","`

	RateLimit rateLimitConfig
	HTTP      httpserver.Config
	Mongo     mongodb.Config
	Redis     redis.Config
	Auth      auth.Config
	Email     email.Config
}

// rateLimitConfig bounds credential attempts per client IP.
type rateLimitConfig struct {
	Capacity       int           `env:"AUTH_RATE_LIMIT_CAPACITY" envDefault:"10"`
	RefillRate     int           `env:"AUTH_RATE_LIMIT_REFILL_RATE" envDefault:"5"`
	RefillInterval time.Duration `env:"AUTH_RATE_LIMIT_REFILL_INTERVAL" envDefault:"1m"`
}

func (c rateLimitConfig) bucket() ratelimiter.Config {
	return ratelimiter.Config{
		Capacity:       c.Capacity,
		RefillRate:     c.RefillRate,
		RefillInterval: c.RefillInterval,
	}
}
