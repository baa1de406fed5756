// Package config defines service configuration structures and loading hooks.
package config

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// RedisAddr is the backing store address, e.g. "localhost:6379".
	RedisAddr string `koanf:"redis_addr"`

	// RedisPassword authenticates against the backing store; empty disables auth.
	RedisPassword string `koanf:"redis_password"`

	// RedisDB selects the logical database.
	RedisDB int `koanf:"redis_db"`

	// ShopifyStore is the Admin API host, e.g. "example.myshopify.com".
	ShopifyStore string `koanf:"shopify_store"`

	// ShopifyToken is the Admin API access token.
	ShopifyToken string `koanf:"shopify_token"`

	// ShopifyRPS caps outbound Admin API calls per second.
	ShopifyRPS float64 `koanf:"shopify_rps"`

	// AdminPass is the password for the admin surface.
	AdminPass string `koanf:"admin_pass"`

	// AllowedOrigins lists the storefront origins accepted by CORS checks.
	// Shopify preview domains (*.myshopify.com) are always accepted.
	AllowedOrigins []string `koanf:"allowed_origins"`

	// PrimaryStore is the store id unknown tracking store ids fall back to.
	PrimaryStore string `koanf:"primary_store"`

	// TrackWindowSeconds and TrackWindowLimit configure the fixed-window
	// rate limiter on the tracking endpoint.
	TrackWindowSeconds int `koanf:"track_window_seconds"`
	TrackWindowLimit   int `koanf:"track_window_limit"`

	// OverwriteOnDuplicate makes a repeated catalog add replace the stored
	// fields instead of keeping the first write.
	OverwriteOnDuplicate bool `koanf:"overwrite_on_duplicate"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:  "info",
		Addr:      ":8080",
		RedisAddr: "localhost:6379",
		RedisDB:   0,
		ShopifyRPS: 2,
		AllowedOrigins: []string{
			"https://kzmusicstore.com.br",
			"https://www.kzmusicstore.com.br",
			"https://kzmusicstore.com",
			"https://www.kzmusicstore.com",
		},
		PrimaryStore:       "br",
		TrackWindowSeconds: 60,
		TrackWindowLimit:   60,
	}
}
