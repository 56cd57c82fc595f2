// Package config handles configuration for the auth server, including
// defaults, JSON overlay, and command-line flags.
package config

import "time"

// Config holds runtime settings for the auth server.
//
// Fields:
//   - HTTPAddr: bind address for the public HTTP endpoint.
//   - DatabaseDSN: PostgreSQL DSN (pgx). Empty selects the in-memory store.
//   - SecretKey: HMAC secret for signing JWTs. Do not use test defaults in prod.
//   - JWTAlgorithm: HMAC variant used for signing (HS256, HS384, HS512).
//   - AccessTokenValidityDuration / RefreshTokenValidityDuration: token lifetimes.
//   - BcryptCost: work factor for password hashing.
//   - Production: switches gin to release mode and logging to JSON.
//   - SMTP*: outgoing mail settings. An empty SMTPHost logs mail instead of sending.
type Config struct {
	HTTPAddr                     string
	DatabaseDSN                  string
	SecretKey                    string
	JWTAlgorithm                 string
	AccessTokenValidityDuration  time.Duration
	RefreshTokenValidityDuration time.Duration
	BcryptCost                   int
	Production                   bool
	SMTPHost                     string
	SMTPPort                     int
	SMTPUser                     string
	SMTPPassword                 string
	SMTPFrom                     string
}

// LoadDefaults populates Config with sensible development defaults.
// NOTE: These values are insecure for production and should be overridden.
func (c *Config) LoadDefaults() {
	c.HTTPAddr = ":8080"
	c.DatabaseDSN = ""
	c.SecretKey = "secretKey"
	c.JWTAlgorithm = "HS256"
	c.AccessTokenValidityDuration = 15 * time.Minute
	c.RefreshTokenValidityDuration = 24 * time.Hour
	c.BcryptCost = 12
	c.Production = false
	c.SMTPHost = ""
	c.SMTPPort = 587
	c.SMTPUser = ""
	c.SMTPPassword = ""
	c.SMTPFrom = "no-reply@localhost"
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from an optional JSON file and finally from command-line flags.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
