package config

import (
	"fmt"
	"time"

	"github.com/jonesrussell/north-cloud/traffic-gate/internal/auth"
	"github.com/jonesrussell/north-cloud/traffic-gate/internal/campaign"
	"github.com/jonesrussell/north-cloud/traffic-gate/internal/clientctx"
	"github.com/jonesrussell/north-cloud/traffic-gate/internal/domain"
	"github.com/jonesrussell/north-cloud/traffic-gate/internal/events"
	infraconfig "github.com/jonesrussell/north-cloud/traffic-gate/internal/infrastructure/config"
	infralogger "github.com/jonesrussell/north-cloud/traffic-gate/internal/infrastructure/logger"
	"github.com/jonesrussell/north-cloud/traffic-gate/internal/infrastructure/profiling"
	infraredis "github.com/jonesrussell/north-cloud/traffic-gate/internal/infrastructure/redis"
)

// Default configuration values.
const (
	defaultServiceName = "traffic-gate"
	defaultServicePort = 8000
	defaultVersion     = "0.1.0"

	defaultTokenExpiry = 24 * time.Hour

	defaultRefreshInterval = 30 * time.Second

	defaultMaxRequests = 600
	defaultWindow      = time.Minute

	defaultRedisAddress = "localhost:6379"

	defaultEventsMaxLen   = 100000
	defaultBufferSize     = 1000
	defaultFlushInterval  = time.Second
	defaultFlushThreshold = 500
)

// Config holds the application configuration.
type Config struct {
	Service   ServiceConfig      `yaml:"service"`
	Auth      AuthConfig         `yaml:"auth"`
	Campaigns CampaignsConfig    `yaml:"campaigns"`
	RateLimit RateLimitConfig    `yaml:"rate_limit"`
	Redis     infraredis.Config  `yaml:"redis"`
	Events    EventsConfig       `yaml:"events"`
	Logging   infralogger.Config `yaml:"logging"`
	Profiling profiling.Config   `yaml:"profiling"`
}

// ServiceConfig holds service-level configuration.
type ServiceConfig struct {
	Name        string   `yaml:"name"`
	Version     string   `yaml:"version"`
	Port        int      `env:"TRAFFIC_GATE_PORT" yaml:"port"`
	Debug       bool     `env:"APP_DEBUG"         yaml:"debug"`
	CORSOrigins []string `env:"CORS_ORIGINS"      yaml:"cors_origins"`
}

// AuthConfig holds the bearer token settings of the admin routes.
type AuthConfig struct {
	JWTSecret     string        `env:"AUTH_JWT_SECRET" yaml:"jwt_secret"`
	RequiredScope string        `yaml:"required_scope"`
	TokenExpiry   time.Duration `yaml:"token_expiry"`
}

// CampaignsConfig holds campaign routing. Static campaigns come from YAML;
// when Redis is enabled they are overlaid by the documents in RedisKey.
type CampaignsConfig struct {
	DefaultWhiteURL string            `env:"DEFAULT_WHITE_URL" yaml:"default_white_url"`
	DefaultBlackURL string            `env:"DEFAULT_BLACK_URL" yaml:"default_black_url"`
	RedisKey        string            `yaml:"redis_key"`
	RefreshInterval time.Duration     `yaml:"refresh_interval"`
	Static          []domain.Campaign `yaml:"static"`
}

// RateLimitConfig holds the per-client limit of the public click route.
type RateLimitConfig struct {
	Disabled    bool          `env:"RATE_LIMIT_DISABLED"     yaml:"disabled"`
	MaxRequests int           `env:"RATE_LIMIT_MAX_REQUESTS" yaml:"max_requests"`
	Window      time.Duration `yaml:"window"`
	// TrustedProxies lists CIDRs or IPs whose forwarding headers name the client.
	TrustedProxies []string `env:"RATE_LIMIT_TRUSTED_PROXIES" yaml:"trusted_proxies"`
}

// EventsConfig holds click event publishing to a Redis stream.
type EventsConfig struct {
	Enabled        bool          `env:"EVENTS_ENABLED" yaml:"enabled"`
	Stream         string        `yaml:"stream"`
	MaxLen         int64         `yaml:"max_len"`
	BufferSize     int           `yaml:"buffer_size"`
	FlushInterval  time.Duration `yaml:"flush_interval"`
	FlushThreshold int           `yaml:"flush_threshold"`
}

// Load loads configuration from the specified path.
func Load(path string) (*Config, error) {
	return infraconfig.LoadWithDefaults[Config](path, setDefaults)
}

// setDefaults applies default values to the config.
func setDefaults(cfg *Config) {
	setServiceDefaults(&cfg.Service)
	setAuthDefaults(&cfg.Auth)
	setCampaignDefaults(&cfg.Campaigns, cfg.Service.Port)
	setRateLimitDefaults(&cfg.RateLimit)
	setRedisDefaults(&cfg.Redis)
	setEventsDefaults(&cfg.Events)
	cfg.Logging.SetDefaults()
	cfg.Profiling.SetDefaults()
}

func setServiceDefaults(svc *ServiceConfig) {
	if svc.Name == "" {
		svc.Name = defaultServiceName
	}
	if svc.Version == "" {
		svc.Version = defaultVersion
	}
	if svc.Port == 0 {
		svc.Port = defaultServicePort
	}
}

func setAuthDefaults(a *AuthConfig) {
	if a.RequiredScope == "" {
		a.RequiredScope = auth.ScopeTrafficRead
	}
	if a.TokenExpiry == 0 {
		a.TokenExpiry = defaultTokenExpiry
	}
}

// setCampaignDefaults points the fallback destinations at the built-in
// landing pages of this process.
func setCampaignDefaults(c *CampaignsConfig, port int) {
	if c.DefaultWhiteURL == "" {
		c.DefaultWhiteURL = fmt.Sprintf("http://127.0.0.1:%d/mock-safe-page", port)
	}
	if c.DefaultBlackURL == "" {
		c.DefaultBlackURL = fmt.Sprintf("http://127.0.0.1:%d/mock-offer-page", port)
	}
	if c.RedisKey == "" {
		c.RedisKey = campaign.DefaultRedisKey
	}
	if c.RefreshInterval == 0 {
		c.RefreshInterval = defaultRefreshInterval
	}
}

func setRateLimitDefaults(rl *RateLimitConfig) {
	if rl.MaxRequests == 0 {
		rl.MaxRequests = defaultMaxRequests
	}
	if rl.Window == 0 {
		rl.Window = defaultWindow
	}
}

func setRedisDefaults(r *infraredis.Config) {
	if r.Address == "" {
		r.Address = defaultRedisAddress
	}
}

func setEventsDefaults(e *EventsConfig) {
	if e.Stream == "" {
		e.Stream = events.DefaultStream
	}
	if e.MaxLen == 0 {
		e.MaxLen = defaultEventsMaxLen
	}
	if e.BufferSize == 0 {
		e.BufferSize = defaultBufferSize
	}
	if e.FlushInterval == 0 {
		e.FlushInterval = defaultFlushInterval
	}
	if e.FlushThreshold == 0 {
		e.FlushThreshold = defaultFlushThreshold
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := infraconfig.ValidatePort("service.port", c.Service.Port); err != nil {
		return err
	}
	if err := infraconfig.ValidateRequired("auth.jwt_secret", c.Auth.JWTSecret); err != nil {
		return err
	}
	if err := infraconfig.ValidateLogLevel("logging.level", c.Logging.Level); err != nil {
		return err
	}
	if err := c.validateCampaigns(); err != nil {
		return err
	}
	if !c.RateLimit.Disabled && c.RateLimit.MaxRequests < 1 {
		return &infraconfig.ValidationError{Field: "rate_limit.max_requests", Message: "must be positive"}
	}
	if _, err := clientctx.ParsePrefixes(c.RateLimit.TrustedProxies); err != nil {
		return &infraconfig.ValidationError{Field: "rate_limit.trusted_proxies", Message: err.Error()}
	}
	if c.Events.Enabled && !c.Redis.Enabled {
		return &infraconfig.ValidationError{Field: "events.enabled", Message: "requires redis.enabled"}
	}
	return nil
}

func (c *Config) validateCampaigns() error {
	if err := validateURL("campaigns.default_white_url", c.Campaigns.DefaultWhiteURL); err != nil {
		return err
	}
	if err := validateURL("campaigns.default_black_url", c.Campaigns.DefaultBlackURL); err != nil {
		return err
	}

	seen := make(map[int]struct{}, len(c.Campaigns.Static))
	for i, cmp := range c.Campaigns.Static {
		field := fmt.Sprintf("campaigns.static[%d]", i)
		if cmp.ID < 1 {
			return &infraconfig.ValidationError{Field: field + ".id", Message: "must be positive"}
		}
		if _, dup := seen[cmp.ID]; dup {
			return &infraconfig.ValidationError{Field: field + ".id", Message: fmt.Sprintf("duplicate campaign %d", cmp.ID)}
		}
		seen[cmp.ID] = struct{}{}

		if cmp.WhiteURL != "" {
			if err := validateURL(field+".white_url", cmp.WhiteURL); err != nil {
				return err
			}
		}
		if cmp.BlackURL != "" {
			if err := validateURL(field+".black_url", cmp.BlackURL); err != nil {
				return err
			}
		}
	}
	return nil
}

func validateURL(field, raw string) error {
	if err := campaign.ValidateURL(raw); err != nil {
		return &infraconfig.ValidationError{Field: field, Message: err.Error()}
	}
	return nil
}
