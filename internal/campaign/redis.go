package campaign

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/jonesrussell/north-cloud/traffic-gate/internal/domain"
	"github.com/jonesrussell/north-cloud/traffic-gate/internal/infrastructure/logger"
	"github.com/redis/go-redis/v9"
)

// DefaultRedisKey is the hash holding campaign JSON documents keyed by campaign ID.
const DefaultRedisKey = "traffic-gate:campaigns"

// RefreshRecorder receives the outcome of each refresh.
type RefreshRecorder interface {
	RecordCampaignRefresh(success bool, loaded int)
}

// RedisLoader periodically copies campaigns from a Redis hash into a Cache.
// Requests never wait on Redis: they read whatever the last refresh installed.
type RedisLoader struct {
	client   redis.Cmdable
	key      string
	cache    *Cache
	interval time.Duration
	logger   logger.Logger
	metrics  RefreshRecorder
}

// NewRedisLoader creates a loader. metrics may be nil.
func NewRedisLoader(
	client redis.Cmdable,
	key string,
	cache *Cache,
	interval time.Duration,
	log logger.Logger,
	metrics RefreshRecorder,
) *RedisLoader {
	if key == "" {
		key = DefaultRedisKey
	}
	return &RedisLoader{
		client:   client,
		key:      key,
		cache:    cache,
		interval: interval,
		logger:   log,
		metrics:  metrics,
	}
}

// Load reads every campaign from the hash. Entries that fail to decode or
// carry a non-absolute destination URL are skipped and logged.
func (l *RedisLoader) Load(ctx context.Context) (map[int]domain.Campaign, error) {
	raw, err := l.client.HGetAll(ctx, l.key).Result()
	if err != nil {
		return nil, fmt.Errorf("read campaigns from %s: %w", l.key, err)
	}

	campaigns := make(map[int]domain.Campaign, len(raw))
	for field, doc := range raw {
		id, convErr := strconv.Atoi(field)
		if convErr != nil || id < 1 {
			l.logger.Warn("Skipping campaign with invalid id", logger.String("field", field))
			continue
		}

		var c domain.Campaign
		if jsonErr := json.Unmarshal([]byte(doc), &c); jsonErr != nil {
			l.logger.Warn("Skipping undecodable campaign",
				logger.Int("campaign_id", id),
				logger.Error(jsonErr),
			)
			continue
		}
		if urlErr := validateCampaign(c); urlErr != nil {
			l.logger.Warn("Skipping campaign with invalid destination",
				logger.Int("campaign_id", id),
				logger.Error(urlErr),
			)
			continue
		}
		c.ID = id
		campaigns[id] = c
	}

	return campaigns, nil
}

// Refresh loads campaigns and installs them in the cache. On error the cache
// keeps its previous contents.
func (l *RedisLoader) Refresh(ctx context.Context) error {
	campaigns, err := l.Load(ctx)
	if err != nil {
		l.record(false, 0)
		return err
	}

	l.cache.Replace(campaigns)
	l.record(true, l.cache.Len())
	l.logger.Debug("Campaign cache refreshed", logger.Int("campaigns", len(campaigns)))
	return nil
}

// Start refreshes once, then keeps refreshing every interval until ctx is done.
func (l *RedisLoader) Start(ctx context.Context) {
	if err := l.Refresh(ctx); err != nil {
		l.logger.Warn("Initial campaign refresh failed", logger.Error(err))
	}

	go func() {
		ticker := time.NewTicker(l.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := l.Refresh(ctx); err != nil {
					l.logger.Warn("Campaign refresh failed", logger.Error(err))
				}
			}
		}
	}()
}

func (l *RedisLoader) record(success bool, loaded int) {
	if l.metrics != nil {
		l.metrics.RecordCampaignRefresh(success, loaded)
	}
}
