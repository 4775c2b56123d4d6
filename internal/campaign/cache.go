// Package campaign resolves per-campaign destinations and filter sets.
package campaign

import (
	"errors"
	"maps"
	"sync"

	"github.com/jonesrussell/north-cloud/traffic-gate/internal/domain"
)

// ErrNotFound is returned when no campaign is configured for an ID.
var ErrNotFound = errors.New("campaign not found")

// Defaults are the destinations used for campaigns without their own URLs.
type Defaults struct {
	WhiteURL string
	BlackURL string
}

// Cache holds campaign configuration in memory. Statically configured
// campaigns are always present; dynamic campaigns loaded from Redis overlay
// them and are swapped wholesale on every refresh.
type Cache struct {
	mu       sync.RWMutex
	defaults Defaults
	static   map[int]domain.Campaign
	current  map[int]domain.Campaign
}

// NewCache returns a cache seeded with the static campaigns.
func NewCache(defaults Defaults, static []domain.Campaign) *Cache {
	s := make(map[int]domain.Campaign, len(static))
	for _, c := range static {
		s[c.ID] = c
	}
	return &Cache{
		defaults: defaults,
		static:   s,
		current:  maps.Clone(s),
	}
}

// Get returns the configured campaign for id.
func (c *Cache) Get(id int) (domain.Campaign, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	cmp, ok := c.current[id]
	if !ok {
		return domain.Campaign{}, ErrNotFound
	}
	return c.withDefaults(cmp), nil
}

// Lookup returns the campaign for id, or a campaign with the default URLs
// and an empty filter set when none is configured.
func (c *Cache) Lookup(id int) domain.Campaign {
	cmp, err := c.Get(id)
	if err != nil {
		return c.withDefaults(domain.Campaign{ID: id})
	}
	return cmp
}

// Replace installs a fresh set of dynamic campaigns over the static ones.
func (c *Cache) Replace(dynamic map[int]domain.Campaign) {
	next := maps.Clone(c.static)
	if next == nil {
		next = make(map[int]domain.Campaign, len(dynamic))
	}
	maps.Copy(next, dynamic)

	c.mu.Lock()
	c.current = next
	c.mu.Unlock()
}

// Len returns the number of configured campaigns.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.current)
}

func (c *Cache) withDefaults(cmp domain.Campaign) domain.Campaign {
	if cmp.WhiteURL == "" {
		cmp.WhiteURL = c.defaults.WhiteURL
	}
	if cmp.BlackURL == "" {
		cmp.BlackURL = c.defaults.BlackURL
	}
	return cmp
}
