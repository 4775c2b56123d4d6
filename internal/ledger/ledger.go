// Package ledger is the in-process, append-only store of click records.
package ledger

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/jonesrussell/north-cloud/traffic-gate/internal/domain"
)

var (
	// ErrNotFound is returned by Get for an unknown record ID.
	ErrNotFound = errors.New("click record not found")
	// ErrDuplicateID is returned by Append when the record ID already exists.
	ErrDuplicateID = errors.New("duplicate click record id")
)

// Filter selects records by exact match. Nil fields match everything.
type Filter struct {
	CampaignID *int
	Sub1       *string
	Sub2       *string
	IsValid    *int
}

func (f Filter) matches(r *domain.ClickRecord) bool {
	if f.CampaignID != nil && r.CampaignID != *f.CampaignID {
		return false
	}
	if f.Sub1 != nil && r.Sub1 != *f.Sub1 {
		return false
	}
	if f.Sub2 != nil && r.Sub2 != *f.Sub2 {
		return false
	}
	if f.IsValid != nil && r.IsValid != *f.IsValid {
		return false
	}
	return true
}

// Page is one slice of a filtered, sorted listing. Total counts the filtered
// set before pagination.
type Page struct {
	Clicks []domain.ClickRecord `json:"clicks"`
	Total  int                  `json:"total"`
	Limit  int                  `json:"limit"`
	Offset int                  `json:"offset"`
}

// Ledger holds click records in insertion order. It is safe for concurrent use.
type Ledger struct {
	mu      sync.RWMutex
	records []domain.ClickRecord
	byID    map[string]int
}

// New returns an empty ledger.
func New() *Ledger {
	return &Ledger{byID: make(map[string]int)}
}

// Append stores r. Records are never modified after they are appended.
func (l *Ledger) Append(r domain.ClickRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, exists := l.byID[r.ID]; exists {
		return fmt.Errorf("append %s: %w", r.ID, ErrDuplicateID)
	}

	l.byID[r.ID] = len(l.records)
	l.records = append(l.records, r)
	return nil
}

// Get returns the record with the given ID.
func (l *Ledger) Get(id string) (domain.ClickRecord, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	idx, ok := l.byID[id]
	if !ok {
		return domain.ClickRecord{}, ErrNotFound
	}
	return l.records[idx], nil
}

// Len returns the number of stored records.
func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.records)
}

// List filters, sorts by timestamp descending (insertion order on ties) and
// paginates. The listing reflects the ledger as of the call; appends made
// while it runs are not included.
func (l *Ledger) List(f Filter, limit, offset int) Page {
	l.mu.RLock()
	snapshot := l.records[:len(l.records):len(l.records)]
	l.mu.RUnlock()

	matched := make([]domain.ClickRecord, 0, len(snapshot))
	for i := range snapshot {
		if f.matches(&snapshot[i]) {
			matched = append(matched, snapshot[i])
		}
	}

	slices.SortStableFunc(matched, func(a, b domain.ClickRecord) int {
		switch {
		case a.Timestamp > b.Timestamp:
			return -1
		case a.Timestamp < b.Timestamp:
			return 1
		default:
			return 0
		}
	})

	page := Page{Total: len(matched), Limit: limit, Offset: offset}
	start := min(max(offset, 0), len(matched))
	end := min(start+max(limit, 0), len(matched))
	page.Clicks = matched[start:end]

	return page
}
