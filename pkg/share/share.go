package share

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"mercator-hq/saturn/pkg/telemetry/metrics"
	"mercator-hq/saturn/pkg/ttlcache"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned for unknown or expired shares.
	ErrNotFound = errors.New("share not found")

	// ErrInvalidPassword is returned when a protected share is read with
	// a missing or wrong password.
	ErrInvalidPassword = errors.New("invalid share password")

	// ErrViewLimitExceeded is returned once a share has used its view quota.
	ErrViewLimitExceeded = errors.New("share view limit exceeded")

	// ErrInvalidExpiration is returned for expirations above the maximum.
	ErrInvalidExpiration = errors.New("invalid share expiration")
)

// Options controls access to a share.
type Options struct {
	// ExpirationHours is the lifetime of the share. Zero or less selects
	// the cache default.
	ExpirationHours float64 `json:"expirationHours"`

	// MaxViews caps successful reads when set.
	MaxViews *int `json:"maxViews,omitempty"`

	// IncludeData selects a detailed rather than summary-only snapshot.
	IncludeData bool `json:"includeData"`

	// Password gates reads when non-empty. It is never returned by the cache.
	Password string `json:"password,omitempty"`
}

// Record is a stored share.
type Record struct {
	ID                string          `json:"id"`
	Snapshot          json.RawMessage `json:"snapshot"`
	Options           Options         `json:"options"`
	PasswordProtected bool            `json:"passwordProtected"`
	CreatedAt         time.Time       `json:"createdAt"`
	ExpiresAt         time.Time       `json:"expiresAt"`
	ViewCount         int             `json:"viewCount"`
}

// Statistics is the read-only projection of a share.
type Statistics struct {
	ViewCount int       `json:"viewCount"`
	MaxViews  *int      `json:"maxViews,omitempty"`
	ExpiresAt time.Time `json:"expiresAt"`
	CreatedAt time.Time `json:"createdAt"`
}

// Stats summarizes the cache contents.
type Stats struct {
	Active int `json:"active"`
	Total  int `json:"total"`
}

// Config configures a Cache.
type Config struct {
	// DefaultExpirationHours applies when a share omits its expiration.
	// Default: 24
	DefaultExpirationHours float64

	// MaxExpirationHours caps requested expirations. Zero means no cap.
	MaxExpirationHours float64

	Logger  *slog.Logger
	Metrics *metrics.Collector

	// Now overrides the clock. Intended for tests.
	Now func() time.Time
}

// Cache holds share records. It is safe for concurrent use.
type Cache struct {
	store      *ttlcache.Cache[*Record]
	defaultTTL float64
	maxTTL     float64
	now        func() time.Time
	newID      func() string
	logger     *slog.Logger
	metrics    *metrics.Collector

	// mu serializes reads that update view counts.
	mu sync.Mutex
}

// NewCache creates an empty share cache.
func NewCache(cfg Config) *Cache {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	defaultTTL := cfg.DefaultExpirationHours
	if defaultTTL <= 0 {
		defaultTTL = 24
	}

	return &Cache{
		store:      ttlcache.New[*Record](ttlcache.WithClock(now)),
		defaultTTL: defaultTTL,
		maxTTL:     cfg.MaxExpirationHours,
		now:        now,
		newID:      uuid.NewString,
		logger:     logger.With("component", "share"),
		metrics:    cfg.Metrics,
	}
}

// CreateShareableLink stores snapshot under a new token.
func (c *Cache) CreateShareableLink(snapshot json.RawMessage, opts Options) (*Record, error) {
	if opts.ExpirationHours <= 0 {
		opts.ExpirationHours = c.defaultTTL
	}
	if c.maxTTL > 0 && opts.ExpirationHours > c.maxTTL {
		return nil, fmt.Errorf("%w: %g hours exceeds maximum of %g", ErrInvalidExpiration, opts.ExpirationHours, c.maxTTL)
	}
	if opts.MaxViews != nil && *opts.MaxViews < 0 {
		return nil, fmt.Errorf("maxViews must be non-negative, got %d", *opts.MaxViews)
	}

	now := c.now().UTC()
	lifetime := time.Duration(opts.ExpirationHours * float64(time.Hour))

	rec := &Record{
		ID:                c.newID(),
		Snapshot:          append(json.RawMessage(nil), snapshot...),
		Options:           opts,
		PasswordProtected: opts.Password != "",
		CreatedAt:         now,
		ExpiresAt:         now.Add(lifetime),
	}
	if opts.MaxViews != nil {
		maxViews := *opts.MaxViews
		rec.Options.MaxViews = &maxViews
	}

	pub := rec.public()
	c.store.Set(rec.ID, rec, rec.ExpiresAt.Sub(now))
	c.metrics.UpdateActiveShares(c.activeCount())

	c.logger.Info("share created",
		"share_id", rec.ID,
		"expires_at", rec.ExpiresAt,
		"password_protected", rec.PasswordProtected,
		"include_data", opts.IncludeData,
	)
	return pub, nil
}

// GetSharedData returns the share and counts the read as a view.
func (c *Cache) GetSharedData(id, password string) (*Record, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	rec, ok := c.store.Get(id)
	if ok && !c.now().Before(rec.ExpiresAt) {
		c.store.Delete(id)
		c.metrics.UpdateActiveShares(c.activeCount())
		ok = false
	}
	if !ok {
		c.metrics.RecordShareRead("not_found")
		return nil, ErrNotFound
	}

	if rec.PasswordProtected && subtle.ConstantTimeCompare([]byte(rec.Options.Password), []byte(password)) != 1 {
		c.metrics.RecordShareRead("invalid_password")
		c.logger.Warn("share password rejected", "share_id", id)
		return nil, ErrInvalidPassword
	}

	if rec.Options.MaxViews != nil && rec.ViewCount >= *rec.Options.MaxViews {
		c.metrics.RecordShareRead("view_limit")
		return nil, ErrViewLimitExceeded
	}

	rec.ViewCount++
	c.metrics.RecordShareRead("ok")
	c.logger.Debug("share viewed", "share_id", id, "view_count", rec.ViewCount)

	return rec.public(), nil
}

// GetShareStatistics returns view and expiry information without counting a
// view or evicting.
func (c *Cache) GetShareStatistics(id string) (*Statistics, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	rec, ok := c.store.Peek(id)
	if !ok {
		return nil, ErrNotFound
	}

	pub := rec.public()
	return &Statistics{
		ViewCount: pub.ViewCount,
		MaxViews:  pub.Options.MaxViews,
		ExpiresAt: pub.ExpiresAt,
		CreatedAt: pub.CreatedAt,
	}, nil
}

// CleanupExpiredShares evicts every expired share and returns the count.
func (c *Cache) CleanupExpiredShares() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for _, id := range c.store.Keys() {
		rec, ok := c.store.Peek(id)
		if ok && !now.Before(rec.ExpiresAt) && c.store.Delete(id) {
			removed++
		}
	}
	removed += c.store.Sweep()

	c.metrics.RecordCacheEvictions("shares", removed)
	c.metrics.UpdateActiveShares(c.activeCount())
	if removed > 0 {
		c.logger.Info("expired shares removed", "count", removed)
	}
	return removed
}

// GetAllActiveShares returns the unexpired shares, newest first.
func (c *Cache) GetAllActiveShares() []*Record {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	out := []*Record{}
	for _, id := range c.store.Keys() {
		if rec, ok := c.store.Peek(id); ok && now.Before(rec.ExpiresAt) {
			out = append(out, rec.public())
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// Stats returns the number of active and stored shares.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	return Stats{Active: c.activeCount(), Total: c.store.Len()}
}

// activeCount counts unexpired records.
func (c *Cache) activeCount() int {
	now := c.now()
	n := 0
	for _, id := range c.store.Keys() {
		if rec, ok := c.store.Peek(id); ok && now.Before(rec.ExpiresAt) {
			n++
		}
	}
	return n
}

// public returns a copy of r without the password.
func (r *Record) public() *Record {
	out := *r
	out.Options.Password = ""
	out.Snapshot = append(json.RawMessage(nil), r.Snapshot...)
	if r.Options.MaxViews != nil {
		maxViews := *r.Options.MaxViews
		out.Options.MaxViews = &maxViews
	}
	return &out
}
