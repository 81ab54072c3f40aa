package mem

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"
)

type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailure Outcome = "failure"
)

type VerificationEntry struct {
	Reference  string          `json:"reference"`
	Outcome    Outcome         `json:"outcome"`
	Payload    json.RawMessage `json:"payload,omitempty"`
	RecordedAt time.Time       `json:"recorded_at"`
}

// VerificationStore memoizes gateway verification outcomes by payment reference.
type VerificationStore interface {
	Get(ctx context.Context, reference string) (*VerificationEntry, bool)
	Put(ctx context.Context, reference string, outcome Outcome, payload json.RawMessage) error
	// Sweep drops expired entries and returns how many were removed.
	Sweep() int
}

type CacheConfig struct {
	TTL           time.Duration
	Capacity      int
	SweepInterval time.Duration
}

func DefaultCacheConfig() CacheConfig {
	return CacheConfig{
		TTL:           5 * time.Minute,
		Capacity:      1000,
		SweepInterval: 5 * time.Minute,
	}
}

type VerificationCache struct {
	mu    sync.RWMutex
	data  map[string]VerificationEntry
	cfg   CacheConfig
	clock func() time.Time
}

func NewVerificationCache(cfg CacheConfig, clock func() time.Time) *VerificationCache {
	def := DefaultCacheConfig()
	if cfg.TTL <= 0 {
		cfg.TTL = def.TTL
	}
	if cfg.Capacity <= 0 {
		cfg.Capacity = def.Capacity
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = def.SweepInterval
	}
	if clock == nil {
		clock = time.Now
	}
	return &VerificationCache{
		data:  make(map[string]VerificationEntry),
		cfg:   cfg,
		clock: clock,
	}
}

// Get never evicts. Expired entries stay until the next sweep.
func (s *VerificationCache) Get(_ context.Context, reference string) (*VerificationEntry, bool) {
	s.mu.RLock()
	e, ok := s.data[reference]
	s.mu.RUnlock()

	if !ok || s.expired(e, s.clock()) {
		return nil, false
	}
	return &e, true
}

func (s *VerificationCache) Put(_ context.Context, reference string, outcome Outcome, payload json.RawMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[reference] = VerificationEntry{
		Reference:  reference,
		Outcome:    outcome,
		Payload:    payload,
		RecordedAt: s.clock(),
	}
	return nil
}

func (s *VerificationCache) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

func (s *VerificationCache) expired(e VerificationEntry, now time.Time) bool {
	return now.Sub(e.RecordedAt) >= s.cfg.TTL
}

type victim struct {
	reference  string
	recordedAt time.Time
}

// Sweep removes expired entries. If the cache is still over capacity it then
// removes the oldest fifth of capacity by recording time.
func (s *VerificationCache) Sweep() int {
	now := s.clock()

	s.mu.RLock()
	var expired []victim
	live := make([]victim, 0, len(s.data))
	for ref, e := range s.data {
		v := victim{reference: ref, recordedAt: e.RecordedAt}
		if s.expired(e, now) {
			expired = append(expired, v)
		} else {
			live = append(live, v)
		}
	}
	s.mu.RUnlock()

	victims := expired
	if len(live) > s.cfg.Capacity {
		sort.Slice(live, func(i, j int) bool { return live[i].recordedAt.Before(live[j].recordedAt) })
		n := s.cfg.Capacity / 5
		if n < 1 {
			n = 1
		}
		if n > len(live) {
			n = len(live)
		}
		victims = append(victims, live[:n]...)
	}
	if len(victims) == 0 {
		return 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for _, v := range victims {
		// skip entries rewritten since the scan
		if cur, ok := s.data[v.reference]; ok && cur.RecordedAt.Equal(v.recordedAt) {
			delete(s.data, v.reference)
			removed++
		}
	}
	return removed
}

// Run sweeps the cache on every SweepInterval tick until ctx is done.
func Run(ctx context.Context, store VerificationStore, interval time.Duration, onSweep func(removed int)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed := store.Sweep()
			if onSweep != nil {
				onSweep(removed)
			}
		}
	}
}

func (s *VerificationCache) SweepInterval() time.Duration {
	return s.cfg.SweepInterval
}
