package species

import (
	"context"
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"
)

const (
	defaultCacheSize = 128
	defaultCacheTTL  = 10 * time.Minute
)

// CacheRecorder counts cache lookups. *observability.Metrics satisfies it.
type CacheRecorder interface {
	RecordCacheLookup(cache string, hit bool)
}

// Service serves species reads with an LRU in front of Get. List always
// reads through, so its order reflects the store.
type Service struct {
	store    Store
	cache    *lru.LRU[string, *Species]
	recorder CacheRecorder
}

// ServiceOption configures a Service
type ServiceOption func(*Service)

// WithCacheRecorder reports cache hits and misses
func WithCacheRecorder(r CacheRecorder) ServiceOption {
	return func(s *Service) { s.recorder = r }
}

// NewService creates the species service. cacheSize <= 0 uses the default.
func NewService(store Store, cacheSize int, opts ...ServiceOption) *Service {
	if cacheSize <= 0 {
		cacheSize = defaultCacheSize
	}
	s := &Service{
		store: store,
		cache: lru.NewLRU[string, *Species](cacheSize, nil, defaultCacheTTL),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) List(ctx context.Context) ([]*Species, error) {
	return s.store.List(ctx)
}

// Get returns the species or ErrNotFound. Misses are not cached.
func (s *Service) Get(ctx context.Context, id string) (*Species, error) {
	if sp, ok := s.cache.Get(id); ok {
		s.record(true)
		copied := *sp
		return &copied, nil
	}
	s.record(false)

	sp, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	cached := *sp
	s.cache.Add(id, &cached)
	return sp, nil
}

func (s *Service) record(hit bool) {
	if s.recorder != nil {
		s.recorder.RecordCacheLookup("species", hit)
	}
}
