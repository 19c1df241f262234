package pending

import (
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/ristretto"
)

// Request holds the request-only fields a response needs later on.
type Request struct {
	Query     string
	Statement string
	StoredAt  time.Time
}

// Store pairs request events with their responses. Entries are written once on the request and
// removed on the first Take; entries whose response never arrives expire after the TTL.
type Store interface {
	Put(flowID string, request Request) error
	Take(flowID string) (Request, bool)
}

type StoreImpl struct {
	cache *ristretto.Cache
	ttl   time.Duration
}

func NewStoreImpl(capacity int64, ttl time.Duration) (*StoreImpl, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("pending request capacity must be positive, got %d", capacity)
	}
	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters:        capacity * 10,
		MaxCost:            capacity,
		BufferItems:        64,
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, fmt.Errorf("error creating pending request cache: %w", err)
	}
	return &StoreImpl{cache: cache, ttl: ttl}, nil
}

func (s *StoreImpl) Put(flowID string, request Request) error {
	if flowID == "" {
		return ErrMissingFlowID
	}
	if !s.cache.SetWithTTL(flowID, request, 1, s.ttl) {
		return ErrSetRejected
	}
	// make the entry visible before the paired response can be looked up
	s.cache.Wait()
	return nil
}

func (s *StoreImpl) Take(flowID string) (Request, bool) {
	if flowID == "" {
		return Request{}, false
	}
	value, found := s.cache.Get(flowID)
	if !found {
		return Request{}, false
	}
	s.cache.Del(flowID)
	request, ok := value.(Request)
	if !ok {
		return Request{}, false
	}
	return request, true
}

func (s *StoreImpl) Close() {
	s.cache.Close()
}

var (
	ErrMissingFlowID = errors.New("transaction has no flow id to pair on")
	ErrSetRejected   = errors.New("pending request rejected by the cache")
)
