package scope

import (
	"errors"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

// Limits bound the memory a long running registry may use. Zero means unbounded.
type Limits struct {
	MaxResourceScopes int
	MaxDeviceScopes   int
	MaxDetailLabels   int
	MaxSamples        int
	MaxDatasetPoints  int
}

// Registry creates scopes lazily and hands out the same instance for the same identity for as long
// as the registry lives. Scopes are never deleted.
type Registry struct {
	scopes         sync.Map // ID -> *Scope
	createMu       sync.Mutex
	resourceScopes atomic.Int64
	deviceScopes   atomic.Int64
	limits         Limits
	logger         *zap.Logger
}

func NewRegistry(limits Limits, logger *zap.Logger) *Registry {
	return &Registry{
		limits: limits,
		logger: logger,
	}
}

// GetOrCreate returns the scope for (kind, key), creating it on first reference.
// Per-resource scopes beyond MaxResourceScopes and device scopes beyond MaxDeviceScopes are
// refused with ErrScopeLimit.
func (r *Registry) GetOrCreate(kind Kind, key string) (*Scope, error) {
	if key == "" {
		return nil, ErrEmptyScopeKey
	}
	id := ID{Kind: kind, Key: key}
	if existing, ok := r.scopes.Load(id); ok {
		return existing.(*Scope), nil
	}
	limit, created := r.capFor(kind)
	if limit <= 0 {
		actual, loaded := r.scopes.LoadOrStore(id, newScope(id, r.limits))
		if !loaded {
			r.logger.Debug("Created scope", zap.String("scope", id.String()))
		}
		return actual.(*Scope), nil
	}

	// capped creation is serialized so the count never overshoots; lookups stay lock free
	r.createMu.Lock()
	defer r.createMu.Unlock()
	if existing, ok := r.scopes.Load(id); ok {
		return existing.(*Scope), nil
	}
	if created.Load() >= int64(limit) {
		r.logger.Debug("Refusing new scope", zap.String("scope", id.String()))
		return nil, ErrScopeLimit
	}
	s := newScope(id, r.limits)
	r.scopes.Store(id, s)
	created.Add(1)
	r.logger.Debug("Created scope", zap.String("scope", id.String()))
	return s, nil
}

func (r *Registry) capFor(kind Kind) (int, *atomic.Int64) {
	switch kind {
	case ResourceApplication:
		return r.limits.MaxResourceScopes, &r.resourceScopes
	case Device:
		return r.limits.MaxDeviceScopes, &r.deviceScopes
	default:
		return 0, nil
	}
}

// Lookup returns an existing scope without creating it.
func (r *Registry) Lookup(kind Kind, key string) (*Scope, bool) {
	existing, ok := r.scopes.Load(ID{Kind: kind, Key: key})
	if !ok {
		return nil, false
	}
	return existing.(*Scope), true
}

func (r *Registry) Len() int {
	n := 0
	r.scopes.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

var (
	ErrScopeLimit    = errors.New("scope limit reached")
	ErrEmptyScopeKey = errors.New("scope key must not be empty")
)
