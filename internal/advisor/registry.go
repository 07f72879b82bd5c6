package advisor

import (
	"context"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"tradepilot/internal/exchange"
	"tradepilot/internal/logger"
	"tradepilot/internal/market"
)

// Registry owns the configured backends and the single active one. The
// active reference is swapped atomically so every decision loop picks up a
// switch on its next GetSignal call without locking.
type Registry struct {
	mu       sync.RWMutex
	backends map[string]Backend

	active atomic.Pointer[activeRef]
}

type activeRef struct {
	name    string
	backend Backend
}

func NewRegistry() *Registry {
	return &Registry{backends: make(map[string]Backend)}
}

// Register adds a backend under its name. The first registered backend
// becomes active.
func (r *Registry) Register(name string, b Backend) {
	name = strings.TrimSpace(name)
	if name == "" || b == nil {
		return
	}
	r.mu.Lock()
	r.backends[name] = b
	r.mu.Unlock()
	if r.active.Load() == nil {
		r.active.Store(&activeRef{name: name, backend: b})
		logger.Infof("advisor: %s registered and set active", name)
		return
	}
	logger.Infof("advisor: %s registered", name)
}

// SetActive switches the active backend. Returns false and leaves the
// active reference untouched when the name is unknown.
func (r *Registry) SetActive(name string) bool {
	name = strings.TrimSpace(name)
	r.mu.RLock()
	b, ok := r.backends[name]
	r.mu.RUnlock()
	if !ok {
		logger.Warnf("advisor: unknown backend %q, active unchanged", name)
		return false
	}
	r.active.Store(&activeRef{name: name, backend: b})
	logger.Infof("advisor: switched active backend to %s", name)
	return true
}

// ActiveName returns the active backend's name, or "" when none is set.
func (r *Registry) ActiveName() string {
	if ref := r.active.Load(); ref != nil {
		return ref.name
	}
	return ""
}

// Names lists the registered backends, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.backends))
	for name := range r.backends {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// GetSignal asks the active backend for a recommendation and normalizes the
// reply. It always returns a usable Signal: with no backend the default
// signal, on any backend failure the fallback signal. Raw errors stop here.
func (r *Registry) GetSignal(ctx context.Context, mkt market.Context, portfolio exchange.PortfolioSnapshot) Signal {
	ref := r.active.Load()
	if ref == nil {
		return DefaultSignal()
	}
	raw, err := ref.backend.ProduceSignal(ctx, mkt, portfolio)
	if err != nil {
		logger.Errorf("advisor: %s failed for %s: %v", ref.name, mkt.Symbol, err)
		return FallbackSignal(ref.name)
	}
	sig := ParseReply(raw)
	if sig.Source == "" {
		sig.Source = ref.name
	}
	return sig
}
