// Package router implements the front door: a health-aware round-robin
// proxy over interchangeable game server backends.
package router

import (
	"context"
	"errors"
	"io"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
)

var ErrNoBackend = errors.New("no game server available")

// Pool owns the rotating candidate list shared by every in-flight request:
// a fixed backend list, a cursor, and each backend's last-known health.
// The cursor and health map are only touched under mu; probes run outside
// the critical section so slow backends never serialize traffic.
type Pool struct {
	backends []string
	probes   *http.Client
	log      *zap.Logger

	mu      sync.Mutex
	cursor  int
	healthy map[string]bool
}

func NewPool(backends []string, probeTimeout time.Duration, log *zap.Logger) *Pool {
	p := &Pool{
		backends: backends,
		probes:   &http.Client{Timeout: probeTimeout},
		log:      log,
		healthy:  make(map[string]bool, len(backends)),
	}
	// Optimistic until a probe says otherwise.
	for _, b := range backends {
		p.healthy[b] = true
	}
	return p
}

// advance returns the backend under the cursor plus its last-known health,
// and moves the cursor on so the next caller starts one further along.
func (p *Pool) advance() (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	b := p.backends[p.cursor]
	p.cursor = (p.cursor + 1) % len(p.backends)
	return b, p.healthy[b]
}

func (p *Pool) setHealth(backend string, ok bool) {
	p.mu.Lock()
	p.healthy[backend] = ok
	p.mu.Unlock()
}

// Health reports the last-known health of every backend.
func (p *Pool) Health() map[string]bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	m := make(map[string]bool, len(p.healthy))
	for b, ok := range p.healthy {
		m[b] = ok
	}
	return m
}

// Next picks a live backend in round-robin order. The first pass over the
// list skips backends last seen dead without spending a probe on them; the
// second pass probes everything so a recovered backend is still found when
// no sweep is running. At most 2xN candidates are tried before ErrNoBackend.
func (p *Pool) Next(ctx context.Context) (string, error) {
	n := len(p.backends)
	if n == 0 {
		return "", ErrNoBackend
	}
	for i := 0; i < 2*n; i++ {
		backend, wasHealthy := p.advance()
		if i < n && !wasHealthy {
			continue
		}
		if p.Probe(ctx, backend) {
			return backend, nil
		}
	}
	return "", ErrNoBackend
}

// Probe checks whether backend can currently serve traffic and records the
// verdict in the health map.
func (p *Pool) Probe(ctx context.Context, backend string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, backend+"/healthz", nil)
	if err != nil {
		return false
	}
	resp, err := p.probes.Do(req)
	ok := err == nil && resp.StatusCode < http.StatusInternalServerError
	if resp != nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}
	p.setHealth(backend, ok)
	if !ok {
		p.log.Debug("probe failed", zap.String("backend", backend), zap.Error(err))
	}
	return ok
}

// Sweep re-probes every backend on a fixed interval until ctx is cancelled,
// keeping the health map fresh so Next can skip dead candidates cheaply.
func (p *Pool) Sweep(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, b := range p.backends {
				p.Probe(ctx, b)
			}
		}
	}
}
