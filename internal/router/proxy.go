package router

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"fourinarow/pkg/wire"
)

// Proxy forwards each request to a live backend chosen per request and
// translates transport failures into the client-facing status codes:
// 503 no backend reachable, 502 backend connection failure, 504 backend
// timeout. Backend responses pass through byte-for-byte.
type Proxy struct {
	pool   *Pool
	client *http.Client
	log    *zap.Logger
}

// NewProxy wires a pool to a forwarding client. The forward timeout should
// be longer than the pool's probe timeout: probes only need to prove
// liveness, forwards do real work.
func NewProxy(pool *Pool, forwardTimeout time.Duration, log *zap.Logger) *Proxy {
	return &Proxy{
		pool:   pool,
		client: &http.Client{Timeout: forwardTimeout},
		log:    log,
	}
}

// Routes exposes the router surface: the diagnostic endpoints plus a
// catch-all that forwards every game path untouched.
func (p *Proxy) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(cors)
	r.Get("/", p.handleInfo)
	r.Get("/lb_health", p.handleHealth)
	r.NotFound(p.handleForward)
	r.MethodNotAllowed(p.handleForward)
	return r
}

func (p *Proxy) handleForward(w http.ResponseWriter, r *http.Request) {
	backend, err := p.pool.Next(r.Context())
	if err != nil {
		p.log.Warn("no backend available", zap.String("path", r.URL.Path))
		writeJSON(w, http.StatusServiceUnavailable, wire.ErrorResponse{Error: "No game server available"})
		return
	}

	req, err := http.NewRequestWithContext(r.Context(), r.Method, backend+r.URL.RequestURI(), r.Body)
	if err != nil {
		writeJSON(w, http.StatusBadGateway, wire.ErrorResponse{Error: "Game server unavailable"})
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		p.pool.setHealth(backend, false)
		if isTimeout(err) {
			p.log.Warn("backend timed out", zap.String("backend", backend))
			writeJSON(w, http.StatusGatewayTimeout, wire.ErrorResponse{Error: "Game server timed out"})
			return
		}
		p.log.Warn("backend unreachable", zap.String("backend", backend), zap.Error(err))
		writeJSON(w, http.StatusBadGateway, wire.ErrorResponse{Error: "Game server unavailable"})
		return
	}
	defer resp.Body.Close()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(resp.StatusCode)
	_, _ = io.Copy(w, resp.Body)
}

func (p *Proxy) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, p.pool.Health())
}

func (p *Proxy) handleInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"service":  "fourinarow router",
		"backends": len(p.pool.backends),
	})
}

func isTimeout(err error) bool {
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// cors mirrors the headers browser clients need; the game servers sit behind
// the router and never see cross-origin traffic themselves.
func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}
