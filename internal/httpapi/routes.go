package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"fourinarow/internal/service"
)

// SetupRoutes builds the game server's HTTP surface with the service
// injected.
func SetupRoutes(svc *service.Service, log *zap.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(requestLogger(log))

	r.Post("/create_room", CreateRoom(svc))
	r.Post("/join_room", JoinRoom(svc))
	r.Post("/quick_join", QuickJoin(svc))
	r.Post("/set_ready", SetReady(svc))
	r.Post("/make_move", MakeMove(svc))
	r.Get("/lobby_status", LobbyStatus(svc))
	r.Get("/game_state", GameState(svc))
	r.Get("/healthz", Healthz(svc))
	return r
}

func requestLogger(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			log.Info("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("took", time.Since(start)))
		})
	}
}
