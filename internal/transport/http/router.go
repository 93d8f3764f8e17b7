package http

import (
	"context"
	"net/http"
	"time"

	httpmw "github.com/cwrk-planet/chat-service/internal/transport/http/middleware"

	"github.com/go-chi/chi/v5"
	middlewareChi "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

type Deps struct {
	Handler *Handler
	Auth    httpmw.Authenticator
	WS      http.HandlerFunc
	// Ready проверяет хранилище для /readyz; nil - всегда готов
	Ready          func(ctx context.Context) error
	AllowedOrigins []string
	RequestTimeout time.Duration
}

func NewRouter(d Deps) http.Handler {
	if d.RequestTimeout <= 0 {
		d.RequestTimeout = 30 * time.Second
	}
	if len(d.AllowedOrigins) == 0 {
		d.AllowedOrigins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(middlewareChi.RequestID)
	r.Use(middlewareChi.RealIP)
	r.Use(httpmw.WithRequestLogger)
	r.Use(httpmw.RequestLogger)
	r.Use(middlewareChi.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: d.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	// WS endpoint: авторизация на handshake, без Timeout
	if d.WS != nil {
		r.Get("/ws", d.WS)
	}

	r.Group(func(pr chi.Router) {
		pr.Use(middlewareChi.Timeout(d.RequestTimeout))

		pr.Route("/auth", func(ar chi.Router) {
			ar.Post("/register", d.Handler.Register)
			ar.Post("/login", d.Handler.Login)
		})

		// Все маршруты /messages требуют access token
		pr.Route("/messages", func(mr chi.Router) {
			mr.Use(httpmw.Auth(d.Auth))
			mr.Get("/", d.Handler.ListMessages)
			mr.Delete("/{id}", d.Handler.DeleteMessage)
		})
	})

	// health
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if d.Ready != nil {
			if err := d.Ready(r.Context()); err != nil {
				httpmw.Logger(r.Context()).Warn("readiness probe failed", "err", err)
				writeJSON(w, http.StatusServiceUnavailable, ErrorResponse{Error: "storage unavailable"})
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	return r
}
