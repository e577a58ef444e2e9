package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	chicors "github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	assistantx "github.com/tanpawarit/Chative-Genie-Analytics/agent/assistant"
	auditx "github.com/tanpawarit/Chative-Genie-Analytics/agent/audit"
	transcriptx "github.com/tanpawarit/Chative-Genie-Analytics/agent/transcript"
)

type Asker interface {
	Ask(ctx context.Context, sessionID string, question string) assistantx.Reply
	History(ctx context.Context, sessionID string) ([]transcriptx.Turn, error)
	Clear(ctx context.Context, sessionID string) error
}

// AuditReader lists recently routed questions, newest first.
type AuditReader interface {
	Recent(ctx context.Context, limit int) ([]auditx.Entry, error)
}

type Options struct {
	AllowedOrigins []string

	// Audit enables GET /v1/audit when set.
	Audit AuditReader

	// RequestTimeout bounds each request; zero leaves requests unbounded.
	RequestTimeout time.Duration
}

func NewHandler(asker Asker, opts Options) http.Handler {
	h := &handler{asker: asker, audit: opts.Audit}

	r := chi.NewRouter()
	r.Use(chimw.RealIP)
	r.Use(chimw.RequestID)
	r.Use(requestLogger)
	r.Use(chimw.Recoverer)
	if origins := cleanOrigins(opts.AllowedOrigins); len(origins) > 0 {
		r.Use(chicors.Handler(chicors.Options{
			AllowedOrigins: origins,
			AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
			MaxAge:         300,
		}))
	}
	if opts.RequestTimeout > 0 {
		r.Use(chimw.Timeout(opts.RequestTimeout))
	}

	r.Get("/healthz", h.health)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Post("/ask", h.ask)
		r.Get("/sessions/{sessionID}", h.history)
		r.Delete("/sessions/{sessionID}", h.clear)
		if h.audit != nil {
			r.Get("/audit", h.recent)
		}
	})

	return r
}

func NewServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// Serve blocks until ctx is done, then shuts the server down.
func Serve(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("http listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return nil
	}
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger := log.Logger.With().
			Str("http_request_id", chimw.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Logger()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r.WithContext(logger.WithContext(r.Context())))

		var evt *zerolog.Event
		if ww.Status() >= http.StatusInternalServerError {
			evt = logger.Warn()
		} else {
			evt = logger.Debug()
		}
		evt.Int("status", ww.Status()).Dur("elapsed", time.Since(start)).Msg("http request")
	})
}

func cleanOrigins(in []string) []string {
	out := make([]string, 0, len(in))
	for _, o := range in {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}
