// Package web serves the read-only HTTP surface: the RSS/Atom feeds, the
// XSLT-style HTML view, search, and static assets.
package web

import (
	"context"
	"embed"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/kierank/feedor/ratelimit"
	"github.com/kierank/feedor/store"
)

//go:embed static/*
var staticFS embed.FS

const (
	httpRequestsPerSecond = 10
	httpRateLimiterBurst  = 20

	defaultPageLimit = 50
	feedTitle        = "feedor"
)

type Server struct {
	store       *store.DB
	addr        string
	logger      *log.Logger
	rateLimiter *ratelimit.Limiter
	metrics     *Metrics
	registry    *prometheus.Registry
}

func NewServer(st *store.DB, addr string, logger *log.Logger) *Server {
	reg := prometheus.NewRegistry()
	rl := ratelimit.New(httpRequestsPerSecond, httpRateLimiterBurst)
	return &Server{
		store:       st,
		addr:        addr,
		logger:      logger,
		rateLimiter: rl,
		metrics:     NewMetrics(reg, rl),
		registry:    reg,
	}
}

func (s *Server) ListenAndServe(ctx context.Context) error {
	mux := http.NewServeMux()

	mux.HandleFunc("/", s.handleRSS)
	mux.HandleFunc("/rss.xml", s.handleRSS)
	mux.HandleFunc("/atom.xml", s.handleAtom)
	mux.HandleFunc("/feed.html", s.handleFeedHTML)
	mux.HandleFunc("/search", s.handleSearch)
	mux.HandleFunc("/feed.css", s.handleStatic)
	mux.HandleFunc("/feed.xsl", s.handleStatic)
	mux.HandleFunc("/atom.xsl", s.handleStatic)
	mux.HandleFunc("/metrics", s.handleMetrics)
	mux.HandleFunc("/health", s.handleHealth)

	srv := &http.Server{
		Addr:    s.addr,
		Handler: s.loggingMiddleware(s.rateLimitMiddleware(mux)),
	}

	go func() {
		<-ctx.Done()
		srv.Shutdown(context.Background()) //nolint:errcheck
	}()

	s.logger.Info("web server listening", "addr", s.addr)
	err := srv.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

func (s *Server) rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			ip = r.RemoteAddr
		}

		if !s.rateLimiter.Allow(ip) {
			s.metrics.rateLimitHits.Inc()
			s.logger.Warn("rate limit exceeded", "ip", ip, "path", r.URL.Path)
			http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &loggingResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(lrw, r)

		duration := time.Since(start)
		route := r.URL.Path
		s.metrics.requestsTotal.WithLabelValues(route, statusClass(lrw.statusCode)).Inc()
		s.metrics.requestDuration.WithLabelValues(route).Observe(duration.Seconds())

		s.logger.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", lrw.statusCode,
			"duration_ms", duration.Milliseconds(),
			"remote_addr", r.RemoteAddr,
		)
	})
}

func statusClass(code int) string {
	switch {
	case code >= 500:
		return "5xx"
	case code >= 400:
		return "4xx"
	case code >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

func (s *Server) handleStatic(w http.ResponseWriter, r *http.Request) {
	http.ServeFileFS(w, r, staticFS, "static"+r.URL.Path)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.Write([]byte("ok")) //nolint:errcheck
}
