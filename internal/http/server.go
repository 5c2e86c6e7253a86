package http

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"phambili/internal/budget"
	"phambili/internal/cache"
	"phambili/internal/core"
	"phambili/internal/identity"
	applog "phambili/internal/log"
	"phambili/internal/services"
)

type Server struct {
	http.Server
	svc      *services.BudgetService
	provider identity.Provider
	registry *identity.Registry

	rateLimiter *rateLimiter
	metrics     *securityMetrics
	httpLog     *applog.StructuredLogger

	// Derived views are cached per user and invalidated on mutation.
	totalsCache *cache.LRUCache[core.Totals]
	adviceCache *cache.LRUCache[budget.Advice]
	caches      *cache.Manager

	shutdownOnce sync.Once
}

// NewServer configures routes and caches, returning a ready-to-run
// http.Server. registry may be nil when identity is fixed by configuration.
func NewServer(addr string, svc *services.BudgetService, provider identity.Provider, registry *identity.Registry) *Server {
	mux := http.NewServeMux()
	baseLog := applog.New(applog.DefaultConfig()).WithComponent(applog.ComponentHTTP)

	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: applog.Middleware(baseLog)(mux),
		},
		svc:         svc,
		provider:    provider,
		registry:    registry,
		rateLimiter: newRateLimiter(),
		metrics:     &securityMetrics{},
		httpLog:     applog.NewStructuredLogger(baseLog),
		totalsCache: cache.NewLRUCache[core.Totals](100, 1*time.Minute),
		adviceCache: cache.NewLRUCache[budget.Advice](100, 1*time.Minute),
		caches:      cache.NewManager(),
	}

	s.caches.Register(s.totalsCache)
	s.caches.Register(s.adviceCache)
	s.caches.StartCleanup(10 * time.Minute)

	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", handleReady)

	mux.HandleFunc("/api/income", s.withSecurityHeaders(s.handleSetIncome))
	mux.HandleFunc("/api/expenses", s.withSecurityHeaders(s.handleExpenses))
	mux.HandleFunc("/api/goals", s.withSecurityHeaders(s.handleGoals))
	mux.HandleFunc("/api/goals/contribute", s.withSecurityHeaders(s.handleContributeToGoal))
	mux.HandleFunc("/api/totals", s.withSecurityHeaders(s.handleTotals))
	mux.HandleFunc("/api/advice", s.withSecurityHeaders(s.handleAdvice))
	mux.HandleFunc("/api/save", s.withSecurityHeaders(s.handleSave))
	mux.HandleFunc("/api/load", s.withSecurityHeaders(s.handleLoad))
	mux.HandleFunc("/api/clear", s.withSecurityHeaders(s.handleClear))
	mux.HandleFunc("/api/import", s.withSecurityHeaders(s.handleImport))
	mux.HandleFunc("/api/export", s.withSecurityHeaders(s.handleExport))
	mux.HandleFunc("/api/template", s.withSecurityHeaders(s.handleTemplate))

	if registry != nil {
		mux.HandleFunc("/api/register", s.withSecurityHeaders(s.handleRegister))
		mux.HandleFunc("/api/login", s.withSecurityHeaders(s.handleLogin))
		mux.HandleFunc("/api/logout", s.withSecurityHeaders(s.handleLogout))
	}

	return s
}

// Shutdown gracefully shuts down the server and cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.caches.Stop()
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}

// withSecurityHeaders adds security headers, rate limiting, and request
// logging to responses.
func (s *Server) withSecurityHeaders(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		clientIP := extractClientIP(r)
		requestID := generateRequestID()

		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		r = r.WithContext(ctx)

		s.httpLog.LogHTTPStart(ctx, r, requestID, clientIP)

		if detectSuspiciousRequest(r, s.metrics) {
			slog.WarnContext(ctx, "Suspicious request pattern",
				"request_id", requestID, "client_ip", clientIP, "url", r.URL.Path)
		}

		// Rate limit mutating requests
		if r.Method != http.MethodGet && !s.rateLimiter.allow(clientIP, s.metrics) {
			slog.WarnContext(ctx, "Rate limit exceeded", "client_ip", clientIP, "method", r.Method, "url", r.URL.Path)
			w.Header().Set("Retry-After", "60")
			ErrorResponse(http.StatusTooManyRequests, "Rate limit exceeded. Please try again later.").Write(w)
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Content-Security-Policy", "default-src 'none'")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		s.httpLog.LogHTTPEnd(ctx, r, requestID, rw.statusCode, time.Since(start).Milliseconds(), clientIP)
	}
}

type contextKey string

const requestIDKey contextKey = "request_id"

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// generateRequestID creates a unique request ID for tracing.
func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

// cacheUser returns the cache key scope for the current request's user.
func (s *Server) cacheUser(ctx context.Context) (string, bool) {
	if s.provider == nil {
		return "", false
	}
	return s.provider.CurrentUserID(ctx)
}

func (s *Server) invalidateDerived(ctx context.Context) {
	if userID, ok := s.cacheUser(ctx); ok {
		s.totalsCache.Delete(userID)
		s.adviceCache.Delete(userID)
	}
}
