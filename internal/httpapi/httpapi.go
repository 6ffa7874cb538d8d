package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/netip"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"brasa/backend/internal/domain"
	"brasa/backend/internal/logger"
	"brasa/backend/internal/metrics"
	"brasa/backend/internal/service"
	"brasa/backend/internal/store"
)

var errNotApplied = errors.New("not applied")

type Options struct {
	AllowedOrigin  string
	MetricsEnabled bool
	Logger         *zap.Logger
}

type API struct {
	service        *service.Service
	auth           *AuthManager
	allowedOrigin  string
	metricsEnabled bool
	logger         *zap.Logger
	loginLimiter   *clientLimiter
}

func New(svc *service.Service, auth *AuthManager, opts Options) *API {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &API{
		service:        svc,
		auth:           auth,
		allowedOrigin:  opts.AllowedOrigin,
		metricsEnabled: opts.MetricsEnabled,
		logger:         log,
		loginLimiter:   newClientLimiter(rate.Every(12*time.Second), 5),
	}
}

// clientLimiter keeps one token bucket per client address.
type clientLimiter struct {
	mu      sync.Mutex
	limit   rate.Limit
	burst   int
	clients map[string]*rate.Limiter
}

const maxTrackedClients = 4096

func newClientLimiter(limit rate.Limit, burst int) *clientLimiter {
	if burst < 1 {
		burst = 1
	}
	return &clientLimiter{limit: limit, burst: burst, clients: make(map[string]*rate.Limiter)}
}

func (l *clientLimiter) Allow(key string) bool {
	if l == nil {
		return true
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	limiter, ok := l.clients[key]
	if !ok {
		if len(l.clients) >= maxTrackedClients {
			l.clients = make(map[string]*rate.Limiter)
		}
		limiter = rate.NewLimiter(l.limit, l.burst)
		l.clients[key] = limiter
	}
	return limiter.Allow()
}

func clientKey(r *http.Request) string {
	host := strings.TrimSpace(r.RemoteAddr)
	if host == "" {
		return "unknown"
	}
	if addr, err := netip.ParseAddrPort(host); err == nil {
		return addr.Addr().String()
	}
	if idx := strings.LastIndex(host, ":"); idx > 0 {
		return host[:idx]
	}
	return host
}

func (a *API) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(a.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(a.securityHeaders)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, errors.New("route not found"))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeMethodNotAllowed(w)
	})

	r.Get("/healthz", a.handleHealth)
	if a.metricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/login", a.handleLogin)

		r.Group(func(r chi.Router) {
			r.Use(a.requireAuth)

			r.Get("/settings", a.handleGetSettings)
			r.Put("/settings", a.handleUpdateSettings)

			r.Route("/products", func(r chi.Router) {
				r.Get("/", a.handleListProducts)
				r.Post("/", a.handleCreateProduct)
				r.Put("/{id}", a.handleEditProduct)
				r.Delete("/{id}", a.handleRemoveProduct)
			})

			r.Route("/customers", func(r chi.Router) {
				r.Get("/", a.handleListCustomers)
				r.Post("/", a.handleAddCustomer)
				r.Put("/{id}", a.handleEditCustomer)
				r.Delete("/{id}", a.handleRemoveCustomer)
				r.Get("/{id}/sales", a.handleCustomerSalesCount)
			})

			r.Route("/day", func(r chi.Router) {
				r.Get("/", a.handleCurrentDay)
				r.Post("/open", a.handleOpenDay)
				r.Post("/close", a.handleCloseDay)
				r.Get("/stock/alerts", a.handleLowStock)
				r.Post("/stock/{productID}", a.handleAddStock)
				r.Post("/orders", a.handleAddOrderItem)
				r.Post("/orders/{id}/start", a.handleStartPreparation)
				r.Post("/orders/{id}/deliver", a.handleDeliverOrder)
				r.Get("/orders/{id}/cancellation", a.handlePreviewCancellation)
				r.Delete("/orders/{id}", a.handleCancelOrder)
				r.Get("/settlements", a.handlePendingSettlements)
				r.Post("/payments", a.handleSettlePayment)
			})

			r.Route("/summaries", func(r chi.Router) {
				r.Get("/", a.handleListSummaries)
				r.Delete("/", a.handleClearSummaries)
				r.Get("/{id}", a.handleGetSummary)
				r.Delete("/{id}", a.handleDeleteSummary)
				r.Get("/{id}/export", a.handleExportSummary)
			})

			r.Post("/reset", a.handleReset)
		})
	})

	return r
}

func (a *API) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authorization := strings.TrimSpace(r.Header.Get("Authorization"))
		if !strings.HasPrefix(strings.ToLower(authorization), "bearer ") {
			writeError(w, http.StatusUnauthorized, errors.New("missing bearer token"))
			return
		}

		token := strings.TrimSpace(authorization[len("Bearer "):])
		actor, err := a.auth.ParseToken(token)
		if err != nil {
			writeError(w, http.StatusUnauthorized, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(service.WithActor(r.Context(), actor)))
	})
}

// securityHeaders also answers CORS preflight and caps JSON bodies at 1 MiB.
func (a *API) securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		w.Header().Set("Cross-Origin-Opener-Policy", "same-origin")
		w.Header().Set("Access-Control-Allow-Origin", a.allowedOrigin)
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
		w.Header().Set("Vary", "Origin")

		if r.Method == http.MethodPost || r.Method == http.MethodPut || r.Method == http.MethodPatch {
			r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (a *API) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		startedAt := time.Now()
		reqLog := a.logger.With(zap.String("request_id", middleware.GetReqID(r.Context())))
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r.WithContext(logger.WithContext(r.Context(), reqLog)))

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		elapsed := time.Since(startedAt)
		metrics.HTTPRequestDuration.WithLabelValues(r.Method, route, fmt.Sprintf("%dxx", status/100)).Observe(elapsed.Seconds())
		reqLog.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", status),
			zap.Duration("duration", elapsed),
		)
	})
}

func (a *API) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"ok": true,
		"at": time.Now().UTC().Format(time.RFC3339),
	})
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	if !a.loginLimiter.Allow(clientKey(r)) {
		writeError(w, http.StatusTooManyRequests, errors.New("too many login attempts"))
		return
	}

	var req domain.LoginRequest
	if !bind(w, r, &req) {
		return
	}

	resp, err := a.auth.Login(req)
	if err != nil {
		logger.FromContext(r.Context()).Info("login refused", zap.String("client", clientKey(r)))
		writeError(w, http.StatusUnauthorized, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func decodeJSON(r *http.Request, dest any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dest); err != nil {
		return err
	}
	return nil
}

// writeServiceError maps service and store errors to status codes.
func writeServiceError(w http.ResponseWriter, err error) {
	var unpaid *service.UnpaidOrdersError
	switch {
	case errors.As(err, &unpaid):
		writeJSON(w, http.StatusConflict, map[string]any{
			"error":         unpaid.Error(),
			"unpaid_orders": unpaid.Orders,
		})
	case errors.Is(err, service.ErrCustomerHasSales):
		writeError(w, http.StatusConflict, err)
	case errors.Is(err, store.ErrInvalidInput):
		writeError(w, http.StatusUnprocessableEntity, err)
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, err)
	case errors.Is(err, store.ErrPersistence):
		writeError(w, http.StatusServiceUnavailable, err)
	default:
		writeError(w, http.StatusInternalServerError, err)
	}
}

func writeNotApplied(w http.ResponseWriter) {
	writeError(w, http.StatusConflict, errNotApplied)
}

func writeMethodNotAllowed(w http.ResponseWriter) {
	writeError(w, http.StatusMethodNotAllowed, errors.New("method not allowed"))
}

// writeError hides the message of 5xx responses. The service has already
// logged the underlying failure.
func writeError(w http.ResponseWriter, status int, err error) {
	msg := err.Error()
	if status >= 500 {
		msg = "internal server error"
		if status == http.StatusServiceUnavailable {
			msg = "storage unavailable, try again"
		}
	}
	writeJSON(w, status, map[string]any{
		"error": msg,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
