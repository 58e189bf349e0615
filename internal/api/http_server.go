package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"invenbook/internal/config"
	"invenbook/internal/domain"
	"invenbook/internal/metrics"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// HTTPServer is the RPC façade. It maps (service, method) pairs onto the
// three domain services, translates domain errors into the transport
// taxonomy and does request logging. No business logic lives here.
type HTTPServer struct {
	cfg      config.ServerConfig
	bookings domain.BookingService
	audit    domain.AuditService
	notifs   domain.NotificationService
	server   *http.Server
	auth     *HTTPAuth
	log      zerolog.Logger
}

func NewHTTPServer(
	cfg config.ServerConfig,
	bookings domain.BookingService,
	audit domain.AuditService,
	notifs domain.NotificationService,
	logger *zerolog.Logger,
) *HTTPServer {
	srv := &HTTPServer{
		cfg:      cfg,
		bookings: bookings,
		audit:    audit,
		notifs:   notifs,
		auth:     NewHTTPAuth(cfg),
	}
	if logger != nil {
		srv.log = logger.With().Str("component", "api").Logger()
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/rpc/", srv.handleRPC)
	mux.HandleFunc("/healthz", srv.handleHealth)

	handler := srv.loggingMiddleware(srv.auth.Wrap(mux))

	srv.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
	}

	return srv
}

func (s *HTTPServer) Start() error {
	if s.server == nil {
		return fmt.Errorf("http server is not initialized")
	}
	s.log.Info().Str("addr", s.server.Addr).Msg("RPC API listening")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// handleRPC resolves /rpc/{Service}/{Method} and dispatches.
func (s *HTTPServer) handleRPC(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, domain.CodeInvalidArgument, "method not allowed; use POST")
		return
	}

	parts := strings.Split(strings.TrimPrefix(r.URL.Path, "/rpc/"), "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		writeError(w, domain.CodeNotFound, "unknown rpc path")
		return
	}
	serviceName, methodName := parts[0], parts[1]

	handler := s.lookup(serviceName, methodName)
	if handler == nil {
		writeError(w, domain.CodeNotFound, fmt.Sprintf("unknown method %s/%s", serviceName, methodName))
		return
	}

	payload, err := handler(r)
	if err != nil {
		metrics.IncRPC(serviceName, methodName, string(domain.CodeOf(err)))
		s.log.Warn().
			Str("service", serviceName).
			Str("method", methodName).
			Str("code", string(domain.CodeOf(err))).
			Err(err).
			Msg("rpc error")
		writeDomainError(w, err)
		return
	}

	metrics.IncRPC(serviceName, methodName, "OK")
	writeJSON(w, http.StatusOK, payload)
}

func (s *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *HTTPServer) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := uuid.NewString()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(recorder, r)

		s.log.Info().
			Str("request_id", requestID).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", recorder.status).
			Dur("duration", time.Since(start)).
			Msg("http request")
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
