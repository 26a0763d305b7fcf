// Package mockserver serves a fixed Terraform result over HTTP so the app can
// be run without a generation backend.
package mockserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/santiagomed/infragenie/core"
	"github.com/santiagomed/infragenie/logger"
)

const maxBodyBytes = 1 << 20

// Server answers generation requests with core.MockResult.
type Server struct {
	logger    logger.Logger
	registry  *prometheus.Registry
	requests  *prometheus.CounterVec
	now       func() time.Time
	accessLog io.Writer
}

func New(l logger.Logger, accessLog io.Writer) *Server {
	if l == nil {
		l = logger.NewNullLogger()
	}
	if accessLog == nil {
		accessLog = io.Discard
	}

	requests := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "infragenie_mock_requests_total",
			Help: "Generation requests served by the mock backend.",
		},
		[]string{"cloud_provider", "provider", "code"},
	)
	registry := prometheus.NewRegistry()
	registry.MustRegister(requests)

	return &Server{
		logger:    l,
		registry:  registry,
		requests:  requests,
		now:       time.Now,
		accessLog: accessLog,
	}
}

func (s *Server) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/", s.handleGenerate).Methods(http.MethodPost)
	r.HandleFunc("/generate", s.handleGenerate).Methods(http.MethodPost)
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})).Methods(http.MethodGet)
}

// Handler returns the router wrapped with CORS and access logging.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	s.RegisterRoutes(r)
	cors := handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{"GET", "POST", "OPTIONS"}),
		handlers.AllowedHeaders([]string{"Content-Type", "Accept", "X-Request-ID"}),
	)(r)
	return handlers.CombinedLoggingHandler(s.accessLog, cors)
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info(fmt.Sprintf("Mock server listening on %s", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("mock server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down mock server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("mock server shutdown: %w", err)
	}
	return nil
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req core.GenerationRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&req); err != nil {
		s.fail(w, req, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Prompt) == "" {
		s.fail(w, req, http.StatusBadRequest, core.ErrEmptyPrompt.Error())
		return
	}

	cloud := core.Azure
	if req.CloudProvider != "" {
		parsed, err := core.ParseCloudProvider(string(req.CloudProvider))
		if err != nil {
			s.fail(w, req, http.StatusBadRequest, err.Error())
			return
		}
		cloud = parsed
	}

	result := core.MockResult()
	result.CloudProvider = string(cloud)
	result.RequestID = "req_" + uuid.NewString()
	result.Timestamp = s.now().UTC().Format(time.RFC3339)

	requestID := r.Header.Get("X-Request-ID")
	s.logger.Info(fmt.Sprintf("Serving mock result %s for client request %q", result.RequestID, requestID))

	s.requests.WithLabelValues(string(cloud), aiLabel(req.AIProvider), strconv.Itoa(http.StatusOK)).Inc()
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) fail(w http.ResponseWriter, req core.GenerationRequest, code int, msg string) {
	s.logger.Warn(fmt.Sprintf("Rejected mock request: %s", msg))
	s.requests.WithLabelValues(cloudLabel(req.CloudProvider), aiLabel(req.AIProvider), strconv.Itoa(code)).Inc()
	writeJSON(w, code, map[string]string{"error": msg})
}

// Label values are limited to known providers so clients cannot grow the
// series count.
const unknownLabel = "unknown"

func cloudLabel(p core.CloudProvider) string {
	parsed, err := core.ParseCloudProvider(string(p))
	if err != nil {
		return unknownLabel
	}
	return string(parsed)
}

func aiLabel(p core.AIProvider) string {
	parsed, err := core.ParseAIProvider(string(p))
	if err != nil {
		return unknownLabel
	}
	return string(parsed)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
