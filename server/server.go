// Package server exposes the codec and the annotator over a JSON HTTP API.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/ZaguanLabs/duotext"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

// maxBody caps request bodies.
const maxBody = 1 << 20

// TableResolver returns the field table called name, or nil if there is none.
type TableResolver func(name string) duotext.FieldTable

// Server serves the HTTP API.
type Server struct {
	annotator *duotext.Annotator
	tables    TableResolver
	gatherer  prometheus.Gatherer
	placement duotext.Placement
	logger    *logrus.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithAnnotator enables /v1/translate and the table endpoints.
func WithAnnotator(a *duotext.Annotator) Option {
	return func(s *Server) {
		s.annotator = a
		s.placement = a.Placement()
	}
}

// WithTables enables the table endpoints.
func WithTables(r TableResolver) Option {
	return func(s *Server) {
		s.tables = r
	}
}

// WithGatherer serves /metrics from g instead of the default registry.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.gatherer = g
	}
}

// WithPlacement sets the placement used when a request does not name one.
func WithPlacement(p duotext.Placement) Option {
	return func(s *Server) {
		s.placement = p
	}
}

// New creates a server. A nil logger discards output.
func New(logger *logrus.Logger, opts ...Option) *Server {
	if logger == nil {
		logger = logrus.New()
		logger.SetOutput(io.Discard)
	}
	s := &Server{
		gatherer: prometheus.DefaultGatherer,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the routed handler with access logging and panic recovery.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter().StrictSlash(true)

	api := r.PathPrefix("/v1").Subrouter()
	api.Use(jsonHeaders)
	api.HandleFunc("/compose", s.handleCompose).Methods(http.MethodPost)
	api.HandleFunc("/original", s.handleOriginal).Methods(http.MethodPost)
	api.HandleFunc("/translation", s.handleTranslation).Methods(http.MethodPost)
	api.HandleFunc("/detect", s.handleDetect).Methods(http.MethodPost)
	api.HandleFunc("/toggle", s.handleToggle).Methods(http.MethodPost)
	api.HandleFunc("/translate", s.handleTranslate).Methods(http.MethodPost)
	api.HandleFunc("/tables/{name}", s.handleInspect).Methods(http.MethodGet)
	api.HandleFunc("/tables/{name}/{action}", s.handleTableAction).Methods(http.MethodPost)

	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)

	// Subrouters resolve their own mismatches, so both routers need the handlers.
	notFound := jsonHeaders(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, errors.New("not found"))
	}))
	notAllowed := jsonHeaders(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, errors.New("method not allowed"))
	}))
	for _, router := range []*mux.Router{r, api} {
		router.NotFoundHandler = notFound
		router.MethodNotAllowedHandler = notAllowed
	}

	var h http.Handler = r
	h = handlers.RecoveryHandler(handlers.RecoveryLogger(s.logger), handlers.PrintRecoveryStack(false))(h)
	h = handlers.CombinedLoggingHandler(s.logger.WriterLevel(logrus.InfoLevel), h)
	return h
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.WithField("addr", addr).Info("starting HTTP server")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.logger.Info("shutting down HTTP server")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func jsonHeaders(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Server", duotext.UserAgent())
		h.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, struct {
		Error string `json:"error"`
	}{err.Error()})
}

func decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	return decodeBody(w, r, v, false)
}

// decodeOptional is decode for endpoints where the body may be absent,
// including chunked requests with no content.
func decodeOptional(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	return decodeBody(w, r, v, true)
}

func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}, optional bool) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if optional && errors.Is(err, io.EOF) {
			return true
		}
		writeError(w, http.StatusBadRequest, err)
		return false
	}
	return true
}
