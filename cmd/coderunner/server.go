// The HTTP surface of coderunner: a gorilla/mux router dispatching to the
// Dispatcher façade, guarded by a per-IP rate limiter and exposing
// Prometheus metrics — the same shape as the teacher's main.go, grown out
// to the full route set in spec.md 6.
package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/aggieforge/coderunner/dispatcher"
	"github.com/aggieforge/coderunner/metrics"
	"github.com/aggieforge/coderunner/model"
	"github.com/aggieforge/coderunner/packages"
	"github.com/aggieforge/coderunner/ratelimit"
	"github.com/aggieforge/coderunner/registry"
	"github.com/aggieforge/coderunner/store"
)

const maxCodeBytes = 100_000 // spec.md 6: 422 above this

// server bundles everything an HTTP handler needs to answer a request.
type server struct {
	dispatcher *dispatcher.Dispatcher
	registry   *registry.Registry
	metrics    *metrics.Registry
	log        *zap.Logger
}

func newRouter(s *server, limiter *ratelimit.Limiter) http.Handler {
	r := mux.NewRouter()

	r.Handle("/execute", limiter.Middleware(http.HandlerFunc(s.handleExecuteSync))).Methods(http.MethodPost)
	r.Handle("/execute/async", limiter.Middleware(http.HandlerFunc(s.handleExecuteAsync))).Methods(http.MethodPost)
	r.HandleFunc("/execution/{id}", s.handleGetExecution).Methods(http.MethodGet)
	r.HandleFunc("/languages", s.handleLanguages).Methods(http.MethodGet)
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/", s.handleHealth).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	return r
}

// executeRequest is the wire shape of both /execute and /execute/async,
// per spec.md 6.
type executeRequest struct {
	Code     string   `json:"code"`
	Language string   `json:"language,omitempty"`
	Timeout  int      `json:"timeout,omitempty"`
	Packages []string `json:"packages,omitempty"`
}

type executeSyncResponse struct {
	Success    bool   `json:"success"`
	Stdout     string `json:"stdout"`
	Stderr     string `json:"stderr"`
	ExitCode   int    `json:"exit_code"`
	DurationMs int64  `json:"duration_ms"`
	Timeout    bool   `json:"timeout"`
	ErrorType  string `json:"error_type,omitempty"`
}

type executeAsyncResponse struct {
	ExecutionID string `json:"execution_id"`
	Status      string `json:"status"`
}

func decodeExecuteRequest(r *http.Request) (executeRequest, model.ExecutionConfig, error) {
	var req executeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return executeRequest{}, model.ExecutionConfig{}, errors.New("invalid request body")
	}
	if req.Code == "" {
		return executeRequest{}, model.ExecutionConfig{}, errors.New("code is required")
	}
	if len(req.Code) > maxCodeBytes {
		return executeRequest{}, model.ExecutionConfig{}, errValidation("code exceeds maximum length of 100KB")
	}
	if req.Language == "" {
		req.Language = "python"
	}
	if req.Timeout != 0 && (req.Timeout < 1 || req.Timeout > 30) {
		return executeRequest{}, model.ExecutionConfig{}, errValidation("timeout must be between 1 and 30 seconds")
	}

	cfg := model.ExecutionConfig{
		Timeout:  time.Duration(req.Timeout) * time.Second,
		Packages: req.Packages,
	}
	return req, cfg, nil
}

// validationErr distinguishes a 422 from the generic 400 decodeExecuteRequest
// otherwise returns.
type validationErr struct{ msg string }

func (e *validationErr) Error() string { return e.msg }
func errValidation(msg string) error   { return &validationErr{msg} }

func (s *server) handleExecuteSync(w http.ResponseWriter, r *http.Request) {
	req, cfg, err := decodeExecuteRequest(r)
	if err != nil {
		writeRequestError(w, err)
		return
	}

	result, err := s.dispatcher.ExecuteSync(r.Context(), req.Language, req.Code, cfg)
	if err != nil {
		var unsupported *dispatcher.ErrUnsupportedLanguage
		var unauthorized *packages.UnauthorizedPackageError
		if errors.As(err, &unsupported) || errors.As(err, &unauthorized) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, executeSyncResponse{
		Success:    result.ExitCode == 0 && !result.Timeout && result.ErrorType == "",
		Stdout:     result.Stdout,
		Stderr:     result.Stderr,
		ExitCode:   result.ExitCode,
		DurationMs: result.DurationMs,
		Timeout:    result.Timeout,
		ErrorType:  result.ErrorType,
	})
}

func (s *server) handleExecuteAsync(w http.ResponseWriter, r *http.Request) {
	req, cfg, err := decodeExecuteRequest(r)
	if err != nil {
		writeRequestError(w, err)
		return
	}

	id, err := s.dispatcher.SubmitAsync(r.Context(), req.Language, req.Code, cfg)
	if err != nil {
		var unsupported *dispatcher.ErrUnsupportedLanguage
		var unauthorized *packages.UnauthorizedPackageError
		if errors.As(err, &unsupported) || errors.As(err, &unauthorized) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		http.Error(w, "queue backend unavailable: "+err.Error(), http.StatusServiceUnavailable)
		return
	}

	writeJSON(w, http.StatusOK, executeAsyncResponse{ExecutionID: id, Status: "queued"})
}

func (s *server) handleGetExecution(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	rec, err := s.dispatcher.Poll(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			http.Error(w, "execution not found", http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *server) handleLanguages(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{"languages": s.registry.RegisteredIDs()})
}

func (s *server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeRequestError(w http.ResponseWriter, err error) {
	var v *validationErr
	if errors.As(err, &v) {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	http.Error(w, err.Error(), http.StatusBadRequest)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
