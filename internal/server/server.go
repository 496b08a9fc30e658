package server

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/iwvelando/emi-calculator/internal/apperror"
	"github.com/iwvelando/emi-calculator/internal/service"
	"github.com/iwvelando/emi-calculator/internal/session"
	"github.com/iwvelando/emi-calculator/pkg/constants"
	"github.com/iwvelando/emi-calculator/pkg/eligibility"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

//go:embed static/*
var staticFiles embed.FS

// Options tune the handler. Zero values fall back to defaults.
type Options struct {
	MaxBodySize    int64
	Version        string
	AllowedOrigins []string
	SessionTTL     time.Duration
	SecureCookie   bool
	// Gatherer backs /metrics; nil uses the default Prometheus registry.
	Gatherer prometheus.Gatherer
}

type handler struct {
	logger       *zap.Logger
	calc         *service.Calculator
	maxBodySize  int64
	version      string
	cookieMaxAge int
	secureCookie bool
}

// NewHandler constructs the HTTP handler that serves the web UI and calculator API.
func NewHandler(logger *zap.Logger, calc *service.Calculator, opts Options) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}

	maxBodySize := opts.MaxBodySize
	if maxBodySize <= 0 {
		maxBodySize = constants.DefaultMaxBodySizeBytes
	}

	trimmedVersion := strings.TrimSpace(opts.Version)
	if trimmedVersion == "" {
		trimmedVersion = "dev"
	}

	ttl := opts.SessionTTL
	if ttl <= 0 {
		ttl = constants.DefaultSessionTTLSeconds * time.Second
	}

	gatherer := opts.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	h := &handler{
		logger:       logger,
		calc:         calc,
		maxBodySize:  maxBodySize,
		version:      trimmedVersion,
		cookieMaxAge: int(ttl / time.Second),
		secureCookie: opts.SecureCookie,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if len(opts.AllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   opts.AllowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Content-Type"},
			ExposedHeaders:   []string{"Content-Disposition"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	r.Get("/api/health", h.handleHealth)
	r.Get("/api/version", h.handleVersion)
	r.Get("/api/options", h.handleOptions)
	r.Get("/api/session", h.handleSession)
	r.Delete("/api/session", h.handleResetSession)
	r.Post("/api/eligibility", h.handleEligibility)
	r.Post("/api/calculate", h.handleCalculate)
	r.Post("/api/export", h.handleExport)
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	// Static assets (web UI)
	sub, err := fs.Sub(staticFiles, "static")
	if err != nil {
		panic(fmt.Sprintf("failed to prepare embedded static files: %v", err))
	}
	r.Handle("/*", http.FileServer(http.FS(sub)))

	return r
}

func (h *handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handler) handleVersion(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{
		"version": h.version,
	})
}

func (h *handler) handleOptions(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, h.calc.Options())
}

type sessionResponse struct {
	Eligible  bool       `json:"eligible"`
	Reason    string     `json:"reason,omitempty"`
	Message   string     `json:"message,omitempty"`
	CheckedAt *time.Time `json:"checkedAt,omitempty"`
}

func (h *handler) handleSession(w http.ResponseWriter, r *http.Request) {
	sid := h.sessionID(w, r)
	state, err := h.calc.SessionState(r.Context(), sid)
	if err != nil {
		h.respondAppError(w, r, err, "server.handleSession")
		return
	}

	resp := sessionResponse{Eligible: state.Eligible, Reason: state.Reason}
	if state.Reason != "" {
		resp.Message = eligibility.Result{Reason: state.Reason}.Message()
	}
	if !state.CheckedAt.IsZero() {
		checked := state.CheckedAt
		resp.CheckedAt = &checked
	}
	h.writeJSON(w, http.StatusOK, resp)
}

// handleResetSession drops the stored eligibility decision and keeps the
// cookie, so the next check starts from a clean session.
func (h *handler) handleResetSession(w http.ResponseWriter, r *http.Request) {
	sid := h.sessionID(w, r)
	if err := h.calc.ResetSession(r.Context(), sid); err != nil {
		h.respondAppError(w, r, err, "server.handleResetSession")
		return
	}
	h.writeJSON(w, http.StatusOK, sessionResponse{})
}

func (h *handler) handleEligibility(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleEligibility"

	var in eligibility.Input
	if !h.decodeJSON(w, r, &in, op) {
		return
	}

	sid := h.sessionID(w, r)
	res, err := h.calc.CheckEligibility(r.Context(), sid, in)
	if err != nil {
		h.respondAppError(w, r, err, op)
		return
	}
	h.writeJSON(w, http.StatusOK, res)
}

func (h *handler) handleCalculate(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleCalculate"

	var req service.CalculateRequest
	if !h.decodeJSON(w, r, &req, op) {
		return
	}

	sid := h.sessionID(w, r)
	start := time.Now()
	res, err := h.calc.Calculate(r.Context(), sid, req)
	if err != nil {
		h.respondAppError(w, r, err, op)
		return
	}

	h.logger.Info("schedule calculated",
		zap.String("op", op),
		zap.String("requestId", middleware.GetReqID(r.Context())),
		zap.Int("months", res.Months),
		zap.Duration("duration", time.Since(start)),
	)
	h.writeJSON(w, http.StatusOK, res)
}

func (h *handler) handleExport(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleExport"

	format := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("format")))
	if format == "" {
		format = constants.OutputFormatCSV
	}

	var req service.CalculateRequest
	if !h.decodeJSON(w, r, &req, op) {
		return
	}

	sid := h.sessionID(w, r)
	file, err := h.calc.Export(r.Context(), sid, format, req)
	if err != nil {
		h.respondAppError(w, r, err, op)
		return
	}

	w.Header().Set("Content-Type", file.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.FileName))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(file.Data); err != nil {
		h.logger.Warn("failed to write export",
			zap.String("op", op),
			zap.Error(err),
		)
	}
}

// sessionID returns the caller's session id, issuing a new cookie when the
// request carries none or an id that was not issued by us.
func (h *handler) sessionID(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(constants.SessionCookieName); err == nil && session.ValidID(c.Value) {
		return c.Value
	}

	id := session.NewID()
	http.SetCookie(w, &http.Cookie{
		Name:     constants.SessionCookieName,
		Value:    id,
		Path:     "/",
		MaxAge:   h.cookieMaxAge,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}

func (h *handler) decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}, op string) bool {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodySize)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.respondErrorWithOp(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("request body exceeds limit of %d bytes", h.maxBodySize), op)
			return false
		}
		h.respondAppError(w, r, apperror.BadRequest(fmt.Sprintf("failed to decode request: %v", err)), op)
		return false
	}
	return true
}

func (h *handler) respondAppError(w http.ResponseWriter, r *http.Request, err error, op string) {
	status := apperror.GetStatusCode(err)
	msg := apperror.GetMessage(err)
	fields := []zap.Field{
		zap.String("op", op),
		zap.String("requestId", middleware.GetReqID(r.Context())),
		zap.Int("status", status),
		zap.Error(err),
	}

	if status >= http.StatusInternalServerError {
		var appErr *apperror.AppError
		if !errors.As(err, &appErr) {
			msg = http.StatusText(status)
		}
		h.logger.Error("request failed", fields...)
	} else {
		h.logger.Warn("request rejected", fields...)
	}

	h.writeJSON(w, status, map[string]string{"error": msg})
}

func (h *handler) respondErrorWithOp(w http.ResponseWriter, status int, msg string, op string) {
	h.logger.Warn("request rejected",
		zap.String("op", op),
		zap.Int("status", status),
		zap.String("error", msg),
	)

	h.writeJSON(w, status, map[string]string{"error": msg})
}

func (h *handler) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to write JSON response", zap.Error(err))
	}
}
