package web

import (
	"embed"
	"html/template"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vbonduro/homeinv/internal/domain"
	"github.com/vbonduro/homeinv/internal/logging"
	"github.com/vbonduro/homeinv/internal/service"
)

type Server struct {
	service   *service.InventoryService
	templates embed.FS
	metrics   http.Handler
	mux       *http.ServeMux
	tmplFuncs template.FuncMap
	logger    *slog.Logger
}

// NewServer wires the routes. metrics may be nil, in which case /metrics is
// not served.
func NewServer(svc *service.InventoryService, tmpl embed.FS, metrics http.Handler, logger *slog.Logger) *Server {
	s := &Server{
		service:   svc,
		templates: tmpl,
		metrics:   metrics,
		mux:       http.NewServeMux(),
		logger:    logger,
		tmplFuncs: template.FuncMap{
			"areaIcon": areaIcon,
			"rowValue": rowValue,
			"imageURL": imageURL,
			"inc":      func(i int) int { return i + 1 },
		},
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /{$}", s.handleIndex)
	s.mux.HandleFunc("POST /areas", s.handleAddArea)
	s.mux.HandleFunc("POST /areas/delete", s.handleDeleteArea)
	s.mux.HandleFunc("GET /storages", s.handleStorageOptions)
	s.mux.HandleFunc("POST /storages", s.handleAddStorage)
	s.mux.HandleFunc("POST /storages/delete", s.handleDeleteStorage)
	s.mux.HandleFunc("POST /items", s.handleAddItem)
	s.mux.HandleFunc("POST /items/delete", s.handleDeleteItems)
	s.mux.HandleFunc("POST /items/suggest", s.handleSuggestName)
	s.mux.HandleFunc("GET /images/{key}", s.handleGetImage)
	if s.metrics != nil {
		s.mux.Handle("GET /metrics", s.metrics)
	}
}

// securityHeaders adds defensive HTTP response headers to every response.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		h.Set("Content-Security-Policy",
			"default-src 'self'; "+
				"script-src 'self' 'unsafe-inline' https://unpkg.com; "+
				"style-src 'self' 'unsafe-inline'; "+
				"img-src 'self' data:; "+
				"connect-src 'self'")
		next.ServeHTTP(w, r)
	})
}

// statusRecorder wraps http.ResponseWriter to capture the written status code.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

const requestIDHeader = "X-Request-ID"

// requestLogger tags each request with an id, echoed in the response and
// attached to the request-scoped logger.
func requestLogger(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		id := r.Header.Get(requestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		reqLogger := logger.With("request_id", id)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r.WithContext(logging.WithLogger(r.Context(), reqLogger)))
		reqLogger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	requestLogger(s.logger, securityHeaders(s.mux)).ServeHTTP(w, r)
}

// HTTPServer returns the configured *http.Server for addr.
func (s *Server) HTTPServer(addr string) *http.Server {
	return &http.Server{
		Addr:         addr,
		Handler:      s,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
}

// renderPage parses and executes a full-page template set.
func (s *Server) renderPage(w http.ResponseWriter, status int, data any, files ...string) error {
	tmpl, err := template.New("").Funcs(s.tmplFuncs).ParseFS(s.templates, files...)
	if err != nil {
		http.Error(w, "template error", http.StatusInternalServerError)
		return err
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	return tmpl.ExecuteTemplate(w, "base", data)
}

// renderPartial parses files and executes the template defined as name.
func (s *Server) renderPartial(w http.ResponseWriter, status int, name string, data any, files ...string) error {
	tmpl, err := template.New("").Funcs(s.tmplFuncs).ParseFS(s.templates, files...)
	if err != nil {
		http.Error(w, "template error", http.StatusInternalServerError)
		return err
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	return tmpl.ExecuteTemplate(w, name, data)
}

// rowValue encodes a row as the value of its delete checkbox.
func rowValue(r domain.Row) string {
	return url.Values{
		"area":    {r.Area},
		"storage": {r.Storage},
		"item":    {r.Item},
	}.Encode()
}

func imageURL(key string) string {
	return "/images/" + url.PathEscape(key)
}

// areaIcon returns an emoji based on keywords in the area name.
func areaIcon(name string) string {
	lower := strings.ToLower(name)
	switch {
	case contains(lower, "garage", "workshop", "shed"):
		return "🔧"
	case contains(lower, "kitchen", "pantry"):
		return "🍳"
	case contains(lower, "attic", "basement", "cellar", "storage"):
		return "📦"
	case contains(lower, "bath"):
		return "🛁"
	case contains(lower, "bed", "closet", "wardrobe"):
		return "🛏️"
	case contains(lower, "office", "study"):
		return "🖥️"
	case contains(lower, "garden", "yard", "patio"):
		return "🌿"
	default:
		return "🏠"
	}
}

func contains(s string, keywords ...string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}
