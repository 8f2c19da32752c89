// Package webui serves the source listings, the extracted pattern set and the
// generated artifacts over HTTP.
package webui

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/pbakaus/impeccable/pkg/bundle"
	"github.com/pbakaus/impeccable/pkg/logger"
	"github.com/pbakaus/impeccable/pkg/patterns"
	"github.com/pbakaus/impeccable/pkg/presenter"
	"github.com/pbakaus/impeccable/pkg/source"
	"github.com/pbakaus/impeccable/pkg/transform"
	"github.com/pkg/errors"
)

const shutdownTimeout = 30 * time.Second

// Server represents the web server
type Server struct {
	router *mux.Router
	config *ServerConfig
	server *http.Server
}

// ServerConfig holds the configuration for the web server
type ServerConfig struct {
	Host string
	Port int

	SourceDir    string
	DistDir      string
	OutputSuffix string
	// NamePrefix is prepended to command file names, matching the build.
	NamePrefix    string
	PatternsSkill string
	// StaticDir is served at / when set.
	StaticDir string
}

// Validate validates the server configuration
func (c *ServerConfig) Validate() error {
	if c.Host == "" {
		return errors.New("host cannot be empty")
	}

	if c.Port < 1 || c.Port > 65535 {
		return errors.Errorf("port must be between 1 and 65535, got %d", c.Port)
	}

	if c.SourceDir == "" {
		return errors.New("source directory cannot be empty")
	}
	if c.DistDir == "" {
		return errors.New("dist directory cannot be empty")
	}

	if c.StaticDir != "" {
		info, err := os.Stat(c.StaticDir)
		if err != nil {
			return errors.Wrapf(err, "failed to stat static directory '%s'", c.StaticDir)
		}
		if !info.IsDir() {
			return errors.Errorf("static directory '%s' is not a directory", c.StaticDir)
		}
	}

	return nil
}

// NewServer creates a new web server
func NewServer(config *ServerConfig) (*Server, error) {
	if err := config.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid server configuration")
	}

	s := &Server{
		router: mux.NewRouter(),
		config: config,
	}
	s.setupRoutes()

	return s, nil
}

// Handler exposes the router, mostly for tests.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/commands", s.handleListCommands).Methods("GET")
	api.HandleFunc("/skills", s.handleListSkills).Methods("GET")
	api.HandleFunc("/patterns", s.handlePatterns).Methods("GET")
	api.HandleFunc("/download/bundle/{provider}", s.handleBundleDownload).Methods("GET")
	api.HandleFunc("/download/{type}/{provider}/{id}", s.handleFileDownload).Methods("GET")

	if s.config.StaticDir != "" {
		s.router.PathPrefix("/").Handler(http.FileServer(http.Dir(s.config.StaticDir)))
	}

	s.router.Use(s.loggingMiddleware)
	s.router.Use(s.corsMiddleware)
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapped, r)

		logger.G(r.Context()).WithFields(map[string]any{
			"method":      r.Method,
			"path":        r.URL.Path,
			"status":      wrapped.statusCode,
			"duration":    time.Since(start),
			"remote_addr": r.RemoteAddr,
		}).Info("HTTP request")
	})
}

// corsMiddleware adds CORS headers
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// loadModel re-reads the source tree so listings always reflect the files on disk.
func (s *Server) loadModel(ctx context.Context) (*source.Model, error) {
	l, err := source.NewLoader(source.WithSourceDir(s.config.SourceDir))
	if err != nil {
		return nil, err
	}
	return l.Load(ctx)
}

func (s *Server) handleListCommands(w http.ResponseWriter, r *http.Request) {
	model, err := s.loadModel(r.Context())
	if err != nil {
		s.writeErrorResponse(w, http.StatusInternalServerError, "Failed to read commands", err)
		return
	}
	s.writeJSONResponse(w, model.CommandInfos())
}

func (s *Server) handleListSkills(w http.ResponseWriter, r *http.Request) {
	model, err := s.loadModel(r.Context())
	if err != nil {
		s.writeErrorResponse(w, http.StatusInternalServerError, "Failed to read skills", err)
		return
	}
	s.writeJSONResponse(w, model.SkillInfos())
}

// handlePatterns degrades to an empty set when the source cannot be read.
func (s *Server) handlePatterns(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	model, err := s.loadModel(ctx)
	if err != nil {
		logger.G(ctx).WithError(err).Error("failed to read patterns")
		s.writeJSONResponse(w, patterns.Empty())
		return
	}

	skill := s.config.PatternsSkill
	if skill == "" {
		skill = patterns.DesignatedSkill
	}
	s.writeJSONResponse(w, patterns.FromModel(ctx, model, skill))
}

func (s *Server) handleFileDownload(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	kind, provider, id := vars["type"], vars["provider"], vars["id"]

	if kind != "command" && kind != "skill" {
		http.Error(w, "Invalid type", http.StatusBadRequest)
		return
	}

	target, err := transform.Lookup(provider)
	if err != nil {
		http.Error(w, "Invalid provider", http.StatusBadRequest)
		return
	}

	if !validID(id) {
		http.Error(w, "Invalid id", http.StatusBadRequest)
		return
	}

	rel := target.CommandPath(s.config.NamePrefix + id)
	if kind == "skill" {
		rel = target.SkillPath(id)
	}
	filePath := filepath.Join(transform.RootDir(s.config.DistDir, target, s.config.OutputSuffix), filepath.FromSlash(rel))

	s.serveAttachment(w, r, filePath, "application/octet-stream", path.Base(rel), "File not found")
}

func (s *Server) handleBundleDownload(w http.ResponseWriter, r *http.Request) {
	provider := mux.Vars(r)["provider"]
	if _, err := transform.Lookup(provider); err != nil {
		http.Error(w, "Invalid provider", http.StatusBadRequest)
		return
	}

	zipPath := filepath.Join(s.config.DistDir, bundle.ZipName(provider, s.config.OutputSuffix))
	filename := fmt.Sprintf("impeccable-style-%s.zip", provider)

	s.serveAttachment(w, r, zipPath, "application/zip", filename, "Bundle not found")
}

func (s *Server) serveAttachment(w http.ResponseWriter, r *http.Request, filePath, contentType, filename, notFound string) {
	content, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			http.Error(w, notFound, http.StatusNotFound)
			return
		}
		logger.G(r.Context()).WithError(err).WithField("path", filePath).Error("failed to read download")
		http.Error(w, "Error downloading file", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	if _, err := w.Write(content); err != nil {
		logger.G(r.Context()).WithError(err).Debug("failed to write download")
	}
}

// validID rejects anything that could leave the target directory.
func validID(id string) bool {
	if id == "" || strings.ContainsAny(id, `/\`) || strings.Contains(id, "..") {
		return false
	}
	return id != "."
}

// writeJSONResponse writes a JSON response
func (s *Server) writeJSONResponse(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.G(context.TODO()).WithError(err).Error("failed to encode JSON response")
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}

// writeErrorResponse writes an error response
func (s *Server) writeErrorResponse(w http.ResponseWriter, statusCode int, message string, err error) {
	if err != nil {
		logger.G(context.TODO()).WithError(err).Error(message)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	response := map[string]any{
		"error":   message,
		"status":  statusCode,
		"success": false,
	}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		logger.G(context.TODO()).WithError(err).Error("failed to encode error response")
	}
}

// Start runs the server until ctx is cancelled, then shuts it down gracefully.
func (s *Server) Start(ctx context.Context) error {
	address := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	s.server = &http.Server{
		Addr:              address,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	presenter.Info(fmt.Sprintf("Starting web server on http://%s", address))

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return errors.Wrap(err, "web server error")
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	presenter.Info("Shutting down web server...")
	if err := s.server.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "failed to shutdown server")
	}
	return nil
}

// Stop stops the web server immediately
func (s *Server) Stop() error {
	if s.server != nil {
		return s.server.Close()
	}
	return nil
}
