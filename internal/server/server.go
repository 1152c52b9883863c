package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/cwbudde/etc1dxt/internal/heatmap"
	"github.com/cwbudde/etc1dxt/internal/simd"
	"github.com/cwbudde/etc1dxt/internal/store"
)

// maxRequestBytes limits the JobConfig body of POST /api/v1/jobs.
const maxRequestBytes = 64 << 10

// Server exposes table generation jobs over HTTP.
//
//	GET  /api/v1/backends               supported and active backends
//	GET  /api/v1/jobs                   list jobs
//	POST /api/v1/jobs                   start a job (JobConfig body)
//	GET  /api/v1/jobs/:id[/status]      job status
//	POST /api/v1/jobs/:id/cancel        stop a running job
//	GET  /api/v1/jobs/:id/stream        SSE progress
//	GET  /api/v1/jobs/:id/table.inc     finished table as C include
//	GET  /api/v1/jobs/:id/heatmap.png   finished table error heatmap
//	GET  /api/v1/tables                 stored table records
type Server struct {
	jobManager *JobManager
	tableStore store.Store
	addr       string
	server     *http.Server

	// baseCtx parents every job; Shutdown cancels it
	baseCtx    context.Context
	cancelJobs context.CancelFunc
}

// NewServer creates a new HTTP server. tableStore may be nil, in which case
// jobs cannot be saved and /api/v1/tables is unavailable.
func NewServer(addr string, tableStore store.Store) *Server {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		jobManager: NewJobManager(),
		tableStore: tableStore,
		addr:       addr,
		baseCtx:    ctx,
		cancelJobs: cancel,
	}
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.Handler(),
	}
	return s
}

// Handler returns the routed handler with middleware applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/v1/backends", s.handleBackends)
	mux.HandleFunc("/api/v1/jobs", s.handleJobs)
	mux.HandleFunc("/api/v1/jobs/", s.handleJobsWithID)
	mux.HandleFunc("/api/v1/tables", s.handleTables)

	return s.loggingMiddleware(s.corsMiddleware(mux))
}

// Start starts the HTTP server
func (s *Server) Start() error {
	slog.Info("Starting HTTP server", "addr", s.addr)
	return s.server.ListenAndServe()
}

// Shutdown cancels running jobs and gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	slog.Info("Shutting down HTTP server", "running_jobs", len(s.jobManager.GetRunningJobs()))
	s.cancelJobs()
	return s.server.Shutdown(ctx)
}

// handleBackends handles GET /api/v1/backends
func (s *Server) handleBackends(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var names []string
	for _, b := range simd.SupportedBackends() {
		names = append(names, b.String())
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"active":    simd.ActiveBackend.String(),
		"cpu":       simd.CPUBackend.String(),
		"supported": names,
	})
}

// handleJobs handles /api/v1/jobs
func (s *Server) handleJobs(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.handleCreateJob(w, r)
	case http.MethodGet:
		s.handleListJobs(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleJobsWithID handles /api/v1/jobs/:id/*
func (s *Server) handleJobsWithID(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/v1/jobs/")
	parts := strings.Split(path, "/")
	if len(parts) == 0 || parts[0] == "" {
		http.Error(w, "Job ID required", http.StatusBadRequest)
		return
	}

	jobID := parts[0]

	if len(parts) == 1 || parts[1] == "status" {
		s.handleGetJobStatus(w, r, jobID)
		return
	}
	switch parts[1] {
	case "cancel":
		s.handleCancelJob(w, r, jobID)
	case "stream":
		s.handleJobStream(w, r, jobID)
	case "table.inc":
		s.handleGetTable(w, r, jobID)
	case "heatmap.png":
		s.handleGetHeatmap(w, r, jobID)
	default:
		http.Error(w, "Not found", http.StatusNotFound)
	}
}

// handleCreateJob handles POST /api/v1/jobs
func (s *Server) handleCreateJob(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBytes)

	var config JobConfig
	if err := json.NewDecoder(r.Body).Decode(&config); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			http.Error(w, fmt.Sprintf("Request body exceeds %d bytes", tooLarge.Limit), http.StatusRequestEntityTooLarge)
			return
		}
		http.Error(w, fmt.Sprintf("Invalid JSON: %v", err), http.StatusBadRequest)
		return
	}

	if err := config.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if config.Save && s.tableStore == nil {
		http.Error(w, "save requested but no table store is configured", http.StatusBadRequest)
		return
	}

	job := s.jobManager.CreateJob(config)

	ctx, cancel := context.WithCancel(s.baseCtx)
	s.jobManager.setCancel(job.ID, cancel)
	go runJob(ctx, s.jobManager, s.tableStore, job.ID)

	writeJSON(w, http.StatusCreated, job)
}

// handleListJobs handles GET /api/v1/jobs
func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.jobManager.ListJobs())
}

// handleGetJobStatus handles GET /api/v1/jobs/:id/status
func (s *Server) handleGetJobStatus(w http.ResponseWriter, r *http.Request, jobID string) {
	job, exists := s.jobManager.GetJob(jobID)
	if !exists {
		http.Error(w, "Job not found", http.StatusNotFound)
		return
	}

	event := progressEvent(job)
	response := map[string]interface{}{
		"id":            job.ID,
		"state":         job.State,
		"config":        job.Config,
		"backend":       job.Backend,
		"rowsDone":      job.RowsDone,
		"rowsTotal":     job.RowsTotal,
		"rowsPerSecond": event.RowsPerSecond,
		"entries":       job.Entries,
		"totalErr":      job.TotalErr,
		"maxErr":        job.MaxErr,
		"tableId":       job.TableID,
		"elapsed":       job.Elapsed().Seconds(),
		"startTime":     job.StartTime,
		"endTime":       job.EndTime,
		"error":         job.Error,
	}

	writeJSON(w, http.StatusOK, response)
}

// handleCancelJob handles POST /api/v1/jobs/:id/cancel
func (s *Server) handleCancelJob(w http.ResponseWriter, r *http.Request, jobID string) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if _, exists := s.jobManager.GetJob(jobID); !exists {
		http.Error(w, "Job not found", http.StatusNotFound)
		return
	}
	if !s.jobManager.CancelJob(jobID) {
		http.Error(w, "Job already finished", http.StatusConflict)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

// completedJob fetches a finished job or writes the matching error.
func (s *Server) completedJob(w http.ResponseWriter, jobID string) (*Job, bool) {
	job, exists := s.jobManager.GetJob(jobID)
	if !exists {
		http.Error(w, "Job not found", http.StatusNotFound)
		return nil, false
	}
	if job.State != StateCompleted {
		http.Error(w, "No results yet", http.StatusNotFound)
		return nil, false
	}
	return job, true
}

// handleGetTable handles GET /api/v1/jobs/:id/table.inc
func (s *Server) handleGetTable(w http.ResponseWriter, r *http.Request, jobID string) {
	job, ok := s.completedJob(w, jobID)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if err := store.WriteInc(w, job.solutions); err != nil {
		slog.Error("Failed to write table", "job_id", jobID, "error", err)
	}
}

// handleGetHeatmap handles GET /api/v1/jobs/:id/heatmap.png
func (s *Server) handleGetHeatmap(w http.ResponseWriter, r *http.Request, jobID string) {
	job, ok := s.completedJob(w, jobID)
	if !ok {
		return
	}

	img, err := heatmap.Render(job.Config.Layout(), job.solutions, 1)
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to render heatmap: %v", err), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-cache")
	if err := heatmap.Encode(w, img, heatmap.FormatPNG); err != nil {
		slog.Error("Failed to encode PNG", "error", err)
	}
}

// handleTables handles GET /api/v1/tables
func (s *Server) handleTables(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.tableStore == nil {
		http.Error(w, "No table store configured", http.StatusNotFound)
		return
	}

	infos, err := s.tableStore.ListTables()
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to list tables: %v", err), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, infos)
}

// corsMiddleware adds CORS headers
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		slog.Debug("HTTP request", "method", r.Method, "path", r.URL.Path, "duration", time.Since(start))
	})
}
