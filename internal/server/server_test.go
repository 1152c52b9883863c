package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/cwbudde/etc1dxt/internal/store"
)

// waitForState polls the job until it leaves pending/running.
func waitForState(t *testing.T, s *Server, jobID string) *Job {
	t.Helper()
	deadline := time.Now().Add(30 * time.Second)
	for time.Now().Before(deadline) {
		job, _ := s.jobManager.GetJob(jobID)
		if isFinal(job.State) {
			return job
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("Job did not finish in time")
	return nil
}

func postJob(t *testing.T, s *Server, config JobConfig) *httptest.ResponseRecorder {
	t.Helper()
	body, _ := json.Marshal(config)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/jobs", bytes.NewReader(body))
	w := httptest.NewRecorder()
	s.handleCreateJob(w, req)
	return w
}

func TestServer_CreateJob(t *testing.T) {
	s := NewServer(":8080", nil)
	defer s.Shutdown(context.Background())

	w := postJob(t, s, smallConfig("v128"))

	if w.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", w.Code, w.Body.String())
	}

	var job Job
	if err := json.NewDecoder(w.Body).Decode(&job); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if job.ID == "" {
		t.Error("Job ID should not be empty")
	}

	if job.State != StatePending {
		t.Errorf("Expected pending state, got %s", job.State)
	}

	if final := waitForState(t, s, job.ID); final.State != StateCompleted {
		t.Errorf("Expected completed job, got %s (%s)", final.State, final.Error)
	}
}

func TestServer_CreateJob_Invalid(t *testing.T) {
	s := NewServer(":8080", nil)

	tests := []struct {
		name string
		body string
	}{
		{"bad json", "{"},
		{"unknown backend", `{"backend":"mmx"}`},
		{"bad range", `{"ranges":[{"low":3,"high":0}]}`},
		{"save without store", `{"save":true}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/jobs", strings.NewReader(tt.body))
			w := httptest.NewRecorder()
			s.handleCreateJob(w, req)
			if w.Code != http.StatusBadRequest {
				t.Errorf("Expected status 400, got %d", w.Code)
			}
		})
	}

	if n := len(s.jobManager.ListJobs()); n != 0 {
		t.Errorf("Rejected requests should not create jobs, got %d", n)
	}
}

func TestServer_CreateJob_Limits(t *testing.T) {
	s := NewServer(":8080", nil)

	t.Run("too many combinations", func(t *testing.T) {
		w := postJob(t, s, JobConfig{Ranges: repeatRange(maxJobCombinations/10 + 1)})
		if w.Code != http.StatusBadRequest {
			t.Errorf("Expected status 400, got %d", w.Code)
		}
	})

	t.Run("oversized body", func(t *testing.T) {
		body := `{"name":"` + strings.Repeat("x", maxRequestBytes) + `"}`
		req := httptest.NewRequest(http.MethodPost, "/api/v1/jobs", strings.NewReader(body))
		w := httptest.NewRecorder()
		s.handleCreateJob(w, req)
		if w.Code != http.StatusRequestEntityTooLarge {
			t.Errorf("Expected status 413, got %d", w.Code)
		}
	})

	if n := len(s.jobManager.ListJobs()); n != 0 {
		t.Errorf("Rejected requests should not create jobs, got %d", n)
	}
}

func TestServer_ListJobs(t *testing.T) {
	s := NewServer(":8080", nil)

	s.jobManager.CreateJob(JobConfig{})
	s.jobManager.CreateJob(JobConfig{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/jobs", nil)
	w := httptest.NewRecorder()

	s.handleListJobs(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}

	var jobs []*Job
	if err := json.NewDecoder(w.Body).Decode(&jobs); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if len(jobs) != 2 {
		t.Errorf("Expected 2 jobs, got %d", len(jobs))
	}
}

func TestServer_GetJobStatus(t *testing.T) {
	s := NewServer(":8080", nil)

	job := s.jobManager.CreateJob(smallConfig("scalar"))

	req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/v1/jobs/%s/status", job.ID), nil)
	w := httptest.NewRecorder()

	s.handleGetJobStatus(w, req, job.ID)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}

	var response map[string]interface{}
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if response["id"] != job.ID {
		t.Error("Response should contain job ID")
	}

	if response["state"] != string(StatePending) {
		t.Errorf("Expected pending state, got %v", response["state"])
	}
}

func TestServer_GetJobStatus_NotFound(t *testing.T) {
	s := NewServer(":8080", nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/jobs/nonexistent/status", nil)
	w := httptest.NewRecorder()

	s.handleGetJobStatus(w, req, "nonexistent")

	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}

func TestServer_ResultsBeforeCompletion(t *testing.T) {
	s := NewServer(":8080", nil)
	job := s.jobManager.CreateJob(smallConfig("scalar"))

	for _, path := range []string{"table.inc", "heatmap.png"} {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/jobs/"+job.ID+"/"+path, nil)
		w := httptest.NewRecorder()
		s.handleJobsWithID(w, req)
		if w.Code != http.StatusNotFound {
			t.Errorf("%s: expected status 404, got %d", path, w.Code)
		}
	}
}

func TestServer_Integration(t *testing.T) {
	fsStore, err := store.NewFSStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	s := NewServer("localhost:0", fsStore)
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()
	defer s.Shutdown(context.Background())

	config := smallConfig("v256")
	config.Save = true
	body, _ := json.Marshal(config)
	resp, err := http.Post(srv.URL+"/api/v1/jobs", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("Failed to create job: %v", err)
	}
	var job Job
	json.NewDecoder(resp.Body).Decode(&job)
	resp.Body.Close()

	// Poll status until completed
	maxAttempts := 300
	for i := 0; i < maxAttempts; i++ {
		resp, err := http.Get(srv.URL + "/api/v1/jobs/" + job.ID + "/status")
		if err != nil {
			t.Fatalf("Failed to get status: %v", err)
		}

		var status map[string]interface{}
		json.NewDecoder(resp.Body).Decode(&status)
		resp.Body.Close()

		if status["state"] == string(StateCompleted) {
			break
		}

		if status["state"] == string(StateFailed) {
			t.Fatalf("Job failed: %v", status["error"])
		}

		if i == maxAttempts-1 {
			t.Fatal("Job did not complete in time")
		}

		time.Sleep(100 * time.Millisecond)
	}

	// The table comes back in include format
	resp, err = http.Get(srv.URL + "/api/v1/jobs/" + job.ID + "/table.inc")
	if err != nil {
		t.Fatalf("Failed to get table: %v", err)
	}
	solutions, err := store.ParseInc(resp.Body)
	resp.Body.Close()
	if err != nil {
		t.Fatalf("Table does not parse: %v", err)
	}
	if len(solutions) != 256 || solutions[0].Hi != 4 || solutions[0].Err != 18 {
		t.Errorf("Unexpected table: %d entries, first %s", len(solutions), solutions[0])
	}

	// Heatmap is a 1x256 PNG
	resp, err = http.Get(srv.URL + "/api/v1/jobs/" + job.ID + "/heatmap.png")
	if err != nil {
		t.Fatalf("Failed to get heatmap: %v", err)
	}
	img, err := png.Decode(resp.Body)
	resp.Body.Close()
	if err != nil {
		t.Fatalf("Heatmap is not a PNG: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 1 || b.Dy() != 256 {
		t.Errorf("Unexpected heatmap bounds %v", b)
	}

	// The saved table is listed
	resp, err = http.Get(srv.URL + "/api/v1/tables")
	if err != nil {
		t.Fatalf("Failed to list tables: %v", err)
	}
	var infos []store.TableInfo
	json.NewDecoder(resp.Body).Decode(&infos)
	resp.Body.Close()
	if len(infos) != 1 || infos[0].Entries != 256 {
		t.Errorf("Expected one stored table, got %+v", infos)
	}
}

func TestServer_CancelJob(t *testing.T) {
	s := NewServer(":8080", nil)

	// A full scalar table takes long enough to cancel
	w := postJob(t, s, JobConfig{Backend: "scalar", Workers: 1})
	var job Job
	json.NewDecoder(w.Body).Decode(&job)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/jobs/"+job.ID+"/cancel", nil)
	rec := httptest.NewRecorder()
	s.handleJobsWithID(rec, req)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("Expected status 202, got %d", rec.Code)
	}

	if final := waitForState(t, s, job.ID); final.State != StateCancelled {
		t.Errorf("Expected cancelled job, got %s", final.State)
	}

	// Finished jobs cannot be cancelled again
	rec = httptest.NewRecorder()
	s.handleJobsWithID(rec, httptest.NewRequest(http.MethodPost, "/api/v1/jobs/"+job.ID+"/cancel", nil))
	if rec.Code != http.StatusConflict {
		t.Errorf("Expected status 409, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	s.handleJobsWithID(rec, httptest.NewRequest(http.MethodGet, "/api/v1/jobs/"+job.ID+"/cancel", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("Expected status 405, got %d", rec.Code)
	}
}

func TestServer_JobStream_SSE(t *testing.T) {
	s := NewServer(":8080", nil)
	defer s.Shutdown(context.Background())

	w := postJob(t, s, smallConfig("v128"))
	var job Job
	json.NewDecoder(w.Body).Decode(&job)

	req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/v1/jobs/%s/stream", job.ID), nil)
	rec := httptest.NewRecorder()

	// The stream ends with the event of the finished job
	done := make(chan struct{})
	go func() {
		s.handleJobStream(rec, req, job.ID)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(30 * time.Second):
		t.Fatal("Stream did not end after job completion")
	}

	if rec.Header().Get("Content-Type") != "text/event-stream" {
		t.Error("Expected text/event-stream content type")
	}

	body := rec.Body.String()
	if !strings.Contains(body, "data: {") {
		t.Fatal("Expected SSE data in response")
	}
	if !strings.Contains(body, `"state":"completed"`) {
		t.Errorf("Expected final completed event, got:\n%s", body)
	}
}

func TestServer_JobStream_NotFound(t *testing.T) {
	s := NewServer(":8080", nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/jobs/nonexistent/stream", nil)
	w := httptest.NewRecorder()

	s.handleJobStream(w, req, "nonexistent")

	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}

func TestServer_Backends(t *testing.T) {
	s := NewServer(":8080", nil)

	w := httptest.NewRecorder()
	s.handleBackends(w, httptest.NewRequest(http.MethodGet, "/api/v1/backends", nil))

	var response struct {
		Active    string   `json:"active"`
		CPU       string   `json:"cpu"`
		Supported []string `json:"supported"`
	}
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatal(err)
	}
	if response.Active != "scalar" || response.CPU == "" || len(response.Supported) != 3 {
		t.Errorf("Unexpected backends response: %+v", response)
	}
}

func TestServer_TablesWithoutStore(t *testing.T) {
	s := NewServer(":8080", nil)

	w := httptest.NewRecorder()
	s.handleTables(w, httptest.NewRequest(http.MethodGet, "/api/v1/tables", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}

func TestEventBroadcaster(t *testing.T) {
	eb := NewEventBroadcaster()

	ch := eb.Subscribe("job1")
	defer eb.Unsubscribe("job1", ch)

	event := ProgressEvent{
		JobID:     "job1",
		State:     StateRunning,
		RowsDone:  10,
		RowsTotal: 256,
		Timestamp: time.Now(),
	}
	eb.Broadcast(event)

	select {
	case received := <-ch:
		if received.JobID != "job1" {
			t.Errorf("Expected jobID job1, got %s", received.JobID)
		}
		if received.RowsDone != 10 {
			t.Errorf("Expected 10 rows, got %d", received.RowsDone)
		}
	case <-time.After(1 * time.Second):
		t.Error("Timeout waiting for event")
	}

	// Late subscribers get the last event replayed
	late := eb.Subscribe("job1")
	select {
	case received := <-late:
		if received.RowsDone != 10 {
			t.Errorf("Expected replayed event, got %+v", received)
		}
	default:
		t.Error("Expected replayed event for late subscriber")
	}
	eb.Unsubscribe("job1", late)

	eb.CleanupJob("job1")
}
