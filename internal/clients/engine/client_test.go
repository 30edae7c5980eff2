package engine

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/notelab/notebook-backend/internal/pkg/logger"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("dev")
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}
	return log
}

func TestSubmitDocumentJob(t *testing.T) {
	var got DocumentJob
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("want POST, got %s", r.Method)
		}
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode job: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClientWithConfig(testLogger(t), Config{
		WebhookURL:  srv.URL,
		AuthToken:   "secret-token",
		CallbackURL: "https://backend.example/api/callback/process-source",
		Timeout:     5 * time.Second,
	})

	sourceID := uuid.New()
	err := c.SubmitDocumentJob(context.Background(), DocumentJob{
		SourceID:   sourceID,
		FilePath:   "notebooks/nb/sources/src",
		SourceType: "pdf",
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if gotAuth != "Bearer secret-token" {
		t.Fatalf("want bearer auth header, got %q", gotAuth)
	}
	if got.SourceID != sourceID || got.SourceType != "pdf" {
		t.Fatalf("payload mismatch: %+v", got)
	}
	if got.CallbackURL != "https://backend.example/api/callback/process-source" {
		t.Fatalf("callback url not defaulted: %q", got.CallbackURL)
	}
}

func TestSubmitBatchJobStampsTimestamp(t *testing.T) {
	var got BatchJob
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode job: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClientWithConfig(testLogger(t), Config{WebhookURL: srv.URL, Timeout: 5 * time.Second})
	err := c.SubmitBatchJob(context.Background(), BatchJob{
		Type:       "website",
		NotebookID: uuid.New(),
		URLs:       []string{"https://a.example"},
		SourceIDs:  []uuid.UUID{uuid.New()},
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if got.Timestamp.IsZero() {
		t.Fatal("batch jobs carry a submission timestamp")
	}
}

func TestSubmitRejectedStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	c := NewClientWithConfig(testLogger(t), Config{WebhookURL: srv.URL, Timeout: 5 * time.Second})
	if err := c.SubmitDocumentJob(context.Background(), DocumentJob{SourceID: uuid.New()}); err == nil {
		t.Fatal("want error on non-2xx status")
	}
}

func TestSubmitRetriesOnServerError(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClientWithConfig(testLogger(t), Config{WebhookURL: srv.URL, Timeout: 5 * time.Second})
	if err := c.SubmitDocumentJob(context.Background(), DocumentJob{SourceID: uuid.New()}); err != nil {
		t.Fatalf("retryable status must be retried once: %v", err)
	}
	if calls.Load() != 2 {
		t.Fatalf("want 2 attempts, got %d", calls.Load())
	}
}
