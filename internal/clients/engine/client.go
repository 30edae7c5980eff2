package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/notelab/notebook-backend/internal/pkg/httpx"
	"github.com/notelab/notebook-backend/internal/pkg/logger"
	"github.com/notelab/notebook-backend/internal/utils"
)

// DocumentJob describes one uploaded file for the external workflow
// engine. The engine answers later through the callback endpoint; the
// submit response only confirms acceptance.
type DocumentJob struct {
	SourceID    uuid.UUID `json:"source_id"`
	FilePath    string    `json:"file_path"`
	FileURL     string    `json:"file_url,omitempty"`
	SourceType  string    `json:"source_type"`
	CallbackURL string    `json:"callback_url"`
}

// BatchJob describes a whole batch of pasted text or website URLs in a
// single submission.
type BatchJob struct {
	Type        string      `json:"type"`
	NotebookID  uuid.UUID   `json:"notebook_id"`
	URLs        []string    `json:"urls,omitempty"`
	Content     string      `json:"content,omitempty"`
	SourceIDs   []uuid.UUID `json:"source_ids"`
	CallbackURL string      `json:"callback_url"`
	Timestamp   time.Time   `json:"timestamp"`
}

type Client interface {
	SubmitDocumentJob(ctx context.Context, job DocumentJob) error
	SubmitBatchJob(ctx context.Context, job BatchJob) error
}

type Config struct {
	WebhookURL  string
	AuthToken   string
	CallbackURL string
	Timeout     time.Duration
}

type client struct {
	log  *logger.Logger
	cfg  Config
	http *http.Client
}

func NewClient(log *logger.Logger) (Client, error) {
	clientLog := log.With("client", "EngineClient")
	cfg := Config{
		WebhookURL:  utils.GetEnv("NOTEBOOK_GENERATION_WEBHOOK_URL", "", log),
		AuthToken:   utils.GetEnv("NOTEBOOK_GENERATION_AUTH", "", log),
		CallbackURL: utils.GetEnv("NOTEBOOK_GENERATION_CALLBACK_URL", "", log),
		Timeout:     utils.GetEnvAsDuration("ENGINE_TIMEOUT", 30*time.Second, log),
	}
	if strings.TrimSpace(cfg.WebhookURL) == "" {
		return nil, fmt.Errorf("missing env var NOTEBOOK_GENERATION_WEBHOOK_URL")
	}
	return NewClientWithConfig(clientLog, cfg), nil
}

func NewClientWithConfig(log *logger.Logger, cfg Config) Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &client{
		log:  log,
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
	}
}

func (c *client) SubmitDocumentJob(ctx context.Context, job DocumentJob) error {
	if job.CallbackURL == "" {
		job.CallbackURL = c.cfg.CallbackURL
	}
	return c.post(ctx, job)
}

func (c *client) SubmitBatchJob(ctx context.Context, job BatchJob) error {
	if job.CallbackURL == "" {
		job.CallbackURL = c.cfg.CallbackURL
	}
	if job.Timestamp.IsZero() {
		job.Timestamp = time.Now().UTC()
	}
	return c.post(ctx, job)
}

// post fires the job at the engine's webhook once, with a single retry
// on retryable statuses. The engine owns the job after acceptance; the
// result arrives on the callback endpoint keyed by source id.
func (c *client) post(ctx context.Context, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal job payload: %w", err)
	}

	attempt := func() (int, error) {
		ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.WebhookURL, bytes.NewReader(body))
		if err != nil {
			return 0, fmt.Errorf("build webhook request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		if c.cfg.AuthToken != "" {
			req.Header.Set("Authorization", "Bearer "+c.cfg.AuthToken)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return 0, fmt.Errorf("forward job to engine: %w", err)
		}
		defer resp.Body.Close()
		_, _ = io.Copy(io.Discard, resp.Body)

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return resp.StatusCode, fmt.Errorf("engine webhook returned status %d", resp.StatusCode)
		}
		return resp.StatusCode, nil
	}

	status, err := attempt()
	if err == nil {
		return nil
	}
	if httpx.IsRetryableHTTPStatus(status) || httpx.IsRetryableError(err) {
		sleep := httpx.JitterSleep(500 * time.Millisecond)
		select {
		case <-ctx.Done():
			return err
		case <-time.After(sleep):
		}
		c.log.Warn("Retrying engine webhook", "error", err)
		if _, retryErr := attempt(); retryErr == nil {
			return nil
		}
	}
	c.log.Error("Engine webhook failed", "error", err)
	return err
}
