package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/notelab/notebook-backend/internal/pkg/logger"
	"github.com/notelab/notebook-backend/internal/realtime"
	"github.com/notelab/notebook-backend/internal/repos"
	"github.com/notelab/notebook-backend/internal/services"
	"github.com/notelab/notebook-backend/internal/types"
)

type nopPublisher struct{}

func (nopPublisher) PublishSourceEvent(context.Context, uuid.UUID, realtime.SSEEvent, any) {}

func newCallbackRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("unwrap sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := db.AutoMigrate(&types.User{}, &types.Notebook{}, &types.Source{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	log, err := logger.New("dev")
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}
	svc := services.NewCallbackService(db, repos.NewSourceRepo(db, log), nopPublisher{}, log)
	h := NewCallbackHandler(svc, log)

	r := gin.New()
	r.POST("/api/callback/process-source", h.ProcessSource)
	return r, db
}

func seedProcessingSource(t *testing.T, db *gorm.DB) *types.Source {
	t.Helper()
	user := &types.User{Email: "owner@example.com", Password: "x"}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	notebook := &types.Notebook{UserID: user.ID, Title: "nb"}
	if err := db.Create(notebook).Error; err != nil {
		t.Fatalf("seed notebook: %v", err)
	}
	src := &types.Source{
		NotebookID:       notebook.ID,
		Type:             types.SourceTypeWebsite,
		Title:            "pending title",
		ProcessingStatus: types.SourceStatusProcessing,
	}
	if err := db.Create(src).Error; err != nil {
		t.Fatalf("seed source: %v", err)
	}
	return src
}

func postCallback(t *testing.T, r *gin.Engine, body map[string]any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/api/callback/process-source", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCallbackMissingSourceID(t *testing.T) {
	r, _ := newCallbackRouter(t)
	w := postCallback(t, r, map[string]any{"title": "no id"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("want 400, got %d: %s", w.Code, w.Body.String())
	}
}

func TestCallbackUnknownSource(t *testing.T) {
	r, _ := newCallbackRouter(t)
	w := postCallback(t, r, map[string]any{"source_id": uuid.NewString()})
	if w.Code != http.StatusNotFound {
		t.Fatalf("want 404, got %d: %s", w.Code, w.Body.String())
	}
}

func TestCallbackCompletesSource(t *testing.T) {
	r, db := newCallbackRouter(t)
	src := seedProcessingSource(t, db)

	w := postCallback(t, r, map[string]any{
		"source_id": src.ID.String(),
		"title":     "final title",
		"summary":   "a summary",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("want 200, got %d: %s", w.Code, w.Body.String())
	}

	var reloaded types.Source
	if err := db.Where("id = ?", src.ID).First(&reloaded).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.ProcessingStatus != types.SourceStatusCompleted {
		t.Fatalf("want completed, got %s", reloaded.ProcessingStatus)
	}
	if reloaded.Title != "final title" {
		t.Fatalf("title not applied: %q", reloaded.Title)
	}
}

func TestCallbackErrorFailsSource(t *testing.T) {
	r, db := newCallbackRouter(t)
	src := seedProcessingSource(t, db)

	w := postCallback(t, r, map[string]any{
		"source_id": src.ID.String(),
		"error":     "could not fetch page",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("want 200, got %d: %s", w.Code, w.Body.String())
	}

	var reloaded types.Source
	if err := db.Where("id = ?", src.ID).First(&reloaded).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.ProcessingStatus != types.SourceStatusFailed {
		t.Fatalf("want failed, got %s", reloaded.ProcessingStatus)
	}
}
