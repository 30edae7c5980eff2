package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/notelab/notebook-backend/internal/pkg/ctxutil"
	"github.com/notelab/notebook-backend/internal/pkg/logger"
	"github.com/notelab/notebook-backend/internal/realtime"
	"github.com/notelab/notebook-backend/internal/repos"
	"github.com/notelab/notebook-backend/internal/types"
)

// newTestDB opens an in-memory sqlite database with every relational
// model migrated. The embedding model stays out; its vector column only
// exists on postgres.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
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
	if err := db.AutoMigrate(
		&types.User{},
		&types.UserToken{},
		&types.Notebook{},
		&types.Source{},
		&types.Note{},
		&types.ChatMessage{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func newTestLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("dev")
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}
	return log
}

type nopEvents struct{}

func (nopEvents) PublishSourceEvent(context.Context, uuid.UUID, realtime.SSEEvent, any) {}

func seedUser(t *testing.T, db *gorm.DB, email string) *types.User {
	t.Helper()
	u := &types.User{Email: email, Password: "hashed"}
	if err := db.Create(u).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return u
}

func seedNotebook(t *testing.T, db *gorm.DB, userID uuid.UUID) *types.Notebook {
	t.Helper()
	n := &types.Notebook{UserID: userID, Title: "research"}
	if err := db.Create(n).Error; err != nil {
		t.Fatalf("seed notebook: %v", err)
	}
	return n
}

func seedSource(t *testing.T, db *gorm.DB, notebookID uuid.UUID, typ types.SourceType, status types.SourceStatus) *types.Source {
	t.Helper()
	s := &types.Source{
		NotebookID:       notebookID,
		Type:             typ,
		Title:            "seed source",
		ProcessingStatus: status,
	}
	if typ.RequiresUpload() {
		s.StoragePath = notebookID.String() + "/sources/" + uuid.NewString()
	}
	if err := db.Create(s).Error; err != nil {
		t.Fatalf("seed source: %v", err)
	}
	return s
}

func authedCtx(userID uuid.UUID) context.Context {
	return ctxutil.WithRequestData(context.Background(), &ctxutil.RequestData{UserID: userID})
}

func sourceStatus(t *testing.T, db *gorm.DB, sourceID uuid.UUID) types.SourceStatus {
	t.Helper()
	var src types.Source
	if err := db.Where("id = ?", sourceID).First(&src).Error; err != nil {
		t.Fatalf("load source: %v", err)
	}
	return src.ProcessingStatus
}

func newSourceRepo(t *testing.T, db *gorm.DB) repos.SourceRepo {
	t.Helper()
	return repos.NewSourceRepo(db, newTestLogger(t))
}

func newNotebookRepo(t *testing.T, db *gorm.DB) repos.NotebookRepo {
	t.Helper()
	return repos.NewNotebookRepo(db, newTestLogger(t))
}

func newUserRepoT(t *testing.T, db *gorm.DB) repos.UserRepo {
	t.Helper()
	return repos.NewUserRepo(db, newTestLogger(t))
}

func newUserTokenRepoT(t *testing.T, db *gorm.DB) repos.UserTokenRepo {
	t.Helper()
	return repos.NewUserTokenRepo(db, newTestLogger(t))
}

func newNoteRepoT(t *testing.T, db *gorm.DB) repos.NoteRepo {
	t.Helper()
	return repos.NewNoteRepo(db, newTestLogger(t))
}

func newChatRepoT(t *testing.T, db *gorm.DB) repos.ChatMessageRepo {
	t.Helper()
	return repos.NewChatMessageRepo(db, newTestLogger(t))
}
