package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	pkgerrors "github.com/notelab/notebook-backend/internal/pkg/errors"
	"github.com/notelab/notebook-backend/internal/types"
)

func newSourceService(t *testing.T) (SourceService, *testFixture) {
	t.Helper()
	db := newTestDB(t)
	user := seedUser(t, db, "owner@example.com")
	notebook := seedNotebook(t, db, user.ID)
	svc := NewSourceService(db, newNotebookRepo(t, db), newSourceRepo(t, db), nil, nopEvents{}, newTestLogger(t))
	return svc, &testFixture{db: db, user: user, notebook: notebook}
}

type testFixture struct {
	db       any
	user     *types.User
	notebook *types.Notebook
}

func TestCreateTextSource(t *testing.T) {
	svc, fx := newSourceService(t)
	ctx := authedCtx(fx.user.ID)

	src, err := svc.CreateTextSource(ctx, fx.notebook.ID, CreateTextSourceInput{
		Title:   "pasted",
		Content: "some pasted text",
	})
	if err != nil {
		t.Fatalf("create text source: %v", err)
	}
	if src.ProcessingStatus != types.SourceStatusPending {
		t.Fatalf("new sources start pending, got %s", src.ProcessingStatus)
	}

	listed, err := svc.List(ctx, fx.notebook.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(listed) != 1 || listed[0].ID != src.ID {
		t.Fatalf("created source missing from list: %+v", listed)
	}
}

func TestCreateFileSource(t *testing.T) {
	svc, fx := newSourceService(t)
	ctx := authedCtx(fx.user.ID)

	src, err := svc.CreateFileSource(ctx, fx.notebook.ID, CreateFileSourceInput{
		Type:        types.SourceTypePDF,
		Title:       "paper.pdf",
		ContentType: "application/pdf",
		FileSize:    1 << 20,
	})
	if err != nil {
		t.Fatalf("create file source: %v", err)
	}
	if src.StoragePath == "" {
		t.Fatal("file sources must get a storage path")
	}
	if !strings.HasPrefix(src.StoragePath, fx.notebook.ID.String()+"/") {
		t.Fatalf("storage keys start with the notebook id, got %q", src.StoragePath)
	}

	// Oversized files are rejected up front.
	if _, err := svc.CreateFileSource(ctx, fx.notebook.ID, CreateFileSourceInput{
		Type:        types.SourceTypePDF,
		Title:       "huge.pdf",
		ContentType: "application/pdf",
		FileSize:    200 << 20,
	}); !errors.Is(err, pkgerrors.ErrInvalidArgument) {
		t.Fatalf("want ErrInvalidArgument for oversized file, got %v", err)
	}

	// Text sources never take an upload.
	if _, err := svc.CreateFileSource(ctx, fx.notebook.ID, CreateFileSourceInput{
		Type:        types.SourceTypeText,
		Title:       "nope",
		ContentType: "text/plain",
		FileSize:    10,
	}); !errors.Is(err, pkgerrors.ErrInvalidArgument) {
		t.Fatalf("want ErrInvalidArgument for non-file type, got %v", err)
	}
}

func TestMarkUploading(t *testing.T) {
	svc, fx := newSourceService(t)
	ctx := authedCtx(fx.user.ID)

	pdf, err := svc.CreateFileSource(ctx, fx.notebook.ID, CreateFileSourceInput{
		Type:        types.SourceTypePDF,
		Title:       "paper.pdf",
		ContentType: "application/pdf",
		FileSize:    1 << 20,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	moved, err := svc.MarkUploading(ctx, pdf.ID)
	if err != nil {
		t.Fatalf("mark uploading: %v", err)
	}
	if moved.ProcessingStatus != types.SourceStatusUploading {
		t.Fatalf("want uploading, got %s", moved.ProcessingStatus)
	}

	// Second call finds the source already past pending.
	if _, err := svc.MarkUploading(ctx, pdf.ID); !errors.Is(err, pkgerrors.ErrInvalidTransition) {
		t.Fatalf("want ErrInvalidTransition, got %v", err)
	}

	text, err := svc.CreateTextSource(ctx, fx.notebook.ID, CreateTextSourceInput{Title: "t", Content: "c"})
	if err != nil {
		t.Fatalf("create text: %v", err)
	}
	if _, err := svc.MarkUploading(ctx, text.ID); !errors.Is(err, pkgerrors.ErrInvalidTransition) {
		t.Fatalf("text sources must never enter uploading, got %v", err)
	}
}

func TestResetSource(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, "owner@example.com")
	notebook := seedNotebook(t, db, user.ID)
	svc := NewSourceService(db, newNotebookRepo(t, db), newSourceRepo(t, db), nil, nopEvents{}, newTestLogger(t))
	ctx := authedCtx(user.ID)

	done := seedSource(t, db, notebook.ID, types.SourceTypeWebsite, types.SourceStatusCompleted)
	reset, err := svc.Reset(ctx, done.ID)
	if err != nil {
		t.Fatalf("reset: %v", err)
	}
	if reset.ProcessingStatus != types.SourceStatusPending {
		t.Fatalf("reset must land in pending, got %s", reset.ProcessingStatus)
	}

	inflight := seedSource(t, db, notebook.ID, types.SourceTypeWebsite, types.SourceStatusProcessing)
	if _, err := svc.Reset(ctx, inflight.ID); !errors.Is(err, pkgerrors.ErrInvalidTransition) {
		t.Fatalf("only terminal sources reset, got %v", err)
	}
}

func TestSourceOwnershipDenied(t *testing.T) {
	db := newTestDB(t)
	owner := seedUser(t, db, "owner@example.com")
	intruder := seedUser(t, db, "intruder@example.com")
	notebook := seedNotebook(t, db, owner.ID)
	src := seedSource(t, db, notebook.ID, types.SourceTypeWebsite, types.SourceStatusPending)
	svc := NewSourceService(db, newNotebookRepo(t, db), newSourceRepo(t, db), nil, nopEvents{}, newTestLogger(t))

	if _, err := svc.Get(authedCtx(intruder.ID), src.ID); !errors.Is(err, pkgerrors.ErrNotFound) {
		t.Fatalf("cross-user read must look like a missing source, got %v", err)
	}
	if _, err := svc.List(authedCtx(intruder.ID), notebook.ID); !errors.Is(err, pkgerrors.ErrNotFound) {
		t.Fatalf("cross-user list must look like a missing notebook, got %v", err)
	}
	if err := svc.Delete(authedCtx(intruder.ID), src.ID); !errors.Is(err, pkgerrors.ErrNotFound) {
		t.Fatalf("cross-user delete must be denied, got %v", err)
	}

	// Anonymous callers are rejected before ownership is even checked.
	if _, err := svc.Get(context.Background(), src.ID); !errors.Is(err, pkgerrors.ErrUnauthorized) {
		t.Fatalf("anonymous read must be unauthorized, got %v", err)
	}
}
