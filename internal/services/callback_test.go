package services

import (
	"errors"
	"testing"

	"github.com/google/uuid"

	pkgerrors "github.com/notelab/notebook-backend/internal/pkg/errors"
	"github.com/notelab/notebook-backend/internal/types"
)

func TestApplyResultRequiresSourceID(t *testing.T) {
	db := newTestDB(t)
	svc := NewCallbackService(db, newSourceRepo(t, db), nopEvents{}, newTestLogger(t))

	_, err := svc.ApplyResult(authedCtx(uuid.New()), CallbackResult{})
	if !errors.Is(err, pkgerrors.ErrInvalidArgument) {
		t.Fatalf("want ErrInvalidArgument for missing source_id, got %v", err)
	}

	_, err = svc.ApplyResult(authedCtx(uuid.New()), CallbackResult{SourceID: "not-a-uuid"})
	if !errors.Is(err, pkgerrors.ErrInvalidArgument) {
		t.Fatalf("want ErrInvalidArgument for malformed source_id, got %v", err)
	}
}

func TestApplyResultUnknownSource(t *testing.T) {
	db := newTestDB(t)
	svc := NewCallbackService(db, newSourceRepo(t, db), nopEvents{}, newTestLogger(t))

	_, err := svc.ApplyResult(authedCtx(uuid.New()), CallbackResult{SourceID: uuid.NewString()})
	if !errors.Is(err, pkgerrors.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestApplyResultCompletes(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, "owner@example.com")
	notebook := seedNotebook(t, db, user.ID)
	src := seedSource(t, db, notebook.ID, types.SourceTypeWebsite, types.SourceStatusProcessing)
	svc := NewCallbackService(db, newSourceRepo(t, db), nopEvents{}, newTestLogger(t))

	updated, err := svc.ApplyResult(authedCtx(user.ID), CallbackResult{
		SourceID: src.ID.String(),
		Title:    "Fetched Page",
		Summary:  "a summary",
		Content:  "the extracted text",
	})
	if err != nil {
		t.Fatalf("apply result: %v", err)
	}
	if updated.ProcessingStatus != types.SourceStatusCompleted {
		t.Fatalf("want completed, got %s", updated.ProcessingStatus)
	}
	if updated.Title != "Fetched Page" || updated.Summary != "a summary" || updated.Content != "the extracted text" {
		t.Fatalf("result fields not written: %+v", updated)
	}
}

func TestApplyResultErrorFails(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, "owner@example.com")
	notebook := seedNotebook(t, db, user.ID)
	src := seedSource(t, db, notebook.ID, types.SourceTypeWebsite, types.SourceStatusProcessing)
	svc := NewCallbackService(db, newSourceRepo(t, db), nopEvents{}, newTestLogger(t))

	updated, err := svc.ApplyResult(authedCtx(user.ID), CallbackResult{
		SourceID: src.ID.String(),
		Title:    "partial title",
		Error:    "extraction timed out",
	})
	if err != nil {
		t.Fatalf("apply result: %v", err)
	}
	if updated.ProcessingStatus != types.SourceStatusFailed {
		t.Fatalf("want failed when error present, got %s", updated.ProcessingStatus)
	}
	if updated.Title != "partial title" {
		t.Fatalf("fields sent alongside an error must still be written, got title %q", updated.Title)
	}
}

func TestApplyResultTitlePrecedence(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, "owner@example.com")
	notebook := seedNotebook(t, db, user.ID)
	svc := NewCallbackService(db, newSourceRepo(t, db), nopEvents{}, newTestLogger(t))

	src := seedSource(t, db, notebook.ID, types.SourceTypeWebsite, types.SourceStatusProcessing)
	updated, err := svc.ApplyResult(authedCtx(user.ID), CallbackResult{
		SourceID:    src.ID.String(),
		Title:       "canonical title",
		DisplayName: "display name",
	})
	if err != nil {
		t.Fatalf("apply result: %v", err)
	}
	if updated.Title != "canonical title" {
		t.Fatalf("title must beat display_name, got %q", updated.Title)
	}

	src2 := seedSource(t, db, notebook.ID, types.SourceTypeWebsite, types.SourceStatusProcessing)
	updated2, err := svc.ApplyResult(authedCtx(user.ID), CallbackResult{
		SourceID:    src2.ID.String(),
		DisplayName: "display only",
	})
	if err != nil {
		t.Fatalf("apply result: %v", err)
	}
	if updated2.Title != "display only" {
		t.Fatalf("display_name must fill in when title is absent, got %q", updated2.Title)
	}
}

func TestApplyResultPartialNeverBlanks(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, "owner@example.com")
	notebook := seedNotebook(t, db, user.ID)
	src := seedSource(t, db, notebook.ID, types.SourceTypeWebsite, types.SourceStatusProcessing)
	svc := NewCallbackService(db, newSourceRepo(t, db), nopEvents{}, newTestLogger(t))

	if _, err := svc.ApplyResult(authedCtx(user.ID), CallbackResult{
		SourceID: src.ID.String(),
		Title:    "first delivery",
		Content:  "full content",
	}); err != nil {
		t.Fatalf("first delivery: %v", err)
	}

	updated, err := svc.ApplyResult(authedCtx(user.ID), CallbackResult{
		SourceID: src.ID.String(),
		Summary:  "late summary",
	})
	if err != nil {
		t.Fatalf("second delivery: %v", err)
	}
	if updated.Title != "first delivery" || updated.Content != "full content" {
		t.Fatalf("sparse delivery blanked earlier fields: %+v", updated)
	}
	if updated.Summary != "late summary" {
		t.Fatalf("summary not written, got %q", updated.Summary)
	}
}

func TestApplyResultExplicitStatus(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, "owner@example.com")
	notebook := seedNotebook(t, db, user.ID)
	svc := NewCallbackService(db, newSourceRepo(t, db), nopEvents{}, newTestLogger(t))

	src := seedSource(t, db, notebook.ID, types.SourceTypeWebsite, types.SourceStatusProcessing)
	updated, err := svc.ApplyResult(authedCtx(user.ID), CallbackResult{
		SourceID: src.ID.String(),
		Status:   "failed",
	})
	if err != nil {
		t.Fatalf("apply result: %v", err)
	}
	if updated.ProcessingStatus != types.SourceStatusFailed {
		t.Fatalf("explicit status must win over the completed default, got %s", updated.ProcessingStatus)
	}

	// The error field beats an explicit status.
	src2 := seedSource(t, db, notebook.ID, types.SourceTypeWebsite, types.SourceStatusProcessing)
	updated2, err := svc.ApplyResult(authedCtx(user.ID), CallbackResult{
		SourceID: src2.ID.String(),
		Status:   "completed",
		Error:    "engine exploded",
	})
	if err != nil {
		t.Fatalf("apply result: %v", err)
	}
	if updated2.ProcessingStatus != types.SourceStatusFailed {
		t.Fatalf("error must force failed, got %s", updated2.ProcessingStatus)
	}

	// Statuses outside the closed set never reach the column.
	src3 := seedSource(t, db, notebook.ID, types.SourceTypeWebsite, types.SourceStatusProcessing)
	if _, err := svc.ApplyResult(authedCtx(user.ID), CallbackResult{
		SourceID: src3.ID.String(),
		Status:   "done",
	}); !errors.Is(err, pkgerrors.ErrInvalidArgument) {
		t.Fatalf("unknown status must be rejected, got %v", err)
	}
	if got := sourceStatus(t, db, src3.ID); got != types.SourceStatusProcessing {
		t.Fatalf("rejected callback must not mutate, got %s", got)
	}

	// Non-terminal statuses are real states but not legitimate callback
	// outcomes; a completed source must not be rewound to uploading.
	src4 := seedSource(t, db, notebook.ID, types.SourceTypePDF, types.SourceStatusCompleted)
	if _, err := svc.ApplyResult(authedCtx(user.ID), CallbackResult{
		SourceID: src4.ID.String(),
		Status:   string(types.SourceStatusUploading),
	}); !errors.Is(err, pkgerrors.ErrInvalidArgument) {
		t.Fatalf("non-terminal status must be rejected, got %v", err)
	}
	if got := sourceStatus(t, db, src4.ID); got != types.SourceStatusCompleted {
		t.Fatalf("rejected callback must not rewind the source, got %s", got)
	}
}

func TestApplyResultIdempotent(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, "owner@example.com")
	notebook := seedNotebook(t, db, user.ID)
	src := seedSource(t, db, notebook.ID, types.SourceTypeWebsite, types.SourceStatusProcessing)
	svc := NewCallbackService(db, newSourceRepo(t, db), nopEvents{}, newTestLogger(t))

	result := CallbackResult{
		SourceID: src.ID.String(),
		Title:    "stable title",
		Content:  "stable content",
	}
	first, err := svc.ApplyResult(authedCtx(user.ID), result)
	if err != nil {
		t.Fatalf("first delivery: %v", err)
	}
	second, err := svc.ApplyResult(authedCtx(user.ID), result)
	if err != nil {
		t.Fatalf("duplicate delivery must succeed: %v", err)
	}
	if first.ProcessingStatus != second.ProcessingStatus ||
		first.Title != second.Title || first.Content != second.Content {
		t.Fatalf("duplicate delivery changed state: %+v vs %+v", first, second)
	}
}
