package services

import (
	"context"
	"testing"
	"time"

	"github.com/notelab/notebook-backend/internal/types"
)

func TestSweepOnceFailsStaleProcessing(t *testing.T) {
	t.Setenv("SOURCE_STALE_AFTER", "10m")
	t.Setenv("SOURCE_SWEEP_INTERVAL", "1m")

	db := newTestDB(t)
	user := seedUser(t, db, "owner@example.com")
	notebook := seedNotebook(t, db, user.ID)

	stale := seedSource(t, db, notebook.ID, types.SourceTypeWebsite, types.SourceStatusProcessing)
	fresh := seedSource(t, db, notebook.ID, types.SourceTypeWebsite, types.SourceStatusProcessing)
	pending := seedSource(t, db, notebook.ID, types.SourceTypeWebsite, types.SourceStatusPending)

	old := time.Now().Add(-time.Hour)
	if err := db.Model(&types.Source{}).Where("id = ?", stale.ID).
		UpdateColumn("updated_at", old).Error; err != nil {
		t.Fatalf("age source: %v", err)
	}
	if err := db.Model(&types.Source{}).Where("id = ?", pending.ID).
		UpdateColumn("updated_at", old).Error; err != nil {
		t.Fatalf("age source: %v", err)
	}

	sweeper := NewStaleSourceSweeper(db, newSourceRepo(t, db), newTestLogger(t))
	if swept := sweeper.SweepOnce(context.Background()); swept != 1 {
		t.Fatalf("want 1 swept source, got %d", swept)
	}
	if got := sourceStatus(t, db, stale.ID); got != types.SourceStatusFailed {
		t.Fatalf("stale processing source must fail, got %s", got)
	}
	if got := sourceStatus(t, db, fresh.ID); got != types.SourceStatusProcessing {
		t.Fatalf("fresh processing source must survive, got %s", got)
	}
	if got := sourceStatus(t, db, pending.ID); got != types.SourceStatusPending {
		t.Fatalf("old pending source is not the sweeper's business, got %s", got)
	}
}

func TestSweeperDisabledByZeroThreshold(t *testing.T) {
	t.Setenv("SOURCE_STALE_AFTER", "0s")

	db := newTestDB(t)
	sweeper := NewStaleSourceSweeper(db, newSourceRepo(t, db), newTestLogger(t))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	// Start returns immediately and never spawns the loop.
	sweeper.Start(ctx)
}
