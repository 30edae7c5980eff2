package services

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/notelab/notebook-backend/internal/pkg/logger"
	"github.com/notelab/notebook-backend/internal/repos"
	"github.com/notelab/notebook-backend/internal/utils"
)

// StaleSourceSweeper fails sources stuck in processing longer than the
// configured threshold. The engine owns a job once accepted, so a lost
// callback would otherwise leave the source processing forever.
type StaleSourceSweeper struct {
	db       *gorm.DB
	log      *logger.Logger
	sources  repos.SourceRepo
	after    time.Duration
	interval time.Duration
}

func NewStaleSourceSweeper(db *gorm.DB, sources repos.SourceRepo, baseLog *logger.Logger) *StaleSourceSweeper {
	log := baseLog.With("service", "StaleSourceSweeper")
	return &StaleSourceSweeper{
		db:       db,
		log:      log,
		sources:  sources,
		after:    utils.GetEnvAsDuration("SOURCE_STALE_AFTER", 30*time.Minute, log),
		interval: utils.GetEnvAsDuration("SOURCE_SWEEP_INTERVAL", 5*time.Minute, log),
	}
}

// Start runs the sweep loop until the context is cancelled. A zero or
// negative threshold disables the sweeper entirely.
func (s *StaleSourceSweeper) Start(ctx context.Context) {
	if s.after <= 0 || s.interval <= 0 {
		s.log.Info("Stale source sweeper disabled")
		return
	}
	s.log.Info("Stale source sweeper started", "after", s.after, "interval", s.interval)
	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.SweepOnce(ctx)
			}
		}
	}()
}

func (s *StaleSourceSweeper) SweepOnce(ctx context.Context) int64 {
	cutoff := time.Now().Add(-s.after)
	swept, err := s.sources.FailStaleProcessing(ctx, nil, cutoff)
	if err != nil {
		s.log.Error("Stale source sweep failed", "error", err)
		return 0
	}
	if swept > 0 {
		s.log.Warn("Failed stale processing sources", "count", swept, "cutoff", cutoff)
	}
	return swept
}
