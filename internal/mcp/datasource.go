package mcp

import (
	"context"
	"time"

	"github.com/claude/liftlog/internal/models"
	"github.com/claude/liftlog/internal/progress"
	"github.com/claude/liftlog/internal/storage"
)

// DataSource abstracts the data layer for MCP handlers.
// Implemented by *storage.DB (direct database) and *HTTPClient (remote REST API).
type DataSource interface {
	progress.Source
	ListExercises(ctx context.Context, group, search string) ([]models.Exercise, error)
	GetTrainingSummary(ctx context.Context, userID int, start, end time.Time, bucket string) ([]storage.TrainingSummaryPeriod, error)
}

// Compile-time check: *storage.DB satisfies DataSource.
var _ DataSource = (*storage.DB)(nil)
