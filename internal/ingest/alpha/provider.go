package alpha

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/claude/liftlog/internal/ingest"
	"github.com/claude/liftlog/internal/models"
)

// Provider processes Alpha Progression CSV exports.
type Provider struct {
	store ingest.Store
	loc   *time.Location
	log   *slog.Logger
}

// NewProvider creates a new Alpha Progression ingest provider. Export
// times are read in loc.
func NewProvider(store ingest.Store, loc *time.Location, log *slog.Logger) *Provider {
	if loc == nil {
		loc = time.Local
	}
	return &Provider{store: store, loc: loc, log: log}
}

// Ingest parses a CSV export and stores each session as a completed
// workout. Sessions already imported are replaced.
func (p *Provider) Ingest(ctx context.Context, r io.Reader, userID int) (*ingest.Result, error) {
	sessions, err := Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parsing CSV: %w", err)
	}
	return p.IngestSessions(ctx, sessions, userID)
}

// IngestSessions stores already parsed sessions.
func (p *Provider) IngestSessions(ctx context.Context, sessions []models.AlphaSession, userID int) (*ingest.Result, error) {
	workouts, warmups := Convert(sessions, userID, p.loc)
	result := &ingest.Result{WorkoutsReceived: len(workouts), WarmupsSkipped: warmups}
	for _, w := range workouts {
		result.SetsReceived += len(w.Logs)
		inserted, err := p.store.UpsertWorkout(ctx, w.Record, w.Logs)
		if err != nil {
			return result, fmt.Errorf("storing session %q: %w", w.Record.Name, err)
		}
		result.WorkoutsStored++
		result.SetsInserted += inserted
	}

	p.log.Info("alpha import",
		"user_id", userID,
		"workouts", result.WorkoutsStored,
		"sets", result.SetsInserted,
		"warmups_skipped", warmups,
	)
	return result, nil
}
