package importer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/claude/liftlog/internal/ingest"
	"github.com/claude/liftlog/internal/ingest/alpha"
	"github.com/claude/liftlog/internal/ingest/hae"
	"github.com/claude/liftlog/internal/models"
	"github.com/claude/liftlog/internal/storage"
)

// Stats tracks import progress.
type Stats struct {
	FilesProcessed int
	FilesSkipped   int
	FilesErrored   int
	ingest.Result
}

// ImportLogger records the outcome of a run. It is satisfied by *storage.DB.
type ImportLogger interface {
	InsertImportLog(ctx context.Context, log storage.ImportLog) (int64, error)
}

// Importer reads Alpha Progression CSV exports and Health Auto Export JSON
// files from a directory tree and stores them for one user.
type Importer struct {
	alpha  *alpha.Provider
	hae    *hae.Provider
	logs   ImportLogger
	log    *slog.Logger
	userID int
	dryRun bool
	stats  Stats
}

// New creates an Importer. In dry-run mode files are parsed and counted
// but nothing is written. logs may be nil.
func New(store ingest.Store, logs ImportLogger, userID int, loc *time.Location, log *slog.Logger, dryRun bool) *Importer {
	if dryRun {
		store = countingStore{}
		logs = nil
	}
	return &Importer{
		alpha:  alpha.NewProvider(store, loc, log),
		hae:    hae.NewProvider(store, log),
		logs:   logs,
		log:    log,
		userID: userID,
		dryRun: dryRun,
	}
}

// Import processes every .csv and .json file under dir in lexical order.
// Unreadable or unparseable files are counted and skipped; a storage
// failure stops the run.
func (imp *Importer) Import(ctx context.Context, dir string) (*Stats, error) {
	start := time.Now()
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		return imp.importFile(ctx, path)
	})
	imp.record(ctx, start, err)
	if err != nil {
		return &imp.stats, fmt.Errorf("importing %s: %w", dir, err)
	}
	return &imp.stats, nil
}

func (imp *Importer) importFile(ctx context.Context, path string) error {
	var (
		res *ingest.Result
		err error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		res, err = imp.importCSV(ctx, path)
	case ".json":
		res, err = imp.importJSON(ctx, path)
	default:
		imp.stats.FilesSkipped++
		return nil
	}
	if err != nil {
		var fe fileError
		if errors.As(err, &fe) {
			imp.log.Warn("skipping file", "file", path, "error", err)
			imp.stats.FilesErrored++
			return nil
		}
		return fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	imp.stats.FilesProcessed++
	imp.stats.Add(res)
	imp.log.Info("imported file", "file", filepath.Base(path),
		"workouts", res.WorkoutsStored, "sets", res.SetsInserted, "measurements", res.MeasurementsInserted)
	return nil
}

func (imp *Importer) importCSV(ctx context.Context, path string) (*ingest.Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fileError{err}
	}
	defer f.Close()
	sessions, err := alpha.Parse(f)
	if err != nil {
		return nil, fileError{err}
	}
	return imp.alpha.IngestSessions(ctx, sessions, imp.userID)
}

func (imp *Importer) importJSON(ctx context.Context, path string) (*ingest.Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fileError{err}
	}
	var payload models.HAEPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fileError{err}
	}
	return imp.hae.Ingest(ctx, &payload, imp.userID)
}

// record writes an import log for a real run.
func (imp *Importer) record(ctx context.Context, start time.Time, runErr error) {
	if imp.logs == nil {
		return
	}
	ms := int(time.Since(start).Milliseconds())
	entry := storage.ImportLog{
		UserID:               imp.userID,
		Source:               "import_cli",
		Status:               "success",
		WorkoutsReceived:     imp.stats.WorkoutsReceived,
		WorkoutsInserted:     imp.stats.WorkoutsStored,
		SetsInserted:         imp.stats.SetsInserted,
		MeasurementsInserted: imp.stats.MeasurementsInserted,
		DurationMs:           &ms,
	}
	if runErr != nil {
		msg := runErr.Error()
		entry.Status = "error"
		entry.ErrorMessage = &msg
	}
	meta, _ := json.Marshal(map[string]int{
		"files_processed": imp.stats.FilesProcessed,
		"files_skipped":   imp.stats.FilesSkipped,
		"files_errored":   imp.stats.FilesErrored,
	})
	raw := json.RawMessage(meta)
	entry.Metadata = &raw
	if _, err := imp.logs.InsertImportLog(ctx, entry); err != nil {
		imp.log.Warn("failed to record import log", "error", err)
	}
}

// fileError marks a problem with one input file rather than with storage.
type fileError struct{ err error }

func (e fileError) Error() string { return e.err.Error() }
func (e fileError) Unwrap() error { return e.err }

// countingStore stands in for the database during a dry run.
type countingStore struct{}

func (countingStore) UpsertWorkout(_ context.Context, _ models.WorkoutRecord, logs []models.ExerciseLogRecord) (int64, error) {
	return int64(len(logs)), nil
}

func (countingStore) InsertBodyMeasurements(_ context.Context, ms []models.BodyMeasurementRecord) (int64, error) {
	return int64(len(ms)), nil
}
