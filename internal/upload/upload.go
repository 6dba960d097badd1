package upload

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/claude/liftlog/internal/ingest"
)

const (
	kindAlpha = "alpha"
	kindHAE   = "hae"
)

// Stats tracks upload progress.
type Stats struct {
	FilesTotal    int
	FilesUploaded int
	FilesSkipped  int
	FilesErrored  int
	ingest.Result
}

// Sender posts export files to the server. It is satisfied by *Client.
type Sender interface {
	SendAlphaCSV(ctx context.Context, data []byte) (*ingest.Result, error)
	SendHAEJSON(ctx context.Context, data []byte) (*ingest.Result, error)
}

// Uploader walks an export directory and sends each new or changed file
// to the server.
type Uploader struct {
	sender Sender
	state  *StateDB
	root   string
	dryRun bool
	log    *slog.Logger
	stats  Stats
}

// New creates a new Uploader.
func New(sender Sender, state *StateDB, root string, dryRun bool, log *slog.Logger) *Uploader {
	return &Uploader{sender: sender, state: state, root: root, dryRun: dryRun, log: log}
}

// fileKind maps an extension to an ingest endpoint, or "" if unsupported.
func fileKind(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return kindAlpha
	case ".json":
		return kindHAE
	}
	return ""
}

// Run walks the directory. Files that fail to send are counted and left
// unmarked so the next run retries them.
func (u *Uploader) Run(ctx context.Context) (*Stats, error) {
	err := filepath.WalkDir(u.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		kind := fileKind(path)
		if kind == "" {
			return nil
		}
		u.stats.FilesTotal++
		u.processFile(ctx, path, kind)
		return nil
	})
	if err != nil {
		return &u.stats, fmt.Errorf("walking %s: %w", u.root, err)
	}
	return &u.stats, nil
}

func (u *Uploader) processFile(ctx context.Context, path, kind string) {
	relPath, _ := filepath.Rel(u.root, path)

	info, err := os.Stat(path)
	if err != nil {
		u.log.Warn("stat failed", "file", relPath, "error", err)
		u.stats.FilesErrored++
		return
	}
	hash, err := HashFile(path)
	if err != nil {
		u.log.Warn("hash failed", "file", relPath, "error", err)
		u.stats.FilesErrored++
		return
	}
	sent, err := u.state.IsUploaded(ctx, relPath, info.Size(), hash)
	if err != nil {
		u.log.Warn("state check failed", "file", relPath, "error", err)
		u.stats.FilesErrored++
		return
	}
	if sent {
		u.stats.FilesSkipped++
		return
	}

	if u.dryRun {
		u.log.Info("would upload", "file", relPath, "kind", kind, "bytes", info.Size())
		u.stats.FilesUploaded++
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		u.log.Warn("read failed", "file", relPath, "error", err)
		u.stats.FilesErrored++
		return
	}

	var res *ingest.Result
	if kind == kindAlpha {
		res, err = u.sender.SendAlphaCSV(ctx, data)
	} else {
		res, err = u.sender.SendHAEJSON(ctx, data)
	}
	if err != nil {
		u.log.Error("upload failed", "file", relPath, "error", err)
		u.stats.FilesErrored++
		return
	}

	if err := u.state.MarkUploaded(ctx, relPath, kind, info.Size(), hash); err != nil {
		u.log.Warn("failed to record upload", "file", relPath, "error", err)
	}
	u.stats.FilesUploaded++
	u.stats.Add(res)
	u.log.Info("uploaded", "file", relPath, "kind", kind,
		"workouts", res.WorkoutsStored, "sets", res.SetsInserted, "measurements", res.MeasurementsInserted)
}
