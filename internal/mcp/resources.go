package mcp

import (
	"context"
	"encoding/json"
	"time"

	"github.com/claude/liftlog/internal/storage"
	"github.com/mark3labs/mcp-go/mcp"
)

func jsonResource(uri string, v any) ([]mcp.ResourceContents, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

func (h *handlers) recentWorkouts(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	end := time.Now()
	start := end.AddDate(0, 0, -14)

	summaries, err := h.svc.Workouts(ctx, user(ctx), storage.RecordFilter{
		Start: &start, End: &end, Descending: true,
	})
	if err != nil {
		return nil, err
	}
	return jsonResource(req.Params.URI, summaries)
}

func (h *handlers) exerciseLibrary(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	exercises, err := h.ds.ListExercises(ctx, "", "")
	if err != nil {
		return nil, err
	}

	type entry struct {
		Name        string `json:"name"`
		Category    string `json:"category"`
		MuscleGroup string `json:"muscle_group"`
		Equipment   string `json:"equipment"`
	}
	catalog := make([]entry, 0, len(exercises))
	for _, e := range exercises {
		catalog = append(catalog, entry{Name: e.Name, Category: e.Category, MuscleGroup: e.MuscleGroup, Equipment: e.Equipment})
	}
	return jsonResource(req.Params.URI, catalog)
}
