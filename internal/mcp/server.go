package mcp

import (
	"context"
	"log/slog"

	"github.com/claude/liftlog/internal/progress"
	"github.com/claude/liftlog/internal/storage"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

type contextKey int

const userIDKey contextKey = iota

// UserIDFromContext extracts the user ID injected by the transport layer.
func UserIDFromContext(ctx context.Context) int {
	if id, ok := ctx.Value(userIDKey).(int); ok {
		return id
	}
	return 1
}

// WithUserID returns a context with the given user ID.
func WithUserID(ctx context.Context, userID int) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// New creates an MCP server with all tools and resources registered.
// Progress views are computed locally from ds with cfg.
func New(ds DataSource, cfg progress.Config, version string, log *slog.Logger) *server.MCPServer {
	s := server.NewMCPServer("LiftLog", version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithInstructions("LiftLog strength training server. Query workouts, logged sets, personal records, streaks, training volume and body weight. Weights are reported in the user's preferred unit. All data is scoped to the authenticated user."),
	)

	h := &handlers{ds: ds, svc: progress.New(ds, cfg), log: log}

	// Tools
	s.AddTools(
		server.ServerTool{Tool: toolGetWorkouts, Handler: h.getWorkouts},
		server.ServerTool{Tool: toolGetExerciseLogs, Handler: h.getExerciseLogs},
		server.ServerTool{Tool: toolGetPersonalRecords, Handler: h.getPersonalRecords},
		server.ServerTool{Tool: toolGetStreak, Handler: h.getStreak},
		server.ServerTool{Tool: toolGetTrainingVolume, Handler: h.getTrainingVolume},
		server.ServerTool{Tool: toolGetBodyWeight, Handler: h.getBodyWeight},
		server.ServerTool{Tool: toolGetProgressOverview, Handler: h.getProgressOverview},
	)

	// Resources
	s.AddResources(
		server.ServerResource{Resource: resRecentWorkouts, Handler: h.recentWorkouts},
		server.ServerResource{Resource: resExerciseLibrary, Handler: h.exerciseLibrary},
	)

	return s
}

// handlers holds dependencies for MCP tool/resource handlers.
type handlers struct {
	ds  DataSource
	svc *progress.Service
	log *slog.Logger
}

// user returns the caller as a storage user for the progress service.
func user(ctx context.Context) *storage.User {
	return &storage.User{ID: UserIDFromContext(ctx)}
}

// --- Resource definitions ---

var resRecentWorkouts = mcp.NewResource(
	"liftlog://recent_workouts",
	"Recent Workouts",
	mcp.WithResourceDescription("Workouts from the last 14 days with their set counts and volume"),
	mcp.WithMIMEType("application/json"),
)

var resExerciseLibrary = mcp.NewResource(
	"liftlog://exercise_library",
	"Exercise Library",
	mcp.WithResourceDescription("All exercises in the library with category, muscle group and equipment"),
	mcp.WithMIMEType("application/json"),
)
