package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/claude/liftlog/internal/models"
	"github.com/claude/liftlog/internal/storage"
)

// HTTPClient implements DataSource by calling the LiftLog REST API.
// Used for remote MCP mode where the binary runs locally (stdio) but
// data lives on the remote server (accessed over Tailscale). The server
// resolves the caller from the tailnet, so the userID arguments are ignored.
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
}

// Compile-time check: HTTPClient satisfies DataSource.
var _ DataSource = (*HTTPClient)(nil)

// NewHTTPClient creates an HTTPClient targeting the given base URL.
func NewHTTPClient(baseURL string) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *HTTPClient) get(ctx context.Context, path string, params url.Values, out any) error {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("httpclient: create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("httpclient: %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("httpclient: read body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("httpclient: %s returned %d: %s", path, resp.StatusCode, body)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("httpclient: decode %s: %w", path, err)
	}
	return nil
}

func timeParams(start, end time.Time) url.Values {
	v := url.Values{}
	v.Set("start", start.Format(time.RFC3339))
	v.Set("end", end.Format(time.RFC3339))
	return v
}

// filterParams encodes a RecordFilter the way the REST API parses it.
func filterParams(f storage.RecordFilter) url.Values {
	v := url.Values{}
	if f.Start != nil {
		v.Set("start", f.Start.Format(time.RFC3339))
	}
	if f.End != nil {
		v.Set("end", f.End.Format(time.RFC3339))
	}
	if f.CompletedOnly {
		v.Set("completed", "true")
	}
	if f.WorkoutID != nil {
		v.Set("workout_id", f.WorkoutID.String())
	}
	for _, id := range f.WorkoutIDs {
		v.Add("workout_id", id.String())
	}
	if f.Exercise != "" {
		v.Set("exercise", f.Exercise)
	}
	if f.Descending {
		v.Set("order", "desc")
	}
	if f.Limit > 0 {
		v.Set("limit", strconv.Itoa(f.Limit))
	}
	return v
}

func (c *HTTPClient) QueryWorkouts(ctx context.Context, _ int, f storage.RecordFilter) ([]models.WorkoutRecord, error) {
	var workouts []models.WorkoutRecord
	if err := c.get(ctx, "/api/v1/workouts", filterParams(f), &workouts); err != nil {
		return nil, err
	}
	return workouts, nil
}

func (c *HTTPClient) QueryExerciseLogs(ctx context.Context, _ int, f storage.RecordFilter) ([]models.ExerciseLogRecord, error) {
	var logs []models.ExerciseLogRecord
	if err := c.get(ctx, "/api/v1/exercise-logs", filterParams(f), &logs); err != nil {
		return nil, err
	}
	return logs, nil
}

func (c *HTTPClient) QueryBodyMeasurements(ctx context.Context, _ int, f storage.RecordFilter) ([]models.BodyMeasurementRecord, error) {
	var ms []models.BodyMeasurementRecord
	if err := c.get(ctx, "/api/v1/measurements", filterParams(f), &ms); err != nil {
		return nil, err
	}
	return ms, nil
}

func (c *HTTPClient) GetProfile(ctx context.Context, _ int) (*models.Profile, error) {
	var p models.Profile
	if err := c.get(ctx, "/api/v1/profile", nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *HTTPClient) ListExercises(ctx context.Context, group, search string) ([]models.Exercise, error) {
	params := url.Values{}
	if group != "" {
		params.Set("muscle_group", group)
	}
	if search != "" {
		params.Set("q", search)
	}
	var exercises []models.Exercise
	if err := c.get(ctx, "/api/v1/exercises", params, &exercises); err != nil {
		return nil, err
	}
	return exercises, nil
}

func (c *HTTPClient) GetTrainingSummary(ctx context.Context, _ int, start, end time.Time, bucket string) ([]storage.TrainingSummaryPeriod, error) {
	params := timeParams(start, end)
	params.Set("bucket", bucket)

	var periods []storage.TrainingSummaryPeriod
	if err := c.get(ctx, "/api/v1/training-summary", params, &periods); err != nil {
		return nil, err
	}
	return periods, nil
}
