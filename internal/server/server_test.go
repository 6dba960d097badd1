package server

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"testing/fstest"
	"time"

	"github.com/claude/liftlog/internal/metrics"
	"github.com/claude/liftlog/internal/models"
	"github.com/claude/liftlog/internal/progress"
	"github.com/claude/liftlog/internal/session"
	"github.com/claude/liftlog/internal/storage"
	"github.com/google/uuid"
	"tailscale.com/client/tailscale/apitype"
	"tailscale.com/tailcfg"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeRecorder struct {
	mu   sync.Mutex
	logs []models.ExerciseLogRecord
}

func (f *fakeRecorder) RecordWorkout(_ context.Context, _ models.WorkoutRecord, logs []models.ExerciseLogRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logs = append(f.logs, logs...)
	return nil
}

// fakeSource serves progress views from memory.
type fakeSource struct {
	workouts []models.WorkoutRecord
	calls    int
}

func (f *fakeSource) QueryWorkouts(context.Context, int, storage.RecordFilter) ([]models.WorkoutRecord, error) {
	f.calls++
	return f.workouts, nil
}

func (f *fakeSource) QueryExerciseLogs(context.Context, int, storage.RecordFilter) ([]models.ExerciseLogRecord, error) {
	f.calls++
	return nil, nil
}

func (f *fakeSource) QueryBodyMeasurements(context.Context, int, storage.RecordFilter) ([]models.BodyMeasurementRecord, error) {
	f.calls++
	return nil, nil
}

func (f *fakeSource) GetProfile(_ context.Context, userID int) (*models.Profile, error) {
	f.calls++
	return &models.Profile{UserID: userID, WeightUnit: "kg", HeightUnit: "cm"}, nil
}

var testNow = time.Date(2026, 3, 12, 20, 0, 0, 0, time.UTC)

func newTestServer(t *testing.T) (*Server, *fakeRecorder, *fakeSource) {
	t.Helper()
	rec := &fakeRecorder{}
	mgr := session.NewManager(rec, 90, quietLogger())
	t.Cleanup(mgr.Close)
	src := &fakeSource{}
	svc := progress.New(src, progress.Config{Location: time.UTC, Now: func() time.Time { return testNow }})
	s := New(nil, svc, mgr, nil, nil, Config{APIKey: "secret", ExtendSeconds: 30}, quietLogger())
	return s, rec, src
}

func testRoutine() models.Routine {
	return models.Routine{
		ID:   uuid.New(),
		Name: "Push Day",
		Exercises: []models.RoutineExercise{
			{Name: "Bench Press", Sets: 2, Reps: 8, WeightKg: 60},
			{Name: "Dips", Sets: 1, Reps: 10},
		},
	}
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeAction(t *testing.T, rec *httptest.ResponseRecorder) actionResult {
	t.Helper()
	var res actionResult
	if err := json.NewDecoder(rec.Body).Decode(&res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return res
}

// TestSessionLifecycle drives a session through toggle, adjust and finish.
func TestSessionLifecycle(t *testing.T) {
	s, rec, _ := newTestServer(t)
	id, err := s.sessions.Start(1, testRoutine(), metrics.Kilograms)
	if err != nil {
		t.Fatal(err)
	}
	base := "/api/v1/sessions/" + id.String()

	resp := do(t, s, http.MethodGet, base, "")
	if resp.Code != http.StatusOK {
		t.Fatalf("get status = %d", resp.Code)
	}

	res := decodeAction(t, do(t, s, http.MethodPost, base+"/sets/1/1/toggle", ""))
	if !res.Applied || res.Session.CompletedSets != 1 || !res.Session.Rest.Active {
		t.Errorf("toggle = %+v", res)
	}

	res = decodeAction(t, do(t, s, http.MethodPost, base+"/sets/9/1/toggle", ""))
	if res.Applied || res.Session.CompletedSets != 1 {
		t.Errorf("toggle of missing set = %+v", res)
	}

	res = decodeAction(t, do(t, s, http.MethodPost, base+"/sets/1/1/adjust", `{"field":"weight","delta":5}`))
	if !res.Applied || res.Session.Exercises[0].Sets[0].Weight != 65 {
		t.Errorf("adjust = %+v", res.Session.Exercises[0])
	}

	res = decodeAction(t, do(t, s, http.MethodPost, base+"/rest/extend", ""))
	if !res.Applied || res.Session.Rest.Remaining < 90 {
		t.Errorf("extend = %+v", res.Session.Rest)
	}

	res = decodeAction(t, do(t, s, http.MethodPost, base+"/rest/skip", ""))
	if res.Session.Rest.Active {
		t.Error("rest still active after skip")
	}

	res = decodeAction(t, do(t, s, http.MethodPost, base+"/rest/extend", `{"seconds":15}`))
	if res.Applied {
		t.Error("extend applied while rest idle")
	}

	res = decodeAction(t, do(t, s, http.MethodPost, base+"/pause", ""))
	if !res.Session.Paused {
		t.Error("session not paused")
	}

	resp = do(t, s, http.MethodPost, base+"/finish", "")
	if resp.Code != http.StatusCreated {
		t.Fatalf("finish status = %d: %s", resp.Code, resp.Body)
	}
	if len(rec.logs) != 1 || *rec.logs[0].WeightKg != 65 {
		t.Errorf("recorded logs = %+v", rec.logs)
	}

	if resp := do(t, s, http.MethodGet, base, ""); resp.Code != http.StatusNotFound {
		t.Errorf("finished session status = %d, want 404", resp.Code)
	}
}

// TestFinishWithoutCompletedSet returns 409 and keeps the session.
func TestFinishWithoutCompletedSet(t *testing.T) {
	s, _, _ := newTestServer(t)
	id, _ := s.sessions.Start(1, testRoutine(), metrics.Kilograms)

	resp := do(t, s, http.MethodPost, "/api/v1/sessions/"+id.String()+"/finish", "")
	if resp.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409", resp.Code)
	}
	if _, err := s.sessions.Get(1, id); err != nil {
		t.Errorf("session gone after failed finish: %v", err)
	}
}

// TestSessionOfOtherUserNotFound hides sessions owned by someone else.
func TestSessionOfOtherUserNotFound(t *testing.T) {
	s, _, _ := newTestServer(t)
	id, _ := s.sessions.Start(2, testRoutine(), metrics.Kilograms)

	for _, path := range []string{"", "/pause", "/sets/1/1/toggle"} {
		method := http.MethodPost
		if path == "" {
			method = http.MethodGet
		}
		if resp := do(t, s, method, "/api/v1/sessions/"+id.String()+path, ""); resp.Code != http.StatusNotFound {
			t.Errorf("%s %q status = %d, want 404", method, path, resp.Code)
		}
	}
	if resp := do(t, s, http.MethodDelete, "/api/v1/sessions/"+id.String(), ""); resp.Code != http.StatusNotFound {
		t.Errorf("discard status = %d, want 404", resp.Code)
	}
}

// TestAdjustRejectsBadRequests returns 400 for malformed ids and bodies and
// applied=false for an unknown field.
func TestAdjustRejectsBadRequests(t *testing.T) {
	s, _, _ := newTestServer(t)
	id, _ := s.sessions.Start(1, testRoutine(), metrics.Kilograms)
	base := "/api/v1/sessions/" + id.String()

	res := decodeAction(t, do(t, s, http.MethodPost, base+"/sets/1/1/adjust", `{"field":"tempo","delta":1}`))
	if res.Applied {
		t.Error("unknown field applied")
	}

	cases := []struct{ path, body string }{
		{"/sets/x/1/adjust", `{"field":"reps","delta":1}`},
		{"/sets/1/1/adjust", `not json`},
	}
	for _, tc := range cases {
		if resp := do(t, s, http.MethodPost, base+tc.path, tc.body); resp.Code != http.StatusBadRequest {
			t.Errorf("%s %s status = %d, want 400", tc.path, tc.body, resp.Code)
		}
	}
}

// TestListAndDiscardSessions lists only the caller's sessions.
func TestListAndDiscardSessions(t *testing.T) {
	s, _, _ := newTestServer(t)
	id, _ := s.sessions.Start(1, testRoutine(), metrics.Kilograms)
	s.sessions.Start(2, testRoutine(), metrics.Kilograms)

	var views []sessionView
	resp := do(t, s, http.MethodGet, "/api/v1/sessions", "")
	if err := json.NewDecoder(resp.Body).Decode(&views); err != nil {
		t.Fatal(err)
	}
	if len(views) != 1 || views[0].ID != id || views[0].TotalSets != 3 {
		t.Errorf("sessions = %+v", views)
	}

	if resp := do(t, s, http.MethodDelete, "/api/v1/sessions/"+id.String(), ""); resp.Code != http.StatusNoContent {
		t.Errorf("discard status = %d", resp.Code)
	}
	if len(s.sessions.List(1)) != 0 {
		t.Error("session still live after discard")
	}
}

// TestSessionEventsStream sends a snapshot and ends when the session is discarded.
func TestSessionEventsStream(t *testing.T) {
	s, _, _ := newTestServer(t)
	id, _ := s.sessions.Start(1, testRoutine(), metrics.Kilograms)
	ts := httptest.NewServer(s)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/v1/sessions/" + id.String() + "/events")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("content type = %q", ct)
	}

	lines := bufio.NewScanner(resp.Body)
	if !lines.Scan() || lines.Text() != "event: snapshot" {
		t.Fatalf("first line = %q", lines.Text())
	}

	if err := s.sessions.Discard(1, id); err != nil {
		t.Fatal(err)
	}
	for lines.Scan() {
		if lines.Text() == "event: end" {
			return
		}
	}
	t.Error("stream closed without end event")
}

// TestShutdownEndsEventStreams returns from Shutdown while a stream is open.
func TestShutdownEndsEventStreams(t *testing.T) {
	s, _, _ := newTestServer(t)
	id, _ := s.sessions.Start(1, testRoutine(), metrics.Kilograms)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	hs := s.HTTPServer()
	go hs.Serve(ln)

	resp, err := http.Get("http://" + ln.Addr().String() + "/api/v1/sessions/" + id.String() + "/events")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	lines := bufio.NewScanner(resp.Body)
	if !lines.Scan() || lines.Text() != "event: snapshot" {
		t.Fatalf("first line = %q", lines.Text())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := hs.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	if _, err := s.sessions.Get(1, id); !errors.Is(err, session.ErrSessionNotFound) {
		t.Errorf("session still live after shutdown: %v", err)
	}
}

// TestProgressWithoutIdentitySkipsSource returns empty views without a fetch.
func TestProgressWithoutIdentitySkipsSource(t *testing.T) {
	s, _, src := newTestServer(t)
	rec := httptest.NewRecorder()
	s.handleProgress(rec, httptest.NewRequest(http.MethodGet, "/api/v1/progress", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if src.calls != 0 {
		t.Errorf("source called %d times", src.calls)
	}
	var o progress.Overview
	if err := json.NewDecoder(rec.Body).Decode(&o); err != nil {
		t.Fatal(err)
	}
	if o.CurrentWeight != metrics.NoData {
		t.Errorf("current weight = %q", o.CurrentWeight)
	}
}

// TestStreakEndpoint computes the streak for the dev user.
func TestStreakEndpoint(t *testing.T) {
	s, _, src := newTestServer(t)
	for i := range 2 {
		start := testNow.AddDate(0, 0, -i).Add(-3 * time.Hour)
		done := start.Add(time.Hour)
		src.workouts = append(src.workouts, models.WorkoutRecord{ID: uuid.New(), UserID: 1, StartedAt: start, CompletedAt: &done})
	}

	resp := do(t, s, http.MethodGet, "/api/v1/streak", "")
	var out map[string]int
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if out["streak"] != 2 {
		t.Errorf("streak = %d, want 2", out["streak"])
	}
}

// TestUnsupportedViewsAndBadParams maps errors to status codes.
func TestUnsupportedViewsAndBadParams(t *testing.T) {
	s, _, _ := newTestServer(t)
	cases := []struct {
		path string
		want int
	}{
		{"/api/v1/leaderboard?by=height", http.StatusBadRequest},
		{"/api/v1/leaderboard?by=streak", http.StatusNotImplemented},
		{"/api/v1/nutrition?date=2026-03-01", http.StatusNotImplemented},
		{"/api/v1/nutrition?date=yesterday", http.StatusBadRequest},
		{"/api/v1/history?month=2026-13", http.StatusBadRequest},
		{"/api/v1/history?month=2026-03", http.StatusOK},
		{"/api/v1/body-weight?order=sideways", http.StatusBadRequest},
	}
	for _, tc := range cases {
		if resp := do(t, s, http.MethodGet, tc.path, ""); resp.Code != tc.want {
			t.Errorf("%s status = %d, want %d", tc.path, resp.Code, tc.want)
		}
	}
}

// TestIngestRequiresAPIKey rejects ingest calls without the key.
func TestIngestRequiresAPIKey(t *testing.T) {
	s, _, _ := newTestServer(t)
	if resp := do(t, s, http.MethodPost, "/api/v1/ingest/alpha", "x"); resp.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", resp.Code)
	}
}

// TestParseRecordFilter reads every supported query parameter.
func TestParseRecordFilter(t *testing.T) {
	id := uuid.New()
	req := httptest.NewRequest(http.MethodGet,
		"/x?start=2026-03-01&end=2026-03-31&completed=true&workout_id="+id.String()+"&exercise=Squat&order=desc&limit=10", nil)
	f, err := parseRecordFilter(req)
	if err != nil {
		t.Fatal(err)
	}
	if !f.Start.Equal(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("start = %v", f.Start)
	}
	if !f.End.Equal(time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("end = %v, want end of March 31", f.End)
	}
	if !f.CompletedOnly || *f.WorkoutID != id || f.Exercise != "Squat" || !f.Descending || f.Limit != 10 {
		t.Errorf("filter = %+v", f)
	}

	for _, q := range []string{"start=soon", "completed=maybe", "workout_id=1", "limit=-1", "order=up"} {
		if _, err := parseRecordFilter(httptest.NewRequest(http.MethodGet, "/x?"+q, nil)); err == nil {
			t.Errorf("%s: expected error", q)
		}
	}

	other := uuid.New()
	f, err = parseRecordFilter(httptest.NewRequest(http.MethodGet,
		"/x?workout_id="+id.String()+"&workout_id="+other.String(), nil))
	if err != nil || f.WorkoutID != nil || len(f.WorkoutIDs) != 2 || f.WorkoutIDs[1] != other {
		t.Errorf("workout id set = %+v, %v", f, err)
	}

	f, err = parseRecordFilter(httptest.NewRequest(http.MethodGet, "/x", nil))
	if err != nil || f.Start != nil || f.End != nil || f.Limit != 0 {
		t.Errorf("empty filter = %+v, %v", f, err)
	}
}

// TestSetFrontendFallsBackToIndex serves files and index.html for app routes.
func TestSetFrontendFallsBackToIndex(t *testing.T) {
	s, _, _ := newTestServer(t)
	s.SetFrontend(fstest.MapFS{
		"index.html":    {Data: []byte("<html>app</html>")},
		"assets/app.js": {Data: []byte("console.log(1)")},
	})

	if resp := do(t, s, http.MethodGet, "/assets/app.js", ""); !strings.Contains(resp.Body.String(), "console.log") {
		t.Errorf("asset body = %q", resp.Body)
	}
	if resp := do(t, s, http.MethodGet, "/history/2026-03", ""); !strings.Contains(resp.Body.String(), "app") {
		t.Errorf("fallback body = %q", resp.Body)
	}
	if resp := do(t, s, http.MethodGet, "/api/v1/nope", ""); resp.Code != http.StatusNotFound {
		t.Errorf("unknown api status = %d, want 404", resp.Code)
	}
}

type fakeWhoIs struct {
	profile *tailcfg.UserProfile
	err     error
}

func (f fakeWhoIs) WhoIs(context.Context, string) (*apitype.WhoIsResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &apitype.WhoIsResponse{UserProfile: f.profile}, nil
}

type fakeUsers struct{ calls int }

func (f *fakeUsers) GetOrCreateUser(context.Context, string, string) (int, error) {
	f.calls++
	return 42, nil
}

// TestTailscaleIdentity maps the tailnet login to a cached user id.
func TestTailscaleIdentity(t *testing.T) {
	users := &fakeUsers{}
	lc := fakeWhoIs{profile: &tailcfg.UserProfile{LoginName: "alice@example.com", DisplayName: "Alice"}}
	var got []int
	h := TailscaleIdentity(lc, users)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = append(got, userIDFromContext(r))
		if info := userInfoFromContext(r); info.Login != "alice@example.com" {
			t.Errorf("login = %q", info.Login)
		}
	}))

	for range 2 {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	}
	if len(got) != 2 || got[0] != 42 || got[1] != 42 {
		t.Errorf("user ids = %v", got)
	}
	if users.calls != 1 {
		t.Errorf("GetOrCreateUser calls = %d, want 1", users.calls)
	}
}

// TestTailscaleIdentityRejectsUnknownPeers returns 403 without a user profile.
func TestTailscaleIdentityRejectsUnknownPeers(t *testing.T) {
	for _, lc := range []fakeWhoIs{{}, {err: errors.New("no peer")}} {
		h := TailscaleIdentity(lc, &fakeUsers{})(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			t.Error("next handler called")
		}))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		if rec.Code != http.StatusForbidden {
			t.Errorf("status = %d, want 403", rec.Code)
		}
	}
}
