package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/nvandessel/neurodash/internal/dataset"
	"github.com/nvandessel/neurodash/internal/models"
	"github.com/nvandessel/neurodash/internal/seed"
	"github.com/nvandessel/neurodash/internal/store"
)

func testCatalog() *dataset.Catalog {
	data := models.NewDataset()
	data.Sessions = []models.Session{
		{ID: "s1", Subject: "Subject_A", Task: "reaching", Duration: 30, Channels: 4},
		{ID: "s2", Subject: "Subject_B", Task: "grasping", Duration: 40, Channels: 4},
	}
	data.Recordings = []models.Recording{{ID: "r1", SessionID: "s1"}}
	data.QualityMetrics = []models.QualityMetric{
		{ID: "m1", RecordingID: "r1", SessionID: "s1", MetricType: models.MetricSNR, Value: 8},
	}
	data.TrainingRuns = []models.TrainingRun{{ID: "t1", Accuracy: 0.9}, {ID: "t2", Accuracy: 0.75}}
	return dataset.NewCatalog(data)
}

func newTestServer(t *testing.T, catalog *dataset.Catalog, opts Options) *Server {
	t.Helper()
	return NewServer(store.NewMemoryStore(seed.Default()), catalog, opts)
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.RemoteAddr = "192.0.2.1:1234"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decoding %q: %v", rec.Body.String(), err)
	}
	return v
}

func TestRoutes_Status(t *testing.T) {
	h := newTestServer(t, testCatalog(), Options{}).Handler()

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{"health", "GET", "/healthz", "", http.StatusOK},
		{"list sessions", "GET", "/api/sessions", "", http.StatusOK},
		{"list sessions bad status", "GET", "/api/sessions?status=done", "", http.StatusBadRequest},
		{"get session", "GET", "/api/sessions/sess_001", "", http.StatusOK},
		{"get missing session", "GET", "/api/sessions/nope", "", http.StatusNotFound},
		{"create session", "POST", "/api/sessions",
			`{"subject":"S","date":"2024-07-01","task":"T","channels":8,"duration":"10 min"}`, http.StatusCreated},
		{"create invalid session", "POST", "/api/sessions",
			`{"subject":"S","date":"2024-07-01","task":"T","channels":0,"duration":"10 min"}`, http.StatusBadRequest},
		{"create malformed json", "POST", "/api/sessions", `{"subject":`, http.StatusBadRequest},
		{"create unknown field", "POST", "/api/sessions", `{"colour":"red"}`, http.StatusBadRequest},
		{"patch session", "PATCH", "/api/sessions/sess_002", `{"status":"validated"}`, http.StatusOK},
		{"patch missing session", "PATCH", "/api/sessions/nope", `{"status":"validated"}`, http.StatusNotFound},
		{"delete missing session", "DELETE", "/api/sessions/nope", "", http.StatusNotFound},
		{"list features", "GET", "/api/features?sessionId=sess_001", "", http.StatusOK},
		{"extract features", "POST", "/api/features/extract", `{"sessionIds":["sess_001"]}`, http.StatusCreated},
		{"extract without ids", "POST", "/api/features/extract", `{"sessionIds":[]}`, http.StatusBadRequest},
		{"list training", "GET", "/api/training", "", http.StatusOK},
		{"start training", "POST", "/api/training",
			`{"name":"n","modelType":"svm","sessionIds":["sess_001"],"epochs":5}`, http.StatusCreated},
		{"get training", "GET", "/api/training/train_001", "", http.StatusOK},
		{"update training status", "PATCH", "/api/training/train_001/status", `{"status":"failed"}`, http.StatusOK},
		{"update training bad status", "PATCH", "/api/training/train_001/status", `{"status":"paused"}`, http.StatusBadRequest},
		{"list experiments", "GET", "/api/experiments", "", http.StatusOK},
		{"create experiment", "POST", "/api/experiments",
			`{"name":"e","owner":"o","sessions":["sess_001"]}`, http.StatusCreated},
		{"list registry", "GET", "/api/registry", "", http.StatusOK},
		{"create registry", "POST", "/api/registry",
			`{"sessionId":"sess_001","subject":"A","device":"N1"}`, http.StatusCreated},
		{"dataset statistics", "GET", "/api/dataset/statistics", "", http.StatusOK},
		{"dataset session metrics", "GET", "/api/dataset/sessions/s1/metrics", "", http.StatusOK},
		{"dataset missing session", "GET", "/api/dataset/sessions/zz/metrics", "", http.StatusNotFound},
		{"dataset quality average", "GET", "/api/dataset/quality/snr/average", "", http.StatusOK},
		{"dataset unknown metric", "GET", "/api/dataset/quality/impedance/average", "", http.StatusBadRequest},
		{"dataset tasks", "GET", "/api/dataset/tasks", "", http.StatusOK},
		{"dataset subjects", "GET", "/api/dataset/subjects", "", http.StatusOK},
		{"dataset best run", "GET", "/api/dataset/training-runs/best", "", http.StatusOK},
		{"wrong method", "PUT", "/api/sessions", "", http.StatusMethodNotAllowed},
		{"unknown path", "GET", "/api/nothing", "", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, tt.method, tt.path, tt.body)
			if rec.Code != tt.want {
				t.Errorf("%s %s = %d, want %d (body %s)", tt.method, tt.path, rec.Code, tt.want, rec.Body.String())
			}
			if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("Content-Type = %q, want application/json", ct)
			}
		})
	}
}

func TestListSessions_Filters(t *testing.T) {
	h := newTestServer(t, nil, Options{}).Handler()

	rec := do(t, h, "GET", "/api/sessions?search=speech", "")
	sessions := decodeBody[[]models.SessionRecord](t, rec)
	if len(sessions) != 1 || sessions[0].ID != "sess_002" {
		t.Errorf("search=speech returned %v", sessions)
	}

	rec = do(t, h, "GET", "/api/sessions?subject=Nobody", "")
	if strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Errorf("empty result body = %s, want []", rec.Body.String())
	}
}

func TestCreateThenGetSession(t *testing.T) {
	h := newTestServer(t, nil, Options{}).Handler()

	rec := do(t, h, "POST", "/api/sessions",
		`{"subject":"Subject D","date":"2024-07-02","task":"Typing","channels":64,"duration":"20 min","metadata":{"implant":"N2"}}`)
	created := decodeBody[models.SessionRecord](t, rec)
	if !strings.HasPrefix(created.ID, "sess_") || created.Status != models.SessionPending {
		t.Fatalf("created = %+v", created)
	}

	rec = do(t, h, "GET", "/api/sessions/"+created.ID, "")
	got := decodeBody[models.SessionRecord](t, rec)
	if got.Metadata["implant"] != "N2" {
		t.Errorf("metadata = %v", got.Metadata)
	}

	rec = do(t, h, "DELETE", "/api/sessions/"+created.ID, "")
	if rec.Code != http.StatusOK {
		t.Errorf("DELETE = %d", rec.Code)
	}
	if rec = do(t, h, "GET", "/api/sessions/"+created.ID, ""); rec.Code != http.StatusNotFound {
		t.Errorf("GET after delete = %d, want 404", rec.Code)
	}
}

func TestErrorBody(t *testing.T) {
	h := newTestServer(t, nil, Options{}).Handler()

	rec := do(t, h, "GET", "/api/training/nope", "")
	body := decodeBody[errorResponse](t, rec)
	if body.Error != "training job not found" {
		t.Errorf("error = %q", body.Error)
	}
}

func TestDataset_Unavailable(t *testing.T) {
	srv := newTestServer(t, nil, Options{})
	h := srv.Handler()

	if rec := do(t, h, "GET", "/api/dataset/statistics", ""); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("statistics without dataset = %d, want 503", rec.Code)
	}

	srv.SetCatalog(testCatalog())
	rec := do(t, h, "GET", "/api/dataset/statistics", "")
	stats := decodeBody[dataset.Statistics](t, rec)
	if stats.TotalSessions != 2 {
		t.Errorf("TotalSessions = %d, want 2", stats.TotalSessions)
	}
}

func TestDataset_QualityAverage(t *testing.T) {
	h := newTestServer(t, testCatalog(), Options{}).Handler()

	rec := do(t, h, "GET", "/api/dataset/quality/drift/average", "")
	body := decodeBody[map[string]any](t, rec)
	if body["average"] != 0.0 || body["count"] != 0.0 {
		t.Errorf("empty metric average = %v", body)
	}

	rec = do(t, h, "GET", "/api/dataset/training-runs/best", "")
	if run := decodeBody[models.TrainingRun](t, rec); run.ID != "t1" {
		t.Errorf("best run = %s, want t1", run.ID)
	}
}

func TestRateLimit(t *testing.T) {
	h := newTestServer(t, nil, Options{RequestsPerMinute: 1, Burst: 2}).Handler()

	for i := 0; i < 2; i++ {
		if rec := do(t, h, "GET", "/api/sessions", ""); rec.Code != http.StatusOK {
			t.Fatalf("request %d = %d, want 200", i, rec.Code)
		}
	}
	rec := do(t, h, "GET", "/api/sessions", "")
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("third request = %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("missing Retry-After header")
	}

	// Health checks are outside /api and never limited.
	if rec := do(t, h, "GET", "/healthz", ""); rec.Code != http.StatusOK {
		t.Errorf("healthz = %d, want 200", rec.Code)
	}
}

func TestMockDataFiles(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "sessions.json"), []byte("[]\n"), 0644); err != nil {
		t.Fatal(err)
	}
	h := newTestServer(t, nil, Options{FixturesDir: dir}).Handler()

	rec := do(t, h, "GET", "/mock-data/sessions.json", "")
	if rec.Code != http.StatusOK || !bytes.Equal(rec.Body.Bytes(), []byte("[]\n")) {
		t.Errorf("GET /mock-data/sessions.json = %d %q", rec.Code, rec.Body.String())
	}
}

func waitForServer(t *testing.T, srv *Server, timeout time.Duration) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if addr := srv.Addr(); addr != "" {
			resp, err := http.Get("http://" + addr + "/healthz")
			if err == nil {
				resp.Body.Close()
				return
			}
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("server did not start within timeout")
}

func TestServer_ListenAndServe(t *testing.T) {
	srv := newTestServer(t, nil, Options{Addr: "localhost:0"})
	ctx, cancel := context.WithCancel(context.Background())

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe(ctx) }()
	waitForServer(t, srv, 2*time.Second)

	resp, err := http.Get("http://" + srv.Addr() + "/api/sessions")
	if err != nil {
		t.Fatalf("GET /api/sessions: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}

	cancel()
	select {
	case err := <-errCh:
		if err != nil {
			t.Errorf("ListenAndServe() = %v, want nil after cancel", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
