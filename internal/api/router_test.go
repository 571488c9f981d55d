package api_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"

	"github.com/ganttwork/planner/internal/api"
	"github.com/ganttwork/planner/internal/domain"
	"github.com/ganttwork/planner/internal/gantt"
	"github.com/ganttwork/planner/internal/metrics"
	"github.com/ganttwork/planner/internal/ratelimiter"
	"github.com/ganttwork/planner/internal/repository"
	"github.com/ganttwork/planner/internal/service"
)

const sampleDoc = `@startgantt
Project starts 2024-03-01
task "Design" as [T1] lasts 2 days
task "Dev" as [T2] starts 2024-03-03 ends 2024-03-07
[T1] --> [T2]
@endgantt`

type testServer struct {
	handler http.Handler
	metrics *metrics.Metrics
}

func newTestServer(t *testing.T, limiter *ratelimiter.ClientLimiters) *testServer {
	t.Helper()
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	onParse, onStored := m.ServiceHooks()
	svc := service.NewProjectService(
		repository.NewMemoryProjectRepository(),
		gantt.NewParser(),
		service.MetricHooks{OnParse: onParse, OnStored: onStored},
		zap.NewNop(),
	)

	deps := api.Deps{
		Service:      svc,
		Metrics:      m,
		Gatherer:     reg,
		MaxBodyBytes: 1 << 20,
		Logger:       zap.NewNop(),
	}
	if limiter != nil {
		deps.Limiter = limiter
	}
	return &testServer{handler: api.NewRouter(deps), metrics: m}
}

func (s *testServer) do(method, path, body string) *httptest.ResponseRecorder {
	var r *http.Request
	if body == "" {
		r = httptest.NewRequest(method, path, nil)
	} else {
		r = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	w := httptest.NewRecorder()
	s.handler.ServeHTTP(w, r)
	return w
}

func TestRouter_Health(t *testing.T) {
	s := newTestServer(t, nil)

	w := s.do(http.MethodGet, "/health", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if got := w.Body.String(); got != "{\"status\":\"ok\"}\n" {
		t.Fatalf("unexpected body %q", got)
	}
}

func TestRouter_UnknownPathIs404(t *testing.T) {
	s := newTestServer(t, nil)

	for _, path := range []string{"/healthz", "/health/extra", "/"} {
		if w := s.do(http.MethodGet, path, ""); w.Code != http.StatusNotFound {
			t.Fatalf("%s: expected 404, got %d", path, w.Code)
		}
	}
}

func TestRouter_MetricsExposed(t *testing.T) {
	s := newTestServer(t, nil)
	s.do(http.MethodGet, "/health", "")

	w := s.do(http.MethodGet, "/metrics", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `http_requests_total{method="GET",route="/health",status="200"} 1`) {
		t.Fatalf("expected /health to be counted, got:\n%s", w.Body.String())
	}
}

func TestRouter_RateLimitAppliesToAPIOnly(t *testing.T) {
	s := newTestServer(t, ratelimiter.New(0.001, 1, time.Minute))

	if w := s.do(http.MethodPost, "/api/v1/gantt/parse", sampleDoc); w.Code != http.StatusOK {
		t.Fatalf("first request: expected 200, got %d", w.Code)
	}
	w := s.do(http.MethodPost, "/api/v1/gantt/parse", sampleDoc)
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("second request: expected 429, got %d", w.Code)
	}
	if w.Header().Get("Retry-After") == "" {
		t.Fatal("expected Retry-After header")
	}
	if got := testutil.ToFloat64(s.metrics.RateLimited); got != 1 {
		t.Fatalf("expected 1 rate-limited request, got %v", got)
	}

	for i := 0; i < 10; i++ {
		if w := s.do(http.MethodGet, "/health", ""); w.Code != http.StatusOK {
			t.Fatalf("health call %d: expected 200, got %d", i, w.Code)
		}
	}
}

func TestRouter_ProjectLifecycle(t *testing.T) {
	s := newTestServer(t, nil)

	// create
	in, _ := json.Marshal(domain.ProjectInput{Name: "Roadmap", PlantUML: sampleDoc})
	w := s.do(http.MethodPost, "/api/v1/projects", string(in))
	if w.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var created domain.Project
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if created.Name != "Roadmap" || len(created.Tasks) != 2 {
		t.Fatalf("unexpected project: %+v", created)
	}
	if got := testutil.ToFloat64(s.metrics.ProjectsStored); got != 1 {
		t.Fatalf("expected projects_stored 1, got %v", got)
	}

	// get
	w = s.do(http.MethodGet, "/api/v1/projects/"+created.ID, "")
	if w.Code != http.StatusOK {
		t.Fatalf("get: expected 200, got %d", w.Code)
	}

	// export
	w = s.do(http.MethodGet, "/api/v1/projects/"+created.ID+"/plantuml", "")
	if w.Code != http.StatusOK {
		t.Fatalf("plantuml: expected 200, got %d", w.Code)
	}
	reparsed, err := gantt.Parse(w.Body.String())
	if err != nil {
		t.Fatalf("exported document does not parse: %v", err)
	}
	if len(reparsed.Tasks) != 2 || reparsed.TaskByID("T2").DurationDays != 4 {
		t.Fatalf("export lost tasks: %+v", reparsed.Tasks)
	}

	// list
	w = s.do(http.MethodGet, "/api/v1/projects?limit=5", "")
	var list struct {
		Data  []domain.Project `json:"data"`
		Total int              `json:"total"`
		Limit int              `json:"limit"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if list.Total != 1 || len(list.Data) != 1 || list.Limit != 5 {
		t.Fatalf("unexpected list: %+v", list)
	}

	// update
	upd, _ := json.Marshal(domain.ProjectInput{PlantUML: strings.Replace(sampleDoc, "lasts 2 days", "lasts 3 days", 1)})
	w = s.do(http.MethodPut, "/api/v1/projects/"+created.ID, string(upd))
	if w.Code != http.StatusOK {
		t.Fatalf("update: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var updated domain.Project
	_ = json.Unmarshal(w.Body.Bytes(), &updated)
	if updated.ID != created.ID || updated.Name != "Roadmap" || updated.TaskByID("T1").DurationDays != 3 {
		t.Fatalf("unexpected update result: %+v", updated)
	}

	// delete
	if w = s.do(http.MethodDelete, "/api/v1/projects/"+created.ID, ""); w.Code != http.StatusNoContent {
		t.Fatalf("delete: expected 204, got %d", w.Code)
	}
	if w = s.do(http.MethodGet, "/api/v1/projects/"+created.ID, ""); w.Code != http.StatusNotFound {
		t.Fatalf("get after delete: expected 404, got %d", w.Code)
	}
	if got := testutil.ToFloat64(s.metrics.ProjectsStored); got != 0 {
		t.Fatalf("expected projects_stored 0, got %v", got)
	}
}

func TestRouter_CreateRejectsBadDocument(t *testing.T) {
	s := newTestServer(t, nil)

	in, _ := json.Marshal(domain.ProjectInput{PlantUML: "Project starts 2024-03-01"})
	w := s.do(http.MethodPost, "/api/v1/projects", string(in))
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", w.Code)
	}
	if !bytes.Contains(w.Body.Bytes(), []byte(`"type":"syntax"`)) {
		t.Fatalf("expected syntax error body, got %s", w.Body.String())
	}
	if got := testutil.ToFloat64(s.metrics.GanttParses.WithLabelValues("syntax")); got != 1 {
		t.Fatalf("expected 1 syntax parse outcome, got %v", got)
	}
}

func TestRouter_BodyLimitOnAPI(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	svc := service.NewProjectService(repository.NewMemoryProjectRepository(), gantt.NewParser(), service.MetricHooks{}, zap.NewNop())
	h := api.NewRouter(api.Deps{Service: svc, Metrics: m, Gatherer: reg, MaxBodyBytes: 32, Logger: zap.NewNop()})

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/gantt/parse", strings.NewReader(sampleDoc)))

	if w.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d: %s", w.Code, w.Body.String())
	}
}
