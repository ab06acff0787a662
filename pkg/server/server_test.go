package server

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/matzehuels/radialtree/pkg/config"
	"github.com/matzehuels/radialtree/pkg/export"
	"github.com/matzehuels/radialtree/pkg/pipeline"
	"github.com/matzehuels/radialtree/pkg/session"
	"github.com/matzehuels/radialtree/pkg/tree"
)

const testKey = "secret"

func field(name string, id int) *tree.Node {
	return &tree.Node{Name: name, Attributes: map[string]any{"field_id": id}}
}

func category(name string, children ...*tree.Node) *tree.Node {
	return &tree.Node{Name: name, Children: children}
}

// sampleTree has seven nodes; A holds fields, B only a subcategory.
func sampleTree() *tree.Node {
	return category("root",
		category("A", field("a1", 1), field("a2", 2)),
		category("B", category("C", field("c1", 3))),
	)
}

type testServer struct {
	*httptest.Server
	store *session.MemoryStore
}

func newTestServer(t *testing.T, mutate func(*config.Config)) *testServer {
	t.Helper()
	path := filepath.Join(t.TempDir(), "demo.json")
	if err := tree.WriteFile(sampleTree(), path); err != nil {
		t.Fatal(err)
	}

	cfg := config.Default()
	cfg.Server.APIKey = testKey
	cfg.Datasets = map[string]string{"demo": path}
	if mutate != nil {
		mutate(&cfg)
	}

	logger := log.New(io.Discard)
	store := session.NewMemoryStore()
	runner := pipeline.NewRunner(nil, nil, logger)
	srv := New(cfg, runner, store, logger, WithGatherer(prometheus.NewRegistry()))

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return &testServer{Server: ts, store: store}
}

func (ts *testServer) do(t *testing.T, method, path, body string) *http.Response {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, ts.URL+path, rd)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set(APIKeyHeader, testKey)
	resp, err := ts.Client().Do(req)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return v
}

func expectStatus(t *testing.T, resp *http.Response, want int) {
	t.Helper()
	if resp.StatusCode != want {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("%s %s: status = %d, want %d\n%s",
			resp.Request.Method, resp.Request.URL.Path, resp.StatusCode, want, body)
	}
}

// =============================================================================
// Middleware
// =============================================================================

func TestHealthNeedsNoKey(t *testing.T) {
	ts := newTestServer(t, nil)
	resp, err := ts.Client().Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	expectStatus(t, resp, http.StatusOK)
	body := decode[map[string]any](t, resp)
	if body["status"] != "ok" {
		t.Errorf("status = %v", body["status"])
	}
}

func TestAPIKey(t *testing.T) {
	tests := []struct {
		name   string
		server string
		header string
		want   int
	}{
		{"Valid", testKey, testKey, http.StatusOK},
		{"Missing", testKey, "", http.StatusUnauthorized},
		{"Wrong", testKey, "guess", http.StatusUnauthorized},
		{"NoneConfigured", "", "", http.StatusUnauthorized},
		{"NoneConfiguredWithHeader", "", "anything", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t, func(c *config.Config) { c.Server.APIKey = tt.server })
			req, _ := http.NewRequest(http.MethodGet, ts.URL+"/api/v1/datasets", nil)
			if tt.header != "" {
				req.Header.Set(APIKeyHeader, tt.header)
			}
			resp, err := ts.Client().Do(req)
			if err != nil {
				t.Fatal(err)
			}
			defer resp.Body.Close()
			expectStatus(t, resp, tt.want)
			if tt.want == http.StatusUnauthorized {
				e := decode[errorResponse](t, resp)
				if e.Error != "UNAUTHORIZED" || e.Message != "Invalid or missing API key" {
					t.Errorf("error body = %+v", e)
				}
			}
		})
	}
}

func TestGlobalPrefix(t *testing.T) {
	ts := newTestServer(t, func(c *config.Config) { c.Server.GlobalPrefix = "/radial" })

	expectStatus(t, ts.do(t, http.MethodGet, "/radial/api/v1/datasets", ""), http.StatusOK)
	expectStatus(t, ts.do(t, http.MethodGet, "/api/v1/datasets", ""), http.StatusNotFound)
}

func TestMetricsEndpoint(t *testing.T) {
	ts := newTestServer(t, nil)
	resp, err := ts.Client().Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	expectStatus(t, resp, http.StatusOK)
}

func TestBodyLimit(t *testing.T) {
	ts := newTestServer(t, func(c *config.Config) { c.Server.MaxBodyBytes = 16 })
	body := `{"dataset":"demo","expanded":["root/A","root/B"]}`
	expectStatus(t, ts.do(t, http.MethodPost, "/api/v1/layout", body), http.StatusRequestEntityTooLarge)
}

// =============================================================================
// Datasets and layout
// =============================================================================

func TestDatasets(t *testing.T) {
	ts := newTestServer(t, nil)

	resp := ts.do(t, http.MethodGet, "/api/v1/datasets", "")
	expectStatus(t, resp, http.StatusOK)
	list := decode[map[string][]string](t, resp)
	if !slices.Equal(list["datasets"], []string{"demo"}) {
		t.Errorf("datasets = %v", list["datasets"])
	}

	resp = ts.do(t, http.MethodGet, "/api/v1/datasets/demo/tree", "")
	expectStatus(t, resp, http.StatusOK)
	root, err := tree.Read(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	if root.Count() != 7 {
		t.Errorf("tree has %d nodes, want 7", root.Count())
	}

	resp = ts.do(t, http.MethodGet, "/api/v1/datasets/other/tree", "")
	expectStatus(t, resp, http.StatusNotFound)
	if e := decode[errorResponse](t, resp); e.Error != "DATASET_NOT_FOUND" {
		t.Errorf("error = %q, want DATASET_NOT_FOUND", e.Error)
	}

	expectStatus(t, ts.do(t, http.MethodGet, "/api/v1/datasets/Bad%20Name/tree", ""), http.StatusBadRequest)
}

func TestLayoutInlineTree(t *testing.T) {
	ts := newTestServer(t, nil)
	data, err := tree.Marshal(sampleTree())
	if err != nil {
		t.Fatal(err)
	}

	resp := ts.do(t, http.MethodPost, "/api/v1/layout", `{"tree":`+string(data)+`,"mode":"all"}`)
	expectStatus(t, resp, http.StatusOK)
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}
	doc := decode[export.Document](t, resp)
	if len(doc.Nodes) != 7 {
		t.Errorf("layout has %d nodes, want 7", len(doc.Nodes))
	}
	if doc.Root != "root" {
		t.Errorf("root = %q", doc.Root)
	}
}

func TestLayoutDatasetDOT(t *testing.T) {
	ts := newTestServer(t, nil)
	resp := ts.do(t, http.MethodPost, "/api/v1/layout", `{"dataset":"demo","expanded":["root/A"],"format":"dot"}`)
	expectStatus(t, resp, http.StatusOK)
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/vnd.graphviz") {
		t.Errorf("Content-Type = %q", ct)
	}
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), `"root/A/a1"`) {
		t.Errorf("expanded field missing from DOT:\n%s", body)
	}
}

func TestLayoutConfigOverride(t *testing.T) {
	ts := newTestServer(t, nil)
	resp := ts.do(t, http.MethodPost, "/api/v1/layout", `{"dataset":"demo","mode":"none","config":{"base_level_distance":300}}`)
	expectStatus(t, resp, http.StatusOK)
	doc := decode[export.Document](t, resp)
	if len(doc.Radii) < 2 || doc.Radii[1] < 300 {
		t.Errorf("radii = %v, want first ring at least 300", doc.Radii)
	}
}

func TestLayoutErrors(t *testing.T) {
	ts := newTestServer(t, nil)
	tests := []struct {
		name string
		body string
		want int
		code string
	}{
		{"Neither", `{}`, http.StatusBadRequest, "INVALID_INPUT"},
		{"Both", `{"dataset":"demo","tree":{"name":"x"}}`, http.StatusBadRequest, "INVALID_INPUT"},
		{"Unnamed", `{"tree":{"children":[]}}`, http.StatusBadRequest, "INVALID_TREE"},
		{"Malformed", `{"dataset":`, http.StatusBadRequest, "INVALID_INPUT"},
		{"UnknownField", `{"dataset":"demo","colour":"red"}`, http.StatusBadRequest, "INVALID_INPUT"},
		{"BadFormat", `{"dataset":"demo","format":"svg"}`, http.StatusBadRequest, "INVALID_INPUT"},
		{"BadMode", `{"dataset":"demo","mode":"most"}`, http.StatusBadRequest, "INVALID_INPUT"},
		{"BadConfig", `{"dataset":"demo","config":{"font_size":0}}`, http.StatusBadRequest, "INVALID_CONFIG"},
		{"UnknownDataset", `{"dataset":"nope"}`, http.StatusNotFound, "DATASET_NOT_FOUND"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := ts.do(t, http.MethodPost, "/api/v1/layout", tt.body)
			expectStatus(t, resp, tt.want)
			if e := decode[errorResponse](t, resp); e.Error != tt.code {
				t.Errorf("error = %+v, want code %s", e, tt.code)
			}
		})
	}
}

// =============================================================================
// Sessions
// =============================================================================

func TestSessionLifecycle(t *testing.T) {
	ts := newTestServer(t, nil)

	resp := ts.do(t, http.MethodPost, "/api/v1/sessions", `{"dataset":"demo"}`)
	expectStatus(t, resp, http.StatusCreated)
	sess := decode[sessionView](t, resp)
	if sess.ID == "" || sess.Dataset != "demo" {
		t.Fatalf("created session = %+v", sess)
	}
	initial := tree.InitialExpansion(sampleTree()).Paths()
	if !slices.Equal(sess.Expanded, initial) {
		t.Errorf("initial expansion = %v, want %v", sess.Expanded, initial)
	}
	base := "/api/v1/sessions/" + sess.ID

	resp = ts.do(t, http.MethodPost, base+"/toggle", `{"path":"root/A"}`)
	expectStatus(t, resp, http.StatusOK)
	sess = decode[sessionView](t, resp)
	if !slices.Contains(sess.Expanded, "root/A") {
		t.Errorf("root/A not expanded after toggle: %v", sess.Expanded)
	}

	resp = ts.do(t, http.MethodGet, base+"/layout", "")
	expectStatus(t, resp, http.StatusOK)
	doc := decode[export.Document](t, resp)
	var paths []string
	for _, n := range doc.Nodes {
		paths = append(paths, n.Path)
	}
	if !slices.Contains(paths, "root/A/a1") {
		t.Errorf("session layout misses the toggled fields: %v", paths)
	}

	resp = ts.do(t, http.MethodPost, base+"/expand-all", "")
	expectStatus(t, resp, http.StatusOK)
	sess = decode[sessionView](t, resp)
	if !sess.AllExpanded || len(sess.Expanded) != len(tree.FullExpansion(sampleTree()).Paths()) {
		t.Errorf("expand-all = %+v", sess)
	}

	resp = ts.do(t, http.MethodPost, base+"/expand-all", "")
	expectStatus(t, resp, http.StatusOK)
	sess = decode[sessionView](t, resp)
	if sess.AllExpanded || !slices.Contains(sess.Expanded, "root/A") {
		t.Errorf("restore = %+v, want the toggled state back", sess)
	}

	expectStatus(t, ts.do(t, http.MethodDelete, base, ""), http.StatusNoContent)
	resp = ts.do(t, http.MethodGet, base, "")
	expectStatus(t, resp, http.StatusNotFound)
	if e := decode[errorResponse](t, resp); e.Error != "SESSION_NOT_FOUND" {
		t.Errorf("error = %q, want SESSION_NOT_FOUND", e.Error)
	}
}

func TestSessionErrors(t *testing.T) {
	ts := newTestServer(t, nil)
	resp := ts.do(t, http.MethodPost, "/api/v1/sessions", `{"dataset":"demo","mode":"none"}`)
	expectStatus(t, resp, http.StatusCreated)
	sess := decode[sessionView](t, resp)
	if len(sess.Expanded) != 0 {
		t.Errorf("mode none expanded %v", sess.Expanded)
	}
	base := "/api/v1/sessions/" + sess.ID

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{"UnknownDataset", http.MethodPost, "/api/v1/sessions", `{"dataset":"nope"}`, http.StatusNotFound},
		{"ExplicitMode", http.MethodPost, "/api/v1/sessions", `{"dataset":"demo","mode":"explicit"}`, http.StatusBadRequest},
		{"ToggleMissing", http.MethodPost, base + "/toggle", `{"path":"root/Z"}`, http.StatusNotFound},
		{"ToggleField", http.MethodPost, base + "/toggle", `{"path":"root/A/a1"}`, http.StatusBadRequest},
		{"ToggleRoot", http.MethodPost, base + "/toggle", `{"path":"root"}`, http.StatusBadRequest},
		{"ToggleEmpty", http.MethodPost, base + "/toggle", `{"path":""}`, http.StatusBadRequest},
		{"UnknownSession", http.MethodGet, "/api/v1/sessions/nope/layout", "", http.StatusNotFound},
		{"BadLayoutFormat", http.MethodGet, base + "/layout?format=png", "", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expectStatus(t, ts.do(t, tt.method, tt.path, tt.body), tt.want)
		})
	}
}

func TestConcurrentToggles(t *testing.T) {
	ts := newTestServer(t, nil)
	resp := ts.do(t, http.MethodPost, "/api/v1/sessions", `{"dataset":"demo","mode":"none"}`)
	expectStatus(t, resp, http.StatusCreated)
	base := "/api/v1/sessions/" + decode[sessionView](t, resp).ID

	// Each path is toggled an odd number of times, so all end expanded.
	paths := []string{"root/A", "root/B", "root/B/C"}
	const rounds = 5

	var wg sync.WaitGroup
	errs := make(chan error, len(paths)*rounds)
	for _, p := range paths {
		for range rounds {
			wg.Add(1)
			go func() {
				defer wg.Done()
				req, err := http.NewRequest(http.MethodPost, ts.URL+base+"/toggle",
					strings.NewReader(`{"path":"`+p+`"}`))
				if err != nil {
					errs <- err
					return
				}
				req.Header.Set(APIKeyHeader, testKey)
				resp, err := ts.Client().Do(req)
				if err != nil {
					errs <- err
					return
				}
				defer resp.Body.Close()
				if resp.StatusCode != http.StatusOK {
					errs <- fmt.Errorf("toggle %s: status %d", p, resp.StatusCode)
				}
			}()
		}
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}

	resp = ts.do(t, http.MethodGet, base, "")
	expectStatus(t, resp, http.StatusOK)
	got := decode[sessionView](t, resp).Expanded
	for _, p := range paths {
		if !slices.Contains(got, p) {
			t.Errorf("%s lost by a concurrent update: expanded = %v", p, got)
		}
	}
}
