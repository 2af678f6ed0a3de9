package api_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"testing/fstest"
	"time"

	"svgstudio/api"
	"svgstudio/content"
	"svgstudio/profile"
	"svgstudio/worker"
	"svgstudio/workspace"
)

const iconSVG = `<?xml version="1.0" encoding="UTF-8"?>
<!-- Generator: Sketch -->
<svg xmlns="http://www.w3.org/2000/svg" width="24" height="24" viewBox="0 0 24 24">
  <title>icon</title>
  <g>
    <path d="M 2.123456 3.987654 L 10.5 10.5" fill="#ff0000"/>
  </g>
</svg>`

type testEnv struct {
	srv        *httptest.Server
	workspaces *workspace.Manager
	profiles   *profile.Manager
	clients    *worker.Clients
}

// newTestProfileManager creates a profile manager backed by a temp file.
func newTestProfileManager(t *testing.T) *profile.Manager {
	t.Helper()
	pm, err := profile.NewManager(t.TempDir() + "/profiles.json")
	if err != nil {
		t.Fatalf("newTestProfileManager: %v", err)
	}
	return pm
}

func newTestEnv(t *testing.T, maxUpload int64) *testEnv {
	t.Helper()
	lib, err := content.Embedded()
	if err != nil {
		t.Fatalf("content.Embedded: %v", err)
	}
	clients := worker.NewClients(1, worker.DefaultCacheSize, worker.DefaultCacheAge)
	t.Cleanup(clients.Terminate)

	env := &testEnv{
		workspaces: workspace.NewManager(clients.Optimizer),
		profiles:   newTestProfileManager(t),
		clients:    clients,
	}
	staticFS := fstest.MapFS{
		"index.html":    {Data: []byte("<html>optimizer app</html>")},
		"css/style.css": {Data: []byte("body{}")},
	}
	env.srv = httptest.NewServer(api.RegisterRoutes(api.Deps{
		Workspaces:     env.workspaces,
		Profiles:       env.profiles,
		Clients:        clients,
		Content:        lib,
		Static:         staticFS,
		MaxUploadBytes: maxUpload,
		DefaultLocale:  "en",
	}))
	t.Cleanup(env.srv.Close)
	return env
}

func newTestServer(t *testing.T) *testEnv {
	t.Helper()
	return newTestEnv(t, 0)
}

func (e *testEnv) do(t *testing.T, method, path, contentType string, body io.Reader) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, e.srv.URL+path, body)
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

// doJSON sends v as a JSON body.
func (e *testEnv) doJSON(t *testing.T, method, path string, v any) *http.Response {
	t.Helper()
	var body io.Reader
	if v != nil {
		b, err := json.Marshal(v)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		body = bytes.NewReader(b)
	}
	return e.do(t, method, path, "application/json", body)
}

func expectStatus(t *testing.T, resp *http.Response, want int) {
	t.Helper()
	if resp.StatusCode != want {
		b, _ := io.ReadAll(resp.Body)
		t.Fatalf("%s %s: expected %d, got %d: %s", resp.Request.Method, resp.Request.URL.Path, want, resp.StatusCode, b)
	}
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return v
}

func createWorkspace(t *testing.T, e *testEnv, name, svg string) workspace.State {
	t.Helper()
	resp := e.doJSON(t, http.MethodPost, "/api/workspaces", map[string]string{"name": name, "svg": svg})
	expectStatus(t, resp, http.StatusCreated)
	return decode[workspace.State](t, resp)
}
