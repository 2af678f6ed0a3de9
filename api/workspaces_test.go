package api_test

import (
	"bytes"
	"io"
	"net/http"
	"strings"
	"testing"

	"svgstudio/format"
	"svgstudio/optimizer"
	"svgstudio/profile"
	"svgstudio/workspace"
)

func TestListWorkspacesEmpty(t *testing.T) {
	e := newTestServer(t)
	resp := e.do(t, http.MethodGet, "/api/workspaces", "", nil)
	expectStatus(t, resp, http.StatusOK)
	if list := decode[[]workspace.State](t, resp); len(list) != 0 {
		t.Fatalf("expected 0 workspaces, got %d", len(list))
	}
}

func TestCreateWorkspace201(t *testing.T) {
	e := newTestServer(t)
	s := createWorkspace(t, e, "icon.svg", iconSVG)

	if s.ID == "" || s.FileName != "icon.svg" {
		t.Fatalf("unexpected state %+v", s)
	}
	if s.Optimized == "" || s.Compressing || s.Error != "" {
		t.Fatalf("expected an optimized workspace, got %+v", s)
	}
	if s.Stats.OptimizedSize >= s.Stats.OriginalSize {
		t.Fatalf("expected a smaller output, got %+v", s.Stats)
	}
	if len(e.workspaces.List()) != 1 {
		t.Fatal("workspace not registered")
	}
}

func TestCreateWorkspaceEmpty(t *testing.T) {
	e := newTestServer(t)
	s := createWorkspace(t, e, "", "")
	if s.FileName != "untitled.svg" || s.Optimized != "" {
		t.Fatalf("unexpected state %+v", s)
	}
}

func TestCreateWorkspaceInvalidIsDiscarded(t *testing.T) {
	e := newTestServer(t)
	resp := e.doJSON(t, http.MethodPost, "/api/workspaces", map[string]string{"svg": "<svg><g></svg>"})
	expectStatus(t, resp, http.StatusBadRequest)
	if n := len(e.workspaces.List()); n != 0 {
		t.Fatalf("expected failed workspace to be discarded, %d left", n)
	}
}

func TestCreateWorkspaceWithProfile(t *testing.T) {
	e := newTestServer(t)
	store, err := e.profiles.Save(profile.Store{Profiles: []profile.Profile{{
		ID:       "p1",
		Name:     "titles only",
		Plugins:  []optimizer.Plugin{{Name: "removeTitle", Enabled: true}},
		Settings: optimizer.DefaultSettings(),
	}}})
	if err != nil || len(store.Profiles) != 1 {
		t.Fatalf("Save: %v", err)
	}

	resp := e.doJSON(t, http.MethodPost, "/api/workspaces", map[string]string{"svg": iconSVG, "profile": "p1"})
	expectStatus(t, resp, http.StatusCreated)
	s := decode[workspace.State](t, resp)
	if len(s.Plugins) != 1 || s.Plugins[0].Name != "removeTitle" {
		t.Fatalf("profile plugins not applied: %+v", s.Plugins)
	}
	if strings.Contains(s.Optimized, "<title>") || !strings.Contains(s.Optimized, "Generator") {
		t.Fatalf("expected only the title removed: %s", s.Optimized)
	}
	if ru := e.profiles.Get().RecentlyUsed; len(ru) != 1 || ru[0] != "p1" {
		t.Fatalf("expected p1 marked as used, got %v", ru)
	}
}

func TestCreateWorkspaceUnknownProfile(t *testing.T) {
	e := newTestServer(t)
	resp := e.doJSON(t, http.MethodPost, "/api/workspaces", map[string]string{"svg": iconSVG, "profile": "nope"})
	expectStatus(t, resp, http.StatusNotFound)
}

func TestGetWorkspace(t *testing.T) {
	e := newTestServer(t)
	s := createWorkspace(t, e, "icon.svg", iconSVG)

	resp := e.do(t, http.MethodGet, "/api/workspaces/"+s.ID, "", nil)
	expectStatus(t, resp, http.StatusOK)
	if got := decode[workspace.State](t, resp); got.ID != s.ID || got.Optimized != s.Optimized {
		t.Fatalf("unexpected state %+v", got)
	}

	resp = e.do(t, http.MethodGet, "/api/workspaces/nonexistent", "", nil)
	expectStatus(t, resp, http.StatusNotFound)
}

func TestDeleteWorkspace(t *testing.T) {
	e := newTestServer(t)
	s := createWorkspace(t, e, "icon.svg", iconSVG)

	resp := e.do(t, http.MethodDelete, "/api/workspaces/"+s.ID, "", nil)
	expectStatus(t, resp, http.StatusNoContent)

	resp = e.do(t, http.MethodDelete, "/api/workspaces/"+s.ID, "", nil)
	expectStatus(t, resp, http.StatusNotFound)
}

func TestPutWorkspaceConfig(t *testing.T) {
	e := newTestServer(t)
	s := createWorkspace(t, e, "icon.svg", iconSVG)

	settings := optimizer.DefaultSettings()
	settings.Multipass = false
	settings.CompareGzipped = true
	resp := e.doJSON(t, http.MethodPut, "/api/workspaces/"+s.ID+"/config", map[string]any{
		"plugins":  []optimizer.Plugin{{Name: "removeComments", Enabled: true}},
		"settings": settings,
	})
	expectStatus(t, resp, http.StatusOK)

	got := decode[workspace.State](t, resp)
	if got.Settings.Multipass || len(got.Plugins) != 1 {
		t.Fatalf("config not applied: %+v", got)
	}
	if strings.Contains(got.Optimized, "Generator") || !strings.Contains(got.Optimized, "<title>") {
		t.Fatalf("expected only comments removed: %s", got.Optimized)
	}
	if got.Stats.OptimizedGzip == 0 {
		t.Fatal("expected gzip sizes with compareGzipped")
	}
}

func TestPutWorkspaceConfigBadJSON(t *testing.T) {
	e := newTestServer(t)
	s := createWorkspace(t, e, "icon.svg", iconSVG)
	resp := e.do(t, http.MethodPut, "/api/workspaces/"+s.ID+"/config", "application/json", strings.NewReader("not-json"))
	expectStatus(t, resp, http.StatusBadRequest)
}

func TestPutWorkspaceSVG(t *testing.T) {
	e := newTestServer(t)
	s := createWorkspace(t, e, "", "")

	replacement := `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 10 10"><!-- c --><rect width="10" height="10"/></svg>`
	resp := e.do(t, http.MethodPut, "/api/workspaces/"+s.ID+"/svg?name=square.svg", "image/svg+xml", strings.NewReader(replacement))
	expectStatus(t, resp, http.StatusOK)

	got := decode[workspace.State](t, resp)
	if got.FileName != "square.svg" || got.Original != replacement {
		t.Fatalf("source not replaced: %+v", got)
	}
	if got.Optimized == "" || strings.Contains(got.Optimized, "<!--") {
		t.Fatalf("replacement not optimized: %s", got.Optimized)
	}
}

func TestPutWorkspaceSVGNotFound(t *testing.T) {
	e := newTestServer(t)
	resp := e.do(t, http.MethodPut, "/api/workspaces/nonexistent/svg", "image/svg+xml", strings.NewReader(iconSVG))
	expectStatus(t, resp, http.StatusNotFound)
}

func TestDownloadWorkspace(t *testing.T) {
	e := newTestServer(t)
	s := createWorkspace(t, e, "icon.svg", iconSVG)

	resp := e.do(t, http.MethodGet, "/api/workspaces/"+s.ID+"/download", "", nil)
	expectStatus(t, resp, http.StatusOK)
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "image/svg+xml") {
		t.Fatalf("unexpected content type %q", ct)
	}
	if cd := resp.Header.Get("Content-Disposition"); !strings.Contains(cd, "icon.optimized.svg") {
		t.Fatalf("unexpected disposition %q", cd)
	}
	body, _ := io.ReadAll(resp.Body)
	if string(body) != s.Optimized {
		t.Fatalf("download differs from optimized markup")
	}
}

func TestDownloadBeforeOptimize(t *testing.T) {
	e := newTestServer(t)
	s := createWorkspace(t, e, "", "")
	resp := e.do(t, http.MethodGet, "/api/workspaces/"+s.ID+"/download", "", nil)
	expectStatus(t, resp, http.StatusConflict)
}

func TestWorkspaceDiff(t *testing.T) {
	e := newTestServer(t)
	s := createWorkspace(t, e, "icon.svg", iconSVG)

	resp := e.do(t, http.MethodGet, "/api/workspaces/"+s.ID+"/diff", "", nil)
	expectStatus(t, resp, http.StatusOK)
	d := decode[format.Diff](t, resp)
	if d.Removed == 0 || len(d.Lines) == 0 {
		t.Fatalf("expected removed lines, got %+v", d)
	}
	if !strings.HasPrefix(d.Unified, "--- icon.svg\n+++ icon.optimized.svg\n@@ ") {
		t.Fatalf("unexpected unified diff:\n%s", d.Unified)
	}

	empty := createWorkspace(t, e, "", "")
	resp = e.do(t, http.MethodGet, "/api/workspaces/"+empty.ID+"/diff", "", nil)
	expectStatus(t, resp, http.StatusConflict)
}

func TestWorkspaceCode(t *testing.T) {
	e := newTestServer(t)
	s := createWorkspace(t, e, "arrow-left.svg", iconSVG)

	resp := e.do(t, http.MethodGet, "/api/workspaces/"+s.ID+"/code/vue", "", nil)
	expectStatus(t, resp, http.StatusOK)
	res := decode[codeResp](t, resp)
	if res.FileName != "ArrowLeft.vue" || !strings.Contains(res.Code, "name: 'ArrowLeft'") {
		t.Fatalf("unexpected code result %+v", res)
	}

	resp = e.do(t, http.MethodGet, "/api/workspaces/"+s.ID+"/code/angular", "", nil)
	expectStatus(t, resp, http.StatusBadRequest)
}

func TestWorkspaceExport(t *testing.T) {
	e := newTestServer(t)
	s := createWorkspace(t, e, "icon.svg", iconSVG)

	resp := e.do(t, http.MethodGet, "/api/workspaces/"+s.ID+"/export/jpeg?scale=2&quality=80", "", nil)
	expectStatus(t, resp, http.StatusOK)
	if ct := resp.Header.Get("Content-Type"); ct != "image/jpeg" {
		t.Fatalf("unexpected content type %q", ct)
	}
	data, _ := io.ReadAll(resp.Body)
	if !bytes.HasPrefix(data, []byte{0xFF, 0xD8}) {
		t.Fatal("body is not a JPEG")
	}

	resp = e.do(t, http.MethodGet, "/api/workspaces/"+s.ID+"/export/png?scale=big", "", nil)
	expectStatus(t, resp, http.StatusBadRequest)
	resp = e.do(t, http.MethodGet, "/api/workspaces/"+s.ID+"/export/tiff", "", nil)
	expectStatus(t, resp, http.StatusBadRequest)
}
