package api

import (
	"io/fs"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"svgstudio/content"
	"svgstudio/profile"
	"svgstudio/worker"
	"svgstudio/workspace"
)

const defaultMaxUpload = 5 << 20

// Deps are the services the HTTP surface is built on.
type Deps struct {
	Workspaces     *workspace.Manager
	Profiles       *profile.Manager
	Clients        *worker.Clients
	Content        *content.Library
	Static         fs.FS
	MaxUploadBytes int64
	DefaultLocale  string
}

func RegisterRoutes(d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(accessLog)
	r.Use(middleware.Recoverer)

	h := &handler{
		workspaces: d.Workspaces,
		profiles:   d.Profiles,
		clients:    d.Clients,
		content:    d.Content,
		maxUpload:  d.MaxUploadBytes,

		defaultLocale: d.DefaultLocale,
	}
	if h.maxUpload <= 0 {
		h.maxUpload = defaultMaxUpload
	}

	// Stateless tools
	r.Get("/api/plugins", h.listPlugins)
	r.Post("/api/optimize", h.optimize)
	r.Post("/api/format", h.format)
	r.Post("/api/generate", h.generate)
	r.Post("/api/export", h.export)
	r.Get("/api/cache", h.cacheStats)
	r.Delete("/api/cache", h.clearCache)

	// Workspaces
	r.Get("/api/workspaces", h.listWorkspaces)
	r.Post("/api/workspaces", h.createWorkspace)
	r.Get("/api/workspaces/{id}", h.getWorkspace)
	r.Delete("/api/workspaces/{id}", h.deleteWorkspace)
	r.Put("/api/workspaces/{id}/config", h.putWorkspaceConfig)
	r.Put("/api/workspaces/{id}/svg", h.putWorkspaceSVG)
	r.Get("/api/workspaces/{id}/download", h.downloadWorkspace)
	r.Get("/api/workspaces/{id}/diff", h.workspaceDiff)
	r.Get("/api/workspaces/{id}/code/{target}", h.workspaceCode)
	r.Get("/api/workspaces/{id}/export/{format}", h.exportWorkspace)

	// WebSocket
	r.Get("/api/workspaces/{id}/ws", h.handleWS)

	// Profiles API
	r.Get("/api/profiles", h.getProfiles)
	r.Put("/api/profiles", h.putProfiles)
	r.Post("/api/profiles/{id}/use", h.useProfile)
	r.Get("/api/preferences", h.getPreferences)
	r.Put("/api/preferences", h.putPreferences)

	// Static sub-FS: strip the "static/" prefix present in the embed.FS.
	// When staticFS is already rooted at the asset directory, Sub still
	// succeeds, so probe for index.html.
	staticSub, err := fs.Sub(d.Static, "static")
	if err != nil {
		staticSub = d.Static
	} else if _, statErr := fs.Stat(staticSub, "index.html"); statErr != nil {
		staticSub = d.Static
	}

	// Localized pages
	r.Get("/", h.redirectLocalized(""))
	r.Get("/about", h.redirectLocalized("/about"))
	r.Get("/blog", h.redirectLocalized("/blog"))
	r.Get("/blog/{slug}", h.redirectPost)
	r.Get("/optimize", h.redirectLocalized("/optimize"))
	r.Route("/{locale:(?:en|zh|ko|de)}", func(r chi.Router) {
		r.Use(rememberLocale)
		r.Get("/", h.homePage)
		r.Get("/about", h.aboutPage)
		r.Get("/blog", h.blogPage)
		r.Get("/blog/{slug}", h.postPage)
		// Reading index.html directly avoids http.FileServer's redirect of
		// paths ending in index.html.
		r.Get("/optimize", serveFile(staticSub, "index.html"))
	})

	// Static assets
	fileServer := http.FileServer(http.FS(staticSub))
	r.Get("/css/*", fileServer.ServeHTTP)
	r.Get("/js/*", fileServer.ServeHTTP)

	return r
}

// serveFile returns a handler that reads a single file from fsys and sends it.
func serveFile(fsys fs.FS, name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	}
}

type handler struct {
	workspaces *workspace.Manager
	profiles   *profile.Manager
	clients    *worker.Clients
	content    *content.Library
	maxUpload  int64

	defaultLocale string
}
