package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"svgstudio/codegen"
	"svgstudio/export"
	"svgstudio/format"
	"svgstudio/optimizer"
	"svgstudio/workspace"
)

func (h *handler) workspace(r *http.Request) (*workspace.Workspace, error) {
	ws, ok := h.workspaces.Get(chi.URLParam(r, "id"))
	if !ok {
		return nil, workspace.ErrNotFound
	}
	return ws, nil
}

func (h *handler) listWorkspaces(w http.ResponseWriter, r *http.Request) {
	list := h.workspaces.List()
	states := make([]workspace.State, 0, len(list))
	for _, ws := range list {
		states = append(states, ws.Snapshot())
	}
	writeJSON(w, http.StatusOK, states)
}

// createWorkspace accepts the same bodies as /api/optimize. A workspace whose
// first optimization fails is discarded.
func (h *handler) createWorkspace(w http.ResponseWriter, r *http.Request) {
	in, err := h.readSVG(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	plugins, settings, err := h.config(in)
	if err != nil {
		writeError(w, r, err)
		return
	}

	ws, err := h.workspaces.Create(r.Context(), in.Name, "")
	if err != nil {
		writeError(w, r, err)
		return
	}
	_, err = h.workspaces.Update(r.Context(), ws.ID, func(d *workspace.Draft) {
		d.Original = in.SVG
		d.Plugins = plugins
		d.Settings = settings
	})
	if err != nil {
		_ = h.workspaces.Delete(ws.ID)
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, ws.Snapshot())
}

func (h *handler) getWorkspace(w http.ResponseWriter, r *http.Request) {
	ws, err := h.workspace(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ws.Snapshot())
}

func (h *handler) deleteWorkspace(w http.ResponseWriter, r *http.Request) {
	if err := h.workspaces.Delete(chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type configRequest struct {
	Plugins  []optimizer.Plugin        `json:"plugins,omitempty"`
	Settings *optimizer.GlobalSettings `json:"settings,omitempty"`
	Profile  string                    `json:"profile,omitempty"`
}

// putWorkspaceConfig replaces the plugin list and/or the settings. A profile
// replaces both.
func (h *handler) putWorkspaceConfig(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	var req configRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	if req.Profile != "" {
		p, err := h.profiles.Use(req.Profile)
		if err != nil {
			writeError(w, r, err)
			return
		}
		req.Plugins, req.Settings = p.Plugins, &p.Settings
	}

	id := chi.URLParam(r, "id")
	ws, err := h.workspaces.Update(r.Context(), id, func(d *workspace.Draft) {
		if req.Plugins != nil {
			d.Plugins = req.Plugins
		}
		if req.Settings != nil {
			d.Settings = *req.Settings
		}
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ws.Snapshot())
}

// putWorkspaceSVG replaces the source markup and re-optimizes it.
func (h *handler) putWorkspaceSVG(w http.ResponseWriter, r *http.Request) {
	if _, err := h.workspace(r); err != nil {
		writeError(w, r, err)
		return
	}
	in, err := h.readSVG(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	ws, err := h.workspaces.Update(r.Context(), chi.URLParam(r, "id"), func(d *workspace.Draft) {
		d.Original = in.SVG
		if in.Name != "" {
			d.FileName = in.Name
		}
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ws.Snapshot())
}

func (h *handler) downloadWorkspace(w http.ResponseWriter, r *http.Request) {
	ws, err := h.workspace(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	name, svg := ws.Optimized()
	if svg == "" {
		writeError(w, r, errNothingOptimized)
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml; charset=utf-8")
	w.Header().Set("Content-Disposition", attachment(name))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(svg))
}

// workspaceDiff compares the prettified original with the prettified
// optimized markup.
func (h *handler) workspaceDiff(w http.ResponseWriter, r *http.Request) {
	ws, err := h.workspace(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	name, original := ws.Source()
	optName, optimized := ws.Optimized()
	if optimized == "" {
		writeError(w, r, errNothingOptimized)
		return
	}
	writeJSON(w, http.StatusOK, format.Compare(name, optName, format.Prettify(original), format.Prettify(optimized)))
}

func (h *handler) workspaceCode(w http.ResponseWriter, r *http.Request) {
	ws, err := h.workspace(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	target, err := codegen.ParseTarget(chi.URLParam(r, "target"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	name, _ := ws.Source()
	_, svg := ws.Optimized()
	if svg == "" {
		writeError(w, r, errNothingOptimized)
		return
	}
	res, err := h.renderCode(r.Context(), target, name, svg, codeOptionsFrom(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// exportWorkspace rasterizes the optimized markup. Query: scale, width,
// background, quality.
func (h *handler) exportWorkspace(w http.ResponseWriter, r *http.Request) {
	ws, err := h.workspace(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	name, _ := ws.Source()
	_, svg := ws.Optimized()
	if svg == "" {
		writeError(w, r, errNothingOptimized)
		return
	}

	q := r.URL.Query()
	opts := export.Options{
		Format:     export.Format(chi.URLParam(r, "format")),
		Background: q.Get("background"),
	}
	if v := q.Get("scale"); v != "" {
		if opts.Scale, err = strconv.ParseFloat(v, 64); err != nil {
			writeError(w, r, fmt.Errorf("%w: scale %q", errBadRequest, v))
			return
		}
	}
	if v := q.Get("width"); v != "" {
		if opts.Width, err = strconv.Atoi(v); err != nil {
			writeError(w, r, fmt.Errorf("%w: width %q", errBadRequest, v))
			return
		}
	}
	if v := q.Get("quality"); v != "" {
		if opts.Quality, err = strconv.Atoi(v); err != nil {
			writeError(w, r, fmt.Errorf("%w: quality %q", errBadRequest, v))
			return
		}
	}
	writeImage(w, r, name, svg, opts)
}
