package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/kpango/glg"

	"svgstudio/codegen"
	"svgstudio/export"
	"svgstudio/optimizer"
	"svgstudio/svgdoc"
	"svgstudio/worker"
)

type pluginInfo struct {
	optimizer.Plugin
	Label string `json:"label"`
}

func (h *handler) listPlugins(w http.ResponseWriter, r *http.Request) {
	defaults := optimizer.DefaultPlugins()
	plugins := make([]pluginInfo, 0, len(defaults))
	for _, p := range defaults {
		plugins = append(plugins, pluginInfo{Plugin: p, Label: optimizer.Label(p.Name)})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"plugins":  plugins,
		"settings": optimizer.DefaultSettings(),
	})
}

type optimizeResult struct {
	Name   string          `json:"name"`
	SVG    string          `json:"svg"`
	Pretty string          `json:"pretty,omitempty"`
	Stats  optimizer.Stats `json:"stats"`
	Info   *svgdoc.Info    `json:"info,omitempty"`
}

func (h *handler) optimize(w http.ResponseWriter, r *http.Request) {
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
	out, err := h.clients.Optimizer.Compress(r.Context(), in.SVG, optimizer.BuildConfig(plugins, settings))
	if err != nil {
		writeError(w, r, err)
		return
	}

	res := optimizeResult{
		Name:  svgdoc.OptimizedFileName(in.Name),
		SVG:   out,
		Stats: optimizer.NewStats(in.SVG, out, settings.CompareGzipped),
	}
	if settings.PrettifyMarkup {
		if pretty, err := h.clients.Formatter.Format(r.Context(), out, "svg"); err == nil {
			res.Pretty = pretty
		}
	}
	if info, err := svgdoc.Inspect(out); err == nil {
		res.Info = &info
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *handler) format(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	var req struct {
		Content  string `json:"content"`
		Language string `json:"language"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	if req.Language == "" {
		req.Language = "svg"
	}
	out, err := h.clients.Formatter.Format(r.Context(), req.Content, req.Language)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"content": out})
}

type codeResult struct {
	Target    codegen.Target `json:"target"`
	Component string         `json:"component"`
	FileName  string         `json:"fileName"`
	Language  string         `json:"language"`
	Code      string         `json:"code"`
	HTML      string         `json:"html,omitempty"`
}

type codeOptions struct {
	currentColor bool
	highlight    bool
	style        string
}

func codeOptionsFrom(r *http.Request) codeOptions {
	q := r.URL.Query()
	hl, _ := strconv.ParseBool(q.Get("highlight"))
	cc, _ := strconv.ParseBool(q.Get("currentColor"))
	return codeOptions{currentColor: cc, highlight: hl, style: q.Get("style")}
}

// renderCode parses svg, generates target code and formats it. Formatting
// failures leave the generated code as it is.
func (h *handler) renderCode(ctx context.Context, target codegen.Target, name, svg string, opts codeOptions) (codeResult, error) {
	data, err := svgdoc.Parse(svg, name, opts.currentColor)
	if err != nil {
		return codeResult{}, err
	}
	code, err := h.clients.Codegen.Generate(ctx, target, data, svg)
	if err != nil {
		return codeResult{}, err
	}
	if pretty, err := h.clients.Formatter.Format(ctx, code, target.Language()); err == nil {
		code = pretty
	} else {
		glg.Debugf("format %s code: %v", target, err)
	}

	res := codeResult{
		Target:    target,
		Component: data.ComponentName,
		FileName:  target.FileName(data.ComponentName),
		Language:  target.Language(),
		Code:      code,
	}
	if opts.highlight {
		html, err := codegen.Highlight(code, res.FileName, res.Language, opts.style)
		if err != nil {
			return codeResult{}, err
		}
		res.HTML = html
	}
	return res, nil
}

func (h *handler) generate(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	var req struct {
		Target       string `json:"target"`
		Name         string `json:"name"`
		SVG          string `json:"svg"`
		CurrentColor bool   `json:"currentColor"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	target, err := codegen.ParseTarget(req.Target)
	if err != nil {
		writeError(w, r, err)
		return
	}
	opts := codeOptionsFrom(r)
	opts.currentColor = opts.currentColor || req.CurrentColor
	res, err := h.renderCode(r.Context(), target, req.Name, req.SVG, opts)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *handler) export(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	var req struct {
		Name string `json:"name"`
		SVG  string `json:"svg"`
		export.Options
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	writeImage(w, r, req.Name, req.SVG, req.Options)
}

// writeImage rasterizes svg and sends it as an attachment.
func writeImage(w http.ResponseWriter, r *http.Request, name, svg string, opts export.Options) {
	f, err := export.ParseFormat(string(opts.Format))
	if err != nil {
		writeError(w, r, err)
		return
	}
	opts.Format = f
	data, err := export.Rasterize(svg, opts)
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", f.ContentType())
	w.Header().Set("Content-Disposition", attachment(svgdoc.ComponentName(name)+f.Extension()))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func attachment(name string) string {
	return fmt.Sprintf("attachment; filename=%q", name)
}

type cacheReport struct {
	Caches  map[string]worker.Stats `json:"caches"`
	Pending int                     `json:"pending"`
}

func (h *handler) cacheStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, cacheReport{
		Caches:  h.clients.CacheStats(),
		Pending: h.clients.Optimizer.Pending(),
	})
}

func (h *handler) clearCache(w http.ResponseWriter, r *http.Request) {
	h.clients.ClearCaches()
	w.WriteHeader(http.StatusNoContent)
}
