package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/kpango/glg"

	"svgstudio/codegen"
	"svgstudio/optimizer"
	"svgstudio/svgdoc"
	"svgstudio/workspace"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Request types understood over the socket.
const (
	rpcOptimize = "optimize"
	rpcFormat   = "format"
	rpcGenerate = "generate"
	rpcConfig   = "config"
	rpcSVG      = "svg"
)

type rpcRequest struct {
	ID   string          `json:"id"`
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

type rpcResponse struct {
	ID      string `json:"id"`
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

func (h *handler) handleWS(w http.ResponseWriter, r *http.Request) {
	ws, err := h.workspace(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		glg.Warnf("ws upgrade: %v", err)
		return
	}
	defer conn.Close()

	// gorilla/websocket allows one concurrent writer.
	var writeMu sync.Mutex
	writeMsg := func(v any) error {
		writeMu.Lock()
		defer writeMu.Unlock()
		return conn.WriteJSON(v)
	}

	outChan := make(chan workspace.Event, 64)
	kick := ws.SetClient(outChan)
	defer ws.ClearClient(outChan)

	if err := writeMsg(workspace.Event{Type: workspace.EventState, Data: ws.Snapshot()}); err != nil {
		return
	}

	// Pump workspace events until ClearClient closes outChan.
	go func() {
		for ev := range outChan {
			if err := writeMsg(ev); err != nil {
				return
			}
		}
	}()

	// Close the connection when the workspace goes away or another client
	// takes over, so ReadJSON below returns.
	connDone := make(chan struct{})
	go func() {
		select {
		case <-ws.Done():
			writeMsg(workspace.Event{Type: "closed"}) //nolint:errcheck
			conn.Close()
		case <-kick:
			conn.Close()
		case <-connDone:
		}
	}()
	defer close(connDone)

	ctx, cancel := context.WithCancel(r.Context())
	var inflight sync.WaitGroup
	defer inflight.Wait()
	defer cancel()

	for {
		var req rpcRequest
		if err := conn.ReadJSON(&req); err != nil {
			return
		}
		inflight.Add(1)
		go func() {
			defer inflight.Done()
			data, err := h.call(ctx, ws, req)
			resp := rpcResponse{ID: req.ID, Success: err == nil, Data: data}
			if err != nil {
				resp.Error = err.Error()
			}
			if werr := writeMsg(resp); werr != nil {
				glg.Debugf("ws %s: reply %s: %v", ws.ID, req.ID, werr)
			}
		}()
	}
}

// call runs one RPC request against ws.
func (h *handler) call(ctx context.Context, ws *workspace.Workspace, req rpcRequest) (any, error) {
	decode := func(v any) error {
		if len(req.Data) == 0 {
			return nil
		}
		if err := json.Unmarshal(req.Data, v); err != nil {
			return fmt.Errorf("%w: %v", errBadRequest, err)
		}
		return nil
	}

	switch req.Type {
	case rpcOptimize:
		var p struct {
			SVG      string                    `json:"svg"`
			Plugins  []optimizer.Plugin        `json:"plugins"`
			Settings *optimizer.GlobalSettings `json:"settings"`
		}
		if err := decode(&p); err != nil {
			return nil, err
		}
		plugins, settings, _ := h.config(svgInput{Plugins: p.Plugins, Settings: p.Settings})
		out, err := h.clients.Optimizer.Compress(ctx, p.SVG, optimizer.BuildConfig(plugins, settings))
		if err != nil {
			return nil, err
		}
		return map[string]any{
			"svg":   out,
			"stats": optimizer.NewStats(p.SVG, out, settings.CompareGzipped),
		}, nil

	case rpcFormat:
		var p struct {
			Content  string `json:"content"`
			Language string `json:"language"`
		}
		if err := decode(&p); err != nil {
			return nil, err
		}
		if p.Language == "" {
			p.Language = "svg"
		}
		out, err := h.clients.Formatter.Format(ctx, p.Content, p.Language)
		if err != nil {
			return nil, err
		}
		return map[string]string{"content": out}, nil

	case rpcGenerate:
		var p struct {
			Target       string `json:"target"`
			CurrentColor bool   `json:"currentColor"`
			Highlight    bool   `json:"highlight"`
			Style        string `json:"style"`
		}
		if err := decode(&p); err != nil {
			return nil, err
		}
		target, err := codegen.ParseTarget(p.Target)
		if err != nil {
			return nil, err
		}
		name, _ := ws.Source()
		_, svg := ws.Optimized()
		if svg == "" {
			return nil, errNothingOptimized
		}
		res, err := h.renderCode(ctx, target, name, svg, codeOptions{
			currentColor: p.CurrentColor,
			highlight:    p.Highlight,
			style:        p.Style,
		})
		if err != nil {
			return nil, err
		}
		return res, nil

	case rpcConfig:
		var p configRequest
		if err := decode(&p); err != nil {
			return nil, err
		}
		if p.Profile != "" {
			prof, err := h.profiles.Use(p.Profile)
			if err != nil {
				return nil, err
			}
			p.Plugins, p.Settings = prof.Plugins, &prof.Settings
		}
		updated, err := h.workspaces.Update(ctx, ws.ID, func(d *workspace.Draft) {
			if p.Plugins != nil {
				d.Plugins = p.Plugins
			}
			if p.Settings != nil {
				d.Settings = *p.Settings
			}
		})
		if err != nil {
			return nil, err
		}
		return updated.Snapshot(), nil

	case rpcSVG:
		var p struct {
			Name string `json:"name"`
			SVG  string `json:"svg"`
		}
		if err := decode(&p); err != nil {
			return nil, err
		}
		text, err := svgdoc.FromText(p.SVG)
		if err != nil {
			return nil, err
		}
		updated, err := h.workspaces.Update(ctx, ws.ID, func(d *workspace.Draft) {
			d.Original = text
			if p.Name != "" {
				d.FileName = p.Name
			}
		})
		if err != nil {
			return nil, err
		}
		return updated.Snapshot(), nil
	}
	return nil, fmt.Errorf("%w: unknown request type %q", errBadRequest, req.Type)
}
