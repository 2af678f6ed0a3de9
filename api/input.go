package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strings"

	"svgstudio/optimizer"
	"svgstudio/svgdoc"
)

// svgInput is what every SVG-accepting endpoint reads.
type svgInput struct {
	Name     string                    `json:"name"`
	SVG      string                    `json:"svg"`
	Plugins  []optimizer.Plugin        `json:"plugins,omitempty"`
	Settings *optimizer.GlobalSettings `json:"settings,omitempty"`
	Profile  string                    `json:"profile,omitempty"`
}

// readSVG accepts a multipart upload (field "file"), a raw image/svg+xml
// body, or JSON {name, svg}. Pasted JSON text may be base64 or a data URI;
// an empty JSON svg is passed through for the caller to judge.
func (h *handler) readSVG(w http.ResponseWriter, r *http.Request) (svgInput, error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	var tooBig *http.MaxBytesError

	switch mediaType {
	case "multipart/form-data":
		if err := r.ParseMultipartForm(h.maxUpload); err != nil {
			if errors.As(err, &tooBig) {
				return svgInput{}, err
			}
			return svgInput{}, fmt.Errorf("%w: %v", errBadRequest, err)
		}
		f, hdr, err := r.FormFile("file")
		if err != nil {
			return svgInput{}, fmt.Errorf("%w: missing file field", errBadRequest)
		}
		defer f.Close()
		if !svgdoc.IsSVGFile(hdr.Filename, hdr.Header.Get("Content-Type")) {
			return svgInput{}, fmt.Errorf("%w: %s", svgdoc.ErrUnsupported, hdr.Filename)
		}
		text, err := svgdoc.Decode(f, hdr.Header.Get("Content-Type"))
		if err != nil {
			return svgInput{}, err
		}
		if !svgdoc.IsSVGContent(text) {
			return svgInput{}, svgdoc.ErrNotSVG
		}
		return svgInput{Name: hdr.Filename, SVG: text, Profile: r.FormValue("profile")}, nil

	case "image/svg+xml":
		text, err := svgdoc.Decode(r.Body, r.Header.Get("Content-Type"))
		if err != nil {
			return svgInput{}, err
		}
		if !svgdoc.IsSVGContent(text) {
			return svgInput{}, svgdoc.ErrNotSVG
		}
		q := r.URL.Query()
		return svgInput{Name: q.Get("name"), SVG: text, Profile: q.Get("profile")}, nil

	case "application/json", "":
		var in svgInput
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			if errors.As(err, &tooBig) {
				return svgInput{}, err
			}
			return svgInput{}, errBadRequest
		}
		if strings.TrimSpace(in.SVG) == "" {
			return in, nil
		}
		text, err := svgdoc.FromText(in.SVG)
		if err != nil {
			return svgInput{}, err
		}
		in.SVG = text
		return in, nil
	}
	return svgInput{}, fmt.Errorf("%w: content type %s", svgdoc.ErrUnsupported, mediaType)
}

// config resolves the plugin list and settings for a request: an explicit
// profile wins, then explicit plugins/settings, then the defaults.
func (h *handler) config(in svgInput) ([]optimizer.Plugin, optimizer.GlobalSettings, error) {
	if in.Profile != "" {
		p, err := h.profiles.Use(in.Profile)
		if err != nil {
			return nil, optimizer.GlobalSettings{}, err
		}
		return p.Plugins, p.Settings, nil
	}
	plugins := in.Plugins
	if plugins == nil {
		plugins = optimizer.DefaultPlugins()
	}
	settings := optimizer.DefaultSettings()
	if in.Settings != nil {
		settings = *in.Settings
	}
	return plugins, settings, nil
}
