package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/kpango/glg"

	"svgstudio/codegen"
	"svgstudio/content"
	"svgstudio/export"
	"svgstudio/format"
	"svgstudio/optimizer"
	"svgstudio/profile"
	"svgstudio/svgdoc"
	"svgstudio/workspace"
)

var (
	errBadRequest       = errors.New("invalid request body")
	errNothingOptimized = errors.New("no optimized SVG yet")
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// statusFor maps package sentinels to HTTP status codes.
func statusFor(err error) int {
	var tooBig *http.MaxBytesError
	switch {
	case errors.As(err, &tooBig):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, svgdoc.ErrUnsupported):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, workspace.ErrNotFound),
		errors.Is(err, profile.ErrNotFound),
		errors.Is(err, content.ErrPostNotFound):
		return http.StatusNotFound
	case errors.Is(err, errNothingOptimized):
		return http.StatusConflict
	case errors.Is(err, errBadRequest),
		errors.Is(err, optimizer.ErrEmptyInput),
		errors.Is(err, optimizer.ErrInvalidSVG),
		errors.Is(err, svgdoc.ErrNotSVG),
		errors.Is(err, codegen.ErrUnknownTarget),
		errors.Is(err, format.ErrUnsupportedLanguage),
		errors.Is(err, export.ErrUnknownFormat),
		errors.Is(err, export.ErrBadColor),
		errors.Is(err, export.ErrTooLarge),
		errors.Is(err, export.ErrRender),
		errors.Is(err, profile.ErrInvalid):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// writeError sends {"error": msg}. Internal errors are logged and replaced by
// a generic message.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		glg.Errorf("%s %s: %v", r.Method, r.URL.Path, err)
		msg = "internal error"
	}
	writeJSON(w, status, map[string]string{"error": msg})
}
