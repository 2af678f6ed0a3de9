package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/kpango/glg"
)

// accessLog writes one glg line per request.
func accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		line := "%s %s %d %dB %s [%s]"
		args := []any{r.Method, r.URL.RequestURI(), status, ww.BytesWritten(), time.Since(start), middleware.GetReqID(r.Context())}
		if status >= 500 {
			glg.Errorf(line, args...)
			return
		}
		glg.Infof(line, args...)
	})
}
