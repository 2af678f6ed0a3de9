package api

import (
	"embed"
	"html/template"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/kpango/glg"

	"svgstudio/content"
	"svgstudio/profile"
)

//go:embed templates
var templateFS embed.FS

var pages = map[string]*template.Template{
	"home":  parsePage("home.html"),
	"about": parsePage("about.html"),
	"blog":  parsePage("blog.html"),
	"post":  parsePage("post.html"),
}

func parsePage(name string) *template.Template {
	return template.Must(template.New(name).ParseFS(templateFS, "templates/layout.html", "templates/"+name))
}

type pageData struct {
	Locale  string
	Locales []string
	// Path is the request path without the locale prefix, for the switcher.
	Path  string
	Title string
	Theme profile.Theme
	Posts []content.Post
	Post  *content.Post
	Body  template.HTML

	lib *content.Library
}

// T looks up a dotted dictionary key in the page locale.
func (p pageData) T(key string) string {
	return p.lib.T(p.Locale, key)
}

func (h *handler) page(r *http.Request, title string) pageData {
	locale := chi.URLParam(r, "locale")
	path := strings.TrimPrefix(r.URL.Path, "/"+locale)
	d := pageData{
		Locale:  locale,
		Locales: content.Locales,
		Path:    path,
		Theme:   profile.ThemeSystem,
		lib:     h.content,
	}
	if h.profiles != nil {
		d.Theme = h.profiles.Get().Preference.Theme
	}
	d.Title = d.T(title)
	return d
}

func (h *handler) render(w http.ResponseWriter, name string, d pageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pages[name].ExecuteTemplate(w, "layout", d); err != nil {
		glg.Errorf("render %s page: %v", name, err)
	}
}

// redirectLocalized sends unprefixed page paths to the negotiated locale.
func (h *handler) redirectLocalized(suffix string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/"+content.Negotiate(r, h.defaultLocale)+suffix, http.StatusFound)
	}
}

func (h *handler) redirectPost(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/"+content.Negotiate(r, h.defaultLocale)+"/blog/"+chi.URLParam(r, "slug"), http.StatusFound)
}

// rememberLocale stores the locale of a prefixed page in the lang cookie.
func rememberLocale(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{
			Name:     content.CookieName,
			Value:    chi.URLParam(r, "locale"),
			Path:     "/",
			MaxAge:   365 * 24 * 60 * 60,
			SameSite: http.SameSiteLaxMode,
		})
		next.ServeHTTP(w, r)
	})
}

func (h *handler) homePage(w http.ResponseWriter, r *http.Request) {
	d := h.page(r, "home.hero.title")
	d.Posts = h.content.Latest(d.Locale, content.DefaultLatest)
	h.render(w, "home", d)
}

func (h *handler) aboutPage(w http.ResponseWriter, r *http.Request) {
	h.render(w, "about", h.page(r, "about.title"))
}

func (h *handler) blogPage(w http.ResponseWriter, r *http.Request) {
	d := h.page(r, "header.nav.blog")
	d.Posts = h.content.Posts(d.Locale)
	h.render(w, "blog", d)
}

func (h *handler) postPage(w http.ResponseWriter, r *http.Request) {
	d := h.page(r, "header.nav.blog")
	post, err := h.content.Post(d.Locale, chi.URLParam(r, "slug"))
	if err != nil {
		http.Error(w, "post not found", http.StatusNotFound)
		return
	}
	d.Title = post.Title
	d.Post = &post
	d.Body = template.HTML(post.HTML) //nolint:gosec // rendered from embedded markdown
	h.render(w, "post", d)
}
