// Package content serves the localized blog posts and UI dictionaries
// embedded in the binary.
package content

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"gopkg.in/yaml.v3"
)

//go:embed posts locales
var files embed.FS

const DefaultLatest = 4

var ErrPostNotFound = errors.New("post not found")

// Meta is the YAML front matter of a post.
type Meta struct {
	Title    string `yaml:"title" json:"title"`
	Desc     string `yaml:"desc" json:"desc"`
	Cover    string `yaml:"cover" json:"cover,omitempty"`
	Datetime string `yaml:"datetime" json:"datetime"`
}

type Post struct {
	Meta
	Slug          string    `json:"slug"`
	Locale        string    `json:"locale"`
	Date          time.Time `json:"date"`
	FormattedDate string    `json:"formattedDate"`
	HTML          string    `json:"html,omitempty"`
}

// Library holds every post and dictionary, parsed once at startup.
type Library struct {
	posts map[string]map[string]Post // slug → locale → post
	order []string                   // slugs, newest first
	dicts map[string]map[string]any
}

// Load reads posts/<slug>/<locale>.md and locales/<locale>.yaml from fsys.
func Load(fsys fs.FS) (*Library, error) {
	l := &Library{
		posts: make(map[string]map[string]Post),
		dicts: make(map[string]map[string]any),
	}
	md := goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
	)

	paths, err := fs.Glob(fsys, "posts/*/*.md")
	if err != nil {
		return nil, err
	}
	for _, p := range paths {
		slug := path.Base(path.Dir(p))
		locale := strings.TrimSuffix(path.Base(p), ".md")
		if !Supported(locale) {
			continue
		}
		raw, err := fs.ReadFile(fsys, p)
		if err != nil {
			return nil, err
		}
		post, err := parsePost(md, raw)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", p, err)
		}
		post.Slug = slug
		post.Locale = locale
		post.FormattedDate = FormatDate(post.Date, locale)
		if l.posts[slug] == nil {
			l.posts[slug] = make(map[string]Post)
		}
		l.posts[slug][locale] = post
	}

	for slug, byLocale := range l.posts {
		if _, ok := byLocale[DefaultLocale]; !ok {
			return nil, fmt.Errorf("post %s has no %s version", slug, DefaultLocale)
		}
		l.order = append(l.order, slug)
	}
	sort.Slice(l.order, func(i, j int) bool {
		a := l.posts[l.order[i]][DefaultLocale].Date
		b := l.posts[l.order[j]][DefaultLocale].Date
		if a.Equal(b) {
			return l.order[i] < l.order[j]
		}
		return a.After(b)
	})

	for _, loc := range Locales {
		raw, err := fs.ReadFile(fsys, "locales/"+loc+".yaml")
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, err
		}
		var d map[string]any
		if err := yaml.Unmarshal(raw, &d); err != nil {
			return nil, fmt.Errorf("locales/%s.yaml: %w", loc, err)
		}
		l.dicts[loc] = d
	}
	return l, nil
}

// Embedded loads the library compiled into the binary.
func Embedded() (*Library, error) {
	return Load(files)
}

var frontMatterSep = []byte("---")

func parsePost(md goldmark.Markdown, raw []byte) (Post, error) {
	var post Post
	raw = bytes.ReplaceAll(raw, []byte("\r\n"), []byte("\n"))
	body := raw
	if bytes.HasPrefix(raw, frontMatterSep) {
		rest := raw[len(frontMatterSep):]
		end := bytes.Index(rest, []byte("\n---"))
		if end < 0 {
			return post, errors.New("unterminated front matter")
		}
		if err := yaml.Unmarshal(rest[:end], &post.Meta); err != nil {
			return post, fmt.Errorf("front matter: %w", err)
		}
		body = rest[end+len("\n---"):]
	}
	if post.Datetime != "" {
		t, err := time.Parse("2006-01-02", post.Datetime)
		if err != nil {
			return post, fmt.Errorf("datetime: %w", err)
		}
		post.Date = t
	}

	var buf bytes.Buffer
	if err := md.Convert(body, &buf); err != nil {
		return post, fmt.Errorf("render markdown: %w", err)
	}
	post.HTML = buf.String()
	return post, nil
}

func (l *Library) localized(slug, locale string) (Post, bool) {
	byLocale, ok := l.posts[slug]
	if !ok {
		return Post{}, false
	}
	if p, ok := byLocale[locale]; ok {
		return p, true
	}
	p, ok := byLocale[DefaultLocale]
	return p, ok
}

// Posts lists every post newest first, in locale where a translation exists
// and in the default locale otherwise. HTML bodies are omitted.
func (l *Library) Posts(locale string) []Post {
	out := make([]Post, 0, len(l.order))
	for _, slug := range l.order {
		p, _ := l.localized(slug, locale)
		p.HTML = ""
		out = append(out, p)
	}
	return out
}

// Latest returns the n newest posts; n <= 0 means DefaultLatest.
func (l *Library) Latest(locale string, n int) []Post {
	if n <= 0 {
		n = DefaultLatest
	}
	posts := l.Posts(locale)
	if len(posts) > n {
		posts = posts[:n]
	}
	return posts
}

// Post returns one rendered post.
func (l *Library) Post(locale, slug string) (Post, error) {
	p, ok := l.localized(slug, locale)
	if !ok {
		return Post{}, fmt.Errorf("%w: %s", ErrPostNotFound, slug)
	}
	return p, nil
}
