package content

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/language"
)

const (
	DefaultLocale = "en"
	CookieName    = "lang"
)

// Locales are the supported UI languages, default first.
var Locales = []string{"en", "zh", "ko", "de"}

var matcher = language.NewMatcher([]language.Tag{
	language.English,
	language.Chinese,
	language.Korean,
	language.German,
})

func Supported(locale string) bool {
	for _, l := range Locales {
		if l == locale {
			return true
		}
	}
	return false
}

// Negotiate picks a locale from the lang cookie, then Accept-Language. When
// neither names a supported locale it returns fallback, or DefaultLocale if
// fallback is not supported either.
func Negotiate(r *http.Request, fallback string) string {
	if !Supported(fallback) {
		fallback = DefaultLocale
	}
	if c, err := r.Cookie(CookieName); err == nil && Supported(c.Value) {
		return c.Value
	}
	tags, _, err := language.ParseAcceptLanguage(r.Header.Get("Accept-Language"))
	if err != nil || len(tags) == 0 {
		return fallback
	}
	_, idx, conf := matcher.Match(tags...)
	if conf == language.No {
		return fallback
	}
	return Locales[idx]
}

var germanMonths = [...]string{
	"Januar", "Februar", "März", "April", "Mai", "Juni",
	"Juli", "August", "September", "Oktober", "November", "Dezember",
}

// FormatDate renders t as a long date in the conventions of locale.
func FormatDate(t time.Time, locale string) string {
	if t.IsZero() {
		return ""
	}
	y, m, d := t.Date()
	switch locale {
	case "zh":
		return strconv.Itoa(y) + "年" + strconv.Itoa(int(m)) + "月" + strconv.Itoa(d) + "日"
	case "ko":
		return strconv.Itoa(y) + "년 " + strconv.Itoa(int(m)) + "월 " + strconv.Itoa(d) + "일"
	case "de":
		return strconv.Itoa(d) + ". " + germanMonths[m-1] + " " + strconv.Itoa(y)
	default:
		return t.Format("January 2, 2006")
	}
}

// Dictionary returns the UI strings for locale, or the default locale's.
func (l *Library) Dictionary(locale string) map[string]any {
	if d, ok := l.dicts[locale]; ok {
		return d
	}
	return l.dicts[DefaultLocale]
}

// T looks up a dotted key such as "header.nav.home". Missing translations
// fall back to the default locale and finally to the key itself.
func (l *Library) T(locale, key string) string {
	if s, ok := lookup(l.dicts[locale], key); ok {
		return s
	}
	if s, ok := lookup(l.dicts[DefaultLocale], key); ok {
		return s
	}
	return key
}

func lookup(d map[string]any, key string) (string, bool) {
	var cur any = d
	for _, part := range strings.Split(key, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return "", false
		}
		cur, ok = m[part]
		if !ok {
			return "", false
		}
	}
	s, ok := cur.(string)
	return s, ok
}
