package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/huntier-api/internal/domain"
	"golang.org/x/text/language"
)

const (
	localeKey   contextKey = "locale"
	explicitKey contextKey = "locale_explicit"
)

// LangParam selects the response language explicitly.
const LangParam = "lang"

var matcher = language.NewMatcher([]language.Tag{language.English, language.Chinese})

// UserLocales looks up the locale a user chose in their profile.
type UserLocales interface {
	Locale(ctx context.Context, userID string) (domain.Locale, error)
}

// Locale negotiates the response language from ?lang= and then Accept-Language,
// falling back to def.
func Locale(def domain.Locale) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			loc, explicit := resolveLocale(r, def)
			ctx := context.WithValue(r.Context(), localeKey, loc)
			ctx = context.WithValue(ctx, explicitKey, explicit)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// StoredLocale runs after Auth. When the request did not name a language, the
// authenticated user's stored locale wins over the default.
func StoredLocale(users UserLocales) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			explicit, _ := r.Context().Value(explicitKey).(bool)
			claims, ok := ClaimsFromContext(r.Context())
			if explicit || !ok {
				next.ServeHTTP(w, r)
				return
			}
			loc, err := users.Locale(r.Context(), claims.UserID)
			if err != nil || loc == "" {
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), localeKey, loc)))
		})
	}
}

// LocaleFromContext returns the negotiated locale, English when none was set.
func LocaleFromContext(ctx context.Context) domain.Locale {
	if l, ok := ctx.Value(localeKey).(domain.Locale); ok {
		return l
	}
	return domain.LocaleEN
}

// WithLocale returns ctx carrying an explicitly chosen locale.
func WithLocale(ctx context.Context, l domain.Locale) context.Context {
	ctx = context.WithValue(ctx, localeKey, l)
	return context.WithValue(ctx, explicitKey, true)
}

func resolveLocale(r *http.Request, def domain.Locale) (domain.Locale, bool) {
	if v := strings.TrimSpace(r.URL.Query().Get(LangParam)); v != "" {
		if l, ok := domain.ParseLocale(v); ok {
			return l, true
		}
	}
	if accept := strings.TrimSpace(r.Header.Get("Accept-Language")); accept != "" {
		if tags, _, err := language.ParseAcceptLanguage(accept); err == nil && len(tags) > 0 {
			_, idx, conf := matcher.Match(tags...)
			if conf != language.No {
				if idx == 1 {
					return domain.LocaleZH, true
				}
				return domain.LocaleEN, true
			}
		}
	}
	if def == "" {
		def = domain.LocaleEN
	}
	return def, false
}

// ExplicitLocale returns the locale the request named through ?lang= or
// Accept-Language, and false when it fell back to a default.
func ExplicitLocale(ctx context.Context) (domain.Locale, bool) {
	explicit, _ := ctx.Value(explicitKey).(bool)
	if !explicit {
		return "", false
	}
	return LocaleFromContext(ctx), true
}
