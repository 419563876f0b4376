package domain

import "strings"

// Locale is one of the two languages the platform is served in.
type Locale string

const (
	LocaleEN Locale = "en"
	LocaleZH Locale = "zh"
)

// ParseLocale maps a language tag ("zh-CN", "en_US", "ZH") onto a supported
// locale. ok is false when the tag names neither language.
func ParseLocale(tag string) (Locale, bool) {
	tag = strings.ToLower(strings.TrimSpace(tag))
	switch {
	case tag == "":
		return "", false
	case strings.HasPrefix(tag, "zh"):
		return LocaleZH, true
	case strings.HasPrefix(tag, "en"):
		return LocaleEN, true
	}
	return "", false
}
