package services

import (
	"net/url"
	"strings"
	"unicode"
)

// DefaultRedirect - страница, куда ведем после входа без валидного next.
const DefaultRedirect = "/index"

// SafeRedirect возвращает next, только если это относительный путь на этом же сайте.
// Абсолютные URL, протокол-относительные ("//host") и прочее заменяются на fallback.
func SafeRedirect(next, fallback string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") {
		return fallback
	}
	// Браузеры считают "\" эквивалентом "/", а "/\evil.com" - чужим хостом
	if strings.ContainsRune(next, '\\') || strings.IndexFunc(next, unicode.IsControl) >= 0 {
		return fallback
	}
	u, err := url.Parse(next)
	if err != nil || u.Scheme != "" || u.Host != "" || u.User != nil {
		return fallback
	}
	return next
}
