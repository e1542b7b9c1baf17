package middleware

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

const (
	corsAllowHeaders  = "Authorization, Content-Type, X-Cidade, X-Requested-With"
	corsAllowMethods  = "GET, POST, PUT, PATCH, DELETE, OPTIONS"
	corsExposeHeaders = "Content-Disposition, Retry-After, X-Request-Id"
	corsMaxAge        = 600
)

// originPolicy separa as entradas de ALLOW_ORIGINS em origens exatas e
// sufixos de host ("*.zabele.pi.gov.br" vira ".zabele.pi.gov.br").
type originPolicy struct {
	exact    map[string]struct{}
	suffixes []string
}

func newOriginPolicy(entries []string) originPolicy {
	p := originPolicy{exact: make(map[string]struct{}, len(entries))}
	for _, raw := range entries {
		e := strings.TrimSpace(raw)
		switch {
		case e == "":
		case strings.HasPrefix(e, "*."):
			p.suffixes = append(p.suffixes, strings.ToLower(e[1:]))
		default:
			p.exact[e] = struct{}{}
		}
	}
	return p
}

// allows exige subdomínio próprio nos curingas: o domínio raiz não casa.
func (p originPolicy) allows(origin string) bool {
	if origin == "" {
		return false
	}
	if _, ok := p.exact[origin]; ok {
		return true
	}
	if len(p.suffixes) == 0 {
		return false
	}
	u, err := url.Parse(origin)
	if err != nil || u.Host == "" {
		return false
	}
	host := strings.ToLower(u.Hostname())
	for _, suffix := range p.suffixes {
		if strings.HasSuffix(host, suffix) && len(host) > len(suffix) {
			return true
		}
	}
	return false
}

// CORS libera o portal e os painéis das prefeituras listados em ALLOW_ORIGINS.
// Preflights são respondidos aqui mesmo com 204.
func CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	policy := newOriginPolicy(allowedOrigins)
	maxAge := strconv.Itoa(corsMaxAge)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			h := w.Header()
			h.Add("Vary", "Origin")
			if policy.allows(origin) {
				h.Set("Access-Control-Allow-Origin", origin)
				h.Set("Access-Control-Allow-Credentials", "true")
				h.Set("Access-Control-Expose-Headers", corsExposeHeaders)
				if r.Method == http.MethodOptions {
					h.Set("Access-Control-Allow-Headers", corsAllowHeaders)
					h.Set("Access-Control-Allow-Methods", corsAllowMethods)
					h.Set("Access-Control-Max-Age", maxAge)
				}
			}

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
