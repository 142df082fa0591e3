package api

import (
	"net"
	"net/http"
	"regexp"
	"strings"
)

// Browser-facing protections for the local agent. The editor UI loads
// from localhost during development and from per-org subdomains in
// production; everything else gets no CORS grant. Playback is further
// restricted to loopback peers so media never leaves the machine.

var appOriginPattern = regexp.MustCompile(
	`^https?://[a-z0-9](?:[a-z0-9-]*[a-z0-9])?\.app\.reelcut\.(co|local)(:\d+)?$`)

var localOriginPattern = regexp.MustCompile(
	`^http://(localhost|127\.0\.0\.1)(:\d+)?$`)

func isAllowedOrigin(origin string) bool {
	if origin == "" {
		return false
	}
	return localOriginPattern.MatchString(origin) || appOriginPattern.MatchString(origin)
}

const (
	corsAllowMethods  = "GET, POST, DELETE, HEAD, OPTIONS"
	corsAllowHeaders  = "Authorization, Content-Type, Range, X-Reelcut-Request-Id, X-Reelcut-Device-Id"
	corsExposeHeaders = "Content-Range, Accept-Ranges, Content-Length, Content-Type"
)

// CORSAllowlist grants cross-origin access only to known editor
// origins. Denied non-preflight requests are still served, just
// without a grant; denied preflights are rejected outright.
func CORSAllowlist() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin == "" {
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Add("Vary", "Origin")

			if !isAllowedOrigin(origin) {
				if r.Method == http.MethodOptions {
					w.WriteHeader(http.StatusForbidden)
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Expose-Headers", corsExposeHeaders)

			if r.Method == http.MethodOptions {
				w.Header().Set("Access-Control-Allow-Methods", corsAllowMethods)
				w.Header().Set("Access-Control-Allow-Headers", corsAllowHeaders)
				w.Header().Set("Access-Control-Max-Age", "600")
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// LoopbackGuard rejects requests from non-loopback peers. Media
// elements cannot attach Authorization headers, so the playback route
// relies on this instead of bearer auth.
func LoopbackGuard() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !isLoopbackRemoteAddr(r.RemoteAddr) {
				WriteError(w, http.StatusForbidden, "playback is restricted to local requests", "FORBIDDEN")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func isLoopbackRemoteAddr(addr string) bool {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		host = strings.Trim(addr, "[]")
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
