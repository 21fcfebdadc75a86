package router

import (
	"net"
	"net/http"
	"net/netip"
	"strings"
)

// forwardedHeaders are consulted in order; the first valid address wins.
var forwardedHeaders = []string{"True-Client-IP", "X-Real-IP", "X-Forwarded-For"}

// middlewareIP rewrites RemoteAddr to the client address reported by the
// proxy in front of the service.
func middlewareIP(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if addr, ok := clientAddr(r); ok {
			r.RemoteAddr = addr.String()
		}
		next.ServeHTTP(w, r)
	})
}

func clientAddr(r *http.Request) (netip.Addr, bool) {
	for _, name := range forwardedHeaders {
		first, _, _ := strings.Cut(r.Header.Get(name), ",")
		if addr, err := netip.ParseAddr(strings.TrimSpace(first)); err == nil {
			return addr.Unmap(), true
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	addr, err := netip.ParseAddr(host)
	if err != nil {
		return netip.Addr{}, false
	}
	return addr.Unmap(), true
}
