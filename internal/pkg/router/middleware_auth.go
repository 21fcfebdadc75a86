package router

import (
	"net/http"
	"strings"

	"github.com/shandysiswandi/onetimepin/internal/pkg/jwt"
)

// QueryAccessToken carries the bearer token for event-stream requests, since
// browsers cannot set headers on an EventSource.
const QueryAccessToken = "access_token"

// bearerToken extracts the token from the Authorization header, or from the
// access_token query parameter when the client asks for an event stream.
func bearerToken(r *http.Request) (string, bool) {
	if auth := r.Header.Get("Authorization"); auth != "" {
		scheme, token, ok := strings.Cut(strings.TrimSpace(auth), " ")
		token = strings.TrimSpace(token)
		if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" || strings.ContainsAny(token, " \t") {
			return "", false
		}
		return token, true
	}

	if strings.Contains(r.Header.Get("Accept"), contentTypeEventStream) {
		if token := strings.TrimSpace(r.URL.Query().Get(QueryAccessToken)); token != "" {
			return token, true
		}
	}
	return "", false
}

func middlewareAuthentication(verifier jwt.JWT, public map[string]map[string]struct{}) Middleware {
	isPublic := func(r *http.Request) bool {
		_, ok := public[r.Method][matchedRoutePath(r)]
		return ok
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isPublic(r) {
				next.ServeHTTP(w, r)
				return
			}

			token, ok := bearerToken(r)
			if !ok {
				writeJSON(w, errorResponse{Message: "Authentication required"}, http.StatusUnauthorized)
				return
			}

			claims, err := verifier.Verify(token)
			if err != nil {
				writeJSON(w, errorResponse{Message: "Invalid or expired token"}, http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(jwt.SetAuth(r.Context(), claims)))
		})
	}
}
