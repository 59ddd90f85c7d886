package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/Pieroxdz/FCBarcelona-Ecommerce/internal/model"
)

const HeaderSessionID = "X-Session-Id"

// maxSessionIDLen bounds the header since it becomes part of a storage key.
const maxSessionIDLen = 128

// RequireSessionIDForMeRoutes enforces X-Session-Id on all /me/* routes and
// stores it in context. Every view of one browsing session sends the same id
// and so shares one cart.
func RequireSessionIDForMeRoutes(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		if path != "/me" && !strings.HasPrefix(path, "/me/") {
			next.ServeHTTP(w, r)
			return
		}

		sid := strings.TrimSpace(r.Header.Get(HeaderSessionID))
		// EventSource cannot set headers, so the stream may pass it as a query parameter.
		if sid == "" {
			sid = strings.TrimSpace(r.URL.Query().Get("session"))
		}
		if msg := checkSessionID(sid); msg != "" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			_ = json.NewEncoder(w).Encode(model.ErrorResponse{
				Error:         msg,
				CorrelationID: GetCorrelationID(r.Context()),
			})
			return
		}

		ctx := context.WithValue(r.Context(), ctxSessionID, sid)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func checkSessionID(sid string) string {
	if sid == "" {
		return "missing required header: " + HeaderSessionID
	}
	if len(sid) > maxSessionIDLen {
		return "session id too long"
	}
	for _, c := range sid {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '-', c == '_':
		default:
			return "session id may only contain letters, digits, '-' and '_'"
		}
	}
	return ""
}

func GetSessionID(ctx context.Context) string {
	if v := ctx.Value(ctxSessionID); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
