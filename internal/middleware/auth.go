package middleware

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"

	"firebase.google.com/go/v4/auth"

	"github.com/GregMSThompson/agent-dashboard/pkg/logger"
)

// RenderKeyHeader carries the shared key trusted callers use instead of a user
// token.
const RenderKeyHeader = "X-Render-Key"

// RenderKeyUID is the identity recorded for render-key callers.
const RenderKeyUID = "render-key"

type tokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
}

type Middleware struct {
	AuthClient tokenVerifier
	RenderKey  string
}

// NewMiddleware builds the auth middleware. A nil client disables user tokens,
// leaving the render key as the only check.
func NewMiddleware(client tokenVerifier, renderKey string) *Middleware {
	return &Middleware{AuthClient: client, RenderKey: renderKey}
}

// context key
type contextKey string

const UIDKey contextKey = "uid"

// Authenticate accepts a matching render key, otherwise a Firebase ID token.
// Without a Firebase client and without a configured render key every request
// passes.
func (m *Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.validRenderKey(r.Header.Get(RenderKeyHeader)) {
			next.ServeHTTP(w, withUID(r, RenderKeyUID))
			return
		}

		if m.AuthClient == nil {
			if m.RenderKey != "" {
				http.Error(w, "missing or invalid render key", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
			return
		}

		header := r.Header.Get("Authorization")
		if header == "" {
			http.Error(w, "missing Authorization header", http.StatusUnauthorized)
			return
		}

		parts := strings.Fields(header)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			http.Error(w, "invalid Authorization header", http.StatusUnauthorized)
			return
		}

		token, err := m.AuthClient.VerifyIDToken(r.Context(), parts[1])
		if err != nil {
			logger.FromContext(r.Context()).Warn("id token rejected", "error", err)
			http.Error(w, "invalid or expired token", http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, withUID(r, token.UID))
	})
}

func (m *Middleware) validRenderKey(presented string) bool {
	if m.RenderKey == "" || presented == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(presented), []byte(m.RenderKey)) == 1
}

func withUID(r *http.Request, uid string) *http.Request {
	ctx := context.WithValue(r.Context(), UIDKey, uid)
	_, ctx = logger.With(ctx, "uid", uid)
	return r.WithContext(ctx)
}

// Helper to extract UID
func UID(ctx context.Context) string {
	uid, _ := ctx.Value(UIDKey).(string)
	return uid
}
