package middleware

import (
	"context"
	"io"
	"net/http"
	"strings"

	"ecodeli-delivery/internal/domain"
	"ecodeli-delivery/internal/logx"
)

// Headers set by the upstream auth layer.
const (
	ActorIDHeader   = "X-Actor-ID"
	ActorRoleHeader = "X-Actor-Role"
)

type actorKey struct{}

// WithActor stores the caller in ctx.
func WithActor(ctx context.Context, a domain.Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, a)
}

// ActorFrom returns the caller stored by the Actor middleware.
func ActorFrom(ctx context.Context) (domain.Actor, bool) {
	a, ok := ctx.Value(actorKey{}).(domain.Actor)
	return a, ok
}

// Actor reads the caller identity headers. Requests without them pass through
// anonymously; malformed identities are rejected with 401.
func Actor(logger logx.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = logx.Nop()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := strings.TrimSpace(r.Header.Get(ActorIDHeader))
			role := domain.Role(strings.ToUpper(strings.TrimSpace(r.Header.Get(ActorRoleHeader))))

			if id == "" && role == "" {
				next.ServeHTTP(w, r)
				return
			}
			if id == "" || !role.Valid() {
				logger.Warn("bad actor headers",
					logx.String("actor_id", id),
					logx.String("actor_role", string(role)),
					logx.String("path", r.URL.Path),
				)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = io.WriteString(w, `{"error":"invalid actor","kind":"unauthorized"}`)
				return
			}

			ctx := WithActor(r.Context(), domain.Actor{ID: id, Role: role})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
