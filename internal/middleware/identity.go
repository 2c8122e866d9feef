package middleware

import (
	"context"
	"net/http"
	"strconv"

	"laklak-api/internal/model"
	"laklak-api/pkg/apierror"
	"laklak-api/pkg/response"
)

// ActorKey is the context key for the resolved caller identity.
const ActorKey contextKey = "actor"

// Identity resolves the caller from the X-User-ID and X-User-Role headers
// set by the upstream gateway. Requests without a valid identity are
// rejected before they reach a handler.
func Identity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, err := strconv.ParseInt(r.Header.Get("X-User-ID"), 10, 64)
		if err != nil || userID <= 0 {
			response.Error(w, apierror.Unauthorized("missing or invalid user identity"))
			return
		}

		role := r.Header.Get("X-User-Role")
		switch role {
		case model.RoleSupplier, model.RolePackageCombinator, model.RoleSupervisor:
		default:
			response.Error(w, apierror.Unauthorized("unknown role"))
			return
		}

		actor := model.Actor{UserID: userID, Role: role}
		ctx := context.WithValue(r.Context(), ActorKey, actor)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetActor retrieves the caller identity from context. The zero Actor is
// returned for unauthenticated contexts.
func GetActor(ctx context.Context) model.Actor {
	if actor, ok := ctx.Value(ActorKey).(model.Actor); ok {
		return actor
	}
	return model.Actor{}
}
