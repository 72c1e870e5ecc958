package auth

import (
	"log/slog"
	"net/http"

	"github.com/Selami79/rubber-ds/internal"
	"github.com/Selami79/rubber-ds/internal/transport"
	"github.com/Selami79/rubber-ds/pkg/logger"
)

// IdentityHandlerFunc is an http.HandlerFunc that also receives the verified caller.
type IdentityHandlerFunc func(w http.ResponseWriter, r *http.Request, identity Identity)

// Gate is the route level role check. It holds no per-request state.
type Gate struct {
	*transport.BaseHandler
	verifier Verifier
}

func NewGate(verifier Verifier, lg *slog.Logger) *Gate {
	return &Gate{
		BaseHandler: transport.NewBaseHandler(lg),
		verifier:    verifier,
	}
}

// Authorize verifies token and checks the resulting role against allowed.
// It returns internal.ErrInvalidToken or internal.ErrForbidden on failure.
func (g *Gate) Authorize(token string, allowed ...Role) (Identity, error) {
	identity, err := g.verifier.Verify(token)
	if err != nil {
		return Identity{}, err
	}

	for _, r := range allowed {
		if r == identity.Role {
			return identity, nil
		}
	}
	return identity, internal.ErrForbidden
}

// Require adapts next into an http.HandlerFunc guarded by the roles the
// policy table allows for action.
func (g *Gate) Require(action Action, next IdentityHandlerFunc) http.HandlerFunc {
	allowed := AllowedRoles(action)
	return func(w http.ResponseWriter, r *http.Request) {
		token := g.ExtractTokenFromHeader(r)
		if token == "" {
			g.HandleServiceError(w, internal.ErrInvalidToken.WithMessage("missing authorization token"))
			return
		}

		identity, err := g.Authorize(token, allowed...)
		if err != nil {
			g.Logger.WarnContext(r.Context(), "access denied",
				"trace_id", logger.TraceID(r.Context()),
				"action", action,
				"user_id", identity.UserID,
				"role", identity.Role,
				"error", err)
			g.HandleServiceError(w, err)
			return
		}

		next(w, r, identity)
	}
}
