package recipe

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/Selami79/rubber-ds/internal"
	"github.com/Selami79/rubber-ds/internal/auth"
	recipeDatamodel "github.com/Selami79/rubber-ds/internal/core/datamodel/recipe"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Operation is the kind of access requested on a single recipe.
type Operation string

const (
	OperationView   Operation = "view"
	OperationEdit   Operation = "edit"
	OperationDelete Operation = "delete"
	OperationOther  Operation = "other"
)

var operationActions = map[Operation]auth.Action{
	OperationView:   auth.ActionRecipeView,
	OperationEdit:   auth.ActionRecipeEdit,
	OperationDelete: auth.ActionRecipeDelete,
	OperationOther:  auth.ActionRecipeOther,
}

var accessDecisions = promauto.NewCounterVec(prometheus.CounterOpts{
	Subsystem: "recipe",
	Name:      "access_decisions_total",
	Help:      "Recipe access policy decisions",
}, []string{"role", "operation", "decision"})

// OperationFromMethod maps an HTTP method to the operation it performs.
func OperationFromMethod(method string) Operation {
	switch method {
	case http.MethodGet, http.MethodHead:
		return OperationView
	case http.MethodPut, http.MethodPatch:
		return OperationEdit
	case http.MethodDelete:
		return OperationDelete
	default:
		return OperationOther
	}
}

type AccessLogStore interface {
	Append(ctx context.Context, entry *recipeDatamodel.AccessLog) error
	// List returns entries newest first, optionally for one recipe.
	List(ctx context.Context, recipeID *int64) ([]*recipeDatamodel.AccessLog, error)
}

// AccessPolicy decides per-recipe operations. Every attempt is written to
// the access log before the decision, denied ones included.
type AccessPolicy struct {
	store  AccessLogStore
	logger *slog.Logger
	now    func() time.Time
}

func NewAccessPolicy(store AccessLogStore, logger *slog.Logger) *AccessPolicy {
	return &AccessPolicy{
		store:  store,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Authorize records the attempt and returns internal.ErrForbidden when the
// caller's role may not perform op. A failed log write returns
// internal.ErrAuditFailure and no decision is made.
func (p *AccessPolicy) Authorize(ctx context.Context, identity auth.Identity, recipeID int64, op Operation, origin string) error {
	entry := &recipeDatamodel.AccessLog{
		UserID:        identity.UserID,
		RecipeID:      recipeID,
		Operation:     string(op),
		AccessedAt:    p.now(),
		OriginAddress: origin,
		Description:   fmt.Sprintf("%s performed %s", identity.Role, op),
	}

	if err := p.store.Append(ctx, entry); err != nil {
		p.logger.ErrorContext(ctx, "failed to write recipe access log",
			"error", err,
			"user_id", identity.UserID,
			"recipe_id", recipeID,
			"operation", op)
		accessDecisions.WithLabelValues(string(identity.Role), string(op), "audit_failure").Inc()
		return internal.ErrAuditFailure.WithCause(err)
	}

	action, ok := operationActions[op]
	if !ok || !auth.Permits(identity.Role, action) {
		p.logger.WarnContext(ctx, "recipe access denied",
			"user_id", identity.UserID,
			"role", identity.Role,
			"recipe_id", recipeID,
			"operation", op)
		accessDecisions.WithLabelValues(string(identity.Role), string(op), "deny").Inc()
		return internal.ErrForbidden
	}

	accessDecisions.WithLabelValues(string(identity.Role), string(op), "allow").Inc()
	return nil
}

// History lists access log entries, newest first.
func (p *AccessPolicy) History(ctx context.Context, recipeID *int64) ([]*AccessLogEntry, error) {
	rows, err := p.store.List(ctx, recipeID)
	if err != nil {
		p.logger.ErrorContext(ctx, "failed to list recipe access log", "error", err)
		return nil, internal.NewInternalError("could not load access log", err)
	}

	out := make([]*AccessLogEntry, 0, len(rows))
	for _, row := range rows {
		out = append(out, &AccessLogEntry{
			ID:            row.ID,
			UserID:        row.UserID,
			RecipeID:      row.RecipeID,
			Operation:     row.Operation,
			AccessedAt:    row.AccessedAt,
			OriginAddress: row.OriginAddress,
			Description:   row.Description,
		})
	}
	return out, nil
}
