package recipe

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/Selami79/rubber-ds/internal"
	"github.com/Selami79/rubber-ds/internal/auth"
	"github.com/Selami79/rubber-ds/internal/transport"
	"github.com/Selami79/rubber-ds/pkg/logger"
)

type ServiceAPI interface {
	List(ctx context.Context, customerID *int64) ([]*Recipe, error)
	Get(ctx context.Context, id int64) (*Recipe, error)
	Create(ctx context.Context, identity auth.Identity, dto RecipeDTO) (*Recipe, error)
	Update(ctx context.Context, id int64, dto RecipeDTO) (*Recipe, error)
	Delete(ctx context.Context, id int64) error
	Scale(ctx context.Context, id int64, total float64) (*ScaleResponse, error)
}

type AccessAPI interface {
	Authorize(ctx context.Context, identity auth.Identity, recipeID int64, op Operation, origin string) error
	History(ctx context.Context, recipeID *int64) ([]*AccessLogEntry, error)
}

// recipeHandlerFunc runs after the access policy has allowed the operation.
type recipeHandlerFunc func(w http.ResponseWriter, r *http.Request, identity auth.Identity, recipeID int64)

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
	Access  AccessAPI
}

func NewHandler(svc ServiceAPI, access AccessAPI) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     svc,
		Access:      access,
	}
}

// withAccess resolves the recipe id and the operation implied by the method,
// then consults the access policy before calling next.
func (h *Handler) withAccess(next recipeHandlerFunc) auth.IdentityHandlerFunc {
	return func(w http.ResponseWriter, r *http.Request, identity auth.Identity) {
		id, err := h.IDParam(r, "id")
		if err != nil {
			h.HandleServiceError(w, err)
			return
		}

		op := OperationFromMethod(r.Method)
		if err := h.Access.Authorize(r.Context(), identity, id, op, h.ClientIP(r)); err != nil {
			h.HandleServiceError(w, err)
			return
		}

		next(w, r, identity, id)
	}
}

// List handles GET /recipes, optionally narrowed by ?customer_id=
func (h *Handler) List(w http.ResponseWriter, r *http.Request, _ auth.Identity) {
	var customerID *int64
	if raw := r.URL.Query().Get("customer_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			h.HandleServiceError(w, internal.NewValidationFieldError("customer_id", "invalid customer_id", internal.ErrCodeValidationFailed))
			return
		}
		customerID = &id
	}

	items, err := h.Service.List(r.Context(), customerID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, RecipesResponse{Recipes: items})
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request, identity auth.Identity) {
	var dto RecipeDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	item, err := h.Service.Create(r.Context(), identity, dto)
	if err != nil {
		h.Logger.Warn("CreateRecipe: service error", "error", err, "user_id", identity.UserID)
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, item)
}

// Get handles GET /recipes/{id}
func (h *Handler) Get() auth.IdentityHandlerFunc {
	return h.withAccess(func(w http.ResponseWriter, r *http.Request, _ auth.Identity, id int64) {
		item, err := h.Service.Get(r.Context(), id)
		if err != nil {
			h.HandleServiceError(w, err)
			return
		}
		h.WriteJSON(w, http.StatusOK, item)
	})
}

// Update handles PUT /recipes/{id}
func (h *Handler) Update() auth.IdentityHandlerFunc {
	return h.withAccess(func(w http.ResponseWriter, r *http.Request, identity auth.Identity, id int64) {
		var dto RecipeDTO
		if err := h.DecodeJSON(r, &dto); err != nil {
			h.HandleServiceError(w, err)
			return
		}

		item, err := h.Service.Update(r.Context(), id, dto)
		if err != nil {
			h.Logger.Warn("UpdateRecipe: service error", "error", err, "recipe_id", id, "user_id", identity.UserID)
			h.HandleServiceError(w, err)
			return
		}
		h.WriteJSON(w, http.StatusOK, item)
	})
}

// Delete handles DELETE /recipes/{id}
func (h *Handler) Delete() auth.IdentityHandlerFunc {
	return h.withAccess(func(w http.ResponseWriter, r *http.Request, _ auth.Identity, id int64) {
		if err := h.Service.Delete(r.Context(), id); err != nil {
			h.HandleServiceError(w, err)
			return
		}
		h.WriteJSON(w, http.StatusOK, map[string]string{"message": "recipe deleted"})
	})
}

// Scale handles GET /recipes/{id}/scale?total_quantity=
func (h *Handler) Scale() auth.IdentityHandlerFunc {
	return h.withAccess(func(w http.ResponseWriter, r *http.Request, _ auth.Identity, id int64) {
		total, err := strconv.ParseFloat(r.URL.Query().Get("total_quantity"), 64)
		if err != nil {
			h.HandleServiceError(w, internal.NewValidationFieldError("total_quantity", "total_quantity must be a number", internal.ErrCodeValidationFailed))
			return
		}

		resp, err := h.Service.Scale(r.Context(), id, total)
		if err != nil {
			h.HandleServiceError(w, err)
			return
		}
		h.WriteJSON(w, http.StatusOK, resp)
	})
}

// AccessLog handles GET /recipe-access-log
func (h *Handler) AccessLog(w http.ResponseWriter, r *http.Request, _ auth.Identity) {
	var recipeID *int64
	if raw := r.URL.Query().Get("recipe_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			h.HandleServiceError(w, internal.NewValidationFieldError("recipe_id", "invalid recipe_id", internal.ErrCodeValidationFailed))
			return
		}
		recipeID = &id
	}

	entries, err := h.Access.History(r.Context(), recipeID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, AccessLogResponse{Entries: entries})
}
