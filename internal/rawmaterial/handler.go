package rawmaterial

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/Selami79/rubber-ds/internal/auth"
	"github.com/Selami79/rubber-ds/internal/transport"
	"github.com/Selami79/rubber-ds/pkg/logger"
)

type ServiceAPI interface {
	List(ctx context.Context) ([]*RawMaterial, error)
	ListCritical(ctx context.Context) ([]*RawMaterial, error)
	Get(ctx context.Context, id int64) (*RawMaterial, error)
	Create(ctx context.Context, dto RawMaterialDTO) (*RawMaterial, error)
	Update(ctx context.Context, id int64, dto RawMaterialDTO) (*RawMaterial, error)
	Delete(ctx context.Context, id int64) error
	AdjustStock(ctx context.Context, id int64, dto AdjustStockDTO) (*RawMaterial, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(svc ServiceAPI) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     svc,
	}
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request, _ auth.Identity) {
	items, err := h.Service.List(r.Context())
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, RawMaterialsResponse{RawMaterials: items})
}

func (h *Handler) ListCritical(w http.ResponseWriter, r *http.Request, _ auth.Identity) {
	items, err := h.Service.ListCritical(r.Context())
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, RawMaterialsResponse{RawMaterials: items})
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request, _ auth.Identity) {
	id, err := h.IDParam(r, "id")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	item, err := h.Service.Get(r.Context(), id)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, item)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request, identity auth.Identity) {
	var dto RawMaterialDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	item, err := h.Service.Create(r.Context(), dto)
	if err != nil {
		h.Logger.Warn("CreateRawMaterial: service error", "error", err, "user_id", identity.UserID)
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, item)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request, identity auth.Identity) {
	id, err := h.IDParam(r, "id")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	var dto RawMaterialDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	item, err := h.Service.Update(r.Context(), id, dto)
	if err != nil {
		h.Logger.Warn("UpdateRawMaterial: service error", "error", err, "raw_material_id", id, "user_id", identity.UserID)
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, item)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request, identity auth.Identity) {
	id, err := h.IDParam(r, "id")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	if err := h.Service.Delete(r.Context(), id); err != nil {
		h.Logger.Warn("DeleteRawMaterial: service error", "error", err, "raw_material_id", id, "user_id", identity.UserID)
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]string{"message": "raw material deleted"})
}

func (h *Handler) Adjust(w http.ResponseWriter, r *http.Request, identity auth.Identity) {
	id, err := h.IDParam(r, "id")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	var dto AdjustStockDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	item, err := h.Service.AdjustStock(r.Context(), id, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, item)
}
