package quality

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
	CreateTest(ctx context.Context, identity auth.Identity, dto CreateTestDTO) (*Test, error)
	List(ctx context.Context, productID *int64) ([]*Test, error)
	Get(ctx context.Context, id int64) (*Test, error)
	AddMeasurement(ctx context.Context, testID int64, dto MeasurementDTO) (*Test, error)
	Approve(ctx context.Context, identity auth.Identity, id int64, dto ApprovalDTO) (*Test, error)
	ProductSummary(ctx context.Context, productID int64) (ProductSummary, error)
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

// List handles GET /quality-tests?product_id=
func (h *Handler) List(w http.ResponseWriter, r *http.Request, _ auth.Identity) {
	var productID *int64
	if raw := r.URL.Query().Get("product_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			h.HandleServiceError(w, internal.NewValidationFieldError("product_id", "invalid product_id", internal.ErrCodeValidationFailed))
			return
		}
		productID = &id
	}

	tests, err := h.Service.List(r.Context(), productID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, TestsResponse{Tests: tests})
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request, identity auth.Identity) {
	var dto CreateTestDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	test, err := h.Service.CreateTest(r.Context(), identity, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, test)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request, _ auth.Identity) {
	id, err := h.IDParam(r, "id")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	test, err := h.Service.Get(r.Context(), id)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, test)
}

// AddMeasurement handles POST /quality-tests/{id}/measurements
func (h *Handler) AddMeasurement(w http.ResponseWriter, r *http.Request, identity auth.Identity) {
	id, err := h.IDParam(r, "id")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	var dto MeasurementDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	test, err := h.Service.AddMeasurement(r.Context(), id, dto)
	if err != nil {
		h.Logger.Warn("AddMeasurement: service error", "error", err, "test_id", id, "user_id", identity.UserID)
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, test)
}

// Approve handles PUT /quality-tests/{id}/approval
func (h *Handler) Approve(w http.ResponseWriter, r *http.Request, identity auth.Identity) {
	id, err := h.IDParam(r, "id")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	var dto ApprovalDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	test, err := h.Service.Approve(r.Context(), identity, id, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, test)
}

// ProductSummary handles GET /quality-tests/products/{productId}/summary
func (h *Handler) ProductSummary(w http.ResponseWriter, r *http.Request, _ auth.Identity) {
	productID, err := h.IDParam(r, "productId")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	summary, err := h.Service.ProductSummary(r.Context(), productID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, summary)
}
