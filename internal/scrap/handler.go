package scrap

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/Selami79/rubber-ds/internal/auth"
	"github.com/Selami79/rubber-ds/internal/transport"
	"github.com/Selami79/rubber-ds/pkg/logger"
)

type ServiceAPI interface {
	Create(ctx context.Context, identity auth.Identity, dto CreateRecordDTO) (*Record, error)
	List(ctx context.Context) ([]*Record, error)
	Get(ctx context.Context, id int64) (*Record, error)
	UpdateStatus(ctx context.Context, identity auth.Identity, id int64, dto StatusDTO) (*Record, error)
	Report(ctx context.Context, from, to time.Time) (RangeSummary, error)
	ByMachine(ctx context.Context) ([]*MachineSummary, error)
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
	records, err := h.Service.List(r.Context())
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, RecordsResponse{Records: records})
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request, identity auth.Identity) {
	var dto CreateRecordDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	record, err := h.Service.Create(r.Context(), identity, dto)
	if err != nil {
		h.Logger.Warn("CreateScrap: service error", "error", err, "user_id", identity.UserID)
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, record)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request, _ auth.Identity) {
	id, err := h.IDParam(r, "id")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	record, err := h.Service.Get(r.Context(), id)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, record)
}

// UpdateStatus handles PATCH /scrap-records/{id}/status
func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request, identity auth.Identity) {
	id, err := h.IDParam(r, "id")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	var dto StatusDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	record, err := h.Service.UpdateStatus(r.Context(), identity, id, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, record)
}

// Report handles GET /scrap-records/report?from=&to=
func (h *Handler) Report(w http.ResponseWriter, r *http.Request, _ auth.Identity) {
	q := r.URL.Query()
	from, to, err := ParseRange(q.Get("from"), q.Get("to"))
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	summary, err := h.Service.Report(r.Context(), from, to)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, summary)
}

// ByMachine handles GET /scrap-records/by-machine
func (h *Handler) ByMachine(w http.ResponseWriter, r *http.Request, _ auth.Identity) {
	machines, err := h.Service.ByMachine(r.Context())
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, MachinesResponse{Machines: machines})
}
