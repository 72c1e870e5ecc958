package rawmaterial

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/Selami79/rubber-ds/internal"
	rawmaterialDatamodel "github.com/Selami79/rubber-ds/internal/core/datamodel/rawmaterial"
	"github.com/Selami79/rubber-ds/internal/core/events"
)

type RepositoryAPI interface {
	GetAll(ctx context.Context) ([]*rawmaterialDatamodel.RawMaterial, error)
	// GetByID and GetByCode return nil, nil when nothing matches.
	GetByID(ctx context.Context, id int64) (*rawmaterialDatamodel.RawMaterial, error)
	GetByCode(ctx context.Context, code string) (*rawmaterialDatamodel.RawMaterial, error)
	GetCritical(ctx context.Context) ([]*rawmaterialDatamodel.RawMaterial, error)
	Create(ctx context.Context, m *rawmaterialDatamodel.RawMaterial) error
	Update(ctx context.Context, m *rawmaterialDatamodel.RawMaterial) error
	Delete(ctx context.Context, id int64) error
	// AdjustQuantity applies delta atomically and fails with
	// internal.ErrInsufficientStock if the result would be negative.
	AdjustQuantity(ctx context.Context, id int64, delta float64) (*rawmaterialDatamodel.RawMaterial, error)
	IsUsedByRecipe(ctx context.Context, id int64) (bool, error)
}

type EventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

type Service struct {
	repo      RepositoryAPI
	publisher EventPublisher
	logger    *slog.Logger
}

func NewService(repo RepositoryAPI, publisher EventPublisher, logger *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		publisher: publisher,
		logger:    logger,
	}
}

func (s *Service) List(ctx context.Context) ([]*RawMaterial, error) {
	dms, err := s.repo.GetAll(ctx)
	if err != nil {
		s.logger.Error("failed to list raw materials", "error", err)
		return nil, internal.NewInternalError("could not list raw materials", err)
	}
	return fromDataModels(dms), nil
}

func (s *Service) ListCritical(ctx context.Context) ([]*RawMaterial, error) {
	dms, err := s.repo.GetCritical(ctx)
	if err != nil {
		s.logger.Error("failed to list critical raw materials", "error", err)
		return nil, internal.NewInternalError("could not list critical raw materials", err)
	}
	s.logger.Info("retrieved critical raw materials", "count", len(dms))
	return fromDataModels(dms), nil
}

func (s *Service) Get(ctx context.Context, id int64) (*RawMaterial, error) {
	dm, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return FromDataModel(dm), nil
}

func (s *Service) Create(ctx context.Context, dto RawMaterialDTO) (*RawMaterial, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	if err := s.ensureCodeFree(ctx, dto.Code, 0); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	dm := &rawmaterialDatamodel.RawMaterial{
		Code:             dto.Code,
		Name:             dto.Name,
		Unit:             dto.Unit,
		Quantity:         dto.Quantity,
		CriticalQuantity: dto.CriticalQuantity,
		UnitPrice:        dto.UnitPrice,
		StorageLocation:  dto.StorageLocation,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.repo.Create(ctx, dm); err != nil {
		return nil, s.translateWriteError("create", err)
	}

	s.logger.Info("raw material created", "raw_material_id", dm.ID, "code", dm.Code)
	s.notifyIfCritical(ctx, dm)
	return FromDataModel(dm), nil
}

func (s *Service) Update(ctx context.Context, id int64, dto RawMaterialDTO) (*RawMaterial, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	dm, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.ensureCodeFree(ctx, dto.Code, id); err != nil {
		return nil, err
	}

	dm.Code = dto.Code
	dm.Name = dto.Name
	dm.Unit = dto.Unit
	dm.Quantity = dto.Quantity
	dm.CriticalQuantity = dto.CriticalQuantity
	dm.UnitPrice = dto.UnitPrice
	dm.StorageLocation = dto.StorageLocation
	dm.UpdatedAt = time.Now().UTC()

	if err := s.repo.Update(ctx, dm); err != nil {
		return nil, s.translateWriteError("update", err)
	}

	s.logger.Info("raw material updated", "raw_material_id", id)
	s.notifyIfCritical(ctx, dm)
	return FromDataModel(dm), nil
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	if _, err := s.load(ctx, id); err != nil {
		return err
	}

	used, err := s.repo.IsUsedByRecipe(ctx, id)
	if err != nil {
		s.logger.Error("failed to check raw material usage", "error", err, "raw_material_id", id)
		return internal.NewInternalError("could not delete raw material", err)
	}
	if used {
		return internal.ErrMaterialInUse
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		s.logger.Error("failed to delete raw material", "error", err, "raw_material_id", id)
		return internal.NewInternalError("could not delete raw material", err)
	}

	s.logger.Info("raw material deleted", "raw_material_id", id)
	return nil
}

// AdjustStock adds delta (negative to consume) to the on-hand quantity.
func (s *Service) AdjustStock(ctx context.Context, id int64, dto AdjustStockDTO) (*RawMaterial, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	dm, err := s.repo.AdjustQuantity(ctx, id, dto.Delta)
	if err != nil {
		if errors.Is(err, internal.ErrInsufficientStock) || errors.Is(err, internal.ErrRawMaterialNotFound) {
			return nil, err
		}
		s.logger.Error("failed to adjust stock", "error", err, "raw_material_id", id)
		return nil, internal.NewInternalError("could not adjust stock", err)
	}

	s.logger.Info("stock adjusted", "raw_material_id", id, "delta", dto.Delta, "quantity", dm.Quantity, "note", dto.Note)
	s.notifyIfCritical(ctx, dm)
	return FromDataModel(dm), nil
}

func (s *Service) load(ctx context.Context, id int64) (*rawmaterialDatamodel.RawMaterial, error) {
	dm, err := s.repo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error("failed to get raw material", "error", err, "raw_material_id", id)
		return nil, internal.NewInternalError("could not load raw material", err)
	}
	if dm == nil {
		return nil, internal.ErrRawMaterialNotFound
	}
	return dm, nil
}

func (s *Service) ensureCodeFree(ctx context.Context, code string, ownID int64) error {
	existing, err := s.repo.GetByCode(ctx, code)
	if err != nil {
		s.logger.Error("failed to check raw material code", "error", err, "code", code)
		return internal.NewInternalError("could not check code", err)
	}
	if existing != nil && existing.ID != ownID {
		return internal.ErrDuplicateCode.WithMessage("a raw material with this code already exists")
	}
	return nil
}

func (s *Service) translateWriteError(op string, err error) error {
	if errors.Is(err, internal.ErrDuplicateCode) {
		return internal.ErrDuplicateCode.WithMessage("a raw material with this code already exists")
	}
	s.logger.Error("raw material write failed", "op", op, "error", err)
	return internal.NewInternalError("could not save raw material", err)
}

func (s *Service) notifyIfCritical(ctx context.Context, dm *rawmaterialDatamodel.RawMaterial) {
	if s.publisher == nil || !Critical(dm.Quantity, dm.CriticalQuantity) {
		return
	}
	event := events.NewRawMaterialCriticalEvent(dm.ID, dm.Code, dm.Quantity, dm.CriticalQuantity, dm.Unit)
	if err := s.publisher.Publish(context.WithoutCancel(ctx), event); err != nil {
		s.logger.Warn("failed to publish critical stock event", "error", err, "raw_material_id", dm.ID)
	}
}

func fromDataModels(dms []*rawmaterialDatamodel.RawMaterial) []*RawMaterial {
	out := make([]*RawMaterial, 0, len(dms))
	for _, dm := range dms {
		out = append(out, FromDataModel(dm))
	}
	return out
}
