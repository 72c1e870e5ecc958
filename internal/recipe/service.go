package recipe

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/Selami79/rubber-ds/internal"
	"github.com/Selami79/rubber-ds/internal/auth"
	recipeDatamodel "github.com/Selami79/rubber-ds/internal/core/datamodel/recipe"
)

type RepositoryAPI interface {
	// List returns recipes with components loaded, ordered by code. With a
	// customer id it returns only that customer's recipes, newest first.
	List(ctx context.Context, customerID *int64) ([]*recipeDatamodel.Recipe, error)
	// GetByID and GetByCode return nil, nil when nothing matches.
	GetByID(ctx context.Context, id int64) (*recipeDatamodel.Recipe, error)
	GetByCode(ctx context.Context, code string) (*recipeDatamodel.Recipe, error)
	// Create stores the recipe and its components together.
	Create(ctx context.Context, r *recipeDatamodel.Recipe) error
	// Update saves the recipe header and replaces all of its components in
	// one transaction.
	Update(ctx context.Context, r *recipeDatamodel.Recipe, components []recipeDatamodel.RecipeComponent) error
	Delete(ctx context.Context, id int64) error
	// MissingRawMaterials returns the ids that have no raw material row.
	MissingRawMaterials(ctx context.Context, ids []int64) ([]int64, error)
}

type Service struct {
	repo   RepositoryAPI
	logger *slog.Logger
}

func NewService(repo RepositoryAPI, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
	}
}

func (s *Service) List(ctx context.Context, customerID *int64) ([]*Recipe, error) {
	rows, err := s.repo.List(ctx, customerID)
	if err != nil {
		s.logger.Error("failed to list recipes", "error", err)
		return nil, internal.NewInternalError("could not list recipes", err)
	}

	out := make([]*Recipe, 0, len(rows))
	for _, row := range rows {
		out = append(out, FromDataModel(row))
	}
	return out, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*Recipe, error) {
	row, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return FromDataModel(row), nil
}

// Create stores a new recipe. Creation is not a per-recipe operation so it is
// checked against the route action and not written to the access log.
func (s *Service) Create(ctx context.Context, identity auth.Identity, dto RecipeDTO) (*Recipe, error) {
	if !auth.Permits(identity.Role, auth.ActionCreateRecipe) {
		return nil, internal.ErrForbidden
	}
	shares, err := s.validate(ctx, &dto, 0)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	row := &recipeDatamodel.Recipe{
		Code:          dto.Code,
		Name:          dto.Name,
		Description:   dto.Description,
		TotalQuantity: dto.TotalQuantity,
		Instructions:  dto.Instructions,
		CustomerID:    dto.CustomerID,
		CreatedAt:     now,
		UpdatedAt:     now,
		Components:    toComponentModels(DeriveQuantities(dto.TotalQuantity, shares)),
	}

	if err := s.repo.Create(ctx, row); err != nil {
		return nil, s.translateWriteError("create", err)
	}

	s.logger.Info("recipe created", "recipe_id", row.ID, "code", row.Code, "user_id", identity.UserID)
	return s.Get(ctx, row.ID)
}

func (s *Service) Update(ctx context.Context, id int64, dto RecipeDTO) (*Recipe, error) {
	row, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	shares, err := s.validate(ctx, &dto, id)
	if err != nil {
		return nil, err
	}

	row.Code = dto.Code
	row.Name = dto.Name
	row.Description = dto.Description
	row.TotalQuantity = dto.TotalQuantity
	row.Instructions = dto.Instructions
	row.CustomerID = dto.CustomerID
	row.UpdatedAt = time.Now().UTC()
	row.Components = nil

	components := toComponentModels(DeriveQuantities(dto.TotalQuantity, shares))
	if err := s.repo.Update(ctx, row, components); err != nil {
		return nil, s.translateWriteError("update", err)
	}

	s.logger.Info("recipe updated", "recipe_id", id, "components", len(components))
	return s.Get(ctx, id)
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	if _, err := s.load(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		s.logger.Error("failed to delete recipe", "error", err, "recipe_id", id)
		return internal.NewInternalError("could not delete recipe", err)
	}
	s.logger.Info("recipe deleted", "recipe_id", id)
	return nil
}

// Scale previews the recipe for another batch size against current stock.
// Nothing is stored.
func (s *Service) Scale(ctx context.Context, id int64, total float64) (*ScaleResponse, error) {
	if math.IsNaN(total) || math.IsInf(total, 0) || total <= 0 {
		return nil, internal.NewValidationFieldError("total_quantity", "total_quantity must be a finite number greater than 0", internal.ErrCodeValidationFailed)
	}

	row, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	derived := DeriveQuantities(total, sharesOf(row.Components))
	resp := &ScaleResponse{
		RecipeID:      row.ID,
		Code:          row.Code,
		TotalQuantity: total,
		Components:    make([]ScaledComponent, 0, len(derived)),
	}
	for i, d := range derived {
		sc := ScaledComponent{
			RawMaterialID: d.RawMaterialID,
			SharePercent:  d.SharePercent,
			Quantity:      d.Quantity,
		}
		if rm := row.Components[i].RawMaterial; rm != nil {
			sc.RawMaterialCode = rm.Code
			sc.Unit = rm.Unit
			sc.OnHand = rm.Quantity
			sc.Shortage = rm.Quantity < d.Quantity
		}
		resp.Components = append(resp.Components, sc)
	}
	return resp, nil
}

func (s *Service) validate(ctx context.Context, dto *RecipeDTO, ownID int64) ([]Share, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	shares := dto.Shares()
	if err := ValidateShares(shares); err != nil {
		return nil, err
	}

	existing, err := s.repo.GetByCode(ctx, dto.Code)
	if err != nil {
		s.logger.Error("failed to check recipe code", "error", err, "code", dto.Code)
		return nil, internal.NewInternalError("could not check code", err)
	}
	if existing != nil && existing.ID != ownID {
		return nil, internal.ErrDuplicateCode.WithMessage("a recipe with this code already exists")
	}

	ids := make([]int64, 0, len(shares))
	for _, sh := range shares {
		ids = append(ids, sh.RawMaterialID)
	}
	missing, err := s.repo.MissingRawMaterials(ctx, ids)
	if err != nil {
		s.logger.Error("failed to check recipe raw materials", "error", err)
		return nil, internal.NewInternalError("could not check raw materials", err)
	}
	if len(missing) > 0 {
		return nil, internal.ErrUnknownMaterial.WithMessage(
			fmt.Sprintf("recipe references unknown raw materials: %v", missing))
	}

	return shares, nil
}

func (s *Service) load(ctx context.Context, id int64) (*recipeDatamodel.Recipe, error) {
	row, err := s.repo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error("failed to get recipe", "error", err, "recipe_id", id)
		return nil, internal.NewInternalError("could not load recipe", err)
	}
	if row == nil {
		return nil, internal.ErrRecipeNotFound
	}
	return row, nil
}

func (s *Service) translateWriteError(op string, err error) error {
	if errors.Is(err, internal.ErrDuplicateCode) {
		return internal.ErrDuplicateCode.WithMessage("a recipe with this code already exists")
	}
	s.logger.Error("recipe write failed", "op", op, "error", err)
	return internal.NewInternalError("could not save recipe", err)
}
