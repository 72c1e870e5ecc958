package postgres

import (
	"context"
	"errors"

	"github.com/Selami79/rubber-ds/internal"
	rawmaterialDatamodel "github.com/Selami79/rubber-ds/internal/core/datamodel/rawmaterial"
	recipeDatamodel "github.com/Selami79/rubber-ds/internal/core/datamodel/recipe"
	"github.com/Selami79/rubber-ds/internal/recipe"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type RecipeRepository struct {
	db *gorm.DB
}

func NewRecipeRepository(db *gorm.DB) recipe.RepositoryAPI {
	return &RecipeRepository{db: db}
}

func withComponents(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Components", func(db *gorm.DB) *gorm.DB {
			return db.Order("sequence ASC")
		}).
		Preload("Components.RawMaterial")
}

func (r *RecipeRepository) List(ctx context.Context, customerID *int64) ([]*recipeDatamodel.Recipe, error) {
	q := withComponents(r.db.WithContext(ctx))
	if customerID != nil {
		q = q.Where("customer_id = ?", *customerID).Order("created_at DESC").Order("id DESC")
	} else {
		q = q.Order("code ASC")
	}

	var items []*recipeDatamodel.Recipe
	err := q.Find(&items).Error
	return items, err
}

func (r *RecipeRepository) GetByID(ctx context.Context, id int64) (*recipeDatamodel.Recipe, error) {
	var item recipeDatamodel.Recipe
	if err := withComponents(r.db.WithContext(ctx)).Where("id = ?", id).First(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

func (r *RecipeRepository) GetByCode(ctx context.Context, code string) (*recipeDatamodel.Recipe, error) {
	var item recipeDatamodel.Recipe
	if err := r.db.WithContext(ctx).Where("code = ?", code).First(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

func (r *RecipeRepository) Create(ctx context.Context, item *recipeDatamodel.Recipe) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		components := item.Components
		item.Components = nil
		if err := tx.Create(item).Error; err != nil {
			item.Components = components
			return err
		}
		if err := replaceComponents(tx, item.ID, components); err != nil {
			return err
		}
		item.Components = components
		return nil
	})
	return translate(err)
}

func (r *RecipeRepository) Update(ctx context.Context, item *recipeDatamodel.Recipe, components []recipeDatamodel.RecipeComponent) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(item).Error; err != nil {
			return err
		}
		return replaceComponents(tx, item.ID, components)
	})
	return translate(err)
}

// replaceComponents swaps the full component set of a recipe. It must run
// inside the caller's transaction.
func replaceComponents(tx *gorm.DB, recipeID int64, components []recipeDatamodel.RecipeComponent) error {
	if err := tx.Where("recipe_id = ?", recipeID).Delete(&recipeDatamodel.RecipeComponent{}).Error; err != nil {
		return err
	}
	if len(components) == 0 {
		return nil
	}
	for i := range components {
		components[i].ID = 0
		components[i].RecipeID = recipeID
		components[i].RawMaterial = nil
	}
	return tx.Create(&components).Error
}

func (r *RecipeRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("recipe_id = ?", id).Delete(&recipeDatamodel.RecipeComponent{}).Error; err != nil {
			return err
		}
		return tx.Delete(&recipeDatamodel.Recipe{}, id).Error
	})
}

func (r *RecipeRepository) MissingRawMaterials(ctx context.Context, ids []int64) ([]int64, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var found []int64
	err := r.db.WithContext(ctx).Model(&rawmaterialDatamodel.RawMaterial{}).
		Where("id IN ?", ids).
		Pluck("id", &found).Error
	if err != nil {
		return nil, err
	}

	present := make(map[int64]struct{}, len(found))
	for _, id := range found {
		present[id] = struct{}{}
	}

	var missing []int64
	seen := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := present[id]; ok {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		missing = append(missing, id)
	}
	return missing, nil
}

func translate(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return internal.ErrDuplicateCode
	}
	return err
}
