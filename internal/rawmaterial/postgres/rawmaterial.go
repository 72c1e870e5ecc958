package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/Selami79/rubber-ds/internal"
	rawmaterialDatamodel "github.com/Selami79/rubber-ds/internal/core/datamodel/rawmaterial"
	recipeDatamodel "github.com/Selami79/rubber-ds/internal/core/datamodel/recipe"
	"github.com/Selami79/rubber-ds/internal/rawmaterial"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type RawMaterialRepository struct {
	db *gorm.DB
}

func NewRawMaterialRepository(db *gorm.DB) rawmaterial.RepositoryAPI {
	return &RawMaterialRepository{db: db}
}

func (r *RawMaterialRepository) GetAll(ctx context.Context) ([]*rawmaterialDatamodel.RawMaterial, error) {
	var items []*rawmaterialDatamodel.RawMaterial
	err := r.db.WithContext(ctx).Order("code ASC").Find(&items).Error
	return items, err
}

func (r *RawMaterialRepository) GetByID(ctx context.Context, id int64) (*rawmaterialDatamodel.RawMaterial, error) {
	return r.first(r.db.WithContext(ctx).Where("id = ?", id))
}

func (r *RawMaterialRepository) GetByCode(ctx context.Context, code string) (*rawmaterialDatamodel.RawMaterial, error) {
	return r.first(r.db.WithContext(ctx).Where("code = ?", code))
}

func (r *RawMaterialRepository) first(q *gorm.DB) (*rawmaterialDatamodel.RawMaterial, error) {
	var m rawmaterialDatamodel.RawMaterial
	if err := q.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &m, nil
}

func (r *RawMaterialRepository) GetCritical(ctx context.Context) ([]*rawmaterialDatamodel.RawMaterial, error) {
	var items []*rawmaterialDatamodel.RawMaterial
	err := r.db.WithContext(ctx).
		Where("quantity <= critical_quantity").
		Order("quantity ASC").
		Find(&items).Error
	return items, err
}

func (r *RawMaterialRepository) Create(ctx context.Context, m *rawmaterialDatamodel.RawMaterial) error {
	return translate(r.db.WithContext(ctx).Create(m).Error)
}

func (r *RawMaterialRepository) Update(ctx context.Context, m *rawmaterialDatamodel.RawMaterial) error {
	return translate(r.db.WithContext(ctx).Save(m).Error)
}

func (r *RawMaterialRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&rawmaterialDatamodel.RawMaterial{}, id).Error
}

func (r *RawMaterialRepository) AdjustQuantity(ctx context.Context, id int64, delta float64) (*rawmaterialDatamodel.RawMaterial, error) {
	var out rawmaterialDatamodel.RawMaterial
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id).First(&out).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return internal.ErrRawMaterialNotFound
			}
			return err
		}

		next := out.Quantity + delta
		if next < 0 {
			return internal.ErrInsufficientStock
		}

		out.Quantity = next
		out.UpdatedAt = time.Now().UTC()
		return tx.Model(&out).Updates(map[string]interface{}{
			"quantity":   out.Quantity,
			"updated_at": out.UpdatedAt,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *RawMaterialRepository) IsUsedByRecipe(ctx context.Context, id int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&recipeDatamodel.RecipeComponent{}).
		Where("raw_material_id = ?", id).
		Count(&count).Error
	return count > 0, err
}

func translate(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return internal.ErrDuplicateCode
	}
	return err
}
