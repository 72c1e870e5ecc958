package postgres

import (
	"context"

	recipeDatamodel "github.com/Selami79/rubber-ds/internal/core/datamodel/recipe"
	"github.com/Selami79/rubber-ds/internal/recipe"
	"gorm.io/gorm"
)

// AccessLogRepository only ever inserts and reads.
type AccessLogRepository struct {
	db *gorm.DB
}

func NewAccessLogRepository(db *gorm.DB) recipe.AccessLogStore {
	return &AccessLogRepository{db: db}
}

func (r *AccessLogRepository) Append(ctx context.Context, entry *recipeDatamodel.AccessLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *AccessLogRepository) List(ctx context.Context, recipeID *int64) ([]*recipeDatamodel.AccessLog, error) {
	q := r.db.WithContext(ctx).Order("accessed_at DESC").Order("id DESC")
	if recipeID != nil {
		q = q.Where("recipe_id = ?", *recipeID)
	}

	var entries []*recipeDatamodel.AccessLog
	err := q.Find(&entries).Error
	return entries, err
}
