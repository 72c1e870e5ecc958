package postgres

import (
	"context"

	scrapDatamodel "github.com/Selami79/rubber-ds/internal/core/datamodel/scrap"
	"github.com/Selami79/rubber-ds/internal/scrap"
	"gorm.io/gorm"
)

type ScrapRepository struct {
	db *gorm.DB
}

func NewScrapRepository(db *gorm.DB) scrap.RepositoryAPI {
	return &ScrapRepository{db: db}
}

func (r *ScrapRepository) Create(ctx context.Context, rec *scrapDatamodel.ScrapRecord) error {
	return r.db.WithContext(ctx).Create(rec).Error
}

func (r *ScrapRepository) UpdateStatus(ctx context.Context, id int64, status string, notes *string) error {
	updates := map[string]interface{}{"status": status}
	if notes != nil {
		updates["notes"] = *notes
	}
	return r.db.WithContext(ctx).Model(&scrapDatamodel.ScrapRecord{}).
		Where("id = ?", id).
		Updates(updates).Error
}
