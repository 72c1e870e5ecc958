package postgres

import (
	"context"
	"errors"

	"github.com/Selami79/rubber-ds/internal"
	qualityDatamodel "github.com/Selami79/rubber-ds/internal/core/datamodel/quality"
	"github.com/Selami79/rubber-ds/internal/quality"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type QualityRepository struct {
	db *gorm.DB
}

func NewQualityRepository(db *gorm.DB) quality.RepositoryAPI {
	return &QualityRepository{db: db}
}

func withMeasurements(db *gorm.DB) *gorm.DB {
	return db.Preload("Measurements", func(db *gorm.DB) *gorm.DB {
		return db.Order("id ASC")
	})
}

func (r *QualityRepository) Create(ctx context.Context, t *qualityDatamodel.QualityTest) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(t).Error
}

func (r *QualityRepository) List(ctx context.Context, productID *int64) ([]*qualityDatamodel.QualityTest, error) {
	q := withMeasurements(r.db.WithContext(ctx)).Order("tested_at DESC").Order("id DESC")
	if productID != nil {
		q = q.Where("product_id = ?", *productID)
	}

	var tests []*qualityDatamodel.QualityTest
	err := q.Find(&tests).Error
	return tests, err
}

func (r *QualityRepository) GetByID(ctx context.Context, id int64) (*qualityDatamodel.QualityTest, error) {
	return getByID(withMeasurements(r.db.WithContext(ctx)), id)
}

func getByID(db *gorm.DB, id int64) (*qualityDatamodel.QualityTest, error) {
	var t qualityDatamodel.QualityTest
	if err := db.Where("id = ?", id).First(&t).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &t, nil
}

func (r *QualityRepository) AddMeasurement(ctx context.Context, testID int64, m *qualityDatamodel.QualityMeasurement) (*qualityDatamodel.QualityTest, error) {
	var out *qualityDatamodel.QualityTest
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// concurrent inserts for the same test queue up here
		locked, err := getByID(tx.Clauses(clause.Locking{Strength: "UPDATE"}), testID)
		if err != nil {
			return err
		}
		if locked == nil {
			return internal.ErrQualityTestNotFound
		}

		m.ID = 0
		m.TestID = testID
		if err := tx.Create(m).Error; err != nil {
			return err
		}

		var results []string
		if err := tx.Model(&qualityDatamodel.QualityMeasurement{}).
			Where("test_id = ?", testID).
			Pluck("result", &results).Error; err != nil {
			return err
		}

		overall := quality.OverallResult(results)
		if err := tx.Model(&qualityDatamodel.QualityTest{}).
			Where("id = ?", testID).
			Update("result", overall).Error; err != nil {
			return err
		}

		out, err = getByID(withMeasurements(tx), testID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *QualityRepository) UpdateApproval(ctx context.Context, t *qualityDatamodel.QualityTest) error {
	return r.db.WithContext(ctx).Model(&qualityDatamodel.QualityTest{}).
		Where("id = ?", t.ID).
		Updates(map[string]interface{}{
			"approval_status": t.ApprovalStatus,
			"approver_id":     t.ApproverID,
			"approved_at":     t.ApprovedAt,
			"notes":           t.Notes,
		}).Error
}
