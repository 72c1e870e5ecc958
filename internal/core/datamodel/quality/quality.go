package quality

import "time"

type QualityTest struct {
	ID             int64                `gorm:"primaryKey"`
	ProductID      int64                `gorm:"column:product_id;not null;index"`
	BatchNumber    string               `gorm:"column:batch_number;not null"`
	TestedAt       time.Time            `gorm:"column:tested_at;not null"`
	TesterID       int64                `gorm:"column:tester_id;not null"`
	Result         string               `gorm:"column:result;not null"`
	ApprovalStatus string               `gorm:"column:approval_status;not null"`
	ApproverID     *int64               `gorm:"column:approver_id"`
	ApprovedAt     *time.Time           `gorm:"column:approved_at"`
	Notes          *string              `gorm:"column:notes"`
	Measurements   []QualityMeasurement `gorm:"foreignKey:TestID"`
}

func (QualityTest) TableName() string {
	return "quality_tests"
}

type QualityMeasurement struct {
	ID              int64   `gorm:"primaryKey"`
	TestID          int64   `gorm:"column:test_id;not null;index"`
	MeasurementType string  `gorm:"column:measurement_type;not null"`
	Value           float64 `gorm:"column:value;not null"`
	Unit            string  `gorm:"column:unit;not null"`
	MinValue        float64 `gorm:"column:min_value;not null"`
	MaxValue        float64 `gorm:"column:max_value;not null"`
	Result          string  `gorm:"column:result;not null"`
}

func (QualityMeasurement) TableName() string {
	return "quality_measurements"
}
