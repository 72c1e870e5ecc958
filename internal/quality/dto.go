package quality

import (
	"strings"
	"time"

	"github.com/Selami79/rubber-ds/internal/core/common/validation"
)

type CreateTestDTO struct {
	ProductID   int64      `json:"product_id" validate:"required,gt=0"`
	BatchNumber string     `json:"batch_number" validate:"required,notblank,max=64"`
	TestedAt    *time.Time `json:"tested_at,omitempty" validate:"omitempty,notfuture"`
	Notes       *string    `json:"notes,omitempty" validate:"omitempty,max=1024"`
}

func (d *CreateTestDTO) Validate() error {
	d.BatchNumber = strings.TrimSpace(d.BatchNumber)
	if err := validation.Struct(d); err != nil {
		return err
	}
	return nil
}

type MeasurementDTO struct {
	MeasurementType string  `json:"measurement_type" validate:"required,notblank,max=64"`
	Value           float64 `json:"value"`
	Unit            string  `json:"unit" validate:"required,notblank,max=16"`
	MinValue        float64 `json:"min_value"`
	MaxValue        float64 `json:"max_value" validate:"gtefield=MinValue"`
}

func (d *MeasurementDTO) Validate() error {
	d.MeasurementType = strings.TrimSpace(d.MeasurementType)
	d.Unit = strings.TrimSpace(d.Unit)
	if err := validation.Struct(d); err != nil {
		return err
	}
	return nil
}

type ApprovalDTO struct {
	Status string  `json:"status" validate:"required,oneof=approved rejected"`
	Notes  *string `json:"notes,omitempty" validate:"omitempty,max=1024"`
}

func (d *ApprovalDTO) Validate() error {
	d.Status = strings.ToLower(strings.TrimSpace(d.Status))
	if err := validation.Struct(d); err != nil {
		return err
	}
	return nil
}

type TestsResponse struct {
	Tests []*Test `json:"tests"`
}
