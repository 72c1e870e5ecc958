package scrap

import (
	"strings"
	"time"

	"github.com/Selami79/rubber-ds/internal/core/common/validation"
)

type CreateRecordDTO struct {
	ProductID   int64      `json:"product_id" validate:"required,gt=0"`
	BatchNumber string     `json:"batch_number" validate:"required,notblank,max=64"`
	MachineID   *int64     `json:"machine_id,omitempty" validate:"omitempty,gt=0"`
	Quantity    float64    `json:"quantity" validate:"gt=0"`
	Unit        string     `json:"unit" validate:"required,notblank,max=16"`
	Reason      string     `json:"reason" validate:"required,oneof=production_error material_error operator_error machine_failure quality_rejection other"`
	SubReason   *string    `json:"sub_reason,omitempty" validate:"omitempty,max=128"`
	Cost        *float64   `json:"cost,omitempty" validate:"omitempty,gte=0"`
	Notes       *string    `json:"notes,omitempty" validate:"omitempty,max=1024"`
	Location    string     `json:"location,omitempty" validate:"max=64"`
	RecordedAt  *time.Time `json:"recorded_at,omitempty" validate:"omitempty,notfuture"`
}

func (d *CreateRecordDTO) Validate() error {
	d.BatchNumber = strings.TrimSpace(d.BatchNumber)
	d.Unit = strings.TrimSpace(d.Unit)
	d.Reason = strings.ToLower(strings.TrimSpace(d.Reason))
	d.Location = strings.TrimSpace(d.Location)
	if err := validation.Struct(d); err != nil {
		return err
	}
	return nil
}

type StatusDTO struct {
	Status string  `json:"status" validate:"required,oneof=under_review approved rejected corrected"`
	Notes  *string `json:"notes,omitempty" validate:"omitempty,max=1024"`
}

func (d *StatusDTO) Validate() error {
	d.Status = strings.ToLower(strings.TrimSpace(d.Status))
	if err := validation.Struct(d); err != nil {
		return err
	}
	return nil
}

type RecordsResponse struct {
	Records []*Record `json:"records"`
}

type MachinesResponse struct {
	Machines []*MachineSummary `json:"machines"`
}
