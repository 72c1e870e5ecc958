package scrap

import (
	"time"

	scrapDatamodel "github.com/Selami79/rubber-ds/internal/core/datamodel/scrap"
)

const DefaultLocation = "Unspecified"

const (
	ReasonProductionError  = "production_error"
	ReasonMaterialError    = "material_error"
	ReasonOperatorError    = "operator_error"
	ReasonMachineFailure   = "machine_failure"
	ReasonQualityRejection = "quality_rejection"
	ReasonOther            = "other"
)

const (
	StatusUnderReview = "under_review"
	StatusApproved    = "approved"
	StatusRejected    = "rejected"
	StatusCorrected   = "corrected"
)

type Record struct {
	ID          int64     `json:"id"`
	ProductID   int64     `json:"product_id"`
	BatchNumber string    `json:"batch_number"`
	MachineID   *int64    `json:"machine_id,omitempty"`
	Quantity    float64   `json:"quantity"`
	Unit        string    `json:"unit"`
	Reason      string    `json:"reason"`
	SubReason   *string   `json:"sub_reason,omitempty"`
	Status      string    `json:"status"`
	Cost        *float64  `json:"cost,omitempty"`
	Notes       *string   `json:"notes,omitempty"`
	Location    string    `json:"location"`
	OperatorID  int64     `json:"operator_id"`
	RecordedAt  time.Time `json:"recorded_at"`
}

func FromDataModel(m *scrapDatamodel.ScrapRecord) *Record {
	return &Record{
		ID:          m.ID,
		ProductID:   m.ProductID,
		BatchNumber: m.BatchNumber,
		MachineID:   m.MachineID,
		Quantity:    m.Quantity,
		Unit:        m.Unit,
		Reason:      m.Reason,
		SubReason:   m.SubReason,
		Status:      m.Status,
		Cost:        m.Cost,
		Notes:       m.Notes,
		Location:    m.Location,
		OperatorID:  m.OperatorID,
		RecordedAt:  m.RecordedAt,
	}
}

func fromDataModels(rows []*scrapDatamodel.ScrapRecord) []*Record {
	out := make([]*Record, 0, len(rows))
	for _, row := range rows {
		out = append(out, FromDataModel(row))
	}
	return out
}
