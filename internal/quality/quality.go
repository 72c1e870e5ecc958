package quality

import (
	"time"

	qualityDatamodel "github.com/Selami79/rubber-ds/internal/core/datamodel/quality"
)

const (
	ResultPending     = "pending"
	ResultPass        = "pass"
	ResultConditional = "conditional"
	ResultFail        = "fail"
)

const (
	ApprovalPending  = "pending"
	ApprovalApproved = "approved"
	ApprovalRejected = "rejected"
)

type Test struct {
	ID             int64          `json:"id"`
	ProductID      int64          `json:"product_id"`
	BatchNumber    string         `json:"batch_number"`
	TestedAt       time.Time      `json:"tested_at"`
	TesterID       int64          `json:"tester_id"`
	Result         string         `json:"result"`
	ApprovalStatus string         `json:"approval_status"`
	ApproverID     *int64         `json:"approver_id,omitempty"`
	ApprovedAt     *time.Time     `json:"approved_at,omitempty"`
	Notes          *string        `json:"notes,omitempty"`
	Measurements   []*Measurement `json:"measurements"`
}

type Measurement struct {
	ID              int64   `json:"id"`
	TestID          int64   `json:"test_id"`
	MeasurementType string  `json:"measurement_type"`
	Value           float64 `json:"value"`
	Unit            string  `json:"unit"`
	MinValue        float64 `json:"min_value"`
	MaxValue        float64 `json:"max_value"`
	Result          string  `json:"result"`
}

// Evaluate returns ResultPass when min <= value <= max, else ResultFail.
func Evaluate(value, min, max float64) string {
	if min <= value && value <= max {
		return ResultPass
	}
	return ResultFail
}

// OverallResult is ResultPass only when every measurement passed. A test
// with no measurements stays pending.
func OverallResult(results []string) string {
	if len(results) == 0 {
		return ResultPending
	}
	for _, r := range results {
		if r != ResultPass {
			return ResultFail
		}
	}
	return ResultPass
}

func FromDataModel(m *qualityDatamodel.QualityTest) *Test {
	t := &Test{
		ID:             m.ID,
		ProductID:      m.ProductID,
		BatchNumber:    m.BatchNumber,
		TestedAt:       m.TestedAt,
		TesterID:       m.TesterID,
		Result:         m.Result,
		ApprovalStatus: m.ApprovalStatus,
		ApproverID:     m.ApproverID,
		ApprovedAt:     m.ApprovedAt,
		Notes:          m.Notes,
		Measurements:   make([]*Measurement, 0, len(m.Measurements)),
	}
	for _, ms := range m.Measurements {
		t.Measurements = append(t.Measurements, &Measurement{
			ID:              ms.ID,
			TestID:          ms.TestID,
			MeasurementType: ms.MeasurementType,
			Value:           ms.Value,
			Unit:            ms.Unit,
			MinValue:        ms.MinValue,
			MaxValue:        ms.MaxValue,
			Result:          ms.Result,
		})
	}
	return t
}
