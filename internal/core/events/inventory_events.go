package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventTypeRawMaterialCritical = "raw_material.critical"
	EventTypeQualityTestFailed   = "quality_test.failed"
)

type RawMaterialCriticalEvent struct {
	BaseEvent
	RawMaterialID    int64   `json:"raw_material_id"`
	Code             string  `json:"code"`
	Quantity         float64 `json:"quantity"`
	CriticalQuantity float64 `json:"critical_quantity"`
	Unit             string  `json:"unit"`
}

func NewRawMaterialCriticalEvent(id int64, code string, quantity, criticalQuantity float64, unit string) *RawMaterialCriticalEvent {
	return &RawMaterialCriticalEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeRawMaterialCritical,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"raw_material_id":   id,
				"code":              code,
				"quantity":          quantity,
				"critical_quantity": criticalQuantity,
				"unit":              unit,
			},
		},
		RawMaterialID:    id,
		Code:             code,
		Quantity:         quantity,
		CriticalQuantity: criticalQuantity,
		Unit:             unit,
	}
}

type QualityTestFailedEvent struct {
	BaseEvent
	TestID          int64  `json:"test_id"`
	ProductID       int64  `json:"product_id"`
	BatchNumber     string `json:"batch_number"`
	MeasurementType string `json:"measurement_type"`
}

func NewQualityTestFailedEvent(testID, productID int64, batchNumber, measurementType string) *QualityTestFailedEvent {
	return &QualityTestFailedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeQualityTestFailed,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"test_id":          testID,
				"product_id":       productID,
				"batch_number":     batchNumber,
				"measurement_type": measurementType,
			},
		},
		TestID:          testID,
		ProductID:       productID,
		BatchNumber:     batchNumber,
		MeasurementType: measurementType,
	}
}
