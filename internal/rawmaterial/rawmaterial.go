package rawmaterial

import (
	"time"

	rawmaterialDatamodel "github.com/Selami79/rubber-ds/internal/core/datamodel/rawmaterial"
)

type RawMaterial struct {
	ID               int64     `json:"id"`
	Code             string    `json:"code"`
	Name             string    `json:"name"`
	Unit             string    `json:"unit"`
	Quantity         float64   `json:"quantity"`
	CriticalQuantity float64   `json:"critical_quantity"`
	UnitPrice        float64   `json:"unit_price"`
	StorageLocation  *string   `json:"storage_location,omitempty"`
	IsCritical       bool      `json:"is_critical"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// Critical reports whether stock is at or below its threshold.
func Critical(quantity, criticalQuantity float64) bool {
	return quantity <= criticalQuantity
}

func FromDataModel(m *rawmaterialDatamodel.RawMaterial) *RawMaterial {
	return &RawMaterial{
		ID:               m.ID,
		Code:             m.Code,
		Name:             m.Name,
		Unit:             m.Unit,
		Quantity:         m.Quantity,
		CriticalQuantity: m.CriticalQuantity,
		UnitPrice:        m.UnitPrice,
		StorageLocation:  m.StorageLocation,
		IsCritical:       Critical(m.Quantity, m.CriticalQuantity),
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}
}
