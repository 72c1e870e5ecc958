package rawmaterial

import (
	"strings"

	"github.com/Selami79/rubber-ds/internal/core/common/validation"
)

// RawMaterialDTO is used for both create and full update.
type RawMaterialDTO struct {
	Code             string  `json:"code" validate:"required,notblank,max=32"`
	Name             string  `json:"name" validate:"required,notblank,max=128"`
	Unit             string  `json:"unit" validate:"required,notblank,max=16"`
	Quantity         float64 `json:"quantity" validate:"gte=0"`
	CriticalQuantity float64 `json:"critical_quantity" validate:"gte=0"`
	UnitPrice        float64 `json:"unit_price" validate:"gte=0"`
	StorageLocation  *string `json:"storage_location,omitempty" validate:"omitempty,max=64"`
}

func (d *RawMaterialDTO) Validate() error {
	d.Code = strings.TrimSpace(d.Code)
	d.Name = strings.TrimSpace(d.Name)
	d.Unit = strings.TrimSpace(d.Unit)
	if err := validation.Struct(d); err != nil {
		return err
	}
	return nil
}

type AdjustStockDTO struct {
	Delta float64 `json:"delta" validate:"ne=0"`
	Note  string  `json:"note,omitempty" validate:"max=256"`
}

func (d *AdjustStockDTO) Validate() error {
	if err := validation.Struct(d); err != nil {
		return err
	}
	return nil
}

type RawMaterialsResponse struct {
	RawMaterials []*RawMaterial `json:"raw_materials"`
}
