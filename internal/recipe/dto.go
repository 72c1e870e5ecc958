package recipe

import (
	"strings"
	"time"

	"github.com/Selami79/rubber-ds/internal/core/common/validation"
)

type ComponentDTO struct {
	RawMaterialID int64   `json:"raw_material_id" validate:"required,gt=0"`
	SharePercent  float64 `json:"share_percent" validate:"gt=0,lte=100"`
}

// RecipeDTO is used for both create and full update. Components replace the
// stored set wholesale.
type RecipeDTO struct {
	Code          string         `json:"code" validate:"required,notblank,max=32"`
	Name          string         `json:"name" validate:"required,notblank,max=128"`
	Description   string         `json:"description,omitempty" validate:"max=1024"`
	TotalQuantity float64        `json:"total_quantity" validate:"gt=0"`
	Instructions  string         `json:"instructions,omitempty" validate:"max=4096"`
	CustomerID    *int64         `json:"customer_id,omitempty" validate:"omitnil,gt=0"`
	Components    []ComponentDTO `json:"components" validate:"required,min=1,dive"`
}

func (d *RecipeDTO) Validate() error {
	d.Code = strings.TrimSpace(d.Code)
	d.Name = strings.TrimSpace(d.Name)
	d.Description = strings.TrimSpace(d.Description)
	if err := validation.Struct(d); err != nil {
		return err
	}
	return nil
}

func (d *RecipeDTO) Shares() []Share {
	out := make([]Share, len(d.Components))
	for i, c := range d.Components {
		out[i] = Share{RawMaterialID: c.RawMaterialID, SharePercent: c.SharePercent}
	}
	return out
}

type RecipesResponse struct {
	Recipes []*Recipe `json:"recipes"`
}

type ScaledComponent struct {
	RawMaterialID   int64   `json:"raw_material_id"`
	RawMaterialCode string  `json:"raw_material_code"`
	Unit            string  `json:"unit"`
	SharePercent    float64 `json:"share_percent"`
	Quantity        float64 `json:"quantity"`
	OnHand          float64 `json:"on_hand"`
	Shortage        bool    `json:"shortage"`
}

type ScaleResponse struct {
	RecipeID      int64             `json:"recipe_id"`
	Code          string            `json:"code"`
	TotalQuantity float64           `json:"total_quantity"`
	Components    []ScaledComponent `json:"components"`
}

type AccessLogEntry struct {
	ID            int64     `json:"id"`
	UserID        int64     `json:"user_id"`
	RecipeID      int64     `json:"recipe_id"`
	Operation     string    `json:"operation"`
	AccessedAt    time.Time `json:"accessed_at"`
	OriginAddress string    `json:"origin_address,omitempty"`
	Description   string    `json:"description"`
}

type AccessLogResponse struct {
	Entries []*AccessLogEntry `json:"entries"`
}
