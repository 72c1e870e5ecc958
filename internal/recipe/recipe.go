package recipe

import (
	"fmt"
	"math"
	"time"

	"github.com/Selami79/rubber-ds/internal"
	recipeDatamodel "github.com/Selami79/rubber-ds/internal/core/datamodel/recipe"
)

const (
	// ShareTolerance is how far the share sum may drift from 100.
	ShareTolerance = 0.01
	// shareEpsilon keeps exact boundary sums like 99.99 inside the tolerance.
	shareEpsilon = 1e-9
)

type Recipe struct {
	ID            int64        `json:"id"`
	Code          string       `json:"code"`
	Name          string       `json:"name"`
	Description   string       `json:"description,omitempty"`
	TotalQuantity float64      `json:"total_quantity"`
	Instructions  string       `json:"instructions,omitempty"`
	CustomerID    *int64       `json:"customer_id,omitempty"`
	Components    []*Component `json:"components"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
}

type Component struct {
	ID              int64   `json:"id"`
	RawMaterialID   int64   `json:"raw_material_id"`
	RawMaterialCode string  `json:"raw_material_code,omitempty"`
	RawMaterialName string  `json:"raw_material_name,omitempty"`
	Unit            string  `json:"unit,omitempty"`
	SharePercent    float64 `json:"share_percent"`
	Quantity        float64 `json:"quantity"`
	Sequence        int     `json:"sequence"`
}

// Share is one raw material's percentage of a recipe.
type Share struct {
	RawMaterialID int64
	SharePercent  float64
}

// DerivedComponent is a share with its quantity worked out for a batch size.
type DerivedComponent struct {
	RawMaterialID int64
	SharePercent  float64
	Quantity      float64
	Sequence      int
}

// ValidateShares fails with internal.ErrInvalidComposition unless the shares
// add up to 100 within ShareTolerance.
func ValidateShares(shares []Share) error {
	var sum float64
	for _, s := range shares {
		sum += s.SharePercent
	}
	if math.Abs(sum-100) > ShareTolerance+shareEpsilon {
		return internal.ErrInvalidComposition.WithMessage(
			fmt.Sprintf("raw material shares must add up to 100%% (got %.4f)", sum))
	}
	return nil
}

// DeriveQuantities computes each component's quantity for total and assigns
// sequences 1..n in input order.
func DeriveQuantities(total float64, shares []Share) []DerivedComponent {
	out := make([]DerivedComponent, len(shares))
	for i, s := range shares {
		out[i] = DerivedComponent{
			RawMaterialID: s.RawMaterialID,
			SharePercent:  s.SharePercent,
			Quantity:      total * s.SharePercent / 100,
			Sequence:      i + 1,
		}
	}
	return out
}

func sharesOf(components []recipeDatamodel.RecipeComponent) []Share {
	out := make([]Share, len(components))
	for i, c := range components {
		out[i] = Share{RawMaterialID: c.RawMaterialID, SharePercent: c.SharePercent}
	}
	return out
}

func toComponentModels(derived []DerivedComponent) []recipeDatamodel.RecipeComponent {
	out := make([]recipeDatamodel.RecipeComponent, len(derived))
	for i, d := range derived {
		out[i] = recipeDatamodel.RecipeComponent{
			RawMaterialID: d.RawMaterialID,
			SharePercent:  d.SharePercent,
			Quantity:      d.Quantity,
			Sequence:      d.Sequence,
		}
	}
	return out
}

func FromDataModel(m *recipeDatamodel.Recipe) *Recipe {
	r := &Recipe{
		ID:            m.ID,
		Code:          m.Code,
		Name:          m.Name,
		Description:   m.Description,
		TotalQuantity: m.TotalQuantity,
		Instructions:  m.Instructions,
		CustomerID:    m.CustomerID,
		Components:    make([]*Component, 0, len(m.Components)),
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
	for _, c := range m.Components {
		comp := &Component{
			ID:            c.ID,
			RawMaterialID: c.RawMaterialID,
			SharePercent:  c.SharePercent,
			Quantity:      c.Quantity,
			Sequence:      c.Sequence,
		}
		if c.RawMaterial != nil {
			comp.RawMaterialCode = c.RawMaterial.Code
			comp.RawMaterialName = c.RawMaterial.Name
			comp.Unit = c.RawMaterial.Unit
		}
		r.Components = append(r.Components, comp)
	}
	return r
}
