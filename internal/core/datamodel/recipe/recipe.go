package recipe

import (
	"time"

	rawmaterialDatamodel "github.com/Selami79/rubber-ds/internal/core/datamodel/rawmaterial"
)

type Recipe struct {
	ID            int64             `gorm:"primaryKey"`
	Code          string            `gorm:"column:code;uniqueIndex;not null"`
	Name          string            `gorm:"column:name;not null"`
	Description   string            `gorm:"column:description"`
	TotalQuantity float64           `gorm:"column:total_quantity;not null"`
	Instructions  string            `gorm:"column:instructions"`
	CustomerID    *int64            `gorm:"column:customer_id;index"`
	CreatedAt     time.Time         `gorm:"column:created_at"`
	UpdatedAt     time.Time         `gorm:"column:updated_at"`
	Components    []RecipeComponent `gorm:"foreignKey:RecipeID"`
}

func (Recipe) TableName() string {
	return "recipes"
}

type RecipeComponent struct {
	ID            int64                             `gorm:"primaryKey"`
	RecipeID      int64                             `gorm:"column:recipe_id;not null;index"`
	RawMaterialID int64                             `gorm:"column:raw_material_id;not null;index"`
	SharePercent  float64                           `gorm:"column:share_percent;not null"`
	Quantity      float64                           `gorm:"column:quantity;not null"`
	Sequence      int                               `gorm:"column:sequence;not null"`
	RawMaterial   *rawmaterialDatamodel.RawMaterial `gorm:"foreignKey:RawMaterialID"`
}

func (RecipeComponent) TableName() string {
	return "recipe_components"
}

// AccessLog is append-only: repositories only ever insert and list.
type AccessLog struct {
	ID            int64     `gorm:"primaryKey"`
	UserID        int64     `gorm:"column:user_id;not null;index"`
	RecipeID      int64     `gorm:"column:recipe_id;not null;index"`
	Operation     string    `gorm:"column:operation;not null"`
	AccessedAt    time.Time `gorm:"column:accessed_at;not null"`
	OriginAddress string    `gorm:"column:origin_address"`
	Description   string    `gorm:"column:description"`
}

func (AccessLog) TableName() string {
	return "recipe_access_logs"
}
