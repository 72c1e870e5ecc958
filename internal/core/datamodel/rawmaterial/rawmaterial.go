package rawmaterial

import "time"

type RawMaterial struct {
	ID               int64     `gorm:"primaryKey" db:"id"`
	Code             string    `gorm:"column:code;uniqueIndex;not null" db:"code"`
	Name             string    `gorm:"column:name;not null" db:"name"`
	Unit             string    `gorm:"column:unit;not null" db:"unit"`
	Quantity         float64   `gorm:"column:quantity;not null" db:"quantity"`
	CriticalQuantity float64   `gorm:"column:critical_quantity;not null" db:"critical_quantity"`
	UnitPrice        float64   `gorm:"column:unit_price;not null" db:"unit_price"`
	StorageLocation  *string   `gorm:"column:storage_location" db:"storage_location"`
	CreatedAt        time.Time `gorm:"column:created_at" db:"created_at"`
	UpdatedAt        time.Time `gorm:"column:updated_at" db:"updated_at"`
}

func (RawMaterial) TableName() string {
	return "raw_materials"
}
