package scrap

import "time"

// ScrapRecord is written through gorm and read back through sqlx, hence both tag sets.
type ScrapRecord struct {
	ID          int64     `gorm:"primaryKey" db:"id"`
	ProductID   int64     `gorm:"column:product_id;not null;index" db:"product_id"`
	BatchNumber string    `gorm:"column:batch_number;not null" db:"batch_number"`
	MachineID   *int64    `gorm:"column:machine_id;index" db:"machine_id"`
	Quantity    float64   `gorm:"column:quantity;not null" db:"quantity"`
	Unit        string    `gorm:"column:unit;not null" db:"unit"`
	Reason      string    `gorm:"column:reason;not null" db:"reason"`
	SubReason   *string   `gorm:"column:sub_reason" db:"sub_reason"`
	Status      string    `gorm:"column:status;not null" db:"status"`
	Cost        *float64  `gorm:"column:cost" db:"cost"`
	Notes       *string   `gorm:"column:notes" db:"notes"`
	Location    string    `gorm:"column:location;not null" db:"location"`
	OperatorID  int64     `gorm:"column:operator_id;not null" db:"operator_id"`
	RecordedAt  time.Time `gorm:"column:recorded_at;not null;index" db:"recorded_at"`
}

func (ScrapRecord) TableName() string {
	return "scrap_records"
}
