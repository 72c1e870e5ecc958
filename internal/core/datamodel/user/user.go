package user

import "time"

type User struct {
	ID           int64     `gorm:"primaryKey" db:"id"`
	Username     string    `gorm:"column:username;uniqueIndex;not null" db:"username"`
	PasswordHash string    `gorm:"column:password_hash;not null" db:"password_hash"`
	DisplayName  string    `gorm:"column:display_name;not null" db:"display_name"`
	Role         string    `gorm:"column:role;not null" db:"role"`
	IsActive     bool      `gorm:"column:is_active;not null" db:"is_active"`
	CreatedAt    time.Time `gorm:"column:created_at" db:"created_at"`
	UpdatedAt    time.Time `gorm:"column:updated_at" db:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

// BootstrapMarker rows are keyed by name; the primary key is what stops two
// concurrent first-user requests from both creating an admin. UserID is
// cleared when that user is deleted; the marker itself stays.
type BootstrapMarker struct {
	Name      string    `gorm:"column:name;primaryKey" db:"name"`
	UserID    *int64    `gorm:"column:user_id" db:"user_id"`
	CreatedAt time.Time `gorm:"column:created_at" db:"created_at"`
}

func (BootstrapMarker) TableName() string {
	return "bootstrap_markers"
}

const FirstAdminMarker = "first_admin"
