package postgres

import (
	"context"
	"errors"

	"github.com/Selami79/rubber-ds/internal"
	"github.com/Selami79/rubber-ds/internal/auth"
	userDatamodel "github.com/Selami79/rubber-ds/internal/core/datamodel/user"
	"gorm.io/gorm"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) auth.CredentialStore {
	return &Repository{
		db: db,
	}
}

func (r *Repository) CountUsers(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&userDatamodel.User{}).Count(&count).Error
	return count, err
}

func (r *Repository) GetByUsername(ctx context.Context, username string) (*userDatamodel.User, error) {
	var u userDatamodel.User
	err := r.db.WithContext(ctx).Where("username = ?", username).First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

// CreateFirstAdmin creates the user and then the first_admin marker pointing
// at it, in one transaction. A second caller hits the marker's primary key,
// which rolls its user back and yields internal.ErrAlreadyInitialized whatever
// the users table looks like.
func (r *Repository) CreateFirstAdmin(ctx context.Context, u *userDatamodel.User) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(u).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return internal.ErrDuplicateCode.WithMessage("username already taken")
			}
			return err
		}

		marker := &userDatamodel.BootstrapMarker{Name: userDatamodel.FirstAdminMarker, UserID: &u.ID}
		if err := tx.Create(marker).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return internal.ErrAlreadyInitialized
			}
			return err
		}
		return nil
	})
}
