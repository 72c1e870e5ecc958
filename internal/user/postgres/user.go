package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Selami79/rubber-ds/internal"
	userDatamodel "github.com/Selami79/rubber-ds/internal/core/datamodel/user"
	"github.com/Selami79/rubber-ds/internal/user"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
)

const userColumns = "id, username, password_hash, display_name, role, is_active, created_at, updated_at"

func NewPostgresRepo(db *sqlx.DB) user.Repository {
	return &pgRepo{db: db}
}

type pgRepo struct {
	db *sqlx.DB
}

func (p *pgRepo) Create(ctx context.Context, u *userDatamodel.User) error {
	now := time.Now().UTC()
	u.CreatedAt, u.UpdatedAt = now, now

	query := p.db.Rebind(`
INSERT INTO users (username, password_hash, display_name, role, is_active, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
RETURNING id`)
	err := p.db.QueryRowxContext(ctx, query,
		u.Username, u.PasswordHash, u.DisplayName, u.Role, u.IsActive, u.CreatedAt, u.UpdatedAt,
	).Scan(&u.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return internal.ErrDuplicateCode
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (p *pgRepo) GetByID(ctx context.Context, id int64) (*userDatamodel.User, error) {
	var u userDatamodel.User
	query := p.db.Rebind("SELECT " + userColumns + " FROM users WHERE id = ?")
	if err := p.db.GetContext(ctx, &u, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

func (p *pgRepo) UsernameExists(ctx context.Context, username string) (bool, error) {
	var exists bool
	query := p.db.Rebind("SELECT EXISTS(SELECT 1 FROM users WHERE username = ?)")
	if err := p.db.GetContext(ctx, &exists, query, username); err != nil {
		return false, fmt.Errorf("username exists query: %w", err)
	}
	return exists, nil
}

func (p *pgRepo) List(ctx context.Context) ([]*userDatamodel.User, error) {
	var users []*userDatamodel.User
	query := "SELECT " + userColumns + " FROM users ORDER BY id ASC"
	if err := p.db.SelectContext(ctx, &users, query); err != nil {
		return nil, err
	}
	return users, nil
}

func (p *pgRepo) SetActive(ctx context.Context, id int64, active bool) error {
	query := p.db.Rebind("UPDATE users SET is_active = ?, updated_at = ? WHERE id = ?")
	res, err := p.db.ExecContext(ctx, query, active, time.Now().UTC(), id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return internal.ErrUserNotFound
	}
	return nil
}

// isUniqueViolation recognises unique constraint errors from pgx and, by
// message, from the sqlite driver used in tests.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
