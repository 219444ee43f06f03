package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/digkill/wallify/internal/models"
)

type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	const query = `
INSERT INTO wallify_users (firstname, lastname, email, username, password, pfp, premium)
VALUES (NULLIF(?, ''), NULLIF(?, ''), NULLIF(?, ''), ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, query, user.FirstName, user.LastName, user.Email, user.Username, user.PasswordHash, user.Picture, user.Premium)
	if err != nil {
		if isDuplicate(err) {
			return nil, ErrDuplicate
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	user.ID = id
	return user, nil
}

// FindByUsername loads everything except the picture bytes.
func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	const query = `
SELECT id, username, COALESCE(firstname, ''), COALESCE(lastname, ''), COALESCE(email, ''), password, premium, pfp IS NOT NULL
FROM wallify_users WHERE username = ?`
	row := r.db.QueryRowContext(ctx, query, username)
	var u models.User
	if err := row.Scan(&u.ID, &u.Username, &u.FirstName, &u.LastName, &u.Email, &u.PasswordHash, &u.Premium, &u.HasPicture); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}
	return &u, nil
}

func (r *UserRepository) PictureByID(ctx context.Context, id int64) ([]byte, error) {
	return r.picture(ctx, `SELECT pfp FROM wallify_users WHERE id = ?`, id)
}

func (r *UserRepository) PictureByUsername(ctx context.Context, username string) ([]byte, error) {
	return r.picture(ctx, `SELECT pfp FROM wallify_users WHERE username = ?`, username)
}

func (r *UserRepository) picture(ctx context.Context, query string, arg any) ([]byte, error) {
	var data []byte
	if err := r.db.QueryRowContext(ctx, query, arg).Scan(&data); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan picture: %w", err)
	}
	return data, nil
}

func (r *UserRepository) UpdatePicture(ctx context.Context, username string, data []byte) error {
	const query = `UPDATE wallify_users SET pfp = ? WHERE username = ?`
	if _, err := r.db.ExecContext(ctx, query, data, username); err != nil {
		return fmt.Errorf("update picture: %w", err)
	}
	return nil
}

func (r *UserRepository) IsPremium(ctx context.Context, username string) (bool, error) {
	const query = `SELECT premium FROM wallify_users WHERE username = ?`
	var premium bool
	if err := r.db.QueryRowContext(ctx, query, username).Scan(&premium); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("scan premium: %w", err)
	}
	return premium, nil
}

// SetPremium marks the user premium. It reports whether the user exists.
func (r *UserRepository) SetPremium(ctx context.Context, username string) (bool, error) {
	const query = `UPDATE wallify_users SET premium = 1 WHERE username = ?`
	res, err := r.db.ExecContext(ctx, query, username)
	if err != nil {
		return false, fmt.Errorf("set premium: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("premium rows affected: %w", err)
	}
	if affected > 0 {
		return true, nil
	}
	// MySQL reports 0 affected rows when the flag was already set.
	var exists int
	if err := r.db.QueryRowContext(ctx, `SELECT 1 FROM wallify_users WHERE username = ?`, username).Scan(&exists); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("check user exists: %w", err)
	}
	return true, nil
}
