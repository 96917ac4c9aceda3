package postgres

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	authDomain "github.com/engenhariadahumanidade/RAPERStockDASH/internal/domain/auth"
)

// UserRepo stores accounts.
type UserRepo struct {
	db *sql.DB
}

func NewUserRepo(db *sql.DB) *UserRepo {
	return &UserRepo{db: db}
}

func (r *UserRepo) FindByEmail(ctx context.Context, email string) (authDomain.User, error) {
	const q = `
SELECT id, email, name, role, status, password_hash, created_at
FROM users
WHERE email = $1
LIMIT 1;
`
	var u authDomain.User
	if err := r.db.QueryRowContext(ctx, q, email).Scan(&u.ID, &u.Email, &u.Name, &u.Role, &u.Status, &u.Password, &u.CreatedAt); err != nil {
		return authDomain.User{}, err
	}
	return u, nil
}

func (r *UserRepo) FindByID(ctx context.Context, id string) (authDomain.User, error) {
	const q = `
SELECT id, email, name, role, status, password_hash, created_at
FROM users
WHERE id = $1
LIMIT 1;
`
	var u authDomain.User
	if err := r.db.QueryRowContext(ctx, q, id).Scan(&u.ID, &u.Email, &u.Name, &u.Role, &u.Status, &u.Password, &u.CreatedAt); err != nil {
		return authDomain.User{}, err
	}
	return u, nil
}

func (r *UserRepo) Create(ctx context.Context, u authDomain.User) (authDomain.User, error) {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	const q = `
INSERT INTO users (id, email, name, role, status, password_hash)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING created_at;
`
	if err := r.db.QueryRowContext(ctx, q, u.ID, u.Email, u.Name, u.Role, u.Status, u.Password).Scan(&u.CreatedAt); err != nil {
		return authDomain.User{}, err
	}
	return u, nil
}

// AllowedUserRepo stores the registration allow-list.
type AllowedUserRepo struct {
	db *sql.DB
}

func NewAllowedUserRepo(db *sql.DB) *AllowedUserRepo {
	return &AllowedUserRepo{db: db}
}

func (r *AllowedUserRepo) IsAllowed(ctx context.Context, email string) (bool, error) {
	const q = `SELECT EXISTS(SELECT 1 FROM allowed_users WHERE email = $1);`
	var ok bool
	if err := r.db.QueryRowContext(ctx, q, email).Scan(&ok); err != nil {
		return false, err
	}
	return ok, nil
}

func (r *AllowedUserRepo) Add(ctx context.Context, email string) (authDomain.AllowedUser, error) {
	const q = `
INSERT INTO allowed_users (email)
VALUES ($1)
ON CONFLICT (email) DO UPDATE SET email = EXCLUDED.email
RETURNING email, created_at;
`
	var a authDomain.AllowedUser
	if err := r.db.QueryRowContext(ctx, q, email).Scan(&a.Email, &a.CreatedAt); err != nil {
		return authDomain.AllowedUser{}, err
	}
	return a, nil
}

func (r *AllowedUserRepo) Remove(ctx context.Context, email string) error {
	const q = `DELETE FROM allowed_users WHERE email = $1;`
	_, err := r.db.ExecContext(ctx, q, email)
	return err
}

func (r *AllowedUserRepo) List(ctx context.Context) ([]authDomain.AllowedUser, error) {
	const q = `SELECT email, created_at FROM allowed_users ORDER BY created_at DESC;`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []authDomain.AllowedUser
	for rows.Next() {
		var a authDomain.AllowedUser
		if err := rows.Scan(&a.Email, &a.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
