package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nexvent/nexvent/internal/domain"
)

type UserRepo struct {
	pool *pgxpool.Pool
}

const userColumns = `id, name, email, password_hash, mobile, image_url, created_at, updated_at`

// Create inserts a new user and fills in the generated fields.
//
// Returns:
//   - error: repository.ErrConflict when the email is already registered.
func (r *UserRepo) Create(ctx context.Context, u *domain.User) error {
	const op = "postgres.UserRepo.Create"

	err := r.pool.QueryRow(ctx,
		`INSERT INTO users (name, email, password_hash, mobile)
       	 VALUES ($1, $2, $3, $4)
      	 RETURNING id, created_at, updated_at`,
		u.Name, u.Email, u.PasswordHash, u.Mobile,
	).Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return nil
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	const op = "postgres.UserRepo.GetByEmail"

	var u domain.User
	err := r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1`,
		email,
	).Scan(
		&u.ID, &u.Name, &u.Email, &u.PasswordHash,
		&u.Mobile, &u.ImageURL, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return &u, nil
}

func (r *UserRepo) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	const op = "postgres.UserRepo.GetByID"

	var u domain.User
	err := r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`,
		id,
	).Scan(
		&u.ID, &u.Name, &u.Email, &u.PasswordHash,
		&u.Mobile, &u.ImageURL, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return &u, nil
}

// UpdateProfile updates the mutable profile fields. Empty values keep the
// stored ones.
func (r *UserRepo) UpdateProfile(
	ctx context.Context,
	id int64,
	name, mobile, imageURL string,
) (*domain.User, error) {
	const op = "postgres.UserRepo.UpdateProfile"

	var u domain.User
	err := r.pool.QueryRow(ctx,
		`UPDATE users
        	SET name      = COALESCE(NULLIF($2, ''), name),
            	mobile    = COALESCE(NULLIF($3, ''), mobile),
            	image_url = COALESCE(NULLIF($4, ''), image_url),
            	updated_at = NOW()
      	 WHERE id = $1
      	 RETURNING `+userColumns,
		id, name, mobile, imageURL,
	).Scan(
		&u.ID, &u.Name, &u.Email, &u.PasswordHash,
		&u.Mobile, &u.ImageURL, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return &u, nil
}
