package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mrudenko/user-management-api/internal/domain/entity"
	"github.com/mrudenko/user-management-api/internal/domain/repository"
)

const userColumns = `id, login, password_hash, name, gender, birthday, admin,
		created_on, created_by, modified_on, modified_by, revoked_on, revoked_by`

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

// isUniqueViolation reports whether err is a Postgres unique constraint
// violation (SQLSTATE 23505). The unique index on login is the final
// authority for uniqueness; the service-level pre-check only narrows the race.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func scanUser(row pgx.Row) (*entity.User, error) {
	u := &entity.User{}
	var revokedBy *string
	if err := row.Scan(&u.ID, &u.Login, &u.PasswordHash, &u.Name, &u.Gender, &u.Birthday, &u.Admin,
		&u.CreatedOn, &u.CreatedBy, &u.ModifiedOn, &u.ModifiedBy, &u.RevokedOn, &revokedBy); err != nil {
		return nil, err
	}
	if revokedBy != nil {
		u.RevokedBy = *revokedBy
	}
	return u, nil
}

func (r *UserRepository) FindByLogin(ctx context.Context, login string) (*entity.User, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE login = $1
	`, login)

	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return u, nil
}

func (r *UserRepository) Create(ctx context.Context, u *entity.User) error {
	var revokedBy *string
	if u.RevokedBy != "" {
		revokedBy = &u.RevokedBy
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO users (id, login, password_hash, name, gender, birthday, admin,
			created_on, created_by, modified_on, modified_by, revoked_on, revoked_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`, u.ID, u.Login, u.PasswordHash, u.Name, u.Gender, u.Birthday, u.Admin,
		u.CreatedOn, u.CreatedBy, u.ModifiedOn, u.ModifiedBy, u.RevokedOn, revokedBy)
	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrLoginTaken
		}
		return err
	}
	return nil
}

func (r *UserRepository) ListActive(ctx context.Context) ([]*entity.User, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE revoked_on IS NULL
		ORDER BY created_on ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectUsers(rows)
}

func (r *UserRepository) ListOlderThan(ctx context.Context, age int) ([]*entity.User, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE birthday IS NOT NULL
		  AND birthday <= now() - make_interval(years => $1)
		ORDER BY created_on ASC
	`, age)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectUsers(rows)
}

func collectUsers(rows pgx.Rows) ([]*entity.User, error) {
	users := make([]*entity.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (r *UserRepository) UpdateProfile(ctx context.Context, login, name string, gender entity.Gender, birthday *time.Time, modifiedBy string) (*entity.User, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE users
		SET name = $2, gender = $3, birthday = $4, modified_on = now(), modified_by = $5
		WHERE login = $1
		RETURNING `+userColumns+`
	`, login, name, gender, birthday, modifiedBy)

	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return u, nil
}

func (r *UserRepository) ChangePassword(ctx context.Context, login, newHash, modifiedBy string) (*entity.User, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE users
		SET password_hash = $2, modified_on = now(), modified_by = $3
		WHERE login = $1
		RETURNING `+userColumns+`
	`, login, newHash, modifiedBy)

	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return u, nil
}

func (r *UserRepository) ChangeLogin(ctx context.Context, currentLogin, newLogin, modifiedBy string) (*entity.User, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE users
		SET login = $2, modified_on = now(), modified_by = $3
		WHERE login = $1
		RETURNING `+userColumns+`
	`, currentLogin, newLogin, modifiedBy)

	u, err := scanUser(row)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, repository.ErrLoginTaken
		}
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return u, nil
}

// SoftDelete marks the user revoked. The revoked_on IS NULL guard makes
// concurrent revokes race-safe: the loser observes zero affected rows and the
// existence probe distinguishes "gone" from "already revoked".
func (r *UserRepository) SoftDelete(ctx context.Context, login, revokedBy string) error {
	res, err := r.pool.Exec(ctx, `
		UPDATE users
		SET revoked_on = now(), revoked_by = $2, modified_on = now(), modified_by = $2
		WHERE login = $1 AND revoked_on IS NULL
	`, login, revokedBy)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		var exists bool
		if err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE login = $1)`, login).Scan(&exists); err != nil {
			return err
		}
		if exists {
			return repository.ErrAlreadyRevoked
		}
		return repository.ErrNotFound
	}
	return nil
}

func (r *UserRepository) HardDelete(ctx context.Context, login string) error {
	res, err := r.pool.Exec(ctx, `DELETE FROM users WHERE login = $1`, login)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// Restore clears both revocation fields. Restoring an already-active user is
// a plain no-op update, not an error.
func (r *UserRepository) Restore(ctx context.Context, login string) (*entity.User, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE users
		SET revoked_on = NULL, revoked_by = NULL
		WHERE login = $1
		RETURNING `+userColumns+`
	`, login)

	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return u, nil
}

var _ repository.UserRepository = (*UserRepository)(nil)
