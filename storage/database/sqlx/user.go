package sqlxrepos

import (
	"context"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/bursary/core"
	"github.com/trezcool/bursary/core/user"
)

const userColumns = `id, name, username, email, is_active, roles, password_hash, created_at, updated_at, last_login`

type userRow struct {
	ID           int            `db:"id"`
	Name         string         `db:"name"`
	Username     string         `db:"username"`
	Email        null.String    `db:"email"`
	IsActive     bool           `db:"is_active"`
	Roles        pq.StringArray `db:"roles"`
	PasswordHash []byte         `db:"password_hash"`
	CreatedAt    time.Time      `db:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at"`
	LastLogin    null.Time      `db:"last_login"`
}

func (row userRow) toUser() user.User {
	return user.User{
		ID:           row.ID,
		Name:         row.Name,
		Username:     row.Username,
		Email:        row.Email.String,
		IsActive:     row.IsActive,
		Roles:        []string(row.Roles),
		PasswordHash: row.PasswordHash,
		CreatedAt:    row.CreatedAt.UTC(),
		UpdatedAt:    row.UpdatedAt.UTC(),
		LastLogin:    row.LastLogin.Time.UTC(),
	}
}

type userRepository struct {
	baseRepo
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *sqlx.DB) user.Repository {
	return &userRepository{baseRepo{db: db}}
}

func (repo *userRepository) CheckUsernameUniqueness(ctx context.Context, username, email string, exec ...core.DBExecutor) error {
	var taken []userRow
	q := `SELECT ` + userColumns + ` FROM users WHERE username = $1 OR (email IS NOT NULL AND email = $2)`
	if err := sqlx.SelectContext(ctx, repo.getExec(exec), &taken, q, username, email); err != nil {
		return errors.Wrap(err, "checking user uniqueness")
	}
	for _, row := range taken {
		if row.Username == username {
			return user.ErrUsernameExists
		}
	}
	if len(taken) > 0 {
		return user.ErrEmailExists
	}
	return nil
}

func (repo *userRepository) CreateUser(ctx context.Context, usr user.User, exec ...core.DBExecutor) (user.User, error) {
	q := `INSERT INTO users (name, username, email, is_active, roles, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`
	err := repo.getExec(exec).QueryRowxContext(
		ctx, q,
		usr.Name, usr.Username, null.NewString(usr.Email, usr.Email != ""), usr.IsActive,
		pq.Array(usr.Roles), usr.PasswordHash, usr.CreatedAt.UTC(), usr.UpdatedAt.UTC(),
	).Scan(&usr.ID)
	if err != nil {
		if isUniqueViolation(err) {
			if _, constraint := pqCode(err); strings.Contains(constraint, "email") {
				return user.User{}, user.ErrEmailExists
			}
			return user.User{}, user.ErrUsernameExists
		}
		return user.User{}, errors.Wrap(err, "inserting user")
	}
	return usr, nil
}

func (repo *userRepository) QueryUsers(ctx context.Context, filter user.QueryFilter, exec ...core.DBExecutor) ([]user.User, error) {
	var (
		where []string
		args  []interface{}
	)
	if filter.Search != "" {
		where = append(where, `(name ILIKE ? OR username ILIKE ? OR email ILIKE ?)`)
		like := "%" + filter.Search + "%"
		args = append(args, like, like, like)
	}
	if len(filter.Roles) > 0 {
		var ors []string
		for _, r := range filter.Roles {
			ors = append(ors, `EXISTS (SELECT 1 FROM unnest(roles) AS role WHERE role LIKE ?)`)
			args = append(args, r+"%")
		}
		where = append(where, "("+strings.Join(ors, " OR ")+")")
	}
	if filter.IsActive != nil {
		where = append(where, `is_active = ?`)
		args = append(args, *filter.IsActive)
	}

	q := `SELECT ` + userColumns + ` FROM users`
	if len(where) > 0 {
		q += ` WHERE ` + strings.Join(where, " AND ")
	}
	q += ` ORDER BY ` + core.DBOrdering{Field: "username", Ascending: true}.String()

	ext := repo.getExec(exec)
	var rows []userRow
	if err := sqlx.SelectContext(ctx, ext, &rows, ext.Rebind(q), args...); err != nil {
		return nil, errors.Wrap(err, "querying users")
	}
	users := make([]user.User, 0, len(rows))
	for _, row := range rows {
		users = append(users, row.toUser())
	}
	return users, nil
}

func (repo *userRepository) GetUserByID(ctx context.Context, id int, exec ...core.DBExecutor) (user.User, error) {
	var row userRow
	q := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	if err := sqlx.GetContext(ctx, repo.getExec(exec), &row, q, id); err != nil {
		return user.User{}, trapNoRowsErr(err, user.ErrNotFound, "fetching user")
	}
	return row.toUser(), nil
}

func (repo *userRepository) GetUserByUsernameOrEmail(ctx context.Context, username string, exec ...core.DBExecutor) (user.User, error) {
	var row userRow
	q := `SELECT ` + userColumns + ` FROM users WHERE username = $1 OR email = $1 LIMIT 1`
	if err := sqlx.GetContext(ctx, repo.getExec(exec), &row, q, username); err != nil {
		return user.User{}, trapNoRowsErr(err, user.ErrNotFound, "fetching user")
	}
	return row.toUser(), nil
}

func (repo *userRepository) SetLastLogin(ctx context.Context, id int, at time.Time, exec ...core.DBExecutor) error {
	res, err := repo.getExec(exec).ExecContext(ctx, `UPDATE users SET last_login = $1 WHERE id = $2`, at.UTC(), id)
	if err != nil {
		return errors.Wrap(err, "updating last login")
	}
	return affected(res, user.ErrNotFound)
}

func (repo *userRepository) SetPassword(ctx context.Context, id int, hash []byte, at time.Time, exec ...core.DBExecutor) error {
	q := `UPDATE users SET password_hash = $1, updated_at = $2 WHERE id = $3`
	res, err := repo.getExec(exec).ExecContext(ctx, q, hash, at.UTC(), id)
	if err != nil {
		return errors.Wrap(err, "updating password")
	}
	return affected(res, user.ErrNotFound)
}
