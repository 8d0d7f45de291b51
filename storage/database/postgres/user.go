package pgrepos

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/ubunifu/launchpad/core"
	"github.com/ubunifu/launchpad/core/user"
)

// pq error code for a missing relation: the backing schema has not been
// migrated yet, which callers surface as a setup_required condition.
const pqUndefinedTable = "42P01"

// orderClause renders an ORDER BY list from the orderings whose field is in
// the allowed column set. Ordering fields can come straight from a request
// query string; anything outside the set is dropped so it never reaches raw SQL.
func orderClause(allowed map[string]bool, ordering []core.DBOrdering) string {
	parts := make([]string, 0, len(ordering))
	for _, ord := range ordering {
		if allowed[ord.Field] {
			parts = append(parts, ord.String())
		}
	}
	if len(parts) == 0 {
		return ""
	}
	return " ORDER BY " + strings.Join(parts, ", ")
}

// userOrderColumns are the columns user queries may order by.
var userOrderColumns = map[string]bool{
	"email":      true,
	"first_name": true,
	"last_name":  true,
	"role":       true,
	"last_login": true,
	"created_at": true,
	"updated_at": true,
}

type userRow struct {
	ID           string      `db:"id"`
	Email        null.String `db:"email"`
	FirstName    null.String `db:"first_name"`
	LastName     null.String `db:"last_name"`
	Role         null.String `db:"role"`
	IsActive     null.Bool   `db:"is_active"`
	PasswordHash null.Bytes  `db:"password_hash"`
	LastLogin    null.Time   `db:"last_login"`
	CreatedAt    null.Time   `db:"created_at"`
	UpdatedAt    null.Time   `db:"updated_at"`
}

type userRepository struct {
	db *sqlx.DB
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *sqlx.DB) *userRepository {
	return &userRepository{db: db}
}

func (repo userRepository) pack(usr user.User) userRow {
	row := userRow{
		Email:        null.NewString(usr.Email, usr.Email != ""),
		FirstName:    null.NewString(usr.FirstName, usr.FirstName != ""),
		LastName:     null.NewString(usr.LastName, usr.LastName != ""),
		Role:         null.NewString(usr.Role, usr.Role != ""),
		IsActive:     null.BoolFromPtr(usr.IsActive),
		PasswordHash: null.BytesFrom(usr.PasswordHash),
		LastLogin:    null.NewTime(usr.LastLogin.UTC(), !usr.LastLogin.IsZero()),
		CreatedAt:    null.NewTime(usr.CreatedAt.UTC(), !usr.CreatedAt.IsZero()),
		UpdatedAt:    null.NewTime(usr.UpdatedAt.UTC(), !usr.UpdatedAt.IsZero()),
	}
	if usr.ID != "" {
		row.ID = usr.ID
	}
	return row
}

func (repo userRepository) unpack(row userRow) user.User {
	return user.User{
		ID:           row.ID,
		Email:        row.Email.String,
		FirstName:    row.FirstName.String,
		LastName:     row.LastName.String,
		Role:         row.Role.String,
		IsActive:     row.IsActive.Ptr(),
		PasswordHash: row.PasswordHash.Bytes,
		LastLogin:    row.LastLogin.Time,
		CreatedAt:    row.CreatedAt.Time,
		UpdatedAt:    row.UpdatedAt.Time,
	}
}

// trapErr maps psql "no rows" to user.ErrNotFound and a missing relation to a
// core.SetupError; anything else is wrapped as-is.
func trapErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return user.ErrNotFound
	}
	if pqErr, ok := errors.Cause(err).(*pq.Error); ok && string(pqErr.Code) == pqUndefinedTable {
		return core.NewSetupError(err)
	}
	return errors.Wrap(err, msg)
}

func (repo userRepository) CheckEmailUniqueness(ctx context.Context, email string, excludedUsers ...user.User) error {
	query := `SELECT EXISTS (SELECT 1 FROM "user" WHERE email = $1`
	args := []interface{}{email}
	if len(excludedUsers) > 0 {
		ids := make([]string, 0, len(excludedUsers))
		for _, u := range excludedUsers {
			ids = append(ids, u.ID)
		}
		query += ` AND id != ALL($2)`
		args = append(args, pq.Array(ids))
	}
	query += `)`

	var exists bool
	if err := repo.db.GetContext(ctx, &exists, query, args...); err != nil {
		return trapErr(err, "checking email uniqueness")
	}
	if exists {
		return user.ErrEmailExists
	}
	return nil
}

func (repo userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	if usr.ID == "" {
		usr.ID = uuid.New().String()
	}
	row := repo.pack(usr)
	_, err := repo.db.NamedExecContext(ctx, `
		INSERT INTO "user" (id, email, first_name, last_name, role, is_active, password_hash, last_login, created_at, updated_at)
		VALUES (:id, :email, :first_name, :last_name, :role, :is_active, :password_hash, :last_login, :created_at, :updated_at)`,
		row)
	if err != nil {
		return user.User{}, trapErr(err, "inserting user")
	}
	return repo.unpack(row), nil
}

func (repo userRepository) GetUserByID(ctx context.Context, id string) (user.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return user.User{}, user.ErrNotFound
	}
	var row userRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM "user" WHERE id = $1`, id); err != nil {
		return user.User{}, trapErr(err, "finding user by ID")
	}
	return repo.unpack(row), nil
}

func (repo userRepository) GetUserByEmail(ctx context.Context, email string) (user.User, error) {
	var row userRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM "user" WHERE email = $1`, email); err != nil {
		return user.User{}, trapErr(err, "finding user by email")
	}
	return repo.unpack(row), nil
}

func (repo userRepository) QueryUsers(ctx context.Context, filter *user.QueryFilter, ordering ...core.DBOrdering) ([]user.User, error) {
	var conds []string
	var args []interface{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter != nil {
		if filter.Search != "" {
			val := "%" + filter.Search + "%"
			conds = append(conds, fmt.Sprintf(
				"(first_name ILIKE %s OR last_name ILIKE %s OR email ILIKE %s)",
				arg(val), arg(val), arg(val)))
		}
		if filter.Role != "" {
			conds = append(conds, "role = "+arg(filter.Role))
		}
		if filter.IsActive != nil {
			conds = append(conds, "is_active = "+arg(*filter.IsActive))
		}
		if !filter.CreatedFrom.IsZero() {
			conds = append(conds, "created_at >= "+arg(filter.CreatedFrom.UTC()))
		}
		if !filter.CreatedTo.IsZero() {
			conds = append(conds, "created_at <= "+arg(filter.CreatedTo.UTC()))
		}
	}

	query := `SELECT * FROM "user"`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += orderClause(userOrderColumns, ordering)

	var rows []userRow
	if err := repo.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, trapErr(err, "querying users")
	}
	users := make([]user.User, 0, len(rows))
	for _, row := range rows {
		users = append(users, repo.unpack(row))
	}
	return users, nil
}

func (repo userRepository) UpdateUser(ctx context.Context, usr user.User) (user.User, error) {
	row := repo.pack(usr)
	res, err := repo.db.NamedExecContext(ctx, `
		UPDATE "user"
		SET email = :email, first_name = :first_name, last_name = :last_name, role = :role,
		    is_active = :is_active, password_hash = :password_hash, last_login = :last_login,
		    updated_at = NOW()
		WHERE id = :id`,
		row)
	if err != nil {
		return user.User{}, trapErr(err, "updating user")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return user.User{}, user.ErrNotFound
	}
	return repo.unpack(row), nil
}
