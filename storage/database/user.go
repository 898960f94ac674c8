package database

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/tkabeya/darasa/core"
	"github.com/tkabeya/darasa/core/user"
)

type userRepository struct {
	db *sqlx.DB
}

var _ user.Repository = (*userRepository)(nil)

func NewUserRepository(db *sqlx.DB) user.Repository {
	return &userRepository{db: db}
}

type userRow struct {
	ID           string         `db:"id"`
	Name         string         `db:"name"`
	Username     string         `db:"username"`
	Email        string         `db:"email"`
	IsActive     bool           `db:"is_active"`
	Roles        pq.StringArray `db:"roles"`
	PasswordHash []byte         `db:"password_hash"`
	CreatedAt    time.Time      `db:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at"`
	LastLogin    sql.NullTime   `db:"last_login"`
}

func (r userRow) user() user.User {
	usr := user.User{
		ID:           r.ID,
		Name:         r.Name,
		Username:     r.Username,
		Email:        r.Email,
		IsActive:     r.IsActive,
		Roles:        r.Roles,
		PasswordHash: r.PasswordHash,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
	if r.LastLogin.Valid {
		usr.LastLogin = r.LastLogin.Time
	}
	return usr
}

const userColumns = `id, name, username, email, is_active, roles, password_hash, created_at, updated_at, last_login`

func (repo userRepository) CheckUsernameUniqueness(username, email string, excludedUsers ...user.User) error {
	excludedIDs := make([]string, 0, len(excludedUsers))
	for _, usr := range excludedUsers {
		excludedIDs = append(excludedIDs, usr.ID)
	}

	check := func(column, value string) (bool, error) {
		query := `SELECT COUNT(1) FROM "user" WHERE LOWER(` + column + `) = LOWER($1)`
		args := []interface{}{value}
		if len(excludedIDs) > 0 {
			query += ` AND id != ALL($2)`
			args = append(args, pq.Array(excludedIDs))
		}
		var count int
		if err := repo.db.Get(&count, query, args...); err != nil {
			return false, errors.Wrap(err, "checking "+column+" uniqueness")
		}
		return count > 0, nil
	}

	if taken, err := check("username", username); err != nil {
		return err
	} else if taken {
		return user.ErrUsernameExists
	}
	if taken, err := check("email", email); err != nil {
		return err
	} else if taken {
		return user.ErrEmailExists
	}
	return nil
}

func (repo userRepository) CreateUser(usr user.User) (user.User, error) {
	if usr.ID == "" {
		usr.ID = uuid.NewString()
	}
	row := userRow{
		ID:           usr.ID,
		Name:         usr.Name,
		Username:     usr.Username,
		Email:        usr.Email,
		IsActive:     usr.IsActive,
		Roles:        usr.Roles,
		PasswordHash: usr.PasswordHash,
		CreatedAt:    usr.CreatedAt,
		UpdatedAt:    usr.UpdatedAt,
	}
	query := `
	INSERT INTO "user" (id, name, username, email, is_active, roles, password_hash, created_at, updated_at)
	VALUES (:id, :name, :username, :email, :is_active, :roles, :password_hash, :created_at, :updated_at)`
	if _, err := repo.db.NamedExec(query, row); err != nil {
		return usr, errors.Wrap(err, "creating user")
	}
	return usr, nil
}

func (repo userRepository) QueryAllUsers() ([]user.User, error) {
	return repo.queryUsers(`SELECT `+userColumns+` FROM "user" ORDER BY created_at`, nil)
}

func (repo userRepository) GetUserByID(id string) (user.User, error) {
	return repo.getUser(`SELECT `+userColumns+` FROM "user" WHERE id = $1`, id)
}

func (repo userRepository) GetUserByUsername(username string) (user.User, error) {
	return repo.getUser(`SELECT `+userColumns+` FROM "user" WHERE LOWER(username) = LOWER($1)`, username)
}

func (repo userRepository) GetUserByEmail(email string) (user.User, error) {
	return repo.getUser(`SELECT `+userColumns+` FROM "user" WHERE LOWER(email) = LOWER($1)`, email)
}

func (repo userRepository) GetUserByUsernameOrEmail(username string) (user.User, error) {
	return repo.getUser(
		`SELECT `+userColumns+` FROM "user" WHERE LOWER(username) = LOWER($1) OR LOWER(email) = LOWER($1)`,
		username,
	)
}

func (repo userRepository) FilterUsers(filter user.QueryFilter, orderings ...core.DBOrdering) ([]user.User, error) {
	var conditions []string
	var args []interface{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.Search != "" {
		p := arg("%" + filter.Search + "%")
		conditions = append(conditions, fmt.Sprintf("(name ILIKE %s OR username ILIKE %s OR email ILIKE %s)", p, p, p))
	}
	if len(filter.Roles) > 0 {
		// role prefixes select the whole family, eg. "admin:" matches "admin:owner"
		roleConds := make([]string, len(filter.Roles))
		for i, role := range filter.Roles {
			roleConds[i] = fmt.Sprintf("EXISTS (SELECT 1 FROM unnest(roles) r WHERE r LIKE %s || '%%')", arg(role))
		}
		conditions = append(conditions, "("+strings.Join(roleConds, " OR ")+")")
	}
	if filter.IsActive != nil {
		conditions = append(conditions, "is_active = "+arg(*filter.IsActive))
	}
	if !filter.CreatedFrom.IsZero() {
		conditions = append(conditions, "created_at >= "+arg(filter.CreatedFrom))
	}
	if !filter.CreatedTo.IsZero() {
		conditions = append(conditions, "created_at <= "+arg(filter.CreatedTo))
	}

	query := `SELECT ` + userColumns + ` FROM "user"`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += orderingClause(orderings, "created_at ASC")
	return repo.queryUsers(query, args)
}

func (repo userRepository) UpdateUser(usr user.User, isActive *bool) (user.User, error) {
	sets := []string{"updated_at = :updated_at"}
	row := map[string]interface{}{
		"id":         usr.ID,
		"updated_at": time.Now().UTC(),
	}
	if usr.Name != "" {
		sets = append(sets, "name = :name")
		row["name"] = usr.Name
	}
	if usr.Username != "" {
		sets = append(sets, "username = :username")
		row["username"] = usr.Username
	}
	if usr.Email != "" {
		sets = append(sets, "email = :email")
		row["email"] = usr.Email
	}
	if usr.Roles != nil {
		sets = append(sets, "roles = :roles")
		row["roles"] = pq.StringArray(usr.Roles)
	}
	if len(usr.PasswordHash) > 0 {
		sets = append(sets, "password_hash = :password_hash")
		row["password_hash"] = usr.PasswordHash
	}
	if !usr.LastLogin.IsZero() {
		sets = append(sets, "last_login = :last_login")
		row["last_login"] = usr.LastLogin
	}
	if isActive != nil {
		sets = append(sets, "is_active = :is_active")
		row["is_active"] = *isActive
	}

	query := `UPDATE "user" SET ` + strings.Join(sets, ", ") + ` WHERE id = :id`
	res, err := repo.db.NamedExec(query, row)
	if err != nil {
		return usr, errors.Wrap(err, "updating user")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return usr, user.ErrNotFound
	}
	return repo.GetUserByID(usr.ID)
}

func (repo userRepository) DeleteUsersByID(ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	query, args, err := sqlx.In(`DELETE FROM "user" WHERE id IN (?)`, ids)
	if err != nil {
		return errors.Wrap(err, "preparing user delete")
	}
	if _, err := repo.db.Exec(repo.db.Rebind(query), args...); err != nil {
		return errors.Wrap(err, "deleting users")
	}
	return nil
}

func (repo userRepository) getUser(query string, args ...interface{}) (user.User, error) {
	var row userRow
	if err := repo.db.Get(&row, query, args...); err != nil {
		if err == sql.ErrNoRows {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, errors.Wrap(err, "getting user")
	}
	return row.user(), nil
}

func (repo userRepository) queryUsers(query string, args []interface{}) ([]user.User, error) {
	var rows []userRow
	if err := repo.db.Select(&rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying users")
	}
	users := make([]user.User, len(rows))
	for i, row := range rows {
		users[i] = row.user()
	}
	return users, nil
}
