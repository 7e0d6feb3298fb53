package accounts

import (
	"context"
	"database/sql"
	"regexp"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/uptrace/bun"
)

const (
	FieldEmail    = "email"
	FieldUsername = "username"
)

// Users is the bun backed UserDirectory
type Users interface {
	UserDirectory
	Count(ctx context.Context) (int, error)
}

type users struct {
	db  bun.IDB
	now func() time.Time
}

var _ Users = (*users)(nil)

type UsersOption func(*users)

// WithUsersClock overrides the clock used for timestamps
func WithUsersClock(now func() time.Time) UsersOption {
	return func(u *users) {
		if now != nil {
			u.now = now
		}
	}
}

// NewUsersRepository returns a directory bound to db. db can be a *bun.DB
// or a bun.Tx.
func NewUsersRepository(db bun.IDB, opts ...UsersOption) Users {
	repo := &users{
		db:  db,
		now: time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(repo)
		}
	}
	return repo
}

func (a *users) Create(ctx context.Context, user *User) (*User, error) {
	record := *user
	record.ID = 0
	record.Email = NormalizeEmail(record.Email)
	now := a.now().UTC()
	record.CreatedAt = now
	record.UpdatedAt = now

	_, err := a.db.NewInsert().
		Model(&record).
		Returning("id").
		Exec(ctx)
	if err != nil {
		return nil, mapWriteError(err)
	}

	return &record, nil
}

func (a *users) FindByEmailOrUsername(ctx context.Context, credential string) (*User, error) {
	credential = strings.TrimSpace(credential)
	if credential == "" {
		return nil, ErrUserNotFound
	}

	email := NormalizeEmail(credential)
	record := &User{}

	// an email match wins over a username match
	err := a.db.NewSelect().
		Model(record).
		WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.
				Where("?TableAlias.email = ?", email).
				WhereOr("?TableAlias.username = ?", credential)
		}).
		OrderExpr("CASE WHEN ?TableAlias.email = ? THEN 0 ELSE 1 END", email).
		OrderExpr("?TableAlias.id ASC").
		Limit(1).
		Scan(ctx)

	if err != nil {
		return nil, mapReadError(err)
	}

	return record, nil
}

func (a *users) FindByID(ctx context.Context, id int64) (*User, error) {
	record := &User{}
	err := a.db.NewSelect().
		Model(record).
		Where("?TableAlias.id = ?", id).
		Limit(1).
		Scan(ctx)

	if err != nil {
		return nil, mapReadError(err)
	}

	return record, nil
}

func (a *users) Update(ctx context.Context, user *User) (*User, error) {
	record := *user
	record.Email = NormalizeEmail(record.Email)
	record.UpdatedAt = a.now().UTC()

	res, err := a.db.NewUpdate().
		Model(&record).
		Column("email", "username", "first_name", "last_name", "hashed_password", "updated_at").
		WherePK().
		Exec(ctx)
	if err != nil {
		return nil, mapWriteError(err)
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, ErrUserNotFound
	}

	return &record, nil
}

func (a *users) Delete(ctx context.Context, user *User) error {
	res, err := a.db.NewDelete().
		Model(&User{ID: user.ID}).
		WherePK().
		Exec(ctx)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to delete user")
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrUserNotFound
	}

	return nil
}

func (a *users) Count(ctx context.Context) (int, error) {
	return a.db.NewSelect().Model((*User)(nil)).Count(ctx)
}

func mapReadError(err error) error {
	if goerrors.Is(err, sql.ErrNoRows) {
		return ErrUserNotFound
	}
	return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to query users")
}

func mapWriteError(err error) error {
	if field, ok := uniqueViolationField(err); ok {
		return &UniqueViolationError{Field: field, Err: err}
	}
	return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to write user")
}

const pgUniqueViolation = "23505"

var sqliteUniqueRe = regexp.MustCompile(`UNIQUE constraint failed: [\w"]+\.(\w+)`)

// uniqueViolationField reports whether err is a unique constraint violation
// and which column caused it. Postgres errors are matched by SQLSTATE and
// SQLite errors by their message.
func uniqueViolationField(err error) (string, bool) {
	var pgErr *pgconn.PgError
	if goerrors.As(err, &pgErr) {
		if pgErr.Code != pgUniqueViolation {
			return "", false
		}
		return fieldFromConstraint(pgErr.ConstraintName + " " + pgErr.Detail), true
	}

	if m := sqliteUniqueRe.FindStringSubmatch(err.Error()); len(m) == 2 {
		return fieldFromConstraint(m[1]), true
	}

	return "", false
}

func fieldFromConstraint(s string) string {
	s = strings.ToLower(s)
	switch {
	case strings.Contains(s, FieldEmail):
		return FieldEmail
	case strings.Contains(s, FieldUsername):
		return FieldUsername
	default:
		return ""
	}
}
