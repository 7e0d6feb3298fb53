package accounts

import (
	"context"
	"database/sql"
	"log"

	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

// RepositoryManager exposes all repositories
type RepositoryManager interface {
	Validate() error
	MustValidate()
	Users() Users
	// RunInTx runs f inside a transaction. The Users handed to f is bound to
	// the transaction, f returning an error rolls it back.
	RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, users Users) error) error
}

type mngr struct {
	db    *bun.DB
	users Users
	opts  []UsersOption
}

// NewRepositoryManager returns a manager over db
func NewRepositoryManager(db *bun.DB, opts ...UsersOption) RepositoryManager {
	m := &mngr{db: db, opts: opts}
	if db != nil {
		m.users = NewUsersRepository(db, opts...)
	}
	return m
}

func (m mngr) Validate() error {
	if m.db == nil {
		return goerrors.New("repository database should be initialized", goerrors.CategoryInternal)
	}

	if m.users == nil {
		return goerrors.New("repository users should be initialized", goerrors.CategoryInternal)
	}

	return nil
}

func (m mngr) MustValidate() {
	if err := m.Validate(); err != nil {
		log.Panic(err)
	}
}

func (m mngr) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, users Users) error) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return m.db.RunInTx(ctx, opts, func(ctx context.Context, tx bun.Tx) error {
			return f(ctx, NewUsersRepository(tx, m.opts...))
		})
	}
}

func (m mngr) Users() Users {
	return m.users
}
