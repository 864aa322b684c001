package store

import (
	"context"
	"errors"

	"github.com/tapstone/edcd/internal/edc/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers (sqlite for now)
// implement this. Sub-repositories keep concerns tidy and stop callers from
// accidentally nesting transactions.
type Store interface {
	Users() Users
	Terminals() Terminals
	EchoLogs() EchoLogs

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes fn within a transaction, rolling back when fn returns
	// an error and committing otherwise. This is the recommended way to run
	// multi-step operations that must be atomic (sign-in's token overwrite,
	// echo's verify-then-insert).
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds
// Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Users interface {
	// GetUserByID returns a user by row id.
	GetUserByID(ctx context.Context, id string) (domain.User, error)

	// GetUserByUsername is used during sign-in and identity resolution.
	GetUserByUsername(ctx context.Context, username string) (domain.User, error)

	// GetUserByRefreshToken finds the user whose stored refresh token equals
	// the exact presented value. A rotated-out token finds nothing.
	GetUserByRefreshToken(ctx context.Context, token string) (domain.User, error)

	// CreateUser inserts a new user (id is provided by the app via ULID).
	// A username collision surfaces as ErrAlreadyExists; the unique index is
	// the final arbiter against concurrent duplicate sign-ups.
	CreateUser(ctx context.Context, u domain.User) error

	// UpdateRefreshToken overwrites the stored refresh token (nil clears it)
	// and bumps updated_at.
	UpdateRefreshToken(ctx context.Context, userID string, token *string) error
}

type Terminals interface {
	// GetTerminalByID returns a terminal by its terminal id.
	GetTerminalByID(ctx context.Context, id string) (domain.Terminal, error)

	// CreateTerminal inserts a new terminal. Duplicate ids surface as
	// ErrAlreadyExists.
	CreateTerminal(ctx context.Context, t domain.Terminal) error

	// UpdateTerminal overwrites the mutable fields of an existing terminal.
	UpdateTerminal(ctx context.Context, t domain.Terminal) error

	// DeleteTerminal removes a terminal; echo logs cascade per schema.
	DeleteTerminal(ctx context.Context, id string) error

	// ListTerminals returns one page of terminals matching the filter plus
	// the total match count.
	ListTerminals(ctx context.Context, f domain.TerminalFilter, p domain.PageRequest) ([]domain.Terminal, int64, error)
}

type EchoLogs interface {
	// CreateEchoLog inserts a new echo log row.
	CreateEchoLog(ctx context.Context, e domain.EchoLog) error

	// ListEchoLogs returns one page of echo logs matching the filter plus
	// the total match count, newest first.
	ListEchoLogs(ctx context.Context, f domain.EchoLogFilter, p domain.PageRequest) ([]domain.EchoLog, int64, error)
}
