// Package memory is a process-local store. Everything is lost on restart.
//
// All state sits behind one RWMutex. A transaction holds the write lock for
// its whole lifetime and keeps an undo journal, so Rollback restores the
// state exactly as it was when the transaction began.
package memory

import (
	"context"
	"errors"
	"sync"

	"github.com/aussiebroadwan/taskboard/internal/auth/domain"
	"github.com/aussiebroadwan/taskboard/internal/auth/store"
)

var (
	ErrTxDone   = errors.New("memory: transaction already committed or rolled back")
	ErrNestedTx = errors.New("memory: nested transactions are not supported")
)

type state struct {
	mu sync.RWMutex

	users   map[string]domain.User
	byEmail map[string]string // normalized email -> user id

	refresh map[string]domain.RefreshToken // token hash -> record
	byUser  map[string]map[string]struct{} // user id -> token hashes

	resets map[string]domain.ResetToken // token hash -> record
}

type Store struct {
	s *state
}

var _ store.Store = (*Store)(nil)

func NewStore() *Store {
	return &Store{s: &state{
		users:   make(map[string]domain.User),
		byEmail: make(map[string]string),
		refresh: make(map[string]domain.RefreshToken),
		byUser:  make(map[string]map[string]struct{}),
		resets:  make(map[string]domain.ResetToken),
	}}
}

// ApplyMigrations is a no-op; there is no schema.
func (m *Store) ApplyMigrations() error { return nil }

func (m *Store) Close() error { return nil }

func (m *Store) Ping(ctx context.Context) error { return ctx.Err() }

// Tx takes the write lock until Commit or Rollback. Do not touch the parent
// Store from inside the transaction; it will deadlock.
func (m *Store) Tx(ctx context.Context) (store.Tx, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.s.mu.Lock()
	return &txStore{s: m.s}, nil
}

// WithTx executes fn within a transaction, automatically handling commit/rollback.
func (m *Store) WithTx(ctx context.Context, fn func(tx store.Tx) error) error {
	tx, err := m.Tx(ctx)
	if err != nil {
		return err
	}

	// Ensure rollback is called if we panic or return early with error
	defer func() {
		_ = tx.Rollback() // safe to call even after commit
	}()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

func (m *Store) Users() store.Users                 { return &usersRepo{v: view{s: m.s}} }
func (m *Store) RefreshTokens() store.RefreshTokens { return &refreshTokensRepo{v: view{s: m.s}} }
func (m *Store) ResetTokens() store.ResetTokens     { return &resetTokensRepo{v: view{s: m.s}} }

// view is how a repo reaches the state. Outside a transaction every call
// takes the lock itself; inside one the lock is already held and each write
// pushes its inverse onto the journal.
type view struct {
	s  *state
	tx *txStore
}

func (v view) read(fn func(s *state)) {
	if v.tx == nil {
		v.s.mu.RLock()
		defer v.s.mu.RUnlock()
	}
	fn(v.s)
}

func (v view) write(fn func(s *state) (undo func())) {
	if v.tx == nil {
		v.s.mu.Lock()
		defer v.s.mu.Unlock()
		fn(v.s)
		return
	}
	if undo := fn(v.s); undo != nil {
		v.tx.undo = append(v.tx.undo, undo)
	}
}

type txStore struct {
	s    *state
	undo []func()
	done bool
}

func (t *txStore) Commit() error {
	if t.done {
		return ErrTxDone
	}
	t.done = true
	t.undo = nil
	t.s.mu.Unlock()
	return nil
}

func (t *txStore) Rollback() error {
	if t.done {
		return ErrTxDone
	}
	t.done = true
	for i := len(t.undo) - 1; i >= 0; i-- {
		t.undo[i]()
	}
	t.undo = nil
	t.s.mu.Unlock()
	return nil
}

func (t *txStore) ApplyMigrations() error         { return nil }
func (t *txStore) Close() error                   { return nil }
func (t *txStore) Ping(ctx context.Context) error { return nil }

func (t *txStore) Tx(ctx context.Context) (store.Tx, error) {
	return nil, ErrNestedTx
}

func (t *txStore) WithTx(ctx context.Context, fn func(tx store.Tx) error) error {
	return ErrNestedTx
}

func (t *txStore) Users() store.Users                 { return &usersRepo{v: view{s: t.s, tx: t}} }
func (t *txStore) RefreshTokens() store.RefreshTokens { return &refreshTokensRepo{v: view{s: t.s, tx: t}} }
func (t *txStore) ResetTokens() store.ResetTokens     { return &resetTokensRepo{v: view{s: t.s, tx: t}} }
