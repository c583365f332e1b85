package memory_test

import (
	"context"
	"testing"

	"github.com/aussiebroadwan/taskboard/internal/auth/store"
	"github.com/aussiebroadwan/taskboard/internal/auth/store/drivers/memory"
	"github.com/aussiebroadwan/taskboard/internal/auth/store/storetest"
	"github.com/stretchr/testify/require"
)

func TestStoreContract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store {
		return memory.NewStore()
	})
}

func TestTxFinishedTwice(t *testing.T) {
	s := memory.NewStore()

	tx, err := s.Tx(context.Background())
	require.NoError(t, err)
	require.NoError(t, tx.Commit())
	require.ErrorIs(t, tx.Rollback(), memory.ErrTxDone)

	// The lock was released, so a second transaction can start.
	tx, err = s.Tx(context.Background())
	require.NoError(t, err)
	require.NoError(t, tx.Rollback())
}

func TestNestedTx(t *testing.T) {
	s := memory.NewStore()
	err := s.WithTx(context.Background(), func(tx store.Tx) error {
		return tx.WithTx(context.Background(), func(store.Tx) error { return nil })
	})
	require.ErrorIs(t, err, memory.ErrNestedTx)
}

func TestTxCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := memory.NewStore().Tx(ctx)
	require.ErrorIs(t, err, context.Canceled)
}
