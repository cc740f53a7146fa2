package dedupe

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarkProcessedFirstAndReplay(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()

	first, err := store.MarkProcessed(ctx, "whatsapp", "wamid.1")
	require.NoError(t, err)
	assert.True(t, first)

	replay, err := store.MarkProcessed(ctx, "whatsapp", "wamid.1")
	require.NoError(t, err)
	assert.False(t, replay)

	otherPlatform, err := store.MarkProcessed(ctx, "instagram", "wamid.1")
	require.NoError(t, err)
	assert.True(t, otherPlatform, "ids are scoped per platform")
}

func TestMarkProcessedConcurrentDeliveries(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()

	var firsts atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			first, err := store.MarkProcessed(ctx, "whatsapp", "wamid.same")
			if err != nil {
				t.Error(err)
				return
			}
			if first {
				firsts.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), firsts.Load(), "exactly one delivery may win")
}

func TestPostgresMarkProcessed(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec("INSERT INTO processed_messages").
		WithArgs("whatsapp", "wamid.1", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("INSERT INTO processed_messages").
		WithArgs("whatsapp", "wamid.1", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 0))

	store := newPostgresStoreWithExec(mock)
	ctx := context.Background()

	first, err := store.MarkProcessed(ctx, "whatsapp", "wamid.1")
	require.NoError(t, err)
	assert.True(t, first)

	second, err := store.MarkProcessed(ctx, "whatsapp", "wamid.1")
	require.NoError(t, err)
	assert.False(t, second)

	assert.NoError(t, mock.ExpectationsWereMet())
}
