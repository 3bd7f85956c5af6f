package service

import (
	"context"
	"testing"

	"github.com/Freeeeeet/training_scheduler/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// linkChain создаёт бронирования ids и связывает их по порядку
func linkChain(store *memStore, ids ...int64) {
	for i, id := range ids {
		b := &model.Booking{ID: id, PackageID: 1, TraineeID: 100, RoomID: 1}
		if i+1 < len(ids) {
			b.SuccessorID = int64Ptr(ids[i+1])
		}
		store.addBooking(b)
	}
}

func bookingIDs(chain []*model.Booking) []int64 {
	ids := make([]int64, len(chain))
	for i, b := range chain {
		ids[i] = b.ID
	}
	return ids
}

func TestChainResolver_ResolveChain(t *testing.T) {
	store := newMemStore()
	linkChain(store, 1, 2, 3)
	linkChain(store, 10)

	resolver := NewChainResolver(store)

	tests := []struct {
		name  string
		start int64
		want  []int64
	}{
		{name: "from root", start: 1, want: []int64{1, 2, 3}},
		{name: "from middle", start: 2, want: []int64{2, 3}},
		{name: "terminal", start: 3, want: []int64{3}},
		{name: "single node", start: 10, want: []int64{10}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chain, err := resolver.ResolveChain(context.Background(), tt.start)
			require.NoError(t, err)
			assert.Equal(t, tt.want, bookingIDs(chain))
		})
	}
}

func TestChainResolver_FindTerminal(t *testing.T) {
	store := newMemStore()
	linkChain(store, 1, 2, 3)

	terminal, err := NewChainResolver(store).FindTerminal(context.Background(), 1)

	require.NoError(t, err)
	assert.Equal(t, int64(3), terminal.ID)
	assert.True(t, terminal.IsTerminal())
}

func TestChainResolver_Cycle(t *testing.T) {
	store := newMemStore()
	store.addBooking(&model.Booking{ID: 1, SuccessorID: int64Ptr(2)})
	store.addBooking(&model.Booking{ID: 2, SuccessorID: int64Ptr(1)})

	_, err := NewChainResolver(store).ResolveChain(context.Background(), 1)

	require.ErrorIs(t, err, ErrChainIntegrity)
	var chainErr *ChainIntegrityError
	require.ErrorAs(t, err, &chainErr)
	assert.Equal(t, int64(1), chainErr.StartID)
	assert.Equal(t, int64(1), chainErr.BookingID)
}

func TestChainResolver_MissingSuccessor(t *testing.T) {
	store := newMemStore()
	store.addBooking(&model.Booking{ID: 1, SuccessorID: int64Ptr(99)})

	_, err := NewChainResolver(store).ResolveChain(context.Background(), 1)

	assert.ErrorIs(t, err, ErrChainIntegrity)
}

func TestChainResolver_NotFound(t *testing.T) {
	_, err := NewChainResolver(newMemStore()).ResolveChain(context.Background(), 42)

	assert.ErrorIs(t, err, ErrNotFound)
}

func TestChainResolver_ResolveFullChain(t *testing.T) {
	store := newMemStore()
	linkChain(store, 1, 2, 3, 4)

	chain, err := NewChainResolver(store).ResolveFullChain(context.Background(), 3)

	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 3, 4}, bookingIDs(chain))
}

func TestChainResolver_StoreFailure(t *testing.T) {
	store := newMemStore()
	linkChain(store, 1, 2)
	store.fail["GetBooking"] = errInjected

	_, err := NewChainResolver(store).ResolveChain(context.Background(), 1)

	assert.ErrorIs(t, err, ErrStoreUnavailable)
}
