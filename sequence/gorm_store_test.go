package sequence

import (
	"context"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormStore_NextIsMonotonic(t *testing.T) {
	store := NewGormStore(newTestDB(t))
	ctx := context.Background()
	key := GlobalKey(TypePatientUHID)

	current, err := store.Current(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, int64(0), current)

	for i := int64(1); i <= 5; i++ {
		v, err := store.Next(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, current+i, v)
	}

	current, err = store.Current(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, int64(5), current)
}

func TestGormStore_KeysAreIndependent(t *testing.T) {
	store := NewGormStore(newTestDB(t))
	ctx := context.Background()

	a, _ := store.Next(ctx, ClinicKey(TypeBill, 1))
	b, _ := store.Next(ctx, ClinicKey(TypeBill, 2))
	c, _ := store.Next(ctx, ClinicKey(TypeBill, 1))
	d, _ := store.Next(ctx, GlobalKey(TypeBill))

	assert.Equal(t, int64(1), a)
	assert.Equal(t, int64(1), b)
	assert.Equal(t, int64(2), c)
	assert.Equal(t, int64(1), d)
}

func TestGormStore_ConcurrentNextYieldsContiguousRange(t *testing.T) {
	assertContiguousNext(t, NewGormStore(newTestDB(t)), 25)
}

func TestGormStore_ConcurrentNextAcrossConnections(t *testing.T) {
	db := newFileTestDB(t, 8)
	sqlDB, err := db.DB()
	require.NoError(t, err)

	assertContiguousNext(t, NewGormStore(db), 40)
	assert.Greater(t, sqlDB.Stats().MaxOpenConnections, 1)
}

// assertContiguousNext fires workers concurrent Next calls on one key and
// expects exactly the values 1..workers.
func assertContiguousNext(t *testing.T, store CounterStore, workers int) {
	t.Helper()
	ctx := context.Background()
	key := Key{Type: TypeHospitalID, Scope: "OC-CGH"}

	values := make([]int64, workers)
	errs := make([]error, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			values[i], errs[i] = store.Next(ctx, key)
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}
	sort.Slice(values, func(i, j int) bool { return values[i] < values[j] })
	for i, v := range values {
		assert.Equal(t, int64(i+1), v)
	}

	current, err := store.Current(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, int64(workers), current)
}

func TestGormStore_AdvanceToNeverLowers(t *testing.T) {
	store := NewGormStore(newTestDB(t))
	ctx := context.Background()
	key := Key{Type: TypeHospitalID, Scope: "OC-APO"}

	require.NoError(t, store.AdvanceTo(ctx, key, 7))
	current, _ := store.Current(ctx, key)
	assert.Equal(t, int64(7), current)

	require.NoError(t, store.AdvanceTo(ctx, key, 3))
	current, _ = store.Current(ctx, key)
	assert.Equal(t, int64(7), current)

	v, err := store.Next(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, int64(8), v)

	require.NoError(t, store.AdvanceTo(ctx, key, 0))
	current, _ = store.Current(ctx, key)
	assert.Equal(t, int64(8), current)
}

func TestGormStore_InvalidKey(t *testing.T) {
	store := NewGormStore(newTestDB(t))

	_, err := store.Next(context.Background(), Key{})
	assert.ErrorIs(t, err, ErrInvalidKey)
	assert.False(t, IsStorageError(err))

	_, err = store.Current(context.Background(), Key{Scope: "1"})
	assert.ErrorIs(t, err, ErrInvalidKey)
}

func TestGormStore_StorageError(t *testing.T) {
	db := newTestDB(t)
	store := NewGormStore(db)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	_, err = store.Next(context.Background(), GlobalKey(TypePatientUHID))
	require.Error(t, err)
	assert.True(t, IsStorageError(err))

	var se *StorageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "next", se.Op)
	assert.Equal(t, GlobalKey(TypePatientUHID), se.Key)

	_, err = store.Current(context.Background(), GlobalKey(TypePatientUHID))
	assert.True(t, IsStorageError(err))
}
