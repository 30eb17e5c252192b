package sequence

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAllocator(t *testing.T) *Allocator {
	t.Helper()
	return NewAllocator(NewGormStore(newTestDB(t)), Config{RetryDelay: time.Millisecond})
}

// flakyStore fails the first failures calls to Next with a storage error.
type flakyStore struct {
	CounterStore
	mu       sync.Mutex
	failures int
	calls    int
}

func (s *flakyStore) Next(ctx context.Context, key Key) (int64, error) {
	s.mu.Lock()
	s.calls++
	fail := s.calls <= s.failures
	s.mu.Unlock()
	if fail {
		return 0, storageError("next", key, errors.New("connection refused"))
	}
	return s.CounterStore.Next(ctx, key)
}

func TestAllocator_HospitalIDSharedInitials(t *testing.T) {
	alloc := newTestAllocator(t)
	ctx := context.Background()

	first, err := alloc.HospitalID(ctx, "City General Hospital")
	require.NoError(t, err)
	second, err := alloc.HospitalID(ctx, "City Grace Hospital")
	require.NoError(t, err)
	other, err := alloc.HospitalID(ctx, "Apollo")
	require.NoError(t, err)
	fallback, err := alloc.HospitalID(ctx, "123 !! ###")
	require.NoError(t, err)

	assert.Equal(t, "OC-CGH-001", first)
	assert.Equal(t, "OC-CGH-002", second)
	assert.Equal(t, "OC-APO-001", other)
	assert.Equal(t, "OC-XXX-001", fallback)

	base, err := alloc.HospitalIDBase("City Grace Hospital")
	require.NoError(t, err)
	assert.Equal(t, "OC-CGH", base)
}

func TestAllocator_HospitalIDConcurrentSameInitials(t *testing.T) {
	alloc := newTestAllocator(t)
	ctx := context.Background()

	names := []string{"City General Hospital", "City Grace Hospital", "Central Green Hospital", "Coast Garden Hospital"}
	ids := make([]string, len(names))
	var wg sync.WaitGroup
	for i, name := range names {
		wg.Add(1)
		go func(i int, name string) {
			defer wg.Done()
			id, err := alloc.HospitalID(ctx, name)
			assert.NoError(t, err)
			ids[i] = id
		}(i, name)
	}
	wg.Wait()

	sort.Strings(ids)
	assert.Equal(t, []string{"OC-CGH-001", "OC-CGH-002", "OC-CGH-003", "OC-CGH-004"}, ids)
}

func TestAllocator_PatientUHIDSequence(t *testing.T) {
	alloc := newTestAllocator(t)
	ctx := context.Background()

	for _, expected := range []string{"UHID-00001", "UHID-00002", "UHID-00003"} {
		uhid, err := alloc.PatientUHID(ctx)
		require.NoError(t, err)
		assert.Equal(t, expected, uhid)
	}

	current, err := alloc.Current(ctx, GlobalKey(TypePatientUHID))
	require.NoError(t, err)
	assert.Equal(t, int64(3), current)
}

func TestAllocator_SimultaneousPatientRegistrations(t *testing.T) {
	alloc := newTestAllocator(t)
	ctx := context.Background()

	results := make(chan string, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			uhid, err := alloc.PatientUHID(ctx)
			assert.NoError(t, err)
			results <- uhid
		}()
	}
	wg.Wait()
	close(results)

	var got []string
	for uhid := range results {
		got = append(got, uhid)
	}
	sort.Strings(got)
	assert.Equal(t, []string{"UHID-00001", "UHID-00002"}, got)
}

func TestAllocator_BillNumberPerClinic(t *testing.T) {
	alloc := newTestAllocator(t)
	ctx := context.Background()

	a1, err := alloc.BillNumber(ctx, 1, nil)
	require.NoError(t, err)
	b1, err := alloc.BillNumber(ctx, 2, nil)
	require.NoError(t, err)
	a2, err := alloc.BillNumber(ctx, 1, nil)
	require.NoError(t, err)

	assert.Equal(t, "BILL-000001", a1)
	assert.Equal(t, "BILL-000001", b1)
	assert.Equal(t, "BILL-000002", a2)

	_, err = alloc.BillNumber(ctx, 0, nil)
	assert.ErrorIs(t, err, ErrInvalidKey)
}

func TestAllocator_RandomBillNumbers(t *testing.T) {
	policies := DefaultPolicies()
	bill := policies[TypeBill]
	bill.Strategy = StrategyRandom
	bill.Prefix = ""
	policies[TypeBill] = bill

	alloc := NewAllocator(NewGormStore(newTestDB(t)), Config{Policies: policies})
	draws := []int64{0, 0, 899999}
	alloc.randInt = func(n int64) int64 {
		assert.Equal(t, RandomMax-RandomMin+1, n)
		v := draws[0]
		draws = draws[1:]
		return v
	}

	taken := func(_ context.Context, number string) (bool, error) {
		return number == "100000", nil
	}

	number, err := alloc.BillNumber(context.Background(), 1, taken)
	require.NoError(t, err)
	assert.Equal(t, "999999", number)

	current, err := alloc.Current(context.Background(), ClinicKey(TypeBill, 1))
	require.NoError(t, err)
	assert.Equal(t, int64(0), current, "random numbers do not touch the counter")
}

func TestAllocator_RandomExhausted(t *testing.T) {
	policies := DefaultPolicies()
	bill := policies[TypeBill]
	bill.Strategy = StrategyRandom
	policies[TypeBill] = bill

	alloc := NewAllocator(NewGormStore(newTestDB(t)), Config{Policies: policies})
	alloc.randInt = func(int64) int64 { return 5 }

	calls := 0
	_, err := alloc.BillNumber(context.Background(), 1, func(context.Context, string) (bool, error) {
		calls++
		return true, nil
	})
	assert.ErrorIs(t, err, ErrNumberSpaceExhausted)
	assert.Equal(t, randomAttempts, calls)

	lookupErr := errors.New("lookup failed")
	_, err = alloc.BillNumber(context.Background(), 1, func(context.Context, string) (bool, error) {
		return false, lookupErr
	})
	assert.ErrorIs(t, err, lookupErr)
}

func TestAllocator_RetriesStorageErrors(t *testing.T) {
	store := &flakyStore{CounterStore: NewGormStore(newTestDB(t)), failures: 2}
	alloc := NewAllocator(store, Config{RetryAttempts: 3, RetryDelay: time.Millisecond})

	id, err := alloc.HospitalID(context.Background(), "Apollo")
	require.NoError(t, err)
	assert.Equal(t, "OC-APO-001", id)
	assert.Equal(t, 3, store.calls)
}

func TestAllocator_GivesUpAfterRetryBudget(t *testing.T) {
	store := &flakyStore{CounterStore: NewGormStore(newTestDB(t)), failures: 10}
	alloc := NewAllocator(store, Config{RetryAttempts: 3, RetryDelay: time.Millisecond})

	_, err := alloc.BillNumber(context.Background(), 1, nil)
	assert.True(t, IsStorageError(err))
	assert.Equal(t, 3, store.calls)
}

func TestAllocator_UHIDIsNotRetried(t *testing.T) {
	store := &flakyStore{CounterStore: NewGormStore(newTestDB(t)), failures: 1}
	alloc := NewAllocator(store, Config{RetryAttempts: 3, RetryDelay: time.Millisecond})

	_, err := alloc.PatientUHID(context.Background())
	assert.True(t, IsStorageError(err))
	assert.Equal(t, 1, store.calls)
}

func TestAllocator_ValidationErrorsAreNotRetried(t *testing.T) {
	calls := 0
	err := retryWithBackoff(context.Background(), 5, time.Millisecond, func() error {
		calls++
		return ErrInvalidKey
	})
	assert.ErrorIs(t, err, ErrInvalidKey)
	assert.Equal(t, 1, calls)
}

func TestAllocator_UnknownAndDerivedTypes(t *testing.T) {
	alloc := newTestAllocator(t)

	_, err := alloc.Allocate(context.Background(), "encounter", 0, nil)
	assert.ErrorIs(t, err, ErrUnknownType)

	_, err = alloc.Allocate(context.Background(), TypeHospitalID, 0, nil)
	assert.ErrorIs(t, err, ErrInvalidPolicy)
}

func TestAllocator_AdvanceToKeepsSuffixAboveExisting(t *testing.T) {
	alloc := newTestAllocator(t)
	ctx := context.Background()

	require.NoError(t, alloc.AdvanceTo(ctx, Key{Type: TypeHospitalID, Scope: "OC-CGH"}, 7))

	id, err := alloc.HospitalID(ctx, "City General Hospital")
	require.NoError(t, err)
	assert.Equal(t, "OC-CGH-008", id)
}
