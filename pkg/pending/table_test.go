package pending

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zonehub/zonehub-go/pkg/future"
)

func TestGetOrCreateCollapses(t *testing.T) {
	tbl := NewTable[int, string]()

	f1, created := tbl.GetOrCreate(7)
	assert.True(t, created)

	f2, created := tbl.GetOrCreate(7)
	assert.False(t, created)
	assert.Same(t, f1, f2)
	assert.Equal(t, 1, tbl.Len())

	f3, created := tbl.GetOrCreate(8)
	assert.True(t, created)
	assert.NotSame(t, f1, f3)
	assert.Equal(t, 2, tbl.Len())
}

func TestResolveRemovesEntry(t *testing.T) {
	tbl := NewTable[int, string]()
	f, _ := tbl.GetOrCreate(7)

	assert.True(t, tbl.Resolve(7, "lamp"))
	assert.False(t, tbl.Resolve(7, "again"), "second resolve finds no entry")
	assert.Equal(t, 0, tbl.Len())

	v, err := f.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "lamp", v)

	next, created := tbl.GetOrCreate(7)
	assert.True(t, created, "a completed handle is never reused")
	assert.NotSame(t, f, next)
}

func TestResolveWithoutEntry(t *testing.T) {
	tbl := NewTable[string, int]()
	assert.False(t, tbl.Resolve("zones", 1))
	assert.Equal(t, 0, tbl.Len())
}

func TestFail(t *testing.T) {
	tbl := NewTable[int, int]()
	f, _ := tbl.GetOrCreate(1)
	hubErr := errors.New("no such zone")

	assert.True(t, tbl.Fail(1, hubErr))
	assert.False(t, tbl.Fail(1, hubErr))

	_, err := f.Wait(context.Background())
	assert.ErrorIs(t, err, hubErr)
}

func TestCancelAll(t *testing.T) {
	tbl := NewTable[int, int]()
	f1, _ := tbl.GetOrCreate(1)
	f2, _ := tbl.GetOrCreate(2)

	assert.Equal(t, 2, tbl.CancelAll())
	assert.Equal(t, 0, tbl.Len())
	assert.Equal(t, future.OutcomeCancelled, f1.Outcome())
	assert.Equal(t, future.OutcomeCancelled, f2.Outcome())

	assert.Equal(t, 0, tbl.CancelAll())
}

func TestKeys(t *testing.T) {
	tbl := NewTable[int, int]()
	tbl.GetOrCreate(3)
	tbl.GetOrCreate(1)

	assert.ElementsMatch(t, []int{1, 3}, tbl.Keys())

	_, ok := tbl.Get(3)
	assert.True(t, ok)
	_, ok = tbl.Get(2)
	assert.False(t, ok)
}

func TestConcurrentGetOrCreateRegistersOnce(t *testing.T) {
	tbl := NewTable[int, int]()

	var wg sync.WaitGroup
	handles := make([]*future.Future[int], 32)
	for i := range handles {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			handles[i], _ = tbl.GetOrCreate(5)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, tbl.Len())
	for _, h := range handles[1:] {
		assert.Same(t, handles[0], h)
	}
}
