package future

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve(t *testing.T) {
	f := New[int]()
	assert.Equal(t, OutcomePending, f.Outcome())

	assert.True(t, f.Resolve(42))
	assert.False(t, f.Resolve(7), "second resolve must be ignored")
	assert.False(t, f.Cancel(), "cancel after resolve must be ignored")

	v, err := f.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 42, v)
	assert.Equal(t, OutcomeResolved, f.Outcome())
}

func TestFail(t *testing.T) {
	hubErr := errors.New("hub said no")
	f := New[string]()

	assert.True(t, f.Fail(hubErr))

	_, err := f.Wait(context.Background())
	assert.ErrorIs(t, err, hubErr)
	assert.NotErrorIs(t, err, ErrCancelled)
	assert.Equal(t, OutcomeFailed, f.Outcome())
}

func TestCancel(t *testing.T) {
	f := New[[]int]()

	assert.True(t, f.Cancel())
	assert.False(t, f.Resolve([]int{1}))

	v, err := f.Wait(context.Background())
	assert.ErrorIs(t, err, ErrCancelled)
	assert.Nil(t, v)
	assert.Equal(t, OutcomeCancelled, f.Outcome())

	assert.Equal(t, OutcomeCancelled, Cancelled[int]().Outcome())
}

func TestWaitContextExpiry(t *testing.T) {
	f := New[int]()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := f.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, OutcomePending, f.Outcome(), "giving up waiting must not complete the future")
}

func TestDoneWakesAllWaiters(t *testing.T) {
	f := New[int]()

	var wg sync.WaitGroup
	results := make([]int, 5)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := f.Wait(context.Background())
			if err == nil {
				results[i] = v
			}
		}(i)
	}

	f.Resolve(9)
	wg.Wait()

	for i, v := range results {
		assert.Equal(t, 9, v, "waiter %d", i)
	}
}

func TestConcurrentCompletionHasOneWinner(t *testing.T) {
	f := New[int]()

	var wg sync.WaitGroup
	var mu sync.Mutex
	wins := 0
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			var ok bool
			if i%2 == 0 {
				ok = f.Resolve(i)
			} else {
				ok = f.Cancel()
			}
			if ok {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, wins)
}

func TestOutcomeString(t *testing.T) {
	assert.Equal(t, "PENDING", OutcomePending.String())
	assert.Equal(t, "RESOLVED", OutcomeResolved.String())
	assert.Equal(t, "FAILED", OutcomeFailed.String())
	assert.Equal(t, "CANCELLED", OutcomeCancelled.String())
	assert.Equal(t, "UNKNOWN", Outcome(99).String())
}
