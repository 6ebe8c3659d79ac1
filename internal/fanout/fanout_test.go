package fanout

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_ResultsAlignedToInput(t *testing.T) {
	items := make([]int, 50)
	for i := range items {
		items[i] = i
	}

	results, failures := Run(context.Background(), items, 8, func(n int) string {
		return strconv.Itoa(n)
	}, func(_ context.Context, n int) (*string, error) {
		// Random latency shuffles completion order on purpose.
		time.Sleep(time.Duration(rand.Intn(5)) * time.Millisecond)
		s := fmt.Sprintf("item-%d", n)
		return &s, nil
	})

	require.Empty(t, failures)
	require.Len(t, results, len(items))
	for i, r := range results {
		require.NotNil(t, r)
		assert.Equal(t, fmt.Sprintf("item-%d", i), *r)
	}
}

func TestRun_SkipAndFailureAccounting(t *testing.T) {
	items := []string{"ok", "skip", "boom", "ok2", "skip2"}

	results, failures := Run(context.Background(), items, 2, func(s string) string {
		return s
	}, func(_ context.Context, s string) (*string, error) {
		switch {
		case s == "boom":
			return nil, errors.New("exploded")
		case strings.HasPrefix(s, "skip"):
			return nil, nil
		default:
			return &s, nil
		}
	})

	compacted := Compact(results)
	assert.Len(t, compacted, 2)
	require.Len(t, failures, 1)
	assert.Equal(t, "boom", failures[0].Identifier)
	assert.Equal(t, "exploded", failures[0].Reason)

	// Every input is accounted for exactly once.
	skipped := len(items) - len(compacted) - len(failures)
	assert.Equal(t, 2, skipped)
}

func TestRun_ConcurrencyCapHolds(t *testing.T) {
	var inFlight, peak int64
	items := make([]int, 30)

	Run(context.Background(), items, 3, func(int) string { return "" }, func(_ context.Context, _ int) (*int, error) {
		n := atomic.AddInt64(&inFlight, 1)
		for {
			old := atomic.LoadInt64(&peak)
			if n <= old || atomic.CompareAndSwapInt64(&peak, old, n) {
				break
			}
		}
		time.Sleep(2 * time.Millisecond)
		atomic.AddInt64(&inFlight, -1)
		zero := 0
		return &zero, nil
	})

	assert.LessOrEqual(t, atomic.LoadInt64(&peak), int64(3))
}

func TestRun_CancelledContextRecordsRemainder(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	items := []string{"a", "b", "c"}
	results, failures := Run(ctx, items, 1, func(s string) string { return s }, func(_ context.Context, s string) (*string, error) {
		return &s, nil
	})

	assert.Empty(t, Compact(results))
	require.Len(t, failures, 3)
	assert.Equal(t, "a", failures[0].Identifier)
	assert.Contains(t, failures[0].Reason, "context canceled")
}

func TestRun_LimitBelowOneIsClamped(t *testing.T) {
	items := []int{1, 2, 3}
	results, failures := Run(context.Background(), items, 0, func(n int) string {
		return strconv.Itoa(n)
	}, func(_ context.Context, n int) (*int, error) {
		doubled := n * 2
		return &doubled, nil
	})

	require.Empty(t, failures)
	assert.Equal(t, []int{2, 4, 6}, Compact(results))
}
