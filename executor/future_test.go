package executor

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// countdown completes with v after n pending polls.
func countdown[T any](n int, v T) Future[T] {
	return PollFunc[T](func() (T, bool) {
		if n > 0 {
			n--
			var zero T
			return zero, false
		}
		return v, true
	})
}

func TestReady(t *testing.T) {
	v, ok := Spin(Ready(42))
	assert.True(t, ok)
	assert.Equal(t, 42, v)
}

func TestPollFuncPendingThenReady(t *testing.T) {
	f := countdown(2, "done")

	_, ok := Spin(f)
	assert.False(t, ok)
	_, ok = Spin(f)
	assert.False(t, ok)
	v, ok := Spin(f)
	assert.True(t, ok)
	assert.Equal(t, "done", v)
}

func TestThenChainsAcrossPolls(t *testing.T) {
	calls := 0
	f := Then(countdown(1, 3), func(n int) Future[string] {
		calls++
		return countdown(n, "chained")
	})

	polls := 0
	var out string
	for {
		polls++
		v, ok := Spin(f)
		if ok {
			out = v
			break
		}
		if polls > 10 {
			t.Fatal("future never completed")
		}
	}

	assert.Equal(t, "chained", out)
	assert.Equal(t, 1, calls, "next must run exactly once")
	assert.Equal(t, 5, polls)
}

func TestThenWithReadyStagesCompletesInOnePoll(t *testing.T) {
	f := Then(Ready(1), func(n int) Future[int] { return Ready(n + 1) })
	v, ok := Spin(f)
	assert.True(t, ok)
	assert.Equal(t, 2, v)
}

func TestMap(t *testing.T) {
	f := Map(countdown(1, 20), func(n int) int { return n * 2 })
	_, ok := Spin(f)
	assert.False(t, ok)
	v, ok := Spin(f)
	assert.True(t, ok)
	assert.Equal(t, 40, v)
}
