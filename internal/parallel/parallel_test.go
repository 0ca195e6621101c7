package parallel

import (
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFor(t *testing.T) {
	var counter int64
	n := 1000

	err := For(n, func(_ int) error {
		atomic.AddInt64(&counter, 1)
		return nil
	}, DefaultConfig())

	require.NoError(t, err)
	assert.Equal(t, int64(n), counter)
}

func TestFor_Sequential(t *testing.T) {
	var order []int
	err := For(5, func(i int) error {
		order = append(order, i)
		return nil
	}, Config{Enabled: false})

	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2, 3, 4}, order)
}

func TestFor_JoinsErrors(t *testing.T) {
	errOdd := errors.New("odd")
	var counter int64

	err := For(10, func(i int) error {
		atomic.AddInt64(&counter, 1)
		if i%2 == 1 {
			return errOdd
		}
		return nil
	}, Workers(4))

	assert.ErrorIs(t, err, errOdd)
	assert.Equal(t, int64(10), counter, "failing jobs must not stop the others")
}

func TestFor_RecoversPanic(t *testing.T) {
	err := For(3, func(i int) error {
		if i == 1 {
			panic("boom")
		}
		return nil
	}, Workers(2))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "job 1 panicked: boom")
}

func TestWorkers(t *testing.T) {
	assert.Equal(t, DefaultConfig(), Workers(0))
	assert.Equal(t, Config{Enabled: false, NumWorkers: 1}, Workers(1))
	assert.Equal(t, Config{Enabled: true, NumWorkers: 3}, Workers(3))
}

func BenchmarkFor(b *testing.B) {
	n := 10000

	b.Run("parallel", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			var sum int64
			_ = For(n, func(i int) error {
				atomic.AddInt64(&sum, int64(i))
				return nil
			}, DefaultConfig())
		}
	})

	b.Run("sequential", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			var sum int64
			_ = For(n, func(i int) error {
				atomic.AddInt64(&sum, int64(i))
				return nil
			}, Config{})
		}
	})
}
