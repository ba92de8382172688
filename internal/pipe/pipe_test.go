package pipe

import (
	"context"
	"errors"
	"sort"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type item struct {
	value int
}

func numbers(n int) Source[item] {
	return func() ([]*item, error) {
		items := make([]*item, 0, n)
		for i := 1; i <= n; i++ {
			items = append(items, &item{value: i})
		}
		return items, nil
	}
}

func collect(t *testing.T, p *Pipe[item]) []int {
	t.Helper()
	var values []int
	err := p.Sink(context.Background(), func(r *item) error {
		values = append(values, r.value)
		return nil
	})
	require.NoError(t, err)
	sort.Ints(values)
	return values
}

func TestMapFilterFanOut(t *testing.T) {
	p := New(numbers(5))
	p.Map(func(r *item) (*item, error) {
		return &item{value: r.value * 10}, nil
	})
	p.Filter(func(r *item) bool { return r.value != 30 })
	p.FanOut(func(r *item) ([]*item, error) {
		return []*item{r, {value: r.value + 1}}, nil
	}, Concurrency[item](2))

	assert.Equal(t, []int{10, 11, 20, 21, 40, 41, 50, 51}, collect(t, p))
}

func TestMapNilDropsRecord(t *testing.T) {
	p := New(numbers(3))
	p.Map(func(r *item) (*item, error) {
		if r.value == 2 {
			return nil, nil
		}
		return r, nil
	})

	assert.Equal(t, []int{1, 3}, collect(t, p))
}

func TestBatch(t *testing.T) {
	var maxBatch atomic.Int32
	p := New(numbers(25))
	p.Batch(func(batch []*item) ([]*item, error) {
		if n := int32(len(batch)); n > maxBatch.Load() {
			maxBatch.Store(n)
		}
		return batch, nil
	}, BatchSize[item](4), WorkerSize[item](1))

	values := collect(t, p)
	assert.Len(t, values, 25)
	assert.LessOrEqual(t, maxBatch.Load(), int32(4))
}

func TestChannel(t *testing.T) {
	p := New(numbers(3))
	p.Channel(func(r *item, stopCh <-chan struct{}, outCh chan<- *item) error {
		SendRecords([]*item{{value: r.value}, {value: -r.value}}, outCh, stopCh)
		return nil
	}, ChannelConcurrency[item](2))

	assert.Equal(t, []int{-3, -2, -1, 1, 2, 3}, collect(t, p))
}

func TestStageErrorStopsPipe(t *testing.T) {
	boom := errors.New("boom")
	p := New(numbers(10))
	p.Map(func(r *item) (*item, error) {
		if r.value == 1 {
			return nil, boom
		}
		return r, nil
	}, Concurrency[item](1))

	err := p.Sink(context.Background(), func(*item) error { return nil })
	assert.ErrorIs(t, err, boom)
}

func TestSourceError(t *testing.T) {
	boom := errors.New("no source")
	p := New(func() ([]*item, error) { return nil, boom })
	p.Map(func(r *item) (*item, error) { return r, nil })

	err := p.Sink(context.Background(), func(*item) error { return nil })
	assert.ErrorIs(t, err, boom)
}

func TestDeadlineKeepsPartialResults(t *testing.T) {
	p := New(numbers(3))
	p.Map(func(r *item) (*item, error) {
		if r.value == 3 {
			time.Sleep(time.Second)
		}
		return r, nil
	}, Concurrency[item](3))

	var values []int
	start := time.Now()
	err := p.SinkWithTimeout(context.Background(), func(r *item) error {
		values = append(values, r.value)
		return nil
	}, 200*time.Millisecond)

	require.NoError(t, err)
	assert.Less(t, time.Since(start), 900*time.Millisecond)
	sort.Ints(values)
	assert.Equal(t, []int{1, 2}, values)
}
