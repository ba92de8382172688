package pipe

import (
	"context"
	"sync"
	"time"
)

const (
	defaultConcurrency = 5
)

// Pipe is a chain of concurrent stages fed by a single source. Records flow
// through every stage in order; ordering between records is not kept.
type Pipe[R any] struct {
	source  Source[R]
	stages  []pipeStage[R]
	stopped chan struct{}
	errCh   chan error
	sinkMu  sync.Mutex
}

type Source[R any] func() ([]*R, error)
type Sink[R any] func(*R) error

type pipeStage[R any] interface {
	process(inCh <-chan *R, outCh chan<- *R)
	getBufSize() int
}

func New[R any](source Source[R]) *Pipe[R] {
	return &Pipe[R]{
		source:  source,
		errCh:   make(chan error, 1),
		stopped: make(chan struct{}),
	}
}

func (p *Pipe[R]) Map(fn func(r *R) (*R, error), opts ...SimpleStageOption[R]) {
	p.FanOut(func(in *R) ([]*R, error) {
		out, err := fn(in)
		if err != nil {
			return nil, err
		}
		if out == nil {
			return nil, nil
		}

		return []*R{out}, nil
	}, opts...)
}

func (p *Pipe[R]) FanOut(fn func(r *R) ([]*R, error), opts ...SimpleStageOption[R]) {
	stage := &simpleStage[R]{
		fn:          fn,
		concurrency: defaultConcurrency,
		reportError: p.reportError,
		stopped:     p.stopped,
	}

	for _, opt := range opts {
		opt(stage)
	}

	p.stages = append(p.stages, stage)
}

func (p *Pipe[R]) Filter(fn func(r *R) bool, opts ...SimpleStageOption[R]) {
	p.FanOut(func(in *R) ([]*R, error) {
		if fn(in) {
			return []*R{in}, nil
		}

		return nil, nil
	}, opts...)
}

// Channel adds a stage that may emit any number of records while it runs.
// fn must give up when stopCh is closed.
func (p *Pipe[R]) Channel(fn func(r *R, stopCh <-chan struct{}, outCh chan<- *R) error, opts ...ChannelStageOption[R]) {
	stage := &channelStage[R]{
		fn:          fn,
		concurrency: defaultChannelConcurrency,
		reportError: p.reportError,
		stopped:     p.stopped,
	}

	for _, opt := range opts {
		opt(stage)
	}

	p.stages = append(p.stages, stage)
}

func (p *Pipe[R]) Batch(fn func([]*R) ([]*R, error), opts ...BatchStageOption[R]) {
	stage := &batchStage[R]{
		fn:          fn,
		workerSize:  defaultWorkerSize,
		batchSize:   defaultBatchSize,
		reportError: p.reportError,
		stopped:     p.stopped,
		batchCh:     make(chan []*R),
	}

	for _, opt := range opts {
		opt(stage)
	}

	p.stages = append(p.stages, stage)
}

// Sink runs the pipe and hands every record that reaches the end to sink. It
// returns when all records are consumed, a stage fails or ctx is done. Records
// sunk before ctx expired are kept, so a deadline yields partial results and
// no error.
func (p *Pipe[R]) Sink(ctx context.Context, sink Sink[R]) error {
	outCh := make(chan *R, p.getBufSize(0))
	go p.startSource(outCh)

	for i, stage := range p.stages {
		inCh := outCh
		outCh = make(chan *R, p.getBufSize(i+1))
		go stage.process(inCh, outCh)
	}

	p.startSink(sink, outCh)

	select {
	case <-ctx.Done():
		p.Stop()
	case <-p.stopped:
	}

	// wait for an in-flight sink call, later ones see the stop
	p.sinkMu.Lock()
	defer p.sinkMu.Unlock()

	select {
	case err := <-p.errCh:
		return err
	default:
		return nil
	}
}

func (p *Pipe[R]) SinkWithTimeout(ctx context.Context, sink Sink[R], timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	return p.Sink(ctx, sink)
}

func (p *Pipe[R]) Stop() {
	select {
	case <-p.stopped:
	default:
		close(p.stopped)
	}
}

func (p *Pipe[R]) startSource(outCh chan<- *R) {
	defer close(outCh)
	records, err := p.source()
	if err != nil {
		p.reportError(err)
		return
	}

	SendRecords(records, outCh, p.stopped)
}

func (p *Pipe[R]) startSink(sink Sink[R], inCh <-chan *R) {
	go func() {
		defer p.Stop()
		for record := range inCh {
			if err := p.sinkOne(sink, record); err != nil {
				p.reportError(err)
			}

			if isClosed(p.stopped) {
				return
			}
		}
	}()
}

func (p *Pipe[R]) sinkOne(sink Sink[R], record *R) error {
	p.sinkMu.Lock()
	defer p.sinkMu.Unlock()

	if isClosed(p.stopped) {
		return nil
	}
	return sink(record)
}

func (p *Pipe[R]) reportError(err error) {
	select {
	case <-p.stopped:
	case p.errCh <- err:
		p.Stop()
	default:
	}
}

func (p *Pipe[R]) getBufSize(index int) int {
	if index >= len(p.stages) {
		return 0
	}

	return p.stages[index].getBufSize()
}
