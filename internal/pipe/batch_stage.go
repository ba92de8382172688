package pipe

import "sync"

const (
	defaultBatchSize  = 10
	defaultWorkerSize = 2
)

type batchStage[R any] struct {
	fn          func(r []*R) ([]*R, error)
	workerSize  int
	batchSize   int
	reportError func(err error)
	stopped     <-chan struct{}
	batchCh     chan []*R
}

type BatchStageOption[R any] func(p *batchStage[R])

func WorkerSize[R any](workerSize int) BatchStageOption[R] {
	return func(p *batchStage[R]) {
		if workerSize > 0 {
			p.workerSize = workerSize
		}
	}
}

func BatchSize[R any](batchSize int) BatchStageOption[R] {
	return func(p *batchStage[R]) {
		if batchSize > 0 {
			p.batchSize = batchSize
		}
	}
}

func (s *batchStage[R]) process(inCh <-chan *R, outCh chan<- *R) {
	defer close(outCh)

	wg := &sync.WaitGroup{}
	for i := 0; i < s.workerSize; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for batch := range s.batchCh {
				if isClosed(s.stopped) {
					continue
				}

				outs, err := s.fn(batch)
				if err != nil {
					s.reportError(err)
					return
				}

				SendRecords(outs, outCh, s.stopped)
			}
		}()
	}

	wg.Add(1)
	go s.batchRecords(wg, inCh)

	wg.Wait()
}

func (s *batchStage[R]) batchRecords(wg *sync.WaitGroup, inCh <-chan *R) {
	defer wg.Done()
	defer close(s.batchCh)
	for {
		select {
		case <-s.stopped:
			return
		case record, ok := <-inCh:
			if !ok {
				return
			}

			s.processNextBatch(record, inCh)
		}
	}
}

// processNextBatch collects records until the batch is full or a worker is
// idle, whichever comes first, so slow upstreams do not hold records back.
func (s *batchStage[R]) processNextBatch(r *R, inCh <-chan *R) {
	batch := make([]*R, 0, s.batchSize)
	batch = append(batch, r)
	drained := false
	for {
		if len(batch) == s.batchSize || drained {
			select {
			case s.batchCh <- batch:
			case <-s.stopped:
			}
			return
		}

		select {
		case record, ok := <-inCh:
			if !ok {
				drained = true
				continue
			}

			batch = append(batch, record)
		default:
			select {
			case record, ok := <-inCh:
				if !ok {
					drained = true
					continue
				}

				batch = append(batch, record)
			case s.batchCh <- batch:
				return
			case <-s.stopped:
				return
			}
		}
	}
}

func (s *batchStage[R]) getBufSize() int {
	return 5
}
