package chat

import "sync"

type fanoutJob struct {
	conns   []*Client
	payload []byte
}

// Fanout delivers payloads to groups of clients through one worker, so
// every client observes jobs in enqueue order.
type Fanout struct {
	jobs     chan fanoutJob
	stopOnce sync.Once
	doneCh   chan struct{}
}

func NewFanout(queue int) *Fanout {
	if queue <= 0 {
		queue = 256
	}
	f := &Fanout{jobs: make(chan fanoutJob, queue), doneCh: make(chan struct{})}
	go func() {
		defer close(f.doneCh)
		for job := range f.jobs {
			for _, c := range job.conns {
				if !c.Enqueue(job.payload) {
					// Slow or closed client: skip, presence self-heals on
					// the next broadcast.
					continue
				}
			}
		}
	}()
	return f
}

// Broadcast enqueues one delivery job. Blocks only when the queue is full,
// which backpressures registry mutations rather than reordering them.
func (f *Fanout) Broadcast(conns []*Client, payload []byte) {
	if len(conns) == 0 || len(payload) == 0 {
		return
	}
	f.jobs <- fanoutJob{conns: conns, payload: payload}
}

// Close drains and stops the worker.
func (f *Fanout) Close() {
	f.stopOnce.Do(func() { close(f.jobs) })
	<-f.doneCh
}
