package gateway

import (
	"hash/fnv"

	"github.com/vkmindia80/Unified/tools/safe"
)

type fanoutJob struct {
	conns   []*Client
	payload []byte
}

// Fanout pushes one encoded payload into many per-client send queues off
// the caller's goroutine. Jobs are sharded by room key, so deliveries for
// the same room always run on the same worker in submission order, which
// keeps the in-room ordering guarantee; different rooms may interleave.
type Fanout struct {
	workers []chan fanoutJob
}

func NewFanout(workers, queue int) *Fanout {
	if workers <= 0 {
		workers = 4
	}
	if queue <= 0 {
		queue = 1024
	}
	f := &Fanout{workers: make([]chan fanoutJob, workers)}
	for i := range f.workers {
		ch := make(chan fanoutJob, queue)
		f.workers[i] = ch
		safe.Go(func() {
			for job := range ch {
				for _, c := range job.conns {
					c.enqueue(job.payload)
				}
			}
		})
	}
	return f
}

func (f *Fanout) Deliver(key string, conns []*Client, payload []byte) {
	if len(conns) == 0 || len(payload) == 0 {
		return
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	f.workers[int(h.Sum32())%len(f.workers)] <- fanoutJob{conns: conns, payload: payload}
}
