package ingress

import (
	"github.com/rs/zerolog/log"
	tomb "gopkg.in/tomb.v2"
)

// taskChanSize bounds how many accepted connections can be queued before
// the accept loop blocks waiting for a free worker.
const taskChanSize = 100

// workerFunc handles one task (a net.Conn, in this package) under tomb
// supervision.
type workerFunc func(t *tomb.Tomb, task any) error

// workerPool runs a fixed number of workers pulling tasks off a shared
// channel, grounded on the teacher's own worker pool shape.
type workerPool struct {
	size  int
	tasks chan any
	work  workerFunc
}

func newWorkerPool(size int) *workerPool {
	return &workerPool{
		size:  size,
		tasks: make(chan any, taskChanSize),
	}
}

func (p *workerPool) addTask(task any) {
	p.tasks <- task
}

// setup maintains a full pool of workers for the lifetime of the tomb.
func (p *workerPool) setup(t *tomb.Tomb, work workerFunc) {
	p.work = work
	log.Info().Int("workers", p.size).Msg("ingress worker pool starting")
	for i := 0; i < p.size; i++ {
		t.Go(func() error {
			return p.runWorker(t)
		})
	}
}

func (p *workerPool) runWorker(t *tomb.Tomb) error {
	for {
		select {
		case <-t.Dying():
			return nil
		case task := <-p.tasks:
			if err := p.work(t, task); err != nil {
				log.Error().Err(err).Msg("ingress worker exiting")
				return err
			}
		}
	}
}
