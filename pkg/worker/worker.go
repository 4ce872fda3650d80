package worker

import (
	"sync"
	"sync/atomic"

	"github.com/hbomb79/Grabber/pkg/logger"
)

var workerLogger = logger.Get("Worker")

type (
	WorkerWakeupChan chan int
	WorkerStatus     int32

	// WorkFunc performs a single unit of work on behalf of a worker. If work
	// was performed, true should be returned and the function will be called again
	// immediately. Returning false indicates there was nothing to do, and the worker
	// will sleep until it is woken by its pool.
	WorkFunc func(Worker) (bool, error)
)

const (
	SLEEPING WorkerStatus = iota
	WORKING
	FINISHED
)

type Worker interface {
	Start()
	Status() WorkerStatus
	WakeupChan() WorkerWakeupChan
	Label() string
	Sleep() bool
	Close()
}

type taskWorker struct {
	label      string
	work       WorkFunc
	wakeupChan WorkerWakeupChan
	status     atomic.Int32
	closeOnce  sync.Once
}

// NewWorker creates a worker which will repeatedly call the work function
// provided until the function reports there is no more work, at which
// point the worker sleeps. The wakeup channel is buffered so that a wakeup
// sent while the worker is busy is not lost.
func NewWorker(label string, work WorkFunc) *taskWorker {
	worker := &taskWorker{
		label:      label,
		work:       work,
		wakeupChan: make(WorkerWakeupChan, 1),
	}
	worker.status.Store(int32(SLEEPING))

	return worker
}

// Start runs the worker loop. This method blocks until the workers
// wakeup channel is closed (see Close).
func (worker *taskWorker) Start() {
	workerLogger.Emit(logger.NEW, "Starting worker with label %v\n", worker.label)
	worker.status.Store(int32(WORKING))

	for {
		worked, err := worker.work(worker)
		if err != nil {
			workerLogger.Emit(logger.ERROR, "Worker with label %v has reported an error(%T): %v\n", worker.label, err, err.Error())
		}

		if worked {
			continue
		}

		if !worker.Sleep() {
			break
		}
	}

	worker.status.Store(int32(FINISHED))
	workerLogger.Emit(logger.STOP, "Worker with label %v has stopped\n", worker.label)
}

// Status returns the current status of this worker
func (worker *taskWorker) Status() WorkerStatus {
	return WorkerStatus(worker.status.Load())
}

func (worker *taskWorker) WakeupChan() WorkerWakeupChan {
	return worker.wakeupChan
}

// Close closes the Worker by closing the WakeChan.
// Note that this does not interupt currently running work.
func (worker *taskWorker) Close() {
	worker.closeOnce.Do(func() { close(worker.wakeupChan) })
}

// Label returns the label for this worker
func (worker *taskWorker) Label() string {
	return worker.label
}

// Sleep puts a worker to sleep until it's wakeupChan is
// signalled from another goroutine. Returns a boolean that
// is 'false' if the wakeup channel was closed - indicating
// the worker should quit.
func (worker *taskWorker) Sleep() (isAlive bool) {
	worker.status.Store(int32(SLEEPING))

	if _, isAlive = <-worker.wakeupChan; isAlive {
		worker.status.Store(int32(WORKING))
	} else {
		workerLogger.Emit(logger.STOP, "Wakeup channel for worker '%v' has been closed - worker is exiting\n", worker.label)
	}

	return isAlive
}
