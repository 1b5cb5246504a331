package systems

import (
	"errors"
	"sync"

	"github.com/spaghettifunk/flux/engine/core"
)

/** @brief Describes a job to be run on a worker. */
type JobTask struct {
	Name string
	/** @brief Runs on a worker goroutine. */
	OnStart func() error
	/** @brief Called on the same worker after OnStart succeeded. */
	OnComplete func()
	/** @brief Called on the same worker with the error OnStart returned. */
	OnFailure func(err error)
}

type JobSystem struct {
	numWorkers int
	jobQueue   chan JobTask
	wg         sync.WaitGroup
	logger     *core.Logger

	// guards jobQueue against sends racing Shutdown
	mutex  sync.RWMutex
	closed bool
}

var ErrNoWorkers = errors.New("attempting to create worker pool with less than 1 worker")
var ErrNegativeChannelSize = errors.New("attempting to create worker pool with a negative channel size")

func NewJobSystem(logger *core.Logger, numWorkers int, channelSize int) (*JobSystem, error) {
	if numWorkers <= 0 {
		return nil, ErrNoWorkers
	}
	if channelSize < 0 {
		return nil, ErrNegativeChannelSize
	}

	js := &JobSystem{
		numWorkers: numWorkers,
		jobQueue:   make(chan JobTask, channelSize),
		logger:     logger,
	}

	js.start()

	return js, nil
}

func (js *JobSystem) start() {
	for i := 0; i < js.numWorkers; i++ {
		js.wg.Add(1)
		go func() {
			defer js.wg.Done()
			for job := range js.jobQueue {
				if err := job.OnStart(); err != nil {
					js.logger.Debugf("job %s failed: %s", job.Name, err)
					if job.OnFailure != nil {
						job.OnFailure(err)
					}
					continue
				}
				if job.OnComplete != nil {
					job.OnComplete()
				}
			}
		}()
	}
}

/**
 * @brief Shuts the job system down. Jobs already queued still run.
 */
func (js *JobSystem) Shutdown() error {
	js.mutex.Lock()
	if js.closed {
		js.mutex.Unlock()
		return core.ErrShutdown
	}
	js.closed = true
	close(js.jobQueue)
	js.mutex.Unlock()

	js.wg.Wait()
	return nil
}

/**
 * @brief Queues the job without blocking.
 * @return false if the queue is full or the system is shut down; the caller retries.
 */
func (js *JobSystem) TrySubmit(jt JobTask) bool {
	js.mutex.RLock()
	defer js.mutex.RUnlock()
	if js.closed {
		return false
	}
	select {
	case js.jobQueue <- jt:
		return true
	default:
		return false
	}
}

/**
 * @brief Submits the provided job to be queued for execution, blocking while the queue is full.
 * @param jt The description of the job to be executed.
 */
func (js *JobSystem) Submit(jt JobTask) error {
	js.mutex.RLock()
	defer js.mutex.RUnlock()
	if js.closed {
		return core.ErrShutdown
	}
	js.jobQueue <- jt
	return nil
}

// PushWork queues fn as an anonymous job. Returns false when the queue is full.
func (js *JobSystem) PushWork(fn func()) bool {
	return js.TrySubmit(JobTask{
		Name: "work",
		OnStart: func() error {
			fn()
			return nil
		},
	})
}

// Pending is the number of queued jobs not yet picked up by a worker.
func (js *JobSystem) Pending() int {
	return len(js.jobQueue)
}
