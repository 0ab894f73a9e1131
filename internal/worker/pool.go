package worker

import (
	"log"
	"sync"
)

// Job represents a unit of background work: a course timing recompute, a
// narration synthesis, etc.
type Job interface {
	Execute() (interface{}, error) // Performs the work, returning output details for the job record
	ID() string                    // A unique identifier for the job
	Type() string                  // Job type constant, stored on the job record
	Payload() interface{}          // Input parameters, stored on the job record for inspection
}

// Recorder persists job lifecycle transitions. The db package provides the
// postgrest-backed implementation; tests can substitute their own.
type Recorder interface {
	RecordStart(job Job) error
	RecordResult(job Job, output interface{}, jobErr error)
}

// Worker is responsible for processing jobs.
// It runs in its own goroutine and pulls jobs from its dedicated channel.
type Worker struct {
	ID         int
	WorkerPool chan chan Job // A pool of channels, used to register this worker's job channel
	JobChannel chan Job      // A channel specific to this worker, to receive jobs
	Quit       chan bool     // A channel to signal the worker to stop
	Wg         *sync.WaitGroup
	Recorder   Recorder
}

// NewWorker creates a new Worker.
func NewWorker(id int, workerPool chan chan Job, wg *sync.WaitGroup, recorder Recorder) Worker {
	return Worker{
		ID:         id,
		WorkerPool: workerPool,
		JobChannel: make(chan Job),
		Quit:       make(chan bool),
		Wg:         wg,
		Recorder:   recorder,
	}
}

// Start makes the Worker listen for jobs on its JobChannel.
func (w Worker) Start() {
	w.Wg.Add(1)
	go func() {
		defer w.Wg.Done()
		for {
			// Register the current worker's JobChannel to the worker pool.
			w.WorkerPool <- w.JobChannel

			select {
			case job := <-w.JobChannel:
				log.Printf("Worker %d: Started job %s (%s)", w.ID, job.ID(), job.Type())
				if w.Recorder != nil {
					if err := w.Recorder.RecordStart(job); err != nil {
						log.Printf("Worker %d: Could not record start of job %s: %v", w.ID, job.ID(), err)
					}
				}
				output, err := job.Execute()
				if err != nil {
					log.Printf("Worker %d: Error processing job %s: %v", w.ID, job.ID(), err)
				} else {
					log.Printf("Worker %d: Finished job %s", w.ID, job.ID())
				}
				if w.Recorder != nil {
					w.Recorder.RecordResult(job, output, err)
				}
			case <-w.Quit:
				log.Printf("Worker %d: Stopping", w.ID)
				return
			}
		}
	}()
}

// Stop signals the worker to stop processing new jobs.
func (w Worker) Stop() {
	go func() {
		w.Quit <- true
	}()
}

// Dispatcher manages a pool of workers and dispatches jobs to them. It is
// the concurrency limiter for slide processing: slides have no ordering
// dependency between them, so timing jobs fan out across the pool freely.
type Dispatcher struct {
	MaxWorkers int
	WorkerPool chan chan Job // A pool of worker job channels
	JobQueue   chan Job      // A buffered channel for incoming jobs
	Workers    []Worker
	Wg         sync.WaitGroup
	Quit       chan bool
	Recorder   Recorder
}

// NewDispatcher creates a new Dispatcher.
func NewDispatcher(maxWorkers int, jobQueueSize int, recorder Recorder) *Dispatcher {
	return &Dispatcher{
		MaxWorkers: maxWorkers,
		WorkerPool: make(chan chan Job, maxWorkers),
		JobQueue:   make(chan Job, jobQueueSize),
		Workers:    make([]Worker, 0, maxWorkers),
		Quit:       make(chan bool),
		Recorder:   recorder,
	}
}

// Run starts the dispatcher and its workers.
func (d *Dispatcher) Run() {
	log.Printf("Dispatcher starting with %d workers...", d.MaxWorkers)
	for i := 1; i <= d.MaxWorkers; i++ {
		worker := NewWorker(i, d.WorkerPool, &d.Wg, d.Recorder)
		d.Workers = append(d.Workers, worker)
		worker.Start()
	}

	go d.dispatch()
	log.Println("Dispatcher is running.")
}

// dispatch listens to the JobQueue and sends jobs to available workers.
func (d *Dispatcher) dispatch() {
	for {
		select {
		case job := <-d.JobQueue:
			go func(job Job) {
				// Wait for a worker to become available.
				jobChannel := <-d.WorkerPool
				jobChannel <- job
			}(job)
		case <-d.Quit:
			log.Println("Dispatcher: Stopping dispatch loop")
			return
		}
	}
}

// SubmitJob adds a job to the job queue. Returns false when the queue is
// full so handlers can report backpressure instead of blocking.
func (d *Dispatcher) SubmitJob(job Job) bool {
	select {
	case d.JobQueue <- job:
		log.Printf("Dispatcher: Job %s submitted to queue.", job.ID())
		return true
	default:
		log.Printf("Dispatcher: Job queue full. Job %s could not be submitted.", job.ID())
		return false
	}
}

// Stop gracefully shuts down the dispatcher and all its workers.
func (d *Dispatcher) Stop() {
	log.Println("Dispatcher: Initiating shutdown...")
	d.Quit <- true

	for _, worker := range d.Workers {
		worker.Stop()
	}

	// Wait for all workers to complete their current jobs and exit.
	d.Wg.Wait()
	log.Println("Dispatcher: All workers have stopped.")
	close(d.JobQueue)
	close(d.WorkerPool)
	log.Println("Dispatcher: Shutdown complete.")
}
