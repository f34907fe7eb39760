package internal

// Job is a deferred mutation applied to a target when its store is flushed.
type Job func() error

// JobQueue holds the pending jobs of one target, in the order they were posted.
type JobQueue struct {
	// the signal published once the queue has been flushed
	changed string

	jobs []Job
}

func NewJobQueue(changed string) *JobQueue {
	return &JobQueue{
		changed: changed,
		jobs:    make([]Job, 0),
	}
}

func (q *JobQueue) Enqueue(job Job) {
	q.jobs = append(q.jobs, job)
}

func (q *JobQueue) Len() int {
	return len(q.jobs)
}

// Drain empties the queue and returns the jobs it held.
func (q *JobQueue) Drain() []Job {
	jobs := q.jobs
	q.jobs = make([]Job, 0, cap(jobs))

	return jobs
}

func (q *JobQueue) Changed() string {
	return q.changed
}
