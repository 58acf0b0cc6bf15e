package scheduler

// domainQueue holds the submission-order backlog for one domain.
// busy is true while a job for the domain occupies a worker; only the head
// of the queue is ever dispatched, which caps in-domain concurrency at 1
// and preserves FIFO order.
type domainQueue struct {
	pending []string // job ids, submission order
	busy    bool
}

// push appends a job id to the backlog
func (q *domainQueue) push(jobID string) {
	q.pending = append(q.pending, jobID)
}

// pop removes and returns the oldest pending job id
func (q *domainQueue) pop() (string, bool) {
	if len(q.pending) == 0 {
		return "", false
	}
	jobID := q.pending[0]
	q.pending = q.pending[1:]
	return jobID, true
}

// position returns the 1-based backlog position of a job id, or 0
func (q *domainQueue) position(jobID string) int {
	for i, id := range q.pending {
		if id == jobID {
			return i + 1
		}
	}
	return 0
}
