package warppool

// Request is one pending memory access awaiting commit: the cache line
// it touches.
type Request struct {
	Line uint64
}

// Requests holds the in-flight requests of one set's queue within one
// warp-group simulation, keyed by the logical commit time they arrive
// at, plus the set of distinct line addresses currently outstanding
// (used for the MSHR occupancy check). Mirrors model.h's Requests class,
// including its one perhaps-surprising trait: Take erases an address from
// the unique set unconditionally, even if another pending request for the
// same address remains queued at a different commit time.
type Requests struct {
	byTime map[uint64][]Request
	unique map[uint64]struct{}
}

// NewRequests returns an empty Requests queue.
func NewRequests() *Requests {
	return &Requests{
		byTime: make(map[uint64][]Request),
		unique: make(map[uint64]struct{}),
	}
}

// Enqueue records a request for line as arriving (ready to commit) at
// commitTime.
func (q *Requests) Enqueue(commitTime uint64, line uint64) {
	q.byTime[commitTime] = append(q.byTime[commitTime], Request{Line: line})
	q.unique[line] = struct{}{}
}

// NumUnique returns the number of distinct line addresses currently
// outstanding across all commit times.
func (q *Requests) NumUnique() int {
	return len(q.unique)
}

// Take removes and returns every request due at commitTime, in enqueue
// order, or nil if none are due.
func (q *Requests) Take(commitTime uint64) []Request {
	reqs, ok := q.byTime[commitTime]
	if !ok {
		return nil
	}
	delete(q.byTime, commitTime)
	for _, r := range reqs {
		delete(q.unique, r.Line)
	}
	return reqs
}
