// Package warppool implements the cooperative ready/in-flight queue of
// warps (Pool) and the time-keyed pending-request multisets (Requests)
// the reuse-distance engine drives its main loop with.
package warppool

// Pool is a FIFO of ready warp ids plus an in-flight map of warps waiting
// out a latency delay. A warp is in exactly one of {ready, in-flight,
// done} at any time during a warp-group simulation.
type Pool struct {
	ready    []uint32
	inFlight map[uint32]uint32
	size     uint32
	Done     uint32
}

// NewPool returns an empty pool.
func NewPool() *Pool {
	return &Pool{inFlight: make(map[uint32]uint32)}
}

// Add places warp id w into the pool: immediately ready if delay is 0,
// otherwise in-flight for delay ticks.
func (p *Pool) Add(id uint32, delay uint32) {
	if delay == 0 {
		p.ready = append(p.ready, id)
	} else {
		p.inFlight[id] = delay
	}
}

// Tick decrements every in-flight warp's remaining delay by one, moving
// any that reach zero into the ready queue.
func (p *Pool) Tick() {
	for id, remaining := range p.inFlight {
		if remaining == 1 {
			delete(p.inFlight, id)
			p.ready = append(p.ready, id)
		} else {
			p.inFlight[id] = remaining - 1
		}
	}
}

// Take pops and returns the warp id at the front of the ready queue.
// Precondition: HasReady().
func (p *Pool) Take() uint32 {
	id := p.ready[0]
	p.ready = p.ready[1:]
	return id
}

// SetSize snapshots the pool's current size. Call once after the initial
// fill of a warp group, before the first Tick/Take.
func (p *Pool) SetSize() {
	p.size = uint32(len(p.ready)) + uint32(len(p.inFlight))
}

// HasReady reports whether a warp is available to take immediately.
func (p *Pool) HasReady() bool {
	return len(p.ready) > 0
}

// MarkDone records that one more warp has exhausted its accesses.
func (p *Pool) MarkDone() {
	p.Done++
}

// AllDone reports whether every warp in the snapshot has finished.
func (p *Pool) AllDone() bool {
	if p.size == 0 {
		panic("warppool: AllDone called before SetSize")
	}
	return p.Done == p.size
}
