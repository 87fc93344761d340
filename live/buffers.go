package live

import "sync/atomic"

// outbound is an encoded frame and the type it carries.
type outbound struct {
	msgType string
	frame   []byte
}

// queue holds frames accepted while the connection is not open.
type queue struct {
	frames []outbound
}

func (q *queue) push(o outbound) { q.frames = append(q.frames, o) }

// requeue puts unsent frames back ahead of anything queued since.
func (q *queue) requeue(frames []outbound) {
	q.frames = append(append([]outbound(nil), frames...), q.frames...)
}

// drain removes and returns every frame, oldest first.
func (q *queue) drain() []outbound {
	out := q.frames
	q.frames = nil
	return out
}

func (q *queue) len() int { return len(q.frames) }

// registry maps a message type to its handlers. A type's entry exists only
// while it has at least one handler.
type registry struct {
	next     atomic.Uint64
	handlers map[string]map[uint64]Handler
}

func newRegistry() *registry {
	return &registry{handlers: make(map[string]map[uint64]Handler)}
}

func (r *registry) add(msgType string, h Handler) uint64 {
	id := r.next.Add(1)
	set, ok := r.handlers[msgType]
	if !ok {
		set = make(map[uint64]Handler)
		r.handlers[msgType] = set
	}
	set[id] = h
	return id
}

func (r *registry) remove(msgType string, id uint64) {
	set, ok := r.handlers[msgType]
	if !ok {
		return
	}
	delete(set, id)
	if len(set) == 0 {
		delete(r.handlers, msgType)
	}
}

func (r *registry) lookup(msgType string) []Handler {
	set := r.handlers[msgType]
	out := make([]Handler, 0, len(set))
	for _, h := range set {
		out = append(out, h)
	}
	return out
}

func (r *registry) types() int { return len(r.handlers) }

// ring is a bounded list of updates, most recent first.
type ring struct {
	capacity int
	items    []Update
}

func newRing(capacity int) *ring { return &ring{capacity: capacity} }

// upsert replaces the entry with the same ID in place, or prepends u.
func (r *ring) upsert(u Update) {
	if u.ID != "" {
		for i := range r.items {
			if r.items[i].ID == u.ID {
				r.items[i] = u
				return
			}
		}
	}
	r.push(u)
}

// push prepends u, evicting the oldest entry beyond capacity.
func (r *ring) push(u Update) {
	r.items = append(r.items, Update{})
	copy(r.items[1:], r.items)
	r.items[0] = u
	if len(r.items) > r.capacity {
		r.items = r.items[:r.capacity]
	}
}

func (r *ring) snapshot() []Update {
	out := make([]Update, len(r.items))
	copy(out, r.items)
	return out
}
