package event

// Handler processes specific event types
type Handler interface {
	// HandleEvent processes a single event, called synchronously during dispatch
	HandleEvent(ev SimEvent)

	// EventTypes returns the event types this handler processes
	EventTypes() []EventType
}

// HandlerFunc adapts a function into a Handler for the listed types
type HandlerFunc struct {
	Types []EventType
	Fn    func(ev SimEvent)
}

func (h HandlerFunc) HandleEvent(ev SimEvent)  { h.Fn(ev) }
func (h HandlerFunc) EventTypes() []EventType { return h.Types }

// Router dispatches events to registered handlers
//
// Architecture:
//   - Single-threaded dispatch from the step loop
//   - Multiple handlers can register for the same event type
//   - Handlers are invoked in registration order
//   - Handlers must not push events, the queue may be mid-swap
type Router struct {
	handlers map[EventType][]Handler
	queue    *Queue
}

// NewRouter creates a router attached to the given queue
func NewRouter(queue *Queue) *Router {
	return &Router{
		handlers: make(map[EventType][]Handler),
		queue:    queue,
	}
}

// Register adds a handler for its declared event types
func (r *Router) Register(h Handler) {
	for _, t := range h.EventTypes() {
		r.handlers[t] = append(r.handlers[t], h)
	}
}

// DispatchAll consumes all pending events and routes them in FIFO order
// Returns the number of events consumed
func (r *Router) DispatchAll() int {
	events := r.queue.Consume()
	for _, ev := range events {
		for _, h := range r.handlers[ev.Type] {
			h.HandleEvent(ev)
		}
	}
	return len(events)
}
