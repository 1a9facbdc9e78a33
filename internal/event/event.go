package event

import (
	"sync"
)

type listener struct {
	id      int
	channel chan *Event
}

// Registry fans engine events out to registered listener channels
type Registry struct {
	mux       sync.Mutex
	listeners []*listener
	nextID    int
}

// NewRegistry returns a new event registry
func NewRegistry() *Registry {
	return &Registry{
		listeners: []*listener{},
		nextID:    1,
	}
}

// RegisterListener registers a channel to receive engine events and
// returns an id for later removal
func (r *Registry) RegisterListener(channel chan *Event) int {
	r.mux.Lock()
	defer r.mux.Unlock()

	l := &listener{
		id:      r.nextID,
		channel: channel,
	}

	r.listeners = append(r.listeners, l)
	r.nextID++

	return l.id
}

// RemoveListener removes a previously registered listener
func (r *Registry) RemoveListener(id int) {
	r.mux.Lock()
	defer r.mux.Unlock()

	listeners := []*listener{}

	for _, l := range r.listeners {
		if l.id != id {
			listeners = append(listeners, l)
		}
	}

	r.listeners = listeners
}

// Send delivers an event to all registered listeners. A listener that
// cannot keep up is skipped rather than allowed to stall a scan.
func (r *Registry) Send(evt *Event) {
	r.mux.Lock()
	defer r.mux.Unlock()

	for _, l := range r.listeners {
		select {
		case l.channel <- evt:
		default:
		}
	}
}
