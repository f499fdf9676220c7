package hub

import (
	"slices"
	"sync"

	"github.com/devaloi/namechat/internal/domain"
)

// Client is the interface that hub/room expects from a WebSocket client.
type Client interface {
	Owner() string
	Send(data []byte)
}

type eventKind int

const (
	eventBroadcast eventKind = iota
	eventJoin
	eventLeave
)

// roomEvent is one step of the room loop. Broadcasts, joins and leaves share
// a single queue so a client only sees frames queued after its join.
type roomEvent struct {
	kind     eventKind
	client   Client
	greeting [][]byte
	data     []byte
	done     chan struct{}
}

// Room manages the set of connected clients and broadcasts frames to them.
type Room struct {
	clients  map[Client]bool
	mu       sync.RWMutex
	events   chan roomEvent
	quit     chan struct{}
	stopOnce sync.Once
}

// NewRoom creates an empty room.
func NewRoom() *Room {
	return &Room{
		clients: make(map[Client]bool),
		events:  make(chan roomEvent, 256),
		quit:    make(chan struct{}),
	}
}

// Run starts the room's loop. Should be called as a goroutine.
func (r *Room) Run() {
	for {
		select {
		case ev := <-r.events:
			r.handle(ev)
			if ev.done != nil {
				close(ev.done)
			}
		case <-r.quit:
			return
		}
	}
}

func (r *Room) handle(ev roomEvent) {
	switch ev.kind {
	case eventBroadcast:
		r.send(ev.data)

	case eventJoin:
		r.mu.Lock()
		r.clients[ev.client] = true
		r.mu.Unlock()
		for _, data := range ev.greeting {
			ev.client.Send(data)
		}
		r.sendPresence()

	case eventLeave:
		r.mu.Lock()
		_, ok := r.clients[ev.client]
		delete(r.clients, ev.client)
		r.mu.Unlock()
		if ok {
			r.sendPresence()
		}
	}
}

// Stop signals the room's loop to exit.
func (r *Room) Stop() {
	r.stopOnce.Do(func() { close(r.quit) })
}

// Join adds a client to the room, sends it the greeting frames and
// broadcasts the new presence list. It returns once the client is a member,
// or when the room is stopped.
func (r *Room) Join(c Client, greeting ...[]byte) {
	r.enqueueWait(roomEvent{kind: eventJoin, client: c, greeting: greeting})
}

// Leave removes a client from the room and broadcasts the new presence list.
func (r *Room) Leave(c Client) {
	r.enqueueWait(roomEvent{kind: eventLeave, client: c})
}

// Broadcast queues a raw JSON frame for all clients in the room. It drops
// the frame once the room is stopped.
func (r *Room) Broadcast(data []byte) {
	select {
	case r.events <- roomEvent{kind: eventBroadcast, data: data}:
	case <-r.quit:
	}
}

func (r *Room) enqueueWait(ev roomEvent) {
	ev.done = make(chan struct{})
	select {
	case r.events <- ev:
	case <-r.quit:
		return
	}
	select {
	case <-ev.done:
	case <-r.quit:
	}
}

// ClientCount returns the number of connected clients.
func (r *Room) ClientCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients)
}

// Owners returns the distinct owners connected, sorted.
func (r *Room) Owners() []string {
	r.mu.RLock()
	owners := make([]string, 0, len(r.clients))
	for c := range r.clients {
		owners = append(owners, c.Owner())
	}
	r.mu.RUnlock()

	slices.Sort(owners)
	return slices.Compact(owners)
}

func (r *Room) send(data []byte) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for c := range r.clients {
		c.Send(data)
	}
}

func (r *Room) sendPresence() {
	pf := domain.PresenceFrame{
		Type:   domain.FramePresence,
		Owners: r.Owners(),
	}
	if data, err := domain.Encode(pf); err == nil {
		r.send(data)
	}
}
