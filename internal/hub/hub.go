package hub

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/devaloi/namechat/internal/domain"
	"github.com/devaloi/namechat/internal/registry"
)

// ErrStopped is returned by hub operations after Stop.
var ErrStopped = errors.New("hub stopped")

// Request states. A request runs only if the loop claims it before the
// caller abandons it.
const (
	statePending int32 = iota
	stateRunning
	stateAbandoned
)

// request is a unit of work executed on the hub's event loop.
type request struct {
	fn    func()
	state atomic.Int32
	done  chan struct{}
}

// Hub owns the registry store and the room. Every store operation runs on
// the single event loop started by Run, so the store never sees concurrent
// access.
type Hub struct {
	store      *registry.Store
	room       *Room
	requests   chan *request
	maxHistory int
	log        zerolog.Logger
	quit       chan struct{}
	stopOnce   sync.Once
}

// New creates a new Hub over s. maxHistory bounds the history sent to
// joining clients.
func New(s *registry.Store, maxHistory int, log zerolog.Logger) *Hub {
	return &Hub{
		store:      s,
		room:       NewRoom(),
		requests:   make(chan *request, 256),
		maxHistory: maxHistory,
		log:        log,
		quit:       make(chan struct{}),
	}
}

// Run starts the hub's event loop and the room's broadcast loop. Should be
// called as a goroutine.
func (h *Hub) Run() {
	go h.room.Run()
	for {
		select {
		case <-h.quit:
			return
		default:
		}

		select {
		case req := <-h.requests:
			if req.state.CompareAndSwap(statePending, stateRunning) {
				req.fn()
			}
			close(req.done)
		case <-h.quit:
			return
		}
	}
}

// Stop signals the hub's event loop and the room to exit.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() {
		close(h.quit)
		h.room.Stop()
	})
}

// do runs fn on the event loop and waits for it to finish. When ctx ends or
// the hub stops before the loop picks fn up, fn never runs and the error is
// returned. Once fn has started, do waits for it to complete.
func (h *Hub) do(ctx context.Context, fn func()) error {
	select {
	case <-h.quit:
		return ErrStopped
	default:
	}

	req := &request{fn: fn, done: make(chan struct{})}
	select {
	case h.requests <- req:
	case <-h.quit:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}

	var err error
	select {
	case <-req.done:
		return nil
	case <-h.quit:
		err = ErrStopped
	case <-ctx.Done():
		err = ctx.Err()
	}
	if req.state.CompareAndSwap(statePending, stateAbandoned) {
		return err
	}
	<-req.done
	return nil
}

// Register registers rawName for owner and announces it to the room.
func (h *Hub) Register(ctx context.Context, owner, rawName string) (string, error) {
	var (
		name string
		err  error
	)
	if derr := h.do(ctx, func() {
		name, err = h.store.Register(ctx, owner, rawName)
		if err != nil {
			return
		}
		h.broadcast(domain.RegisteredFrame{Type: domain.FrameRegistered, Name: name, Owner: owner})
	}); derr != nil {
		return "", derr
	}
	return name, err
}

// PostMessage appends a message from owner and announces it to the room.
func (h *Hub) PostMessage(ctx context.Context, owner, content string) (domain.MessageView, error) {
	var (
		view domain.MessageView
		err  error
	)
	if derr := h.do(ctx, func() {
		var msg domain.Message
		msg, err = h.store.PostMessage(ctx, owner, content)
		if err != nil {
			return
		}
		view = h.store.View(msg)
		h.broadcast(domain.ChatFrame{Type: domain.FrameChat, Message: view})
	}); derr != nil {
		return domain.MessageView{}, derr
	}
	return view, err
}

// Whois resolves the display name of owner.
func (h *Hub) Whois(ctx context.Context, owner string) (string, error) {
	var name string
	err := h.do(ctx, func() {
		name = h.store.ResolveDisplayName(owner)
	})
	return name, err
}

// Names lists every registration ordered by name.
func (h *Hub) Names(ctx context.Context) ([]domain.Registration, error) {
	var names []domain.Registration
	err := h.do(ctx, func() {
		names = h.store.Names()
	})
	return names, err
}

// History returns the last limit messages with display names. A limit of
// zero or less uses the hub's history bound.
func (h *Hub) History(ctx context.Context, limit int) ([]domain.MessageView, error) {
	if limit <= 0 {
		limit = h.maxHistory
	}
	var views []domain.MessageView
	err := h.do(ctx, func() {
		views = h.history(limit)
	})
	return views, err
}

// Stats reports the number of names, messages and connected clients.
func (h *Hub) Stats(ctx context.Context) (domain.Stats, error) {
	var stats domain.Stats
	err := h.do(ctx, func() {
		stats = h.store.Stats()
	})
	stats.Online = h.room.ClientCount()
	return stats, err
}

// Join adds c to the room. The client first receives its welcome frame,
// the recent history and the registered names.
func (h *Hub) Join(ctx context.Context, c Client) error {
	return h.do(ctx, func() {
		owner := c.Owner()
		name, _ := h.store.NameOf(owner)

		greeting := make([][]byte, 0, 3)
		for _, frame := range []any{
			domain.WelcomeFrame{
				Type:        domain.FrameWelcome,
				Owner:       owner,
				Name:        name,
				DisplayName: h.store.ResolveDisplayName(owner),
			},
			domain.HistoryFrame{Type: domain.FrameHistory, Messages: h.history(h.maxHistory)},
			domain.NamesFrame{Type: domain.FrameNames, Names: h.store.Names()},
		} {
			data, err := domain.Encode(frame)
			if err != nil {
				h.log.Error().Err(err).Msg("encode greeting")
				continue
			}
			greeting = append(greeting, data)
		}

		h.room.Join(c, greeting...)
		h.log.Debug().Str("owner", owner).Msg("client joined")
	})
}

// Leave removes c from the room.
func (h *Hub) Leave(c Client) {
	h.room.Leave(c)
	h.log.Debug().Str("owner", c.Owner()).Msg("client left")
}

func (h *Hub) history(limit int) []domain.MessageView {
	msgs := h.store.Recent(limit)
	views := make([]domain.MessageView, len(msgs))
	for i, m := range msgs {
		views[i] = h.store.View(m)
	}
	return views
}

func (h *Hub) broadcast(frame any) {
	data, err := domain.Encode(frame)
	if err != nil {
		h.log.Error().Err(err).Msg("encode broadcast")
		return
	}
	h.room.Broadcast(data)
}
