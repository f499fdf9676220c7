// Package registry holds the name registry and the chat log, persisted
// write-through to a kv.Storage.
package registry

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"github.com/devaloi/namechat/internal/domain"
	"github.com/devaloi/namechat/internal/kv"
)

// TimeLayout formats the human-readable message timestamp.
const TimeLayout = "15:04:05"

// Store owns the name→owner mapping and the append-only message log.
// It does no locking; callers run its operations sequentially.
type Store struct {
	storage     kv.Storage
	names       map[string]string
	messages    []domain.Message
	lastID      int64
	now         func() time.Time
	onePerOwner bool
	log         zerolog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithClock replaces the wall clock used for message IDs and timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// WithLogger sets the logger used for persistence diagnostics.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Store) {
		s.log = l
	}
}

// WithOneNamePerOwner makes Register reject owners that already hold a name.
func WithOneNamePerOwner() Option {
	return func(s *Store) {
		s.onePerOwner = true
	}
}

// Open loads the snapshot from storage and returns a Store over it.
func Open(ctx context.Context, storage kv.Storage, opts ...Option) *Store {
	s := &Store{
		storage: storage,
		now:     time.Now,
		log:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	snap := LoadSnapshot(s.log.WithContext(ctx), storage)
	s.names = snap.Names
	s.messages = snap.Messages
	for _, m := range s.messages {
		s.lastID = max(s.lastID, m.ID)
	}

	s.log.Debug().
		Int("names", len(s.names)).
		Int("messages", len(s.messages)).
		Msg("snapshot loaded")
	return s
}

// Normalize trims and lower-cases a raw name.
func Normalize(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// Register maps the normalized form of rawName to owner and persists the
// snapshot. It returns the normalized name.
func (s *Store) Register(ctx context.Context, owner, rawName string) (string, error) {
	if owner == "" {
		return "", ErrEmptyOwner
	}
	name := Normalize(rawName)
	if name == "" {
		return "", ErrEmptyName
	}
	s.refreshNames(ctx)
	if _, taken := s.names[name]; taken {
		return "", ErrNameTaken
	}
	if s.onePerOwner {
		if _, ok := s.NameOf(owner); ok {
			return "", ErrOwnerRegistered
		}
	}

	s.names[name] = owner
	if err := s.persist(saveNames(ctx, s.storage, s.names)); err != nil {
		delete(s.names, name)
		return "", err
	}

	s.log.Info().Str("name", name).Str("owner", owner).Msg("name registered")
	return name, nil
}

// ResolveDisplayName returns the name registered to owner, or the shortened
// owner identifier when it holds none.
func (s *Store) ResolveDisplayName(owner string) string {
	if name, ok := s.NameOf(owner); ok {
		return name
	}
	return Shorten(owner)
}

// NameOf returns the name registered to owner. When the owner holds several
// names the lexically smallest one is returned.
func (s *Store) NameOf(owner string) (string, bool) {
	matches := lo.Keys(lo.PickByValues(s.names, []string{owner}))
	if len(matches) == 0 {
		return "", false
	}
	return lo.Min(matches), true
}

// PostMessage appends a message authored by owner and persists the snapshot.
func (s *Store) PostMessage(ctx context.Context, owner, rawContent string) (domain.Message, error) {
	if owner == "" {
		return domain.Message{}, ErrEmptyOwner
	}
	content := strings.TrimSpace(rawContent)
	if content == "" {
		return domain.Message{}, ErrEmptyContent
	}
	s.refreshMessages(ctx)

	now := s.now()
	prevID := s.lastID
	msg := domain.Message{
		ID:        s.nextID(now),
		Author:    owner,
		Content:   content,
		CreatedAt: now.UTC(),
		Timestamp: now.Format(TimeLayout),
	}

	s.messages = append(s.messages, msg)
	if err := s.persist(saveMessages(ctx, s.storage, s.messages)); err != nil {
		s.messages = s.messages[:len(s.messages)-1]
		s.lastID = prevID
		return domain.Message{}, err
	}
	return msg, nil
}

// nextID derives the message ID from the clock in milliseconds, bumped past
// the previous ID so IDs stay strictly increasing.
func (s *Store) nextID(now time.Time) int64 {
	id := now.UnixMilli()
	if id <= s.lastID {
		id = s.lastID + 1
	}
	s.lastID = id
	return id
}

// Names returns every registration ordered by name.
func (s *Store) Names() []domain.Registration {
	keys := lo.Keys(s.names)
	slices.Sort(keys)
	return lo.Map(keys, func(name string, _ int) domain.Registration {
		return domain.Registration{Name: name, Owner: s.names[name]}
	})
}

// Messages returns a copy of the whole log in append order.
func (s *Store) Messages() []domain.Message {
	return slices.Clone(s.messages)
}

// Recent returns the last limit messages, oldest first. A limit of zero or
// less returns the whole log.
func (s *Store) Recent(limit int) []domain.Message {
	if limit <= 0 || limit >= len(s.messages) {
		return s.Messages()
	}
	return slices.Clone(s.messages[len(s.messages)-limit:])
}

// View attaches the author's current display name to m.
func (s *Store) View(m domain.Message) domain.MessageView {
	return domain.MessageView{Message: m, DisplayName: s.ResolveDisplayName(m.Author)}
}

// Snapshot returns a deep copy of the current state.
func (s *Store) Snapshot() domain.Snapshot {
	return domain.Snapshot{Names: s.names, Messages: s.messages}.Clone()
}

// Stats counts names and messages.
func (s *Store) Stats() domain.Stats {
	return domain.Stats{Names: len(s.names), MessageCount: len(s.messages)}
}

// refreshNames adopts the names slice in storage, picking up writes made by
// another process sharing the backend. An unreadable slice keeps the
// in-memory copy.
func (s *Store) refreshNames(ctx context.Context) {
	names, err := loadNames(ctx, s.storage)
	if err != nil {
		s.log.Warn().Err(err).Msg("refresh names")
		return
	}
	s.names = names
}

// refreshMessages is refreshNames for the message log.
func (s *Store) refreshMessages(ctx context.Context) {
	msgs, err := loadMessages(ctx, s.storage)
	if err != nil {
		s.log.Warn().Err(err).Msg("refresh messages")
		return
	}
	s.messages = msgs
	for _, m := range msgs {
		s.lastID = max(s.lastID, m.ID)
	}
}

// persist logs a failed write-through. Each mutation writes only the slice
// it changed.
func (s *Store) persist(err error) error {
	if err != nil {
		s.log.Error().Err(err).Msg("persist snapshot")
	}
	return err
}
