package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/devaloi/namechat/internal/domain"
	"github.com/devaloi/namechat/internal/kv"
)

// Storage keys of the two snapshot slices.
const (
	KeyNames    = "registeredNames"
	KeyMessages = "chatMessages"
)

// LoadSnapshot reads the snapshot from storage. A slice that is missing,
// unreadable or corrupt loads as empty; the failure is logged through the
// context logger.
func LoadSnapshot(ctx context.Context, s kv.Storage) domain.Snapshot {
	snap := domain.EmptySnapshot()
	log := zerolog.Ctx(ctx)

	if names, err := loadNames(ctx, s); err != nil {
		log.Warn().Err(err).Str("key", KeyNames).Msg("discarding unreadable snapshot slice")
	} else {
		snap.Names = names
	}

	if msgs, err := loadMessages(ctx, s); err != nil {
		log.Warn().Err(err).Str("key", KeyMessages).Msg("discarding unreadable snapshot slice")
	} else {
		snap.Messages = msgs
	}

	return snap
}

// loadNames reads the names slice. A missing key is an empty slice.
func loadNames(ctx context.Context, s kv.Storage) (map[string]string, error) {
	var names map[string]string
	if err := loadSlice(ctx, s, KeyNames, &names); err != nil {
		return nil, err
	}
	if names == nil {
		names = map[string]string{}
	}
	return names, nil
}

// loadMessages reads the messages slice. A missing key is an empty slice.
func loadMessages(ctx context.Context, s kv.Storage) ([]domain.Message, error) {
	var msgs []domain.Message
	if err := loadSlice(ctx, s, KeyMessages, &msgs); err != nil {
		return nil, err
	}
	if msgs == nil {
		msgs = []domain.Message{}
	}
	return msgs, nil
}

func loadSlice(ctx context.Context, s kv.Storage, key string, v any) error {
	raw, err := s.Get(ctx, key)
	if errors.Is(err, kv.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", key, err)
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return fmt.Errorf("parse %s: %w", key, err)
	}
	return nil
}

// SaveSnapshot writes both slices of snap to storage.
func SaveSnapshot(ctx context.Context, s kv.Storage, snap domain.Snapshot) error {
	if err := saveNames(ctx, s, snap.Names); err != nil {
		return err
	}
	return saveMessages(ctx, s, snap.Messages)
}

func saveNames(ctx context.Context, s kv.Storage, names map[string]string) error {
	if names == nil {
		names = map[string]string{}
	}
	return saveSlice(ctx, s, KeyNames, names)
}

func saveMessages(ctx context.Context, s kv.Storage, msgs []domain.Message) error {
	if msgs == nil {
		msgs = []domain.Message{}
	}
	return saveSlice(ctx, s, KeyMessages, msgs)
}

func saveSlice(ctx context.Context, s kv.Storage, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	if err := s.Set(ctx, key, string(raw)); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}
