package nakama

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/heroiclabs/nakama-common/api"
	"github.com/heroiclabs/nakama-common/runtime"

	"whist/internal/ports"
)

const replayCollection = "whist_replays"

// replayStorage is the part of runtime.NakamaModule the replay store needs.
type replayStorage interface {
	StorageWrite(ctx context.Context, writes []*runtime.StorageWrite) ([]*api.StorageObjectAck, error)
	StorageRead(ctx context.Context, reads []*runtime.StorageRead) ([]*api.StorageObject, error)
}

type replayDocument struct {
	ports.StoredReplay
	SavedAt string `json:"saved_at"`
}

// NakamaReplayStore implements ports.ReplayStore with system-owned,
// publicly readable storage objects keyed by game id.
type NakamaReplayStore struct {
	nk  replayStorage
	now func() time.Time
}

func NewNakamaReplayStore(nk replayStorage) *NakamaReplayStore {
	return &NakamaReplayStore{nk: nk, now: time.Now}
}

// SaveReplay writes the replay once; a second save of the same game fails.
func (s *NakamaReplayStore) SaveReplay(ctx context.Context, replay ports.StoredReplay) error {
	if replay.Record.GameID == "" {
		return fmt.Errorf("game id is required")
	}
	value, err := json.Marshal(replayDocument{StoredReplay: replay, SavedAt: timestampValue(s.now())})
	if err != nil {
		return fmt.Errorf("failed to marshal replay: %w", err)
	}
	_, err = s.nk.StorageWrite(ctx, []*runtime.StorageWrite{{
		Collection:      replayCollection,
		Key:             replay.Record.GameID,
		Value:           string(value),
		Version:         "*",
		PermissionRead:  runtime.STORAGE_PERMISSION_PUBLIC_READ,
		PermissionWrite: runtime.STORAGE_PERMISSION_NO_WRITE,
	}})
	if err != nil {
		if errors.Is(err, runtime.ErrStorageRejectedVersion) {
			return fmt.Errorf("replay %s already saved: %w", replay.Record.GameID, err)
		}
		return fmt.Errorf("failed to write replay: %w", err)
	}
	return nil
}

func (s *NakamaReplayStore) LoadReplay(ctx context.Context, gameID string) (ports.StoredReplay, error) {
	objects, err := s.nk.StorageRead(ctx, []*runtime.StorageRead{{
		Collection: replayCollection,
		Key:        gameID,
	}})
	if err != nil {
		return ports.StoredReplay{}, fmt.Errorf("failed to read replay: %w", err)
	}
	if len(objects) == 0 {
		return ports.StoredReplay{}, ports.ErrReplayNotFound
	}
	var doc replayDocument
	if err := json.Unmarshal([]byte(objects[0].GetValue()), &doc); err != nil {
		return ports.StoredReplay{}, fmt.Errorf("failed to unmarshal replay: %w", err)
	}
	return doc.StoredReplay, nil
}

var _ ports.ReplayStore = (*NakamaReplayStore)(nil)
