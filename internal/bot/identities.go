package bot

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"go.uber.org/multierr"
)

type BotIdentity struct {
	DeviceID    string `json:"device_id"`
	UserID      string `json:"user_id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	Difficulty  string `json:"difficulty"` // "easy", "medium", "hard"
	AvatarIndex int    `json:"avatar_index"`
}

// Level returns the brain level for the identity's difficulty.
func (b BotIdentity) Level() BotLevel { return ParseLevel(b.Difficulty) }

var (
	mu            sync.RWMutex
	botIdentities []BotIdentity
	botByID       map[string]BotIdentity
	loadOnce      sync.Once
	loadErr       error
)

// ParseIdentities decodes a JSON list of bot profiles.
func ParseIdentities(data []byte) ([]BotIdentity, error) {
	var ids []BotIdentity
	if err := json.Unmarshal(data, &ids); err != nil {
		return nil, fmt.Errorf("failed to unmarshal bot identities: %w", err)
	}
	return ids, nil
}

// LoadIdentities loads the bot profiles from the given path once.
func LoadIdentities(path string) error {
	loadOnce.Do(func() {
		data, err := os.ReadFile(path)
		if err != nil {
			loadErr = fmt.Errorf("failed to read bot identities: %w", err)
			return
		}
		ids, err := ParseIdentities(data)
		if err != nil {
			loadErr = err
			return
		}
		SetIdentities(ids)
	})
	return loadErr
}

// SetIdentities replaces the bot pool.
func SetIdentities(ids []BotIdentity) {
	mu.Lock()
	defer mu.Unlock()
	botIdentities = append([]BotIdentity{}, ids...)
	botByID = make(map[string]BotIdentity, len(ids))
	for _, identity := range botIdentities {
		if identity.UserID != "" {
			botByID[identity.UserID] = identity
		}
	}
}

// accountProvisioner is the part of runtime.NakamaModule bots need.
type accountProvisioner interface {
	AuthenticateDevice(ctx context.Context, id, username string, create bool) (string, string, bool, error)
	AccountUpdateId(ctx context.Context, userID, username string, metadata map[string]interface{}, displayName, timezone, location, langTag, avatarUrl string) error
}

// ProvisionBots ensures every pooled bot with a device ID has an account
// flagged is_bot. Failures are collected and the remaining bots still run.
func ProvisionBots(ctx context.Context, nk accountProvisioner) error {
	mu.Lock()
	ids := append([]BotIdentity{}, botIdentities...)
	mu.Unlock()

	var errs error
	for i := range ids {
		identity := &ids[i]
		if identity.DeviceID == "" {
			continue
		}
		userID, username, _, err := nk.AuthenticateDevice(ctx, identity.DeviceID, identity.Username, true)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("failed to authenticate bot %s: %w", identity.Username, err))
			continue
		}
		identity.UserID = userID
		identity.Username = username

		metadata := map[string]interface{}{
			"is_bot":       true,
			"game":         "whist",
			"difficulty":   identity.Difficulty,
			"avatar_index": identity.AvatarIndex,
		}
		if err := nk.AccountUpdateId(ctx, userID, identity.Username, metadata, identity.DisplayName, "", "", "", ""); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("failed to update bot account %s: %w", userID, err))
		}
	}
	SetIdentities(ids)
	return errs
}

// GetBotIdentity returns an identity for a bot by index (mod pool size).
func GetBotIdentity(index int) BotIdentity {
	mu.RLock()
	defer mu.RUnlock()
	if len(botIdentities) == 0 {
		return BotIdentity{
			UserID:      fmt.Sprintf("bot-%d", index),
			Username:    fmt.Sprintf("bot%d", index),
			DisplayName: fmt.Sprintf("AI Player %d", index),
			Difficulty:  "medium",
		}
	}
	return botIdentities[index%len(botIdentities)]
}

// IsBot reports whether the given user ID belongs to the bot pool.
func IsBot(userID string) bool {
	mu.RLock()
	defer mu.RUnlock()
	_, ok := botByID[userID]
	return ok
}

// GetBotDisplayName returns the display name for a bot ID, or an empty string if not a bot.
func GetBotDisplayName(userID string) string {
	mu.RLock()
	defer mu.RUnlock()
	identity, ok := botByID[userID]
	if !ok {
		return ""
	}
	if identity.DisplayName == "" {
		return identity.Username
	}
	return identity.DisplayName
}
