package bot

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"go.uber.org/multierr"
)

func typeName(v interface{}) string { return fmt.Sprintf("%T", v) }

type fakeAccounts struct {
	failAuth   map[string]bool
	failUpdate bool
	updated    map[string]map[string]interface{}
}

func (f *fakeAccounts) AuthenticateDevice(_ context.Context, id, username string, create bool) (string, string, bool, error) {
	if f.failAuth[id] {
		return "", "", false, errors.New("auth down")
	}
	return "uid-" + id, username, create, nil
}

func (f *fakeAccounts) AccountUpdateId(_ context.Context, userID, _ string, metadata map[string]interface{}, _, _, _, _, _ string) error {
	if f.failUpdate {
		return errors.New("update down")
	}
	if f.updated == nil {
		f.updated = make(map[string]map[string]interface{})
	}
	f.updated[userID] = metadata
	return nil
}

func TestParseIdentities(t *testing.T) {
	ids, err := ParseIdentities([]byte(`[{"device_id":"d1","username":"bot_a","display_name":"A","difficulty":"hard"}]`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ids) != 1 || ids[0].Level() != BotLevelSmart {
		t.Errorf("unexpected identities %+v", ids)
	}
	if _, err := ParseIdentities([]byte(`{`)); err == nil {
		t.Error("expected malformed JSON to fail")
	}
}

func TestIdentityPool(t *testing.T) {
	SetIdentities(nil)
	fallback := GetBotIdentity(3)
	if fallback.UserID != "bot-3" || fallback.DisplayName == "" {
		t.Errorf("unexpected fallback identity %+v", fallback)
	}

	SetIdentities([]BotIdentity{
		{UserID: "u1", Username: "bot_a", DisplayName: "Ada"},
		{UserID: "u2", Username: "bot_b"},
	})
	defer SetIdentities(nil)
	if GetBotIdentity(3).UserID != "u2" {
		t.Error("expected index to wrap around the pool")
	}
	if !IsBot("u1") || IsBot("human") {
		t.Error("unexpected IsBot result")
	}
	if GetBotDisplayName("u1") != "Ada" || GetBotDisplayName("u2") != "bot_b" || GetBotDisplayName("x") != "" {
		t.Error("unexpected display names")
	}
}

func TestProvisionBotsCollectsFailures(t *testing.T) {
	SetIdentities([]BotIdentity{
		{DeviceID: "d1", Username: "bot_a", Difficulty: "easy"},
		{DeviceID: "d2", Username: "bot_b"},
		{Username: "virtual", UserID: "v"},
	})
	defer SetIdentities(nil)

	nk := &fakeAccounts{failAuth: map[string]bool{"d2": true}}
	err := ProvisionBots(context.Background(), nk)
	if got := len(multierr.Errors(err)); got != 1 {
		t.Fatalf("expected 1 error, got %d (%v)", got, err)
	}
	if !IsBot("uid-d1") || !IsBot("v") || IsBot("uid-d2") {
		t.Error("expected provisioned and virtual bots in the pool")
	}
	if nk.updated["uid-d1"]["is_bot"] != true {
		t.Errorf("expected is_bot metadata, got %v", nk.updated["uid-d1"])
	}

	nk = &fakeAccounts{failUpdate: true}
	if err := ProvisionBots(context.Background(), nk); len(multierr.Errors(err)) != 2 {
		t.Errorf("expected an update error per device bot, got %v", err)
	}
}
