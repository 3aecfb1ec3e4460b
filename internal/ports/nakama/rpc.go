package nakama

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/heroiclabs/nakama-common/runtime"

	"whist/internal/app"
	"whist/internal/config"
	"whist/internal/ports"
)

// RegisterRPCs registers Nakama RPC endpoints.
func RegisterRPCs(initializer runtime.Initializer) error {
	if err := initializer.RegisterRpc(RpcQuickMatch, rpcQuickMatch); err != nil {
		return err
	}
	return initializer.RegisterRpc(RpcFetchReplay, rpcFetchReplay)
}

type fetchReplayRequest struct {
	GameID string `json:"game_id"`
}

// FetchReplayResponse returns a stored game with its audit verdict.
// Verified is false when no token was stored or no audit secret is set.
type FetchReplayResponse struct {
	Replay      ports.StoredReplay `json:"replay"`
	Verified    bool               `json:"verified"`
	VerifyError string             `json:"verify_error,omitempty"`
}

func rpcFetchReplay(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	env, _ := ctx.Value(runtime.RUNTIME_CTX_ENV).(map[string]string)
	cfg := config.GetGameConfig().ApplyEnv(env)

	var auditor *app.Auditor
	if cfg.AuditSecret != "" {
		auditor = app.NewAuditor(cfg.AuditSecret, cfg.AuditIssuer)
	}
	return fetchReplay(ctx, logger, NewNakamaReplayStore(nk), auditor, payload)
}

func fetchReplay(ctx context.Context, logger runtime.Logger, store ports.ReplayStore, auditor *app.Auditor, payload string) (string, error) {
	var req fetchReplayRequest
	if err := json.Unmarshal([]byte(payload), &req); err != nil {
		return "", runtime.NewError("invalid request payload", 3) // INVALID_ARGUMENT
	}
	req.GameID = strings.TrimSpace(req.GameID)
	if req.GameID == "" {
		return "", runtime.NewError("game_id is required", 3)
	}

	replay, err := store.LoadReplay(ctx, req.GameID)
	if errors.Is(err, ports.ErrReplayNotFound) {
		return "", runtime.NewError(fmt.Sprintf("replay %s not found", req.GameID), 5) // NOT_FOUND
	}
	if err != nil {
		logger.Error("FetchReplay: Failed to load %s: %v", req.GameID, err)
		return "", runtime.NewError("failed to load replay", 13) // INTERNAL
	}

	resp := FetchReplayResponse{Replay: replay}
	switch {
	case replay.Token == "":
		resp.VerifyError = "replay is unsigned"
	case auditor == nil:
		resp.VerifyError = "audit secret is not configured"
	default:
		if _, err := auditor.Verify(replay.Token, replay.Record); err != nil {
			logger.Warn("FetchReplay: Replay %s failed verification: %v", req.GameID, err)
			resp.VerifyError = err.Error()
		} else {
			resp.Verified = true
		}
	}

	b, err := json.Marshal(resp)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
