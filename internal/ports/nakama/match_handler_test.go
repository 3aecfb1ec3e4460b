package nakama

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"testing"

	"whist/internal/app"
	"whist/internal/bot"
	"whist/internal/config"
	"whist/internal/domain"
	"whist/internal/game"
	"whist/internal/ports"

	"github.com/heroiclabs/nakama-common/runtime"
)

// noopLogger implements runtime.Logger for tests that only need to satisfy the interface.
type noopLogger struct{}

func (noopLogger) Debug(string, ...interface{}) {}
func (noopLogger) Info(string, ...interface{})  {}
func (noopLogger) Warn(string, ...interface{})  {}
func (noopLogger) Error(string, ...interface{}) {}
func (noopLogger) WithField(string, interface{}) runtime.Logger {
	return noopLogger{}
}
func (noopLogger) WithFields(map[string]interface{}) runtime.Logger {
	return noopLogger{}
}
func (noopLogger) Fields() map[string]interface{} {
	return nil
}

type sentMessage struct {
	opCode     int64
	data       []byte
	recipients []string // nil means broadcast
}

// mockDispatcher records match dispatcher calls for assertions.
type mockDispatcher struct {
	messages []sentMessage
	labels   []string
}

func (md *mockDispatcher) BroadcastMessage(opCode int64, data []byte, presences []runtime.Presence, sender runtime.Presence, reliable bool) error {
	msg := sentMessage{opCode: opCode, data: append([]byte(nil), data...)}
	for _, p := range presences {
		msg.recipients = append(msg.recipients, p.GetUserId())
	}
	md.messages = append(md.messages, msg)
	return nil
}

func (md *mockDispatcher) BroadcastMessageDeferred(opCode int64, data []byte, presences []runtime.Presence, sender runtime.Presence, reliable bool) error {
	return nil
}

func (md *mockDispatcher) MatchKick(presences []runtime.Presence) error {
	return nil
}

func (md *mockDispatcher) MatchLabelUpdate(label string) error {
	md.labels = append(md.labels, label)
	return nil
}

func (md *mockDispatcher) withOp(opCode int64) []sentMessage {
	var out []sentMessage
	for _, m := range md.messages {
		if m.opCode == opCode {
			out = append(out, m)
		}
	}
	return out
}

type mockPresence struct {
	userID   string
	username string
}

func (p mockPresence) GetHidden() bool                   { return false }
func (p mockPresence) GetPersistence() bool              { return false }
func (p mockPresence) GetUsername() string               { return p.username }
func (p mockPresence) GetStatus() string                 { return "" }
func (p mockPresence) GetReason() runtime.PresenceReason { return runtime.PresenceReasonUnknown }
func (p mockPresence) GetUserId() string                 { return p.userID }
func (p mockPresence) GetSessionId() string              { return "session-" + p.userID }
func (p mockPresence) GetNodeId() string                 { return "node-1" }

type mockMatchData struct {
	mockPresence
	opCode int64
	data   []byte
}

func (m mockMatchData) GetOpCode() int64      { return m.opCode }
func (m mockMatchData) GetData() []byte       { return m.data }
func (m mockMatchData) GetReliable() bool     { return true }
func (m mockMatchData) GetReceiveTime() int64 { return 0 }

// memoryReplays is an in-memory ports.ReplayStore.
type memoryReplays struct {
	saved map[string]ports.StoredReplay
}

func (r *memoryReplays) SaveReplay(ctx context.Context, replay ports.StoredReplay) error {
	if r.saved == nil {
		r.saved = make(map[string]ports.StoredReplay)
	}
	if _, ok := r.saved[replay.Record.GameID]; ok {
		return errors.New("already saved")
	}
	r.saved[replay.Record.GameID] = replay
	return nil
}

func (r *memoryReplays) LoadReplay(ctx context.Context, gameID string) (ports.StoredReplay, error) {
	replay, ok := r.saved[gameID]
	if !ok {
		return ports.StoredReplay{}, ports.ErrReplayNotFound
	}
	return replay, nil
}

const testSecret = "test-secret"

func testConfig(handsPerGame int) config.GameConfig {
	cfg := config.Defaults()
	cfg.HandsPerGame = handsPerGame
	cfg.TurnDurationSeconds = 0
	cfg.BotAutoFillDelaySeconds = 0
	cfg.AuditSecret = testSecret
	return cfg
}

func newTestMatch(cfg config.GameConfig) (*matchHandler, *MatchState, *memoryReplays) {
	replays := &memoryReplays{}
	state := newMatchState("match-1", cfg, replays, rand.New(rand.NewSource(1)))
	state.BotMinDelay = 0
	state.BotMaxDelay = 0
	return &matchHandler{replays: replays}, state, replays
}

func human(id string) mockPresence {
	return mockPresence{userID: id, username: "name-" + id}
}

func join(mh *matchHandler, state *MatchState, d *mockDispatcher, presences ...mockPresence) *MatchState {
	list := make([]runtime.Presence, 0, len(presences))
	for _, p := range presences {
		list = append(list, p)
	}
	out := mh.MatchJoin(context.Background(), noopLogger{}, nil, nil, d, state.Tick, state, list)
	if out == nil {
		return nil
	}
	return out.(*MatchState)
}

func leave(mh *matchHandler, state *MatchState, d *mockDispatcher, presences ...mockPresence) interface{} {
	list := make([]runtime.Presence, 0, len(presences))
	for _, p := range presences {
		list = append(list, p)
	}
	return mh.MatchLeave(context.Background(), noopLogger{}, nil, nil, d, state.Tick, state, list)
}

func loop(mh *matchHandler, state *MatchState, d *mockDispatcher, messages ...runtime.MatchData) {
	mh.MatchLoop(context.Background(), noopLogger{}, nil, nil, d, state.Tick+1, state, messages)
}

func send(from mockPresence, opCode int64, payload string) runtime.MatchData {
	return mockMatchData{mockPresence: from, opCode: opCode, data: []byte(payload)}
}

func decodeMap(t *testing.T, data []byte) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("failed to decode %s: %v", data, err)
	}
	return out
}

func lastError(t *testing.T, d *mockDispatcher) map[string]interface{} {
	t.Helper()
	errs := d.withOp(OpGameError)
	if len(errs) == 0 {
		t.Fatalf("expected a game error to be sent")
	}
	return decodeMap(t, errs[len(errs)-1].data)
}

// startWithBots seats one human at North, fills the table and deals.
func startWithBots(t *testing.T, cfg config.GameConfig) (*matchHandler, *MatchState, *memoryReplays, *mockDispatcher, mockPresence) {
	t.Helper()
	mh, state, replays := newTestMatch(cfg)
	d := &mockDispatcher{}
	owner := human("user-1")
	state = join(mh, state, d, owner)

	loop(mh, state, d)
	if len(state.Bots) != 3 {
		t.Fatalf("expected 3 bots after auto-fill, got %d", len(state.Bots))
	}
	loop(mh, state, d, send(owner, OpStartGame, ""))
	if state.Game.Phase() != game.PhasePlaying {
		t.Fatalf("expected playing phase, got %s", state.Game.Phase())
	}
	return mh, state, replays, d, owner
}

func TestMatchJoinSeatsPlayersAndOwner(t *testing.T) {
	mh, state, _ := newTestMatch(testConfig(1))
	d := &mockDispatcher{}

	state = join(mh, state, d, human("a"), human("b"))

	if state.Seats[domain.North] != "a" || state.Seats[domain.East] != "b" {
		t.Errorf("expected a and b at north and east, got %v", state.Seats)
	}
	if state.OwnerSeat != domain.North {
		t.Errorf("expected owner north, got %s", state.OwnerSeat)
	}
	if got := state.Game.State().Players[domain.East].Name; got != "name-b" {
		t.Errorf("expected east named name-b, got %q", got)
	}
	if len(d.labels) == 0 {
		t.Fatalf("expected a label update")
	}
	label := decodeMap(t, []byte(d.labels[len(d.labels)-1]))
	if label["open"] != float64(2) || label["phase"] != "waiting" {
		t.Errorf("unexpected label %v", label)
	}
	if got := len(d.withOp(OpMatchState)); got != 2 {
		t.Errorf("expected 2 private state messages, got %d", got)
	}
	if got := len(d.withOp(OpPlayerJoined)); got != 2 {
		t.Errorf("expected 2 player joined events, got %d", got)
	}
}

func TestMatchJoinAttempt(t *testing.T) {
	mh, state, _ := newTestMatch(testConfig(1))
	d := &mockDispatcher{}
	state = join(mh, state, d, human("a"), human("b"), human("c"), human("d"))

	attempt := func(p mockPresence) bool {
		_, ok, _ := mh.MatchJoinAttempt(context.Background(), noopLogger{}, nil, nil, d, 0, state, p, nil)
		return ok
	}

	if attempt(human("e")) {
		t.Errorf("expected a full table of humans to reject a stranger")
	}
	if !attempt(human("c")) {
		t.Errorf("expected a seated player to be allowed back")
	}

	loop(mh, state, d, send(human("a"), OpStartGame, ""))
	if state.Game.Phase() != game.PhasePlaying {
		t.Fatalf("expected playing phase, got %s", state.Game.Phase())
	}
	if attempt(human("e")) {
		t.Errorf("expected a game in progress to reject a stranger")
	}
}

func TestHumanReplacesBotInLobby(t *testing.T) {
	mh, state, _ := newTestMatch(testConfig(1))
	d := &mockDispatcher{}
	state = join(mh, state, d, human("a"))
	loop(mh, state, d)
	if len(state.Bots) != 3 {
		t.Fatalf("expected 3 bots, got %d", len(state.Bots))
	}

	state = join(mh, state, d, human("b"))

	if state.Seats[domain.East] != "b" {
		t.Errorf("expected b to take the first bot seat, got %v", state.Seats)
	}
	if len(state.Bots) != 2 {
		t.Errorf("expected 2 bots left, got %d", len(state.Bots))
	}
	if p := state.Game.State().Players[domain.East]; p == nil || p.IsBot {
		t.Errorf("expected a human at east, got %+v", p)
	}
}

func TestStartGameRequiresOwner(t *testing.T) {
	mh, state, _ := newTestMatch(testConfig(1))
	d := &mockDispatcher{}
	state = join(mh, state, d, human("a"), human("b"), human("c"), human("d"))

	loop(mh, state, d, send(human("b"), OpStartGame, ""))

	if state.Game.Phase() != game.PhaseWaiting {
		t.Errorf("expected waiting phase, got %s", state.Game.Phase())
	}
	if got := lastError(t, d)["code"]; got != float64(403) {
		t.Errorf("expected code 403, got %v", got)
	}
}

func TestStartGameDealsPrivately(t *testing.T) {
	_, state, _, d, owner := startWithBots(t, testConfig(1))

	dealt := d.withOp(OpHandDealt)
	if len(dealt) != 1 {
		t.Fatalf("expected only the human's deal to be sent, got %d", len(dealt))
	}
	if len(dealt[0].recipients) != 1 || dealt[0].recipients[0] != owner.userID {
		t.Errorf("expected deal addressed to %s, got %v", owner.userID, dealt[0].recipients)
	}
	payload := decodeMap(t, dealt[0].data)
	if hand, _ := payload["hand"].([]interface{}); len(hand) != domain.CardsPerHand {
		t.Errorf("expected %d cards, got %v", domain.CardsPerHand, payload["hand"])
	}
	if len(d.withOp(OpHandStarted)) != 1 {
		t.Errorf("expected one hand started broadcast")
	}
	label := decodeMap(t, []byte(d.labels[len(d.labels)-1]))
	if label["phase"] != "playing" || label["open"] != float64(0) {
		t.Errorf("unexpected label %v", label)
	}
	if state.currentTurn() != domain.North {
		t.Errorf("expected north to lead the first hand, got %s", state.currentTurn())
	}
}

func TestPlayCardRejections(t *testing.T) {
	mh, state, _, d, owner := startWithBots(t, testConfig(1))

	hand := state.Game.ClientState(domain.North).Hand
	var missing domain.Card
	for _, c := range domain.NewDeck() {
		if !domain.ContainsCard(hand, c) {
			missing = c
			break
		}
	}

	tests := []struct {
		name    string
		payload string
		code    float64
		reason  string
	}{
		{name: "malformed", payload: "{", code: 400},
		{name: "missing card", payload: `{}`, code: 400},
		{name: "not in hand", payload: `{"card":"` + missing.Code() + `"}`, code: 400, reason: string(domain.FailureNotInHand)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := len(state.Game.Actions())
			mh.handlePlayCard(context.Background(), state, d, noopLogger{}, send(owner, OpPlayCard, tt.payload))

			body := lastError(t, d)
			if body["code"] != tt.code {
				t.Errorf("expected code %v, got %v", tt.code, body["code"])
			}
			if tt.reason != "" && body["reason"] != tt.reason {
				t.Errorf("expected reason %q, got %v", tt.reason, body["reason"])
			}
			if got := len(state.Game.Actions()); got != before {
				t.Errorf("expected no new actions, got %d more", got-before)
			}
		})
	}
}

func TestFullGameWithBotsSavesSignedReplay(t *testing.T) {
	mh, state, replays, d, owner := startWithBots(t, testConfig(2))

	for i := 0; i < 500 && state.Game.Phase() != game.PhaseGameEnd; i++ {
		var msgs []runtime.MatchData
		switch {
		case state.currentTurn() == domain.North:
			move, ok := bot.FirstPermitted(state.Game.ClientState(domain.North))
			if !ok {
				t.Fatalf("expected a permitted move for north")
			}
			payload, _ := json.Marshal(map[string]interface{}{"card": move.Card.Code(), "face_down": move.FaceDown})
			msgs = append(msgs, send(owner, OpPlayCard, string(payload)))
		case state.Game.IsRuleCreationPhase():
			if winner, _ := state.Game.HandWinner(); winner == domain.North {
				msgs = append(msgs, send(owner, OpStartNextHand, ""))
			}
		}
		loop(mh, state, d, msgs...)
		state.Tick++
	}

	if state.Game.Phase() != game.PhaseGameEnd {
		t.Fatalf("expected game to end, stuck in %s", state.Game.Phase())
	}
	if len(d.withOp(OpGameError)) != 0 {
		t.Errorf("expected no game errors, got %s", d.withOp(OpGameError)[0].data)
	}
	if got := len(d.withOp(OpHandStarted)); got != 2 {
		t.Errorf("expected 2 hands, got %d", got)
	}
	if got := len(d.withOp(OpGameEnded)); got != 1 {
		t.Errorf("expected one game ended broadcast, got %d", got)
	}

	replay, err := replays.LoadReplay(context.Background(), "match-1")
	if err != nil {
		t.Fatalf("expected replay to be saved: %v", err)
	}
	if !state.ReplaySaved {
		t.Errorf("expected replay flagged as saved")
	}
	if replay.Token == "" {
		t.Fatalf("expected a signed replay")
	}
	if _, err := app.NewAuditor(testSecret, "whist").Verify(replay.Token, replay.Record); err != nil {
		t.Errorf("expected replay to verify, got %v", err)
	}
	if got := game.Replay(replay.Record.Actions); got.Phase != game.PhaseGameEnd {
		t.Errorf("expected stored actions to replay to game_end, got %s", got.Phase)
	}
	label := decodeMap(t, []byte(d.labels[len(d.labels)-1]))
	if label["phase"] != "game_end" {
		t.Errorf("expected game_end label, got %v", label)
	}
}

func TestTimeoutsPlayForIdleHumans(t *testing.T) {
	cfg := testConfig(1)
	cfg.TurnDurationSeconds = 2
	mh, state, _, d, _ := startWithBots(t, cfg)

	before := len(state.Game.Actions())
	loop(mh, state, d)
	state.Tick++
	if got := len(state.Game.Actions()); got != before {
		t.Fatalf("expected no auto-play before the turn expires")
	}
	for i := 0; i < 3; i++ {
		loop(mh, state, d)
		state.Tick++
	}
	if state.currentTurn() == domain.North {
		t.Errorf("expected north's idle turn to be played")
	}
	if played := d.withOp(OpCardPlayed); len(played) == 0 {
		t.Errorf("expected a card played broadcast")
	}
}

func TestTurnTimerRestartsAfterEveryPlay(t *testing.T) {
	cfg := testConfig(2)
	cfg.BotsEnabled = false
	cfg.TurnDurationSeconds = 3
	mh, state, _ := newTestMatch(cfg)
	d := &mockDispatcher{}
	players := []mockPresence{human("a"), human("b"), human("c"), human("d")}
	state = join(mh, state, d, players...)
	loop(mh, state, d, send(players[0], OpStartGame, ""))
	if state.Game.Phase() != game.PhasePlaying {
		t.Fatalf("expected playing phase, got %s", state.Game.Phase())
	}

	limit := int64(cfg.TurnDurationSeconds)
	sent := 0
	winnerLedAgain := false
	for i := 0; i < 500 && state.Game.Phase() != game.PhaseGameEnd; i++ {
		if state.Game.IsRuleCreationPhase() {
			winner, _ := state.Game.HandWinner()
			loop(mh, state, d, send(players[winner], OpStartNextHand, ""))
			continue
		}

		seat := state.currentTurn()
		for idle := int64(1); idle < limit; idle++ {
			loop(mh, state, d)
		}
		if got := len(d.withOp(OpCardPlayed)); got != sent {
			t.Fatalf("expected %d plays before %s acted, got %d", sent, seat, got)
		}

		view := state.Game.ClientState(seat)
		lastOfTrick := view.Trick != nil && len(view.Trick.Cards) == domain.NumSeats-1
		move, ok := bot.FirstPermitted(view)
		if !ok {
			t.Fatalf("expected a permitted move for %s", seat)
		}
		payload, _ := json.Marshal(map[string]interface{}{"card": move.Card.Code(), "face_down": move.FaceDown})
		loop(mh, state, d, send(players[seat], OpPlayCard, string(payload)))
		sent++
		if got := len(d.withOp(OpCardPlayed)); got != sent {
			t.Fatalf("expected %d plays after %s acted, got %d", sent, seat, got)
		}
		if lastOfTrick && state.Game.Phase() == game.PhasePlaying && state.currentTurn() == seat {
			winnerLedAgain = true
		}
	}
	if state.Game.Phase() != game.PhaseGameEnd {
		t.Fatalf("expected the game to end, got %s", state.Game.Phase())
	}
	if !winnerLedAgain {
		t.Fatal("expected at least one trick won by its last player")
	}
}

func TestMatchLeave(t *testing.T) {
	t.Run("lobby frees seat", func(t *testing.T) {
		mh, state, _ := newTestMatch(testConfig(1))
		d := &mockDispatcher{}
		state = join(mh, state, d, human("a"), human("b"))

		out := leave(mh, state, d, human("a"))
		if out == nil {
			t.Fatalf("expected match to continue with b")
		}
		if state.Seats[domain.North] != "" {
			t.Errorf("expected north freed, got %q", state.Seats[domain.North])
		}
		if state.OwnerSeat != domain.East {
			t.Errorf("expected ownership to pass to east, got %s", state.OwnerSeat)
		}
		if state.Game.State().Players[domain.North] != nil {
			t.Errorf("expected north removed from the game")
		}
	})

	t.Run("mid game keeps seat", func(t *testing.T) {
		mh, state, _ := newTestMatch(testConfig(1))
		d := &mockDispatcher{}
		state = join(mh, state, d, human("a"), human("b"), human("c"), human("d"))
		loop(mh, state, d, send(human("a"), OpStartGame, ""))

		if out := leave(mh, state, d, human("b")); out == nil {
			t.Fatalf("expected match to continue")
		}
		if state.Seats[domain.East] != "b" {
			t.Errorf("expected east kept for b, got %q", state.Seats[domain.East])
		}
		if p := state.Game.State().Players[domain.East]; p == nil || p.IsConnected {
			t.Errorf("expected east disconnected, got %+v", p)
		}
		if len(d.withOp(OpPlayerConnection)) == 0 {
			t.Errorf("expected a connection event")
		}

		state = join(mh, state, d, human("b"))
		if p := state.Game.State().Players[domain.East]; !p.IsConnected {
			t.Errorf("expected east reconnected")
		}
	})

	t.Run("last human terminates", func(t *testing.T) {
		mh, state, _, d, owner := startWithBots(t, testConfig(1))
		if out := leave(mh, state, d, owner); out != nil {
			t.Errorf("expected nil state to terminate the match")
		}
	})
}

func TestBroadcastEventDropsPrivateEventsWithoutPresence(t *testing.T) {
	mh, state, _ := newTestMatch(testConfig(1))
	d := &mockDispatcher{}
	state = join(mh, state, d, human("a"))
	d.messages = nil

	private := app.Event{
		Kind:       app.EventHandDealt,
		Payload:    app.HandDealtPayload{Seat: domain.East, Hand: domain.MustParseCards("7H")},
		Recipients: []domain.Seat{domain.East},
	}
	mh.broadcastEvent(state, d, noopLogger{}, private)
	if len(d.messages) != 0 {
		t.Fatalf("expected private event for an empty seat to be dropped, got %d", len(d.messages))
	}

	private.Recipients = []domain.Seat{domain.North}
	mh.broadcastEvent(state, d, noopLogger{}, private)
	if len(d.messages) != 1 || len(d.messages[0].recipients) != 1 || d.messages[0].recipients[0] != "a" {
		t.Errorf("expected one message addressed to a, got %+v", d.messages)
	}
}

func TestSendStateHidesOtherHands(t *testing.T) {
	mh, state, _, d, owner := startWithBots(t, testConfig(1))
	d.messages = nil

	mh.sendState(state, d, noopLogger{}, owner.userID)

	msgs := d.withOp(OpMatchState)
	if len(msgs) != 1 {
		t.Fatalf("expected one state message, got %d", len(msgs))
	}
	body := decodeMap(t, msgs[0].data)
	if body["match_id"] != "match-1" || body["seat"] != "north" {
		t.Errorf("unexpected header %v %v", body["match_id"], body["seat"])
	}
	if hand, _ := body["hand"].([]interface{}); len(hand) != domain.CardsPerHand {
		t.Errorf("expected own hand of %d, got %d", domain.CardsPerHand, len(hand))
	}
	players, _ := body["players"].([]interface{})
	for _, p := range players {
		if _, ok := p.(map[string]interface{})["hand"]; ok {
			t.Errorf("expected no hands in seat views")
		}
	}
}
