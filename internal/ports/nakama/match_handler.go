package nakama

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math/rand"
	"strconv"
	"time"

	"whist/internal/app"
	"whist/internal/bot"
	"whist/internal/config"
	"whist/internal/domain"
	"whist/internal/game"
	"whist/internal/ports"

	"github.com/heroiclabs/nakama-common/runtime"
)

const (
	defaultBotMinDelay = 1
	defaultBotMaxDelay = 3
	tickRate           = 1
)

// MatchState holds the authoritative runtime state for the Nakama match handler.
type MatchState struct {
	MatchID              string                      `json:"match_id"`
	Seats                [domain.NumSeats]string     `json:"seats"`      // user ids, empty string means seat is empty
	OwnerSeat            domain.Seat                 `json:"owner_seat"` // first human seat, NoSeat when none
	Tick                 int64                       `json:"tick"`
	Presences            map[string]runtime.Presence `json:"-"` // user id -> presence for targeted messaging
	Game                 *app.Manager                `json:"-"`
	Config               config.GameConfig           `json:"-"`
	Auditor              *app.Auditor                `json:"-"` // nil when no audit secret is configured
	Replays              ports.ReplayStore           `json:"-"`
	ReplaySaved          bool                        `json:"replay_saved"`
	Bots                 map[domain.Seat]*bot.Agent  `json:"-"`
	BotMinDelay          int                         `json:"bot_min_delay"`
	BotMaxDelay          int                         `json:"bot_max_delay"`
	BotWaitUntil         int64                       `json:"bot_wait_until"` // tick when the current bot acts
	TurnSeat             domain.Seat                 `json:"turn_seat"`
	TurnStartedTick      int64                       `json:"turn_started_tick"`
	TurnActions          int                         `json:"turn_actions"` // action count when the turn timer last restarted
	RuleWindowOpen       bool                        `json:"rule_window_open"`
	RuleWindowTick       int64                       `json:"rule_window_tick"` // tick the rule creation window opened
	LastSinglePlayerTick int64                       `json:"last_single_player_tick"`
	rng                  *rand.Rand
}

func newMatchState(matchID string, cfg config.GameConfig, replays ports.ReplayStore, rng *rand.Rand) *MatchState {
	ms := &MatchState{
		MatchID:     matchID,
		OwnerSeat:   domain.NoSeat,
		Presences:   make(map[string]runtime.Presence),
		Config:      cfg,
		Replays:     replays,
		Bots:        make(map[domain.Seat]*bot.Agent),
		BotMinDelay: defaultBotMinDelay,
		BotMaxDelay: defaultBotMaxDelay,
		TurnSeat:    domain.NoSeat,
		rng:         rng,
	}
	ms.Game = app.NewManager(app.Options{
		GameID:       matchID,
		HandsPerGame: cfg.HandsPerGame,
		MaxRules:     cfg.MaxRules,
		Rng:          rng,
	})
	if cfg.AuditSecret != "" {
		ms.Auditor = app.NewAuditor(cfg.AuditSecret, cfg.AuditIssuer)
	}
	return ms
}

func (ms *MatchState) GetOpenSeatsCount() int {
	count := 0
	for _, seat := range ms.Seats {
		if seat == "" {
			count++
		}
	}
	return count
}

func (ms *MatchState) GetHumanPlayerCount() int {
	count := 0
	for i, seat := range ms.Seats {
		if seat != "" && !ms.isBotSeat(domain.Seat(i)) {
			count++
		}
	}
	return count
}

func (ms *MatchState) isBotSeat(seat domain.Seat) bool {
	_, ok := ms.Bots[seat]
	return ok
}

// seatOf returns the seat held by userID, or domain.NoSeat.
func (ms *MatchState) seatOf(userID string) domain.Seat {
	if userID == "" {
		return domain.NoSeat
	}
	for i, seatUserID := range ms.Seats {
		if seatUserID == userID {
			return domain.Seat(i)
		}
	}
	return domain.NoSeat
}

// firstHumanSeat returns the first seat with a human occupant, or domain.NoSeat.
func (ms *MatchState) firstHumanSeat() domain.Seat {
	for i, userID := range ms.Seats {
		if userID != "" && !ms.isBotSeat(domain.Seat(i)) {
			return domain.Seat(i)
		}
	}
	return domain.NoSeat
}

// shouldTerminate reports whether no human is left at the table. Humans who
// dropped mid-game keep their seat but count only while connected.
func (ms *MatchState) shouldTerminate() bool {
	for i, userID := range ms.Seats {
		if userID == "" || ms.isBotSeat(domain.Seat(i)) {
			continue
		}
		if _, ok := ms.Presences[userID]; ok {
			return false
		}
	}
	return true
}

func (ms *MatchState) inLobby() bool {
	return ms.Game.Phase() == game.PhaseWaiting
}

// currentTurn is the seat expected to play, or domain.NoSeat outside play.
func (ms *MatchState) currentTurn() domain.Seat {
	s := ms.Game.State()
	if s.Phase != game.PhasePlaying || s.Hand == nil || s.Hand.CurrentTrick == nil || s.Hand.CurrentTrick.IsComplete() {
		return domain.NoSeat
	}
	return s.Hand.CurrentTrick.CurrentPlayer
}

func (ms *MatchState) botDelay() int64 {
	lo, hi := ms.BotMinDelay, ms.BotMaxDelay
	if hi < lo {
		hi = lo
	}
	return int64(ms.rng.Intn(hi-lo+1) + lo)
}

// NewMatch is the factory function registered with Nakama.
func NewMatch(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule) (runtime.Match, error) {
	return &matchHandler{replays: NewNakamaReplayStore(nk)}, nil
}

type matchHandler struct {
	replays ports.ReplayStore
}

// MatchInit is called when the match is created.
func (mh *matchHandler) MatchInit(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, params map[string]interface{}) (interface{}, int, string) {
	logger.Debug("MatchInit: Initializing match handler.")

	if err := bot.LoadIdentities("data/bot_identities.json"); err != nil {
		logger.Warn("MatchInit: Could not load bot identities: %v", err)
	}
	if err := config.LoadGameConfig("data/game_config.json"); err != nil {
		logger.Warn("MatchInit: Could not load game config: %v", err)
	}

	env, _ := ctx.Value(runtime.RUNTIME_CTX_ENV).(map[string]string)
	cfg := config.GetGameConfig().ApplyEnv(env)
	matchID, _ := ctx.Value(runtime.RUNTIME_CTX_MATCH_ID).(string)

	state := newMatchState(matchID, cfg, mh.replays, rand.New(rand.NewSource(time.Now().UnixNano())))
	if v, ok := env[envBotMinDelay]; ok {
		if i, err := strconv.Atoi(v); err == nil && i >= 0 {
			state.BotMinDelay = i
		}
	}
	if v, ok := env[envBotMaxDelay]; ok {
		if i, err := strconv.Atoi(v); err == nil && i >= 0 {
			state.BotMaxDelay = i
		}
	}

	label, err := encodeLabel(state.GetOpenSeatsCount(), string(game.PhaseWaiting))
	if err != nil {
		logger.Error("MatchInit: Failed to marshal label: %v", err)
		return nil, 0, ""
	}
	return state, tickRate, label
}

func (mh *matchHandler) MatchJoinAttempt(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presence runtime.Presence, metadata map[string]string) (interface{}, bool, string) {
	matchState, ok := state.(*MatchState)
	if !ok {
		return state, false, "state not found"
	}

	// Seated players may always come back.
	if matchState.seatOf(presence.GetUserId()) != domain.NoSeat {
		return state, true, ""
	}
	if !matchState.inLobby() {
		return state, false, "Game in progress"
	}
	if matchState.GetOpenSeatsCount() == 0 && len(matchState.Bots) == 0 {
		return state, false, "Match full"
	}
	return state, true, ""
}

func (mh *matchHandler) MatchJoin(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presences []runtime.Presence) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		logger.Error("MatchJoin: state not found")
		return state
	}

	for _, p := range presences {
		userID := p.GetUserId()
		matchState.Presences[userID] = p

		if seat := matchState.seatOf(userID); seat != domain.NoSeat {
			events, err := matchState.Game.SetConnected(seat, true)
			if err != nil {
				logger.Warn("MatchJoin: Failed to reconnect %s at %s: %v", userID, seat, err)
				continue
			}
			logger.Info("MatchJoin: User %s reconnected to seat %s", userID, seat)
			mh.dispatchEvents(ctx, matchState, dispatcher, logger, events)
			continue
		}

		seat := mh.claimSeat(ctx, matchState, dispatcher, logger)
		if seat == domain.NoSeat {
			logger.Warn("MatchJoin: User %s joined but no seat (empty or bot) was available.", userID)
			continue
		}
		events, err := matchState.Game.AddPlayer(seat, userID, p.GetUsername(), false)
		if err != nil {
			logger.Error("MatchJoin: Failed to seat %s at %s: %v", userID, seat, err)
			continue
		}
		matchState.Seats[seat] = userID
		mh.dispatchEvents(ctx, matchState, dispatcher, logger, events)
	}

	if matchState.firstHumanSeat() != matchState.OwnerSeat {
		matchState.OwnerSeat = matchState.firstHumanSeat()
		logger.Debug("MatchJoin: Owner set to seat %s.", matchState.OwnerSeat)
	}

	mh.updateLabel(matchState, dispatcher, logger)
	for _, p := range presences {
		mh.sendState(matchState, dispatcher, logger, p.GetUserId())
	}
	return matchState
}

// claimSeat returns the first empty seat, or frees the first bot seat while
// the game is still waiting for players.
func (mh *matchHandler) claimSeat(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) domain.Seat {
	for i, userID := range state.Seats {
		if userID == "" {
			return domain.Seat(i)
		}
	}
	if !state.inLobby() {
		return domain.NoSeat
	}
	for _, seat := range domain.AllSeats() {
		agent, ok := state.Bots[seat]
		if !ok {
			continue
		}
		events, err := state.Game.RemovePlayer(seat)
		if err != nil {
			logger.Error("MatchJoin: Failed to remove bot %s from %s: %v", agent.ID, seat, err)
			continue
		}
		logger.Info("MatchJoin: Replacing bot %s in seat %s", agent.ID, seat)
		delete(state.Bots, seat)
		state.Seats[seat] = ""
		mh.dispatchEvents(ctx, state, dispatcher, logger, events)
		return seat
	}
	return domain.NoSeat
}

// MatchLeave is called when one or more players leave the match.
func (mh *matchHandler) MatchLeave(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presences []runtime.Presence) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		logger.Error("MatchLeave: state not found")
		return state
	}

	for _, p := range presences {
		userID := p.GetUserId()
		delete(matchState.Presences, userID)

		seat := matchState.seatOf(userID)
		if seat == domain.NoSeat {
			continue
		}
		var (
			events []app.Event
			err    error
		)
		if matchState.inLobby() {
			events, err = matchState.Game.RemovePlayer(seat)
			if err == nil {
				matchState.Seats[seat] = ""
				logger.Debug("MatchLeave: User %s left, seat %s freed.", userID, seat)
			}
		} else if matchState.Game.Phase() != game.PhaseGameEnd {
			events, err = matchState.Game.SetConnected(seat, false)
		}
		if err != nil {
			logger.Warn("MatchLeave: Failed to release seat %s for %s: %v", seat, userID, err)
			continue
		}
		mh.dispatchEvents(ctx, matchState, dispatcher, logger, events)
	}

	if owner := matchState.firstHumanSeat(); owner != matchState.OwnerSeat {
		matchState.OwnerSeat = owner
		logger.Debug("MatchLeave: Owner set to seat %s.", owner)
	}

	if matchState.shouldTerminate() {
		logger.Info("MatchLeave: Terminating match with no connected humans.")
		return nil
	}

	mh.updateLabel(matchState, dispatcher, logger)
	return matchState
}

func (mh *matchHandler) MatchLoop(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, messages []runtime.MatchData) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		return state
	}

	matchState.Tick = tick

	for _, msg := range messages {
		switch msg.GetOpCode() {
		case OpStartGame:
			mh.handleStartGame(ctx, matchState, dispatcher, logger, msg)
		case OpPlayCard:
			mh.handlePlayCard(ctx, matchState, dispatcher, logger, msg)
		case OpSubmitRule:
			mh.handleSubmitRule(ctx, matchState, dispatcher, logger, msg)
		case OpStartNextHand:
			mh.handleStartNextHand(ctx, matchState, dispatcher, logger, msg)
		case OpRequestState:
			mh.sendState(matchState, dispatcher, logger, msg.GetUserId())
		default:
			logger.Warn("MatchLoop: Unknown opcode received: %d", msg.GetOpCode())
		}
	}

	if matchState.Config.BotsEnabled {
		mh.processBots(ctx, matchState, dispatcher, logger)
	}
	mh.processTimeouts(ctx, matchState, dispatcher, logger)

	return matchState
}

func (mh *matchHandler) handleStartGame(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData) {
	senderID := msg.GetUserId()
	senderSeat := state.seatOf(senderID)
	logger.Info("StartGame: Request received from %s (seat=%s, owner_seat=%s)", senderID, senderSeat, state.OwnerSeat)

	if _, err := decodeRequest(msg.GetData()); err != nil {
		logger.Warn("StartGame: Invalid request from %s: %v", senderID, err)
		mh.sendError(state, dispatcher, logger, senderID, err)
		return
	}
	if senderSeat == domain.NoSeat || senderSeat != state.OwnerSeat {
		logger.Warn("StartGame: User %s tried to start game but is not owner", senderID)
		mh.sendError(state, dispatcher, logger, senderID, errNotOwner)
		return
	}

	if occupied := domain.NumSeats - state.GetOpenSeatsCount(); occupied < app.MinPlayersToStartGame {
		logger.Warn("StartGame: Cannot start with %d players. Need %d.", occupied, app.MinPlayersToStartGame)
		mh.sendError(state, dispatcher, logger, senderID, app.ErrTableNotFull)
		return
	}

	_, events, err := state.Game.StartHand(nil)
	if err != nil {
		logger.Warn("StartGame: Failed to start game: %v", err)
		mh.sendError(state, dispatcher, logger, senderID, err)
		return
	}
	mh.updateLabel(state, dispatcher, logger)
	mh.dispatchEvents(ctx, state, dispatcher, logger, events)
	logger.Info("StartGame: Game %s started.", state.Game.GameID())
}

func (mh *matchHandler) handlePlayCard(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData) {
	senderID := msg.GetUserId()
	seat := state.seatOf(senderID)

	request, err := decodeRequest(msg.GetData())
	if err != nil {
		mh.sendError(state, dispatcher, logger, senderID, err)
		return
	}
	card, err := cardField(request, "card")
	if err != nil {
		mh.sendError(state, dispatcher, logger, senderID, err)
		return
	}
	if err := mh.play(ctx, state, dispatcher, logger, seat, card, boolField(request, "face_down")); err != nil {
		logger.Warn("handlePlayCard: User %s (seat %s) failed to play %s: %v", senderID, seat, card.Code(), err)
		mh.sendError(state, dispatcher, logger, senderID, err)
	}
}

func (mh *matchHandler) play(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, seat domain.Seat, card domain.Card, faceDown bool) error {
	if seat == domain.NoSeat {
		return app.ErrUnknownSeat
	}
	res, events, err := state.Game.PlayCard(seat, card, faceDown)
	if err != nil {
		return err
	}
	mh.dispatchEvents(ctx, state, dispatcher, logger, events)
	if res.HandComplete {
		mh.updateLabel(state, dispatcher, logger)
	}
	return nil
}

func (mh *matchHandler) handleSubmitRule(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData) {
	senderID := msg.GetUserId()
	seat := state.seatOf(senderID)

	request, err := decodeRequest(msg.GetData())
	if err != nil {
		mh.sendError(state, dispatcher, logger, senderID, err)
		return
	}
	draft, err := draftField(request, "rule")
	if err != nil {
		mh.sendError(state, dispatcher, logger, senderID, err)
		return
	}
	rule, events, err := state.Game.AddRule(seat, draft)
	if err != nil {
		logger.Warn("handleSubmitRule: User %s (seat %s) rule rejected: %v", senderID, seat, err)
		mh.sendError(state, dispatcher, logger, senderID, err)
		return
	}
	logger.Info("handleSubmitRule: Seat %s added rule %s (%q)", seat, rule.ID, rule.Name)
	mh.dispatchEvents(ctx, state, dispatcher, logger, events)
	mh.nextHand(ctx, state, dispatcher, logger)
}

func (mh *matchHandler) handleStartNextHand(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData) {
	senderID := msg.GetUserId()
	winner, ok := state.Game.HandWinner()
	if !ok || !state.Game.IsRuleCreationPhase() {
		mh.sendError(state, dispatcher, logger, senderID, app.ErrNotRuleCreationPhase)
		return
	}
	if state.seatOf(senderID) != winner {
		mh.sendError(state, dispatcher, logger, senderID, app.ErrNotHandWinner)
		return
	}
	mh.nextHand(ctx, state, dispatcher, logger)
}

func (mh *matchHandler) nextHand(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	_, events, err := state.Game.StartNextHand(nil)
	if err != nil {
		logger.Error("nextHand: Failed to deal: %v", err)
		return
	}
	mh.updateLabel(state, dispatcher, logger)
	mh.dispatchEvents(ctx, state, dispatcher, logger, events)
}

func (mh *matchHandler) processBots(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	// 1. Fill the lobby once a lone human has waited long enough.
	if state.inLobby() {
		if state.GetHumanPlayerCount() == 1 && state.GetOpenSeatsCount() > 0 {
			if state.LastSinglePlayerTick == 0 {
				state.LastSinglePlayerTick = state.Tick
				logger.Debug("processBots: Single player detected, starting auto-fill timer.")
			}
			if state.Tick-state.LastSinglePlayerTick >= int64(state.Config.BotAutoFillDelaySeconds) {
				mh.fillWithBots(ctx, state, dispatcher, logger)
				state.LastSinglePlayerTick = 0
			}
		} else {
			state.LastSinglePlayerTick = 0
		}
		return
	}

	// 2. Bot turns.
	if seat := state.currentTurn(); seat != domain.NoSeat {
		agent, ok := state.Bots[seat]
		if !ok {
			state.BotWaitUntil = 0
			return
		}
		if state.BotWaitUntil == 0 {
			state.BotWaitUntil = state.Tick + state.botDelay()
			logger.Debug("processBots: Bot %s (seat %s) will act at tick %d (current %d)", agent.ID, seat, state.BotWaitUntil, state.Tick)
		}
		if state.Tick < state.BotWaitUntil {
			return
		}
		state.BotWaitUntil = 0

		move, err := agent.Play(state.Game.ClientState(seat))
		if err != nil {
			logger.Error("processBots: Bot %s failed to calculate move: %v", agent.ID, err)
			return
		}
		if err := mh.play(ctx, state, dispatcher, logger, seat, move.Card, move.FaceDown); err != nil {
			logger.Error("processBots: Bot %s play %s rejected: %v", agent.ID, move.Card.Code(), err)
		}
		return
	}

	// 3. Bot hand winners draft a rule, then deal.
	if state.Game.IsRuleCreationPhase() {
		winner, _ := state.Game.HandWinner()
		agent, ok := state.Bots[winner]
		if !ok {
			return
		}
		view := state.Game.ClientState(winner)
		if draft, ok := agent.DraftRule(view); ok {
			_, events, err := state.Game.AddRule(winner, draft)
			if err != nil {
				logger.Warn("processBots: Bot %s rule %q rejected: %v", agent.ID, draft.Name, err)
			} else {
				mh.dispatchEvents(ctx, state, dispatcher, logger, events)
			}
		}
		mh.nextHand(ctx, state, dispatcher, logger)
	}
}

func (mh *matchHandler) fillWithBots(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	added := false
	for i, userID := range state.Seats {
		if userID != "" {
			continue
		}
		seat := domain.Seat(i)
		identity := bot.GetBotIdentity(i)
		botID := identity.UserID
		if botID == "" {
			botID = fmt.Sprintf("bot-%s-%d", identity.Username, i)
		}
		name := identity.DisplayName
		if name == "" {
			name = identity.Username
		}

		brain, err := bot.NewBrain(identity.Level(), rand.New(rand.NewSource(state.rng.Int63())))
		if err != nil {
			logger.Error("processBots: Failed to create bot brain for %s: %v", botID, err)
			continue
		}
		events, err := state.Game.AddPlayer(seat, botID, name, true)
		if err != nil {
			logger.Error("processBots: Failed to seat bot %s: %v", botID, err)
			continue
		}
		state.Seats[i] = botID
		state.Bots[seat] = &bot.Agent{ID: botID, Name: name, Seat: seat, Strategy: brain}
		logger.Info("processBots: Added bot %s (%s) to seat %s", identity.Username, botID, seat)
		mh.dispatchEvents(ctx, state, dispatcher, logger, events)
		added = true
	}
	if added {
		mh.updateLabel(state, dispatcher, logger)
	}
}

// processTimeouts plays for humans who let their turn lapse and closes rule
// windows nobody used.
func (mh *matchHandler) processTimeouts(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	limit := int64(state.Config.TurnDurationSeconds)

	seat := state.currentTurn()
	// Every accepted action restarts the clock, so a trick winner who
	// leads again gets a full turn.
	if seat != state.TurnSeat || state.Game.ActionCount() != state.TurnActions {
		state.TurnSeat = seat
		state.TurnActions = state.Game.ActionCount()
		state.TurnStartedTick = state.Tick
	}
	switch {
	case !state.Game.IsRuleCreationPhase():
		state.RuleWindowOpen = false
	case !state.RuleWindowOpen:
		state.RuleWindowOpen = true
		state.RuleWindowTick = state.Tick
	}
	if limit <= 0 {
		return
	}

	if seat != domain.NoSeat && !state.isBotSeat(seat) && state.Tick-state.TurnStartedTick >= limit {
		move, ok := bot.FirstPermitted(state.Game.ClientState(seat))
		if !ok {
			return
		}
		logger.Info("processTimeouts: Seat %s timed out, playing %s", seat, move.Card.Code())
		if err := mh.play(ctx, state, dispatcher, logger, seat, move.Card, move.FaceDown); err != nil {
			logger.Error("processTimeouts: Auto-play for seat %s rejected: %v", seat, err)
		}
		return
	}

	if state.RuleWindowOpen && state.Tick-state.RuleWindowTick >= limit {
		logger.Info("processTimeouts: Rule window expired, dealing next hand.")
		mh.nextHand(ctx, state, dispatcher, logger)
	}
}

// dispatchEvents forwards events to bot agents and connected clients.
func (mh *matchHandler) dispatchEvents(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, events []app.Event) {
	for _, ev := range events {
		for _, agent := range state.Bots {
			agent.OnGameEvent(ev)
		}
		mh.broadcastEvent(state, dispatcher, logger, ev)
		if ev.Kind == app.EventGameEnded {
			mh.saveReplay(ctx, state, logger)
			mh.updateLabel(state, dispatcher, logger)
		}
	}
}

func (mh *matchHandler) broadcastEvent(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, ev app.Event) {
	opCode, data, err := encodeEvent(ev)
	if err != nil {
		logger.Error("Failed to encode event %v: %v", ev.Kind, err)
		return
	}

	var recipients []runtime.Presence
	if len(ev.Recipients) > 0 {
		for _, seat := range ev.Recipients {
			if !seat.Valid() {
				continue
			}
			if p, ok := state.Presences[state.Seats[seat]]; ok {
				recipients = append(recipients, p)
			}
		}
		// Private events for bots or absent players must not go to everyone else.
		if len(recipients) == 0 {
			return
		}
	}

	if err := dispatcher.BroadcastMessage(opCode, data, recipients, nil, true); err != nil {
		logger.Error("Failed to broadcast event %v: %v", ev.Kind, err)
	}
}

// sendState sends the seat's projected view, or a public view to spectators.
func (mh *matchHandler) sendState(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, userID string) {
	presence, ok := state.Presences[userID]
	if !ok {
		return
	}
	data, err := encodeMessage(matchStateMessage{
		ClientView: state.Game.ClientState(state.seatOf(userID)),
		MatchID:    state.MatchID,
		Seats:      state.Seats,
		OwnerSeat:  state.OwnerSeat,
		Tick:       state.Tick,
	})
	if err != nil {
		logger.Error("sendState: Failed to encode state for %s: %v", userID, err)
		return
	}
	if err := dispatcher.BroadcastMessage(OpMatchState, data, []runtime.Presence{presence}, nil, true); err != nil {
		logger.Error("sendState: Failed to send state to %s: %v", userID, err)
	}
}

type matchStateMessage struct {
	app.ClientView
	MatchID   string                  `json:"match_id"`
	Seats     [domain.NumSeats]string `json:"seats"`
	OwnerSeat domain.Seat             `json:"owner_seat"`
	Tick      int64                   `json:"tick"`
}

var errNotOwner = errors.New("only the match owner may start the game")

type violationMessage struct {
	RuleID         string   `json:"rule_id"`
	RuleName       string   `json:"rule_name"`
	Message        string   `json:"message,omitempty"`
	SuggestedMoves []string `json:"suggested_moves"`
}

type gameErrorMessage struct {
	Code      int               `json:"code"`
	Message   string            `json:"message"`
	Reason    string            `json:"reason,omitempty"`
	Violation *violationMessage `json:"violation,omitempty"`
	Problems  []string          `json:"problems,omitempty"`
}

// errorMessage classifies err into the client error payload.
func errorMessage(err error) gameErrorMessage {
	msg := gameErrorMessage{Code: 400, Message: err.Error()}

	var illegal *app.IllegalPlayError
	var violation *app.RuleViolationError
	var invalid *app.RuleValidationError
	switch {
	case errors.As(err, &illegal):
		msg.Reason = string(illegal.Reason)
	case errors.As(err, &violation):
		v := violation.Violation
		vm := &violationMessage{RuleID: v.RuleID, RuleName: v.RuleName, Message: v.Message, SuggestedMoves: []string{}}
		for _, c := range v.SuggestedMoves {
			vm.SuggestedMoves = append(vm.SuggestedMoves, c.Code())
		}
		msg.Code = 409
		msg.Violation = vm
	case errors.As(err, &invalid):
		msg.Code = 422
		msg.Problems = invalid.Problems
	case errors.Is(err, errNotOwner), errors.Is(err, app.ErrNotHandWinner), errors.Is(err, app.ErrNotYourTurn):
		msg.Code = 403
	case errors.Is(err, app.ErrGameOver):
		msg.Code = 410
	}
	return msg
}

// sendError sends a game error to a specific user.
func (mh *matchHandler) sendError(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, userID string, cause error) {
	presence, ok := state.Presences[userID]
	if !ok {
		logger.Warn("Cannot send error to %s: Presence not found", userID)
		return
	}
	data, err := encodeMessage(errorMessage(cause))
	if err != nil {
		logger.Error("Failed to marshal game error: %v", err)
		return
	}
	if err := dispatcher.BroadcastMessage(OpGameError, data, []runtime.Presence{presence}, nil, true); err != nil {
		logger.Error("Failed to send game error to %s: %v", userID, err)
	}
}

// saveReplay persists the finished game once, signed when an auditor is set.
func (mh *matchHandler) saveReplay(ctx context.Context, state *MatchState, logger runtime.Logger) {
	if state.ReplaySaved || state.Replays == nil {
		return
	}
	replay := ports.StoredReplay{Record: state.Game.Record()}
	if state.Auditor != nil {
		token, err := state.Auditor.Sign(replay.Record)
		if err != nil {
			logger.Error("saveReplay: Failed to sign replay %s: %v", replay.Record.GameID, err)
		}
		replay.Token = token
	}
	if err := state.Replays.SaveReplay(ctx, replay); err != nil {
		logger.Error("saveReplay: Failed to save replay %s: %v", replay.Record.GameID, err)
		return
	}
	state.ReplaySaved = true
	logger.Info("saveReplay: Stored replay %s (%d actions)", replay.Record.GameID, len(replay.Record.Actions))
}

func (mh *matchHandler) updateLabel(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	open := 0
	if state.inLobby() {
		open = state.GetOpenSeatsCount()
	}
	label, err := encodeLabel(open, string(state.Game.Phase()))
	if err != nil {
		logger.Error("UpdateLabel: Failed to marshal: %v", err)
		return
	}
	if err := dispatcher.MatchLabelUpdate(label); err != nil {
		logger.Error("UpdateLabel: Failed to update: %v", err)
	}
}

func (mh *matchHandler) MatchTerminate(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, graceSeconds int) interface{} {
	logger.Debug("MatchTerminate: Match terminated with %d grace seconds", graceSeconds)
	return state
}

func (mh *matchHandler) MatchSignal(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, data string) (interface{}, string) {
	return state, ""
}
