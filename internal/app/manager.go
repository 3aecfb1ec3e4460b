package app

import (
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"whist/internal/domain"
	"whist/internal/game"
	"whist/internal/rules"
)

// ruleNamespace scopes name-based rule IDs so replays reproduce them.
var ruleNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("urn:whist:rules"))

// Options configures a Manager.
type Options struct {
	GameID       string
	HandsPerGame int // 0 plays until EndGame is called
	MaxRules     int // 0 is unlimited
	Rng          *rand.Rand
	Clock        func() time.Time
}

// Manager runs one game. It is not safe for concurrent use; callers
// serialize access, typically from a single match loop.
type Manager struct {
	id      string
	opts    Options
	state   game.GameState
	engine  *rules.Engine
	rng     *rand.Rand
	now     func() time.Time
	actions []game.Action
	seeds   []int64
}

// NewManager constructs a Manager with a time-seeded rng and the wall clock
// unless opts provides its own.
func NewManager(opts Options) *Manager {
	if opts.GameID == "" {
		opts.GameID = uuid.NewString()
	}
	rng := opts.Rng
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	now := opts.Clock
	if now == nil {
		now = time.Now
	}
	return &Manager{
		id:     opts.GameID,
		opts:   opts,
		state:  game.NewState(),
		engine: rules.NewEngine(),
		rng:    rng,
		now:    now,
	}
}

func (m *Manager) GameID() string { return m.id }

func (m *Manager) Phase() game.Phase { return m.state.Phase }

// State returns a deep copy of the current state.
func (m *Manager) State() game.GameState { return m.state.Clone() }

// Actions returns the log of every dispatched action.
func (m *Manager) Actions() []game.Action { return append([]game.Action{}, m.actions...) }

// ActionCount is the length of the action log.
func (m *Manager) ActionCount() int { return len(m.actions) }

// Seeds returns the shuffle seed of every dealt hand.
func (m *Manager) Seeds() []int64 { return append([]int64{}, m.seeds...) }

func (m *Manager) dispatch(a game.Action) {
	m.state = game.Reduce(m.state, a)
	m.actions = append(m.actions, a)
}

// AddPlayer seats a player while the table is waiting.
func (m *Manager) AddPlayer(seat domain.Seat, id, name string, isBot bool) ([]Event, error) {
	if !seat.Valid() || id == "" {
		return nil, ErrUnknownSeat
	}
	if m.state.Phase != game.PhaseWaiting {
		return nil, ErrGameInProgress
	}
	if m.state.Players[seat] != nil {
		return nil, ErrSeatOccupied
	}
	if _, taken := m.state.SeatOf(id); taken {
		return nil, ErrDuplicatePlayer
	}
	m.dispatch(game.AddPlayer(seat, id, name, isBot))
	return []Event{{
		Kind:    EventPlayerJoined,
		Payload: PlayerJoinedPayload{Seat: seat, PlayerID: id, Name: name, IsBot: isBot},
	}}, nil
}

// RemovePlayer frees a seat before the first deal.
func (m *Manager) RemovePlayer(seat domain.Seat) ([]Event, error) {
	p := m.state.Player(seat)
	if p == nil {
		return nil, ErrSeatEmpty
	}
	if m.state.Phase != game.PhaseWaiting {
		return nil, ErrGameInProgress
	}
	m.dispatch(game.RemovePlayer(seat))
	return []Event{{
		Kind:    EventPlayerLeft,
		Payload: PlayerLeftPayload{Seat: seat, PlayerID: p.ID},
	}}, nil
}

// SetConnected records a seat's connection status. Seats survive
// disconnects once the game has started.
func (m *Manager) SetConnected(seat domain.Seat, connected bool) ([]Event, error) {
	p := m.state.Player(seat)
	if p == nil {
		return nil, ErrSeatEmpty
	}
	if p.IsConnected == connected {
		return nil, nil
	}
	m.dispatch(game.SetPlayerConnected(seat, connected))
	return []Event{{
		Kind:    EventPlayerConnection,
		Payload: PlayerConnectionPayload{Seat: seat, Connected: connected},
	}}, nil
}

// StartHandResult describes a fresh deal.
type StartHandResult struct {
	HandNumber int
	TrumpSuit  domain.Suit
	Hands      [domain.NumSeats][]domain.Card
	Leader     domain.Seat
	Seed       int64
}

// StartHand shuffles and deals the next hand. A nil seed draws one from the
// manager's rng; either way the seed used is recorded for replay.
func (m *Manager) StartHand(seed *int64) (StartHandResult, []Event, error) {
	s := m.state
	switch s.Phase {
	case game.PhaseWaiting, game.PhaseDealing:
	case game.PhaseGameEnd:
		return StartHandResult{}, nil, ErrGameOver
	default:
		return StartHandResult{}, nil, ErrNotDealing
	}
	if !s.IsFull() {
		return StartHandResult{}, nil, ErrTableNotFull
	}

	var sd int64
	if seed != nil {
		sd = *seed
	} else {
		sd = m.rng.Int63()
	}
	deck := domain.ShuffleDeck(domain.NewDeck(), &sd)
	hands := domain.Deal(deck)
	trump := deck[len(deck)-1].Suit
	number := len(s.HandHistory) + 1
	leader := domain.Seat((number - 1) % domain.NumSeats)

	m.dispatch(game.StartHand(trump, hands, leader))
	m.seeds = append(m.seeds, sd)

	res := StartHandResult{HandNumber: number, TrumpSuit: trump, Leader: leader, Seed: sd}
	events := []Event{{
		Kind:    EventHandStarted,
		Payload: HandStartedPayload{HandNumber: number, TrumpSuit: trump, Leader: leader},
	}}
	for i := range hands {
		seat := domain.Seat(i)
		hand := append([]domain.Card{}, hands[i]...)
		domain.SortHand(hand)
		res.Hands[i] = hand
		events = append(events, Event{
			Kind:       EventHandDealt,
			Payload:    HandDealtPayload{Seat: seat, Hand: hand},
			Recipients: []domain.Seat{seat},
		})
	}
	return res, events, nil
}

// StartNextHand closes the rule creation window, whether or not a rule was
// added, and deals.
func (m *Manager) StartNextHand(seed *int64) (StartHandResult, []Event, error) {
	switch m.state.Phase {
	case game.PhaseRuleCreate, game.PhaseDealing:
	case game.PhaseGameEnd:
		return StartHandResult{}, nil, ErrGameOver
	default:
		return StartHandResult{}, nil, ErrNotDealing
	}
	m.dispatch(game.StartNextHand())
	return m.StartHand(seed)
}

// EndGame finishes the game and emits the final standings.
func (m *Manager) EndGame() ([]Event, error) {
	if m.state.Phase == game.PhaseGameEnd {
		return nil, ErrGameOver
	}
	m.dispatch(game.EndGame())
	return []Event{{
		Kind:    EventGameEnded,
		Payload: GameEndedPayload{Standings: m.Standings(), Phase: m.state.Phase},
	}}, nil
}

// Standings ranks seats by cumulative score, ties by seat order.
func (m *Manager) Standings() []Standing {
	var out []Standing
	for i, p := range m.state.Players {
		if p == nil {
			continue
		}
		out = append(out, Standing{Seat: domain.Seat(i), PlayerID: p.ID, Name: p.Name, Score: m.state.Scores[i]})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	for i := range out {
		out[i].Rank = i + 1
	}
	return out
}

// PlayResult is the outcome of a play attempt. Success mirrors a nil error.
type PlayResult struct {
	Success        bool
	Error          string
	FaceDown       bool
	TrickComplete  bool
	TrickWinner    domain.Seat
	HandComplete   bool
	HandWinner     domain.Seat
	GameOver       bool
	RulesSuspended bool
}

// PlayCard attempts a play for seat. Base-rule failures return an
// *IllegalPlayError, house rule blocks a *RuleViolationError. A complete
// trick is resolved and a complete hand scored before returning.
func (m *Manager) PlayCard(seat domain.Seat, card domain.Card, faceDown bool) (PlayResult, []Event, error) {
	res, events, err := m.playCard(seat, card, faceDown)
	res.Success = err == nil
	if err != nil {
		res.Error = err.Error()
		return res, nil, err
	}
	return res, events, nil
}

func (m *Manager) playCard(seat domain.Seat, card domain.Card, faceDown bool) (PlayResult, []Event, error) {
	res := PlayResult{TrickWinner: domain.NoSeat, HandWinner: domain.NoSeat}
	s := m.state
	if s.Player(seat) == nil {
		return res, nil, ErrUnknownSeat
	}
	if s.Phase == game.PhaseGameEnd {
		return res, nil, ErrGameOver
	}
	if s.Phase != game.PhasePlaying || s.Hand == nil || s.Hand.CurrentTrick == nil {
		return res, nil, ErrNotPlaying
	}
	trick := s.Hand.CurrentTrick
	trump := s.Hand.TrumpSuit
	if trick.IsComplete() || trick.CurrentPlayer != seat {
		return res, nil, ErrNotYourTurn
	}
	if ok, reason := domain.IsLegalPlay(s.Players[seat].Hand, trick.Cards, trump, card, faceDown); !ok {
		return res, nil, &IllegalPlayError{Card: card, Reason: reason}
	}

	active := s.ActiveRules()
	var events []Event
	attempt := m.engine.Evaluate(rules.OnPlayAttempt, active, m.context(seat, &rules.Play{Card: card, FaceDown: faceDown}, nil))
	if !attempt.Allowed {
		if _, suspended := m.PermittedMoves(seat); !suspended {
			v, _ := attempt.FirstViolation()
			return res, nil, &RuleViolationError{Violation: v, All: attempt.Violations}
		}
		ids := make([]string, 0, len(attempt.Violations))
		for _, v := range attempt.Violations {
			ids = append(ids, v.RuleID)
		}
		res.RulesSuspended = true
		events = append(events, Event{Kind: EventRulesSuspended, Payload: RulesSuspendedPayload{Seat: seat, RuleIDs: ids}})
		attempt = rules.Result{Allowed: true}
	}

	stored := faceDown || attempt.MustPlayFaceDown
	// onPlayAccepted sees the card on the table, so it runs against the
	// state the play produces. Its skip is folded into the recorded action.
	preview := game.Reduce(s, game.PlayCard(seat, card, stored, false))
	accepted := m.engine.Evaluate(rules.OnPlayAccepted, active, contextOf(preview, seat, &rules.Play{Card: card, FaceDown: stored}, nil))
	m.dispatch(game.PlayCard(seat, card, stored, attempt.SkipNextPlayer || accepted.SkipNextPlayer))
	res.FaceDown = stored

	after := m.state.Hand.CurrentTrick
	played := CardPlayedPayload{Seat: seat, FaceDown: stored, TrickNumber: after.TrickNumber, NextSeat: domain.NoSeat}
	if !stored {
		c := card
		played.Card = &c
	}
	if !after.IsComplete() {
		played.NextSeat = after.CurrentPlayer
	}
	events = append(events, Event{Kind: EventCardPlayed, Payload: played})
	events = append(events, triggered(rules.OnPlayAttempt, active, attempt)...)
	events = append(events, triggered(rules.OnPlayAccepted, active, accepted)...)

	if !after.IsComplete() {
		return res, events, nil
	}

	completed := after.Clone()
	winner := domain.ResolveTrick(completed.Cards, trump)
	completed.Winner = winner
	m.dispatch(game.CompleteTrick(winner))
	res.TrickComplete = true
	res.TrickWinner = winner
	events = append(events, Event{
		Kind:    EventTrickCompleted,
		Payload: TrickCompletedPayload{TrickNumber: completed.TrickNumber, Winner: winner, Cards: tableCards(completed.Cards, domain.NoSeat)},
	})
	trickEnd := m.engine.Evaluate(rules.OnTrickEnd, active, m.context(winner, nil, completed))
	events = append(events, triggered(rules.OnTrickEnd, active, trickEnd)...)

	if m.state.Phase != game.PhaseHandEnd {
		return res, events, nil
	}

	hand := m.state.Hand
	score := domain.ScoreHand(hand.CompletedTricks)
	m.dispatch(game.CompleteHand(score.Winner))
	res.HandComplete = true
	res.HandWinner = score.Winner
	events = append(events, Event{
		Kind: EventHandCompleted,
		Payload: HandCompletedPayload{
			HandNumber: hand.Number,
			TricksWon:  score.TricksWon,
			Winner:     score.Winner,
			Scores:     m.state.Scores,
		},
	})
	handEnd := m.engine.Evaluate(rules.OnHandEnd, active, m.handEndContext(score.Winner, hand, completed))
	events = append(events, triggered(rules.OnHandEnd, active, handEnd)...)

	if m.opts.HandsPerGame > 0 && len(m.state.HandHistory) >= m.opts.HandsPerGame {
		ended, err := m.EndGame()
		if err != nil {
			return res, nil, err
		}
		res.GameOver = true
		events = append(events, ended...)
	}
	return res, events, nil
}

// PermittedMoves returns seat's legal moves with house rules applied. When
// the rules would leave nothing playable they are suspended for this play:
// the base moves come back and suspended is true. Outside seat's turn the
// result is empty.
func (m *Manager) PermittedMoves(seat domain.Seat) (moves []domain.LegalMove, suspended bool) {
	s := m.state
	if s.Phase != game.PhasePlaying || s.Hand == nil || s.Hand.CurrentTrick == nil {
		return nil, false
	}
	trick := s.Hand.CurrentTrick
	p := s.Player(seat)
	if p == nil || trick.IsComplete() || trick.CurrentPlayer != seat {
		return nil, false
	}

	base := domain.LegalMoves(p.Hand, trick.Cards, s.Hand.TrumpSuit)
	active := s.ActiveRules()
	if len(active) == 0 {
		return base, false
	}
	allowed := func(c domain.Card, faceDown bool) bool {
		ctx := m.context(seat, &rules.Play{Card: c, FaceDown: faceDown}, nil)
		return m.engine.Evaluate(rules.OnPlayAttempt, active, ctx).Allowed
	}
	out := make([]domain.LegalMove, 0, len(base))
	playable := false
	for _, mv := range base {
		f := domain.LegalMove{Card: mv.Card}
		f.FaceUp = mv.FaceUp && allowed(mv.Card, false)
		f.FaceDown = mv.FaceDown && allowed(mv.Card, true)
		playable = playable || f.FaceUp || f.FaceDown
		out = append(out, f)
	}
	if !playable {
		return base, true
	}
	return out, false
}

// AddRule accepts a house rule from the winner of the last hand.
func (m *Manager) AddRule(seat domain.Seat, draft rules.Draft) (rules.Rule, []Event, error) {
	s := m.state
	if !m.IsRuleCreationPhase() {
		return rules.Rule{}, nil, ErrNotRuleCreationPhase
	}
	last, _ := s.LastHand()
	if seat != last.Winner {
		return rules.Rule{}, nil, ErrNotHandWinner
	}
	if m.ruleLimitReached() {
		return rules.Rule{}, nil, ErrRuleLimitReached
	}
	if problems := rules.ValidateRule(draft); len(problems) > 0 {
		return rules.Rule{}, nil, &RuleValidationError{Problems: problems}
	}

	r := rules.Rule{
		ID:            m.ruleID(len(s.Rules) + 1),
		Name:          strings.TrimSpace(draft.Name),
		Description:   strings.TrimSpace(draft.Description),
		CreatedBy:     seat,
		CreatedAtHand: last.Number,
		CreatedAt:     m.now().UTC(),
		Event:         draft.Event,
		When:          draft.When,
		Then:          append([]rules.Effect{}, draft.Then...),
		IsActive:      true,
	}
	m.dispatch(game.AddRule(r))
	return r.Clone(), []Event{{Kind: EventRuleAdded, Payload: RuleAddedPayload{Rule: r.Clone()}}}, nil
}

func (m *Manager) ruleID(n int) string {
	return uuid.NewSHA1(ruleNamespace, []byte(fmt.Sprintf("%s/%d", m.id, n))).String()
}

func (m *Manager) ruleLimitReached() bool {
	return m.opts.MaxRules > 0 && len(m.state.Rules) >= m.opts.MaxRules
}

// HandWinner returns the winner of the most recently completed hand.
func (m *Manager) HandWinner() (domain.Seat, bool) {
	last, ok := m.state.LastHand()
	if !ok {
		return domain.NoSeat, false
	}
	return last.Winner, true
}

func (m *Manager) IsRuleCreationPhase() bool {
	return m.state.Phase == game.PhaseRuleCreate
}

// context projects state for one rule evaluation. When trick is nil the
// trick in progress is used.
func (m *Manager) context(seat domain.Seat, play *rules.Play, trick *domain.Trick) rules.Context {
	return contextOf(m.state, seat, play, trick)
}

// handEndContext reports the hand that just ended, not the one about to be
// dealt.
func (m *Manager) handEndContext(winner domain.Seat, hand *game.Hand, last *domain.Trick) rules.Context {
	ctx := m.context(winner, nil, last)
	if hand != nil {
		ctx.Game.HandNumber = hand.Number
		ctx.Game.TrumpSuit = hand.TrumpSuit
	}
	return ctx
}

func contextOf(s game.GameState, seat domain.Seat, play *rules.Play, trick *domain.Trick) rules.Context {
	ctx := rules.Context{
		Play:   play,
		Player: rules.PlayerView{Seat: seat},
		Game:   rules.GameView{HandNumber: s.HandNumber()},
	}
	if p := s.Player(seat); p != nil {
		ctx.Player.Hand = append([]domain.Card{}, p.Hand...)
		ctx.Player.TricksWon = p.TricksWon
	}
	if s.Hand == nil {
		return ctx
	}
	ctx.Game.TrumpSuit = s.Hand.TrumpSuit
	if trick == nil {
		trick = s.Hand.CurrentTrick
	}
	if trick != nil {
		ctx.Trick = rules.TrickView{
			Cards:       append([]domain.PlayedCard{}, trick.Cards...),
			LeadSuit:    trick.LeadSuit,
			TrickNumber: trick.TrickNumber,
		}
	}
	return ctx
}

func triggered(event rules.EventType, active []rules.Rule, res rules.Result) []Event {
	if len(res.Matched) == 0 {
		return nil
	}
	byID := make(map[string]rules.Rule, len(active))
	for _, r := range active {
		byID[r.ID] = r
	}
	events := make([]Event, 0, len(res.Matched))
	for _, id := range res.Matched {
		r := byID[id]
		kinds := make([]rules.EffectKind, 0, len(r.Then))
		for _, eff := range r.Then {
			if eff != nil {
				kinds = append(kinds, eff.Kind())
			}
		}
		events = append(events, Event{
			Kind:    EventRuleTriggered,
			Payload: RuleTriggeredPayload{RuleID: id, RuleName: r.Name, Event: event, Effects: kinds},
		})
	}
	return events
}
