// Package sim plays bot-only games end to end.
package sim

import (
	"errors"
	"fmt"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"whist/internal/app"
	"whist/internal/bot"
	"whist/internal/domain"
	"whist/internal/game"
)

// maxSteps bounds a single game; a finished game needs far fewer.
const maxSteps = 10000

type Config struct {
	Seed         int64
	Games        int
	HandsPerGame int
	MaxRules     int
	Levels       [domain.NumSeats]bot.BotLevel
	AuditSecret  string
	AuditIssuer  string
}

type GameReport struct {
	GameID      string
	Hands       int
	Standings   []app.Standing
	Rules       []string
	Suspensions int
	Fallbacks   int
	Record      app.ReplayRecord
	Token       string
}

type Report struct {
	Games []GameReport
}

// Run plays cfg.Games games. Game i is seeded with cfg.Seed+i, so a report
// is reproducible from its config.
func Run(cfg Config, logger *zap.Logger) (Report, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Games <= 0 {
		cfg.Games = 1
	}
	if cfg.HandsPerGame <= 0 {
		cfg.HandsPerGame = 5
	}
	var rep Report
	for i := 0; i < cfg.Games; i++ {
		gr, err := RunGame(cfg, i, logger)
		if err != nil {
			return rep, fmt.Errorf("game %d: %w", i, err)
		}
		rep.Games = append(rep.Games, gr)
	}
	return rep, nil
}

// RunGame plays one game to the end.
func RunGame(cfg Config, index int, logger *zap.Logger) (GameReport, error) {
	seed := cfg.Seed + int64(index)
	rng := rand.New(rand.NewSource(seed))
	gameID := fmt.Sprintf("sim-%d-%d", cfg.Seed, index)
	log := logger.With(zap.String("game_id", gameID), zap.Int64("seed", seed))

	m := app.NewManager(app.Options{
		GameID:       gameID,
		HandsPerGame: cfg.HandsPerGame,
		MaxRules:     cfg.MaxRules,
		Rng:          rng,
		Clock:        func() time.Time { return time.Unix(seed, 0).UTC() },
	})

	var agents [domain.NumSeats]*bot.Agent
	for _, seat := range domain.AllSeats() {
		brain, err := bot.NewBrain(cfg.Levels[seat], rand.New(rand.NewSource(rng.Int63())))
		if err != nil {
			return GameReport{}, err
		}
		agents[seat] = &bot.Agent{
			ID:       fmt.Sprintf("%s-%s", gameID, seat),
			Name:     "bot " + seat.String(),
			Seat:     seat,
			Strategy: brain,
		}
	}
	broadcast := func(events []app.Event) {
		for _, ev := range events {
			for _, a := range agents {
				a.OnGameEvent(ev)
			}
		}
	}

	for _, a := range agents {
		events, err := m.AddPlayer(a.Seat, a.ID, a.Name, true)
		if err != nil {
			return GameReport{}, err
		}
		broadcast(events)
	}

	gr := GameReport{GameID: gameID}
	_, events, err := m.StartHand(nil)
	if err != nil {
		return GameReport{}, err
	}
	broadcast(events)

	for step := 0; m.Phase() != game.PhaseGameEnd; step++ {
		if step > maxSteps {
			return gr, fmt.Errorf("game did not finish after %d steps", maxSteps)
		}
		switch m.Phase() {
		case game.PhasePlaying:
			seat := m.ClientState(domain.NoSeat).Trick.CurrentPlayer
			view := m.ClientState(seat)
			move, err := agents[seat].Play(view)
			if err != nil {
				return gr, fmt.Errorf("%s has no move: %w", seat, err)
			}
			res, events, err := m.PlayCard(seat, move.Card, move.FaceDown)
			var violation *app.RuleViolationError
			if errors.As(err, &violation) {
				gr.Fallbacks++
				log.Debug("bot move blocked", zap.String("seat", seat.String()), zap.String("rule", violation.Violation.RuleName))
				fallback, ok := bot.FirstPermitted(m.ClientState(seat))
				if !ok {
					return gr, err
				}
				res, events, err = m.PlayCard(seat, fallback.Card, fallback.FaceDown)
			}
			if err != nil {
				return gr, fmt.Errorf("%s play %s: %w", seat, move.Card, err)
			}
			broadcast(events)
			if res.RulesSuspended {
				gr.Suspensions++
				log.Debug("house rules suspended", zap.String("seat", seat.String()))
			}
			if res.HandComplete {
				last, _ := m.State().LastHand()
				log.Info("hand complete",
					zap.Int("hand", last.Number),
					zap.String("winner", last.Winner.String()),
					zap.Ints("tricks", last.TricksWon[:]),
				)
			}
		case game.PhaseRuleCreate:
			winner, _ := m.HandWinner()
			if draft, ok := agents[winner].DraftRule(m.ClientState(winner)); ok {
				r, events, err := m.AddRule(winner, draft)
				switch {
				case err == nil:
					broadcast(events)
					gr.Rules = append(gr.Rules, r.Name)
					log.Info("rule added", zap.String("rule", r.Name), zap.String("author", winner.String()))
				case errors.Is(err, app.ErrRuleLimitReached):
				default:
					return gr, err
				}
			}
			_, events, err := m.StartNextHand(nil)
			if err != nil {
				return gr, err
			}
			broadcast(events)
		case game.PhaseDealing:
			_, events, err := m.StartNextHand(nil)
			if err != nil {
				return gr, err
			}
			broadcast(events)
		default:
			return gr, fmt.Errorf("unexpected phase %s", m.Phase())
		}
	}

	gr.Hands = len(m.State().HandHistory)
	gr.Standings = m.Standings()
	gr.Record = m.Record()
	if cfg.AuditSecret != "" {
		issuer := cfg.AuditIssuer
		if issuer == "" {
			issuer = "whistsim"
		}
		token, err := app.NewAuditor(cfg.AuditSecret, issuer).Sign(gr.Record)
		if err != nil {
			return gr, err
		}
		gr.Token = token
	}
	log.Info("game complete",
		zap.Int("hands", gr.Hands),
		zap.Strings("rules", gr.Rules),
		zap.Int("suspensions", gr.Suspensions),
		zap.String("leader", gr.Standings[0].Seat.String()),
	)
	return gr, nil
}
