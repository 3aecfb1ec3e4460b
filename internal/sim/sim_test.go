package sim

import (
	"reflect"
	"testing"

	"go.uber.org/zap"

	"whist/internal/app"
	"whist/internal/bot"
	"whist/internal/domain"
)

func TestRunIsDeterministic(t *testing.T) {
	cfg := Config{
		Seed:         7,
		Games:        2,
		HandsPerGame: 3,
		Levels:       [domain.NumSeats]bot.BotLevel{bot.BotLevelEasy, bot.BotLevelGood, bot.BotLevelSmart, bot.BotLevelGood},
	}
	a, err := Run(cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	b, err := Run(cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if !reflect.DeepEqual(a, b) {
		t.Fatal("same config produced different reports")
	}
	if len(a.Games) != 2 || a.Games[0].GameID == a.Games[1].GameID {
		t.Fatalf("unexpected games %+v", a.Games)
	}
}

func TestRunGamePlaysToTheEnd(t *testing.T) {
	levels := []bot.BotLevel{bot.BotLevelEasy, bot.BotLevelGood, bot.BotLevelSmart}
	for _, level := range levels {
		cfg := Config{
			Seed:         int64(level) + 100,
			HandsPerGame: 4,
			Levels:       [domain.NumSeats]bot.BotLevel{level, level, level, level},
			AuditSecret:  "sim-secret",
		}
		gr, err := RunGame(cfg, 0, zap.NewNop())
		if err != nil {
			t.Fatalf("level %d: %v", level, err)
		}
		if gr.Hands != 4 {
			t.Errorf("level %d: expected 4 hands, got %d", level, gr.Hands)
		}
		total := 0
		for _, st := range gr.Standings {
			total += st.Score
		}
		if total != 4*domain.TricksPerHand {
			t.Errorf("level %d: expected %d tricks, got %d", level, 4*domain.TricksPerHand, total)
		}
		if len(gr.Rules) == 0 || len(gr.Rules) > 3 {
			t.Errorf("level %d: expected 1-3 rules, got %v", level, gr.Rules)
		}
		if _, err := app.NewAuditor("sim-secret", "whistsim").Verify(gr.Token, gr.Record); err != nil {
			t.Errorf("level %d: token does not verify: %v", level, err)
		}
	}
}

func TestRunRespectsRuleLimit(t *testing.T) {
	cfg := Config{Seed: 3, HandsPerGame: 5, MaxRules: 1}
	rep, err := Run(cfg, nil)
	if err != nil {
		t.Fatal(err)
	}
	if got := len(rep.Games[0].Rules); got != 1 {
		t.Errorf("expected a single rule, got %d", got)
	}
}
