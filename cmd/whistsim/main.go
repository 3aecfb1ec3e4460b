package main

import (
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"whist/internal/bot"
	"whist/internal/config"
	"whist/internal/domain"
	"whist/internal/sim"
)

func main() {
	seed := flag.Int64("seed", 1, "base shuffle seed")
	hands := flag.Int("hands", 0, "hands per game (0 uses the game config)")
	games := flag.Int("games", 1, "number of games to play")
	level := flag.String("level", "medium", "bot difficulty for every seat: easy, medium or hard")
	configPath := flag.String("config", "data/game_config.json", "game config path")
	secret := flag.String("secret", "", "audit secret (overrides the game config)")
	verbose := flag.Bool("v", false, "debug logging")
	flag.Parse()

	logger, err := newLogger(*verbose)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	cfg := config.Defaults()
	if err := config.LoadGameConfig(*configPath); err != nil {
		logger.Warn("using default game config", zap.Error(err))
	} else {
		cfg = config.GetGameConfig()
	}
	if *hands > 0 {
		cfg.HandsPerGame = *hands
	}
	if *secret != "" {
		cfg.AuditSecret = *secret
	}

	lv := bot.ParseLevel(*level)
	rep, err := sim.Run(sim.Config{
		Seed:         *seed,
		Games:        *games,
		HandsPerGame: cfg.HandsPerGame,
		MaxRules:     cfg.MaxRules,
		Levels:       [domain.NumSeats]bot.BotLevel{lv, lv, lv, lv},
		AuditSecret:  cfg.AuditSecret,
		AuditIssuer:  cfg.AuditIssuer,
	}, logger)
	if err != nil {
		logger.Fatal("simulation failed", zap.Error(err))
	}

	for _, g := range rep.Games {
		fmt.Printf("%s: %d hands, %d rules, %d suspensions\n", g.GameID, g.Hands, len(g.Rules), g.Suspensions)
		for _, st := range g.Standings {
			fmt.Printf("  %d. %-5s %3d\n", st.Rank, st.Seat, st.Score)
		}
		if g.Token != "" {
			fmt.Printf("  audit: %s\n", g.Token)
		}
	}
}

func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
