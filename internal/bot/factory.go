package bot

import (
	"fmt"
	"math/rand"
	"strings"
	"time"
)

type BotLevel int

const (
	BotLevelEasy BotLevel = iota
	BotLevelGood
	BotLevelSmart
)

// ParseLevel maps an identity difficulty to a level. Unknown values play at
// BotLevelGood.
func ParseLevel(difficulty string) BotLevel {
	switch strings.ToLower(strings.TrimSpace(difficulty)) {
	case "easy":
		return BotLevelEasy
	case "hard":
		return BotLevelSmart
	default:
		return BotLevelGood
	}
}

// NewBrain creates a new AI brain based on the specified level. rng seeds
// the easy level; nil uses the clock.
func NewBrain(level BotLevel, rng *rand.Rand) (Brain, error) {
	switch level {
	case BotLevelEasy:
		if rng == nil {
			rng = rand.New(rand.NewSource(time.Now().UnixNano()))
		}
		return NewRandomBot(rng), nil
	case BotLevelGood:
		return &LowestBot{}, nil
	case BotLevelSmart:
		return NewSmartBot(), nil
	default:
		return nil, fmt.Errorf("unknown bot level: %d", level)
	}
}
