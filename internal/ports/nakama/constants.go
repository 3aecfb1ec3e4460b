package nakama

const (
	// RpcQuickMatch is the Nakama RPC id clients call to find or create a lobby-capable match.
	RpcQuickMatch = "quick_match"

	// RpcFetchReplay returns a stored replay and whether its audit token verifies.
	RpcFetchReplay = "fetch_replay"

	// MatchNameWhist is the authoritative match handler name registered with Nakama.
	MatchNameWhist = "whist_match"

	// GameLabel is the value of the "game" key in match labels.
	GameLabel = "whist"
)

// Op codes for client messages and server events.
const (
	// Client -> Server
	OpStartGame     int64 = 1
	OpPlayCard      int64 = 2
	OpSubmitRule    int64 = 3
	OpStartNextHand int64 = 4
	OpRequestState  int64 = 5

	// Server -> Client events
	OpPlayerJoined     int64 = 101
	OpPlayerLeft       int64 = 102
	OpHandStarted      int64 = 103
	OpHandDealt        int64 = 104 // send privately
	OpCardPlayed       int64 = 105
	OpTrickCompleted   int64 = 106
	OpHandCompleted    int64 = 107
	OpRuleAdded        int64 = 108
	OpRuleTriggered    int64 = 109
	OpRulesSuspended   int64 = 110
	OpGameEnded        int64 = 111
	OpPlayerConnection int64 = 112
	OpMatchState       int64 = 113 // send privately
	OpGameError        int64 = 114 // send privately
)

// Env keys for bot pacing, alongside the config package's keys.
const (
	envBotMinDelay = "whist_bot_min_delay_sec"
	envBotMaxDelay = "whist_bot_max_delay_sec"
)
