package app

import "whist/internal/domain"

// MinPlayersToStartGame is the number of occupied seats required to deal.
// Every seat must be filled, bots included.
const MinPlayersToStartGame = domain.NumSeats
