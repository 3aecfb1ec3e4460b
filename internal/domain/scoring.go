package domain

// HandResult is the outcome of a scored hand.
type HandResult struct {
	TricksWon [NumSeats]int `json:"tricks_won"`
	Winner    Seat          `json:"winner"`
	Tied      bool          `json:"tied"`
}

// ScoreHand counts tricks per seat. Ties on the most tricks go to whichever
// tied seat won the latest trick, falling back to seat order.
func ScoreHand(tricks []Trick) HandResult {
	var res HandResult
	for _, t := range tricks {
		if t.Winner.Valid() {
			res.TricksWon[t.Winner]++
		}
	}

	most := 0
	for _, n := range res.TricksWon {
		if n > most {
			most = n
		}
	}
	var leaders []Seat
	for _, s := range AllSeats() {
		if res.TricksWon[s] == most {
			leaders = append(leaders, s)
		}
	}

	res.Winner = leaders[0]
	if len(leaders) == 1 {
		return res
	}
	res.Tied = true
	for i := len(tricks) - 1; i >= 0; i-- {
		if seatIn(tricks[i].Winner, leaders) {
			res.Winner = tricks[i].Winner
			break
		}
	}
	return res
}

func seatIn(s Seat, seats []Seat) bool {
	for _, candidate := range seats {
		if candidate == s {
			return true
		}
	}
	return false
}
