package domain

import "testing"

func tricksWonBy(winners ...Seat) []Trick {
	out := make([]Trick, len(winners))
	for i, w := range winners {
		out[i] = Trick{TrickNumber: i + 1, Winner: w}
	}
	return out
}

func TestScoreHand(t *testing.T) {
	tests := []struct {
		name    string
		winners []Seat
		want    Seat
		tied    bool
	}{
		{
			name:    "strict majority",
			winners: []Seat{North, North, North, North, East, East, South, South, West, West, North, East, South},
			want:    North,
		},
		{
			name:    "tie broken by latest trick",
			winners: []Seat{North, North, North, North, East, East, East, East, South, South, South, West, East},
			want:    East,
		},
		{
			name:    "tie ignores later tricks by non-tied seats",
			winners: []Seat{East, East, East, East, North, North, North, North, South, South, West, West, West},
			want:    North,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := ScoreHand(tricksWonBy(tt.winners...))
			if res.Winner != tt.want {
				t.Errorf("expected %v, got %v", tt.want, res.Winner)
			}
			total := 0
			for _, n := range res.TricksWon {
				total += n
			}
			if total != TricksPerHand {
				t.Errorf("expected %d tricks counted, got %d", TricksPerHand, total)
			}
			most := 0
			for _, n := range res.TricksWon {
				if n > most {
					most = n
				}
			}
			if res.TricksWon[res.Winner] != most {
				t.Errorf("winner %v is not among the leaders", res.Winner)
			}
		})
	}
}

func TestScoreHandFallsBackToSeatOrder(t *testing.T) {
	res := ScoreHand(nil)
	if res.Winner != North || !res.Tied {
		t.Errorf("expected tied fallback to north, got %+v", res)
	}
}
