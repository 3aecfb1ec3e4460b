package domain

import "fmt"

// Seat is a fixed table position. Play proceeds clockwise North, East, South, West.
type Seat int

const (
	NoSeat Seat = -1
	North  Seat = 0
	East   Seat = 1
	South  Seat = 2
	West   Seat = 3
)

const NumSeats = 4

// AllSeats lists seats in clockwise order from North.
func AllSeats() []Seat {
	return []Seat{North, East, South, West}
}

func (s Seat) Valid() bool { return s >= North && s <= West }

// Next returns the seat clockwise of s.
func (s Seat) Next() Seat { return (s + 1) % NumSeats }

func (s Seat) String() string {
	switch s {
	case North:
		return "north"
	case East:
		return "east"
	case South:
		return "south"
	case West:
		return "west"
	}
	return ""
}

// ParseSeat accepts the lowercase seat names. The empty string maps to NoSeat.
func ParseSeat(name string) (Seat, error) {
	switch name {
	case "north":
		return North, nil
	case "east":
		return East, nil
	case "south":
		return South, nil
	case "west":
		return West, nil
	case "":
		return NoSeat, nil
	}
	return NoSeat, fmt.Errorf("invalid seat %q", name)
}

func (s Seat) MarshalText() ([]byte, error) {
	if s != NoSeat && !s.Valid() {
		return nil, fmt.Errorf("invalid seat %d", int(s))
	}
	return []byte(s.String()), nil
}

func (s *Seat) UnmarshalText(b []byte) error {
	parsed, err := ParseSeat(string(b))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
