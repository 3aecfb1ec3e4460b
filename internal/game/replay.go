package game

// Replay folds actions over a fresh table.
func Replay(actions []Action) GameState {
	s := NewState()
	for _, a := range actions {
		s = Reduce(s, a)
	}
	return s
}
