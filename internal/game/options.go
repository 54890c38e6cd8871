package game

import "time"

// Options are the tunable rules of the game.
type Options struct {
	MinPlayers        int
	CountdownSeconds  int
	TickInterval      time.Duration
	RoundRestartDelay time.Duration

	// GuessRate is the sustained number of guesses per second a session may send; zero disables the limit.
	GuessRate  float64
	GuessBurst int

	// CloseGuessDistance enables private hints for wrong guesses within this edit distance.
	CloseGuessDistance int

	GuesserPoints int
	DrawerPoints  int
}

func DefaultOptions() Options {
	return Options{
		MinPlayers:        2,
		CountdownSeconds:  5,
		TickInterval:      time.Second,
		RoundRestartDelay: 3 * time.Second,
		GuessRate:         5,
		GuessBurst:        10,
		GuesserPoints:     10,
		DrawerPoints:      5,
	}
}
