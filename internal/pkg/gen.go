package pkg

import (
	"fmt"
	"math/rand"

	"github.com/google/uuid"
)

const (
	playerNamePrefix = "Player_"
	minNameNumber    = 1000
	maxNameNumber    = 9999
)

// GenerateSessionID - generates a new unique connection handle.
func GenerateSessionID() string {
	return uuid.NewString()
}

// GeneratePlayerName - generates a display name like Player_4821.
func GeneratePlayerName() string {
	n := minNameNumber + rand.Intn(maxNameNumber-minNameNumber+1) //nolint: gosec // display names are not secrets

	return fmt.Sprintf("%s%d", playerNamePrefix, n)
}
