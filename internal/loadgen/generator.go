package loadgen

import (
	"crypto/rand"
	"math/big"

	"github.com/google/uuid"
)

// generateSubmissions creates n entries with unique player names and random
// integer scores in [0, maxScore).
func generateSubmissions(n int) []Entry {
	entries := make([]Entry, n)
	for i := range entries {
		entries[i] = Entry{
			Name:  namePrefix + uuid.NewString(),
			Score: float64(randomScore()),
		}
	}
	return entries
}

func randomScore() int64 {
	n, err := rand.Int(rand.Reader, big.NewInt(maxScore))
	if err != nil {
		return 0
	}
	return n.Int64()
}
