// Package loadgen drives a running leaderboard service with concurrent
// submissions and checks the leaderboard it serves afterwards.
package loadgen

import (
	"time"

	"github.com/okian/dexboard/internal/domain/model"
)

// Config holds configuration for a load run
type Config struct {
	BaseURL     string        // Base URL of the service
	Submissions int           // Number of scores to submit
	Workers     int           // Number of concurrent workers
	Timeout     time.Duration // HTTP request timeout
	Verbose     bool          // Log every failed request
}

// Entry is the wire shape of a leaderboard row.
type Entry = model.Entry

// Stats holds run statistics
type Stats struct {
	Generated          int
	Submitted          int
	Accepted           int
	Rejected           int // 429 from a full queue
	Failed             int
	LeaderboardEntries int
	StartTime          time.Time
	EndTime            time.Time
	Duration           time.Duration
}
