package loadgen

import "time"

// Paths exercised by a run.
const (
	rootPath        = "/"
	leaderboardPath = "/api/leaderboard"
)

// Defaults applied when Config leaves a field zero.
const (
	DefaultBaseURL     = "http://localhost:5000"
	DefaultSubmissions = 200
	DefaultTimeout     = 10 * time.Second

	leaderboardSize      = 10
	maxScore             = 10000
	namePrefix           = "trainer-"
	workerChanMultiplier = 2
	percentageMultiplier = 100
)
