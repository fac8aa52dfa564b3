package loadgen

import "errors"

// Sentinel errors returned by Run.
var (
	ErrUnreachable  = errors.New("service unreachable")
	ErrVerification = errors.New("leaderboard verification failed")
)
