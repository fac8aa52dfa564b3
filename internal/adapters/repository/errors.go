package repository

import "errors"

// Sentinel kinds for leaderboard store errors.
var (
	ErrWrite          = errors.New("leaderboard write failed")
	ErrEncode         = errors.New("leaderboard encode failed")
	ErrUnknownBackend = errors.New("unknown store backend")

	// ErrUnsafeOverwrite is wrapped in ErrWrite when the file on disk holds
	// entries Load could not decode; saving would drop them.
	ErrUnsafeOverwrite = errors.New("leaderboard file holds unreadable entries")
)
