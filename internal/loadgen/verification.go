package loadgen

import (
	"fmt"

	"github.com/okian/dexboard/internal/domain/ranking"
)

// verifyLeaderboard compares the leaderboard after a run with the one seen
// before it. It assumes no other client wrote in between.
func verifyLeaderboard(before, after []Entry, res *submitResult) error {
	if !ranking.IsRanked(after) {
		return fmt.Errorf("%w: entries are not sorted by score", ErrVerification)
	}

	// A short leaderboard before the run holds every stored entry.
	want := leaderboardSize
	if len(before) < leaderboardSize {
		want = min(leaderboardSize, len(before)+int(res.accepted))
	}
	if len(after) != want {
		return fmt.Errorf("%w: expected %d entries, got %d", ErrVerification, want, len(after))
	}

	if !res.anyAccepted {
		return nil
	}
	top := res.maxAccepted
	if len(before) > 0 && before[0].Score > top {
		top = before[0].Score
	}
	if after[0].Score != top {
		return fmt.Errorf("%w: top score %.0f, expected %.0f", ErrVerification, after[0].Score, top)
	}
	return nil
}
