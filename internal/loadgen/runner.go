package loadgen

import (
	"context"
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/okian/dexboard/pkg/logger"
)

// Run executes a complete load run and returns its statistics.
func Run(ctx context.Context, cfg Config) (*Stats, error) {
	applyDefaults(&cfg)
	log := logger.Named("loadgen")
	stats := &Stats{StartTime: time.Now()}

	log.Info(ctx, "starting load run",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("submissions", cfg.Submissions),
		logger.Int("workers", cfg.Workers),
		logger.Duration("timeout", cfg.Timeout),
		logger.Bool("verbose", cfg.Verbose),
	)

	client := newHTTPClient(cfg.Timeout)

	// Step 1: Check the service answers
	if err := checkService(ctx, client, cfg.BaseURL); err != nil {
		return stats, err
	}

	// Step 2: Snapshot the leaderboard
	before, err := getLeaderboard(ctx, client, cfg.BaseURL)
	if err != nil {
		return stats, err
	}

	// Step 3: Generate and submit concurrently
	entries := generateSubmissions(cfg.Submissions)
	stats.Generated = len(entries)
	res := submitAll(ctx, &cfg, client, entries)
	stats.Accepted = int(res.accepted)
	stats.Rejected = int(res.rejected)
	stats.Failed = int(res.failed)
	stats.Submitted = stats.Accepted + stats.Rejected + stats.Failed

	// Step 4: Fetch and verify
	after, err := getLeaderboard(ctx, client, cfg.BaseURL)
	if err != nil {
		return stats, err
	}
	stats.LeaderboardEntries = len(after)

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(ctx, log, stats, after)

	if err := verifyLeaderboard(before, after, res); err != nil {
		return stats, err
	}
	log.Info(ctx, "load run completed successfully")
	return stats, nil
}

func applyDefaults(cfg *Config) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Submissions <= 0 {
		cfg.Submissions = DefaultSubmissions
	}
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU() * workerChanMultiplier
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
}

// checkService verifies the service is running.
func checkService(ctx context.Context, client *HTTPClient, baseURL string) error {
	resp, err := client.Get(ctx, baseURL+rootPath)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnreachable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", ErrUnreachable, resp.StatusCode)
	}
	return nil
}

// displayFinalStats logs the run statistics and the served leaderboard.
func displayFinalStats(ctx context.Context, log logger.Logger, stats *Stats, top []Entry) {
	var successRate, perSecond float64
	if stats.Submitted > 0 {
		successRate = float64(stats.Accepted) / float64(stats.Submitted) * percentageMultiplier
	}
	if stats.Duration > 0 {
		perSecond = float64(stats.Submitted) / stats.Duration.Seconds()
	}

	log.Info(ctx, "final statistics",
		logger.Int("generated", stats.Generated),
		logger.Int("submitted", stats.Submitted),
		logger.Int("accepted", stats.Accepted),
		logger.Int("rejected", stats.Rejected),
		logger.Int("failed", stats.Failed),
		logger.Int("leaderboardEntries", stats.LeaderboardEntries),
		logger.Duration("duration", stats.Duration),
		logger.Float64("successRate", successRate),
		logger.Float64("submissionsPerSecond", perSecond),
	)

	for i, e := range top {
		log.Debug(ctx, "leaderboard", logger.Int("rank", i+1), logger.String("name", e.Name), logger.Float64("score", e.Score))
	}
}
