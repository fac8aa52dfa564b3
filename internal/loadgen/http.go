package loadgen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/dexboard/pkg/logger"
)

// HTTPClient wraps http.Client with timeout
type HTTPClient struct {
	client *http.Client
}

// newHTTPClient creates a new HTTP client with timeout
func newHTTPClient(timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		client: &http.Client{Timeout: timeout},
	}
}

// Get performs a GET request
func (c *HTTPClient) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	return c.client.Do(req)
}

// Post performs a POST request with JSON body
func (c *HTTPClient) Post(ctx context.Context, url string, body interface{}) (*http.Response, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.client.Do(req)
}

// submission outcomes
const (
	outcomeAccepted = "accepted"
	outcomeRejected = "rejected"
	outcomeFailed   = "failed"
)

// submitResult carries the highest accepted score.
type submitResult struct {
	accepted, rejected, failed int64
	maxAccepted                float64
	anyAccepted                bool
}

// submitAll posts entries concurrently using a worker pool.
func submitAll(ctx context.Context, cfg *Config, client *HTTPClient, entries []Entry) *submitResult {
	log := logger.Named("loadgen")
	url := cfg.BaseURL + leaderboardPath

	var (
		res  submitResult
		mu   sync.Mutex
		wg   sync.WaitGroup
		jobs = make(chan Entry, cfg.Workers*workerChanMultiplier)
	)

	for i := 0; i < cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for e := range jobs {
				switch outcome, err := submitOne(ctx, client, url, e); outcome {
				case outcomeAccepted:
					atomic.AddInt64(&res.accepted, 1)
					mu.Lock()
					if !res.anyAccepted || e.Score > res.maxAccepted {
						res.maxAccepted = e.Score
						res.anyAccepted = true
					}
					mu.Unlock()
				case outcomeRejected:
					atomic.AddInt64(&res.rejected, 1)
				default:
					atomic.AddInt64(&res.failed, 1)
					if cfg.Verbose {
						log.Warn(ctx, "submission failed", logger.String("name", e.Name), logger.Error(err))
					}
				}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, e := range entries {
			select {
			case <-ctx.Done():
				return
			case jobs <- e:
			}
		}
	}()

	wg.Wait()
	return &res
}

// submitOne posts a single entry and classifies the response.
func submitOne(ctx context.Context, client *HTTPClient, url string, e Entry) (string, error) {
	resp, err := client.Post(ctx, url, e)
	if err != nil {
		return outcomeFailed, err
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, resp.Body)

	switch resp.StatusCode {
	case http.StatusCreated:
		return outcomeAccepted, nil
	case http.StatusTooManyRequests:
		return outcomeRejected, nil
	default:
		return outcomeFailed, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
}

// getLeaderboard fetches the current top entries.
func getLeaderboard(ctx context.Context, client *HTTPClient, baseURL string) ([]Entry, error) {
	resp, err := client.Get(ctx, baseURL+leaderboardPath)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch leaderboard: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("leaderboard request failed with status: %d", resp.StatusCode)
	}

	var entries []Entry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		return nil, fmt.Errorf("failed to decode leaderboard: %w", err)
	}
	return entries, nil
}
