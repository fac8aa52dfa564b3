package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/okian/dexboard/internal/domain/model"
	"github.com/okian/dexboard/internal/domain/ranking"
	"github.com/okian/dexboard/pkg/logger"
	"github.com/okian/dexboard/pkg/metrics"
)

// indent matches the layout of leaderboard files written by earlier releases.
const indent = "    "

// Reasons reported when Load falls back to an empty leaderboard.
const (
	fallbackMissing   = "missing"
	fallbackCorrupt   = "corrupt"
	fallbackReadError = "read_error"

	// Valid JSON holding values that are not entries.
	fallbackUnconvertible = "unconvertible"
)

// FileStore keeps the leaderboard as one pretty-printed JSON array on disk.
//
// Writes overwrite the file in place unless atomic writes are enabled, so a
// crash in the middle of Save can leave a truncated file; the next Load then
// reports an empty leaderboard. Save refuses to replace a file that is valid
// JSON but holds values Load could not decode. The RWMutex only orders I/O
// issued by this process.
type FileStore struct {
	mu   sync.RWMutex
	path string
	opts options
}

// NewFileStore returns a FileStore backed by path. The file is created on first Save.
func NewFileStore(path string, opts ...Option) *FileStore {
	return &FileStore{
		path: path,
		opts: buildOptions(opts),
	}
}

// Path returns the backing file path.
func (s *FileStore) Path() string {
	return s.path
}

// Load reads the leaderboard file.
func (s *FileStore) Load(ctx context.Context) []model.Entry {
	start := time.Now()
	defer func() {
		metrics.RecordStoreLoadLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.read(ctx).entries
}

// Save ranks entries and overwrites the leaderboard file.
func (s *FileStore) Save(ctx context.Context, entries []model.Entry) error {
	start := time.Now()
	defer func() {
		metrics.RecordStoreSaveLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	ranked := ranking.Cap(ranking.Sorted(entries), s.opts.maxEntries)
	data, err := json.MarshalIndent(ranked, "", indent)
	if err != nil {
		metrics.RecordStoreSaveError()
		return fmt.Errorf("%w: %w", ErrEncode, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if snap := s.read(ctx); snap.unreadable > 0 {
		metrics.RecordStoreSaveError()
		s.opts.logger.Error(ctx, "refusing to overwrite leaderboard with unreadable entries",
			logger.String("path", s.path),
			logger.Int("unreadable", snap.unreadable),
		)
		return fmt.Errorf("%w: %w", ErrWrite, ErrUnsafeOverwrite)
	}

	if s.opts.atomicWrites {
		err = s.writeAtomic(data)
	} else {
		err = os.WriteFile(s.path, data, s.opts.fileMode)
	}
	if err != nil {
		metrics.RecordStoreSaveError()
		s.opts.logger.Error(ctx, "failed to write leaderboard",
			logger.String("path", s.path),
			logger.Error(err),
		)
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}

	metrics.UpdateEntriesTotal(len(ranked))
	return nil
}

// Count returns the number of entries currently in the file.
func (s *FileStore) Count(ctx context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.read(ctx).entries)
}

// snapshot is the decoded content of the leaderboard file.
type snapshot struct {
	entries []model.Entry
	// unreadable counts well-formed JSON values that could not be turned
	// into entries. Saving over such a file would lose them.
	unreadable int
}

// read must be called with mu held.
func (s *FileStore) read(ctx context.Context) snapshot {
	empty := snapshot{entries: []model.Entry{}}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			metrics.RecordStoreLoadFallback(fallbackMissing)
			s.opts.logger.Debug(ctx, "leaderboard file not found; starting empty", logger.String("path", s.path))
			return empty
		}
		metrics.RecordStoreLoadFallback(fallbackReadError)
		s.opts.logger.Warn(ctx, "failed to read leaderboard; treating as empty",
			logger.String("path", s.path),
			logger.Error(err),
		)
		empty.unreadable = 1
		return empty
	}

	if !json.Valid(data) {
		metrics.RecordStoreLoadFallback(fallbackCorrupt)
		s.opts.logger.Warn(ctx, "leaderboard file is not valid JSON; treating as empty", logger.String("path", s.path))
		return empty
	}

	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		metrics.RecordStoreLoadFallback(fallbackUnconvertible)
		s.opts.logger.Warn(ctx, "leaderboard file is not a JSON array; treating as empty",
			logger.String("path", s.path),
			logger.Error(err),
		)
		empty.unreadable = 1
		return empty
	}

	snap := snapshot{entries: make([]model.Entry, 0, len(raws))}
	for _, raw := range raws {
		e, ok := decodeStored(raw)
		if !ok {
			snap.unreadable++
			continue
		}
		snap.entries = append(snap.entries, e)
	}
	if snap.unreadable > 0 {
		metrics.RecordStoreLoadFallback(fallbackUnconvertible)
		s.opts.logger.Warn(ctx, "skipped leaderboard entries that cannot be decoded",
			logger.String("path", s.path),
			logger.Int("skipped", snap.unreadable),
		)
	}
	return snap
}

// decodeStored converts one stored value into an Entry. Files written by
// older releases may carry numeric strings as scores or numbers as names;
// those are converted. Anything else is reported as not ok.
func decodeStored(raw json.RawMessage) (model.Entry, bool) {
	var fields struct {
		Name  json.RawMessage `json:"name"`
		Score json.RawMessage `json:"score"`
	}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return model.Entry{}, false
	}

	name, ok := storedName(fields.Name)
	if !ok {
		return model.Entry{}, false
	}
	score, ok := storedScore(fields.Score)
	if !ok {
		return model.Entry{}, false
	}
	return model.Entry{Name: name, Score: score}, true
}

func storedName(raw json.RawMessage) (string, bool) {
	v := bytes.TrimSpace(raw)
	if len(v) == 0 {
		return "", false
	}
	switch v[0] {
	case '"':
		var name string
		if err := json.Unmarshal(v, &name); err != nil {
			return "", false
		}
		return name, true
	case '{', '[', 'n':
		return "", false
	default:
		// number or boolean literal
		return string(v), true
	}
}

func storedScore(raw json.RawMessage) (float64, bool) {
	v := bytes.TrimSpace(raw)
	if len(v) == 0 {
		return 0, false
	}
	switch v[0] {
	case '"':
		var text string
		if err := json.Unmarshal(v, &text); err != nil {
			return 0, false
		}
		score, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
		if err != nil || math.IsNaN(score) || math.IsInf(score, 0) {
			return 0, false
		}
		return score, true
	case '{', '[', 'n', 't', 'f':
		return 0, false
	default:
		var score float64
		if err := json.Unmarshal(v, &score); err != nil {
			return 0, false
		}
		return score, true
	}
}

// writeAtomic writes data to a sibling temp file and renames it into place.
func (s *FileStore) writeAtomic(data []byte) error {
	dir, base := filepath.Split(s.path)
	if dir == "" {
		dir = "."
	}
	tmp, err := os.CreateTemp(dir, base+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return err
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return err
	}
	if err := os.Chmod(tmpName, s.opts.fileMode); err != nil {
		cleanup()
		return err
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		cleanup()
		return err
	}
	return nil
}
