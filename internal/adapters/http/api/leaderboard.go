// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	service "github.com/okian/dexboard/internal/app"
	"github.com/okian/dexboard/internal/domain/model"
	"github.com/okian/dexboard/pkg/logger"
	"github.com/okian/dexboard/pkg/metrics"
)

// maxBodyBytes bounds POST bodies.
const maxBodyBytes = 1 << 20

const resultInvalid = "invalid"

var jsonNull = []byte("null")

// LeaderboardHandler handles leaderboard requests
type LeaderboardHandler struct {
	deps   Dependencies
	logger logger.Logger
}

// NewLeaderboardHandler creates a new leaderboard handler
func NewLeaderboardHandler(deps Dependencies, log logger.Logger) *LeaderboardHandler {
	return &LeaderboardHandler{
		deps:   deps,
		logger: log,
	}
}

// HandleGetLeaderboard handles GET /api/leaderboard requests.
func (h *LeaderboardHandler) HandleGetLeaderboard(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.deps.Leaderboard(r.Context()))
}

// HandlePostLeaderboard handles POST /api/leaderboard requests.
func (h *LeaderboardHandler) HandlePostLeaderboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	entry, err := decodeEntry(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		metrics.RecordSubmission(resultInvalid)
		h.logger.Debug(ctx, "rejected submission", logger.Error(err))
		writeError(w, http.StatusBadRequest, validationMessage(err))
		return
	}

	if err := h.deps.Submit(ctx, entry); err != nil {
		if errors.Is(err, service.ErrBackpressure) {
			writeError(w, http.StatusTooManyRequests, msgBusy)
			return
		}
		h.logger.Error(ctx, "failed to update leaderboard",
			logger.String("name", entry.Name),
			logger.Float64("score", entry.Score),
			logger.Error(err),
		)
		writeError(w, http.StatusInternalServerError, msgInternal)
		return
	}

	writeJSON(w, http.StatusCreated, successResponse{Success: true, Message: msgUpdated})
}

// decodeEntry reads a {"name", "score"} object. Absent keys and JSON null
// both count as missing.
func decodeEntry(body io.Reader) (model.Entry, error) {
	dec := json.NewDecoder(body)
	var raw map[string]json.RawMessage
	if err := dec.Decode(&raw); err != nil {
		return model.Entry{}, fmt.Errorf("%w: %w", ErrBadRequest, err)
	}
	// The body must hold exactly one JSON value.
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return model.Entry{}, fmt.Errorf("%w: trailing data after object", ErrBadRequest)
	}

	name, okName := raw["name"]
	score, okScore := raw["score"]
	if !okName || !okScore || isNull(name) || isNull(score) {
		return model.Entry{}, ErrBadRequest
	}

	var e model.Entry
	if err := json.Unmarshal(score, &e.Score); err != nil {
		if isNumber(score) {
			// e.g. 1e400: valid JSON, outside float64
			return model.Entry{}, fmt.Errorf("%w: %w", ErrScoreRange, err)
		}
		return model.Entry{}, fmt.Errorf("%w: %w", ErrScoreType, err)
	}
	if err := json.Unmarshal(name, &e.Name); err != nil {
		return model.Entry{}, fmt.Errorf("%w: %w", ErrNameType, err)
	}
	return e, nil
}

func isNull(v json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(v), jsonNull)
}

func isNumber(v json.RawMessage) bool {
	v = bytes.TrimSpace(v)
	return len(v) > 0 && (v[0] == '-' || (v[0] >= '0' && v[0] <= '9'))
}
