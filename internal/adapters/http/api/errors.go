package api

import "errors"

// Sentinel kinds for request validation failures.
var (
	ErrBadRequest = errors.New("bad request")
	ErrScoreType  = errors.New("score is not a number")
	ErrScoreRange = errors.New("score does not fit a double")
	ErrNameType   = errors.New("name is not a string")
)

// Messages returned to clients. Their wording is part of the public contract.
const (
	msgRequired       = `Invalid data. "name" and "score" are required.`
	msgScoreNotNumber = `Invalid data. "score" must be a number.`
	msgScoreRange     = `Invalid data. "score" must fit in a double-precision float.`
	msgNameNotString  = `Invalid data. "name" must be a string.`
	msgBusy           = "Leaderboard is busy, try again."
	msgInternal       = "Internal server error."
	msgUpdated        = "Leaderboard updated."
)

// validationMessage maps a decode error to its client message.
func validationMessage(err error) string {
	switch {
	case errors.Is(err, ErrScoreType):
		return msgScoreNotNumber
	case errors.Is(err, ErrScoreRange):
		return msgScoreRange
	case errors.Is(err, ErrNameType):
		return msgNameNotString
	default:
		return msgRequired
	}
}
