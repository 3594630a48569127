package domain

import "errors"

var (
	ErrDuplicateName     = errors.New("player already registered")
	ErrNotFound          = errors.New("player not found")
	ErrInvalidRating     = errors.New("rating must be non-negative")
	ErrInvalidName       = errors.New("player name must not be empty")
	ErrNotAssigned       = errors.New("player is not assigned to a side")
	ErrInvalidSide       = errors.New("invalid side")
	ErrEmptyRoster       = errors.New("roster is empty")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrInvalidAmount     = errors.New("amount must be positive")
	ErrSideClosed        = errors.New("side pool is heavier than the opposing pool")
	ErrInvalidBettor     = errors.New("bettor must not be empty")
	ErrInvalidMatch      = errors.New("match id must not be empty")
	ErrNoBalanceSession  = errors.New("teams have not been balanced yet")
	ErrCandidateRange    = errors.New("candidate index out of range")
)
