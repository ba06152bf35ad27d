package models

import "errors"

var (
	ErrInvalidUniverse = errors.New("unknown universe")
	// ErrEmptyPool means a universe has no characters to pick from. This is a
	// fatal misconfiguration, not a normal runtime condition.
	ErrEmptyPool         = errors.New("character pool is empty")
	ErrPuzzleNotFound    = errors.New("puzzle not found")
	ErrInvalidGuess      = errors.New("guess is empty after normalization")
	ErrAlreadySolved     = errors.New("puzzle already solved")
	ErrAttemptsExhausted = errors.New("no attempts remaining")
	ErrUserNotFound      = errors.New("user not found")
	// ErrStorageUnavailable wraps transient repository failures. The core
	// propagates these unchanged; retry policy lives with the caller.
	ErrStorageUnavailable = errors.New("storage unavailable")
)
