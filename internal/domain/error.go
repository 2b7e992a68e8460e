package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound             = errors.New("conversation not found")
	ErrInvalidArgument      = errors.New("invalid argument")
	ErrNoActiveConversation = errors.New("no active conversation")
	ErrStorageUnavailable   = errors.New("storage unavailable")
	ErrCorruptStorage       = errors.New("stored conversations are corrupt")
	ErrSlotLocked           = errors.New("storage slot is owned by another instance")
)
