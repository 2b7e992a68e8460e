package repository

import "context"

// Slot is a single named cell of durable key-value storage holding the
// serialized conversation list. Read returns ok=false when the slot is empty.
type Slot interface {
	Read(ctx context.Context) (data []byte, ok bool, err error)
	Write(ctx context.Context, data []byte) error
}

// NamedSlot is implemented by slots that can report their backend for metrics and logs.
type NamedSlot interface {
	Slot
	Driver() string
}
