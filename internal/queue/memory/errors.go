package memory

import "errors"

// ErrQueueClosed is returned when attempting to use a closed broker.
var ErrQueueClosed = errors.New("queue is closed")
