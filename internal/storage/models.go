package storage

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("not found")

// Memory is one stored exchange. Its ID is also the Qdrant point ID.
type Memory struct {
	ID        string
	Text      string
	Source    string
	CreatedAt time.Time
}
