// Package idx generates the sortable identifiers used for user records and
// request correlation.
package idx

import (
	"crypto/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

type ID string

var (
	mu      sync.Mutex
	entropy = ulid.Monotonic(rand.Reader, 0)
)

// New returns a ULID for the current UTC time. IDs generated within the same
// millisecond are monotonically increasing.
func New() ID {
	return NewAt(time.Now().UTC())
}

// NewAt returns a ULID stamped with t. Handy for tests that need a stable
// ordering.
func NewAt(t time.Time) ID {
	mu.Lock()
	defer mu.Unlock()

	return ID(ulid.MustNew(ulid.Timestamp(t), entropy).String())
}

func (id ID) String() string { return string(id) }
